// Package grammar models command-line grammars and converts them to and
// from self-describing JSON documents.
//
// # Model
//
// A [Parser] holds an ordered list of [Action] records, the help groups
// that list them by dest, and mutual-exclusion groups. Sub-commands live
// on an action of kind [KindParsers] as a [Subparsers] value; an alias is
// another name bound to the same *Parser.
//
//	root := grammar.NewParser("git")
//	sub := &grammar.Subparsers{Dest: "command"}
//	root.AddSubparsers(sub)
//	sub.Add("checkout", grammar.NewParser("git checkout"), "co", "ch")
//
// # Documents
//
// [Codec.Encode] writes "$schema" first, an optional "$env" block, then the
// parser fields in a fixed order. Argument values (defaults, consts,
// choices, nargs, metavars) use the tagged encoding of package value. A
// sub-command reachable under several names is written once under its
// first name and the remaining names are listed in "subparser_aliases".
//
// Encoding rejects grammars that break a record invariant. Decoding is
// tolerant: unknown keys and fields of the wrong JSON type are ignored,
// fields an action kind does not accept are dropped, and group members
// that name no action are removed. The only decode errors are input that
// is not a JSON object, sub-commands nested deeper than the configured
// ceiling, and, in strict mode, type references that cannot be resolved.
//
// [Codec.EncodeYAML] and [Codec.DecodeYAML] carry the same document as
// YAML.
package grammar
