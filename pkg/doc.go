// Package pkg holds the argdump libraries.
//
// # Overview
//
// argdump turns a command-argument grammar (parsers, sub-commands, options,
// groups and mutual-exclusion constraints) into a portable JSON document and
// rebuilds an equivalent grammar from that document, possibly in another
// process. The packages are layered leaves first:
//
//  1. [errors] - coded errors shared by every package
//  2. [value] - the tagged value model and its JSON tree codec
//  3. [types] - type references and the converter registry
//  4. [grammar] - the grammar model and the document codec (JSON and YAML)
//  5. [bridge] - replay of a grammar into cobra/pflag, and the reverse walk
//  6. [cache], [store] - document storage over file, memory, Redis or MongoDB
//  7. [config] - TOML settings for the codec and the store
//
// # Data Flow
//
//	*grammar.Parser ──Encode──▶ JSON document ──Decode──▶ *grammar.Parser
//	       ▲                          │                         │
//	   bridge.Walk               store.Put/Get             bridge.Build
//	       │                          ▼                         ▼
//	 *cobra.Command              cache.Cache              *cobra.Command
//
// # Quick Start
//
//	data, err := grammar.EncodeDocument(p, false)
//	if err != nil {
//	    return err
//	}
//	restored, err := grammar.DecodeDocument(data, true)
//	if err != nil {
//	    return err
//	}
//	ns, err := bridge.Parse(restored, []string{"checkout", "main"})
//
// Type converters referenced by a document are looked up in a
// [types.Registry]; register custom converters there before decoding. With
// strict resolution an unknown converter fails the decode with
// UNRESOLVABLE_TYPE, while lenient resolution drops it.
package pkg
