// Package bridge replays grammars as cobra command trees and walks cobra
// trees back into grammars.
//
// # Building
//
// [Builder.Build] turns a [grammar.Parser] into a [Program] whose Root is a
// *cobra.Command. Options become pflag flags backed by one value per
// action, so every action kind keeps its behaviour: counts increment,
// appends accumulate from a copy of the default, constants are stored
// without an argument, and choices are checked after conversion.
// Positionals are matched by the command itself, left to right, each
// taking as many tokens as it may while leaving enough for the rest.
//
//	ns, err := bridge.Parse(p, []string{"a.txt", "-o", "b.txt", "-vv"})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(ns["output"], ns["verbose"]) // b.txt 2
//
// Sub-commands and their aliases become child commands. Aliases are
// separate hidden commands built from the same grammar, so the sub-parser
// dest always holds the name that was typed. A Program parses once; build
// a new one for every argument list. [Parse] does both in one call.
//
// Rejected arguments return an error with code [errors.ErrCodeUsage].
// Help and version requests write their output and return [ErrExit].
//
// # Walking
//
// [Walker.Walk] reconstructs a grammar from any cobra tree. Flags created
// by a Builder carry their original action; other flags are classified by
// their pflag type name, with converters for numeric, duration, and IP
// types. Positionals are read back from the Use line:
//
//	<name>      one value
//	<name> ×N   N repeated tokens give a fixed count
//	[name]      optional value
//	[name...]   zero or more values
//	<name...>   one or more values
//
// Required flags and flag groups marked through cobra are read from the
// flag annotations.
package bridge
