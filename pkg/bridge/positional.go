package bridge

import (
	"fmt"
	"strings"

	"github.com/matzehuels/argdump/pkg/grammar"
	"github.com/matzehuels/argdump/pkg/value"
)

// minArgs is the least number of tokens a positional consumes.
func minArgs(a *grammar.Action) int {
	switch a.Nargs.Kind() {
	case value.KindInt:
		return int(a.Nargs.Int())
	case value.KindString:
		if a.Nargs.Str() == "+" {
			return 1
		}
		return 0
	case value.KindSentinel:
		return 0
	}
	return 1
}

// leadBounds returns how many tokens the positionals of p consume at
// least and at most. most is -1 when unbounded.
func leadBounds(p *grammar.Parser) (least, most int) {
	for _, a := range p.Positionals() {
		if a.Kind == grammar.KindParsers {
			continue
		}
		n := minArgs(a)
		least += n
		if most < 0 {
			continue
		}
		switch a.Nargs.Kind() {
		case value.KindNull, value.KindInt:
			most += n
		case value.KindString:
			if a.Nargs.Str() == "?" {
				most++
			} else {
				most = -1
			}
		default:
			most = -1
		}
	}
	return least, most
}

// assignPositionals matches args to positionals left to right. Each takes
// as many tokens as it can while leaving enough for the ones after it.
func assignPositionals(lvl *level, args []string) error {
	var pos []*grammar.Action
	for _, a := range lvl.parser.Positionals() {
		if a.Kind != grammar.KindParsers {
			pos = append(pos, a)
		}
	}
	mins := make([]int, len(pos)+1)
	for i := len(pos) - 1; i >= 0; i-- {
		mins[i] = mins[i+1] + minArgs(pos[i])
	}

	if len(args) < mins[0] {
		var missing []string
		left := len(args)
		for _, a := range pos {
			n := minArgs(a)
			if n > 0 && left < n {
				missing = append(missing, a.Dest)
				continue
			}
			left -= n
		}
		return fmt.Errorf("the following arguments are required: %s", strings.Join(missing, ", "))
	}

	idx := 0
	for i, a := range pos {
		avail := len(args) - idx - mins[i+1]
		take := avail
		switch a.Nargs.Kind() {
		case value.KindNull:
			take = 1
		case value.KindInt:
			take = int(a.Nargs.Int())
		case value.KindString:
			if a.Nargs.Str() == "?" {
				take = min(avail, 1)
			}
		}
		got := args[idx : idx+take]
		idx += take
		if err := storePositional(lvl, a, got); err != nil {
			return err
		}
	}
	if idx < len(args) {
		return fmt.Errorf("unrecognized arguments: %s", strings.Join(args[idx:], " "))
	}
	return nil
}

func storePositional(lvl *level, a *grammar.Action, got []string) error {
	switch {
	case a.Nargs.Is(value.Remainder):
		out := make([]any, len(got))
		for i, s := range got {
			out[i] = s
		}
		lvl.values[a.Dest] = out
		return nil
	case a.Nargs.Kind() == value.KindNull:
		v, err := convert(a, got[0])
		if err != nil {
			return err
		}
		lvl.values[a.Dest] = v
		return nil
	case a.Nargs.Kind() == value.KindString && a.Nargs.Str() == "?":
		if len(got) == 0 {
			return nil
		}
		v, err := convert(a, got[0])
		if err != nil {
			return err
		}
		lvl.values[a.Dest] = v
		return nil
	}
	if len(got) == 0 && a.Default != nil {
		return nil
	}
	out := make([]any, 0, len(got))
	for _, s := range got {
		v, err := convert(a, s)
		if err != nil {
			return err
		}
		out = append(out, v)
	}
	lvl.values[a.Dest] = out
	return nil
}

// checkFlags enforces required options and mutex groups of an ancestor
// command. cobra only checks them on the command it runs.
func checkFlags(lvl *level) error {
	fs := lvl.cmd.Flags()
	changed := func(dest string) bool {
		name, ok := lvl.flags[dest]
		if !ok {
			return false
		}
		f := fs.Lookup(name)
		return f != nil && f.Changed
	}
	for _, a := range lvl.parser.Actions {
		if a.Required && !a.IsPositional() && !changed(a.Dest) {
			return fmt.Errorf("the following arguments are required: %s", argName(a))
		}
	}
	for _, g := range lvl.parser.MutexGroups {
		var given, names []string
		for _, dest := range g.Dests {
			a := lvl.parser.Lookup(dest)
			if _, ok := lvl.flags[dest]; !ok || a == nil {
				continue
			}
			names = append(names, argName(a))
			if changed(dest) {
				given = append(given, argName(a))
			}
		}
		if len(given) > 1 {
			return fmt.Errorf("argument %s: not allowed with argument %s", given[1], given[0])
		}
		if g.Required && len(given) == 0 && len(names) > 0 {
			return fmt.Errorf("one of the arguments %s is required", strings.Join(names, " "))
		}
	}
	return nil
}
