package bridge

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/argdump/pkg/grammar"
	"github.com/matzehuels/argdump/pkg/types"
	"github.com/matzehuels/argdump/pkg/value"
)

// constMarker is passed to Set when an optional-argument flag is given
// without a value.
const constMarker = "\x00const"

// flagValue is the pflag.Value behind every replayed option. Several
// flags (extra option strings, the --no- form) may share one value.
type flagValue struct {
	lvl    *level
	a      *grammar.Action
	negate bool
	raw    string
}

// Action returns the record the flag was built from.
func (f *flagValue) Action() *grammar.Action { return f.a }

func (f *flagValue) String() string {
	if f.raw != "" {
		return f.raw
	}
	if f.a.Default == nil || f.a.Default.Is(value.Suppress) {
		return ""
	}
	return f.a.Default.String()
}

func (f *flagValue) Type() string {
	switch f.a.Kind {
	case grammar.KindStore, grammar.KindAppend, grammar.KindExtend, grammar.KindUnknown:
		if ref, _ := types.RefOf(f.a.Converter); ref != nil {
			return ref.Name
		}
		return "string"
	}
	return f.a.Kind.String()
}

func (f *flagValue) Set(s string) error {
	f.raw = s
	a, vals := f.a, f.lvl.values
	switch a.Kind {
	case grammar.KindStoreConst:
		vals[a.Dest] = native(a.Const)
	case grammar.KindStoreTrue, grammar.KindStoreFalse, grammar.KindBooleanOptional:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return fmt.Errorf("invalid boolean value %q", s)
		}
		vals[a.Dest] = b != (a.Kind == grammar.KindStoreFalse || f.negate)
	case grammar.KindCount:
		n, _ := vals[a.Dest].(int)
		if cur, ok := vals[a.Dest]; !ok || cur == nil {
			if d, ok := native(a.Default).(int); ok {
				n = d
			}
		}
		if s == "+1" {
			vals[a.Dest] = n + 1
			return nil
		}
		v, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("invalid count %q", s)
		}
		vals[a.Dest] = v
	case grammar.KindAppendConst:
		vals[a.Dest] = append(f.list(), native(a.Const))
	case grammar.KindAppend:
		v, err := f.convertArg(s)
		if err != nil {
			return err
		}
		vals[a.Dest] = append(f.list(), v)
	case grammar.KindExtend:
		items, err := f.convertList(s)
		if err != nil {
			return err
		}
		vals[a.Dest] = append(f.list(), items...)
	case grammar.KindVersion:
		version := strings.ReplaceAll(a.Version, "%(prog)s", f.lvl.parser.Prog)
		fmt.Fprintln(f.lvl.prog.stdout, version)
		f.lvl.prog.exited = true
	default:
		v, err := f.convertArg(s)
		if err != nil {
			return err
		}
		vals[a.Dest] = v
	}
	return nil
}

// convertArg converts one occurrence. A flag whose nargs takes several
// values accepts them comma-separated and yields a list.
func (f *flagValue) convertArg(s string) (any, error) {
	if s == constMarker {
		return native(f.a.Const), nil
	}
	if takesList(f.a.Nargs) {
		items, err := f.convertList(s)
		return items, err
	}
	return convert(f.a, s)
}

func (f *flagValue) convertList(s string) ([]any, error) {
	parts := strings.Split(s, ",")
	if s == "" {
		parts = nil
	}
	if n, ok := fixedNargs(f.a.Nargs); ok && n > 1 && len(parts) != n {
		return nil, fmt.Errorf("expected %d comma-separated values, got %d", n, len(parts))
	}
	out := make([]any, 0, len(parts))
	for _, p := range parts {
		v, err := convert(f.a, p)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// list returns the accumulated values, starting from a copy of the
// default when nothing was given yet.
func (f *flagValue) list() []any {
	if cur, ok := f.lvl.values[f.a.Dest].([]any); ok {
		return cur
	}
	if d, ok := native(f.a.Default).([]any); ok {
		return append([]any(nil), d...)
	}
	return nil
}

// convert applies the action's converter and checks choices.
func convert(a *grammar.Action, s string) (any, error) {
	var v any = s
	if a.Converter != nil {
		out, err := a.Converter.Convert(s)
		if err != nil {
			name := "value"
			if ref, _ := types.RefOf(a.Converter); ref != nil {
				name = ref.Name + " value"
			}
			return nil, fmt.Errorf("argument %s: invalid %s: %q", argName(a), name, s)
		}
		v = out
	}
	if len(a.Choices) == 0 {
		return v, nil
	}
	got := value.Of(v)
	names := make([]string, len(a.Choices))
	for i, c := range a.Choices {
		if value.Equal(got, c) {
			return v, nil
		}
		names[i] = c.String()
	}
	return nil, fmt.Errorf("argument %s: invalid choice: %s (choose from %s)", argName(a), got, strings.Join(names, ", "))
}

func argName(a *grammar.Action) string {
	if len(a.OptionStrings) > 0 {
		return strings.Join(a.OptionStrings, "/")
	}
	return a.Dest
}

// native converts a grammar value for the namespace.
func native(v *value.Value) any {
	if v == nil {
		return nil
	}
	return v.Native()
}

func takesList(nargs *value.Value) bool {
	switch nargs.Kind() {
	case value.KindInt:
		return nargs.Int() > 1
	case value.KindString:
		s := nargs.Str()
		return s == "*" || s == "+"
	case value.KindSentinel:
		return nargs.Is(value.Remainder)
	}
	return false
}

func fixedNargs(nargs *value.Value) (int, bool) {
	if nargs.Kind() != value.KindInt {
		return 0, false
	}
	return int(nargs.Int()), true
}
