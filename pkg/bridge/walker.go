package bridge

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	crdb "github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/argdump/internal/logging"
	"github.com/matzehuels/argdump/pkg/errors"
	"github.com/matzehuels/argdump/pkg/grammar"
	"github.com/matzehuels/argdump/pkg/types"
	"github.com/matzehuels/argdump/pkg/value"
)

// PflagModule is the namespace of the converters registered by
// [RegisterTypes].
const PflagModule = "github.com/spf13/pflag"

// cobra keeps these annotation keys unexported.
const (
	annotationMutex       = "cobra_annotation_mutually_exclusive"
	annotationOneRequired = "cobra_annotation_one_required"
)

// actionSource is implemented by flag values created by a [Builder].
type actionSource interface {
	Action() *grammar.Action
}

// RegisterTypes adds converters for the pflag value types that have no
// builtin counterpart.
func RegisterTypes(r *types.Registry) *types.Registry {
	return r.RegisterNamespace(PflagModule, map[string]any{
		"bool": types.Named(PflagModule, "bool", func(s string) (any, error) {
			return strconv.ParseBool(s)
		}),
		"duration": types.Named(PflagModule, "duration", func(s string) (any, error) {
			return time.ParseDuration(s)
		}),
		"ip": types.Named(PflagModule, "ip", func(s string) (any, error) {
			ip := net.ParseIP(strings.TrimSpace(s))
			if ip == nil {
				return nil, crdb.Newf("invalid IP address %q", s)
			}
			return ip, nil
		}),
	})
}

// Walker reconstructs grammars from cobra command trees, including trees
// not built by a [Builder].
type Walker struct {
	Logger     *log.Logger
	Classifier *grammar.Classifier
	Registry   *types.Registry // resolves the converters of inferred flags
	MaxDepth   int
}

// NewWalker returns a walker that classifies the standard pflag types.
func NewWalker() *Walker {
	c := grammar.NewClassifier()
	for _, name := range []string{
		"string", "int", "int8", "int16", "int32", "int64",
		"uint", "uint8", "uint16", "uint32", "uint64",
		"float32", "float64", "duration", "ip", "ipMask", "ipNet",
		"bytesHex", "bytesBase64", "stringToString", "stringToInt", "stringToInt64",
	} {
		c.Register(name, grammar.KindStore)
	}
	for _, name := range []string{
		"stringSlice", "intSlice", "int32Slice", "int64Slice", "uintSlice",
		"float32Slice", "float64Slice", "boolSlice", "durationSlice", "ipSlice",
	} {
		c.Register(name, grammar.KindExtend)
	}
	c.Register("bool", grammar.KindStoreTrue)
	c.Register("stringArray", grammar.KindAppend)
	return &Walker{
		Logger:     logging.Discard(),
		Classifier: c,
		Registry:   RegisterTypes(types.NewRegistry()),
		MaxDepth:   grammar.DefaultMaxDepth,
	}
}

// Walk reconstructs the grammar of cmd and its sub-commands.
func Walk(cmd *cobra.Command) (*grammar.Parser, error) {
	return NewWalker().Walk(cmd)
}

// Walk reconstructs the grammar of cmd and its sub-commands.
func (w *Walker) Walk(cmd *cobra.Command) (*grammar.Parser, error) {
	if cmd == nil {
		return nil, errors.New(errors.ErrCodeInvalidGrammar, "command is nil")
	}
	return w.walk(cmd, 0)
}

func (w *Walker) walk(cmd *cobra.Command, depth int) (*grammar.Parser, error) {
	if depth > w.MaxDepth {
		return nil, errors.New(errors.ErrCodeDepthExceeded, "command %q nested deeper than %d", cmd.CommandPath(), w.MaxDepth)
	}
	p := grammar.NewParser(cmd.CommandPath())
	p.Description = cmd.Long
	if p.Description == "" {
		p.Description = cmd.Short
	}
	p.Epilog = cmd.Annotations[AnnotationEpilog]
	if p.Epilog == "" {
		p.Epilog = cmd.Example
	}

	for _, a := range positionalsFromUse(cmd.Use) {
		p.Add(a)
	}

	fs := cmd.LocalFlags()
	fs.SortFlags = false
	if f := fs.Lookup("help"); f != nil && f.Hidden {
		dropHelp(p)
	}
	seen := make(map[pflag.Value]*grammar.Action)
	dests := make(map[string]string) // flag name to dest
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Name == "help" {
			return
		}
		if a, ok := seen[f.Value]; ok {
			dests[f.Name] = a.Dest
			return
		}
		a := w.flagAction(f)
		if p.Lookup(a.Dest) != nil {
			// The --no- form of a boolean optional shares its dest.
			if _, ours := f.Value.(actionSource); !ours {
				w.Logger.Warn("duplicate dest skipped", "command", cmd.CommandPath(), "flag", f.Name)
			}
			dests[f.Name] = a.Dest
			return
		}
		seen[f.Value] = a
		dests[f.Name] = a.Dest
		p.Add(a)
	})
	mutexGroups(p, fs, dests)

	if err := w.subcommands(p, cmd, depth); err != nil {
		return nil, err
	}
	return p, nil
}

// flagAction recovers the action of f, or infers one from its type.
func (w *Walker) flagAction(f *pflag.Flag) *grammar.Action {
	if src, ok := f.Value.(actionSource); ok {
		a := *src.Action()
		a.OptionStrings = append([]string(nil), a.OptionStrings...)
		return &a
	}

	var opts []string
	if f.Shorthand != "" {
		opts = append(opts, "-"+f.Shorthand)
	}
	if f.Name != f.Shorthand {
		opts = append(opts, "--"+f.Name)
	}
	a := grammar.Option("", opts...)
	typ := f.Value.Type()
	a.Kind, _ = w.Classifier.Classify(typ)
	if a.Kind == grammar.KindUnknown {
		w.Logger.Debug("unknown flag type stored as string", "flag", f.Name, "type", typ)
		a.Kind = grammar.KindStore
	}
	a.Help = f.Usage
	if f.Hidden {
		a.Help = value.SuppressString
	}
	a.Deprecated = f.Deprecated != ""
	if req := f.Annotations[cobra.BashCompOneRequiredFlag]; len(req) > 0 && req[0] == "true" {
		a.Required = true
	}
	if ref := pflagTypeRef(typ); ref != nil && a.Kind.AcceptsType() {
		a.Type = ref
		a.Converter, _ = w.Registry.Resolve(ref, nil, false)
	}
	a.Default = pflagDefault(a.Kind, typ, f.DefValue)
	if f.NoOptDefVal != "" && a.Kind == grammar.KindStore {
		a.Nargs = value.String("?")
		a.Const = scalar(typ, f.NoOptDefVal)
	}
	return a
}

func (w *Walker) subcommands(p *grammar.Parser, cmd *cobra.Command, depth int) error {
	subs := cmd.Commands()
	if len(subs) == 0 {
		return nil
	}
	s := &grammar.Subparsers{
		Title:    cmd.Annotations[AnnotationTitle],
		Required: cmd.Annotations[AnnotationRequired] == "true",
	}
	if dest, ok := cmd.Annotations[AnnotationDest]; ok {
		s.Dest = dest
	} else {
		s.Dest = strings.Repeat("sub", depth) + "command"
		s.Required = !cmd.Runnable()
	}

	var aliases []*cobra.Command
	for _, sub := range subs {
		if isCobraDefault(sub) {
			continue
		}
		if _, ok := sub.Annotations[AnnotationAliasOf]; ok {
			aliases = append(aliases, sub)
			continue
		}
		sp, err := w.walk(sub, depth+1)
		if err != nil {
			return err
		}
		s.Add(sub.Name(), sp, sub.Aliases...)
	}
	for _, sub := range aliases {
		target := sub.Annotations[AnnotationAliasOf]
		sp, ok := s.Lookup(target)
		if !ok {
			w.Logger.Warn("alias of unknown command skipped", "alias", sub.Name(), "target", target)
			continue
		}
		s.Add(sub.Name(), sp)
	}
	if len(s.Choices) > 0 {
		p.AddSubparsers(s)
	}
	return nil
}

func isCobraDefault(c *cobra.Command) bool {
	switch c.Name() {
	case helpCommandName:
		return true
	case "help":
		return strings.HasPrefix(c.Short, "Help about")
	case "completion":
		return strings.HasPrefix(c.Short, "Generate the autocompletion script")
	}
	return false
}

func dropHelp(p *grammar.Parser) {
	p.AddHelp = false
	actions := p.Actions[:0]
	for _, a := range p.Actions {
		if a.Kind != grammar.KindHelp {
			actions = append(actions, a)
		}
	}
	p.Actions = actions
	for i := range p.Groups {
		dests := p.Groups[i].Dests[:0]
		for _, d := range p.Groups[i].Dests {
			if d != "help" {
				dests = append(dests, d)
			}
		}
		p.Groups[i].Dests = dests
	}
}

// mutexGroups rebuilds the groups cobra records in flag annotations.
func mutexGroups(p *grammar.Parser, fs *pflag.FlagSet, dests map[string]string) {
	var order []string
	groups := make(map[string]bool)
	required := make(map[string]bool)
	fs.VisitAll(func(f *pflag.Flag) {
		for _, g := range f.Annotations[annotationMutex] {
			if _, ok := groups[g]; !ok {
				groups[g] = true
				order = append(order, g)
			}
		}
		for _, g := range f.Annotations[annotationOneRequired] {
			required[g] = true
		}
	})
	for _, g := range order {
		mg := grammar.MutexGroup{Required: required[g]}
		for _, name := range strings.Fields(g) {
			if d, ok := dests[name]; ok {
				mg.Dests = append(mg.Dests, d)
			}
		}
		if len(mg.Dests) > 0 {
			p.MutexGroups = append(p.MutexGroups, mg)
		}
	}
}

// positionalsFromUse parses the argument tokens of a usage line. Repeated
// "<x>" tokens count toward a fixed number of values.
func positionalsFromUse(use string) []*grammar.Action {
	var out []*grammar.Action
	fields := strings.Fields(use)
	if len(fields) < 2 {
		return nil
	}
	for _, tok := range fields[1:] {
		switch strings.ToLower(tok) {
		case "[flags]", "[command]", "[args]", "[args...]":
			continue
		}
		dest, nargs := parseToken(tok)
		if dest == "" {
			continue
		}
		if last := len(out) - 1; last >= 0 && out[last].Dest == dest && nargs == nil {
			prev := out[last]
			n := int64(1)
			if prev.Nargs.Kind() == value.KindInt {
				n = prev.Nargs.Int()
			} else if prev.Nargs != nil {
				continue
			}
			prev.Nargs = value.Int(n + 1)
			continue
		}
		a := grammar.Positional(dest)
		a.Nargs = nargs
		if nargs != nil && nargs.Kind() == value.KindString && nargs.Str() != "+" {
			a.Required = false
		}
		out = append(out, a)
	}
	return out
}

func parseToken(tok string) (string, *value.Value) {
	var nargs *value.Value
	switch {
	case strings.HasPrefix(tok, "[") && strings.HasSuffix(tok, "...]"):
		tok, nargs = tok[1:len(tok)-4], value.String("*")
	case strings.HasPrefix(tok, "["):
		tok, nargs = strings.TrimSuffix(tok[1:], "]"), value.String("?")
	case strings.HasPrefix(tok, "<") && strings.HasSuffix(tok, "...>"):
		tok, nargs = tok[1:len(tok)-4], value.String("+")
	case strings.HasPrefix(tok, "<"):
		tok = strings.TrimSuffix(tok[1:], ">")
	case strings.HasSuffix(tok, "..."):
		tok, nargs = strings.TrimSuffix(tok, "..."), value.String("+")
	}
	if strings.HasPrefix(tok, "-") || strings.ContainsAny(tok, "|[]<>") {
		return "", nil
	}
	return strings.ReplaceAll(strings.ToLower(tok), "-", "_"), nargs
}

// pflagTypeRef maps a pflag type name to a converter reference.
func pflagTypeRef(typ string) *types.Ref {
	elem := strings.TrimSuffix(typ, "Slice")
	switch {
	case strings.HasPrefix(elem, "int"), strings.HasPrefix(elem, "uint"):
		ref, _ := types.RefOf(types.Int)
		return ref
	case strings.HasPrefix(elem, "float"):
		ref, _ := types.RefOf(types.Float)
		return ref
	case elem == "bool" && typ != "bool", elem == "duration", elem == "ip":
		return &types.Ref{Name: elem, Module: PflagModule, Serializable: true}
	}
	return nil
}

// pflagDefault parses the printed default of a flag.
func pflagDefault(kind grammar.ActionKind, typ, def string) *value.Value {
	switch kind {
	case grammar.KindStoreTrue:
		b, _ := strconv.ParseBool(def)
		return value.Bool(b)
	case grammar.KindCount:
		if n, err := strconv.Atoi(def); err == nil && n != 0 {
			return value.Int(int64(n))
		}
		return nil
	case grammar.KindAppend, grammar.KindExtend:
		inner := strings.TrimSuffix(strings.TrimPrefix(def, "["), "]")
		if inner == "" {
			return nil
		}
		var items []*value.Value
		for _, s := range strings.Split(inner, ",") {
			items = append(items, scalar(strings.TrimSuffix(typ, "Slice"), s))
		}
		return value.Seq(items...)
	}
	if def == "" || (def == "[]" && strings.HasPrefix(typ, "stringTo")) {
		return nil
	}
	return scalar(typ, def)
}

func scalar(typ, s string) *value.Value {
	switch {
	case strings.HasPrefix(typ, "int"), strings.HasPrefix(typ, "uint"):
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return value.Int(n)
		}
	case strings.HasPrefix(typ, "float"):
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return value.Float(f)
		}
	case typ == "bool":
		if b, err := strconv.ParseBool(s); err == nil {
			return value.Bool(b)
		}
	}
	return value.String(s)
}
