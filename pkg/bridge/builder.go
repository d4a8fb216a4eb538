package bridge

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/argdump/internal/logging"
	"github.com/matzehuels/argdump/pkg/errors"
	"github.com/matzehuels/argdump/pkg/grammar"
	"github.com/matzehuels/argdump/pkg/value"
)

// Annotation keys carried on built commands. The walker reads them back.
const (
	AnnotationEpilog   = "argdump.epilog"
	AnnotationDest     = "argdump.subparsers-dest"
	AnnotationRequired = "argdump.subparsers-required"
	AnnotationTitle    = "argdump.subparsers-title"
	AnnotationAliasOf  = "argdump.alias-of"
)

// helpCommandName replaces cobra's "help" sub-command so it cannot shadow
// a grammar command of the same name.
const helpCommandName = "__argdump_help"

// ErrExit is returned by [Program.Execute] when the arguments asked for
// help or the version and no namespace was produced.
var ErrExit = stderrors.New("exit requested")

// Namespace holds parsed values keyed by dest.
type Namespace map[string]any

// Builder turns grammars into cobra command trees.
type Builder struct {
	Logger   *log.Logger
	Stdout   io.Writer
	Stderr   io.Writer
	MaxDepth int
}

// NewBuilder returns a builder writing to the process streams.
func NewBuilder() *Builder {
	return &Builder{
		Logger:   logging.Discard(),
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		MaxDepth: grammar.DefaultMaxDepth,
	}
}

// Parse builds p into a fresh command tree and parses args with it.
func Parse(p *grammar.Parser, args []string) (Namespace, error) {
	return NewBuilder().Parse(p, args)
}

// Parse builds p into a fresh command tree and parses args with it.
func (b *Builder) Parse(p *grammar.Parser, args []string) (Namespace, error) {
	prog, err := b.Build(p)
	if err != nil {
		return nil, err
	}
	return prog.Execute(args)
}

// Program is a built command tree. It holds parse state and can execute
// once; build a new one for every argument list.
type Program struct {
	Root *cobra.Command

	stdout io.Writer
	levels map[*cobra.Command]*level
	leaf   *level
	exited bool
	used   bool
}

// level is the parse state of one command.
type level struct {
	prog   *Program
	parser *grammar.Parser
	cmd    *cobra.Command
	parent *level
	values map[string]any
	flags  map[string]string // dest to flag name
}

// splits reports whether positionals precede the sub-command, in which
// case the command finds the sub-command name itself.
func (l *level) splits() bool {
	if l == nil || l.parser.SubparsersAction() == nil {
		return false
	}
	for _, a := range l.parser.Positionals() {
		if a.Kind != grammar.KindParsers {
			return true
		}
	}
	return false
}

// Build validates p and replays it as a cobra command tree.
func (b *Builder) Build(p *grammar.Parser) (*Program, error) {
	if p == nil {
		return nil, errors.New(errors.ErrCodeInvalidGrammar, "parser is nil")
	}
	prog := &Program{stdout: b.Stdout, levels: make(map[*cobra.Command]*level)}
	root, err := b.command(prog, p, p.Prog, nil, 0)
	if err != nil {
		return nil, err
	}
	root.TraverseChildren = true
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetHelpCommand(&cobra.Command{Use: helpCommandName, Hidden: true})
	root.SetOut(b.Stdout)
	root.SetErr(b.Stderr)
	prog.Root = root
	return prog, nil
}

func (b *Builder) command(prog *Program, p *grammar.Parser, name string, parent *level, depth int) (*cobra.Command, error) {
	if depth > b.MaxDepth {
		return nil, errors.New(errors.ErrCodeDepthExceeded, "command %q nested deeper than %d", name, b.MaxDepth)
	}
	if parent != nil && isAncestor(parent, p) {
		return nil, errors.New(errors.ErrCodeInvalidGrammar, "parser %q contains itself", p.Prog)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	cmd := &cobra.Command{
		Use:           usageLine(name, p),
		Short:         firstLine(p.Description),
		Long:          p.Description,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		Annotations:   map[string]string{},
	}
	if p.Epilog != "" {
		cmd.Annotations[AnnotationEpilog] = p.Epilog
	}
	fs := cmd.Flags()
	fs.SortFlags = false

	lvl := &level{
		prog:   prog,
		parser: p,
		cmd:    cmd,
		parent: parent,
		values: make(map[string]any),
		flags:  make(map[string]string),
	}
	prog.levels[cmd] = lvl
	cmd.RunE = func(c *cobra.Command, args []string) error {
		return prog.run(lvl, args)
	}

	if !p.AddHelp {
		fs.Bool("help", false, "")
		_ = fs.MarkHidden("help")
	}
	for _, a := range p.Actions {
		switch {
		case a.Kind == grammar.KindHelp || a.Kind == grammar.KindParsers:
		case a.IsPositional():
		default:
			b.addFlag(lvl, a)
		}
	}
	b.markGroups(lvl)

	if sp := p.SubparsersAction(); sp != nil {
		s := sp.Subparsers
		cmd.Annotations[AnnotationDest] = s.Dest
		if s.Required {
			cmd.Annotations[AnnotationRequired] = "true"
		}
		if s.Title != "" {
			cmd.Annotations[AnnotationTitle] = s.Title
		}
		for _, c := range s.Canonical() {
			sub, err := b.command(prog, c.Parser, c.Name, lvl, depth+1)
			if err != nil {
				return nil, err
			}
			cmd.AddCommand(sub)
			// Each alias is its own hidden command so the typed name is
			// known at every level of the tree.
			for _, alias := range c.Aliases {
				ac, err := b.command(prog, c.Parser, alias, lvl, depth+1)
				if err != nil {
					return nil, err
				}
				ac.Hidden = true
				ac.Annotations[AnnotationAliasOf] = c.Name
				cmd.AddCommand(ac)
			}
		}
	}
	return cmd, nil
}

func isAncestor(l *level, p *grammar.Parser) bool {
	for ; l != nil; l = l.parent {
		if l.parser == p {
			return true
		}
	}
	return false
}

// addFlag registers the option strings of a as flags sharing one value.
func (b *Builder) addFlag(lvl *level, a *grammar.Action) {
	fs := lvl.cmd.Flags()
	var longs, shorts []string
	for _, opt := range a.OptionStrings {
		n := prefixLen(opt, lvl.parser.PrefixChars)
		body := opt[n:]
		if n > 0 && opt[0] != '-' {
			b.Logger.Warn("option prefix replaced with '-'", "option", opt)
		}
		switch {
		case n == 1 && len(body) == 1:
			shorts = append(shorts, body)
		case n == 1:
			b.Logger.Warn("single-prefix long option registered as long flag", "option", opt)
			longs = append(longs, body)
		default:
			longs = append(longs, body)
		}
	}

	fv := &flagValue{lvl: lvl, a: a}
	name, short := "", ""
	if len(shorts) > 0 {
		short, shorts = shorts[0], shorts[1:]
	}
	switch {
	case len(longs) > 0:
		name, longs = longs[0], longs[1:]
	case short != "":
		name = short
	default:
		return
	}
	if fs.Lookup(name) != nil {
		b.Logger.Warn("duplicate flag skipped", "flag", name, "dest", a.Dest)
		return
	}
	if short != "" && fs.ShorthandLookup(short) != nil {
		b.Logger.Warn("duplicate shorthand dropped", "shorthand", short, "dest", a.Dest)
		short = ""
	}

	usage := a.Help
	if a.HelpSuppressed() {
		usage = ""
	}
	f := fs.VarPF(fv, name, short, usage)
	f.NoOptDefVal = noOptDefault(a)
	lvl.flags[a.Dest] = name

	// Remaining option strings share the value as hidden flags.
	for _, extra := range append(longs, shorts...) {
		if fs.Lookup(extra) != nil {
			b.Logger.Warn("duplicate flag skipped", "flag", extra, "dest", a.Dest)
			continue
		}
		sh := ""
		if len(extra) == 1 && fs.ShorthandLookup(extra) == nil {
			sh = extra
		}
		ef := fs.VarPF(fv, extra, sh, usage)
		ef.NoOptDefVal = f.NoOptDefVal
		ef.Hidden = true
	}
	if a.Kind == grammar.KindBooleanOptional && fs.Lookup("no-"+name) == nil {
		nf := fs.VarPF(&flagValue{lvl: lvl, a: a, negate: true}, "no-"+name, "", usage)
		nf.NoOptDefVal = "true"
		nf.Hidden = a.HelpSuppressed()
	}

	switch {
	case a.Deprecated:
		_ = fs.MarkDeprecated(name, "it will be removed in a future release")
	case a.HelpSuppressed():
		_ = fs.MarkHidden(name)
	}
	if a.Required {
		_ = lvl.cmd.MarkFlagRequired(name)
	}
}

func prefixLen(opt, prefixChars string) int {
	n := 0
	for n < len(opt) && n < 2 && strings.IndexByte(prefixChars, opt[n]) >= 0 {
		n++
	}
	return n
}

func noOptDefault(a *grammar.Action) string {
	switch a.Kind {
	case grammar.KindStoreConst, grammar.KindStoreTrue, grammar.KindStoreFalse,
		grammar.KindAppendConst, grammar.KindBooleanOptional, grammar.KindVersion:
		return "true"
	case grammar.KindCount:
		return "+1"
	}
	if a.Nargs.Kind() == value.KindString && a.Nargs.Str() == "?" {
		return constMarker
	}
	return ""
}

// markGroups translates mutually exclusive groups into cobra constraints.
func (b *Builder) markGroups(lvl *level) {
	for _, g := range lvl.parser.MutexGroups {
		var names []string
		for _, dest := range g.Dests {
			if name, ok := lvl.flags[dest]; ok {
				names = append(names, name)
				continue
			}
			b.Logger.Warn("mutex member is not a flag", "prog", lvl.parser.Prog, "dest", dest)
		}
		switch {
		case len(names) > 1:
			lvl.cmd.MarkFlagsMutuallyExclusive(names...)
			if g.Required {
				lvl.cmd.MarkFlagsOneRequired(names...)
			}
		case len(names) == 1 && g.Required:
			_ = lvl.cmd.MarkFlagRequired(names[0])
		}
	}
}

// usageLine renders name followed by a token per positional.
func usageLine(name string, p *grammar.Parser) string {
	parts := []string{name}
	for _, a := range p.Positionals() {
		if a.Kind == grammar.KindParsers {
			continue
		}
		parts = append(parts, positionalTokens(a)...)
	}
	return strings.Join(parts, " ")
}

func positionalTokens(a *grammar.Action) []string {
	d := a.Dest
	switch a.Nargs.Kind() {
	case value.KindInt:
		out := make([]string, a.Nargs.Int())
		for i := range out {
			out[i] = "<" + d + ">"
		}
		return out
	case value.KindString:
		switch a.Nargs.Str() {
		case "?":
			return []string{"[" + d + "]"}
		case "*":
			return []string{"[" + d + "...]"}
		case "+":
			return []string{"<" + d + "...>"}
		}
	case value.KindSentinel:
		return []string{"[" + d + "...]"}
	}
	return []string{"<" + d + ">"}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// Execute parses args. Rejected input yields an [errors.ErrCodeUsage]
// error; help and version requests yield [ErrExit].
func (p *Program) Execute(args []string) (Namespace, error) {
	if p.used {
		return nil, errors.New(errors.ErrCodeInternal, "program %q already executed", p.Root.Name())
	}
	p.used = true
	if args == nil {
		args = []string{}
	}
	cmd, rest, err := p.traverse(p.Root, args)
	if err == nil {
		err = p.execute(cmd, rest)
	}
	if err != nil {
		var e *errors.Error
		if stderrors.As(err, &e) {
			return nil, err
		}
		return nil, errors.Wrap(errors.ErrCodeUsage, err, "%s", p.Root.Name())
	}
	if p.leaf == nil {
		return nil, ErrExit
	}
	return p.namespace(), nil
}

// traverse walks down the command tree like cobra's Traverse, parsing the
// flags of every command it passes. It stops at the first token that is
// not a sub-command name, and at commands that split their own arguments.
// Combined shorthands are read flag by flag, so "-vn x" gives x to -n.
func (p *Program) traverse(c *cobra.Command, args []string) (*cobra.Command, []string, error) {
	if p.levels[c].splits() {
		return c, args, nil
	}
	var flags []string
	inFlag := false
	for i, arg := range args {
		switch {
		case inFlag:
			inFlag = false
			flags = append(flags, arg)
			continue
		case arg == "--":
			return c, args, nil
		case strings.HasPrefix(arg, "--"):
			flags = append(flags, arg)
			if !strings.Contains(arg, "=") {
				f := c.Flags().Lookup(arg[2:])
				inFlag = f != nil && f.NoOptDefVal == ""
			}
			continue
		case len(arg) > 1 && arg[0] == '-':
			flags = append(flags, arg)
			inFlag = shortNeedsValue(c.Flags(), arg[1:])
			continue
		}
		next := p.child(c, arg)
		if next == nil {
			return c, args, nil
		}
		c.InitDefaultHelpFlag()
		if err := c.ParseFlags(flags); err != nil {
			return nil, nil, err
		}
		if p.exited || helpRequested(c) {
			return c, flags, nil
		}
		return p.traverse(next, args[i+1:])
	}
	return c, args, nil
}

// shortNeedsValue reports whether a run of shorthands leaves its value to
// the next argument.
func shortNeedsValue(fs *pflag.FlagSet, run string) bool {
	for i := 0; i < len(run); i++ {
		if run[i] == '=' {
			return false
		}
		f := fs.ShorthandLookup(run[i : i+1])
		if f == nil {
			return false
		}
		if f.NoOptDefVal == "" {
			return i == len(run)-1
		}
	}
	return false
}

// child finds the sub-command of c called name.
func (p *Program) child(c *cobra.Command, name string) *cobra.Command {
	for _, sub := range c.Commands() {
		if _, ok := p.levels[sub]; !ok {
			continue
		}
		if sub.Name() == name || sub.HasAlias(name) {
			return sub
		}
	}
	return nil
}

func helpRequested(c *cobra.Command) bool {
	h, err := c.Flags().GetBool("help")
	return err == nil && h
}

// execute runs the command the traversal stopped at, the way cobra runs
// the command it found.
func (p *Program) execute(c *cobra.Command, args []string) error {
	lvl := p.levels[c]
	c.InitDefaultHelpFlag()
	if lvl.splits() {
		return p.run(lvl, args)
	}
	if err := c.ParseFlags(args); err != nil {
		return err
	}
	if p.exited {
		return nil
	}
	if helpRequested(c) {
		p.exited = true
		return c.Help()
	}
	if err := checkFlags(lvl); err != nil {
		return err
	}
	if err := c.ValidateRequiredFlags(); err != nil {
		return err
	}
	if err := c.ValidateFlagGroups(); err != nil {
		return err
	}
	return c.RunE(c, c.Flags().Args())
}

// run is the RunE of every command. It fills positionals and records the
// command reached.
func (p *Program) run(lvl *level, args []string) error {
	if p.exited {
		return nil
	}
	if lvl.splits() {
		return p.split(lvl, args)
	}
	if sp := lvl.parser.SubparsersAction(); sp != nil {
		s := sp.Subparsers
		if len(args) > 0 {
			return fmt.Errorf("argument %s: invalid choice: %q (choose from %s)",
				subparsersName(sp), args[0], strings.Join(s.Names(), ", "))
		}
		if s.Required {
			return fmt.Errorf("the following arguments are required: %s", subparsersName(sp))
		}
	}
	if err := assignPositionals(lvl, args); err != nil {
		return err
	}
	return p.finish(lvl)
}

// split handles a command whose positionals come before its sub-command.
// Flags are parsed up to each positional token. Once the positionals have
// their minimum, the first token naming a sub-command starts it; a token
// past a fixed number of positionals must name one.
func (p *Program) split(lvl *level, args []string) error {
	c := lvl.cmd
	fs := c.Flags()
	fs.SetInterspersed(false)
	sp := lvl.parser.SubparsersAction()
	least, most := leadBounds(lvl.parser)

	var pos []string
	rest := args
	dash := false
	var next *cobra.Command
	for len(rest) > 0 {
		if !dash {
			if err := c.ParseFlags(rest); err != nil {
				return err
			}
			rest = fs.Args()
			dash = fs.ArgsLenAtDash() >= 0
			if len(rest) == 0 {
				break
			}
		}
		tok := rest[0]
		if len(pos) >= least {
			if next = p.child(c, tok); next != nil {
				rest = rest[1:]
				break
			}
			if most >= 0 && len(pos) == most {
				return fmt.Errorf("argument %s: invalid choice: %q (choose from %s)",
					subparsersName(sp), tok, strings.Join(sp.Subparsers.Names(), ", "))
			}
		}
		pos = append(pos, tok)
		rest = rest[1:]
	}
	if p.exited {
		return nil
	}
	if helpRequested(c) {
		p.exited = true
		return c.Help()
	}
	if err := assignPositionals(lvl, pos); err != nil {
		return err
	}
	if err := checkFlags(lvl); err != nil {
		return err
	}
	if next == nil {
		if sp.Subparsers.Required {
			return fmt.Errorf("the following arguments are required: %s", subparsersName(sp))
		}
		return p.finish(lvl)
	}
	if dash {
		rest = append([]string{"--"}, rest...)
	}
	cmd, sub, err := p.traverse(next, rest)
	if err != nil {
		return err
	}
	return p.execute(cmd, sub)
}

// finish checks the constraints of every ancestor and records lvl as the
// command reached. cobra only checks the command it runs.
func (p *Program) finish(lvl *level) error {
	for l := lvl.parent; l != nil; l = l.parent {
		if err := checkFlags(l); err != nil {
			return err
		}
	}
	p.leaf = lvl
	return nil
}

func subparsersName(a *grammar.Action) string {
	if a.Metavar.Kind() == value.KindString {
		return a.Metavar.Str()
	}
	if a.Subparsers.Dest != "" {
		return a.Subparsers.Dest
	}
	return "{" + strings.Join(a.Subparsers.Names(), ",") + "}"
}

// namespace merges defaults and given values from the root to the leaf.
func (p *Program) namespace() Namespace {
	var chain []*level
	for l := p.leaf; l != nil; l = l.parent {
		chain = append(chain, l)
	}
	ns := Namespace{}
	for i := len(chain) - 1; i >= 0; i-- {
		l := chain[i]
		for _, a := range l.parser.Actions {
			switch a.Kind {
			case grammar.KindHelp, grammar.KindVersion:
				continue
			case grammar.KindParsers:
				if a.Subparsers.Dest != "" {
					ns[a.Subparsers.Dest] = nil
				}
				continue
			}
			if v, ok := l.values[a.Dest]; ok {
				ns[a.Dest] = v
				continue
			}
			d := implicitDefault(l.parser, a)
			if d.Is(value.Suppress) {
				continue
			}
			ns[a.Dest] = defaultFor(a, d)
		}
		if i > 0 {
			if sp := l.parser.SubparsersAction(); sp != nil && sp.Subparsers.Dest != "" {
				ns[sp.Subparsers.Dest] = chain[i-1].cmd.Name()
			}
		}
	}
	return ns
}

// implicitDefault returns the default of a, falling back to the parser's
// argument default and then to the value a flag holds when not given.
func implicitDefault(p *grammar.Parser, a *grammar.Action) *value.Value {
	if a.Default != nil {
		return a.Default
	}
	if d := p.ArgumentDefault; d != nil && d.Kind() != value.KindNull {
		return d
	}
	switch a.Kind {
	case grammar.KindStoreTrue:
		return value.Bool(false)
	case grammar.KindStoreFalse:
		return value.Bool(true)
	}
	return p.ArgumentDefault
}

// defaultFor converts string defaults through the action's converter.
func defaultFor(a *grammar.Action, d *value.Value) any {
	if d.Kind() == value.KindString && a.Converter != nil && a.Kind.AcceptsType() {
		if v, err := a.Converter.Convert(d.Str()); err == nil {
			return v
		}
	}
	return native(d)
}

// Flag returns the flag registered for dest on cmd, if any.
func (p *Program) Flag(cmd *cobra.Command, dest string) *pflag.Flag {
	lvl, ok := p.levels[cmd]
	if !ok {
		return nil
	}
	name, ok := lvl.flags[dest]
	if !ok {
		return nil
	}
	return cmd.Flags().Lookup(name)
}
