package grammar

import (
	"strings"

	"github.com/matzehuels/argdump/pkg/types"
	"github.com/matzehuels/argdump/pkg/value"
)

// Default titles of the two groups every parser starts with.
const (
	PositionalsTitle = "positional arguments"
	OptionalsTitle   = "options"
)

// Parser is one node of a grammar: a command with its arguments, help
// groups, and mutual-exclusion constraints. Sub-commands hang off an
// action of kind [KindParsers].
type Parser struct {
	Prog                string
	Description         string
	Epilog              string
	Usage               string
	AddHelp             bool
	AllowAbbrev         bool
	FormatterClass      string
	PrefixChars         string
	FromfilePrefixChars string
	ArgumentDefault     *value.Value
	ConflictHandler     string
	ExitOnError         bool

	Actions     []*Action
	Groups      []Group
	MutexGroups []MutexGroup
}

// Action is one argument definition. An action without option strings is
// positional.
type Action struct {
	OptionStrings []string
	Dest          string
	Kind          ActionKind
	CustomClass   string // Concrete class name when Kind was inherited

	Nargs   *value.Value // Int, or one of "?", "*", "+", or the remainder sentinel
	Const   *value.Value
	Default *value.Value

	Type      *types.Ref
	FileType  *types.FileParams
	Converter types.Converter // Resolved from Type; never serialized

	Choices  []*value.Value
	Required bool
	Help     string // value.SuppressString hides the argument
	Metavar  *value.Value
	Version  string

	Deprecated bool
	Subparsers *Subparsers
}

// Group is a help section listing member dests.
type Group struct {
	Title       string
	Description string
	Dests       []string
}

// MutexGroup lists dests of which at most one may be given, or exactly one
// when Required is set.
type MutexGroup struct {
	Required bool
	Dests    []string
}

// NewParser returns a parser with the standard defaults: help enabled,
// abbreviations allowed, "-" prefix, and the two default groups. With
// AddHelp set it also holds the -h/--help action.
func NewParser(prog string) *Parser {
	p := &Parser{
		Prog:            prog,
		AddHelp:         true,
		AllowAbbrev:     true,
		PrefixChars:     "-",
		ConflictHandler: "error",
		ExitOnError:     true,
		Groups: []Group{
			{Title: PositionalsTitle},
			{Title: OptionalsTitle},
		},
	}
	p.Add(&Action{
		OptionStrings: []string{"-h", "--help"},
		Dest:          "help",
		Kind:          KindHelp,
		Default:       value.SuppressValue(),
		Help:          "show this help message and exit",
	})
	return p
}

// Add appends a to the parser and lists it in the default positional or
// options group. A missing kind defaults to store.
func (p *Parser) Add(a *Action) *Action {
	p.append(a)
	title := OptionalsTitle
	if a.IsPositional() {
		title = PositionalsTitle
	}
	for i := range p.Groups {
		if p.Groups[i].Title == title {
			p.Groups[i].Dests = append(p.Groups[i].Dests, a.Dest)
			break
		}
	}
	return a
}

func (p *Parser) append(a *Action) {
	if a.Kind == "" {
		a.Kind = KindStore
	}
	p.Actions = append(p.Actions, a)
}

// AddGroup appends actions to the parser under a new help group.
func (p *Parser) AddGroup(title, description string, actions ...*Action) {
	g := Group{Title: title, Description: description}
	for _, a := range actions {
		p.append(a)
		g.Dests = append(g.Dests, a.Dest)
	}
	p.Groups = append(p.Groups, g)
}

// AddMutex adds actions under a new mutual-exclusion group. The actions are
// also listed in the default groups.
func (p *Parser) AddMutex(required bool, actions ...*Action) {
	m := MutexGroup{Required: required}
	for _, a := range actions {
		p.Add(a)
		m.Dests = append(m.Dests, a.Dest)
	}
	p.MutexGroups = append(p.MutexGroups, m)
}

// AddSubparsers attaches s under a new action of kind parsers. The action's
// dest is s.Dest, or a suppressed placeholder when s.Dest is empty.
func (p *Parser) AddSubparsers(s *Subparsers) *Action {
	dest := s.Dest
	if dest == "" {
		dest = value.SuppressString
	}
	return p.Add(&Action{
		Dest:       dest,
		Kind:       KindParsers,
		Required:   s.Required,
		Subparsers: s,
		Default:    nil,
	})
}

// Lookup returns the first action with the given dest.
func (p *Parser) Lookup(dest string) *Action {
	for _, a := range p.Actions {
		if a.Dest == dest {
			return a
		}
	}
	return nil
}

// SubparsersAction returns the action holding sub-commands, if any.
func (p *Parser) SubparsersAction() *Action {
	for _, a := range p.Actions {
		if a.Kind == KindParsers && a.Subparsers != nil {
			return a
		}
	}
	return nil
}

// Positionals returns the positional actions in order, excluding the
// sub-command action.
func (p *Parser) Positionals() []*Action {
	var out []*Action
	for _, a := range p.Actions {
		if a.IsPositional() && a.Kind != KindParsers {
			out = append(out, a)
		}
	}
	return out
}

// IsPositional reports whether a has no option strings.
func (a *Action) IsPositional() bool { return len(a.OptionStrings) == 0 }

// HelpSuppressed reports whether the argument is hidden from help.
func (a *Action) HelpSuppressed() bool { return a.Help == value.SuppressString }

// Positional returns a store action for a required positional argument.
func Positional(dest string) *Action {
	return &Action{Dest: dest, Kind: KindStore, Required: true}
}

// Option returns a store action for an optional argument. dest is derived
// from the option strings when empty.
func Option(dest string, optionStrings ...string) *Action {
	if dest == "" {
		dest = DestFor(optionStrings, "-")
	}
	return &Action{OptionStrings: optionStrings, Dest: dest, Kind: KindStore}
}

// DestFor derives a dest from option strings the usual way: the first long
// option wins, otherwise the first short option; prefix characters are
// stripped and dashes become underscores.
func DestFor(optionStrings []string, prefixChars string) string {
	if prefixChars == "" {
		prefixChars = "-"
	}
	pick := ""
	for _, s := range optionStrings {
		if len(s) > 1 && strings.ContainsRune(prefixChars, rune(s[0])) && strings.ContainsRune(prefixChars, rune(s[1])) {
			pick = s
			break
		}
	}
	if pick == "" && len(optionStrings) > 0 {
		pick = optionStrings[0]
	}
	return strings.ReplaceAll(strings.TrimLeft(pick, prefixChars), "-", "_")
}
