package grammar

import (
	"github.com/charmbracelet/log"

	"github.com/matzehuels/argdump/pkg/errors"
	"github.com/matzehuels/argdump/pkg/value"
)

// Validate checks the parser's own records: every action is legal for its
// kind, dests are unique among non-subparser actions, and group and mutex
// members name actions of this parser. Nested parsers are not visited.
func (p *Parser) Validate() error {
	dests := make(map[string]bool, len(p.Actions))
	for _, a := range p.Actions {
		if a == nil {
			return errors.New(errors.ErrCodeInvalidGrammar, "parser %q has a nil action", p.Prog)
		}
		if err := a.Validate(p.PrefixChars); err != nil {
			return err
		}
		if a.Kind == KindParsers {
			continue
		}
		if dests[a.Dest] {
			return errors.New(errors.ErrCodeInvalidGrammar, "duplicate dest %q in parser %q", a.Dest, p.Prog)
		}
		dests[a.Dest] = true
	}
	all := make(map[string]bool, len(p.Actions))
	for _, a := range p.Actions {
		all[a.Dest] = true
	}
	for _, g := range p.Groups {
		for _, d := range g.Dests {
			if !all[d] {
				return errors.New(errors.ErrCodeInvalidGrammar, "group %q names unknown dest %q", g.Title, d)
			}
		}
	}
	for _, m := range p.MutexGroups {
		for _, d := range m.Dests {
			if !all[d] {
				return errors.New(errors.ErrCodeInvalidGrammar, "mutually exclusive group names unknown dest %q", d)
			}
		}
	}
	return nil
}

// Validate checks that a carries only the fields its kind accepts.
func (a *Action) Validate(prefixChars string) error {
	if err := errors.ValidateDest(a.Dest); err != nil {
		return err
	}
	for _, opt := range a.OptionStrings {
		if err := errors.ValidateOptionString(opt, prefixChars); err != nil {
			return err
		}
	}
	if fields := a.illegalFields(); len(fields) > 0 {
		return errors.New(errors.ErrCodeInvalidGrammar, "%s action %q cannot have %s", a.Kind, a.Dest, fields[0])
	}
	if a.Nargs != nil && !validNargs(a.Nargs) {
		return errors.New(errors.ErrCodeInvalidGrammar, "action %q has invalid nargs %s", a.Dest, a.Nargs)
	}
	if a.Kind == KindParsers {
		if a.Subparsers == nil {
			return errors.New(errors.ErrCodeInvalidGrammar, "parsers action %q has no subparsers", a.Dest)
		}
		for _, c := range a.Subparsers.Choices {
			if err := errors.ValidateCommandName(c.Name); err != nil {
				return err
			}
			if c.Parser == nil {
				return errors.New(errors.ErrCodeInvalidGrammar, "command %q has no parser", c.Name)
			}
		}
	}
	return nil
}

// illegalFields lists the set fields that a's kind does not accept.
func (a *Action) illegalFields() []string {
	var out []string
	if a.Nargs != nil && !a.Kind.AcceptsNargs() {
		out = append(out, "nargs")
	}
	if a.Const != nil && !a.Kind.AcceptsConst() {
		out = append(out, "const")
	}
	if (a.Type != nil || a.FileType != nil || a.Converter != nil) && !a.Kind.AcceptsType() {
		out = append(out, "type")
	}
	if len(a.Choices) > 0 && !a.Kind.AcceptsChoices() {
		out = append(out, "choices")
	}
	if a.Version != "" && a.Kind != KindVersion {
		out = append(out, "version")
	}
	if a.Subparsers != nil && a.Kind != KindParsers {
		out = append(out, "subparsers")
	}
	return out
}

// sanitize clears fields a's kind does not accept.
func (a *Action) sanitize(logger *log.Logger) {
	for _, f := range a.illegalFields() {
		logger.Debug("dropping field", "dest", a.Dest, "kind", a.Kind, "field", f)
		switch f {
		case "nargs":
			a.Nargs = nil
		case "const":
			a.Const = nil
		case "type":
			a.Type, a.FileType, a.Converter = nil, nil, nil
		case "choices":
			a.Choices = nil
		case "version":
			a.Version = ""
		case "subparsers":
			a.Subparsers = nil
		}
	}
	if a.Nargs != nil && !validNargs(a.Nargs) {
		logger.Debug("dropping field", "dest", a.Dest, "kind", a.Kind, "field", "nargs", "value", a.Nargs.String())
		a.Nargs = nil
	}
}

// validNargs accepts a non-negative count, one of "?", "*", "+", "A...",
// or the remainder sentinel.
func validNargs(v *value.Value) bool {
	switch v.Kind() {
	case value.KindInt:
		return v.Int() >= 0
	case value.KindString:
		switch v.Str() {
		case "?", "*", "+", "A...":
			return true
		}
	case value.KindSentinel:
		return v.Is(value.Remainder)
	}
	return false
}
