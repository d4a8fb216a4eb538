package grammar

// Subparsers holds the sub-commands of a parser. Choices keep registration
// order; an alias is a further Choice pointing at the same *Parser.
type Subparsers struct {
	Title       string
	Description string
	Dest        string
	Required    bool
	Choices     []Choice
}

// Choice binds one command name to its grammar.
type Choice struct {
	Name   string
	Parser *Parser
}

// Command is a canonical sub-command with the names that alias it.
type Command struct {
	Name    string
	Parser  *Parser
	Aliases []string
}

// Add registers p under name and every alias. Adding a name twice replaces
// the earlier binding in place.
func (s *Subparsers) Add(name string, p *Parser, aliases ...string) *Parser {
	for _, n := range append([]string{name}, aliases...) {
		s.bind(n, p)
	}
	return p
}

func (s *Subparsers) bind(name string, p *Parser) {
	for i := range s.Choices {
		if s.Choices[i].Name == name {
			s.Choices[i].Parser = p
			return
		}
	}
	s.Choices = append(s.Choices, Choice{Name: name, Parser: p})
}

// Lookup returns the parser bound to name.
func (s *Subparsers) Lookup(name string) (*Parser, bool) {
	if s == nil {
		return nil, false
	}
	for _, c := range s.Choices {
		if c.Name == name {
			return c.Parser, true
		}
	}
	return nil, false
}

// Names returns every bound name in registration order.
func (s *Subparsers) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, len(s.Choices))
	for i, c := range s.Choices {
		names[i] = c.Name
	}
	return names
}

// Canonical groups the choices by parser identity. Each distinct parser is
// assigned a handle the first time it is seen; the name that introduced it
// is canonical and later names bound to it are its aliases. Commands come
// back in handle order.
func (s *Subparsers) Canonical() []Command {
	if s == nil {
		return nil
	}
	handles := make(map[*Parser]int)
	var cmds []Command
	for _, c := range s.Choices {
		if h, ok := handles[c.Parser]; ok {
			cmds[h].Aliases = append(cmds[h].Aliases, c.Name)
			continue
		}
		handles[c.Parser] = len(cmds)
		cmds = append(cmds, Command{Name: c.Name, Parser: c.Parser})
	}
	return cmds
}

// AliasesOf returns the aliases of the canonical command name.
func (s *Subparsers) AliasesOf(name string) []string {
	for _, c := range s.Canonical() {
		if c.Name == name {
			return c.Aliases
		}
	}
	return nil
}
