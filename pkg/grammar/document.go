package grammar

import (
	"bytes"
	"encoding/json"

	"github.com/matzehuels/argdump/pkg/buildinfo"
	"github.com/matzehuels/argdump/pkg/errors"
	"github.com/matzehuels/argdump/pkg/types"
	"github.com/matzehuels/argdump/pkg/value"
)

type document struct {
	Schema string                 `json:"$schema"`
	Env    *buildinfo.Environment `json:"$env,omitempty"`
	parserDoc
}

type parserDoc struct {
	Prog                    *string         `json:"prog"`
	Description             *string         `json:"description"`
	Epilog                  *string         `json:"epilog"`
	Usage                   *string         `json:"usage"`
	AddHelp                 bool            `json:"add_help"`
	AllowAbbrev             bool            `json:"allow_abbrev"`
	FormatterClass          *string         `json:"formatter_class"`
	PrefixChars             string          `json:"prefix_chars"`
	FromfilePrefixChars     *string         `json:"fromfile_prefix_chars"`
	ArgumentDefault         json.RawMessage `json:"argument_default"`
	ConflictHandler         string          `json:"conflict_handler"`
	ExitOnError             bool            `json:"exit_on_error"`
	Actions                 []actionDoc     `json:"actions"`
	ArgumentGroups          []groupDoc      `json:"argument_groups"`
	MutuallyExclusiveGroups []mutexDoc      `json:"mutually_exclusive_groups"`
}

type actionDoc struct {
	OptionStrings         []string          `json:"option_strings"`
	Dest                  string            `json:"dest"`
	ActionType            ActionKind        `json:"action_type"`
	Nargs                 json.RawMessage   `json:"nargs"`
	Const                 json.RawMessage   `json:"const"`
	Default               json.RawMessage   `json:"default"`
	TypeInfo              *typeInfoDoc      `json:"type_info"`
	FileTypeInfo          *fileTypeDoc      `json:"file_type_info"`
	Choices               []json.RawMessage `json:"choices"`
	Required              bool              `json:"required"`
	Help                  json.RawMessage   `json:"help"`
	Metavar               json.RawMessage   `json:"metavar"`
	Version               *string           `json:"version"`
	Subparsers            commandsDoc       `json:"subparsers"`
	SubparsersTitle       *string           `json:"subparsers_title"`
	SubparsersDescription *string           `json:"subparsers_description"`
	SubparsersDest        *string           `json:"subparsers_dest"`
	SubparsersRequired    bool              `json:"subparsers_required"`
	SubparserAliases      aliasesDoc        `json:"subparser_aliases"`
	CustomActionClass     *string           `json:"custom_action_class"`
	Deprecated            bool              `json:"deprecated"`
}

type typeInfoDoc struct {
	Name         string  `json:"name"`
	Module       *string `json:"module"`
	Builtin      bool    `json:"builtin"`
	Serializable bool    `json:"serializable"`
}

type fileTypeDoc struct {
	Mode     string  `json:"mode"`
	BufSize  int     `json:"bufsize"`
	Encoding *string `json:"encoding"`
	Errors   *string `json:"errors"`
}

type groupDoc struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Actions     []string `json:"actions"`
}

type mutexDoc struct {
	Required bool     `json:"required"`
	Actions  []string `json:"actions"`
}

// commandDoc is one canonical sub-command.
type commandDoc struct {
	name string
	doc  parserDoc
}

// commandsDoc is an ordered JSON object; nil encodes as null.
type commandsDoc []commandDoc

func (c commandsDoc) MarshalJSON() ([]byte, error) {
	if c == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, cmd := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		body, err := marshal(cmd.doc, false)
		if err != nil {
			return nil, err
		}
		writeMember(&buf, cmd.name, body)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// aliasesDoc maps canonical names to aliases in order; nil encodes as null.
type aliasesDoc []Command

func (a aliasesDoc) MarshalJSON() ([]byte, error) {
	if a == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, cmd := range a {
		if i > 0 {
			buf.WriteByte(',')
		}
		body, err := marshal(cmd.Aliases, false)
		if err != nil {
			return nil, err
		}
		writeMember(&buf, cmd.Name, body)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeMember(buf *bytes.Buffer, key string, body []byte) {
	k, _ := marshal(key, false)
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(body)
}

// marshal encodes v without HTML escaping, optionally indented.
func marshal(v any, indent bool) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode document")
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func (c *Codec) document(p *Parser) (*document, error) {
	if p == nil {
		return nil, errors.New(errors.ErrCodeInvalidGrammar, "nil parser")
	}
	w := &walker{codec: c, active: make(map[*Parser]bool)}
	body, err := w.parser(p, 0)
	if err != nil {
		return nil, err
	}
	doc := &document{Schema: c.opts.SchemaURL, parserDoc: body}
	if c.opts.IncludeEnv {
		env := buildinfo.Env()
		doc.Env = &env
	}
	return doc, nil
}

// walker tracks the parsers on the current path so a parser that contains
// itself is rejected instead of recursing forever.
type walker struct {
	codec  *Codec
	active map[*Parser]bool
}

func (w *walker) parser(p *Parser, depth int) (parserDoc, error) {
	if depth > w.codec.opts.MaxDepth {
		return parserDoc{}, errors.New(errors.ErrCodeDepthExceeded, "sub-commands nest deeper than %d", w.codec.opts.MaxDepth)
	}
	if w.active[p] {
		return parserDoc{}, errors.New(errors.ErrCodeInvalidGrammar, "parser %q contains itself", p.Prog)
	}
	w.active[p] = true
	defer delete(w.active, p)

	if err := p.Validate(); err != nil {
		return parserDoc{}, err
	}

	doc := parserDoc{
		Prog:                    optional(p.Prog),
		Description:             optional(p.Description),
		Epilog:                  optional(p.Epilog),
		Usage:                   optional(p.Usage),
		AddHelp:                 p.AddHelp,
		AllowAbbrev:             p.AllowAbbrev,
		FormatterClass:          optional(p.FormatterClass),
		PrefixChars:             p.PrefixChars,
		FromfilePrefixChars:     optional(p.FromfilePrefixChars),
		ArgumentDefault:         encodeOptional(p.ArgumentDefault),
		ConflictHandler:         p.ConflictHandler,
		ExitOnError:             p.ExitOnError,
		Actions:                 make([]actionDoc, 0, len(p.Actions)),
		ArgumentGroups:          make([]groupDoc, 0, len(p.Groups)),
		MutuallyExclusiveGroups: make([]mutexDoc, 0, len(p.MutexGroups)),
	}
	for _, a := range p.Actions {
		ad, err := w.action(a, depth)
		if err != nil {
			return parserDoc{}, err
		}
		doc.Actions = append(doc.Actions, ad)
	}
	for _, g := range p.Groups {
		doc.ArgumentGroups = append(doc.ArgumentGroups, groupDoc{
			Title:       optional(g.Title),
			Description: optional(g.Description),
			Actions:     nonNil(g.Dests),
		})
	}
	for _, m := range p.MutexGroups {
		doc.MutuallyExclusiveGroups = append(doc.MutuallyExclusiveGroups, mutexDoc{
			Required: m.Required,
			Actions:  nonNil(m.Dests),
		})
	}
	return doc, nil
}

func (w *walker) action(a *Action, depth int) (actionDoc, error) {
	doc := actionDoc{
		OptionStrings:     nonNil(a.OptionStrings),
		Dest:              a.Dest,
		ActionType:        a.Kind,
		Nargs:             encodeOptional(a.Nargs),
		Const:             encodeOptional(a.Const),
		Default:           encodeOptional(a.Default),
		Required:          a.Required,
		Help:              encodeHelp(a.Help),
		Metavar:           encodeOptional(a.Metavar),
		Version:           optional(a.Version),
		CustomActionClass: optional(a.CustomClass),
		Deprecated:        a.Deprecated,
	}
	doc.TypeInfo, doc.FileTypeInfo = encodeType(a)
	if a.Choices != nil {
		doc.Choices = make([]json.RawMessage, len(a.Choices))
		for i, c := range a.Choices {
			doc.Choices[i] = value.Encode(c)
		}
	}

	s := a.Subparsers
	if s == nil {
		return doc, nil
	}
	doc.SubparsersTitle = optional(s.Title)
	doc.SubparsersDescription = optional(s.Description)
	doc.SubparsersDest = optional(s.Dest)
	doc.SubparsersRequired = s.Required
	doc.Subparsers = commandsDoc{}
	for _, cmd := range s.Canonical() {
		sub, err := w.parser(cmd.Parser, depth+1)
		if err != nil {
			return actionDoc{}, err
		}
		doc.Subparsers = append(doc.Subparsers, commandDoc{name: cmd.Name, doc: sub})
		if len(cmd.Aliases) > 0 {
			doc.SubparserAliases = append(doc.SubparserAliases, cmd)
		}
	}
	return doc, nil
}

// encodeType reports the converter reference, deriving it from the
// converter itself when no reference was recorded.
func encodeType(a *Action) (*typeInfoDoc, *fileTypeDoc) {
	ref, fp := a.Type, a.FileType
	if ref == nil && a.Converter != nil {
		ref, fp = types.RefOf(a.Converter)
	}
	if ref == nil && fp != nil {
		r := types.FileTypeRef()
		ref = &r
	}
	if ref == nil {
		return nil, nil
	}
	ti := &typeInfoDoc{
		Name:         ref.Name,
		Module:       optional(ref.Module),
		Builtin:      ref.Builtin,
		Serializable: ref.Serializable,
	}
	if !ref.IsFileType() {
		return ti, nil
	}
	params := types.DefaultFileParams()
	if fp != nil {
		params = *fp
	}
	return ti, &fileTypeDoc{
		Mode:     params.Mode,
		BufSize:  params.BufSize,
		Encoding: optional(params.Encoding),
		Errors:   optional(params.Errors),
	}
}

func encodeHelp(help string) json.RawMessage {
	switch help {
	case "":
		return nil
	case value.SuppressString:
		return value.Encode(value.SuppressValue())
	}
	return value.Encode(value.String(help))
}

// encodeOptional leaves nil unset so it renders as null.
func encodeOptional(v *value.Value) json.RawMessage {
	if v == nil {
		return nil
	}
	return value.Encode(v)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
