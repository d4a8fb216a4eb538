package grammar

import (
	"encoding/json"

	"github.com/buger/jsonparser"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/argdump/pkg/errors"
	"github.com/matzehuels/argdump/pkg/types"
	"github.com/matzehuels/argdump/pkg/value"
)

// reader rebuilds one document. Fields with an unexpected JSON type are
// ignored and keep their defaults.
type reader struct {
	codec  *Codec
	values value.Decoder
	log    *log.Logger
}

func (c *Codec) decodeDocument(data []byte) (*Parser, error) {
	if !json.Valid(data) {
		return nil, errors.New(errors.ErrCodeInvalidDocument, "document is not valid JSON")
	}
	body, typ, _, err := jsonparser.Get(data)
	if err != nil || typ != jsonparser.Object {
		return nil, errors.New(errors.ErrCodeInvalidDocument, "document is not a JSON object")
	}
	r := &reader{
		codec:  c,
		values: value.Decoder{Enums: c.opts.Enums, MaxDepth: c.opts.MaxDepth},
		log:    c.opts.Logger,
	}
	return r.parser(body, 0)
}

func (r *reader) parser(data []byte, depth int) (*Parser, error) {
	if depth > r.codec.opts.MaxDepth {
		return nil, errors.New(errors.ErrCodeDepthExceeded, "sub-commands nest deeper than %d", r.codec.opts.MaxDepth)
	}
	p := &Parser{
		AddHelp:         true,
		AllowAbbrev:     true,
		PrefixChars:     "-",
		ConflictHandler: "error",
		ExitOnError:     true,
	}
	err := jsonparser.ObjectEach(data, func(key, val []byte, typ jsonparser.ValueType, _ int) error {
		switch string(key) {
		case "prog":
			p.Prog = str(val, typ)
		case "description":
			p.Description = str(val, typ)
		case "epilog":
			p.Epilog = str(val, typ)
		case "usage":
			p.Usage = str(val, typ)
		case "add_help":
			p.AddHelp = boolean(val, typ, p.AddHelp)
		case "allow_abbrev":
			p.AllowAbbrev = boolean(val, typ, p.AllowAbbrev)
		case "formatter_class":
			p.FormatterClass = str(val, typ)
		case "prefix_chars":
			if s := str(val, typ); s != "" {
				p.PrefixChars = s
			}
		case "fromfile_prefix_chars":
			p.FromfilePrefixChars = str(val, typ)
		case "argument_default":
			p.ArgumentDefault = r.value(val, typ)
		case "conflict_handler":
			if s := str(val, typ); s != "" {
				p.ConflictHandler = s
			}
		case "exit_on_error":
			p.ExitOnError = boolean(val, typ, p.ExitOnError)
		case "actions":
			return r.actions(p, val, typ, depth)
		case "argument_groups":
			eachObject(val, typ, func(obj []byte) {
				g := Group{Dests: []string{}}
				_ = jsonparser.ObjectEach(obj, func(k, v []byte, t jsonparser.ValueType, _ int) error {
					switch string(k) {
					case "title":
						g.Title = str(v, t)
					case "description":
						g.Description = str(v, t)
					case "actions":
						g.Dests = strs(v, t)
					}
					return nil
				})
				p.Groups = append(p.Groups, g)
			})
		case "mutually_exclusive_groups":
			eachObject(val, typ, func(obj []byte) {
				m := MutexGroup{Dests: []string{}}
				_ = jsonparser.ObjectEach(obj, func(k, v []byte, t jsonparser.ValueType, _ int) error {
					switch string(k) {
					case "required":
						m.Required = boolean(v, t, false)
					case "actions":
						m.Dests = strs(v, t)
					}
					return nil
				})
				p.MutexGroups = append(p.MutexGroups, m)
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.pruneGroups(p)
	return p, nil
}

func (r *reader) actions(p *Parser, data []byte, typ jsonparser.ValueType, depth int) error {
	var firstErr error
	eachObject(data, typ, func(obj []byte) {
		if firstErr != nil {
			return
		}
		a, err := r.action(obj, depth)
		if err != nil {
			firstErr = err
			return
		}
		p.Actions = append(p.Actions, a)
	})
	return firstErr
}

// subDoc is the raw sub-command section of an action.
type subDoc struct {
	names   []string
	bodies  [][]byte
	aliases map[string][]string
	present bool
}

func (r *reader) action(data []byte, depth int) (*Action, error) {
	a := &Action{Kind: KindStore}
	s := &Subparsers{}
	var sub subDoc
	var typeInfo, fileInfo []byte
	err := jsonparser.ObjectEach(data, func(key, val []byte, typ jsonparser.ValueType, _ int) error {
		switch string(key) {
		case "option_strings":
			a.OptionStrings = strs(val, typ)
		case "dest":
			a.Dest = str(val, typ)
		case "action_type":
			if typ == jsonparser.String {
				a.Kind = ParseKind(str(val, typ))
			}
		case "nargs":
			a.Nargs = r.value(val, typ)
		case "const":
			a.Const = r.value(val, typ)
		case "default":
			a.Default = r.value(val, typ)
		case "type_info":
			if typ == jsonparser.Object {
				typeInfo = val
			}
		case "file_type_info":
			if typ == jsonparser.Object {
				fileInfo = val
			}
		case "choices":
			if typ == jsonparser.Array {
				a.Choices = []*value.Value{}
				_, _ = jsonparser.ArrayEach(val, func(v []byte, t jsonparser.ValueType, _ int, _ error) {
					a.Choices = append(a.Choices, r.value(v, t))
				})
			}
		case "required":
			a.Required = boolean(val, typ, false)
		case "help":
			a.Help = r.help(val, typ)
		case "metavar":
			a.Metavar = r.value(val, typ)
		case "version":
			a.Version = str(val, typ)
		case "subparsers":
			if typ == jsonparser.Object {
				sub.present = true
				_ = jsonparser.ObjectEach(val, func(k, v []byte, t jsonparser.ValueType, _ int) error {
					if t == jsonparser.Object {
						sub.names = append(sub.names, key2str(k))
						sub.bodies = append(sub.bodies, v)
					}
					return nil
				})
			}
		case "subparsers_title":
			s.Title = str(val, typ)
		case "subparsers_description":
			s.Description = str(val, typ)
		case "subparsers_dest":
			if d := str(val, typ); d != value.SuppressString {
				s.Dest = d
			}
		case "subparsers_required":
			s.Required = boolean(val, typ, false)
		case "subparser_aliases":
			if typ == jsonparser.Object {
				sub.aliases = make(map[string][]string)
				_ = jsonparser.ObjectEach(val, func(k, v []byte, t jsonparser.ValueType, _ int) error {
					sub.aliases[key2str(k)] = strs(v, t)
					return nil
				})
			}
		case "custom_action_class":
			a.CustomClass = str(val, typ)
		case "deprecated":
			a.Deprecated = boolean(val, typ, false)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "action %q", a.Dest)
	}
	a.Type, a.FileType = readType(typeInfo, fileInfo)
	if sub.present {
		if err := r.commands(s, sub, depth); err != nil {
			return nil, err
		}
		a.Subparsers = s
	}
	a.sanitize(r.log)
	if err := r.resolve(a); err != nil {
		return nil, err
	}
	return a, nil
}

// commands rebuilds each canonical sub-command once and binds its aliases
// to the same parser right after it, so registration order survives.
func (r *reader) commands(s *Subparsers, sub subDoc, depth int) error {
	canonical := make(map[string]bool, len(sub.names))
	for _, name := range sub.names {
		canonical[name] = true
	}
	for i, name := range sub.names {
		p, err := r.parser(sub.bodies[i], depth+1)
		if err != nil {
			return err
		}
		s.Add(name, p)
		for _, alias := range sub.aliases[name] {
			if _, taken := s.Lookup(alias); taken || canonical[alias] {
				r.log.Debug("dropping alias", "command", name, "alias", alias)
				continue
			}
			s.Add(alias, p)
		}
	}
	return nil
}

// resolve attaches the converter for a's type reference.
func (r *reader) resolve(a *Action) error {
	if a.Type == nil {
		return nil
	}
	conv, err := r.codec.opts.Registry.Resolve(a.Type, a.FileType, !r.codec.opts.Lenient)
	if err != nil {
		return errors.Wrap(errors.ErrCodeUnresolvableType, err, "action %q", a.Dest)
	}
	if conv == nil {
		r.log.Debug("type dropped", "dest", a.Dest, "type", a.Type.QualifiedName())
	}
	a.Converter = conv
	return nil
}

// pruneGroups drops group members that name no action of p.
func (r *reader) pruneGroups(p *Parser) {
	known := make(map[string]bool, len(p.Actions))
	for _, a := range p.Actions {
		known[a.Dest] = true
	}
	keep := func(where string, dests []string) []string {
		out := dests[:0]
		for _, d := range dests {
			if known[d] {
				out = append(out, d)
				continue
			}
			r.log.Warn("dropping unknown group member", "prog", p.Prog, "group", where, "dest", d)
		}
		return out
	}
	for i := range p.Groups {
		p.Groups[i].Dests = keep(p.Groups[i].Title, p.Groups[i].Dests)
	}
	for i := range p.MutexGroups {
		p.MutexGroups[i].Dests = keep("mutually exclusive", p.MutexGroups[i].Dests)
	}
}

func readType(typeInfo, fileInfo []byte) (*types.Ref, *types.FileParams) {
	var ref *types.Ref
	if typeInfo != nil {
		ref = &types.Ref{Serializable: true}
		_ = jsonparser.ObjectEach(typeInfo, func(k, v []byte, t jsonparser.ValueType, _ int) error {
			switch string(k) {
			case "name":
				ref.Name = str(v, t)
			case "module":
				ref.Module = str(v, t)
			case "builtin":
				ref.Builtin = boolean(v, t, false)
			case "serializable":
				ref.Serializable = boolean(v, t, true)
			}
			return nil
		})
		if ref.Name == "" {
			ref = nil
		}
	}
	if fileInfo == nil {
		return ref, nil
	}
	fp := types.DefaultFileParams()
	_ = jsonparser.ObjectEach(fileInfo, func(k, v []byte, t jsonparser.ValueType, _ int) error {
		switch string(k) {
		case "mode":
			if s := str(v, t); s != "" {
				fp.Mode = s
			}
		case "bufsize":
			if t == jsonparser.Number {
				if n, err := jsonparser.ParseInt(v); err == nil {
					fp.BufSize = int(n)
				}
			}
		case "encoding":
			fp.Encoding = str(v, t)
		case "errors":
			fp.Errors = str(v, t)
		}
		return nil
	})
	if ref == nil {
		r := types.FileTypeRef()
		ref = &r
	}
	return ref, &fp
}

// value decodes one Value field; JSON null means the field is unset.
func (r *reader) value(data []byte, typ jsonparser.ValueType) *value.Value {
	switch typ {
	case jsonparser.Null, jsonparser.NotExist:
		return nil
	case jsonparser.String:
		return r.values.Decode(quote(data))
	}
	return r.values.Decode(data)
}

// help accepts plain text or a sentinel, which reads as its display form.
func (r *reader) help(data []byte, typ jsonparser.ValueType) string {
	if typ == jsonparser.Object {
		if v := r.values.Decode(data); v.Kind() == value.KindSentinel {
			return v.Sentinel().String()
		}
		return ""
	}
	return str(data, typ)
}

// quote restores the quotes jsonparser strips from string tokens.
func quote(data []byte) []byte {
	out := make([]byte, 0, len(data)+2)
	out = append(out, '"')
	out = append(out, data...)
	return append(out, '"')
}

func str(data []byte, typ jsonparser.ValueType) string {
	if typ != jsonparser.String {
		return ""
	}
	s, err := jsonparser.ParseString(data)
	if err != nil {
		return string(data)
	}
	return s
}

func key2str(k []byte) string { return str(k, jsonparser.String) }

func boolean(data []byte, typ jsonparser.ValueType, def bool) bool {
	if typ != jsonparser.Boolean {
		return def
	}
	b, err := jsonparser.ParseBoolean(data)
	if err != nil {
		return def
	}
	return b
}

func strs(data []byte, typ jsonparser.ValueType) []string {
	out := []string{}
	if typ != jsonparser.Array {
		return out
	}
	_, _ = jsonparser.ArrayEach(data, func(v []byte, t jsonparser.ValueType, _ int, _ error) {
		if t == jsonparser.String {
			out = append(out, str(v, t))
		}
	})
	return out
}

func eachObject(data []byte, typ jsonparser.ValueType, fn func(obj []byte)) {
	if typ != jsonparser.Array {
		return
	}
	_, _ = jsonparser.ArrayEach(data, func(v []byte, t jsonparser.ValueType, _ int, _ error) {
		if t == jsonparser.Object {
			fn(v)
		}
	})
}
