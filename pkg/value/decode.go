package value

import (
	"encoding/base64"
	"strconv"

	"github.com/buger/jsonparser"
)

// DefaultMaxDepth bounds container nesting when a [Decoder] sets none.
const DefaultMaxDepth = 64

// Decoder rebuilds values from encoded trees.
type Decoder struct {
	// Enums locates enumeration classes. Without it, or when a class is
	// missing, an encoded enum member decodes to its bare underlying value.
	Enums EnumLookup

	// MaxDepth bounds container nesting. A list or mapping nested deeper
	// decodes to no value. Zero uses DefaultMaxDepth.
	MaxDepth int
}

func (d Decoder) maxDepth() int {
	if d.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return d.MaxDepth
}

// Decode rebuilds a value from raw JSON using a zero [Decoder].
func Decode(raw []byte) *Value {
	return Decoder{}.Decode(raw)
}

// Decode rebuilds a value from raw JSON. It never fails: unknown or
// malformed tags come back as plain mappings, opaque markers and
// circular-reference markers come back as nil, and input that is not JSON
// at all yields nil. Containers nested deeper than MaxDepth come back as
// nil without being scanned.
func (d Decoder) Decode(raw []byte) *Value {
	data, typ, _, err := jsonparser.Get(raw)
	if err != nil {
		return nil
	}
	return d.node(data, typ, 0)
}

func (d Decoder) node(data []byte, typ jsonparser.ValueType, depth int) *Value {
	if (typ == jsonparser.Array || typ == jsonparser.Object) && depth >= d.maxDepth() {
		return nil
	}
	switch typ {
	case jsonparser.Null:
		return Null()
	case jsonparser.Boolean:
		b, err := jsonparser.ParseBoolean(data)
		if err != nil {
			return nil
		}
		return Bool(b)
	case jsonparser.Number:
		return number(data)
	case jsonparser.String:
		s, err := jsonparser.ParseString(data)
		if err != nil {
			return String(string(data))
		}
		return String(s)
	case jsonparser.Array:
		return Seq(d.array(data, depth)...)
	case jsonparser.Object:
		return d.object(data, depth)
	}
	return nil
}

// number keeps the Int/Float split of the encoder: a literal with a
// fraction or exponent is a float. Integers too large for int64 degrade to
// float.
func number(data []byte) *Value {
	s := string(data)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '.', 'e', 'E':
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil
			}
			return Float(f)
		}
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Int(i)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return Float(f)
}

// array decodes the elements of the container at depth.
func (d Decoder) array(data []byte, depth int) []*Value {
	var items []*Value
	_, _ = jsonparser.ArrayEach(data, func(v []byte, typ jsonparser.ValueType, _ int, err error) {
		if err != nil {
			return
		}
		items = append(items, d.node(v, typ, depth+1))
	})
	return items
}

type member struct {
	key  string
	data []byte
	typ  jsonparser.ValueType
}

func (d Decoder) object(data []byte, depth int) *Value {
	var members []member
	_ = jsonparser.ObjectEach(data, func(k, v []byte, typ jsonparser.ValueType, _ int) error {
		members = append(members, member{key: string(k), data: v, typ: typ})
		return nil
	})
	find := func(key string) (member, bool) {
		for _, m := range members {
			if m.key == key {
				return m, true
			}
		}
		return member{}, false
	}

	if m, ok := find(tagSentinel); ok && m.typ == jsonparser.String {
		switch string(m.data) {
		case "SUPPRESS":
			return SuppressValue()
		case "REMAINDER":
			return RemainderValue()
		}
	}
	if m, ok := find(tagSet); ok && m.typ == jsonparser.Array {
		return Set(d.array(m.data, depth)...)
	}
	if m, ok := find(tagFrozenSet); ok && m.typ == jsonparser.Array {
		return FrozenSet(d.array(m.data, depth)...)
	}
	if m, ok := find(tagBytes); ok && m.typ == jsonparser.String {
		if s, err := jsonparser.ParseString(m.data); err == nil {
			return Bytes([]byte(s))
		}
	}
	if s, ok := stringMember(find, tagBytesB64); ok {
		if b, err := base64.StdEncoding.DecodeString(s); err == nil {
			return Bytes(b)
		}
	}
	if m, ok := find(tagRange); ok && m.typ == jsonparser.Array {
		if v := rangeOf(d.array(m.data, depth)); v != nil {
			return v
		}
	}
	if _, ok := find(tagEnum); ok {
		if v, ok := d.enum(find, depth); ok {
			return v
		}
	}
	if _, ok := find(tagType); ok {
		name, okName := stringMember(find, "name")
		module, _ := stringMember(find, "module")
		if okName {
			return Type(module, name)
		}
	}
	if _, ok := find(tagRepr); ok {
		if m, ok := find(tagSerializable); ok && m.typ == jsonparser.Boolean && string(m.data) == "false" {
			return nil
		}
	}
	if _, ok := find(tagCircular); ok {
		return nil
	}

	out := &Value{kind: KindMap}
	for _, m := range members {
		out.Put(m.key, d.node(m.data, m.typ, depth+1))
	}
	return out
}

// rangeOf accepts one to three integers with the usual defaults. A zero
// step is rejected.
func rangeOf(parts []*Value) *Value {
	if len(parts) == 0 || len(parts) > 3 {
		return nil
	}
	for _, p := range parts {
		if p.Kind() != KindInt {
			return nil
		}
	}
	start, stop, step := int64(0), parts[0].Int(), int64(1)
	if len(parts) >= 2 {
		start, stop = parts[0].Int(), parts[1].Int()
	}
	if len(parts) == 3 {
		step = parts[2].Int()
	}
	if step == 0 {
		return nil
	}
	return Range(start, stop, step)
}

func (d Decoder) enum(find func(string) (member, bool), depth int) (*Value, bool) {
	m, ok := find("value")
	if !ok {
		return nil, false
	}
	underlying := d.node(m.data, m.typ, depth+1)
	class, okClass := stringMember(find, "class")
	module, okModule := stringMember(find, "module")
	if !okClass || !okModule {
		return underlying, true
	}
	if d.Enums != nil {
		if c, found := d.Enums.LookupEnum(module, class); found {
			if mem, ok := c.ByValue(underlying); ok {
				return Enum(c.Module, c.Name, mem.Name, mem.Value), true
			}
		}
	}
	return underlying, true
}

func stringMember(find func(string) (member, bool), key string) (string, bool) {
	m, ok := find(key)
	if !ok || m.typ != jsonparser.String {
		return "", false
	}
	s, err := jsonparser.ParseString(m.data)
	if err != nil {
		return "", false
	}
	return s, true
}
