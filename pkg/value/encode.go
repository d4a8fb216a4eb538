package value

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"unicode/utf8"
)

// Tag keys of the encoded tree. A JSON object carrying one of these keys is
// a tagged datum rather than a plain mapping.
const (
	tagSentinel     = "__argparse__"
	tagSet          = "__set__"
	tagFrozenSet    = "__frozenset__"
	tagBytes        = "__bytes__"
	tagBytesB64     = "__bytes_b64__"
	tagRange        = "__range__"
	tagEnum         = "__enum__"
	tagType         = "__type__"
	tagRepr         = "__repr__"
	tagTypeName     = "__type_name__"
	tagSerializable = "__serializable__"
	tagCircular     = "__circular_ref__"
)

// Encode converts v into a JSON tree. It never fails.
//
// A composite that is reached again while it is still being encoded (a
// cycle) is written as {"__circular_ref__": true}. Siblings that share a
// composite each receive a full copy, since sharing alone is not a cycle.
// A nil v encodes as JSON null.
func Encode(v *Value) json.RawMessage {
	e := newEncoder()
	e.value(v)
	return json.RawMessage(e.buf.Bytes())
}

// MarshalJSON implements json.Marshaler using [Encode].
func (v *Value) MarshalJSON() ([]byte, error) {
	return Encode(v), nil
}

// encoder writes one tree. Each composite gets an integer handle from a
// per-call arena; active[h] is set while handle h is on the current path.
type encoder struct {
	buf     bytes.Buffer
	handles map[*Value]int
	active  []bool

	scratch bytes.Buffer
	strEnc  *json.Encoder
}

func newEncoder() *encoder {
	e := &encoder{handles: make(map[*Value]int)}
	e.strEnc = json.NewEncoder(&e.scratch)
	e.strEnc.SetEscapeHTML(false)
	return e
}

func (e *encoder) handle(v *Value) int {
	h, ok := e.handles[v]
	if !ok {
		h = len(e.active)
		e.handles[v] = h
		e.active = append(e.active, false)
	}
	return h
}

func (e *encoder) value(v *Value) {
	if v == nil {
		e.buf.WriteString("null")
		return
	}
	if v.kind.IsComposite() {
		h := e.handle(v)
		if e.active[h] {
			e.buf.WriteString(`{"` + tagCircular + `":true}`)
			return
		}
		e.active[h] = true
		defer func() { e.active[h] = false }()
	}

	switch v.kind {
	case KindSentinel:
		e.buf.WriteString(`{"` + tagSentinel + `":`)
		e.str(v.sentinel.tag())
		e.buf.WriteByte('}')
	case KindNull:
		e.buf.WriteString("null")
	case KindBool:
		e.buf.WriteString(strconv.FormatBool(v.b))
	case KindInt:
		e.buf.WriteString(strconv.FormatInt(v.i, 10))
	case KindFloat:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			e.opaque(OpaqueInfo{Repr: formatFloat(v.f), TypeName: "float"})
			return
		}
		e.buf.WriteString(formatFloat(v.f))
	case KindString:
		e.str(v.s)
	case KindSeq:
		e.list(v.items)
	case KindMap:
		e.buf.WriteByte('{')
		for i, ent := range v.entries {
			if i > 0 {
				e.buf.WriteByte(',')
			}
			e.str(ent.Key)
			e.buf.WriteByte(':')
			e.value(ent.Value)
		}
		e.buf.WriteByte('}')
	case KindSet:
		e.tagged(tagSet, func() { e.list(sortByDisplay(v.items)) })
	case KindFrozenSet:
		e.tagged(tagFrozenSet, func() { e.list(sortByDisplay(v.items)) })
	case KindEnum:
		e.buf.WriteString(`{"` + tagEnum + `":true,"class":`)
		e.str(v.enum.Class)
		e.buf.WriteString(`,"module":`)
		e.str(v.enum.Module)
		e.buf.WriteString(`,"value":`)
		e.value(v.enum.Value)
		e.buf.WriteString(`,"name":`)
		e.str(v.enum.Name)
		e.buf.WriteByte('}')
	case KindBytes:
		if utf8.Valid(v.raw) {
			e.tagged(tagBytes, func() { e.str(string(v.raw)) })
		} else {
			e.tagged(tagBytesB64, func() { e.str(base64.StdEncoding.EncodeToString(v.raw)) })
		}
	case KindRange:
		e.tagged(tagRange, func() {
			e.buf.WriteByte('[')
			e.buf.WriteString(strconv.FormatInt(v.rng.Start, 10))
			e.buf.WriteByte(',')
			e.buf.WriteString(strconv.FormatInt(v.rng.Stop, 10))
			e.buf.WriteByte(',')
			e.buf.WriteString(strconv.FormatInt(v.rng.Step, 10))
			e.buf.WriteByte(']')
		})
	case KindType:
		e.buf.WriteString(`{"` + tagType + `":true,"name":`)
		e.str(v.class.Name)
		e.buf.WriteString(`,"module":`)
		e.str(v.class.Module)
		e.buf.WriteByte('}')
	case KindOpaque:
		e.opaque(v.opaque)
	default:
		e.buf.WriteString("null")
	}
}

func (e *encoder) list(items []*Value) {
	e.buf.WriteByte('[')
	for i, it := range items {
		if i > 0 {
			e.buf.WriteByte(',')
		}
		e.value(it)
	}
	e.buf.WriteByte(']')
}

func (e *encoder) tagged(key string, body func()) {
	e.buf.WriteString(`{"` + key + `":`)
	body()
	e.buf.WriteByte('}')
}

func (e *encoder) opaque(o OpaqueInfo) {
	e.buf.WriteString(`{"` + tagRepr + `":`)
	e.str(o.Repr)
	e.buf.WriteString(`,"` + tagTypeName + `":`)
	e.str(o.TypeName)
	e.buf.WriteString(`,"` + tagSerializable + `":false}`)
}

// sortByDisplay orders set elements by their display string so that equal
// sets always encode identically. Ties keep insertion order.
func sortByDisplay(items []*Value) []*Value {
	type keyed struct {
		key string
		v   *Value
	}
	ks := make([]keyed, len(items))
	for i, it := range items {
		ks[i] = keyed{key: it.String(), v: it}
	}
	sort.SliceStable(ks, func(i, j int) bool { return ks[i].key < ks[j].key })
	out := make([]*Value, len(ks))
	for i, k := range ks {
		out[i] = k.v
	}
	return out
}

// str writes s as a JSON string literal without HTML escaping.
func (e *encoder) str(s string) {
	e.scratch.Reset()
	_ = e.strEnc.Encode(s)
	e.buf.Write(bytes.TrimRight(e.scratch.Bytes(), "\n"))
}
