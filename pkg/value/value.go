package value

// Kind discriminates the variants of [Value].
type Kind uint8

// List of supported kinds.
const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindSeq
	KindMap
	KindSet
	KindFrozenSet
	KindBytes
	KindRange
	KindEnum
	KindType
	KindOpaque
	KindSentinel
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindSeq:
		return "sequence"
	case KindMap:
		return "mapping"
	case KindSet:
		return "set"
	case KindFrozenSet:
		return "frozenset"
	case KindBytes:
		return "bytes"
	case KindRange:
		return "range"
	case KindEnum:
		return "enum"
	case KindType:
		return "type"
	case KindOpaque:
		return "opaque"
	case KindSentinel:
		return "sentinel"
	default:
		return "unknown"
	}
}

// IsComposite reports whether values of kind k hold child values and can
// therefore take part in a reference cycle.
func (k Kind) IsComposite() bool {
	switch k {
	case KindSeq, KindMap, KindSet, KindFrozenSet:
		return true
	}
	return false
}

// Sentinel identifies one of the two distinguished marker values.
type Sentinel uint8

const (
	// Suppress marks a default or help text that must not appear.
	Suppress Sentinel = iota + 1
	// Remainder marks an nargs that consumes all remaining arguments.
	Remainder
)

// Display forms of the sentinels. A string equal to one of them is the
// sentinel.
const (
	SuppressString  = "==SUPPRESS=="
	RemainderString = "..."
)

// String returns the display form of the sentinel.
func (s Sentinel) String() string {
	switch s {
	case Suppress:
		return SuppressString
	case Remainder:
		return RemainderString
	}
	return ""
}

// tag returns the wire name used inside the sentinel marker object.
func (s Sentinel) tag() string {
	switch s {
	case Suppress:
		return "SUPPRESS"
	case Remainder:
		return "REMAINDER"
	}
	return ""
}

// Entry is one key/value pair of a mapping. Mappings keep insertion order.
type Entry struct {
	Key   string
	Value *Value
}

// RangeSpec describes an integer range with an exclusive stop.
type RangeSpec struct {
	Start, Stop, Step int64
}

// Len returns the number of integers in the range.
func (r RangeSpec) Len() int64 {
	switch {
	case r.Step > 0 && r.Start < r.Stop:
		return (r.Stop - r.Start + r.Step - 1) / r.Step
	case r.Step < 0 && r.Start > r.Stop:
		return (r.Start - r.Stop - r.Step - 1) / -r.Step
	}
	return 0
}

// Contains reports whether n is produced by the range.
func (r RangeSpec) Contains(n int64) bool {
	if r.Len() == 0 {
		return false
	}
	if r.Step > 0 {
		return n >= r.Start && n < r.Stop && (n-r.Start)%r.Step == 0
	}
	return n <= r.Start && n > r.Stop && (r.Start-n)%(-r.Step) == 0
}

// EnumMember is a member of a named enumeration class.
type EnumMember struct {
	Module string // Namespace the class lives in
	Class  string // Class name
	Name   string // Member name
	Value  *Value // Underlying value
}

// Class identifies a bare type or class object.
type Class struct {
	Module string
	Name   string
}

// OpaqueInfo describes an object the codec cannot represent.
type OpaqueInfo struct {
	Repr     string // Display form of the object
	TypeName string // Declared type name
}

// Value is a tagged variant holding any datum that needs to travel inside a
// grammar document: defaults, consts, nargs, choices, and metavars.
//
// Values are built with the constructor functions ([Null], [Int], [Seq], ...)
// and inspected through [Value.Kind] plus the typed accessors. Accessors
// return the zero value when called on the wrong kind.
//
// A nil *Value means "no value". It is distinct from [Null], which is an
// explicit null datum.
//
// Composite values hold pointers to their children, so a Value graph may
// share children or even contain itself (see [Value.Append]). [Encode]
// terminates on such graphs.
type Value struct {
	kind     Kind
	b        bool
	i        int64
	f        float64
	s        string
	raw      []byte
	items    []*Value
	entries  []Entry
	rng      RangeSpec
	enum     *EnumMember
	class    Class
	opaque   OpaqueInfo
	sentinel Sentinel
}

// Null returns an explicit null value.
func Null() *Value { return &Value{kind: KindNull} }

// Bool returns a boolean value.
func Bool(b bool) *Value { return &Value{kind: KindBool, b: b} }

// Int returns an integer value.
func Int(i int64) *Value { return &Value{kind: KindInt, i: i} }

// Float returns a floating-point value.
func Float(f float64) *Value { return &Value{kind: KindFloat, f: f} }

// String returns a text value. [SuppressString] and [RemainderString]
// give the matching sentinel, as the two are indistinguishable.
func String(s string) *Value {
	switch s {
	case SuppressString:
		return SuppressValue()
	case RemainderString:
		return RemainderValue()
	}
	return &Value{kind: KindString, s: s}
}

// Seq returns an ordered sequence. Lists and tuples both map to Seq.
func Seq(items ...*Value) *Value {
	return &Value{kind: KindSeq, items: items}
}

// Map returns a mapping with the given entries in order. Later entries
// replace earlier entries with the same key.
func Map(entries ...Entry) *Value {
	v := &Value{kind: KindMap}
	for _, e := range entries {
		v.Put(e.Key, e.Value)
	}
	return v
}

// Set returns an unordered set. Elements equal to an earlier element are
// dropped.
func Set(items ...*Value) *Value {
	v := &Value{kind: KindSet}
	v.Append(items...)
	return v
}

// FrozenSet returns an immutable unordered set.
func FrozenSet(items ...*Value) *Value {
	v := &Value{kind: KindFrozenSet}
	v.Append(items...)
	return v
}

// Bytes returns a byte sequence value. The slice is copied.
func Bytes(b []byte) *Value {
	return &Value{kind: KindBytes, raw: append([]byte{}, b...)}
}

// Range returns an integer range value.
func Range(start, stop, step int64) *Value {
	return &Value{kind: KindRange, rng: RangeSpec{Start: start, Stop: stop, Step: step}}
}

// Enum returns an enumeration member value.
func Enum(module, class, name string, underlying *Value) *Value {
	return &Value{kind: KindEnum, enum: &EnumMember{Module: module, Class: class, Name: name, Value: underlying}}
}

// Type returns a reference to a bare type or class.
func Type(module, name string) *Value {
	return &Value{kind: KindType, class: Class{Module: module, Name: name}}
}

// Opaque returns a marker for an object the codec cannot represent.
// Opaque values encode but never decode back to themselves.
func Opaque(repr, typeName string) *Value {
	return &Value{kind: KindOpaque, opaque: OpaqueInfo{Repr: repr, TypeName: typeName}}
}

// SuppressValue returns the suppress sentinel.
func SuppressValue() *Value { return &Value{kind: KindSentinel, sentinel: Suppress} }

// RemainderValue returns the consume-remaining-arguments sentinel.
func RemainderValue() *Value { return &Value{kind: KindSentinel, sentinel: Remainder} }

// Kind returns the variant of v. A nil v reports KindNull.
func (v *Value) Kind() Kind {
	if v == nil {
		return KindNull
	}
	return v.kind
}

// IsNull reports whether v is nil or an explicit null.
func (v *Value) IsNull() bool { return v == nil || v.kind == KindNull }

// Bool returns the boolean payload.
func (v *Value) Bool() bool { return v != nil && v.kind == KindBool && v.b }

// Int returns the integer payload.
func (v *Value) Int() int64 {
	if v == nil || v.kind != KindInt {
		return 0
	}
	return v.i
}

// Float returns the floating-point payload.
func (v *Value) Float() float64 {
	if v == nil || v.kind != KindFloat {
		return 0
	}
	return v.f
}

// Str returns the text payload of a string value.
func (v *Value) Str() string {
	if v == nil || v.kind != KindString {
		return ""
	}
	return v.s
}

// Items returns the elements of a sequence, set, or frozenset.
func (v *Value) Items() []*Value {
	if v == nil {
		return nil
	}
	switch v.kind {
	case KindSeq, KindSet, KindFrozenSet:
		return v.items
	}
	return nil
}

// Entries returns the entries of a mapping in insertion order.
func (v *Value) Entries() []Entry {
	if v == nil || v.kind != KindMap {
		return nil
	}
	return v.entries
}

// Get returns the mapping value stored under key.
func (v *Value) Get(key string) (*Value, bool) {
	for _, e := range v.Entries() {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Bytes returns the byte payload.
func (v *Value) Bytes() []byte {
	if v == nil || v.kind != KindBytes {
		return nil
	}
	return v.raw
}

// Range returns the range payload.
func (v *Value) Range() RangeSpec {
	if v == nil || v.kind != KindRange {
		return RangeSpec{}
	}
	return v.rng
}

// Enum returns the enumeration member, or nil for other kinds.
func (v *Value) Enum() *EnumMember {
	if v == nil || v.kind != KindEnum {
		return nil
	}
	return v.enum
}

// Class returns the type reference payload.
func (v *Value) Class() Class {
	if v == nil || v.kind != KindType {
		return Class{}
	}
	return v.class
}

// Opaque returns the opaque payload.
func (v *Value) Opaque() OpaqueInfo {
	if v == nil || v.kind != KindOpaque {
		return OpaqueInfo{}
	}
	return v.opaque
}

// Sentinel returns the sentinel payload, or zero for other kinds.
func (v *Value) Sentinel() Sentinel {
	if v == nil || v.kind != KindSentinel {
		return 0
	}
	return v.sentinel
}

// Is reports whether v is the sentinel s.
func (v *Value) Is(s Sentinel) bool { return v.Sentinel() == s }

// Len returns the element count of composites, the byte length of bytes and
// strings, and the number of integers in a range.
func (v *Value) Len() int {
	if v == nil {
		return 0
	}
	switch v.kind {
	case KindSeq, KindSet, KindFrozenSet:
		return len(v.items)
	case KindMap:
		return len(v.entries)
	case KindBytes:
		return len(v.raw)
	case KindString:
		return len(v.s)
	case KindRange:
		return int(v.rng.Len())
	}
	return 0
}

// Append adds items to a sequence, set, or frozenset. Sets skip items equal
// to an existing element. Appending a value to itself builds a cycle.
func (v *Value) Append(items ...*Value) {
	switch v.kind {
	case KindSeq:
		v.items = append(v.items, items...)
	case KindSet, KindFrozenSet:
		for _, it := range items {
			if !v.contains(it) {
				v.items = append(v.items, it)
			}
		}
	}
}

// Put stores val under key in a mapping, replacing an existing entry in
// place so the original insertion position is kept.
func (v *Value) Put(key string, val *Value) {
	if v.kind != KindMap {
		return
	}
	for i := range v.entries {
		if v.entries[i].Key == key {
			v.entries[i].Value = val
			return
		}
	}
	v.entries = append(v.entries, Entry{Key: key, Value: val})
}

func (v *Value) contains(x *Value) bool {
	for _, it := range v.items {
		if it == x || Equal(it, x) {
			return true
		}
	}
	return false
}
