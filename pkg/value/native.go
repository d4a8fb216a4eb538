package value

import (
	"fmt"
	"math"
	"reflect"
	"sort"
)

// builtinModule is the namespace reported for predeclared Go types.
const builtinModule = "builtins"

// Enumerator is implemented by Go enumerations that travel as enum members.
type Enumerator interface {
	EnumMember() EnumMember
}

// Of converts a Go value into a [Value]. Values that are already a *Value,
// a [Sentinel], a [RangeSpec], a reflect.Type, or an [Enumerator] are taken
// as such. Otherwise classification follows the Go kind, with bool checked
// before the integer kinds, []byte mapped to bytes, maps with struct{}
// elements mapped to sets, and anything unrepresentable mapped to opaque.
//
// Strings equal to [SuppressString] or [RemainderString] become the
// matching sentinel. Pointers, maps, and slices that are reached more than
// once map to the same *Value, so a cyclic Go structure yields a cyclic
// Value graph.
func Of(x any) *Value {
	c := &converter{memo: make(map[identity]*Value)}
	return c.of(reflect.ValueOf(x))
}

type identity struct {
	ptr uintptr
	typ reflect.Type
	n   int
}

type converter struct {
	memo map[identity]*Value
}

var (
	valueType     = reflect.TypeOf((*Value)(nil))
	enumeratorTyp = reflect.TypeOf((*Enumerator)(nil)).Elem()
	typeType      = reflect.TypeOf((*reflect.Type)(nil)).Elem()
	rangeType     = reflect.TypeOf(RangeSpec{})
	sentinelType  = reflect.TypeOf(Sentinel(0))
	emptyStruct   = reflect.TypeOf(struct{}{})
)

func (c *converter) of(rv reflect.Value) *Value {
	if !rv.IsValid() {
		return Null()
	}
	t := rv.Type()
	if !rv.CanInterface() {
		return Opaque(t.String(), t.String())
	}
	switch {
	case t == valueType:
		if rv.IsNil() {
			return Null()
		}
		return rv.Interface().(*Value)
	case t == sentinelType:
		s := rv.Interface().(Sentinel)
		if s == Suppress || s == Remainder {
			return &Value{kind: KindSentinel, sentinel: s}
		}
	case t == rangeType:
		r := rv.Interface().(RangeSpec)
		return Range(r.Start, r.Stop, r.Step)
	case t.Implements(typeType) && rv.Kind() == reflect.Pointer:
		if rv.IsNil() {
			return Null()
		}
		return typeRef(rv.Interface().(reflect.Type))
	case t.Implements(enumeratorTyp) && (rv.Kind() != reflect.Pointer || !rv.IsNil()):
		m := rv.Interface().(Enumerator).EnumMember()
		return Enum(m.Module, m.Class, m.Name, m.Value)
	}

	switch rv.Kind() {
	case reflect.Bool:
		return Bool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return Float(float64(u))
		}
		return Int(int64(u))
	case reflect.Float32, reflect.Float64:
		return Float(rv.Float())
	case reflect.String:
		return String(rv.String())
	case reflect.Interface:
		if rv.IsNil() {
			return Null()
		}
		return c.of(rv.Elem())
	case reflect.Pointer:
		if rv.IsNil() {
			return Null()
		}
		id := identity{ptr: rv.Pointer(), typ: t}
		if v, ok := c.memo[id]; ok {
			if v == nil {
				// A pointer chain leading back to itself carries no data.
				return Null()
			}
			return v
		}
		c.memo[id] = nil
		v := c.of(rv.Elem())
		c.memo[id] = v
		return v
	case reflect.Slice:
		if rv.IsNil() {
			return Null()
		}
		if t.Elem().Kind() == reflect.Uint8 {
			return Bytes(rv.Bytes())
		}
		id := identity{ptr: rv.Pointer(), typ: t, n: rv.Len()}
		if v, ok := c.memo[id]; ok {
			return v
		}
		v := &Value{kind: KindSeq}
		c.memo[id] = v
		for i := 0; i < rv.Len(); i++ {
			v.items = append(v.items, c.of(rv.Index(i)))
		}
		return v
	case reflect.Array:
		v := &Value{kind: KindSeq}
		for i := 0; i < rv.Len(); i++ {
			v.items = append(v.items, c.of(rv.Index(i)))
		}
		return v
	case reflect.Map:
		if rv.IsNil() {
			return Null()
		}
		id := identity{ptr: rv.Pointer(), typ: t}
		if v, ok := c.memo[id]; ok {
			return v
		}
		if t.Elem() == emptyStruct {
			v := &Value{kind: KindSet}
			c.memo[id] = v
			for _, k := range rv.MapKeys() {
				v.Append(c.of(k))
			}
			return v
		}
		v := &Value{kind: KindMap}
		c.memo[id] = v
		keys := rv.MapKeys()
		names := make([]string, len(keys))
		for i, k := range keys {
			names[i] = fmt.Sprint(k.Interface())
		}
		idx := make([]int, len(keys))
		for i := range idx {
			idx[i] = i
		}
		sort.SliceStable(idx, func(a, b int) bool { return names[idx[a]] < names[idx[b]] })
		for _, i := range idx {
			v.Put(names[i], c.of(rv.MapIndex(keys[i])))
		}
		return v
	}

	return Opaque(fmt.Sprintf("%+v", rv.Interface()), t.String())
}

func typeRef(t reflect.Type) *Value {
	module := t.PkgPath()
	if module == "" {
		module = builtinModule
	}
	name := t.Name()
	if name == "" {
		name = t.String()
	}
	return Type(module, name)
}

// Native converts v back into plain Go data:
//
//	Null        nil
//	Bool        bool
//	Int         int
//	Float       float64
//	String      string
//	Seq         []any
//	Map         map[string]any
//	Set         []any in display order
//	Bytes       []byte
//	Range       RangeSpec
//	Enum        EnumMember
//	Type        Class
//	Sentinel    Sentinel
//	Opaque      nil
//
// Cyclic graphs produce cyclic Go data.
func (v *Value) Native() any {
	return native(v, make(map[*Value]any))
}

func native(v *Value, memo map[*Value]any) any {
	if v == nil {
		return nil
	}
	if got, ok := memo[v]; ok {
		return got
	}
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return int(v.i)
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindSeq:
		out := make([]any, len(v.items))
		memo[v] = out
		for i, it := range v.items {
			out[i] = native(it, memo)
		}
		return out
	case KindSet, KindFrozenSet:
		items := sortByDisplay(v.items)
		out := make([]any, len(items))
		memo[v] = out
		for i, it := range items {
			out[i] = native(it, memo)
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.entries))
		memo[v] = out
		for _, e := range v.entries {
			out[e.Key] = native(e.Value, memo)
		}
		return out
	case KindBytes:
		return append([]byte{}, v.raw...)
	case KindRange:
		return v.rng
	case KindEnum:
		return *v.enum
	case KindType:
		return v.class
	case KindSentinel:
		return v.sentinel
	}
	return nil
}
