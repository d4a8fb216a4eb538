package value

import (
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type color int

func (c color) EnumMember() EnumMember {
	names := map[color]string{1: "RED", 2: "GREEN"}
	return EnumMember{Module: "app.colors", Class: "Color", Name: names[c], Value: Int(int64(c))}
}

func colorClass() *EnumClass {
	return NewEnumClass("app.colors", "Color",
		EnumMember{Name: "RED", Value: Int(1)},
		EnumMember{Name: "GREEN", Value: Int(2)},
	)
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name string
		in   *Value
		want string
	}{
		{"nil", nil, `null`},
		{"null", Null(), `null`},
		{"bool", Bool(true), `true`},
		{"int", Int(42), `42`},
		{"negative int", Int(-7), `-7`},
		{"integral float", Float(1), `1.0`},
		{"float", Float(2.5), `2.5`},
		{"large float", Float(1e21), `1e+21`},
		{"string without html escaping", String("a<b>&c"), `"a<b>&c"`},
		{"sequence", Seq(Int(1), String("x")), `[1,"x"]`},
		{"empty sequence", Seq(), `[]`},
		{"mapping keeps order", Map(Entry{"b", Int(1)}, Entry{"a", Int(2)}), `{"b":1,"a":2}`},
		{"set sorted", Set(Int(3), Int(1), Int(2)), `{"__set__":[1,2,3]}`},
		{"set sorted by display", Set(Int(9), Int(10)), `{"__set__":[10,9]}`},
		{"frozenset", FrozenSet(String("b"), String("a")), `{"__frozenset__":["a","b"]}`},
		{"utf8 bytes", Bytes([]byte("hi")), `{"__bytes__":"hi"}`},
		{"binary bytes", Bytes([]byte{0xff, 0x00}), `{"__bytes_b64__":"/wA="}`},
		{"range", Range(1, 10, 2), `{"__range__":[1,10,2]}`},
		{"type", Type("pathlib", "Path"), `{"__type__":true,"name":"Path","module":"pathlib"}`},
		{"enum", Enum("app.colors", "Color", "RED", Int(1)), `{"__enum__":true,"class":"Color","module":"app.colors","value":1,"name":"RED"}`},
		{"opaque", Opaque("<x>", "Foo"), `{"__repr__":"<x>","__type_name__":"Foo","__serializable__":false}`},
		{"nan", Float(math.NaN()), `{"__repr__":"nan","__type_name__":"float","__serializable__":false}`},
		{"suppress", SuppressValue(), `{"__argparse__":"SUPPRESS"}`},
		{"remainder", RemainderValue(), `{"__argparse__":"REMAINDER"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(Encode(tt.in)))
		})
	}
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   *Value
	}{
		{"null", Null()},
		{"bool", Bool(false)},
		{"int", Int(-12)},
		{"float", Float(3.0)},
		{"string", String("héllo \"quoted\"\n")},
		{"nested", Seq(Int(1), Seq(String("a"), Null()), Map(Entry{"k", Float(0.5)}))},
		{"mapping", Map(Entry{"z", Int(1)}, Entry{"a", Seq()})},
		{"set", Set(Int(1), Int(2), Int(3))},
		{"frozenset", FrozenSet(String("a"), String("b"))},
		{"bytes", Bytes([]byte("raw"))},
		{"binary", Bytes([]byte{0, 1, 0xfe, 0xff})},
		{"range", Range(1, 10, 2)},
		{"negative range", Range(10, 0, -3)},
		{"type", Type("builtins", "int")},
		{"sentinels", Seq(SuppressValue(), RemainderValue())},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decode(Encode(tt.in))
			require.NotNil(t, got)
			assert.True(t, Equal(tt.in, got), "got %s, want %s", got, tt.in)
			assert.Equal(t, tt.in.Kind(), got.Kind())
		})
	}
}

func TestSetOrderIsDeterministic(t *testing.T) {
	a := Set(String("c"), String("a"), String("b"))
	b := Set(String("b"), String("c"), String("a"))
	assert.Equal(t, string(Encode(a)), string(Encode(b)))
	assert.Equal(t, `{"__set__":["a","b","c"]}`, string(Encode(a)))
}

func TestSelfReferentialSequence(t *testing.T) {
	l := Seq(Int(1))
	l.Append(l)

	raw := Encode(l)
	assert.Equal(t, `[1,{"__circular_ref__":true}]`, string(raw))

	got := Decode(raw)
	require.Equal(t, KindSeq, got.Kind())
	require.Len(t, got.Items(), 2)
	assert.Equal(t, int64(1), got.Items()[0].Int())
	assert.Nil(t, got.Items()[1], "circular slot decodes to no value")
}

func TestSelfReferentialMapping(t *testing.T) {
	m := Map()
	m.Put("name", String("root"))
	m.Put("self", m)
	assert.Equal(t, `{"name":"root","self":{"__circular_ref__":true}}`, string(Encode(m)))
}

func TestSharedSiblingsEncodeFully(t *testing.T) {
	shared := Seq(Int(1))
	outer := Seq(shared, shared)
	assert.Equal(t, `[[1],[1]]`, string(Encode(outer)))
}

func TestDecodeMalformedTagsPassThrough(t *testing.T) {
	tests := []struct {
		name string
		in   string
		key  string
	}{
		{"set payload not a list", `{"__set__": 5}`, "__set__"},
		{"range too long", `{"__range__": [1, 2, 3, 4]}`, "__range__"},
		{"range zero step", `{"__range__": [0, 5, 0]}`, "__range__"},
		{"range non-integer", `{"__range__": [0, "5"]}`, "__range__"},
		{"unknown sentinel", `{"__argparse__": "OTHER"}`, "__argparse__"},
		{"bad base64", `{"__bytes_b64__": "!!"}`, "__bytes_b64__"},
		{"type without name", `{"__type__": true}`, "__type__"},
		{"repr without flag", `{"__repr__": "x"}`, "__repr__"},
		{"unknown tag", `{"__weird__": 1}`, "__weird__"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decode([]byte(tt.in))
			require.Equal(t, KindMap, got.Kind())
			_, ok := got.Get(tt.key)
			assert.True(t, ok)
		})
	}
}

func TestDecodeInvalidJSON(t *testing.T) {
	for _, in := range []string{"", "{", "[1, 2", "nope"} {
		assert.Nil(t, Decode([]byte(in)), "input %q", in)
	}
}

func TestDecodeRangeDefaults(t *testing.T) {
	assert.Equal(t, RangeSpec{Start: 0, Stop: 5, Step: 1}, Decode([]byte(`{"__range__":[5]}`)).Range())
	assert.Equal(t, RangeSpec{Start: 2, Stop: 5, Step: 1}, Decode([]byte(`{"__range__":[2,5]}`)).Range())
}

func TestDecodeOpaqueInsideContainer(t *testing.T) {
	got := Decode([]byte(`[1, {"__repr__": "<obj>", "__type_name__": "T", "__serializable__": false}]`))
	require.Len(t, got.Items(), 2)
	assert.Nil(t, got.Items()[1])
	assert.Nil(t, Decode([]byte(`{"__repr__": "<obj>", "__type_name__": "T", "__serializable__": false}`)))
}

func TestDecodeDepthLimit(t *testing.T) {
	d := Decoder{MaxDepth: 2}

	got := d.Decode([]byte(`[[[1]], {"a": {"b": 1}}]`))
	require.Len(t, got.Items(), 2)
	inner := got.Items()[0]
	require.Equal(t, KindSeq, inner.Kind())
	require.Len(t, inner.Items(), 1)
	assert.Nil(t, inner.Items()[0], "third level of nesting is dropped")

	m, ok := got.Items()[1].Get("a")
	assert.True(t, ok)
	assert.Nil(t, m)

	// scalars are not containers and decode at any depth
	assert.Equal(t, int64(1), d.Decode([]byte(`[1]`)).Items()[0].Int())
}

func TestDecodeDeepNestingIsBounded(t *testing.T) {
	const n = 200000
	raw := strings.Repeat("[", n) + strings.Repeat("]", n)

	start := time.Now()
	got := Decode([]byte(raw))
	elapsed := time.Since(start)

	depth := 0
	for v := got; v != nil && v.Kind() == KindSeq; v = v.Items()[0] {
		depth++
		if len(v.Items()) == 0 {
			break
		}
	}
	assert.Equal(t, DefaultMaxDepth, depth)
	assert.Less(t, elapsed, 10*time.Second)
}

func TestDecodeNumbers(t *testing.T) {
	assert.Equal(t, KindInt, Decode([]byte(`1`)).Kind())
	assert.Equal(t, KindFloat, Decode([]byte(`1.0`)).Kind())
	assert.Equal(t, KindFloat, Decode([]byte(`1e3`)).Kind())
	assert.Equal(t, KindFloat, Decode([]byte(`123456789012345678901234`)).Kind())
}

func TestDecodeEnum(t *testing.T) {
	raw := Encode(Enum("app.colors", "Color", "RED", Int(1)))

	d := Decoder{Enums: Enums{}.Register(colorClass())}
	got := d.Decode(raw)
	require.Equal(t, KindEnum, got.Kind())
	assert.Equal(t, "RED", got.Enum().Name)

	// Without the class the bare underlying value comes back.
	bare := Decode(raw)
	assert.Equal(t, KindInt, bare.Kind())
	assert.Equal(t, int64(1), bare.Int())

	// Known class, unknown member value.
	other := d.Decode(Encode(Enum("app.colors", "Color", "BLUE", Int(3))))
	assert.Equal(t, int64(3), other.Int())
}

func TestDecodePreservesKeyOrder(t *testing.T) {
	got := Decode([]byte(`{"zeta": 1, "alpha": 2, "mid": 3}`))
	var keys []string
	for _, e := range got.Entries() {
		keys = append(keys, e.Key)
	}
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, keys)
}

func TestOf(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want *Value
	}{
		{"nil", nil, Null()},
		{"bool", true, Bool(true)},
		{"int", 3, Int(3)},
		{"uint8", uint8(3), Int(3)},
		{"float", 1.5, Float(1.5)},
		{"string", "x", String("x")},
		{"remainder display form", "...", RemainderValue()},
		{"suppress display form", "==SUPPRESS==", SuppressValue()},
		{"slice", []any{1, "a"}, Seq(Int(1), String("a"))},
		{"array", [2]int{1, 2}, Seq(Int(1), Int(2))},
		{"map sorted by key", map[string]int{"b": 2, "a": 1}, Map(Entry{"a", Int(1)}, Entry{"b", Int(2)})},
		{"set", map[string]struct{}{"x": {}}, Set(String("x"))},
		{"bytes", []byte("hi"), Bytes([]byte("hi"))},
		{"range", RangeSpec{0, 3, 1}, Range(0, 3, 1)},
		{"sentinel", Suppress, SuppressValue()},
		{"type", reflect.TypeOf(time.Duration(0)), Type("time", "Duration")},
		{"builtin type", reflect.TypeOf(0), Type("builtins", "int")},
		{"enumerator", color(2), Enum("app.colors", "Color", "GREEN", Int(2))},
		{"pointer", func() *int { n := 4; return &n }(), Int(4)},
		{"value passthrough", String("v"), String("v")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Of(tt.in)
			assert.True(t, Equal(tt.want, got), "got %s, want %s", got, tt.want)
		})
	}
}

func TestOfOpaque(t *testing.T) {
	got := Of(struct{ A int }{1})
	require.Equal(t, KindOpaque, got.Kind())
	assert.Equal(t, "{A:1}", got.Opaque().Repr)
	assert.Equal(t, "struct { A int }", got.Opaque().TypeName)
}

func TestOfCycle(t *testing.T) {
	s := []any{1, nil}
	s[1] = s

	v := Of(s)
	require.Len(t, v.Items(), 2)
	assert.Same(t, v, v.Items()[1])
	assert.Equal(t, `[1,{"__circular_ref__":true}]`, string(Encode(v)))
}

func TestNative(t *testing.T) {
	assert.Nil(t, Null().Native())
	assert.Nil(t, (*Value)(nil).Native())
	assert.Equal(t, []any{1, "a"}, Seq(Int(1), String("a")).Native())
	assert.Equal(t, map[string]any{"k": 2.5}, Map(Entry{"k", Float(2.5)}).Native())
	assert.Equal(t, []any{1, 2}, Set(Int(2), Int(1)).Native())
	assert.Equal(t, RangeSpec{0, 4, 2}, Range(0, 4, 2).Native())
	assert.Equal(t, Remainder, RemainderValue().Native())
	assert.Nil(t, Opaque("x", "T").Native())
}

func TestString(t *testing.T) {
	cyclic := Seq(Int(1))
	cyclic.Append(cyclic)

	tests := []struct {
		in   *Value
		want string
	}{
		{String("a"), "a"},
		{Seq(String("a"), Int(1)), `["a", 1]`},
		{Map(Entry{"k", Bool(true)}), `{"k": True}`},
		{Set(Int(2), Int(1)), "{1, 2}"},
		{FrozenSet(Int(1)), "frozenset({1})"},
		{Range(0, 5, 1), "range(0, 5)"},
		{Range(0, 5, 2), "range(0, 5, 2)"},
		{Float(2), "2.0"},
		{Type("pathlib", "Path"), "<class 'pathlib.Path'>"},
		{Type("builtins", "int"), "<class 'int'>"},
		{Enum("m", "Color", "RED", Int(1)), "Color.RED"},
		{SuppressValue(), "==SUPPRESS=="},
		{cyclic, "[1, [...]]"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.in.String())
	}
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(Set(Int(1), Int(2)), Set(Int(2), Int(1))))
	assert.True(t, Equal(Map(Entry{"a", Int(1)}, Entry{"b", Int(2)}), Map(Entry{"b", Int(2)}, Entry{"a", Int(1)})))
	assert.False(t, Equal(Int(1), Float(1)))
	assert.False(t, Equal(Set(Int(1)), FrozenSet(Int(1))))
	assert.False(t, Equal(nil, Null()))
	assert.True(t, Equal(nil, nil))

	a := Seq(Int(1))
	a.Append(a)
	b := Seq(Int(1))
	b.Append(b)
	assert.True(t, Equal(a, b))
}

func TestSetDeduplicates(t *testing.T) {
	s := Set(Int(1), Int(1), Seq(Int(2)), Seq(Int(2)))
	assert.Equal(t, 2, s.Len())
}

func TestPutReplacesInPlace(t *testing.T) {
	m := Map(Entry{"a", Int(1)}, Entry{"b", Int(2)})
	m.Put("a", Int(3))
	require.Len(t, m.Entries(), 2)
	assert.Equal(t, "a", m.Entries()[0].Key)
	assert.Equal(t, int64(3), m.Entries()[0].Value.Int())
}

func TestRangeSpec(t *testing.T) {
	r := RangeSpec{Start: 1, Stop: 10, Step: 3}
	assert.Equal(t, int64(3), r.Len())
	assert.True(t, r.Contains(7))
	assert.False(t, r.Contains(8))
	assert.False(t, r.Contains(10))

	down := RangeSpec{Start: 5, Stop: 0, Step: -2}
	assert.Equal(t, int64(3), down.Len())
	assert.True(t, down.Contains(1))
	assert.False(t, down.Contains(0))
}

func TestStringDisplayFormsAreSentinels(t *testing.T) {
	assert.True(t, String("...").Is(Remainder))
	assert.True(t, String("==SUPPRESS==").Is(Suppress))
	assert.Equal(t, KindString, String("....").Kind())
	assert.Equal(t, `{"__argparse__":"REMAINDER"}`, string(Encode(String("..."))))
}
