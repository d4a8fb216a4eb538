package value

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// String returns the display form of v. It is used to order set elements
// and in log output. Strings display unquoted at the top level and quoted
// inside containers. Cycles display as "[...]" or "{...}".
func (v *Value) String() string {
	var b strings.Builder
	writeDisplay(&b, v, false, map[*Value]bool{})
	return b.String()
}

func writeDisplay(b *strings.Builder, v *Value, nested bool, active map[*Value]bool) {
	if v == nil {
		b.WriteString("None")
		return
	}
	if v.kind.IsComposite() {
		if active[v] {
			if v.kind == KindSeq {
				b.WriteString("[...]")
			} else {
				b.WriteString("{...}")
			}
			return
		}
		active[v] = true
		defer delete(active, v)
	}

	switch v.kind {
	case KindNull:
		b.WriteString("None")
	case KindBool:
		if v.b {
			b.WriteString("True")
		} else {
			b.WriteString("False")
		}
	case KindInt:
		b.WriteString(strconv.FormatInt(v.i, 10))
	case KindFloat:
		b.WriteString(formatFloat(v.f))
	case KindString:
		if nested {
			b.WriteString(strconv.Quote(v.s))
		} else {
			b.WriteString(v.s)
		}
	case KindSeq:
		b.WriteByte('[')
		for i, it := range v.items {
			if i > 0 {
				b.WriteString(", ")
			}
			writeDisplay(b, it, true, active)
		}
		b.WriteByte(']')
	case KindMap:
		b.WriteByte('{')
		for i, e := range v.entries {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(strconv.Quote(e.Key))
			b.WriteString(": ")
			writeDisplay(b, e.Value, true, active)
		}
		b.WriteByte('}')
	case KindSet, KindFrozenSet:
		if v.kind == KindFrozenSet {
			b.WriteString("frozenset(")
		}
		b.WriteByte('{')
		for i, s := range sortedDisplays(v.items, active) {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(s)
		}
		b.WriteByte('}')
		if v.kind == KindFrozenSet {
			b.WriteByte(')')
		}
	case KindBytes:
		b.WriteByte('b')
		b.WriteString(strconv.Quote(string(v.raw)))
	case KindRange:
		b.WriteString("range(")
		b.WriteString(strconv.FormatInt(v.rng.Start, 10))
		b.WriteString(", ")
		b.WriteString(strconv.FormatInt(v.rng.Stop, 10))
		if v.rng.Step != 1 {
			b.WriteString(", ")
			b.WriteString(strconv.FormatInt(v.rng.Step, 10))
		}
		b.WriteByte(')')
	case KindEnum:
		b.WriteString(v.enum.Class)
		b.WriteByte('.')
		b.WriteString(v.enum.Name)
	case KindType:
		b.WriteString("<class '")
		if v.class.Module != "" && v.class.Module != builtinModule {
			b.WriteString(v.class.Module)
			b.WriteByte('.')
		}
		b.WriteString(v.class.Name)
		b.WriteString("'>")
	case KindOpaque:
		b.WriteString(v.opaque.Repr)
	case KindSentinel:
		b.WriteString(v.sentinel.String())
	}
}

// sortedDisplays returns the nested display strings of items in ascending
// order.
func sortedDisplays(items []*Value, active map[*Value]bool) []string {
	out := make([]string, len(items))
	for i, it := range items {
		var b strings.Builder
		writeDisplay(&b, it, true, active)
		out[i] = b.String()
	}
	sort.Strings(out)
	return out
}

// formatFloat renders f so that it always reads back as a float: integral
// values keep a trailing ".0".
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// Equal reports whether a and b hold the same data. Sets and frozensets
// compare without regard to order, mappings compare without regard to key
// order. Int and Float never compare equal to each other. A pair of values
// already under comparison further up is assumed equal, so cyclic graphs
// with matching shapes compare equal.
func Equal(a, b *Value) bool {
	return equal(a, b, map[[2]*Value]bool{})
}

func equal(a, b *Value, seen map[[2]*Value]bool) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.kind != b.kind {
		return false
	}
	if a.kind.IsComposite() {
		pair := [2]*Value{a, b}
		if seen[pair] {
			return true
		}
		seen[pair] = true
		defer delete(seen, pair)
	}

	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindInt:
		return a.i == b.i
	case KindFloat:
		return a.f == b.f || (math.IsNaN(a.f) && math.IsNaN(b.f))
	case KindString:
		return a.s == b.s
	case KindBytes:
		return string(a.raw) == string(b.raw)
	case KindRange:
		return a.rng == b.rng
	case KindType:
		return a.class == b.class
	case KindOpaque:
		return a.opaque == b.opaque
	case KindSentinel:
		return a.sentinel == b.sentinel
	case KindEnum:
		return a.enum.Module == b.enum.Module && a.enum.Class == b.enum.Class &&
			a.enum.Name == b.enum.Name && equal(a.enum.Value, b.enum.Value, seen)
	case KindSeq:
		if len(a.items) != len(b.items) {
			return false
		}
		for i := range a.items {
			if !equal(a.items[i], b.items[i], seen) {
				return false
			}
		}
		return true
	case KindMap:
		if len(a.entries) != len(b.entries) {
			return false
		}
		for _, e := range a.entries {
			other, ok := b.Get(e.Key)
			if !ok || !equal(e.Value, other, seen) {
				return false
			}
		}
		return true
	case KindSet, KindFrozenSet:
		if len(a.items) != len(b.items) {
			return false
		}
	outer:
		for _, x := range a.items {
			for _, y := range b.items {
				if equal(x, y, seen) {
					continue outer
				}
			}
			return false
		}
		return true
	}
	return false
}
