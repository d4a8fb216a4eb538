package types

import (
	"fmt"
	"strconv"
	"strings"
)

// BuiltinModule is the ambient namespace searched when a reference carries
// no usable origin.
const BuiltinModule = "builtins"

// builtin is a primitive converter. Its reference has Builtin set.
type builtin struct {
	name string
	fn   func(string) (any, error)
}

func (b *builtin) Convert(s string) (any, error) { return b.fn(s) }

func (b *builtin) TypeRef() Ref {
	return Ref{Name: b.name, Builtin: true, Serializable: true}
}

// Primitive converters. They are compared by identity in tests and walkers.
var (
	Bool      Converter = &builtin{"bool", convertBool}
	Int       Converter = &builtin{"int", convertInt}
	Float     Converter = &builtin{"float", convertFloat}
	Str       Converter = &builtin{"str", convertStr}
	Complex   Converter = &builtin{"complex", convertComplex}
	ByteStr   Converter = &builtin{"bytes", convertBytes}
	ByteArray Converter = &builtin{"bytearray", convertBytes}
	ASCII     Converter = &builtin{"ascii", convertASCII}
)

var builtinTable = map[string]Converter{
	"bool":      Bool,
	"int":       Int,
	"float":     Float,
	"str":       Str,
	"complex":   Complex,
	"bytes":     ByteStr,
	"bytearray": ByteArray,
	"ascii":     ASCII,
}

// Builtin returns the primitive converter with the given name.
func Builtin(name string) (Converter, bool) {
	c, ok := builtinTable[name]
	return c, ok
}

// convertBool is true for any non-empty string, including "false".
func convertBool(s string) (any, error) {
	return s != "", nil
}

func convertInt(s string) (any, error) {
	t := strings.TrimSpace(s)
	if strings.Contains(t, "_") && !strings.HasPrefix(t, "_") && !strings.HasSuffix(t, "_") && !strings.Contains(t, "__") {
		t = strings.ReplaceAll(t, "_", "")
	}
	n, err := strconv.ParseInt(t, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid int value: %q", s)
	}
	return int(n), nil
}

func convertFloat(s string) (any, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid float value: %q", s)
	}
	return f, nil
}

func convertStr(s string) (any, error) { return s, nil }

// convertComplex accepts the "j" imaginary suffix as well as Go's "i".
func convertComplex(s string) (any, error) {
	t := strings.TrimSpace(s)
	t = strings.TrimSuffix(strings.TrimPrefix(t, "("), ")")
	t = strings.NewReplacer("j", "i", "J", "i").Replace(t)
	c, err := strconv.ParseComplex(t, 128)
	if err != nil {
		return nil, fmt.Errorf("invalid complex value: %q", s)
	}
	return c, nil
}

func convertBytes(s string) (any, error) { return []byte(s), nil }

// convertASCII returns a quoted form of s with non-ASCII runes escaped.
func convertASCII(s string) (any, error) { return strconv.QuoteToASCII(s), nil }
