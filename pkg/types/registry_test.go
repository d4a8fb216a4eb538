package types

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/argdump/pkg/errors"
)

func parseLevel(s string) (int, error) {
	switch strings.ToLower(s) {
	case "low":
		return 1, nil
	case "high":
		return 3, nil
	}
	return 0, fmt.Errorf("unknown level %q", s)
}

func TestResolveBuiltin(t *testing.T) {
	c, err := Resolve(&Ref{Name: "int", Builtin: true, Serializable: true}, nil, true)
	require.NoError(t, err)
	assert.Same(t, Int, c)

	got, err := c.Convert("42")
	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestResolveNil(t *testing.T) {
	c, err := Resolve(nil, nil, true)
	assert.NoError(t, err)
	assert.Nil(t, c)
}

func TestResolveNotSerializable(t *testing.T) {
	ref := &Ref{Name: "<lambda>", Module: "__main__", Serializable: false}

	_, err := Resolve(ref, nil, true)
	require.Error(t, err)
	assert.True(t, IsUnresolvable(err))
	assert.Contains(t, err.Error(), "<lambda>")

	c, err := Resolve(ref, nil, false)
	assert.NoError(t, err)
	assert.Nil(t, c)
}

func TestResolveNotSerializableBuiltin(t *testing.T) {
	// The serializable check runs before the primitive table.
	_, err := Resolve(&Ref{Name: "int", Builtin: true, Serializable: false}, nil, true)
	assert.True(t, IsUnresolvable(err))
}

func TestResolveMissingModule(t *testing.T) {
	ref := &Ref{Name: "parse", Module: "does.not.exist", Serializable: true}

	_, err := Resolve(ref, nil, true)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeUnresolvableType, errors.GetCode(err))
	assert.Contains(t, err.Error(), "does.not.exist")

	c, err := Resolve(ref, nil, false)
	assert.NoError(t, err)
	assert.Nil(t, c)
}

func TestResolveLenientFallsBackToBuiltins(t *testing.T) {
	// The import fails, then the ambient namespace supplies "float".
	ref := &Ref{Name: "float", Module: "gone", Serializable: true}
	c, err := Resolve(ref, nil, false)
	require.NoError(t, err)
	assert.Same(t, Float, c)

	_, err = Resolve(ref, nil, true)
	assert.True(t, IsUnresolvable(err))
}

func TestResolveAmbientWithoutBuiltinFlag(t *testing.T) {
	c, err := Resolve(&Ref{Name: "str", Serializable: true}, nil, true)
	require.NoError(t, err)
	assert.Same(t, Str, c)
}

func TestResolveRegistered(t *testing.T) {
	reg := NewRegistry()
	reg.Register("app.convert", "level", parseLevel)

	ref := &Ref{Name: "level", Module: "app.convert", Serializable: true}
	c, err := reg.Resolve(ref, nil, true)
	require.NoError(t, err)

	got, err := c.Convert("HIGH")
	require.NoError(t, err)
	assert.Equal(t, 3, got)

	_, err = c.Convert("mid")
	assert.Error(t, err)

	back, fp := RefOf(c)
	assert.Nil(t, fp)
	assert.Equal(t, ref, back)
}

func TestResolveNotCallable(t *testing.T) {
	reg := NewRegistry()
	reg.Register("app.convert", "VERSION", "1.2.3")

	_, err := reg.Resolve(&Ref{Name: "VERSION", Module: "app.convert", Serializable: true}, nil, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not callable")
}

func TestResolveMissingAttribute(t *testing.T) {
	reg := NewRegistry().RegisterNamespace("app.convert", map[string]any{"level": parseLevel})

	_, err := reg.Resolve(&Ref{Name: "size", Module: "app.convert", Serializable: true}, nil, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "size")
}

func TestResolveCustomImporter(t *testing.T) {
	reg := NewRegistry()
	reg.Importer = ImporterFunc(func(module, name string) (any, error) {
		if module == "plugins" {
			return Func(func(s string) (any, error) { return "plugin:" + s, nil }), nil
		}
		return nil, fmt.Errorf("unknown module %s", module)
	})

	c, err := reg.Resolve(&Ref{Name: "echo", Module: "plugins", Serializable: true}, nil, true)
	require.NoError(t, err)
	got, _ := c.Convert("x")
	assert.Equal(t, "plugin:x", got)
}

func TestResolveLenientLogsAtDebug(t *testing.T) {
	var buf bytes.Buffer
	reg := NewRegistry()
	reg.Logger = log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})

	c, err := reg.Resolve(&Ref{Name: "nope", Serializable: true}, nil, false)
	assert.NoError(t, err)
	assert.Nil(t, c)
	assert.Contains(t, buf.String(), "could not resolve type")
}

func TestResolveFileType(t *testing.T) {
	// The file converter resolves even when marked non-serializable.
	ref := &Ref{Name: FileTypeName, Module: FileTypeModule, Serializable: false}

	c, err := Resolve(ref, &FileParams{Mode: "w", BufSize: 1, Encoding: "utf-8"}, true)
	require.NoError(t, err)
	fc, ok := c.(*FileConverter)
	require.True(t, ok)
	assert.Equal(t, FileParams{Mode: "w", BufSize: 1, Encoding: "utf-8"}, fc.Params)

	c, err = Resolve(ref, nil, true)
	require.NoError(t, err)
	assert.Equal(t, DefaultFileParams(), c.(*FileConverter).Params)
}

func TestFileConverter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")

	w := NewFileConverter(&FileParams{Mode: "w"})
	got, err := w.Convert(path)
	require.NoError(t, err)
	f := got.(*os.File)
	_, err = f.WriteString("hello")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	r := NewFileConverter(nil)
	got, err = r.Convert(path)
	require.NoError(t, err)
	rf := got.(*os.File)
	defer rf.Close()
	buf := make([]byte, 5)
	_, err = rf.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf))

	_, err = r.Convert(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}

func TestFileConverterDash(t *testing.T) {
	in := strings.NewReader("data")
	var out bytes.Buffer

	r := NewFileConverter(nil)
	r.Stdin = in
	got, err := r.Convert("-")
	require.NoError(t, err)
	assert.Same(t, in, got)

	w := NewFileConverter(&FileParams{Mode: "a"})
	w.Stdout = &out
	got, err = w.Convert("-")
	require.NoError(t, err)
	assert.Same(t, &out, got)
}

func TestBuiltinConverters(t *testing.T) {
	tests := []struct {
		conv Converter
		in   string
		want any
	}{
		{Bool, "", false},
		{Bool, "false", true},
		{Int, " 12 ", 12},
		{Int, "1_000", 1000},
		{Float, "2.5", 2.5},
		{Str, "x", "x"},
		{Complex, "1+2j", complex(1, 2)},
		{ByteStr, "ab", []byte("ab")},
		{ByteArray, "ab", []byte("ab")},
		{ASCII, "é", `"\u00e9"`},
	}
	for _, tt := range tests {
		got, err := tt.conv.Convert(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := Int.Convert("x")
	assert.EqualError(t, err, `invalid int value: "x"`)
}

func TestRefOf(t *testing.T) {
	ref, fp := RefOf(Int)
	assert.Equal(t, &Ref{Name: "int", Builtin: true, Serializable: true}, ref)
	assert.Nil(t, fp)

	ref, fp = RefOf(NewFileConverter(&FileParams{Mode: "rb", BufSize: -1}))
	assert.True(t, ref.IsFileType())
	assert.Equal(t, "rb", fp.Mode)

	ref, _ = RefOf(Named("app", "size", func(s string) (any, error) { return len(s), nil }))
	assert.Equal(t, "app.size", ref.QualifiedName())
	assert.True(t, ref.Serializable)

	closure := Func(func(s string) (any, error) { return s, nil })
	ref, _ = RefOf(closure)
	assert.Equal(t, "<lambda>", ref.Name)
	assert.False(t, ref.Serializable)

	ref, _ = RefOf(Func(convertUpper))
	assert.Equal(t, "convertUpper", ref.Name)
	assert.Equal(t, "github.com/matzehuels/argdump/pkg/types", ref.Module)
	assert.True(t, ref.Serializable)

	ref, fp = RefOf(nil)
	assert.Nil(t, ref)
	assert.Nil(t, fp)
}

func convertUpper(s string) (any, error) { return strings.ToUpper(s), nil }

func TestAsConverter(t *testing.T) {
	_, ok := AsConverter(42)
	assert.False(t, ok)
	_, ok = AsConverter(func(a, b string) string { return a + b })
	assert.False(t, ok)

	c, ok := AsConverter(strings.ToUpper)
	require.True(t, ok)
	got, err := c.Convert("abc")
	require.NoError(t, err)
	assert.Equal(t, "ABC", got)
}
