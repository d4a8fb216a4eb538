package types

import (
	"reflect"
	"runtime"
	"strings"
)

// Ref identifies a type converter by name and origin.
type Ref struct {
	Name         string `json:"name" yaml:"name"`
	Module       string `json:"module,omitempty" yaml:"module,omitempty"`
	Builtin      bool   `json:"builtin" yaml:"builtin"`
	Serializable bool   `json:"serializable" yaml:"serializable"`
}

// QualifiedName returns "module.name", or just the name without a module.
func (r Ref) QualifiedName() string {
	if r.Module == "" {
		return r.Name
	}
	return r.Module + "." + r.Name
}

// FileParams holds the parameters of a file-opening converter.
type FileParams struct {
	Mode     string `json:"mode" yaml:"mode"`
	BufSize  int    `json:"bufsize" yaml:"bufsize"`
	Encoding string `json:"encoding,omitempty" yaml:"encoding,omitempty"`
	Errors   string `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// DefaultFileParams returns read mode with the default buffer size.
func DefaultFileParams() FileParams {
	return FileParams{Mode: "r", BufSize: -1}
}

// Names of the file-opening converter reference.
const (
	FileTypeName   = "FileType"
	FileTypeModule = "argparse"
)

// FileTypeRef returns the reference naming the file-opening converter.
func FileTypeRef() Ref {
	return Ref{Name: FileTypeName, Module: FileTypeModule, Serializable: true}
}

// IsFileType reports whether r names the file-opening converter.
func (r Ref) IsFileType() bool {
	return r.Name == FileTypeName && r.Module == FileTypeModule
}

// Converter turns one command-line string into a typed value.
type Converter interface {
	Convert(s string) (any, error)
}

// Func adapts a plain function to [Converter].
type Func func(s string) (any, error)

// Convert implements [Converter].
func (f Func) Convert(s string) (any, error) { return f(s) }

// Referencer is implemented by converters that know their own reference.
type Referencer interface {
	TypeRef() Ref
}

// named is a converter that carries its reference.
type named struct {
	ref Ref
	fn  Func
}

func (n *named) Convert(s string) (any, error) { return n.fn(s) }
func (n *named) TypeRef() Ref                  { return n.ref }

// Named wraps fn so that [RefOf] reports module and name for it.
func Named(module, name string, fn Func) Converter {
	return &named{ref: Ref{Name: name, Module: module, Serializable: true}, fn: fn}
}

// RefOf returns the reference describing c, plus file parameters when c
// is a [FileConverter]. Converters without a self-description are named
// after their Go function: top-level functions are serializable, closures
// and method values are not.
func RefOf(c Converter) (*Ref, *FileParams) {
	switch c := c.(type) {
	case nil:
		return nil, nil
	case *FileConverter:
		ref := FileTypeRef()
		fp := c.Params
		return &ref, &fp
	case Referencer:
		ref := c.TypeRef()
		return &ref, nil
	case Func:
		ref := funcRef(c)
		return &ref, nil
	}
	t := reflect.TypeOf(c)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return &Ref{Name: t.Name(), Module: t.PkgPath(), Serializable: t.Name() != "" && t.PkgPath() != ""}, nil
}

// funcRef derives a reference from a function's symbol name, for example
// "example.com/app/conv.parseLevel" or "example.com/app.main.func1".
func funcRef(fn Func) Ref {
	pc := reflect.ValueOf(fn).Pointer()
	f := runtime.FuncForPC(pc)
	if f == nil {
		return Ref{Name: "<unknown>"}
	}
	full := f.Name()
	slash := strings.LastIndex(full, "/")
	dot := strings.Index(full[slash+1:], ".")
	if dot < 0 {
		return Ref{Name: full}
	}
	module := full[:slash+1+dot]
	name := full[slash+1+dot+1:]
	if strings.ContainsAny(name, ".()-") {
		return Ref{Name: "<lambda>", Module: module}
	}
	return Ref{Name: name, Module: module, Serializable: true}
}
