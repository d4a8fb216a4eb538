package types

import (
	"reflect"

	"github.com/charmbracelet/log"
	crdb "github.com/cockroachdb/errors"

	"github.com/matzehuels/argdump/internal/logging"
	"github.com/matzehuels/argdump/pkg/errors"
	"github.com/matzehuels/argdump/pkg/observability"
)

// Importer loads the attribute name from the namespace module.
type Importer interface {
	Import(module, name string) (any, error)
}

// ImporterFunc adapts a function to [Importer].
type ImporterFunc func(module, name string) (any, error)

// Import implements [Importer].
func (f ImporterFunc) Import(module, name string) (any, error) { return f(module, name) }

// Registry maps type references back to converters.
//
// Namespaces are plain data: [Registry.Register] and
// [Registry.RegisterNamespace] add attributes, and the default importer
// looks them up. A Registry is not locked; register everything before the
// first call to [Registry.Resolve], which only reads.
type Registry struct {
	// Importer overrides the namespace lookup for references with a module.
	// Nil uses the registered namespaces.
	Importer Importer

	// Logger receives debug records for lenient resolution failures.
	Logger *log.Logger

	namespaces map[string]map[string]any
}

// NewRegistry returns a registry whose ambient namespace holds the
// primitive converters.
func NewRegistry() *Registry {
	r := &Registry{
		Logger:     logging.Discard(),
		namespaces: make(map[string]map[string]any),
	}
	attrs := make(map[string]any, len(builtinTable))
	for name, c := range builtinTable {
		attrs[name] = c
	}
	r.RegisterNamespace(BuiltinModule, attrs)
	return r
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry used by [Resolve] and
// [Register].
func Default() *Registry { return defaultRegistry }

// Register adds an attribute to the default registry.
func Register(module, name string, attr any) { defaultRegistry.Register(module, name, attr) }

// Resolve resolves ref with the default registry.
func Resolve(ref *Ref, fp *FileParams, strict bool) (Converter, error) {
	return defaultRegistry.Resolve(ref, fp, strict)
}

// Register stores attr under module.name. attr is normally a [Converter]
// or a function taking one string; other values are stored too and make
// resolution fail as not callable.
func (r *Registry) Register(module, name string, attr any) *Registry {
	ns, ok := r.namespaces[module]
	if !ok {
		ns = make(map[string]any)
		r.namespaces[module] = ns
	}
	ns[name] = attr
	return r
}

// RegisterNamespace adds every attribute of attrs to module.
func (r *Registry) RegisterNamespace(module string, attrs map[string]any) *Registry {
	for name, attr := range attrs {
		r.Register(module, name, attr)
	}
	return r
}

// Import implements [Importer] over the registered namespaces.
func (r *Registry) Import(module, name string) (any, error) {
	ns, ok := r.namespaces[module]
	if !ok {
		return nil, crdb.Newf("no module named %q", module)
	}
	attr, ok := ns[name]
	if !ok {
		return nil, crdb.Newf("module %q has no attribute %q", module, name)
	}
	return attr, nil
}

// Resolve turns ref into a converter. The first matching step wins:
//
//  1. the file-opening converter, built from fp (or defaults), even when
//     ref is marked non-serializable
//  2. a non-serializable ref fails
//  3. a builtin ref naming a primitive converter
//  4. the attribute loaded through the importer from ref.Module
//  5. the attribute of the same name in the ambient namespace
//
// In strict mode every failure returns an error with code
// [errors.ErrCodeUnresolvableType]. Otherwise failures return a nil
// converter and a nil error. A nil ref resolves to nil.
func (r *Registry) Resolve(ref *Ref, fp *FileParams, strict bool) (c Converter, err error) {
	if ref == nil {
		return nil, nil
	}
	defer func() {
		observability.Codec().OnResolve(ref.QualifiedName(), c != nil, err)
	}()

	if ref.IsFileType() {
		return NewFileConverter(fp), nil
	}
	if !ref.Serializable {
		return r.fail(strict, errors.New(errors.ErrCodeUnresolvableType,
			"type %q was marked as non-serializable", ref.Name))
	}
	if ref.Builtin {
		if c, ok := builtinTable[ref.Name]; ok {
			return c, nil
		}
	}
	if ref.Module != "" {
		c, err := r.load(ref.Module, ref.Name)
		if err != nil {
			if strict {
				return nil, err
			}
			r.logger().Debug("import failed", "type", ref.QualifiedName(), "err", err)
		} else {
			return c, nil
		}
	}
	if attr, err := r.Import(BuiltinModule, ref.Name); err == nil {
		if c, ok := AsConverter(attr); ok {
			return c, nil
		}
	}
	return r.fail(strict, errors.New(errors.ErrCodeUnresolvableType,
		"could not resolve type %q", ref.Name))
}

func (r *Registry) load(module, name string) (Converter, error) {
	imp := r.Importer
	if imp == nil {
		imp = r
	}
	attr, err := imp.Import(module, name)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUnresolvableType, err,
			"could not import %q", module+"."+name)
	}
	c, ok := AsConverter(attr)
	if !ok {
		return nil, errors.New(errors.ErrCodeUnresolvableType,
			"%q is not callable", module+"."+name)
	}
	if _, ok := c.(Referencer); !ok {
		// Keep the origin so the converter encodes back to the same ref.
		c = &named{ref: Ref{Name: name, Module: module, Serializable: true}, fn: c.Convert}
	}
	return c, nil
}

func (r *Registry) fail(strict bool, err error) (Converter, error) {
	if strict {
		return nil, err
	}
	r.logger().Debug("type dropped", "err", err)
	return nil, nil
}

func (r *Registry) logger() *log.Logger {
	if r.Logger == nil {
		return logging.Discard()
	}
	return r.Logger
}

// IsUnresolvable reports whether err is a type resolution failure.
func IsUnresolvable(err error) bool {
	return errors.Is(err, errors.ErrCodeUnresolvableType)
}

var (
	stringType = reflect.TypeOf("")
	errorType  = reflect.TypeOf((*error)(nil)).Elem()
)

// AsConverter adapts attr to a [Converter]. It accepts converters,
// func(string) (any, error), and any function taking a single string
// parameter and returning one value, optionally followed by an error.
func AsConverter(attr any) (Converter, bool) {
	switch a := attr.(type) {
	case nil:
		return nil, false
	case Converter:
		return a, true
	case func(string) (any, error):
		return Func(a), true
	}

	fn := reflect.ValueOf(attr)
	t := fn.Type()
	if t.Kind() != reflect.Func || t.NumIn() != 1 || t.In(0) != stringType || t.IsVariadic() {
		return nil, false
	}
	switch {
	case t.NumOut() == 1 && t.Out(0) != errorType:
		return Func(func(s string) (any, error) {
			return fn.Call([]reflect.Value{reflect.ValueOf(s)})[0].Interface(), nil
		}), true
	case t.NumOut() == 2 && t.Out(1) == errorType:
		return Func(func(s string) (any, error) {
			out := fn.Call([]reflect.Value{reflect.ValueOf(s)})
			if err, _ := out[1].Interface().(error); err != nil {
				return nil, err
			}
			return out[0].Interface(), nil
		}), true
	}
	return nil, false
}
