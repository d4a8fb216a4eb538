// Package types maps serialized type references back to converters.
//
// A grammar argument may carry a converter that turns the raw command-line
// string into a typed value. Documents store only a [Ref] (name, module,
// builtin flag, serializable flag) plus [FileParams] for the file-opening
// converter. A [Registry] resolves references back into converters.
//
// # Resolution
//
// [Registry.Resolve] tries, in order: the file-opening converter, the
// serializable check, the primitive table (bool, int, float, str, complex,
// bytes, bytearray, ascii), the attribute named by the reference's module,
// and the ambient "builtins" namespace. Strict resolution fails with
// UNRESOLVABLE_TYPE; lenient resolution returns a nil converter and logs at
// debug level.
//
// Modules are plain data. Register the converters an application uses
// once at startup:
//
//	reg := types.NewRegistry()
//	reg.Register("myapp.convert", "level", parseLevel)
//
//	c, err := reg.Resolve(&types.Ref{Name: "level", Module: "myapp.convert", Serializable: true}, nil, true)
//
// [RefOf] goes the other way and describes a live converter.
package types
