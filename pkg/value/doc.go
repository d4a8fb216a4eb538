// Package value implements the datum type carried by grammar documents and
// its JSON encoding.
//
// # Overview
//
// Argument definitions hold arbitrary data: defaults, consts, nargs,
// choices, metavars. A [Value] is a tagged variant that covers every datum
// those fields can hold, including data plain JSON has no shape for (sets,
// byte strings, ranges, enumeration members, type references, and the two
// marker sentinels).
//
// # Encoded Form
//
// Primitives, sequences, and mappings encode as the matching JSON node.
// Everything else encodes as a tagged object:
//
//	{"__argparse__": "SUPPRESS"}                 sentinel
//	{"__set__": [1, 2, 3]}                        set, elements sorted
//	{"__frozenset__": ["a", "b"]}                 frozenset, elements sorted
//	{"__bytes__": "text"}                         UTF-8 bytes
//	{"__bytes_b64__": "/wA="}                     other bytes
//	{"__range__": [0, 10, 2]}                     range
//	{"__enum__": true, "class": "Color", "module": "app", "value": 1, "name": "RED"}
//	{"__type__": true, "name": "Path", "module": "pathlib"}
//	{"__repr__": "...", "__type_name__": "T", "__serializable__": false}
//	{"__circular_ref__": true}                    back-reference to an ancestor
//
// Floats always carry a fraction or exponent ("1.0", not "1") so the
// Int/Float distinction survives a round trip. NaN and infinities encode as
// opaque markers.
//
// # Round Trips
//
// [Encode] never fails and [Decode] never fails. For every Value without
// opaque parts or cycles, Decode(Encode(v)) is [Equal] to v. Opaque markers
// and circular back-references decode to nil ("no value"), which is
// distinct from [Null].
//
// Decoding is tolerant: an object with an unknown or malformed tag is a
// plain mapping, and mapping key order is preserved.
//
// # Go Values
//
// [Of] converts plain Go data (including cyclic structures) into a Value,
// and [Value.Native] converts back.
package value
