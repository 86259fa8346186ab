// Package value is the runtime value representation shared with the backend.
//
// A TaggedValue pairs a Tag with one 64-bit payload word. Fields are
// unexported and every constructor sets both together, so a partially
// initialized value cannot be observed. Strings are not inlined: the payload
// holds a StrRef into a StrPool of length-prefixed immutable byte sequences.
//
// Binary and Unary implement the operation rules the generic dispatch path
// must follow; they agree with the static result rules in internal/types.
package value
