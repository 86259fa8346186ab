// Package types holds the InferredType lattice used by classification.
//
// Analysis works on reaching-type sets (Set): a bitset over the concrete
// primitive types plus an Unbounded bit. Sets only grow. The InferredType of
// a symbol or expression is derived from its set: the empty set is Unknown,
// a single bit is that concrete type, anything wider is Dynamic. This keeps
// the lattice Unknown < concrete < Dynamic monotone by construction.
package types
