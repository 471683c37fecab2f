// Package dtype converts raw HDF5 element bytes from their file datatype to
// a caller's memory datatype.
//
// Numeric classes convert between any integer and floating-point sizes
// with the file byte order honored. String classes copy into fixed-size
// memory slots, resolving variable-length strings through a
// [VarLenResolver]. References are copied unchanged. Everything else is
// rejected with [ErrNoConversion].
package dtype
