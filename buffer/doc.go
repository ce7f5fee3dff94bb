// Package buffer provides word buffers for the dst containers.
//
// All buffers implement dst.Buffer:
//
//	Array    fixed capacity, owned or laid over caller storage (Over)
//	Vector   growable, amortized doubling, optional word limit
//	Ref      borrowed reference to another buffer, forwards growth
//	Mapped   off-heap anonymous mapping, grows by remapping (unix only)
//
// Buffers hold only pointer-free words, so their contents are never scanned
// by the garbage collector. Off-heap buffers must be closed.
//
// Views returned by Words alias the buffer memory and are invalidated by a
// successful Grow.
package buffer
