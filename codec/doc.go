// Package codec converts typed handles to and from an address plus a small
// descriptor, so containers can store values whose size is only known at
// runtime.
//
// A handle is decomposed into a [Ptr]: the payload address, its byte size,
// a [Kind] tag and a [Descriptor] of at most [MaxWords] machine words.
// Containers copy the descriptor and payload into a word buffer and later
// hand the stored address and descriptor back to a [Codec] to rebuild the
// handle.
//
// # Codecs
//
//   - [String]: string payloads, descriptor holds the byte length
//   - [Slice]: []E payloads, descriptor holds the element count
//   - [Dyn]: any pointer-free U whose *U implements an interface T,
//     descriptor holds a vtable index
//
// # Layout rules
//
// Payload types must not contain Go pointers and must not need more
// alignment than the buffer word. [CheckLayout] enforces both; violations
// panic with a precondition error. [Bind] additionally verifies that a type
// matches the Canonical ABI layout of a WIT type.
//
// # Fatal errors
//
// Address self-consistency failures, oversized descriptors and codec/pointer
// mismatches panic with an *errors.Error of kind precondition. They indicate
// a broken caller and are never recovered internally.
package codec
