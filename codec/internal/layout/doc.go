// Package layout computes Canonical ABI layouts for WIT types.
//
// The codec uses these to verify that a Go payload type stored in a
// buffer has exactly the memory representation a WebAssembly guest
// expects when it reads the same bytes from linear memory.
//
// # Layout Rules
//
//   - Primitives: size equals alignment (u8=1, u32=4, u64=8, etc.)
//   - Records and tuples: members laid out in order with padding
//   - Variants, options, results: discriminant followed by the largest payload
//   - Lists/Strings: (pointer, length) pair of u32
package layout
