// Package linear provides a word buffer over a WebAssembly linear memory.
//
// The memory is defined by a generated single-memory module instantiated in
// a wazero runtime. Payloads whose layout was checked with codec.Bind can be
// read in place by guest modules that import the memory.
package linear
