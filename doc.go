// Package dst provides containers for values whose size and concrete type are
// not known statically.
//
// Every stored value lives in a contiguous word buffer next to a small
// descriptor. The descriptor, the payload address and the capability type the
// container was created for are enough to rebuild a typed handle later.
//
// # Architecture Overview
//
//	dst/                 Word constraint, Buffer interface, logger
//	├── buffer/          Array, Vector, Ref and Mapped word buffers
//	│   └── linear/      Buffer over WebAssembly linear memory (wazero)
//	├── codec/           Descriptor codec: strings, slices, capability values
//	├── stack/           LIFO container
//	├── queue/           FIFO container with compaction
//	├── value/           Single-value container
//	├── errors/          Structured error types
//	└── cmd/dstview/     Layout inspector (CLI and TUI)
//
// # Quick Start
//
//	s := stack.New(codec.String())
//	_ = s.Push(codec.Str("Hello"))
//	_ = s.Push(codec.Str("World"))
//	top, _ := s.Top() // "World"
//	s.Pop()
//
// Capability values are stored behind an interface type:
//
//	d := codec.NewDyn[fmt.Stringer]()
//	q := queue.New(d)
//	v := celsius(21)
//	_ = q.PushBack(codec.Box(d, &v))
//	front, _ := q.Front()
//	fmt.Println(front.String())
//
// # Handles
//
// Handles returned by Top, Front, Get and the iterators point into the
// container's buffer. They are valid until the next mutating call (push, pop,
// compaction or growth).
//
// # Destruction
//
// Go has no destructors. A stored type that implements codec.Dropper has its
// Drop method called exactly once when the element is popped, rejected by
// Retain, rolled back by a failed batch, or cleared by Clear/Close.
//
// # Thread Safety
//
// Containers are not safe for concurrent use.
package dst
