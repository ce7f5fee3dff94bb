package codec

import (
	"reflect"
	"unsafe"

	"github.com/wippyai/dst/errors"
)

// SliceCodec rebuilds []E handles from an element count.
type SliceCodec[E any] struct {
	elem     reflect.Type
	size     int
	dropping bool
}

// Slice returns the codec for []E payloads.
func Slice[E any]() *SliceCodec[E] {
	elem := reflect.TypeFor[E]()
	return &SliceCodec[E]{
		elem:     elem,
		size:     int(elem.Size()),
		dropping: reflect.PointerTo(elem).Implements(dropperType),
	}
}

// Elems decomposes s into a slice Ptr.
func Elems[E any](s []E) Ptr {
	var zero E
	size := len(s) * int(unsafe.Sizeof(zero))
	addr := ZeroAddr()
	if size > 0 {
		addr = unsafe.Pointer(unsafe.SliceData(s))
		checkAddr(errors.PhaseDecompose, unsafe.Pointer(&s[0]), addr)
	}
	return Ptr{
		Addr: addr,
		Type: reflect.TypeFor[E](),
		Kind: KindSlice,
		Desc: MakeDescriptor(uintptr(len(s))),
		Size: size,
	}
}

// Count returns the descriptor for a run of n elements.
func (c *SliceCodec[E]) Count(n int) Descriptor {
	return MakeDescriptor(uintptr(n))
}

// Elem returns the element type.
func (c *SliceCodec[E]) Elem() reflect.Type { return c.elem }

func (c *SliceCodec[E]) Kind() Kind     { return KindSlice }
func (c *SliceCodec[E]) DescWords() int { return 1 }

func (c *SliceCodec[E]) Accept(p Ptr) {
	if p.Kind != KindSlice {
		panic(mismatch(KindSlice, p, "kind"))
	}
	if p.Type != c.elem {
		panic(mismatch(KindSlice, p, "element type "+c.elem.String()))
	}
	if p.Desc.Len() != 1 || c.Size(p.Desc) != p.Size {
		panic(mismatch(KindSlice, p, "size does not match descriptor"))
	}
}

func (c *SliceCodec[E]) Size(d Descriptor) int {
	return int(d.Word(0)) * c.size
}

func (c *SliceCodec[E]) Reconstruct(addr unsafe.Pointer, d Descriptor) []E {
	n := int(d.Word(0))
	if n == 0 {
		return []E{}
	}
	return unsafe.Slice((*E)(addr), n)
}

// Drop calls Drop on every element, first to last, when *E is a Dropper.
func (c *SliceCodec[E]) Drop(addr unsafe.Pointer, d Descriptor) {
	if !c.dropping {
		return
	}
	s := c.Reconstruct(addr, d)
	for i := range s {
		any(&s[i]).(Dropper).Drop()
	}
}

// CloneElem returns a copy of e, using Clone when E is a Cloner.
func CloneElem[E any](e E) E {
	if c, ok := any(e).(Cloner[E]); ok {
		return c.Clone()
	}
	return e
}

// DropElem runs the destructor of a single element, if it has one.
func DropElem[E any](e *E) {
	if d, ok := any(e).(Dropper); ok {
		d.Drop()
	}
}
