// Package slot reads and writes single stored elements in a word buffer.
//
// An element is its descriptor followed by its payload, both padded to
// whole words. Containers decide where elements go; slot only encodes them.
package slot

import (
	"unsafe"

	"github.com/wippyai/dst"
	"github.com/wippyai/dst/buffer"
	"github.com/wippyai/dst/codec"
	"github.com/wippyai/dst/errors"
	"github.com/wippyai/dst/internal/batch"
)

// Layout encodes elements of one codec in W words.
type Layout[T any, W dst.Word] struct {
	Codec codec.Codec[T]
	Meta  int // descriptor words
	desc  int // descriptor machine words
}

// For returns the element layout of c in W words.
func For[T any, W dst.Word](c codec.Codec[T]) Layout[T, W] {
	if c == nil {
		panic(errors.Precondition(errors.PhasePush, "nil codec"))
	}
	n := c.DescWords()
	if n > codec.MaxWords {
		panic(errors.Precondition(errors.PhasePush, "codec descriptor of %d words exceeds %d", n, codec.MaxWords))
	}
	return Layout[T, W]{
		Codec: c,
		Meta:  codec.DescriptorWords[W](n),
		desc:  n,
	}
}

// Elem is a decoded element header.
type Elem struct {
	Desc  codec.Descriptor
	Addr  unsafe.Pointer
	Size  int // payload bytes
	Words int // total words
}

// Words returns the total words of an element with a size-byte payload.
func (l Layout[T, W]) Words(size int) int {
	return l.Meta + buffer.WordsFor[W](size)
}

// Check validates p for this layout and returns the words it needs.
func (l Layout[T, W]) Check(p codec.Ptr) int {
	l.Codec.Accept(p)
	codec.CheckLayout[W](p.Type)
	return l.Words(p.Size)
}

// Put writes p at words[off:]. The caller has reserved l.Words(p.Size) words.
func (l Layout[T, W]) Put(words []W, off int, p codec.Ptr) {
	codec.StoreDescriptor(words[off:off+l.Meta], p.Desc)
	end := off + l.Words(p.Size)
	codec.CopyPayload(words[off+l.Meta:end], p.Addr, p.Size)
}

// Header writes only the descriptor at words[off:] and returns the payload address.
func (l Layout[T, W]) Header(words []W, off int, d codec.Descriptor, size int) unsafe.Pointer {
	codec.StoreDescriptor(words[off:off+l.Meta], d)
	return codec.At(words, off+l.Meta, size)
}

// Load decodes the element at words[off:].
func (l Layout[T, W]) Load(words []W, off int) Elem {
	d := codec.LoadDescriptor(words[off:off+l.Meta], l.desc)
	size := l.Codec.Size(d)
	return Elem{
		Desc:  d,
		Addr:  codec.At(words, off+l.Meta, size),
		Size:  size,
		Words: l.Words(size),
	}
}

// Get reconstructs the element at words[off:] and returns its word length.
func (l Layout[T, W]) Get(words []W, off int) (T, int) {
	e := l.Load(words, off)
	return l.Codec.Reconstruct(e.Addr, e.Desc), e.Words
}

// Drop destroys the element at words[off:] and returns its word length.
func (l Layout[T, W]) Drop(words []W, off int) int {
	e := l.Load(words, off)
	l.Codec.Drop(e.Addr, e.Desc)
	return e.Words
}

// Span describes the element at words[off:].
func (l Layout[T, W]) Span(words []W, off int) dst.Span {
	e := l.Load(words, off)
	return dst.Span{
		Kind:   l.Codec.Kind().String(),
		Offset: off,
		Words:  e.Words,
		Meta:   l.Meta,
		Size:   e.Size,
	}
}

// Elems returns the slice codec behind l, or panics when l stores something else.
func Elems[E any, W dst.Word](l Layout[[]E, W]) *codec.SliceCodec[E] {
	sc, ok := l.Codec.(*codec.SliceCodec[E])
	if !ok {
		panic(errors.Precondition(errors.PhaseBatch, "batch insertion needs a slice codec, have %s", l.Codec.Kind()))
	}
	codec.CheckLayout[W](sc.Elem())
	return sc
}

// RunSize returns the payload bytes of a run of n elements of E.
func RunSize[E any](n int) int {
	var zero E
	return n * int(unsafe.Sizeof(zero))
}

// FillRun writes a slice element of n generated items at words[off:],
// which the caller has reserved and accounted for in *reset. On failure
// the written items are dropped and *reset goes back to resetTo. The
// descriptor holds a zero count until every item is in place.
func FillRun[E any, W dst.Word](l Layout[[]E, W], words []W, off, n int, gen func(i int) (E, error), reset *int, resetTo int, commit func()) error {
	sc := Elems(l)
	addr := l.Header(words, off, sc.Count(0), RunSize[E](n))
	region := unsafe.Slice((*E)(addr), n)
	return batch.Fill(region, gen, codec.DropElem[E], reset, resetTo, func(k int) {
		codec.StoreDescriptor(words[off:off+l.Meta], sc.Count(k))
		if commit != nil {
			commit()
		}
	})
}

// Cloning returns a generator that clones src item by item.
func Cloning[E any](src []E) func(i int) (E, error) {
	return func(i int) (E, error) {
		return codec.CloneElem(src[i]), nil
	}
}
