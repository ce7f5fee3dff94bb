// Package value holds a single type-erased value in a word buffer.
//
// A Value uses the same element encoding as the containers: descriptor
// words at offset zero followed by the payload. String and slice values
// can be extended in place while the buffer can grow.
package value

import (
	"io"
	"strings"
	"unicode/utf8"
	"unsafe"

	"github.com/wippyai/dst"
	"github.com/wippyai/dst/codec"
	"github.com/wippyai/dst/errors"
	"github.com/wippyai/dst/internal/slot"
)

// Value owns one stored element.
//
// Handles returned by Get alias the buffer and are invalid after the next
// mutating call. A Value is not safe for concurrent use.
type Value[T any, W dst.Word] struct {
	buf    dst.Buffer[W]
	layout slot.Layout[T, W]
	closed bool
}

// New stores the value behind p in buf. If buf cannot hold it, New returns
// a capacity error carrying p in its Value field.
func New[T any, W dst.Word](c codec.Codec[T], buf dst.Buffer[W], p codec.Ptr) (*Value[T, W], error) {
	if buf == nil {
		panic(errors.Precondition(errors.PhasePush, "nil buffer"))
	}
	v := &Value[T, W]{
		buf:    buf,
		layout: slot.For[T, W](c),
	}
	need := v.layout.Check(p)
	if err := buf.Grow(need); err != nil {
		return nil, rejected(p, need, len(buf.Words()), err)
	}
	v.layout.Put(buf.Words(), 0, p)
	return v, nil
}

func rejected(value any, need, have int, cause error) error {
	err := errors.Rejected(errors.PhasePush, value, need, have)
	err.Cause = cause
	return err
}

func (v *Value[T, W]) live() {
	if v.closed {
		panic(errors.Precondition(errors.PhaseReconstruct, "value is closed"))
	}
}

// Get returns a handle to the stored value.
func (v *Value[T, W]) Get() T {
	v.live()
	h, _ := v.layout.Get(v.buf.Words(), 0)
	return h
}

// Size returns the payload size in bytes.
func (v *Value[T, W]) Size() int {
	v.live()
	return v.layout.Load(v.buf.Words(), 0).Size
}

// LenWords returns the number of buffer words in use.
func (v *Value[T, W]) LenWords() int {
	v.live()
	return v.layout.Load(v.buf.Words(), 0).Words
}

// Replace swaps in the value behind p. The old value is destroyed only
// once the new one is known to fit; on failure nothing changes. p must not
// point into this value's buffer.
func (v *Value[T, W]) Replace(p codec.Ptr) error {
	v.live()
	need := v.layout.Check(p)
	if err := v.buf.Grow(need); err != nil {
		return rejected(p, need, len(v.buf.Words()), err)
	}
	words := v.buf.Words()
	v.layout.Drop(words, 0)
	v.layout.Put(words, 0, p)
	return nil
}

// Close destroys the stored value and releases the buffer if it is an
// io.Closer. Close is idempotent.
func (v *Value[T, W]) Close() error {
	if v.closed {
		return nil
	}
	v.layout.Drop(v.buf.Words(), 0)
	v.closed = true
	if c, ok := v.buf.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func stringKind[W dst.Word](v *Value[string, W]) {
	v.live()
	if k := v.layout.Codec.Kind(); k != codec.KindString {
		panic(errors.Precondition(errors.PhasePush, "string operation on a %s value", k))
	}
}

// AppendStr appends s to a string value.
func AppendStr[W dst.Word](v *Value[string, W], s string) error {
	stringKind(v)
	e := v.layout.Load(v.buf.Words(), 0)
	need := v.layout.Words(e.Size + len(s))
	if need > len(v.buf.Words()) {
		// s may alias the current buffer
		s = strings.Clone(s)
		if err := v.buf.Grow(need); err != nil {
			return rejected(s, need, len(v.buf.Words()), err)
		}
	}
	words := v.buf.Words()
	meta := v.layout.Meta
	if len(s) > 0 {
		out := unsafe.Slice((*byte)(unsafe.Pointer(&words[meta])), e.Size+len(s))
		copy(out[e.Size:], s)
	}
	codec.StoreDescriptor(words[:meta], codec.MakeDescriptor(uintptr(e.Size+len(s))))
	return nil
}

// Truncate shortens a string value to n bytes. It is a no-op when n is not
// shorter than the value. Cutting inside a UTF-8 sequence is fatal.
func Truncate[W dst.Word](v *Value[string, W], n int) {
	stringKind(v)
	s := v.Get()
	if n >= len(s) {
		return
	}
	if n < 0 || !utf8.RuneStart(s[n]) {
		panic(errors.Precondition(errors.PhasePop, "truncate at %d splits a UTF-8 sequence", n))
	}
	codec.StoreDescriptor(v.buf.Words()[:v.layout.Meta], codec.MakeDescriptor(uintptr(n)))
}

// Append adds e to the end of a slice value. On a capacity failure the
// returned error carries e in its Value field.
func Append[E any, W dst.Word](v *Value[[]E, W], e E) error {
	v.live()
	slot.Elems(v.layout)
	n := len(v.Get())
	need := v.layout.Words(slot.RunSize[E](n + 1))
	if err := v.buf.Grow(need); err != nil {
		return rejected(e, need, len(v.buf.Words()), err)
	}
	words := v.buf.Words()
	meta := v.layout.Meta
	items := unsafe.Slice((*E)(codec.At(words, meta, slot.RunSize[E](n+1))), n+1)
	items[n] = e
	codec.StoreDescriptor(words[:meta], codec.MakeDescriptor(uintptr(n+1)))
	return nil
}

// Extend appends items in order until one does not fit, and returns how
// many were appended.
func Extend[E any, W dst.Word](v *Value[[]E, W], items []E) (int, error) {
	for i, e := range items {
		if err := Append(v, e); err != nil {
			return i, err
		}
	}
	return len(items), nil
}

// PopElem removes the last item of a slice value and returns it. The item
// is moved out, not destroyed.
func PopElem[E any, W dst.Word](v *Value[[]E, W]) (E, bool) {
	v.live()
	slot.Elems(v.layout)
	items := v.Get()
	if len(items) == 0 {
		var zero E
		return zero, false
	}
	last := items[len(items)-1]
	codec.StoreDescriptor(v.buf.Words()[:v.layout.Meta], codec.MakeDescriptor(uintptr(len(items)-1)))
	return last, true
}
