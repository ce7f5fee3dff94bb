// Package queue implements a FIFO container over a word buffer.
package queue

import (
	"io"
	"iter"

	"github.com/wippyai/dst"
	"github.com/wippyai/dst/buffer"
	"github.com/wippyai/dst/codec"
	"github.com/wippyai/dst/errors"
	"github.com/wippyai/dst/internal/slot"
	"go.uber.org/zap"
)

// DefaultWords is the capacity of the fixed buffer used by New.
const DefaultWords = 16

// Queue is a FIFO container of values reconstructed as T.
//
// Live elements occupy words [read, write). Space freed by PopFront is
// reclaimed by compaction, which moves the live region to offset zero.
// Handles returned by Front and All alias the buffer and are invalid after
// the next mutating call.
//
// A Queue is not safe for concurrent use.
type Queue[T any, W dst.Word] struct {
	buf    dst.Buffer[W]
	logger *zap.Logger
	layout slot.Layout[T, W]
	read   int
	write  int
	count  int
}

// New creates a queue over a fixed buffer of DefaultWords machine words.
func New[T any](c codec.Codec[T], opts ...Option) *Queue[T, uintptr] {
	return WithBuffer[T, uintptr](c, buffer.NewArray[uintptr](DefaultWords), opts...)
}

// WithBuffer creates an empty queue over buf.
func WithBuffer[T any, W dst.Word](c codec.Codec[T], buf dst.Buffer[W], opts ...Option) *Queue[T, W] {
	if buf == nil {
		panic(errors.Precondition(errors.PhasePush, "nil buffer"))
	}
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	l := cfg.logger
	if l == nil {
		l = dst.Logger()
	}
	if cfg.name != "" {
		l = l.With(zap.String("queue", cfg.name))
	}
	return &Queue[T, W]{
		buf:    buf,
		logger: l,
		layout: slot.For[T, W](c),
	}
}

// Len returns the number of elements.
func (q *Queue[T, W]) Len() int { return q.count }

// LenWords returns the number of buffer words held by live elements.
func (q *Queue[T, W]) LenWords() int { return q.write - q.read }

// IsEmpty reports whether the queue holds no elements.
func (q *Queue[T, W]) IsEmpty() bool { return q.read == q.write }

// CapacityWords returns the current buffer size in words.
func (q *Queue[T, W]) CapacityWords() int { return len(q.buf.Words()) }

func (q *Queue[T, W]) space() int { return len(q.buf.Words()) - q.write }

// Compact moves the live region to the start of the buffer.
func (q *Queue[T, W]) Compact() {
	if q.read == 0 {
		return
	}
	words := q.buf.Words()
	copy(words, words[q.read:q.write])
	if ce := q.logger.Check(zap.DebugLevel, "queue compacted"); ce != nil {
		ce.Write(zap.Int("reclaimed", q.read), zap.Int("live", q.write-q.read))
	}
	q.write -= q.read
	q.read = 0
}

// reserve makes room for n words at write: compaction first, growth second.
func (q *Queue[T, W]) reserve(n int) error {
	if q.space() >= n {
		return nil
	}
	if q.space()+q.read >= n {
		q.Compact()
		return nil
	}
	old := len(q.buf.Words())
	if err := q.buf.Grow(q.write + n); err != nil {
		return err
	}
	if ce := q.logger.Check(zap.DebugLevel, "queue grown"); ce != nil {
		ce.Write(zap.Int("from", old), zap.Int("to", len(q.buf.Words())))
	}
	return nil
}

func (q *Queue[T, W]) reject(value any, need int, cause error) error {
	free := q.space() + q.read
	if ce := q.logger.Check(zap.DebugLevel, "push rejected"); ce != nil {
		ce.Write(zap.Int("need", need), zap.Int("free", free), zap.Error(cause))
	}
	err := errors.Rejected(errors.PhasePush, value, need, free)
	err.Cause = cause
	return err
}

// PushBack copies the value behind p to the back of the queue. If neither
// compaction nor growth makes room, PushBack returns a capacity error
// carrying p in its Value field and leaves the queue unchanged.
//
// p must match the queue's codec; a mismatch is fatal.
func (q *Queue[T, W]) PushBack(p codec.Ptr) error {
	need := q.layout.Check(p)
	if err := q.reserve(need); err != nil {
		return q.reject(p, need, err)
	}
	q.layout.Put(q.buf.Words(), q.write, p)
	q.write += need
	q.count++
	return nil
}

// Front returns the oldest element.
func (q *Queue[T, W]) Front() (T, bool) {
	if q.read == q.write {
		var zero T
		return zero, false
	}
	v, _ := q.layout.Get(q.buf.Words(), q.read)
	return v, true
}

// PopFront destroys the oldest element. It is a no-op on an empty queue.
func (q *Queue[T, W]) PopFront() {
	if q.read == q.write {
		return
	}
	q.read += q.layout.Drop(q.buf.Words(), q.read)
	q.count--
	if q.read == q.write {
		q.read, q.write = 0, 0
	}
}

// PopFrontWith passes the oldest element to fn, then destroys it. It
// reports whether there was an element. The handle must not outlive fn.
func (q *Queue[T, W]) PopFrontWith(fn func(T)) bool {
	v, ok := q.Front()
	if !ok {
		return false
	}
	fn(v)
	q.PopFront()
	return true
}

// Retain keeps the elements for which keep returns true, in order, and
// destroys the rest. Kept elements are packed towards the front.
//
// If keep panics, the elements not yet visited stay in the queue.
func (q *Queue[T, W]) Retain(keep func(T) bool) {
	words := q.buf.Words()
	end := q.write
	to, off := q.read, q.read
	removed := 0

	defer func() {
		if off < end && to != off {
			copy(words[to:], words[off:end])
		}
		q.write = to + (end - off)
		q.count -= removed
		if q.read == q.write {
			q.read, q.write = 0, 0
		}
	}()

	for off < end {
		v, n := q.layout.Get(words, off)
		if keep(v) {
			if to != off {
				copy(words[to:to+n], words[off:off+n])
			}
			to += n
			off += n
			continue
		}
		at := off
		off += n
		removed++
		q.layout.Drop(words, at)
	}
}

// All iterates from the oldest element to the newest.
func (q *Queue[T, W]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		words := q.buf.Words()
		for off := q.read; off < q.write; {
			v, n := q.layout.Get(words, off)
			if !yield(v) {
				return
			}
			off += n
		}
	}
}

// Spans describes the stored elements from oldest to newest.
func (q *Queue[T, W]) Spans() []dst.Span {
	words := q.buf.Words()
	spans := make([]dst.Span, 0, q.count)
	for off := q.read; off < q.write; {
		sp := q.layout.Span(words, off)
		spans = append(spans, sp)
		off += sp.Words
	}
	return spans
}

// Clear destroys every element, oldest first.
func (q *Queue[T, W]) Clear() {
	n := q.count
	for q.read != q.write {
		q.PopFront()
	}
	if n > 0 {
		if ce := q.logger.Check(zap.DebugLevel, "queue cleared"); ce != nil {
			ce.Write(zap.Int("elements", n))
		}
	}
}

// Close clears the queue and releases the buffer if it is an io.Closer.
func (q *Queue[T, W]) Close() error {
	q.Clear()
	if c, ok := q.buf.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// PushBackCloned appends one slice element holding clones of src.
func PushBackCloned[E any, W dst.Word](q *Queue[[]E, W], src []E) error {
	return pushBack(q, len(src), slot.Cloning(src), src)
}

// PushBackFromFunc appends one slice element of n items produced by gen.
//
// If gen fails or panics, the items produced so far are dropped once each,
// the write cursor is restored and the failure propagates.
func PushBackFromFunc[E any, W dst.Word](q *Queue[[]E, W], n int, gen func(i int) (E, error)) error {
	return pushBack(q, n, gen, nil)
}

func pushBack[E any, W dst.Word](q *Queue[[]E, W], n int, gen func(i int) (E, error), value any) error {
	if n < 0 {
		panic(errors.Precondition(errors.PhaseBatch, "negative count %d", n))
	}
	slot.Elems(q.layout)
	need := q.layout.Words(slot.RunSize[E](n))
	if err := q.reserve(need); err != nil {
		return q.reject(value, need, err)
	}
	off := q.write
	q.write += need
	return slot.FillRun(q.layout, q.buf.Words(), off, n, gen, &q.write, off, func() {
		q.count++
	})
}
