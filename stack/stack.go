// Package stack implements a LIFO container over a word buffer.
package stack

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

// Stack is a LIFO container of values reconstructed as T.
//
// Elements fill the buffer from the back: the newest element starts at
// len(words)-top, so top alone locates it. Handles returned by Top and All
// alias the buffer and are invalid after the next mutating call.
//
// A Stack is not safe for concurrent use.
type Stack[T any, W dst.Word] struct {
	buf    dst.Buffer[W]
	logger *zap.Logger
	layout slot.Layout[T, W]
	top    int // words in use, counted from the back
	count  int
}

// New creates a stack over a fixed buffer of DefaultWords machine words.
func New[T any](c codec.Codec[T], opts ...Option) *Stack[T, uintptr] {
	return WithBuffer[T, uintptr](c, buffer.NewArray[uintptr](DefaultWords), opts...)
}

// WithBuffer creates an empty stack over buf.
func WithBuffer[T any, W dst.Word](c codec.Codec[T], buf dst.Buffer[W], opts ...Option) *Stack[T, W] {
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
		l = l.With(zap.String("stack", cfg.name))
	}
	return &Stack[T, W]{
		buf:    buf,
		logger: l,
		layout: slot.For[T, W](c),
	}
}

// Len returns the number of elements.
func (s *Stack[T, W]) Len() int { return s.count }

// LenWords returns the number of buffer words in use.
func (s *Stack[T, W]) LenWords() int { return s.top }

// IsEmpty reports whether the stack holds no elements.
func (s *Stack[T, W]) IsEmpty() bool { return s.top == 0 }

// CapacityWords returns the current buffer size in words.
func (s *Stack[T, W]) CapacityWords() int { return len(s.buf.Words()) }

// reserve makes room for n more words, growing the buffer if needed.
// After growth the used tail is moved to the new end.
func (s *Stack[T, W]) reserve(n int) error {
	old := len(s.buf.Words())
	need := s.top + n
	if need <= old {
		return nil
	}
	if err := s.buf.Grow(need); err != nil {
		return err
	}
	words := s.buf.Words()
	copy(words[len(words)-s.top:], words[old-s.top:old])
	if ce := s.logger.Check(zap.DebugLevel, "stack grown"); ce != nil {
		ce.Write(zap.Int("from", old), zap.Int("to", len(words)), zap.Int("used", s.top))
	}
	return nil
}

func (s *Stack[T, W]) reject(value any, need int, cause error) error {
	free := s.CapacityWords() - s.top
	if ce := s.logger.Check(zap.DebugLevel, "push rejected"); ce != nil {
		ce.Write(zap.Int("need", need), zap.Int("free", free), zap.Error(cause))
	}
	err := errors.Rejected(errors.PhasePush, value, need, free)
	err.Cause = cause
	return err
}

// Push copies the value behind p onto the stack. If the buffer cannot
// make room, Push returns a capacity error carrying p in its Value field
// and leaves the stack unchanged.
//
// p must match the stack's codec; a mismatch is fatal.
func (s *Stack[T, W]) Push(p codec.Ptr) error {
	need := s.layout.Check(p)
	if err := s.reserve(need); err != nil {
		return s.reject(p, need, err)
	}
	words := s.buf.Words()
	s.layout.Put(words, len(words)-s.top-need, p)
	s.top += need
	s.count++
	return nil
}

// Top returns the most recently pushed element.
func (s *Stack[T, W]) Top() (T, bool) {
	if s.top == 0 {
		var zero T
		return zero, false
	}
	words := s.buf.Words()
	v, _ := s.layout.Get(words, len(words)-s.top)
	return v, true
}

// Pop destroys the top element. It is a no-op on an empty stack.
func (s *Stack[T, W]) Pop() {
	if s.top == 0 {
		return
	}
	words := s.buf.Words()
	n := s.layout.Drop(words, len(words)-s.top)
	s.top -= n
	s.count--
}

// All iterates from the top element to the bottom one.
func (s *Stack[T, W]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		words := s.buf.Words()
		for off := len(words) - s.top; off < len(words); {
			v, n := s.layout.Get(words, off)
			if !yield(v) {
				return
			}
			off += n
		}
	}
}

// Spans describes the stored elements from top to bottom.
func (s *Stack[T, W]) Spans() []dst.Span {
	words := s.buf.Words()
	spans := make([]dst.Span, 0, s.count)
	for off := len(words) - s.top; off < len(words); {
		sp := s.layout.Span(words, off)
		spans = append(spans, sp)
		off += sp.Words
	}
	return spans
}

// Clear destroys every element, top first.
func (s *Stack[T, W]) Clear() {
	n := s.count
	for s.top > 0 {
		s.Pop()
	}
	if n > 0 {
		if ce := s.logger.Check(zap.DebugLevel, "stack cleared"); ce != nil {
			ce.Write(zap.Int("elements", n))
		}
	}
}

// Close clears the stack and releases the buffer if it is an io.Closer.
func (s *Stack[T, W]) Close() error {
	s.Clear()
	if c, ok := s.buf.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// PushCloned pushes one slice element holding clones of src. Items that
// implement codec.Cloner are cloned with Clone, others are copied.
func PushCloned[E any, W dst.Word](s *Stack[[]E, W], src []E) error {
	return push(s, len(src), slot.Cloning(src), src)
}

// PushFromFunc pushes one slice element of n items produced by gen.
//
// If gen fails or panics, the items produced so far are dropped once each,
// the stack is restored to its previous state and the failure propagates.
func PushFromFunc[E any, W dst.Word](s *Stack[[]E, W], n int, gen func(i int) (E, error)) error {
	return push(s, n, gen, nil)
}

func push[E any, W dst.Word](s *Stack[[]E, W], n int, gen func(i int) (E, error), value any) error {
	if n < 0 {
		panic(errors.Precondition(errors.PhaseBatch, "negative count %d", n))
	}
	slot.Elems(s.layout)
	need := s.layout.Words(slot.RunSize[E](n))
	if err := s.reserve(need); err != nil {
		return s.reject(value, need, err)
	}
	words := s.buf.Words()
	prev := s.top
	s.top += need
	return slot.FillRun(s.layout, words, len(words)-s.top, n, gen, &s.top, prev, func() {
		s.count++
	})
}
