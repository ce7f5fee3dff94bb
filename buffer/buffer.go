package buffer

import (
	"unsafe"

	"github.com/wippyai/dst"
	"github.com/wippyai/dst/errors"
	"go.uber.org/zap"
)

const minGrowWords = 8

// WordSize returns the size of W in bytes.
func WordSize[W dst.Word]() int {
	var w W
	return int(unsafe.Sizeof(w))
}

// WordAlign returns the alignment of W in bytes.
func WordAlign[W dst.Word]() int {
	var w W
	return int(unsafe.Alignof(w))
}

// WordsFor returns the number of words needed to hold byteLen bytes.
func WordsFor[W dst.Word](byteLen int) int {
	size := WordSize[W]()
	return (byteLen + size - 1) / size
}

// Bytes reinterprets words as their backing bytes without copying.
func Bytes[W dst.Word](words []W) []byte {
	if len(words) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), len(words)*WordSize[W]()) //nolint:gosec // reinterpretation of pointer-free words
}

// FromBytes reinterprets b as words. Trailing bytes that do not fill a word are ignored.
func FromBytes[W dst.Word](b []byte) []W {
	n := len(b) / WordSize[W]()
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*W)(unsafe.Pointer(&b[0])), n) //nolint:gosec // caller guarantees alignment
}

// Array is a fixed-capacity buffer.
type Array[W dst.Word] struct {
	words []W
}

// NewArray allocates a fixed buffer of n words.
func NewArray[W dst.Word](n int) *Array[W] {
	return &Array[W]{words: make([]W, n)}
}

// Over lays a fixed buffer over caller-owned storage.
func Over[W dst.Word](words []W) *Array[W] {
	return &Array[W]{words: words}
}

func (a *Array[W]) Words() []W { return a.words }

func (a *Array[W]) Grow(minWords int) error {
	if minWords <= len(a.words) {
		return nil
	}
	return errors.CapacityExceeded(errors.PhaseGrow, minWords, len(a.words))
}

// Option configures growable buffers.
type Option func(*config)

type config struct {
	maxWords int
}

// WithMaxWords caps growth at n words. Zero means unlimited.
func WithMaxWords(n int) Option {
	return func(c *config) {
		c.maxWords = n
	}
}

func newConfig(opts []Option) config {
	var c config
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// nextSize picks the amortized size for a growth request.
func nextSize(cur, minWords, maxWords int) int {
	n := cur * 2
	if n < minGrowWords {
		n = minGrowWords
	}
	if n < minWords {
		n = minWords
	}
	if maxWords > 0 && n > maxWords {
		n = maxWords
	}
	return n
}

// Vector is a growable buffer.
type Vector[W dst.Word] struct {
	words    []W
	maxWords int
}

// NewVector allocates a growable buffer with n initial words.
func NewVector[W dst.Word](n int, opts ...Option) *Vector[W] {
	c := newConfig(opts)
	return &Vector[W]{
		words:    make([]W, n),
		maxWords: c.maxWords,
	}
}

func (v *Vector[W]) Words() []W { return v.words }

func (v *Vector[W]) Grow(minWords int) error {
	if minWords <= len(v.words) {
		return nil
	}
	if v.maxWords > 0 && minWords > v.maxWords {
		return errors.CapacityExceeded(errors.PhaseGrow, minWords, v.maxWords)
	}
	n := nextSize(len(v.words), minWords, v.maxWords)
	words := make([]W, n)
	copy(words, v.words)
	if ce := dst.Logger().Check(zap.DebugLevel, "vector grown"); ce != nil {
		ce.Write(zap.Int("from", len(v.words)), zap.Int("to", n))
	}
	v.words = words
	return nil
}

// Ref is a borrowed reference to another buffer. Growth is forwarded.
type Ref[W dst.Word] struct {
	b dst.Buffer[W]
}

// Borrow returns a buffer that shares storage with b.
func Borrow[W dst.Word](b dst.Buffer[W]) Ref[W] {
	return Ref[W]{b: b}
}

func (r Ref[W]) Words() []W { return r.b.Words() }

func (r Ref[W]) Grow(minWords int) error { return r.b.Grow(minWords) }
