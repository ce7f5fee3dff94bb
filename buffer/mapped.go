package buffer

import (
	"os"

	"github.com/wippyai/dst"
	"github.com/wippyai/dst/errors"
	"go.uber.org/zap"
)

// Mapped is a growable buffer in an anonymous off-heap mapping.
//
// Growth maps a larger region, copies the live words and unmaps the old one.
// Mapped must be closed to release the mapping.
type Mapped[W dst.Word] struct {
	data     []byte
	words    []W
	maxWords int
	closed   bool
}

// NewMapped maps a buffer of at least n words.
func NewMapped[W dst.Word](n int, opts ...Option) (*Mapped[W], error) {
	c := newConfig(opts)
	if c.maxWords > 0 && n > c.maxWords {
		return nil, errors.CapacityExceeded(errors.PhaseMap, n, c.maxWords)
	}
	m := &Mapped[W]{maxWords: c.maxWords}
	if n == 0 {
		return m, nil
	}
	if err := m.remap(n); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Mapped[W]) Words() []W { return m.words }

func (m *Mapped[W]) Grow(minWords int) error {
	if minWords <= len(m.words) {
		return nil
	}
	if m.closed {
		return errors.InvalidInput(errors.PhaseMap, "buffer closed")
	}
	if m.maxWords > 0 && minWords > m.maxWords {
		return errors.CapacityExceeded(errors.PhaseGrow, minWords, m.maxWords)
	}
	return m.remap(nextSize(len(m.words), minWords, m.maxWords))
}

func (m *Mapped[W]) remap(words int) error {
	size := pageAlign(words * WordSize[W]())
	data, err := osMapAnon(size)
	if err != nil {
		return errors.AllocationFailed(errors.PhaseMap, size, err)
	}
	// page-aligned mappings satisfy any word alignment
	next := FromBytes[W](data)
	if maxWords := m.maxWords; maxWords > 0 && len(next) > maxWords {
		next = next[:maxWords]
	}
	copy(next, m.words)

	old := m.data
	m.data = data
	m.words = next
	if old != nil {
		if err := osUnmap(old); err != nil {
			dst.Logger().Warn("unmap failed", zap.Int("bytes", len(old)), zap.Error(err))
		}
	}
	if ce := dst.Logger().Check(zap.DebugLevel, "mapping resized"); ce != nil {
		ce.Write(zap.Int("words", len(next)), zap.Int("bytes", size))
	}
	return nil
}

// Close unmaps the buffer. It is idempotent.
func (m *Mapped[W]) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	data := m.data
	m.data = nil
	m.words = nil
	if data == nil {
		return nil
	}
	return osUnmap(data)
}

func pageAlign(n int) int {
	page := os.Getpagesize()
	return (n + page - 1) / page * page
}
