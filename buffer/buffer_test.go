package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/dst"
	"github.com/wippyai/dst/errors"
)

var (
	_ dst.Buffer[uint64]  = (*Array[uint64])(nil)
	_ dst.Buffer[uint8]   = (*Vector[uint8])(nil)
	_ dst.Buffer[uintptr] = Ref[uintptr]{}
	_ dst.Buffer[uint32]  = (*Mapped[uint32])(nil)
)

func TestWordsFor(t *testing.T) {
	tests := []struct {
		name  string
		bytes int
		u8    int
		u32   int
		u64   int
	}{
		{"zero", 0, 0, 0, 0},
		{"one byte", 1, 1, 1, 1},
		{"exact word", 8, 8, 2, 1},
		{"word plus one", 9, 9, 3, 2},
		{"hello", 5, 5, 2, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.u8, WordsFor[uint8](tt.bytes))
			assert.Equal(t, tt.u32, WordsFor[uint32](tt.bytes))
			assert.Equal(t, tt.u64, WordsFor[uint64](tt.bytes))
		})
	}
}

func TestBytesAliasWords(t *testing.T) {
	words := []uint32{0, 0}
	b := Bytes(words)
	require.Len(t, b, 8)
	b[0] = 0xff
	assert.NotZero(t, words[0])

	back := FromBytes[uint32](b)
	require.Len(t, back, 2)
	back[1] = 7
	assert.Equal(t, uint32(7), words[1])

	assert.Nil(t, Bytes[uint64](nil))
	assert.Nil(t, FromBytes[uint64]([]byte{1, 2, 3}))
}

func TestArray_GrowFailsWithoutSideEffects(t *testing.T) {
	a := NewArray[uint64](4)
	a.Words()[0] = 42
	before := a.Words()

	require.NoError(t, a.Grow(4))
	err := a.Grow(5)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrCapacity)

	after := a.Words()
	assert.Len(t, after, 4)
	assert.Equal(t, uint64(42), after[0])
	assert.Same(t, &before[0], &after[0])
}

func TestOver_UsesCallerStorage(t *testing.T) {
	storage := make([]uint16, 3)
	a := Over(storage)
	a.Words()[2] = 9
	assert.Equal(t, uint16(9), storage[2])
	assert.Error(t, a.Grow(4))
}

func TestVector_GrowPreservesContents(t *testing.T) {
	v := NewVector[uint64](2)
	v.Words()[0] = 1
	v.Words()[1] = 2

	require.NoError(t, v.Grow(3))
	words := v.Words()
	assert.GreaterOrEqual(t, len(words), 3)
	assert.Equal(t, []uint64{1, 2}, words[:2])

	// amortized growth
	assert.Equal(t, minGrowWords, len(words))
	require.NoError(t, v.Grow(9))
	assert.Equal(t, 16, len(v.Words()))

	// no-op when already large enough
	prev := v.Words()
	require.NoError(t, v.Grow(1))
	assert.Same(t, &prev[0], &v.Words()[0])
}

func TestVector_MaxWords(t *testing.T) {
	v := NewVector[uint8](4, WithMaxWords(10))
	require.NoError(t, v.Grow(6))
	assert.Equal(t, 8, len(v.Words()))

	require.NoError(t, v.Grow(9))
	assert.Equal(t, 10, len(v.Words()))

	err := v.Grow(11)
	assert.ErrorIs(t, err, errors.ErrCapacity)
	assert.Equal(t, 10, len(v.Words()))
}

func TestRef_ForwardsToInner(t *testing.T) {
	inner := NewVector[uint32](1)
	r := Borrow[uint32](inner)

	r.Words()[0] = 5
	assert.Equal(t, uint32(5), inner.Words()[0])

	require.NoError(t, r.Grow(20))
	assert.Equal(t, len(inner.Words()), len(r.Words()))
	assert.Equal(t, uint32(5), r.Words()[0])

	fixed := Borrow[uint32](NewArray[uint32](2))
	assert.ErrorIs(t, fixed.Grow(3), errors.ErrCapacity)
}

func TestNextSize(t *testing.T) {
	assert.Equal(t, minGrowWords, nextSize(0, 1, 0))
	assert.Equal(t, 20, nextSize(4, 20, 0))
	assert.Equal(t, 64, nextSize(32, 33, 0))
	assert.Equal(t, 40, nextSize(32, 33, 40))
}
