package queue

import (
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wippyai/dst"
	"github.com/wippyai/dst/buffer"
	"github.com/wippyai/dst/codec"
	"github.com/wippyai/dst/errors"
)

var dropped []uint32

type job struct {
	id uint32
}

func (j *job) String() string { return fmt.Sprintf("job-%d", j.id) }
func (j *job) Drop()          { dropped = append(dropped, j.id) }

func collect[T any, W dst.Word](q *Queue[T, W]) []T {
	var out []T
	for v := range q.All() {
		out = append(out, v)
	}
	return out
}

func TestQueue_FIFO(t *testing.T) {
	q := New(codec.String())
	for _, v := range []string{"v1", "v2", "v3"} {
		require.NoError(t, q.PushBack(codec.Str(v)))
	}
	assert.Equal(t, 3, q.Len())
	assert.Equal(t, []string{"v1", "v2", "v3"}, collect(q))

	for _, want := range []string{"v1", "v2", "v3"} {
		v, ok := q.Front()
		require.True(t, ok)
		assert.Equal(t, want, v)
		q.PopFront()
	}
	assert.True(t, q.IsEmpty())
	_, ok := q.Front()
	assert.False(t, ok)
	q.PopFront()
	assert.Equal(t, 0, q.LenWords())
}

func TestQueue_CompactsBeforeFailing(t *testing.T) {
	buf := buffer.NewArray[uintptr](8)
	q := WithBuffer(codec.String(), buf)

	for _, v := range []string{"A", "B", "C", "D"} {
		require.NoError(t, q.PushBack(codec.Str(v)))
	}
	assert.Error(t, q.PushBack(codec.Str("E")))

	q.PopFront()
	require.NoError(t, q.PushBack(codec.Str("E")))
	assert.Equal(t, []string{"B", "C", "D", "E"}, collect(q))

	spans := q.Spans()
	require.Len(t, spans, 4)
	assert.Equal(t, 0, spans[0].Offset)
	assert.Equal(t, 6, spans[3].Offset)
}

func TestQueue_Compact(t *testing.T) {
	q := WithBuffer(codec.Slice[uint8](), buffer.NewArray[uint64](12))
	for i := range 4 {
		require.NoError(t, q.PushBack(codec.Elems([]uint8{uint8(i), uint8(i)})))
	}
	q.PopFront()
	q.PopFront()
	assert.Equal(t, 4, q.Spans()[0].Offset)

	q.Compact()
	assert.Equal(t, 0, q.Spans()[0].Offset)
	assert.Equal(t, [][]uint8{{2, 2}, {3, 3}}, collect(q))

	// no-op when already compact
	q.Compact()
	assert.Equal(t, 4, q.LenWords())
}

func TestQueue_CompactionIdempotence(t *testing.T) {
	sizes := []int{3, 9, 1, 17, 0, 8}
	outcome := func(q *Queue[string, uint64]) []bool {
		var res []bool
		for _, n := range sizes {
			err := q.PushBack(codec.Str(string(make([]byte, n))))
			res = append(res, err == nil)
		}
		return res
	}

	fresh := WithBuffer(codec.String(), buffer.NewArray[uint64](12))
	want := outcome(fresh)

	used := WithBuffer(codec.String(), buffer.NewArray[uint64](12))
	for range 3 {
		for _, n := range sizes {
			_ = used.PushBack(codec.Str(string(make([]byte, n))))
		}
		for !used.IsEmpty() {
			used.PopFront()
		}
		assert.Equal(t, want, outcome(used))
		used.Clear()
	}
}

func TestQueue_CapacityRefusalIsAtomic(t *testing.T) {
	buf := buffer.NewArray[uint32](6)
	q := WithBuffer(codec.String(), buf)

	require.NoError(t, q.PushBack(codec.Str("abcd")))
	before := slices.Clone(buf.Words())
	lenWords := q.LenWords()

	p := codec.Str("this will never fit")
	err := q.PushBack(p)
	require.ErrorIs(t, err, errors.ErrCapacity)

	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, p, e.Value)
	assert.Equal(t, before, buf.Words())
	assert.Equal(t, lenWords, q.LenWords())
	assert.Equal(t, []string{"abcd"}, collect(q))
}

func TestQueue_Grows(t *testing.T) {
	q := WithBuffer(codec.String(), buffer.NewVector[uint16](0))
	var want []string
	for i := range 20 {
		v := fmt.Sprintf("item-%02d", i)
		want = append(want, v)
		require.NoError(t, q.PushBack(codec.Str(v)))
		if i%3 == 0 {
			q.PopFront()
			want = want[1:]
		}
	}
	assert.Equal(t, want, collect(q))
	assert.Equal(t, len(want), q.Len())
}

func TestPushBackCloned(t *testing.T) {
	q := WithBuffer(codec.Slice[uint32](), buffer.NewArray[uint64](6))
	require.NoError(t, PushBackCloned(q, []uint32{1, 2, 3}))
	require.NoError(t, PushBackCloned(q, []uint32{}))

	assert.Equal(t, [][]uint32{{1, 2, 3}, {}}, collect(q))

	err := PushBackCloned(q, make([]uint32, 5))
	assert.ErrorIs(t, err, errors.ErrCapacity)
	assert.Equal(t, 2, q.Len())
}

func TestPushBackFromFunc_RollbackAtK(t *testing.T) {
	errGen := fmt.Errorf("no more jobs")
	for k := 1; k <= 4; k++ {
		t.Run(fmt.Sprintf("k=%d", k), func(t *testing.T) {
			dropped = nil
			q := WithBuffer(codec.Slice[job](), buffer.NewArray[uint64](16))
			require.NoError(t, PushBackCloned(q, []job{{id: 99}}))
			q.PopFront() // leaves a dropped job and an empty queue
			dropped = nil
			require.NoError(t, PushBackCloned(q, []job{{id: 1}}))
			lenWords := q.LenWords()

			err := PushBackFromFunc(q, 4, func(i int) (job, error) {
				if i == k-1 {
					return job{}, errGen
				}
				return job{id: uint32(10 + i)}, nil
			})
			require.ErrorIs(t, err, errGen)
			assert.Len(t, dropped, k-1)
			assert.Equal(t, lenWords, q.LenWords())
			assert.Equal(t, 1, q.Len())

			require.NoError(t, PushBackFromFunc(q, 2, func(i int) (job, error) {
				return job{id: uint32(20 + i)}, nil
			}))
			assert.Equal(t, [][]job{{{1}}, {{20}, {21}}}, collect(q))
		})
	}
}

func TestQueue_PopFrontWith(t *testing.T) {
	dropped = nil
	d := codec.NewDyn[fmt.Stringer]()
	q := New[fmt.Stringer](d)

	for i := range 3 {
		j := job{id: uint32(i)}
		require.NoError(t, q.PushBack(codec.Box(d, &j)))
	}

	var seen []string
	for q.PopFrontWith(func(s fmt.Stringer) { seen = append(seen, s.String()) }) {
	}
	assert.Equal(t, []string{"job-0", "job-1", "job-2"}, seen)
	assert.Equal(t, []uint32{0, 1, 2}, dropped)
	assert.False(t, q.PopFrontWith(func(fmt.Stringer) { t.Fatal("called on empty queue") }))
}

func TestQueue_Retain(t *testing.T) {
	dropped = nil
	d := codec.NewDyn[fmt.Stringer]()
	q := WithBuffer(d, buffer.NewArray[uint64](32))

	for i := range 8 {
		j := job{id: uint32(i)}
		require.NoError(t, q.PushBack(codec.Box(d, &j)))
	}
	q.PopFront()
	dropped = nil

	q.Retain(func(s fmt.Stringer) bool { return s.(*job).id%2 == 0 })

	assert.Equal(t, []uint32{1, 3, 5, 7}, dropped)
	assert.Equal(t, 3, q.Len())
	var ids []uint32
	for v := range q.All() {
		ids = append(ids, v.(*job).id)
	}
	assert.Equal(t, []uint32{2, 4, 6}, ids)

	q.Retain(func(fmt.Stringer) bool { return false })
	assert.True(t, q.IsEmpty())
	assert.Equal(t, 0, q.Len())
}

func TestQueue_RetainPanicKeepsUnvisited(t *testing.T) {
	dropped = nil
	q := WithBuffer(codec.Slice[job](), buffer.NewArray[uint64](16))
	for i := range 5 {
		require.NoError(t, PushBackCloned(q, []job{{id: uint32(i)}}))
	}

	assert.Panics(t, func() {
		q.Retain(func(v []job) bool {
			switch v[0].id {
			case 1:
				return false
			case 3:
				panic("stop")
			}
			return true
		})
	})

	assert.Equal(t, []uint32{1}, dropped)
	assert.Equal(t, 4, q.Len())
	var ids []uint32
	for v := range q.All() {
		ids = append(ids, v[0].id)
	}
	assert.Equal(t, []uint32{0, 2, 3, 4}, ids)
}

func TestQueue_CloseDropsOldestFirst(t *testing.T) {
	dropped = nil
	core, logs := observer.New(zap.DebugLevel)
	q := WithBuffer(codec.Slice[job](), buffer.NewVector[uint64](2), WithLogger(zap.New(core)), WithName("jobs"))

	for i := range 4 {
		require.NoError(t, PushBackCloned(q, []job{{id: uint32(i)}, {id: uint32(i + 10)}}))
	}
	require.NoError(t, q.Close())
	assert.Equal(t, []uint32{0, 10, 1, 11, 2, 12, 3, 13}, dropped)

	cleared := logs.FilterMessage("queue cleared").All()
	require.Len(t, cleared, 1)
	assert.Equal(t, "jobs", cleared[0].ContextMap()["queue"])
	assert.NotEmpty(t, logs.FilterMessage("queue grown").All())
}
