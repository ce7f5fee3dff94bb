package codec

import (
	"fmt"
	"reflect"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/dst/errors"
)

type point struct {
	X, Y int32
}

func (p *point) String() string { return fmt.Sprintf("(%d,%d)", p.X, p.Y) }

type counted struct {
	id uint32
}

var dropped []uint32

func (c *counted) String() string { return fmt.Sprintf("#%d", c.id) }
func (c *counted) Drop()          { dropped = append(dropped, c.id) }

type unit struct{}

func (*unit) String() string { return "unit" }

type withPointer struct {
	name *string
}

func (*withPointer) String() string { return "ptr" }

func requirePrecondition(t *testing.T, fn func()) *errors.Error {
	t.Helper()
	var got any
	func() {
		defer func() { got = recover() }()
		fn()
	}()
	require.True(t, errors.IsPrecondition(got), "expected precondition panic, got %v", got)
	return got.(*errors.Error)
}

func TestDescriptor_StoreLoad(t *testing.T) {
	d := MakeDescriptor(5, 1<<20, 7)
	assert.Equal(t, 3, d.Len())

	t.Run("uint8 words", func(t *testing.T) {
		slot := make([]uint8, DescriptorWords[uint8](d.Len()))
		assert.Len(t, slot, 3*ptrSize)
		StoreDescriptor(slot, d)
		assert.Equal(t, d, LoadDescriptor(slot, 3))
	})

	t.Run("uint64 words", func(t *testing.T) {
		slot := make([]uint64, DescriptorWords[uint64](d.Len()))
		StoreDescriptor(slot, d)
		back := LoadDescriptor(slot, 3)
		assert.Equal(t, uintptr(1<<20), back.Word(1))
	})

	t.Run("slot too small", func(t *testing.T) {
		requirePrecondition(t, func() { StoreDescriptor(make([]uint32, 1), d) })
	})
}

func TestDescriptor_TooManyWords(t *testing.T) {
	requirePrecondition(t, func() { MakeDescriptor(1, 2, 3, 4, 5) })
	requirePrecondition(t, func() { LoadDescriptor(make([]uint64, 8), MaxWords+1) })

	d := MakeDescriptor(1, 2, 3, 4)
	assert.Equal(t, MaxWords, d.Len())
	assert.Panics(t, func() { d.Word(MaxWords) })
}

func TestDecompose(t *testing.T) {
	p := Str("abc")
	addr, n, words := Decompose(p)
	assert.Equal(t, p.Addr, addr)
	assert.Equal(t, 1, n)
	assert.Equal(t, uintptr(3), words[0])

	requirePrecondition(t, func() { Decompose(Ptr{}) })
}

func TestString_RoundTrip(t *testing.T) {
	c := String()
	for _, s := range []string{"Hello", " ", "", "World!"} {
		p := Str(s)
		c.Accept(p)
		require.Equal(t, len(s), c.Size(p.Desc))

		words := make([]uint64, 2)
		CopyPayload(words, p.Addr, p.Size)
		got := c.Reconstruct(At(words, 0, p.Size), p.Desc)
		assert.Equal(t, s, got)
	}
}

func TestSlice_RoundTrip(t *testing.T) {
	c := Slice[uint16]()
	src := []uint16{1, 2, 3}
	p := Elems(src)
	c.Accept(p)
	assert.Equal(t, 6, p.Size)

	words := make([]uint32, 2)
	CopyPayload(words, p.Addr, p.Size)
	got := c.Reconstruct(At(words, 0, p.Size), p.Desc)
	assert.Equal(t, src, got)

	// the handle aliases the words
	got[0] = 9
	assert.Equal(t, uint16(9), c.Reconstruct(At(words, 0, p.Size), p.Desc)[0])

	empty := Elems([]uint16{})
	c.Accept(empty)
	assert.Equal(t, []uint16{}, c.Reconstruct(empty.Addr, empty.Desc))
}

func TestSlice_AcceptRejectsOtherTypes(t *testing.T) {
	c := Slice[uint16]()
	requirePrecondition(t, func() { c.Accept(Elems([]uint32{1})) })
	requirePrecondition(t, func() { c.Accept(Str("x")) })

	forged := Elems([]uint16{1})
	forged.Size = 64
	requirePrecondition(t, func() { c.Accept(forged) })
}

func TestSlice_DropRunsInOrder(t *testing.T) {
	dropped = nil
	c := Slice[counted]()
	s := []counted{{1}, {2}, {3}}
	p := Elems(s)
	c.Drop(p.Addr, p.Desc)
	assert.Equal(t, []uint32{1, 2, 3}, dropped)

	// non-droppers are ignored
	Slice[uint8]().Drop(ZeroAddr(), MakeDescriptor(0))
}

func TestCloneElem(t *testing.T) {
	assert.Equal(t, 5, CloneElem(5))

	v := cloneMe{n: 2}
	assert.Equal(t, cloneMe{n: 3}, CloneElem(v))
}

type cloneMe struct{ n int }

func (c cloneMe) Clone() cloneMe { return cloneMe{n: c.n + 1} }

func TestDyn_BoxReconstruct(t *testing.T) {
	d := NewDyn[fmt.Stringer]()

	v := point{X: 3, Y: -4}
	p := Box(d, &v)
	assert.Equal(t, KindDyn, p.Kind)
	assert.Equal(t, 8, p.Size)
	d.Accept(p)

	words := make([]uint64, 1)
	CopyPayload(words, p.Addr, p.Size)
	h := d.Reconstruct(At(words, 0, p.Size), p.Desc)
	assert.Equal(t, "(3,-4)", h.String())
	assert.Same(t, (*point)(unsafe.Pointer(&words[0])), h.(*point))

	other := counted{id: 9}
	p2 := Box(d, &other)
	assert.Equal(t, uintptr(1), p2.Desc.Word(0))
	assert.Equal(t, []reflect.Type{reflect.TypeFor[point](), reflect.TypeFor[counted]()}, d.Registered())
}

func TestDyn_Drop(t *testing.T) {
	dropped = nil
	d := NewDyn[fmt.Stringer]()

	v := counted{id: 4}
	p := Box(d, &v)
	d.Drop(p.Addr, p.Desc)
	assert.Equal(t, []uint32{4}, dropped)

	pt := point{}
	p = Box(d, &pt)
	d.Drop(p.Addr, p.Desc)
	assert.Equal(t, []uint32{4}, dropped)
}

func TestDyn_ZeroSized(t *testing.T) {
	d := NewDyn[fmt.Stringer]()
	var u unit
	p := Box(d, &u)
	assert.Equal(t, 0, p.Size)
	assert.Equal(t, ZeroAddr(), p.Addr)
	assert.Equal(t, "unit", d.Reconstruct(ZeroAddr(), p.Desc).String())
}

func TestErase_ViewMustReturnArgument(t *testing.T) {
	d := NewDyn[fmt.Stringer]()
	a, b := point{X: 1}, point{X: 2}

	p := Erase(d, &a, func(v *point) fmt.Stringer { return v })
	assert.Equal(t, unsafe.Pointer(&a), p.Addr)

	requirePrecondition(t, func() {
		Erase(d, &a, func(*point) fmt.Stringer { return &b })
	})
	requirePrecondition(t, func() {
		Erase(d, &a, func(*point) fmt.Stringer { return nil })
	})
	requirePrecondition(t, func() {
		Erase[fmt.Stringer, point](d, nil, func(v *point) fmt.Stringer { return v })
	})
}

func TestDyn_AcceptForeignPointer(t *testing.T) {
	d1 := NewDyn[fmt.Stringer]()
	d2 := NewDyn[fmt.Stringer]()

	c := counted{}
	Box(d2, &c)
	pt := point{}
	p := Box(d2, &pt) // index 1 in d2

	requirePrecondition(t, func() { d1.Accept(p) })
	requirePrecondition(t, func() { d1.Accept(Str("x")) })
}

func TestNewDyn_RequiresInterface(t *testing.T) {
	requirePrecondition(t, func() { NewDyn[point]() })
}

func TestCheckLayout(t *testing.T) {
	CheckLayout[uint64](reflect.TypeFor[point]())
	CheckLayout[uint32](reflect.TypeFor[[4]uint16]())
	CheckLayout[uint8](nil)

	err := requirePrecondition(t, func() { CheckLayout[uint64](reflect.TypeFor[withPointer]()) })
	assert.Equal(t, errors.PhaseLayout, err.Phase)
	assert.Contains(t, err.GoType, "withPointer")

	requirePrecondition(t, func() { CheckLayout[uint8](reflect.TypeFor[point]()) })
	requirePrecondition(t, func() { CheckLayout[uint64](reflect.TypeFor[string]()) })
}

type header struct {
	Tag  uint8
	_    [3]byte
	ID   uint32
	When uint64
}

func (*header) String() string { return "header" }

func TestBind(t *testing.T) {
	d := NewDyn[fmt.Stringer]()
	rec := &wit.TypeDef{Kind: &wit.Record{Fields: []wit.Field{
		{Name: "tag", Type: wit.U8{}},
		{Name: "id", Type: wit.U32{}},
		{Name: "when", Type: wit.U64{}},
	}}}

	// the padding field makes the Go struct disagree on field count
	err := Bind[header](d, rec)
	require.Error(t, err)
	assert.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseLayout, Kind: errors.KindTypeMismatch})

	require.NoError(t, Bind[bound](d, rec))
	b := bound{Tag: 1, ID: 2, When: 3}
	p := Box(d, &b)
	assert.Equal(t, rec, d.WitType(p.Desc))

	err = Bind[point](d, wit.U64{})
	require.Error(t, err)
	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "u64", e.WitType)
}

type bound struct {
	Tag  uint8
	ID   uint32
	When uint64
}

func (*bound) String() string { return "bound" }

func TestKindString(t *testing.T) {
	assert.Equal(t, "string", KindString.String())
	assert.Equal(t, "dyn", KindDyn.String())
	assert.Equal(t, "unknown", Kind(200).String())
}
