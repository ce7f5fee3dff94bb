package codec

import (
	"reflect"
	"sync"
	"unsafe"

	"github.com/wippyai/dst/codec/internal/layout"
	"github.com/wippyai/dst/errors"
	"go.bytecodealliance.org/wit"
)

// vtable is the dispatch entry for one concrete payload type.
type vtable[T any] struct {
	typ  reflect.Type
	wit  wit.Type
	make func(unsafe.Pointer) T
	drop func(unsafe.Pointer)
	size int
}

// Dyn stores values of any pointer-free type U whose *U implements the
// interface T. Descriptor word 0 indexes a per-codec vtable.
//
// A Dyn may be shared by many containers. Its vtable registry is safe for
// concurrent use.
type Dyn[T any] struct {
	index  map[reflect.Type]int
	calc   *layout.Calculator
	tables []*vtable[T]
	mu     sync.RWMutex
}

// NewDyn creates a capability codec for the interface type T.
func NewDyn[T any]() *Dyn[T] {
	t := reflect.TypeFor[T]()
	if t.Kind() != reflect.Interface {
		panic(errors.New(errors.PhaseLayout, errors.KindPrecondition).
			GoType(t.String()).
			Detail("dyn codec requires an interface type").
			Build())
	}
	return &Dyn[T]{
		index: make(map[reflect.Type]int),
		calc:  layout.NewCalculator(),
	}
}

// register returns the vtable index for U, creating it on first use.
func register[T, U any](d *Dyn[T]) (int, *vtable[T]) {
	t := reflect.TypeFor[U]()

	d.mu.RLock()
	idx, ok := d.index[t]
	var vt *vtable[T]
	if ok {
		vt = d.tables[idx]
	}
	d.mu.RUnlock()
	if ok {
		return idx, vt
	}

	iface := reflect.TypeFor[T]()
	if !reflect.PointerTo(t).Implements(iface) {
		panic(errors.New(errors.PhaseDecompose, errors.KindPrecondition).
			GoType(t.String()).
			Detail("*%s does not implement %s", t, iface).
			Build())
	}

	vt = &vtable[T]{
		typ:  t,
		size: int(t.Size()),
		make: func(p unsafe.Pointer) T {
			return any((*U)(p)).(T)
		},
	}
	if reflect.PointerTo(t).Implements(dropperType) {
		vt.drop = func(p unsafe.Pointer) {
			any((*U)(p)).(Dropper).Drop()
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if idx, ok := d.index[t]; ok {
		return idx, d.tables[idx]
	}
	idx = len(d.tables)
	d.tables = append(d.tables, vt)
	d.index[t] = idx
	return idx, vt
}

func (d *Dyn[T]) table(desc Descriptor) *vtable[T] {
	idx := int(desc.Word(0))
	d.mu.RLock()
	defer d.mu.RUnlock()
	if idx >= len(d.tables) {
		panic(errors.Precondition(errors.PhaseReconstruct, "vtable index %d out of range (%d registered)", idx, len(d.tables)))
	}
	return d.tables[idx]
}

// Erase decomposes the handle view(v) into a dyn Ptr. view must return
// its argument converted to T; any other result is fatal.
func Erase[T, U any](d *Dyn[T], v *U, view func(*U) T) Ptr {
	if v == nil {
		panic(errors.Precondition(errors.PhaseDecompose, "nil value"))
	}
	idx, vt := register[T, U](d)

	h := view(v)
	rv := reflect.ValueOf(&h).Elem()
	if rv.IsNil() {
		panic(errors.Precondition(errors.PhaseDecompose, "view returned a nil handle"))
	}
	dv := rv.Elem()
	if dv.Kind() != reflect.Pointer || dv.Type().Elem() != vt.typ {
		panic(errors.New(errors.PhaseDecompose, errors.KindPrecondition).
			GoType(dv.Type().String()).
			Detail("view must return *%s", vt.typ).
			Build())
	}
	checkAddr(errors.PhaseDecompose, dv.UnsafePointer(), unsafe.Pointer(v))

	addr := unsafe.Pointer(v)
	if vt.size == 0 {
		addr = ZeroAddr()
	}
	return Ptr{
		Addr: addr,
		Type: vt.typ,
		Kind: KindDyn,
		Desc: MakeDescriptor(uintptr(idx)),
		Size: vt.size,
	}
}

// Box decomposes v into a dyn Ptr using the plain *U to T conversion.
func Box[T, U any](d *Dyn[T], v *U) Ptr {
	return Erase(d, v, func(u *U) T { return any(u).(T) })
}

// Registered returns the concrete types known to d, in vtable order.
func (d *Dyn[T]) Registered() []reflect.Type {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]reflect.Type, len(d.tables))
	for i, vt := range d.tables {
		out[i] = vt.typ
	}
	return out
}

// WitType returns the WIT type bound to the payload described by desc, if any.
func (d *Dyn[T]) WitType(desc Descriptor) wit.Type {
	return d.table(desc).wit
}

func (d *Dyn[T]) Kind() Kind     { return KindDyn }
func (d *Dyn[T]) DescWords() int { return 1 }

func (d *Dyn[T]) Accept(p Ptr) {
	if p.Kind != KindDyn {
		panic(mismatch(KindDyn, p, "kind"))
	}
	if p.Desc.Len() != 1 {
		panic(mismatch(KindDyn, p, "descriptor length"))
	}
	idx := int(p.Desc.Word(0))
	d.mu.RLock()
	var vt *vtable[T]
	if idx < len(d.tables) {
		vt = d.tables[idx]
	}
	d.mu.RUnlock()
	if vt == nil || vt.typ != p.Type || vt.size != p.Size {
		panic(mismatch(KindDyn, p, "pointer was not erased by this codec"))
	}
}

func (d *Dyn[T]) Size(desc Descriptor) int { return d.table(desc).size }

func (d *Dyn[T]) Reconstruct(addr unsafe.Pointer, desc Descriptor) T {
	return d.table(desc).make(addr)
}

func (d *Dyn[T]) Drop(addr unsafe.Pointer, desc Descriptor) {
	if drop := d.table(desc).drop; drop != nil {
		drop(addr)
	}
}
