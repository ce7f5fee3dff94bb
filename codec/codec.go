package codec

import (
	"reflect"
	"sync"
	"unsafe"

	"github.com/wippyai/dst"
	"github.com/wippyai/dst/buffer"
	"github.com/wippyai/dst/errors"
)

// Codec rebuilds handles of type T from stored payloads.
type Codec[T any] interface {
	// Kind reports the descriptor interpretation this codec accepts.
	Kind() Kind
	// DescWords is the fixed descriptor length in machine words.
	DescWords() int
	// Accept validates p against this codec. A mismatch is fatal.
	Accept(p Ptr)
	// Size returns the payload byte size described by d.
	Size(d Descriptor) int
	// Reconstruct builds a handle over the payload at addr.
	Reconstruct(addr unsafe.Pointer, d Descriptor) T
	// Drop runs destructors for the payload at addr.
	Drop(addr unsafe.Pointer, d Descriptor)
}

// Dropper is implemented by stored values that need cleanup when removed
// from a container. Drop is called exactly once per stored value.
type Dropper interface {
	Drop()
}

// Cloner is implemented by element types that need more than a bitwise
// copy when a sequence is cloned into a container.
type Cloner[E any] interface {
	Clone() E
}

var dropperType = reflect.TypeFor[Dropper]()

// zeroSentinel provides a stable non-nil address for zero-sized payloads.
var zeroSentinel uintptr

// ZeroAddr returns the address zero-sized payloads reconstruct over.
func ZeroAddr() unsafe.Pointer {
	return unsafe.Pointer(&zeroSentinel)
}

// At returns the address of a size-byte payload starting at words[off].
func At[W dst.Word](words []W, off, size int) unsafe.Pointer {
	if size == 0 {
		return ZeroAddr()
	}
	return unsafe.Pointer(&words[off])
}

// CopyPayload copies the size bytes at src into to.
func CopyPayload[W dst.Word](to []W, src unsafe.Pointer, size int) {
	if size == 0 {
		return
	}
	copy(buffer.Bytes(to), unsafe.Slice((*byte)(src), size))
}

type layoutKey struct {
	t     reflect.Type
	align int
}

var layoutCache sync.Map // layoutKey -> struct{}

// CheckLayout verifies that t can live in a buffer of W words: it must be
// free of Go pointers and need no more alignment than W. Violation is fatal.
func CheckLayout[W dst.Word](t reflect.Type) {
	if t == nil {
		return
	}
	key := layoutKey{t: t, align: buffer.WordAlign[W]()}
	if _, ok := layoutCache.Load(key); ok {
		return
	}
	if !pointerFree(t) {
		panic(errors.New(errors.PhaseLayout, errors.KindPrecondition).
			GoType(t.String()).
			Detail("type holds Go pointers and cannot be stored in a word buffer").
			Build())
	}
	if t.Align() > key.align {
		panic(errors.New(errors.PhaseLayout, errors.KindPrecondition).
			GoType(t.String()).
			Detail("alignment %d exceeds word alignment %d", t.Align(), key.align).
			Build())
	}
	layoutCache.Store(key, struct{}{})
}

func pointerFree(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Array:
		return t.Len() == 0 || pointerFree(t.Elem())
	case reflect.Struct:
		for i := range t.NumField() {
			if !pointerFree(t.Field(i).Type) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func mismatch(want Kind, p Ptr, detail string) *errors.Error {
	b := errors.New(errors.PhaseReconstruct, errors.KindPrecondition).
		Detail("%s codec given %s pointer: %s", want, p.Kind, detail)
	if p.Type != nil {
		b.GoType(p.Type.String())
	}
	return b.Build()
}
