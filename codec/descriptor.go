package codec

import (
	"reflect"
	"unsafe"

	"github.com/wippyai/dst"
	"github.com/wippyai/dst/buffer"
	"github.com/wippyai/dst/errors"
)

// MaxWords is the largest descriptor, in machine words, the codec supports.
const MaxWords = 4

const ptrSize = int(unsafe.Sizeof(uintptr(0)))

// Descriptor is the erased metadata stored ahead of every payload.
type Descriptor struct {
	words [MaxWords]uintptr
	n     uint8
}

// MakeDescriptor builds a descriptor. More than MaxWords words is fatal.
func MakeDescriptor(words ...uintptr) Descriptor {
	if len(words) > MaxWords {
		panic(errors.Precondition(errors.PhaseDecompose, "descriptor of %d words exceeds %d", len(words), MaxWords))
	}
	var d Descriptor
	copy(d.words[:], words)
	d.n = uint8(len(words))
	return d
}

// Len returns the number of machine words in use.
func (d Descriptor) Len() int { return int(d.n) }

// Word returns word i.
func (d Descriptor) Word(i int) uintptr {
	if i >= int(d.n) {
		panic(errors.OutOfBounds(errors.PhaseReconstruct, i, int(d.n)))
	}
	return d.words[i]
}

// Ptr is an explicit fat pointer: payload address plus the metadata
// needed to rebuild a typed handle.
type Ptr struct {
	Addr unsafe.Pointer
	Type reflect.Type // element type for slices, concrete type for dyn
	Desc Descriptor
	Kind Kind
	Size int // payload bytes
}

// Decompose splits p into its address and descriptor words.
func Decompose(p Ptr) (addr unsafe.Pointer, n int, words [MaxWords]uintptr) {
	if p.Kind == KindInvalid {
		panic(errors.Precondition(errors.PhaseDecompose, "zero Ptr"))
	}
	return p.Addr, p.Desc.Len(), p.Desc.words
}

// DescriptorWords returns how many W words hold a descriptor of n machine words.
func DescriptorWords[W dst.Word](n int) int {
	return buffer.WordsFor[W](n * ptrSize)
}

// StoreDescriptor copies the descriptor words into slot.
func StoreDescriptor[W dst.Word](slot []W, d Descriptor) {
	need := d.Len() * ptrSize
	if len(slot)*buffer.WordSize[W]() < need {
		panic(errors.Precondition(errors.PhaseDecompose, "descriptor slot of %d words too small for %d bytes", len(slot), need))
	}
	if need == 0 {
		return
	}
	src := unsafe.Slice((*byte)(unsafe.Pointer(&d.words[0])), need)
	copy(buffer.Bytes(slot), src)
}

// LoadDescriptor reads an n-word descriptor written by StoreDescriptor.
func LoadDescriptor[W dst.Word](src []W, n int) Descriptor {
	if n > MaxWords {
		panic(errors.Precondition(errors.PhaseReconstruct, "descriptor of %d words exceeds %d", n, MaxWords))
	}
	need := n * ptrSize
	if len(src)*buffer.WordSize[W]() < need {
		panic(errors.Precondition(errors.PhaseReconstruct, "descriptor slot of %d words too small for %d bytes", len(src), need))
	}
	var d Descriptor
	d.n = uint8(n)
	if need > 0 {
		copy(unsafe.Slice((*byte)(unsafe.Pointer(&d.words[0])), need), buffer.Bytes(src))
	}
	return d
}

func checkAddr(phase errors.Phase, reported, decomposed unsafe.Pointer) {
	if reported != decomposed {
		panic(errors.Precondition(phase, "handle address %p does not match decomposed address %p", reported, decomposed))
	}
}
