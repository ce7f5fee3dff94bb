package codec

import (
	"unsafe"

	"github.com/wippyai/dst/errors"
)

type stringCodec struct{}

// String returns the codec for string payloads.
func String() Codec[string] { return stringCodec{} }

// Str decomposes s into a string Ptr.
func Str(s string) Ptr {
	addr := unsafe.Pointer(unsafe.StringData(s))
	if len(s) == 0 {
		addr = ZeroAddr()
	} else {
		checkAddr(errors.PhaseDecompose, addr, unsafe.Pointer(&unsafe.Slice(unsafe.StringData(s), len(s))[0]))
	}
	return Ptr{
		Addr: addr,
		Kind: KindString,
		Desc: MakeDescriptor(uintptr(len(s))),
		Size: len(s),
	}
}

func (stringCodec) Kind() Kind     { return KindString }
func (stringCodec) DescWords() int { return 1 }

func (stringCodec) Accept(p Ptr) {
	if p.Kind != KindString {
		panic(mismatch(KindString, p, "kind"))
	}
	if p.Desc.Len() != 1 || int(p.Desc.Word(0)) != p.Size {
		panic(mismatch(KindString, p, "length does not match descriptor"))
	}
}

func (stringCodec) Size(d Descriptor) int { return int(d.Word(0)) }

func (stringCodec) Reconstruct(addr unsafe.Pointer, d Descriptor) string {
	n := int(d.Word(0))
	if n == 0 {
		return ""
	}
	return unsafe.String((*byte)(addr), n)
}

func (stringCodec) Drop(unsafe.Pointer, Descriptor) {}
