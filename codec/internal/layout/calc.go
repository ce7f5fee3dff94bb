package layout

import (
	"go.bytecodealliance.org/wit"
)

// Info is the Canonical ABI memory layout of a WIT type.
type Info struct {
	Fields []uint32 // record and tuple member offsets, in declaration order
	Size   uint32
	Align  uint32
}

// Calculator computes and memoizes layouts of WIT type definitions. It is
// not safe for concurrent use.
type Calculator struct {
	cache map[*wit.TypeDef]Info
}

func NewCalculator() *Calculator {
	return &Calculator{cache: map[*wit.TypeDef]Info{}}
}

func scalar(n uint32) Info { return Info{Size: n, Align: n} }

// empty is the layout of types with no storage.
var empty = Info{Align: 1}

// Calculate returns the layout of t. Types without a memory
// representation (resources, futures) report an empty layout.
func (c *Calculator) Calculate(t wit.Type) Info {
	switch t := t.(type) {
	case wit.Bool, wit.U8, wit.S8:
		return scalar(1)
	case wit.U16, wit.S16:
		return scalar(2)
	case wit.U32, wit.S32, wit.F32, wit.Char:
		return scalar(4)
	case wit.U64, wit.S64, wit.F64:
		return scalar(8)
	case wit.String:
		// (ptr, len) pair of u32
		return Info{Size: 8, Align: 4}
	case *wit.TypeDef:
		return c.typeDef(t)
	}
	return empty
}

func (c *Calculator) typeDef(t *wit.TypeDef) Info {
	if info, ok := c.cache[t]; ok {
		return info
	}
	var info Info
	switch kind := t.Kind.(type) {
	case *wit.Record:
		types := make([]wit.Type, len(kind.Fields))
		for i, f := range kind.Fields {
			types[i] = f.Type
		}
		info = c.sequence(types)
	case *wit.Tuple:
		info = c.sequence(kind.Types)
	case *wit.Enum:
		info = scalar(DiscriminantSize(len(kind.Cases)))
	case *wit.Flags:
		info = flags(len(kind.Flags))
	case *wit.List:
		info = Info{Size: 8, Align: 4}
	case *wit.Option:
		info = c.tagged(1, kind.Type)
	case *wit.Result:
		info = c.tagged(1, kind.OK, kind.Err)
	case *wit.Variant:
		cases := make([]wit.Type, len(kind.Cases))
		for i, cs := range kind.Cases {
			cases[i] = cs.Type
		}
		info = c.tagged(DiscriminantSize(len(kind.Cases)), cases...)
	case wit.Type:
		info = c.Calculate(kind)
	default:
		info = empty
	}

	c.cache[t] = info
	return info
}

// sequence lays members out in order with natural padding.
func (c *Calculator) sequence(types []wit.Type) Info {
	if len(types) == 0 {
		return empty
	}
	info := Info{Fields: make([]uint32, len(types)), Align: 1}
	var end uint32
	for i, typ := range types {
		m := c.Calculate(typ)
		info.Fields[i] = AlignTo(end, m.Align)
		end = info.Fields[i] + m.Size
		info.Align = max(info.Align, m.Align)
	}
	info.Size = AlignTo(end, info.Align)
	return info
}

// tagged lays out a discriminant followed by the largest payload case.
// Nil cases carry no payload.
func (c *Calculator) tagged(disc uint32, cases ...wit.Type) Info {
	align, payload := disc, uint32(0)
	for _, cs := range cases {
		if cs == nil {
			continue
		}
		m := c.Calculate(cs)
		align = max(align, m.Align)
		payload = max(payload, m.Size)
	}
	return Info{
		Size:  AlignTo(AlignTo(disc, align)+payload, align),
		Align: align,
	}
}

// flags packs n bits into the smallest integer, or u32 chunks past 64.
func flags(n int) Info {
	switch {
	case n == 0:
		return empty
	case n <= 8:
		return scalar(1)
	case n <= 16:
		return scalar(2)
	case n <= 32:
		return scalar(4)
	case n <= 64:
		return scalar(8)
	}
	return Info{Size: uint32((n + 31) / 32 * 4), Align: 4}
}

// AlignTo rounds offset up to a multiple of align, which must be a power of two.
func AlignTo(offset, align uint32) uint32 {
	if align <= 1 {
		return offset
	}
	return (offset + align - 1) &^ (align - 1)
}

// DiscriminantSize is the byte width of a tag selecting among n cases.
func DiscriminantSize(n int) uint32 {
	switch {
	case n <= 1<<8:
		return 1
	case n <= 1<<16:
		return 2
	}
	return 4
}
