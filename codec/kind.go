package codec

// Kind identifies how a descriptor is interpreted.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindString       // desc[0] = byte length
	KindSlice        // desc[0] = element count
	KindDyn          // desc[0] = vtable index
)

var kindNames = [...]string{
	KindInvalid: "invalid",
	KindString:  "string",
	KindSlice:   "slice",
	KindDyn:     "dyn",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}
