package linear

// memoryModule encodes a module that defines one memory of minPages pages,
// capped at maxPages, and exports it as "memory".
func memoryModule(minPages, maxPages uint32) []byte {
	var wasm []byte

	// Magic and version
	wasm = append(wasm, 0x00, 0x61, 0x73, 0x6d)
	wasm = append(wasm, 0x01, 0x00, 0x00, 0x00)

	// Memory section
	var mem []byte
	mem = append(mem, 0x01) // one memory
	mem = append(mem, 0x01) // limits with max
	mem = append(mem, encodeULEB128(minPages)...)
	mem = append(mem, encodeULEB128(maxPages)...)
	wasm = append(wasm, 0x05)
	wasm = append(wasm, encodeULEB128(uint32(len(mem)))...)
	wasm = append(wasm, mem...)

	// Export section
	var exp []byte
	exp = append(exp, 0x01)
	exp = append(exp, encodeULEB128(uint32(len(exportName)))...)
	exp = append(exp, exportName...)
	exp = append(exp, 0x02, 0x00) // memory 0
	wasm = append(wasm, 0x07)
	wasm = append(wasm, encodeULEB128(uint32(len(exp)))...)
	wasm = append(wasm, exp...)

	return wasm
}

func encodeULEB128(v uint32) []byte {
	var result []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		result = append(result, b)
		if v == 0 {
			break
		}
	}
	return result
}
