package codec

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/wippyai/dst/codec/internal/layout"
	"github.com/wippyai/dst/errors"
	"go.bytecodealliance.org/wit"
)

// Bind registers U with d and checks that the Go memory layout of U
// matches the Canonical ABI layout of witType, so a WebAssembly guest can
// read stored payloads in place from linear memory.
func Bind[U, T any](d *Dyn[T], witType wit.Type) error {
	idx, vt := register[T, U](d)

	d.mu.Lock()
	defer d.mu.Unlock()

	info := d.calc.Calculate(witType)
	if err := matchLayout(vt.typ, witType, info, d.calc); err != nil {
		return err
	}
	d.tables[idx].wit = witType
	return nil
}

func matchLayout(t reflect.Type, witType wit.Type, info layout.Info, calc *layout.Calculator) error {
	if uintptr(info.Size) != t.Size() || info.Align != uint32(t.Align()) {
		return errors.New(errors.PhaseLayout, errors.KindTypeMismatch).
			GoType(t.String()).
			WitType(witName(witType)).
			Detail("size/align %d/%d, canonical ABI needs %d/%d", t.Size(), t.Align(), info.Size, info.Align).
			Build()
	}
	if info.Fields == nil {
		return nil
	}
	if t.Kind() != reflect.Struct || t.NumField() != len(info.Fields) {
		return errors.New(errors.PhaseLayout, errors.KindTypeMismatch).
			GoType(t.String()).
			WitType(witName(witType)).
			Detail("need a struct with %d fields", len(info.Fields)).
			Build()
	}
	members := witMembers(witType)
	for i, off := range info.Fields {
		f := t.Field(i)
		if uint32(f.Offset) != off {
			return errors.New(errors.PhaseLayout, errors.KindTypeMismatch).
				GoType(t.String()).
				WitType(witName(witType)).
				Detail("field %s at offset %d, canonical ABI needs %d", f.Name, f.Offset, off).
				Build()
		}
		if i < len(members) {
			if err := matchLayout(f.Type, members[i], calc.Calculate(members[i]), calc); err != nil {
				return err
			}
		}
	}
	return nil
}

func witMembers(t wit.Type) []wit.Type {
	td, ok := t.(*wit.TypeDef)
	if !ok {
		return nil
	}
	switch k := td.Kind.(type) {
	case *wit.Record:
		out := make([]wit.Type, len(k.Fields))
		for i, f := range k.Fields {
			out[i] = f.Type
		}
		return out
	case *wit.Tuple:
		return k.Types
	}
	return nil
}

func witName(t wit.Type) string {
	var v any = t
	if td, ok := t.(*wit.TypeDef); ok {
		v = td.Kind
	}
	name := fmt.Sprintf("%T", v)
	name = strings.TrimPrefix(name, "*")
	name = strings.TrimPrefix(name, "wit.")
	return strings.ToLower(name)
}
