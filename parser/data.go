package parser

import (
	"bytes"

	"github.com/wippyai/ccvm-link/errors"
	"github.com/wippyai/ccvm-link/internal/binary"
	"github.com/wippyai/ccvm-link/ir"
)

// generateDataIR splits a data symbol at its relocations. Literal runs become
// DATA (or FILL in a zero-filled section) and each relocation becomes a WORD.
func (p *parser) generateDataIR(obj *ir.Object) error {
	data := obj.Section.Data
	if obj.Section.HasData() && end(obj) > uint64(len(data)) {
		return p.decodeError(obj, 0, errors.KindCorruptedInput).
			Detail("data symbol extends past section data (%d bytes)", len(data)).
			Build()
	}

	relocs, err := p.symbolRelocations(obj)
	if err != nil {
		return err
	}

	var code []ir.Instruction
	literal := func(from, to uint32) {
		if from >= to {
			return
		}
		if obj.Section.HasData() {
			code = append(code, ir.Data(bytes.Clone(data[obj.Addr+from:obj.Addr+to])))
		} else {
			code = append(code, ir.Fill(to-from))
		}
	}

	offset := uint32(0)
	for _, r := range relocs {
		if r.Type != ir.RelocData {
			return p.decodeError(obj, r.Offset, errors.KindRelocation).
				Detail("non-data relocation %s in data symbol", r.Type).
				Build()
		}
		literal(offset, r.Offset)
		addend, _ := binary.Uint32At(data, obj.Addr+r.Offset)
		code = append(code, ir.Word(ir.Value{Addend: addend, Symbol: r.Symbol}))
		offset = r.Offset + r.Type.Size()
	}
	literal(offset, obj.Size)

	obj.IR = code
	return nil
}
