package parser

import (
	stderrors "errors"

	"github.com/wippyai/ccvm-link/errors"
	"github.com/wippyai/ccvm-link/ir"
)

// generateIR decodes the bytes of every data and function symbol.
func (p *parser) generateIR() error {
	tab := p.prog.Symbols
	for _, id := range p.prog.Unique() {
		var err error
		switch s := tab.Get(id).(type) {
		case *ir.DataSymbol:
			err = p.generateDataIR(&s.Object)
		case *ir.FunctionSymbol:
			err = p.generateFunctionIR(id, s)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) generateFunctionIR(id ir.SymbolID, fn *ir.FunctionSymbol) error {
	obj := &fn.Object
	tab := p.prog.Symbols

	innerAt := make(map[uint32]*ir.FunctionInnerSymbol, len(obj.Inner))
	for _, innerID := range obj.Inner {
		inner, ok := tab.Get(innerID).(*ir.FunctionInnerSymbol)
		if !ok {
			continue
		}
		if inner.Offset > obj.Size || inner.Offset%ir.InstructionSize != 0 {
			return p.decodeError(obj, inner.Offset, errors.KindInvalidData).
				Detail("invalid inner symbol %q offset 0x%x", inner.Name, inner.Offset).
				Build()
		}
		innerAt[inner.Offset] = inner
	}

	if !obj.Section.HasData() {
		return p.decodeError(obj, 0, errors.KindInvalidData).
			Detail("function %q has no bytes", obj.Name).
			Build()
	}
	if obj.Size%ir.InstructionSize != 0 {
		return p.decodeError(obj, 0, errors.KindInvalidData).
			Detail("function size %d is not a multiple of %d", obj.Size, ir.InstructionSize).
			Build()
	}
	if end(obj) > uint64(len(obj.Section.Data)) {
		return p.decodeError(obj, 0, errors.KindCorruptedInput).
			Detail("function extends past section data (%d bytes)", len(obj.Section.Data)).
			Build()
	}

	relocs, err := p.symbolRelocations(obj)
	if err != nil {
		return err
	}

	labels := ir.NewLabelSet()
	code := make([]ir.Instruction, 0, obj.Size/ir.InstructionSize)
	next := 0
	for off := uint32(0); off < obj.Size; off += ir.InstructionSize {
		var slot []ir.Relocation
		for next < len(relocs) && relocs[next].Offset < off+ir.InstructionSize {
			slot = append(slot, relocs[next])
			next++
		}
		target, err := p.slotRelocation(obj, off, slot)
		if err != nil {
			return err
		}

		at := obj.Addr + off
		raw, err := ir.DecodeRaw(obj.Section.Data[at : at+ir.InstructionSize])
		if err != nil {
			return p.decodeError(obj, off, errors.KindCorruptedInput).Cause(err).Build()
		}
		in, err := ir.Decode(raw, target)
		switch {
		case stderrors.Is(err, ir.ErrUnknownOpcode):
			e := errors.UnknownOpcode(obj.Name, off, raw.Opcode)
			e.Section = obj.Section.Name
			return e
		case stderrors.Is(err, ir.ErrUnsupportedRelocation):
			return p.decodeError(obj, off, errors.KindUnsupportedRelocation).
				Cause(err).
				Detail("relocation in %s instruction", ir.Opcode(raw.Opcode)).
				Build()
		case err != nil:
			return p.decodeError(obj, off, errors.KindInvalidData).Cause(err).Build()
		}

		in, err = p.defineLabels(obj, labels, in, off)
		if err != nil {
			return err
		}
		if inner, ok := innerAt[off]; ok {
			inner.Instruction = len(code)
		}
		code = append(code, in)
	}

	obj.IR = code
	p.labels[id] = labels
	return nil
}

// slotRelocation validates the relocations inside one instruction slot.
// A relocation must cover the whole slot (INSTR at +0) or only the value
// field (DATA at +4); the latter is normalized to the former.
func (p *parser) slotRelocation(obj *ir.Object, off uint32, slot []ir.Relocation) (ir.SymbolID, error) {
	target := ir.NoSymbol
	var atStart, atValue bool
	for _, r := range slot {
		switch r.Offset - off {
		case 0:
			if r.Type != ir.RelocInstr {
				return ir.NoSymbol, p.decodeError(obj, r.Offset, errors.KindRelocation).
					Detail("%s relocation at instruction start, want INSTR", r.Type).
					Build()
			}
			atStart = true
		case 4:
			if r.Type != ir.RelocData {
				return ir.NoSymbol, p.decodeError(obj, r.Offset, errors.KindRelocation).
					Detail("%s relocation at instruction value, want DATA", r.Type).
					Build()
			}
			atValue = true
		default:
			return ir.NoSymbol, p.decodeError(obj, r.Offset, errors.KindRelocation).
				Detail("invalid relocation position +%d in instruction", r.Offset-off).
				Build()
		}
		target = r.Symbol
	}
	if atStart && atValue {
		return ir.NoSymbol, p.decodeError(obj, off, errors.KindRelocation).
			Detail("two relocations in the same instruction").
			Build()
	}
	return target, nil
}

// defineLabels records the label definitions and aliases an instruction carries.
func (p *parser) defineLabels(obj *ir.Object, labels *ir.LabelSet, in ir.Instruction, off uint32) (ir.Instruction, error) {
	switch imm := in.Imm.(type) {
	case ir.LabelDefImm:
		if in.Op == ir.OpLabelAbsolute {
			labels.Define(imm.Label, ir.LabelDef{Kind: ir.LabelAbsolute, Value: imm.Value})
			return in, nil
		}
		addr := imm.Value + off
		if addr%ir.InstructionSize != 0 || addr > obj.Size {
			return in, p.decodeError(obj, off, errors.KindLabelResolution).
				Value(imm.Label).
				Detail("invalid label %d address 0x%x", imm.Label, addr).
				Build()
		}
		imm.Target = addr / ir.InstructionSize
		labels.Define(imm.Label, ir.LabelDef{Kind: ir.LabelRelative, Value: imm.Target})
		in.Imm = imm
	case ir.AliasImm:
		labels.Alias(imm.Label1, imm.Label2)
	}
	return in, nil
}

func (p *parser) decodeError(obj *ir.Object, off uint32, kind errors.Kind) *errors.Builder {
	return errors.New(errors.PhaseDecode, kind).
		Section(obj.Section.Name).
		Symbol(obj.Name).
		Offset(off)
}
