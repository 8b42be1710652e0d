package parser

import (
	"github.com/wippyai/ccvm-link/errors"
	"github.com/wippyai/ccvm-link/ir"
)

// resolveLabels replaces every function's IR with a label-free list.
func (p *parser) resolveLabels() error {
	tab := p.prog.Symbols
	for _, id := range p.prog.Unique() {
		fn, ok := tab.Get(id).(*ir.FunctionSymbol)
		if !ok {
			continue
		}
		labels, ok := p.labels[id]
		if !ok {
			continue
		}
		code, err := ResolveLabels(fn.IR, labels)
		if err != nil {
			if e, ok := err.(*errors.Error); ok {
				e.Section = fn.Section.Name
				e.Symbol = fn.Name
			}
			return err
		}
		fn.IR = code
	}
	return nil
}

// ResolveLabels returns a copy of code with every label use rewritten to its
// single definition. Jumps become JUMP_INSTR or JUMP_COND_INSTR and need an
// instruction definition; PUSH_BLOCK_LABEL becomes PUSH_BLOCK_CONST and needs
// an absolute one, or EMPTY when optional and zero. Label pseudo-instructions
// become EMPTY. The input slice is not modified.
func ResolveLabels(code []ir.Instruction, labels *ir.LabelSet) ([]ir.Instruction, error) {
	out := make([]ir.Instruction, len(code))
	for i, in := range code {
		switch imm := in.Imm.(type) {
		case ir.LabelImm:
			def, err := resolveLabel(labels, imm.Label, len(code), i)
			if err != nil {
				return nil, err
			}
			if def.Kind != ir.LabelRelative {
				return nil, labelError(i, imm.Label, "absolute label address not allowed in JUMP instructions")
			}
			out[i] = ir.Instruction{Op: ir.OpJumpInstr, Imm: ir.JumpInstrImm{Target: int(def.Value)}, References: in.References}
		case ir.CondLabelImm:
			def, err := resolveLabel(labels, imm.Label, len(code), i)
			if err != nil {
				return nil, err
			}
			if def.Kind != ir.LabelRelative {
				return nil, labelError(i, imm.Label, "absolute label address not allowed in JUMP instructions")
			}
			out[i] = ir.Instruction{Op: ir.OpJumpCondInstr, Imm: ir.CondInstrImm{Target: int(def.Value), Cond: imm.Cond}, References: in.References}
		case ir.PushBlockLabelImm:
			def, err := resolveLabel(labels, imm.Label, len(code), i)
			if err != nil {
				return nil, err
			}
			if def.Kind != ir.LabelAbsolute {
				return nil, labelError(i, imm.Label, "relative label address not allowed in PUSH_BLOCK instruction")
			}
			if imm.Optional && def.Value == 0 {
				out[i] = ir.Empty()
				continue
			}
			out[i] = ir.Instruction{
				Op:         ir.OpPushBlockConst,
				Imm:        ir.PushBlockImm{Reg: imm.Reg, Value: ir.Const(def.Value), Optional: imm.Optional},
				References: in.References,
			}
		case ir.LabelDefImm, ir.AliasImm:
			out[i] = ir.Empty()
		default:
			out[i] = in
		}
	}
	return out, nil
}

func resolveLabel(labels *ir.LabelSet, label uint32, n, at int) (ir.LabelDef, error) {
	def, err := labels.Resolve(label)
	if err != nil {
		return def, errors.New(errors.PhaseResolve, errors.KindLabelResolution).
			Offset(uint32(at*ir.InstructionSize)).
			Value(label).
			Cause(err).
			Detail("cannot resolve label %d", label).
			Build()
	}
	if def.Kind == ir.LabelRelative && int(def.Value) >= n {
		return def, labelError(at, label, "invalid label instruction offset %d", def.Value)
	}
	return def, nil
}

func labelError(at int, label uint32, detail string, args ...any) *errors.Error {
	return errors.New(errors.PhaseResolve, errors.KindLabelResolution).
		Offset(uint32(at*ir.InstructionSize)).
		Value(label).
		Detail(detail, args...).
		Build()
}
