package ir

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	// ErrUnknownOpcode is returned when a slot carries an opcode that cannot be decoded.
	ErrUnknownOpcode = errors.New("unknown opcode")
	// ErrUnsupportedRelocation is returned when a relocation targets an opcode without a value operand.
	ErrUnsupportedRelocation = errors.New("relocation not supported by opcode")
	// ErrNotEncodable is returned when an IR-only instruction is passed to EncodeInstruction.
	ErrNotEncodable = errors.New("instruction has no fixed-width encoding")
)

// RawInstruction is the fixed 12-byte encoding of a function instruction:
// opcode, op2, reg, reg2, then two little-endian words.
type RawInstruction struct {
	Value  uint32
	Value2 uint32
	Opcode uint8
	Op2    uint8
	Reg    uint8
	Reg2   uint8
}

// DecodeRaw splits a 12-byte slot into its fields.
func DecodeRaw(b []byte) (RawInstruction, error) {
	if len(b) < InstructionSize {
		return RawInstruction{}, fmt.Errorf("instruction slot too short: %d bytes", len(b))
	}
	return RawInstruction{
		Opcode: b[0],
		Op2:    b[1],
		Reg:    b[2],
		Reg2:   b[3],
		Value:  binary.LittleEndian.Uint32(b[4:8]),
		Value2: binary.LittleEndian.Uint32(b[8:12]),
	}, nil
}

// Encode returns the 12-byte encoding of r.
func (r RawInstruction) Encode() []byte {
	b := make([]byte, InstructionSize)
	b[0] = r.Opcode
	b[1] = r.Op2
	b[2] = r.Reg
	b[3] = r.Reg2
	binary.LittleEndian.PutUint32(b[4:8], r.Value)
	binary.LittleEndian.PutUint32(b[8:12], r.Value2)
	return b
}

// Decode maps a raw slot to a typed instruction. reloc is the symbol the
// slot's value field is relocated against, or NoSymbol. Label operands are
// returned unresolved; LabelDefImm.Target is left for the caller.
func Decode(r RawInstruction, reloc SymbolID) (Instruction, error) {
	op := Opcode(r.Opcode)
	if !op.Decodable() {
		return Instruction{}, fmt.Errorf("%w %d", ErrUnknownOpcode, r.Opcode)
	}
	if reloc.Valid() && !op.AllowsRelocation() {
		return Instruction{}, fmt.Errorf("%w %s", ErrUnsupportedRelocation, op)
	}

	in := Instruction{Op: op}
	value := Value{Addend: r.Value, Symbol: reloc}
	if reloc.Valid() {
		in.References = []SymbolID{reloc}
	}

	switch op {
	case OpMovReg:
		in.Imm = TwoRegImm{Dst: r.Reg, Src: r.Reg2}
	case OpMovConst:
		in.Imm = RegValueImm{Reg: r.Reg, Value: value}
	case OpLabelRelative, OpLabelAbsolute:
		in.Imm = LabelDefImm{Label: r.Value, Value: r.Value2}
	case OpWriteConst, OpReadConst:
		in.Imm = MemConstImm{Reg: r.Reg, Flags: MemFlags(r.Op2), Value: value}
	case OpWriteReg, OpReadReg:
		in.Imm = MemRegImm{Reg: r.Reg, AddrReg: r.Reg2, Flags: MemFlags(r.Op2)}
	case OpJumpCondLabel:
		in.Imm = CondLabelImm{Label: r.Value, Cond: Cond(r.Op2)}
	case OpJumpConst, OpCallConst, OpHost, OpPopBlockConst, OpWord:
		in.Imm = ValueImm{Value: value}
	case OpJumpLabel:
		in.Imm = LabelImm{Label: r.Value}
	case OpJumpReg, OpCallReg:
		in.Imm = RegImm{Reg: r.Reg}
	case OpPush, OpPop:
		in.Imm = StackImm{Reg: r.Reg, Bytes: r.Op2}
	case OpPushBlockConst:
		in.Imm = PushBlockImm{Reg: r.Reg, Value: value, Optional: r.Op2 != 0}
	case OpPushBlockLabel:
		in.Imm = PushBlockLabelImm{Reg: r.Reg, Label: r.Value, Optional: r.Op2 != 0}
	case OpBinOp:
		in.Imm = BinOpImm{Dst: r.Reg, Src: r.Reg2, Op: BinOp(r.Op2)}
	case OpBinOpConst:
		in.Imm = BinOpConstImm{Reg: r.Reg, Op: BinOp(r.Op2), Value: value}
	case OpReturn:
	case OpLabelAlias:
		in.Imm = AliasImm{Label1: r.Value, Label2: r.Value2}
	case OpData:
		n := min(int(r.Op2), 8)
		var buf [8]byte
		binary.LittleEndian.PutUint32(buf[0:4], r.Value)
		binary.LittleEndian.PutUint32(buf[4:8], r.Value2)
		in.Imm = DataImm{Data: append([]byte(nil), buf[:n]...)}
	case OpFill:
		in.Imm = FillImm{Size: r.Value}
	}
	return in, nil
}

// EncodeInstruction maps a decodable instruction back to its fixed fields.
// Relocation targets are not encoded; only the addend lands in the value field.
func EncodeInstruction(in Instruction) (RawInstruction, error) {
	if !in.Op.Decodable() {
		return RawInstruction{}, fmt.Errorf("%w: %s", ErrNotEncodable, in.Op)
	}
	r := RawInstruction{Opcode: uint8(in.Op)}
	switch imm := in.Imm.(type) {
	case nil:
	case TwoRegImm:
		r.Reg, r.Reg2 = imm.Dst, imm.Src
	case RegValueImm:
		r.Reg, r.Value = imm.Reg, imm.Value.Addend
	case LabelDefImm:
		r.Value, r.Value2 = imm.Label, imm.Value
	case MemConstImm:
		r.Reg, r.Op2, r.Value = imm.Reg, uint8(imm.Flags), imm.Value.Addend
	case MemRegImm:
		r.Reg, r.Reg2, r.Op2 = imm.Reg, imm.AddrReg, uint8(imm.Flags)
	case CondLabelImm:
		r.Value, r.Op2 = imm.Label, uint8(imm.Cond)
	case ValueImm:
		r.Value = imm.Value.Addend
	case LabelImm:
		r.Value = imm.Label
	case RegImm:
		r.Reg = imm.Reg
	case StackImm:
		r.Reg, r.Op2 = imm.Reg, imm.Bytes
	case PushBlockImm:
		r.Reg, r.Value, r.Op2 = imm.Reg, imm.Value.Addend, boolByte(imm.Optional)
	case PushBlockLabelImm:
		r.Reg, r.Value, r.Op2 = imm.Reg, imm.Label, boolByte(imm.Optional)
	case BinOpImm:
		r.Reg, r.Reg2, r.Op2 = imm.Dst, imm.Src, uint8(imm.Op)
	case BinOpConstImm:
		r.Reg, r.Op2, r.Value = imm.Reg, uint8(imm.Op), imm.Value.Addend
	case AliasImm:
		r.Value, r.Value2 = imm.Label1, imm.Label2
	case DataImm:
		if len(imm.Data) > 8 {
			return RawInstruction{}, fmt.Errorf("%w: DATA with %d bytes", ErrNotEncodable, len(imm.Data))
		}
		var buf [8]byte
		copy(buf[:], imm.Data)
		r.Op2 = uint8(len(imm.Data))
		r.Value = binary.LittleEndian.Uint32(buf[0:4])
		r.Value2 = binary.LittleEndian.Uint32(buf[4:8])
	case FillImm:
		r.Value = imm.Size
	default:
		return RawInstruction{}, fmt.Errorf("%w: %s with %T", ErrNotEncodable, in.Op, in.Imm)
	}
	return r, nil
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
