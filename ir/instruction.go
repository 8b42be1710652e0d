package ir

// Instruction is a decoded IR instruction. Imm holds the opcode-specific
// immediate as one of the *Imm value types below (nil for RETURN and EMPTY).
// References lists every symbol the instruction points to and is the edge
// set walked by reachability.
type Instruction struct {
	Imm        any
	References []SymbolID
	Op         Opcode
}

// Value is a symbolic 32-bit value: Addend plus the address of Symbol,
// wrapping modulo 2^32. Symbol is NoSymbol for plain constants.
type Value struct {
	Addend uint32
	Symbol SymbolID
}

// Const returns a Value without a relocation.
func Const(v uint32) Value {
	return Value{Addend: v}
}

// Resolve returns the value given the address of its symbol.
func (v Value) Resolve(symbolAddr uint32) uint32 {
	if !v.Symbol.Valid() {
		return v.Addend
	}
	return v.Addend + symbolAddr
}

// TwoRegImm holds the registers of MOV_REG.
type TwoRegImm struct {
	Dst uint8
	Src uint8
}

// RegValueImm holds the operands of MOV_CONST.
type RegValueImm struct {
	Value Value
	Reg   uint8
}

// LabelDefImm holds a label definition. Value is the raw operand: the slot
// relative byte offset for LABEL_RELATIVE and the absolute value for
// LABEL_ABSOLUTE. Target is the instruction index a relative label names.
type LabelDefImm struct {
	Label  uint32
	Value  uint32
	Target uint32
}

// MemConstImm holds a memory access through a constant address.
type MemConstImm struct {
	Value Value
	Reg   uint8
	Flags MemFlags
}

// MemRegImm holds a memory access through an address register.
type MemRegImm struct {
	Reg     uint8
	AddrReg uint8
	Flags   MemFlags
}

// CondLabelImm holds an unresolved conditional jump.
type CondLabelImm struct {
	Label uint32
	Cond  Cond
}

// ValueImm holds the single operand of JUMP_CONST, CALL_CONST, HOST,
// POP_BLOCK_CONST and WORD.
type ValueImm struct {
	Value Value
}

// LabelImm holds an unresolved jump target.
type LabelImm struct {
	Label uint32
}

// RegImm holds the register of JUMP_REG and CALL_REG.
type RegImm struct {
	Reg uint8
}

// StackImm holds PUSH and POP operands.
type StackImm struct {
	Reg   uint8
	Bytes uint8 // 1..4
}

// PushBlockImm holds the operands of PUSH_BLOCK_CONST.
type PushBlockImm struct {
	Value    Value
	Reg      uint8
	Optional bool
}

// PushBlockLabelImm holds the operands of PUSH_BLOCK_LABEL.
type PushBlockLabelImm struct {
	Label    uint32
	Reg      uint8
	Optional bool
}

// BinOpImm holds a register-register ALU operation.
type BinOpImm struct {
	Dst uint8
	Src uint8
	Op  BinOp
}

// BinOpConstImm holds a register-constant ALU operation.
type BinOpConstImm struct {
	Value Value
	Reg   uint8
	Op    BinOp
}

// AliasImm joins two labels.
type AliasImm struct {
	Label1 uint32
	Label2 uint32
}

// DataImm holds literal bytes.
type DataImm struct {
	Data []byte
}

// FillImm holds the length of a zero run.
type FillImm struct {
	Size uint32
}

// JumpInstrImm holds a resolved jump. Target indexes the owning symbol's IR.
type JumpInstrImm struct {
	Target int
}

// CondInstrImm holds a resolved conditional jump.
type CondInstrImm struct {
	Target int
	Cond   Cond
}

// MarkerImm names a layout position. Size is set for the heap and stack markers.
type MarkerImm struct {
	Marker Marker
	Size   uint32
}

// Return builds a RETURN instruction.
func Return() Instruction {
	return Instruction{Op: OpReturn}
}

// Empty builds a no-op.
func Empty() Instruction {
	return Instruction{Op: OpEmpty}
}

// Word builds a WORD instruction and records its relocation target as a reference.
func Word(v Value) Instruction {
	in := Instruction{Op: OpWord, Imm: ValueImm{Value: v}}
	if v.Symbol.Valid() {
		in.References = []SymbolID{v.Symbol}
	}
	return in
}

// Data builds a DATA instruction. The slice is not copied.
func Data(b []byte) Instruction {
	return Instruction{Op: OpData, Imm: DataImm{Data: b}}
}

// Fill builds a FILL instruction.
func Fill(size uint32) Instruction {
	return Instruction{Op: OpFill, Imm: FillImm{Size: size}}
}

// Host builds a HOST call to the import with the given index.
func Host(index uint32) Instruction {
	return Instruction{Op: OpHost, Imm: ValueImm{Value: Const(index)}}
}

// MarkerInstr builds a MARKER pseudo-instruction.
func MarkerInstr(m Marker, size uint32) Instruction {
	return Instruction{Op: OpMarker, Imm: MarkerImm{Marker: m, Size: size}}
}

// DataSize returns the number of bytes a data-class instruction covers:
// the literal length for DATA, the run length for FILL and 4 for WORD.
// Every other instruction reports 0.
func (in Instruction) DataSize() uint32 {
	switch imm := in.Imm.(type) {
	case DataImm:
		return uint32(len(imm.Data))
	case FillImm:
		return imm.Size
	}
	if in.Op == OpWord {
		return 4
	}
	return 0
}
