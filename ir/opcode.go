package ir

import "fmt"

// Opcode identifies an instruction variant. Values up to OpFill are the
// VM encoding; OpJumpCondInstr, OpJumpInstr, OpEmpty and OpMarker exist
// only in the IR.
type Opcode uint8

const (
	OpMovReg         Opcode = iota // dst = src
	OpMovConst                     // reg = value
	OpLabelRelative                // label, instruction offset
	OpLabelAbsolute                // label, absolute value
	OpWriteConst                   // reg => [value]
	OpReadConst                    // reg <= [value]
	OpWriteReg                     // reg => [addrReg]
	OpReadReg                      // reg <= [addrReg]
	OpJumpCondLabel                // label, op2 = condition
	OpJumpConst                    // value
	OpCallConst                    // value
	OpJumpLabel                    // label
	OpJumpReg                      // reg
	OpCallReg                      // reg
	OpPush                         // reg, op2 = 1..4 bytes
	OpPushBlockConst               // reg, op2 = optional, value = block size
	OpPushBlockLabel               // reg, op2 = optional, label holds block size
	OpBinOp                        // dst, src, op2 = operator
	OpReturn                       //
	OpLabelAlias                   // label1, label2
	OpHost                         // value = host function index
	OpPop                          // reg, op2 = 1..4 bytes
	OpPopBlockConst                // value = bytes
	OpBinOpConst                   // reg = reg op value
	OpJumpCondInstr                // resolved JumpCondLabel
	OpJumpInstr                    // resolved JumpLabel
	OpData                         // literal bytes
	OpWord                         // 32-bit symbolic value
	OpFill                         // zero run
	OpEmpty                        // no-op
	OpMarker                       // layout marker
)

var opcodeNames = [...]string{
	OpMovReg:         "MOV_REG",
	OpMovConst:       "MOV_CONST",
	OpLabelRelative:  "LABEL_RELATIVE",
	OpLabelAbsolute:  "LABEL_ABSOLUTE",
	OpWriteConst:     "WRITE_CONST",
	OpReadConst:      "READ_CONST",
	OpWriteReg:       "WRITE_REG",
	OpReadReg:        "READ_REG",
	OpJumpCondLabel:  "JUMP_COND_LABEL",
	OpJumpConst:      "JUMP_CONST",
	OpCallConst:      "CALL_CONST",
	OpJumpLabel:      "JUMP_LABEL",
	OpJumpReg:        "JUMP_REG",
	OpCallReg:        "CALL_REG",
	OpPush:           "PUSH",
	OpPushBlockConst: "PUSH_BLOCK_CONST",
	OpPushBlockLabel: "PUSH_BLOCK_LABEL",
	OpBinOp:          "BIN_OP",
	OpReturn:         "RETURN",
	OpLabelAlias:     "LABEL_ALIAS",
	OpHost:           "HOST",
	OpPop:            "POP",
	OpPopBlockConst:  "POP_BLOCK_CONST",
	OpBinOpConst:     "BIN_OP_CONST",
	OpJumpCondInstr:  "JUMP_COND_INSTR",
	OpJumpInstr:      "JUMP_INSTR",
	OpData:           "DATA",
	OpWord:           "WORD",
	OpFill:           "FILL",
	OpEmpty:          "EMPTY",
	OpMarker:         "MARKER",
}

func (op Opcode) String() string {
	if int(op) < len(opcodeNames) {
		return opcodeNames[op]
	}
	return fmt.Sprintf("OPCODE(%d)", uint8(op))
}

// Decodable reports whether op may appear in an encoded function body.
func (op Opcode) Decodable() bool {
	switch op {
	case OpJumpCondInstr, OpJumpInstr, OpEmpty, OpMarker:
		return false
	}
	return op <= OpFill
}

// AllowsRelocation reports whether an encoded instruction with this opcode
// may carry a relocation on its value field.
func (op Opcode) AllowsRelocation() bool {
	switch op {
	case OpMovConst, OpWriteConst, OpReadConst, OpJumpConst, OpCallConst,
		OpPushBlockConst, OpReturn, OpHost, OpPopBlockConst, OpBinOpConst, OpWord:
		return true
	}
	return false
}

// BinOp is an ALU operator code carried in op2.
type BinOp uint8

const (
	BinOpAdd   BinOp = 0x2B
	BinOpSub   BinOp = 0x2D
	BinOpAddC  BinOp = 0x88
	BinOpSubC  BinOp = 0x8A
	BinOpAnd   BinOp = 0x26
	BinOpXor   BinOp = 0x5E
	BinOpOr    BinOp = 0x7C
	BinOpMul   BinOp = 0x2A
	BinOpShl   BinOp = 0x3C
	BinOpShr   BinOp = 0x8B
	BinOpSar   BinOp = 0x3E
	BinOpDiv   BinOp = 0x2F
	BinOpUDiv  BinOp = 0x83
	BinOpMod   BinOp = 0x25
	BinOpUMod  BinOp = 0x84
	BinOpUMulL BinOp = 0x86
	BinOpCmp   BinOp = 0xFF
)

var binOpNames = map[BinOp]string{
	BinOpAdd:   "ADD",
	BinOpSub:   "SUB",
	BinOpAddC:  "ADDC",
	BinOpSubC:  "SUBC",
	BinOpAnd:   "AND",
	BinOpXor:   "XOR",
	BinOpOr:    "OR",
	BinOpMul:   "MUL",
	BinOpShl:   "SHL",
	BinOpShr:   "SHR",
	BinOpSar:   "SAR",
	BinOpDiv:   "DIV",
	BinOpUDiv:  "UDIV",
	BinOpMod:   "MOD",
	BinOpUMod:  "UMOD",
	BinOpUMulL: "UMULL",
	BinOpCmp:   "CMP",
}

func (op BinOp) String() string {
	if name, ok := binOpNames[op]; ok {
		return name
	}
	return fmt.Sprintf("BINOP(0x%02x)", uint8(op))
}

// Cond is a comparison code used by conditional jumps.
type Cond uint8

const (
	CondULT    Cond = 0x92
	CondUGE    Cond = 0x93
	CondEQ     Cond = 0x94
	CondNE     Cond = 0x95
	CondULE    Cond = 0x96
	CondUGT    Cond = 0x97
	CondNSet   Cond = 0x98
	CondNClear Cond = 0x99
	CondLT     Cond = 0x9C
	CondGE     Cond = 0x9D
	CondLE     Cond = 0x9E
	CondGT     Cond = 0x9F
)

var condNames = map[Cond]string{
	CondULT:    "ULT",
	CondUGE:    "UGE",
	CondEQ:     "EQ",
	CondNE:     "NE",
	CondULE:    "ULE",
	CondUGT:    "UGT",
	CondNSet:   "NSET",
	CondNClear: "NCLEAR",
	CondLT:     "LT",
	CondGE:     "GE",
	CondLE:     "LE",
	CondGT:     "GT",
}

func (c Cond) String() string {
	if name, ok := condNames[c]; ok {
		return name
	}
	return fmt.Sprintf("COND(0x%02x)", uint8(c))
}

// MemFlags describe a memory access: width, sign extension and base pointer.
type MemFlags uint8

const (
	MemSigned   MemFlags = 0x80
	MemBP       MemFlags = 0x40
	MemBitsMask MemFlags = 0x03
	MemBits8    MemFlags = 0x00
	MemBits16   MemFlags = 0x01
	MemBits32   MemFlags = 0x02
	MemBits64   MemFlags = 0x03
)

// Bits returns the access width in bits.
func (f MemFlags) Bits() int {
	return 8 << (f & MemBitsMask)
}

// Signed reports whether the access sign-extends.
func (f MemFlags) Signed() bool { return f&MemSigned != 0 }

// BP reports whether the address is relative to the base pointer.
func (f MemFlags) BP() bool { return f&MemBP != 0 }

func (f MemFlags) String() string {
	s := fmt.Sprintf("%d", f.Bits())
	if f.Signed() {
		s = "s" + s
	} else {
		s = "u" + s
	}
	if f.BP() {
		s += ",bp"
	}
	return s
}
