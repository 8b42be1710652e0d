// Package objtest builds ccvm object files in memory for tests.
package objtest

import (
	"github.com/wippyai/ccvm-link/ir"
	"github.com/wippyai/ccvm-link/object"
)

// Builder accumulates sections, symbols and relocations.
type Builder struct {
	sections []*ir.Section
	strings  *object.StringTable
	symbols  []object.SymbolRecord
	relocs   map[uint32][]object.RelocationRecord
	relOrder []uint32

	// ExplicitReloc links relocation tables through the reloc id field
	// instead of the rel.<name> convention.
	ExplicitReloc bool
}

// New creates a builder whose symbol table starts with the null record.
func New() *Builder {
	return &Builder{
		strings: object.NewStringTable(),
		symbols: []object.SymbolRecord{{}},
		relocs:  make(map[uint32][]object.RelocationRecord),
	}
}

// Section adds a section with literal bytes and returns its index.
func (b *Builder) Section(name string, data []byte) uint16 {
	return b.add(&ir.Section{Name: name, Size: uint32(len(data)), Data: data, Type: 1})
}

// Zero adds a zero-filled section and returns its index.
func (b *Builder) Zero(name string, size uint32) uint16 {
	return b.add(&ir.Section{Name: name, Size: size, Type: 8})
}

// Code adds a section holding the given instructions and returns its index.
func (b *Builder) Code(name string, code ...ir.RawInstruction) uint16 {
	return b.Section(name, object.EncodeInstructions(code))
}

func (b *Builder) add(s *ir.Section) uint16 {
	s.Index = uint32(len(b.sections) + 1)
	s.ID = 0x1000 + uint64(s.Index)
	b.sections = append(b.sections, s)
	return uint16(s.Index)
}

// Symbol appends a symbol record and returns its index in the symbol table.
func (b *Builder) Symbol(name string, shndx uint16, addr, size uint32, bind ir.Binding) uint32 {
	b.symbols = append(b.symbols, object.SymbolRecord{
		NameIndex: b.strings.Add(name),
		Addr:      addr,
		Size:      size,
		Bind:      bind,
		Shndx:     shndx,
	})
	return uint32(len(b.symbols) - 1)
}

// Global appends a global symbol record.
func (b *Builder) Global(name string, shndx uint16, addr, size uint32) uint32 {
	return b.Symbol(name, shndx, addr, size, ir.BindGlobal)
}

// Undefined appends a global record with section index 0.
func (b *Builder) Undefined(name string) uint32 {
	return b.Symbol(name, object.SHNUndef, 0, 0, ir.BindGlobal)
}

// Reloc records a relocation in section shndx.
func (b *Builder) Reloc(shndx uint16, addr, symbol uint32, typ ir.RelocationType) {
	idx := uint32(shndx)
	if _, ok := b.relocs[idx]; !ok {
		b.relOrder = append(b.relOrder, idx)
	}
	b.relocs[idx] = append(b.relocs[idx], object.RelocationRecord{Addr: addr, Symbol: symbol, Type: typ})
}

// Sections returns the complete section list including symbol, string and
// relocation tables.
func (b *Builder) Sections() []*ir.Section {
	out := make([]*ir.Section, 0, len(b.sections)+len(b.relOrder)+2)
	for _, s := range b.sections {
		c := *s
		out = append(out, &c)
	}
	next := uint32(len(out) + 1)
	extra := func(name string, data []byte, typ uint32) *ir.Section {
		s := &ir.Section{Name: name, Index: next, ID: 0x1000 + uint64(next), Size: uint32(len(data)), Data: data, Type: typ}
		next++
		out = append(out, s)
		return s
	}
	for _, idx := range b.relOrder {
		target := out[idx-1]
		table := extra("rel."+target.Name, object.EncodeRelocations(b.relocs[idx]), 9)
		if b.ExplicitReloc {
			table.Name = ".ccvm.reltab." + target.Name
			target.Reloc = table.ID
		}
	}
	extra(".symtab", object.EncodeSymbols(b.symbols), 2)
	extra(".strtab", b.strings.Bytes(), 3)
	return out
}

// Bytes encodes the object file.
func (b *Builder) Bytes() []byte {
	return object.Encode(b.Sections())
}

// Records returns the number of symbol-table records, including the null record.
func (b *Builder) Records() int {
	return len(b.symbols)
}

// Instr is shorthand for a raw instruction.
func Instr(op ir.Opcode, op2, reg, reg2 uint8, value, value2 uint32) ir.RawInstruction {
	return ir.RawInstruction{Opcode: uint8(op), Op2: op2, Reg: reg, Reg2: reg2, Value: value, Value2: value2}
}
