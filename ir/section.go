package ir

// Section is a raw chunk of the object file.
// Sections are immutable once the object reader produces them.
type Section struct {
	ID      uint64
	Link    uint64 // 0 when absent
	Reloc   uint64 // id of the relocation section, 0 when absent
	Prev    uint64 // 0 when absent
	Name    string
	Data    []byte // nil for zero-filled regions
	Index   uint32
	Size    uint32
	Addr    uint32 // origin within the section's own coordinate space
	EntSize uint32
	Flags   uint32
	Info    uint32
	Type    uint32
}

// HasData reports whether the section stores literal bytes.
func (s *Section) HasData() bool {
	return s.Data != nil
}

// Synthetic reports whether the section was manufactured rather than read from a file.
func (s *Section) Synthetic() bool {
	return s.ID == 0
}

// NewSyntheticSection creates a section that has no counterpart in the object file.
// Synthetic sections carry no data and use id 0, which never appears in a valid file.
func NewSyntheticSection(name string, index uint32) *Section {
	return &Section{
		Name:  name,
		Index: index,
		Data:  []byte{},
		Type:  1,
	}
}

// RelocationType selects the width of the patched slot.
type RelocationType uint8

const (
	RelocData  RelocationType = 1 // 4-byte word
	RelocInstr RelocationType = 2 // whole 12-byte instruction, value field patched
)

// InstructionSize is the fixed width of an encoded instruction.
const InstructionSize = 12

// Size returns the number of bytes covered by a relocation of this type.
func (t RelocationType) Size() uint32 {
	switch t {
	case RelocData:
		return 4
	case RelocInstr:
		return InstructionSize
	}
	return 0
}

// Valid reports whether t is a known relocation type.
func (t RelocationType) Valid() bool {
	return t == RelocData || t == RelocInstr
}

func (t RelocationType) String() string {
	switch t {
	case RelocData:
		return "DATA"
	case RelocInstr:
		return "INSTR"
	}
	return "UNKNOWN"
}

// Relocation patches the slot at Offset with the address of Symbol.
// Offset is relative to the section when stored on a section and
// relative to the symbol start when sliced for a symbol.
type Relocation struct {
	Offset uint32
	Type   RelocationType
	Symbol SymbolID
}

// End returns the first byte after the patched slot.
func (r Relocation) End() uint32 {
	return r.Offset + r.Type.Size()
}
