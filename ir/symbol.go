package ir

// SymbolID is a handle into a Table. The zero value refers to no symbol.
type SymbolID int32

// NoSymbol is the zero handle.
const NoSymbol SymbolID = 0

// Valid reports whether id refers to a symbol.
func (id SymbolID) Valid() bool {
	return id > NoSymbol
}

// SymbolBase holds the attributes shared by every symbol variant.
type SymbolBase struct {
	Name    string
	Indexes []int // originating symbol-table records
}

// Base returns the shared attributes.
func (b *SymbolBase) Base() *SymbolBase {
	return b
}

// Symbol is a closed set of variants. Use a type switch over the concrete
// pointer types to dispatch; the unexported method keeps the set sealed.
type Symbol interface {
	Base() *SymbolBase
	isSymbol()
}

// AbsoluteSymbol has a fixed link-time value.
type AbsoluteSymbol struct {
	SymbolBase
	Address uint32
}

// ImportSymbol is a host function the VM code may call.
type ImportSymbol struct {
	SymbolBase
	Section     *Section
	ImportIndex uint32
}

// UndefinedSymbol is referenced but never defined.
type UndefinedSymbol struct {
	SymbolBase
}

// InvalidSymbol stands in for a record that could not be interpreted.
type InvalidSymbol struct {
	SymbolBase
}

// Object holds the storage shared by data and function symbols.
type Object struct {
	SymbolBase
	Section *Section
	IR      []Instruction
	Inner   []SymbolID
	Addr    uint32
	Size    uint32
	Used    bool
}

// Obj returns the object storage.
func (o *Object) Obj() *Object {
	return o
}

// DataSymbol is a data object.
type DataSymbol struct {
	Object
}

// FunctionSymbol is a code object whose bytes decode to instructions.
type FunctionSymbol struct {
	Object
}

// InnerSymbol is a data symbol nested in another symbol's byte range.
type InnerSymbol struct {
	SymbolBase
	Parent SymbolID
	Offset uint32
}

// FunctionInnerSymbol is a label nested inside a function.
// Instruction is the index of the instruction it names in the parent's IR,
// or -1 until the parent is decoded.
type FunctionInnerSymbol struct {
	SymbolBase
	Parent      SymbolID
	Offset      uint32
	Instruction int
}

func (*AbsoluteSymbol) isSymbol()      {}
func (*ImportSymbol) isSymbol()        {}
func (*UndefinedSymbol) isSymbol()     {}
func (*InvalidSymbol) isSymbol()       {}
func (*DataSymbol) isSymbol()          {}
func (*FunctionSymbol) isSymbol()      {}
func (*InnerSymbol) isSymbol()         {}
func (*FunctionInnerSymbol) isSymbol() {}

// ObjectSymbol is implemented by *DataSymbol and *FunctionSymbol.
type ObjectSymbol interface {
	Symbol
	Obj() *Object
}

// NewDataSymbol creates a data symbol covering [addr, addr+size) of section.
func NewDataSymbol(name string, section *Section, addr, size uint32) *DataSymbol {
	return &DataSymbol{Object{SymbolBase: SymbolBase{Name: name}, Section: section, Addr: addr, Size: size}}
}

// NewFunctionSymbol creates a function symbol covering [addr, addr+size) of section.
func NewFunctionSymbol(name string, section *Section, addr, size uint32) *FunctionSymbol {
	return &FunctionSymbol{Object{SymbolBase: SymbolBase{Name: name}, Section: section, Addr: addr, Size: size}}
}

// ParentOf returns the parent of an inner symbol, or NoSymbol for any other variant.
func ParentOf(s Symbol) SymbolID {
	switch s := s.(type) {
	case *InnerSymbol:
		return s.Parent
	case *FunctionInnerSymbol:
		return s.Parent
	}
	return NoSymbol
}

// KindName returns a short human-readable name of the variant.
func KindName(s Symbol) string {
	switch s.(type) {
	case *AbsoluteSymbol:
		return "absolute"
	case *ImportSymbol:
		return "import"
	case *UndefinedSymbol:
		return "undefined"
	case *InvalidSymbol:
		return "invalid"
	case *DataSymbol:
		return "data"
	case *FunctionSymbol:
		return "function"
	case *InnerSymbol:
		return "inner"
	case *FunctionInnerSymbol:
		return "function-inner"
	}
	return "unknown"
}
