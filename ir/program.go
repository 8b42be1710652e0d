package ir

// Binding is the binding class of a symbol-table record.
type Binding uint8

const (
	BindLocal  Binding = 0
	BindGlobal Binding = 1
	BindWeak   Binding = 2
)

func (b Binding) String() string {
	switch b {
	case BindLocal:
		return "local"
	case BindGlobal:
		return "global"
	case BindWeak:
		return "weak"
	}
	return "unknown"
}

// ExportEntry exposes a VM symbol to the host under a fixed slot index.
// Symbol is NoSymbol until a non-local definition with Name is bound.
type ExportEntry struct {
	Name    string
	Index   uint32
	Symbol  SymbolID
	Binding Binding
}

// ImportEntry is a host function the VM code may call through HOST.
type ImportEntry struct {
	Name   string
	Index  uint32
	Symbol SymbolID // the ImportSymbol shared by every record naming it
}

// Program is the parser's output.
type Program struct {
	Symbols  *Table
	Sections []*Section
	// Entries has one handle per symbol-table record, in record order,
	// followed by the synthesized init/fini array symbols. Several records
	// may share a handle.
	Entries    []SymbolID
	Predefined Predefined
	// Exports and Imports are indexed by slot; unused slots are nil.
	Exports  []*ExportEntry
	Imports  []*ImportEntry
	Warnings []error
}

// NewProgram creates an empty program with its own symbol table.
func NewProgram() *Program {
	return &Program{Symbols: NewTable()}
}

// Unique returns the distinct handles of Entries in first-seen order.
func (p *Program) Unique() []SymbolID {
	seen := make(map[SymbolID]struct{}, len(p.Entries))
	out := make([]SymbolID, 0, len(p.Entries))
	for _, id := range p.Entries {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Export returns the export bound to slot index, or nil.
func (p *Program) Export(index uint32) *ExportEntry {
	if int(index) >= len(p.Exports) {
		return nil
	}
	return p.Exports[index]
}

// Import returns the import registered for slot index, or nil.
func (p *Program) Import(index uint32) *ImportEntry {
	if int(index) >= len(p.Imports) {
		return nil
	}
	return p.Imports[index]
}
