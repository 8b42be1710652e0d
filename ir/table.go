package ir

import "fmt"

// Table is the arena that owns every symbol of a link session.
// Handles stay stable for the lifetime of the table; Replace swaps the
// variant stored behind a handle so existing references follow it.
type Table struct {
	symbols []Symbol
}

// NewTable creates an empty symbol table.
func NewTable() *Table {
	return &Table{}
}

// Add stores s and returns its handle.
func (t *Table) Add(s Symbol) SymbolID {
	t.symbols = append(t.symbols, s)
	return SymbolID(len(t.symbols))
}

// Get returns the symbol behind id. It panics on an invalid handle.
func (t *Table) Get(id SymbolID) Symbol {
	if !t.Has(id) {
		panic(fmt.Sprintf("ir: invalid symbol handle %d", id))
	}
	return t.symbols[id-1]
}

// Has reports whether id refers to a symbol in the table.
func (t *Table) Has(id SymbolID) bool {
	return id.Valid() && int(id) <= len(t.symbols)
}

// Replace stores s behind an existing handle.
func (t *Table) Replace(id SymbolID, s Symbol) {
	if !t.Has(id) {
		panic(fmt.Sprintf("ir: invalid symbol handle %d", id))
	}
	t.symbols[id-1] = s
}

// Len returns the number of symbols in the table.
func (t *Table) Len() int {
	return len(t.symbols)
}

// IDs returns every handle in insertion order.
func (t *Table) IDs() []SymbolID {
	ids := make([]SymbolID, len(t.symbols))
	for i := range t.symbols {
		ids[i] = SymbolID(i + 1)
	}
	return ids
}

// Name returns the name of the symbol behind id, or "" for NoSymbol.
func (t *Table) Name(id SymbolID) string {
	if !t.Has(id) {
		return ""
	}
	return t.symbols[id-1].Base().Name
}

// Object returns the object storage behind id when it is a data or function symbol.
func (t *Table) Object(id SymbolID) (*Object, bool) {
	if !t.Has(id) {
		return nil, false
	}
	if o, ok := t.symbols[id-1].(ObjectSymbol); ok {
		return o.Obj(), true
	}
	return nil, false
}

// Owner maps an inner symbol to its parent and returns any other handle unchanged.
func (t *Table) Owner(id SymbolID) SymbolID {
	if !t.Has(id) {
		return id
	}
	if parent := ParentOf(t.symbols[id-1]); parent.Valid() {
		return parent
	}
	return id
}
