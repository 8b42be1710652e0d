package parser

import (
	"bytes"

	"go.uber.org/zap"

	"github.com/wippyai/ccvm-link/errors"
	"github.com/wippyai/ccvm-link/ir"
	"github.com/wippyai/ccvm-link/object"
)

const initFiniSymbolPrefix = "_ccvm_init_fini_auto_"

func (p *parser) readStrtab() error {
	p.strings = p.strtab.Data
	return nil
}

// stringAt returns the null-terminated string starting at off.
func (p *parser) stringAt(off uint32) (string, error) {
	if uint64(off) >= uint64(len(p.strings)) {
		return "", errors.InvalidStrtab(off, "string table reference out of range")
	}
	end := bytes.IndexByte(p.strings[off:], 0)
	if end < 0 {
		return "", errors.InvalidStrtab(off, "unterminated string")
	}
	return string(p.strings[off : int(off)+end]), nil
}

// readSymtab turns every symbol-table record into a symbol handle.
// Program.Entries gets exactly one handle per record.
func (p *parser) readSymtab() error {
	if !p.symtab.HasData() {
		return errors.MissingSection(errors.PhaseParse, "symbol table data in", p.symtab.Name).
			Section(p.symtab.Name).
			Build()
	}
	records, err := object.ReadSymbols(p.symtab.Data)
	if err != nil {
		return err
	}

	tab := p.prog.Symbols
	p.records = len(records)
	p.prog.Entries = make([]ir.SymbolID, 0, len(records)+len(p.initFini))
	for i, rec := range records {
		name, err := p.stringAt(rec.NameIndex)
		if err != nil {
			return err
		}

		var id ir.SymbolID
		switch {
		case rec.Shndx == object.SHNUndef:
			id = p.resolveUndefined(name)
		case rec.Shndx == object.SHNAbs || i == 0:
			id = tab.Add(&ir.AbsoluteSymbol{SymbolBase: ir.SymbolBase{Name: name}, Address: rec.Addr})
		case rec.Shndx >= object.SHNLoReserve:
			p.warn(errors.Warning(errors.PhaseParse, "unknown reserved section index 0x%04x, skipping symbol %q", rec.Shndx, name).
				Section(p.symtab.Name).
				Symbol(name).
				Value(rec.Shndx).
				Build(),
				zap.String("symbol", name), zap.Uint16("shndx", rec.Shndx))
			id = tab.Add(&ir.InvalidSymbol{SymbolBase: ir.SymbolBase{Name: name}})
		default:
			sec, ok := p.byIndex[uint32(rec.Shndx)]
			if !ok || sec.Synthetic() {
				return errors.MissingSection(errors.PhaseParse, "section index", rec.Shndx).
					Symbol(name).
					Build()
			}
			switch storageOf(sec) {
			case storageFunction:
				id = tab.Add(ir.NewFunctionSymbol(name, sec, rec.Addr, rec.Size))
			case storageData:
				id = tab.Add(ir.NewDataSymbol(name, sec, rec.Addr, rec.Size))
			default:
				id = tab.Add(&ir.UndefinedSymbol{SymbolBase: ir.SymbolBase{Name: name}})
			}
		}

		if rec.Bind != ir.BindLocal {
			if _, undefined := tab.Get(id).(*ir.UndefinedSymbol); !undefined {
				p.bindExports(name, id, rec.Bind)
			}
		}

		base := tab.Get(id).Base()
		base.Indexes = append(base.Indexes, i)
		p.prog.Entries = append(p.prog.Entries, id)
	}

	Logger().Debug("symbol table read", zap.Int("records", len(records)))
	return nil
}

// resolveUndefined binds an undefined record to an import, then to a
// predefined symbol, and otherwise creates an UndefinedSymbol.
func (p *parser) resolveUndefined(name string) ir.SymbolID {
	if imp, ok := p.importsByName[name]; ok {
		return imp.Symbol
	}
	if id, ok := p.prog.Predefined[name]; ok {
		return id
	}
	return p.prog.Symbols.Add(&ir.UndefinedSymbol{SymbolBase: ir.SymbolBase{Name: name}})
}

// bindExports attaches a non-local definition to the export slots named after it.
// A weak binding never replaces an existing one; a strong binding replaces a
// weak one. Two strong bindings keep the first and record a warning.
func (p *parser) bindExports(name string, id ir.SymbolID, bind ir.Binding) {
	for _, entry := range p.exportsByName[name] {
		switch {
		case !entry.Symbol.Valid():
			entry.Symbol, entry.Binding = id, bind
		case entry.Symbol == id:
		case bind == ir.BindWeak:
			Logger().Debug("weak binding ignored for export",
				zap.String("export", name), zap.Uint32("index", entry.Index))
		case entry.Binding == ir.BindWeak:
			entry.Symbol, entry.Binding = id, bind
		default:
			p.warn(errors.Warning(errors.PhaseParse, "multiple global symbols matching exported name %q, keeping the first", name).
				Symbol(name).
				Value(entry.Index).
				Build(),
				zap.String("export", name), zap.Uint32("index", entry.Index))
		}
	}
}

// createInitFiniSymbols manufactures one whole-section data symbol per
// init/fini array; those arrays have no symbol-table entry of their own.
func (p *parser) createInitFiniSymbols() error {
	for _, sec := range p.initFini {
		sym := ir.NewDataSymbol(initFiniSymbolPrefix+sec.Name, sec, 0, sec.Size)
		sym.Indexes = append(sym.Indexes, len(p.prog.Entries))
		p.prog.Entries = append(p.prog.Entries, p.prog.Symbols.Add(sym))
	}
	return nil
}
