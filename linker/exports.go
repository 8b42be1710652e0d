package linker

import (
	"go.uber.org/zap"

	"github.com/wippyai/ccvm-link/errors"
	"github.com/wippyai/ccvm-link/ir"
)

const (
	// ExportTableSection is the synthetic section holding the export table.
	ExportTableSection = ".ccvm.export.table"
	// ExportTableName is the name of the synthesized export table symbol.
	ExportTableName = "__ccvm_export_table__"
	// DefaultInvalidExportName names the symbol empty export slots point at.
	DefaultInvalidExportName = "__ccvm_invalid_export__"
)

// buildExportTable creates one WORD per export slot. A slot with no bound
// symbol points at the invalid-export symbol when the program defines one,
// and holds a plain zero otherwise.
func (o *organizer) buildExportTable() ir.SymbolID {
	invalid := o.findDefined(o.opts.InvalidExportName)

	code := make([]ir.Instruction, len(o.prog.Exports))
	for i := range code {
		target := invalid
		if e := o.prog.Export(uint32(i)); e != nil {
			if e.Symbol.Valid() {
				target = e.Symbol
			} else {
				o.warn(errors.Warning(errors.PhaseOrganize, "export %q has no symbol", e.Name).
					Value(e.Index).
					Build(),
					zap.String("export", e.Name),
					zap.Uint32("index", e.Index))
			}
		}
		code[i] = ir.Word(ir.Value{Symbol: target})
	}

	section := o.syntheticSection(ExportTableSection)
	table := ir.NewDataSymbol(ExportTableName, section, 0, uint32(len(code))*4)
	table.IR = code
	return o.prog.Symbols.Add(table)
}

// findDefined returns the first defined symbol named name, or NoSymbol.
func (o *organizer) findDefined(name string) ir.SymbolID {
	if name == "" {
		return ir.NoSymbol
	}
	tab := o.prog.Symbols
	for _, id := range o.prog.Unique() {
		if tab.Name(id) != name {
			continue
		}
		switch tab.Get(id).(type) {
		case *ir.UndefinedSymbol, *ir.InvalidSymbol:
			continue
		}
		return id
	}
	return ir.NoSymbol
}
