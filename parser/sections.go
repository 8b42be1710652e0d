package parser

import (
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/ccvm-link/errors"
	"github.com/wippyai/ccvm-link/ir"
)

const (
	symtabName = ".symtab"
	strtabName = ".strtab"

	// maxSlotIndex bounds export and import slot indexes so a corrupt
	// section name cannot force a huge table allocation.
	maxSlotIndex = 0xFFFF
)

var (
	exportSectionRe   = regexp.MustCompile(`^\.ccvm\.export\.([0-9]+)\.(.+)$`)
	importSectionRe   = regexp.MustCompile(`^\.ccvm\.import\.([0-9]+)\.(.+)$`)
	initFiniSectionRe = regexp.MustCompile(`^\.(init|fini)_array(\..+)?$`)
)

// storageKind classifies what a defined symbol's bytes are.
type storageKind uint8

const (
	storageData storageKind = iota
	storageFunction
	storageSkipped
)

func storageOf(s *ir.Section) storageKind {
	switch {
	case s.Name == ".text" || strings.HasPrefix(s.Name, ".text."):
		return storageFunction
	case exportSectionRe.MatchString(s.Name) || importSectionRe.MatchString(s.Name):
		return storageSkipped
	}
	return storageData
}

// classifySections finds the symbol and string tables, registers export and
// import slots, and collects init/fini arrays.
func (p *parser) classifySections() error {
	for _, s := range p.prog.Sections {
		if s.Synthetic() {
			continue
		}
		switch {
		case s.Name == symtabName:
			p.symtab = s
		case s.Name == strtabName:
			p.strtab = s
		case exportSectionRe.MatchString(s.Name):
			m := exportSectionRe.FindStringSubmatch(s.Name)
			index, err := slotIndex(s, m[1])
			if err != nil {
				return err
			}
			if err := p.addExport(s, index, m[2]); err != nil {
				return err
			}
		case importSectionRe.MatchString(s.Name):
			m := importSectionRe.FindStringSubmatch(s.Name)
			index, err := slotIndex(s, m[1])
			if err != nil {
				return err
			}
			if err := p.addImport(s, index, m[2]); err != nil {
				return err
			}
		case initFiniSectionRe.MatchString(s.Name):
			p.initFini = append(p.initFini, s)
		}
	}

	if p.symtab == nil {
		p.symtab = p.syntheticSection(symtabName)
		p.symtab.EntSize = 16
		p.symtab.Type = 2
	}
	if p.strtab == nil {
		p.strtab = p.syntheticSection(strtabName)
		p.strtab.Data = []byte{0}
		p.strtab.Size = 1
		p.strtab.Type = 3
	}

	Logger().Debug("sections classified",
		zap.Int("sections", len(p.prog.Sections)),
		zap.Int("exports", countSlots(p.prog.Exports)),
		zap.Int("imports", countSlots(p.prog.Imports)),
		zap.Int("init_fini", len(p.initFini)))
	return nil
}

func slotIndex(s *ir.Section, digits string) (uint32, error) {
	v, err := strconv.ParseUint(digits, 10, 32)
	if err != nil || v > maxSlotIndex {
		return 0, errors.New(errors.PhaseParse, errors.KindInvalidData).
			Section(s.Name).
			Value(digits).
			Detail("slot index %s out of range", digits).
			Build()
	}
	return uint32(v), nil
}

func (p *parser) addExport(s *ir.Section, index uint32, name string) error {
	if existing := p.prog.Export(index); existing != nil {
		if existing.Name != name {
			return errors.New(errors.PhaseParse, errors.KindDuplicateIdentifier).
				Section(s.Name).
				Value(index).
				Detail("multiple exported symbols for index %d, %q and %q", index, name, existing.Name).
				Build()
		}
		return nil
	}
	entry := &ir.ExportEntry{Index: index, Name: name}
	p.prog.Exports = growSlots(p.prog.Exports, index)
	p.prog.Exports[index] = entry
	p.exportsByName[name] = append(p.exportsByName[name], entry)
	return nil
}

func (p *parser) addImport(s *ir.Section, index uint32, name string) error {
	if existing := p.prog.Import(index); existing != nil && existing.Name != name {
		return errors.New(errors.PhaseParse, errors.KindDuplicateIdentifier).
			Section(s.Name).
			Value(index).
			Detail("multiple imported symbols for index %d, %q and %q", index, name, existing.Name).
			Build()
	}
	if existing, ok := p.importsByName[name]; ok {
		if existing.Index != index {
			return errors.New(errors.PhaseParse, errors.KindDuplicateIdentifier).
				Section(s.Name).
				Symbol(name).
				Detail("multiple indexes for imported symbol %q, %d and %d", name, index, existing.Index).
				Build()
		}
		return nil
	}
	id := p.prog.Symbols.Add(&ir.ImportSymbol{
		SymbolBase:  ir.SymbolBase{Name: name},
		Section:     s,
		ImportIndex: index,
	})
	entry := &ir.ImportEntry{Index: index, Name: name, Symbol: id}
	p.prog.Imports = growSlots(p.prog.Imports, index)
	p.prog.Imports[index] = entry
	p.importsByName[name] = entry
	return nil
}

func growSlots[T any](slots []*T, index uint32) []*T {
	if int(index) < len(slots) {
		return slots
	}
	grown := make([]*T, index+1)
	copy(grown, slots)
	return grown
}

func countSlots[T any](slots []*T) int {
	n := 0
	for _, s := range slots {
		if s != nil {
			n++
		}
	}
	return n
}
