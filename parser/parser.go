package parser

import (
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/ccvm-link/errors"
	"github.com/wippyai/ccvm-link/ir"
	"github.com/wippyai/ccvm-link/object"
)

// Options configures parsing.
type Options struct {
	// Strict turns warnings into a fatal error returned once parsing completes.
	Strict bool
}

// DefaultOptions returns the default parser configuration.
func DefaultOptions() Options {
	return Options{}
}

// Parse reads an object file and runs the full parsing pipeline on it.
func Parse(data []byte, opts Options) (*ir.Program, error) {
	sections, err := object.ReadSections(data)
	if err != nil {
		return nil, err
	}
	return ParseSections(sections, opts)
}

// ParseSections runs the parsing pipeline on sections that were already read.
// Stages run in a fixed order and each assumes the previous one succeeded.
func ParseSections(sections []*ir.Section, opts Options) (*ir.Program, error) {
	p := newParser(sections, opts)

	stages := []struct {
		name string
		run  func() error
	}{
		{"index sections", p.indexSections},
		{"predefined symbols", p.createPredefined},
		{"classify sections", p.classifySections},
		{"string table", p.readStrtab},
		{"symbol table", p.readSymtab},
		{"init/fini symbols", p.createInitFiniSymbols},
		{"inner symbols", p.findInnerSymbols},
		{"generate IR", p.generateIR},
		{"resolve labels", p.resolveLabels},
	}
	for _, stage := range stages {
		if err := stage.run(); err != nil {
			return nil, err
		}
		Logger().Debug("parser stage complete",
			zap.String("stage", stage.name),
			zap.Int("symbols", p.prog.Symbols.Len()))
	}

	if opts.Strict && len(p.prog.Warnings) > 0 {
		return nil, multierr.Combine(p.prog.Warnings...)
	}
	return p.prog, nil
}

// parser holds the state of one parse session.
type parser struct {
	prog    *ir.Program
	byID    map[uint64]*ir.Section
	byIndex map[uint32]*ir.Section

	symtab   *ir.Section
	records  int
	strtab   *ir.Section
	strings  []byte
	initFini []*ir.Section

	exportsByName map[string][]*ir.ExportEntry
	importsByName map[string]*ir.ImportEntry

	relocations map[*ir.Section][]ir.Relocation
	labels      map[ir.SymbolID]*ir.LabelSet

	nextIndex uint32
	opts      Options
}

func newParser(sections []*ir.Section, opts Options) *parser {
	prog := ir.NewProgram()
	prog.Sections = append(prog.Sections, sections...)
	return &parser{
		prog:          prog,
		byID:          make(map[uint64]*ir.Section, len(sections)),
		byIndex:       make(map[uint32]*ir.Section, len(sections)),
		exportsByName: make(map[string][]*ir.ExportEntry),
		importsByName: make(map[string]*ir.ImportEntry),
		relocations:   make(map[*ir.Section][]ir.Relocation),
		labels:        make(map[ir.SymbolID]*ir.LabelSet),
		opts:          opts,
	}
}

// warn records a non-fatal condition and logs it.
func (p *parser) warn(err *errors.Error, fields ...zap.Field) {
	p.prog.Warnings = append(p.prog.Warnings, err)
	Logger().Warn(err.Detail, fields...)
}

// syntheticSection creates a section that has no counterpart in the file.
// Indexes continue after the highest index read from the file.
func (p *parser) syntheticSection(name string) *ir.Section {
	s := ir.NewSyntheticSection(name, p.nextIndex)
	p.nextIndex++
	p.prog.Sections = append(p.prog.Sections, s)
	return s
}

func (p *parser) indexSections() error {
	for _, s := range p.prog.Sections {
		if _, ok := p.byID[s.ID]; ok {
			return errors.Duplicate(errors.PhaseParse, "section id", s.ID)
		}
		p.byID[s.ID] = s
		if _, ok := p.byIndex[s.Index]; ok {
			return errors.Duplicate(errors.PhaseParse, "section index", s.Index)
		}
		p.byIndex[s.Index] = s
		if s.Index >= p.nextIndex {
			p.nextIndex = s.Index + 1
		}
	}
	return nil
}

func (p *parser) createPredefined() error {
	p.prog.Predefined = ir.NewPredefined(p.prog.Symbols, p.syntheticSection(ir.PredefinedSection))
	return nil
}
