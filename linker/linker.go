package linker

import (
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/ccvm-link/errors"
	"github.com/wippyai/ccvm-link/ir"
	"github.com/wippyai/ccvm-link/linker/internal/graph"
)

// Options configures the organizer.
type Options struct {
	// InvalidExportName names the symbol that empty export slots point at.
	// Empty slots hold a plain zero when no such symbol is defined.
	InvalidExportName string
	// Strict turns warnings into a fatal error.
	Strict bool
}

// DefaultOptions returns default organizer configuration.
func DefaultOptions() Options {
	return Options{
		InvalidExportName: DefaultInvalidExportName,
	}
}

// Region is one framed block of the final layout.
type Region struct {
	Name string
	// Begin and End are the predefined boundary symbols around Symbols.
	Begin   ir.SymbolID
	End     ir.SymbolID
	Symbols []ir.SymbolID
}

// Layout is the organizer's output: the ordered used symbols the emitter
// assigns addresses to, plus what was dropped.
type Layout struct {
	// Symbols is the full final sequence: markers, region boundaries and
	// used symbols, in emission order.
	Symbols []ir.SymbolID
	// Removed holds every data and function symbol left out of the layout.
	Removed []ir.SymbolID
	Regions []Region
	Markers map[ir.Marker]ir.SymbolID

	ExportTable ir.SymbolID
	StackSize   uint32
	HeapSize    uint32

	Warnings []error
}

// Region returns the region named name, or nil.
func (l *Layout) Region(name string) *Region {
	for i := range l.Regions {
		if l.Regions[i].Name == name {
			return &l.Regions[i]
		}
	}
	return nil
}

// Organize buckets, sizes, marks and orders the symbols of prog.
// It mutates prog: imports become stubs, stack and heap symbols are
// collapsed, Used flags are set, and the export table and marker symbols
// are added to its table.
func Organize(prog *ir.Program, opts Options) (*Layout, error) {
	o := &organizer{
		prog:     prog,
		opts:     opts,
		bucketOf: make(map[ir.SymbolID]Bucket),
		buckets:  make(map[Bucket][]ir.SymbolID),
	}

	o.assignBuckets()
	if o.anchored == 0 {
		return nil, errors.New(errors.PhaseOrganize, errors.KindNoSections).
			Detail("object file defines no symbols").
			Build()
	}

	layout := &Layout{}
	layout.StackSize = o.sizeRegion(BucketStack)
	layout.HeapSize = o.sizeRegion(BucketHeap)
	layout.ExportTable = o.buildExportTable()
	layout.Markers = o.createMarkers(layout.StackSize, layout.HeapSize)

	roots := o.roots(layout.ExportTable)
	o.mark(roots)
	o.assemble(layout)
	layout.Warnings = o.warnings

	Logger().Debug("organized symbols",
		zap.Int("used", len(layout.Symbols)),
		zap.Int("removed", len(layout.Removed)),
		zap.Uint32("stack", layout.StackSize),
		zap.Uint32("heap", layout.HeapSize),
		zap.Int("exports", len(prog.Exports)))

	if opts.Strict && len(o.warnings) > 0 {
		return nil, multierr.Combine(o.warnings...)
	}
	return layout, nil
}

// organizer holds the state of one Organize call.
type organizer struct {
	prog     *ir.Program
	bucketOf map[ir.SymbolID]Bucket
	buckets  map[Bucket][]ir.SymbolID
	warnings []error
	anchored int
	opts     Options
}

func (o *organizer) warn(err *errors.Error, fields ...zap.Field) {
	o.warnings = append(o.warnings, err)
	Logger().Warn(err.Detail, fields...)
}

// roots marks the symbols that are live at startup and returns every used
// symbol, which seeds the mark phase.
func (o *organizer) roots(exportTable ir.SymbolID) []ir.SymbolID {
	tab := o.prog.Symbols
	for b, ids := range o.buckets {
		if !b.root() {
			continue
		}
		for _, id := range ids {
			obj, _ := tab.Object(id)
			obj.Used = true
		}
	}
	if obj, ok := tab.Object(exportTable); ok {
		obj.Used = true
	}

	var out []ir.SymbolID
	for _, id := range tab.IDs() {
		if obj, ok := tab.Object(id); ok && obj.Used {
			out = append(out, id)
		}
	}
	return out
}

// mark sets Used on every data and function symbol reachable from roots
// through instruction references. A reference to an inner symbol keeps its
// parent alive.
func (o *organizer) mark(roots []ir.SymbolID) {
	tab := o.prog.Symbols
	g := graph.New(tab.Len() + 1)
	for _, id := range tab.IDs() {
		obj, ok := tab.Object(id)
		if !ok {
			continue
		}
		for _, in := range obj.IR {
			for _, ref := range in.References {
				if tab.Has(ref) {
					g.AddEdge(uint32(id), uint32(tab.Owner(ref)))
				}
			}
		}
	}

	seeds := make([]uint32, len(roots))
	for i, id := range roots {
		seeds[i] = uint32(id)
	}
	live := g.Mark(seeds)

	reported := make(map[ir.SymbolID]bool)
	for _, n := range live.ToSlice() {
		id := ir.SymbolID(n)
		obj, ok := tab.Object(id)
		if !ok {
			continue
		}
		obj.Used = true
		for _, in := range obj.IR {
			for _, ref := range in.References {
				if !tab.Has(ref) || reported[ref] {
					continue
				}
				if _, undefined := tab.Get(ref).(*ir.UndefinedSymbol); !undefined {
					continue
				}
				reported[ref] = true
				o.warn(errors.Warning(errors.PhaseOrganize, "reference to undefined symbol %q", tab.Name(ref)).
					Symbol(obj.Name).
					Build(),
					zap.String("symbol", obj.Name),
					zap.String("undefined", tab.Name(ref)))
			}
		}
	}
}

// Pseudo-buckets for regions that are not filled by section matching.
const (
	bucketExportTable Bucket = iota + BucketRemoved + 1
	bucketNone
)

// regionPlan is the fixed emission order. Markers sit outside the region's
// boundary symbols.
var regionPlan = []struct {
	name   string
	bucket Bucket
	begin  string
	end    string
	before ir.Marker
	after  ir.Marker
}{
	{"registers", BucketRegisters, ir.SectionRegistersBegin, ir.SectionRegistersEnd, 0, 0},
	{"data", BucketData, ir.SectionDataBegin, ir.SectionDataEnd, ir.MarkerDataBegin, ir.MarkerDataEnd},
	{"bss", BucketBSS, ir.SectionBSSBegin, ir.SectionBSSEnd, 0, 0},
	{"heap", BucketHeap, ir.SectionHeapBegin, ir.SectionHeapEnd, ir.MarkerHeap, 0},
	{"stack", BucketStack, ir.SectionStackBegin, ir.SectionStackEnd, ir.MarkerStack, 0},
	{"entry", BucketEntry, ir.SectionEntryBegin, ir.SectionEntryEnd, ir.MarkerProgram, 0},
	{"rodata", BucketRodata, ir.SectionRodataBegin, ir.SectionRodataEnd, 0, 0},
	{"export", bucketExportTable, ir.ExportTableBegin, ir.ExportTableEnd, 0, 0},
	{"init", BucketInit, ir.SectionInitBegin, ir.SectionInitEnd, 0, 0},
	{"fini", BucketFini, ir.SectionFiniBegin, ir.SectionFiniEnd, 0, 0},
	{"text", BucketText, ir.SectionTextBegin, ir.SectionTextEnd, 0, 0},
	{"load_data", bucketNone, ir.LoadDataBegin, ir.LoadDataEnd, ir.MarkerDataLoad, 0},
}

// assemble fills the layout's regions and flat sequence from the used
// symbols and records the rest as removed.
func (o *organizer) assemble(l *Layout) {
	tab := o.prog.Symbols
	used := make(map[Bucket][]ir.SymbolID)
	for _, id := range tab.IDs() {
		b, ok := o.bucketOf[id]
		if !ok || b == BucketPredefined {
			continue
		}
		obj, _ := tab.Object(id)
		switch {
		case b == BucketRemoved:
			if obj.Used {
				o.warn(errors.Warning(errors.PhaseOrganize, "used symbol %q in unmapped section %q", obj.Name, obj.Section.Name).
					Section(obj.Section.Name).
					Symbol(obj.Name).
					Build(),
					zap.String("symbol", obj.Name),
					zap.String("section", obj.Section.Name))
			}
			l.Removed = append(l.Removed, id)
		case obj.Used:
			used[b] = append(used[b], id)
		default:
			l.Removed = append(l.Removed, id)
		}
	}
	used[bucketExportTable] = []ir.SymbolID{l.ExportTable}

	for _, plan := range regionPlan {
		syms := used[plan.bucket]
		if plan.bucket < bucketExportTable {
			o.sortBucket(plan.bucket, syms)
		}
		r := Region{
			Name:    plan.name,
			Begin:   o.prog.Predefined[plan.begin],
			End:     o.prog.Predefined[plan.end],
			Symbols: syms,
		}
		if plan.before != 0 {
			l.Symbols = append(l.Symbols, l.Markers[plan.before])
		}
		l.Symbols = append(l.Symbols, r.Begin)
		l.Symbols = append(l.Symbols, syms...)
		l.Symbols = append(l.Symbols, r.End)
		if plan.after != 0 {
			l.Symbols = append(l.Symbols, l.Markers[plan.after])
		}
		l.Regions = append(l.Regions, r)
	}
}
