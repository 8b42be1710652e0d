package ir

// PredefinedSection is the name of the synthetic section predefined symbols live in.
const PredefinedSection = "$predefined_symbols_section"

// Predefined boundary symbol names. The emitter resolves these by exact name.
const (
	SectionRegistersBegin = "__ccvm_section_registers_begin__"
	SectionRegistersEnd   = "__ccvm_section_registers_end__"
	SectionDataBegin      = "__ccvm_section_data_begin__"
	SectionDataEnd        = "__ccvm_section_data_end__"
	SectionBSSBegin       = "__ccvm_section_bss_begin__"
	SectionBSSEnd         = "__ccvm_section_bss_end__"
	SectionStackBegin     = "__ccvm_section_stack_begin__"
	SectionStackEnd       = "__ccvm_section_stack_end__"
	SectionHeapBegin      = "__ccvm_section_heap_begin__"
	SectionHeapEnd        = "__ccvm_section_heap_end__"
	SectionEntryBegin     = "__ccvm_section_entry_begin__"
	SectionEntryEnd       = "__ccvm_section_entry_end__"
	SectionRodataBegin    = "__ccvm_section_rodata_begin__"
	SectionRodataEnd      = "__ccvm_section_rodata_end__"
	SectionTextBegin      = "__ccvm_section_text_begin__"
	SectionTextEnd        = "__ccvm_section_text_end__"
	SectionInitBegin      = "__ccvm_section_init_begin__"
	SectionInitEnd        = "__ccvm_section_init_end__"
	SectionFiniBegin      = "__ccvm_section_fini_begin__"
	SectionFiniEnd        = "__ccvm_section_fini_end__"
	LoadDataBegin         = "__ccvm_load_section_data_begin__"
	LoadDataEnd           = "__ccvm_load_section_data_end__"
	ExportTableBegin      = "__ccvm_export_table_begin__"
	ExportTableEnd        = "__ccvm_export_table_end__"
)

// PredefinedNames lists every predefined symbol in declaration order.
var PredefinedNames = []string{
	SectionRegistersBegin, SectionRegistersEnd,
	SectionDataBegin, SectionDataEnd,
	SectionBSSBegin, SectionBSSEnd,
	SectionStackBegin, SectionStackEnd,
	SectionHeapBegin, SectionHeapEnd,
	SectionEntryBegin, SectionEntryEnd,
	SectionRodataBegin, SectionRodataEnd,
	SectionTextBegin, SectionTextEnd,
	SectionInitBegin, SectionInitEnd,
	SectionFiniBegin, SectionFiniEnd,
	LoadDataBegin, LoadDataEnd,
	ExportTableBegin, ExportTableEnd,
}

// Predefined maps predefined symbol names to their handles.
type Predefined map[string]SymbolID

// NewPredefined creates one zero-size data symbol per predefined name on a
// synthetic section and registers them in t.
func NewPredefined(t *Table, section *Section) Predefined {
	p := make(Predefined, len(PredefinedNames))
	for _, name := range PredefinedNames {
		p[name] = t.Add(NewDataSymbol(name, section, 0, 0))
	}
	return p
}

// Marker names a fixed position in the final layout.
type Marker uint8

const (
	MarkerHeap Marker = iota + 1
	MarkerStack
	MarkerProgram
	MarkerDataLoad
	MarkerDataBegin
	MarkerDataEnd
)

// Markers lists every marker kind in layout order.
var Markers = []Marker{MarkerDataBegin, MarkerDataEnd, MarkerHeap, MarkerStack, MarkerProgram, MarkerDataLoad}

func (m Marker) String() string {
	switch m {
	case MarkerHeap:
		return "heap"
	case MarkerStack:
		return "stack"
	case MarkerProgram:
		return "program"
	case MarkerDataLoad:
		return "dataLoad"
	case MarkerDataBegin:
		return "dataBegin"
	case MarkerDataEnd:
		return "dataEnd"
	}
	return "unknown"
}

// SymbolName returns the name of the synthesized marker symbol.
func (m Marker) SymbolName() string {
	return "__ccvm_marker_" + m.String() + "__"
}
