package linker

import "github.com/wippyai/ccvm-link/ir"

// MarkerSection is the synthetic section marker symbols live in.
const MarkerSection = "$ccvm_markers_section"

// createMarkers synthesizes one zero-size data symbol per marker kind. The
// heap and stack markers carry the computed region sizes.
func (o *organizer) createMarkers(stack, heap uint32) map[ir.Marker]ir.SymbolID {
	section := o.syntheticSection(MarkerSection)
	out := make(map[ir.Marker]ir.SymbolID, len(ir.Markers))
	for _, m := range ir.Markers {
		var size uint32
		switch m {
		case ir.MarkerStack:
			size = stack
		case ir.MarkerHeap:
			size = heap
		}
		sym := ir.NewDataSymbol(m.SymbolName(), section, 0, 0)
		sym.IR = []ir.Instruction{ir.MarkerInstr(m, size)}
		sym.Used = true
		out[m] = o.prog.Symbols.Add(sym)
	}
	return out
}

// syntheticSection appends a section that has no counterpart in the object
// file. Its index follows the highest index in the program.
func (o *organizer) syntheticSection(name string) *ir.Section {
	var next uint32
	for _, s := range o.prog.Sections {
		next = max(next, s.Index+1)
	}
	s := ir.NewSyntheticSection(name, next)
	o.prog.Sections = append(o.prog.Sections, s)
	return s
}
