package parser

import (
	"cmp"
	"slices"

	"github.com/wippyai/ccvm-link/errors"
	"github.com/wippyai/ccvm-link/ir"
	"github.com/wippyai/ccvm-link/object"
)

// relocationSectionPrefix names the relocation table of a section when the
// section carries no explicit reloc id.
const relocationSectionPrefix = "rel."

// sectionRelocations returns the relocations of sec sorted by offset.
// They are decoded on first use and cached for the rest of the session.
func (p *parser) sectionRelocations(sec *ir.Section) ([]ir.Relocation, error) {
	if relocs, ok := p.relocations[sec]; ok {
		return relocs, nil
	}

	table, err := p.relocationTable(sec)
	if err != nil {
		return nil, err
	}
	var relocs []ir.Relocation
	if table != nil && table.HasData() {
		records, err := object.ReadRelocations(table.Data)
		if err != nil {
			return nil, err
		}
		relocs = make([]ir.Relocation, 0, len(records))
		for _, rec := range records {
			if !rec.Type.Valid() {
				return nil, errors.New(errors.PhaseRelocate, errors.KindRelocation).
					Section(sec.Name).
					Offset(rec.Addr).
					Value(rec.Type).
					Detail("unknown relocation type %d", uint8(rec.Type)).
					Build()
			}
			if uint64(rec.Symbol) >= uint64(p.records) {
				return nil, errors.New(errors.PhaseRelocate, errors.KindRelocation).
					Section(sec.Name).
					Offset(rec.Addr).
					Value(rec.Symbol).
					Detail("unknown relocation symbol index %d", rec.Symbol).
					Build()
			}
			relocs = append(relocs, ir.Relocation{
				Offset: rec.Addr,
				Type:   rec.Type,
				Symbol: p.prog.Entries[rec.Symbol],
			})
		}
	}

	slices.SortStableFunc(relocs, func(a, b ir.Relocation) int {
		return cmp.Compare(a.Offset, b.Offset)
	})
	for i := 1; i < len(relocs); i++ {
		prev, cur := relocs[i-1], relocs[i]
		if uint64(prev.Offset)+uint64(prev.Type.Size()) > uint64(cur.Offset) {
			return nil, errors.New(errors.PhaseRelocate, errors.KindRelocation).
				Section(sec.Name).
				Offset(cur.Offset).
				Detail("relocation overlaps relocation at 0x%x", prev.Offset).
				Build()
		}
	}

	p.relocations[sec] = relocs
	return relocs, nil
}

func (p *parser) relocationTable(sec *ir.Section) (*ir.Section, error) {
	if sec.Reloc != 0 {
		table, ok := p.byID[sec.Reloc]
		if !ok {
			return nil, errors.MissingSection(errors.PhaseRelocate, "relocation section", sec.Reloc).
				Section(sec.Name).
				Build()
		}
		return table, nil
	}
	name := relocationSectionPrefix + sec.Name
	for _, s := range p.prog.Sections {
		if s.Name == name {
			return s, nil
		}
	}
	return nil, nil
}

// symbolRelocations returns the relocations inside obj with offsets made
// relative to the symbol start. A relocation crossing either end of the
// symbol is fatal.
func (p *parser) symbolRelocations(obj *ir.Object) ([]ir.Relocation, error) {
	all, err := p.sectionRelocations(obj.Section)
	if err != nil {
		return nil, err
	}
	start := uint64(obj.Addr)
	stop := start + uint64(obj.Size)

	var out []ir.Relocation
	for _, r := range all {
		rs, re := uint64(r.Offset), uint64(r.Offset)+uint64(r.Type.Size())
		crossesStart := rs < start && re > start
		crossesEnd := rs < stop && re > stop
		if crossesStart || crossesEnd {
			return nil, errors.New(errors.PhaseRelocate, errors.KindRelocation).
				Section(obj.Section.Name).
				Symbol(obj.Name).
				Offset(r.Offset).
				Detail("relocation spans over symbol boundary at 0x%x, size %d", obj.Addr, obj.Size).
				Build()
		}
		if rs >= start && rs < stop {
			out = append(out, ir.Relocation{
				Offset: r.Offset - obj.Addr,
				Type:   r.Type,
				Symbol: r.Symbol,
			})
		}
	}
	return out, nil
}
