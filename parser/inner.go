package parser

import (
	"cmp"
	"slices"

	"github.com/wippyai/ccvm-link/errors"
	"github.com/wippyai/ccvm-link/ir"
)

// findInnerSymbols demotes every symbol nested in another symbol of the
// same section to an inner symbol of it. Partially overlapping symbols are fatal.
func (p *parser) findInnerSymbols() error {
	tab := p.prog.Symbols

	var order []*ir.Section
	bySection := make(map[*ir.Section][]ir.SymbolID)
	for _, id := range p.prog.Unique() {
		obj, ok := tab.Object(id)
		if !ok {
			continue
		}
		if _, seen := bySection[obj.Section]; !seen {
			order = append(order, obj.Section)
		}
		bySection[obj.Section] = append(bySection[obj.Section], id)
	}

	for _, sec := range order {
		ids := bySection[sec]
		slices.SortStableFunc(ids, func(a, b ir.SymbolID) int {
			oa, _ := tab.Object(a)
			ob, _ := tab.Object(b)
			if oa.Addr != ob.Addr {
				return cmp.Compare(oa.Addr, ob.Addr)
			}
			return cmp.Compare(ob.Size, oa.Size)
		})

		current := ir.NoSymbol
		var cur *ir.Object
		for _, id := range ids {
			obj, _ := tab.Object(id)
			switch {
			case cur == nil || uint64(obj.Addr) >= end(cur):
				current, cur = id, obj
			case end(obj) > end(cur):
				return errors.New(errors.PhaseParse, errors.KindSymbolOverlap).
					Section(sec.Name).
					Symbol(obj.Name).
					Offset(obj.Addr).
					Detail("overlapping top-level symbols %q and %q", obj.Name, cur.Name).
					Build()
			default:
				p.demote(id, current, obj.Addr-cur.Addr)
				cur.Inner = append(cur.Inner, id)
			}
		}
	}
	return nil
}

func end(o *ir.Object) uint64 {
	return uint64(o.Addr) + uint64(o.Size)
}

// demote replaces the symbol behind id with an inner symbol of parent.
// The handle is kept so every reference to it follows automatically.
func (p *parser) demote(id, parent ir.SymbolID, offset uint32) {
	tab := p.prog.Symbols
	base := *tab.Get(id).Base()
	if _, ok := tab.Get(parent).(*ir.FunctionSymbol); ok {
		tab.Replace(id, &ir.FunctionInnerSymbol{SymbolBase: base, Parent: parent, Offset: offset, Instruction: -1})
		return
	}
	tab.Replace(id, &ir.InnerSymbol{SymbolBase: base, Parent: parent, Offset: offset})
}
