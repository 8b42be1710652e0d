package linker

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"github.com/wippyai/ccvm-link/ir"
)

// CompareSectionNames orders section names segment by segment. Segments are
// split on '.', and two segments that are both canonical decimal numbers
// compare numerically. A name that is a prefix of the other sorts first.
func CompareSectionNames(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < max(len(as), len(bs)); i++ {
		if i >= len(as) {
			return -1
		}
		if i >= len(bs) {
			return 1
		}
		x, xok := canonicalNumber(as[i])
		y, yok := canonicalNumber(bs[i])
		if xok && yok {
			if c := cmp.Compare(x, y); c != 0 {
				return c
			}
			continue
		}
		if c := strings.Compare(as[i], bs[i]); c != 0 {
			return c
		}
	}
	return 0
}

// canonicalNumber parses s when it is written without sign or leading zeros.
func canonicalNumber(s string) (uint64, bool) {
	if s == "" || (len(s) > 1 && s[0] == '0') {
		return 0, false
	}
	n, err := strconv.ParseUint(s, 10, 64)
	return n, err == nil
}

// alignmentClass ranks word-aligned addresses before half-word aligned ones
// and both before the rest.
func alignmentClass(addr uint32) int {
	switch addr % 4 {
	case 0:
		return 0
	case 2:
		return 1
	}
	return 2
}

// sortBucket orders the symbols of one bucket deterministically.
func (o *organizer) sortBucket(b Bucket, ids []ir.SymbolID) {
	tab := o.prog.Symbols
	slices.SortStableFunc(ids, func(x, y ir.SymbolID) int {
		a, _ := tab.Object(x)
		c, _ := tab.Object(y)
		if r := CompareSectionNames(a.Section.Name, c.Section.Name); r != 0 {
			return r
		}
		if b.aligned() {
			if r := cmp.Compare(alignmentClass(a.Addr), alignmentClass(c.Addr)); r != 0 {
				return r
			}
		}
		if r := cmp.Compare(a.Addr, c.Addr); r != 0 {
			return r
		}
		if r := strings.Compare(a.Name, c.Name); r != 0 {
			return r
		}
		return cmp.Compare(x, y)
	})
}
