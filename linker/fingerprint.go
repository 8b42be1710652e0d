package linker

import (
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/wippyai/ccvm-link/internal/binary"
	"github.com/wippyai/ccvm-link/ir"
)

// Fingerprint digests the ordered layout: names, kinds, sizes and IR of
// every placed symbol plus the stack and heap sizes. Two runs over the same
// object file produce the same fingerprint.
func (l *Layout) Fingerprint(tab *ir.Table) uint64 {
	w := binary.NewWriter()
	w.WriteU32LE(l.StackSize)
	w.WriteU32LE(l.HeapSize)
	for _, id := range l.Symbols {
		sym := tab.Get(id)
		w.WriteString(sym.Base().Name)
		w.Byte(0)
		w.WriteString(ir.KindName(sym))
		obj, ok := tab.Object(id)
		if !ok {
			continue
		}
		w.WriteU32LE(obj.Size)
		w.WriteU32LE(uint32(len(obj.IR)))
		for _, in := range obj.IR {
			w.Byte(byte(in.Op))
			w.WriteString(fmt.Sprintf("%v", in.Imm))
			for _, ref := range in.References {
				w.WriteString(tab.Name(ref))
				w.Byte(0)
			}
		}
	}
	return xxhash.Sum64(w.Bytes())
}
