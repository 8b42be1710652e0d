package object

import (
	"bytes"
	stdbinary "encoding/binary"

	"github.com/wippyai/ccvm-link/errors"
	"github.com/wippyai/ccvm-link/internal/binary"
	"github.com/wippyai/ccvm-link/ir"
)

var le = stdbinary.LittleEndian

// Record widths.
const (
	SymbolRecordSize     = 16
	RelocationRecordSize = 8
)

// Special section indexes of a symbol record.
const (
	SHNUndef     uint16 = 0
	SHNLoReserve uint16 = 0xff00
	SHNAbs       uint16 = 0xfff1
)

// SymbolRecord is one raw symbol-table entry.
type SymbolRecord struct {
	NameIndex uint32
	Addr      uint32
	Size      uint32
	Bind      ir.Binding
	Type      uint8
	Other     uint8
	Shndx     uint16
}

// ReadSymbols decodes the records of a symbol-table section.
func ReadSymbols(data []byte) ([]SymbolRecord, error) {
	if len(data)%SymbolRecordSize != 0 {
		return nil, errors.New(errors.PhaseParse, errors.KindCorruptedInput).
			Section(".symtab").
			Detail("size %d is not a multiple of %d", len(data), SymbolRecordSize).
			Build()
	}
	r := binary.NewReader(data)
	out := make([]SymbolRecord, 0, len(data)/SymbolRecordSize)
	for r.Len() > 0 {
		b, err := r.ReadBytes(SymbolRecordSize)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseParse, errors.KindCorruptedInput, err, "symbol record")
		}
		out = append(out, SymbolRecord{
			NameIndex: le.Uint32(b[0:4]),
			Addr:      le.Uint32(b[4:8]),
			Size:      le.Uint32(b[8:12]),
			Bind:      ir.Binding(b[12] >> 4),
			Type:      b[12] & 0x0F,
			Other:     b[13],
			Shndx:     le.Uint16(b[14:16]),
		})
	}
	return out, nil
}

// RelocationRecord is one raw relocation entry.
type RelocationRecord struct {
	Addr   uint32
	Symbol uint32 // symbol-table index, 24 bits
	Type   ir.RelocationType
}

// ReadRelocations decodes the records of a relocation section.
func ReadRelocations(data []byte) ([]RelocationRecord, error) {
	if len(data)%RelocationRecordSize != 0 {
		return nil, errors.New(errors.PhaseRelocate, errors.KindCorruptedInput).
			Detail("relocation table size %d is not a multiple of %d", len(data), RelocationRecordSize).
			Build()
	}
	r := binary.NewReader(data)
	out := make([]RelocationRecord, 0, len(data)/RelocationRecordSize)
	for r.Len() > 0 {
		addr, err := r.ReadU32LE()
		if err != nil {
			return nil, errors.Wrap(errors.PhaseRelocate, errors.KindCorruptedInput, err, "relocation record")
		}
		info, err := r.ReadU32LE()
		if err != nil {
			return nil, errors.Wrap(errors.PhaseRelocate, errors.KindCorruptedInput, err, "relocation record")
		}
		out = append(out, RelocationRecord{
			Addr:   addr,
			Symbol: info >> 8,
			Type:   ir.RelocationType(info & 0xFF),
		})
	}
	return out, nil
}

// StringTable builds a null-terminated string pool. Offset 0 is the empty name.
type StringTable struct {
	buf     bytes.Buffer
	offsets map[string]uint32
}

// NewStringTable creates a pool holding only the empty string.
func NewStringTable() *StringTable {
	st := &StringTable{offsets: map[string]uint32{"": 0}}
	st.buf.WriteByte(0)
	return st
}

// Add interns s and returns its offset.
func (st *StringTable) Add(s string) uint32 {
	if off, ok := st.offsets[s]; ok {
		return off
	}
	off := uint32(st.buf.Len())
	st.buf.WriteString(s)
	st.buf.WriteByte(0)
	st.offsets[s] = off
	return off
}

// Bytes returns the encoded pool.
func (st *StringTable) Bytes() []byte {
	return bytes.Clone(st.buf.Bytes())
}
