package object

import (
	"github.com/wippyai/ccvm-link/internal/binary"
	"github.com/wippyai/ccvm-link/ir"
)

// Encode serializes sections followed by the zero-id sentinel record.
// Sections without data are written as zero-filled regions.
func Encode(sections []*ir.Section) []byte {
	w := binary.NewWriter()
	for _, s := range sections {
		dataSize := uint32(0)
		if s.HasData() {
			dataSize = uint32(len(s.Data))
		}
		w.WriteU64LE(s.ID)
		w.WriteU64LE(s.Link)
		w.WriteU64LE(s.Reloc)
		w.WriteU64LE(s.Prev)
		w.WriteU32LE(s.Size)
		w.WriteU32LE(dataSize)
		w.WriteU32LE(s.Addr)
		w.WriteU32LE(s.EntSize)
		w.WriteU32LE(s.Flags)
		w.WriteU32LE(s.Info)
		w.WriteU32LE(s.Type)
		w.WriteU32LE(uint32(len(s.Name)))
		w.WriteU32LE(s.Index)
		w.WriteU32LE(0)
		w.WriteString(s.Name)
		if s.HasData() {
			w.WriteBytes(s.Data)
		}
	}
	w.Zero(HeaderSize)
	return w.Bytes()
}

// EncodeSymbols serializes symbol-table records.
func EncodeSymbols(records []SymbolRecord) []byte {
	w := binary.NewWriter()
	for _, rec := range records {
		w.WriteU32LE(rec.NameIndex)
		w.WriteU32LE(rec.Addr)
		w.WriteU32LE(rec.Size)
		w.Byte(byte(rec.Bind)<<4 | rec.Type&0x0F)
		w.Byte(rec.Other)
		w.WriteU16LE(rec.Shndx)
	}
	return w.Bytes()
}

// EncodeRelocations serializes relocation records.
func EncodeRelocations(records []RelocationRecord) []byte {
	w := binary.NewWriter()
	for _, rec := range records {
		w.WriteU32LE(rec.Addr)
		w.WriteU32LE(rec.Symbol<<8 | uint32(rec.Type))
	}
	return w.Bytes()
}

// EncodeInstructions concatenates the 12-byte encodings of raw instructions.
func EncodeInstructions(raws []ir.RawInstruction) []byte {
	w := binary.NewWriter()
	for _, r := range raws {
		w.WriteBytes(r.Encode())
	}
	return w.Bytes()
}
