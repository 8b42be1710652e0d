package object

import (
	"github.com/wippyai/ccvm-link/errors"
	"github.com/wippyai/ccvm-link/internal/binary"
	"github.com/wippyai/ccvm-link/ir"
)

// HeaderSize is the fixed width of a section record header.
const HeaderSize = 72

// header mirrors the on-disk section record layout.
type header struct {
	id, link, reloc, prev uint64
	size, dataSize        uint32
	addr, entSize         uint32
	flags, info, typ      uint32
	nameLen, index        uint32
}

// ReadSections parses data into its section records. The stream must end
// with a zero-id sentinel record exactly at end of input, and section ids
// and indexes must be unique.
func ReadSections(data []byte) ([]*ir.Section, error) {
	r := binary.NewReader(data)
	var sections []*ir.Section

	for {
		start := r.Position()
		if r.Len() < HeaderSize {
			if r.Len() == 0 {
				return nil, errors.Corrupted(errors.PhaseRead, uint32(start), "missing terminating sentinel record")
			}
			return nil, errors.New(errors.PhaseRead, errors.KindCorruptedInput).
				Offset(uint32(start)).
				Cause(r.WrapError("section header", binary.ErrShortRead)).
				Detail("truncated section header").
				Build()
		}
		h, err := readHeader(r)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseRead, errors.KindCorruptedInput, err, "section header")
		}

		if h.id == 0 {
			if r.Len() != 0 {
				return nil, errors.Corrupted(errors.PhaseRead, uint32(r.Position()),
					"%d trailing bytes after sentinel record", r.Len())
			}
			break
		}

		name, err := r.ReadString(int(h.nameLen))
		if err != nil {
			return nil, errors.New(errors.PhaseRead, errors.KindCorruptedInput).
				Offset(uint32(r.Position())).Cause(err).Detail("truncated section name").Build()
		}
		blob, err := r.ReadBytes(int(h.dataSize))
		if err != nil {
			return nil, errors.New(errors.PhaseRead, errors.KindCorruptedInput).
				Section(name).Offset(uint32(r.Position())).Cause(err).Detail("truncated section data").Build()
		}

		sec := &ir.Section{
			ID:      h.id,
			Link:    h.link,
			Reloc:   h.reloc,
			Prev:    h.prev,
			Name:    name,
			Index:   h.index,
			Size:    h.size,
			Addr:    h.addr,
			EntSize: h.entSize,
			Flags:   h.flags,
			Info:    h.info,
			Type:    h.typ,
		}
		// A blob that does not match the declared size marks a zero-filled region.
		if h.dataSize == h.size {
			sec.Data = blob
		}
		sections = append(sections, sec)
	}

	if err := checkUnique(sections); err != nil {
		return nil, err
	}
	return sections, nil
}

func readHeader(r *binary.Reader) (header, error) {
	var h header
	var err error
	u64 := func(dst *uint64) {
		if err == nil {
			*dst, err = r.ReadU64LE()
		}
	}
	u32 := func(dst *uint32) {
		if err == nil {
			*dst, err = r.ReadU32LE()
		}
	}
	u64(&h.id)
	u64(&h.link)
	u64(&h.reloc)
	u64(&h.prev)
	u32(&h.size)
	u32(&h.dataSize)
	u32(&h.addr)
	u32(&h.entSize)
	u32(&h.flags)
	u32(&h.info)
	u32(&h.typ)
	u32(&h.nameLen)
	u32(&h.index)
	var reserved uint32
	u32(&reserved)
	return h, err
}

func checkUnique(sections []*ir.Section) error {
	byID := make(map[uint64]struct{}, len(sections))
	byIndex := make(map[uint32]struct{}, len(sections))
	for _, s := range sections {
		if _, ok := byID[s.ID]; ok {
			return errors.Duplicate(errors.PhaseRead, "section id", s.ID)
		}
		byID[s.ID] = struct{}{}
		if _, ok := byIndex[s.Index]; ok {
			return errors.Duplicate(errors.PhaseRead, "section index", s.Index)
		}
		byIndex[s.Index] = struct{}{}
	}
	return nil
}
