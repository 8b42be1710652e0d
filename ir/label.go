package ir

import (
	"fmt"
	"maps"
	"slices"
)

// LabelKind tells which address space a label definition lives in.
type LabelKind uint8

const (
	LabelRelative LabelKind = iota + 1 // instruction index inside the function
	LabelAbsolute                      // link-time constant
)

func (k LabelKind) String() string {
	switch k {
	case LabelRelative:
		return "relative"
	case LabelAbsolute:
		return "absolute"
	}
	return "unknown"
}

// LabelDef is a single label definition.
type LabelDef struct {
	Kind  LabelKind
	Value uint32 // instruction index for LabelRelative, value for LabelAbsolute
}

// LabelSet groups label indices of one function into alias sets.
// Every label holds at most one definition; a set resolves only when exactly
// one of its members is defined.
type LabelSet struct {
	parent map[uint32]uint32
	rank   map[uint32]uint8
	defs   map[uint32]map[uint32]LabelDef // set root -> member -> definition
}

// NewLabelSet creates an empty label set.
func NewLabelSet() *LabelSet {
	return &LabelSet{
		parent: make(map[uint32]uint32),
		rank:   make(map[uint32]uint8),
		defs:   make(map[uint32]map[uint32]LabelDef),
	}
}

func (s *LabelSet) find(label uint32) uint32 {
	p, ok := s.parent[label]
	if !ok {
		s.parent[label] = label
		return label
	}
	if p == label {
		return label
	}
	root := s.find(p)
	s.parent[label] = root
	return root
}

// Define records the definition of label. A repeat on the same label
// replaces the earlier one.
func (s *LabelSet) Define(label uint32, def LabelDef) {
	root := s.find(label)
	members := s.defs[root]
	if members == nil {
		members = make(map[uint32]LabelDef)
		s.defs[root] = members
	}
	members[label] = def
}

// Alias merges the sets of a and b.
func (s *LabelSet) Alias(a, b uint32) {
	ra, rb := s.find(a), s.find(b)
	if ra == rb {
		return
	}
	if s.rank[ra] < s.rank[rb] {
		ra, rb = rb, ra
	}
	s.parent[rb] = ra
	if s.rank[ra] == s.rank[rb] {
		s.rank[ra]++
	}
	if moved := s.defs[rb]; len(moved) > 0 {
		if s.defs[ra] == nil {
			s.defs[ra] = make(map[uint32]LabelDef, len(moved))
		}
		maps.Copy(s.defs[ra], moved)
	}
	delete(s.defs, rb)
}

// Same reports whether a and b belong to the same alias set.
func (s *LabelSet) Same(a, b uint32) bool {
	return s.find(a) == s.find(b)
}

// Definitions returns the definitions made on members of label's alias set,
// ordered by member label.
func (s *LabelSet) Definitions(label uint32) []LabelDef {
	members := s.defs[s.find(label)]
	defs := make([]LabelDef, 0, len(members))
	for _, m := range slices.Sorted(maps.Keys(members)) {
		defs = append(defs, members[m])
	}
	return defs
}

// Resolve returns the single definition of label's alias set.
func (s *LabelSet) Resolve(label uint32) (LabelDef, error) {
	members := s.defs[s.find(label)]
	switch len(members) {
	case 0:
		return LabelDef{}, fmt.Errorf("undefined label %d", label)
	case 1:
		for _, d := range members {
			return d, nil
		}
	}
	return LabelDef{}, fmt.Errorf("label %d has %d definitions", label, len(members))
}
