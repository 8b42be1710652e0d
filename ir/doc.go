// Package ir defines the data model shared by the ccvm object parser and the
// symbol organizer.
//
// Symbols live in a Table arena and are referred to by SymbolID handles:
// relocations, instruction references, inner-symbol parent links and export
// entries all carry handles rather than pointers. Symbol is a sealed
// interface; dispatch with a type switch over the concrete variants.
//
// Instructions are values. Imm holds an opcode-specific immediate struct,
// mirroring the fixed 12-byte VM encoding handled by RawInstruction.
// Label definitions of one function are grouped by a LabelSet, a disjoint-set
// over label indices.
package ir
