// Package object reads and writes the ccvm relocatable object container.
//
// An object file is a sequence of section records, each a 72-byte
// little-endian header followed by the section name and an optional data
// blob, terminated by a record whose id is zero. The package also encodes
// and decodes the fixed-width symbol-table and relocation records carried
// inside sections; interpreting them is left to the parser.
package object
