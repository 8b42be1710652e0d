// Package parser turns a ccvm object file into an ir.Program.
//
// Parsing runs in fixed stages: predefined symbols, section classification,
// string and symbol tables, synthesized init/fini array symbols, inner
// symbol extraction, IR decoding of every data and function symbol, and
// label resolution. Any structural problem aborts with an *errors.Error that
// names the section, symbol and byte offset involved. Recoverable problems
// are logged, kept on Program.Warnings and only fail the parse in strict mode.
package parser
