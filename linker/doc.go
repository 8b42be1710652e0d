// Package linker organizes a parsed ccvm program into its final symbol order.
//
// Organize runs once per program, after parsing:
//
//  1. Every data and function symbol is put in a bucket chosen by the first
//     section-name pattern it matches. Imports become {HOST; RETURN} stubs
//     in the text bucket.
//  2. The stack and heap sizes are the largest symbol in each bucket. Their
//     members are then collapsed to empty symbols at the region start.
//  3. An export table with one WORD per slot is synthesized, along with the
//     heap, stack, program, data and load-data marker symbols.
//  4. Registers, entry, init, fini and the export table are live at startup.
//     Everything they reference is marked live, transitively; a reference
//     to an inner symbol keeps its parent alive.
//  5. Live symbols are sorted within their bucket and emitted region by
//     region between the predefined begin/end boundary symbols.
//
// Symbols that are never marked live are reported in Layout.Removed.
//
// # Example
//
//	prog, _ := parser.Parse(data, parser.DefaultOptions())
//	layout, _ := linker.Organize(prog, linker.DefaultOptions())
//	for _, id := range layout.Symbols {
//		fmt.Println(prog.Symbols.Name(id))
//	}
package linker
