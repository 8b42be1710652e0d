// Package ccvmlink links ccvm object files into an ordered symbol layout.
//
// A ccvm object file is a flat list of sections produced by the ccvm C
// toolchain: code and data sections, a symbol table, a string table,
// relocation tables and export/import pseudo-sections. Linking runs three
// stages in sequence:
//
//	ccvmlink/            Root package: Link pipeline and logger wiring
//	├── object/          Section records, symbol and relocation tables
//	├── parser/          Object file to ir.Program (symbols, IR, labels)
//	├── linker/          Buckets, reachability and final ordering
//	├── ir/              Symbols, instructions, labels and the symbol arena
//	└── errors/          Structured error types for diagnostics
//
// The result is the ordered list of used symbols, each with resolved IR,
// framed by the predefined boundary symbols an emitter needs to assign
// addresses. Emitting bytecode is left to the caller.
//
// # Quick Start
//
//	data, err := os.ReadFile("program.ccvm")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res, err := ccvmlink.Link(data, ccvmlink.DefaultOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, id := range res.Layout.Symbols {
//	    fmt.Println(res.Program.Symbols.Name(id))
//	}
//
// # Errors and Warnings
//
// Every fatal problem is an *errors.Error naming the phase, the section,
// the symbol and the byte offset involved. Recoverable problems are logged
// through zap and collected on Program.Warnings and Layout.Warnings; with
// Strict set they fail the link instead.
//
// # Thread Safety
//
// Link is safe to call from several goroutines on different inputs. The
// returned Program and Layout are not synchronized.
package ccvmlink
