package ccvmlink

import (
	"go.uber.org/zap"

	"github.com/wippyai/ccvm-link/ir"
	"github.com/wippyai/ccvm-link/linker"
	"github.com/wippyai/ccvm-link/parser"
)

// Options configures both pipeline stages.
type Options struct {
	Parser parser.Options
	Linker linker.Options
}

// DefaultOptions returns the default configuration of every stage.
func DefaultOptions() Options {
	return Options{
		Parser: parser.DefaultOptions(),
		Linker: linker.DefaultOptions(),
	}
}

// Strict returns a copy of o with strict mode enabled in every stage.
func (o Options) Strict() Options {
	o.Parser.Strict = true
	o.Linker.Strict = true
	return o
}

// Result is the output of a successful link.
type Result struct {
	Program *ir.Program
	Layout  *linker.Layout
}

// Warnings returns the parser's warnings followed by the organizer's.
func (r *Result) Warnings() []error {
	out := make([]error, 0, len(r.Program.Warnings)+len(r.Layout.Warnings))
	out = append(out, r.Program.Warnings...)
	return append(out, r.Layout.Warnings...)
}

// Fingerprint digests the final layout.
func (r *Result) Fingerprint() uint64 {
	return r.Layout.Fingerprint(r.Program.Symbols)
}

// Link parses an object file and organizes its symbols.
func Link(data []byte, opts Options) (*Result, error) {
	prog, err := parser.Parse(data, opts.Parser)
	if err != nil {
		return nil, err
	}
	layout, err := linker.Organize(prog, opts.Linker)
	if err != nil {
		return nil, err
	}
	return &Result{Program: prog, Layout: layout}, nil
}

// SetLogger configures the logger of every stage.
func SetLogger(l *zap.Logger) {
	parser.SetLogger(l)
	linker.SetLogger(l)
}
