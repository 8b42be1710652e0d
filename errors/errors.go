package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates which pipeline stage produced the error
type Phase string

const (
	PhaseRead     Phase = "read"     // object file sections
	PhaseParse    Phase = "parse"    // section classification, strtab, symtab
	PhaseRelocate Phase = "relocate" // relocation tables
	PhaseDecode   Phase = "decode"   // bytes to IR
	PhaseResolve  Phase = "resolve"  // label resolution
	PhaseOrganize Phase = "organize" // bucketing, reachability, ordering
)

// Kind categorizes the error
type Kind string

const (
	KindCorruptedInput        Kind = "corrupted_input"
	KindDuplicateIdentifier   Kind = "duplicate_identifier"
	KindInvalidStrtab         Kind = "invalid_strtab"
	KindMissingSection        Kind = "missing_section"
	KindRelocation            Kind = "relocation"
	KindUnsupportedRelocation Kind = "unsupported_relocation"
	KindSymbolOverlap         Kind = "symbol_overlap"
	KindLabelResolution       Kind = "label_resolution"
	KindUnknownOpcode         Kind = "unknown_opcode"
	KindInvalidData           Kind = "invalid_data"
	KindNoSections            Kind = "no_sections"
	KindWarning               Kind = "warning"
)

// Error is the structured error type used by every pipeline stage
type Error struct {
	Value     any
	Cause     error
	Phase     Phase
	Kind      Kind
	Section   string
	Symbol    string
	Detail    string
	Offset    uint32
	HasOffset bool
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Section != "" {
		b.WriteString(" in section ")
		b.WriteString(e.Section)
	}
	if e.Symbol != "" {
		b.WriteString(" symbol ")
		b.WriteString(e.Symbol)
	}
	if e.HasOffset {
		fmt.Fprintf(&b, " at 0x%x", e.Offset)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Fatal reports whether the error aborts the pipeline.
func (e *Error) Fatal() bool {
	return e.Kind != KindWarning
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Section sets the section name
func (b *Builder) Section(name string) *Builder {
	b.err.Section = name
	return b
}

// Symbol sets the symbol name
func (b *Builder) Symbol(name string) *Builder {
	b.err.Symbol = name
	return b
}

// Offset sets the byte offset the error refers to
func (b *Builder) Offset(off uint32) *Builder {
	b.err.Offset = off
	b.err.HasOffset = true
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries a structured error of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Convenience constructors for common error patterns

// Corrupted creates a structural error for truncated or malformed input
func Corrupted(phase Phase, offset uint32, detail string, args ...any) *Error {
	return New(phase, KindCorruptedInput).Offset(offset).Detail(detail, args...).Build()
}

// Duplicate creates a duplicate identifier error
func Duplicate(phase Phase, what string, value any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindDuplicateIdentifier,
		Detail: fmt.Sprintf("repeating %s %v", what, value),
		Value:  value,
	}
}

// InvalidStrtab creates a string table lookup error
func InvalidStrtab(offset uint32, detail string) *Error {
	return &Error{
		Phase:     PhaseParse,
		Kind:      KindInvalidStrtab,
		Section:   ".strtab",
		Offset:    offset,
		HasOffset: true,
		Detail:    detail,
	}
}

// MissingSection starts an error for a reference to an absent section.
// The returned builder takes further context before Build.
func MissingSection(phase Phase, what string, ref any) *Builder {
	return New(phase, KindMissingSection).Value(ref).Detail("missing %s %v", what, ref)
}

// UnknownOpcode creates an unknown opcode error
func UnknownOpcode(symbol string, offset uint32, opcode uint8) *Error {
	return &Error{
		Phase:     PhaseDecode,
		Kind:      KindUnknownOpcode,
		Symbol:    symbol,
		Offset:    offset,
		HasOffset: true,
		Detail:    fmt.Sprintf("unknown IR opcode %d", opcode),
		Value:     opcode,
	}
}

// Warning starts a non-fatal diagnostic
func Warning(phase Phase, detail string, args ...any) *Builder {
	return New(phase, KindWarning).Detail(detail, args...)
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
