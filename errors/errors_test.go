package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:     PhaseDecode,
				Kind:      KindRelocation,
				Section:   ".text.main",
				Symbol:    "main",
				Offset:    0x18,
				HasOffset: true,
				Detail:    "two relocations in the same instruction",
			},
			contains: []string{"[decode]", "relocation", ".text.main", "main", "0x18", "two relocations"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseRead,
				Kind:  KindCorruptedInput,
			},
			contains: []string{"[read]", "corrupted_input"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseParse,
				Kind:   KindInvalidData,
				Detail: "bad symtab",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[parse]", "invalid_data", "bad symtab", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_NoOffset(t *testing.T) {
	err := New(PhaseParse, KindSymbolOverlap).Symbol("a").Build()
	if strings.Contains(err.Error(), " at 0x") {
		t.Errorf("unexpected offset in %q", err.Error())
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Wrap(PhaseRead, KindCorruptedInput, cause, "read header")

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}
	if errors.Unwrap(err) != cause {
		t.Error("Unwrap should return the cause")
	}
}

func TestError_Is(t *testing.T) {
	err := New(PhaseResolve, KindLabelResolution).Detail("undefined label").Build()

	if !errors.Is(err, &Error{Phase: PhaseResolve, Kind: KindLabelResolution}) {
		t.Error("expected match on phase and kind")
	}
	if errors.Is(err, &Error{Phase: PhaseDecode, Kind: KindLabelResolution}) {
		t.Error("phase mismatch should not match")
	}
}

func TestBuilder(t *testing.T) {
	err := New(PhaseRelocate, KindRelocation).
		Section(".data").
		Symbol("table").
		Offset(4).
		Value(7).
		Detail("relocation spans symbol boundary at %d", 4).
		Build()

	if err.Section != ".data" || err.Symbol != "table" {
		t.Errorf("context not set: %+v", err)
	}
	if !err.HasOffset || err.Offset != 4 {
		t.Errorf("offset not set: %+v", err)
	}
	if err.Value != 7 {
		t.Errorf("value: got %v", err.Value)
	}
	if err.Detail != "relocation spans symbol boundary at 4" {
		t.Errorf("detail: got %q", err.Detail)
	}
}

func TestKindOf(t *testing.T) {
	inner := UnknownOpcode("f", 12, 0x7f)
	wrapped := fmt.Errorf("parse: %w", inner)

	if got := KindOf(wrapped); got != KindUnknownOpcode {
		t.Errorf("KindOf: got %q", got)
	}
	if !IsKind(wrapped, KindUnknownOpcode) {
		t.Error("IsKind should see through fmt wrapping")
	}
	if KindOf(errors.New("plain")) != "" {
		t.Error("plain errors have no kind")
	}
}

func TestWarningIsNotFatal(t *testing.T) {
	if Warning(PhaseParse, "unknown reserved section index %d", 0xff10).Build().Fatal() {
		t.Error("warnings must not be fatal")
	}
	if !Duplicate(PhaseRead, "section id", 5).Fatal() {
		t.Error("duplicate identifiers are fatal")
	}
}
