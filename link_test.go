package ccvmlink_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	ccvmlink "github.com/wippyai/ccvm-link"
	"github.com/wippyai/ccvm-link/errors"
	"github.com/wippyai/ccvm-link/internal/objtest"
	"github.com/wippyai/ccvm-link/ir"
)

// program builds a small object: an entry vector calling main, which jumps
// over a dead instruction, prints through an import and reads a string.
func program() *objtest.Builder {
	b := objtest.New()
	b.Section(".ccvm.import.1.puts", nil)
	b.Section(".ccvm.export.0.main", nil)

	rodata := b.Section(".rodata.str", []byte("hi\x00\x00"))
	greeting := b.Global("greeting", rodata, 0, 4)

	text := b.Code(".text.main",
		objtest.Instr(ir.OpMovConst, 0, 0, 0, 0, 0),
		objtest.Instr(ir.OpCallConst, 0, 0, 0, 0, 0),
		objtest.Instr(ir.OpJumpLabel, 0, 0, 0, 1, 0),
		objtest.Instr(ir.OpMovConst, 0, 0, 0, 99, 0),
		objtest.Instr(ir.OpLabelRelative, 0, 0, 0, 1, 0),
		objtest.Instr(ir.OpReturn, 0, 0, 0, 0, 0),
	)
	main := b.Global("main", text, 0, 6*12)
	puts := b.Undefined("puts")
	b.Reloc(text, 0, greeting, ir.RelocInstr)
	b.Reloc(text, 12, puts, ir.RelocInstr)

	b.Global("dead", b.Code(".text.dead", objtest.Instr(ir.OpReturn, 0, 0, 0, 0, 0)), 0, 12)

	entry := b.Zero(".ccvm.entry", 4)
	b.Global("entry", entry, 0, 4)
	b.Reloc(entry, 0, main, ir.RelocData)
	return b
}

func TestLink(t *testing.T) {
	res, err := ccvmlink.Link(program().Bytes(), ccvmlink.DefaultOptions())
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	tab := res.Program.Symbols

	var text []string
	for _, id := range res.Layout.Region("text").Symbols {
		text = append(text, tab.Name(id))
	}
	if diff := cmp.Diff([]string{"puts", "main"}, text); diff != "" {
		t.Errorf("text region (-want +got):\n%s", diff)
	}

	var removed []string
	for _, id := range res.Layout.Removed {
		removed = append(removed, tab.Name(id))
	}
	if diff := cmp.Diff([]string{"dead"}, removed); diff != "" {
		t.Errorf("removed (-want +got):\n%s", diff)
	}

	var main *ir.FunctionSymbol
	for _, id := range res.Layout.Symbols {
		if fn, ok := tab.Get(id).(*ir.FunctionSymbol); ok && fn.Name == "main" {
			main = fn
		}
	}
	if main == nil {
		t.Fatal("main not in layout")
	}
	jump := main.IR[2]
	if jump.Op != ir.OpJumpInstr || jump.Imm.(ir.JumpInstrImm).Target != 4 {
		t.Errorf("jump = %+v", jump)
	}
	for i, in := range main.IR {
		switch in.Op {
		case ir.OpJumpLabel, ir.OpLabelRelative, ir.OpLabelAbsolute, ir.OpLabelAlias:
			t.Errorf("instruction %d is an unresolved label op %s", i, in.Op)
		}
	}

	if len(res.Warnings()) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings())
	}
}

func TestLinkDeterministic(t *testing.T) {
	a, err := ccvmlink.Link(program().Bytes(), ccvmlink.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	b, err := ccvmlink.Link(program().Bytes(), ccvmlink.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("fingerprint differs between runs")
	}
	if diff := cmp.Diff(a.Layout.Symbols, b.Layout.Symbols); diff != "" {
		t.Errorf("layout differs between runs (-a +b):\n%s", diff)
	}
}

func TestLinkErrors(t *testing.T) {
	if _, err := ccvmlink.Link([]byte{1, 2, 3}, ccvmlink.DefaultOptions()); !errors.IsKind(err, errors.KindCorruptedInput) {
		t.Errorf("truncated input: got %v", err)
	}
	if _, err := ccvmlink.Link(objtest.New().Bytes(), ccvmlink.DefaultOptions()); !errors.IsKind(err, errors.KindNoSections) {
		t.Errorf("empty object: got %v", err)
	}
}

func TestLinkStrict(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	ccvmlink.SetLogger(zap.New(core))
	t.Cleanup(func() { ccvmlink.SetLogger(zap.NewNop()) })

	b := program()
	b.Section(".ccvm.export.1.missing", nil)

	res, err := ccvmlink.Link(b.Bytes(), ccvmlink.DefaultOptions())
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	if len(res.Warnings()) != 1 || logs.Len() != 1 {
		t.Fatalf("warnings = %v, logged %d", res.Warnings(), logs.Len())
	}

	if _, err := ccvmlink.Link(b.Bytes(), ccvmlink.DefaultOptions().Strict()); !errors.IsKind(err, errors.KindWarning) {
		t.Errorf("strict link should fail, got %v", err)
	}
}
