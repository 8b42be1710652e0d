package parser_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wippyai/ccvm-link/errors"
	"github.com/wippyai/ccvm-link/internal/objtest"
	"github.com/wippyai/ccvm-link/ir"
	"github.com/wippyai/ccvm-link/object"
	"github.com/wippyai/ccvm-link/parser"
)

func mustParse(t *testing.T, b *objtest.Builder) *ir.Program {
	t.Helper()
	prog, err := parser.Parse(b.Bytes(), parser.DefaultOptions())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return prog
}

func expectKind(t *testing.T, b *objtest.Builder, kind errors.Kind) *errors.Error {
	t.Helper()
	_, err := parser.Parse(b.Bytes(), parser.DefaultOptions())
	if err == nil {
		t.Fatalf("expected %s error", kind)
	}
	if !errors.IsKind(err, kind) {
		t.Fatalf("expected kind %s, got %v", kind, err)
	}
	return err.(*errors.Error)
}

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zap.WarnLevel)
	parser.SetLogger(zap.New(core))
	t.Cleanup(func() { parser.SetLogger(zap.NewNop()) })
	return logs
}

func entry(t *testing.T, prog *ir.Program, record uint32) ir.Symbol {
	t.Helper()
	return prog.Symbols.Get(prog.Entries[record])
}

func TestParseJumpLabel(t *testing.T) {
	b := objtest.New()
	text := b.Code(".text",
		objtest.Instr(ir.OpJumpLabel, 0, 0, 0, 1, 0),
		objtest.Instr(ir.OpReturn, 0, 0, 0, 0, 0),
		// defined from slot 2 as -12 bytes: instruction 1
		objtest.Instr(ir.OpLabelRelative, 0, 0, 0, 1, 0xFFFFFFF4),
	)
	fn := b.Global("main", text, 0, 36)

	prog := mustParse(t, b)
	sym, ok := entry(t, prog, fn).(*ir.FunctionSymbol)
	if !ok {
		t.Fatalf("expected function symbol, got %T", entry(t, prog, fn))
	}
	want := []ir.Instruction{
		{Op: ir.OpJumpInstr, Imm: ir.JumpInstrImm{Target: 1}},
		ir.Return(),
		ir.Empty(),
	}
	if diff := cmp.Diff(want, sym.IR); diff != "" {
		t.Errorf("IR mismatch (-want +got):\n%s", diff)
	}
	if sym.IR[sym.IR[0].Imm.(ir.JumpInstrImm).Target].Op != ir.OpReturn {
		t.Error("jump should target the RETURN instruction")
	}
}

func TestParseLabelAliasAndPushBlock(t *testing.T) {
	b := objtest.New()
	text := b.Code(".text.f",
		objtest.Instr(ir.OpLabelAbsolute, 0, 0, 0, 5, 64),
		objtest.Instr(ir.OpLabelAlias, 0, 0, 0, 6, 5),
		objtest.Instr(ir.OpPushBlockLabel, 1, 3, 0, 6, 0),
		objtest.Instr(ir.OpLabelAbsolute, 0, 0, 0, 7, 0),
		objtest.Instr(ir.OpPushBlockLabel, 1, 3, 0, 7, 0),
		objtest.Instr(ir.OpJumpCondLabel, uint8(ir.CondEQ), 0, 0, 8, 0),
		objtest.Instr(ir.OpLabelRelative, 0, 0, 0, 8, 0),
		objtest.Instr(ir.OpReturn, 0, 0, 0, 0, 0),
	)
	fn := b.Global("f", text, 0, 8*12)

	prog := mustParse(t, b)
	got := entry(t, prog, fn).(*ir.FunctionSymbol).IR
	want := []ir.Instruction{
		ir.Empty(),
		ir.Empty(),
		{Op: ir.OpPushBlockConst, Imm: ir.PushBlockImm{Reg: 3, Value: ir.Const(64), Optional: true}},
		ir.Empty(),
		ir.Empty(),
		{Op: ir.OpJumpCondInstr, Imm: ir.CondInstrImm{Target: 6, Cond: ir.CondEQ}},
		ir.Empty(),
		ir.Return(),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("IR mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveLabelsInIsolation(t *testing.T) {
	code := []ir.Instruction{
		{Op: ir.OpJumpLabel, Imm: ir.LabelImm{Label: 1}},
		ir.Return(),
	}
	labels := ir.NewLabelSet()
	labels.Define(1, ir.LabelDef{Kind: ir.LabelRelative, Value: 1})

	got, err := parser.ResolveLabels(code, labels)
	if err != nil {
		t.Fatal(err)
	}
	want := []ir.Instruction{{Op: ir.OpJumpInstr, Imm: ir.JumpInstrImm{Target: 1}}, ir.Return()}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if code[0].Op != ir.OpJumpLabel {
		t.Error("input IR was modified")
	}
}

func TestParseLabelErrors(t *testing.T) {
	tests := []struct {
		name string
		code []ir.RawInstruction
	}{
		{"undefined", []ir.RawInstruction{
			objtest.Instr(ir.OpJumpLabel, 0, 0, 0, 1, 0),
		}},
		{"multiple definitions", []ir.RawInstruction{
			objtest.Instr(ir.OpLabelRelative, 0, 0, 0, 1, 0),
			objtest.Instr(ir.OpLabelRelative, 0, 0, 0, 2, 0),
			objtest.Instr(ir.OpLabelAlias, 0, 0, 0, 1, 2),
			objtest.Instr(ir.OpJumpLabel, 0, 0, 0, 2, 0),
		}},
		{"aliased definitions of one instruction", []ir.RawInstruction{
			objtest.Instr(ir.OpLabelRelative, 0, 0, 0, 1, 36),
			objtest.Instr(ir.OpLabelRelative, 0, 0, 0, 2, 24),
			objtest.Instr(ir.OpLabelAlias, 0, 0, 0, 1, 2),
			objtest.Instr(ir.OpJumpLabel, 0, 0, 0, 1, 0),
			objtest.Instr(ir.OpReturn, 0, 0, 0, 0, 0),
		}},
		{"absolute jump target", []ir.RawInstruction{
			objtest.Instr(ir.OpLabelAbsolute, 0, 0, 0, 1, 4),
			objtest.Instr(ir.OpJumpLabel, 0, 0, 0, 1, 0),
		}},
		{"relative block size", []ir.RawInstruction{
			objtest.Instr(ir.OpLabelRelative, 0, 0, 0, 1, 0),
			objtest.Instr(ir.OpPushBlockLabel, 0, 1, 0, 1, 0),
		}},
		{"misaligned definition", []ir.RawInstruction{
			objtest.Instr(ir.OpLabelRelative, 0, 0, 0, 1, 6),
		}},
		{"definition past end", []ir.RawInstruction{
			objtest.Instr(ir.OpLabelRelative, 0, 0, 0, 1, 24),
		}},
		{"definition at end", []ir.RawInstruction{
			objtest.Instr(ir.OpLabelRelative, 0, 0, 0, 1, 24),
			objtest.Instr(ir.OpJumpLabel, 0, 0, 0, 1, 0),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := objtest.New()
			text := b.Code(".text", tt.code...)
			b.Global("f", text, 0, uint32(len(tt.code)*12))
			e := expectKind(t, b, errors.KindLabelResolution)
			if e.Symbol != "f" || e.Section != ".text" {
				t.Errorf("missing context: %v", e)
			}
		})
	}
}

func TestParseInnerSymbols(t *testing.T) {
	b := objtest.New()
	data := b.Section(".data", make([]byte, 0x110))
	outer := b.Global("outer", data, 0x100, 8)
	inner := b.Global("inner", data, 0x100, 4)

	prog := mustParse(t, b)
	in, ok := entry(t, prog, inner).(*ir.InnerSymbol)
	if !ok {
		t.Fatalf("expected inner symbol, got %T", entry(t, prog, inner))
	}
	if in.Parent != prog.Entries[outer] || in.Offset != 0 {
		t.Errorf("inner = %+v", in)
	}
	parent := entry(t, prog, outer).(*ir.DataSymbol)
	if diff := cmp.Diff([]ir.SymbolID{prog.Entries[inner]}, parent.Inner); diff != "" {
		t.Errorf("parent inner list (-want +got):\n%s", diff)
	}

	b.Global("overlap", data, 0x104, 8)
	expectKind(t, b, errors.KindSymbolOverlap)
}

func TestParseFunctionInnerSymbol(t *testing.T) {
	b := objtest.New()
	text := b.Code(".text",
		objtest.Instr(ir.OpMovConst, 0, 1, 0, 7, 0),
		objtest.Instr(ir.OpReturn, 0, 0, 0, 0, 0),
	)
	b.Global("f", text, 0, 24)
	label := b.Symbol("f.ret", text, 12, 0, ir.BindLocal)

	prog := mustParse(t, b)
	fi, ok := entry(t, prog, label).(*ir.FunctionInnerSymbol)
	if !ok {
		t.Fatalf("expected function inner symbol, got %T", entry(t, prog, label))
	}
	if fi.Instruction != 1 || fi.Offset != 12 {
		t.Errorf("inner = %+v", fi)
	}

	b2 := objtest.New()
	text2 := b2.Code(".text", objtest.Instr(ir.OpReturn, 0, 0, 0, 0, 0), objtest.Instr(ir.OpReturn, 0, 0, 0, 0, 0))
	b2.Global("f", text2, 0, 24)
	b2.Symbol("f.bad", text2, 6, 0, ir.BindLocal)
	expectKind(t, b2, errors.KindInvalidData)
}

func TestParseDataRelocations(t *testing.T) {
	b := objtest.New()
	data := b.Section(".data", []byte{
		0x10, 0, 0, 0,
		0xAA, 0xBB, 0xCC, 0xDD,
		0x20, 0, 0, 0,
	})
	target := b.Global("target", data, 0, 0)
	table := b.Global("table", data, 0, 12)
	b.Reloc(data, 0, target, ir.RelocData)
	b.Reloc(data, 8, target, ir.RelocData)

	prog := mustParse(t, b)
	id := prog.Entries[target]
	want := []ir.Instruction{
		ir.Word(ir.Value{Addend: 0x10, Symbol: id}),
		ir.Data([]byte{0xAA, 0xBB, 0xCC, 0xDD}),
		ir.Word(ir.Value{Addend: 0x20, Symbol: id}),
	}
	got := entry(t, prog, table).(*ir.DataSymbol).IR
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("IR mismatch (-want +got):\n%s", diff)
	}
}

func TestParseZeroFilledData(t *testing.T) {
	b := objtest.New()
	bss := b.Zero(".bss", 16)
	ptr := b.Global("ptr", bss, 0, 0)
	buf := b.Global("buf", bss, 0, 16)
	b.Reloc(bss, 4, ptr, ir.RelocData)

	prog := mustParse(t, b)
	want := []ir.Instruction{
		ir.Fill(4),
		ir.Word(ir.Value{Symbol: prog.Entries[ptr]}),
		ir.Fill(8),
	}
	got := entry(t, prog, buf).(*ir.DataSymbol).IR
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("IR mismatch (-want +got):\n%s", diff)
	}
	var size uint32
	for _, in := range got {
		size += in.DataSize()
	}
	if size != 16 {
		t.Errorf("IR covers %d bytes, want 16", size)
	}
}

func TestParseFunctionRelocations(t *testing.T) {
	b := objtest.New()
	data := b.Section(".rodata", make([]byte, 8))
	text := b.Code(".text",
		objtest.Instr(ir.OpMovConst, 0, 1, 0, 4, 0),
		objtest.Instr(ir.OpCallConst, 0, 0, 0, 0, 0),
		objtest.Instr(ir.OpReturn, 0, 0, 0, 0, 0),
	)
	str := b.Global("str", data, 0, 8)
	fn := b.Global("f", text, 0, 36)
	b.Reloc(text, 0, str, ir.RelocInstr)
	b.Reloc(text, 12+4, fn, ir.RelocData)
	b.ExplicitReloc = true

	prog := mustParse(t, b)
	got := entry(t, prog, fn).(*ir.FunctionSymbol).IR
	want := []ir.Instruction{
		{Op: ir.OpMovConst, Imm: ir.RegValueImm{Reg: 1, Value: ir.Value{Addend: 4, Symbol: prog.Entries[str]}}, References: []ir.SymbolID{prog.Entries[str]}},
		{Op: ir.OpCallConst, Imm: ir.ValueImm{Value: ir.Value{Symbol: prog.Entries[fn]}}, References: []ir.SymbolID{prog.Entries[fn]}},
		ir.Return(),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("IR mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRelocationErrors(t *testing.T) {
	tests := []struct {
		name  string
		op    ir.Opcode
		reloc []object.RelocationRecord
		kind  errors.Kind
	}{
		{"data at start", ir.OpMovConst, []object.RelocationRecord{{Addr: 0, Type: ir.RelocData}}, errors.KindRelocation},
		{"instr at value", ir.OpMovConst, []object.RelocationRecord{{Addr: 4, Type: ir.RelocInstr}}, errors.KindRelocation},
		{"wrong position", ir.OpMovConst, []object.RelocationRecord{{Addr: 8, Type: ir.RelocData}}, errors.KindRelocation},
		{"both positions", ir.OpMovConst, []object.RelocationRecord{{Addr: 12, Type: ir.RelocInstr}, {Addr: 16, Type: ir.RelocData}}, errors.KindRelocation},
		{"unsupported", ir.OpMovReg, []object.RelocationRecord{{Addr: 4, Type: ir.RelocData}}, errors.KindUnsupportedRelocation},
		{"unknown type", ir.OpMovConst, []object.RelocationRecord{{Addr: 4, Type: 7}}, errors.KindRelocation},
		{"unknown symbol", ir.OpMovConst, []object.RelocationRecord{{Addr: 4, Symbol: 99, Type: ir.RelocData}}, errors.KindRelocation},
		{"spans boundary", ir.OpMovConst, []object.RelocationRecord{{Addr: 22, Type: ir.RelocData}}, errors.KindRelocation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := objtest.New()
			text := b.Code(".text",
				objtest.Instr(tt.op, 0, 0, 0, 0, 0),
				objtest.Instr(ir.OpMovConst, 0, 0, 0, 0, 0),
			)
			b.Global("f", text, 0, 12)
			b.Global("g", text, 12, 12)
			for _, r := range tt.reloc {
				b.Reloc(text, r.Addr, r.Symbol, r.Type)
			}
			expectKind(t, b, tt.kind)
		})
	}
}

func TestParseUnknownOpcode(t *testing.T) {
	b := objtest.New()
	text := b.Code(".text", ir.RawInstruction{Opcode: 0xEE})
	b.Global("f", text, 0, 12)
	e := expectKind(t, b, errors.KindUnknownOpcode)
	if e.Symbol != "f" || !e.HasOffset {
		t.Errorf("missing context: %v", e)
	}
}

func TestParseFunctionSize(t *testing.T) {
	b := objtest.New()
	text := b.Code(".text", objtest.Instr(ir.OpReturn, 0, 0, 0, 0, 0))
	b.Global("f", text, 0, 10)
	expectKind(t, b, errors.KindInvalidData)
}

func TestParseRecordCount(t *testing.T) {
	logs := observe(t)

	b := objtest.New()
	data := b.Section(".data", make([]byte, 8))
	b.Global("a", data, 0, 4)
	b.Symbol("abs", object.SHNAbs, 0x1234, 0, ir.BindGlobal)
	odd := b.Symbol("odd", 0xFF05, 0, 0, ir.BindGlobal)
	b.Undefined("missing")
	b.Undefined("missing")

	prog := mustParse(t, b)
	if len(prog.Entries) != b.Records() {
		t.Fatalf("got %d entries for %d records", len(prog.Entries), b.Records())
	}
	if _, ok := entry(t, prog, odd).(*ir.InvalidSymbol); !ok {
		t.Errorf("reserved index should yield InvalidSymbol, got %T", entry(t, prog, odd))
	}
	if abs, ok := entry(t, prog, 2).(*ir.AbsoluteSymbol); !ok || abs.Address != 0x1234 {
		t.Errorf("expected absolute symbol, got %#v", entry(t, prog, 2))
	}
	if len(prog.Warnings) != 1 || logs.FilterField(zap.String("symbol", "odd")).Len() != 1 {
		t.Errorf("expected one warning, got %v", prog.Warnings)
	}

	_, err := parser.Parse(b.Bytes(), parser.Options{Strict: true})
	if !errors.IsKind(err, errors.KindWarning) {
		t.Errorf("strict mode should fail with the warning, got %v", err)
	}
}

func TestParseExports(t *testing.T) {
	logs := observe(t)

	b := objtest.New()
	data := b.Section(".data", make([]byte, 16))
	b.Section(".ccvm.export.0.run", nil)
	b.Section(".ccvm.export.2.init", nil)
	b.Section(".ccvm.export.3.twice", nil)
	weak := b.Symbol("run", data, 0, 4, ir.BindWeak)
	strong := b.Global("run", data, 4, 4)
	b.Symbol("run", data, 8, 4, ir.BindWeak)
	local := b.Symbol("init", data, 12, 4, ir.BindLocal)
	first := b.Global("twice", data, 0, 0)
	b.Global("twice", data, 4, 0)

	prog := mustParse(t, b)
	if len(prog.Exports) != 4 || prog.Exports[1] != nil {
		t.Fatalf("exports = %v", prog.Exports)
	}
	if prog.Export(0).Symbol != prog.Entries[strong] || prog.Export(0).Binding != ir.BindGlobal {
		t.Errorf("strong binding should replace weak %d: %+v", prog.Entries[weak], prog.Export(0))
	}
	if prog.Export(2).Symbol.Valid() {
		t.Errorf("local symbol %d must not bind an export", prog.Entries[local])
	}
	if prog.Export(3).Symbol != prog.Entries[first] {
		t.Error("duplicate strong binding should keep the first")
	}
	if logs.FilterField(zap.String("export", "twice")).Len() != 1 || len(prog.Warnings) != 1 {
		t.Errorf("expected one duplicate export warning, got %v", prog.Warnings)
	}
}

func TestParseExportConflict(t *testing.T) {
	b := objtest.New()
	b.Section(".ccvm.export.1.a", nil)
	b.Section(".ccvm.export.1.b", nil)
	expectKind(t, b, errors.KindDuplicateIdentifier)
}

func TestParseImports(t *testing.T) {
	b := objtest.New()
	imp := b.Section(".ccvm.import.4.print", nil)
	first := b.Undefined("print")
	second := b.Undefined("print")
	skipped := b.Global("inside", imp, 0, 0)
	begin := b.Undefined(ir.SectionTextBegin)

	prog := mustParse(t, b)
	if prog.Entries[first] != prog.Entries[second] {
		t.Error("records naming the same import should share a handle")
	}
	sym, ok := entry(t, prog, first).(*ir.ImportSymbol)
	if !ok || sym.ImportIndex != 4 {
		t.Fatalf("expected import symbol, got %#v", entry(t, prog, first))
	}
	if diff := cmp.Diff([]int{int(first), int(second)}, sym.Indexes); diff != "" {
		t.Errorf("indexes (-want +got):\n%s", diff)
	}
	if prog.Import(4).Symbol != prog.Entries[first] {
		t.Error("import entry should point at the shared symbol")
	}
	if _, ok := entry(t, prog, skipped).(*ir.UndefinedSymbol); !ok {
		t.Errorf("symbol in import section should be skipped, got %T", entry(t, prog, skipped))
	}
	if prog.Entries[begin] != prog.Predefined[ir.SectionTextBegin] {
		t.Error("undefined predefined name should bind to the predefined symbol")
	}
}

func TestParseImportConflicts(t *testing.T) {
	b := objtest.New()
	b.Section(".ccvm.import.1.a", nil)
	b.Section(".ccvm.import.2.a", nil)
	expectKind(t, b, errors.KindDuplicateIdentifier)

	b = objtest.New()
	b.Section(".ccvm.import.1.a", nil)
	b.Section(".ccvm.import.1.b", nil)
	expectKind(t, b, errors.KindDuplicateIdentifier)
}

func TestParseInitFini(t *testing.T) {
	b := objtest.New()
	b.Section(".init_array", make([]byte, 8))
	b.Zero(".fini_array.100", 4)

	prog := mustParse(t, b)
	if len(prog.Entries) != b.Records()+2 {
		t.Fatalf("got %d entries", len(prog.Entries))
	}
	last := prog.Symbols.Get(prog.Entries[len(prog.Entries)-1]).(*ir.DataSymbol)
	if last.Name != "_ccvm_init_fini_auto_.fini_array.100" || last.Size != 4 {
		t.Errorf("unexpected symbol %q size %d", last.Name, last.Size)
	}
	if diff := cmp.Diff([]ir.Instruction{ir.Fill(4)}, last.IR); diff != "" {
		t.Errorf("IR (-want +got):\n%s", diff)
	}
}

func TestParseStructuralErrors(t *testing.T) {
	b := objtest.New()
	b.Global("x", 42, 0, 0)
	expectKind(t, b, errors.KindMissingSection)

	b = objtest.New()
	b.Section(".ccvm.export.99999999999.x", nil)
	expectKind(t, b, errors.KindInvalidData)

	sections := objtest.New().Sections()
	sections[len(sections)-1].Data = []byte("abc")
	if _, err := parser.ParseSections(sections, parser.DefaultOptions()); !errors.IsKind(err, errors.KindInvalidStrtab) {
		t.Errorf("expected invalid strtab for the null record, got %v", err)
	}

	b = objtest.New()
	b.Global("x", object.SHNAbs, 0, 0)
	sections = b.Sections()
	sections[len(sections)-1].Data = []byte("\x00x")
	if _, err := parser.ParseSections(sections, parser.DefaultOptions()); !errors.IsKind(err, errors.KindInvalidStrtab) {
		t.Errorf("expected invalid strtab, got %v", err)
	}
}
