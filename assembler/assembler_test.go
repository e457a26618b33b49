package assembler_test

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/Urethramancer/rvasm/assembler"
	"github.com/Urethramancer/rvasm/isa"
)

type rec struct {
	addr    uint32
	payload uint64
}

// Assembles source and checks the (address, payload) sequence.
func assembleAndMatch(t *testing.T, name, src string, want []rec) *assembler.Report {
	t.Helper()
	rep, err := assembler.New().Assemble(src)
	if err != nil {
		t.Fatalf("[%s] failed to assemble:\n%s\nerror: %v", name, src, err)
	}
	if len(rep.Records) != len(want) {
		t.Fatalf("[%s] expected %d records, got %d: %+v", name, len(want), len(rep.Records), rep.Records)
	}
	for i, r := range rep.Records {
		if r.Address != want[i].addr || r.Payload != want[i].payload {
			t.Errorf("[%s] record %d: got 0x%x 0x%x, want 0x%x 0x%x",
				name, i, r.Address, r.Payload, want[i].addr, want[i].payload)
		}
	}
	return rep
}

func TestBasicEncodings(t *testing.T) {
	tests := []struct {
		name, src string
		word      uint32
	}{
		{"ADDI", "addi x5 x0 10", 0b000000001010_00000_000_00101_0010011},
		{"ADDI_Commas", "addi x5, x0, 10", 0x00a00293},
		{"ADD", "add x1, x2, x3", 0x003100b3},
		{"SUB_ABI", "sub ra, sp, gp", 0x403100b3},
		{"MUL", "mul x10 x11 x12", 0x02c58533},
		{"LW_Mem", "lw x5, 8(x6)", 0x00832283},
		{"LW_Plain", "lw x5 x6 8", 0x00832283},
		{"SW_Mem", "sw x5, -4(x6)", 0xfe532e23},
		{"SW_Plain", "sw x5 x6 -4", 0xfe532e23},
		{"SW_NoDisp", "sb x1, (x2)", 0x00110023},
		{"JALR_Plain", "jalr x0 x1 0", 0x00008067},
		{"JALR_Mem", "jalr x0, 0(x1)", 0x00008067},
		{"LUI", "lui x5 0x12345", 0x123452b7},
		{"AUIPC", "auipc x1 1", 0x00001097},
		{"BNE_Offset", "bne x5 x6 16", 0x00629863},
		{"JAL_Offset", "jal x1 8", 0x008000ef},
		{"Upper", "ADDI X5, X0, 10", 0x00a00293},
		{"HexImm", "addi x1 x1 0xfff", 0xfff08093},
		{"CharImm", "addi x1 x0 'A'", 0x04100093},
	}
	for _, tc := range tests {
		assembleAndMatch(t, tc.name, tc.src, []rec{{0, uint64(tc.word)}})
	}
}

func TestAddressMonotonicity(t *testing.T) {
	var b strings.Builder
	const n = 50
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "addi x%d x0 %d\n", i%32, i)
	}
	rep, err := assembler.New().Assemble(b.String())
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.Records) != n {
		t.Fatalf("expected %d records, got %d", n, len(rep.Records))
	}
	for k, r := range rep.Records {
		if r.Address != uint32(4*k) {
			t.Errorf("instruction %d at 0x%x, want 0x%x", k, r.Address, 4*k)
		}
	}
}

func TestBranchOffsets(t *testing.T) {
	// beq at 0x8 back to 0x0: field holds -8/2 = -4.
	back := assembleAndMatch(t, "Backward", `
L:	add x1 x2 x3
	add x1 x2 x3
	beq x0 x1 L
`, []rec{{0, 0x003100b3}, {4, 0x003100b3}, {8, 0xfe100ce3}})
	if f := isa.Decode(back.Records[2].Word()); isa.BranchField(f.Imm) != -4 {
		t.Errorf("backward field: got %d, want -4", isa.BranchField(f.Imm))
	}

	// beq at 0x0 forward to 0x8: field holds 4.
	fwd := assembleAndMatch(t, "Forward", `
	beq x0 x1 L
	add x1 x2 x3
L:	add x1 x2 x3
`, []rec{{0, 0x00100463}, {4, 0x003100b3}, {8, 0x003100b3}})
	if f := isa.Decode(fwd.Records[0].Word()); isa.BranchField(f.Imm) != 4 {
		t.Errorf("forward field: got %d, want 4", isa.BranchField(f.Imm))
	}
}

// A label referenced before and after its definition resolves to the same
// address either way.
func TestLabelReferenceOrder(t *testing.T) {
	src := `
	jal x0 target
	add x1 x2 x3
target:
	add x1 x2 x3
	jal x0 target
`
	rep, err := assembler.New().Assemble(src)
	if err != nil {
		t.Fatal(err)
	}
	addr, ok := rep.Symbols().Lookup("target")
	if !ok || addr != 8 {
		t.Fatalf("target bound to 0x%x (%v), want 0x8", addr, ok)
	}
	for _, i := range []int{0, 3} {
		r := rep.Records[i]
		dest := int64(r.Address) + isa.Decode(r.Word()).Imm
		if dest != int64(addr) {
			t.Errorf("record %d jumps to 0x%x, want 0x%x", i, dest, addr)
		}
	}
}

func TestLabelOnInstructionLine(t *testing.T) {
	assembleAndMatch(t, "Loop", `
	addi x1 x0 3
loop: addi x1, x1, -1
	bne x1, x0, loop
`, []rec{{0, 0x00300093}, {4, 0xfff08093}, {8, 0xfe009ee3}})
}

func TestJalForms(t *testing.T) {
	assembleAndMatch(t, "JAL", `
	jal f
	jal x0, f
f:	jalr x0, 0(x1)
`, []rec{{0, 0x008000ef}, {4, 0x0040006f}, {8, 0x00008067}})
}

func TestAsciiz(t *testing.T) {
	assembleAndMatch(t, "AB", ".data\n.asciiz \"AB\"", []rec{
		{0x10000000, 'A'},
		{0x10000001, 'B'},
		{0x10000002, 0},
	})
	assembleAndMatch(t, "Escapes", ".data\n.asciiz \"a\\n#\"", []rec{
		{0x10000000, 'a'},
		{0x10000001, '\n'},
		{0x10000002, '#'},
		{0x10000003, 0},
	})
	assembleAndMatch(t, "Empty", ".data\n.asciiz \"\"", []rec{{0x10000000, 0}})
	assembleAndMatch(t, "ASCII", ".data\n.ascii \"hi\"", []rec{{0x10000000, 'h'}, {0x10000001, 'i'}})
}

func TestDataDirectives(t *testing.T) {
	rep := assembleAndMatch(t, "Mixed", `
.data
words:	.word 1, 2
bytes:	.byte 255 -1
	.half 0x1234
dbl:	.double -1
`, []rec{
		{0x10000000, 1},
		{0x10000004, 2},
		{0x10000008, 0xff},
		{0x10000009, 0xff},
		{0x1000000a, 0x1234},
		{0x1000000c, 0xffffffffffffffff},
	})

	widths := []int{4, 4, 1, 1, 2, 8}
	for i, r := range rep.Records {
		if r.Width != widths[i] || r.Kind != assembler.RecordData {
			t.Errorf("record %d: width %d kind %d", i, r.Width, r.Kind)
		}
	}
	for name, want := range map[string]uint32{"words": 0x10000000, "bytes": 0x10000008, "dbl": 0x1000000c} {
		if got, _ := rep.Symbols().Lookup(name); got != want {
			t.Errorf("%s: got 0x%x, want 0x%x", name, got, want)
		}
	}

	dirs := rep.Layout.Directives
	if !reflect.DeepEqual(dirs[assembler.DataWord], []uint32{0x10000000, 0x10000004}) {
		t.Errorf("word addresses: %x", dirs[assembler.DataWord])
	}
	if !reflect.DeepEqual(dirs[assembler.DataByte], []uint32{0x10000008, 0x10000009}) {
		t.Errorf("byte addresses: %x", dirs[assembler.DataByte])
	}

	mem := rep.Data()
	if mem[0x1000000a] != 0x34 || mem[0x1000000b] != 0x12 {
		t.Errorf("half not little-endian: %x %x", mem[0x1000000a], mem[0x1000000b])
	}
}

func TestSegmentSwitching(t *testing.T) {
	src := `
.data
	.word 1
.text
	add x1 x2 x3
.data
	.word 2
.text
	add x1 x2 x3
`
	// .data rewinds the data cursor each time; .text resumes.
	assembleAndMatch(t, "Reset", src, []rec{
		{0x10000000, 1},
		{0, 0x003100b3},
		{0x10000000, 2},
		{4, 0x003100b3},
	})

	opts := assembler.DefaultOptions()
	opts.ContinueData = true
	rep, err := assembler.NewWithOptions(opts).Assemble(src)
	if err != nil {
		t.Fatal(err)
	}
	if got := rep.Records[2].Address; got != 0x10000004 {
		t.Errorf("ContinueData: second word at 0x%x, want 0x10000004", got)
	}
}

func TestCustomBases(t *testing.T) {
	opts := assembler.DefaultOptions()
	opts.TextBase = 0x400000
	opts.DataBase = 0x2000
	rep, err := assembler.NewWithOptions(opts).Assemble("L: beq x0 x0 L\n.data\nv: .byte 1")
	if err != nil {
		t.Fatal(err)
	}
	if rep.Records[0].Address != 0x400000 || rep.Records[1].Address != 0x2000 {
		t.Errorf("bases not applied: %+v", rep.Records)
	}
	if rep.Records[0].Word() != 0x00000063 {
		t.Errorf("self branch: got 0x%08x", rep.Records[0].Word())
	}
}

func TestCommentsAndBlankLines(t *testing.T) {
	assembleAndMatch(t, "Comments", `
# leading comment

	add x1, x2, x3   # trailing comment
	   # indented comment
	add x1, x2, x3
`, []rec{{0, 0x003100b3}, {4, 0x003100b3}})
}

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind assembler.ErrorKind
		line int
	}{
		{"Unknown", "foo x1 x2", assembler.UnknownInstruction, 1},
		{"BadRegister", "add x32 x1 x2", assembler.InvalidRegister, 1},
		{"BadRegisterName", "add x1 xabc x2", assembler.InvalidRegister, 1},
		{"Unresolved", "nop:\nbeq x0 x1 nowhere", assembler.UnresolvedLabel, 2},
		{"UnresolvedImm", "addi x1 x0 nowhere", assembler.UnresolvedLabel, 1},
		{"BadWord", ".data\n.word abc", assembler.MalformedDirective, 2},
		{"NoValues", ".data\n.byte", assembler.MalformedDirective, 2},
		{"Unterminated", ".data\n.asciiz \"abc", assembler.MalformedDirective, 2},
		{"NoString", ".data\n.asciiz", assembler.MalformedDirective, 2},
		{"UnknownDirective", ".align 4", assembler.MalformedDirective, 1},
		{"StoreRange", "sw x1, 2048(x2)", assembler.ImmediateOutOfRange, 1},
		{"BranchRange", "beq x0 x0 4096", assembler.ImmediateOutOfRange, 1},
		{"BranchOdd", "beq x0 x0 3", assembler.ImmediateOutOfRange, 1},
		{"JumpRange", "jal x0 1048576", assembler.ImmediateOutOfRange, 1},
		{"Duplicate", "a:\na:", assembler.DuplicateLabel, 2},
		{"DataInText", ".word 1", assembler.MisplacedLine, 1},
		{"CodeInData", ".data\nadd x1 x2 x3", assembler.MisplacedLine, 2},
		{"Count", "add x1 x2", assembler.InvalidOperand, 1},
		{"BadImm", "addi x1 x2 1z", assembler.InvalidOperand, 1},
		{"BadMem", "lw x1, x2", assembler.InvalidOperand, 1},
		{"JalNoTarget", "jal x5", assembler.InvalidOperand, 1},
		{"JalABINoTarget", "jal ra", assembler.InvalidOperand, 1},
	}
	for _, tc := range tests {
		rep, err := assembler.New().Assemble(tc.src)
		if err == nil {
			t.Errorf("[%s] expected an error", tc.name)
			continue
		}
		if !errors.Is(err, tc.kind) {
			t.Errorf("[%s] joined error %v is not %v", tc.name, err, tc.kind)
		}
		if len(rep.Errors) != 1 {
			t.Errorf("[%s] expected 1 error, got %d: %v", tc.name, len(rep.Errors), rep.Errors)
			continue
		}
		e := rep.Errors[0]
		if e.Kind() != tc.kind || e.Line != tc.line {
			t.Errorf("[%s] got %v on line %d, want %v on line %d", tc.name, e.Kind(), e.Line, tc.kind, tc.line)
		}
	}
}

func TestInvalidRegisterWrapsCodec(t *testing.T) {
	_, err := assembler.New().Assemble("add x1 x2 x99")
	if !errors.Is(err, isa.ErrInvalidRegister) || !errors.Is(err, assembler.InvalidRegister) {
		t.Errorf("expected both register errors in chain, got %v", err)
	}
}

// A bad line keeps its slot so the lines after it keep their addresses.
func TestErrorsKeepAddresses(t *testing.T) {
	rep, err := assembler.New().Assemble(`
	add x1 x2 x3
	foo x1 x2
	beq x0 x0 missing
	add x1 x2 x3
`)
	if err == nil {
		t.Fatal("expected errors")
	}
	if len(rep.Records) != 4 {
		t.Fatalf("expected 4 records, got %d", len(rep.Records))
	}
	for i, r := range rep.Records {
		if r.Address != uint32(4*i) {
			t.Errorf("record %d at 0x%x", i, r.Address)
		}
	}
	if !rep.Records[1].Placeholder || rep.Records[1].Payload != 0 || rep.Records[1].Err == nil {
		t.Errorf("record 1 should be a placeholder: %+v", rep.Records[1])
	}
	if rep.Records[3].Placeholder || rep.Records[3].Word() != 0x003100b3 {
		t.Errorf("record 3 should encode normally: %+v", rep.Records[3])
	}
	if len(rep.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %v", rep.Errors)
	}
	if f := rep.Fatal(); f == nil || f.Line != 3 || f.Kind() != assembler.UnknownInstruction {
		t.Errorf("Fatal: got %v", f)
	}

	// A malformed data line fills its slots with zero placeholders.
	rep, err = assembler.New().Assemble(".data\n.word 1 zz 3\nafter: .word 5\n.asciiz \"ab\nend: .byte 9")
	if !errors.Is(err, assembler.MalformedDirective) {
		t.Fatalf("expected malformed directive, got %v", err)
	}
	if len(rep.Errors) != 2 || rep.Errors[0].Line != 2 || rep.Errors[1].Line != 4 {
		t.Errorf("expected errors on lines 2 and 4, got %v", rep.Errors)
	}
	if got, _ := rep.Symbols().Lookup("after"); got != 0x1000000c {
		t.Errorf("after: got 0x%x, want 0x1000000c", got)
	}
	// `"ab` keeps 2 bytes plus the terminator.
	if got, _ := rep.Symbols().Lookup("end"); got != 0x10000013 {
		t.Errorf("end: got 0x%x, want 0x10000013", got)
	}
	want := []rec{
		{0x10000000, 0}, {0x10000004, 0}, {0x10000008, 0},
		{0x1000000c, 5},
		{0x10000010, 0}, {0x10000011, 0}, {0x10000012, 0},
		{0x10000013, 9},
	}
	if len(rep.Records) != len(want) {
		t.Fatalf("expected %d records, got %d: %+v", len(want), len(rep.Records), rep.Records)
	}
	for i, r := range rep.Records {
		if r.Address != want[i].addr || r.Payload != want[i].payload {
			t.Errorf("record %d: got 0x%x 0x%x, want 0x%x 0x%x", i, r.Address, r.Payload, want[i].addr, want[i].payload)
		}
		placeholder := i != 3 && i != 7
		if r.Placeholder != placeholder {
			t.Errorf("record %d: placeholder %v, want %v", i, r.Placeholder, placeholder)
		}
		if placeholder && (r.Err == nil || r.Err.Kind() != assembler.MalformedDirective) {
			t.Errorf("record %d: error %v", i, r.Err)
		}
	}
	if dirs := rep.Layout.Directives[assembler.DataWord]; len(dirs) != 4 {
		t.Errorf("word addresses: %x", dirs)
	}
}

func TestFatalIgnoresValueErrors(t *testing.T) {
	for _, src := range []string{"sw x1, 4000(x2)", "jal x5"} {
		rep, err := assembler.New().Assemble(src)
		if err == nil {
			t.Fatalf("%s: expected error", src)
		}
		if f := rep.Fatal(); f != nil {
			t.Errorf("%s: should not be fatal: %v", src, f)
		}
	}
}

const program = `
# sum the array
.data
arr:	.word 3, 1, 4, 1, 5, 9, 2, 6
len:	.byte 8
msg:	.asciiz "done"
.text
main:
	lui x10, 0x10000
	addi x11, x0, 8
	addi x12, x0, 0
loop:
	lw x13, 0(x10)
	add x12, x12, x13
	addi x10, x10, 4
	addi x11, x11, -1
	bne x11, x0, loop
	jal x1, finish
	beq x0, x0, main
finish:
	sw x12, 0(x10)
	jalr x0, 0(x1)
`

func TestIdempotence(t *testing.T) {
	asm := assembler.New()
	a, err := asm.Assemble(program)
	if err != nil {
		t.Fatal(err)
	}
	b, err := asm.Assemble(program)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a.Records, b.Records) {
		t.Errorf("two runs differ")
	}
	if !reflect.DeepEqual(a.Symbols().Map(), b.Symbols().Map()) {
		t.Errorf("symbol tables differ")
	}
}

func TestParallelMatchesSequential(t *testing.T) {
	var b strings.Builder
	b.WriteString(program)
	for i := 0; i < 200; i++ {
		fmt.Fprintf(&b, "l%d: addi x%d, x%d, %d\n", i, i%32, (i+1)%32, i-100)
		fmt.Fprintf(&b, "\tbne x1, x2, l%d\n", (i*7)%200)
	}
	src := b.String()

	seq, err := assembler.New().Assemble(src)
	if err != nil {
		t.Fatal(err)
	}
	opts := assembler.DefaultOptions()
	opts.Workers = 8
	par, err := assembler.NewWithOptions(opts).Assemble(src)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(seq.Records, par.Records) {
		t.Errorf("parallel encoding differs from sequential")
	}
}

func TestProgramLayout(t *testing.T) {
	rep, err := assembler.New().Assemble(program)
	if err != nil {
		t.Fatal(err)
	}
	syms := map[string]uint32{
		"arr":    0x10000000,
		"len":    0x10000020,
		"msg":    0x10000021,
		"main":   0x0,
		"loop":   0xc,
		"finish": 0x28,
	}
	for name, want := range syms {
		if got, ok := rep.Symbols().Lookup(name); !ok || got != want {
			t.Errorf("%s: got 0x%x, want 0x%x", name, got, want)
		}
	}
	if rep.Layout.Instructions != 12 || len(rep.Text()) != 12 {
		t.Errorf("expected 12 instructions, got %d/%d", rep.Layout.Instructions, len(rep.Text()))
	}
	if rep.Layout.TextEnd != 12*4 || rep.Layout.DataEnd != 0x10000026 {
		t.Errorf("ends: text 0x%x data 0x%x", rep.Layout.TextEnd, rep.Layout.DataEnd)
	}
	names := rep.Symbols().Names()
	if names[0] != "main" || names[len(names)-1] != "msg" {
		t.Errorf("names not ordered by address: %v", names)
	}
}

func TestAssembleLines(t *testing.T) {
	rep, err := assembler.New().AssembleLines([]string{".data", ".half 7"})
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.Records) != 1 || rep.Records[0].Payload != 7 || rep.Records[0].Line != 2 {
		t.Errorf("unexpected records: %+v", rep.Records)
	}
}
