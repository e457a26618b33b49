package isa

import (
	"sort"
	"strings"
)

// Format identifies the bit-field layout of an instruction word.
type Format int

const (
	// FormatInvalid is the zero value for words that match no known layout.
	FormatInvalid Format = iota
	// FormatR is register-register: funct7 rs2 rs1 funct3 rd opcode.
	FormatR
	// FormatI is register-immediate: imm[11:0] rs1 funct3 rd opcode.
	FormatI
	// FormatS is store: imm[11:5] rs2 rs1 funct3 imm[4:0] opcode.
	FormatS
	// FormatSB is conditional branch: imm[12|10:5] rs2 rs1 funct3 imm[4:1|11] opcode.
	FormatSB
	// FormatU is upper immediate: imm[31:12] rd opcode.
	FormatU
	// FormatUJ is jump: imm[20|10:1|11|19:12] rd opcode.
	FormatUJ
)

var formatNames = [...]string{
	FormatInvalid: "invalid",
	FormatR:       "R",
	FormatI:       "I",
	FormatS:       "S",
	FormatSB:      "SB",
	FormatU:       "U",
	FormatUJ:      "UJ",
}

func (f Format) String() string {
	if f < 0 || int(f) >= len(formatNames) {
		return formatNames[FormatInvalid]
	}
	return formatNames[f]
}

// Major opcodes (7 bits).
const (
	OPLoad   = 0b0000011 // LB, LH, LW, LD
	OPOpImm  = 0b0010011 // ADDI, ANDI, ORI
	OPAuipc  = 0b0010111 // AUIPC
	OPStore  = 0b0100011 // SB, SH, SW, SD
	OPOp     = 0b0110011 // register-register ALU, M extension
	OPLui    = 0b0110111 // LUI
	OPBranch = 0b1100011 // BEQ, BNE, BLT, BGE
	OPJalr   = 0b1100111 // JALR
	OPJal    = 0b1101111 // JAL
)

// Spec holds the fixed fields of one mnemonic.
type Spec struct {
	Mnemonic string
	Format   Format
	Opcode   uint32
	Funct3   uint32
	Funct7   uint32
}

// HasFunct3 reports whether the format carries a funct3 field.
func (s Spec) HasFunct3() bool {
	return s.Format != FormatU && s.Format != FormatUJ
}

// HasFunct7 reports whether the format carries a funct7 field.
func (s Spec) HasFunct7() bool {
	return s.Format == FormatR
}

// IsLoad reports whether the mnemonic reads memory through an I-format word.
func (s Spec) IsLoad() bool {
	return s.Opcode == OPLoad
}

var baseSpecs = []Spec{
	// R
	{"add", FormatR, OPOp, 0b000, 0b0000000},
	{"sub", FormatR, OPOp, 0b000, 0b0100000},
	{"and", FormatR, OPOp, 0b111, 0b0000000},
	{"or", FormatR, OPOp, 0b110, 0b0000000},
	{"xor", FormatR, OPOp, 0b100, 0b0000000},
	{"sll", FormatR, OPOp, 0b001, 0b0000000},
	{"slt", FormatR, OPOp, 0b010, 0b0000000},
	{"srl", FormatR, OPOp, 0b101, 0b0000000},
	{"sra", FormatR, OPOp, 0b101, 0b0100000},
	{"mul", FormatR, OPOp, 0b000, 0b0000001},
	{"div", FormatR, OPOp, 0b100, 0b0000001},
	{"rem", FormatR, OPOp, 0b110, 0b0000001},

	// I
	{"addi", FormatI, OPOpImm, 0b000, 0},
	{"andi", FormatI, OPOpImm, 0b111, 0},
	{"ori", FormatI, OPOpImm, 0b110, 0},
	{"jalr", FormatI, OPJalr, 0b000, 0},
	{"lb", FormatI, OPLoad, 0b000, 0},
	{"lh", FormatI, OPLoad, 0b001, 0},
	{"lw", FormatI, OPLoad, 0b010, 0},
	{"ld", FormatI, OPLoad, 0b011, 0},

	// S
	{"sb", FormatS, OPStore, 0b000, 0},
	{"sh", FormatS, OPStore, 0b001, 0},
	{"sw", FormatS, OPStore, 0b010, 0},
	{"sd", FormatS, OPStore, 0b011, 0},

	// SB
	{"beq", FormatSB, OPBranch, 0b000, 0},
	{"bne", FormatSB, OPBranch, 0b001, 0},
	{"blt", FormatSB, OPBranch, 0b100, 0},
	{"bge", FormatSB, OPBranch, 0b101, 0},

	// U
	{"lui", FormatU, OPLui, 0, 0},
	{"auipc", FormatU, OPAuipc, 0, 0},

	// UJ
	{"jal", FormatUJ, OPJal, 0, 0},
}

// Table maps mnemonics to their fixed fields. A Table is never modified
// after construction and is safe for concurrent use.
type Table struct {
	specs map[string]Spec
	names []string
}

// NewTable builds a table from the given specs. Later entries replace
// earlier ones with the same mnemonic.
func NewTable(specs []Spec) *Table {
	t := &Table{specs: make(map[string]Spec, len(specs))}
	for _, s := range specs {
		s.Mnemonic = strings.ToLower(s.Mnemonic)
		if _, dup := t.specs[s.Mnemonic]; !dup {
			t.names = append(t.names, s.Mnemonic)
		}
		t.specs[s.Mnemonic] = s
	}
	sort.Strings(t.names)
	return t
}

var base = NewTable(baseSpecs)

// Base returns the table of the 31 supported RV32I/RV64I/M mnemonics.
func Base() *Table {
	return base
}

// Lookup returns the fields for a mnemonic. Matching is case-insensitive.
func (t *Table) Lookup(mnemonic string) (Spec, bool) {
	s, ok := t.specs[strings.ToLower(mnemonic)]
	return s, ok
}

// Mnemonics returns all mnemonics in lexical order.
func (t *Table) Mnemonics() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Len returns the number of mnemonics in the table.
func (t *Table) Len() int {
	return len(t.names)
}

// Find returns the spec whose fixed fields match a decoded word.
// funct3 is ignored for U/UJ formats and funct7 for everything but R.
func (t *Table) Find(opcode, funct3, funct7 uint32) (Spec, bool) {
	for _, name := range t.names {
		s := t.specs[name]
		if s.Opcode != opcode {
			continue
		}
		if s.HasFunct3() && s.Funct3 != funct3 {
			continue
		}
		if s.HasFunct7() && s.Funct7 != funct7 {
			continue
		}
		return s, true
	}
	return Spec{}, false
}

// FormatOf returns the layout used by a major opcode.
func FormatOf(opcode uint32) Format {
	switch opcode & 0x7f {
	case OPOp:
		return FormatR
	case OPOpImm, OPLoad, OPJalr:
		return FormatI
	case OPStore:
		return FormatS
	case OPBranch:
		return FormatSB
	case OPLui, OPAuipc:
		return FormatU
	case OPJal:
		return FormatUJ
	}
	return FormatInvalid
}
