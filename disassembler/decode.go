package disassembler

import (
	"fmt"

	"github.com/Urethramancer/rvasm/isa"
)

// Instruction represents a single decoded word at a specific address.
type Instruction struct {
	Address  uint32
	Word     uint32
	Mnemonic string // empty when the word is not a known instruction
	Operands string
	Fields   isa.Fields
	IsCode   bool // reachable from the entry point
}

// Valid reports whether the word decoded to a known mnemonic.
func (inst *Instruction) Valid() bool {
	return inst.Mnemonic != ""
}

// Target returns the absolute destination of a branch or jal.
func (inst *Instruction) Target() (uint32, bool) {
	switch inst.Fields.Format {
	case isa.FormatSB, isa.FormatUJ:
		return uint32(int64(inst.Address) + inst.Fields.Imm), true
	}
	return 0, false
}

// Decode turns one word into mnemonic and operand text using the base table.
func Decode(w, addr uint32) Instruction {
	return DecodeWith(isa.Base(), w, addr)
}

// DecodeWith is Decode against a specific field table.
func DecodeWith(table *isa.Table, w, addr uint32) Instruction {
	f := isa.Decode(w)
	inst := Instruction{Address: addr, Word: w, Fields: f}
	spec, ok := table.Find(f.Opcode, f.Funct3, f.Funct7)
	if !ok || f.Format == isa.FormatInvalid {
		return inst
	}
	inst.Mnemonic = spec.Mnemonic
	inst.Operands = operands(spec, f)
	return inst
}

// operands prints in the same syntax the assembler accepts. Branch and jump
// targets are byte offsets; Disassemble replaces them with labels.
func operands(spec isa.Spec, f isa.Fields) string {
	switch f.Format {
	case isa.FormatR:
		return fmt.Sprintf("%s, %s, %s", f.Rd, f.Rs1, f.Rs2)
	case isa.FormatI:
		if spec.IsLoad() {
			return fmt.Sprintf("%s, %d(%s)", f.Rd, f.Imm, f.Rs1)
		}
		return fmt.Sprintf("%s, %s, %d", f.Rd, f.Rs1, f.Imm)
	case isa.FormatS:
		return fmt.Sprintf("%s, %d(%s)", f.Rs2, f.Imm, f.Rs1)
	case isa.FormatSB:
		return fmt.Sprintf("%s, %s, %d", f.Rs1, f.Rs2, f.Imm)
	case isa.FormatU:
		return fmt.Sprintf("%s, 0x%x", f.Rd, f.Imm)
	case isa.FormatUJ:
		return fmt.Sprintf("%s, %d", f.Rd, f.Imm)
	}
	return ""
}

// withTarget replaces the trailing offset operand with a label.
func withTarget(inst *Instruction, label string) string {
	f := inst.Fields
	switch f.Format {
	case isa.FormatSB:
		return fmt.Sprintf("%s, %s, %s", f.Rs1, f.Rs2, label)
	case isa.FormatUJ:
		return fmt.Sprintf("%s, %s", f.Rd, label)
	}
	return inst.Operands
}

// isTerminal checks if an instruction unconditionally stops linear
// execution: a jump that does not link, or any jalr.
func isTerminal(inst *Instruction) bool {
	switch inst.Mnemonic {
	case "jal":
		return inst.Fields.Rd == 0
	case "jalr":
		return true
	}
	return false
}
