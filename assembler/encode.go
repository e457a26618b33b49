package assembler

import (
	"fmt"

	"github.com/Urethramancer/rvasm/isa"
)

// encoder turns instruction nodes into words. It only reads the field
// table and the frozen symbol table, so one encoder may serve many
// goroutines.
type encoder struct {
	table   *isa.Table
	symbols *SymbolTable
}

// encode resolves operands and dispatches to the format encoder.
func (e *encoder) encode(n *Node, pc uint32) (uint32, error) {
	spec, ok := e.table.Lookup(n.Mnemonic)
	if !ok {
		return 0, fmt.Errorf("%w: %s", UnknownInstruction, n.Mnemonic)
	}

	ops := n.Operands
	switch spec.Format {
	case isa.FormatR:
		if err := wantOperands(n, 3); err != nil {
			return 0, err
		}
		rd, rs1, rs2, err := threeRegisters(ops)
		if err != nil {
			return 0, err
		}
		return isa.EncodeR(spec, rd, rs1, rs2), nil

	case isa.FormatI:
		return e.encodeI(spec, n)

	case isa.FormatS:
		return e.encodeS(spec, n)

	case isa.FormatSB:
		if err := wantOperands(n, 3); err != nil {
			return 0, err
		}
		rs1, err := parseRegister(ops[0])
		if err != nil {
			return 0, err
		}
		rs2, err := parseRegister(ops[1])
		if err != nil {
			return 0, err
		}
		offset, err := e.pcOffset(ops[2], pc, isa.ImmBitsSB)
		if err != nil {
			return 0, err
		}
		return isa.EncodeSB(spec, rs1, rs2, offset), nil

	case isa.FormatU:
		if err := wantOperands(n, 2); err != nil {
			return 0, err
		}
		rd, err := parseRegister(ops[0])
		if err != nil {
			return 0, err
		}
		imm, err := e.value(ops[1])
		if err != nil {
			return 0, err
		}
		return isa.EncodeU(spec, rd, imm), nil

	case isa.FormatUJ:
		// "jal label" links through ra.
		rd, target := isa.Register(1), ""
		switch len(ops) {
		case 1:
			if _, err := isa.DecodeRegister(ops[0]); err == nil {
				return 0, fmt.Errorf("%w: %s needs a target after %s", InvalidOperand, n.Mnemonic, ops[0])
			}
			target = ops[0]
		case 2:
			r, err := parseRegister(ops[0])
			if err != nil {
				return 0, err
			}
			rd, target = r, ops[1]
		default:
			return 0, operandCount(n, 2)
		}
		offset, err := e.pcOffset(target, pc, isa.ImmBitsUJ)
		if err != nil {
			return 0, err
		}
		return isa.EncodeUJ(spec, rd, offset), nil
	}
	return 0, fmt.Errorf("%w: %s has no encoder", UnknownInstruction, n.Mnemonic)
}

// encodeI handles "op rd, rs1, imm" and "op rd, imm(rs1)".
func (e *encoder) encodeI(spec isa.Spec, n *Node) (uint32, error) {
	ops := n.Operands
	switch len(ops) {
	case 2:
		rd, err := parseRegister(ops[0])
		if err != nil {
			return 0, err
		}
		imm, rs1, ok, err := parseMemory(ops[1])
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, fmt.Errorf("%w: %s expects imm(rs1), got %q", InvalidOperand, n.Mnemonic, ops[1])
		}
		return isa.EncodeI(spec, rd, rs1, imm), nil
	case 3:
		rd, err := parseRegister(ops[0])
		if err != nil {
			return 0, err
		}
		rs1, err := parseRegister(ops[1])
		if err != nil {
			return 0, err
		}
		imm, err := e.value(ops[2])
		if err != nil {
			return 0, err
		}
		return isa.EncodeI(spec, rd, rs1, imm), nil
	}
	return 0, operandCount(n, 3)
}

// encodeS handles "op rs2, imm(rs1)" and "op rs2, rs1, imm". Unlike I and U
// immediates, store offsets are range checked.
func (e *encoder) encodeS(spec isa.Spec, n *Node) (uint32, error) {
	ops := n.Operands
	var (
		rs1, rs2 isa.Register
		imm      int64
		err      error
	)
	switch len(ops) {
	case 2:
		var ok bool
		imm, rs1, ok, err = parseMemory(ops[1])
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, fmt.Errorf("%w: %s expects imm(rs1), got %q", InvalidOperand, n.Mnemonic, ops[1])
		}
	case 3:
		if rs1, err = parseRegister(ops[1]); err != nil {
			return 0, err
		}
		if imm, err = e.value(ops[2]); err != nil {
			return 0, err
		}
	default:
		return 0, operandCount(n, 2)
	}
	if rs2, err = parseRegister(ops[0]); err != nil {
		return 0, err
	}
	if !isa.FitsSigned(imm, isa.ImmBitsS) {
		return 0, fmt.Errorf("%w: %d does not fit in %d bits", ImmediateOutOfRange, imm, isa.ImmBitsS)
	}
	return isa.EncodeS(spec, rs1, rs2, imm), nil
}

// pcOffset resolves a branch or jump target to a byte offset from pc.
// Numeric targets are taken as offsets already.
func (e *encoder) pcOffset(target string, pc uint32, bits uint) (int64, error) {
	offset, err := parseConstant(target)
	if err != nil {
		if !isLabelName(target) {
			return 0, fmt.Errorf("%w: bad target %q", InvalidOperand, target)
		}
		addr, err := e.symbols.Resolve(target)
		if err != nil {
			return 0, err
		}
		offset = int64(addr) - int64(pc)
	}
	if offset%2 != 0 {
		return 0, fmt.Errorf("%w: offset %d is not a multiple of 2", ImmediateOutOfRange, offset)
	}
	if !isa.FitsSigned(offset, bits) {
		return 0, fmt.Errorf("%w: offset %d does not fit in %d bits", ImmediateOutOfRange, offset, bits)
	}
	return offset, nil
}

// value parses an immediate, which may also name a label; labels stand for
// their absolute address.
func (e *encoder) value(s string) (int64, error) {
	v, err := parseConstant(s)
	if err == nil {
		return v, nil
	}
	if !isLabelName(s) {
		return 0, fmt.Errorf("%w: %v", InvalidOperand, err)
	}
	addr, err := e.symbols.Resolve(s)
	if err != nil {
		return 0, err
	}
	return int64(addr), nil
}

func threeRegisters(ops []string) (a, b, c isa.Register, err error) {
	if a, err = parseRegister(ops[0]); err != nil {
		return
	}
	if b, err = parseRegister(ops[1]); err != nil {
		return
	}
	c, err = parseRegister(ops[2])
	return
}

func wantOperands(n *Node, count int) error {
	if len(n.Operands) != count {
		return operandCount(n, count)
	}
	return nil
}

func operandCount(n *Node, count int) error {
	return fmt.Errorf("%w: %s requires %d operands, got %d", InvalidOperand, n.Mnemonic, count, len(n.Operands))
}
