package disassembler

import (
	"fmt"
	"strings"

	"github.com/Urethramancer/rvasm/isa"
)

// LabelType defines the context of a label.
type LabelType int

const (
	// JumpTarget is for a branch or a non-linking jal.
	JumpTarget LabelType = iota
	// SubroutineEntry is for the target of a linking jal.
	SubroutineEntry
)

// Disassemble renders a little-endian code image loaded at base.
// Words reachable from base are printed as instructions with labels at
// branch targets; everything else is printed as .word data.
func Disassemble(code []byte, base uint32) (string, error) {
	if len(code) == 0 {
		return "", nil
	}
	if len(code)%4 != 0 {
		return "", fmt.Errorf("code size %d is not a multiple of 4", len(code))
	}

	// --- STAGE 1: Linear Sweep ---
	words := isa.BytesToWords(code)
	instructions := make(map[uint32]*Instruction, len(words))
	for i, w := range words {
		addr := base + uint32(i*4)
		inst := Decode(w, addr)
		instructions[addr] = &inst
	}

	// --- STAGE 2: Control Flow Analysis ---
	end := base + uint32(len(code))
	labelTargets := make(map[uint32]LabelType)
	q := newQueue()
	q.push(base)

	for {
		addr, ok := q.pop()
		if !ok {
			break
		}

		inst, exists := instructions[addr]
		if !exists || inst.IsCode || !inst.Valid() {
			continue
		}
		inst.IsCode = true

		if !isTerminal(inst) {
			q.push(addr + 4)
		}

		if target, ok := inst.Target(); ok && target%4 == 0 && target >= base && target < end {
			q.push(target)
			if inst.Mnemonic == "jal" && inst.Fields.Rd != 0 {
				labelTargets[target] = SubroutineEntry
			} else if _, exists := labelTargets[target]; !exists {
				labelTargets[target] = JumpTarget
			}
		}
	}

	// --- STAGE 3: Render Final Output ---
	var out strings.Builder
	for pc := base; pc < end; pc += 4 {
		inst := instructions[pc]
		if labelType, exists := labelTargets[pc]; exists {
			fmt.Fprintf(&out, "%s:\n", labelName(pc, labelType))
		}
		if !inst.IsCode {
			fmt.Fprintf(&out, "    %-8s 0x%08x\n", ".word", inst.Word)
			continue
		}

		operands := inst.Operands
		if target, ok := inst.Target(); ok {
			if labelType, exists := labelTargets[target]; exists {
				operands = withTarget(inst, labelName(target, labelType))
			}
		}
		fmt.Fprintf(&out, "    %-8s %s\n", inst.Mnemonic, operands)
	}

	return out.String(), nil
}

// DisassembleWord renders a single word without labels.
func DisassembleWord(w uint32) string {
	inst := Decode(w, 0)
	if !inst.Valid() {
		return fmt.Sprintf(".word 0x%08x", w)
	}
	return inst.Mnemonic + " " + inst.Operands
}

func labelName(addr uint32, labelType LabelType) string {
	if labelType == SubroutineEntry {
		return fmt.Sprintf("sub_%x", addr)
	}
	return fmt.Sprintf("loc_%x", addr)
}

// addrQueue is a simple worklist queue for addresses to decode.
type addrQueue struct {
	items []uint32
	seen  map[uint32]bool
}

func newQueue() *addrQueue {
	return &addrQueue{seen: make(map[uint32]bool)}
}

func (q *addrQueue) push(addr uint32) {
	addr &^= 3
	if !q.seen[addr] {
		q.items = append(q.items, addr)
		q.seen[addr] = true
	}
}

func (q *addrQueue) pop() (uint32, bool) {
	if len(q.items) == 0 {
		return 0, false
	}
	a := q.items[0]
	q.items = q.items[1:]
	return a, true
}
