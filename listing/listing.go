// Package listing renders assembled records in the textual machine-code
// format: one "0x<address> 0x<payload> , <source>" line per record.
package listing

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Urethramancer/rvasm/assembler"
	"github.com/Urethramancer/rvasm/isa"
)

// Format renders one record. Payloads are zero-padded to twice their byte
// width; with annotate set, instruction lines gain a field breakdown.
func Format(r assembler.Record, annotate bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "0x%x 0x%0*x , %s", r.Address, r.Width*2, r.Payload, r.Source)
	if !annotate {
		return b.String()
	}
	switch {
	case r.Err != nil:
		fmt.Fprintf(&b, " # error: %v", r.Err.Err)
	case r.Kind == assembler.RecordInstruction:
		b.WriteString(" # ")
		b.WriteString(Fields(r.Word()))
	}
	return b.String()
}

// Fields renders opcode-funct3-funct7-rs1-rs2-immediate for a word, with
// NULL in place of fields the format does not have.
func Fields(w uint32) string {
	f := isa.Decode(w)
	parts := []string{
		fmt.Sprintf("%07b", f.Opcode),
		"NULL", "NULL", "NULL", "NULL", "NULL",
	}
	if f.HasFunct3() {
		parts[1] = fmt.Sprintf("%03b", f.Funct3)
	}
	if f.HasFunct7() {
		parts[2] = fmt.Sprintf("%07b", f.Funct7)
	}
	if f.HasRs1() {
		parts[3] = fmt.Sprintf("%05b", uint8(f.Rs1))
	}
	if f.HasRs2() {
		parts[4] = fmt.Sprintf("%05b", uint8(f.Rs2))
	}
	if f.HasImm() {
		parts[5] = strconv.FormatInt(f.Imm, 10)
	}
	return strings.Join(parts, "-")
}

// Write renders records in order.
func Write(w io.Writer, records []assembler.Record, annotate bool) error {
	bw := bufio.NewWriter(w)
	for _, r := range records {
		if _, err := bw.WriteString(Format(r, annotate)); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}
