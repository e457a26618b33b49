package assembler

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a per-line failure. Every kind is itself an error,
// so wrapped errors can be tested with errors.Is(err, UnresolvedLabel).
type ErrorKind int

const (
	// UnknownInstruction is a mnemonic missing from the field table.
	UnknownInstruction ErrorKind = iota + 1
	// InvalidRegister is a register name outside x0-x31.
	InvalidRegister
	// UnresolvedLabel is a reference to a label never bound in pass 1.
	UnresolvedLabel
	// MalformedDirective is a directive whose values do not parse.
	MalformedDirective
	// ImmediateOutOfRange is an S/SB/UJ immediate that does not fit its field.
	ImmediateOutOfRange
	// DuplicateLabel is a second binding of an existing label.
	DuplicateLabel
	// MisplacedLine is an instruction in .data or a data directive in .text.
	MisplacedLine
	// InvalidOperand is a wrong operand count or an unparsable operand.
	InvalidOperand
)

var kindNames = map[ErrorKind]string{
	UnknownInstruction:  "unknown instruction",
	InvalidRegister:     "invalid register",
	UnresolvedLabel:     "unresolved label",
	MalformedDirective:  "malformed directive",
	ImmediateOutOfRange: "immediate out of range",
	DuplicateLabel:      "duplicate label",
	MisplacedLine:       "misplaced line",
	InvalidOperand:      "invalid operand",
}

func (k ErrorKind) Error() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "internal error"
}

func (k ErrorKind) String() string {
	return k.Error()
}

// Fatal reports whether the kind means the program itself is malformed,
// as opposed to a single bad value.
func (k ErrorKind) Fatal() bool {
	return k == UnknownInstruction || k == UnresolvedLabel
}

// errLayoutMismatch means the two passes disagreed about an address.
var errLayoutMismatch = errors.New("address differs from layout pass")

// LineError ties an error to the source line that produced it.
type LineError struct {
	Line   int
	Source string
	Err    error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// Kind returns the classification of the error, or 0 for internal errors.
func (e *LineError) Kind() ErrorKind {
	var k ErrorKind
	if errors.As(e.Err, &k) {
		return k
	}
	return 0
}

func lineError(n *Node, err error) *LineError {
	return &LineError{Line: n.Line, Source: n.Source, Err: err}
}
