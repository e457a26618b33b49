package assembler

import (
	"fmt"
	"strconv"
	"strings"
)

// DataKind identifies a data-declaring directive.
type DataKind int

const (
	// DataByte is .byte: 1 byte per value.
	DataByte DataKind = iota + 1
	// DataHalf is .half: 2 bytes per value.
	DataHalf
	// DataWord is .word: 4 bytes per value.
	DataWord
	// DataDouble is .double (alias .dword): 8 bytes per value.
	DataDouble
	// DataAsciiz is .asciiz (alias .string): one byte per character plus a terminator.
	DataAsciiz
	// DataASCII is .ascii: one byte per character, no terminator.
	DataASCII
)

var dataDirectives = map[string]DataKind{
	".byte":   DataByte,
	".half":   DataHalf,
	".word":   DataWord,
	".double": DataDouble,
	".dword":  DataDouble,
	".asciiz": DataAsciiz,
	".string": DataAsciiz,
	".ascii":  DataASCII,
}

// Directives that only affect segment selection or are accepted and ignored.
const (
	dirText   = ".text"
	dirData   = ".data"
	dirGlobl  = ".globl"
	dirGlobal = ".global"
)

var kindNamesData = map[DataKind]string{
	DataByte:   "byte",
	DataHalf:   "half",
	DataWord:   "word",
	DataDouble: "double",
	DataAsciiz: "asciiz",
	DataASCII:  "ascii",
}

func (k DataKind) String() string {
	if s, ok := kindNamesData[k]; ok {
		return s
	}
	return "unknown"
}

// Width returns the size in bytes of one element.
func (k DataKind) Width() uint32 {
	switch k {
	case DataHalf:
		return 2
	case DataWord:
		return 4
	case DataDouble:
		return 8
	}
	return 1
}

// isString reports whether the directive takes a string literal.
func (k DataKind) isString() bool {
	return k == DataAsciiz || k == DataASCII
}

// mask truncates v to the element width.
func (k DataKind) mask(v int64) uint64 {
	switch k.Width() {
	case 1:
		return uint64(uint8(v))
	case 2:
		return uint64(uint16(v))
	case 4:
		return uint64(uint32(v))
	}
	return uint64(v)
}

// dataValues returns the element values a directive declares, in address
// order. Both passes derive their addresses from its length, so it must be
// the only place that decides how many elements a line holds.
func dataValues(kind DataKind, n *Node) ([]uint64, error) {
	if kind.isString() {
		s, err := parseString(n.Rest)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", MalformedDirective, n.Mnemonic, err)
		}
		values := make([]uint64, 0, len(s)+1)
		for i := 0; i < len(s); i++ {
			values = append(values, uint64(s[i]))
		}
		if kind == DataAsciiz {
			values = append(values, 0)
		}
		return values, nil
	}

	if len(n.Operands) == 0 {
		return nil, fmt.Errorf("%w: %s requires at least one value", MalformedDirective, n.Mnemonic)
	}
	values := make([]uint64, 0, len(n.Operands))
	for _, tok := range n.Operands {
		v, err := parseConstant(tok)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", MalformedDirective, n.Mnemonic, err)
		}
		values = append(values, kind.mask(v))
	}
	return values, nil
}

// parseString strips the surrounding double quotes and decodes escapes.
func parseString(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("missing string literal")
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return "", fmt.Errorf("unterminated string literal: %s", s)
	}
	out, err := strconv.Unquote(s)
	if err != nil {
		return "", fmt.Errorf("invalid string literal %s: %v", s, err)
	}
	return out, nil
}

// placeholderCount is how many elements a malformed data line occupies:
// one per operand for numeric kinds, and for strings the raw bytes between
// the quotes, escapes undecoded, plus the terminator for .asciiz.
func placeholderCount(kind DataKind, n *Node) int {
	if !kind.isString() {
		return len(n.Operands)
	}
	raw := strings.TrimSpace(n.Rest)
	if raw == "" {
		return 0
	}
	raw = strings.TrimPrefix(raw, `"`)
	raw = strings.TrimSuffix(raw, `"`)
	count := len(raw)
	if kind == DataAsciiz {
		count++
	}
	return count
}
