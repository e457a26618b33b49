package assembler

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/Urethramancer/rvasm/isa"
)

var (
	reLabel     = regexp.MustCompile(`^[A-Za-z_.$][A-Za-z0-9_.$]*$`)
	reMemory    = regexp.MustCompile(`^(.*)\(\s*([A-Za-z0-9]+)\s*\)$`)
	reCharConst = regexp.MustCompile(`^'(\\?.)'$`)
)

// parseLines converts raw source into nodes. Blank and comment-only lines
// produce no node; everything else is validated by the passes.
func parseLines(src string) []*Node {
	lines := strings.Split(strings.ReplaceAll(src, "\r\n", "\n"), "\n")
	var nodes []*Node
	for i, raw := range lines {
		line := strings.TrimSpace(stripComment(raw))
		if line == "" {
			continue
		}
		n := &Node{Line: i + 1, Source: strings.TrimSpace(raw)}

		if idx := strings.IndexByte(line, ':'); idx > 0 {
			if label := line[:idx]; reLabel.MatchString(label) {
				n.Label = label
				line = strings.TrimSpace(line[idx+1:])
			}
		}
		if line == "" {
			n.Type = NodeEmpty
			nodes = append(nodes, n)
			continue
		}

		mnemonic, rest := line, ""
		if sp := strings.IndexFunc(line, unicode.IsSpace); sp != -1 {
			mnemonic = line[:sp]
			rest = strings.TrimSpace(line[sp:])
		}
		// "add,x1" style input has no space after the mnemonic.
		if c := strings.IndexByte(mnemonic, ','); c != -1 {
			rest = strings.TrimSpace(mnemonic[c:] + " " + rest)
			mnemonic = mnemonic[:c]
		}

		n.Mnemonic = strings.ToLower(mnemonic)
		n.Rest = rest
		n.Operands = splitOperands(rest)
		if strings.HasPrefix(n.Mnemonic, ".") {
			n.Type = NodeDirective
		} else {
			n.Type = NodeInstruction
		}
		nodes = append(nodes, n)
	}
	return nodes
}

// stripComment removes a '#' comment, ignoring '#' inside string and
// character literals.
func stripComment(line string) string {
	var quote byte
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quote != 0 && c == '\\':
			i++
		case quote != 0 && c == quote:
			quote = 0
		case quote == 0 && (c == '"' || c == '\''):
			quote = c
		case quote == 0 && c == '#':
			return line[:i]
		}
	}
	return line
}

// splitOperands splits on commas and whitespace.
func splitOperands(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}

// parseConstant converts a decimal, 0x, 0b, 0o or character literal.
func parseConstant(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if m := reCharConst.FindStringSubmatch(s); m != nil {
		c, _, _, err := strconv.UnquoteChar(m[1], '\'')
		if err != nil || c > 0xff {
			return 0, fmt.Errorf("invalid character constant: %s", s)
		}
		return int64(c), nil
	}

	body := s
	neg := false
	switch {
	case strings.HasPrefix(body, "-"):
		neg = true
		body = body[1:]
	case strings.HasPrefix(body, "+"):
		body = body[1:]
	}

	base := 10
	if len(body) > 2 && body[0] == '0' {
		switch body[1] {
		case 'x', 'X':
			base = 16
		case 'b', 'B':
			base = 2
		case 'o', 'O':
			base = 8
		}
		if base != 10 {
			body = body[2:]
		}
	}

	u, err := strconv.ParseUint(body, base, 64)
	if err != nil || body == "" {
		return 0, fmt.Errorf("invalid number format: %s", s)
	}
	// Hex/binary/octal literals may spell a full 64-bit pattern; decimal
	// must fit int64.
	if base == 10 && u > 1<<63 || base == 10 && !neg && u == 1<<63 {
		return 0, fmt.Errorf("number out of range: %s", s)
	}
	v := int64(u)
	if neg {
		v = -v
	}
	return v, nil
}

// parseRegister wraps the register codec so failures carry InvalidRegister.
func parseRegister(s string) (isa.Register, error) {
	r, err := isa.DecodeRegister(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", InvalidRegister, err)
	}
	return r, nil
}

// parseMemory splits "imm(reg)". An empty displacement means zero.
func parseMemory(s string) (int64, isa.Register, bool, error) {
	m := reMemory.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, 0, false, nil
	}
	var imm int64
	if disp := strings.TrimSpace(m[1]); disp != "" {
		v, err := parseConstant(disp)
		if err != nil {
			return 0, 0, true, fmt.Errorf("%w: %v", InvalidOperand, err)
		}
		imm = v
	}
	r, err := parseRegister(m[2])
	if err != nil {
		return 0, 0, true, err
	}
	return imm, r, true, nil
}

// isLabelName reports whether s could name a label.
func isLabelName(s string) bool {
	return reLabel.MatchString(s)
}
