package assembler

// NodeType defines the type of an assembly node.
type NodeType int

const (
	// NodeEmpty is a line that only carries a label.
	NodeEmpty NodeType = iota
	// NodeInstruction type.
	NodeInstruction
	// NodeDirective type.
	NodeDirective
)

// Node represents one non-blank source line.
type Node struct {
	Type   NodeType
	Line   int    // 1-based
	Source string // original text, used as the record annotation
	Label  string
	// Mnemonic is lower-cased; directives keep their leading dot.
	Mnemonic string
	Operands []string
	// Rest is the text after the mnemonic with comments removed, for
	// directives that take a string literal.
	Rest string
}
