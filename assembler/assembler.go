package assembler

import (
	"strings"

	"github.com/Urethramancer/rvasm/isa"
)

// Default segment bases.
const (
	DefaultTextBase uint32 = 0x00000000
	DefaultDataBase uint32 = 0x10000000
)

// Options controls layout and encoding.
type Options struct {
	TextBase uint32
	DataBase uint32
	// ContinueData makes a repeated .data resume where the previous data
	// block ended instead of rewinding to DataBase.
	ContinueData bool
	// Workers > 1 encodes instructions concurrently in pass 2.
	Workers int
	// Table defaults to isa.Base().
	Table *isa.Table
}

// DefaultOptions returns the standard segment layout, encoding on one goroutine.
func DefaultOptions() Options {
	return Options{
		TextBase: DefaultTextBase,
		DataBase: DefaultDataBase,
		Workers:  1,
	}
}

func (o Options) table() *isa.Table {
	if o.Table == nil {
		return isa.Base()
	}
	return o.Table
}

// Assembler holds the configuration for assembly runs. It keeps no state
// between runs, so assembling the same source twice gives identical
// reports.
type Assembler struct {
	opts Options
}

// New creates an Assembler with DefaultOptions.
func New() *Assembler {
	return NewWithOptions(DefaultOptions())
}

// NewWithOptions creates an Assembler with the given options.
func NewWithOptions(opts Options) *Assembler {
	return &Assembler{opts: opts}
}

// Options returns the configuration in use.
func (asm *Assembler) Options() Options {
	return asm.opts
}

// Parse splits source text into nodes for Layout and Emit.
func Parse(src string) []*Node {
	return parseLines(src)
}

// Assemble runs both passes over RISC-V assembly source. The report is
// always returned; the error joins every per-line failure.
func (asm *Assembler) Assemble(src string) (*Report, error) {
	nodes := parseLines(src)
	layout, errs := Layout(nodes, asm.opts)
	rep := Emit(nodes, layout, asm.opts)
	rep.Errors = append(errs, rep.Errors...)
	sortErrors(rep.Errors)
	return rep, rep.Err()
}

// AssembleLines is Assemble for input that is already split into lines.
func (asm *Assembler) AssembleLines(lines []string) (*Report, error) {
	return asm.Assemble(strings.Join(lines, "\n"))
}
