package assembler

import (
	"fmt"
)

// Segment is the active output region.
type Segment int

const (
	// SegmentText holds instructions.
	SegmentText Segment = iota
	// SegmentData holds literal data.
	SegmentData
)

func (s Segment) String() string {
	if s == SegmentData {
		return ".data"
	}
	return ".text"
}

// cursor tracks the active segment and one address counter per segment.
// Each pass creates its own cursor; sharing the type keeps the advancement
// rules identical.
type cursor struct {
	opts    Options
	segment Segment
	text    uint32
	data    uint32
}

func newCursor(opts Options) *cursor {
	return &cursor{
		opts:    opts,
		segment: SegmentText,
		text:    opts.TextBase,
		data:    opts.DataBase,
	}
}

// enter activates a segment. Entering .data rewinds the data counter to
// its base unless ContinueData is set.
func (c *cursor) enter(seg Segment) {
	c.segment = seg
	if seg == SegmentData && !c.opts.ContinueData {
		c.data = c.opts.DataBase
	}
}

func (c *cursor) pc() uint32 {
	if c.segment == SegmentData {
		return c.data
	}
	return c.text
}

func (c *cursor) advance(n uint32) {
	if c.segment == SegmentData {
		c.data += n
	} else {
		c.text += n
	}
}

// step applies the segment and size effects of one node and reports what
// the node occupies. It is the single definition of address advancement
// used by both passes.
func (c *cursor) step(n *Node) (stepResult, error) {
	res := stepResult{addr: c.pc()}
	switch n.Type {
	case NodeEmpty:
		return res, nil

	case NodeDirective:
		switch n.Mnemonic {
		case dirText:
			c.enter(SegmentText)
			return res, nil
		case dirData:
			c.enter(SegmentData)
			return res, nil
		case dirGlobl, dirGlobal:
			return res, nil
		}
		kind, ok := dataDirectives[n.Mnemonic]
		if !ok {
			return res, fmt.Errorf("%w: unknown directive %s", MalformedDirective, n.Mnemonic)
		}
		if c.segment != SegmentData {
			return res, fmt.Errorf("%w: %s outside .data", MisplacedLine, n.Mnemonic)
		}
		res.kind = kind
		values, err := dataValues(kind, n)
		if err != nil {
			// Keep the slots the line would have filled so later data
			// addresses do not move.
			res.values = make([]uint64, placeholderCount(kind, n))
			res.placeholder = true
		} else {
			res.values = values
		}
		c.advance(uint32(len(res.values)) * kind.Width())
		return res, err

	case NodeInstruction:
		if c.segment != SegmentText {
			return res, fmt.Errorf("%w: instruction %s in .data", MisplacedLine, n.Mnemonic)
		}
		res.instruction = true
		c.advance(4)
		return res, nil
	}
	return res, nil
}

type stepResult struct {
	addr        uint32
	instruction bool
	kind        DataKind // non-zero for data directives
	values      []uint64
	placeholder bool // values are zero fill for a malformed data line
}

// LayoutResult is everything pass 1 learns about the program.
type LayoutResult struct {
	Symbols *SymbolTable
	// Directives lists, per data kind, the address of every element in
	// source order.
	Directives map[DataKind][]uint32
	// TextEnd and DataEnd are the final cursor values.
	TextEnd uint32
	DataEnd uint32
	// Instructions is the number of instruction lines laid out.
	Instructions int
}

// Layout runs pass 1: it binds every label and computes the address of
// every data element. Errors are collected per line; a failing line still
// leaves the cursor where the encoding pass will find it.
func Layout(nodes []*Node, opts Options) (*LayoutResult, []*LineError) {
	res := &LayoutResult{
		Symbols:    NewSymbolTable(),
		Directives: make(map[DataKind][]uint32),
	}
	var errs []*LineError

	c := newCursor(opts)
	for _, n := range nodes {
		if n.Label != "" {
			if err := res.Symbols.Bind(n.Label, c.pc(), n.Line); err != nil {
				errs = append(errs, lineError(n, err))
			}
		}

		st, err := c.step(n)
		if err != nil {
			errs = append(errs, lineError(n, err))
		}
		if st.instruction {
			res.Instructions++
		}
		for i := range st.values {
			res.Directives[st.kind] = append(res.Directives[st.kind], st.addr+uint32(i)*st.kind.Width())
		}
	}
	res.TextEnd = c.text
	res.DataEnd = c.data
	return res, errs
}
