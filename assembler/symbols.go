package assembler

import (
	"fmt"
	"sort"
)

// SymbolTable maps label names to addresses. It is filled during the
// layout pass and only read afterwards.
type SymbolTable struct {
	addrs map[string]uint32
	lines map[string]int
}

// NewSymbolTable returns an empty table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		addrs: make(map[string]uint32),
		lines: make(map[string]int),
	}
}

// Bind records name at addr. A second binding of the same name fails with
// DuplicateLabel and leaves the first in place.
func (st *SymbolTable) Bind(name string, addr uint32, line int) error {
	if prev, ok := st.lines[name]; ok {
		return fmt.Errorf("%w: %s (first defined on line %d)", DuplicateLabel, name, prev)
	}
	st.addrs[name] = addr
	st.lines[name] = line
	return nil
}

// Resolve returns the address bound to name.
func (st *SymbolTable) Resolve(name string) (uint32, error) {
	addr, ok := st.addrs[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", UnresolvedLabel, name)
	}
	return addr, nil
}

// Lookup is Resolve without the error.
func (st *SymbolTable) Lookup(name string) (uint32, bool) {
	addr, ok := st.addrs[name]
	return addr, ok
}

// Len returns the number of bound labels.
func (st *SymbolTable) Len() int {
	return len(st.addrs)
}

// Names returns all labels ordered by address, then by name.
func (st *SymbolTable) Names() []string {
	names := make([]string, 0, len(st.addrs))
	for name := range st.addrs {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ai, aj := st.addrs[names[i]], st.addrs[names[j]]
		if ai != aj {
			return ai < aj
		}
		return names[i] < names[j]
	})
	return names
}

// Map returns a copy of the table as a plain map.
func (st *SymbolTable) Map() map[string]uint32 {
	out := make(map[string]uint32, len(st.addrs))
	for k, v := range st.addrs {
		out[k] = v
	}
	return out
}
