package assembler

import (
	"errors"
	"sort"
)

// RecordKind tells instruction words from data elements.
type RecordKind int

const (
	// RecordInstruction is a 32-bit instruction word.
	RecordInstruction RecordKind = iota
	// RecordData is a 1, 2, 4 or 8 byte data element.
	RecordData
)

// Record is one encoded unit at one address.
type Record struct {
	Kind    RecordKind
	Address uint32
	Payload uint64
	Width   int // bytes
	// Directive is set for data records.
	Directive DataKind
	Line      int
	Source    string
	// Placeholder marks an instruction that failed to encode or an element
	// of a malformed data line. Its payload is zero; Err says why.
	Placeholder bool
	Err         *LineError
}

// Word returns the payload of an instruction record.
func (r Record) Word() uint32 {
	return uint32(r.Payload)
}

// Report is the result of a full assembly run.
type Report struct {
	Records []Record
	Errors  []*LineError
	Layout  *LayoutResult
}

// Err joins all collected errors, or returns nil.
func (r *Report) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// Fatal returns the first error that marks the whole program as
// malformed (unknown instruction or unresolved label), if any.
func (r *Report) Fatal() *LineError {
	for _, e := range r.Errors {
		if e.Kind().Fatal() {
			return e
		}
	}
	return nil
}

// Symbols returns the label table built by the layout pass.
func (r *Report) Symbols() *SymbolTable {
	if r.Layout == nil {
		return NewSymbolTable()
	}
	return r.Layout.Symbols
}

// Text returns the instruction words in program order.
func (r *Report) Text() []uint32 {
	var words []uint32
	for _, rec := range r.Records {
		if rec.Kind == RecordInstruction {
			words = append(words, rec.Word())
		}
	}
	return words
}

// Data returns the data segment as little-endian bytes keyed by address.
// Later records overwrite earlier ones at the same address.
func (r *Report) Data() map[uint32]byte {
	mem := make(map[uint32]byte)
	for _, rec := range r.Records {
		if rec.Kind != RecordData {
			continue
		}
		for i := 0; i < rec.Width; i++ {
			mem[rec.Address+uint32(i)] = byte(rec.Payload >> (8 * i))
		}
	}
	return mem
}

func sortErrors(errs []*LineError) {
	sort.SliceStable(errs, func(i, j int) bool {
		return errs[i].Line < errs[j].Line
	})
}
