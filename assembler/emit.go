package assembler

import (
	"fmt"

	"golang.org/x/sync/errgroup"
)

type job struct {
	index int // into Report.Records
	node  *Node
}

// Emit runs pass 2 over the same nodes Layout saw. It walks them with a
// fresh cursor, checks every data address against the layout, and encodes
// instructions against the frozen symbol table. Lines that Layout already
// rejected are skipped here, except malformed data lines, which become
// zero placeholder records; their errors live in Layout's result.
func Emit(nodes []*Node, layout *LayoutResult, opts Options) *Report {
	rep := &Report{Layout: layout}
	enc := &encoder{table: opts.table(), symbols: layout.Symbols}

	var jobs []job
	seen := make(map[DataKind]int)
	c := newCursor(opts)
	for _, n := range nodes {
		st, err := c.step(n)
		if err != nil && !st.placeholder {
			continue
		}

		if st.instruction {
			rep.Records = append(rep.Records, Record{
				Kind:    RecordInstruction,
				Address: st.addr,
				Width:   4,
				Line:    n.Line,
				Source:  n.Source,
			})
			jobs = append(jobs, job{index: len(rep.Records) - 1, node: n})
			continue
		}

		width := st.kind.Width()
		for i, v := range st.values {
			rec := Record{
				Kind:      RecordData,
				Address:   st.addr + uint32(i)*width,
				Payload:   v,
				Width:     int(width),
				Directive: st.kind,
				Line:      n.Line,
				Source:    n.Source,
			}
			idx := seen[st.kind]
			seen[st.kind]++
			if list := layout.Directives[st.kind]; idx >= len(list) || list[idx] != rec.Address {
				rec.Err = lineError(n, fmt.Errorf("%w: %s element at 0x%x", errLayoutMismatch, st.kind, rec.Address))
			}
			if st.placeholder {
				rec.Placeholder = true
				rec.Err = lineError(n, err)
			}
			rep.Records = append(rep.Records, rec)
		}
	}

	encodeJobs(enc, rep.Records, jobs, opts.Workers)

	for _, rec := range rep.Records {
		// Malformed data lines are already in Layout's errors.
		if rec.Err != nil && !(rec.Placeholder && rec.Kind == RecordData) {
			rep.Errors = append(rep.Errors, rec.Err)
		}
	}
	return rep
}

// encodeJobs fills in instruction payloads. Every job owns a distinct
// record, so with workers > 1 the jobs run concurrently without locking.
func encodeJobs(enc *encoder, records []Record, jobs []job, workers int) {
	run := func(j job) {
		rec := &records[j.index]
		w, err := enc.encode(j.node, rec.Address)
		if err != nil {
			rec.Placeholder = true
			rec.Err = lineError(j.node, err)
			return
		}
		rec.Payload = uint64(w)
	}

	if workers <= 1 || len(jobs) < 2 {
		for _, j := range jobs {
			run(j)
		}
		return
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for _, j := range jobs {
		j := j
		g.Go(func() error {
			run(j)
			return nil
		})
	}
	_ = g.Wait()
}
