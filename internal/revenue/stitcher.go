package revenue

import "battery-revenue/internal/model"

// Stitcher joins consecutive date-filtered batches.
//
// The last record of every emitted batch is remembered and prepended to the next
// non-empty batch, so the interval that crosses a batch boundary is priced exactly
// once: the remembered record is only ever the head of the next batch's first pair.
type Stitcher struct {
	carry    model.Record
	hasCarry bool
}

// Stitch returns the batch to aggregate, or nil when filtered is empty.
// An empty batch leaves the remembered record untouched.
func (s *Stitcher) Stitch(filtered []model.Record) []model.Record {
	if len(filtered) == 0 {
		return nil
	}
	out := filtered
	if s.hasCarry {
		out = make([]model.Record, 0, len(filtered)+1)
		out = append(out, s.carry)
		out = append(out, filtered...)
	}
	s.carry = out[len(out)-1]
	s.hasCarry = true
	return out
}

// Pending returns the remembered record. Once the source is exhausted this is the
// last record of the day, which has no successor.
func (s *Stitcher) Pending() (model.Record, bool) {
	return s.carry, s.hasCarry
}
