package revenue

import (
	"fmt"
	"time"

	"battery-revenue/internal/model"
)

// DateLayout is the form target dates are given in.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD target date.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", s, err)
	}
	return d, nil
}

// FilterDate returns the records of batch whose calendar date equals date's, in order.
// It never retains batch.
func FilterDate(batch []model.Record, date time.Time) []model.Record {
	y, m, d := date.Date()
	var out []model.Record
	for _, r := range batch {
		ry, rm, rd := r.Date()
		if ry == y && rm == m && rd == d {
			out = append(out, r)
		}
	}
	return out
}
