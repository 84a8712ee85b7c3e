package revenue

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"
	"time"

	"battery-revenue/internal/model"
)

var ledgerHeader = []string{
	"index",
	"interval_start",
	"interval_end",
	"action",
	"start_mw",
	"end_mw",
	"rrp",
	"energy_mwh",
	"value",
	"revenue",
	"cost",
	"cum_net",
	"terminal",
}

// LedgerWriter streams one CSV row per priced interval. The header is written
// with the first row, so a day with no intervals produces an empty file.
type LedgerWriter struct {
	w      *csv.Writer
	wrote  bool
	cumNet float64
	rows   int
}

func NewLedgerWriter(w io.Writer) *LedgerWriter {
	return &LedgerWriter{w: csv.NewWriter(w)}
}

func (l *LedgerWriter) Observe(it model.Interval) error {
	if !l.wrote {
		if err := l.w.Write(ledgerHeader); err != nil {
			return err
		}
		l.wrote = true
	}

	var rev, cost float64
	if it.Discharging() {
		rev = it.Value
	} else {
		cost = math.Abs(it.Value)
	}
	l.cumNet += rev - cost

	row := []string{
		strconv.Itoa(it.Index),
		fmtTime(it.Start),
		fmtTime(it.End),
		string(it.Action),
		fmtFloat(it.StartMW),
		fmtFloat(it.EndMW),
		fmtFloat(it.RRP),
		fmtFloat(it.EnergyMWh),
		fmtFloat(it.Value),
		fmtFloat(rev),
		fmtFloat(cost),
		fmtFloat(l.cumNet),
		strconv.FormatBool(it.Terminal),
	}
	if err := l.w.Write(row); err != nil {
		return err
	}
	l.rows++
	return nil
}

// Rows is the number of interval rows written so far.
func (l *LedgerWriter) Rows() int {
	return l.rows
}

// Flush writes any buffered rows to the underlying writer.
func (l *LedgerWriter) Flush() error {
	l.w.Flush()
	return l.w.Error()
}

// LedgerCollector keeps every priced interval in memory. A day has a bounded number
// of intervals, so this is only used for API responses.
type LedgerCollector struct {
	Intervals []model.Interval
}

func (c *LedgerCollector) Observe(it model.Interval) error {
	c.Intervals = append(c.Intervals, it)
	return nil
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
