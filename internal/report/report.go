// Package report renders calculation results for people.
package report

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"battery-revenue/internal/analysis"
	"battery-revenue/internal/revenue"
)

// Cents formats x with two decimals. The exact binary value is rounded, ties to even,
// so 0.125 prints as 0.12 and 2.675 (stored just below) as 2.67.
func Cents(x float64) string {
	return strconv.FormatFloat(x, 'f', 2, 64)
}

// Dollars is x rounded to cents the same way Cents prints it.
// A value that is not finite gives zero.
func Dollars(x float64) decimal.Decimal {
	d, err := decimal.NewFromString(Cents(x))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// NetLine is the single line printed for a run.
func NetLine(date time.Time, net float64) string {
	return fmt.Sprintf("Net energy revenue for %s: $%s", date.Format(revenue.DateLayout), Cents(net))
}

// SummaryLine describes totals and day statistics on one line.
func SummaryLine(res *revenue.Result, stats analysis.DaySummary) string {
	return fmt.Sprintf(
		"intervals=%d revenue=$%s cost=$%s discharged=%.3fMWh charged=%.3fMWh rrp[min=%.2f mean=%.2f max=%.2f]",
		res.Intervals,
		Dollars(res.Revenue).StringFixed(2),
		Dollars(res.Cost).StringFixed(2),
		res.DischargedMWh,
		res.ChargedMWh,
		stats.MinRRP,
		stats.MeanRRP,
		stats.MaxRRP,
	)
}
