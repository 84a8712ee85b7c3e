package revenue

import (
	"errors"
	"math"

	"battery-revenue/internal/model"
)

// ErrFinalized is returned when an interval is folded into a finalized accumulator.
var ErrFinalized = errors.New("accumulator already finalized")

// Totals are the running sums of a calculation.
//
// An interval that starts discharging adds its value to Revenue as is; one that starts
// charging adds the absolute value of its value to Cost, so Cost never decreases.
// SignedNet is the plain sum of interval values. It differs from Revenue-Cost exactly
// when a charging interval has a positive value, e.g. charging at a negative price.
type Totals struct {
	Revenue   float64
	Cost      float64
	SignedNet float64

	DischargedMWh float64
	ChargedMWh    float64

	Intervals int
}

// Net is Revenue minus Cost.
func (t Totals) Net() float64 {
	return t.Revenue - t.Cost
}

// Accumulator folds priced intervals into Totals. It is purely additive; a folded
// interval is never withdrawn.
type Accumulator struct {
	totals    Totals
	finalized bool
}

func (a *Accumulator) Add(it model.Interval) error {
	if a.finalized {
		return ErrFinalized
	}
	if it.Discharging() {
		a.totals.Revenue += it.Value
		a.totals.DischargedMWh += it.EnergyMWh
	} else {
		a.totals.Cost += math.Abs(it.Value)
		a.totals.ChargedMWh += math.Abs(it.EnergyMWh)
	}
	a.totals.SignedNet += it.Value
	a.totals.Intervals++
	return nil
}

// Totals returns the running totals.
func (a *Accumulator) Totals() Totals {
	return a.totals
}

// Finalize freezes the accumulator and returns the final totals.
func (a *Accumulator) Finalize() Totals {
	a.finalized = true
	return a.totals
}
