package analysis

import (
	"math"
	"time"

	"battery-revenue/internal/model"
)

// DaySummary describes the priced intervals of one day.
// Prices are $/MWh, energies MWh.
type DaySummary struct {
	Start time.Time
	End   time.Time

	Count       int
	Charging    int
	Discharging int
	Idle        int

	MinRRP  float64
	MaxRRP  float64
	MeanRRP float64
	Spread  float64

	ChargedMWh    float64
	DischargedMWh float64

	// AvgChargePrice and AvgDischargePrice are energy-weighted; zero when no energy moved.
	AvgChargePrice    float64
	AvgDischargePrice float64
}

// DayStats folds intervals one at a time; it keeps no interval history,
// so percentiles are not available.
type DayStats struct {
	s DaySummary

	sumRRP         float64
	chargeValue    float64
	dischargeValue float64
}

func (d *DayStats) Observe(it model.Interval) error {
	s := &d.s
	if s.Count == 0 {
		s.Start = it.Start
		s.MinRRP = math.Inf(1)
		s.MaxRRP = math.Inf(-1)
	}
	s.Count++
	s.End = it.End

	switch it.Action {
	case model.ActionCharging:
		s.Charging++
	case model.ActionDischarging:
		s.Discharging++
	default:
		s.Idle++
	}

	d.sumRRP += it.RRP
	s.MinRRP = math.Min(s.MinRRP, it.RRP)
	s.MaxRRP = math.Max(s.MaxRRP, it.RRP)

	mwh := math.Abs(it.EnergyMWh)
	if it.Discharging() {
		s.DischargedMWh += mwh
		d.dischargeValue += mwh * it.RRP
	} else {
		s.ChargedMWh += mwh
		d.chargeValue += mwh * it.RRP
	}
	return nil
}

// Summary returns the statistics of the intervals observed so far.
func (d *DayStats) Summary() DaySummary {
	out := d.s
	if out.Count == 0 {
		return out
	}
	out.MeanRRP = d.sumRRP / float64(out.Count)
	out.Spread = out.MaxRRP - out.MinRRP
	if out.ChargedMWh > 0 {
		out.AvgChargePrice = d.chargeValue / out.ChargedMWh
	}
	if out.DischargedMWh > 0 {
		out.AvgDischargePrice = d.dischargeValue / out.DischargedMWh
	}
	return out
}
