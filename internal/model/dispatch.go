package model

import "time"

// DefaultIntervalLength is the dispatch period every row of the log describes.
const DefaultIntervalLength = 5 * time.Minute

// Record is one row of a battery dispatch log.
//
// Units:
// - InitialMW, TargetMW: MW, negative while charging
// - RRP: $/MWh
type Record struct {
	Timestamp time.Time

	// InitialMW is the power at the start of the interval.
	InitialMW float64
	// TargetMW is the power the unit is dispatched to reach by the end of the interval.
	TargetMW float64

	RRP float64
}

// Date returns the calendar date of the record as written in the log.
func (r Record) Date() (year int, month time.Month, day int) {
	return r.Timestamp.Date()
}

// Interval is one priced dispatch period.
// This is the row type of the interval ledger.
type Interval struct {
	Index int

	Start time.Time
	End   time.Time

	StartMW float64
	// EndMW is the successor's InitialMW, or the record's own TargetMW
	// for the last interval of the day.
	EndMW float64

	RRP float64

	EnergyMWh float64
	// Value is EnergyMWh * RRP, signed.
	Value float64

	Action Action

	Terminal bool
}

// Discharging reports whether the interval is booked as revenue.
// Only the sign of the starting power matters, never the sign of Value.
func (i Interval) Discharging() bool {
	return i.StartMW >= 0
}

// RampEnergyMWh integrates a linear ramp from startMW to endMW over durationHours.
func RampEnergyMWh(startMW, endMW, durationHours float64) float64 {
	return (startMW + endMW) / 2 * durationHours
}

// Action labels an interval in the ledger. Values are written to CSV and JSON as-is.
type Action string

const (
	ActionCharging    Action = "CHARGING"
	ActionIdle        Action = "IDLE"
	ActionDischarging Action = "DISCHARGING"
)

// ActionOf labels an interval by the power it starts at.
func ActionOf(startMW float64) Action {
	if startMW < 0 {
		return ActionCharging
	}
	if startMW > 0 {
		return ActionDischarging
	}
	return ActionIdle
}
