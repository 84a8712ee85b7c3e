package models

import "time"

// RevenueResponse represents the response from a revenue calculation
type RevenueResponse struct {
	ID      string         `json:"id"`
	Status  string         `json:"status"`
	Summary RevenueSummary `json:"summary"`
	Ledger  []LedgerRow    `json:"ledger,omitempty"`
}

// RevenueSummary contains the day's totals
type RevenueSummary struct {
	Date string `json:"date"`

	NetRevenue   float64 `json:"net_revenue"`
	TotalRevenue float64 `json:"total_revenue"`
	TotalCost    float64 `json:"total_cost"`
	// SignedNet sums interval values without splitting by sign; see total_cost.
	SignedNet float64 `json:"signed_net"`
	// Display is the net revenue rounded to cents, e.g. "$1234.57"
	Display string `json:"display"`

	TotalIntervals      int     `json:"total_intervals"`
	EnergyChargedMWh    float64 `json:"energy_charged_mwh"`
	EnergyDischargedMWh float64 `json:"energy_discharged_mwh"`

	RecordsRead    int `json:"records_read"`
	RecordsMatched int `json:"records_matched"`
	Batches        int `json:"batches"`
	OutOfOrder     int `json:"out_of_order,omitempty"`

	Window *TimeWindow `json:"window,omitempty"`
	Prices *PriceStats `json:"prices,omitempty"`
}

// TimeWindow represents a time range
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// PriceStats summarises the RRP over the day's intervals
type PriceStats struct {
	Min               float64 `json:"min"`
	Max               float64 `json:"max"`
	Mean              float64 `json:"mean"`
	AvgChargePrice    float64 `json:"avg_charge_price"`    // energy-weighted RRP while charging
	AvgDischargePrice float64 `json:"avg_discharge_price"` // energy-weighted RRP while discharging
}

// LedgerRow represents one priced interval
type LedgerRow struct {
	Index         int       `json:"index"`
	IntervalStart time.Time `json:"interval_start"`
	IntervalEnd   time.Time `json:"interval_end"`
	Action        string    `json:"action"` // "CHARGING", "DISCHARGING", "IDLE"
	StartMW       float64   `json:"start_mw"`
	EndMW         float64   `json:"end_mw"`
	RRP           float64   `json:"rrp"`
	EnergyMWh     float64   `json:"energy_mwh"`
	Value         float64   `json:"value"`
	Terminal      bool      `json:"terminal,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
