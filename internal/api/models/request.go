package models

// RevenueQuery holds the query parameters of POST /api/v1/revenue.
// The dispatch log CSV is the request body, raw or as the "file" part of a multipart form.
type RevenueQuery struct {
	Date          string `form:"date"`                                 // YYYY-MM-DD, default from config
	BatchSize     int    `form:"batch_size" binding:"omitempty,min=1"` // default from config
	IncludeLedger bool   `form:"include_ledger"`                       // default: false
}
