package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"battery-revenue/internal/analysis"
	"battery-revenue/internal/api/models"
	"battery-revenue/internal/api/store"
	"battery-revenue/internal/config"
	"battery-revenue/internal/data"
	"battery-revenue/internal/logger"
	"battery-revenue/internal/metrics"
	"battery-revenue/internal/model"
	"battery-revenue/internal/report"
	"battery-revenue/internal/revenue"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RevenueHandler handles revenue calculation requests
type RevenueHandler struct {
	defaults       config.InputConfig
	intervalLength time.Duration
	maxUpload      int64

	results *store.ResultStore
	metrics *metrics.Metrics
	log     *logger.Log
}

// NewRevenueHandler creates a new revenue handler
func NewRevenueHandler(cfg *config.Config, results *store.ResultStore, m *metrics.Metrics, log *logger.Log) *RevenueHandler {
	return &RevenueHandler{
		defaults:       cfg.Input,
		intervalLength: cfg.IntervalLength(),
		maxUpload:      cfg.API.MaxUploadMB << 20,
		results:        results,
		metrics:        m,
		log:            log,
	}
}

// CalculateRevenue handles POST /api/v1/revenue
func (h *RevenueHandler) CalculateRevenue(c *gin.Context) {
	var q models.RevenueQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}
	if q.Date == "" {
		q.Date = h.defaults.Date
	}
	if q.BatchSize == 0 {
		q.BatchSize = h.defaults.BatchSize
	}

	date, err := revenue.ParseDate(q.Date)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_DATE", err.Error(), nil)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	body, err := uploadReader(c)
	if err != nil {
		h.metrics.RunFinished(err)
		h.handleRunError(c, err)
		return
	}
	src, err := data.NewCSVSource(body, q.BatchSize)
	if err != nil {
		h.metrics.RunFinished(err)
		h.handleRunError(c, err)
		return
	}

	var stats analysis.DayStats
	observers := []revenue.Observer{&stats}
	var ledger *revenue.LedgerCollector
	if q.IncludeLedger {
		ledger = &revenue.LedgerCollector{}
		observers = append(observers, ledger)
	}

	engine, err := revenue.New(revenue.Options{
		Date:           date,
		IntervalLength: h.intervalLength,
		Observers:      observers,
		Metrics:        h.metrics,
		Logger:         h.log,
	})
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error(), nil)
		return
	}
	result, err := engine.Run(src)
	if err != nil {
		h.handleRunError(c, err)
		return
	}

	response := buildResponse(uuid.NewString(), result, stats.Summary(), ledger)
	h.results.Set(response.ID, response)
	c.JSON(http.StatusOK, response)
}

// GetResult handles GET /api/v1/revenue/:id
func (h *RevenueHandler) GetResult(c *gin.Context) {
	id := c.Param("id")
	response, ok := h.results.Get(id)
	if !ok {
		abortWithError(c, http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("no result with id %q", id), nil)
		return
	}
	c.JSON(http.StatusOK, response)
}

func (h *RevenueHandler) handleRunError(c *gin.Context, err error) {
	var mce *data.MissingColumnError
	var de *data.DecodeError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		abortWithError(c, http.StatusRequestEntityTooLarge, "UPLOAD_TOO_LARGE", err.Error(), map[string]interface{}{
			"limit_bytes": tooLarge.Limit,
		})
	case errors.As(err, &mce):
		abortWithError(c, http.StatusBadRequest, "MISSING_COLUMN", err.Error(), map[string]interface{}{
			"columns": mce.Columns,
		})
	case errors.As(err, &de):
		abortWithError(c, http.StatusUnprocessableEntity, "MALFORMED_INPUT", err.Error(), map[string]interface{}{
			"line":   de.Line,
			"column": de.Column,
			"value":  de.Value,
		})
	case errors.Is(err, errNoFilePart):
		abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	default:
		abortWithError(c, http.StatusBadRequest, "MALFORMED_INPUT", err.Error(), nil)
	}
}

var errNoFilePart = errors.New(`multipart body has no "file" part`)

// uploadReader returns the CSV stream: the "file" part of a multipart form, or the raw body.
// The multipart part is streamed, never spooled to disk.
func uploadReader(c *gin.Context) (io.Reader, error) {
	if c.ContentType() != "multipart/form-data" {
		return c.Request.Body, nil
	}
	mr, err := c.Request.MultipartReader()
	if err != nil {
		return nil, err
	}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, errNoFilePart
		}
		if err != nil {
			return nil, err
		}
		if part.FormName() == "file" {
			return part, nil
		}
	}
}

func buildResponse(id string, result *revenue.Result, stats analysis.DaySummary, ledger *revenue.LedgerCollector) *models.RevenueResponse {
	summary := models.RevenueSummary{
		Date:                result.Date.Format(revenue.DateLayout),
		NetRevenue:          result.NetRevenue,
		TotalRevenue:        result.Revenue,
		TotalCost:           result.Cost,
		SignedNet:           result.SignedNet,
		Display:             "$" + report.Cents(result.NetRevenue),
		TotalIntervals:      result.Intervals,
		EnergyChargedMWh:    result.ChargedMWh,
		EnergyDischargedMWh: result.DischargedMWh,
		RecordsRead:         result.RecordsRead,
		RecordsMatched:      result.RecordsMatched,
		Batches:             result.Batches,
		OutOfOrder:          result.OutOfOrder,
	}
	if stats.Count > 0 {
		summary.Window = &models.TimeWindow{Start: stats.Start, End: stats.End}
		summary.Prices = &models.PriceStats{
			Min:               stats.MinRRP,
			Max:               stats.MaxRRP,
			Mean:              stats.MeanRRP,
			AvgChargePrice:    stats.AvgChargePrice,
			AvgDischargePrice: stats.AvgDischargePrice,
		}
	}

	response := &models.RevenueResponse{
		ID:      id,
		Status:  "completed",
		Summary: summary,
	}
	if ledger != nil {
		response.Ledger = convertLedger(ledger.Intervals)
	}
	return response
}

func convertLedger(intervals []model.Interval) []models.LedgerRow {
	rows := make([]models.LedgerRow, len(intervals))
	for i, it := range intervals {
		rows[i] = models.LedgerRow{
			Index:         it.Index,
			IntervalStart: it.Start,
			IntervalEnd:   it.End,
			Action:        string(it.Action),
			StartMW:       it.StartMW,
			EndMW:         it.EndMW,
			RRP:           it.RRP,
			EnergyMWh:     it.EnergyMWh,
			Value:         it.Value,
			Terminal:      it.Terminal,
		}
	}
	return rows
}

func abortWithError(c *gin.Context, status int, code, message string, details map[string]interface{}) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}
