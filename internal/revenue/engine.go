package revenue

import (
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"battery-revenue/internal/data"
	"battery-revenue/internal/logger"
	"battery-revenue/internal/metrics"
	"battery-revenue/internal/model"
)

// ErrAlreadyRun is returned by Run on an engine that has already streamed a source.
// A failed or finished run is restarted with a new Engine.
var ErrAlreadyRun = errors.New("engine already run")

// State is the lifecycle of an Engine.
type State int

const (
	StateInit State = iota
	StateStreaming
	StateDone
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateStreaming:
		return "STREAMING"
	case StateDone:
		return "DONE"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Options configure one calculation.
type Options struct {
	// Date is the calendar day to price; only its year, month and day are used.
	Date time.Time
	// IntervalLength defaults to model.DefaultIntervalLength.
	IntervalLength time.Duration
	// Observers see every priced interval in order (ledger, statistics).
	Observers []Observer

	Metrics *metrics.Metrics
	Logger  *logger.Log
}

// Result is the outcome of a completed calculation.
type Result struct {
	Date time.Time

	Totals
	NetRevenue float64

	Batches        int
	RecordsRead    int
	RecordsMatched int
	// OutOfOrder counts records whose timestamp is earlier than the one before.
	OutOfOrder int
}

// Engine streams a dispatch log through date filter, stitcher and aggregator.
type Engine struct {
	date    time.Time
	state   State
	log     *logger.Entry
	metrics *metrics.Metrics

	stitcher Stitcher
	acc      Accumulator
	agg      *Aggregator

	batches    int
	read       int
	matched    int
	outOfOrder int
	lastSeen   time.Time
}

func New(opts Options) (*Engine, error) {
	if opts.Date.IsZero() {
		return nil, errors.New("date is required")
	}
	length := opts.IntervalLength
	if length == 0 {
		length = model.DefaultIntervalLength
	}
	if length < 0 {
		return nil, fmt.Errorf("interval length must be > 0, got %s", length)
	}
	l := opts.Logger
	if l == nil {
		l = logger.GetLogger()
	}

	y, m, d := opts.Date.Date()
	e := &Engine{
		date:    time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		metrics: opts.Metrics,
	}
	e.log = l.WithComponent("revenue").WithFields(logger.Fields{"date": e.date.Format(DateLayout)})

	observers := append([]Observer(nil), opts.Observers...)
	if opts.Metrics != nil {
		observers = append(observers, ObserverFunc(func(it model.Interval) error {
			opts.Metrics.IntervalPriced(string(it.Action))
			return nil
		}))
	}
	e.agg = NewAggregator(length, &e.acc, observers...)
	return e, nil
}

func (e *Engine) State() State {
	return e.state
}

// Run consumes src to exhaustion and returns the day's result.
// Any error aborts the run; no partial result is returned.
func (e *Engine) Run(src data.RowSource) (*Result, error) {
	if e.state != StateInit {
		return nil, ErrAlreadyRun
	}
	if src == nil {
		return nil, errors.New("row source is nil")
	}
	e.state = StateStreaming
	started := time.Now()

	err := e.stream(src)
	e.state = StateDone
	e.metrics.RunFinished(err)
	if err != nil {
		e.log.WithError(err).WithFields(logger.Fields{
			"batches":      e.batches,
			"records_read": e.read,
		}).Error("revenue calculation failed")
		return nil, err
	}

	totals := e.acc.Finalize()
	res := &Result{
		Date:           e.date,
		Totals:         totals,
		NetRevenue:     totals.Net(),
		Batches:        e.batches,
		RecordsRead:    e.read,
		RecordsMatched: e.matched,
		OutOfOrder:     e.outOfOrder,
	}

	if math.Abs(totals.SignedNet-res.NetRevenue) > 1e-9 {
		e.log.WithFields(logger.Fields{
			"net_revenue": res.NetRevenue,
			"signed_net":  totals.SignedNet,
		}).Warn("charging intervals with positive value booked as cost; signed sum differs from revenue minus cost")
	}
	e.log.WithFields(logger.Fields{
		"batches":         res.Batches,
		"records_read":    res.RecordsRead,
		"records_matched": res.RecordsMatched,
		"intervals":       res.Intervals,
		"total_revenue":   res.Revenue,
		"total_cost":      res.Cost,
		"duration_ms":     float64(time.Since(started).Nanoseconds()) / 1e6,
	}).Info("revenue calculation finished")
	return res, nil
}

func (e *Engine) stream(src data.RowSource) error {
	for {
		batch, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("batch %d: %w", e.batches+1, err)
		}
		e.batches++
		e.read += len(batch)
		e.metrics.RecordsRead(len(batch))
		e.checkOrder(batch)

		matched := FilterDate(batch, e.date)
		e.matched += len(matched)
		e.metrics.RecordsMatched(len(matched))

		if err := e.agg.Aggregate(e.stitcher.Stitch(matched)); err != nil {
			return fmt.Errorf("batch %d: %w", e.batches, err)
		}
		e.log.WithFields(logger.Fields{
			"batch":   e.batches,
			"rows":    len(batch),
			"matched": len(matched),
		}).Debug("batch processed")
	}

	if last, ok := e.stitcher.Pending(); ok {
		if err := e.agg.Terminal(last); err != nil {
			return fmt.Errorf("terminal interval: %w", err)
		}
	}
	return nil
}

// checkOrder counts timestamps that go backwards. Correctness depends on sorted input,
// which is not enforced.
func (e *Engine) checkOrder(batch []model.Record) {
	for _, r := range batch {
		if !e.lastSeen.IsZero() && r.Timestamp.Before(e.lastSeen) {
			if e.outOfOrder == 0 {
				e.log.WithFields(logger.Fields{
					"timestamp": r.Timestamp.Format(time.RFC3339),
					"previous":  e.lastSeen.Format(time.RFC3339),
				}).Warn("dispatch log is not sorted by timestamp; result may be wrong")
			}
			e.outOfOrder++
		}
		e.lastSeen = r.Timestamp
	}
}
