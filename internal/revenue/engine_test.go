package revenue

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"battery-revenue/internal/data"
	"battery-revenue/internal/logger"
	"battery-revenue/internal/metrics"
	"battery-revenue/internal/model"
)

var targetDate = time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

// dispatchLog builds a sorted log from 2024-03-31 22:00 to 2024-04-02 02:00 that
// charges overnight, discharges in the evening and sees negative prices at midday.
func dispatchLog() []model.Record {
	start := time.Date(2024, 3, 31, 22, 0, 0, 0, time.UTC)
	end := time.Date(2024, 4, 2, 2, 0, 0, 0, time.UTC)
	var out []model.Record
	for i, ts := 0, start; ts.Before(end); i, ts = i+1, ts.Add(5*time.Minute) {
		phase := float64(i) / 12
		power := 50 * math.Sin(phase/3)
		price := 80 + 120*math.Cos(phase/5)
		if ts.Hour() >= 11 && ts.Hour() < 14 {
			price = -35.5
		}
		out = append(out, model.Record{
			Timestamp: ts,
			InitialMW: math.Round(power*100) / 100,
			TargetMW:  math.Round(50*math.Sin((phase+1.0/12)/3)*100) / 100,
			RRP:       math.Round(price*100) / 100,
		})
	}
	return out
}

func runEngine(t *testing.T, records []model.Record, batchSize int, opts Options) *Result {
	t.Helper()
	src, err := data.NewSliceSource(records, batchSize)
	require.NoError(t, err)
	if opts.Date.IsZero() {
		opts.Date = targetDate
	}
	opts.Logger = logger.Discard()
	e, err := New(opts)
	require.NoError(t, err)
	res, err := e.Run(src)
	require.NoError(t, err)
	return res
}

// reference prices the day in one pass over the whole filtered log.
func reference(records []model.Record, date time.Time) (rev, cost float64, n int) {
	day := FilterDate(records, date)
	hours := model.DefaultIntervalLength.Hours()
	for i, r := range day {
		end := r.TargetMW
		if i+1 < len(day) {
			end = day[i+1].InitialMW
		}
		v := model.RampEnergyMWh(r.InitialMW, end, hours) * r.RRP
		if r.InitialMW >= 0 {
			rev += v
		} else {
			cost += math.Abs(v)
		}
	}
	return rev, cost, len(day)
}

func TestEngineMatchesSinglePassReference(t *testing.T) {
	records := dispatchLog()
	res := runEngine(t, records, 100, Options{})

	rev, cost, n := reference(records, targetDate)
	assert.Equal(t, 288, n)
	assert.Equal(t, n, res.Intervals)
	assert.Equal(t, n, res.RecordsMatched)
	assert.Equal(t, len(records), res.RecordsRead)
	assert.InDelta(t, rev, res.Revenue, 1e-9)
	assert.InDelta(t, cost, res.Cost, 1e-9)
	assert.InDelta(t, rev-cost, res.NetRevenue, 1e-9)
}

func TestEngineBatchSizeInvariance(t *testing.T) {
	records := dispatchLog()
	want := runEngine(t, records, len(records)+10_000, Options{})

	for _, size := range []int{1, 2, 3, 7, 11, 24, 287, 288, 289, 10_000} {
		got := runEngine(t, records, size, Options{})
		assert.Equal(t, want.Totals, got.Totals, "batch size %d", size)
		assert.Equal(t, want.NetRevenue, got.NetRevenue, "batch size %d", size)
		assert.Equal(t, want.RecordsMatched, got.RecordsMatched, "batch size %d", size)
	}
}

func TestEngineTerminalIntervalUsesTarget(t *testing.T) {
	records := []model.Record{
		rec("2024-03-31 23:55", 999, 999, 999),
		rec("2024-04-01 23:50", 10, 0, 100),
		rec("2024-04-01 23:55", 5, 8, 50),
		rec("2024-04-02 00:00", -100, -100, 1000),
	}
	hours := model.DefaultIntervalLength.Hours()
	want := (10+5)/2.0*hours*100 + (5+8)/2.0*hours*50

	for size := 1; size <= len(records); size++ {
		var ledger LedgerCollector
		res := runEngine(t, records, size, Options{Observers: []Observer{&ledger}})

		assert.InDelta(t, want, res.NetRevenue, 1e-9, "batch size %d", size)
		require.Len(t, ledger.Intervals, 2, "batch size %d", size)
		last := ledger.Intervals[1]
		assert.True(t, last.Terminal)
		assert.Equal(t, 8.0, last.EndMW)
		assert.False(t, ledger.Intervals[0].Terminal)
	}
}

func TestEngineEmptyDate(t *testing.T) {
	records := dispatchLog()
	res := runEngine(t, records, 50, Options{Date: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)})

	assert.Zero(t, res.NetRevenue)
	assert.Zero(t, res.Intervals)
	assert.Zero(t, res.RecordsMatched)
	assert.Equal(t, len(records), res.RecordsRead)
}

func TestEngineEmptySource(t *testing.T) {
	res := runEngine(t, nil, 10, Options{})
	assert.Zero(t, res.NetRevenue)
	assert.Zero(t, res.Batches)
}

func TestEngineIdempotent(t *testing.T) {
	records := dispatchLog()
	a := runEngine(t, records, 13, Options{})
	b := runEngine(t, records, 13, Options{})
	assert.Equal(t, math.Float64bits(a.NetRevenue), math.Float64bits(b.NetRevenue))
	assert.Equal(t, a, b)
}

func TestEngineSignedNetDiffersOnNegativeChargingPrice(t *testing.T) {
	res := runEngine(t, dispatchLog(), 100, Options{})
	// midday charging at -35.5 $/MWh is booked as cost
	assert.NotEqual(t, res.SignedNet, res.NetRevenue)
	assert.Greater(t, res.SignedNet, res.NetRevenue)
}

func TestEngineIntervalLength(t *testing.T) {
	records := []model.Record{rec("2024-04-01 00:00", 10, 20, 100)}
	res := runEngine(t, records, 1, Options{IntervalLength: 30 * time.Minute})
	assert.InDelta(t, 750.0, res.NetRevenue, 1e-9)
}

func TestEngineRunsOnce(t *testing.T) {
	e, err := New(Options{Date: targetDate, Logger: logger.Discard()})
	require.NoError(t, err)
	assert.Equal(t, StateInit, e.State())

	src, err := data.NewSliceSource(nil, 1)
	require.NoError(t, err)
	_, err = e.Run(src)
	require.NoError(t, err)
	assert.Equal(t, StateDone, e.State())

	_, err = e.Run(src)
	assert.ErrorIs(t, err, ErrAlreadyRun)
}

func TestNewRejectsOptions(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)

	_, err = New(Options{Date: targetDate, IntervalLength: -time.Minute})
	assert.Error(t, err)
}

type failingSource struct {
	batches [][]model.Record
	err     error
}

func (f *failingSource) Next() ([]model.Record, error) {
	if len(f.batches) == 0 {
		return nil, f.err
	}
	b := f.batches[0]
	f.batches = f.batches[1:]
	return b, nil
}

func TestEngineAbortsOnSourceError(t *testing.T) {
	decodeErr := &data.DecodeError{Line: 4, Column: data.ColumnRRP, Value: "", Err: data.ErrEmptyValue}
	src := &failingSource{
		batches: [][]model.Record{{rec("2024-04-01 00:00", 1, 1, 1), rec("2024-04-01 00:05", 1, 1, 1)}},
		err:     decodeErr,
	}
	m := metrics.New()
	e, err := New(Options{Date: targetDate, Logger: logger.Discard(), Metrics: m})
	require.NoError(t, err)

	res, err := e.Run(src)
	assert.Nil(t, res)
	var de *data.DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, 4, de.Line)
	assert.Equal(t, StateDone, e.State())

	expected := `
# HELP revenue_runs_total Number of revenue calculations by outcome
# TYPE revenue_runs_total counter
revenue_runs_total{outcome="error"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "revenue_runs_total"))
}

func TestEngineCountsOutOfOrder(t *testing.T) {
	records := []model.Record{
		rec("2024-04-01 00:05", 1, 1, 1),
		rec("2024-04-01 00:00", 1, 1, 1),
		rec("2024-04-01 00:10", 1, 1, 1),
	}
	res := runEngine(t, records, 2, Options{})
	assert.Equal(t, 1, res.OutOfOrder)
}

func TestEngineWritesLedger(t *testing.T) {
	var buf bytes.Buffer
	lw := NewLedgerWriter(&buf)
	res := runEngine(t, dispatchLog(), 17, Options{Observers: []Observer{lw}})
	require.NoError(t, lw.Flush())

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, res.Intervals+1)
	assert.Equal(t, ledgerHeader, rows[0])
	assert.Equal(t, res.Intervals, lw.Rows())
	assert.Equal(t, "true", rows[len(rows)-1][12])
	cum, err := strconv.ParseFloat(rows[len(rows)-1][11], 64)
	require.NoError(t, err)
	assert.InDelta(t, res.NetRevenue, cum, 1e-5)
}

func TestLedgerWriterEmptyDay(t *testing.T) {
	var buf bytes.Buffer
	lw := NewLedgerWriter(&buf)
	require.NoError(t, lw.Flush())
	assert.Zero(t, buf.Len())
}

func TestEngineMetrics(t *testing.T) {
	m := metrics.New()
	records := dispatchLog()
	runEngine(t, records, 64, Options{Metrics: m})

	expected := fmt.Sprintf(`
# HELP revenue_records_matched_total Dispatch log rows on the requested date
# TYPE revenue_records_matched_total counter
revenue_records_matched_total 288
# HELP revenue_records_read_total Dispatch log rows decoded
# TYPE revenue_records_read_total counter
revenue_records_read_total %d
`, len(records))
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected),
		"revenue_records_read_total", "revenue_records_matched_total"))

	series, err := testutil.GatherAndCount(m.Registry(), "revenue_intervals_priced_total")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, series, 2)
}
