package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"battery-revenue/internal/model"
)

// Column names of the dispatch log.
const (
	ColumnTimestamp = "Timestamp"
	ColumnInitialMW = "INITIALMW"
	ColumnTargetMW  = "TARGETMW"
	ColumnRRP       = "RRP"
)

// TimestampLayout accepts DD/MM/YYYY HH:MM with or without zero padding on day, month and hour.
const TimestampLayout = "2/1/2006 15:04"

var requiredColumns = []string{ColumnTimestamp, ColumnInitialMW, ColumnTargetMW, ColumnRRP}

// CSVSource streams a dispatch log CSV in fixed-size batches.
// Only the required columns are decoded; any others are ignored.
type CSVSource struct {
	r         *csv.Reader
	closer    io.Closer
	batchSize int
	index     map[string]int
	done      bool
}

// NewCSVSource reads the header from r and validates it.
// Missing columns are reported as *MissingColumnError before any row is decoded.
func NewCSVSource(r io.Reader, batchSize int) (*CSVSource, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrBatchSize, batchSize)
	}
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &MissingColumnError{Columns: append([]string(nil), requiredColumns...)}
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnError{Columns: missing}
	}

	return &CSVSource{r: cr, batchSize: batchSize, index: index}, nil
}

// OpenCSV opens path and returns a source that closes the file once the log is exhausted.
func OpenCSV(path string, batchSize int) (*CSVSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	s, err := NewCSVSource(f, batchSize)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.closer = f
	return s, nil
}

// Next returns the next batch of up to batchSize records.
func (s *CSVSource) Next() ([]model.Record, error) {
	if s.done {
		return nil, io.EOF
	}
	batch := make([]model.Record, 0, s.batchSize)
	for len(batch) < s.batchSize {
		row, err := s.r.Read()
		if errors.Is(err, io.EOF) {
			s.done = true
			s.Close()
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		line, _ := s.r.FieldPos(0)
		rec, err := s.decode(row, line)
		if err != nil {
			return nil, err
		}
		batch = append(batch, rec)
	}
	if len(batch) == 0 {
		return nil, io.EOF
	}
	return batch, nil
}

// Close releases the underlying file, if the source owns one.
func (s *CSVSource) Close() error {
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	return err
}

func (s *CSVSource) decode(row []string, line int) (model.Record, error) {
	var rec model.Record

	raw := strings.TrimSpace(row[s.index[ColumnTimestamp]])
	ts, err := time.Parse(TimestampLayout, raw)
	if err != nil {
		return rec, &DecodeError{Line: line, Column: ColumnTimestamp, Value: raw, Err: err}
	}
	rec.Timestamp = ts

	if rec.InitialMW, err = s.float(row, line, ColumnInitialMW); err != nil {
		return rec, err
	}
	if rec.TargetMW, err = s.float(row, line, ColumnTargetMW); err != nil {
		return rec, err
	}
	if rec.RRP, err = s.float(row, line, ColumnRRP); err != nil {
		return rec, err
	}
	return rec, nil
}

func (s *CSVSource) float(row []string, line int, column string) (float64, error) {
	raw := strings.TrimSpace(row[s.index[column]])
	if raw == "" {
		return 0, &DecodeError{Line: line, Column: column, Value: raw, Err: ErrEmptyValue}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &DecodeError{Line: line, Column: column, Value: raw, Err: err}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &DecodeError{Line: line, Column: column, Value: raw, Err: ErrNotFinite}
	}
	return v, nil
}
