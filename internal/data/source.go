package data

import (
	"errors"
	"fmt"
	"io"

	"battery-revenue/internal/model"
)

// RowSource yields dispatch records in log order, one batch per call.
// Next returns io.EOF once the log is exhausted and never returns an empty batch with a nil error.
type RowSource interface {
	Next() ([]model.Record, error)
}

// ErrBatchSize is returned when a source is built with a non-positive batch size.
var ErrBatchSize = errors.New("batch size must be > 0")

// SliceSource serves an in-memory log in batches.
type SliceSource struct {
	records   []model.Record
	batchSize int
	pos       int
}

func NewSliceSource(records []model.Record, batchSize int) (*SliceSource, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrBatchSize, batchSize)
	}
	return &SliceSource{records: records, batchSize: batchSize}, nil
}

func (s *SliceSource) Next() ([]model.Record, error) {
	if s.pos >= len(s.records) {
		return nil, io.EOF
	}
	end := s.pos + s.batchSize
	if end > len(s.records) {
		end = len(s.records)
	}
	batch := make([]model.Record, end-s.pos)
	copy(batch, s.records[s.pos:end])
	s.pos = end
	return batch, nil
}
