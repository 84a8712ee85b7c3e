package revenue

import (
	"fmt"
	"time"

	"battery-revenue/internal/model"
)

// Observer receives every priced interval in order, after it is folded into the totals.
type Observer interface {
	Observe(it model.Interval) error
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(it model.Interval) error

func (f ObserverFunc) Observe(it model.Interval) error { return f(it) }

// Aggregator prices adjacent record pairs with a linear ramp and folds them into an Accumulator.
type Aggregator struct {
	length    time.Duration
	hours     float64
	acc       *Accumulator
	observers []Observer
	next      int
}

func NewAggregator(length time.Duration, acc *Accumulator, observers ...Observer) *Aggregator {
	return &Aggregator{
		length:    length,
		hours:     length.Hours(),
		acc:       acc,
		observers: observers,
	}
}

// Aggregate prices the len(batch)-1 pairs of a stitched batch.
// The last record of the batch is left for the next batch or for Terminal.
func (a *Aggregator) Aggregate(batch []model.Record) error {
	for i := 0; i+1 < len(batch); i++ {
		if err := a.fold(a.price(batch[i], batch[i+1].InitialMW, false)); err != nil {
			return err
		}
	}
	return nil
}

// Terminal prices the last record of the day. With no successor, the ramp ends at
// the record's own target.
func (a *Aggregator) Terminal(last model.Record) error {
	return a.fold(a.price(last, last.TargetMW, true))
}

func (a *Aggregator) price(cur model.Record, endMW float64, terminal bool) model.Interval {
	energy := model.RampEnergyMWh(cur.InitialMW, endMW, a.hours)
	return model.Interval{
		Index:     a.next,
		Start:     cur.Timestamp,
		End:       cur.Timestamp.Add(a.length),
		StartMW:   cur.InitialMW,
		EndMW:     endMW,
		RRP:       cur.RRP,
		EnergyMWh: energy,
		Value:     energy * cur.RRP,
		Action:    model.ActionOf(cur.InitialMW),
		Terminal:  terminal,
	}
}

func (a *Aggregator) fold(it model.Interval) error {
	if err := a.acc.Add(it); err != nil {
		return fmt.Errorf("interval %d: %w", it.Index, err)
	}
	a.next++
	for _, o := range a.observers {
		if err := o.Observe(it); err != nil {
			return fmt.Errorf("interval %d observer: %w", it.Index, err)
		}
	}
	return nil
}
