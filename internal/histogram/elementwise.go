package histogram

import (
	"fmt"

	"github.com/crimson-sun/tcspc/internal/events"
)

// ElementwiseHistogram accumulates one KindBinIncrementCluster event per
// element of a single scan into a flat numElements*numBins bin array,
// emitting a KindElementHistogram snapshot of the just-updated element
// after every cluster and a KindHistogramArray snapshot of the whole
// scan once every element has been seen. Only SaturateOnOverflow and
// StopOnOverflow are supported, matching multi_histogram's internal
// saturate/stop-only overflow policies in histogram_impl.hpp; a scan
// has no notion of "undo", so reset and error strategies don't apply
// here (see ElementwiseAccumulate for journal-backed rollback).
type ElementwiseHistogram struct {
	numElements, numBins int
	maxPerBin            uint64
	strategy             OverflowStrategy
	bins                 []uint64
	current              int
	stopped              bool
	downstream           Processor
}

// NewElementwiseHistogram constructs an ElementwiseHistogram over
// numElements elements of numBins bins each. strategy must be
// SaturateOnOverflow or StopOnOverflow.
func NewElementwiseHistogram(numElements, numBins int, maxPerBin uint64, strategy OverflowStrategy, downstream Processor) (*ElementwiseHistogram, error) {
	if strategy != SaturateOnOverflow && strategy != StopOnOverflow {
		return nil, fmt.Errorf("histogram: elementwise histogram supports only saturate or stop overflow strategies")
	}
	return &ElementwiseHistogram{
		numElements: numElements,
		numBins:     numBins,
		maxPerBin:   maxPerBin,
		strategy:    strategy,
		bins:        make([]uint64, numElements*numBins),
		downstream:  downstream,
	}, nil
}

func (e *ElementwiseHistogram) Handle(ev events.Event) error {
	if e.stopped {
		return nil
	}
	if ev.Kind != events.KindBinIncrementCluster {
		return wrapf("elementwise_histogram", e.downstream.Handle(ev))
	}
	if e.current >= e.numElements {
		return nil
	}
	base := e.current * e.numBins
	for _, bin := range ev.BinIndices {
		if bin < 0 || int(bin) >= e.numBins {
			continue
		}
		idx := base + int(bin)
		if e.maxPerBin != 0 && e.bins[idx] >= e.maxPerBin {
			if e.strategy == StopOnOverflow {
				if err := e.emitArray(events.KindHistogramArray); err != nil {
					return err
				}
				e.stopped = true
				return wrapf("elementwise_histogram", e.downstream.Flush())
			}
			continue // saturate: drop the increment
		}
		e.bins[idx]++
	}
	if err := e.emitElement(e.current); err != nil {
		return err
	}
	e.current++
	if e.current == e.numElements {
		if err := e.emitArray(events.KindHistogramArray); err != nil {
			return err
		}
		e.current = 0
	}
	return nil
}

func (e *ElementwiseHistogram) emitElement(element int) error {
	base := element * e.numBins
	row := append([]uint64(nil), e.bins[base:base+e.numBins]...)
	return wrapf("elementwise_histogram", e.downstream.Handle(events.Event{Kind: events.KindElementHistogram, View: events.NewView(row)}))
}

func (e *ElementwiseHistogram) emitArray(kind events.Kind) error {
	return wrapf("elementwise_histogram", e.downstream.Handle(events.Event{Kind: kind, View: events.NewView(append([]uint64(nil), e.bins...))}))
}

func (e *ElementwiseHistogram) Flush() error {
	if e.stopped {
		return nil
	}
	return wrapf("elementwise_histogram", e.downstream.Flush())
}

// appliedCluster records one cluster applied to one element during the
// current scan, retained so the scan can be rolled back on overflow.
type appliedCluster struct {
	element int
	bins    []int64
}

// ElementwiseAccumulate accumulates KindBinIncrementCluster events across
// multiple full scans into a persistent numElements*numBins bin array,
// journaling each scan's applied clusters so that, under
// ResetOnOverflow, the current scan's contribution can be rolled back
// before emitting a concluding snapshot and starting the next scan from
// a clean accumulation. Grounded on histogram_impl.hpp's
// multi_histogram_accumulation; the byte-packed cluster journal encoding
// there exists to keep the journal compact in C++ memory layout, which
// Go's garbage collector makes unnecessary, so the journal here is a
// plain slice of applied clusters.
type ElementwiseAccumulate struct {
	numElements, numBins int
	maxPerBin            uint64
	strategy             OverflowStrategy
	bins                 []uint64
	current              int
	journal              []appliedCluster
	stopped              bool
	downstream           Processor
}

// NewElementwiseAccumulate constructs an ElementwiseAccumulate over
// numElements elements of numBins bins each.
func NewElementwiseAccumulate(numElements, numBins int, maxPerBin uint64, strategy OverflowStrategy, downstream Processor) *ElementwiseAccumulate {
	return &ElementwiseAccumulate{
		numElements: numElements,
		numBins:     numBins,
		maxPerBin:   maxPerBin,
		strategy:    strategy,
		bins:        make([]uint64, numElements*numBins),
		downstream:  downstream,
	}
}

func (e *ElementwiseAccumulate) Handle(ev events.Event) error {
	if e.stopped {
		return nil
	}
	if ev.Kind != events.KindBinIncrementCluster {
		return wrapf("elementwise_accumulate", e.downstream.Handle(ev))
	}
	if e.current >= e.numElements {
		return nil
	}
	if overflowed := e.applyCluster(e.current, ev.BinIndices); overflowed {
		return e.handleOverflow()
	}
	e.current++
	if e.current == e.numElements {
		e.current = 0
		e.journal = e.journal[:0]
		return wrapf("elementwise_accumulate", e.downstream.Handle(events.Event{Kind: events.KindHistogramArray, View: e.snapshot()}))
	}
	return nil
}

// applyCluster applies bins to element, journaling the increments that
// were actually made (so they can be rolled back) and reporting whether
// an overflow that needs handling was hit (always false under
// SaturateOnOverflow, which drops the increment instead).
func (e *ElementwiseAccumulate) applyCluster(element int, bins []int64) bool {
	base := element * e.numBins
	applied := make([]int64, 0, len(bins))
	overflowed := false
	for _, bin := range bins {
		if bin < 0 || int(bin) >= e.numBins {
			continue
		}
		idx := base + int(bin)
		if e.maxPerBin != 0 && e.bins[idx] >= e.maxPerBin {
			overflowed = true
			if e.strategy == SaturateOnOverflow {
				continue
			}
			break
		}
		e.bins[idx]++
		applied = append(applied, bin)
	}
	e.journal = append(e.journal, appliedCluster{element: element, bins: applied})
	return overflowed && e.strategy != SaturateOnOverflow
}

func (e *ElementwiseAccumulate) handleOverflow() error {
	switch e.strategy {
	case StopOnOverflow:
		e.rollbackScan()
		if err := wrapf("elementwise_accumulate", e.downstream.Handle(events.Event{Kind: events.KindConcludingHistogramArray, View: e.snapshot()})); err != nil {
			return err
		}
		e.stopped = true
		return wrapf("elementwise_accumulate", e.downstream.Flush())
	case ResetOnOverflow:
		e.rollbackScan()
		if err := wrapf("elementwise_accumulate", e.downstream.Handle(events.Event{Kind: events.KindConcludingHistogramArray, View: e.snapshot()})); err != nil {
			return err
		}
		for i := range e.bins {
			e.bins[i] = 0
		}
		e.current = 0
		e.journal = e.journal[:0]
		return nil
	default: // ErrorOnOverflow
		return ErrOverflow
	}
}

// rollbackScan undoes every cluster journaled so far in the current scan.
func (e *ElementwiseAccumulate) rollbackScan() {
	for i := len(e.journal) - 1; i >= 0; i-- {
		entry := e.journal[i]
		base := entry.element * e.numBins
		for _, bin := range entry.bins {
			e.bins[base+int(bin)]--
		}
	}
	e.journal = e.journal[:0]
	e.current = 0
}

func (e *ElementwiseAccumulate) snapshot() events.View {
	return events.NewView(append([]uint64(nil), e.bins...))
}

func (e *ElementwiseAccumulate) Flush() error {
	if e.stopped {
		return nil
	}
	if err := wrapf("elementwise_accumulate", e.downstream.Handle(events.Event{Kind: events.KindConcludingHistogramArray, View: e.snapshot()})); err != nil {
		return err
	}
	return wrapf("elementwise_accumulate", e.downstream.Flush())
}
