// Package histogram builds datapoint-to-bin-index histograms from a
// decoded event stream, grounded on the binning.hpp/histogram.hpp/
// histogram_elementwise.hpp/bin_increment_cluster_encoding.hpp family in
// original_source/include/libtcspc.
//
// Every stage here accepts and emits the single concrete events.Event
// type, following the same convention as internal/pairing and
// internal/merge: a stage that doesn't recognize an event's Kind passes
// it through unchanged.
package histogram

import (
	"errors"
	"fmt"

	"github.com/crimson-sun/tcspc/internal/events"
)

// ErrOverflow is returned by a histogram stage using the error overflow
// strategy once a bin increment would exceed its configured maximum
// per-bin value.
var ErrOverflow = errors.New("histogram: bin overflowed")

// Processor is the pipeline.Processor contract, duplicated locally to
// avoid an import cycle back to internal/pipeline.
type Processor interface {
	Handle(ev events.Event) error
	Flush() error
}

// OverflowStrategy selects how a histogram stage reacts when a bin
// increment would exceed its configured maximum per-bin value. Grounded
// on histogram.hpp's saturate/reset/stop/error_on_overflow tag types.
type OverflowStrategy int

const (
	// SaturateOnOverflow silently clamps: the bin stays at its maximum
	// and the increment is dropped.
	SaturateOnOverflow OverflowStrategy = iota
	// ResetOnOverflow emits a concluding snapshot and clears the
	// histogram. Histogram then re-applies the increment that
	// overflowed; ElementwiseAccumulate instead rolls back the current
	// scan before the snapshot and re-applies nothing.
	ResetOnOverflow
	// StopOnOverflow emits a final snapshot, flushes downstream, and
	// ignores every later event. The overflowing Handle call returns only
	// the downstream Flush's error, never ErrOverflow, so the caller gets
	// no error telling it that processing has stopped.
	StopOnOverflow
	// ErrorOnOverflow returns ErrOverflow immediately, with no
	// concluding snapshot.
	ErrorOnOverflow
)

func wrapf(component string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", component, err)
}
