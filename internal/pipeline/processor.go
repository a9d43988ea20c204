// Package pipeline implements the statically-composed processor graph:
// the handle/flush contract and the stateless and stateful processing
// primitives built on top of it (selection, gating, routing, matching,
// timing checks, counting, generation, order recovery, and time-reached
// regulation).
//
// Composition is construction-time only, by nesting constructors
// (each processor owns its downstream Processor), mirroring the
// original library's template-composed processor chains without a
// generics-heavy port: every processor here accepts and emits the
// single concrete events.Event type.
package pipeline

import (
	"errors"
	"fmt"

	"github.com/crimson-sun/tcspc/internal/events"
)

// ErrEndOfProcessing is the non-error termination sentinel. A processor
// returns it from Handle or Flush to unwind the graph cleanly once it
// has decided processing should stop; it is never logged as a failure
// and callers compare against it with errors.Is.
var ErrEndOfProcessing = errors.New("end of processing")

// ErrStop is returned by processors that enforce a hard stop condition
// distinct from the graceful ErrEndOfProcessing (for example, an
// ordering invariant violation that the caller has configured to abort
// on rather than emit a warning for).
var ErrStop = errors.New("stopped")

// ErrOrderWindowExceeded is returned by RecoverOrder when an event
// arrives more out-of-order than its configured window tolerates.
var ErrOrderWindowExceeded = errors.New("order recovery window exceeded")

// Processor is the single contract every node in the graph implements:
// handle an event, or flush accumulated state at end of stream.
type Processor interface {
	// Handle processes one event. Returning ErrEndOfProcessing signals
	// a clean, intentional stop; any other non-nil error is a failure
	// that the caller should propagate and stop feeding further events.
	Handle(ev events.Event) error
	// Flush signals end of input. Implementations that buffer state
	// must emit it here before forwarding Flush downstream.
	Flush() error
}

// ProcessorFunc adapts a plain function to the Processor interface for
// handle, leaving Flush as a no-op forward. It has no downstream of its
// own; it exists for tests and simple terminal sinks.
type ProcessorFunc func(ev events.Event) error

// Handle implements Processor.
func (f ProcessorFunc) Handle(ev events.Event) error { return f(ev) }

// Flush implements Processor, doing nothing.
func (f ProcessorFunc) Flush() error { return nil }

// Discard is a terminal Processor that accepts every event and does
// nothing with it. Useful as a graph endpoint in tests and examples.
var Discard Processor = discard{}

type discard struct{}

func (discard) Handle(events.Event) error { return nil }
func (discard) Flush() error              { return nil }

// wrapf mirrors the teacher's fmt.Errorf("<component>: %w", err)
// wrapping convention used at every package boundary.
func wrapf(component string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", component, err)
}
