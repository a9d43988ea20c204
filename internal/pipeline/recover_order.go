package pipeline

import (
	"github.com/crimson-sun/tcspc/internal/events"
	"github.com/crimson-sun/tcspc/internal/ringbuf"
)

// RecoverOrder restores abstime order over a bounded window of
// out-of-order arrival, mirroring
// original_source/include/libtcspc/recover_order.hpp's sliding-window
// insertion sort: events are buffered in a sorted pending window keyed
// on AbsTime, and the minimum is released downstream once the window
// has accumulated enough later-arriving events to be confident nothing
// earlier can still arrive (a pending event is released once it is
// more than a configured tolerance older than the event just received).
type RecoverOrder struct {
	downstream  Processor
	tolerance   int64
	strict      bool
	pending     *ringbuf.Sorted[events.Event, int64]
	lastEmitted int64
	hasEmitted  bool
}

// NewRecoverOrder constructs a RecoverOrder that tolerates events
// arriving out of order by up to `tolerance` in AbsTime terms. An event
// older than the last one already emitted downstream is a window
// violation: if strict is true it returns ErrOrderWindowExceeded;
// otherwise it is downgraded to an in-band warning and the event is
// forwarded immediately without going through the pending window.
func NewRecoverOrder(downstream Processor, tolerance int64, strict bool) *RecoverOrder {
	return &RecoverOrder{
		downstream: downstream,
		tolerance:  tolerance,
		strict:     strict,
		pending:    ringbuf.NewSorted[events.Event, int64](func(ev events.Event) int64 { return ev.AbsTime }),
	}
}

// Handle implements Processor.
func (r *RecoverOrder) Handle(ev events.Event) error {
	if r.hasEmitted && ev.AbsTime < r.lastEmitted {
		if r.strict {
			return wrapf("recover_order", ErrOrderWindowExceeded)
		}
		if err := r.downstream.Handle(events.Warning("recover_order: window exceeded")); err != nil {
			return wrapf("recover_order", err)
		}
		return r.emit(ev)
	}

	r.pending.Insert(ev)
	return r.releaseUpTo(ev.AbsTime)
}

// releaseUpTo emits every pending event strictly older than newest minus
// tolerance, where newest is the AbsTime of the event just received:
// anything still within tolerance of it could yet be overtaken by a
// later arrival, so it stays buffered.
func (r *RecoverOrder) releaseUpTo(newest int64) error {
	for {
		v, ok := r.pending.Min()
		if !ok || v.AbsTime >= newest-r.tolerance {
			return nil
		}
		r.pending.PopMin()
		if err := r.emit(v); err != nil {
			return err
		}
	}
}

// emit forwards ev downstream and records it as the most recently
// emitted event, which anchors the window-violation check in Handle.
func (r *RecoverOrder) emit(ev events.Event) error {
	if err := r.downstream.Handle(ev); err != nil {
		return wrapf("recover_order", err)
	}
	r.lastEmitted = ev.AbsTime
	r.hasEmitted = true
	return nil
}

// Flush drains the remaining pending window in order, then forwards
// Flush downstream.
func (r *RecoverOrder) Flush() error {
	for {
		v, ok := r.pending.PopMin()
		if !ok {
			break
		}
		if err := r.emit(v); err != nil {
			return err
		}
	}
	return wrapf("recover_order", r.downstream.Flush())
}
