package pipeline

import "github.com/crimson-sun/tcspc/internal/events"

// RegulateTimeReached thins a stream of KindTimeReached liveness markers
// so that downstream sees at most one per configured interval of
// abstime, while guaranteeing the very last one seen before Flush is
// always forwarded (so a downstream buffered pump always observes a
// final liveness update), per
// original_source/include/libtcspc/regulate_time_reached.hpp.
type RegulateTimeReached struct {
	downstream Processor
	interval   int64
	haveLast   bool
	lastEmit   int64
	pending    events.Event
	havePend   bool
}

// NewRegulateTimeReached constructs a RegulateTimeReached emitting at
// most one KindTimeReached event per interval of abstime. Events other
// than KindTimeReached are forwarded unconditionally and do not reset
// the interval.
func NewRegulateTimeReached(downstream Processor, interval int64) *RegulateTimeReached {
	return &RegulateTimeReached{downstream: downstream, interval: interval}
}

// Handle implements Processor.
func (r *RegulateTimeReached) Handle(ev events.Event) error {
	if ev.Kind != events.KindTimeReached {
		return wrapf("regulate_time_reached", r.downstream.Handle(ev))
	}

	r.pending = ev
	r.havePend = true

	if !r.haveLast || ev.AbsTime-r.lastEmit >= r.interval {
		r.haveLast = true
		r.lastEmit = ev.AbsTime
		r.havePend = false
		return wrapf("regulate_time_reached", r.downstream.Handle(ev))
	}
	return nil
}

// Flush emits any withheld KindTimeReached event before forwarding
// Flush downstream.
func (r *RegulateTimeReached) Flush() error {
	if r.havePend {
		r.havePend = false
		if err := r.downstream.Handle(r.pending); err != nil {
			return wrapf("regulate_time_reached", err)
		}
	}
	return wrapf("regulate_time_reached", r.downstream.Flush())
}
