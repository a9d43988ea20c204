package pipeline

import (
	"fmt"

	"github.com/crimson-sun/tcspc/internal/events"
)

// Count tallies events matching a predicate and forwards every event
// unchanged. The running total is readable via Total at any time,
// including mid-stream, for external collaborators like internal/stats.
type Count struct {
	downstream Processor
	match      Matcher
	total      int64
}

// NewCount constructs a Count tallying events matching m.
func NewCount(downstream Processor, m Matcher) *Count {
	return &Count{downstream: downstream, match: m}
}

// Total returns the running count of matched events.
func (c *Count) Total() int64 { return c.total }

// Handle implements Processor.
func (c *Count) Handle(ev events.Event) error {
	if c.match(ev) {
		c.total++
	}
	return wrapf("count", c.downstream.Handle(ev))
}

// Flush implements Processor.
func (c *Count) Flush() error { return wrapf("count", c.downstream.Flush()) }

// CountUpTo counts tick events and emits a fire event each time the
// count reaches threshold, wrapping back to initial once it reaches
// limit. All events, including ticks and resets, are forwarded
// unchanged; the fire event is an extra event inserted into the stream.
//
// Grounded on original_source/include/libtcspc/count.hpp's
// count_up_to: the count starts at initial and increments on every tick
// match; just before (FireAfterTick false) or after (true) forwarding
// the tick, if the count equals threshold a fire event carrying the
// tick's AbsTime is emitted; after incrementing, if the count equals
// limit it wraps back to initial. A reset match resets the count to
// initial without emitting a fire event.
type CountUpTo struct {
	downstream    Processor
	tick          Matcher
	reset         Matcher
	fireKind      events.Kind
	fireAfterTick bool
	threshold     uint64
	limit         uint64
	initial       uint64
	count         uint64
}

func newCountUpToEngine(downstream Processor, tick, reset Matcher, fireKind events.Kind, fireAfterTick bool, threshold, limit, initial uint64) *CountUpTo {
	return &CountUpTo{
		downstream:    downstream,
		tick:          tick,
		reset:         reset,
		fireKind:      fireKind,
		fireAfterTick: fireAfterTick,
		threshold:     threshold,
		limit:         limit,
		initial:       initial,
		count:         initial,
	}
}

// NewCountUpTo constructs a CountUpTo. tick selects the event counted;
// reset selects an event type that resets the count to initial without
// firing (it may be Never if no reset event is needed). fireKind names
// the Kind of the event emitted at threshold, stamped with the
// triggering tick's AbsTime. limit must be greater than initial.
func NewCountUpTo(downstream Processor, tick, reset Matcher, fireKind events.Kind, fireAfterTick bool, threshold, limit, initial uint64) (*CountUpTo, error) {
	if initial >= limit {
		return nil, fmt.Errorf("pipeline: count_up_to limit (%d) must be greater than initial (%d)", limit, initial)
	}
	return newCountUpToEngine(downstream, tick, reset, fireKind, fireAfterTick, threshold, limit, initial), nil
}

// NewCountDownTo constructs the decrementing mirror of NewCountUpTo:
// threshold is reflected about the [limit, initial] range and
// initial/limit are swapped, then handled by the same count-up engine
// (matching count_down_to()'s documented parameter transform). limit
// must be less than initial.
func NewCountDownTo(downstream Processor, tick, reset Matcher, fireKind events.Kind, fireAfterTick bool, threshold, limit, initial uint64) (*CountUpTo, error) {
	if limit >= initial {
		return nil, fmt.Errorf("pipeline: count_down_to limit (%d) must be less than initial (%d)", limit, initial)
	}
	if threshold <= initial && threshold >= limit {
		threshold = limit + (initial - threshold)
	}
	initial, limit = limit, initial
	return newCountUpToEngine(downstream, tick, reset, fireKind, fireAfterTick, threshold, limit, initial), nil
}

// Handle implements Processor.
func (c *CountUpTo) Handle(ev events.Event) error {
	if c.tick(ev) {
		abstime := ev.AbsTime
		if !c.fireAfterTick && c.count == c.threshold {
			if err := c.downstream.Handle(events.Event{Kind: c.fireKind, AbsTime: abstime}); err != nil {
				return wrapf("count_up_to", err)
			}
		}
		if err := c.downstream.Handle(ev); err != nil {
			return wrapf("count_up_to", err)
		}
		c.count++
		if c.fireAfterTick && c.count == c.threshold {
			if err := c.downstream.Handle(events.Event{Kind: c.fireKind, AbsTime: abstime}); err != nil {
				return wrapf("count_up_to", err)
			}
		}
		if c.count == c.limit {
			c.count = c.initial
		}
		return nil
	}
	if c.reset != nil && c.reset(ev) {
		c.count = c.initial
	}
	return wrapf("count_up_to", c.downstream.Handle(ev))
}

// Flush implements Processor.
func (c *CountUpTo) Flush() error { return wrapf("count_up_to", c.downstream.Flush()) }
