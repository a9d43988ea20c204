package pipeline

import "github.com/crimson-sun/tcspc/internal/events"

// CheckMonotonic verifies that every event's AbsTime is non-decreasing
// relative to the previous one seen, in-band warning on a violation
// rather than aborting the stream (spec.md §7's in-band warning
// convention).
type CheckMonotonic struct {
	downstream Processor
	have       bool
	last       int64
}

// NewCheckMonotonic constructs a CheckMonotonic.
func NewCheckMonotonic(downstream Processor) *CheckMonotonic {
	return &CheckMonotonic{downstream: downstream}
}

// Handle implements Processor.
func (c *CheckMonotonic) Handle(ev events.Event) error {
	if c.have && ev.AbsTime < c.last {
		if err := c.downstream.Handle(events.Warning("abstime decreased: monotonicity violated")); err != nil {
			return wrapf("check_monotonic", err)
		}
	}
	c.have = true
	c.last = ev.AbsTime
	return wrapf("check_monotonic", c.downstream.Handle(ev))
}

// Flush implements Processor.
func (c *CheckMonotonic) Flush() error { return wrapf("check_monotonic", c.downstream.Flush()) }

// CheckAlternating verifies that events alternate between two channels
// (e.g. a ping-pong detector pair), in-band warning on any event that
// breaks the alternation.
type CheckAlternating struct {
	downstream Processor
	channelA   int32
	channelB   int32
	expectA    bool
}

// NewCheckAlternating constructs a CheckAlternating expecting the first
// channel-carrying event to be on channelA.
func NewCheckAlternating(downstream Processor, channelA, channelB int32) *CheckAlternating {
	return &CheckAlternating{downstream: downstream, channelA: channelA, channelB: channelB, expectA: true}
}

// Handle implements Processor.
func (c *CheckAlternating) Handle(ev events.Event) error {
	ch, ok := channelOf(ev)
	if !ok || (ch != c.channelA && ch != c.channelB) {
		return wrapf("check_alternating", c.downstream.Handle(ev))
	}
	want := c.channelA
	if !c.expectA {
		want = c.channelB
	}
	if ch != want {
		if err := c.downstream.Handle(events.Warning("alternation violated")); err != nil {
			return wrapf("check_alternating", err)
		}
	}
	// Resynchronize expectation to whichever channel actually arrived,
	// so a single violation doesn't cascade a warning per event.
	c.expectA = ch != c.channelA
	return wrapf("check_alternating", c.downstream.Handle(ev))
}

// Flush implements Processor.
func (c *CheckAlternating) Flush() error { return wrapf("check_alternating", c.downstream.Flush()) }
