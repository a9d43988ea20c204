package pipeline

import "github.com/crimson-sun/tcspc/internal/events"

// Delay shifts every timestamp-bearing field forward by a fixed offset
// before forwarding. It does not reorder events; callers combining Delay
// with a merge input should apply it before the merge, not after.
type Delay struct {
	downstream Processor
	offset     int64
}

// NewDelay constructs a Delay that adds offset to AbsTime on every
// event that carries one.
func NewDelay(downstream Processor, offset int64) *Delay {
	return &Delay{downstream: downstream, offset: offset}
}

// Handle implements Processor.
func (d *Delay) Handle(ev events.Event) error {
	if hasAbsTime(ev.Kind) {
		ev.AbsTime += d.offset
	}
	if ev.First != nil {
		f := *ev.First
		f.AbsTime += d.offset
		ev.First = &f
	}
	if ev.Second != nil {
		s := *ev.Second
		s.AbsTime += d.offset
		ev.Second = &s
	}
	return wrapf("delay", d.downstream.Handle(ev))
}

// Flush implements Processor.
func (d *Delay) Flush() error { return wrapf("delay", d.downstream.Flush()) }

func hasAbsTime(k events.Kind) bool {
	switch k {
	case events.KindDetectionPair:
		return false
	default:
		return true
	}
}
