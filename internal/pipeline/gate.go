package pipeline

import "github.com/crimson-sun/tcspc/internal/events"

// Gate toggles forwarding on and off based on a pair of open/close
// predicates evaluated against every event that passes through,
// including the one that flips the gate: an open-triggering event is
// itself forwarded once the gate opens, and a close-triggering event is
// forwarded before the gate closes.
type Gate struct {
	downstream Processor
	isOpen     func(events.Event) bool
	isClose    func(events.Event) bool
	open       bool
}

// NewGate constructs a Gate that starts closed. isOpenTrigger reports
// whether an event should open the gate; isCloseTrigger reports whether
// an event should close it. isOpenTrigger is consulted only while the
// gate is closed and isCloseTrigger only while it is open, including on
// the event that has just opened it.
func NewGate(downstream Processor, isOpenTrigger, isCloseTrigger func(events.Event) bool) *Gate {
	return &Gate{downstream: downstream, isOpen: isOpenTrigger, isClose: isCloseTrigger}
}

// Handle implements Processor.
func (g *Gate) Handle(ev events.Event) error {
	if !g.open && g.isOpen(ev) {
		g.open = true
	}
	forward := g.open
	if g.open && g.isClose(ev) {
		g.open = false
	}
	if !forward {
		return nil
	}
	return wrapf("gate", g.downstream.Handle(ev))
}

// Flush implements Processor.
func (g *Gate) Flush() error {
	return wrapf("gate", g.downstream.Flush())
}

// ChannelGate is a convenience Gate that opens on any event from
// openChannel and closes on any event from closeChannel.
func ChannelGate(downstream Processor, openChannel, closeChannel int32) *Gate {
	hasChannel := func(ev events.Event, ch int32) bool {
		switch ev.Kind {
		case events.KindDetection, events.KindTimeCorrelatedDetection, events.KindMarker,
			events.KindLostCounts, events.KindBulkCounts:
			return ev.Channel == ch
		default:
			return false
		}
	}
	return NewGate(downstream,
		func(ev events.Event) bool { return hasChannel(ev, openChannel) },
		func(ev events.Event) bool { return hasChannel(ev, closeChannel) },
	)
}
