package pairing

import "github.com/crimson-sun/tcspc/internal/events"

// referencePoint picks which timestamp within a KindDetectionPair a
// time-correlation variant anchors its output AbsTime to.
type referencePoint int

const (
	atStart referencePoint = iota
	atStop
	atMidpoint
	atFraction
)

// timeCorrelate converts KindDetectionPair events into
// KindTimeCorrelatedDetection events: AbsTime is taken from the chosen
// reference point, Channel from the stop detection (the convention used
// throughout libtcspc for the "which detector measured this" signal),
// and DiffTime is stop.AbsTime - start.AbsTime.
type timeCorrelate struct {
	downstream Processor
	ref        referencePoint
	fraction   float64
}

func newTimeCorrelate(downstream Processor, ref referencePoint, fraction float64) *timeCorrelate {
	return &timeCorrelate{downstream: downstream, ref: ref, fraction: fraction}
}

// Handle implements Processor.
func (t *timeCorrelate) Handle(ev events.Event) error {
	if ev.Kind != events.KindDetectionPair {
		return wrapf("time_correlate", t.downstream.Handle(ev))
	}

	start, stop := *ev.First, *ev.Second
	diff := stop.AbsTime - start.AbsTime

	var at int64
	switch t.ref {
	case atStart:
		at = start.AbsTime
	case atStop:
		at = stop.AbsTime
	case atMidpoint:
		at = start.AbsTime + diff/2
	case atFraction:
		at = start.AbsTime + int64(float64(diff)*t.fraction)
	}

	out := events.TimeCorrelatedDetection(at, stop.Channel, diff)
	return wrapf("time_correlate", t.downstream.Handle(out))
}

// Flush implements Processor.
func (t *timeCorrelate) Flush() error { return wrapf("time_correlate", t.downstream.Flush()) }

// TimeCorrelateAtStart anchors the output timestamp to the start
// detection of the pair.
func TimeCorrelateAtStart(downstream Processor) Processor {
	return newTimeCorrelate(downstream, atStart, 0)
}

// TimeCorrelateAtStop anchors the output timestamp to the stop
// detection of the pair.
func TimeCorrelateAtStop(downstream Processor) Processor {
	return newTimeCorrelate(downstream, atStop, 0)
}

// TimeCorrelateAtMidpoint anchors the output timestamp halfway between
// start and stop.
func TimeCorrelateAtMidpoint(downstream Processor) Processor {
	return newTimeCorrelate(downstream, atMidpoint, 0)
}

// TimeCorrelateAtFraction anchors the output timestamp at the given
// fraction (0.0 = start, 1.0 = stop) of the way between start and stop.
func TimeCorrelateAtFraction(downstream Processor, fraction float64) Processor {
	return newTimeCorrelate(downstream, atFraction, fraction)
}

// NegateDiffTime flips the sign of DiffTime on every
// KindTimeCorrelatedDetection event, useful when a downstream consumer
// expects the opposite sign convention (e.g. stop-minus-start instead
// of start-minus-stop).
type NegateDiffTime struct {
	downstream Processor
}

// NewNegateDiffTime constructs a NegateDiffTime.
func NewNegateDiffTime(downstream Processor) *NegateDiffTime {
	return &NegateDiffTime{downstream: downstream}
}

// Handle implements Processor.
func (n *NegateDiffTime) Handle(ev events.Event) error {
	if ev.Kind == events.KindTimeCorrelatedDetection {
		ev.DiffTime = -ev.DiffTime
	}
	return wrapf("negate_difftime", n.downstream.Handle(ev))
}

// Flush implements Processor.
func (n *NegateDiffTime) Flush() error { return wrapf("negate_difftime", n.downstream.Flush()) }

// RemoveTimeCorrelation downgrades KindTimeCorrelatedDetection events
// back to plain KindDetection events, dropping DiffTime. It is the
// inverse of the time-correlation processors above, used when a later
// stage of the graph only cares about detection timing and channel.
type RemoveTimeCorrelation struct {
	downstream Processor
}

// NewRemoveTimeCorrelation constructs a RemoveTimeCorrelation.
func NewRemoveTimeCorrelation(downstream Processor) *RemoveTimeCorrelation {
	return &RemoveTimeCorrelation{downstream: downstream}
}

// Handle implements Processor.
func (r *RemoveTimeCorrelation) Handle(ev events.Event) error {
	if ev.Kind == events.KindTimeCorrelatedDetection {
		ev = events.Detection(ev.AbsTime, ev.Channel)
	}
	return wrapf("remove_time_correlation", r.downstream.Handle(ev))
}

// Flush implements Processor.
func (r *RemoveTimeCorrelation) Flush() error {
	return wrapf("remove_time_correlation", r.downstream.Flush())
}
