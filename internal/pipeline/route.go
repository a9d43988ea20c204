package pipeline

import "github.com/crimson-sun/tcspc/internal/events"

// Route dispatches each event to exactly one of several downstream
// processors chosen by a classification function, and forwards Flush to
// every downstream in construction order. It is the fan-out dual of
// merge.Merge2/MergeN's fan-in.
type Route struct {
	downstreams []Processor
	classify    func(events.Event) int // index into downstreams, or -1 to drop
}

// NewRoute constructs a Route. classify must return an index in
// [0, len(downstreams)) to route ev there, or -1 to drop it silently.
func NewRoute(classify func(events.Event) int, downstreams ...Processor) *Route {
	return &Route{downstreams: downstreams, classify: classify}
}

// Handle implements Processor.
func (r *Route) Handle(ev events.Event) error {
	idx := r.classify(ev)
	if idx < 0 || idx >= len(r.downstreams) {
		return nil
	}
	return wrapf("route", r.downstreams[idx].Handle(ev))
}

// Flush implements Processor, flushing every downstream in order and
// returning the first error encountered (but still flushing the rest).
func (r *Route) Flush() error {
	var first error
	for _, d := range r.downstreams {
		if err := d.Flush(); err != nil && first == nil {
			first = err
		}
	}
	return wrapf("route", first)
}

// ChannelRouter routes events by Channel through a lookup table, falling
// back to a default downstream (which may be Discard) for channels with
// no explicit entry. It is the common case of Route keyed on the
// channel-carrying event kinds.
type ChannelRouter struct {
	route    *Route
	channel  map[int32]int
	fallback int
}

// NewChannelRouter builds a ChannelRouter. byChannel maps channel number
// to a downstream; events on unlisted channels, and events with no
// channel at all, go to fallback.
func NewChannelRouter(byChannel map[int32]Processor, fallback Processor) *ChannelRouter {
	downstreams := make([]Processor, 0, len(byChannel)+1)
	idx := make(map[int32]int, len(byChannel))
	for ch, p := range byChannel {
		idx[ch] = len(downstreams)
		downstreams = append(downstreams, p)
	}
	fallbackIdx := len(downstreams)
	downstreams = append(downstreams, fallback)

	cr := &ChannelRouter{channel: idx, fallback: fallbackIdx}
	cr.route = NewRoute(cr.classify, downstreams...)
	return cr
}

func (cr *ChannelRouter) classify(ev events.Event) int {
	ch, ok := channelOf(ev)
	if !ok {
		return cr.fallback
	}
	if idx, ok := cr.channel[ch]; ok {
		return idx
	}
	return cr.fallback
}

func channelOf(ev events.Event) (int32, bool) {
	switch ev.Kind {
	case events.KindDetection, events.KindTimeCorrelatedDetection, events.KindMarker,
		events.KindLostCounts, events.KindBulkCounts:
		return ev.Channel, true
	default:
		return 0, false
	}
}

// Handle implements Processor.
func (cr *ChannelRouter) Handle(ev events.Event) error { return cr.route.Handle(ev) }

// Flush implements Processor.
func (cr *ChannelRouter) Flush() error { return cr.route.Flush() }

// RouteHomogeneous routes every event to the same single downstream
// chosen once at construction time by classifying the first event seen;
// all downstreams share one declared set and the router "locks in" to
// whichever bucket the stream turns out to be homogeneous over. It
// exists for decoders that multiplex several physically distinct
// channel groups (e.g. one per detector head) known only at run time to
// be single-group for a given acquisition.
type RouteHomogeneous struct {
	downstreams []Processor
	classify    func(events.Event) int
	locked      bool
	idx         int
}

// NewRouteHomogeneous constructs a RouteHomogeneous.
func NewRouteHomogeneous(classify func(events.Event) int, downstreams ...Processor) *RouteHomogeneous {
	return &RouteHomogeneous{downstreams: downstreams, classify: classify}
}

// Handle implements Processor.
func (r *RouteHomogeneous) Handle(ev events.Event) error {
	if !r.locked {
		idx := r.classify(ev)
		if idx < 0 || idx >= len(r.downstreams) {
			return nil
		}
		r.idx = idx
		r.locked = true
	}
	return wrapf("route_homogeneous", r.downstreams[r.idx].Handle(ev))
}

// Flush implements Processor.
func (r *RouteHomogeneous) Flush() error {
	var first error
	for _, d := range r.downstreams {
		if err := d.Flush(); err != nil && first == nil {
			first = err
		}
	}
	return wrapf("route_homogeneous", first)
}
