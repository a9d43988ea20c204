package pipeline

import "github.com/crimson-sun/tcspc/internal/events"

// selectFilter forwards events whose Kind satisfies keep, dropping the
// rest. Flush always forwards unconditionally.
type selectFilter struct {
	downstream Processor
	keep       func(events.Kind) bool
}

func (s *selectFilter) Handle(ev events.Event) error {
	if !s.keep(ev.Kind) {
		return nil
	}
	return wrapf("select", s.downstream.Handle(ev))
}

func (s *selectFilter) Flush() error {
	return wrapf("select", s.downstream.Flush())
}

// kindSet builds a membership predicate over a fixed list of kinds.
func kindSet(kinds []events.Kind) map[events.Kind]struct{} {
	set := make(map[events.Kind]struct{}, len(kinds))
	for _, k := range kinds {
		set[k] = struct{}{}
	}
	return set
}

// Select forwards only events whose Kind is one of kinds.
func Select(downstream Processor, kinds ...events.Kind) Processor {
	set := kindSet(kinds)
	return &selectFilter{downstream: downstream, keep: func(k events.Kind) bool {
		_, ok := set[k]
		return ok
	}}
}

// SelectNot forwards every event except those whose Kind is one of
// kinds.
func SelectNot(downstream Processor, kinds ...events.Kind) Processor {
	set := kindSet(kinds)
	return &selectFilter{downstream: downstream, keep: func(k events.Kind) bool {
		_, ok := set[k]
		return !ok
	}}
}

// SelectAll forwards every event unconditionally. It exists so graphs
// built from a data-driven list of filter kinds have an identity case
// when that list is empty, without special-casing the graph builder.
func SelectAll(downstream Processor) Processor {
	return &selectFilter{downstream: downstream, keep: func(events.Kind) bool { return true }}
}

// SelectNone drops every event, forwarding only Flush. It is the
// complementary identity case to SelectAll.
func SelectNone(downstream Processor) Processor {
	return &selectFilter{downstream: downstream, keep: func(events.Kind) bool { return false }}
}
