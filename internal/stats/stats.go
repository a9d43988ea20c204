// Package stats implements a small terminal sink that tallies events by
// Kind and tracks the first/last absolute time seen, grounded on
// original_source/examples/summarize_bh_spc.cpp and
// summarize_swabian.cpp's summarize_and_print sink. It is a §6
// external-collaborator concern: exercised only from cmd/ drivers,
// never imported by the core event-processing packages.
package stats

import (
	"fmt"
	"io"
	"sort"

	"github.com/crimson-sun/tcspc/internal/events"
	"github.com/crimson-sun/tcspc/internal/pipeline"
)

// Summary accumulates a count per events.Kind plus the first and last
// AbsTime observed across every event handled. It implements
// pipeline.Processor so it can terminate any processor graph.
type Summary struct {
	counts    map[events.Kind]uint64
	firstAbs  int64
	lastAbs   int64
	haveFirst bool
	haveLast  bool
}

// New constructs an empty Summary.
func New() *Summary {
	return &Summary{counts: make(map[events.Kind]uint64)}
}

// Handle tallies ev by Kind and extends the observed abstime range.
func (s *Summary) Handle(ev events.Event) error {
	s.counts[ev.Kind]++
	if !s.haveFirst {
		s.firstAbs = ev.AbsTime
		s.haveFirst = true
	}
	s.lastAbs = ev.AbsTime
	s.haveLast = true
	return nil
}

// Flush is a no-op: Summary has nothing buffered to emit, and no
// downstream to forward to.
func (s *Summary) Flush() error { return nil }

// Count returns the number of events of Kind k handled so far.
func (s *Summary) Count(k events.Kind) uint64 { return s.counts[k] }

// FirstAbsTime returns the AbsTime of the first event handled, and
// whether any event has been handled yet.
func (s *Summary) FirstAbsTime() (int64, bool) { return s.firstAbs, s.haveFirst }

// LastAbsTime returns the AbsTime of the most recently handled event,
// and whether any event has been handled yet.
func (s *Summary) LastAbsTime() (int64, bool) { return s.lastAbs, s.haveLast }

// Fprint writes a human-readable report of the accumulated counts to w,
// in ascending Kind order, followed by the AbsTime of the last handled
// event.
func (s *Summary) Fprint(w io.Writer) error {
	kinds := make([]events.Kind, 0, len(s.counts))
	for k := range s.counts {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	for _, k := range kinds {
		if _, err := fmt.Fprintf(w, "%s: \t%d\n", k, s.counts[k]); err != nil {
			return err
		}
	}
	if s.haveLast {
		if _, err := fmt.Fprintf(w, "abstime of last event: \t%d\n", s.lastAbs); err != nil {
			return err
		}
	}
	return nil
}

var _ pipeline.Processor = (*Summary)(nil)
