package merge

import "github.com/crimson-sun/tcspc/internal/events"

// MergeNUnsorted multiplexes n input streams onto one downstream in
// arrival order, with no sorting guarantee: each input's Handle call
// forwards immediately. Flush is forwarded to downstream only once
// every input has flushed, so a downstream buffered pump never sees an
// early end-of-stream while other sources are still producing.
func MergeNUnsorted(downstream Processor, n int) []Processor {
	if n <= 0 {
		return nil
	}
	state := &unsortedState{downstream: downstream, remaining: n}
	out := make([]Processor, n)
	for i := range out {
		out[i] = unsortedInput{state: state}
	}
	return out
}

type unsortedState struct {
	downstream Processor
	remaining  int
}

type unsortedInput struct {
	state *unsortedState
}

// Handle implements Processor, forwarding immediately.
func (u unsortedInput) Handle(ev events.Event) error {
	return wrapf("merge_n_unsorted", u.state.downstream.Handle(ev))
}

// Flush implements Processor. The downstream only sees Flush once every
// input has called it.
func (u unsortedInput) Flush() error {
	u.state.remaining--
	if u.state.remaining > 0 {
		return nil
	}
	return wrapf("merge_n_unsorted", u.state.downstream.Flush())
}
