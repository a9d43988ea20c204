package histogram

import "github.com/crimson-sun/tcspc/internal/events"

// Histogram accumulates KindBinIncrement events into a single bin array,
// emitting a KindHistogram snapshot after every successful increment and
// a KindConcludingHistogram snapshot whenever the histogram is reset or
// concluded. Grounded on histogram.hpp's histogram processor.
type Histogram struct {
	bins       []uint64
	maxPerBin  uint64
	strategy   OverflowStrategy
	resetKind  events.Kind
	hasReset   bool
	downstream Processor
	stopped    bool
}

// NewHistogram constructs a Histogram with numBins bins, each saturating
// at maxPerBin (a maxPerBin of 0 means unlimited). When hasReset is
// true, any event of Kind resetKind triggers an explicit reset; pass
// hasReset=false to disable explicit resets and rely only on
// overflow-driven resets.
func NewHistogram(numBins int, maxPerBin uint64, strategy OverflowStrategy, resetKind events.Kind, hasReset bool, downstream Processor) *Histogram {
	return &Histogram{
		bins:       make([]uint64, numBins),
		maxPerBin:  maxPerBin,
		strategy:   strategy,
		resetKind:  resetKind,
		hasReset:   hasReset,
		downstream: downstream,
	}
}

func (h *Histogram) Handle(ev events.Event) error {
	if h.stopped {
		return nil
	}
	switch {
	case ev.Kind == events.KindBinIncrement:
		return h.applyIncrement(ev.BinIndex)
	case h.hasReset && ev.Kind == h.resetKind:
		if err := h.emitConcluding(); err != nil {
			return err
		}
		h.reset()
		return nil
	default:
		return wrapf("histogram", h.downstream.Handle(ev))
	}
}

func (h *Histogram) applyIncrement(bin int64) error {
	if bin < 0 || int(bin) >= len(h.bins) {
		return nil
	}
	if h.maxPerBin != 0 && h.bins[bin] >= h.maxPerBin {
		return h.handleOverflow(bin)
	}
	h.bins[bin]++
	return wrapf("histogram", h.downstream.Handle(events.Event{Kind: events.KindHistogram, View: h.snapshot()}))
}

func (h *Histogram) handleOverflow(bin int64) error {
	switch h.strategy {
	case SaturateOnOverflow:
		return wrapf("histogram", h.downstream.Handle(events.Event{Kind: events.KindHistogram, View: h.snapshot()}))
	case ResetOnOverflow:
		if err := h.emitConcluding(); err != nil {
			return err
		}
		h.reset()
		return h.applyIncrement(bin)
	case StopOnOverflow:
		if err := h.emitConcluding(); err != nil {
			return err
		}
		h.stopped = true
		return wrapf("histogram", h.downstream.Flush())
	default: // ErrorOnOverflow
		return ErrOverflow
	}
}

func (h *Histogram) emitConcluding() error {
	return wrapf("histogram", h.downstream.Handle(events.Event{Kind: events.KindConcludingHistogram, View: h.snapshot()}))
}

func (h *Histogram) reset() {
	for i := range h.bins {
		h.bins[i] = 0
	}
}

func (h *Histogram) snapshot() events.View {
	return events.NewView(append([]uint64(nil), h.bins...))
}

func (h *Histogram) Flush() error {
	if h.stopped {
		return nil
	}
	if err := h.emitConcluding(); err != nil {
		return err
	}
	return wrapf("histogram", h.downstream.Flush())
}
