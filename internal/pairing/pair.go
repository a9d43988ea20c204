// Package pairing implements the four event-pairing processors ported
// from original_source/include/libtcspc/pair.hpp (pair_all, pair_one,
// pair_all_between, pair_one_between), plus the time-correlation
// processors built on top of a pair (time_correlate_at_*,
// negate_difftime, remove_time_correlation).
package pairing

import (
	"fmt"

	"github.com/crimson-sun/tcspc/internal/events"
)

func wrapf(component string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", component, err)
}

// Processor is the pipeline.Processor contract, duplicated locally to
// avoid an import cycle back to internal/pipeline (both packages sit at
// the same layer of the graph and either may wrap the other).
type Processor interface {
	Handle(ev events.Event) error
	Flush() error
}

// channelPair identifies the two channels a pairing processor matches
// detections between: start events arrive on Start, stop events on
// Stop.
type channelPair struct {
	Start, Stop int32
}

func isDetection(ev events.Event) (int32, bool) {
	if ev.Kind != events.KindDetection {
		return 0, false
	}
	return ev.Channel, true
}

// PairAll emits a KindDetectionPair for every (start, stop) combination
// within a sliding window: every start event is paired with every stop
// event that arrives later and within MaxWindow of it, and conversely
// every stop is paired with every still-pending earlier start. Pending
// starts older than MaxWindow relative to the newest event seen are
// dropped silently rather than retained forever.
type PairAll struct {
	downstream   Processor
	channels     channelPair
	maxWindow    int64
	pendingStart []events.Event
}

// NewPairAll constructs a PairAll matching Start/Stop channels within
// maxWindow of abstime.
func NewPairAll(downstream Processor, startCh, stopCh int32, maxWindow int64) *PairAll {
	return &PairAll{downstream: downstream, channels: channelPair{startCh, stopCh}, maxWindow: maxWindow}
}

// Handle implements Processor.
func (p *PairAll) Handle(ev events.Event) error {
	ch, ok := isDetection(ev)
	if !ok {
		return wrapf("pair_all", p.downstream.Handle(ev))
	}

	p.evictStale(ev.AbsTime)

	switch ch {
	case p.channels.Start:
		p.pendingStart = append(p.pendingStart, ev)
	case p.channels.Stop:
		for _, start := range p.pendingStart {
			if err := p.downstream.Handle(events.DetectionPair(start, ev)); err != nil {
				return wrapf("pair_all", err)
			}
		}
	}
	return wrapf("pair_all", p.downstream.Handle(ev))
}

func (p *PairAll) evictStale(now int64) {
	cut := 0
	for cut < len(p.pendingStart) && now-p.pendingStart[cut].AbsTime > p.maxWindow {
		cut++
	}
	p.pendingStart = p.pendingStart[cut:]
}

// Flush implements Processor.
func (p *PairAll) Flush() error { return wrapf("pair_all", p.downstream.Flush()) }

// PairOne emits a KindDetectionPair for each stop event paired with
// exactly the most recent pending start (the "one" in pair_one), then
// discards that start so it cannot pair again.
type PairOne struct {
	downstream   Processor
	channels     channelPair
	pendingStart *events.Event
}

// NewPairOne constructs a PairOne matching Start/Stop channels.
func NewPairOne(downstream Processor, startCh, stopCh int32) *PairOne {
	return &PairOne{downstream: downstream, channels: channelPair{startCh, stopCh}}
}

// Handle implements Processor.
func (p *PairOne) Handle(ev events.Event) error {
	ch, ok := isDetection(ev)
	if !ok {
		return wrapf("pair_one", p.downstream.Handle(ev))
	}

	switch ch {
	case p.channels.Start:
		start := ev
		p.pendingStart = &start
	case p.channels.Stop:
		if p.pendingStart != nil {
			if err := p.downstream.Handle(events.DetectionPair(*p.pendingStart, ev)); err != nil {
				return wrapf("pair_one", err)
			}
			p.pendingStart = nil
		}
	}
	return wrapf("pair_one", p.downstream.Handle(ev))
}

// Flush implements Processor.
func (p *PairOne) Flush() error { return wrapf("pair_one", p.downstream.Flush()) }

// PairAllBetween is PairAll restricted to stop events that arrive before
// the next start on the same channel closes the window (i.e. stops are
// only paired with starts from the immediately preceding "between"
// interval, not an unbounded lookback).
type PairAllBetween struct {
	downstream   Processor
	channels     channelPair
	pendingStart []events.Event
}

// NewPairAllBetween constructs a PairAllBetween matching Start/Stop
// channels, where the pending-start window resets on every new start.
func NewPairAllBetween(downstream Processor, startCh, stopCh int32) *PairAllBetween {
	return &PairAllBetween{downstream: downstream, channels: channelPair{startCh, stopCh}}
}

// Handle implements Processor.
func (p *PairAllBetween) Handle(ev events.Event) error {
	ch, ok := isDetection(ev)
	if !ok {
		return wrapf("pair_all_between", p.downstream.Handle(ev))
	}

	switch ch {
	case p.channels.Start:
		p.pendingStart = append(p.pendingStart[:0], ev)
	case p.channels.Stop:
		for _, start := range p.pendingStart {
			if err := p.downstream.Handle(events.DetectionPair(start, ev)); err != nil {
				return wrapf("pair_all_between", err)
			}
		}
		p.pendingStart = p.pendingStart[:0]
	}
	return wrapf("pair_all_between", p.downstream.Handle(ev))
}

// Flush implements Processor.
func (p *PairAllBetween) Flush() error { return wrapf("pair_all_between", p.downstream.Flush()) }

// PairOneBetween pairs each stop with only the single most recent start
// since the last stop (combining PairOne's single-match semantics with
// PairAllBetween's window-reset-on-stop semantics).
type PairOneBetween struct {
	downstream   Processor
	channels     channelPair
	pendingStart *events.Event
}

// NewPairOneBetween constructs a PairOneBetween matching Start/Stop
// channels.
func NewPairOneBetween(downstream Processor, startCh, stopCh int32) *PairOneBetween {
	return &PairOneBetween{downstream: downstream, channels: channelPair{startCh, stopCh}}
}

// Handle implements Processor.
func (p *PairOneBetween) Handle(ev events.Event) error {
	ch, ok := isDetection(ev)
	if !ok {
		return wrapf("pair_one_between", p.downstream.Handle(ev))
	}

	switch ch {
	case p.channels.Start:
		start := ev
		p.pendingStart = &start
	case p.channels.Stop:
		if p.pendingStart != nil {
			if err := p.downstream.Handle(events.DetectionPair(*p.pendingStart, ev)); err != nil {
				return wrapf("pair_one_between", err)
			}
			p.pendingStart = nil
		}
	}
	return wrapf("pair_one_between", p.downstream.Handle(ev))
}

// Flush implements Processor.
func (p *PairOneBetween) Flush() error { return wrapf("pair_one_between", p.downstream.Flush()) }
