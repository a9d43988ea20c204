// Package merge implements the merge fabric: a strict two-way merge with
// a fixed input-0-before-input-1 tie-break, a balanced-tree N-way merge
// built from it, and an unsorted arrival-order N-way merge for inputs
// that don't need a combined ordering guarantee.
//
// Grounded on original_source/include/libtcspc/merge.hpp's merge_impl:
// each side buffers at most the events it has received but could not
// yet place relative to the other side, and a side that has flushed
// stops buffering — once its queue drains, further events on the other
// side forward straight through.
package merge

import (
	"errors"
	"fmt"

	"github.com/crimson-sun/tcspc/internal/events"
)

// ErrBufferExceeded is returned when a Merge2 input side's pending
// queue would grow past MaxPending, indicating the two input streams
// have diverged further than the configured memory budget tolerates.
var ErrBufferExceeded = errors.New("merge buffer exceeded")

func wrapf(component string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", component, err)
}

// Processor is the pipeline.Processor contract, duplicated locally (see
// internal/pairing for the same layering rationale).
type Processor interface {
	Handle(ev events.Event) error
	Flush() error
}

// Merge2 merges two upstream event streams, each individually sorted by
// AbsTime, into one combined sorted stream. Ties are broken in favor of
// input 0, matching merge.hpp's documented tie-break so that replaying
// the same two streams always produces the same interleaving.
type Merge2 struct {
	downstream Processor
	maxPending int
	queue      [2][]events.Event
	done       [2]bool
}

// NewMerge2 constructs a Merge2 forwarding its merged output to
// downstream. maxPending bounds each side's pending queue; 0 means
// unbounded.
func NewMerge2(downstream Processor, maxPending int) *Merge2 {
	return &Merge2{downstream: downstream, maxPending: maxPending}
}

// Input0 returns the Processor handle for the first (tie-break winning)
// input stream.
func (m *Merge2) Input0() Processor { return mergeInput{m: m, side: 0} }

// Input1 returns the Processor handle for the second input stream.
func (m *Merge2) Input1() Processor { return mergeInput{m: m, side: 1} }

type mergeInput struct {
	m    *Merge2
	side int
}

func (mi mergeInput) Handle(ev events.Event) error { return mi.m.handle(mi.side, ev) }
func (mi mergeInput) Flush() error                 { return mi.m.flush(mi.side) }

func other(side int) int { return 1 - side }

func (m *Merge2) handle(side int, ev events.Event) error {
	o := other(side)
	if m.done[o] && len(m.queue[o]) == 0 {
		return wrapf("merge2", m.downstream.Handle(ev))
	}
	if m.maxPending > 0 && len(m.queue[side]) >= m.maxPending {
		return wrapf("merge2", ErrBufferExceeded)
	}
	m.queue[side] = append(m.queue[side], ev)
	if err := m.drain(); err != nil {
		return err
	}
	if m.done[o] && len(m.queue[o]) == 0 {
		// The other side has flushed and its backlog is gone: emit this
		// side's queue now so later straight-through events cannot
		// overtake it.
		for _, e := range m.queue[side] {
			if err := m.downstream.Handle(e); err != nil {
				return wrapf("merge2", err)
			}
		}
		m.queue[side] = nil
	}
	return nil
}

// drain emits every pair of comparable pending events, input 0 winning
// ties, until one side's queue is empty.
func (m *Merge2) drain() error {
	for len(m.queue[0]) > 0 && len(m.queue[1]) > 0 {
		e0, e1 := m.queue[0][0], m.queue[1][0]
		side := 0
		if e1.AbsTime < e0.AbsTime {
			side = 1
		}
		winner := m.queue[side][0]
		m.queue[side] = m.queue[side][1:]
		if err := m.downstream.Handle(winner); err != nil {
			return wrapf("merge2", err)
		}
	}
	return nil
}

func (m *Merge2) flush(side int) error {
	m.done[side] = true
	o := other(side)
	if !m.done[o] {
		// side is permanently done: drain() maintains the invariant that
		// at most one queue is nonempty at a time, so whatever is sitting
		// in the other (still live) side's queue has no counterpart left
		// to pair against and must be emitted now, in arrival order,
		// rather than left to be overtaken by that side's own future
		// straight-through events.
		for _, ev := range m.queue[o] {
			if err := m.downstream.Handle(ev); err != nil {
				return wrapf("merge2", err)
			}
		}
		m.queue[o] = nil
		return nil
	}
	for _, ev := range m.queue[0] {
		if err := m.downstream.Handle(ev); err != nil {
			return wrapf("merge2", err)
		}
	}
	for _, ev := range m.queue[1] {
		if err := m.downstream.Handle(ev); err != nil {
			return wrapf("merge2", err)
		}
	}
	m.queue[0], m.queue[1] = nil, nil
	return wrapf("merge2", m.downstream.Flush())
}
