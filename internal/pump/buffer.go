// Package pump implements the single sanctioned thread boundary in the
// graph: a buffered producer/consumer pump guarded by one sync.Mutex
// and one sync.Cond, decoupling a producer thread calling
// Handle/Flush/Halt from a consumer thread calling Pump. Grounded on
// original_source/include/libtcspc/buffer.hpp's mutex+condition_variable
// design (the library's one explicit concurrency primitive) and on the
// teacher's Option-pattern construction and slog diagnostics style,
// adapted from a channel-based drain loop to the mutex/condvar shape
// the specification mandates.
package pump

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/crimson-sun/tcspc/internal/events"
)

// ErrSourceHalted is returned by Pump, and by any Handle call made after
// Halt (Handle never blocks: the FIFO is unbounded), mirroring
// the original's source_halted exception used for abnormal producer
// termination.
var ErrSourceHalted = errors.New("buffer source halted")

func wrapf(component string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", component, err)
}

// downstream is the pipeline.Processor contract, duplicated locally to
// avoid a dependency cycle (internal/pipeline may itself construct a
// Buffer as a component of a larger graph).
type downstream interface {
	Handle(ev events.Event) error
	Flush() error
}

// cachePad reserves a cache line's worth of dead space between the two
// queue headers below so that producer-side enqueues and consumer-side
// dequeues, which each touch only their own queue under the lock, don't
// false-share a cache line on architectures with 64-byte lines. (Apple
// arm64 uses 128-byte lines; this is a documented build note, not a
// runtime dependency, since Go exposes no
// hardware_destructive_interference_size equivalent.)
type cachePad [64]byte

// Policy selects when Pump wakes to drain the shared FIFO.
type Policy struct {
	// Threshold wakes the consumer once this many events are queued.
	// 0 disables threshold-based waking.
	Threshold int
	// Latency wakes the consumer this long after the oldest still-queued
	// event was enqueued, regardless of threshold. 0 disables
	// latency-based waking.
	Latency time.Duration
}

// Buffer is the mutex+condvar buffered pump. A producer thread calls
// Handle and Flush (and, on abnormal termination, Halt); a consumer
// thread calls Pump exactly once, which blocks draining events to
// downstream until the producer flushes, halts, or downstream fails.
type Buffer struct {
	downstream downstream
	policy     Policy

	mu   sync.Mutex
	cond *sync.Cond

	_ cachePad

	fifo          []events.Event
	oldestEnqueue time.Time
	upstreamDone  bool
	halted        bool
	downstreamErr error

	_ cachePad

	emitQueue []events.Event

	pumped bool
}

// NewBuffer constructs a Buffer forwarding drained events to downstream
// under the given wake Policy.
func NewBuffer(downstream downstream, policy Policy) *Buffer {
	b := &Buffer{downstream: downstream, policy: policy}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Handle enqueues ev for the consumer thread. Safe to call only from
// the single producer thread (per the contract), but the lock makes it
// safe to race against the consumer thread calling Pump.
func (b *Buffer) Handle(ev events.Event) error {
	b.mu.Lock()
	if b.halted {
		b.mu.Unlock()
		return wrapf("pump", ErrSourceHalted)
	}
	if b.downstreamErr != nil {
		err := b.downstreamErr
		b.mu.Unlock()
		return wrapf("pump", err)
	}
	if len(b.fifo) == 0 {
		b.oldestEnqueue = time.Now()
	}
	b.fifo = append(b.fifo, ev)
	wake := b.policy.Threshold > 0 && len(b.fifo) >= b.policy.Threshold
	b.mu.Unlock()
	if wake {
		b.cond.Signal()
	}
	return nil
}

// Flush marks the producer side finished and wakes the consumer so it
// can drain the remainder and return.
func (b *Buffer) Flush() error {
	b.mu.Lock()
	b.upstreamDone = true
	b.mu.Unlock()
	b.cond.Broadcast()
	return nil
}

// Halt signals abnormal producer termination: the consumer's Pump call
// returns ErrSourceHalted instead of draining further, and any event
// still pending is discarded.
func (b *Buffer) Halt() {
	b.mu.Lock()
	b.halted = true
	b.mu.Unlock()
	b.cond.Broadcast()
}

// Pump drains the buffer to downstream until the producer flushes,
// halts, or downstream returns an error. It is single-use: calling it
// twice on the same Buffer is a programmer error.
func (b *Buffer) Pump() error {
	if b.pumped {
		panic("pump: Pump called more than once on the same Buffer")
	}
	b.pumped = true

	if b.policy.Latency > 0 {
		stop := b.startLatencyWaiter()
		defer stop()
	}

	for {
		b.mu.Lock()
		for len(b.fifo) == 0 && !b.upstreamDone && !b.halted {
			b.cond.Wait()
		}
		if b.halted {
			b.mu.Unlock()
			return wrapf("pump", ErrSourceHalted)
		}
		if len(b.fifo) == 0 && b.upstreamDone {
			b.mu.Unlock()
			return wrapf("pump", b.downstream.Flush())
		}
		// Swap the shared FIFO for an empty emit queue so the producer
		// can keep enqueueing without waiting on downstream.Handle.
		b.emitQueue, b.fifo = b.fifo, b.emitQueue[:0]
		b.mu.Unlock()

		for _, ev := range b.emitQueue {
			if err := b.downstream.Handle(ev); err != nil {
				b.mu.Lock()
				b.downstreamErr = err
				b.mu.Unlock()
				return wrapf("pump", err)
			}
		}
	}
}

// startLatencyWaiter runs a goroutine that periodically wakes the
// consumer if the oldest queued event has been waiting longer than
// Policy.Latency, emulating condition_variable::wait_until without a
// native timed-wait on sync.Cond. It returns a function that stops the
// waiter; callers must call it once Pump returns.
func (b *Buffer) startLatencyWaiter() func() {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(b.policy.Latency / 2)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				b.mu.Lock()
				stale := len(b.fifo) > 0 && time.Since(b.oldestEnqueue) >= b.policy.Latency
				finished := b.upstreamDone || b.halted
				b.mu.Unlock()
				if stale || finished {
					b.cond.Broadcast()
				}
				if finished {
					return
				}
			}
		}
	}()
	return func() {
		select {
		case <-done:
		default:
			close(done)
		}
		slog.Debug("pump latency waiter stopped")
	}
}
