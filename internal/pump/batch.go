package pump

import "github.com/crimson-sun/tcspc/internal/events"

// BatchBuffer is the single-threaded counterpart to Buffer: it
// accumulates events up to a fixed batch size and forwards them to
// downstream, one Handle call per event, each time the batch fills or
// Flush is called,
// with no locking and no consumer thread. It exists for graphs that
// want the same "batch up writes" shape as Buffer without paying for a
// goroutine and a condition variable when everything runs on one
// thread (e.g. a cmd/ driver replaying a file start to finish).
type BatchBuffer struct {
	downstream downstream
	batchSize  int
	pending    []events.Event
}

// NewBatchBuffer constructs a BatchBuffer flushing to downstream every
// batchSize events.
func NewBatchBuffer(downstream downstream, batchSize int) *BatchBuffer {
	return &BatchBuffer{downstream: downstream, batchSize: batchSize}
}

// Handle implements the pipeline.Processor contract.
func (b *BatchBuffer) Handle(ev events.Event) error {
	b.pending = append(b.pending, ev)
	if len(b.pending) < b.batchSize {
		return nil
	}
	return b.drain()
}

func (b *BatchBuffer) drain() error {
	for _, ev := range b.pending {
		if err := b.downstream.Handle(ev); err != nil {
			return wrapf("batch_buffer", err)
		}
	}
	b.pending = b.pending[:0]
	return nil
}

// Flush drains any partial batch, then forwards Flush downstream.
func (b *BatchBuffer) Flush() error {
	if err := b.drain(); err != nil {
		return err
	}
	return wrapf("batch_buffer", b.downstream.Flush())
}
