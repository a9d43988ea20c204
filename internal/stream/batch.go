package stream

import (
	"fmt"

	"github.com/crimson-sun/tcspc/internal/decode"
)

// BatchSink accepts a run of whole records concatenated into one buffer,
// for callers that want bulk handling (e.g. writing to a socket, handing
// off to a bucket pool) rather than one decode.RecordProcessor call per
// record.
type BatchSink interface {
	HandleBatch(buf []byte) error
	Flush() error
}

// Unbatcher re-chunks arbitrary incoming byte spans into fixed-size
// records, forwarding each complete record to downstream and carrying any
// partial record across calls.
//
// Grounded on original_source/include/libtcspc/batch_unbatch_from_bytes.hpp's
// unbatch_from_bytes, translated from its shared_ptr<bucket_source<Event>>
// allocation scheme to a plain carry buffer: Go's garbage collector makes
// the bucket-recycling allocator that file uses for alignment unnecessary
// here, since decode.RecordProcessor already accepts unaligned []byte.
type Unbatcher struct {
	recordSize int
	downstream decode.RecordProcessor
	carry      []byte
}

// UnbatchFromBytes returns an Unbatcher that forwards recordSize-aligned
// records to downstream, sized from downstream.RecordSize().
func UnbatchFromBytes(downstream decode.RecordProcessor) *Unbatcher {
	return &Unbatcher{recordSize: downstream.RecordSize(), downstream: downstream}
}

// HandleChunk accepts an arbitrarily sized span of input bytes, which need
// not be aligned to the record size or carry a whole number of records.
func (u *Unbatcher) HandleChunk(chunk []byte) error {
	data := chunk
	if len(u.carry) > 0 {
		data = append(append([]byte(nil), u.carry...), chunk...)
		u.carry = nil
	}
	whole := (len(data) / u.recordSize) * u.recordSize
	for off := 0; off < whole; off += u.recordSize {
		if err := u.downstream.HandleRecord(data[off : off+u.recordSize]); err != nil {
			return fmt.Errorf("unbatch_from_bytes: %w", err)
		}
	}
	if remainder := data[whole:]; len(remainder) > 0 {
		u.carry = append([]byte(nil), remainder...)
	}
	return nil
}

// Flush errors if a partial record remains buffered, matching
// unbatch_from_bytes's "excess bytes at end of stream" failure, then
// flushes downstream.
func (u *Unbatcher) Flush() error {
	if len(u.carry) > 0 {
		return fmt.Errorf("unbatch_from_bytes: excess bytes at end of stream: %d", len(u.carry))
	}
	return u.downstream.Flush()
}

// Batcher groups incoming byte chunks into larger record-aligned batches
// before forwarding them to a BatchSink, the inverse direction of
// Unbatcher. Grounded on the same batch_unbatch_from_bytes.hpp file's
// batch_from_bytes.
type Batcher struct {
	recordSize int
	downstream BatchSink
	carry      []byte
}

// BatchFromBytes returns a Batcher that accumulates recordSize-aligned
// batches and forwards them to downstream.
func BatchFromBytes(recordSize int, downstream BatchSink) *Batcher {
	return &Batcher{recordSize: recordSize, downstream: downstream}
}

func (b *Batcher) HandleChunk(chunk []byte) error {
	data := chunk
	if len(b.carry) > 0 {
		data = append(append([]byte(nil), b.carry...), chunk...)
		b.carry = nil
	}
	whole := (len(data) / b.recordSize) * b.recordSize
	if whole > 0 {
		if err := b.downstream.HandleBatch(data[:whole]); err != nil {
			return fmt.Errorf("batch_from_bytes: %w", err)
		}
	}
	if remainder := data[whole:]; len(remainder) > 0 {
		b.carry = append([]byte(nil), remainder...)
	}
	return nil
}

func (b *Batcher) Flush() error {
	if len(b.carry) > 0 {
		return fmt.Errorf("batch_from_bytes: excess bytes at end of stream: %d", len(b.carry))
	}
	return b.downstream.Flush()
}
