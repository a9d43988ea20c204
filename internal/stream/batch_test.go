package stream

import (
	"bytes"
	"testing"

	"github.com/crimson-sun/tcspc/internal/decode"
	"github.com/crimson-sun/tcspc/internal/events"
)

func TestUnbatcher_CarriesPartialRecordAcrossChunks(t *testing.T) {
	rec := &recorder{}
	proc := decode.NewSwabianTag(rec)
	u := UnbatchFromBytes(proc)

	full := makeTag(t, 55, 2)
	// split the 16-byte record across two HandleChunk calls
	if err := u.HandleChunk(full[:10]); err != nil {
		t.Fatalf("HandleChunk() error: %v", err)
	}
	if len(rec.handled) != 0 {
		t.Fatalf("expected no events yet, got %d", len(rec.handled))
	}
	if err := u.HandleChunk(full[10:]); err != nil {
		t.Fatalf("HandleChunk() error: %v", err)
	}
	if len(rec.handled) != 1 {
		t.Fatalf("expected 1 event, got %d", len(rec.handled))
	}
	if rec.handled[0].Kind != events.KindDetection || rec.handled[0].AbsTime != 55 || rec.handled[0].Channel != 2 {
		t.Fatalf("got %+v", rec.handled[0])
	}
	if err := u.Flush(); err != nil {
		t.Fatalf("Flush() error: %v", err)
	}
}

func TestUnbatcher_MultipleRecordsInOneChunk(t *testing.T) {
	rec := &recorder{}
	proc := decode.NewSwabianTag(rec)
	u := UnbatchFromBytes(proc)

	var raw []byte
	raw = append(raw, makeTag(t, 1, 0)...)
	raw = append(raw, makeTag(t, 2, 1)...)
	if err := u.HandleChunk(raw); err != nil {
		t.Fatalf("HandleChunk() error: %v", err)
	}
	if len(rec.handled) != 2 {
		t.Fatalf("expected 2 events, got %d", len(rec.handled))
	}
}

func TestUnbatcher_FlushErrorsOnExcessBytes(t *testing.T) {
	rec := &recorder{}
	proc := decode.NewSwabianTag(rec)
	u := UnbatchFromBytes(proc)
	if err := u.HandleChunk([]byte{1, 2, 3}); err != nil {
		t.Fatalf("HandleChunk() error: %v", err)
	}
	if err := u.Flush(); err == nil {
		t.Fatal("expected an error for leftover bytes at flush")
	}
}

type bufBatchSink struct {
	batches [][]byte
	flushed int
}

func (b *bufBatchSink) HandleBatch(buf []byte) error {
	cp := append([]byte(nil), buf...)
	b.batches = append(b.batches, cp)
	return nil
}

func (b *bufBatchSink) Flush() error {
	b.flushed++
	return nil
}

func TestBatcher_AccumulatesAlignedBatches(t *testing.T) {
	sink := &bufBatchSink{}
	batcher := BatchFromBytes(4, sink)

	if err := batcher.HandleChunk([]byte{1, 2, 3}); err != nil {
		t.Fatalf("HandleChunk() error: %v", err)
	}
	if len(sink.batches) != 0 {
		t.Fatalf("expected no batch yet, got %d", len(sink.batches))
	}
	if err := batcher.HandleChunk([]byte{4, 5, 6, 7, 8, 9}); err != nil {
		t.Fatalf("HandleChunk() error: %v", err)
	}
	if len(sink.batches) != 1 {
		t.Fatalf("expected 1 batch, got %d", len(sink.batches))
	}
	if !bytes.Equal(sink.batches[0], []byte{1, 2, 3, 4, 5, 6, 7, 8}) {
		t.Fatalf("got %v", sink.batches[0])
	}
	if err := batcher.Flush(); err == nil {
		t.Fatal("expected an error: byte 9 is a leftover partial record")
	}
}
