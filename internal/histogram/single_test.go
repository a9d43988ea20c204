package histogram

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/crimson-sun/tcspc/internal/events"
)

func TestHistogram_AccumulatesAndSnapshots(t *testing.T) {
	rec := &procRecorder{}
	h := NewHistogram(4, 0, SaturateOnOverflow, events.KindMarker, false, rec)

	for _, bin := range []int64{0, 1, 1, 3} {
		if err := h.Handle(events.BinIncrement(0, bin)); err != nil {
			t.Fatalf("Handle() error: %v", err)
		}
	}
	if len(rec.handled) != 4 {
		t.Fatalf("expected 4 snapshots, got %d", len(rec.handled))
	}
	last := rec.handled[3]
	if last.Kind != events.KindHistogram {
		t.Fatalf("got kind %v", last.Kind)
	}
	want := []uint64{1, 2, 0, 1}
	if diff := cmp.Diff(want, last.View.Data()); diff != "" {
		t.Fatalf("bin counts mismatch (-want +got):\n%s", diff)
	}

	if err := h.Flush(); err != nil {
		t.Fatalf("Flush() error: %v", err)
	}
	if rec.handled[len(rec.handled)-1].Kind != events.KindConcludingHistogram {
		t.Fatal("expected a concluding histogram snapshot at flush")
	}
}

func TestHistogram_ExplicitReset(t *testing.T) {
	rec := &procRecorder{}
	h := NewHistogram(2, 0, SaturateOnOverflow, events.KindMarker, true, rec)

	if err := h.Handle(events.BinIncrement(0, 0)); err != nil {
		t.Fatalf("Handle() error: %v", err)
	}
	if err := h.Handle(events.Marker(1, 0)); err != nil {
		t.Fatalf("Handle() error: %v", err)
	}
	if err := h.Handle(events.BinIncrement(2, 1)); err != nil {
		t.Fatalf("Handle() error: %v", err)
	}

	if rec.handled[1].Kind != events.KindConcludingHistogram {
		t.Fatalf("expected concluding snapshot on reset, got %v", rec.handled[1].Kind)
	}
	last := rec.handled[len(rec.handled)-1]
	if last.View.At(0) != 0 || last.View.At(1) != 1 {
		t.Fatalf("expected histogram to have been cleared by reset, got %v", last.View.Data())
	}
}

func TestHistogram_SaturateOnOverflow(t *testing.T) {
	rec := &procRecorder{}
	h := NewHistogram(1, 1, SaturateOnOverflow, events.KindMarker, false, rec)

	if err := h.Handle(events.BinIncrement(0, 0)); err != nil {
		t.Fatalf("Handle() error: %v", err)
	}
	if err := h.Handle(events.BinIncrement(1, 0)); err != nil {
		t.Fatalf("Handle() error: %v", err)
	}
	if rec.handled[1].View.At(0) != 1 {
		t.Fatalf("expected bin to saturate at 1, got %d", rec.handled[1].View.At(0))
	}
}

func TestHistogram_ErrorOnOverflow(t *testing.T) {
	rec := &procRecorder{}
	h := NewHistogram(1, 1, ErrorOnOverflow, events.KindMarker, false, rec)

	if err := h.Handle(events.BinIncrement(0, 0)); err != nil {
		t.Fatalf("Handle() error: %v", err)
	}
	if err := h.Handle(events.BinIncrement(1, 0)); err != ErrOverflow {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}
}

func TestHistogram_StopOnOverflow(t *testing.T) {
	rec := &procRecorder{}
	h := NewHistogram(1, 1, StopOnOverflow, events.KindMarker, false, rec)

	if err := h.Handle(events.BinIncrement(0, 0)); err != nil {
		t.Fatalf("Handle() error: %v", err)
	}
	if err := h.Handle(events.BinIncrement(1, 0)); err != nil {
		t.Fatalf("Handle() error: %v", err)
	}
	if rec.flushes != 1 {
		t.Fatalf("expected downstream flush on stop, got %d flushes", rec.flushes)
	}
	// further events are ignored once stopped
	if err := h.Handle(events.BinIncrement(2, 0)); err != nil {
		t.Fatalf("Handle() error: %v", err)
	}
	if len(rec.handled) != 2 { // increment, concluding, nothing after
		t.Fatalf("expected no further events after stop, got %d", len(rec.handled))
	}
}

func TestHistogram_ResetOnOverflow(t *testing.T) {
	rec := &procRecorder{}
	h := NewHistogram(1, 1, ResetOnOverflow, events.KindMarker, false, rec)

	if err := h.Handle(events.BinIncrement(0, 0)); err != nil {
		t.Fatalf("Handle() error: %v", err)
	}
	if err := h.Handle(events.BinIncrement(1, 0)); err != nil {
		t.Fatalf("Handle() error: %v", err)
	}
	// after overflow: concluding snapshot, then reset, then the
	// overflowing increment re-applied into a fresh histogram
	var kinds []events.Kind
	for _, e := range rec.handled {
		kinds = append(kinds, e.Kind)
	}
	if len(kinds) < 3 || kinds[0] != events.KindHistogram || kinds[1] != events.KindConcludingHistogram || kinds[2] != events.KindHistogram {
		t.Fatalf("got kinds %v", kinds)
	}
	if rec.handled[2].View.At(0) != 1 {
		t.Fatalf("expected re-applied increment in fresh histogram, got %d", rec.handled[2].View.At(0))
	}
}
