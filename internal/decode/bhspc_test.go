package decode

import (
	"encoding/binary"
	"testing"

	"github.com/crimson-sun/tcspc/internal/events"
)

type bhRecorder struct {
	handled []events.Event
	flushed int
}

func (r *bhRecorder) Handle(ev events.Event) error {
	r.handled = append(r.handled, ev)
	return nil
}
func (r *bhRecorder) Flush() error { r.flushed++; return nil }

func makeBHSPC(macrotime uint16, routing uint8, adc uint16, invalid, mtov, gap, mark bool) []byte {
	b := make([]byte, 4)
	b[0] = byte(macrotime)
	b[1] = routing<<4 | byte(macrotime>>8)&0x0f
	b[2] = byte(adc)
	var flags byte
	if mark {
		flags |= 0x10
	}
	if gap {
		flags |= 0x20
	}
	if mtov {
		flags |= 0x40
	}
	if invalid {
		flags |= 0x80
	}
	b[3] = flags | byte(adc>>8)&0x0f
	return b
}

func makeBHSPCMultiOverflow(count uint32, gap bool) []byte {
	word := count & 0x0fffffff
	word |= 1 << 30 // MTOV
	word |= 1 << 31 // INVALID
	if gap {
		word |= 1 << 29
	}
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, word)
	return b
}

func TestBHSPC_PhotonRecord(t *testing.T) {
	rec := &bhRecorder{}
	d := NewBHSPC(rec)
	raw := makeBHSPC(1000, 5, 2000, false, false, false, false)
	if err := d.HandleRecord(raw); err != nil {
		t.Fatalf("HandleRecord() error: %v", err)
	}
	if len(rec.handled) != 1 {
		t.Fatalf("expected 1 event, got %d", len(rec.handled))
	}
	got := rec.handled[0]
	want := events.TimeCorrelatedDetection(1000, 5, 2000)
	if !got.Equal(want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestBHSPC_InvalidPhotonEmitsTimeReached(t *testing.T) {
	rec := &bhRecorder{}
	d := NewBHSPC(rec)
	raw := makeBHSPC(42, 0, 0, true, false, false, false)
	if err := d.HandleRecord(raw); err != nil {
		t.Fatalf("HandleRecord() error: %v", err)
	}
	if len(rec.handled) != 1 || rec.handled[0].Kind != events.KindTimeReached {
		t.Fatalf("expected single time_reached event, got %+v", rec.handled)
	}
	if rec.handled[0].AbsTime != 42 {
		t.Fatalf("expected abstime 42, got %d", rec.handled[0].AbsTime)
	}
}

func TestBHSPC_MarkerRecord(t *testing.T) {
	rec := &bhRecorder{}
	d := NewBHSPC(rec)
	// routing (marker bits) = 0b0110 -> markers on channels 1 and 2.
	raw := makeBHSPC(7, 0b0110, 0, true, false, false, true)
	if err := d.HandleRecord(raw); err != nil {
		t.Fatalf("HandleRecord() error: %v", err)
	}
	if len(rec.handled) != 2 {
		t.Fatalf("expected 2 marker events, got %d", len(rec.handled))
	}
	for i, wantCh := range []int32{1, 2} {
		ev := rec.handled[i]
		if ev.Kind != events.KindMarker || ev.Channel != wantCh || ev.AbsTime != 7 {
			t.Fatalf("marker %d: got %+v, want channel %d at time 7", i, ev, wantCh)
		}
	}
}

func TestBHSPC_MarkerWithoutInvalidWarns(t *testing.T) {
	rec := &bhRecorder{}
	d := NewBHSPC(rec)
	raw := makeBHSPC(1, 0, 0, false, false, false, true)
	if err := d.HandleRecord(raw); err != nil {
		t.Fatalf("HandleRecord() error: %v", err)
	}
	if len(rec.handled) != 1 || rec.handled[0].Kind != events.KindWarning {
		t.Fatalf("expected a warning event, got %+v", rec.handled)
	}
}

func TestBHSPC_SingleMacrotimeOverflow(t *testing.T) {
	rec := &bhRecorder{}
	d := NewBHSPC(rec)
	raw := makeBHSPC(10, 0, 0, false, true, false, false)
	if err := d.HandleRecord(raw); err != nil {
		t.Fatalf("HandleRecord() error: %v", err)
	}
	got := rec.handled[0]
	want := events.TimeCorrelatedDetection((1<<12)+10, 0, 0)
	if !got.Equal(want) {
		t.Fatalf("got %+v, want abstime shifted by one overflow period: %+v", got, want)
	}
}

func TestBHSPC_MultipleMacrotimeOverflowAccumulates(t *testing.T) {
	rec := &bhRecorder{}
	d := NewBHSPC(rec)

	if err := d.HandleRecord(makeBHSPCMultiOverflow(3, false)); err != nil {
		t.Fatalf("HandleRecord() error: %v", err)
	}
	if len(rec.handled) != 1 || rec.handled[0].Kind != events.KindTimeReached {
		t.Fatalf("expected a single time_reached after multi overflow, got %+v", rec.handled)
	}
	wantBase := int64(3) << 12
	if rec.handled[0].AbsTime != wantBase {
		t.Fatalf("expected abstime %d, got %d", wantBase, rec.handled[0].AbsTime)
	}

	// A following photon record is offset by the accumulated base.
	if err := d.HandleRecord(makeBHSPC(5, 0, 0, false, false, false, false)); err != nil {
		t.Fatalf("HandleRecord() error: %v", err)
	}
	got := rec.handled[1]
	want := events.TimeCorrelatedDetection(wantBase+5, 0, 0)
	if !got.Equal(want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestBHSPC_MultipleMacrotimeOverflowWithGapEmitsDataLost(t *testing.T) {
	rec := &bhRecorder{}
	d := NewBHSPC(rec)
	if err := d.HandleRecord(makeBHSPCMultiOverflow(1, true)); err != nil {
		t.Fatalf("HandleRecord() error: %v", err)
	}
	if len(rec.handled) != 2 {
		t.Fatalf("expected data_lost followed by time_reached, got %+v", rec.handled)
	}
	if rec.handled[0].Kind != events.KindDataLost || rec.handled[1].Kind != events.KindTimeReached {
		t.Fatalf("unexpected event kinds: %+v", rec.handled)
	}
}

func TestBHSPC_GapFlagOnPhotonEmitsDataLostFirst(t *testing.T) {
	rec := &bhRecorder{}
	d := NewBHSPC(rec)
	raw := makeBHSPC(9, 0, 0, false, false, true, false)
	if err := d.HandleRecord(raw); err != nil {
		t.Fatalf("HandleRecord() error: %v", err)
	}
	if len(rec.handled) != 2 || rec.handled[0].Kind != events.KindDataLost || rec.handled[1].Kind != events.KindTimeCorrelatedDetection {
		t.Fatalf("expected data_lost then photon, got %+v", rec.handled)
	}
}

func TestBHSPC_WrongRecordSizeErrors(t *testing.T) {
	d := NewBHSPC(&bhRecorder{})
	if err := d.HandleRecord([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected an error for a short record")
	}
}

func TestBHSPCFastIntensity_Marker0EmitsBulkCounts(t *testing.T) {
	rec := &bhRecorder{}
	d := NewBHSPCFastIntensity(rec)
	// marker bit 0 set (routing=0b0001), adc carries the aggregate count.
	raw := makeBHSPC(3, 0b0001, 777, true, false, false, true)
	if err := d.HandleRecord(raw); err != nil {
		t.Fatalf("HandleRecord() error: %v", err)
	}
	if len(rec.handled) != 2 {
		t.Fatalf("expected a bulk_counts event plus the channel-0 marker, got %+v", rec.handled)
	}
	bulk := rec.handled[0]
	if bulk.Kind != events.KindBulkCounts || bulk.Channel != events.NoChannel || bulk.Count != 777 {
		t.Fatalf("unexpected bulk counts event: %+v", bulk)
	}
	marker := rec.handled[1]
	if marker.Kind != events.KindMarker || marker.Channel != 0 {
		t.Fatalf("unexpected marker event: %+v", marker)
	}
}

func makeBHSPC600_4096(macrotime uint32, routing uint8, adc uint16, invalid, mtov, gap bool) []byte {
	b := make([]byte, 6)
	b[0] = byte(adc)
	var flags byte
	if gap {
		flags |= 0x40
	}
	if mtov {
		flags |= 0x20
	}
	if invalid {
		flags |= 0x10
	}
	b[1] = flags | byte(adc>>8)&0x0f
	b[2] = byte(macrotime >> 16)
	b[3] = routing
	b[4] = byte(macrotime)
	b[5] = byte(macrotime >> 8)
	return b
}

func TestBHSPC600_4096_PhotonRecord(t *testing.T) {
	rec := &bhRecorder{}
	d := NewBHSPC600_4096(rec)
	raw := makeBHSPC600_4096(0x00abcd, 12, 300, false, false, false)
	if err := d.HandleRecord(raw); err != nil {
		t.Fatalf("HandleRecord() error: %v", err)
	}
	got := rec.handled[0]
	want := events.TimeCorrelatedDetection(0x00abcd, 12, 300)
	if !got.Equal(want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestBHSPC600_4096_OverflowShiftsByPeriod(t *testing.T) {
	rec := &bhRecorder{}
	d := NewBHSPC600_4096(rec)
	raw := makeBHSPC600_4096(1, 0, 0, false, true, false)
	if err := d.HandleRecord(raw); err != nil {
		t.Fatalf("HandleRecord() error: %v", err)
	}
	want := int64(1<<24) + 1
	if rec.handled[0].AbsTime != want {
		t.Fatalf("expected abstime %d, got %d", want, rec.handled[0].AbsTime)
	}
}

func makeBHSPC600_256(macrotime uint32, routing uint8, adc uint8, invalid, mtov, gap bool) []byte {
	b := make([]byte, 4)
	b[0] = adc
	b[1] = byte(macrotime)
	b[2] = byte(macrotime >> 8)
	flags := (routing & 0x07) << 1
	flags |= byte(macrotime>>16) & 0x01
	if gap {
		flags |= 0x20
	}
	if mtov {
		flags |= 0x40
	}
	if invalid {
		flags |= 0x80
	}
	b[3] = flags
	return b
}

func TestBHSPC600_256_PhotonRecord(t *testing.T) {
	rec := &bhRecorder{}
	d := NewBHSPC600_256(rec)
	raw := makeBHSPC600_256(0x10001, 5, 200, false, false, false)
	if err := d.HandleRecord(raw); err != nil {
		t.Fatalf("HandleRecord() error: %v", err)
	}
	got := rec.handled[0]
	want := events.TimeCorrelatedDetection(0x10001, 5, 200)
	if !got.Equal(want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestBHSPC600_256_MultipleOverflowEmitsTimeReached(t *testing.T) {
	rec := &bhRecorder{}
	d := NewBHSPC600_256(rec)
	// invalid+mtov set, no marker field exists on this variant so this
	// always takes the multi-overflow branch.
	raw := makeBHSPC600_256(0, 0, 0, true, true, false)
	if err := d.HandleRecord(raw); err != nil {
		t.Fatalf("HandleRecord() error: %v", err)
	}
	if len(rec.handled) != 1 || rec.handled[0].Kind != events.KindTimeReached {
		t.Fatalf("expected a time_reached for the overflow record, got %+v", rec.handled)
	}
}

func TestBHSPC_Flush(t *testing.T) {
	rec := &bhRecorder{}
	d := NewBHSPC(rec)
	if err := d.Flush(); err != nil {
		t.Fatalf("Flush() error: %v", err)
	}
	if rec.flushed != 1 {
		t.Fatalf("expected downstream Flush called once, got %d", rec.flushed)
	}
}

func TestBHSPC_RecordSize(t *testing.T) {
	if NewBHSPC(&bhRecorder{}).RecordSize() != 4 {
		t.Fatal("expected BH SPC record size 4")
	}
	if NewBHSPC600_4096(&bhRecorder{}).RecordSize() != 6 {
		t.Fatal("expected BH SPC-600 4096ch record size 6")
	}
	if NewBHSPC600_256(&bhRecorder{}).RecordSize() != 4 {
		t.Fatal("expected BH SPC-600 256ch record size 4")
	}
}
