package pipeline

import (
	"testing"

	"github.com/crimson-sun/tcspc/internal/events"
)

func TestGate_OpensAndCloses(t *testing.T) {
	rec := &recorder{}
	g := ChannelGate(rec, 1, 2)

	evs := []events.Event{
		events.Detection(1, 0), // before open, dropped
		events.Detection(2, 1), // opens, forwarded
		events.Detection(3, 0), // open, forwarded
		events.Detection(4, 2), // closes, forwarded
		events.Detection(5, 0), // after close, dropped
	}
	for _, ev := range evs {
		if err := g.Handle(ev); err != nil {
			t.Fatalf("Handle() error: %v", err)
		}
	}
	if len(rec.handled) != 3 {
		t.Fatalf("expected 3 forwarded events, got %d", len(rec.handled))
	}
}

func TestRoute_DispatchesByIndex(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	r := NewRoute(func(ev events.Event) int {
		if ev.Channel == 0 {
			return 0
		}
		return 1
	}, a, b)

	_ = r.Handle(events.Detection(1, 0))
	_ = r.Handle(events.Detection(2, 1))

	if len(a.handled) != 1 || len(b.handled) != 1 {
		t.Fatalf("expected 1 event routed to each downstream, got a=%d b=%d", len(a.handled), len(b.handled))
	}
}

func TestChannelRouter_FallsBackForUnknownChannel(t *testing.T) {
	ch0, fallback := &recorder{}, &recorder{}
	r := NewChannelRouter(map[int32]Processor{0: ch0}, fallback)

	_ = r.Handle(events.Detection(1, 0))
	_ = r.Handle(events.Detection(2, 9))
	_ = r.Handle(events.Warning("no channel"))

	if len(ch0.handled) != 1 {
		t.Fatalf("expected 1 event on channel 0, got %d", len(ch0.handled))
	}
	if len(fallback.handled) != 2 {
		t.Fatalf("expected 2 events on fallback, got %d", len(fallback.handled))
	}
}

func TestMatch_FiltersByPredicate(t *testing.T) {
	rec := &recorder{}
	m := NewMatch(rec, ChannelMatcher(5))
	_ = m.Handle(events.Detection(1, 5))
	_ = m.Handle(events.Detection(2, 6))
	if len(rec.handled) != 1 {
		t.Fatalf("expected 1 matched event, got %d", len(rec.handled))
	}
}

func TestMatchReplace_RewritesMatchedEvents(t *testing.T) {
	rec := &recorder{}
	mr := NewMatchReplace(rec, ChannelMatcher(5), func(ev events.Event) events.Event {
		ev.Channel = 100
		return ev
	})
	_ = mr.Handle(events.Detection(1, 5))
	_ = mr.Handle(events.Detection(2, 6))
	if rec.handled[0].Channel != 100 {
		t.Fatalf("expected replaced channel 100, got %d", rec.handled[0].Channel)
	}
	if rec.handled[1].Channel != 6 {
		t.Fatalf("expected unmatched event unchanged, got %d", rec.handled[1].Channel)
	}
}

func TestCheckMonotonic_WarnsOnDecrease(t *testing.T) {
	rec := &recorder{}
	c := NewCheckMonotonic(rec)
	_ = c.Handle(events.Detection(10, 0))
	_ = c.Handle(events.Detection(5, 0))

	if len(rec.handled) != 3 { // detection, warning, detection
		t.Fatalf("expected 3 handled events (incl. warning), got %d", len(rec.handled))
	}
	if rec.handled[1].Kind != events.KindWarning {
		t.Fatalf("expected warning at index 1, got %v", rec.handled[1].Kind)
	}
}

func TestCheckAlternating_WarnsOnRepeat(t *testing.T) {
	rec := &recorder{}
	c := NewCheckAlternating(rec, 0, 1)
	_ = c.Handle(events.Detection(1, 0))
	_ = c.Handle(events.Detection(2, 0)) // repeat, should warn

	var warnings int
	for _, ev := range rec.handled {
		if ev.Kind == events.KindWarning {
			warnings++
		}
	}
	if warnings != 1 {
		t.Fatalf("expected 1 warning, got %d", warnings)
	}
}

func TestDelay_ShiftsAbsTime(t *testing.T) {
	rec := &recorder{}
	d := NewDelay(rec, 100)
	_ = d.Handle(events.Detection(1, 0))
	if rec.handled[0].AbsTime != 101 {
		t.Fatalf("expected shifted AbsTime 101, got %d", rec.handled[0].AbsTime)
	}
}

func TestCount_Tallies(t *testing.T) {
	rec := &recorder{}
	c := NewCount(rec, ChannelMatcher(1))
	_ = c.Handle(events.Detection(1, 1))
	_ = c.Handle(events.Detection(2, 2))
	_ = c.Handle(events.Detection(3, 1))
	if c.Total() != 2 {
		t.Fatalf("expected total 2, got %d", c.Total())
	}
	if len(rec.handled) != 3 {
		t.Fatalf("expected all 3 forwarded, got %d", len(rec.handled))
	}
}

func TestCountUpTo_FiresBeforeTickAtThresholdAndWraps(t *testing.T) {
	rec := &recorder{}
	c, err := NewCountUpTo(rec, Always, Never, events.KindMarker, false, 2, 5, 0)
	if err != nil {
		t.Fatalf("NewCountUpTo() error: %v", err)
	}
	for i := int64(0); i < 5; i++ {
		if err := c.Handle(events.Detection(i, 0)); err != nil {
			t.Fatalf("Handle() error: %v", err)
		}
	}

	// Ticks 0,1,2,3,4 pass through unchanged; a fire event (Kind Marker)
	// is inserted just before the tick that brings the count to
	// threshold (2), i.e. before tick@2 (the third tick, count goes
	// 0->1->2 then the pre-tick check on the third Handle call sees
	// count==2 before incrementing again).
	if len(rec.handled) != 6 {
		t.Fatalf("expected 6 events (5 ticks + 1 fire), got %d", len(rec.handled))
	}
	fire := rec.handled[2]
	if fire.Kind != events.KindMarker || fire.AbsTime != 2 {
		t.Fatalf("expected fire{Marker, AbsTime 2} before the third tick, got %+v", fire)
	}
	if rec.handled[3].Kind != events.KindDetection || rec.handled[3].AbsTime != 2 {
		t.Fatalf("expected tick@2 to still follow immediately after its fire, got %+v", rec.handled[3])
	}

	// After 5 ticks the count reached limit (5) and wrapped to initial
	// (0); a 6th tick should fire again only once the count returns to
	// threshold, not immediately.
	rec.handled = nil
	if err := c.Handle(events.Detection(10, 0)); err != nil {
		t.Fatalf("Handle() error: %v", err)
	}
	if len(rec.handled) != 1 || rec.handled[0].Kind != events.KindDetection {
		t.Fatalf("expected only the tick forwarded right after wraparound, got %v", rec.handled)
	}
}

func TestCountUpTo_ResetEventRestoresInitialWithoutFiring(t *testing.T) {
	rec := &recorder{}
	isTick := func(ev events.Event) bool { return ev.Kind == events.KindDetection }
	isReset := func(ev events.Event) bool { return ev.Kind == events.KindMarker }
	c, err := NewCountUpTo(rec, isTick, isReset, events.KindWarning, false, 1, 5, 0)
	if err != nil {
		t.Fatalf("NewCountUpTo() error: %v", err)
	}

	if err := c.Handle(events.Detection(0, 0)); err != nil { // count 0 -> 1
		t.Fatalf("Handle() error: %v", err)
	}
	if err := c.Handle(events.Marker(5, 0)); err != nil { // reset: count -> 0
		t.Fatalf("Handle() error: %v", err)
	}
	if err := c.Handle(events.Detection(6, 0)); err != nil { // count 0 -> 1, no fire yet
		t.Fatalf("Handle() error: %v", err)
	}

	for _, ev := range rec.handled {
		if ev.Kind == events.KindWarning {
			t.Fatalf("reset must not emit a fire event, got %+v", rec.handled)
		}
	}
	if len(rec.handled) != 3 {
		t.Fatalf("expected all 3 events forwarded unchanged, got %d", len(rec.handled))
	}
}

func TestCountUpTo_RejectsLimitNotGreaterThanInitial(t *testing.T) {
	if _, err := NewCountUpTo(&recorder{}, Always, Never, events.KindMarker, false, 1, 1, 1); err == nil {
		t.Fatal("expected an error when limit is not greater than initial")
	}
}

func TestCountDownTo_MirrorsThresholdAndMatchesCountUpEngine(t *testing.T) {
	rec := &recorder{}
	// threshold=3, limit=0, initial=5 mirrors to threshold=2, limit=5,
	// initial=0 after the initial/limit swap: the same trace as
	// TestCountUpTo_FiresBeforeTickAtThresholdAndWraps.
	c, err := NewCountDownTo(rec, Always, Never, events.KindMarker, false, 3, 0, 5)
	if err != nil {
		t.Fatalf("NewCountDownTo() error: %v", err)
	}
	for i := int64(0); i < 5; i++ {
		if err := c.Handle(events.Detection(i, 0)); err != nil {
			t.Fatalf("Handle() error: %v", err)
		}
	}
	if len(rec.handled) != 6 {
		t.Fatalf("expected 6 events (5 ticks + 1 fire), got %d", len(rec.handled))
	}
	fire := rec.handled[2]
	if fire.Kind != events.KindMarker || fire.AbsTime != 2 {
		t.Fatalf("expected fire{Marker, AbsTime 2} mirroring the count-up trace, got %+v", fire)
	}
}

func TestCountDownTo_RejectsLimitNotLessThanInitial(t *testing.T) {
	if _, err := NewCountDownTo(&recorder{}, Always, Never, events.KindMarker, false, 1, 1, 1); err == nil {
		t.Fatal("expected an error when limit is not less than initial")
	}
}

func TestGenerate_OneShot_FiresOnLaterEventNotOnTrigger(t *testing.T) {
	rec := &recorder{}
	isTrigger := func(ev events.Event) bool { return ev.Kind == events.KindDetection }
	g := NewGenerate(rec, isTrigger, &OneShotGenerator{Offset: 50})

	// Triggering the schedule only starts it; nothing is due yet, so
	// only the trigger itself is forwarded.
	if err := g.Handle(events.Detection(100, 0)); err != nil {
		t.Fatalf("Handle() error: %v", err)
	}
	if len(rec.handled) != 1 || rec.handled[0].Kind != events.KindDetection {
		t.Fatalf("expected only the trigger forwarded, got %+v", rec.handled)
	}

	// A later non-trigger event at or after the scheduled time drains
	// it before forwarding itself.
	rec.handled = nil
	if err := g.Handle(events.Marker(150, 0)); err != nil {
		t.Fatalf("Handle() error: %v", err)
	}
	if len(rec.handled) != 2 {
		t.Fatalf("expected generated + the marker, got %d: %+v", len(rec.handled), rec.handled)
	}
	if rec.handled[0].Kind != events.KindTimeReached || rec.handled[0].AbsTime != 150 {
		t.Fatalf("expected generated time_reached at 150, got %+v", rec.handled[0])
	}
	if rec.handled[1].Kind != events.KindMarker {
		t.Fatalf("expected the marker forwarded last, got %v", rec.handled[1].Kind)
	}
}

func TestGenerate_OneShot_RetriggerSuppressesStaleSchedule(t *testing.T) {
	rec := &recorder{}
	isTrigger := func(ev events.Event) bool { return ev.Kind == events.KindDetection }
	g := NewGenerate(rec, isTrigger, &OneShotGenerator{Offset: 50})

	_ = g.Handle(events.Detection(100, 0)) // schedules 150

	// A new trigger arrives before the old schedule (150) is due. The
	// emit(<now) pass finds nothing to drain (150 is not < 120), and
	// Trigger(120) discards the stale entry and schedules 170 instead.
	rec.handled = nil
	if err := g.Handle(events.Detection(120, 0)); err != nil {
		t.Fatalf("Handle() error: %v", err)
	}
	if len(rec.handled) != 1 || rec.handled[0].Kind != events.KindDetection {
		t.Fatalf("expected only the retrigger forwarded, stale schedule must be suppressed, got %+v", rec.handled)
	}

	rec.handled = nil
	if err := g.Handle(events.Marker(170, 0)); err != nil {
		t.Fatalf("Handle() error: %v", err)
	}
	if len(rec.handled) != 2 || rec.handled[0].AbsTime != 170 {
		t.Fatalf("expected the retriggered schedule (170), not the stale one (150), got %+v", rec.handled)
	}
}

func TestGenerate_Linear_DrainsUpToCutoffAcrossEvents(t *testing.T) {
	rec := &recorder{}
	isTrigger := func(ev events.Event) bool { return ev.Kind == events.KindDetection }
	g := NewGenerate(rec, isTrigger, &LinearGenerator{Offset: 10, Interval: 5, Count: 3})

	if err := g.Handle(events.Detection(0, 0)); err != nil { // schedules 10, 15, 20
		t.Fatalf("Handle() error: %v", err)
	}
	if len(rec.handled) != 1 {
		t.Fatalf("expected only the trigger forwarded, got %+v", rec.handled)
	}

	rec.handled = nil
	if err := g.Handle(events.Marker(16, 0)); err != nil { // drains 10, 15 (16 > both, < 20)
		t.Fatalf("Handle() error: %v", err)
	}
	want := []int64{10, 15, 16}
	if len(rec.handled) != len(want) {
		t.Fatalf("expected %d events, got %d: %+v", len(want), len(rec.handled), rec.handled)
	}
	for i, w := range want {
		if rec.handled[i].AbsTime != w {
			t.Errorf("handled[%d].AbsTime = %d, want %d", i, rec.handled[i].AbsTime, w)
		}
	}

	rec.handled = nil
	if err := g.Handle(events.Marker(20, 0)); err != nil { // <= cutoff includes exactly 20
		t.Fatalf("Handle() error: %v", err)
	}
	if len(rec.handled) != 2 || rec.handled[0].AbsTime != 20 {
		t.Fatalf("expected the last scheduled entry (20) drained at its own abstime, got %+v", rec.handled)
	}
}

func TestRecoverOrder_SortsWithinTolerance(t *testing.T) {
	rec := &recorder{}
	r := NewRecoverOrder(rec, 10, false)

	in := []int64{0, 5, 2, 8, 20, 12}
	for _, t64 := range in {
		_ = r.Handle(events.Detection(t64, 0))
	}
	_ = r.Flush()

	var got []int64
	for _, ev := range rec.handled {
		if ev.Kind == events.KindDetection {
			got = append(got, ev.AbsTime)
		}
	}
	for i := 1; i < len(got); i++ {
		if got[i] < got[i-1] {
			t.Fatalf("output not sorted: %v", got)
		}
	}
	if len(got) != len(in) {
		t.Fatalf("expected all %d events eventually forwarded, got %d", len(in), len(got))
	}
}

func TestRegulateTimeReached_ThinsAndFlushesLast(t *testing.T) {
	rec := &recorder{}
	r := NewRegulateTimeReached(rec, 100)

	_ = r.Handle(events.TimeReached(0))
	_ = r.Handle(events.TimeReached(50))  // suppressed, too soon
	_ = r.Handle(events.TimeReached(150)) // forwarded
	_ = r.Handle(events.TimeReached(160)) // suppressed, withheld until flush
	_ = r.Flush()

	if len(rec.handled) != 3 {
		t.Fatalf("expected 3 forwarded time_reached events (0, 150, 160 via flush), got %d", len(rec.handled))
	}
	if rec.handled[2].AbsTime != 160 {
		t.Fatalf("expected last withheld event (160) flushed, got %d", rec.handled[2].AbsTime)
	}
}
