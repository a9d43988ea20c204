package pipeline

import "github.com/crimson-sun/tcspc/internal/events"

// Generator is a cursor over a schedule of absolute timestamps, mirroring
// original_source/include/libtcspc/generate.hpp's timing-generator
// concept. Peek/Pop let Generate drain whatever is due without the
// generator needing to know what "due" means; Trigger starts a fresh
// schedule anchored at triggerTime, discarding anything still pending
// from a previous trigger.
type Generator interface {
	// Peek returns the next scheduled timestamp without consuming it,
	// and whether one is available.
	Peek() (t int64, ok bool)
	// Pop consumes and returns the next scheduled timestamp. Only
	// called when Peek last reported ok.
	Pop() int64
	// Trigger (re)starts the schedule anchored at triggerTime,
	// replacing any schedule left over from a previous trigger.
	Trigger(triggerTime int64)
}

// Generate emits downstream KindTimeReached events drawn from a
// Generator's schedule, interleaved with the upstream events that drive
// it. trigger identifies the events that start a new schedule
// (original_source's TriggerEvent); every other event only drains
// whatever in the current schedule has already come due.
//
// Grounded on generate.hpp's generate<TriggerEvent, Generator,
// Downstream>: on a trigger event, pending schedule entries strictly
// before the trigger's abstime are emitted (anything still pending
// after that is suppressed by the Trigger() call that follows, per the
// header's note that remaining timing events in the current pattern
// are discarded once a new trigger arrives), the generator is
// (re)triggered, and the trigger event is forwarded last. On any other
// event, schedule entries at or before that event's abstime are
// emitted before the event itself is forwarded, with no call to
// Trigger. Flush never drains the schedule, so an unbounded
// generator's trailing events are simply left ungenerated.
type Generate struct {
	downstream Processor
	trigger    Matcher
	gen        Generator
}

// NewGenerate constructs a Generate processor driven by gen, treating
// events matching trigger as the schedule's reset point.
func NewGenerate(downstream Processor, trigger Matcher, gen Generator) *Generate {
	return &Generate{downstream: downstream, trigger: trigger, gen: gen}
}

// emit drains the generator's schedule while cutoff holds for the next
// pending timestamp, forwarding each as a KindTimeReached event.
func (g *Generate) emit(cutoff func(t int64) bool) error {
	for {
		t, ok := g.gen.Peek()
		if !ok || !cutoff(t) {
			return nil
		}
		g.gen.Pop()
		if err := g.downstream.Handle(events.TimeReached(t)); err != nil {
			return wrapf("generate", err)
		}
	}
}

// Handle implements Processor.
func (g *Generate) Handle(ev events.Event) error {
	now := ev.AbsTime
	if g.trigger(ev) {
		if err := g.emit(func(t int64) bool { return t < now }); err != nil {
			return err
		}
		g.gen.Trigger(now)
	} else if err := g.emit(func(t int64) bool { return t <= now }); err != nil {
		return err
	}
	return wrapf("generate", g.downstream.Handle(ev))
}

// Flush implements Processor. It does not drain any remaining schedule,
// matching generate.hpp's flush(), so a generator with an open-ended
// schedule can be used without Flush truncating or hanging on it.
func (g *Generate) Flush() error { return wrapf("generate", g.downstream.Flush()) }

// NullGenerator never schedules anything; Generate with it degrades to
// a transparent passthrough. Useful as a default/disabled case.
type NullGenerator struct{}

// Peek implements Generator.
func (NullGenerator) Peek() (int64, bool) { return 0, false }

// Pop implements Generator.
func (NullGenerator) Pop() int64 { return 0 }

// Trigger implements Generator.
func (NullGenerator) Trigger(int64) {}

// OneShotGenerator schedules exactly one timestamp at a fixed offset
// from the trigger, on every trigger.
type OneShotGenerator struct {
	Offset int64

	pending bool
	next    int64
}

// Peek implements Generator.
func (g *OneShotGenerator) Peek() (int64, bool) {
	if !g.pending {
		return 0, false
	}
	return g.next, true
}

// Pop implements Generator.
func (g *OneShotGenerator) Pop() int64 {
	g.pending = false
	return g.next
}

// Trigger implements Generator.
func (g *OneShotGenerator) Trigger(triggerTime int64) {
	g.next = triggerTime + g.Offset
	g.pending = true
}

// DynamicOneShotGenerator schedules exactly one timestamp computed by a
// caller-supplied function of the trigger time, allowing the offset to
// vary per trigger (e.g. a jittered or data-dependent delay).
type DynamicOneShotGenerator struct {
	OffsetFunc func(triggerTime int64) int64

	pending bool
	next    int64
}

// Peek implements Generator.
func (g *DynamicOneShotGenerator) Peek() (int64, bool) {
	if !g.pending {
		return 0, false
	}
	return g.next, true
}

// Pop implements Generator.
func (g *DynamicOneShotGenerator) Pop() int64 {
	g.pending = false
	return g.next
}

// Trigger implements Generator.
func (g *DynamicOneShotGenerator) Trigger(triggerTime int64) {
	g.next = triggerTime + g.OffsetFunc(triggerTime)
	g.pending = true
}

// LinearGenerator schedules a fixed number of evenly spaced timestamps
// starting at a fixed offset from the trigger.
type LinearGenerator struct {
	Offset   int64
	Interval int64
	Count    int

	next      int64
	remaining int
}

// Peek implements Generator.
func (g *LinearGenerator) Peek() (int64, bool) {
	if g.remaining <= 0 {
		return 0, false
	}
	return g.next, true
}

// Pop implements Generator.
func (g *LinearGenerator) Pop() int64 {
	t := g.next
	g.next += g.Interval
	g.remaining--
	return t
}

// Trigger implements Generator.
func (g *LinearGenerator) Trigger(triggerTime int64) {
	g.next = triggerTime + g.Offset
	g.remaining = g.Count
}

// DynamicLinearGenerator is a LinearGenerator whose offset, interval and
// count are recomputed per trigger by a caller-supplied function,
// letting the schedule depend on the triggering event's timestamp.
type DynamicLinearGenerator struct {
	Params func(triggerTime int64) (offset, interval int64, count int)

	next      int64
	interval  int64
	remaining int
}

// Peek implements Generator.
func (g *DynamicLinearGenerator) Peek() (int64, bool) {
	if g.remaining <= 0 {
		return 0, false
	}
	return g.next, true
}

// Pop implements Generator.
func (g *DynamicLinearGenerator) Pop() int64 {
	t := g.next
	g.next += g.interval
	g.remaining--
	return t
}

// Trigger implements Generator.
func (g *DynamicLinearGenerator) Trigger(triggerTime int64) {
	offset, interval, count := g.Params(triggerTime)
	g.next = triggerTime + offset
	g.interval = interval
	g.remaining = count
}
