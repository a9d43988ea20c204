package pipeline

import "github.com/crimson-sun/tcspc/internal/events"

// Matcher decides whether an event matches some criterion. It is the
// building block for Match (filter) and MatchReplace (filter + rewrite).
type Matcher func(events.Event) bool

// Always is a Matcher that matches every event.
func Always(events.Event) bool { return true }

// Never is a Matcher that matches no event.
func Never(events.Event) bool { return false }

// ChannelMatcher returns a Matcher that matches channel-carrying events
// on the given channel.
func ChannelMatcher(ch int32) Matcher {
	return func(ev events.Event) bool {
		got, ok := channelOf(ev)
		return ok && got == ch
	}
}

// Match forwards only events satisfying m, mirroring Select but keyed on
// an arbitrary predicate instead of a fixed kind set.
type Match struct {
	downstream Processor
	match      Matcher
}

// NewMatch constructs a Match.
func NewMatch(downstream Processor, m Matcher) *Match {
	return &Match{downstream: downstream, match: m}
}

// Handle implements Processor.
func (m *Match) Handle(ev events.Event) error {
	if !m.match(ev) {
		return nil
	}
	return wrapf("match", m.downstream.Handle(ev))
}

// Flush implements Processor.
func (m *Match) Flush() error { return wrapf("match", m.downstream.Flush()) }

// MatchReplace forwards every event, rewriting those matching m with
// replace before forwarding.
type MatchReplace struct {
	downstream Processor
	match      Matcher
	replace    func(events.Event) events.Event
}

// NewMatchReplace constructs a MatchReplace.
func NewMatchReplace(downstream Processor, m Matcher, replace func(events.Event) events.Event) *MatchReplace {
	return &MatchReplace{downstream: downstream, match: m, replace: replace}
}

// Handle implements Processor.
func (m *MatchReplace) Handle(ev events.Event) error {
	if m.match(ev) {
		ev = m.replace(ev)
	}
	return wrapf("match_replace", m.downstream.Handle(ev))
}

// Flush implements Processor.
func (m *MatchReplace) Flush() error { return wrapf("match_replace", m.downstream.Flush()) }
