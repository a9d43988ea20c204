// Package events defines the tagged-union event type shared across every
// processor in the pipeline, and the copy-on-copy view used for batch and
// cluster payloads.
//
// libtcspc's C++ core parametrizes each event as its own generic struct
// (detection_event<DataTypes>, time_correlated_detection_event<DataTypes>,
// ...). Go has no equivalent of that compile-time composition without
// heavy generic plumbing at every processor boundary, so — per the
// specification's own guidance for dynamic-dispatch ports — every event
// variant here is a Kind tag plus a fixed, sufficiently wide field set on
// one Event struct. Processors that only accept a subset of kinds check
// Kind and pass through (or drop) the rest.
package events

import "fmt"

// Kind tags which variant of Event is populated.
type Kind int

const (
	// KindTimeReached is a liveness marker; no data beyond AbsTime.
	KindTimeReached Kind = iota
	// KindDetection is a single detected count.
	KindDetection
	// KindTimeCorrelatedDetection carries a picosecond-scale delta to a
	// reference event (e.g. laser sync) in DiffTime.
	KindTimeCorrelatedDetection
	// KindMarker is an external timing marker.
	KindMarker
	// KindDataLost signals lost data at AbsTime.
	KindDataLost
	// KindBeginLostInterval opens a lost-data interval.
	KindBeginLostInterval
	// KindEndLostInterval closes a lost-data interval.
	KindEndLostInterval
	// KindLostCounts carries a lost-count tally on Channel.
	KindLostCounts
	// KindBulkCounts (a.k.a. untagged_counts) is an aggregated count not
	// individually time-tagged.
	KindBulkCounts
	// KindDetectionPair carries two detections; it has no AbsTime of its
	// own (use First.AbsTime / Second.AbsTime).
	KindDetectionPair
	// KindWarning surfaces a non-fatal condition in-band.
	KindWarning
	// KindDatapoint is a single scalar sample destined for binning.
	KindDatapoint
	// KindBinIncrement increments one histogram bin.
	KindBinIncrement
	// KindBinIncrementBatch increments a (possibly partial, under
	// saturation) sequence of bins.
	KindBinIncrementBatch
	// KindBinIncrementCluster increments a sequence of bins atomically.
	KindBinIncrementCluster
	// KindHistogram carries a read-only view of a single histogram.
	KindHistogram
	// KindConcludingHistogram carries a deep copy of a histogram at reset
	// or end of stream.
	KindConcludingHistogram
	// KindElementHistogram carries a view of one element's slice of a
	// per-element histogram array.
	KindElementHistogram
	// KindHistogramArray carries a view of an entire per-element array.
	KindHistogramArray
	// KindConcludingHistogramArray carries a deep copy of a per-element
	// array at the end of a cycle or stream.
	KindConcludingHistogramArray
)

// String names the Kind for diagnostics.
func (k Kind) String() string {
	switch k {
	case KindTimeReached:
		return "time_reached"
	case KindDetection:
		return "detection"
	case KindTimeCorrelatedDetection:
		return "time_correlated_detection"
	case KindMarker:
		return "marker"
	case KindDataLost:
		return "data_lost"
	case KindBeginLostInterval:
		return "begin_lost_interval"
	case KindEndLostInterval:
		return "end_lost_interval"
	case KindLostCounts:
		return "lost_counts"
	case KindBulkCounts:
		return "bulk_counts"
	case KindDetectionPair:
		return "detection_pair"
	case KindWarning:
		return "warning"
	case KindDatapoint:
		return "datapoint"
	case KindBinIncrement:
		return "bin_increment"
	case KindBinIncrementBatch:
		return "bin_increment_batch"
	case KindBinIncrementCluster:
		return "bin_increment_cluster"
	case KindHistogram:
		return "histogram"
	case KindConcludingHistogram:
		return "concluding_histogram"
	case KindElementHistogram:
		return "element_histogram"
	case KindHistogramArray:
		return "histogram_array"
	case KindConcludingHistogramArray:
		return "concluding_histogram_array"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// NoChannel is the sentinel channel value used by decoders for events that
// have no routing signal of their own (e.g. HydraHarp sync detections).
const NoChannel int32 = -1

// Event is the tagged union exchanged between processors. Only the fields
// relevant to Kind are meaningful; the zero value of an unused field is
// never interpreted.
type Event struct {
	Kind Kind

	AbsTime  int64
	Channel  int32
	DiffTime int64
	Count    int64
	Value    float64 // Datapoint payload

	BinIndex   int64
	BinValue   uint64
	BinIndices []int64 // batch/cluster payload (non-view, owned slice)

	// First/Second hold the two detections of a KindDetectionPair.
	First  *Event
	Second *Event

	// View holds a histogram-family payload (KindHistogram,
	// KindConcludingHistogram, KindElementHistogram, KindHistogramArray,
	// KindConcludingHistogramArray).
	View View

	Message string // KindWarning payload
}

// TimeReached constructs a KindTimeReached event.
func TimeReached(t int64) Event { return Event{Kind: KindTimeReached, AbsTime: t} }

// Detection constructs a KindDetection event.
func Detection(t int64, ch int32) Event {
	return Event{Kind: KindDetection, AbsTime: t, Channel: ch}
}

// TimeCorrelatedDetection constructs a KindTimeCorrelatedDetection event.
func TimeCorrelatedDetection(t int64, ch int32, diff int64) Event {
	return Event{Kind: KindTimeCorrelatedDetection, AbsTime: t, Channel: ch, DiffTime: diff}
}

// Marker constructs a KindMarker event.
func Marker(t int64, ch int32) Event {
	return Event{Kind: KindMarker, AbsTime: t, Channel: ch}
}

// DataLost constructs a KindDataLost event.
func DataLost(t int64) Event { return Event{Kind: KindDataLost, AbsTime: t} }

// BeginLostInterval constructs a KindBeginLostInterval event.
func BeginLostInterval(t int64) Event { return Event{Kind: KindBeginLostInterval, AbsTime: t} }

// EndLostInterval constructs a KindEndLostInterval event.
func EndLostInterval(t int64) Event { return Event{Kind: KindEndLostInterval, AbsTime: t} }

// LostCounts constructs a KindLostCounts event.
func LostCounts(t int64, ch int32, count int64) Event {
	return Event{Kind: KindLostCounts, AbsTime: t, Channel: ch, Count: count}
}

// BulkCounts constructs a KindBulkCounts (a.k.a untagged_counts) event.
func BulkCounts(t int64, ch int32, count int64) Event {
	return Event{Kind: KindBulkCounts, AbsTime: t, Channel: ch, Count: count}
}

// DetectionPair constructs a KindDetectionPair event. The pair carries no
// abstime of its own; First and Second each carry their own.
func DetectionPair(first, second Event) Event {
	f, s := first, second
	return Event{Kind: KindDetectionPair, First: &f, Second: &s}
}

// Warning constructs a KindWarning event.
func Warning(message string) Event { return Event{Kind: KindWarning, Message: message} }

// Datapoint constructs a KindDatapoint event.
func Datapoint(t int64, value float64) Event {
	return Event{Kind: KindDatapoint, AbsTime: t, Value: value}
}

// BinIncrement constructs a KindBinIncrement event.
func BinIncrement(t int64, bin int64) Event {
	return Event{Kind: KindBinIncrement, AbsTime: t, BinIndex: bin}
}

// BinIncrementBatch constructs a KindBinIncrementBatch event.
func BinIncrementBatch(indices []int64) Event {
	return Event{Kind: KindBinIncrementBatch, BinIndices: indices}
}

// BinIncrementCluster constructs a KindBinIncrementCluster event.
func BinIncrementCluster(indices []int64) Event {
	return Event{Kind: KindBinIncrementCluster, BinIndices: indices}
}

// Equal reports deep equality between two events, including View content
// and DetectionPair members.
func (e Event) Equal(o Event) bool {
	if e.Kind != o.Kind || e.AbsTime != o.AbsTime || e.Channel != o.Channel ||
		e.DiffTime != o.DiffTime || e.Count != o.Count || e.Value != o.Value ||
		e.BinIndex != o.BinIndex || e.BinValue != o.BinValue ||
		e.Message != o.Message {
		return false
	}
	if len(e.BinIndices) != len(o.BinIndices) {
		return false
	}
	for i := range e.BinIndices {
		if e.BinIndices[i] != o.BinIndices[i] {
			return false
		}
	}
	if (e.First == nil) != (o.First == nil) || (e.Second == nil) != (o.Second == nil) {
		return false
	}
	if e.First != nil && !e.First.Equal(*o.First) {
		return false
	}
	if e.Second != nil && !e.Second.Equal(*o.Second) {
		return false
	}
	return e.View.Equal(o.View)
}
