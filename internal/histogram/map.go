package histogram

import "github.com/crimson-sun/tcspc/internal/events"

// DatapointMapper extracts a datapoint value from an event, returning
// ok=false for event kinds it doesn't handle (which are passed through
// unmapped).
type DatapointMapper func(ev events.Event) (value float64, ok bool)

// DifftimeMapper maps a time-correlated detection's diff time to a
// datapoint. Grounded on binning.hpp's difftime_data_mapper.
func DifftimeMapper(ev events.Event) (float64, bool) {
	if ev.Kind != events.KindTimeCorrelatedDetection {
		return 0, false
	}
	return float64(ev.DiffTime), true
}

// CountMapper maps a bulk- or lost-count event's count to a datapoint.
// Grounded on binning.hpp's count_data_mapper.
func CountMapper(ev events.Event) (float64, bool) {
	switch ev.Kind {
	case events.KindBulkCounts, events.KindLostCounts:
		return float64(ev.Count), true
	default:
		return 0, false
	}
}

type datapointMapProcessor struct {
	mapper     DatapointMapper
	downstream Processor
}

// MapToDatapoints maps matching events to KindDatapoint events via
// mapper, passing everything else through unchanged. Grounded on
// binning.hpp's map_to_datapoints.
func MapToDatapoints(mapper DatapointMapper, downstream Processor) Processor {
	return &datapointMapProcessor{mapper: mapper, downstream: downstream}
}

func (p *datapointMapProcessor) Handle(ev events.Event) error {
	if v, ok := p.mapper(ev); ok {
		return wrapf("map_to_datapoints", p.downstream.Handle(events.Datapoint(ev.AbsTime, v)))
	}
	return wrapf("map_to_datapoints", p.downstream.Handle(ev))
}

func (p *datapointMapProcessor) Flush() error {
	return wrapf("map_to_datapoints", p.downstream.Flush())
}

type binMapProcessor struct {
	mapper     BinMapper
	downstream Processor
}

// MapToBins maps KindDatapoint events to KindBinIncrement events via
// mapper, discarding datapoints outside of the mapped range and passing
// everything else through. Grounded on binning.hpp's map_to_bins.
func MapToBins(mapper BinMapper, downstream Processor) Processor {
	return &binMapProcessor{mapper: mapper, downstream: downstream}
}

func (p *binMapProcessor) Handle(ev events.Event) error {
	if ev.Kind != events.KindDatapoint {
		return wrapf("map_to_bins", p.downstream.Handle(ev))
	}
	if bin, ok := p.mapper.Map(ev.Value); ok {
		return wrapf("map_to_bins", p.downstream.Handle(events.BinIncrement(ev.AbsTime, bin)))
	}
	return nil
}

func (p *binMapProcessor) Flush() error {
	return wrapf("map_to_bins", p.downstream.Flush())
}

type batchBinIncrements struct {
	startKind, stopKind events.Kind
	inBatch             bool
	bins                []int64
	downstream          Processor
}

// BatchBinIncrements collects KindBinIncrement events seen between a
// startKind and stopKind event into a single KindBinIncrementBatch,
// discarding any unfinished batch when a new start arrives. Grounded on
// binning.hpp's batch_bin_increments.
func BatchBinIncrements(startKind, stopKind events.Kind, downstream Processor) Processor {
	return &batchBinIncrements{startKind: startKind, stopKind: stopKind, downstream: downstream}
}

func (p *batchBinIncrements) Handle(ev events.Event) error {
	switch ev.Kind {
	case events.KindBinIncrement:
		if p.inBatch {
			p.bins = append(p.bins, ev.BinIndex)
		}
		return nil
	case p.startKind:
		p.bins = p.bins[:0]
		p.inBatch = true
		return nil
	case p.stopKind:
		if !p.inBatch {
			return nil
		}
		batch := append([]int64(nil), p.bins...)
		p.inBatch = false
		return wrapf("batch_bin_increments", p.downstream.Handle(events.BinIncrementBatch(batch)))
	default:
		return wrapf("batch_bin_increments", p.downstream.Handle(ev))
	}
}

func (p *batchBinIncrements) Flush() error {
	return wrapf("batch_bin_increments", p.downstream.Flush())
}
