package histogram

import "fmt"

// BinMapper maps a datapoint to a bin index, reporting ok=false when the
// datapoint falls outside the mapped range (and isn't being clamped).
type BinMapper interface {
	NumBins() int
	Map(d float64) (bin int64, ok bool)
}

// PowerOf2BinMapper takes the most significant bits of an integer-valued
// datapoint as the bin index, using no division. Grounded on
// binning.hpp's power_of_2_bin_mapper; the datapoint is truncated to an
// int64 before the bit shift since events.Event carries datapoints as
// float64 rather than the original's generic integer datapoint_type.
type PowerOf2BinMapper struct {
	dataBits, histoBits uint
	flip                bool
}

// NewPowerOf2BinMapper maps dataBits-wide datapoints down to
// 1<<histoBits bins by discarding the low (dataBits-histoBits) bits.
// When flip is true, bin indices are reversed (bin 0 becomes the last).
func NewPowerOf2BinMapper(dataBits, histoBits uint, flip bool) *PowerOf2BinMapper {
	return &PowerOf2BinMapper{dataBits: dataBits, histoBits: histoBits, flip: flip}
}

func (m *PowerOf2BinMapper) NumBins() int { return 1 << m.histoBits }

func (m *PowerOf2BinMapper) Map(d float64) (int64, bool) {
	shift := m.dataBits - m.histoBits
	v := int64(d)
	var bin int64
	if shift >= 64 {
		bin = 0
	} else {
		bin = v >> shift
	}
	maxBin := int64(1<<m.histoBits) - 1
	if bin < 0 || bin > maxBin {
		return 0, false
	}
	if m.flip {
		bin = maxBin - bin
	}
	return bin, true
}

// LinearBinMapper maps datapoints to bins of uniform width, optionally
// clamping out-of-range datapoints into the first/last bin instead of
// discarding them. Grounded on binning.hpp's linear_bin_mapper.
type LinearBinMapper struct {
	offset, width float64
	maxIndex      int64
	clamp         bool
}

// NewLinearBinMapper constructs a LinearBinMapper. width must not be
// zero; a negative width (with a positive offset) flips the histogram.
// maxIndex must not be negative.
func NewLinearBinMapper(offset, width float64, maxIndex int64, clamp bool) (*LinearBinMapper, error) {
	if width == 0 {
		return nil, fmt.Errorf("histogram: linear bin mapper width must not be zero")
	}
	if maxIndex < 0 {
		return nil, fmt.Errorf("histogram: linear bin mapper max index must not be negative")
	}
	return &LinearBinMapper{offset: offset, width: width, maxIndex: maxIndex, clamp: clamp}, nil
}

func (m *LinearBinMapper) NumBins() int { return int(m.maxIndex) + 1 }

func (m *LinearBinMapper) Map(d float64) (int64, bool) {
	d -= m.offset
	// Check sign before dividing to avoid rounding toward zero hiding
	// an out-of-range negative datapoint.
	if (d < 0 && m.width > 0) || (d > 0 && m.width < 0) {
		if m.clamp {
			return 0, true
		}
		return 0, false
	}
	bin := int64(d / m.width)
	if bin > m.maxIndex {
		if m.clamp {
			return m.maxIndex, true
		}
		return 0, false
	}
	return bin, true
}
