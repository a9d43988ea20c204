package decode

import (
	"fmt"

	"github.com/crimson-sun/tcspc/internal/events"
)

// Becker & Hickl SPC records share one decode skeleton across three wire
// shapes (bh_spc_event, bh_spc600_4096ch_event, bh_spc600_256ch_event),
// parametrized over the bit layout only. Grounded on
// original_source/include/libtcspc/bh_spc.hpp, internal::decode_bh_spc.

// bhRecord is the bit-extraction contract the shared decode loop needs
// from any of the three BH SPC wire layouts.
type bhRecord interface {
	macrotimeOverflowPeriod() int64
	macrotime() int64
	macrotimeOverflowFlag() bool
	isMultipleMacrotimeOverflow() bool
	multipleMacrotimeOverflowCount() int64
	gapFlag() bool
	markerFlag() bool
	invalidFlag() bool
	routingSignals() int32
	adcValue() int64
}

// bhSPCRecord is the original 4-byte BH SPC record (SPC-130/140/150/830
// in standard, non-FIFO-32 mode).
//
//	byte0: macrotime[7:0]
//	byte1: routing[3:0] << 4 | macrotime[11:8]
//	byte2: adc[7:0]
//	byte3: INVALID<<7 | MTOV<<6 | GAP<<5 | MARK<<4 | adc[11:8]
type bhSPCRecord [4]byte

func (r bhSPCRecord) macrotimeOverflowPeriod() int64 { return 1 << 12 }
func (r bhSPCRecord) macrotime() int64 {
	return int64(r[0]) | int64(r[1]&0x0f)<<8
}
func (r bhSPCRecord) macrotimeOverflowFlag() bool { return r[3]&0x40 != 0 }
func (r bhSPCRecord) gapFlag() bool               { return r[3]&0x20 != 0 }
func (r bhSPCRecord) markerFlag() bool            { return r[3]&0x10 != 0 }
func (r bhSPCRecord) invalidFlag() bool           { return r[3]&0x80 != 0 }
func (r bhSPCRecord) isMultipleMacrotimeOverflow() bool {
	return r.macrotimeOverflowFlag() && r.invalidFlag() && !r.markerFlag()
}
func (r bhSPCRecord) multipleMacrotimeOverflowCount() int64 {
	return int64(le32(r[:])) & 0x0fffffff
}
func (r bhSPCRecord) routingSignals() int32 { return int32(r[1] >> 4) }
func (r bhSPCRecord) adcValue() int64       { return int64(r[2]) | int64(r[3]&0x0f)<<8 }
func (r bhSPCRecord) markerBits() uint32    { return uint32(r[1] >> 4) }

// bhSPC600_4096Record is the BH SPC-600/630 4096-channel record (6
// bytes). It has no marker support and no multiple-macrotime-overflow
// accumulation record; gap and single overflow are its only flags.
//
//	byte0: adc[7:0]
//	byte1: GAP<<6 | MTOV<<5 | INVALID<<4 | adc[11:8]
//	byte2: macrotime[23:16]
//	byte3: routing (full byte)
//	byte4: macrotime[7:0]
//	byte5: macrotime[15:8]
type bhSPC600_4096Record [6]byte

func (r bhSPC600_4096Record) macrotimeOverflowPeriod() int64 { return 1 << 24 }
func (r bhSPC600_4096Record) macrotime() int64 {
	return int64(r[4]) | int64(r[5])<<8 | int64(r[2])<<16
}
func (r bhSPC600_4096Record) macrotimeOverflowFlag() bool           { return r[1]&0x20 != 0 }
func (r bhSPC600_4096Record) gapFlag() bool                         { return r[1]&0x40 != 0 }
func (r bhSPC600_4096Record) markerFlag() bool                      { return false }
func (r bhSPC600_4096Record) invalidFlag() bool                     { return r[1]&0x10 != 0 }
func (r bhSPC600_4096Record) isMultipleMacrotimeOverflow() bool     { return false }
func (r bhSPC600_4096Record) multipleMacrotimeOverflowCount() int64 { return 0 }
func (r bhSPC600_4096Record) routingSignals() int32                 { return int32(r[3]) }
func (r bhSPC600_4096Record) adcValue() int64 {
	return int64(r[0]) | int64(r[1]&0x0f)<<8
}

// bhSPC600_256Record is the BH SPC-600/630 256-channel record (4
// bytes), the narrowest of the three: an 8-bit adc value, 17-bit
// macrotime with only its top bit in the final byte, and a 3-bit
// routing field sharing that byte with the flags.
//
//	byte0: adc (full byte, 0-255)
//	byte1: macrotime[7:0]
//	byte2: macrotime[15:8]
//	byte3: INVALID<<7 | MTOV<<6 | GAP<<5 | routing[2:0]<<1 | macrotime[16]
type bhSPC600_256Record [4]byte

func (r bhSPC600_256Record) macrotimeOverflowPeriod() int64 { return 1 << 17 }
func (r bhSPC600_256Record) macrotime() int64 {
	return int64(r[1]) | int64(r[2])<<8 | int64(r[3]&0x01)<<16
}
func (r bhSPC600_256Record) macrotimeOverflowFlag() bool { return r[3]&0x40 != 0 }
func (r bhSPC600_256Record) gapFlag() bool               { return r[3]&0x20 != 0 }
func (r bhSPC600_256Record) markerFlag() bool            { return false }
func (r bhSPC600_256Record) invalidFlag() bool           { return r[3]&0x80 != 0 }
func (r bhSPC600_256Record) isMultipleMacrotimeOverflow() bool {
	return r.macrotimeOverflowFlag() && r.invalidFlag()
}
func (r bhSPC600_256Record) multipleMacrotimeOverflowCount() int64 {
	return int64(le32(r[:])) & 0x0fffffff
}
func (r bhSPC600_256Record) routingSignals() int32 { return int32(r[3]&0x0e) >> 1 }
func (r bhSPC600_256Record) adcValue() int64       { return int64(r[0]) }

// recordDecoder is the shared BH SPC decode loop. Go generics can't
// abstract over array length, so each constructor below closes over
// its own parse function rather than parametrizing a generic struct by
// record width; decodeBHGeneric is the one piece of logic actually
// shared across the three wire layouts.
type recordDecoder struct {
	recordSize          int
	downstream          downstream
	hasIntensityCounter bool
	abstimeBase         int64
	decodeOne           func(raw []byte, d *recordDecoder) error
}

func (d *recordDecoder) RecordSize() int { return d.recordSize }

func (d *recordDecoder) HandleRecord(raw []byte) error {
	if len(raw) != d.recordSize {
		return fmt.Errorf("bhspc: invalid record size: want %d got %d", d.recordSize, len(raw))
	}
	return d.decodeOne(raw, d)
}

func (d *recordDecoder) Flush() error { return wrapf("bhspc", d.downstream.Flush()) }

func decodeBHGeneric[R bhRecord](raw []byte, d *recordDecoder, parse func([]byte) R, markerBits func(R) uint32) error {
	rec := parse(raw)

	if rec.isMultipleMacrotimeOverflow() {
		d.abstimeBase += rec.macrotimeOverflowPeriod() * rec.multipleMacrotimeOverflowCount()
		if rec.gapFlag() {
			if err := d.downstream.Handle(events.DataLost(d.abstimeBase)); err != nil {
				return wrapf("bhspc", err)
			}
		}
		return wrapf("bhspc", d.downstream.Handle(events.TimeReached(d.abstimeBase)))
	}

	if rec.macrotimeOverflowFlag() {
		d.abstimeBase += rec.macrotimeOverflowPeriod()
	}
	abstime := d.abstimeBase + rec.macrotime()

	if rec.gapFlag() {
		if err := d.downstream.Handle(events.DataLost(abstime)); err != nil {
			return wrapf("bhspc", err)
		}
	}

	if !rec.markerFlag() {
		if !rec.invalidFlag() {
			return wrapf("bhspc", d.downstream.Handle(
				events.TimeCorrelatedDetection(abstime, rec.routingSignals(), rec.adcValue())))
		}
		return wrapf("bhspc", d.downstream.Handle(events.TimeReached(abstime)))
	}

	if !rec.invalidFlag() {
		return wrapf("bhspc", d.downstream.Handle(
			events.Warning("bhspc: marker flag set without invalid flag")))
	}

	bits := markerBits(rec)
	if d.hasIntensityCounter && bits&1 != 0 {
		if err := d.downstream.Handle(events.BulkCounts(abstime, events.NoChannel, rec.adcValue())); err != nil {
			return wrapf("bhspc", err)
		}
	}
	var err error
	forEachSetBit(bits, func(bit int) {
		if err != nil {
			return
		}
		err = d.downstream.Handle(events.Marker(abstime, int32(bit)))
	})
	return wrapf("bhspc", err)
}

// NewBHSPC decodes the standard 4-byte Becker & Hickl SPC record
// (SPC-130/140/150/830 and similar).
func NewBHSPC(down downstream) RecordProcessor {
	return &recordDecoder{
		recordSize: 4,
		downstream: down,
		decodeOne: func(raw []byte, d *recordDecoder) error {
			return decodeBHGeneric(raw, d, func(b []byte) bhSPCRecord {
				return bhSPCRecord{b[0], b[1], b[2], b[3]}
			}, bhSPCRecord.markerBits)
		},
	}
}

// NewBHSPCFastIntensity decodes the same 4-byte record as NewBHSPC, but
// treats marker bit 0 as doubling for a fast (SPC-180) intensity
// counter: when set, the adc field carries an aggregate count rather
// than (or in addition to) a marker on channel 0, and a BulkCounts
// event on events.NoChannel is emitted alongside the per-bit markers.
func NewBHSPCFastIntensity(down downstream) RecordProcessor {
	return &recordDecoder{
		recordSize:          4,
		downstream:          down,
		hasIntensityCounter: true,
		decodeOne: func(raw []byte, d *recordDecoder) error {
			return decodeBHGeneric(raw, d, func(b []byte) bhSPCRecord {
				return bhSPCRecord{b[0], b[1], b[2], b[3]}
			}, bhSPCRecord.markerBits)
		},
	}
}

// NewBHSPC600_4096 decodes the 6-byte BH SPC-600/630 4096-channel
// record. This variant has no marker support.
func NewBHSPC600_4096(down downstream) RecordProcessor {
	return &recordDecoder{
		recordSize: 6,
		downstream: down,
		decodeOne: func(raw []byte, d *recordDecoder) error {
			return decodeBHGeneric(raw, d, func(b []byte) bhSPC600_4096Record {
				return bhSPC600_4096Record{b[0], b[1], b[2], b[3], b[4], b[5]}
			}, func(bhSPC600_4096Record) uint32 { return 0 })
		},
	}
}

// NewBHSPC600_256 decodes the 4-byte BH SPC-600/630 256-channel
// record. This variant has no marker support.
func NewBHSPC600_256(down downstream) RecordProcessor {
	return &recordDecoder{
		recordSize: 4,
		downstream: down,
		decodeOne: func(raw []byte, d *recordDecoder) error {
			return decodeBHGeneric(raw, d, func(b []byte) bhSPC600_256Record {
				return bhSPC600_256Record{b[0], b[1], b[2], b[3]}
			}, func(bhSPC600_256Record) uint32 { return 0 })
		},
	}
}
