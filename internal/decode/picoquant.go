package decode

import (
	"fmt"

	"github.com/crimson-sun/tcspc/internal/events"
)

// PicoQuant T2 and T3 raw record decoders, grounded bit-for-bit on
// original_source/include/libtcspc/picoquant_t2.hpp and
// picoquant_t3.hpp. Each format family (T2, T3) shares one decode loop
// across three device variants (PicoHarp 300, HydraHarp V1, and the
// "Generic" shape used by HydraHarp V2/MultiHarp/TimeHarp 260/PicoHarp
// 330), differing only in bit layout and overflow-counting rules.

type pqt2Record interface {
	overflowPeriod() int64
	isSpecial() bool
	isTimetagOverflow() bool
	timetagOverflowCount() int64
	isSyncEvent() bool
	timetag() int64
	channel() int32
	isExternalMarker() bool
	externalMarkerTimetag() int64
	externalMarkerBits() uint32
}

// pqt2PicoHarp300Record is the 4-byte PicoHarp 300 T2 record (RecType
// 0x00010203).
//
//	byte3[7:4]: channel (15 = special)
//	bytes[0:4] & 0x0fffffff little-endian: timetag (28 bits)
//	special && timetag&0xf==0: overflow; special && timetag&0xf!=0: marker
type pqt2PicoHarp300Record [4]byte

func (r pqt2PicoHarp300Record) overflowPeriod() int64 { return 210698240 }
func (r pqt2PicoHarp300Record) channel() int32         { return int32(r[3] >> 4) }
func (r pqt2PicoHarp300Record) timetag() int64         { return int64(le32(r[:]) & 0x0fffffff) }
func (r pqt2PicoHarp300Record) isSpecial() bool         { return r.channel() == 15 }
func (r pqt2PicoHarp300Record) isTimetagOverflow() bool {
	return r.isSpecial() && r.timetag()&0x0f == 0
}
func (r pqt2PicoHarp300Record) timetagOverflowCount() int64 { return 1 }
func (r pqt2PicoHarp300Record) isSyncEvent() bool            { return false }
func (r pqt2PicoHarp300Record) isExternalMarker() bool {
	return r.isSpecial() && r.timetag()&0x0f != 0
}
func (r pqt2PicoHarp300Record) externalMarkerTimetag() int64 { return r.timetag() &^ 0x0f }
func (r pqt2PicoHarp300Record) externalMarkerBits() uint32   { return uint32(r.timetag()) & 0x0f }

// basicPQT2Record is the 4-byte HydraHarp/MultiHarp/TimeHarp
// 260/PicoHarp 330 T2 record (HydraHarp V1 when single is true, the
// "Generic" format otherwise).
//
//	byte3[7]: special
//	byte3[6:1]: channel (6 bits, & 0x7f then >>1)
//	bytes[0:4] & 0x01ffffff little-endian: timetag (25 bits)
//	special && channel==63: overflow; special && channel==0: sync;
//	special && 0<channel<=15: marker
type basicPQT2Record struct {
	bytes  [4]byte
	period int64
	single bool
}

func (r basicPQT2Record) overflowPeriod() int64 { return r.period }
func (r basicPQT2Record) channel() int32        { return int32((r.bytes[3] & 0x7f) >> 1) }
func (r basicPQT2Record) timetag() int64        { return int64(le32(r.bytes[:]) & 0x01ffffff) }
func (r basicPQT2Record) isSpecial() bool       { return r.bytes[3]&0x80 != 0 }
func (r basicPQT2Record) isTimetagOverflow() bool {
	return r.isSpecial() && r.channel() == 63
}
func (r basicPQT2Record) timetagOverflowCount() int64 {
	if r.single {
		return 1
	}
	return r.timetag()
}
func (r basicPQT2Record) isSyncEvent() bool { return r.isSpecial() && r.channel() == 0 }
func (r basicPQT2Record) isExternalMarker() bool {
	return r.isSpecial() && r.channel() > 0 && r.channel() <= 15
}
func (r basicPQT2Record) externalMarkerTimetag() int64 { return r.timetag() }
func (r basicPQT2Record) externalMarkerBits() uint32   { return uint32(r.channel()) }

func decodePQT2(rec pqt2Record, base *int64, down downstream) error {
	if rec.isTimetagOverflow() {
		*base += rec.overflowPeriod() * rec.timetagOverflowCount()
		return wrapf("pqt2", down.Handle(events.TimeReached(*base)))
	}

	if !rec.isSpecial() || rec.isSyncEvent() {
		t := *base + rec.timetag()
		ch := rec.channel()
		if rec.isSpecial() {
			ch = events.NoChannel
		}
		return wrapf("pqt2", down.Handle(events.Detection(t, ch)))
	}

	if rec.isExternalMarker() {
		t := *base + rec.externalMarkerTimetag()
		var err error
		forEachSetBit(rec.externalMarkerBits(), func(bit int) {
			if err != nil {
				return
			}
			err = down.Handle(events.Marker(t, int32(bit)))
		})
		return wrapf("pqt2", err)
	}

	return wrapf("pqt2", down.Handle(events.Warning("pqt2: invalid special event encountered")))
}

type pqt2Decoder struct {
	downstream downstream
	base       int64
	parse      func([]byte) pqt2Record
}

func (d *pqt2Decoder) RecordSize() int { return 4 }
func (d *pqt2Decoder) HandleRecord(raw []byte) error {
	if len(raw) != 4 {
		return fmt.Errorf("pqt2: invalid record size: want 4 got %d", len(raw))
	}
	return decodePQT2(d.parse(raw), &d.base, d.downstream)
}
func (d *pqt2Decoder) Flush() error { return wrapf("pqt2", d.downstream.Flush()) }

// NewPQT2PicoHarp300 decodes PicoQuant PicoHarp 300 T2 records.
func NewPQT2PicoHarp300(down downstream) RecordProcessor {
	return &pqt2Decoder{downstream: down, parse: func(b []byte) pqt2Record {
		return pqt2PicoHarp300Record{b[0], b[1], b[2], b[3]}
	}}
}

// NewPQT2HydraHarpV1 decodes PicoQuant HydraHarp V1 T2 records (RecType
// 0x00010204). Sync events are reported as detections on
// events.NoChannel.
func NewPQT2HydraHarpV1(down downstream) RecordProcessor {
	return &pqt2Decoder{downstream: down, parse: func(b []byte) pqt2Record {
		return basicPQT2Record{bytes: [4]byte{b[0], b[1], b[2], b[3]}, period: 33552000, single: true}
	}}
}

// NewPQT2Generic decodes the PicoQuant "Generic" T2 record shape used
// by HydraHarp V2, MultiHarp, TimeHarp 260, and PicoHarp 330. Sync
// events are reported as detections on events.NoChannel.
func NewPQT2Generic(down downstream) RecordProcessor {
	return &pqt2Decoder{downstream: down, parse: func(b []byte) pqt2Record {
		return basicPQT2Record{bytes: [4]byte{b[0], b[1], b[2], b[3]}, period: 33554432, single: false}
	}}
}

type pqt3Record interface {
	overflowPeriod() int64
	isSpecial() bool
	isNsyncOverflow() bool
	nsyncOverflowCount() int64
	nsync() int64
	channel() int32
	dtime() int64
	isExternalMarker() bool
	externalMarkerBits() uint32
}

// pqt3PicoHarp300Record is the 4-byte PicoHarp 300 T3 record (RecType
// 0x00010303).
//
//	byte3[7:4]: channel (15 = special)
//	bytes[2:4] little-endian & 0x0fff: dtime
//	bytes[0:2] little-endian: nsync
type pqt3PicoHarp300Record [4]byte

func (r pqt3PicoHarp300Record) overflowPeriod() int64 { return 65536 }
func (r pqt3PicoHarp300Record) channel() int32         { return int32(r[3] >> 4) }
func (r pqt3PicoHarp300Record) dtime() int64           { return int64(le16(r[2:4]) & 0x0fff) }
func (r pqt3PicoHarp300Record) nsync() int64           { return int64(le16(r[0:2])) }
func (r pqt3PicoHarp300Record) isSpecial() bool         { return r.channel() == 15 }
func (r pqt3PicoHarp300Record) isNsyncOverflow() bool   { return r.isSpecial() && r.dtime() == 0 }
func (r pqt3PicoHarp300Record) nsyncOverflowCount() int64 { return 1 }
func (r pqt3PicoHarp300Record) isExternalMarker() bool {
	return r.isSpecial() && r.dtime() > 0 && r.dtime() <= 15
}
func (r pqt3PicoHarp300Record) externalMarkerBits() uint32 { return uint32(r.dtime()) }

// basicPQT3Record is the 4-byte HydraHarp/MultiHarp/TimeHarp
// 260/PicoHarp 330 T3 record (HydraHarp V1 when single is true, the
// "Generic" format otherwise). nsync overflow period is always 1024.
//
//	byte3[7]: special
//	byte3[6:1]: channel
//	dtime: byte1[7:2] | byte2<<6 | byte3[0]<<14
//	nsync: bytes[0:2] little-endian & 0x03ff
type basicPQT3Record struct {
	bytes  [4]byte
	single bool
}

func (r basicPQT3Record) overflowPeriod() int64 { return 1024 }
func (r basicPQT3Record) channel() int32        { return int32((r.bytes[3] & 0x7f) >> 1) }
func (r basicPQT3Record) dtime() int64 {
	lo6 := int64(r.bytes[1]) >> 2
	mid8 := int64(r.bytes[2])
	hi1 := int64(r.bytes[3]) & 1
	return lo6 | mid8<<6 | hi1<<14
}
func (r basicPQT3Record) nsync() int64 { return int64(le16(r.bytes[0:2]) & 0x03ff) }
func (r basicPQT3Record) isSpecial() bool { return r.bytes[3]&0x80 != 0 }
func (r basicPQT3Record) isNsyncOverflow() bool {
	return r.isSpecial() && r.channel() == 63
}
func (r basicPQT3Record) nsyncOverflowCount() int64 {
	if r.single {
		return 1
	}
	return r.nsync()
}
func (r basicPQT3Record) isExternalMarker() bool {
	return r.isSpecial() && r.channel() > 0 && r.channel() <= 15
}
func (r basicPQT3Record) externalMarkerBits() uint32 { return uint32(r.channel()) }

func decodePQT3(rec pqt3Record, base *int64, down downstream) error {
	if rec.isNsyncOverflow() {
		*base += rec.overflowPeriod() * rec.nsyncOverflowCount()
		return wrapf("pqt3", down.Handle(events.TimeReached(*base)))
	}

	nsync := *base + rec.nsync()

	if !rec.isSpecial() {
		return wrapf("pqt3", down.Handle(events.TimeCorrelatedDetection(nsync, rec.channel(), rec.dtime())))
	}

	if rec.isExternalMarker() {
		var err error
		forEachSetBit(rec.externalMarkerBits(), func(bit int) {
			if err != nil {
				return
			}
			err = down.Handle(events.Marker(nsync, int32(bit)))
		})
		return wrapf("pqt3", err)
	}

	return wrapf("pqt3", down.Handle(events.Warning("pqt3: invalid special event encountered")))
}

type pqt3Decoder struct {
	downstream downstream
	base       int64
	parse      func([]byte) pqt3Record
}

func (d *pqt3Decoder) RecordSize() int { return 4 }
func (d *pqt3Decoder) HandleRecord(raw []byte) error {
	if len(raw) != 4 {
		return fmt.Errorf("pqt3: invalid record size: want 4 got %d", len(raw))
	}
	return decodePQT3(d.parse(raw), &d.base, d.downstream)
}
func (d *pqt3Decoder) Flush() error { return wrapf("pqt3", d.downstream.Flush()) }

// NewPQT3PicoHarp300 decodes PicoQuant PicoHarp 300 T3 records.
func NewPQT3PicoHarp300(down downstream) RecordProcessor {
	return &pqt3Decoder{downstream: down, parse: func(b []byte) pqt3Record {
		return pqt3PicoHarp300Record{b[0], b[1], b[2], b[3]}
	}}
}

// NewPQT3HydraHarpV1 decodes PicoQuant HydraHarp V1 T3 records
// (RecType 0x00010304).
func NewPQT3HydraHarpV1(down downstream) RecordProcessor {
	return &pqt3Decoder{downstream: down, parse: func(b []byte) pqt3Record {
		return basicPQT3Record{bytes: [4]byte{b[0], b[1], b[2], b[3]}, single: true}
	}}
}

// NewPQT3Generic decodes the PicoQuant "Generic" T3 record shape used
// by HydraHarp V2, MultiHarp, TimeHarp 260, and PicoHarp 330.
func NewPQT3Generic(down downstream) RecordProcessor {
	return &pqt3Decoder{downstream: down, parse: func(b []byte) pqt3Record {
		return basicPQT3Record{bytes: [4]byte{b[0], b[1], b[2], b[3]}, single: false}
	}}
}
