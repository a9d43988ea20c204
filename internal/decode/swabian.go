package decode

import (
	"fmt"

	"github.com/crimson-sun/tcspc/internal/events"
)

// Swabian Instruments Time Tagger 16-byte raw 'Tag' record decoder,
// grounded on original_source/include/libtcspc/swabian_tag.hpp. Unlike
// the BH SPC and PicoQuant families, this format has no overflow
// counter to accumulate: every tag already carries a full 64-bit
// picosecond timestamp.
//
//	byte0:    type (0 time_tag, 1 error, 2 overflow_begin, 3 overflow_end, 4 missed_events)
//	byte1:    reserved
//	bytes2-4: missed_event_count, uint16 little-endian
//	bytes4-8: channel, int32 little-endian
//	bytes8-16: time, int64 little-endian (picoseconds)
const (
	swabianTagTimeTag       = 0
	swabianTagError         = 1
	swabianTagOverflowBegin = 2
	swabianTagOverflowEnd   = 3
	swabianTagMissedEvents  = 4
)

type swabianDecoder struct {
	downstream downstream
}

// NewSwabianTag decodes the Swabian Instruments Time Tagger 16-byte
// 'Tag' record.
func NewSwabianTag(down downstream) RecordProcessor {
	return &swabianDecoder{downstream: down}
}

func (d *swabianDecoder) RecordSize() int { return 16 }

func (d *swabianDecoder) HandleRecord(raw []byte) error {
	if len(raw) != 16 {
		return fmt.Errorf("swabian_tag: invalid record size: want 16 got %d", len(raw))
	}

	tagType := raw[0]
	missed := le16(raw[2:4])
	channel := int32(le32(raw[4:8]))
	t := int64(le64(raw[8:16]))

	switch tagType {
	case swabianTagTimeTag:
		return wrapf("swabian_tag", d.downstream.Handle(events.Detection(t, channel)))
	case swabianTagError:
		return wrapf("swabian_tag", d.downstream.Handle(events.Warning("error tag encountered")))
	case swabianTagOverflowBegin:
		return wrapf("swabian_tag", d.downstream.Handle(events.BeginLostInterval(t)))
	case swabianTagOverflowEnd:
		return wrapf("swabian_tag", d.downstream.Handle(events.EndLostInterval(t)))
	case swabianTagMissedEvents:
		return wrapf("swabian_tag", d.downstream.Handle(events.LostCounts(t, channel, int64(missed))))
	default:
		return wrapf("swabian_tag", d.downstream.Handle(
			events.Warning(fmt.Sprintf("unknown event type (%d)", tagType))))
	}
}

func (d *swabianDecoder) Flush() error { return wrapf("swabian_tag", d.downstream.Flush()) }
