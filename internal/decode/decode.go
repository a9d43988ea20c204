// Package decode implements binary record decoders for supported TCSPC
// device FIFO formats: Becker & Hickl SPC (3 record shapes plus the
// fast-intensity-counter variant), PicoQuant T2/T3 (PicoHarp 300,
// HydraHarp V1, Generic PQ), and the Swabian Instruments 128-bit Tag
// format. Every decoder shares one shape: read a fixed-size raw record,
// accumulate an abstime base across overflow records, and dispatch the
// remaining record kinds into events.Event values.
//
// Grounded bit-for-bit on
// original_source/include/libtcspc/{bh_spc,picoquant_t2,picoquant_t3,swabian_tag}.hpp.
package decode

import (
	"encoding/binary"
	"fmt"

	"github.com/crimson-sun/tcspc/internal/events"
)

func wrapf(component string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", component, err)
}

// downstream is the pipeline.Processor contract, duplicated locally
// (see internal/pairing for the layering rationale).
type downstream interface {
	Handle(ev events.Event) error
	Flush() error
}

// RecordProcessor consumes fixed-size raw binary records (as delivered
// by internal/stream.ReadBinaryStream) and emits events.Event values to
// a wrapped downstream.
type RecordProcessor interface {
	// RecordSize is the fixed byte length of one raw record.
	RecordSize() int
	// HandleRecord decodes one raw record, exactly RecordSize() bytes.
	HandleRecord(raw []byte) error
	Flush() error
}

// forEachSetBit calls f once for each bit set in mask, in ascending bit
// order, mirroring for_each_set_bit's use for BH SPC marker dispatch
// and the PicoQuant/Swabian marker-channel conventions.
func forEachSetBit(mask uint32, f func(bit int)) {
	for b := 0; b < 32; b++ {
		if mask&(1<<uint(b)) != 0 {
			f(b)
		}
	}
}

func le16(b []byte) uint16 { return binary.LittleEndian.Uint16(b) }
func le32(b []byte) uint32 { return binary.LittleEndian.Uint32(b) }
func le64(b []byte) uint64 { return binary.LittleEndian.Uint64(b) }
