package stream

import (
	"fmt"
	"log/slog"

	"github.com/crimson-sun/tcspc/internal/decode"
)

// DefaultReadGranularity is the chunk size ReadBinaryStream requests from
// the underlying Stream when the caller doesn't specify one. Matches
// read_binary_stream.hpp's documented default granularity.
const DefaultReadGranularity = 65536

// ReadBinaryStream pumps fixed-size raw records out of src and into
// processor, reading src in granularity-sized chunks and carrying any
// partial trailing record across reads.
//
// Grounded on original_source/include/libtcspc/read_binary_stream.hpp's
// internal::read_binary_stream: the read size is rounded up to the
// smallest multiple of granularity that can hold at least one whole
// record, a remainder buffer (always shorter than one record) survives
// across iterations, and a stream error is fatal while leftover bytes at
// end-of-input are logged rather than treated as failure (the upstream
// emits a warning_event there instead of throwing).
func ReadBinaryStream(src Stream, processor decode.RecordProcessor, granularity int) error {
	recordSize := processor.RecordSize()
	if granularity <= 0 {
		granularity = DefaultReadGranularity
	}
	readSize := granularity
	if readSize < recordSize {
		n := (recordSize + granularity - 1) / granularity
		readSize = n * granularity
	}

	chunk := make([]byte, readSize)
	buf := make([]byte, 0, readSize+recordSize)

	for src.IsGood() {
		n := src.Read(chunk)
		if n == 0 {
			break
		}
		buf = append(buf, chunk[:n]...)

		whole := (len(buf) / recordSize) * recordSize
		for off := 0; off < whole; off += recordSize {
			if err := processor.HandleRecord(buf[off : off+recordSize]); err != nil {
				return fmt.Errorf("read_binary_stream: %w", err)
			}
		}
		remainder := len(buf) - whole
		copy(buf, buf[whole:])
		buf = buf[:remainder]
	}

	if src.IsError() {
		return fmt.Errorf("read_binary_stream: input stream reported an error")
	}
	if len(buf) > 0 {
		slog.Warn("bytes fewer than record size remain at end of input",
			"component", "read_binary_stream", "remaining_bytes", len(buf), "record_size", recordSize)
	}
	return processor.Flush()
}
