package stream

import (
	"fmt"
	"io"

	"github.com/crimson-sun/tcspc/internal/decode"
)

// binaryWriter writes fixed-size raw records to an io.Writer. There is no
// write_binary_stream.hpp in original_source to port; this is the dual of
// ReadBinaryStream, written the same way, with Go's io.Writer standing in
// for the custom output-stream abstraction the C++ side needed and Go
// doesn't (io.Writer, plus an optional Flush/Sync, already is the
// idiomatic Go sink contract).
type binaryWriter struct {
	dst        io.Writer
	recordSize int
}

// NewBinaryStreamWriter returns a decode.RecordProcessor that writes each
// record it's handed straight through to dst. recordSize must match the
// upstream decoder's RecordSize so the two sides of a decode/re-encode
// pipeline can be composed directly.
func NewBinaryStreamWriter(dst io.Writer, recordSize int) decode.RecordProcessor {
	return &binaryWriter{dst: dst, recordSize: recordSize}
}

func (w *binaryWriter) RecordSize() int { return w.recordSize }

func (w *binaryWriter) HandleRecord(raw []byte) error {
	if len(raw) != w.recordSize {
		return fmt.Errorf("write_binary_stream: invalid record size: want %d got %d", w.recordSize, len(raw))
	}
	if _, err := w.dst.Write(raw); err != nil {
		return fmt.Errorf("write_binary_stream: %w", err)
	}
	return nil
}

func (w *binaryWriter) Flush() error {
	switch f := w.dst.(type) {
	case interface{ Flush() error }:
		return f.Flush()
	case interface{ Sync() error }:
		return f.Sync()
	default:
		return nil
	}
}
