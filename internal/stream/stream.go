// Package stream adapts raw binary device streams (files, stdio, in-memory
// buffers) to and from the fixed-size record decoders in internal/decode.
//
// Grounded on original_source/include/libtcspc/read_binary_stream.hpp's
// documented input-stream contract (is_error/is_eof/is_good/tell/skip/read),
// translated from a C++ concept to a Go interface.
package stream

import "io"

// Stream is an input byte source with the seek/probe surface
// read_binary_stream.hpp requires of its InputStream template parameter.
// Tell reports the current offset when known; Skip advances the read
// position, falling back to read-and-discard when the underlying source
// cannot seek.
type Stream interface {
	IsError() bool
	IsEOF() bool
	IsGood() bool
	Tell() (pos int64, ok bool)
	Skip(n int64) bool
	Read(buf []byte) int
}

type nullStream struct{}

// NewNullStream returns a Stream that is always at EOF and never good,
// mirroring original_source's null_input_stream.
func NewNullStream() Stream { return nullStream{} }

func (nullStream) IsError() bool         { return false }
func (nullStream) IsEOF() bool           { return true }
func (nullStream) IsGood() bool          { return false }
func (nullStream) Tell() (int64, bool)   { return 0, false }
func (nullStream) Skip(int64) bool       { return false }
func (nullStream) Read([]byte) int       { return 0 }

// bytesStream is an in-memory Stream over a fixed byte slice.
type bytesStream struct {
	data []byte
	pos  int
}

// NewBytesStream returns a Stream that reads from data, useful for tests
// and for replaying captured device output.
func NewBytesStream(data []byte) Stream {
	return &bytesStream{data: data}
}

func (s *bytesStream) IsError() bool { return false }
func (s *bytesStream) IsEOF() bool   { return s.pos >= len(s.data) }
func (s *bytesStream) IsGood() bool  { return s.pos < len(s.data) }

func (s *bytesStream) Tell() (int64, bool) { return int64(s.pos), true }

func (s *bytesStream) Skip(n int64) bool {
	if n < 0 {
		return false
	}
	s.pos += int(n)
	if s.pos > len(s.data) {
		s.pos = len(s.data)
	}
	return true
}

func (s *bytesStream) Read(buf []byte) int {
	n := copy(buf, s.data[s.pos:])
	s.pos += n
	return n
}

// readerStream wraps an io.Reader (e.g. os.Stdin, an os.File). When the
// reader also implements io.Seeker, Tell and Skip use it directly;
// otherwise Skip falls back to reading and discarding in fixed-size
// chunks, matching original_source's skip_stream_bytes fallback for
// streams that don't support seeking (pipes, stdin).
type readerStream struct {
	r      io.Reader
	seeker io.Seeker
	eof    bool
	err    bool
}

const skipChunkSize = 32768

// NewReaderStream wraps r as a Stream. Pass an *os.File to get seek-backed
// Tell/Skip; any other io.Reader works with the read-and-discard fallback.
func NewReaderStream(r io.Reader) Stream {
	s := &readerStream{r: r}
	if sk, ok := r.(io.Seeker); ok {
		s.seeker = sk
	}
	return s
}

func (s *readerStream) IsError() bool { return s.err }
func (s *readerStream) IsEOF() bool   { return s.eof }
func (s *readerStream) IsGood() bool  { return !s.err && !s.eof }

func (s *readerStream) Tell() (int64, bool) {
	if s.seeker == nil {
		return 0, false
	}
	pos, err := s.seeker.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, false
	}
	return pos, true
}

func (s *readerStream) Skip(n int64) bool {
	if n < 0 {
		return false
	}
	if s.seeker != nil {
		if _, err := s.seeker.Seek(n, io.SeekCurrent); err != nil {
			return false
		}
		return true
	}
	buf := make([]byte, skipChunkSize)
	for remaining := n; remaining > 0; {
		want := int64(len(buf))
		if remaining < want {
			want = remaining
		}
		got := s.Read(buf[:want])
		remaining -= int64(got)
		if got == 0 {
			return false
		}
	}
	return true
}

func (s *readerStream) Read(buf []byte) int {
	n, err := s.r.Read(buf)
	switch {
	case err == io.EOF:
		s.eof = true
	case err != nil:
		s.err = true
	}
	return n
}
