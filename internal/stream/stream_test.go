package stream

import (
	"bytes"
	"testing"
)

func TestNullStream(t *testing.T) {
	s := NewNullStream()
	if !s.IsEOF() || s.IsGood() || s.IsError() {
		t.Fatalf("null stream should be EOF, not good, not error")
	}
	buf := make([]byte, 4)
	if n := s.Read(buf); n != 0 {
		t.Fatalf("expected 0 bytes read, got %d", n)
	}
}

func TestBytesStream_ReadAndEOF(t *testing.T) {
	s := NewBytesStream([]byte{1, 2, 3, 4, 5})
	buf := make([]byte, 3)
	n := s.Read(buf)
	if n != 3 || !bytes.Equal(buf, []byte{1, 2, 3}) {
		t.Fatalf("got %d bytes %v", n, buf[:n])
	}
	if s.IsEOF() {
		t.Fatal("should not be at EOF yet")
	}
	n = s.Read(buf)
	if n != 2 || !bytes.Equal(buf[:2], []byte{4, 5}) {
		t.Fatalf("got %d bytes %v", n, buf[:n])
	}
	if !s.IsEOF() || s.IsGood() {
		t.Fatal("should be at EOF and not good")
	}
}

func TestBytesStream_TellAndSkip(t *testing.T) {
	s := NewBytesStream([]byte{0, 1, 2, 3, 4, 5, 6, 7})
	pos, ok := s.Tell()
	if !ok || pos != 0 {
		t.Fatalf("expected tell 0, got %d ok=%v", pos, ok)
	}
	if !s.Skip(3) {
		t.Fatal("skip should succeed")
	}
	pos, ok = s.Tell()
	if !ok || pos != 3 {
		t.Fatalf("expected tell 3 after skip, got %d", pos)
	}
	buf := make([]byte, 2)
	s.Read(buf)
	if !bytes.Equal(buf, []byte{3, 4}) {
		t.Fatalf("expected bytes starting at 3, got %v", buf)
	}
}

func TestBytesStream_SkipPastEndClampsToLength(t *testing.T) {
	s := NewBytesStream([]byte{1, 2, 3})
	if !s.Skip(100) {
		t.Fatal("skip should succeed even past the end")
	}
	if !s.IsEOF() {
		t.Fatal("should be at EOF after skipping past the end")
	}
}

func TestReaderStream_SeekableTellAndSkip(t *testing.T) {
	r := bytes.NewReader([]byte{10, 20, 30, 40, 50})
	s := NewReaderStream(r)
	if !s.Skip(2) {
		t.Fatal("skip should succeed on a seekable reader")
	}
	pos, ok := s.Tell()
	if !ok || pos != 2 {
		t.Fatalf("expected tell 2, got %d ok=%v", pos, ok)
	}
	buf := make([]byte, 2)
	n := s.Read(buf)
	if n != 2 || !bytes.Equal(buf, []byte{30, 40}) {
		t.Fatalf("got %d bytes %v", n, buf[:n])
	}
}

type noSeekReader struct{ r *bytes.Reader }

func (n *noSeekReader) Read(p []byte) (int, error) { return n.r.Read(p) }

func TestReaderStream_NonSeekableSkipFallsBackToDiscard(t *testing.T) {
	r := &noSeekReader{r: bytes.NewReader([]byte{1, 2, 3, 4, 5, 6})}
	s := NewReaderStream(r)
	if _, ok := s.Tell(); ok {
		t.Fatal("a non-seekable reader should not report a tell position")
	}
	if !s.Skip(3) {
		t.Fatal("skip should fall back to read-and-discard")
	}
	buf := make([]byte, 3)
	n := s.Read(buf)
	if n != 3 || !bytes.Equal(buf, []byte{4, 5, 6}) {
		t.Fatalf("got %d bytes %v", n, buf[:n])
	}
}

func TestReaderStream_EOFAndErrorFlags(t *testing.T) {
	r := bytes.NewReader([]byte{1, 2})
	s := NewReaderStream(r)
	buf := make([]byte, 4)
	s.Read(buf)  // drains the 2 available bytes, n=2 err=nil
	s.Read(buf)  // next call observes io.EOF
	if !s.IsEOF() {
		t.Fatal("expected EOF after exhausting the reader")
	}
	if s.IsError() {
		t.Fatal("plain EOF is not an error")
	}
	if s.IsGood() {
		t.Fatal("should not be good once at EOF")
	}
}
