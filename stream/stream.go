// Package stream implements a chained-chunk output buffer for a command
// session: writes accumulate in fixed-size chunks, and the accumulated
// bytes are later flushed to a destination writer either verbatim or
// filtered line-by-line through a regular expression.
package stream

import (
	"fmt"
	"io"

	"github.com/dlclark/regexp2"
)

// ChunkSize is the capacity of one stream chunk, matching BUFSIZE in the
// original stream.c.
const ChunkSize = 4096

type chunk struct {
	data       [ChunkSize]byte
	head, tail int
	next       *chunk
}

// Stream is a FIFO byte buffer built from a linked list of fixed chunks.
// The zero value is ready to use.
type Stream struct {
	first, last *chunk
	count       int
}

// New returns an empty Stream.
func New() *Stream {
	return &Stream{}
}

// Len reports the number of unconsumed bytes buffered in the stream.
func (s *Stream) Len() int {
	return s.count
}

// Write appends p to the stream. It never fails except on allocation
// failure, which Go will panic on rather than report, so the error return
// is always nil; it exists to satisfy io.Writer.
func (s *Stream) Write(p []byte) (int, error) {
	n := len(p)
	if n == 0 {
		return 0, nil
	}

	if s.last == nil {
		s.first = &chunk{}
		s.last = s.first
	}

	s.count += n
	for len(p) > 0 {
		if s.last.head == ChunkSize {
			next := &chunk{}
			s.last.next = next
			s.last = next
		}
		m := copy(s.last.data[s.last.head:], p)
		s.last.head += m
		p = p[m:]
	}

	return n, nil
}

// WriteByte appends a single byte to the stream.
func (s *Stream) WriteByte(c byte) error {
	_, err := s.Write([]byte{c})
	return err
}

// WriteString appends str to the stream.
func (s *Stream) WriteString(str string) (int, error) {
	return s.Write([]byte(str))
}

const printfScratch = 256

// Printf formats fmt/args into the stream. It formats into a small
// stack-local scratch buffer first; if the result doesn't fit, it
// reformats (not rewinds) into a heap buffer sized to the actual output,
// matching stream_vputs's vsnprintf-then-retry-with-va_copy shape.
func (s *Stream) Printf(format string, args ...interface{}) int {
	var scratch [printfScratch]byte
	buf := fmt.Appendf(scratch[:0], format, args...)
	if len(buf) > printfScratch {
		buf = []byte(fmt.Sprintf(format, args...))
	}
	s.Write(buf)
	return len(buf)
}

// Read consumes up to len(p) bytes from the front of the stream.
func (s *Stream) Read(p []byte) (int, error) {
	if s.count == 0 {
		return 0, io.EOF
	}

	n := 0
	for s.first != nil && n < len(p) {
		block := s.first.head - s.first.tail
		if block == 0 {
			dead := s.first
			s.first = s.first.next
			if s.first == nil {
				s.last = nil
			}
			_ = dead
			continue
		}
		m := copy(p[n:], s.first.data[s.first.tail:s.first.head])
		s.first.tail += m
		n += m
		if s.first.tail == s.first.head && s.first.head == ChunkSize {
			s.first = s.first.next
			if s.first == nil {
				s.last = nil
			}
		}
	}

	s.count -= n
	return n, nil
}

// ReadByte reads and consumes a single byte. It reports io.EOF when the
// stream is empty.
func (s *Stream) ReadByte() (byte, error) {
	var b [1]byte
	n, err := s.Read(b[:])
	if n == 0 {
		if err == nil {
			err = io.EOF
		}
		return 0, err
	}
	return b[0], nil
}

// FlushTo writes every buffered chunk to w in order and consumes exactly
// the number of bytes w accepted, stopping at the first short write or
// error -- the sequential-Write substitute for the original's single
// writev call (see DESIGN.md: Go's io.Writer has no portable multi-buffer
// write outside net.Buffers).
func (s *Stream) FlushTo(w io.Writer) (int, error) {
	total := 0
	for s.first != nil {
		block := s.first.data[s.first.tail:s.first.head]
		if len(block) == 0 {
			s.first = s.first.next
			if s.first == nil {
				s.last = nil
			}
			continue
		}
		n, err := w.Write(block)
		s.first.tail += n
		total += n
		s.count -= n
		if err != nil {
			return total, err
		}
		if n < len(block) {
			return total, io.ErrShortWrite
		}
		if s.first.tail == s.first.head {
			s.first = s.first.next
			if s.first == nil {
				s.last = nil
			}
		}
	}
	return total, nil
}

// FlushFiltered compiles pattern once and drains the stream line by line
// (split on CR or LF), writing to w only the lines that match, each
// followed by CRLF; a final line with no CR or LF after it is written
// without one. On a pattern compile error, the error text is written
// to w and the stream is fully drained without being flushed further.
// Matches stream_flush_regexp.
func (s *Stream) FlushFiltered(w io.Writer, pattern string) error {
	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		fmt.Fprintf(w, "regexp compile error: %s\n", err)
		s.discard()
		return err
	}

	var line []byte
	flushLine := func(terminated bool) {
		if len(line) == 0 {
			return
		}
		if ok, _ := re.MatchString(string(line)); ok {
			w.Write(line)
			if terminated {
				w.Write([]byte("\r\n"))
			}
		}
		line = line[:0]
	}

	for {
		c, err := s.ReadByte()
		if err != nil {
			break
		}
		if c == '\r' || c == '\n' {
			flushLine(true)
			continue
		}
		line = append(line, c)
	}
	flushLine(false)

	return nil
}

func (s *Stream) discard() {
	s.first, s.last, s.count = nil, nil, 0
}
