package extract

import (
	"bufio"
	"io"
)

const (
	// DefaultMinPrintable is the shortest printable run kept from binary data
	DefaultMinPrintable = 4

	// maxRun bounds the bytes held while a run is still growing
	maxRun = 4096
)

// StringStream reads printable ASCII runs out of binary data. Runs of at
// least minPrintable characters are emitted, each followed by a newline.
type StringStream struct {
	r   *bufio.Reader
	min int

	run  []byte
	long bool // part of the current run was already emitted
	out  []byte
	pos  int
	err  error
}

// NewStringStream wraps binary data in a StringStream
func NewStringStream(r io.Reader, minPrintable int) *StringStream {
	if minPrintable <= 0 {
		minPrintable = DefaultMinPrintable
	}
	return &StringStream{
		r:   bufio.NewReader(r),
		min: minPrintable,
		run: make([]byte, 0, maxRun),
	}
}

// Read implements io.Reader
func (s *StringStream) Read(p []byte) (int, error) {
	for s.pos == len(s.out) {
		if s.err != nil {
			return 0, s.err
		}
		s.out = s.out[:0]
		s.pos = 0
		s.fill()
	}
	n := copy(p, s.out[s.pos:])
	s.pos += n
	return n, nil
}

func (s *StringStream) fill() {
	for len(s.out) == 0 && s.err == nil {
		b, err := s.r.ReadByte()
		if err != nil {
			s.endRun()
			s.err = err
			return
		}
		if !isPrintable(b) {
			s.endRun()
			continue
		}
		s.run = append(s.run, b)
		if len(s.run) >= maxRun {
			s.out = append(s.out, s.run...)
			s.run = s.run[:0]
			s.long = true
		}
	}
}

func (s *StringStream) endRun() {
	if s.long || len(s.run) >= s.min {
		s.out = append(s.out, s.run...)
		s.out = append(s.out, '\n')
	}
	s.run = s.run[:0]
	s.long = false
}

func isPrintable(b byte) bool {
	return (b >= 0x20 && b <= 0x7e) || b == '\t'
}
