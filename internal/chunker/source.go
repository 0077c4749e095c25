package chunker

import (
	"io"
	"unicode/utf8"
)

// invalidRune marks a byte sequence that did not decode as UTF-8. It is
// never a valid character, so sanitization replaces it.
const invalidRune rune = -1

// runeSource reads runes from an io.RuneReader through a lookahead buffer
// owned by the chunker. Runes handed back with unread are returned again,
// in order, before anything new is read from the underlying reader.
type runeSource struct {
	rr      io.RuneReader
	pending []rune
	head    int
	eof     bool
	err     error
}

func newRuneSource(rr io.RuneReader) *runeSource {
	return &runeSource{
		rr:      rr,
		pending: make([]rune, 0, MaxTotalChunkSize),
	}
}

// buffered returns the number of runes waiting in the lookahead buffer
func (s *runeSource) buffered() int {
	return len(s.pending) - s.head
}

// readRune returns the next rune or io.EOF
func (s *runeSource) readRune() (rune, error) {
	if s.head < len(s.pending) {
		r := s.pending[s.head]
		s.head++
		if s.head == len(s.pending) {
			s.pending = s.pending[:0]
			s.head = 0
		}
		return r, nil
	}
	if s.err != nil {
		return 0, s.err
	}
	if s.eof {
		return 0, io.EOF
	}

	r, size, err := s.rr.ReadRune()
	if err != nil {
		if err == io.EOF {
			s.eof = true
		} else {
			s.err = err
		}
		return 0, err
	}
	if r == utf8.RuneError && size <= 1 {
		r = invalidRune
	}
	return r, nil
}

// read fills buf with up to len(buf) runes. It returns 0, io.EOF only when
// nothing at all could be read.
func (s *runeSource) read(buf []rune) (int, error) {
	n := 0
	for n < len(buf) {
		r, err := s.readRune()
		if err != nil {
			if n > 0 && err == io.EOF {
				return n, nil
			}
			return n, err
		}
		buf[n] = r
		n++
	}
	return n, nil
}

// unread pushes runes back so they are read again before anything else
func (s *runeSource) unread(rs []rune) {
	if len(rs) == 0 {
		return
	}
	if len(rs) <= s.head {
		s.head -= len(rs)
		copy(s.pending[s.head:], rs)
		return
	}
	rest := s.pending[s.head:]
	if len(rest) == 0 && cap(s.pending) >= len(rs) {
		s.pending = append(s.pending[:0], rs...)
		s.head = 0
		return
	}
	merged := make([]rune, 0, max(len(rs)+len(rest), MaxTotalChunkSize))
	merged = append(merged, rs...)
	merged = append(merged, rest...)
	s.pending = merged
	s.head = 0
}

// hasMore reports whether at least one more rune (or a pending read error)
// is available. It may read ahead one rune into the lookahead buffer.
func (s *runeSource) hasMore() bool {
	if s.buffered() > 0 || s.err != nil {
		return true
	}
	if s.eof {
		return false
	}
	r, err := s.readRune()
	if err != nil {
		return err != io.EOF
	}
	s.unread([]rune{r})
	return true
}

// runeLen is the number of bytes r takes once encoded as UTF-8. Invalid
// runes count as the replacement character they would encode to.
func runeLen(r rune) int {
	if n := utf8.RuneLen(r); n > 0 {
		return n
	}
	return utf8.RuneLen(utf8.RuneError)
}

// runesLen is the exact UTF-8 byte length of rs
func runesLen(rs []rune) int {
	n := 0
	for _, r := range rs {
		n += runeLen(r)
	}
	return n
}
