package extract

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Mode selects how a file is turned into text
type Mode string

const (
	ModeAuto    Mode = "auto"
	ModeText    Mode = "text"
	ModeStrings Mode = "strings"
	ModeUTF16LE Mode = "utf16le"
	ModeUTF16BE Mode = "utf16be"
)

// sniffSize is the number of leading bytes inspected in ModeAuto
const sniffSize = 512

// ErrUnknownMode is returned for an unsupported Mode
var ErrUnknownMode = errors.New("unknown extraction mode")

// ParseMode converts a configuration string into a Mode
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case "":
		return ModeAuto, nil
	case ModeAuto, ModeText, ModeStrings, ModeUTF16LE, ModeUTF16BE:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// NewUTF16Reader decodes UTF-16 text to UTF-8. A byte order mark overrides
// bigEndian. Unpaired surrogates decode to U+FFFD.
func NewUTF16Reader(r io.Reader, bigEndian bool) io.Reader {
	endian := unicode.LittleEndian
	if bigEndian {
		endian = unicode.BigEndian
	}
	return transform.NewReader(r, unicode.UTF16(endian, unicode.UseBOM).NewDecoder())
}

// Sniff guesses the mode for a file from its first bytes
func Sniff(sample []byte) Mode {
	switch {
	case bytes.HasPrefix(sample, []byte{0xff, 0xfe}):
		return ModeUTF16LE
	case bytes.HasPrefix(sample, []byte{0xfe, 0xff}):
		return ModeUTF16BE
	case bytes.IndexByte(sample, 0) >= 0:
		return ModeStrings
	}

	// a full sample may end inside a character
	if len(sample) == sniffSize {
		for i := 0; i < utf8.UTFMax-1 && !utf8.Valid(sample); i++ {
			sample = sample[:len(sample)-1]
		}
	}
	if utf8.Valid(sample) {
		return ModeText
	}
	return ModeStrings
}

// NewReader wraps r for mode. ModeAuto sniffs the leading bytes; the mode
// actually used is returned.
func NewReader(r io.Reader, mode Mode, minPrintable int) (io.Reader, Mode, error) {
	br := bufio.NewReader(r)
	if mode == ModeAuto || mode == "" {
		sample, err := br.Peek(sniffSize)
		if err != nil && err != io.EOF && !errors.Is(err, bufio.ErrBufferFull) {
			return nil, "", fmt.Errorf("failed to sniff content: %w", err)
		}
		mode = Sniff(sample)
	}

	switch mode {
	case ModeText:
		return br, mode, nil
	case ModeStrings:
		return NewStringStream(br, minPrintable), mode, nil
	case ModeUTF16LE:
		return NewUTF16Reader(br, false), mode, nil
	case ModeUTF16BE:
		return NewUTF16Reader(br, true), mode, nil
	default:
		return nil, "", fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
}

type fileReader struct {
	io.Reader
	f *os.File
}

func (r *fileReader) Close() error {
	return r.f.Close()
}

// Open opens path as a text stream. The caller closes the result.
func Open(path string, mode Mode, minPrintable int) (io.ReadCloser, Mode, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	r, used, err := NewReader(f, mode, minPrintable)
	if err != nil {
		f.Close()
		return nil, "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return &fileReader{Reader: r, f: f}, used, nil
}
