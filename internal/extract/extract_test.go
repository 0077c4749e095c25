package extract

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, r io.Reader) string {
	t.Helper()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(data)
}

func TestStringStream(t *testing.T) {
	input := []byte("\x00\x01hello world\x00ab\x00\xffsecret\tkey\x02xyz")
	got := readAll(t, NewStringStream(bytes.NewReader(input), 4))
	assert.Equal(t, "hello world\nsecret\tkey\n", got)
}

func TestStringStream_MinPrintable(t *testing.T) {
	input := []byte("ab\x00abc\x00abcd")
	assert.Equal(t, "abc\nabcd\n", readAll(t, NewStringStream(bytes.NewReader(input), 3)))
	assert.Equal(t, "abcd\n", readAll(t, NewStringStream(bytes.NewReader(input), 0)), "defaults to four")
}

func TestStringStream_LongRun(t *testing.T) {
	long := strings.Repeat("a", 3*maxRun+17)
	input := append([]byte(long), 0, 'x')
	assert.Equal(t, long+"\n", readAll(t, NewStringStream(bytes.NewReader(input), 4)))
}

func TestStringStream_SmallReads(t *testing.T) {
	s := NewStringStream(strings.NewReader("\x00abcdef\x00ghijkl"), 4)
	buf := make([]byte, 3)
	var out strings.Builder
	for {
		n, err := s.Read(buf)
		out.Write(buf[:n])
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}
	assert.Equal(t, "abcdef\nghijkl\n", out.String())
}

func TestNewUTF16Reader(t *testing.T) {
	le := []byte{'h', 0, 'i', 0, 0x3d, 0xd8, 0x00, 0xde} // "hi😀"
	assert.Equal(t, "hi😀", readAll(t, NewUTF16Reader(bytes.NewReader(le), false)))

	be := []byte{0, 'h', 0, 'i'}
	assert.Equal(t, "hi", readAll(t, NewUTF16Reader(bytes.NewReader(be), true)))

	bom := []byte{0xfe, 0xff, 0, 'o', 0, 'k'}
	assert.Equal(t, "ok", readAll(t, NewUTF16Reader(bytes.NewReader(bom), false)), "BOM wins")

	unpaired := []byte{0x3d, 0xd8, 'a', 0}
	assert.Equal(t, "�a", readAll(t, NewUTF16Reader(bytes.NewReader(unpaired), false)))
}

func TestSniff(t *testing.T) {
	tests := []struct {
		name   string
		sample []byte
		want   Mode
	}{
		{"utf8 text", []byte("plain text ünïcode"), ModeText},
		{"utf16 le bom", []byte{0xff, 0xfe, 'a', 0}, ModeUTF16LE},
		{"utf16 be bom", []byte{0xfe, 0xff, 0, 'a'}, ModeUTF16BE},
		{"nul bytes", []byte("abc\x00def"), ModeStrings},
		{"invalid utf8", []byte("abc\xffdef"), ModeStrings},
		{"empty", nil, ModeText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sniff(tt.sample))
		})
	}
}

func TestSniff_TruncatedCharacter(t *testing.T) {
	sample := []byte(strings.Repeat("a", sniffSize-1) + "é")[:sniffSize]
	assert.Equal(t, ModeText, Sniff(sample))
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeAuto, m)

	m, err = ParseMode("utf16be")
	require.NoError(t, err)
	assert.Equal(t, ModeUTF16BE, m)

	_, err = ParseMode("pdf")
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestNewReader(t *testing.T) {
	r, mode, err := NewReader(strings.NewReader("hello"), ModeAuto, 4)
	require.NoError(t, err)
	assert.Equal(t, ModeText, mode)
	assert.Equal(t, "hello", readAll(t, r))

	r, mode, err = NewReader(bytes.NewReader([]byte("\x00\x00token\x00")), ModeAuto, 4)
	require.NoError(t, err)
	assert.Equal(t, ModeStrings, mode)
	assert.Equal(t, "token\n", readAll(t, r))

	_, _, err = NewReader(strings.NewReader("x"), Mode("rtf"), 4)
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("call 555-123-4567"), 0o600))

	rc, mode, err := Open(path, ModeAuto, 4)
	require.NoError(t, err)
	defer rc.Close()
	assert.Equal(t, ModeText, mode)
	assert.Equal(t, "call 555-123-4567", readAll(t, rc))

	_, _, err = Open(filepath.Join(dir, "missing"), ModeAuto, 4)
	assert.Error(t, err)
}
