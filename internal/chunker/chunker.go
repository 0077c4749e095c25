package chunker

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"log"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/dshills/kwindex/pkg/types"
)

const (
	// MaxTotalChunkSize is the hard ceiling for a chunk including its window,
	// one byte under the 32KB limit of an indexed field
	MaxTotalChunkSize = 32766

	// MinimumBaseChunkSize is read before looking for a whitespace break
	MinimumBaseChunkSize = 30 * 1024

	// MaximumBaseChunkSize is where the base is cut even without whitespace
	MaximumBaseChunkSize = 31 * 1024

	// WhiteSpaceBufferSize is reserved so the window's whitespace search
	// cannot push the chunk over MaxTotalChunkSize
	WhiteSpaceBufferSize = 512

	// LowerCaseSlack is held back from every target because lower-casing
	// can make the UTF-8 text longer
	LowerCaseSlack = 1024

	// ReadRunesBufferSize is the bulk read granularity in characters
	ReadRunesBufferSize = 512

	// Placeholder replaces characters that cannot be indexed
	Placeholder = '^'
)

var readBufPool = sync.Pool{
	New: func() any {
		buf := make([]rune, ReadRunesBufferSize)
		return &buf
	},
}

// Chunker splits a character stream into overlapping chunks of at most
// MaxTotalChunkSize UTF-8 bytes, breaking after whitespace where possible.
//
// A Chunker is a forward-only sequence: it is not restartable and not safe
// for concurrent use. Chunk n's window is re-read as the start of chunk n+1,
// so chunks must be consumed in order.
type Chunker struct {
	src    *runeSource
	valid  func(rune) bool
	logger *log.Logger

	chunkSizeBytes     int
	endOfReaderReached bool
	chunks             int
	err                error
}

// Option configures a Chunker
type Option func(*Chunker)

// WithValidator replaces the predicate deciding which characters can be
// indexed. Rejected characters are replaced with Placeholder.
func WithValidator(valid func(rune) bool) Option {
	return func(c *Chunker) {
		if valid != nil {
			c.valid = valid
		}
	}
}

// WithLogger sets the logger used to report read failures
func WithLogger(logger *log.Logger) Option {
	return func(c *Chunker) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a Chunker reading UTF-8 text from r. Invalid byte sequences
// are kept as single characters and sanitized.
func New(r io.Reader, opts ...Option) *Chunker {
	if rr, ok := r.(io.RuneReader); ok {
		return NewFromRunes(rr, opts...)
	}
	return NewFromRunes(bufio.NewReader(r), opts...)
}

// NewFromRunes creates a Chunker over any rune producer
func NewFromRunes(rr io.RuneReader, opts ...Option) *Chunker {
	c := &Chunker{
		src:    newRuneSource(rr),
		valid:  ValidForIndex,
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HasNext reports whether another chunk can be read. After a read failure it
// returns false and Err reports the failure.
func (c *Chunker) HasNext() bool {
	if c.err != nil || c.endOfReaderReached {
		return false
	}
	return c.src.hasMore()
}

// Err returns the read failure that ended the sequence, if any
func (c *Chunker) Err() error {
	return c.err
}

// Next reads the next chunk. It returns io.EOF once the stream is exhausted.
// Any other error is fatal to the sequence.
func (c *Chunker) Next() (*types.Chunk, error) {
	if c.err != nil {
		return nil, c.err
	}
	if !c.HasNext() {
		if c.err != nil {
			return nil, c.err
		}
		return nil, io.EOF
	}

	bufp := readBufPool.Get().(*[]rune)
	defer readBufPool.Put(bufp)
	buf := *bufp

	c.chunkSizeBytes = 0
	text := make([]rune, 0, MaxTotalChunkSize/2)

	text, err := c.readBase(text, buf)
	if err != nil {
		return nil, c.fail(err)
	}
	baseRunes := len(text)

	window, err := c.readWindow(make([]rune, 0, WhiteSpaceBufferSize*4), buf)
	if err != nil {
		return nil, c.fail(err)
	}

	text = append(text, window...)
	if c.endOfReaderReached {
		// No next chunk will repeat the window.
		baseRunes = len(text)
	} else {
		c.src.unread(window)
	}

	c.sanitize(text)
	c.chunks++

	return types.NewChunk(string(text), runesLen(text[:baseRunes])), nil
}

// All returns the remaining chunks as an iterator. Iteration stops after the
// first error, which is yielded with a nil chunk.
func (c *Chunker) All() iter.Seq2[*types.Chunk, error] {
	return func(yield func(*types.Chunk, error) bool) {
		for c.HasNext() {
			chunk, err := c.Next()
			if !yield(chunk, err) || err != nil {
				return
			}
		}
		if c.err != nil {
			yield(nil, c.err)
		}
	}
}

func (c *Chunker) fail(err error) error {
	c.err = fmt.Errorf("failed to read chunk %d: %w", c.chunks+1, err)
	c.logger.Printf("chunker: %v", c.err)
	return c.err
}

// readBase reads the base region: bulk up to the minimum size, then one
// character at a time until whitespace or the maximum size
func (c *Chunker) readBase(seg, buf []rune) ([]rune, error) {
	seg, err := c.readHelper(MinimumBaseChunkSize-LowerCaseSlack, seg, buf)
	if err != nil {
		return seg, err
	}
	return c.readToWhiteSpaceHelper(MaximumBaseChunkSize-LowerCaseSlack, seg)
}

// readWindow reads the overlap, leaving room to look for whitespace before
// the total ceiling
func (c *Chunker) readWindow(seg, buf []rune) ([]rune, error) {
	seg, err := c.readHelper(MaxTotalChunkSize-WhiteSpaceBufferSize-LowerCaseSlack, seg, buf)
	if err != nil {
		return seg, err
	}
	return c.readToWhiteSpaceHelper(MaxTotalChunkSize-LowerCaseSlack, seg)
}

// readHelper appends whole blocks while the chunk stays under maxBytes. A
// block that would cross the limit is pushed back unread. Blocks are made of
// whole runes, so a multi-byte character never straddles a boundary.
func (c *Chunker) readHelper(maxBytes int, seg, buf []rune) ([]rune, error) {
	for c.chunkSizeBytes < maxBytes && !c.endOfReaderReached {
		n, err := c.src.read(buf)
		if err == io.EOF {
			c.endOfReaderReached = true
			return seg, nil
		}
		if err != nil {
			return seg, err
		}

		block := buf[:n]
		size := runesLen(block)
		if c.chunkSizeBytes+size >= maxBytes {
			c.src.unread(block)
			return seg, nil
		}
		seg = append(seg, block...)
		c.chunkSizeBytes += size
	}
	return seg, nil
}

// readToWhiteSpaceHelper appends single characters until one is whitespace
// (which is kept), the stream ends, or one more character could reach maxBytes
func (c *Chunker) readToWhiteSpaceHelper(maxBytes int, seg []rune) ([]rune, error) {
	for c.chunkSizeBytes < maxBytes-utf8.UTFMax && !c.endOfReaderReached {
		r, err := c.src.readRune()
		if err == io.EOF {
			c.endOfReaderReached = true
			return seg, nil
		}
		if err != nil {
			return seg, err
		}

		seg = append(seg, r)
		c.chunkSizeBytes += runeLen(r)
		if unicode.IsSpace(r) {
			break
		}
	}
	return seg, nil
}

// sanitize replaces every character that cannot be indexed
func (c *Chunker) sanitize(text []rune) {
	for i, r := range text {
		if !c.valid(r) {
			text[i] = Placeholder
		}
	}
}
