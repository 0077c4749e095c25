package types

import (
	"errors"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Chunk is a size-bounded slice of extracted document text. The first
// BaseLength bytes of Text are the base region; the rest is the window that
// is repeated at the start of the next chunk.
type Chunk struct {
	// ID is assigned by the caller once the chunk has been produced.
	ID int

	Text       string
	BaseLength int // byte offset into Text, always on a rune boundary

	lower   string
	lowered bool
}

// NewChunk creates a chunk from its text and the byte length of its base region
func NewChunk(text string, baseLength int) *Chunk {
	return &Chunk{Text: text, BaseLength: baseLength}
}

// Base returns the part of the chunk that is not repeated in the next chunk
func (c *Chunk) Base() string {
	return c.Text[:c.BaseLength]
}

// Window returns the overlapping tail of the chunk
func (c *Chunk) Window() string {
	return c.Text[c.BaseLength:]
}

// BaseRunes returns the number of characters in the base region
func (c *Chunk) BaseRunes() int {
	return utf8.RuneCountInString(c.Base())
}

// Lower returns the lower-cased chunk text. The conversion runs once per
// chunk and is cached; a chunk is owned by one goroutine at a time.
func (c *Chunk) Lower() string {
	if !c.lowered {
		c.lower = LowerCase(c.Text)
		c.lowered = true
	}
	return c.lower
}

// Validate checks the chunk invariants
func (c *Chunk) Validate() error {
	if c.BaseLength < 0 || c.BaseLength > len(c.Text) {
		return errors.New("base length out of range")
	}
	if c.BaseLength < len(c.Text) && !utf8.RuneStart(c.Text[c.BaseLength]) {
		return errors.New("base length splits a character")
	}
	return nil
}

// LowerCase lower-cases text with full Unicode case mapping. Keywords and
// chunk text go through the same function so containment checks agree.
func LowerCase(s string) string {
	return cases.Lower(language.Und).String(s)
}
