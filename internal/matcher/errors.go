package matcher

import (
	"errors"
	"fmt"

	"github.com/dshills/kwindex/pkg/types"
)

// ErrCatastrophicMatch marks a failure inside the regular expression engine.
// The document being searched should be skipped; other documents are fine.
var ErrCatastrophicMatch = errors.New("catastrophic match failure")

// MatchError reports which document, chunk and keyword a catastrophic match
// failure happened in
type MatchError struct {
	Source  types.Source
	ChunkID int
	Keyword types.Keyword
	Err     error
}

func (e *MatchError) Error() string {
	return fmt.Sprintf("failed to create keyword hits for document %s, keyword %q: %v",
		e.Source.DocumentID(e.ChunkID), e.Keyword.SearchTerm(), e.Err)
}

func (e *MatchError) Unwrap() error {
	return e.Err
}

// newMatchError converts a recovered panic value
func newMatchError(src types.Source, chunkID int, kw types.Keyword, r any) *MatchError {
	var err error
	if e, ok := r.(error); ok {
		err = fmt.Errorf("%w: %w", ErrCatastrophicMatch, e)
	} else {
		err = fmt.Errorf("%w: %v", ErrCatastrophicMatch, r)
	}
	return &MatchError{Source: src, ChunkID: chunkID, Keyword: kw, Err: err}
}
