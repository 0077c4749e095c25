package types

import "errors"

// Domain errors for type validation
var (
	ErrInvalidChunkID       = errors.New("invalid chunk ID")
	ErrInvalidRank          = errors.New("rank must be >= 1")
	ErrInvalidSource        = errors.New("source must carry exactly one positive content or artifact id")
	ErrEmptyContent         = errors.New("content cannot be empty")
	ErrEmptySearchTerm      = errors.New("search term cannot be empty")
	ErrUnknownAttributeType = errors.New("unknown attribute type")
)
