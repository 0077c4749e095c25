package types

import (
	"fmt"
	"unique"
)

// SourceKind says what kind of object a chunked document came from
type SourceKind string

const (
	SourceContent  SourceKind = "content"
	SourceArtifact SourceKind = "artifact"
)

// Source identifies a chunked document. Exactly one id kind is carried.
type Source struct {
	Kind SourceKind
	ID   int64
}

// ContentSource returns a Source for file content
func ContentSource(id int64) Source {
	return Source{Kind: SourceContent, ID: id}
}

// ArtifactSource returns a Source for artifact text
func ArtifactSource(id int64) Source {
	return Source{Kind: SourceArtifact, ID: id}
}

// IsArtifact reports whether the source is an artifact
func (s Source) IsArtifact() bool {
	return s.Kind == SourceArtifact
}

// Validate checks the source kind and id
func (s Source) Validate() error {
	if s.Kind != SourceContent && s.Kind != SourceArtifact {
		return ErrInvalidSource
	}
	if s.ID <= 0 {
		return ErrInvalidSource
	}
	return nil
}

// DocumentID returns the index document id for a chunk of this source,
// "<id>_<chunk>"; chunk 0 addresses the whole source.
func (s Source) DocumentID(chunkID int) string {
	if chunkID == 0 {
		return fmt.Sprintf("%d", s.ID)
	}
	return fmt.Sprintf("%d_%d", s.ID, chunkID)
}

func (s Source) String() string {
	return fmt.Sprintf("%s:%d", s.Kind, s.ID)
}

// Hit is a single keyword match inside a chunk. Hits are never modified
// after creation.
type Hit struct {
	Source  Source
	ChunkID int
	Snippet string
	Text    string
}

// NewHit creates a hit. The hit text is interned since large documents
// repeat the same matches many times.
func NewHit(src Source, chunkID int, snippet, text string) Hit {
	return Hit{
		Source:  src,
		ChunkID: chunkID,
		Snippet: snippet,
		Text:    unique.Make(text).Value(),
	}
}

// Validate checks the hit
func (h Hit) Validate() error {
	if err := h.Source.Validate(); err != nil {
		return err
	}
	if h.ChunkID < 0 {
		return ErrInvalidChunkID
	}
	if h.Text == "" {
		return ErrEmptyContent
	}
	return nil
}
