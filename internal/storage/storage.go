package storage

import (
	"context"
	"time"

	"github.com/dshills/kwindex/pkg/types"
)

// Storage defines the interface for persisting chunked documents and the
// keyword hits found in them
type Storage interface {
	// Source operations
	UpsertSource(ctx context.Context, source *Source) error
	GetSource(ctx context.Context, sourceID int64) (*Source, error)
	GetSourceByPath(ctx context.Context, path string) (*Source, error)
	ListSources(ctx context.Context) ([]*Source, error)

	// Chunk operations
	UpsertChunk(ctx context.Context, chunk *Chunk) error
	GetChunk(ctx context.Context, sourceID int64, chunkID int) (*Chunk, error)
	ListChunksBySource(ctx context.Context, sourceID int64) ([]*Chunk, error)
	DeleteChunksBySource(ctx context.Context, sourceID int64) error

	// Hit operations
	InsertHit(ctx context.Context, hit *KeywordHit) error
	ListHitsBySource(ctx context.Context, sourceID int64) ([]*KeywordHit, error)
	ListHitsByKeyword(ctx context.Context, listName, originalTerm string) ([]*KeywordHit, error)
	DeleteHitsBySource(ctx context.Context, sourceID int64) error

	// Attribute operations
	InsertAttributes(ctx context.Context, hitID int64, attrs map[string]string) error
	ListAttributes(ctx context.Context, hitID int64) (map[string]string, error)

	// Job operations
	CreateJob(ctx context.Context, job *IngestJob) error
	FinishJob(ctx context.Context, job *IngestJob) error
	GetJob(ctx context.Context, jobID string) (*IngestJob, error)

	// Search operations
	SearchText(ctx context.Context, query string, limit int) ([]TextResult, error)

	// Status operations
	GetStatus(ctx context.Context) (*Status, error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Storage // Embed Storage interface for transaction operations
}

// Source is an ingested document: a file's content or artifact text
type Source struct {
	ID            int64
	Kind          types.SourceKind
	Path          string
	Mode          string // extraction mode used to read the document
	ContentHash   [32]byte
	SizeBytes     int64
	ChunkCount    int
	IndexError    *string // Nullable
	LastIndexedAt time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Ref returns the source identity used by the matcher
func (s *Source) Ref() types.Source {
	return types.Source{Kind: s.Kind, ID: s.ID}
}

// Chunk is a stored chunk of a source. ChunkID is the 1-based position in
// the source; ID is the row id.
type Chunk struct {
	ID          int64
	SourceID    int64
	ChunkID     int
	BaseLength  int
	Content     string
	ContentHash [32]byte
	CreatedAt   time.Time
}

// ToTypesChunk converts a stored chunk back into a matcher input
func (c *Chunk) ToTypesChunk() *types.Chunk {
	chunk := types.NewChunk(c.Content, c.BaseLength)
	chunk.ID = c.ChunkID
	return chunk
}

// FromTypesChunk converts a chunker output into a stored chunk
func FromTypesChunk(chunk *types.Chunk, sourceID int64) *Chunk {
	return &Chunk{
		SourceID:   sourceID,
		ChunkID:    chunk.ID,
		BaseLength: chunk.BaseLength,
		Content:    chunk.Text,
	}
}

// KeywordHit is the first hit for a (keyword, hit text) pair in a source
type KeywordHit struct {
	ID           int64
	SourceID     int64
	ChunkID      int
	JobID        string
	ListName     string
	SearchTerm   string
	OriginalTerm string
	IsLiteral    bool
	IsWholeWord  bool
	AttrType     string
	HitText      string
	Snippet      string
	CreatedAt    time.Time
}

// FromTypesHit builds a stored hit from a matcher hit and its keyword
func FromTypesHit(kw types.Keyword, hit types.Hit, jobID string) *KeywordHit {
	return &KeywordHit{
		SourceID:     hit.Source.ID,
		ChunkID:      hit.ChunkID,
		JobID:        jobID,
		ListName:     kw.ListName(),
		SearchTerm:   kw.SearchTerm(),
		OriginalTerm: kw.OriginalTerm(),
		IsLiteral:    kw.IsLiteral(),
		IsWholeWord:  kw.IsWholeWord(),
		AttrType:     string(kw.AttributeType()),
		HitText:      hit.Text,
		Snippet:      hit.Snippet,
	}
}

// IngestJob records one indexing run
type IngestJob struct {
	ID         string
	Status     JobStatus
	Documents  int
	Failed     int
	Chunks     int
	Hits       int
	Error      *string // Nullable
	StartedAt  time.Time
	FinishedAt *time.Time // Nullable
}

// JobStatus is the state of an ingest job
type JobStatus string

const (
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"
)

// TextResult represents a result from full-text search
type TextResult struct {
	SourceID  int64
	ChunkID   int
	BM25Score float64
}

// Status contains statistics about the index
type Status struct {
	SourcesCount    int
	ChunksCount     int
	HitsCount       int
	AttributesCount int
	JobsCount       int
	LastJob         *IngestJob
	IndexSizeMB     float64
	Health          HealthStatus
}

// HealthStatus represents the health of the index
type HealthStatus struct {
	DatabaseAccessible bool
	FTSIndexBuilt      bool
}
