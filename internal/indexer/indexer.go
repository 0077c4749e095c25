package indexer

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/kwindex/internal/chunker"
	"github.com/dshills/kwindex/internal/creditcard"
	"github.com/dshills/kwindex/internal/extract"
	"github.com/dshills/kwindex/internal/matcher"
	"github.com/dshills/kwindex/internal/storage"
	"github.com/dshills/kwindex/pkg/types"
)

// ErrIndexingInProgress is returned when another run holds the index lock
var ErrIndexingInProgress = errors.New("indexing already in progress")

// Indexer coordinates the ingest pipeline: extract -> chunk -> match -> store
type Indexer struct {
	storage storage.Storage
	matcher *matcher.Matcher
	bins    creditcard.BINLookup
	logger  *log.Logger
	lock    *IndexLock
}

// Option configures an Indexer
type Option func(*Indexer)

// WithLogger sets the logger for document failures
func WithLogger(logger *log.Logger) Option {
	return func(idx *Indexer) {
		if logger != nil {
			idx.logger = logger
		}
	}
}

// WithBINLookup enables bank enrichment of credit card hits
func WithBINLookup(bins creditcard.BINLookup) Option {
	return func(idx *Indexer) {
		idx.bins = bins
	}
}

// WithLock shares a run lock between indexers writing the same database
func WithLock(lock *IndexLock) Option {
	return func(idx *Indexer) {
		if lock != nil {
			idx.lock = lock
		}
	}
}

// Config contains configuration for one indexing run
type Config struct {
	Workers       int          // Number of concurrent documents (default: runtime.NumCPU())
	Mode          extract.Mode // How files are turned into text (default: auto)
	MinPrintable  int          // Shortest run kept in strings mode (default: 4)
	SkipUnchanged bool         // Skip files whose hash matches a clean earlier run
	IncludeHidden bool         // Whether IndexDirectory descends into dot directories
}

// Statistics contains statistics about the indexing operation
type Statistics struct {
	JobID             string
	DocumentsIndexed  int
	DocumentsSkipped  int
	DocumentsFailed   int
	ChunksCreated     int
	HitsStored        int
	AttributesStored  int
	MatchingAbandoned int // documents whose search stopped on a matcher failure
	Duration          time.Duration
	ErrorMessages     []string
}

// counters are shared by the workers of one run
type counters struct {
	indexed   atomic.Int32
	skipped   atomic.Int32
	failed    atomic.Int32
	chunks    atomic.Int32
	hits      atomic.Int32
	attrs     atomic.Int32
	abandoned atomic.Int32

	mu     sync.Mutex
	errors []string
}

func (c *counters) addError(path string, err error) {
	c.failed.Add(1)
	c.mu.Lock()
	c.errors = append(c.errors, fmt.Sprintf("%s: %v", path, err))
	c.mu.Unlock()
}

// New creates a new Indexer. The matcher decides which keywords are searched
// during ingest.
func New(store storage.Storage, m *matcher.Matcher, opts ...Option) *Indexer {
	idx := &Indexer{
		storage: store,
		matcher: m,
		logger:  log.Default(),
		lock:    &IndexLock{},
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// IndexDirectory indexes every regular file under root
func (idx *Indexer) IndexDirectory(ctx context.Context, root string, config *Config) (*Statistics, error) {
	config = withDefaults(config)
	files, err := discoverFiles(root, config)
	if err != nil {
		return nil, fmt.Errorf("failed to discover files: %w", err)
	}
	return idx.IndexFiles(ctx, files, config)
}

// IndexFiles indexes the given files as one ingest job. A document that
// cannot be read is recorded as failed and the others continue. The returned
// error is non-nil only when the run itself could not complete.
func (idx *Indexer) IndexFiles(ctx context.Context, paths []string, config *Config) (*Statistics, error) {
	if !idx.lock.TryAcquire() {
		return nil, ErrIndexingInProgress
	}
	defer idx.lock.Release()

	config = withDefaults(config)
	startTime := time.Now()

	job := &storage.IngestJob{ID: uuid.NewString(), StartedAt: startTime}
	if err := idx.storage.CreateJob(ctx, job); err != nil {
		return nil, err
	}

	c := &counters{}
	runErr := idx.indexFiles(ctx, job.ID, paths, config, c)

	stats := &Statistics{
		JobID:             job.ID,
		DocumentsIndexed:  int(c.indexed.Load()),
		DocumentsSkipped:  int(c.skipped.Load()),
		DocumentsFailed:   int(c.failed.Load()),
		ChunksCreated:     int(c.chunks.Load()),
		HitsStored:        int(c.hits.Load()),
		AttributesStored:  int(c.attrs.Load()),
		MatchingAbandoned: int(c.abandoned.Load()),
		ErrorMessages:     c.errors,
		Duration:          time.Since(startTime),
	}

	job.Documents = stats.DocumentsIndexed
	job.Failed = stats.DocumentsFailed
	job.Chunks = stats.ChunksCreated
	job.Hits = stats.HitsStored
	switch {
	case errors.Is(runErr, context.Canceled), errors.Is(runErr, context.DeadlineExceeded):
		job.Status = storage.JobCancelled
	case runErr != nil:
		job.Status = storage.JobFailed
	default:
		job.Status = storage.JobCompleted
	}
	if runErr != nil {
		msg := runErr.Error()
		job.Error = &msg
	}
	// The run context may already be cancelled; the job row must still close.
	if err := idx.storage.FinishJob(context.WithoutCancel(ctx), job); err != nil {
		idx.logger.Printf("indexer: failed to finish job %s: %v", job.ID, err)
	}

	if runErr != nil {
		return stats, fmt.Errorf("failed to index files: %w", runErr)
	}
	return stats, nil
}

// IndexArtifact indexes text that does not come from a file, such as the
// strings recovered from unallocated space. name identifies the artifact.
func (idx *Indexer) IndexArtifact(ctx context.Context, name string, r io.Reader) (*Statistics, error) {
	if !idx.lock.TryAcquire() {
		return nil, ErrIndexingInProgress
	}
	defer idx.lock.Release()

	startTime := time.Now()
	job := &storage.IngestJob{ID: uuid.NewString(), StartedAt: startTime}
	if err := idx.storage.CreateJob(ctx, job); err != nil {
		return nil, err
	}

	c := &counters{}
	source := &storage.Source{Kind: types.SourceArtifact, Path: name, Mode: string(extract.ModeText)}
	err := idx.indexDocument(ctx, job.ID, source, r, c)
	if err != nil {
		c.addError(name, err)
	} else {
		c.indexed.Add(1)
	}

	job.Documents = int(c.indexed.Load())
	job.Failed = int(c.failed.Load())
	job.Chunks = int(c.chunks.Load())
	job.Hits = int(c.hits.Load())
	job.Status = storage.JobCompleted
	if err != nil {
		job.Status = storage.JobFailed
		msg := err.Error()
		job.Error = &msg
	}
	if ferr := idx.storage.FinishJob(context.WithoutCancel(ctx), job); ferr != nil {
		idx.logger.Printf("indexer: failed to finish job %s: %v", job.ID, ferr)
	}

	return &Statistics{
		JobID:             job.ID,
		DocumentsIndexed:  job.Documents,
		DocumentsFailed:   job.Failed,
		ChunksCreated:     job.Chunks,
		HitsStored:        job.Hits,
		AttributesStored:  int(c.attrs.Load()),
		MatchingAbandoned: int(c.abandoned.Load()),
		ErrorMessages:     c.errors,
		Duration:          time.Since(startTime),
	}, err
}

func withDefaults(config *Config) *Config {
	if config == nil {
		config = &Config{}
	}
	if config.Workers <= 0 {
		config.Workers = runtime.NumCPU()
	}
	if config.Mode == "" {
		config.Mode = extract.ModeAuto
	}
	if config.MinPrintable <= 0 {
		config.MinPrintable = extract.DefaultMinPrintable
	}
	return config
}

// discoverFiles finds all regular files under root
func discoverFiles(root string, config *Config) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path != root && !config.IncludeHidden && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}

		files = append(files, path)
		return nil
	})

	return files, err
}

// indexFiles indexes documents concurrently. Only cancellation stops the run.
func (idx *Indexer) indexFiles(ctx context.Context, jobID string, paths []string, config *Config, c *counters) error {
	semaphore := make(chan struct{}, config.Workers)

	g, gctx := errgroup.WithContext(ctx)
	for _, path := range paths {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			err := idx.indexFile(gctx, jobID, path, config, c)
			if err == nil {
				return nil
			}
			if ctxErr := gctx.Err(); ctxErr != nil {
				return ctxErr
			}
			c.addError(path, err)
			idx.logger.Printf("indexer: %s: %v", path, err)
			return nil
		})
	}

	return g.Wait()
}

// indexFile indexes a single file
func (idx *Indexer) indexFile(ctx context.Context, jobID, path string, config *Config, c *counters) error {
	hash, sizeBytes, err := computeFileHash(path)
	if err != nil {
		return err
	}

	skip, err := idx.unchanged(ctx, path, hash, config)
	if err != nil {
		return err
	}
	if skip {
		c.skipped.Add(1)
		return nil
	}

	r, mode, err := extract.Open(path, config.Mode, config.MinPrintable)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	source := &storage.Source{
		Kind:        types.SourceContent,
		Path:        path,
		Mode:        string(mode),
		ContentHash: hash,
		SizeBytes:   sizeBytes,
	}
	if err := idx.indexDocument(ctx, jobID, source, r, c); err != nil {
		return err
	}
	c.indexed.Add(1)
	return nil
}

// unchanged reports whether path was indexed cleanly with the same content
func (idx *Indexer) unchanged(ctx context.Context, path string, hash [32]byte, config *Config) (bool, error) {
	if !config.SkipUnchanged {
		return false, nil
	}
	existing, err := idx.storage.GetSourceByPath(ctx, path)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return existing.ContentHash == hash && existing.IndexError == nil, nil
}

// indexDocument chunks and searches one document. Chunks are stored as they
// are produced; hits and the final source record are committed together
// after the last chunk.
func (idx *Indexer) indexDocument(ctx context.Context, jobID string, source *storage.Source, r io.Reader, c *counters) error {
	if err := idx.storage.UpsertSource(ctx, source); err != nil {
		return err
	}
	if err := idx.storage.DeleteHitsBySource(ctx, source.ID); err != nil {
		return fmt.Errorf("failed to delete old hits: %w", err)
	}
	if err := idx.storage.DeleteChunksBySource(ctx, source.ID); err != nil {
		return fmt.Errorf("failed to delete old chunks: %w", err)
	}

	doc := idx.matcher.NewDocument(source.Ref())
	ch := chunker.New(r, chunker.WithLogger(idx.logger))
	matching := true
	chunkCount := 0

	for ch.HasNext() {
		if err := ctx.Err(); err != nil {
			return err
		}

		chunk, err := ch.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			idx.recordFailure(ctx, source, err)
			return err
		}
		chunkCount++
		chunk.ID = chunkCount

		if err := idx.storage.UpsertChunk(ctx, storage.FromTypesChunk(chunk, source.ID)); err != nil {
			return fmt.Errorf("failed to store chunk %d: %w", chunk.ID, err)
		}
		c.chunks.Add(1)

		if !matching {
			continue
		}
		if _, err := doc.SearchChunk(ctx, chunk); err != nil {
			var matchErr *matcher.MatchError
			if !errors.As(err, &matchErr) {
				return err
			}
			// Hits found so far are kept; the rest of the document is not searched.
			idx.logger.Printf("indexer: abandoning search of %s: %v", source.Path, err)
			c.abandoned.Add(1)
			matching = false
		}
	}
	if err := ch.Err(); err != nil {
		idx.recordFailure(ctx, source, err)
		return err
	}

	source.ChunkCount = chunkCount
	source.IndexError = nil
	return idx.commitHits(ctx, jobID, source, doc.Results(), c)
}

// commitHits stores the first hit per keyword and hit text together with
// the account attributes of card number hits
func (idx *Indexer) commitHits(ctx context.Context, jobID string, source *storage.Source, results *matcher.Results, c *counters) error {
	tx, err := idx.storage.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	delimiter := idx.matcher.Config().SnippetDelimiter
	var hits, attrs int32
	for kw, kwHits := range results.All() {
		for _, hit := range kwHits {
			stored := storage.FromTypesHit(kw, hit, jobID)

			var account creditcard.Attributes
			if kw.AttributeType() == types.AttrCreditCardNumber {
				account, err = creditcard.BuildAccountAttributes(hit, delimiter, idx.bins)
				if err != nil {
					idx.logger.Printf("indexer: dropping card number hit in %s: %v",
						source.Ref().DocumentID(hit.ChunkID), err)
					continue
				}
				if source.Kind == types.SourceArtifact {
					account.Set(creditcard.AttrDocumentID, source.Ref().DocumentID(hit.ChunkID))
				}
			}

			if err := tx.InsertHit(ctx, stored); err != nil {
				return err
			}
			hits++

			if len(account) > 0 {
				values := make(map[string]string, len(account))
				for k, v := range account {
					values[string(k)] = v
				}
				if err := tx.InsertAttributes(ctx, stored.ID, values); err != nil {
					return err
				}
				attrs += int32(len(values))
			}
		}
	}

	if err := tx.UpsertSource(ctx, source); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	c.hits.Add(hits)
	c.attrs.Add(attrs)
	return nil
}

// recordFailure keeps the read error on the source so the next run retries it
func (idx *Indexer) recordFailure(ctx context.Context, source *storage.Source, cause error) {
	msg := cause.Error()
	source.IndexError = &msg
	if err := idx.storage.UpsertSource(context.WithoutCancel(ctx), source); err != nil {
		idx.logger.Printf("indexer: failed to record error for %s: %v", source.Path, err)
	}
}

// computeFileHash computes SHA-256 hash of a file
func computeFileHash(filePath string) ([32]byte, int64, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return [32]byte{}, 0, err
	}
	defer func() { _ = file.Close() }()

	hash := sha256.New()
	n, err := io.Copy(hash, file)
	if err != nil {
		return [32]byte{}, 0, err
	}

	var result [32]byte
	copy(result[:], hash.Sum(nil))
	return result, n, nil
}
