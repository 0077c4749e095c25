package storage

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dshills/kwindex/pkg/types"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrEmptyQuery is returned by SearchText for queries FTS cannot serve
	ErrEmptyQuery = errors.New("empty search query")
)

// MinFTSQueryLength is the shortest query the trigram index can answer
const MinFTSQueryLength = 3

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Single writer; the indexer serializes document commits through it
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLiteStorage) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx, storage: s}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// rowScanner is implemented by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

// querier returns the transaction querier
func (t *sqliteTx) querier() querier {
	return t.tx
}

// querier returns the DB querier
func (s *SQLiteStorage) querier() querier {
	return s.db
}

// Source operations

const sourceColumns = `id, kind, path, mode, content_hash, size_bytes, chunk_count,
	index_error, last_indexed_at, created_at, updated_at`

func scanSource(row rowScanner) (*Source, error) {
	var source Source
	var kind string
	var mode, indexError sql.NullString
	var hash []byte
	var lastIndexedAt sql.NullTime
	err := row.Scan(
		&source.ID, &kind, &source.Path, &mode, &hash, &source.SizeBytes,
		&source.ChunkCount, &indexError, &lastIndexedAt, &source.CreatedAt, &source.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	source.Kind = types.SourceKind(kind)
	source.Mode = mode.String
	copy(source.ContentHash[:], hash)
	if indexError.Valid {
		source.IndexError = &indexError.String
	}
	if lastIndexedAt.Valid {
		source.LastIndexedAt = lastIndexedAt.Time
	}
	return &source, nil
}

// upsertSourceWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) upsertSourceWithQuerier(ctx context.Context, q querier, source *Source) error {
	if source.Kind == "" {
		source.Kind = types.SourceContent
	}
	query := `
		INSERT INTO sources (kind, path, mode, content_hash, size_bytes, chunk_count, index_error, last_indexed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			kind = excluded.kind,
			mode = excluded.mode,
			content_hash = excluded.content_hash,
			size_bytes = excluded.size_bytes,
			chunk_count = excluded.chunk_count,
			index_error = excluded.index_error,
			last_indexed_at = excluded.last_indexed_at,
			updated_at = excluded.updated_at
		RETURNING id, created_at
	`
	now := time.Now()
	err := q.QueryRowContext(ctx, query,
		string(source.Kind), source.Path, source.Mode, source.ContentHash[:],
		source.SizeBytes, source.ChunkCount, source.IndexError, now, now, now,
	).Scan(&source.ID, &source.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert source: %w", err)
	}

	source.LastIndexedAt = now
	source.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) UpsertSource(ctx context.Context, source *Source) error {
	return s.upsertSourceWithQuerier(ctx, s.querier(), source)
}

func (s *SQLiteStorage) getSourceWithQuerier(ctx context.Context, q querier, sourceID int64) (*Source, error) {
	source, err := scanSource(q.QueryRowContext(ctx,
		`SELECT `+sourceColumns+` FROM sources WHERE id = ?`, sourceID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return source, err
}

func (s *SQLiteStorage) GetSource(ctx context.Context, sourceID int64) (*Source, error) {
	return s.getSourceWithQuerier(ctx, s.querier(), sourceID)
}

func (s *SQLiteStorage) getSourceByPathWithQuerier(ctx context.Context, q querier, path string) (*Source, error) {
	source, err := scanSource(q.QueryRowContext(ctx,
		`SELECT `+sourceColumns+` FROM sources WHERE path = ?`, path))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return source, err
}

func (s *SQLiteStorage) GetSourceByPath(ctx context.Context, path string) (*Source, error) {
	return s.getSourceByPathWithQuerier(ctx, s.querier(), path)
}

func (s *SQLiteStorage) listSourcesWithQuerier(ctx context.Context, q querier) ([]*Source, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+sourceColumns+` FROM sources ORDER BY path`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	sources := make([]*Source, 0)
	for rows.Next() {
		source, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		sources = append(sources, source)
	}
	return sources, rows.Err()
}

func (s *SQLiteStorage) ListSources(ctx context.Context) ([]*Source, error) {
	return s.listSourcesWithQuerier(ctx, s.querier())
}

// Chunk operations

const chunkColumns = `id, source_id, chunk_id, base_length, content, content_hash, created_at`

func scanChunk(row rowScanner) (*Chunk, error) {
	var chunk Chunk
	var hash []byte
	err := row.Scan(
		&chunk.ID, &chunk.SourceID, &chunk.ChunkID, &chunk.BaseLength,
		&chunk.Content, &hash, &chunk.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	copy(chunk.ContentHash[:], hash)
	return &chunk, nil
}

// upsertChunkWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) upsertChunkWithQuerier(ctx context.Context, q querier, chunk *Chunk) error {
	if chunk.ChunkID < 1 {
		return fmt.Errorf("failed to upsert chunk: %w", types.ErrInvalidChunkID)
	}
	chunk.ContentHash = sha256.Sum256([]byte(chunk.Content))

	query := `
		INSERT INTO chunks (source_id, chunk_id, base_length, content, content_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_id, chunk_id)
		DO UPDATE SET
			base_length = excluded.base_length,
			content = excluded.content,
			content_hash = excluded.content_hash
		RETURNING id, created_at
	`
	err := q.QueryRowContext(ctx, query,
		chunk.SourceID, chunk.ChunkID, chunk.BaseLength, chunk.Content,
		chunk.ContentHash[:], time.Now(),
	).Scan(&chunk.ID, &chunk.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert chunk: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) UpsertChunk(ctx context.Context, chunk *Chunk) error {
	return s.upsertChunkWithQuerier(ctx, s.querier(), chunk)
}

func (s *SQLiteStorage) getChunkWithQuerier(ctx context.Context, q querier, sourceID int64, chunkID int) (*Chunk, error) {
	chunk, err := scanChunk(q.QueryRowContext(ctx,
		`SELECT `+chunkColumns+` FROM chunks WHERE source_id = ? AND chunk_id = ?`, sourceID, chunkID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return chunk, err
}

func (s *SQLiteStorage) GetChunk(ctx context.Context, sourceID int64, chunkID int) (*Chunk, error) {
	return s.getChunkWithQuerier(ctx, s.querier(), sourceID, chunkID)
}

func (s *SQLiteStorage) listChunksBySourceWithQuerier(ctx context.Context, q querier, sourceID int64) ([]*Chunk, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+chunkColumns+` FROM chunks WHERE source_id = ? ORDER BY chunk_id`, sourceID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	chunks := make([]*Chunk, 0)
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}

func (s *SQLiteStorage) ListChunksBySource(ctx context.Context, sourceID int64) ([]*Chunk, error) {
	return s.listChunksBySourceWithQuerier(ctx, s.querier(), sourceID)
}

func (s *SQLiteStorage) deleteChunksBySourceWithQuerier(ctx context.Context, q querier, sourceID int64) error {
	_, err := q.ExecContext(ctx, `DELETE FROM chunks WHERE source_id = ?`, sourceID)
	return err
}

func (s *SQLiteStorage) DeleteChunksBySource(ctx context.Context, sourceID int64) error {
	return s.deleteChunksBySourceWithQuerier(ctx, s.querier(), sourceID)
}

// Hit operations

const hitColumns = `id, source_id, chunk_id, job_id, list_name, search_term, original_term,
	is_literal, is_whole_word, attr_type, hit_text, snippet, created_at`

func scanHit(row rowScanner) (*KeywordHit, error) {
	var hit KeywordHit
	var jobID, attrType, snippet sql.NullString
	err := row.Scan(
		&hit.ID, &hit.SourceID, &hit.ChunkID, &jobID, &hit.ListName, &hit.SearchTerm,
		&hit.OriginalTerm, &hit.IsLiteral, &hit.IsWholeWord, &attrType, &hit.HitText,
		&snippet, &hit.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	hit.JobID = jobID.String
	hit.AttrType = attrType.String
	hit.Snippet = snippet.String
	return &hit, nil
}

// insertHitWithQuerier stores a hit unless the source already has one for
// the same keyword and hit text; in that case hit receives the existing row.
func (s *SQLiteStorage) insertHitWithQuerier(ctx context.Context, q querier, hit *KeywordHit) error {
	var jobID interface{}
	if hit.JobID != "" {
		jobID = hit.JobID
	}

	// The no-op update makes RETURNING yield the existing row on conflict
	query := `
		INSERT INTO keyword_hits (
			source_id, chunk_id, job_id, list_name, search_term, original_term,
			is_literal, is_whole_word, attr_type, hit_text, snippet, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_id, list_name, search_term, original_term, is_literal, is_whole_word, hit_text)
		DO UPDATE SET hit_text = keyword_hits.hit_text
		RETURNING id, chunk_id, snippet, created_at
	`
	var snippet sql.NullString
	err := q.QueryRowContext(ctx, query,
		hit.SourceID, hit.ChunkID, jobID, hit.ListName, hit.SearchTerm, hit.OriginalTerm,
		hit.IsLiteral, hit.IsWholeWord, hit.AttrType, hit.HitText, hit.Snippet, time.Now(),
	).Scan(&hit.ID, &hit.ChunkID, &snippet, &hit.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert hit: %w", err)
	}
	hit.Snippet = snippet.String
	return nil
}

func (s *SQLiteStorage) InsertHit(ctx context.Context, hit *KeywordHit) error {
	return s.insertHitWithQuerier(ctx, s.querier(), hit)
}

func (s *SQLiteStorage) listHitsWithQuerier(ctx context.Context, q querier, where string, args ...interface{}) ([]*KeywordHit, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+hitColumns+` FROM keyword_hits WHERE `+where+` ORDER BY source_id, chunk_id, id`, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	hits := make([]*KeywordHit, 0)
	for rows.Next() {
		hit, err := scanHit(rows)
		if err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

func (s *SQLiteStorage) ListHitsBySource(ctx context.Context, sourceID int64) ([]*KeywordHit, error) {
	return s.listHitsWithQuerier(ctx, s.querier(), "source_id = ?", sourceID)
}

// ListHitsByKeyword returns the hits of every keyword in listName whose
// original term is originalTerm; an empty originalTerm lists the whole list.
func (s *SQLiteStorage) ListHitsByKeyword(ctx context.Context, listName, originalTerm string) ([]*KeywordHit, error) {
	if originalTerm == "" {
		return s.listHitsWithQuerier(ctx, s.querier(), "list_name = ?", listName)
	}
	return s.listHitsWithQuerier(ctx, s.querier(), "list_name = ? AND original_term = ?", listName, originalTerm)
}

func (s *SQLiteStorage) deleteHitsBySourceWithQuerier(ctx context.Context, q querier, sourceID int64) error {
	_, err := q.ExecContext(ctx, `DELETE FROM keyword_hits WHERE source_id = ?`, sourceID)
	return err
}

func (s *SQLiteStorage) DeleteHitsBySource(ctx context.Context, sourceID int64) error {
	return s.deleteHitsBySourceWithQuerier(ctx, s.querier(), sourceID)
}

// Attribute operations

// insertAttributesWithQuerier adds attributes to a hit. Names the hit
// already carries keep their first value.
func (s *SQLiteStorage) insertAttributesWithQuerier(ctx context.Context, q querier, hitID int64, attrs map[string]string) error {
	for name, value := range attrs {
		_, err := q.ExecContext(ctx, `
			INSERT INTO hit_attributes (hit_id, name, value) VALUES (?, ?, ?)
			ON CONFLICT(hit_id, name) DO NOTHING
		`, hitID, name, value)
		if err != nil {
			return fmt.Errorf("failed to insert attribute %s: %w", name, err)
		}
	}
	return nil
}

func (s *SQLiteStorage) InsertAttributes(ctx context.Context, hitID int64, attrs map[string]string) error {
	return s.insertAttributesWithQuerier(ctx, s.querier(), hitID, attrs)
}

func (s *SQLiteStorage) listAttributesWithQuerier(ctx context.Context, q querier, hitID int64) (map[string]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT name, value FROM hit_attributes WHERE hit_id = ?`, hitID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	attrs := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		attrs[name] = value
	}
	return attrs, rows.Err()
}

func (s *SQLiteStorage) ListAttributes(ctx context.Context, hitID int64) (map[string]string, error) {
	return s.listAttributesWithQuerier(ctx, s.querier(), hitID)
}

// Job operations

const jobColumns = `id, status, documents, failed, chunks, hits, error, started_at, finished_at`

func scanJob(row rowScanner) (*IngestJob, error) {
	var job IngestJob
	var status string
	var jobError sql.NullString
	var finishedAt sql.NullTime
	err := row.Scan(
		&job.ID, &status, &job.Documents, &job.Failed, &job.Chunks, &job.Hits,
		&jobError, &job.StartedAt, &finishedAt,
	)
	if err != nil {
		return nil, err
	}
	job.Status = JobStatus(status)
	if jobError.Valid {
		job.Error = &jobError.String
	}
	if finishedAt.Valid {
		t := finishedAt.Time
		job.FinishedAt = &t
	}
	return &job, nil
}

func (s *SQLiteStorage) createJobWithQuerier(ctx context.Context, q querier, job *IngestJob) error {
	if job.ID == "" {
		return errors.New("failed to create job: job id is required")
	}
	if job.StartedAt.IsZero() {
		job.StartedAt = time.Now()
	}
	job.Status = JobRunning
	_, err := q.ExecContext(ctx,
		`INSERT INTO ingest_jobs (id, status, started_at) VALUES (?, ?, ?)`,
		job.ID, string(job.Status), job.StartedAt)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) CreateJob(ctx context.Context, job *IngestJob) error {
	return s.createJobWithQuerier(ctx, s.querier(), job)
}

func (s *SQLiteStorage) finishJobWithQuerier(ctx context.Context, q querier, job *IngestJob) error {
	now := time.Now()
	if job.Status == "" || job.Status == JobRunning {
		job.Status = JobCompleted
	}
	result, err := q.ExecContext(ctx, `
		UPDATE ingest_jobs
		SET status = ?, documents = ?, failed = ?, chunks = ?, hits = ?, error = ?, finished_at = ?
		WHERE id = ?
	`, string(job.Status), job.Documents, job.Failed, job.Chunks, job.Hits, job.Error, now, job.ID)
	if err != nil {
		return fmt.Errorf("failed to finish job: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	job.FinishedAt = &now
	return nil
}

func (s *SQLiteStorage) FinishJob(ctx context.Context, job *IngestJob) error {
	return s.finishJobWithQuerier(ctx, s.querier(), job)
}

func (s *SQLiteStorage) getJobWithQuerier(ctx context.Context, q querier, jobID string) (*IngestJob, error) {
	job, err := scanJob(q.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM ingest_jobs WHERE id = ?`, jobID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return job, err
}

func (s *SQLiteStorage) GetJob(ctx context.Context, jobID string) (*IngestJob, error) {
	return s.getJobWithQuerier(ctx, s.querier(), jobID)
}

// Search operations

// searchTextWithQuerier finds chunks containing query as a substring,
// ignoring ASCII case. Queries shorter than MinFTSQueryLength characters
// return ErrEmptyQuery.
func (s *SQLiteStorage) searchTextWithQuerier(ctx context.Context, q querier, query string, limit int) ([]TextResult, error) {
	phrase := ftsPhrase(query)
	if phrase == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := q.QueryContext(ctx, `
		SELECT c.source_id, c.chunk_id, bm25(chunks_fts) AS score
		FROM chunks_fts
		INNER JOIN chunks c ON chunks_fts.rowid = c.id
		WHERE chunks_fts MATCH ?
		ORDER BY score
		LIMIT ?
	`, phrase, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to execute FTS search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	results := make([]TextResult, 0)
	for rows.Next() {
		var r TextResult
		if err := rows.Scan(&r.SourceID, &r.ChunkID, &r.BM25Score); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func (s *SQLiteStorage) SearchText(ctx context.Context, query string, limit int) ([]TextResult, error) {
	return s.searchTextWithQuerier(ctx, s.querier(), query, limit)
}

// ftsPhrase quotes query as a single FTS5 phrase so operators and
// punctuation in it are matched literally
func ftsPhrase(query string) string {
	if utf8.RuneCountInString(strings.TrimSpace(query)) < MinFTSQueryLength {
		return ""
	}
	return `"` + strings.ReplaceAll(query, `"`, `""`) + `"`
}

// Status operations

func (s *SQLiteStorage) getStatusWithQuerier(ctx context.Context, q querier) (*Status, error) {
	status := &Status{}

	counts := []struct {
		table string
		dest  *int
	}{
		{"sources", &status.SourcesCount},
		{"chunks", &status.ChunksCount},
		{"keyword_hits", &status.HitsCount},
		{"hit_attributes", &status.AttributesCount},
		{"ingest_jobs", &status.JobsCount},
	}
	for _, c := range counts {
		if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+c.table).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", c.table, err)
		}
	}

	job, err := scanJob(q.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM ingest_jobs ORDER BY started_at DESC LIMIT 1`))
	switch {
	case err == nil:
		status.LastJob = job
	case err != sql.ErrNoRows:
		return nil, err
	}

	// Calculate database size
	var pageCount, pageSize int
	if err := q.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err == nil {
		_ = q.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
		status.IndexSizeMB = float64(pageCount*pageSize) / (1024 * 1024)
	}

	var ftsName string
	ftsErr := q.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' AND name='chunks_fts'").Scan(&ftsName)

	status.Health = HealthStatus{
		DatabaseAccessible: true,
		FTSIndexBuilt:      ftsErr == nil,
	}
	return status, nil
}

func (s *SQLiteStorage) GetStatus(ctx context.Context) (*Status, error) {
	return s.getStatusWithQuerier(ctx, s.querier())
}

// Transaction implementations delegate to the storage helpers with the
// transaction as querier

func (t *sqliteTx) UpsertSource(ctx context.Context, source *Source) error {
	return t.storage.upsertSourceWithQuerier(ctx, t.querier(), source)
}

func (t *sqliteTx) GetSource(ctx context.Context, sourceID int64) (*Source, error) {
	return t.storage.getSourceWithQuerier(ctx, t.querier(), sourceID)
}

func (t *sqliteTx) GetSourceByPath(ctx context.Context, path string) (*Source, error) {
	return t.storage.getSourceByPathWithQuerier(ctx, t.querier(), path)
}

func (t *sqliteTx) ListSources(ctx context.Context) ([]*Source, error) {
	return t.storage.listSourcesWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) UpsertChunk(ctx context.Context, chunk *Chunk) error {
	return t.storage.upsertChunkWithQuerier(ctx, t.querier(), chunk)
}

func (t *sqliteTx) GetChunk(ctx context.Context, sourceID int64, chunkID int) (*Chunk, error) {
	return t.storage.getChunkWithQuerier(ctx, t.querier(), sourceID, chunkID)
}

func (t *sqliteTx) ListChunksBySource(ctx context.Context, sourceID int64) ([]*Chunk, error) {
	return t.storage.listChunksBySourceWithQuerier(ctx, t.querier(), sourceID)
}

func (t *sqliteTx) DeleteChunksBySource(ctx context.Context, sourceID int64) error {
	return t.storage.deleteChunksBySourceWithQuerier(ctx, t.querier(), sourceID)
}

func (t *sqliteTx) InsertHit(ctx context.Context, hit *KeywordHit) error {
	return t.storage.insertHitWithQuerier(ctx, t.querier(), hit)
}

func (t *sqliteTx) ListHitsBySource(ctx context.Context, sourceID int64) ([]*KeywordHit, error) {
	return t.storage.listHitsWithQuerier(ctx, t.querier(), "source_id = ?", sourceID)
}

func (t *sqliteTx) ListHitsByKeyword(ctx context.Context, listName, originalTerm string) ([]*KeywordHit, error) {
	if originalTerm == "" {
		return t.storage.listHitsWithQuerier(ctx, t.querier(), "list_name = ?", listName)
	}
	return t.storage.listHitsWithQuerier(ctx, t.querier(), "list_name = ? AND original_term = ?", listName, originalTerm)
}

func (t *sqliteTx) DeleteHitsBySource(ctx context.Context, sourceID int64) error {
	return t.storage.deleteHitsBySourceWithQuerier(ctx, t.querier(), sourceID)
}

func (t *sqliteTx) InsertAttributes(ctx context.Context, hitID int64, attrs map[string]string) error {
	return t.storage.insertAttributesWithQuerier(ctx, t.querier(), hitID, attrs)
}

func (t *sqliteTx) ListAttributes(ctx context.Context, hitID int64) (map[string]string, error) {
	return t.storage.listAttributesWithQuerier(ctx, t.querier(), hitID)
}

func (t *sqliteTx) CreateJob(ctx context.Context, job *IngestJob) error {
	return t.storage.createJobWithQuerier(ctx, t.querier(), job)
}

func (t *sqliteTx) FinishJob(ctx context.Context, job *IngestJob) error {
	return t.storage.finishJobWithQuerier(ctx, t.querier(), job)
}

func (t *sqliteTx) GetJob(ctx context.Context, jobID string) (*IngestJob, error) {
	return t.storage.getJobWithQuerier(ctx, t.querier(), jobID)
}

func (t *sqliteTx) SearchText(ctx context.Context, query string, limit int) ([]TextResult, error) {
	return t.storage.searchTextWithQuerier(ctx, t.querier(), query, limit)
}

func (t *sqliteTx) GetStatus(ctx context.Context) (*Status, error) {
	return t.storage.getStatusWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) Close() error {
	return fmt.Errorf("cannot close storage from within a transaction")
}

func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	return nil, fmt.Errorf("nested transactions not supported")
}
