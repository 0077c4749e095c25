// Package storage provides SQLite-based persistence for chunked documents
// and the keyword hits found in them.
//
// The storage layer manages:
//   - Sources (ingested files and artifact text)
//   - Chunks with their base lengths
//   - Keyword hits, one per keyword and hit text in a source
//   - Hit attributes (credit card account details)
//   - Ingest jobs
//   - A trigram FTS5 index over chunk text
//
// # Database Schema
//
// Tables:
//   - sources: document path, kind, extraction mode and SHA-256 hash
//   - chunks: chunk text keyed by (source_id, chunk_id)
//   - chunks_fts: FTS5 mirror of chunks, kept in sync by triggers
//   - keyword_hits: first hit per (source, keyword, hit text)
//   - hit_attributes: name/value pairs attached to a hit
//   - ingest_jobs: one row per indexing run
//
// # Basic Usage
//
//	store, err := storage.NewSQLiteStorage("kwindex.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	source := &storage.Source{Kind: types.SourceContent, Path: path}
//	if err := store.UpsertSource(ctx, source); err != nil {
//	    return err
//	}
//
// # Transactions
//
// The hits of a document are committed atomically with its source row:
//
//	tx, err := store.BeginTx(ctx)
//	if err != nil {
//	    return err
//	}
//	defer tx.Rollback()
//
//	_ = tx.DeleteHitsBySource(ctx, source.ID)
//	_ = tx.InsertHit(ctx, storage.FromTypesHit(kw, hit, jobID))
//	_ = tx.UpsertSource(ctx, source)
//
//	if err := tx.Commit(); err != nil {
//	    return err
//	}
//
// # Full-Text Search
//
// SearchText answers case-insensitive substring queries of at least
// MinFTSQueryLength characters from the trigram index. It narrows the chunks
// an ad-hoc keyword search has to scan; the matcher still decides what a hit
// is.
//
// # Build Tags
//
// Pure Go build (default, purego tag):
//
//   - Uses modernc.org/sqlite
//
//     CGO_ENABLED=0 go build -tags "purego"
//
// CGO build (sqlite_cgo tag):
//
//   - Uses github.com/mattn/go-sqlite3, which needs sqlite_fts5 for the index
//
//     CGO_ENABLED=1 go build -tags "sqlite_cgo,sqlite_fts5"
package storage
