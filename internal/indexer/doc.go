// Package indexer runs keyword ingest over files and artifact text.
//
// Each call is one ingest job with its own id. Documents are processed in
// parallel; a single document goes through these stages in order:
//
//  1. Extract: open the file as text, strings or UTF-16 (see package extract)
//  2. Chunk: split the stream into overlapping chunks numbered from 1
//  3. Store: persist every chunk as soon as it is produced
//  4. Match: search the chunk with the ingest keyword lists
//  5. Commit: after the last chunk, store the first hit per keyword and hit
//     text, with account attributes for card numbers, in one transaction
//
// # Basic Usage
//
//	m := matcher.New(keywordlist.ForIngest(lists), matcher.DefaultConfig())
//	idx := indexer.New(store, m, indexer.WithBINLookup(bins))
//
//	stats, err := idx.IndexDirectory(ctx, "/evidence", &indexer.Config{
//	    Mode:          extract.ModeAuto,
//	    SkipUnchanged: true,
//	})
//	fmt.Printf("%d documents, %d hits\n", stats.DocumentsIndexed, stats.HitsStored)
//
// # Failures
//
// A document whose stream cannot be read is recorded as failed, with the
// error kept on its source row, and the other documents continue. When the
// matcher fails on a document, the chunks are still stored and the hits
// found before the failure are kept, but the rest of the document is not
// searched. Cancelling the context stops the run between chunks.
//
// Only one run may be active per Indexer; a second caller gets
// ErrIndexingInProgress.
package indexer
