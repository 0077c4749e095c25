// Package matcher finds keyword hits inside chunk text during ingest.
//
// A Matcher is built once per run from the keyword lists and is safe to share
// between goroutines. Each document gets its own Document session, which
// holds the per-document de-duplication state and must stay on a single
// goroutine while its chunks are searched in order:
//
//	m := matcher.New(lists, matcher.DefaultConfig())
//	doc := m.NewDocument(types.ContentSource(id))
//	for c.HasNext() {
//	    chunk, err := c.Next()
//	    ...
//	    if _, err := doc.SearchChunk(ctx, chunk); err != nil {
//	        var me *matcher.MatchError
//	        if errors.As(err, &me) {
//	            // skip the rest of this document
//	        }
//	    }
//	}
//	results := doc.Results()
//
// # Matching
//
// Text is lower-cased once per chunk. Substring keywords are gated by a plain
// containment check before any regular expression runs, whole word keywords
// use \b anchors, and regex keywords are compiled case-insensitively. Note
// that \b and \w follow RE2 and only know ASCII word characters.
//
// Matched text is expanded to the surrounding token for substring keywords,
// trimmed for phone number and IP address keywords, and validated for email
// and credit card keywords. Only the first hit for a given text is kept per
// keyword and document.
package matcher
