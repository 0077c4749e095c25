// Package searcher runs ad-hoc keyword searches over indexed chunks.
//
// A search term becomes a one-keyword list searched with the same matcher as
// ingest, so hits, snippets and validation rules are identical to stored
// hits. Literal ASCII terms of at least storage.MinFTSQueryLength characters
// are first narrowed with the trigram full-text index; other terms scan
// every chunk of every selected source.
//
// # Basic Usage
//
//	s := searcher.NewSearcher(store, matcher.DefaultConfig())
//
//	resp, err := s.Search(ctx, searcher.Request{
//	    Term:    "enger",
//	    Literal: true,
//	    Limit:   20,
//	})
//
//	for _, r := range resp.Results {
//	    fmt.Printf("[%d] %s %s\n", r.Rank, r.Hit.Source.DocumentID(r.Hit.ChunkID), r.Hit.Snippet)
//	}
//
// # Navigation
//
// PageState builds a navigation.State for one source. Pages are the chunk
// ids that contain hits:
//
//	state, err := s.PageState(ctx, sourceID, searcher.Request{Term: "cat", Literal: true, WholeWord: true})
//	page, err := state.NextPage()
//
// # Caching
//
// Responses are cached when Request.UseCache is set, keyed by a SHA-256 of
// the request, for Request.CacheTTL (ten minutes by default) in a 1000-entry
// LRU. Call InvalidateCache after indexing.
package searcher
