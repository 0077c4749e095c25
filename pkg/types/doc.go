// Package types provides the shared domain types of kwindex.
//
// # Keywords
//
// A Keyword is immutable once built. Its search term is a literal string or
// a regular expression; the list name and original term say where it came
// from, and the attribute type says how its hits are validated:
//
//	kw := types.NewKeyword("555-\\d{4}", false, false, "Phones", "555-\\d{4}", types.AttrPhoneNumber)
//
// Keywords compare equal when every field matches. Key returns a comparable
// value for use in maps.
//
// # Chunks
//
// A Chunk is a base region followed by an overlap window that repeats the
// start of the next chunk. Hits are only reported when they begin inside
// the base, so a hit straddling a boundary is found exactly once:
//
//	chunk.Base()   // text owned by this chunk
//	chunk.Window() // overlap shared with the next chunk
//
// # Hits
//
// A Hit records the source, the 1-based chunk id, the hit text and an
// optional snippet. A Source is either content (a file) or an artifact
// (extracted text); artifacts carry a document id of the form
// "<artifactID>_<chunkID>".
package types
