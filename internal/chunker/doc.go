// Package chunker divides an extracted text stream into overlapping chunks
// for indexing and inline keyword search.
//
// Each chunk holds at most MaxTotalChunkSize bytes of UTF-8 and is made of a
// base region followed by a window. The window is handed back to the chunker
// and becomes the start of the next chunk's base, so a keyword that straddles
// a boundary is always found whole in at least one chunk.
//
// # Basic Usage
//
//	c := chunker.New(reader)
//	for c.HasNext() {
//	    chunk, err := c.Next()
//	    if err != nil {
//	        return err
//	    }
//	    chunk.ID = nextID()
//	    index(chunk)
//	}
//
// # Chunk Sizing
//
// Sizes are measured on the encoded UTF-8 text, never estimated from the
// character count:
//   - Base: bulk reads up to MinimumBaseChunkSize, then single characters up
//     to the first whitespace or MaximumBaseChunkSize
//   - Window: bulk reads up to MaxTotalChunkSize-WhiteSpaceBufferSize, then
//     single characters up to the first whitespace or MaxTotalChunkSize
//
// Every target is lowered by LowerCaseSlack because the matcher works on
// lower-cased text, which can be longer than the original.
//
// # Sanitization
//
// Characters that cannot be indexed (undecodable bytes, surrogate halves)
// are replaced with Placeholder so a damaged document still indexes.
//
// # Concurrency
//
// A Chunker holds cursor state and must be used by one goroutine. Separate
// documents get separate Chunkers.
package chunker
