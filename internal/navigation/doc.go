// Package navigation tracks a viewer's position among the keyword hits of a
// document.
//
// Pages are the chunks that contain at least one hit, so page numbers are
// sparse. Each page keeps its own 1-based hit cursor; 0 means no hit is
// selected yet. A page's hit count may be unknown (0) until the page has
// been rendered, at which point SetPageHits records it and moves the cursor
// to the first hit.
//
// Moving past either end returns an error wrapping ErrInvalidState. Callers
// check the Has* methods first.
package navigation
