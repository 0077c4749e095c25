package navigation

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// ErrInvalidState is returned for a move that is not possible from the
// current position
var ErrInvalidState = errors.New("invalid navigation state")

// State is the page and hit cursor for one document. It is not safe for
// concurrent use.
type State struct {
	pages       []int
	hitsPerPage map[int]int
	cursor      map[int]int
	pos         int // index into pages, -1 when unpaged
}

// NewState creates a State over the given pages. A count of 0 means the
// page's hits have not been counted yet. With no pages the State stays
// unpaged until Load is called.
func NewState(hitsPerPage map[int]int) *State {
	s := &State{}
	s.Load(hitsPerPage)
	return s
}

// Load replaces the page set and moves to the first page
func (s *State) Load(hitsPerPage map[int]int) {
	s.hitsPerPage = make(map[int]int, len(hitsPerPage))
	s.cursor = make(map[int]int, len(hitsPerPage))
	for page, hits := range hitsPerPage {
		s.hitsPerPage[page] = max(hits, 0)
		s.cursor[page] = 0
	}
	s.pages = slices.Sorted(maps.Keys(s.hitsPerPage))
	s.pos = -1
	if len(s.pages) > 0 {
		s.pos = 0
	}
}

// Loaded reports whether any pages are known
func (s *State) Loaded() bool {
	return s.pos >= 0
}

// Pages returns the page numbers in order
func (s *State) Pages() []int {
	return slices.Clone(s.pages)
}

// NumberPages returns the number of pages with hits
func (s *State) NumberPages() int {
	return len(s.pages)
}

// CurrentPage returns the current page number, or 0 when unpaged
func (s *State) CurrentPage() int {
	if !s.Loaded() {
		return 0
	}
	return s.pages[s.pos]
}

// HasNextPage reports whether a later page exists
func (s *State) HasNextPage() bool {
	return s.Loaded() && s.pos < len(s.pages)-1
}

// HasPreviousPage reports whether an earlier page exists
func (s *State) HasPreviousPage() bool {
	return s.Loaded() && s.pos > 0
}

// NextPage moves to the next page and returns its number
func (s *State) NextPage() (int, error) {
	if !s.HasNextPage() {
		return 0, fmt.Errorf("%w: no next page after %d", ErrInvalidState, s.CurrentPage())
	}
	s.pos++
	return s.CurrentPage(), nil
}

// PreviousPage moves to the previous page and returns its number
func (s *State) PreviousPage() (int, error) {
	if !s.HasPreviousPage() {
		return 0, fmt.Errorf("%w: no previous page before %d", ErrInvalidState, s.CurrentPage())
	}
	s.pos--
	return s.CurrentPage(), nil
}

// HasNextItem reports whether the current page has a hit after the cursor
func (s *State) HasNextItem() bool {
	if !s.Loaded() {
		return false
	}
	page := s.CurrentPage()
	return s.cursor[page] < s.hitsPerPage[page]
}

// HasPreviousItem reports whether the current page has a hit before the cursor
func (s *State) HasPreviousItem() bool {
	if !s.Loaded() {
		return false
	}
	return s.cursor[s.CurrentPage()] > 1
}

// NextItem advances the cursor on the current page and returns it
func (s *State) NextItem() (int, error) {
	if !s.HasNextItem() {
		return 0, fmt.Errorf("%w: no next hit on page %d", ErrInvalidState, s.CurrentPage())
	}
	page := s.CurrentPage()
	s.cursor[page]++
	return s.cursor[page], nil
}

// PreviousItem moves the cursor back on the current page and returns it
func (s *State) PreviousItem() (int, error) {
	if !s.HasPreviousItem() {
		return 0, fmt.Errorf("%w: no previous hit on page %d", ErrInvalidState, s.CurrentPage())
	}
	page := s.CurrentPage()
	s.cursor[page]--
	return s.cursor[page], nil
}

// CurrentItem returns the 1-based cursor on the current page; 0 means no hit
// is selected
func (s *State) CurrentItem() int {
	if !s.Loaded() {
		return 0
	}
	return s.cursor[s.CurrentPage()]
}

// NumberHits returns the hit count of the current page
func (s *State) NumberHits() int {
	if !s.Loaded() {
		return 0
	}
	return s.hitsPerPage[s.CurrentPage()]
}

// TotalHits returns the hit count over all pages counted so far
func (s *State) TotalHits() int {
	total := 0
	for _, n := range s.hitsPerPage {
		total += n
	}
	return total
}

// PageHits returns the hit count recorded for page
func (s *State) PageHits(page int) (int, bool) {
	n, ok := s.hitsPerPage[page]
	return n, ok
}

// SetPageHits records the hit count of a page once it has been rendered. If
// the page's cursor was at 0 and the page has hits, the cursor moves to the
// first hit.
func (s *State) SetPageHits(page, hits int) error {
	if _, ok := s.hitsPerPage[page]; !ok {
		return fmt.Errorf("%w: unknown page %d", ErrInvalidState, page)
	}
	if hits < 0 {
		return fmt.Errorf("%w: negative hit count %d for page %d", ErrInvalidState, hits, page)
	}
	s.hitsPerPage[page] = hits
	if s.cursor[page] > hits {
		s.cursor[page] = hits
	}
	if s.cursor[page] == 0 && hits > 0 {
		s.cursor[page] = 1
	}
	return nil
}

// RenderPage highlights terms in the text of the current page, records the
// page's hit count and returns the markup
func (s *State) RenderPage(text string, terms []string) (string, error) {
	if !s.Loaded() {
		return "", fmt.Errorf("%w: no page to render", ErrInvalidState)
	}
	markup, hits := Highlight(text, terms)
	if err := s.SetPageHits(s.CurrentPage(), hits); err != nil {
		return "", err
	}
	return markup, nil
}
