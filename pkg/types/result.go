package types

// SearchResult is a single hit returned by an ad-hoc keyword search over
// indexed chunks
type SearchResult struct {
	Rank    int // Position in result set (1-based)
	Keyword Keyword
	Hit     Hit
}

// Validate checks if the search result is valid
func (sr *SearchResult) Validate() error {
	if sr.Rank < 1 {
		return ErrInvalidRank
	}
	if err := sr.Keyword.Validate(); err != nil {
		return err
	}
	return sr.Hit.Validate()
}
