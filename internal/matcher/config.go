package matcher

const (
	// DefaultSnippetContextChars is the number of characters kept on each
	// side of a hit in its snippet
	DefaultSnippetContextChars = 20

	// DefaultSnippetDelimiter wraps the hit inside its snippet
	DefaultSnippetDelimiter = "«"

	// DefaultBoundaryCharacters is the character class stripped from both
	// ends of substring hits
	DefaultBoundaryCharacters = `[\s\p{Z}.,;:!?'"()\[\]{}<>]`

	// MinEmailAddrLength is the shortest email hit that is kept
	MinEmailAddrLength = 8

	// DefaultPatternCacheSize bounds the number of compiled expressions kept
	DefaultPatternCacheSize = 1024
)

// Config controls hit extraction. The zero value is not useful; start from
// DefaultConfig.
type Config struct {
	// IncludeSnippets attaches a context snippet to every hit. Credit card
	// hits always get one because their track data is parsed from it.
	IncludeSnippets bool

	SnippetContextChars int
	SnippetDelimiter    string

	// BoundaryCharacters is a regular expression character class
	BoundaryCharacters string

	MinEmailAddrLength int
}

// DefaultConfig returns the standard extraction settings
func DefaultConfig() Config {
	return Config{
		IncludeSnippets:     true,
		SnippetContextChars: DefaultSnippetContextChars,
		SnippetDelimiter:    DefaultSnippetDelimiter,
		BoundaryCharacters:  DefaultBoundaryCharacters,
		MinEmailAddrLength:  MinEmailAddrLength,
	}
}

// withDefaults fills zero fields from DefaultConfig
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.SnippetContextChars <= 0 {
		c.SnippetContextChars = d.SnippetContextChars
	}
	if c.SnippetDelimiter == "" {
		c.SnippetDelimiter = d.SnippetDelimiter
	}
	if c.BoundaryCharacters == "" {
		c.BoundaryCharacters = d.BoundaryCharacters
	}
	if c.MinEmailAddrLength <= 0 {
		c.MinEmailAddrLength = d.MinEmailAddrLength
	}
	return c
}
