package matcher

import (
	"fmt"
	"io"
	"log"
	"regexp"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// compiled is a cached compile result. Failures are cached too so a broken
// keyword is compiled and reported once.
type compiled struct {
	re  *regexp.Regexp
	err error
}

// PatternCache holds compiled regular expressions shared by all matchers
type PatternCache struct {
	cache  *lru.Cache[string, compiled]
	mu     sync.Mutex
	logger *log.Logger
}

// NewPatternCache creates a cache holding up to size expressions
func NewPatternCache(size int, logger *log.Logger) *PatternCache {
	if size <= 0 {
		size = DefaultPatternCacheSize
	}
	cache, err := lru.New[string, compiled](size)
	if err != nil {
		// This should never happen with a positive size
		panic(fmt.Sprintf("failed to create pattern cache: %v", err))
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &PatternCache{cache: cache, logger: logger}
}

// Get returns the compiled form of expr
func (c *PatternCache) Get(expr string) (*regexp.Regexp, error) {
	if entry, ok := c.cache.Get(expr); ok {
		return entry.re, entry.err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// another goroutine may have compiled it while we waited
	if entry, ok := c.cache.Get(expr); ok {
		return entry.re, entry.err
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		err = fmt.Errorf("failed to compile pattern %q: %w", expr, err)
		c.logger.Printf("matcher: skipping keyword: %v", err)
	}
	c.cache.Add(expr, compiled{re: re, err: err})
	return re, err
}

// Len returns the number of cached expressions
func (c *PatternCache) Len() int {
	return c.cache.Len()
}
