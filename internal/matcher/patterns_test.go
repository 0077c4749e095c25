package matcher

import (
	"bytes"
	"log"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatternCache_Get(t *testing.T) {
	cache := NewPatternCache(4, quietLogger())

	re, err := cache.Get(`(?i)abc`)
	require.NoError(t, err)
	assert.True(t, re.MatchString("xABCx"))

	again, err := cache.Get(`(?i)abc`)
	require.NoError(t, err)
	assert.Same(t, re, again)
	assert.Equal(t, 1, cache.Len())
}

func TestPatternCache_LogsCompileErrorOnce(t *testing.T) {
	var buf bytes.Buffer
	cache := NewPatternCache(4, log.New(&buf, "", 0))

	for i := 0; i < 3; i++ {
		re, err := cache.Get(`(unclosed`)
		assert.Nil(t, re)
		assert.Error(t, err)
	}
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("skipping keyword")))
}

func TestPatternCache_Eviction(t *testing.T) {
	cache := NewPatternCache(2, nil)
	for _, expr := range []string{"a", "b", "c"} {
		_, err := cache.Get(expr)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, cache.Len())
}

func TestPatternCache_Concurrent(t *testing.T) {
	cache := NewPatternCache(0, nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			re, err := cache.Get(`\d+`)
			assert.NoError(t, err)
			assert.True(t, re.MatchString("42"))
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, cache.Len())
}
