package navigation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_Walk(t *testing.T) {
	s := NewState(map[int]int{7: 1, 3: 2})

	require.True(t, s.Loaded())
	assert.Equal(t, []int{3, 7}, s.Pages())
	assert.Equal(t, 2, s.NumberPages())
	assert.Equal(t, 3, s.CurrentPage())
	assert.Equal(t, 0, s.CurrentItem())
	assert.Equal(t, 2, s.NumberHits())
	assert.Equal(t, 3, s.TotalHits())
	assert.False(t, s.HasPreviousPage())
	assert.True(t, s.HasNextPage())

	item, err := s.NextItem()
	require.NoError(t, err)
	assert.Equal(t, 1, item)
	assert.False(t, s.HasPreviousItem())

	item, err = s.NextItem()
	require.NoError(t, err)
	assert.Equal(t, 2, item)
	assert.False(t, s.HasNextItem())
	assert.True(t, s.HasPreviousItem())

	_, err = s.NextItem()
	assert.ErrorIs(t, err, ErrInvalidState)

	page, err := s.NextPage()
	require.NoError(t, err)
	assert.Equal(t, 7, page)
	assert.Equal(t, 0, s.CurrentItem(), "each page keeps its own cursor")
	assert.Equal(t, 1, s.NumberHits())

	item, err = s.NextItem()
	require.NoError(t, err)
	assert.Equal(t, 1, item)

	assert.False(t, s.HasNextPage())
	_, err = s.NextPage()
	assert.ErrorIs(t, err, ErrInvalidState)

	page, err = s.PreviousPage()
	require.NoError(t, err)
	assert.Equal(t, 3, page)
	assert.Equal(t, 2, s.CurrentItem())

	item, err = s.PreviousItem()
	require.NoError(t, err)
	assert.Equal(t, 1, item)

	_, err = s.PreviousItem()
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = s.PreviousPage()
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestState_Unpaged(t *testing.T) {
	s := NewState(nil)

	assert.False(t, s.Loaded())
	assert.Equal(t, 0, s.CurrentPage())
	assert.Equal(t, 0, s.CurrentItem())
	assert.Equal(t, 0, s.NumberHits())
	assert.False(t, s.HasNextPage())
	assert.False(t, s.HasNextItem())

	_, err := s.NextPage()
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = s.NextItem()
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = s.RenderPage("text", []string{"text"})
	assert.ErrorIs(t, err, ErrInvalidState)

	s.Load(map[int]int{5: 1})
	assert.True(t, s.Loaded())
	assert.Equal(t, 5, s.CurrentPage())
}

func TestState_LazyHitCounts(t *testing.T) {
	s := NewState(map[int]int{1: 0, 4: 0})

	assert.False(t, s.HasNextItem(), "hits are unknown until rendered")

	require.NoError(t, s.SetPageHits(1, 3))
	assert.Equal(t, 1, s.CurrentItem(), "rendering lands on the first hit")
	assert.True(t, s.HasNextItem())

	n, ok := s.PageHits(1)
	assert.True(t, ok)
	assert.Equal(t, 3, n)

	require.NoError(t, s.SetPageHits(4, 0))
	_, err := s.NextPage()
	require.NoError(t, err)
	assert.Equal(t, 0, s.CurrentItem())

	assert.ErrorIs(t, s.SetPageHits(9, 1), ErrInvalidState)
	assert.ErrorIs(t, s.SetPageHits(1, -1), ErrInvalidState)
}

func TestState_SetPageHitsKeepsCursor(t *testing.T) {
	s := NewState(map[int]int{2: 3})
	_, err := s.NextItem()
	require.NoError(t, err)
	_, err = s.NextItem()
	require.NoError(t, err)

	require.NoError(t, s.SetPageHits(2, 3))
	assert.Equal(t, 2, s.CurrentItem())

	require.NoError(t, s.SetPageHits(2, 1))
	assert.Equal(t, 1, s.CurrentItem(), "cursor clamped to the new count")
}

func TestState_RenderPage(t *testing.T) {
	s := NewState(map[int]int{2: 0})

	markup, err := s.RenderPage("Apple and apple pie", []string{"apple"})
	require.NoError(t, err)
	assert.Contains(t, markup, `id="searchres2"`)
	assert.Equal(t, 2, s.NumberHits())
	assert.Equal(t, 1, s.CurrentItem())
}
