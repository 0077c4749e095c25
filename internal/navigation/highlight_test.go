package navigation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHighlight(t *testing.T) {
	markup, n := Highlight("The Cat & the cat<tag>", []string{"cat"})
	assert.Equal(t, 2, n)
	assert.Equal(t,
		`The <span id="searchres1" class="keyword-hit">Cat</span> &amp; the <span id="searchres2" class="keyword-hit">cat</span>&lt;tag&gt;`,
		markup)
}

func TestHighlight_PrefersLongestTerm(t *testing.T) {
	markup, n := Highlight("passenger pass", []string{"pass", "passenger"})
	assert.Equal(t, 2, n)
	assert.Contains(t, markup, `class="keyword-hit">passenger</span>`)
	assert.Contains(t, markup, `class="keyword-hit">pass</span>`)
}

func TestHighlight_NoTerms(t *testing.T) {
	markup, n := Highlight("a < b", nil)
	assert.Equal(t, 0, n)
	assert.Equal(t, "a &lt; b", markup)

	_, n = Highlight("text", []string{"  "})
	assert.Equal(t, 0, n)
}

func TestHighlight_QuotesTerms(t *testing.T) {
	_, n := Highlight("cost is $5.00 not 5x00", []string{"$5.00"})
	assert.Equal(t, 1, n)
}

func TestAnchor(t *testing.T) {
	assert.Equal(t, "searchres3", Anchor(3))
}
