package navigation

import (
	"fmt"
	"html"
	"regexp"
	"slices"
	"strings"
)

// AnchorPrefix starts the id of every highlighted hit; the hit number follows
const AnchorPrefix = "searchres"

// Highlight escapes text as HTML and wraps every case-insensitive occurrence
// of terms in a numbered anchor. It returns the markup and the number of
// anchors inserted. Overlapping terms prefer the longest.
func Highlight(text string, terms []string) (string, int) {
	re := termsPattern(terms)
	if re == nil {
		return html.EscapeString(text), 0
	}

	var b strings.Builder
	b.Grow(len(text) + len(text)/8)

	count := 0
	last := 0
	for _, loc := range re.FindAllStringIndex(text, -1) {
		if loc[0] == loc[1] {
			continue
		}
		count++
		b.WriteString(html.EscapeString(text[last:loc[0]]))
		fmt.Fprintf(&b, `<span id="%s%d" class="keyword-hit">`, AnchorPrefix, count)
		b.WriteString(html.EscapeString(text[loc[0]:loc[1]]))
		b.WriteString(`</span>`)
		last = loc[1]
	}
	b.WriteString(html.EscapeString(text[last:]))
	return b.String(), count
}

// Anchor returns the anchor id of hit n
func Anchor(n int) string {
	return fmt.Sprintf("%s%d", AnchorPrefix, n)
}

func termsPattern(terms []string) *regexp.Regexp {
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.TrimSpace(t); t != "" {
			quoted = append(quoted, regexp.QuoteMeta(t))
		}
	}
	if len(quoted) == 0 {
		return nil
	}
	// leftmost-first alternation: longer terms must come first
	slices.SortStableFunc(quoted, func(a, b string) int {
		return len(b) - len(a)
	})
	return regexp.MustCompile(`(?i)(?:` + strings.Join(quoted, "|") + `)`)
}
