package matcher

import "unicode/utf8"

// makeSnippet wraps hit in delimiters with up to context characters of the
// surrounding text on each side. The match span is text[start:end]; the hit
// may be a trimmed form of it. Context never reaches outside text.
func makeSnippet(text string, start, end int, hit string, context int, delimiter string) string {
	return lastRunes(text[:start], context) + delimiter + hit + delimiter + firstRunes(text[end:], context)
}

func lastRunes(s string, n int) string {
	i := len(s)
	for ; n > 0 && i > 0; n-- {
		_, size := utf8.DecodeLastRuneInString(s[:i])
		i -= size
	}
	return s[i:]
}

func firstRunes(s string, n int) string {
	i := 0
	for ; n > 0 && i < len(s); n-- {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return s[:i]
}
