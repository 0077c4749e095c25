package chunker

import "unicode/utf8"

// ValidForIndex reports whether r can be written to the index as UTF-8.
// Undecodable input, surrogate halves and values past unicode.MaxRune are
// rejected.
func ValidForIndex(r rune) bool {
	return r >= 0 && utf8.ValidRune(r)
}

// SanitizeString replaces every character of s rejected by valid with
// Placeholder. Invalid UTF-8 bytes are replaced one byte at a time.
func SanitizeString(s string, valid func(rune) bool) string {
	if valid == nil {
		valid = ValidForIndex
	}
	out := make([]rune, 0, len(s))
	changed := false
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			r = invalidRune
		}
		if !valid(r) {
			r = Placeholder
			changed = true
		}
		out = append(out, r)
		i += size
	}
	if !changed {
		return s
	}
	return string(out)
}
