// Package keywordlist loads keyword lists from TOML files and provides the
// built-in lists for phone numbers, IP addresses, email addresses, URLs and
// credit card numbers.
//
// File format:
//
//	[[list]]
//	name = "Travel"
//	use_for_ingest = true
//
//	[[list.keyword]]
//	term = "passenger"        # literal substring
//
//	[[list.keyword]]
//	term = "cat"
//	whole_word = true
//
//	[[list.keyword]]
//	term = 'inv-\d{4}'
//	literal = false           # regular expression
//	type = "generic"          # or phone, ip, email, url, ccn
//
// Terms are literal unless literal = false.
package keywordlist
