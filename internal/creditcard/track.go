package creditcard

import (
	"errors"
	"regexp"
	"strings"

	"github.com/dshills/kwindex/pkg/types"
)

// MinCandidateLength is the shortest right-truncation tried by ValidateCandidate
const MinCandidateLength = 12

var (
	// ErrNoAccountNumber is returned when no account number can be parsed
	// from a hit snippet
	ErrNoAccountNumber = errors.New("failed to parse credit card account number")
)

var (
	// CCNPattern matches 12 to 19 digits, optionally separated by single
	// spaces or dashes, starting with 3, 4, 5 or 6
	CCNPattern = regexp.MustCompile(`(?P<ccn>[3456](?:[ -]?\d){11,18})`)

	// Track2Pattern matches ISO/IEC 7813 track 2 data. Every field after the
	// account number is optional.
	Track2Pattern = regexp.MustCompile(
		`[:;<=>?]?` + // start sentinel
			`(?P<accountNumber>[3456](?:[ -]?\d){11,18})` +
			`(?:[:;<=>?]` + // separator
			`(?:(?P<expiration>\d{4})` +
			`(?:(?P<serviceCode>\d{3})` +
			`(?:(?P<discretionary>[^:;<=>?]*)` +
			`(?:[:;<=>?]` + // end sentinel
			`(?P<LRC>.)?)?)?)?)?)?`)

	// Track1Pattern matches ISO/IEC 7813 track 1 data, which adds the
	// cardholder name. The format code is matched in either case because
	// snippets are built from lower-cased text.
	Track1Pattern = regexp.MustCompile(
		`(?:%?[Bb])?` + // start sentinel and format code
			`(?P<accountNumber>[3456](?:[ -]?\d){11,18})` +
			`\^(?P<name>[^^]{2,26})` +
			`(?:\^` +
			`(?:(?:\^|(?P<expiration>\d{4}))` +
			`(?:(?:\^|(?P<serviceCode>\d{3}))` +
			`(?:(?P<discretionary>[^?]*)` +
			`(?:\?(?P<LRC>.)?)?)?)?)?)?`)
)

// ValidateCandidate checks a hit captured by a card number keyword. It tries
// the hit at every length from the full string down to MinCandidateLength and
// returns the first card number that matches CCNPattern and passes Luhn.
//
// When more than one truncation is Luhn-valid the longest wins, which is not
// necessarily the number that was meant.
func ValidateCandidate(hit string) (string, bool) {
	ccnIndex := CCNPattern.SubexpIndex("ccn")
	for n := len(hit); n >= MinCandidateLength; n-- {
		m := CCNPattern.FindStringSubmatch(hit[:n])
		if m == nil {
			continue
		}
		if ccn := m[ccnIndex]; Luhn(ccn) {
			return ccn, true
		}
	}
	return "", false
}

// ParseTracks extracts account attributes from text holding track data.
// Track 1 is tried first, then track 2; a field captured by track 1 is not
// overwritten. The account number is stored without separators.
func ParseTracks(text string) Attributes {
	attrs := make(Attributes)
	if m := Track1Pattern.FindStringSubmatch(text); m != nil {
		addTrackFields(attrs, Track1Pattern, m)
		addGroup(attrs, AttrPersonName, Track1Pattern, m, "name")
	}
	if m := Track2Pattern.FindStringSubmatch(text); m != nil {
		addTrackFields(attrs, Track2Pattern, m)
	}
	return attrs
}

func addTrackFields(attrs Attributes, re *regexp.Regexp, m []string) {
	if i := re.SubexpIndex("accountNumber"); i >= 0 {
		attrs.AddIfAbsent(AttrAccountNumber, StripSeparators(m[i]))
	}
	addGroup(attrs, AttrExpiration, re, m, "expiration")
	addGroup(attrs, AttrServiceCode, re, m, "serviceCode")
	addGroup(attrs, AttrDiscretionary, re, m, "discretionary")
	addGroup(attrs, AttrLRC, re, m, "LRC")
}

func addGroup(attrs Attributes, key AttributeKey, re *regexp.Regexp, m []string, group string) {
	if i := re.SubexpIndex(group); i >= 0 {
		attrs.AddIfAbsent(key, m[i])
	}
}

// BuildAccountAttributes turns a card number hit into account attributes:
// track data parsed from the snippet (with the match delimiters removed), the
// account number promoted to the keyword, and bank details from lookup when
// one is given. It returns ErrNoAccountNumber when the snippet holds no
// parsable account number.
func BuildAccountAttributes(hit types.Hit, delimiter string, lookup BINLookup) (Attributes, error) {
	text := hit.Snippet
	if text == "" {
		text = hit.Text
	}
	if delimiter != "" {
		text = strings.ReplaceAll(text, delimiter, "")
	}

	attrs := ParseTracks(text)
	ccn, ok := attrs.Get(AttrAccountNumber)
	if !ok {
		return nil, ErrNoAccountNumber
	}
	if !Luhn(ccn) {
		// The track pattern is as greedy as the keyword was.
		ccn, ok = ValidateCandidate(ccn)
		if !ok {
			return nil, ErrNoAccountNumber
		}
		attrs.Set(AttrAccountNumber, ccn)
	}

	attrs.Set(AttrAccountType, AccountTypeCreditCard)
	attrs.Set(AttrKeyword, ccn)

	if lookup != nil {
		if bin, err := BINPrefix(ccn); err == nil {
			if rec, found := lookup.Lookup(bin); found {
				rec.Enrich(attrs)
			}
		}
	}
	return attrs, nil
}
