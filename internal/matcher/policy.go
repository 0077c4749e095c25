package matcher

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/publicsuffix"

	"github.com/dshills/kwindex/internal/creditcard"
	"github.com/dshills/kwindex/pkg/types"
)

var (
	phoneLeading  = regexp.MustCompile(`^[^0-9(]`)
	digitLeading  = regexp.MustCompile(`^[^0-9]`)
	digitTrailing = regexp.MustCompile(`[^0-9]+$`)
)

// hitPolicy is the attribute-type specific handling of extracted hits.
// Phone number and IP address patterns capture the boundary characters on
// each side, which are trimmed off again.
type hitPolicy struct {
	leading  *regexp.Regexp
	trailing *regexp.Regexp
	validate func(hit string) bool

	// alwaysSnippet keeps a snippet even when snippets are disabled
	alwaysSnippet bool
}

func policyFor(attr types.AttributeType, cfg Config) hitPolicy {
	switch attr {
	case types.AttrPhoneNumber:
		return hitPolicy{leading: phoneLeading, trailing: digitTrailing}
	case types.AttrIPAddress:
		return hitPolicy{leading: digitLeading, trailing: digitTrailing}
	case types.AttrEmail:
		minLen := cfg.MinEmailAddrLength
		return hitPolicy{validate: func(hit string) bool {
			return validEmail(hit, minLen)
		}}
	case types.AttrCreditCardNumber:
		return hitPolicy{validate: validCreditCard, alwaysSnippet: true}
	default:
		return hitPolicy{}
	}
}

func (p hitPolicy) trimsBoundaries() bool {
	return p.leading != nil
}

func (p hitPolicy) trim(hit string) string {
	hit = p.leading.ReplaceAllString(hit, "")
	return p.trailing.ReplaceAllString(hit, "")
}

// validEmail drops addresses that are too short or whose top level domain
// is not in the public suffix list
func validEmail(hit string, minLen int) bool {
	if utf8.RuneCountInString(hit) < minLen {
		return false
	}
	dot := strings.LastIndexByte(hit, '.')
	if dot < 0 || dot == len(hit)-1 {
		return false
	}
	return knownTLD(hit[dot+1:])
}

func knownTLD(tld string) bool {
	tld = strings.ToLower(tld)
	suffix, icann := publicsuffix.PublicSuffix(tld)
	return icann && suffix == tld
}

func validCreditCard(hit string) bool {
	_, ok := creditcard.ValidateCandidate(hit)
	return ok
}
