package types

import (
	"errors"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// AttributeType tags a keyword that needs type-specific hit handling
type AttributeType string

const (
	AttrGeneric          AttributeType = ""
	AttrPhoneNumber      AttributeType = "phone"
	AttrIPAddress        AttributeType = "ip"
	AttrEmail            AttributeType = "email"
	AttrURL              AttributeType = "url"
	AttrCreditCardNumber AttributeType = "ccn"
)

// ParseAttributeType converts a configuration string into an AttributeType
func ParseAttributeType(s string) (AttributeType, error) {
	switch AttributeType(strings.ToLower(strings.TrimSpace(s))) {
	case AttrGeneric, "generic", "none":
		return AttrGeneric, nil
	case AttrPhoneNumber:
		return AttrPhoneNumber, nil
	case AttrIPAddress:
		return AttrIPAddress, nil
	case AttrEmail:
		return AttrEmail, nil
	case AttrURL:
		return AttrURL, nil
	case AttrCreditCardNumber, "credit_card", "card_number":
		return AttrCreditCardNumber, nil
	default:
		return AttrGeneric, ErrUnknownAttributeType
	}
}

// Keyword is an immutable search term. Build it with NewKeyword.
type Keyword struct {
	searchTerm   string
	isLiteral    bool
	isWholeWord  bool
	listName     string
	originalTerm string
	attrType     AttributeType
}

// KeywordKey is the comparable identity of a keyword. The attribute type is
// not part of it.
type KeywordKey struct {
	SearchTerm   string
	IsLiteral    bool
	IsWholeWord  bool
	ListName     string
	OriginalTerm string
}

// NewKeyword creates a keyword. The search term is NFKC-normalized; an empty
// originalTerm defaults to the normalized search term. isWholeWord is only
// kept for literal terms.
func NewKeyword(term string, isLiteral, isWholeWord bool, listName, originalTerm string, attrType AttributeType) Keyword {
	normalized := norm.NFKC.String(term)
	if originalTerm == "" {
		originalTerm = normalized
	}
	return Keyword{
		searchTerm:   normalized,
		isLiteral:    isLiteral,
		isWholeWord:  isLiteral && isWholeWord,
		listName:     listName,
		originalTerm: originalTerm,
		attrType:     attrType,
	}
}

func (k Keyword) SearchTerm() string           { return k.searchTerm }
func (k Keyword) IsLiteral() bool              { return k.isLiteral }
func (k Keyword) IsWholeWord() bool            { return k.isWholeWord }
func (k Keyword) ListName() string             { return k.listName }
func (k Keyword) OriginalTerm() string         { return k.originalTerm }
func (k Keyword) AttributeType() AttributeType { return k.attrType }
func (k Keyword) IsSubstring() bool            { return k.isLiteral && !k.isWholeWord }
func (k Keyword) IsRegex() bool                { return !k.isLiteral }

// Key returns the identity used for equality and map lookups
func (k Keyword) Key() KeywordKey {
	return KeywordKey{
		SearchTerm:   k.searchTerm,
		IsLiteral:    k.isLiteral,
		IsWholeWord:  k.isWholeWord,
		ListName:     k.listName,
		OriginalTerm: k.originalTerm,
	}
}

// Equal reports whether two keywords have the same identity
func (k Keyword) Equal(other Keyword) bool {
	return k.Key() == other.Key()
}

// WithSearchTerm returns a copy carrying a different search term, used to
// record the concrete text a substring or regex keyword matched.
func (k Keyword) WithSearchTerm(term string) Keyword {
	c := k
	c.searchTerm = norm.NFKC.String(term)
	return c
}

// Validate checks that the keyword can be searched for
func (k Keyword) Validate() error {
	if strings.TrimSpace(k.searchTerm) == "" {
		return ErrEmptySearchTerm
	}
	return nil
}

func (k Keyword) String() string {
	return k.searchTerm
}

// KeywordList is a named, ordered collection of keywords
type KeywordList struct {
	Name           string
	Keywords       []Keyword
	UseForIngest   bool
	Locked         bool
	IngestMessages bool
}

// Validate checks the list and every keyword in it
func (l *KeywordList) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return errors.New("keyword list name is required")
	}
	for _, k := range l.Keywords {
		if err := k.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// HasKeyword reports whether the list contains a keyword with the same identity
func (l *KeywordList) HasKeyword(k Keyword) bool {
	for _, existing := range l.Keywords {
		if existing.Equal(k) {
			return true
		}
	}
	return false
}
