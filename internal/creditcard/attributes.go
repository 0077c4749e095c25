package creditcard

import "strings"

// AttributeKey names one piece of account information
type AttributeKey string

const (
	AttrAccountNumber AttributeKey = "card_number"
	AttrExpiration    AttributeKey = "card_expiration"
	AttrServiceCode   AttributeKey = "card_service_code"
	AttrDiscretionary AttributeKey = "card_discretionary"
	AttrLRC           AttributeKey = "card_lrc"
	AttrPersonName    AttributeKey = "name_person"
	AttrKeyword       AttributeKey = "keyword"
	AttrAccountType   AttributeKey = "account_type"
	AttrScheme        AttributeKey = "card_scheme"
	AttrCardType      AttributeKey = "card_type"
	AttrBrand         AttributeKey = "brand_name"
	AttrBankName      AttributeKey = "bank_name"
	AttrBankPhone     AttributeKey = "bank_phone"
	AttrBankURL       AttributeKey = "bank_url"
	AttrCountry       AttributeKey = "country"
	AttrCity          AttributeKey = "city"
	AttrDocumentID    AttributeKey = "document_id"
)

// AccountTypeCreditCard is the account type recorded for card hits
const AccountTypeCreditCard = "CREDIT_CARD"

// Attributes holds the parsed account information for one hit. Values are
// never blank.
type Attributes map[AttributeKey]string

// Get returns the value for key
func (a Attributes) Get(key AttributeKey) (string, bool) {
	v, ok := a[key]
	return v, ok
}

// Set stores a non-blank value, replacing any previous one
func (a Attributes) Set(key AttributeKey, value string) {
	if isBlank(value) {
		return
	}
	a[key] = value
}

// AddIfAbsent stores a non-blank value only when key has not been captured
// yet. It reports whether the value was stored.
func (a Attributes) AddIfAbsent(key AttributeKey, value string) bool {
	if _, ok := a[key]; ok || isBlank(value) {
		return false
	}
	a[key] = value
	return true
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
