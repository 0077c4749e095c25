package keywordlist

import "github.com/dshills/kwindex/pkg/types"

// Names of the built-in lists
const (
	PhoneNumbers      = "Phone Numbers"
	IPAddresses       = "IP Addresses"
	EmailAddresses    = "Email Addresses"
	URLs              = "URLs"
	CreditCardNumbers = "Credit Card Numbers"
)

const (
	// Phone numbers and IP addresses take the boundary characters on each
	// side; the matcher trims them and rescans the last one. A trailing dot
	// only ends a number when no digit follows it.
	numberStart = `(?:^|[^\d.])`
	numberEnd   = `(?:$|[^\d.]|\.(?:$|[^\d]))`

	phonePattern = numberStart + `[(]{0,1}\d\d\d[)]{0,1}[\.-]\d\d\d[\.-]\d\d\d\d` + numberEnd

	ipOctet   = `(?:25[0-5]|2[0-4][0-9]|1[0-9]{2}|[1-9][0-9]|[0-9])`
	ipPattern = numberStart + `(?:` + ipOctet + `\.){3}` + ipOctet + numberEnd

	emailPattern = `[a-z0-9%+_-]+(?:\.[a-z0-9%+_-]+)*@(?:[a-z0-9](?:[a-z0-9-]*[a-z0-9])?\.)+[a-z]{2,24}`

	urlPattern = `((((ht|f)tp(s?))\://)|www\.)[a-zA-Z0-9\-\.]+\.([a-zA-Z]{2,5})(\:[0-9]+)*(/($|[a-zA-Z0-9\.\,\;\?\'\\\+&%\$#\=~_\-]+))*`

	ccnPattern = `[3456](?:[ -]?\d){11,18}`
)

// Builtin returns fresh copies of the built-in lists. They are locked and
// not used for ingest unless the caller enables them.
func Builtin() []*types.KeywordList {
	return []*types.KeywordList{
		builtinList(PhoneNumbers, phonePattern, types.AttrPhoneNumber),
		builtinList(IPAddresses, ipPattern, types.AttrIPAddress),
		builtinList(EmailAddresses, emailPattern, types.AttrEmail),
		builtinList(URLs, urlPattern, types.AttrURL),
		builtinList(CreditCardNumbers, ccnPattern, types.AttrCreditCardNumber),
	}
}

func builtinList(name, pattern string, attr types.AttributeType) *types.KeywordList {
	return &types.KeywordList{
		Name:     name,
		Keywords: []types.Keyword{types.NewKeyword(pattern, false, false, name, "", attr)},
		Locked:   true,
	}
}
