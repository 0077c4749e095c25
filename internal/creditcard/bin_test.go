package creditcard

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBINTable = `{
  "version": "1",
  "ranges": [
    {"start": "4111", "end": "4111", "scheme": "visa", "type": "credit", "bank_name": "First Bank", "bank_city": "Springfield", "country": "US"},
    {"start": "51", "end": "55", "scheme": "mastercard", "type": "debit"},
    {"start": "378282", "scheme": "amex", "brand": "green", "bank_phone": "555-0100", "bank_url": "https://example.com"}
  ]
}`

func TestParseBINTable(t *testing.T) {
	table, err := ParseBINTable([]byte(testBINTable))
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())

	tests := []struct {
		name       string
		number     string
		wantScheme string
		wantFound  bool
	}{
		{"visa start of range", "4111000000000000", "visa", true},
		{"visa end of range", "4111999900000000", "visa", true},
		{"mastercard padded range", "5500000000000004", "mastercard", true},
		{"mastercard start", "5100000000000000", "mastercard", true},
		{"amex single bin", "378282246310005", "amex", true},
		{"gap between ranges", "4112000000000000", "", false},
		{"below first range", "3000000000000000", "", false},
		{"above last range", "6011000000000000", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bin, err := BINPrefix(tt.number)
			require.NoError(t, err)

			rec, found := table.Lookup(bin)
			assert.Equal(t, tt.wantFound, found)
			if tt.wantFound {
				assert.Equal(t, tt.wantScheme, rec.Scheme)
			}
		})
	}
}

func TestLoadBINTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bins.json")
	require.NoError(t, os.WriteFile(path, []byte(testBINTable), 0o600))

	table, err := LoadBINTable(path)
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())

	_, err = LoadBINTable(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestParseBINTable_Errors(t *testing.T) {
	_, err := ParseBINTable([]byte("{not json"))
	assert.Error(t, err)

	_, err = ParseBINTable([]byte(`{"ranges":[{"start":"4x11"}]}`))
	assert.Error(t, err)

	_, err = ParseBINTable([]byte(`{"ranges":[{"start":"41","end":"42"},{"start":"4150"}]}`))
	assert.Error(t, err, "overlapping ranges")
}

func TestBankRecord_Enrich(t *testing.T) {
	rec := &BankRecord{Scheme: "visa", Brand: "classic", BankName: "First Bank", BankCity: "Springfield"}
	attrs := Attributes{AttrBankName: "Parsed Bank"}

	rec.Enrich(attrs)
	assert.Equal(t, "visa", attrs[AttrScheme])
	assert.Equal(t, "classic", attrs[AttrBrand])
	assert.Equal(t, "Parsed Bank", attrs[AttrBankName])
	assert.Equal(t, "Springfield", attrs[AttrCity])
	_, ok := attrs.Get(AttrCountry)
	assert.False(t, ok)
}

func TestBINPrefix(t *testing.T) {
	bin, err := BINPrefix("4111-1111-1111-1111")
	require.NoError(t, err)
	assert.Equal(t, 41111111, bin)

	bin, err = BINPrefix("4111")
	require.NoError(t, err)
	assert.Equal(t, 41110000, bin)

	_, err = BINPrefix("")
	assert.Error(t, err)
}

func TestBINTable_NilSafe(t *testing.T) {
	var table *BINTable
	_, found := table.Lookup(41111111)
	assert.False(t, found)
	assert.Equal(t, 0, table.Len())
}
