package creditcard

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// BINLength is the number of leading digits used for bank lookups
const BINLength = 8

// BankRecord describes the issuer of a range of card numbers
type BankRecord struct {
	Start        int    // first BIN of the range, inclusive
	End          int    // last BIN of the range, inclusive
	NumberLength int    // expected card number length, 0 if unknown
	Scheme       string // e.g. "visa"
	Brand        string
	CardType     string // e.g. "debit", "credit"
	Prepaid      bool
	BankName     string
	BankURL      string
	BankPhone    string
	BankCity     string
	Country      string
}

// Enrich adds the record's non-empty fields to attrs without overwriting
// anything already captured
func (r *BankRecord) Enrich(attrs Attributes) {
	attrs.AddIfAbsent(AttrScheme, r.Scheme)
	attrs.AddIfAbsent(AttrCardType, r.CardType)
	attrs.AddIfAbsent(AttrBrand, r.Brand)
	attrs.AddIfAbsent(AttrBankName, r.BankName)
	attrs.AddIfAbsent(AttrBankPhone, r.BankPhone)
	attrs.AddIfAbsent(AttrBankURL, r.BankURL)
	attrs.AddIfAbsent(AttrCountry, r.Country)
	attrs.AddIfAbsent(AttrCity, r.BankCity)
}

// BINLookup resolves the issuing bank for an eight digit BIN
type BINLookup interface {
	Lookup(bin int) (*BankRecord, bool)
}

// BINTable is a sorted, non-overlapping set of BIN ranges searched with a
// binary search. It is read-only after construction.
type BINTable struct {
	ranges []*BankRecord
}

// binFile is the JSON layout of a BIN table file
type binFile struct {
	Version string     `json:"version"`
	Ranges  []binEntry `json:"ranges"`
}

type binEntry struct {
	Start        string `json:"start"`
	End          string `json:"end"`
	NumberLength int    `json:"number_length"`
	Scheme       string `json:"scheme"`
	Brand        string `json:"brand"`
	Type         string `json:"type"`
	Prepaid      bool   `json:"prepaid"`
	BankName     string `json:"bank_name"`
	BankURL      string `json:"bank_url"`
	BankPhone    string `json:"bank_phone"`
	BankCity     string `json:"bank_city"`
	Country      string `json:"country"`
}

// NewBINTable builds a table from records. Records must not overlap.
func NewBINTable(records []*BankRecord) (*BINTable, error) {
	ranges := make([]*BankRecord, len(records))
	copy(ranges, records)
	sort.Slice(ranges, func(i, j int) bool {
		return ranges[i].Start < ranges[j].Start
	})

	for i, r := range ranges {
		if r.End < r.Start {
			return nil, fmt.Errorf("invalid BIN range %d-%d", r.Start, r.End)
		}
		if i > 0 && ranges[i-1].End >= r.Start {
			return nil, fmt.Errorf("BIN range %d-%d overlaps %d-%d",
				r.Start, r.End, ranges[i-1].Start, ranges[i-1].End)
		}
	}
	return &BINTable{ranges: ranges}, nil
}

// LoadBINTable reads a JSON BIN table file
func LoadBINTable(path string) (*BINTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read BIN table: %w", err)
	}
	return ParseBINTable(data)
}

// ParseBINTable parses a JSON BIN table. Range bounds shorter than BINLength
// digits are padded: starts with zeros, ends with nines.
func ParseBINTable(data []byte) (*BINTable, error) {
	var f binFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse BIN table: %w", err)
	}

	records := make([]*BankRecord, 0, len(f.Ranges))
	for i, e := range f.Ranges {
		start, err := padBIN(e.Start, '0')
		if err != nil {
			return nil, fmt.Errorf("failed to parse BIN range %d start: %w", i, err)
		}
		endText := e.End
		if endText == "" {
			endText = e.Start
		}
		end, err := padBIN(endText, '9')
		if err != nil {
			return nil, fmt.Errorf("failed to parse BIN range %d end: %w", i, err)
		}

		records = append(records, &BankRecord{
			Start:        start,
			End:          end,
			NumberLength: e.NumberLength,
			Scheme:       e.Scheme,
			Brand:        e.Brand,
			CardType:     e.Type,
			Prepaid:      e.Prepaid,
			BankName:     e.BankName,
			BankURL:      e.BankURL,
			BankPhone:    e.BankPhone,
			BankCity:     e.BankCity,
			Country:      e.Country,
		})
	}
	return NewBINTable(records)
}

// Lookup finds the range containing bin
func (t *BINTable) Lookup(bin int) (*BankRecord, bool) {
	if t == nil || len(t.ranges) == 0 {
		return nil, false
	}
	// first range starting after bin; the candidate is the one before it
	i := sort.Search(len(t.ranges), func(i int) bool {
		return t.ranges[i].Start > bin
	})
	if i == 0 {
		return nil, false
	}
	r := t.ranges[i-1]
	if bin > r.End {
		return nil, false
	}
	return r, true
}

// Len returns the number of ranges in the table
func (t *BINTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.ranges)
}

// BINPrefix returns the first BINLength digits of a card number as an
// integer, right-padding shorter numbers with zeros
func BINPrefix(number string) (int, error) {
	return padBIN(StripSeparators(number), '0')
}

func padBIN(s string, pad byte) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty BIN")
	}
	if len(s) > BINLength {
		s = s[:BINLength]
	} else if len(s) < BINLength {
		s += strings.Repeat(string(pad), BINLength-len(s))
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("invalid BIN %q", s)
		}
	}
	return strconv.Atoi(s)
}
