// Package creditcard validates credit card numbers found by keyword search
// and parses magnetic stripe track data around them.
//
// A regex keyword tagged as a card number tends to over-match: the digit
// pattern is greedy and picks up trailing noise. ValidateCandidate tries the
// hit at every length from the full run down to 12 characters and keeps the
// first truncation that matches CCNPattern and passes the Luhn checksum.
//
// Accepted hits are turned into account attributes by parsing ISO/IEC 7813
// track 1 and track 2 data out of the hit snippet:
//
//	attrs, err := creditcard.BuildAccountAttributes(hit, "«", table)
//	if errors.Is(err, creditcard.ErrNoAccountNumber) {
//	    // hit is dropped
//	}
//
// Bank metadata is added from a BIN table keyed on the first eight digits of
// the account number. A BINTable is immutable after loading and safe for
// concurrent lookups.
package creditcard
