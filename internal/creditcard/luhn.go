package creditcard

import "strings"

// Luhn reports whether number passes the Luhn (mod 10) checksum. Spaces and
// dashes are ignored; any other non-digit fails the check.
func Luhn(number string) bool {
	digits := StripSeparators(number)
	if len(digits) < 2 {
		return false
	}

	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		c := digits[i]
		if c < '0' || c > '9' {
			return false
		}
		digit := int(c - '0')
		if double {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
		double = !double
	}
	return sum%10 == 0
}

// StripSeparators removes the spaces and dashes allowed between card digits
func StripSeparators(s string) string {
	if !strings.ContainsAny(s, " -") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != ' ' && s[i] != '-' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// Mask returns a PCI display form of a card number: first six and last four
// digits kept, the rest replaced with '*'. Short numbers are returned as is.
func Mask(number string) string {
	digits := StripSeparators(number)
	n := len(digits)
	if n <= 10 {
		return digits
	}
	return digits[:6] + strings.Repeat("*", n-10) + digits[n-4:]
}
