package creditcard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLuhn(t *testing.T) {
	tests := []struct {
		name   string
		number string
		want   bool
	}{
		{"valid visa", "4111111111111111", true},
		{"valid with spaces", "4111 1111 1111 1111", true},
		{"valid with dashes", "4111-1111-1111-1111", true},
		{"valid amex", "378282246310005", true},
		{"valid 13 digits", "4532015112830", true},
		{"bad check digit", "4111111111111112", false},
		{"letters", "41111111a1111111", false},
		{"empty", "", false},
		{"single digit", "0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Luhn(tt.number))
		})
	}
}

func TestStripSeparators(t *testing.T) {
	assert.Equal(t, "4111111111111111", StripSeparators("4111 1111-1111 1111"))
	assert.Equal(t, "4111", StripSeparators("4111"))
	assert.Equal(t, "", StripSeparators(" - "))
}

func TestMask(t *testing.T) {
	assert.Equal(t, "411111******1111", Mask("4111111111111111"))
	assert.Equal(t, "411111******1111", Mask("4111-1111-1111-1111"))
	assert.Equal(t, "378282*****0005", Mask("378282246310005"))
	assert.Equal(t, "1234567890", Mask("1234567890"))
}
