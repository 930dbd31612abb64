// Package phone reshapes user-entered phone numbers into the dialing format the gateway expects.
package phone

import "strings"

const (
	// CountryCode replaces a leading trunk zero.
	CountryCode = "254"
	// CanonicalLength is the digit count of a normalized number.
	CanonicalLength = 12
)

var stripper = strings.NewReplacer(" ", "", "\t", "", "\n", "", "\r", "", "-", "", "(", "", ")", "")

// Normalize returns the canonical 12-digit form of s, or false when s cannot be reshaped.
func Normalize(s string) (string, bool) {
	cleaned := stripper.Replace(s)
	cleaned = strings.TrimPrefix(cleaned, "+")

	if strings.HasPrefix(cleaned, "0") {
		cleaned = CountryCode + cleaned[1:]
	}

	if len(cleaned) != CanonicalLength || !allDigits(cleaned) {
		return "", false
	}
	return cleaned, true
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
