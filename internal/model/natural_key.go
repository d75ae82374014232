package model

import (
	"strings"
	"unicode"
)

// NaturalKey holds the business identifiers used to detect duplicate employees.
type NaturalKey struct {
	Email      string
	Phone      string
	NationalID string
}

// Normalized returns a copy of the key in its canonical comparison form.
func (k NaturalKey) Normalized() NaturalKey {
	return NaturalKey{
		Email:      NormalizeEmail(k.Email),
		Phone:      NormalizePhone(k.Phone),
		NationalID: NormalizeNationalID(k.NationalID),
	}
}

// IsEmpty reports whether the key carries no identifier at all.
func (k NaturalKey) IsEmpty() bool {
	n := k.Normalized()
	return n.Email == "" && n.Phone == "" && n.NationalID == ""
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePhone keeps only the digits of a phone number and rewrites the
// international 972 prefix to the local trunk prefix.
func NormalizePhone(phone string) string {
	digits := digitsOnly(phone)
	if strings.HasPrefix(digits, "972") && len(digits) > 9 {
		digits = "0" + digits[3:]
	}
	return digits
}

// NormalizeNationalID keeps only the digits and letters of an identity number.
func NormalizeNationalID(id string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(id) {
		if unicode.IsDigit(r) || unicode.IsLetter(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
