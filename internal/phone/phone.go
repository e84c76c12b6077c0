// Package phone normalizes WhatsApp sender numbers to E.164 form.
package phone

import (
	"errors"
	"strings"
)

// minDigits is the shortest number accepted as a routable phone number.
const minDigits = 10

// ErrInvalid is returned for inputs that cannot be a routable number.
var ErrInvalid = errors.New("phone: invalid number")

// Normalize strips everything but digits and returns "+<digits>".
// Numbers with fewer than ten digits are rejected.
func Normalize(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) < minDigits {
		return "", ErrInvalid
	}
	return "+" + digits, nil
}
