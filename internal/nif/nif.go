// Package nif validates Portuguese tax numbers (9 digits with a
// modulo-11 check digit).
package nif

import (
	"errors"
	"strings"
)

var (
	ErrLength        = errors.New("NIF must have exactly 9 digits")
	ErrCheckDigit    = errors.New("NIF check digit is incorrect")
	errNonNumeric    = ErrLength
	checkDigitWeight = [8]int{9, 8, 7, 6, 5, 4, 3, 2}
)

// Validate checks a NIF. An empty value is valid: the field is
// optional on clients.
func Validate(value string) error {
	s := strings.Join(strings.Fields(value), "")
	if s == "" {
		return nil
	}

	if len(s) != 9 {
		return ErrLength
	}

	sum := 0

	for i := 0; i < 8; i++ {
		d := int(s[i] - '0')
		if d < 0 || d > 9 {
			return errNonNumeric
		}

		sum += d * checkDigitWeight[i]
	}

	last := int(s[8] - '0')
	if last < 0 || last > 9 {
		return errNonNumeric
	}

	check := 11 - sum%11
	if check >= 10 {
		check = 0
	}

	if last != check {
		return ErrCheckDigit
	}

	return nil
}
