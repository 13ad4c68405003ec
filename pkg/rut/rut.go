// Package rut validates and formats Chilean tax identifiers (RUT), whose
// last character is a módulo 11 check digit.
package rut

import (
	"errors"
	"strconv"
	"strings"
)

// ErrInvalid is returned for identifiers that fail the check digit.
var ErrInvalid = errors.New("invalid rut")

// Normalize strips dots, dashes and spaces and upper-cases the check digit:
// "12.345.678-5" becomes "123456785".
func Normalize(value string) string {
	r := strings.NewReplacer(".", "", "-", "", " ", "")
	return strings.ToUpper(r.Replace(strings.TrimSpace(value)))
}

// CheckDigit computes the módulo 11 check digit for a numeric body.
func CheckDigit(body string) (byte, error) {
	if body == "" {
		return 0, ErrInvalid
	}
	sum, factor := 0, 2
	for i := len(body) - 1; i >= 0; i-- {
		c := body[i]
		if c < '0' || c > '9' {
			return 0, ErrInvalid
		}
		sum += int(c-'0') * factor
		factor++
		if factor > 7 {
			factor = 2
		}
	}
	switch check := 11 - sum%11; check {
	case 11:
		return '0', nil
	case 10:
		return 'K', nil
	default:
		return strconv.Itoa(check)[0], nil
	}
}

// Valid reports whether value carries a correct check digit. Dots and the
// dash are optional.
func Valid(value string) bool {
	s := Normalize(value)
	if len(s) < 2 {
		return false
	}
	want, err := CheckDigit(s[:len(s)-1])
	if err != nil {
		return false
	}
	return s[len(s)-1] == want
}

// Validate returns the normalized identifier or ErrInvalid.
func Validate(value string) (string, error) {
	if !Valid(value) {
		return "", ErrInvalid
	}
	return Normalize(value), nil
}

// Format renders value with thousands dots and a dash before the check
// digit. It does not validate.
func Format(value string) string {
	s := Normalize(value)
	if len(s) < 2 {
		return value
	}
	body, dv := s[:len(s)-1], s[len(s)-1:]
	var parts []string
	for len(body) > 3 {
		parts = append([]string{body[len(body)-3:]}, parts...)
		body = body[:len(body)-3]
	}
	if body != "" {
		parts = append([]string{body}, parts...)
	}
	return strings.Join(parts, ".") + "-" + dv
}
