package core

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// maxExponent bounds scientific notation so a typo like "1e999999" cannot
// produce a number with millions of digits.
const maxExponent = 308

var numericPrefix = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)

// ParseAmount converts form text to a decimal.
//
// A decimal comma is accepted when the text has no dot. Leading numeric text
// is honoured and the rest ignored; empty or non-numeric input yields zero.
//
// Examples:
//
//	ParseAmount("10.5")   -> 10.5
//	ParseAmount("10,5")   -> 10.5
//	ParseAmount("-3")     -> -3
//	ParseAmount("12abc")  -> 12
//	ParseAmount("abc")    -> 0
func ParseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	m := numericPrefix.FindString(s)
	if m == "" {
		return decimal.Zero
	}
	// decimal rejects a trailing dot such as "12."
	m = strings.Replace(m, ".e", "e", 1)
	m = strings.Replace(m, ".E", "E", 1)
	m = strings.TrimSuffix(m, ".")
	m = strings.TrimPrefix(m, "+")
	neg := strings.HasPrefix(m, "-")
	m = strings.TrimPrefix(m, "-")
	if strings.HasPrefix(m, ".") {
		m = "0" + m
	}
	if neg {
		m = "-" + m
	}
	d, err := decimal.NewFromString(m)
	if err != nil {
		return decimal.Zero
	}
	if exp := d.Exponent(); exp > maxExponent || exp < -maxExponent {
		return decimal.Zero
	}
	return d
}

// FormatAmount renders an amount with two decimals for display.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
