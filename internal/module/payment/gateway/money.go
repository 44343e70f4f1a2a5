package gateway

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// zeroDecimal lists currencies whose minor unit is the major unit.
var zeroDecimal = map[string]bool{
	"BIF": true, "CLP": true, "DJF": true, "GNF": true, "JPY": true,
	"KMF": true, "KRW": true, "MGA": true, "PYG": true, "RWF": true,
	"UGX": true, "VND": true, "VUV": true, "XAF": true, "XOF": true,
	"XPF": true,
}

// Exponent returns the number of minor-unit digits for currency.
func Exponent(currency string) int32 {
	if zeroDecimal[strings.ToUpper(currency)] {
		return 0
	}
	return 2
}

// ToDecimal converts an amount in minor units to its major-unit value.
func ToDecimal(minor int64, currency string) decimal.Decimal {
	return decimal.New(minor, -Exponent(currency))
}

// FormatAmount renders minor units as the fixed-point string wallets expect ("12.50").
func FormatAmount(minor int64, currency string) string {
	return ToDecimal(minor, currency).StringFixed(Exponent(currency))
}

// ParseAmount converts a major-unit string to minor units. It fails when the
// value has more precision than the currency allows.
func ParseAmount(s, currency string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	exp := Exponent(currency)
	minor := d.Shift(exp)
	if !minor.Equal(minor.Truncate(0)) {
		return 0, fmt.Errorf("amount %q exceeds %d decimal places", s, exp)
	}
	return minor.IntPart(), nil
}

// SameAmount reports whether two major-unit strings denote the same amount,
// so "10" and "10.00" match.
func SameAmount(a, b, currency string) bool {
	x, err := ParseAmount(a, currency)
	if err != nil {
		return false
	}
	y, err := ParseAmount(b, currency)
	if err != nil {
		return false
	}
	return x == y
}
