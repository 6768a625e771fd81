// Package money converts between API decimal strings ("500.00", "-120.5")
// and the minor-unit (paise) int64 values stored in the ledger tables.
package money

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrTooManyDecimals = errors.New("amount has too many decimal places")
	ErrNegativeAmount  = errors.New("amount must not be negative")
)

// ParseMinor parses a signed decimal string with at most two fractional
// digits into minor units.
func ParseMinor(input string) (int64, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return 0, ErrInvalidAmount
	}
	sign := int64(1)
	switch trimmed[0] {
	case '-':
		sign = -1
		trimmed = trimmed[1:]
	case '+':
		trimmed = trimmed[1:]
	}
	wholePart, fracPart, _ := strings.Cut(trimmed, ".")
	if wholePart == "" && fracPart == "" {
		return 0, ErrInvalidAmount
	}
	if wholePart == "" {
		wholePart = "0"
	}
	if !isDigits(wholePart) {
		return 0, ErrInvalidAmount
	}
	if len(fracPart) > 2 {
		return 0, ErrTooManyDecimals
	}
	if fracPart != "" && !isDigits(fracPart) {
		return 0, ErrInvalidAmount
	}
	whole, err := strconv.ParseInt(wholePart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	frac := int64(0)
	switch len(fracPart) {
	case 1:
		frac = int64(fracPart[0]-'0') * 10
	case 2:
		frac = int64(fracPart[0]-'0')*10 + int64(fracPart[1]-'0')
	}
	return sign * (whole*100 + frac), nil
}

// ParseNonNegativeMinor is ParseMinor restricted to amounts >= 0. Debit
// and credit columns are never negative.
func ParseNonNegativeMinor(input string) (int64, error) {
	minor, err := ParseMinor(input)
	if err != nil {
		return 0, err
	}
	if minor < 0 {
		return 0, ErrNegativeAmount
	}
	return minor, nil
}

// FormatMinor renders minor units as a fixed two-decimal string.
func FormatMinor(value int64) string {
	negative := value < 0
	if negative {
		value = -value
	}
	formatted := fmt.Sprintf("%d.%02d", value/100, value%100)
	if negative {
		return "-" + formatted
	}
	return formatted
}

func isDigits(value string) bool {
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
