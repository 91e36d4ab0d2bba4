// Package core provides money parsing and handling utilities.
//
// Amounts are kept in cents. Parsing is deliberately lax: it reads the longest
// leading decimal number of the input the same way a browser float parse does,
// so "500abc" is 500 while "abc" is not a number at all.
package core

import (
	"math"
	"strconv"
	"strings"
)

const (
	// maxUnits leaves room for the cents part, including a rounding carry.
	maxUnits = (math.MaxInt64 - 100) / 100
	// maxExponent bounds the exponent shift; anything larger overflows anyway.
	maxExponent = 40
)

// ParseAmount converts the leading decimal number of s to Money.
//
// Surrounding whitespace is ignored and a leading sign is accepted (negative
// values parse, they only fail validation later). An exponent is read when
// digits follow the "e". Digits past the second decimal are rounded half-up on
// the third. Returns ErrInvalidAmount when s does not start with a number or the
// value does not fit in cents.
//
// Examples:
//
//	ParseAmount("500")      -> 50000 cents
//	ParseAmount("12.345")   -> 1235 cents
//	ParseAmount("7.5kg")    -> 750 cents
//	ParseAmount("1e3")      -> 100000 cents
//	ParseAmount("-3")       -> -300 cents
//	ParseAmount("lunch")    -> ErrInvalidAmount
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	neg := false
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		neg = s[0] == '-'
		s = s[1:]
	}

	intEnd := scanDigits(s, 0)
	intPart := s[:intEnd]

	end := intEnd
	fracPart := ""
	if end < len(s) && s[end] == '.' {
		fracEnd := scanDigits(s, end+1)
		fracPart = s[end+1 : fracEnd]
		end = fracEnd
	}
	if intPart == "" && fracPart == "" {
		return Money{}, ErrInvalidAmount
	}

	if exp, ok := readExponent(s[end:]); ok {
		switch {
		case exp > maxExponent:
			return Money{}, ErrInvalidAmount
		case exp < -maxExponent:
			intPart, fracPart = "0", ""
		default:
			intPart, fracPart = shiftPoint(intPart, fracPart, exp)
		}
	}
	if intPart == "" {
		intPart = "0"
	}

	units, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil || units > maxUnits {
		return Money{}, ErrInvalidAmount
	}

	var frac int64
	if len(fracPart) > 0 {
		frac = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			frac += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				frac++
			}
		}
	}

	cents := units*100 + frac
	if neg {
		cents = -cents
	}
	return Money{Cents: cents}, nil
}

func scanDigits(s string, i int) int {
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return i
}

// readExponent parses a leading "e[+-]digits". A bare "e" is not an exponent.
func readExponent(s string) (int, bool) {
	if len(s) < 2 || (s[0] != 'e' && s[0] != 'E') {
		return 0, false
	}
	i := 1
	neg := false
	if s[i] == '+' || s[i] == '-' {
		neg = s[i] == '-'
		i++
	}
	end := scanDigits(s, i)
	if end == i {
		return 0, false
	}
	exp, err := strconv.Atoi(s[i:end])
	if err != nil {
		exp = maxExponent + 1
	}
	if neg {
		exp = -exp
	}
	return exp, true
}

// shiftPoint moves the decimal point of intPart.fracPart by exp places.
func shiftPoint(intPart, fracPart string, exp int) (string, string) {
	digits := intPart + fracPart
	point := len(intPart) + exp
	if point < 0 {
		digits = strings.Repeat("0", -point) + digits
		point = 0
	}
	if point > len(digits) {
		digits += strings.Repeat("0", point-len(digits))
	}
	return digits[:point], digits[point:]
}

// ParsePositive parses s with ParseAmount and returns invalid when the value is
// missing, not a number or not strictly positive.
func ParsePositive(s string, invalid error) (Money, error) {
	m, err := ParseAmount(s)
	if err != nil || m.Cents <= 0 {
		return Money{}, invalid
	}
	return m, nil
}

// MoneyFromFloat rounds a decimal value to the nearest cent.
func MoneyFromFloat(f float64) Money {
	return Money{Cents: int64(math.Round(f * 100))}
}

// Float returns the decimal value for serialization and charting.
// Use cents for arithmetic.
func (m Money) Float() float64 {
	return float64(m.Cents) / 100.0
}

// String formats the amount with exactly two decimals ("500.00", "-12.30").
func (m Money) String() string {
	cents := m.Cents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return sign + strconv.FormatInt(cents/100, 10) + "." + twoDigits(cents%100)
}

// Text is the compact decimal form used for persisted scalars ("800", "62.5").
func (m Money) Text() string {
	return strconv.FormatFloat(m.Float(), 'f', -1, 64)
}

func twoDigits(v int64) string {
	if v < 10 {
		return "0" + strconv.FormatInt(v, 10)
	}
	return strconv.FormatInt(v, 10)
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
