package numeric

import (
	"math/big"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// FractionScale is the number of digits kept when a fraction's denominator is not a
// power of ten ("1/3" parses as 0.333333333333).
const FractionScale int32 = 12

// Parse reads a number in any of the textual shapes found in a book:
//
//	132760/100      canonical on-disk fraction; a power-of-ten denominator sets the scale
//	1/3             any other denominator is divided at FractionScale, half-up
//	-1327.60        plain decimal
//	1.327,60 €      locale-flavored re-entry: grouping, comma decimals, currency glyphs
//	$ 1,327.60
//	(12.50)         parentheses mark a negative amount
//
// When both '.' and ',' appear, the right-most one is the decimal separator. When only
// one of them appears, repeated occurrences are grouping and a single occurrence is the
// decimal separator, so "1,5" is 1.5 and "1,000,000" is one million.
func Parse(text string) (Decimal, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return Zero, NewParseError(text, text, "empty input")
	}

	if strings.ContainsRune(s, '/') {
		return parseFraction(text, s)
	}
	return parseLocale(text, s)
}

// MustParse is like Parse but panics on error.
// Use only in tests or for constants known to be valid.
func MustParse(text string) Decimal {
	d, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return d
}

func parseFraction(input, s string) (Decimal, error) {
	numStr, denomStr, _ := strings.Cut(s, "/")
	numStr = strings.TrimSpace(numStr)
	denomStr = strings.TrimSpace(denomStr)

	num, ok := new(big.Int).SetString(strings.TrimPrefix(numStr, "+"), 10)
	if !ok {
		return Zero, NewParseError(input, numStr, "invalid numerator")
	}
	if !isDigits(denomStr) {
		return Zero, NewParseError(input, denomStr, "invalid denominator")
	}

	// A denominator of 1 followed only by zeros sets the scale directly.
	if denomStr[0] == '1' && strings.Trim(denomStr[1:], "0") == "" {
		return NewFromBigInt(num, int32(len(denomStr)-1)), nil
	}

	denom, _ := new(big.Int).SetString(denomStr, 10)
	if denom.Sign() == 0 {
		return Zero, NewParseError(input, denomStr, "zero denominator")
	}
	q := decimal.NewFromBigInt(num, 0).DivRound(decimal.NewFromBigInt(denom, 0), FractionScale)
	return Decimal{d: q}, nil
}

func parseLocale(input, s string) (Decimal, error) {
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	// Drop currency glyphs and grouping whitespace/apostrophes.
	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.Is(unicode.Sc, r):
		case r == ' ', r == '\u00a0', r == '\u202f', r == '\'', r == '\u2019':
		default:
			b.WriteRune(r)
		}
	}
	s = b.String()

	switch {
	case strings.HasPrefix(s, "-"):
		negative = !negative
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	case strings.HasSuffix(s, "-"):
		negative = !negative
		s = s[:len(s)-1]
	}
	if s == "" {
		return Zero, NewParseError(input, input, "no digits")
	}

	for i, r := range s {
		if r != '.' && r != ',' && (r < '0' || r > '9') {
			return Zero, NewParseError(input, s[i:], "unexpected character")
		}
	}

	intPart, fracPart, err := splitSeparators(input, s)
	if err != nil {
		return Zero, err
	}

	canonical := intPart
	if fracPart != "" {
		canonical += "." + fracPart
	}
	if negative {
		canonical = "-" + canonical
	}
	d, derr := decimal.NewFromString(canonical)
	if derr != nil {
		return Zero, NewParseError(input, s, derr.Error())
	}
	return Decimal{d: d}, nil
}

// splitSeparators decides which of '.' and ',' is the decimal separator and returns
// the integer and fractional digits with grouping removed.
func splitSeparators(input, s string) (string, string, error) {
	dots := strings.Count(s, ".")
	commas := strings.Count(s, ",")

	var decimalSep, groupSep byte
	switch {
	case dots > 0 && commas > 0:
		if strings.LastIndexByte(s, '.') > strings.LastIndexByte(s, ',') {
			decimalSep, groupSep = '.', ','
		} else {
			decimalSep, groupSep = ',', '.'
		}
	case dots > 1:
		groupSep = '.'
	case commas > 1:
		groupSep = ','
	case dots == 1:
		decimalSep = '.'
	case commas == 1:
		decimalSep = ','
	}

	intPart, fracPart := s, ""
	if decimalSep != 0 {
		i := strings.LastIndexByte(s, decimalSep)
		intPart, fracPart = s[:i], s[i+1:]
		if strings.IndexByte(intPart, decimalSep) >= 0 {
			return "", "", NewParseError(input, s, "repeated decimal separator")
		}
		if strings.IndexByte(fracPart, groupSep) >= 0 && groupSep != 0 {
			return "", "", NewParseError(input, fracPart, "grouping after decimal separator")
		}
	}

	if groupSep != 0 {
		groups := strings.Split(intPart, string(groupSep))
		for i, g := range groups {
			switch {
			case g == "":
				return "", "", NewParseError(input, intPart, "empty digit group")
			case i == 0 && len(g) > 3, i > 0 && len(g) != 3:
				return "", "", NewParseError(input, intPart, "digit groups must have three digits")
			}
		}
		intPart = strings.Join(groups, "")
	}

	if intPart == "" {
		intPart = "0"
	}
	if !isDigits(intPart) || (fracPart != "" && !isDigits(fracPart)) {
		return "", "", NewParseError(input, s, "malformed number")
	}
	if decimalSep != 0 && fracPart == "" && intPart == "0" {
		return "", "", NewParseError(input, s, "no digits")
	}
	return intPart, fracPart, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
