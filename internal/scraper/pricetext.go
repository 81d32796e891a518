package scraper

import (
	"regexp"
	"strconv"
	"strings"
)

// Supported currency symbols. Anything else is reported as no currency.
var (
	adjacentPricePattern = regexp.MustCompile(`((?:\d+[.,])*\d+)([$€£¥₽])`)
	digitRunPattern      = regexp.MustCompile(`\d+`)
	currencyPattern      = regexp.MustCompile(`[$€£¥₽]`)

	spaceStripper = strings.NewReplacer(" ", "", " ", "")
)

// ParsePrice extracts a numeric price and a currency symbol from a fragment
// of visible text.
//
// Tier 1 strips whitespace used as thousands separators and matches a number
// immediately followed by a currency symbol. Tier 2 concatenates every digit
// run in the raw text and takes the first currency symbol found anywhere;
// this deliberately loses decimal precision to recover prices like "4 900"
// whose grouping was already destroyed — listed prices are whole currency
// units in practice. Returns (0, "") when the text carries no digits.
func ParsePrice(text string) (float64, string) {
	clean := spaceStripper.Replace(text)

	if m := adjacentPricePattern.FindStringSubmatch(clean); m != nil {
		if value, err := strconv.ParseFloat(normalizeSeparators(m[1]), 64); err == nil {
			return value, m[2]
		}
	}

	runs := digitRunPattern.FindAllString(text, -1)
	if len(runs) == 0 {
		return 0, ""
	}
	value, err := strconv.ParseFloat(strings.Join(runs, ""), 64)
	if err != nil {
		return 0, ""
	}
	return value, currencyPattern.FindString(text)
}

// HasCurrency reports whether text carries any supported currency symbol.
func HasCurrency(text string) bool {
	return currencyPattern.MatchString(text)
}

// normalizeSeparators turns a matched numeric run into strconv syntax. When
// both '.' and ',' appear, the later one is the decimal separator. A
// separator repeated more than once is a thousands separator.
func normalizeSeparators(s string) string {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastDot > lastComma {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.ReplaceAll(s, ",", ".")
		}
	case lastDot >= 0:
		if strings.Count(s, ".") > 1 {
			s = strings.ReplaceAll(s, ".", "")
		}
	}
	return s
}
