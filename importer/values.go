package importer

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug normalizes free text into a config value: lower case, runs of other
// characters collapsed to a single underscore.
func Slug(s string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "_"), "_")
}

// ParseProgress reads "45", "45%" or "0.45". The result is clamped to 0..100
// and clamped reports whether that changed the value.
func ParseProgress(s string) (value int, clamped bool, err error) {
	s = strings.TrimSpace(s)
	percent := strings.HasSuffix(s, "%")
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, fmt.Errorf("invalid progress %q", s)
	}
	if !percent && strings.Contains(s, ".") && f >= 0 && f <= 1 {
		f *= 100
	}

	v := int(math.Round(f))
	switch {
	case v < 0:
		return 0, true, nil
	case v > 100:
		return 100, true, nil
	}
	return v, false, nil
}

var budgetMultipliers = map[string]int64{
	"k": 1_000,
	"m": 1_000_000,
	"b": 1_000_000_000,
}

// ParseBudget reads amounts such as "$1,250,000", "1.2M" or "500k".
func ParseBudget(s string) (decimal.Decimal, error) {
	raw := s
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("$", "", "€", "", "£", "", "usd", "", "eur", "", ",", "", " ", "").Replace(s)

	negative := strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")")
	s = strings.Trim(s, "()")

	multiplier := int64(1)
	if n := len(s); n > 0 {
		if m, ok := budgetMultipliers[s[n-1:]]; ok {
			multiplier = m
			s = s[:n-1]
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid budget %q", strings.TrimSpace(raw))
	}
	d = d.Mul(decimal.NewFromInt(multiplier))
	if negative {
		d = d.Neg()
	}
	return d.Round(2), nil
}

// ParseTags splits a cell on ';' or ',' and drops empty and repeated tags.
func ParseTags(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == ',' })
	seen := make(map[string]bool, len(fields))
	var tags []string
	for _, f := range fields {
		tag := strings.TrimSpace(f)
		if tag == "" || seen[strings.ToLower(tag)] {
			continue
		}
		seen[strings.ToLower(tag)] = true
		tags = append(tags, tag)
	}
	return tags
}
