package geom

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Fstr formats a number for output: at most 3 decimal places, without
// trailing zeros, and never "-0".
func Fstr(v float64) string {
	s := strconv.FormatFloat(v, 'f', 3, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" || s == "" {
		return "0"
	}
	return s
}

// SplitNumbers splits an attribute value on whitespace and commas.
func SplitNumbers(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == ','
	})
}

// ParseNumbers parses a whitespace/comma separated list of numbers.
func ParseNumbers(s string) ([]float64, error) {
	parts := SplitNumbers(s)
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q in %q", p, s)
		}
		out = append(out, f)
	}
	return out, nil
}

// ParsePair parses one or two numbers; a single number is used for both.
func ParsePair(s string) (float64, float64, error) {
	nums, err := ParseNumbers(s)
	if err != nil {
		return 0, 0, err
	}
	switch len(nums) {
	case 1:
		return nums[0], nums[0], nil
	case 2:
		return nums[0], nums[1], nil
	}
	return 0, 0, fmt.Errorf("expected one or two numbers, got %q", s)
}
