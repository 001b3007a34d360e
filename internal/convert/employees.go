package convert

import (
	"regexp"
	"strconv"
	"strings"
)

// EmployeeBucket is an ordinal headcount category.
type EmployeeBucket string

// Headcount buckets, smallest first.
const (
	Employees0To25   EmployeeBucket = "0-25"
	Employees26To100 EmployeeBucket = "26-100"
	Employees101Plus EmployeeBucket = "101+"
)

// Buckets lists every bucket in ascending order.
func Buckets() []EmployeeBucket {
	return []EmployeeBucket{Employees0To25, Employees26To100, Employees101Plus}
}

func (b EmployeeBucket) String() string { return string(b) }

var rangeRe = regexp.MustCompile(`(?i)(\d+)\s*(?:-+|–|to)\s*(\d+)`)

// Bucket places a headcount into its bucket.
func Bucket(n float64) EmployeeBucket {
	switch {
	case n <= 25:
		return Employees0To25
	case n <= 100:
		return Employees26To100
	default:
		return Employees101Plus
	}
}

// EmployeeBucketFor derives a bucket from an actual headcount cell, falling
// back to a "low-high" or "low to high" range cell bucketed by its upper
// bound. The second result is false when neither cell is usable; callers must
// not substitute a default.
func EmployeeBucketFor(actual, rangeText string) (EmployeeBucket, bool) {
	if n, ok := parseCount(actual); ok {
		return Bucket(n), true
	}
	m := rangeRe.FindStringSubmatch(rangeText)
	if m == nil {
		return "", false
	}
	high, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return "", false
	}
	return Bucket(high), true
}

// parseCount keeps only digits and dots, then requires a positive number.
func parseCount(s string) (float64, bool) {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, s)
	if cleaned == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
