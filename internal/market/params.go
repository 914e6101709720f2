package market

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// MaxRatioRangeYears bounds the rent-to-price ratio window (1y..5y).
	MaxRatioRangeYears = 5
	// MaxTrendRangeYears bounds the quarterly price endpoints.
	MaxTrendRangeYears = 30

	minYear = 1900
	maxYear = 2100
)

var (
	dateRangePattern = regexp.MustCompile(`^([1-9][0-9]*)y$`)
	digitsPattern    = regexp.MustCompile(`[0-9]+`)
)

// ParseDateRange parses an "Ny" window such as "3y" and returns N. The
// value must lie in 1..max.
func ParseDateRange(s string, max int) (int, error) {
	m := dateRangePattern.FindStringSubmatch(strings.ToLower(strings.TrimSpace(s)))
	if m == nil {
		return 0, &ValidationError{Field: "dateRange", Message: "Invalid dateRange format, expected Ny such as 3y, got " + quoteValue(s)}
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n > max {
		return 0, &ValidationError{Field: "dateRange", Message: "dateRange must be between 1y and " + strconv.Itoa(max) + "y"}
	}
	return n, nil
}

// ParseYear parses an optional calendar year filter. Empty input and
// "all" return nil.
func ParseYear(field, s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return nil, nil
	}
	y, err := strconv.Atoi(s)
	if err != nil {
		return nil, &ValidationError{Field: field, Message: "must be a four digit year or all, got " + quoteValue(s)}
	}
	if y < minYear || y > maxYear {
		return nil, &ValidationError{Field: field, Message: "year out of range: " + s}
	}
	return &y, nil
}

// ParseBedrooms parses the bedrooms filter. "all" and empty return nil,
// otherwise a non-negative integer is required.
func ParseBedrooms(s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return nil, &ValidationError{Field: "bedrooms", Message: "must be a non-negative integer or all, got " + quoteValue(s)}
	}
	return &n, nil
}

// ParseRoomCount extracts the first run of digits from free text such as
// "2 B/R". Empty input and "all" return nil.
func ParseRoomCount(field, s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return nil, nil
	}
	d := digitsPattern.FindString(s)
	if d == "" {
		return nil, &ValidationError{Field: field, Message: "no room count in " + quoteValue(s)}
	}
	n, err := strconv.Atoi(d)
	if err != nil {
		return nil, &ValidationError{Field: field, Message: "room count too large"}
	}
	return &n, nil
}

// NormalizeAreaName turns slug style names ("business-bay") into the
// spaced form stored in the area dimension.
func NormalizeAreaName(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(s, "-", " ")), " ")
}

// MonthStart truncates t to the first instant of its month in UTC.
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// Granularity is the period rental yield rows are bucketed by.
type Granularity string

const (
	Monthly   Granularity = "monthly"
	Quarterly Granularity = "quarterly"
	Yearly    Granularity = "yearly"
)

// ParseGranularity defaults to Yearly.
func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(s))); g {
	case "":
		return Yearly, nil
	case Monthly, Quarterly, Yearly:
		return g, nil
	}
	return "", &ValidationError{Field: "granularity", Message: "must be monthly, quarterly or yearly, got " + quoteValue(s)}
}
