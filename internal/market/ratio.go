package market

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// BedroomLabel renders a bedroom count: nil is "Unknown", 0 is "Studio"
// and n is "nBR".
func BedroomLabel(n *int) string {
	switch {
	case n == nil:
		return "Unknown"
	case *n == 0:
		return "Studio"
	default:
		return strconv.Itoa(*n) + "BR"
	}
}

// SafeRatio returns num/den. It returns nil instead of NaN or Inf when
// either side is missing or the denominator is zero.
func SafeRatio(num, den *float64) *float64 {
	if num == nil || den == nil || *den == 0 {
		return nil
	}
	v := *num / *den
	return &v
}

// Yield returns rent/sale*100 rounded to two places, null-safe.
func Yield(avgRent, avgSale *float64) *float64 {
	r := SafeRatio(avgRent, avgSale)
	if r == nil {
		return nil
	}
	return Round(*r*100, 2)
}

// Round rounds half away from zero to the given number of places.
func Round(v float64, places int32) *float64 {
	f := decimal.NewFromFloat(v).Round(places).InexactFloat64()
	return &f
}

// RoundPtr is Round for optional values.
func RoundPtr(v *float64, places int32) *float64 {
	if v == nil {
		return nil
	}
	return Round(*v, places)
}

func fixed2(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// PercentChange returns (current-previous)/previous*100 rounded to two
// places, or nil when either value is missing or previous is zero.
func PercentChange(current, previous *float64) *float64 {
	if current == nil || previous == nil {
		return nil
	}
	diff := *current - *previous
	r := SafeRatio(&diff, previous)
	if r == nil {
		return nil
	}
	return Round(*r*100, 2)
}

// Share returns part/total rounded to two places, null-safe.
func Share(part, total float64) *float64 {
	if total == 0 {
		return nil
	}
	return Round(part/total, 2)
}
