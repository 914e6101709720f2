package market

import (
	"sort"
	"time"
)

// Trend is the direction between the first and last value of a series.
type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendFlat Trend = "flat"
)

// RatioPoint is one price-to-rent observation fed to the summarizer.
type RatioPoint struct {
	Month            time.Time
	MonthLabel       string
	PropertyType     string
	BedroomLabel     string
	PriceToRentRatio *float64
}

// RatioGroup summarises one (property type, bedroom label) bucket.
type RatioGroup struct {
	PropertyType string   `json:"property_type"`
	BedroomLabel string   `json:"bedroom_label"`
	AvgRatio     *float64 `json:"avg_ratio"`
	MinRatio     *string  `json:"min_ratio"`
	MaxRatio     *string  `json:"max_ratio"`
	ChangePct    *float64 `json:"change_pct"`
	Trend        *Trend   `json:"trend"`
}

// RatioSummary is the compact form of a ratio series handed to the AI
// insight service and returned next to the chart data.
type RatioSummary struct {
	Period     string       `json:"period"`
	GroupCount int          `json:"group_count"`
	Groups     []RatioGroup `json:"groups"`
}

// SummarizeRentToPriceRatio groups rows by property type and bedroom
// label after sorting them by month. Groups keep the order in which
// their first row appears. It returns nil for empty input and never
// modifies points.
func SummarizeRentToPriceRatio(points []RatioPoint) *RatioSummary {
	if len(points) == 0 {
		return nil
	}

	sorted := make([]RatioPoint, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Month.Before(sorted[j].Month)
	})

	type key struct{ propertyType, bedroom string }
	var order []key
	buckets := make(map[key][]RatioPoint)
	for _, p := range sorted {
		k := key{p.PropertyType, p.BedroomLabel}
		if _, ok := buckets[k]; !ok {
			order = append(order, k)
		}
		buckets[k] = append(buckets[k], p)
	}

	groups := make([]RatioGroup, 0, len(order))
	for _, k := range order {
		groups = append(groups, summarizeGroup(k.propertyType, k.bedroom, buckets[k]))
	}

	return &RatioSummary{
		Period:     sorted[0].MonthLabel + " → " + sorted[len(sorted)-1].MonthLabel,
		GroupCount: len(groups),
		Groups:     groups,
	}
}

func summarizeGroup(propertyType, bedroom string, rows []RatioPoint) RatioGroup {
	g := RatioGroup{PropertyType: propertyType, BedroomLabel: bedroom}

	var sum, lo, hi float64
	n := 0
	for _, r := range rows {
		if r.PriceToRentRatio == nil {
			continue
		}
		v := *r.PriceToRentRatio
		if n == 0 || v < lo {
			lo = v
		}
		if n == 0 || v > hi {
			hi = v
		}
		sum += v
		n++
	}
	if n > 0 {
		g.AvgRatio = Round(sum/float64(n), 2)
		minS, maxS := fixed2(lo), fixed2(hi)
		g.MinRatio, g.MaxRatio = &minS, &maxS
	}

	first, last := rows[0].PriceToRentRatio, rows[len(rows)-1].PriceToRentRatio
	if first == nil || last == nil {
		return g
	}

	var t Trend
	switch {
	case *last > *first:
		t = TrendUp
	case *last < *first:
		t = TrendDown
	default:
		t = TrendFlat
	}
	g.Trend = &t

	if *first != 0 {
		g.ChangePct = Round((*last-*first) / *first * 100, 2)
	}
	return g
}
