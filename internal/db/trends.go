package db

import (
	"context"
	"iter"

	"gorm.io/datatypes"

	"propinsight/internal/market"
)

// QuarterlyPriceChange is the average price per square foot of one
// quarter and its change against the quarter before.
type QuarterlyPriceChange struct {
	AreaNameEn       string         `json:"area_name_en" gorm:"column:area_name_en"`
	PropertyCategory string         `json:"property_category" gorm:"column:property_category"`
	NumRoomsEn       *string        `json:"num_rooms_en" gorm:"column:num_rooms_en"`
	QuarterStart     datatypes.Date `json:"quarter_start" gorm:"column:quarter_start"`
	Year             int            `json:"year" gorm:"column:year"`
	Quarter          int            `json:"quarter" gorm:"column:quarter"`
	YearQuarter      string         `json:"year_quarter" gorm:"column:year_quarter"`
	AvgPriceSqft     *float64       `json:"avg_price_sqft" gorm:"column:avg_price_sqft"`
	PriceChangePct   *float64       `json:"price_change_pct" gorm:"column:price_change_pct"`
}

// The change is only computed against the immediately preceding
// quarter; after a gap it is NULL.
const quarterlyPriceChangeSQL = `WITH {{sales}},
filtered AS (
	SELECT area_name_en,
	       property_category,
	       num_rooms_en,
	       DATE_TRUNC('quarter', instance_date)::date AS quarter_start,
	       meter_sale_price / {{sqft}} AS price_per_sqft
	FROM sales
	WHERE {{residential}}
	  AND meter_sale_price IS NOT NULL
	  AND instance_date >= ?
	  AND COALESCE(reg_type_en, '') <> {{off_plan}}
	  AND COALESCE(trans_group_en, '') NOT IN ('Gift', 'Mortgage')
	  AND COALESCE(property_usage_en, '') <> {{commercial}}
	  AND {{area}}
),
quarterly AS (
	SELECT area_name_en, property_category, num_rooms_en, quarter_start,
	       AVG(price_per_sqft) AS avg_price_sqft
	FROM filtered
	GROUP BY 1, 2, 3, 4
)
SELECT area_name_en,
       property_category,
       num_rooms_en,
       quarter_start,
       EXTRACT(YEAR FROM quarter_start)::int AS year,
       EXTRACT(QUARTER FROM quarter_start)::int AS quarter,
       TO_CHAR(quarter_start, 'YYYY-"Q"Q') AS year_quarter,
       ROUND(avg_price_sqft, 2)::float8 AS avg_price_sqft,
       CASE WHEN LAG(quarter_start) OVER w = (quarter_start - INTERVAL '3 months')::date
            THEN ROUND((avg_price_sqft - LAG(avg_price_sqft) OVER w) / NULLIF(LAG(avg_price_sqft) OVER w, 0) * 100, 2)::float8
       END AS price_change_pct
FROM quarterly
WINDOW w AS (PARTITION BY area_name_en, property_category, num_rooms_en ORDER BY quarter_start)
ORDER BY area_name_en, year, quarter, property_category, num_rooms_en`

// QuarterlyPriceChanges returns quarterly price per square foot for
// villas and apartments over the last years years, excluding off-plan
// registrations, gifts, mortgages and commercial usage.
func (s *Store) QuarterlyPriceChanges(ctx context.Context, areaName string, years int) iter.Seq2[QuarterlyPriceChange, error] {
	since := s.now().UTC().AddDate(-years, 0, 0)
	area, areaArgs := areaFragment("area_name_en", areaName)

	query := fill(quarterlyPriceChangeSQL, map[string]string{
		"sales":       salesCTE,
		"residential": residentialSQL,
		"sqft":        sqftPerSqMeter,
		"off_plan":    offPlan,
		"commercial":  usageCommerce,
		"area":        area,
	})
	return stream[QuarterlyPriceChange](ctx, s.db, "quarterly_price_change", query, append([]any{since}, areaArgs...), nil)
}

// BedroomPrice is the average sale price of one bedroom count in one quarter.
type BedroomPrice struct {
	AreaNameEn       string         `json:"area_name_en" gorm:"column:area_name_en"`
	PropertyCategory string         `json:"property_category" gorm:"column:property_category"`
	RoomNum          int            `json:"room_num" gorm:"column:room_num"`
	BedroomLabel     string         `json:"bedroom_label" gorm:"-"`
	QuarterStart     datatypes.Date `json:"quarter_start" gorm:"column:quarter_start"`
	YearQuarter      string         `json:"year_quarter" gorm:"column:year_quarter"`
	AvgPrice         *float64       `json:"avg_price" gorm:"column:avg_price"`
	TransactionCount int64          `json:"transaction_count" gorm:"column:transaction_count"`
}

const bedroomPricesSQL = `WITH {{sales}}
SELECT area_name_en,
       property_category,
       {{bedrooms}} AS room_num,
       DATE_TRUNC('quarter', instance_date)::date AS quarter_start,
       TO_CHAR(DATE_TRUNC('quarter', instance_date), 'YYYY-"Q"Q') AS year_quarter,
       ROUND(AVG(actual_worth), 2)::float8 AS avg_price,
       COUNT(*) AS transaction_count
FROM sales
WHERE {{residential}}
  AND trans_group_en = {{sales_group}}
  AND property_usage_en = {{residential_usage}}
  AND COALESCE(reg_type_en, '') <> {{off_plan}}
  AND num_rooms_en ~ '^[0-9]'
  AND instance_date >= ?
  AND {{area}}
GROUP BY 1, 2, 3, 4, 5
ORDER BY area_name_en, quarter_start, property_category, room_num`

// BedroomPrices returns the quarterly average sale price per bedroom
// count for residential ready villas and apartments.
func (s *Store) BedroomPrices(ctx context.Context, areaName string, years int) iter.Seq2[BedroomPrice, error] {
	since := s.now().UTC().AddDate(-years, 0, 0)
	area, areaArgs := areaFragment("area_name_en", areaName)

	query := fill(bedroomPricesSQL, map[string]string{
		"sales":             salesCTE,
		"bedrooms":          bedroomsSQL("num_rooms_en"),
		"residential":       residentialSQL,
		"sales_group":       transferSales,
		"residential_usage": usageResident,
		"off_plan":          offPlan,
		"area":              area,
	})
	return stream(ctx, s.db, "bedroom_prices", query, append([]any{since}, areaArgs...), func(r *BedroomPrice) {
		n := r.RoomNum
		r.BedroomLabel = market.BedroomLabel(&n)
	})
}

// areaFragment matches col case-insensitively against an area name or,
// for an empty name, every area.
func areaFragment(col, name string) (string, []any) {
	if name == "" {
		return "TRUE", nil
	}
	return "LOWER(" + col + ") = LOWER(?)", []any{name}
}
