package db

import (
	"context"
	"iter"
	"time"

	sq "github.com/Masterminds/squirrel"
	"gorm.io/datatypes"

	"propinsight/internal/market"
)

// RatioQuery selects the rent-to-price ratio series.
type RatioQuery struct {
	AreaName     string // empty for every area
	Years        int    // window length, 1..5
	PropertyType market.ResidentialType
	Bedrooms     *int
}

// RentToPriceRow is one month of the ratio series for an area, property
// type and bedroom count.
type RentToPriceRow struct {
	Month            datatypes.Date `json:"month" gorm:"column:month"`
	MonthLabel       string         `json:"month_label" gorm:"column:month_label"`
	Quarter          int            `json:"quarter" gorm:"column:quarter"`
	AreaID           int64          `json:"area_id" gorm:"column:area_id"`
	AreaNameEn       string         `json:"area_name_en" gorm:"column:area_name_en"`
	PropertyType     string         `json:"property_type" gorm:"column:property_type"`
	NumBedrooms      *int           `json:"num_bedrooms" gorm:"column:num_bedrooms"`
	BedroomLabel     string         `json:"bedroom_label" gorm:"-"`
	AvgSalePrice     *float64       `json:"avg_sale_price" gorm:"column:avg_sale_price"`
	AvgRentPrice     *float64       `json:"avg_rent_price" gorm:"column:avg_rent_price"`
	PriceToRentRatio *float64       `json:"price_to_rent_ratio" gorm:"column:price_to_rent_ratio"`
}

// Point converts the row into summarizer input.
func (r RentToPriceRow) Point() market.RatioPoint {
	return market.RatioPoint{
		Month:            time.Time(r.Month),
		MonthLabel:       r.MonthLabel,
		PropertyType:     r.PropertyType,
		BedroomLabel:     r.BedroomLabel,
		PriceToRentRatio: r.PriceToRentRatio,
	}
}

// Apartment rents described as studios are left out of the rent series.
const rentToPriceSQL = `WITH {{sales}}, {{rents}},
monthly_sales AS (
	SELECT DATE_TRUNC('month', instance_date)::date AS month,
	       area_id,
	       area_name_en,
	       LOWER(property_category) AS property_type,
	       {{sale_bedrooms}} AS num_bedrooms,
	       AVG(actual_worth) AS avg_sale_price
	FROM sales
	WHERE {{residential}}
	  AND actual_worth > 0
	  AND instance_date >= ?
	  AND {{sale_area}}
	GROUP BY 1, 2, 3, 4, 5
),
monthly_rents AS (
	SELECT DATE_TRUNC('month', contract_start_date)::date AS month,
	       area_id,
	       LOWER(property_category) AS property_type,
	       {{rent_bedrooms}} AS num_bedrooms,
	       AVG(annual_amount) AS avg_rent_price
	FROM rent_contracts
	WHERE {{residential}}
	  AND annual_amount > 0
	  AND contract_start_date >= ?
	  AND NOT (property_category = {{apartment}} AND LOWER(COALESCE(ejari_property_sub_type_en, '')) LIKE 'studio%')
	  AND {{rent_area}}
	GROUP BY 1, 2, 3, 4
)
SELECT s.month,
       TO_CHAR(s.month, 'YYYY-MM') AS month_label,
       EXTRACT(QUARTER FROM s.month)::int AS quarter,
       s.area_id,
       s.area_name_en,
       s.property_type,
       s.num_bedrooms,
       ROUND(s.avg_sale_price)::float8 AS avg_sale_price,
       ROUND(r.avg_rent_price)::float8 AS avg_rent_price,
       ROUND(s.avg_sale_price / NULLIF(r.avg_rent_price, 0), 2)::float8 AS price_to_rent_ratio
FROM monthly_sales s
JOIN monthly_rents r
  ON r.month = s.month
 AND r.area_id = s.area_id
 AND r.property_type = s.property_type
 AND COALESCE(r.num_bedrooms, -1) = COALESCE(s.num_bedrooms, -1)
WHERE {{filter}}
ORDER BY s.month, s.area_id, s.property_type, s.num_bedrooms`

// RentToPriceRatio returns the monthly price-to-rent ratio for apartments
// and villas. Monthly sale and rent averages are computed independently
// and inner-joined on month, area, type and bedroom count, so months with
// only one side are absent.
func (s *Store) RentToPriceRatio(ctx context.Context, q RatioQuery) iter.Seq2[RentToPriceRow, error] {
	since := market.MonthStart(s.now()).AddDate(-q.Years, 0, 0)

	area, areaArgs := areaFragment("area_name_en", q.AreaName)

	var conds sq.And
	if q.PropertyType != "" {
		conds = append(conds, sq.Eq{"s.property_type": string(q.PropertyType)})
	}
	if q.Bedrooms != nil {
		conds = append(conds, sq.Expr("COALESCE(s.num_bedrooms, -1) = ?", *q.Bedrooms))
	}
	filter, filterArgs, err := where(conds)
	if err != nil {
		return ErrSeq[RentToPriceRow](err)
	}

	query := fill(rentToPriceSQL, map[string]string{
		"sales":         salesCTE,
		"rents":         rentsCTE,
		"residential":   residentialSQL,
		"apartment":     market.Apartment.SQL(),
		"sale_bedrooms": bedroomsSQL("num_rooms_en"),
		"rent_bedrooms": bedroomsSQL("ejari_property_sub_type_en"),
		"sale_area":     area,
		"rent_area":     area,
		"filter":        filter,
	})

	args := []any{since}
	args = append(args, areaArgs...)
	args = append(args, since)
	args = append(args, areaArgs...)
	args = append(args, filterArgs...)

	return stream(ctx, s.db, "rent_to_price_ratio", query, args, func(r *RentToPriceRow) {
		r.BedroomLabel = market.BedroomLabel(r.NumBedrooms)
	})
}
