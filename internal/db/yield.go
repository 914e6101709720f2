package db

import (
	"context"
	"iter"
	"strings"

	"gorm.io/datatypes"

	"propinsight/internal/market"
)

// YieldQuery selects the rental yield by room count series.
type YieldQuery struct {
	Area        string
	FromYear    *int // defaults to three years before the current year
	Room        *int
	Categories  []market.Category
	Granularity market.Granularity
}

// RoomYield is the gross rental yield of one category and room count in
// one period.
type RoomYield struct {
	PropertyCategory   string         `json:"property_category" gorm:"column:property_category"`
	RoomNum            *int           `json:"room_num" gorm:"column:room_num"`
	BedroomLabel       string         `json:"bedroom_label" gorm:"-"`
	PeriodStart        datatypes.Date `json:"period_start" gorm:"column:period_start"`
	Period             string         `json:"period" gorm:"column:period"`
	Year               int            `json:"year" gorm:"column:year"`
	Quarter            *int           `json:"quarter" gorm:"column:quarter"`
	Month              *int           `json:"month" gorm:"column:month"`
	AvgPrice           *float64       `json:"avg_price" gorm:"column:avg_price"`
	AvgRent            *float64       `json:"avg_rent" gorm:"column:avg_rent"`
	RentalYieldPercent *float64       `json:"rental_yield_percent" gorm:"column:rental_yield_percent"`
	MatchedMonths      int64          `json:"matched_months" gorm:"column:matched_months"`
}

type periodSQL struct {
	start, format, quarter, month string
}

// periods is the whitelist of period expressions; granularity never
// reaches the query as text.
var periods = map[market.Granularity]periodSQL{
	market.Monthly: {
		start:   "MAKE_DATE(s.year, s.month, 1)",
		format:  `'YYYY-MM'`,
		quarter: "EXTRACT(QUARTER FROM period_start)::int",
		month:   "EXTRACT(MONTH FROM period_start)::int",
	},
	market.Quarterly: {
		start:   "MAKE_DATE(s.year, ((s.month - 1) / 3) * 3 + 1, 1)",
		format:  `'YYYY-"Q"Q'`,
		quarter: "EXTRACT(QUARTER FROM period_start)::int",
		month:   "NULL::int",
	},
	market.Yearly: {
		start:   "MAKE_DATE(s.year, 1, 1)",
		format:  `'YYYY'`,
		quarter: "NULL::int",
		month:   "NULL::int",
	},
}

const rentalYieldSQL = `WITH {{sales}}, {{rents}},
monthly_sales AS (
	SELECT property_category,
	       project_number,
	       {{sale_bedrooms}} AS room_num,
	       EXTRACT(YEAR FROM instance_date)::int AS year,
	       EXTRACT(MONTH FROM instance_date)::int AS month,
	       AVG(actual_worth) AS avg_price
	FROM sales
	WHERE property_category IN ({{categories}})
	  AND project_number IS NOT NULL
	  AND actual_worth > 0
	  AND trans_group_en = {{sales_group}}
	  AND LOWER(area_name_en) = LOWER(?)
	  AND EXTRACT(YEAR FROM instance_date) BETWEEN ? AND ?
	GROUP BY 1, 2, 3, 4, 5
),
monthly_rents AS (
	SELECT property_category,
	       project_number,
	       {{rent_bedrooms}} AS room_num,
	       EXTRACT(YEAR FROM contract_start_date)::int AS year,
	       EXTRACT(MONTH FROM contract_start_date)::int AS month,
	       AVG(annual_amount) AS avg_rent
	FROM rent_contracts
	WHERE property_category IN ({{categories}})
	  AND project_number IS NOT NULL
	  AND annual_amount > 0
	  AND LOWER(area_name_en) = LOWER(?)
	  AND EXTRACT(YEAR FROM contract_start_date) BETWEEN ? AND ?
	GROUP BY 1, 2, 3, 4, 5
),
joined AS (
	SELECT s.property_category, s.room_num, {{period_start}} AS period_start, s.avg_price, r.avg_rent
	FROM monthly_sales s
	JOIN monthly_rents r
	  ON r.property_category = s.property_category
	 AND r.project_number = s.project_number
	 AND r.room_num = s.room_num
	 AND r.year = s.year
	 AND r.month = s.month
	WHERE {{room}}
)
SELECT property_category,
       room_num,
       period_start,
       TO_CHAR(period_start, {{period_format}}) AS period,
       EXTRACT(YEAR FROM period_start)::int AS year,
       {{quarter}} AS quarter,
       {{month}} AS month,
       ROUND(AVG(avg_price), 2)::float8 AS avg_price,
       ROUND(AVG(avg_rent), 2)::float8 AS avg_rent,
       ROUND(AVG(avg_rent) / NULLIF(AVG(avg_price), 0) * 100, 2)::float8 AS rental_yield_percent,
       COUNT(*) AS matched_months
FROM joined
GROUP BY property_category, room_num, period_start
ORDER BY period_start, property_category, room_num`

// RentalYieldByRoom matches monthly sale and rent averages of the same
// project, room count and month; rows without a room count on either
// side never match. It then reports gross yield per category,
// room count and period from FromYear to the current year.
func (s *Store) RentalYieldByRoom(ctx context.Context, q YieldQuery) iter.Seq2[RoomYield, error] {
	toYear := s.currentYear()
	fromYear := toYear - 3
	if q.FromYear != nil {
		fromYear = *q.FromYear
	}

	p, ok := periods[q.Granularity]
	if !ok {
		p = periods[market.Yearly]
	}

	categories := q.Categories
	if len(categories) == 0 {
		categories = []market.Category{market.Apartment, market.Villa}
	}
	literals := make([]string, len(categories))
	for i, c := range categories {
		literals[i] = c.SQL()
	}

	room := "TRUE"
	var roomArgs []any
	if q.Room != nil {
		room = "s.room_num = ?"
		roomArgs = []any{*q.Room}
	}

	query := fill(rentalYieldSQL, map[string]string{
		"sales":         salesCTE,
		"rents":         rentsCTE,
		"sale_bedrooms": bedroomsSQL("num_rooms_en"),
		"rent_bedrooms": bedroomsSQL("ejari_property_sub_type_en"),
		"categories":    strings.Join(literals, ", "),
		"sales_group":   transferSales,
		"period_start":  p.start,
		"period_format": p.format,
		"quarter":       p.quarter,
		"month":         p.month,
		"room":          room,
	})

	args := []any{q.Area, fromYear, toYear, q.Area, fromYear, toYear}
	args = append(args, roomArgs...)

	return stream(ctx, s.db, "rental_yield_by_room", query, args, func(r *RoomYield) {
		r.BedroomLabel = market.BedroomLabel(r.RoomNum)
	})
}
