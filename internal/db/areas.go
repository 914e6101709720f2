package db

import (
	"context"
	"iter"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"propinsight/internal/market"
)

// PageQuery pages through the area listings.
type PageQuery struct {
	Offset int
	Limit  int
	Search string
}

func (p PageQuery) searchPredicate() (string, []any, error) {
	var conds sq.And
	if s := strings.TrimSpace(p.Search); s != "" {
		conds = append(conds, sq.ILike{"da.area_name_en": containsPattern(s)})
	}
	return where(conds)
}

// areaListing runs a per-area listing. body must define the CTEs and a
// SELECT over dim_area da ending with a WHERE whose last conjunct is
// {{search}}; yearArgs bind the placeholders inside body.
func areaListing[T any](ctx context.Context, s *Store, name, body string, yearArgs []any, p PageQuery, fix func(*T)) iter.Seq2[T, error] {
	search, searchArgs, err := p.searchPredicate()
	if err != nil {
		return ErrSeq[T](err)
	}
	query := fill(body, map[string]string{
		"sales":       salesCTE,
		"rents":       rentsCTE,
		"residential": residentialSQL,
		"villa":       market.Villa.SQL(),
		"apartment":   market.Apartment.SQL(),
		"sales_group": transferSales,
		"search":      search,
	}) + "\nORDER BY da.area_name_en, da.area_id\nOFFSET ? LIMIT ?"

	args := append([]any{}, yearArgs...)
	args = append(args, searchArgs...)
	args = append(args, p.Offset, p.Limit)
	return stream(ctx, s.db, name, query, args, fix)
}

// AreaPrice is the current year price and rent per square metre of an area.
type AreaPrice struct {
	AreaID                    int64    `json:"area_id" gorm:"column:area_id"`
	AreaName                  string   `json:"area_name" gorm:"column:area_name"`
	VillaCurrentSalePrice     *float64 `json:"villa_current_sale_price" gorm:"column:villa_current_sale_price"`
	VillaCurrentRentPrice     *float64 `json:"villa_current_rent_price" gorm:"column:villa_current_rent_price"`
	ApartmentCurrentSalePrice *float64 `json:"apartment_current_sale_price" gorm:"column:apartment_current_sale_price"`
	ApartmentCurrentRentPrice *float64 `json:"apartment_current_rent_price" gorm:"column:apartment_current_rent_price"`
}

const areasSQL = `WITH {{sales}}, {{rents}},
sale AS (
	SELECT area_id,
	       AVG(meter_sale_price) FILTER (WHERE property_category = {{villa}}) AS villa,
	       AVG(meter_sale_price) FILTER (WHERE property_category = {{apartment}}) AS apartment
	FROM sales
	WHERE {{residential}} AND EXTRACT(YEAR FROM instance_date) = ?
	GROUP BY area_id
),
rent AS (
	SELECT area_id,
	       AVG(annual_amount / actual_area) FILTER (WHERE property_category = {{villa}}) AS villa,
	       AVG(annual_amount / actual_area) FILTER (WHERE property_category = {{apartment}}) AS apartment
	FROM rent_contracts
	WHERE {{residential}} AND actual_area > 0 AND EXTRACT(YEAR FROM contract_start_date) = ?
	GROUP BY area_id
)
SELECT da.area_id,
       da.area_name_en AS area_name,
       ROUND(s.villa, 2)::float8 AS villa_current_sale_price,
       ROUND(r.villa, 2)::float8 AS villa_current_rent_price,
       ROUND(s.apartment, 2)::float8 AS apartment_current_sale_price,
       ROUND(r.apartment, 2)::float8 AS apartment_current_rent_price
FROM dim_area da
LEFT JOIN sale s ON s.area_id = da.area_id
LEFT JOIN rent r ON r.area_id = da.area_id
WHERE (s.area_id IS NOT NULL OR r.area_id IS NOT NULL)
  AND {{search}}`

// Areas lists areas with current year sale price and rent per square
// metre for villas and apartments, ordered by name.
func (s *Store) Areas(ctx context.Context, p PageQuery) iter.Seq2[AreaPrice, error] {
	year := s.currentYear()
	return areaListing[AreaPrice](ctx, s, "areas", areasSQL, []any{year, year}, p, nil)
}

// AreaRentalYield compares gross yield per square metre this year and last.
type AreaRentalYield struct {
	AreaID                  int64    `json:"area_id" gorm:"column:area_id"`
	AreaName                string   `json:"area_name" gorm:"column:area_name"`
	VillaCurrentYield       *float64 `json:"villa_current_yield" gorm:"column:villa_current_yield"`
	VillaLastYield          *float64 `json:"villa_last_yield" gorm:"column:villa_last_yield"`
	VillaYieldGrowthPct     *float64 `json:"villa_yield_growth_pct" gorm:"-"`
	ApartmentCurrentYield   *float64 `json:"apartment_current_yield" gorm:"column:apartment_current_yield"`
	ApartmentLastYield      *float64 `json:"apartment_last_yield" gorm:"column:apartment_last_yield"`
	ApartmentYieldGrowthPct *float64 `json:"apartment_yield_growth_pct" gorm:"-"`
}

const areaRentalYieldSQL = `WITH {{sales}}, {{rents}},
sale AS (
	SELECT area_id,
	       AVG(meter_sale_price) FILTER (WHERE property_category = {{villa}} AND EXTRACT(YEAR FROM instance_date) = ?) AS villa_cur,
	       AVG(meter_sale_price) FILTER (WHERE property_category = {{villa}} AND EXTRACT(YEAR FROM instance_date) = ?) AS villa_last,
	       AVG(meter_sale_price) FILTER (WHERE property_category = {{apartment}} AND EXTRACT(YEAR FROM instance_date) = ?) AS apartment_cur,
	       AVG(meter_sale_price) FILTER (WHERE property_category = {{apartment}} AND EXTRACT(YEAR FROM instance_date) = ?) AS apartment_last
	FROM sales
	WHERE {{residential}} AND trans_group_en = {{sales_group}}
	GROUP BY area_id
),
rent AS (
	SELECT area_id,
	       AVG(annual_amount / actual_area) FILTER (WHERE property_category = {{villa}} AND EXTRACT(YEAR FROM contract_start_date) = ?) AS villa_cur,
	       AVG(annual_amount / actual_area) FILTER (WHERE property_category = {{villa}} AND EXTRACT(YEAR FROM contract_start_date) = ?) AS villa_last,
	       AVG(annual_amount / actual_area) FILTER (WHERE property_category = {{apartment}} AND EXTRACT(YEAR FROM contract_start_date) = ?) AS apartment_cur,
	       AVG(annual_amount / actual_area) FILTER (WHERE property_category = {{apartment}} AND EXTRACT(YEAR FROM contract_start_date) = ?) AS apartment_last
	FROM rent_contracts
	WHERE {{residential}} AND actual_area > 0
	GROUP BY area_id
)
SELECT da.area_id,
       da.area_name_en AS area_name,
       ROUND(r.villa_cur * 100 / NULLIF(s.villa_cur, 0), 2)::float8 AS villa_current_yield,
       ROUND(r.villa_last * 100 / NULLIF(s.villa_last, 0), 2)::float8 AS villa_last_yield,
       ROUND(r.apartment_cur * 100 / NULLIF(s.apartment_cur, 0), 2)::float8 AS apartment_current_yield,
       ROUND(r.apartment_last * 100 / NULLIF(s.apartment_last, 0), 2)::float8 AS apartment_last_yield
FROM dim_area da
JOIN sale s ON s.area_id = da.area_id
JOIN rent r ON r.area_id = da.area_id
WHERE {{search}}`

// AreaRentalYields lists areas with this and last year's gross yield
// per category and the growth between them.
func (s *Store) AreaRentalYields(ctx context.Context, p PageQuery) iter.Seq2[AreaRentalYield, error] {
	cur, last := s.currentYear(), s.currentYear()-1
	args := []any{cur, last, cur, last, cur, last, cur, last}
	return areaListing(ctx, s, "area_rental_yields", areaRentalYieldSQL, args, p, func(r *AreaRentalYield) {
		r.VillaYieldGrowthPct = market.PercentChange(r.VillaCurrentYield, r.VillaLastYield)
		r.ApartmentYieldGrowthPct = market.PercentChange(r.ApartmentCurrentYield, r.ApartmentLastYield)
	})
}

// AreaGrowthRisk pairs year over year price growth with a vacancy risk
// indicator, the share of sales among sales and new rent contracts.
type AreaGrowthRisk struct {
	AreaID                int64    `json:"area_id" gorm:"column:area_id"`
	AreaName              string   `json:"area_name" gorm:"column:area_name"`
	VillaCurrentPrice     *float64 `json:"villa_current_price" gorm:"column:villa_current_price"`
	VillaLastPrice        *float64 `json:"villa_last_price" gorm:"column:villa_last_price"`
	VillaPriceGrowth      *float64 `json:"villa_price_growth" gorm:"-"`
	VillaSales            int64    `json:"villa_sales" gorm:"column:villa_sales"`
	VillaRentals          int64    `json:"villa_rentals" gorm:"column:villa_rentals"`
	VillaVacancyRisk      *float64 `json:"villa_vacancy_risk" gorm:"-"`
	ApartmentCurrentPrice *float64 `json:"apartment_current_price" gorm:"column:apartment_current_price"`
	ApartmentLastPrice    *float64 `json:"apartment_last_price" gorm:"column:apartment_last_price"`
	ApartmentPriceGrowth  *float64 `json:"apartment_price_growth" gorm:"-"`
	ApartmentSales        int64    `json:"apartment_sales" gorm:"column:apartment_sales"`
	ApartmentRentals      int64    `json:"apartment_rentals" gorm:"column:apartment_rentals"`
	ApartmentVacancyRisk  *float64 `json:"apartment_vacancy_risk" gorm:"-"`
}

const areaGrowthRiskSQL = `WITH {{sales}}, {{rents}},
sale AS (
	SELECT area_id,
	       AVG(meter_sale_price) FILTER (WHERE property_category = {{villa}} AND EXTRACT(YEAR FROM instance_date) = ?) AS villa_cur,
	       AVG(meter_sale_price) FILTER (WHERE property_category = {{villa}} AND EXTRACT(YEAR FROM instance_date) = ?) AS villa_last,
	       AVG(meter_sale_price) FILTER (WHERE property_category = {{apartment}} AND EXTRACT(YEAR FROM instance_date) = ?) AS apartment_cur,
	       AVG(meter_sale_price) FILTER (WHERE property_category = {{apartment}} AND EXTRACT(YEAR FROM instance_date) = ?) AS apartment_last,
	       COUNT(*) FILTER (WHERE property_category = {{villa}} AND EXTRACT(YEAR FROM instance_date) = ?) AS villa_sales,
	       COUNT(*) FILTER (WHERE property_category = {{apartment}} AND EXTRACT(YEAR FROM instance_date) = ?) AS apartment_sales
	FROM sales
	WHERE {{residential}} AND trans_group_en = {{sales_group}}
	GROUP BY area_id
),
rent AS (
	SELECT area_id,
	       COUNT(*) FILTER (WHERE property_category = {{villa}}) AS villa_rentals,
	       COUNT(*) FILTER (WHERE property_category = {{apartment}}) AS apartment_rentals
	FROM rent_contracts
	WHERE {{residential}} AND EXTRACT(YEAR FROM contract_start_date) = ?
	GROUP BY area_id
)
SELECT da.area_id,
       da.area_name_en AS area_name,
       ROUND(s.villa_cur, 2)::float8 AS villa_current_price,
       ROUND(s.villa_last, 2)::float8 AS villa_last_price,
       COALESCE(s.villa_sales, 0) AS villa_sales,
       COALESCE(r.villa_rentals, 0) AS villa_rentals,
       ROUND(s.apartment_cur, 2)::float8 AS apartment_current_price,
       ROUND(s.apartment_last, 2)::float8 AS apartment_last_price,
       COALESCE(s.apartment_sales, 0) AS apartment_sales,
       COALESCE(r.apartment_rentals, 0) AS apartment_rentals
FROM dim_area da
LEFT JOIN sale s ON s.area_id = da.area_id
LEFT JOIN rent r ON r.area_id = da.area_id
WHERE (s.area_id IS NOT NULL OR r.area_id IS NOT NULL)
  AND {{search}}`

// AreaPriceGrowthVacancy lists areas with price growth against last year
// and the vacancy risk indicator of the current year.
func (s *Store) AreaPriceGrowthVacancy(ctx context.Context, p PageQuery) iter.Seq2[AreaGrowthRisk, error] {
	cur, last := s.currentYear(), s.currentYear()-1
	args := []any{cur, last, cur, last, cur, cur, cur}
	return areaListing(ctx, s, "area_price_growth_vacancy", areaGrowthRiskSQL, args, p, func(r *AreaGrowthRisk) {
		r.VillaPriceGrowth = market.PercentChange(r.VillaCurrentPrice, r.VillaLastPrice)
		r.ApartmentPriceGrowth = market.PercentChange(r.ApartmentCurrentPrice, r.ApartmentLastPrice)
		r.VillaVacancyRisk = market.Share(float64(r.VillaSales), float64(r.VillaSales+r.VillaRentals))
		r.ApartmentVacancyRisk = market.Share(float64(r.ApartmentSales), float64(r.ApartmentSales+r.ApartmentRentals))
	})
}

// AreaTransactionTotal counts sales and their total value per category,
// over all time and for the current year.
type AreaTransactionTotal struct {
	AreaID                           int64    `json:"area_id" gorm:"column:area_id"`
	AreaName                         string   `json:"area_name" gorm:"column:area_name"`
	VillaTotalTransactions           int64    `json:"villa_total_transactions" gorm:"column:villa_total_transactions"`
	VillaTotalValue                  *float64 `json:"villa_total_value" gorm:"column:villa_total_value"`
	VillaCurrentYearTransactions     int64    `json:"villa_current_year_transactions" gorm:"column:villa_current_year_transactions"`
	VillaCurrentYearValue            *float64 `json:"villa_current_year_value" gorm:"column:villa_current_year_value"`
	ApartmentTotalTransactions       int64    `json:"apartment_total_transactions" gorm:"column:apartment_total_transactions"`
	ApartmentTotalValue              *float64 `json:"apartment_total_value" gorm:"column:apartment_total_value"`
	ApartmentCurrentYearTransactions int64    `json:"apartment_current_year_transactions" gorm:"column:apartment_current_year_transactions"`
	ApartmentCurrentYearValue        *float64 `json:"apartment_current_year_value" gorm:"column:apartment_current_year_value"`
}

const areaTransactionTotalsSQL = `WITH {{sales}},
totals AS (
	SELECT area_id,
	       COUNT(*) FILTER (WHERE property_category = {{villa}}) AS villa_total_transactions,
	       SUM(actual_worth) FILTER (WHERE property_category = {{villa}}) AS villa_total_value,
	       COUNT(*) FILTER (WHERE property_category = {{villa}} AND EXTRACT(YEAR FROM instance_date) = ?) AS villa_current_year_transactions,
	       SUM(actual_worth) FILTER (WHERE property_category = {{villa}} AND EXTRACT(YEAR FROM instance_date) = ?) AS villa_current_year_value,
	       COUNT(*) FILTER (WHERE property_category = {{apartment}}) AS apartment_total_transactions,
	       SUM(actual_worth) FILTER (WHERE property_category = {{apartment}}) AS apartment_total_value,
	       COUNT(*) FILTER (WHERE property_category = {{apartment}} AND EXTRACT(YEAR FROM instance_date) = ?) AS apartment_current_year_transactions,
	       SUM(actual_worth) FILTER (WHERE property_category = {{apartment}} AND EXTRACT(YEAR FROM instance_date) = ?) AS apartment_current_year_value
	FROM sales
	WHERE {{residential}} AND trans_group_en = {{sales_group}}
	GROUP BY area_id
)
SELECT da.area_id,
       da.area_name_en AS area_name,
       t.villa_total_transactions,
       t.villa_total_value::float8 AS villa_total_value,
       t.villa_current_year_transactions,
       t.villa_current_year_value::float8 AS villa_current_year_value,
       t.apartment_total_transactions,
       t.apartment_total_value::float8 AS apartment_total_value,
       t.apartment_current_year_transactions,
       t.apartment_current_year_value::float8 AS apartment_current_year_value
FROM dim_area da
JOIN totals t ON t.area_id = da.area_id
WHERE {{search}}`

// AreaTransactionTotals lists sale counts and total value per area.
func (s *Store) AreaTransactionTotals(ctx context.Context, p PageQuery) iter.Seq2[AreaTransactionTotal, error] {
	cur := s.currentYear()
	return areaListing[AreaTransactionTotal](ctx, s, "area_transaction_totals", areaTransactionTotalsSQL, []any{cur, cur, cur, cur}, p, nil)
}
