package db

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	"propinsight/internal/market"
)

// investmentWindowMonths is how far back the price series reaches: the
// trailing year plus the year before it for the YoY comparison.
const investmentWindowMonths = 24

type monthlyPriceRow struct {
	Month      datatypes.Date `gorm:"column:month"`
	PriceSum   float64        `gorm:"column:price_sum"`
	PriceCount int64          `gorm:"column:price_count"`
	TxnCount   int64          `gorm:"column:txn_count"`
}

const monthlyPriceSQL = `WITH {{sales}}
SELECT DATE_TRUNC('month', instance_date)::date AS month,
       COALESCE(SUM(meter_sale_price) FILTER (WHERE meter_sale_price > 0), 0)::float8 AS price_sum,
       COUNT(*) FILTER (WHERE meter_sale_price > 0) AS price_count,
       COUNT(*) AS txn_count
FROM sales
WHERE property_category = ?
  AND trans_group_en = {{sales_group}}
  AND instance_date >= ?
  AND instance_date < ?
  AND {{area}}
GROUP BY 1
ORDER BY 1`

type yieldRow struct {
	AvgAnnualRent *float64 `gorm:"column:avg_annual_rent"`
	AvgSaleWorth  *float64 `gorm:"column:avg_sale_worth"`
}

const trailingYieldSQL = `WITH {{sales}}, {{rents}}
SELECT
	(SELECT AVG(annual_amount)::float8 FROM rent_contracts
	 WHERE property_category = ? AND annual_amount > 0
	   AND contract_start_date >= ? AND contract_start_date < ? AND {{area}}) AS avg_annual_rent,
	(SELECT AVG(actual_worth)::float8 FROM sales
	 WHERE property_category = ? AND trans_group_en = {{sales_group}} AND actual_worth > 0
	   AND instance_date >= ? AND instance_date < ? AND {{area}}) AS avg_sale_worth`

// The gap between a sale and the rent contracts of the same project that
// start from 180 days before to 365 days after it.
const timeOnMarketSQL = `WITH {{sales}}, {{rents}}
SELECT AVG(ABS(r.contract_start_date - s.instance_date))::float8 AS days
FROM sales s
JOIN rent_contracts r
  ON r.project_number = s.project_number
 AND r.property_category = s.property_category
 AND r.contract_start_date BETWEEN s.instance_date - 180 AND s.instance_date + 365
WHERE s.property_category = ?
  AND s.trans_group_en = {{sales_group}}
  AND s.instance_date >= ?
  AND s.instance_date < ?
  AND {{sale_area}}`

// InvestmentMetrics gathers the signals of an area and residential type
// as of the current month. The three underlying queries run concurrently
// on the shared pool; the first failure cancels the others.
func (s *Store) InvestmentMetrics(ctx context.Context, areaName string, t market.ResidentialType) (market.InvestmentMetrics, error) {
	asOf := s.now().UTC()
	end := market.MonthStart(asOf).AddDate(0, 1, 0)
	seriesStart := end.AddDate(0, -investmentWindowMonths, 0)
	trailingStart := end.AddDate(-1, 0, 0)
	category := string(t.Category())

	area, areaArgs := areaFragment("area_name_en", areaName)
	saleArea, _ := areaFragment("s.area_name_en", areaName)
	fragments := map[string]string{
		"sales":       salesCTE,
		"rents":       rentsCTE,
		"sales_group": transferSales,
		"area":        area,
		"sale_area":   saleArea,
	}

	var (
		series []market.MonthlyPrice
		yield  yieldRow
		tom    struct {
			Days *float64 `gorm:"column:days"`
		}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		args := append([]any{category, seriesStart, end}, areaArgs...)
		rows := stream[monthlyPriceRow](gctx, s.db, "investment_price_series", fill(monthlyPriceSQL, fragments), args, nil)
		for row, err := range rows {
			if err != nil {
				return err
			}
			series = append(series, market.MonthlyPrice{
				Month:      time.Time(row.Month),
				PriceSum:   row.PriceSum,
				PriceCount: row.PriceCount,
				TxnCount:   row.TxnCount,
			})
		}
		return nil
	})
	g.Go(func() error {
		args := []any{category, trailingStart, end}
		args = append(args, areaArgs...)
		args = append(args, category, trailingStart, end)
		args = append(args, areaArgs...)
		if err := s.db.WithContext(gctx).Raw(fill(trailingYieldSQL, fragments), args...).Scan(&yield).Error; err != nil {
			return fmt.Errorf("investment_yield: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		args := append([]any{category, trailingStart, end}, areaArgs...)
		if err := s.db.WithContext(gctx).Raw(fill(timeOnMarketSQL, fragments), args...).Scan(&tom).Error; err != nil {
			return fmt.Errorf("investment_time_on_market: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return market.InvestmentMetrics{}, err
	}

	return market.ComposeInvestmentMetrics(series, market.YieldInputs{
		AvgAnnualRent: yield.AvgAnnualRent,
		AvgSaleWorth:  yield.AvgSaleWorth,
	}, tom.Days, asOf), nil
}
