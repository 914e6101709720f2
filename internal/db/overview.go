package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"propinsight/internal/market"
)

// AreaOverview is the headline row of an area.
type AreaOverview struct {
	AreaID               *int64   `json:"area_id,omitempty" gorm:"column:area_id"`
	AreaNameEn           string   `json:"area_name_en,omitempty" gorm:"column:area_name_en"`
	TrackedProjects      int64    `json:"tracked_projects" gorm:"column:tracked_projects"`
	TotalTransactions12m int64    `json:"total_transactions_12m" gorm:"column:total_transactions_12m"`
	AvgPricePerSqft      *float64 `json:"avg_price_per_sqft" gorm:"column:avg_price_per_sqft"`
	AvgRentalYield       *float64 `json:"avg_rental_yield" gorm:"column:avg_rental_yield"`
	YoYPriceGrowth       *float64 `json:"yoy_price_growth" gorm:"column:yoy_price_growth"`
}

const overviewView = "analytics.area_overview_mv"

const overviewViewSQL = `CREATE MATERIALIZED VIEW IF NOT EXISTS ` + overviewView + ` AS
WITH {{sales}}, {{rents}},
sale AS (
	SELECT area_id,
	       COUNT(DISTINCT project_number) AS tracked_projects,
	       COUNT(*) FILTER (WHERE instance_date >= CURRENT_DATE - INTERVAL '12 months') AS total_transactions_12m,
	       AVG(meter_sale_price / {{sqft}}) FILTER (WHERE instance_date >= CURRENT_DATE - INTERVAL '12 months') AS avg_price_per_sqft,
	       AVG(meter_sale_price) FILTER (WHERE instance_date >= CURRENT_DATE - INTERVAL '12 months') AS meter_cur,
	       AVG(meter_sale_price) FILTER (WHERE instance_date >= CURRENT_DATE - INTERVAL '24 months'
	                                       AND instance_date < CURRENT_DATE - INTERVAL '12 months') AS meter_prev,
	       AVG(actual_worth) FILTER (WHERE {{residential}} AND instance_date >= CURRENT_DATE - INTERVAL '12 months') AS worth_cur
	FROM sales
	WHERE trans_group_en = {{sales_group}}
	GROUP BY area_id
),
rent AS (
	SELECT area_id, AVG(annual_amount) AS rent_cur
	FROM rent_contracts
	WHERE {{residential}} AND contract_start_date >= CURRENT_DATE - INTERVAL '12 months'
	GROUP BY area_id
)
SELECT da.area_id,
       da.area_name_en,
       COALESCE(s.tracked_projects, 0) AS tracked_projects,
       COALESCE(s.total_transactions_12m, 0) AS total_transactions_12m,
       ROUND(s.avg_price_per_sqft, 2)::float8 AS avg_price_per_sqft,
       ROUND(r.rent_cur * 100 / NULLIF(s.worth_cur, 0), 2)::float8 AS avg_rental_yield,
       ROUND((s.meter_cur - s.meter_prev) * 100 / NULLIF(s.meter_prev, 0), 2)::float8 AS yoy_price_growth
FROM dim_area da
LEFT JOIN sale s ON s.area_id = da.area_id
LEFT JOIN rent r ON r.area_id = da.area_id`

// EnsureAreaOverviewView creates the overview materialized view and the
// unique index a concurrent refresh needs, unless they exist.
func EnsureAreaOverviewView(ctx context.Context, db *gorm.DB) error {
	stmts := []string{
		"CREATE SCHEMA IF NOT EXISTS analytics",
		fill(overviewViewSQL, map[string]string{
			"sales":       salesCTE,
			"rents":       rentsCTE,
			"residential": residentialSQL,
			"sales_group": transferSales,
			"sqft":        sqftPerSqMeter,
		}),
		"CREATE UNIQUE INDEX IF NOT EXISTS area_overview_mv_area_id ON " + overviewView + " (area_id)",
	}
	for _, stmt := range stmts {
		if err := db.WithContext(ctx).Exec(stmt).Error; err != nil {
			return fmt.Errorf("ensure area overview view: %w", err)
		}
	}
	return nil
}

// AreaOverview returns the overview row of an area, matched by name
// without regard to case. Hyphens in the name stand for spaces. An
// unknown area yields zero counts and null averages.
func (s *Store) AreaOverview(ctx context.Context, name string) (AreaOverview, error) {
	var rows []AreaOverview
	err := s.db.WithContext(ctx).
		Raw("SELECT * FROM "+overviewView+" WHERE LOWER(area_name_en) = LOWER(?) LIMIT 1", market.NormalizeAreaName(name)).
		Scan(&rows).Error
	if err != nil {
		return AreaOverview{}, fmt.Errorf("area_overview: %w", err)
	}
	if len(rows) == 0 {
		return AreaOverview{}, nil
	}
	return rows[0], nil
}
