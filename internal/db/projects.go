package db

import (
	"context"
	"iter"
)

// TopProject is one ranked row of the top projects query.
type TopProject struct {
	ID               int64    `json:"id" gorm:"column:id"`
	Name             *string  `json:"name" gorm:"column:name"`
	Area             *string  `json:"area" gorm:"column:area"`
	Type             string   `json:"type" gorm:"column:type"`
	TransferType     *string  `json:"transferType" gorm:"column:transfer_type"`
	PropertyUsage    *string  `json:"property_usage" gorm:"column:property_usage"`
	RegType          *string  `json:"reg_type" gorm:"column:reg_type"`
	SalesVolume      *float64 `json:"salesVolume" gorm:"column:sales_volume"`
	AvgPricePerSqft  *float64 `json:"avgPricePerSqft" gorm:"column:avg_price_per_sqft"`
	TransactionCount int64    `json:"transaction_count" gorm:"column:transaction_count"`
	Rank             int      `json:"rank" gorm:"column:rank"`
}

const topProjectsSQL = `WITH {{sales}},
grouped AS (
	SELECT project_number AS id,
	       MAX(project_name_en) AS name,
	       MAX(area_name_en) AS area,
	       property_category AS type,
	       trans_group_en AS transfer_type,
	       property_usage_en AS property_usage,
	       reg_type_en AS reg_type,
	       SUM(actual_worth)::float8 AS sales_volume,
	       AVG(meter_sale_price)::float8 AS avg_price_per_sqft,
	       COUNT(*) AS transaction_count
	FROM sales
	WHERE property_category IS NOT NULL
	  AND project_number IS NOT NULL
	  AND {{filter}}
	GROUP BY project_number, property_category, trans_group_en, property_usage_en, reg_type_en
),
ranked AS (
	SELECT grouped.*,
	       ROW_NUMBER() OVER (PARTITION BY type ORDER BY sales_volume DESC NULLS LAST, id ASC) AS rank
	FROM grouped
)
SELECT id, name, area, type, transfer_type, property_usage, reg_type,
       sales_volume, avg_price_per_sqft, transaction_count, rank
FROM ranked
WHERE rank <= ?
ORDER BY type, rank`

// TopProjects ranks projects by sales volume within each property
// category and keeps the first RankLimit of each. Rows whose category
// is unknown are excluded. Equal volumes are ordered by project id.
func (s *Store) TopProjects(ctx context.Context, f ProjectFilter) iter.Seq2[TopProject, error] {
	pred, args, err := f.Predicate()
	if err != nil {
		return ErrSeq[TopProject](err)
	}
	query := fill(topProjectsSQL, map[string]string{"sales": salesCTE, "filter": pred})
	return stream[TopProject](ctx, s.db, "top_projects", query, append(args, RankLimit), nil)
}

// RentalYieldProject is one ranked row of the rental yield query.
type RentalYieldProject struct {
	ID               int64    `json:"id" gorm:"column:id"`
	ProjectName      *string  `json:"project_name" gorm:"column:project_name"`
	Area             *string  `json:"area" gorm:"column:area"`
	PropertyUsage    *string  `json:"property_usage" gorm:"column:property_usage"`
	PropertyType     string   `json:"property_type" gorm:"column:property_type"`
	TransactionCount int64    `json:"transaction_count" gorm:"column:transaction_count"`
	RentCount        int64    `json:"rent_count" gorm:"column:rent_count"`
	AvgSaleValue     *float64 `json:"avg_sale_value" gorm:"column:avg_sale_value"`
	AvgRentValue     *float64 `json:"avg_rent_value" gorm:"column:avg_rent_value"`
	YieldPercentage  *float64 `json:"yield_percentage" gorm:"column:yield_percentage"`
	Rank             int      `json:"rank" gorm:"column:rank"`
}

const topRentalYieldSQL = `WITH {{sales}}, {{rents}},
project_sales AS (
	SELECT project_number,
	       MAX(project_name_en) AS project_name,
	       MAX(area_name_en) AS area,
	       property_usage_en,
	       property_category,
	       COUNT(*) AS transaction_count,
	       AVG(actual_worth) AS avg_sale
	FROM sales
	WHERE property_category IS NOT NULL
	  AND project_number IS NOT NULL
	  AND actual_worth IS NOT NULL
	  AND {{filter}}
	GROUP BY project_number, property_category, property_usage_en
),
project_rents AS (
	SELECT project_number, property_category, COUNT(*) AS rent_count, AVG(annual_amount) AS avg_rent
	FROM rent_contracts
	WHERE project_number IS NOT NULL
	  AND annual_amount IS NOT NULL
	  AND {{rent_filter}}
	GROUP BY project_number, property_category
),
scored AS (
	SELECT ps.project_number AS id,
	       ps.project_name,
	       ps.area,
	       ps.property_usage_en AS property_usage,
	       ps.property_category AS property_type,
	       ps.transaction_count,
	       pr.rent_count,
	       ROUND(ps.avg_sale)::float8 AS avg_sale_value,
	       ROUND(pr.avg_rent)::float8 AS avg_rent_value,
	       ROUND(pr.avg_rent / NULLIF(ps.avg_sale, 0) * 100, 2)::float8 AS yield_percentage
	FROM project_sales ps
	JOIN project_rents pr
	  ON pr.project_number = ps.project_number
	 AND pr.property_category = ps.property_category
),
ranked AS (
	SELECT scored.*,
	       ROW_NUMBER() OVER (PARTITION BY property_type ORDER BY yield_percentage DESC NULLS LAST, id ASC) AS rank
	FROM scored
)
SELECT id, project_name, area, property_usage, property_type, transaction_count, rent_count,
       avg_sale_value, avg_rent_value, yield_percentage, rank
FROM ranked
WHERE rank <= ?
ORDER BY property_type, rank`

// TopRentalYieldProjects joins each project's sale aggregate with its
// rent aggregate, both restricted to the same year and area search, and
// ranks projects by gross yield within each property
// category. A zero or missing average sale value yields a null yield,
// which ranks last.
func (s *Store) TopRentalYieldProjects(ctx context.Context, f ProjectFilter) iter.Seq2[RentalYieldProject, error] {
	pred, args, err := f.Predicate()
	if err != nil {
		return ErrSeq[RentalYieldProject](err)
	}
	rentPred, rentArgs, err := f.RentPredicate()
	if err != nil {
		return ErrSeq[RentalYieldProject](err)
	}
	query := fill(topRentalYieldSQL, map[string]string{
		"sales":       salesCTE,
		"rents":       rentsCTE,
		"filter":      pred,
		"rent_filter": rentPred,
	})
	args = append(append(args, rentArgs...), RankLimit)
	return stream[RentalYieldProject](ctx, s.db, "top_rental_yield_projects", query, args, nil)
}
