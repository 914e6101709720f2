package db

import (
	"strings"

	sq "github.com/Masterminds/squirrel"

	"propinsight/internal/market"
)

// categorySQL is the single SQL rendering of the classification rules.
var categorySQL = market.ClassificationSQL("dpt.property_type", "dps.property_sub_type")

// salesCTE exposes sale transactions with their dimension labels and
// property category. Every sales query reads through it.
var salesCTE = `sales AS (
	SELECT t.transaction_id, t.instance_date, t.area_id, da.area_name_en,
	       t.project_number, dp.project_name_en,
	       t.actual_worth, t.meter_sale_price, t.num_rooms_en,
	       dtg.trans_group_en, dr.reg_type_en, du.property_usage_en,
	       ` + categorySQL + ` AS property_category
	FROM transactions t
	JOIN dim_area da ON da.area_id = t.area_id
	LEFT JOIN dim_project dp ON dp.project_number = t.project_number
	LEFT JOIN dim_property_type dpt ON dpt.property_type_id = t.property_type_id
	LEFT JOIN dim_property_sub_type dps ON dps.property_sub_type_id = t.property_sub_type_id
	LEFT JOIN dim_trans_group dtg ON dtg.trans_group_id = t.trans_group_id
	LEFT JOIN dim_usage du ON du.property_usage_id = t.property_usage_id
	LEFT JOIN dim_reg_type dr ON dr.reg_type_id = t.reg_type_id
)`

// rentsCTE is the rental counterpart of salesCTE.
var rentsCTE = `rent_contracts AS (
	SELECT r.contract_id, r.contract_start_date, r.area_id, da.area_name_en,
	       r.project_number, r.annual_amount, r.actual_area, r.ejari_property_sub_type_en,
	       ` + categorySQL + ` AS property_category
	FROM rents r
	JOIN dim_area da ON da.area_id = r.area_id
	LEFT JOIN dim_property_type dpt ON dpt.property_type_id = r.property_type_id
	LEFT JOIN dim_property_sub_type dps ON dps.property_sub_type_id = r.property_sub_type_id
)`

// residentialSQL restricts a classified fragment to apartments and villas.
var residentialSQL = "property_category IN (" + market.Apartment.SQL() + ", " + market.Villa.SQL() + ")"

// Dimension labels the queries filter on.
const (
	transferSales  = "'Sales'"
	offPlan        = "'Off-Plan Properties'"
	usageResident  = "'Residential'"
	usageCommerce  = "'Commercial'"
	sqftPerSqMeter = "10.7639"
)

// bedroomsSQL extracts the digits of a free-text room description as an
// integer; text without digits ("Studio", "PENTHOUSE") yields NULL.
func bedroomsSQL(col string) string {
	return "NULLIF(REGEXP_REPLACE(COALESCE(" + col + ", ''), '[^0-9]', '', 'g'), '')::int"
}

// fill substitutes {{name}} placeholders of a query template with
// generated SQL fragments. Fragments never contain user input; values
// travel as bind parameters.
func fill(tmpl string, fragments map[string]string) string {
	pairs := make([]string, 0, 2*len(fragments))
	for k, v := range fragments {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

// where renders a conjunction, or TRUE when it is empty.
func where(conds sq.And) (string, []any, error) {
	if len(conds) == 0 {
		return "TRUE", nil, nil
	}
	return conds.ToSql()
}

// containsPattern builds an ILIKE pattern matching s anywhere, with LIKE
// metacharacters in s taken literally.
func containsPattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
