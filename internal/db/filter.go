package db

import (
	"strings"

	sq "github.com/Masterminds/squirrel"

	"propinsight/internal/market"
)

// ProjectFilter is the optional filter set of the project ranking
// endpoints. Zero values and "all" apply no restriction.
type ProjectFilter struct {
	Search        string
	Year          *int
	RegType       string
	TransferType  string
	PropertyUsage string
	PropertyTypes []market.Category
}

// Predicate renders the filter as a conjunctive predicate over the
// columns of the classified sales fragment, together with its bind
// parameters in order. An empty filter renders TRUE with no parameters.
func (f ProjectFilter) Predicate() (string, []any, error) {
	var conds sq.And

	if s := strings.TrimSpace(f.Search); s != "" {
		conds = append(conds, sq.ILike{"area_name_en": containsPattern(s)})
	}
	if f.Year != nil {
		conds = append(conds, sq.Expr("EXTRACT(YEAR FROM instance_date) = ?", *f.Year))
	}
	if v, ok := label(f.RegType); ok {
		conds = append(conds, sq.Eq{"reg_type_en": v})
	}
	if v, ok := label(f.TransferType); ok {
		conds = append(conds, sq.Eq{"trans_group_en": v})
	}
	if v, ok := label(f.PropertyUsage); ok {
		conds = append(conds, sq.Eq{"property_usage_en": v})
	}
	if len(f.PropertyTypes) > 0 {
		labels := make([]string, len(f.PropertyTypes))
		for i, c := range f.PropertyTypes {
			labels[i] = string(c)
		}
		conds = append(conds, sq.Eq{"property_category": labels})
	}

	return where(conds)
}

// RentPredicate renders the subset of the filter that applies to rent
// contracts: the area search and the contract start year. Registration,
// transfer and usage labels exist only on sales.
func (f ProjectFilter) RentPredicate() (string, []any, error) {
	var conds sq.And

	if s := strings.TrimSpace(f.Search); s != "" {
		conds = append(conds, sq.ILike{"area_name_en": containsPattern(s)})
	}
	if f.Year != nil {
		conds = append(conds, sq.Expr("EXTRACT(YEAR FROM contract_start_date) = ?", *f.Year))
	}

	return where(conds)
}

// label reports whether v is an actual filter value rather than a
// placeholder for "no filter".
func label(v string) (string, bool) {
	v = strings.TrimSpace(v)
	if v == "" || strings.EqualFold(v, "all") {
		return "", false
	}
	return v, true
}
