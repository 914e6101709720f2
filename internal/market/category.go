// Package market holds the pure domain rules of the analytics service:
// property classification, bedroom labelling, request value parsing,
// null-safe ratios, and the post-processing applied to query rows.
package market

import (
	"strings"
)

// Category is the canonical property category derived from the raw
// property type and sub type dimension labels.
type Category string

const (
	Apartment         Category = "Apartment"
	StackedTownhouses Category = "Stacked Townhouses"
	Villa             Category = "Villa"
	Shop              Category = "Shop"
	HotelApartment    Category = "Hotel Apartment"
	HotelRooms        Category = "Hotel Rooms"
	Office            Category = "Office"
)

// Categories lists every label Classify can return.
var Categories = []Category{Apartment, StackedTownhouses, Villa, Shop, HotelApartment, HotelRooms, Office}

type classificationRule struct {
	propertyType string
	subType      string // empty matches any sub type
	category     Category
}

// classificationRules are evaluated top to bottom and the first match wins.
// ClassificationSQL renders the same table, so SQL and Go agree.
var classificationRules = []classificationRule{
	{"Unit", "Flat", Apartment},
	{"Unit", "Stacked Townhouses", StackedTownhouses},
	{"Villa", "", Villa},
	{"Unit", "Shop", Shop},
	{"Unit", "Hotel Apartment", HotelApartment},
	{"Unit", "Hotel Rooms", HotelRooms},
	{"Office", "", Office},
	{"Unit", "Office", Office},
}

// Classify maps a raw (property type, sub type) pair to its category.
// The boolean is false when no rule matches; such rows are excluded
// from ranked output.
func Classify(propertyType, subType string) (Category, bool) {
	for _, r := range classificationRules {
		if r.propertyType != propertyType {
			continue
		}
		if r.subType == "" || r.subType == subType {
			return r.category, true
		}
	}
	return "", false
}

// ClassificationSQL renders the classification rules as a SQL CASE
// expression over the given column expressions. Rows matching no rule
// evaluate to NULL.
func ClassificationSQL(typeCol, subCol string) string {
	var b strings.Builder
	b.WriteString("CASE")
	for _, r := range classificationRules {
		b.WriteString(" WHEN ")
		b.WriteString(typeCol)
		b.WriteString(" = ")
		b.WriteString(sqlLiteral(r.propertyType))
		if r.subType != "" {
			b.WriteString(" AND ")
			b.WriteString(subCol)
			b.WriteString(" = ")
			b.WriteString(sqlLiteral(r.subType))
		}
		b.WriteString(" THEN ")
		b.WriteString(sqlLiteral(string(r.category)))
	}
	b.WriteString(" END")
	return b.String()
}

func sqlLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// ParseCategory resolves a user supplied label, ignoring case and
// surrounding space.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if strings.EqualFold(string(c), s) {
			return c, nil
		}
	}
	return "", &ValidationError{Field: "propertyTypes", Message: "unknown property type " + quoteValue(s)}
}

// ParseCategoryList parses a comma separated list of labels. Empty
// input and "all" mean no restriction and return nil.
func ParseCategoryList(csv string) ([]Category, error) {
	csv = strings.TrimSpace(csv)
	if csv == "" || strings.EqualFold(csv, "all") {
		return nil, nil
	}
	var out []Category
	seen := make(map[Category]bool)
	for _, part := range strings.Split(csv, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		c, err := ParseCategory(part)
		if err != nil {
			return nil, err
		}
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out, nil
}

// ResidentialType is the apartment/villa split used by the ratio, yield
// and investment endpoints.
type ResidentialType string

const (
	ResidentialApartment ResidentialType = "apartment"
	ResidentialVilla     ResidentialType = "villa"
)

// Category returns the classification label the type corresponds to.
func (t ResidentialType) Category() Category {
	if t == ResidentialVilla {
		return Villa
	}
	return Apartment
}

// ParseResidentialType accepts apartment(s), villa(s) and flat, in any
// case. "all", "both" and the empty string return ok=false with no error.
func ParseResidentialType(field, s string) (t ResidentialType, ok bool, err error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all", "both":
		return "", false, nil
	case "apartment", "apartments", "flat":
		return ResidentialApartment, true, nil
	case "villa", "villas":
		return ResidentialVilla, true, nil
	}
	return "", false, &ValidationError{Field: field, Message: "must be apartment, villa or all, got " + quoteValue(s)}
}

// SQL returns the category as a quoted SQL string literal.
func (c Category) SQL() string {
	return sqlLiteral(string(c))
}
