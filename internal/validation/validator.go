// Package validation checks raw request parameters with
// go-playground/validator before they are parsed into query inputs.
//
// Parameter structs name their query parameter in a `query` tag; error
// messages use that name:
//
//	type params struct {
//	    DateRange string `query:"dateRange" validate:"required,daterange"`
//	}
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"propinsight/internal/market"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once

	dateRangePattern = regexp.MustCompile(`^[1-9][0-9]*y$`)
	yearPattern      = regexp.MustCompile(`^[0-9]{4}$`)
)

// FieldError is one failed rule.
type FieldError struct {
	Field   string
	Tag     string
	Param   string
	Message string
}

// RequestValidationError collects the failed rules of one request.
type RequestValidationError struct {
	Fields []FieldError
}

func (e *RequestValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return strings.Join(msgs, "; ")
}

// Validator returns the process-wide validator with the custom tags
// registered.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("query"), ",")
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
		mustRegister(v, "daterange", func(fl validator.FieldLevel) bool {
			return dateRangePattern.MatchString(strings.ToLower(strings.TrimSpace(fl.Field().String())))
		})
		mustRegister(v, "yearorall", func(fl validator.FieldLevel) bool {
			s := strings.TrimSpace(fl.Field().String())
			return strings.EqualFold(s, "all") || yearPattern.MatchString(s)
		})
		mustRegister(v, "categorylist", func(fl validator.FieldLevel) bool {
			_, err := market.ParseCategoryList(fl.Field().String())
			return err == nil
		})
		validate = v
	})
	return validate
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s: %v", tag, err))
	}
}

// Struct validates s and returns a *RequestValidationError on failure.
func Struct(s any) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &RequestValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Message: message(fe),
		})
	}
	return out
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "daterange":
		return fmt.Sprintf("Invalid dateRange format: %q, expected a number of years such as 5y", fe.Value())
	case "yearorall":
		return fmt.Sprintf("invalid %s: %q is not a year", field, fe.Value())
	case "categorylist":
		return fmt.Sprintf("invalid %s: %q contains an unknown property type", field, fe.Value())
	case "oneof":
		return fmt.Sprintf("invalid %s: must be one of %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "min", "gte":
		return fmt.Sprintf("invalid %s: must be at least %s", field, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("invalid %s: must be at most %s", field, fe.Param())
	case "numeric", "number":
		return fmt.Sprintf("invalid %s: %q is not a number", field, fe.Value())
	default:
		return fmt.Sprintf("invalid %s", field)
	}
}
