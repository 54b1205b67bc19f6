package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

func (v Violations) Error() string {
	parts := make([]string, 0, len(v))
	for f, c := range v {
		parts = append(parts, f+": "+c)
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

func PositiveDecimal(field string, val decimal.Decimal, v Violations) {
	if !val.IsPositive() {
		v[field] = "must_be_positive"
	}
}

func NonNegativeDecimal(field string, val decimal.Decimal, v Violations) {
	if val.IsNegative() {
		v[field] = "must_not_be_negative"
	}
}

func RangeDecimal(field string, val, minVal, maxVal decimal.Decimal, v Violations) {
	if val.LessThan(minVal) || val.GreaterThan(maxVal) {
		v[field] = "out_of_range"
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	vd := validator.New()
	vd.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return vd
}

// Struct runs the `validate` tags of s and records each failure under its
// JSON field path (e.g. "items[0].description").
func Struct(s any, v Violations) {
	err := validate.Struct(s)
	if err == nil {
		return
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		v["_"] = "invalid"
		return
	}
	for _, fe := range fieldErrs {
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		if _, exists := v[field]; !exists {
			v[field] = code(fe.Tag())
		}
	}
}

func code(tag string) string {
	switch tag {
	case "required", "required_if", "required_with":
		return "required"
	case "oneof":
		return "invalid_choice"
	case "email":
		return "invalid_email"
	case "min", "gt", "gte":
		return "too_small"
	case "max", "lt", "lte":
		return "too_large"
	default:
		return tag
	}
}

// Email records invalid_email when a non-empty value is not an address.
func Email(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		return
	}
	if err := validate.Var(value, "email"); err != nil {
		v[field] = "invalid_email"
	}
}

// Decimal parses a form value. Empty input is zero; malformed input
// records "invalid".
func Decimal(field, raw string, v Violations) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		v[field] = "invalid"
		return decimal.Zero
	}
	return d
}
