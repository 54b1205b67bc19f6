package validation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type line struct {
	Description string `json:"description" validate:"required"`
}

type doc struct {
	Customer string `json:"customerId" validate:"required"`
	Kind     string `json:"kind" validate:"oneof=invoice quote"`
	Items    []line `json:"items" validate:"dive"`
}

func TestStructUsesJSONPaths(t *testing.T) {
	v := Violations{}
	Struct(doc{Kind: "memo", Items: []line{{Description: "ok"}, {}}}, v)
	assert.Equal(t, "required", v["customerId"])
	assert.Equal(t, "invalid_choice", v["kind"])
	assert.Equal(t, "required", v["items[1].description"])
	assert.Len(t, v, 3)
}

func TestStructKeepsExplicitViolations(t *testing.T) {
	v := Violations{"customerId": "customer_required"}
	Struct(doc{Kind: "quote"}, v)
	assert.Equal(t, "customer_required", v["customerId"])
}

func TestDecimalValidators(t *testing.T) {
	v := Violations{}
	PositiveDecimal("qty", decimal.Zero, v)
	NonNegativeDecimal("rate", decimal.NewFromInt(-1), v)
	RangeDecimal("tax", decimal.NewFromInt(101), decimal.Zero, decimal.NewFromInt(100), v)
	Required("name", "  ", v)
	assert.Equal(t, Violations{
		"qty":  "must_be_positive",
		"rate": "must_not_be_negative",
		"tax":  "out_of_range",
		"name": "required",
	}, v)
	assert.False(t, v.Empty())
}

func TestEmail(t *testing.T) {
	v := Violations{}
	Email("email", "", v)
	Email("ok", "ana@example.com", v)
	Email("bad", "ana@", v)
	assert.Equal(t, Violations{"bad": "invalid_email"}, v)
}

func TestDecimal(t *testing.T) {
	v := Violations{}
	assert.True(t, Decimal("a", "", v).IsZero())
	assert.Equal(t, "12.5", Decimal("b", " 12.50 ", v).String())
	assert.True(t, Decimal("c", "12,5", v).IsZero())
	assert.Equal(t, Violations{"c": "invalid"}, v)
}
