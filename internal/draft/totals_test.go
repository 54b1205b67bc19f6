package draft

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s got %s", want, got.String())
}

func TestInvoiceScenarioTotals(t *testing.T) {
	doc := Document{Kind: KindInvoice, CustomerID: "c1", TaxRate: dec("16")}
	doc.AddItem(LineItem{Description: "Salón", Quantity: dec("2"), Rate: dec("50")})

	tot := doc.Totals()
	assertDec(t, "100", tot.Subtotal)
	assertDec(t, "16", tot.TaxAmount)
	assertDec(t, "116", tot.Total)
	assertDec(t, "116", tot.RemainingBalance)

	doc.AddPayment(Payment{Amount: dec("116")})
	assertDec(t, "0", doc.Totals().RemainingBalance)
}

func TestComputeTotalsConsistency(t *testing.T) {
	cases := []struct {
		name     string
		items    [][2]string
		discount Discount
		coupon   *Coupon
		tax      string
	}{
		{"no items", nil, Discount{}, nil, "16"},
		{"fractions", [][2]string{{"3", "19.99"}, {"1.5", "7.333"}}, Discount{}, nil, "16"},
		{"percent discount", [][2]string{{"10", "12.5"}}, Discount{Type: DiscountPercent, Value: dec("15")}, nil, "8"},
		{"amount discount", [][2]string{{"1", "80"}}, Discount{Type: DiscountAmount, Value: dec("30")}, nil, "16"},
		{"discount above subtotal", [][2]string{{"1", "20"}}, Discount{Type: DiscountAmount, Value: dec("50")}, nil, "16"},
		{"coupon stacks", [][2]string{{"4", "25"}}, Discount{Type: DiscountPercent, Value: dec("10")}, &Coupon{Code: "BODA", Discount: Discount{Type: DiscountAmount, Value: dec("5")}}, "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc := Document{Discount: tc.discount, Coupon: tc.coupon, TaxRate: dec(tc.tax)}
			want := decimal.Zero
			for _, it := range tc.items {
				doc.AddItem(LineItem{Description: "x", Quantity: dec(it[0]), Rate: dec(it[1])})
				want = want.Add(dec(it[0]).Mul(dec(it[1])).Round(2))
			}
			tot := doc.Totals()
			assert.True(t, want.Equal(tot.Subtotal))
			assert.True(t, tot.SubtotalAfterDiscount.Equal(tot.Subtotal.Sub(tot.DiscountAmount)))
			assert.False(t, tot.SubtotalAfterDiscount.IsNegative())
			assert.True(t, tot.TaxAmount.Equal(tot.SubtotalAfterDiscount.Mul(dec(tc.tax)).Div(hundred).Round(2)))
			assert.True(t, tot.Total.Equal(tot.SubtotalAfterDiscount.Add(tot.TaxAmount)))
		})
	}
}

func TestDiscountClampedToSubtotal(t *testing.T) {
	doc := Document{Discount: Discount{Type: DiscountAmount, Value: dec("50")}, TaxRate: dec("16")}
	doc.AddItem(LineItem{Description: "x", Quantity: dec("1"), Rate: dec("20")})
	tot := doc.Totals()
	assertDec(t, "20", tot.DiscountAmount)
	assertDec(t, "0", tot.Total)
}

func TestRemainingBalanceFloorsAtZero(t *testing.T) {
	cases := []struct{ total, paid, want string }{
		{"116", "0", "116"},
		{"116", "16", "100"},
		{"116", "116", "0"},
		{"116", "200", "0"},
		{"0", "0", "0"},
	}
	for _, tc := range cases {
		assertDec(t, tc.want, RemainingBalance(dec(tc.total), dec(tc.paid)))
	}
}

func TestPayingRemainingBalanceZeroesIt(t *testing.T) {
	doc := Document{TaxRate: dec("16")}
	doc.AddItem(LineItem{Description: "x", Quantity: dec("3"), Rate: dec("33.33")})
	doc.AddPayment(Payment{Amount: dec("50")})
	rem := doc.Totals().RemainingBalance
	doc.AddPayment(Payment{Amount: rem})
	assert.True(t, doc.Totals().RemainingBalance.IsZero())
}

func TestPlanReciprocity(t *testing.T) {
	cases := []struct{ total, pct, amount string }{
		{"10000", "30", "3000"},
		{"1234.56", "33.33", "411.48"},
		{"999", "12.5", "124.88"},
	}
	for _, tc := range cases {
		assertDec(t, tc.amount, PlanAmount(dec(tc.total), dec(tc.pct)))
	}
	assertDec(t, "25", PlanPercentage(dec("10000"), dec("2500")))
	assertDec(t, "33.33", PlanPercentage(dec("300"), dec("100")))
	assertDec(t, "0", PlanPercentage(decimal.Zero, dec("100")))
}

func TestPaymentPlanEditing(t *testing.T) {
	doc := Document{Kind: KindPaymentPlan, EventID: "e1", EventTotal: dec("20000")}
	doc.AddPlanRow(dec("50"), nil, "Anticipo")
	doc.AddPlanRow(dec("50"), nil, "Liquidación")
	assertDec(t, "10000", doc.Plan[0].Amount)

	assert.NoError(t, doc.SetPlanAmount(0, dec("5000")))
	assertDec(t, "25", doc.Plan[0].Percentage)

	assert.NoError(t, doc.SetPlanPercentage(1, dec("40")))
	assertDec(t, "8000", doc.Plan[1].Amount)

	pct, amt, left := doc.PlanSummary()
	assertDec(t, "65", pct)
	assertDec(t, "13000", amt)
	assertDec(t, "7000", left)

	assert.ErrorIs(t, doc.SetPlanAmount(5, dec("1")), ErrOutOfRange)
}

func TestUpdateItemRecomputesAmount(t *testing.T) {
	doc := Document{}
	doc.AddItem(LineItem{Description: "Sillas", Quantity: dec("100"), Rate: dec("12")})
	assertDec(t, "1200", doc.Items[0].Amount)
	assert.NoError(t, doc.UpdateItem(0, "", dec("120"), dec("11.5")))
	assertDec(t, "1380", doc.Items[0].Amount)
	assert.Equal(t, "Sillas", doc.Items[0].Description)
	assert.NoError(t, doc.RemoveItem(0))
	assert.Empty(t, doc.Items)
	assert.ErrorIs(t, doc.RemoveItem(0), ErrOutOfRange)
}

func TestValidateBeforeSubmit(t *testing.T) {
	doc := Document{Kind: KindInvoice, TaxRate: dec("116")}
	doc.AddItem(LineItem{Quantity: dec("0"), Rate: dec("-1")})
	v := doc.Validate()
	assert.Equal(t, "customer_required", v["customerId"])
	assert.Equal(t, "required", v["items[0].description"])
	assert.Equal(t, "must_be_positive", v["items[0].quantity"])
	assert.Equal(t, "must_not_be_negative", v["items[0].rate"])
	assert.Equal(t, "out_of_range", v["taxRate"])

	ok := Document{Kind: KindQuote, CustomerID: "c1", TaxRate: dec("16")}
	ok.AddItem(LineItem{Description: "Banquete", Quantity: dec("1"), Rate: dec("100")})
	assert.True(t, ok.Validate().Empty())
}
