package draft

import "github.com/shopspring/decimal"

// Totals are the derived amounts of a document. They are recomputed from
// the line items on every read and never stored.
type Totals struct {
	Subtotal              decimal.Decimal `json:"subtotal"`
	DiscountAmount        decimal.Decimal `json:"discountAmount"`
	SubtotalAfterDiscount decimal.Decimal `json:"subtotalAfterDiscount"`
	TaxAmount             decimal.Decimal `json:"taxAmount"`
	Total                 decimal.Decimal `json:"total"`
	TotalPaid             decimal.Decimal `json:"totalPaid"`
	RemainingBalance      decimal.Decimal `json:"remainingBalance"`
}

var hundred = decimal.NewFromInt(100)

func round(d decimal.Decimal) decimal.Decimal { return d.Round(2) }

// LineAmount is quantity × rate rounded to cents.
func LineAmount(quantity, rate decimal.Decimal) decimal.Decimal {
	return round(quantity.Mul(rate))
}

// Amount returns the discount applied to base, never more than base.
func (d Discount) Amount(base decimal.Decimal) decimal.Decimal {
	var amt decimal.Decimal
	switch d.Type {
	case DiscountPercent:
		amt = round(base.Mul(d.Value).Div(hundred))
	case DiscountAmount:
		amt = round(d.Value)
	default:
		return decimal.Zero
	}
	if amt.IsNegative() {
		return decimal.Zero
	}
	return decimal.Min(amt, base)
}

// ComputeTotals derives subtotal, discount, tax, total and balance in that
// order. The coupon discount stacks on the manual discount and the sum is
// capped at the subtotal.
func ComputeTotals(doc Document) Totals {
	var t Totals
	for _, it := range doc.Items {
		t.Subtotal = t.Subtotal.Add(LineAmount(it.Quantity, it.Rate))
	}
	disc := doc.Discount.Amount(t.Subtotal)
	if doc.Coupon != nil {
		disc = disc.Add(doc.Coupon.Discount.Amount(t.Subtotal))
	}
	t.DiscountAmount = decimal.Min(disc, t.Subtotal)
	t.SubtotalAfterDiscount = t.Subtotal.Sub(t.DiscountAmount)
	t.TaxAmount = round(t.SubtotalAfterDiscount.Mul(doc.TaxRate).Div(hundred))
	t.Total = t.SubtotalAfterDiscount.Add(t.TaxAmount)
	for _, p := range doc.Payments {
		t.TotalPaid = t.TotalPaid.Add(p.Amount)
	}
	t.RemainingBalance = RemainingBalance(t.Total, t.TotalPaid)
	return t
}

// RemainingBalance is total minus paid, floored at zero.
func RemainingBalance(total, paid decimal.Decimal) decimal.Decimal {
	rem := total.Sub(paid)
	if rem.IsNegative() {
		return decimal.Zero
	}
	return rem
}

// PlanAmount is the share p (percent) of total, rounded to cents.
func PlanAmount(total, p decimal.Decimal) decimal.Decimal {
	return round(total.Mul(p).Div(hundred))
}

// PlanPercentage back-computes the percent of total that amount represents.
// A zero total yields zero.
func PlanPercentage(total, amount decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return round(amount.Div(total).Mul(hundred))
}
