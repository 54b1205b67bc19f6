package draft

import (
	"fmt"
	"time"

	"github.com/diewo77/eventdesk/validation"
	"github.com/shopspring/decimal"
)

func init() {
	// The backend expects numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Kind identifies which backend resource a document belongs to.
type Kind string

const (
	KindInvoice     Kind = "invoice"
	KindQuote       Kind = "quote"
	KindPaymentPlan Kind = "payment_plan"
)

// Resource returns the REST collection of the kind.
func (k Kind) Resource() string {
	switch k {
	case KindQuote:
		return "quotes"
	case KindPaymentPlan:
		return "payment-plans"
	default:
		return "invoices"
	}
}

// ParseKind maps a resource or kind name to a Kind.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "invoice", "invoices":
		return KindInvoice, true
	case "quote", "quotes":
		return KindQuote, true
	case "payment_plan", "payment-plans":
		return KindPaymentPlan, true
	}
	return "", false
}

type DiscountType string

const (
	DiscountNone    DiscountType = ""
	DiscountPercent DiscountType = "percent"
	DiscountAmount  DiscountType = "amount"
)

type Discount struct {
	Type  DiscountType    `json:"type,omitempty" validate:"omitempty,oneof=percent amount"`
	Value decimal.Decimal `json:"value"`
}

type Coupon struct {
	Code     string   `json:"code" validate:"required"`
	Discount Discount `json:"discount"`
}

type LineItem struct {
	ProductID   string          `json:"productId,omitempty"`
	Description string          `json:"description" validate:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
	Rate        decimal.Decimal `json:"rate"`
	Amount      decimal.Decimal `json:"amount"`
}

type Payment struct {
	ID     string          `json:"id,omitempty"`
	Number string          `json:"number,omitempty"`
	Amount decimal.Decimal `json:"amount"`
	Method string          `json:"method,omitempty"`
	PaidAt *time.Time      `json:"paidAt,omitempty"`
}

type PlanRow struct {
	Percentage decimal.Decimal `json:"percentage"`
	Amount     decimal.Decimal `json:"amount"`
	DueDate    *time.Time      `json:"dueDate,omitempty"`
	Concept    string          `json:"concept,omitempty"`
}

// Document is the editable record behind invoices, quotes and payment plans.
type Document struct {
	ID         string     `json:"id,omitempty"`
	Kind       Kind       `json:"kind" validate:"required,oneof=invoice quote payment_plan"`
	Number     string     `json:"number,omitempty"`
	Status     string     `json:"status,omitempty"`
	CustomerID string     `json:"customerId"`
	EventID    string     `json:"eventId,omitempty"`
	IssueDate  *time.Time `json:"issueDate,omitempty"`
	DueDate    *time.Time `json:"dueDate,omitempty"`
	Items      []LineItem `json:"items" validate:"dive"`
	Discount   Discount   `json:"discount"`
	Coupon     *Coupon    `json:"coupon,omitempty"`
	// TaxRate is a percentage: 16 means 16%.
	TaxRate  decimal.Decimal `json:"taxRate"`
	Payments []Payment       `json:"payments,omitempty"`
	Plan     []PlanRow       `json:"plan,omitempty"`
	// EventTotal is the amount a payment plan splits. When zero the plan
	// is computed against the document total.
	EventTotal decimal.Decimal `json:"eventTotal"`
	Notes      string          `json:"notes,omitempty"`
}

// Totals returns the derived amounts of the document.
func (d Document) Totals() Totals { return ComputeTotals(d) }

// PlanBase is the total the payment plan is split against.
func (d Document) PlanBase() decimal.Decimal {
	if d.Kind == KindPaymentPlan && !d.EventTotal.IsZero() {
		return d.EventTotal
	}
	return d.Totals().Total
}

// Clone returns a deep copy.
func (d Document) Clone() Document {
	out := d
	out.Items = append([]LineItem(nil), d.Items...)
	out.Payments = append([]Payment(nil), d.Payments...)
	out.Plan = append([]PlanRow(nil), d.Plan...)
	if d.Coupon != nil {
		c := *d.Coupon
		out.Coupon = &c
	}
	return out
}

// Validate runs the pre-submit checks. It never touches the network.
func (d Document) Validate() validation.Violations {
	v := validation.Violations{}
	if d.Kind != KindPaymentPlan && d.CustomerID == "" {
		v["customerId"] = "customer_required"
	}
	if d.Kind == KindPaymentPlan && d.EventID == "" {
		v["eventId"] = "event_required"
	}
	validation.Struct(d, v)
	for i, it := range d.Items {
		validation.PositiveDecimal(fmt.Sprintf("items[%d].quantity", i), it.Quantity, v)
		validation.NonNegativeDecimal(fmt.Sprintf("items[%d].rate", i), it.Rate, v)
	}
	validation.RangeDecimal("taxRate", d.TaxRate, decimal.Zero, hundred, v)
	validation.NonNegativeDecimal("discount.value", d.Discount.Value, v)
	if d.Discount.Type == DiscountPercent {
		validation.RangeDecimal("discount.value", d.Discount.Value, decimal.Zero, hundred, v)
	}
	for i, p := range d.Payments {
		validation.PositiveDecimal(fmt.Sprintf("payments[%d].amount", i), p.Amount, v)
	}
	if len(d.Plan) > 0 {
		var sum decimal.Decimal
		for i, r := range d.Plan {
			validation.NonNegativeDecimal(fmt.Sprintf("plan[%d].amount", i), r.Amount, v)
			sum = sum.Add(r.Percentage)
		}
		if sum.GreaterThan(hundred) {
			v["plan"] = "plan_exceeds_total"
		}
	}
	return v
}

// AddItem appends a line and computes its amount.
func (d *Document) AddItem(it LineItem) {
	it.Amount = LineAmount(it.Quantity, it.Rate)
	d.Items = append(d.Items, it)
}

// UpdateItem changes quantity and rate of line i and recomputes its amount.
func (d *Document) UpdateItem(i int, description string, quantity, rate decimal.Decimal) error {
	if i < 0 || i >= len(d.Items) {
		return fmt.Errorf("%w: item %d", ErrOutOfRange, i)
	}
	it := &d.Items[i]
	if description != "" {
		it.Description = description
	}
	it.Quantity = quantity
	it.Rate = rate
	it.Amount = LineAmount(quantity, rate)
	return nil
}

// RemoveItem drops line i.
func (d *Document) RemoveItem(i int) error {
	if i < 0 || i >= len(d.Items) {
		return fmt.Errorf("%w: item %d", ErrOutOfRange, i)
	}
	d.Items = append(d.Items[:i:i], d.Items[i+1:]...)
	return nil
}

func (d *Document) SetDiscount(disc Discount) { d.Discount = disc }

// ApplyCoupon sets the coupon; nil removes it.
func (d *Document) ApplyCoupon(c *Coupon) { d.Coupon = c }

func (d *Document) SetTaxRate(rate decimal.Decimal) { d.TaxRate = rate }

// AddPayment records a payment against the document.
func (d *Document) AddPayment(p Payment) { d.Payments = append(d.Payments, p) }

// AddPlanRow appends an installment for percentage p of the plan base.
func (d *Document) AddPlanRow(p decimal.Decimal, due *time.Time, concept string) {
	d.Plan = append(d.Plan, PlanRow{
		Percentage: round(p),
		Amount:     PlanAmount(d.PlanBase(), p),
		DueDate:    due,
		Concept:    concept,
	})
}

// SetPlanPercentage sets the percentage of installment i; the amount
// follows from the plan base.
func (d *Document) SetPlanPercentage(i int, p decimal.Decimal) error {
	if i < 0 || i >= len(d.Plan) {
		return fmt.Errorf("%w: plan row %d", ErrOutOfRange, i)
	}
	d.Plan[i].Percentage = round(p)
	d.Plan[i].Amount = PlanAmount(d.PlanBase(), p)
	return nil
}

// SetPlanAmount sets the amount of installment i; the percentage is
// back-computed from the plan base.
func (d *Document) SetPlanAmount(i int, amount decimal.Decimal) error {
	if i < 0 || i >= len(d.Plan) {
		return fmt.Errorf("%w: plan row %d", ErrOutOfRange, i)
	}
	d.Plan[i].Amount = round(amount)
	d.Plan[i].Percentage = PlanPercentage(d.PlanBase(), amount)
	return nil
}

// RemovePlanRow drops installment i.
func (d *Document) RemovePlanRow(i int) error {
	if i < 0 || i >= len(d.Plan) {
		return fmt.Errorf("%w: plan row %d", ErrOutOfRange, i)
	}
	d.Plan = append(d.Plan[:i:i], d.Plan[i+1:]...)
	return nil
}

// RebasePlan re-derives every installment amount from its percentage
// against the current plan base.
func (d *Document) RebasePlan() {
	base := d.PlanBase()
	for i := range d.Plan {
		d.Plan[i].Amount = PlanAmount(base, d.Plan[i].Percentage)
	}
}

// PlanSummary sums the installments and reports what is still unassigned.
func (d Document) PlanSummary() (percent, amount, unassigned decimal.Decimal) {
	for _, r := range d.Plan {
		percent = percent.Add(r.Percentage)
		amount = amount.Add(r.Amount)
	}
	unassigned = RemainingBalance(d.PlanBase(), amount)
	return percent, amount, unassigned
}

// recomputeLines refreshes every line amount from its quantity and rate.
func (d *Document) recomputeLines() {
	for i := range d.Items {
		d.Items[i].Amount = LineAmount(d.Items[i].Quantity, d.Items[i].Rate)
	}
}
