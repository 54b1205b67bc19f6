package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/diewo77/eventdesk/httpx"
	"github.com/diewo77/eventdesk/internal/api"
	"github.com/diewo77/eventdesk/internal/draft"
	"github.com/diewo77/eventdesk/internal/grid"
	"github.com/diewo77/eventdesk/internal/middleware"
	"github.com/diewo77/eventdesk/internal/models"
	"github.com/diewo77/eventdesk/validation"
	"github.com/shopspring/decimal"
)

// DraftHandler drives the edit form of invoices, quotes and payment plans.
type DraftHandler struct {
	*Deps
}

func NewDraftHandler(d *Deps) *DraftHandler {
	return &DraftHandler{Deps: d}
}

// listPath is where a browser lands once a draft is gone.
func listPath(kind draft.Kind) string {
	if kind == draft.KindPaymentPlan {
		return "/events"
	}
	return "/" + kind.Resource()
}

func draftPath(d *draft.Draft) string { return "/drafts/" + d.ID().String() }

// draftStatus maps draft errors to HTTP statuses and flash codes.
func draftStatus(err error) (int, string) {
	var ve *draft.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusUnprocessableEntity, "invalid"
	case errors.Is(err, draft.ErrNotFound):
		return http.StatusNotFound, "flash.draft_missing"
	case errors.Is(err, draft.ErrOutOfRange):
		return http.StatusNotFound, "out_of_range"
	case errors.Is(err, draft.ErrNotEditing):
		return http.StatusConflict, "flash.not_editing"
	case errors.Is(err, draft.ErrSaveInFlight):
		return http.StatusConflict, "flash.save_in_flight"
	case errors.Is(err, draft.ErrDiscarded):
		return http.StatusGone, "flash.draft_missing"
	}
	return backendStatus(err), "flash.save_failed"
}

func (h *DraftHandler) draftError(w http.ResponseWriter, r *http.Request, err error, back string) {
	status, code := draftStatus(err)
	var ve *draft.ValidationError
	if httpx.WantsJSON(r) && errors.As(err, &ve) {
		httpx.JSONError(w, status, "validation_failed", ve.Violations)
		return
	}
	h.fail(w, r, status, code, err, back)
}

func (h *DraftHandler) lookup(w http.ResponseWriter, r *http.Request) (*draft.Draft, bool) {
	d, err := h.Drafts.Get(r.PathValue("draft"))
	if err != nil {
		h.draftError(w, r, err, "/")
		return nil, false
	}
	return d, true
}

// respond answers with the draft's view: JSON clients get it inline,
// browsers are sent back to the form.
func (h *DraftHandler) respond(w http.ResponseWriter, r *http.Request, d *draft.Draft, status int, flash string) {
	if httpx.WantsJSON(r) {
		httpx.JSON(w, status, d.View())
		return
	}
	if flash != "" {
		middleware.Flash(w, r, flash)
	}
	http.Redirect(w, r, draftPath(d), http.StatusSeeOther)
}

// Open: POST /{invoices|quotes|payment-plans}/{id}/edit – loads the record
// and enters Editing.
func (h *DraftHandler) Open(kind draft.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := h.API.GetDocument(r.Context(), kind, r.PathValue("id"))
		if err != nil {
			h.fail(w, r, backendStatus(err), "flash.error", err, listPath(kind))
			return
		}
		d := h.Drafts.Open(doc)
		if err := d.Edit(); err != nil {
			h.draftError(w, r, err, listPath(kind))
			return
		}
		h.respond(w, r, d, http.StatusCreated, "")
	}
}

// New: POST /{invoices|quotes|payment-plans}/new
func (h *DraftHandler) New(kind draft.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.respond(w, r, h.Drafts.OpenBlank(kind), http.StatusCreated, "")
	}
}

// Show: GET /drafts/{draft}
func (h *DraftHandler) Show(w http.ResponseWriter, r *http.Request) {
	d, ok := h.lookup(w, r)
	if !ok {
		return
	}
	v := d.View()
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, v)
		return
	}
	h.render(w, r, "draft.html", map[string]any{
		"Title": string(v.Document.Kind) + "s.title",
		"Draft": v,
	})
}

// Edit: POST /drafts/{draft}/edit
func (h *DraftHandler) Edit(w http.ResponseWriter, r *http.Request) {
	d, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if err := d.Edit(); err != nil {
		h.draftError(w, r, err, draftPath(d))
		return
	}
	h.respond(w, r, d, http.StatusOK, "")
}

// readParams returns the submitted fields of a form or a flat JSON object.
func readParams(r *http.Request) (url.Values, error) {
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		var in map[string]any
		if err := httpx.DecodeJSON(r, &in); err != nil {
			return nil, err
		}
		out := url.Values{}
		for k, v := range in {
			out.Set(k, grid.Text(v))
		}
		return out, nil
	}
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	return r.PostForm, nil
}

func index(r *http.Request) (int, error) {
	n, err := strconv.Atoi(r.PathValue("n"))
	if err != nil || n < 0 {
		return 0, draft.ErrOutOfRange
	}
	return n, nil
}

// mutate applies one form change to the working document. Input errors
// are reported before the draft is touched.
func (h *DraftHandler) mutate(w http.ResponseWriter, r *http.Request, fn func(p url.Values, v validation.Violations) (func(*draft.Document) error, error)) {
	d, ok := h.lookup(w, r)
	if !ok {
		return
	}
	p, err := readParams(r)
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, "invalid_body", err, draftPath(d))
		return
	}
	v := validation.Violations{}
	change, err := fn(p, v)
	if err == nil && !v.Empty() {
		err = &draft.ValidationError{Violations: v}
	}
	if err == nil {
		err = d.Apply(change)
	}
	if err != nil {
		h.draftError(w, r, err, draftPath(d))
		return
	}
	h.respond(w, r, d, http.StatusOK, "")
}

func has(p url.Values, key string) bool {
	_, ok := p[key]
	return ok
}

// Header: POST /drafts/{draft}/header – customer, event, tax rate and notes.
func (h *DraftHandler) Header(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(p url.Values, v validation.Violations) (func(*draft.Document) error, error) {
		var rate *decimal.Decimal
		if has(p, "taxRate") {
			t := validation.Decimal("taxRate", p.Get("taxRate"), v)
			rate = &t
		}
		return func(doc *draft.Document) error {
			if has(p, "customerId") {
				doc.CustomerID = strings.TrimSpace(p.Get("customerId"))
			}
			if has(p, "eventId") {
				doc.EventID = strings.TrimSpace(p.Get("eventId"))
			}
			if has(p, "notes") {
				doc.Notes = p.Get("notes")
			}
			if rate != nil {
				doc.SetTaxRate(*rate)
			}
			return nil
		}, nil
	})
}

// Tax: POST /drafts/{draft}/tax
func (h *DraftHandler) Tax(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(p url.Values, v validation.Violations) (func(*draft.Document) error, error) {
		rate := validation.Decimal("taxRate", p.Get("taxRate"), v)
		return func(doc *draft.Document) error {
			doc.SetTaxRate(rate)
			return nil
		}, nil
	})
}

func quantity(p url.Values, v validation.Violations) decimal.Decimal {
	if strings.TrimSpace(p.Get("quantity")) == "" {
		return decimal.NewFromInt(1)
	}
	return validation.Decimal("quantity", p.Get("quantity"), v)
}

// AddLine: POST /drafts/{draft}/lines
func (h *DraftHandler) AddLine(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(p url.Values, v validation.Violations) (func(*draft.Document) error, error) {
		validation.Required("description", p.Get("description"), v)
		item := draft.LineItem{
			ProductID:   p.Get("productId"),
			Description: strings.TrimSpace(p.Get("description")),
			Quantity:    quantity(p, v),
			Rate:        validation.Decimal("rate", p.Get("rate"), v),
		}
		return func(doc *draft.Document) error {
			doc.AddItem(item)
			return nil
		}, nil
	})
}

// UpdateLine: POST /drafts/{draft}/lines/{n}
func (h *DraftHandler) UpdateLine(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(p url.Values, v validation.Violations) (func(*draft.Document) error, error) {
		n, err := index(r)
		if err != nil {
			return nil, err
		}
		desc := strings.TrimSpace(p.Get("description"))
		qty := quantity(p, v)
		rate := validation.Decimal("rate", p.Get("rate"), v)
		return func(doc *draft.Document) error {
			return doc.UpdateItem(n, desc, qty, rate)
		}, nil
	})
}

// DeleteLine: POST /drafts/{draft}/lines/{n}/delete
func (h *DraftHandler) DeleteLine(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(url.Values, validation.Violations) (func(*draft.Document) error, error) {
		n, err := index(r)
		if err != nil {
			return nil, err
		}
		return func(doc *draft.Document) error { return doc.RemoveItem(n) }, nil
	})
}

func discount(p url.Values, v validation.Violations) draft.Discount {
	t := draft.DiscountType(p.Get("type"))
	switch t {
	case draft.DiscountNone, draft.DiscountPercent, draft.DiscountAmount:
	default:
		v["type"] = "invalid_choice"
	}
	return draft.Discount{Type: t, Value: validation.Decimal("value", p.Get("value"), v)}
}

// Discount: POST /drafts/{draft}/discount
func (h *DraftHandler) Discount(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(p url.Values, v validation.Violations) (func(*draft.Document) error, error) {
		disc := discount(p, v)
		return func(doc *draft.Document) error {
			doc.SetDiscount(disc)
			return nil
		}, nil
	})
}

// Coupon: POST /drafts/{draft}/coupon – an empty code removes the coupon.
func (h *DraftHandler) Coupon(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(p url.Values, v validation.Violations) (func(*draft.Document) error, error) {
		code := strings.TrimSpace(p.Get("code"))
		var c *draft.Coupon
		if code != "" {
			if p.Get("type") == "" {
				p.Set("type", string(draft.DiscountPercent))
			}
			c = &draft.Coupon{Code: code, Discount: discount(p, v)}
		}
		return func(doc *draft.Document) error {
			doc.ApplyCoupon(c)
			return nil
		}, nil
	})
}

func (h *DraftHandler) day(raw string, field string, v validation.Violations) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	t, err := time.ParseInLocation(grid.DateLayout, raw, h.loc())
	if err != nil {
		v[field] = "invalid"
		return nil
	}
	return &t
}

// AddPayment: POST /drafts/{draft}/payments – the payment number is taken
// from the backend sequence unless one is given.
func (h *DraftHandler) AddPayment(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(p url.Values, v validation.Violations) (func(*draft.Document) error, error) {
		pay := draft.Payment{
			Number: strings.TrimSpace(p.Get("number")),
			Amount: validation.Decimal("amount", p.Get("amount"), v),
			Method: p.Get("method"),
			PaidAt: h.day(p.Get("paidAt"), "paidAt", v),
		}
		validation.PositiveDecimal("amount", pay.Amount, v)
		if !v.Empty() {
			return nil, nil
		}
		if pay.PaidAt == nil {
			now := time.Now().In(h.loc())
			pay.PaidAt = &now
		}
		if pay.Number == "" {
			n, err := h.API.NextPaymentNumber(r.Context())
			if err != nil {
				return nil, err
			}
			pay.Number = n
		}
		return func(doc *draft.Document) error {
			doc.AddPayment(pay)
			return nil
		}, nil
	})
}

// AddPlanRow: POST /drafts/{draft}/plan – an installment given by
// percentage or by amount.
func (h *DraftHandler) AddPlanRow(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(p url.Values, v validation.Violations) (func(*draft.Document) error, error) {
		due := h.day(p.Get("dueDate"), "dueDate", v)
		concept := strings.TrimSpace(p.Get("concept"))
		byAmount := strings.TrimSpace(p.Get("amount")) != "" && strings.TrimSpace(p.Get("percentage")) == ""
		pct := validation.Decimal("percentage", p.Get("percentage"), v)
		amt := validation.Decimal("amount", p.Get("amount"), v)
		return func(doc *draft.Document) error {
			doc.AddPlanRow(pct, due, concept)
			if byAmount {
				return doc.SetPlanAmount(len(doc.Plan)-1, amt)
			}
			return nil
		}, nil
	})
}

// UpdatePlanRow: POST /drafts/{draft}/plan/{n} – exactly one of percentage
// or amount; the other side is derived.
func (h *DraftHandler) UpdatePlanRow(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(p url.Values, v validation.Violations) (func(*draft.Document) error, error) {
		n, err := index(r)
		if err != nil {
			return nil, err
		}
		rawPct, rawAmt := strings.TrimSpace(p.Get("percentage")), strings.TrimSpace(p.Get("amount"))
		if (rawPct == "") == (rawAmt == "") {
			v["plan"] = "invalid"
			return nil, nil
		}
		if rawPct != "" {
			pct := validation.Decimal("percentage", rawPct, v)
			return func(doc *draft.Document) error { return doc.SetPlanPercentage(n, pct) }, nil
		}
		amt := validation.Decimal("amount", rawAmt, v)
		return func(doc *draft.Document) error { return doc.SetPlanAmount(n, amt) }, nil
	})
}

// DeletePlanRow: POST /drafts/{draft}/plan/{n}/delete
func (h *DraftHandler) DeletePlanRow(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(url.Values, validation.Violations) (func(*draft.Document) error, error) {
		n, err := index(r)
		if err != nil {
			return nil, err
		}
		return func(doc *draft.Document) error { return doc.RemovePlanRow(n) }, nil
	})
}

// Save: POST /drafts/{draft}/save
func (h *DraftHandler) Save(w http.ResponseWriter, r *http.Request) {
	d, ok := h.lookup(w, r)
	if !ok {
		return
	}
	before, snapshot := d.Document(), d.Snapshot()
	action := models.ActionUpdate
	if before.ID == "" {
		action = models.ActionCreate
	}
	saved, err := d.Save(r.Context(), api.DocumentSaver{Client: h.API})

	var ve *draft.ValidationError
	outcome := models.OutcomeOK
	switch {
	case errors.As(err, &ve):
		outcome = "invalid"
	case err != nil:
		outcome = models.OutcomeError
	}
	h.Metrics.DraftSaved(string(before.Kind), outcome)
	if !errors.As(err, &ve) && !errors.Is(err, draft.ErrSaveInFlight) && !errors.Is(err, draft.ErrNotEditing) {
		entry := models.AuditLog{
			EntityType: before.Kind.Resource(),
			EntityID:   before.ID,
			Action:     action,
			NewValue:   before.Totals().Total.StringFixed(2),
		}
		if action == models.ActionUpdate {
			entry.OldValue = snapshot.Totals().Total.StringFixed(2)
		}
		if err == nil {
			entry.EntityID = saved.ID
			entry.NewValue = saved.Totals().Total.StringFixed(2)
		}
		h.audit(r.Context(), entry, err)
	}
	if err != nil {
		h.log().Warn("draft save failed", "draft", d.ID(), "kind", before.Kind, "err", err)
		h.draftError(w, r, err, draftPath(d))
		return
	}
	h.respond(w, r, d, http.StatusOK, "flash.saved")
}

// Cancel: POST /drafts/{draft}/cancel – restores the snapshot. A draft for
// a record that was never saved is dropped instead.
func (h *DraftHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	d, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if err := d.Cancel(); err != nil {
		h.draftError(w, r, err, draftPath(d))
		return
	}
	doc := d.Document()
	if doc.ID == "" {
		_ = h.Drafts.Discard(d.ID().String())
		done(w, r, http.StatusOK, map[string]any{"discarded": d.ID().String()}, "flash.cancelled", listPath(doc.Kind))
		return
	}
	h.respond(w, r, d, http.StatusOK, "flash.cancelled")
}

// Discard: POST /drafts/{draft}/discard
func (h *DraftHandler) Discard(w http.ResponseWriter, r *http.Request) {
	d, ok := h.lookup(w, r)
	if !ok {
		return
	}
	kind := d.Document().Kind
	if err := h.Drafts.Discard(d.ID().String()); err != nil {
		h.draftError(w, r, err, "/")
		return
	}
	done(w, r, http.StatusOK, map[string]any{"discarded": d.ID().String()}, "flash.discarded", listPath(kind))
}
