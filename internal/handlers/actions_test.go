package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/diewo77/eventdesk/i18n"
	"github.com/diewo77/eventdesk/internal/draft"
	"github.com/diewo77/eventdesk/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStampInvoice(t *testing.T) {
	h := newHarness(t)
	seedInvoice(h.backend)

	w := h.do(http.MethodPost, "/invoices/inv1/stamp", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, decode[map[string]any](t, w)["stamped"])

	h.backend.failOn(http.MethodPost, "/api/invoices/inv1/stamp", http.StatusUnprocessableEntity)
	w = h.do(http.MethodPost, "/invoices/inv1/stamp", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	entries := h.auditLog()
	require.Len(t, entries, 2)
	assert.Equal(t, models.ActionStamp, entries[0].Action)
	assert.Equal(t, models.OutcomeError, entries[0].Outcome)
	assert.Equal(t, models.OutcomeOK, entries[1].Outcome)
}

func TestConvertQuoteOpensInvoice(t *testing.T) {
	h := newHarness(t)
	h.backend.seed("quotes", map[string]any{"id": "q1", "customerId": "c1", "taxRate": 16,
		"items": []any{map[string]any{"description": "Salón", "quantity": 1, "rate": 500}}})

	w := h.do(http.MethodPost, "/quotes/q1/convert", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	v := decode[draft.View](t, w)
	assert.Equal(t, draft.Viewing, v.State)
	assert.Equal(t, draft.KindInvoice, v.Document.Kind)
	assert.Equal(t, "inv-q1", v.Document.ID)
	assertDec(t, "580", v.Totals.Total)

	entries := h.auditLog()
	require.Len(t, entries, 1)
	assert.Equal(t, models.ActionConvert, entries[0].Action)
	assert.Equal(t, "invoices/inv-q1", entries[0].Detail)

	w = h.form("/quotes/q1/convert", nil)
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "/drafts/")
}

func TestPaymentNumber(t *testing.T) {
	h := newHarness(t)
	w := h.do(http.MethodGet, "/payments/number", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "PAY-0001", decode[map[string]string](t, w)["number"])

	h.backend.failOn(http.MethodGet, "/api/payments/generate-number", http.StatusInternalServerError)
	assert.Equal(t, http.StatusBadGateway, h.do(http.MethodGet, "/payments/number", nil).Code)
}

func TestGenerateDocument(t *testing.T) {
	h := newHarness(t)
	seedInvoice(h.backend)

	w := h.do(http.MethodPost, "/invoices/inv1/document", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://docs.test/invoices/inv1.pdf", decode[map[string]string](t, w)["url"])

	w = h.form("/invoices/inv1/document", nil)
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "https://docs.test/invoices/inv1.pdf", w.Header().Get("Location"))
}

func TestAuditPage(t *testing.T) {
	h := newHarness(t)
	seedInvoice(h.backend)
	h.do(http.MethodPost, "/invoices/inv1/stamp", nil)
	h.do(http.MethodPost, "/customers", map[string]any{"firstName": "Ana", "email": "ana@test.mx"})

	page := decode[listResponse](t, h.do(http.MethodGet, "/audit", nil))
	assert.Equal(t, 2, page.Total)

	page = decode[listResponse](t, h.do(http.MethodGet, "/audit?f.action=stamp", nil))
	require.Equal(t, 1, page.Total)
	assert.Equal(t, "invoices", page.Items[0]["entityType"])

	page = decode[listResponse](t, h.do(http.MethodGet, "/audit?entity=customers&record=n1", nil))
	assert.Equal(t, 1, page.Total)

	w := httptest.NewRecorder()
	h.mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/audit", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), i18n.T("es", "audit.title"))
}

func TestIndexListsModules(t *testing.T) {
	h := newHarness(t)
	out := decode[struct {
		Modules []map[string]string `json:"modules"`
	}](t, h.do(http.MethodGet, "/", nil))
	require.Len(t, out.Modules, 11)
	assert.Equal(t, "customers", out.Modules[0]["name"])
	assert.Equal(t, i18n.T("es", "customers.title"), out.Modules[0]["title"])
}
