package handlers

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/diewo77/eventdesk/i18n"
	"github.com/diewo77/eventdesk/internal/models"
	"github.com/diewo77/eventdesk/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedCustomers(b *backend, n int) {
	for i := 1; i <= n; i++ {
		b.seed("customers", map[string]any{
			"id": fmt.Sprint(i), "firstName": fmt.Sprintf("Cliente %02d", i), "lastName": "Ruiz",
			"email": fmt.Sprintf("c%d@test.mx", i),
		})
	}
}

func TestModuleListJSONPaginates(t *testing.T) {
	h := newHarness(t)
	seedCustomers(h.backend, 12)

	w := h.do(http.MethodGet, "/customers?page=2", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	page := decode[listResponse](t, w)
	assert.Equal(t, 12, page.Total)
	assert.Equal(t, 2, page.PageCount)
	assert.Equal(t, 1, page.PageIndex)
	assert.True(t, page.Paginated)
	assert.Len(t, page.Items, 2)

	w = h.do(http.MethodGet, "/customers?page=2&size=25", nil)
	page = decode[listResponse](t, w)
	assert.Equal(t, 1, page.PageCount)
	assert.Equal(t, 0, page.PageIndex)
	assert.Len(t, page.Items, 12)
}

func TestModuleListSearchAndSort(t *testing.T) {
	h := newHarness(t)
	seedCustomers(h.backend, 3)

	page := decode[listResponse](t, h.do(http.MethodGet, "/customers?q=cliente+02", nil))
	require.Len(t, page.Items, 1)
	assert.Equal(t, "2", page.Items[0].ID())
	assert.False(t, page.Paginated)

	page = decode[listResponse](t, h.do(http.MethodGet, "/customers?sort=name&dir=desc", nil))
	require.Len(t, page.Items, 3)
	assert.Equal(t, "3", page.Items[0].ID())
}

func TestModuleListEmptyMessage(t *testing.T) {
	h := newHarness(t)

	page := decode[listResponse](t, h.do(http.MethodGet, "/tasks", nil))
	assert.Equal(t, 0, page.Total)
	assert.Equal(t, i18n.T("es", "tasks.empty"), page.Empty)

	req := httptest.NewRequest(http.MethodGet, "/tasks?lang=en", nil)
	w := httptest.NewRecorder()
	h.mux.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), i18n.T("en", "tasks.empty"))
}

func TestModuleUnknown(t *testing.T) {
	h := newHarness(t)
	w := h.do(http.MethodGet, "/spaceships", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestModuleCreateValidation(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodPost, "/customers", map[string]any{"firstName": "", "email": "no-es-correo"})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	resp := decode[struct {
		Error   string            `json:"error"`
		Details map[string]string `json:"details"`
	}](t, w)
	assert.Equal(t, "validation_failed", resp.Error)
	assert.Equal(t, "required", resp.Details["firstName"])
	assert.Equal(t, "invalid_email", resp.Details["email"])

	w = h.form("/customers", map[string]string{"firstName": "Ana", "email": "mal"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), i18n.T("es", "invalid_email"))
	assert.Empty(t, h.auditLog())
}

func TestModuleCreateAudits(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodPost, "/customers", map[string]any{"firstName": "Ana", "email": "ana@test.mx", "id": "forged"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	rec := decode[map[string]any](t, w)
	assert.Equal(t, "n1", rec["id"])

	entries := h.auditLog()
	require.Len(t, entries, 1)
	assert.Equal(t, models.ActionCreate, entries[0].Action)
	assert.Equal(t, models.OutcomeOK, entries[0].Outcome)
	assert.Equal(t, "n1", entries[0].EntityID)

	w = h.form("/customers", map[string]string{"firstName": "Luis", "email": "luis@test.mx"})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/customers", w.Header().Get("Location"))
}

func TestModuleDocumentsRejectPlainCreate(t *testing.T) {
	h := newHarness(t)
	w := h.do(http.MethodPost, "/invoices", map[string]any{"customerId": "c1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestModuleUpdate(t *testing.T) {
	h := newHarness(t)
	seedCustomers(h.backend, 1)

	w := h.do(http.MethodPost, "/customers/1", map[string]any{"phone": "555-0101"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "555-0101", h.backend.get("customers", "1")["phone"])

	h.backend.failOn(http.MethodPut, "/api/customers/1", http.StatusConflict)
	w = h.do(http.MethodPost, "/customers/1", map[string]any{"phone": "x"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "rechazado por el servidor")

	entries := h.auditLog()
	require.Len(t, entries, 2)
	assert.Equal(t, models.OutcomeError, entries[0].Outcome)
	assert.Equal(t, "rechazado por el servidor", entries[0].Detail)
}

func TestModuleDelete(t *testing.T) {
	h := newHarness(t)
	seedCustomers(h.backend, 3)

	// the delete does not wait on a list fetch
	h.backend.failOn(http.MethodGet, "/api/customers", http.StatusInternalServerError)
	w := h.do(http.MethodPost, "/customers/2/delete", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	out := decode[map[string]any](t, w)
	assert.Equal(t, "2", out["deleted"])
	assert.Nil(t, h.backend.get("customers", "2"))

	h.backend.failOn(http.MethodDelete, "/api/customers/3", http.StatusInternalServerError)
	w = h.do(http.MethodPost, "/customers/3/delete", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.NotNil(t, h.backend.get("customers", "3"))
}

func TestModuleUploadToMemoryStore(t *testing.T) {
	h := newHarness(t)
	h.backend.seed("events", map[string]any{"id": "ev1", "name": "Boda"})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "contrato firmado.pdf")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("%PDF-1.4"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/events/ev1/files", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	w := httptest.NewRecorder()
	h.mux.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	up := decode[storage.Upload](t, w)
	assert.True(t, strings.HasPrefix(up.Key, "acme/events/ev1/"), up.Key)
	assert.True(t, strings.HasSuffix(up.Key, "-contrato-firmado.pdf"), up.Key)
	assert.Equal(t, "/files/"+up.Key, up.URL)
	require.Len(t, h.backend.attachments, 1)
	assert.Equal(t, up.URL, h.backend.attachments[0]["url"])

	// the fallback URL is served by this process
	w = httptest.NewRecorder()
	h.mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, up.URL, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "%PDF-1.4", w.Body.String())

	files := decode[struct {
		Items []storage.Upload `json:"items"`
	}](t, h.do(http.MethodGet, "/attachments/events/ev1", nil))
	assert.Len(t, files.Items, 1)

	entries := h.auditLog()
	require.Len(t, entries, 1)
	assert.Equal(t, models.ActionUpload, entries[0].Action)
	assert.Equal(t, up.URL, entries[0].Detail)
}

func TestServeFileStaysInTenant(t *testing.T) {
	h := newHarness(t)
	w := httptest.NewRecorder()
	h.mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/files/other/events/ev1/x.pdf", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
