package handlers

import (
	"net/http"

	"github.com/diewo77/eventdesk/httpx"
	"github.com/diewo77/eventdesk/i18n"
	"github.com/diewo77/eventdesk/internal/grid"
	"github.com/diewo77/eventdesk/internal/middleware"
	"github.com/diewo77/eventdesk/internal/models"
	"github.com/diewo77/eventdesk/internal/pages"
	"github.com/diewo77/eventdesk/internal/services"
)

// ActionHandler serves the one-shot backend operations and the audit page.
type ActionHandler struct {
	*Deps
}

func NewActionHandler(d *Deps) *ActionHandler {
	return &ActionHandler{Deps: d}
}

// Stamp: POST /invoices/{id}/stamp
func (h *ActionHandler) Stamp(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rec, err := h.API.Stamp(r.Context(), id)
	h.audit(r.Context(), models.AuditLog{EntityType: "invoices", EntityID: id, Action: models.ActionStamp}, err)
	if err != nil {
		h.fail(w, r, backendStatus(err), "flash.error", err, "/invoices")
		return
	}
	done(w, r, http.StatusOK, rec, "flash.stamped", "/invoices")
}

// Convert: POST /quotes/{id}/convert – the new invoice opens as a draft at
// rest.
func (h *ActionHandler) Convert(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	doc, err := h.API.ConvertQuote(r.Context(), id)
	entry := models.AuditLog{EntityType: "quotes", EntityID: id, Action: models.ActionConvert}
	if err == nil {
		entry.Detail = "invoices/" + doc.ID
	}
	h.audit(r.Context(), entry, err)
	if err != nil {
		h.fail(w, r, backendStatus(err), "flash.error", err, "/quotes")
		return
	}
	d := h.Drafts.Open(doc)
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusCreated, d.View())
		return
	}
	middleware.Flash(w, r, "flash.converted")
	http.Redirect(w, r, draftPath(d), http.StatusSeeOther)
}

// PaymentNumber: GET /payments/number
func (h *ActionHandler) PaymentNumber(w http.ResponseWriter, r *http.Request) {
	n, err := h.API.NextPaymentNumber(r.Context())
	if err != nil {
		h.log().Warn("payment number failed", "err", err)
		httpx.JSONError(w, backendStatus(err), "backend_unavailable", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"number": n})
}

// Document: POST /{module}/{id}/document – asks the backend for a printable
// copy and sends the browser to it.
func (h *ActionHandler) Document(w http.ResponseWriter, r *http.Request) {
	m, ok := pages.Lookup(r.PathValue("module"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	u, err := h.API.GenerateDocument(r.Context(), m.Resource, r.PathValue("id"))
	if err != nil {
		h.fail(w, r, backendStatus(err), "flash.error", err, "/"+m.Name)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]string{"url": u})
		return
	}
	http.Redirect(w, r, u, http.StatusSeeOther)
}

// AuditTrail: GET /audit – the local trail as a grid. entity and record narrow
// it to one record's history.
func (h *ActionHandler) AuditTrail(w http.ResponseWriter, r *http.Request) {
	var (
		entries []models.AuditLog
		err     error
	)
	q := r.URL.Query()
	if h.Audit != nil {
		if entity, id := q.Get("entity"), q.Get("record"); entity != "" && id != "" {
			entries, err = h.Audit.ForEntity(r.Context(), entity, id)
		} else {
			entries, err = h.Audit.Recent(r.Context(), h.TenantID, services.DefaultAuditLimit)
		}
	}
	if err != nil {
		h.log().Error("audit read failed", "err", err)
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusInternalServerError, "audit_unavailable", nil)
			return
		}
	}
	lang := middleware.LangFrom(r)
	g := grid.New(services.AuditColumns,
		grid.WithState(grid.StateFromQuery(q)),
		grid.WithLocation(h.loc()),
		grid.WithEmptyMessage(i18n.T(lang, "audit.empty")),
	)
	g.SetRows(services.AuditRows(entries))
	page := g.View()
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, pageResponse(page))
		return
	}
	h.render(w, r, "audit.html", map[string]any{"Title": "audit.title", "Page": page})
}
