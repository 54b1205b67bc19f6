package handlers

import (
	"net/http"

	"github.com/diewo77/eventdesk/internal/draft"
)

// Register mounts every page and action on mux.
func Register(mux *http.ServeMux, d *Deps) {
	mh := NewModuleHandler(d)
	dh := NewDraftHandler(d)
	ah := NewActionHandler(d)

	mux.HandleFunc("GET /{$}", mh.Index)
	mux.HandleFunc("GET /audit", ah.AuditTrail)
	mux.HandleFunc("GET /files/{key...}", mh.ServeFile)
	mux.HandleFunc("GET /attachments/{module}/{id}", mh.Files)
	mux.HandleFunc("GET /payments/number", ah.PaymentNumber)

	// Module grids and plain CRUD
	mux.HandleFunc("GET /{module}", mh.List)
	mux.HandleFunc("POST /{module}", mh.Create)
	mux.HandleFunc("POST /{module}/{id}", mh.Update)
	mux.HandleFunc("POST /{module}/{id}/delete", mh.Delete)
	mux.HandleFunc("POST /{module}/{id}/files", mh.Upload)
	mux.HandleFunc("POST /{module}/{id}/document", ah.Document)

	mux.HandleFunc("POST /invoices/{id}/stamp", ah.Stamp)
	mux.HandleFunc("POST /quotes/{id}/convert", ah.Convert)

	// Drafts
	for _, kind := range []draft.Kind{draft.KindInvoice, draft.KindQuote, draft.KindPaymentPlan} {
		res := kind.Resource()
		mux.HandleFunc("POST /"+res+"/new", dh.New(kind))
		mux.HandleFunc("POST /"+res+"/{id}/edit", dh.Open(kind))
	}
	mux.HandleFunc("GET /drafts/{draft}", dh.Show)
	mux.HandleFunc("POST /drafts/{draft}/edit", dh.Edit)
	mux.HandleFunc("POST /drafts/{draft}/header", dh.Header)
	mux.HandleFunc("POST /drafts/{draft}/tax", dh.Tax)
	mux.HandleFunc("POST /drafts/{draft}/lines", dh.AddLine)
	mux.HandleFunc("POST /drafts/{draft}/lines/{n}", dh.UpdateLine)
	mux.HandleFunc("POST /drafts/{draft}/lines/{n}/delete", dh.DeleteLine)
	mux.HandleFunc("POST /drafts/{draft}/discount", dh.Discount)
	mux.HandleFunc("POST /drafts/{draft}/coupon", dh.Coupon)
	mux.HandleFunc("POST /drafts/{draft}/payments", dh.AddPayment)
	mux.HandleFunc("POST /drafts/{draft}/plan", dh.AddPlanRow)
	mux.HandleFunc("POST /drafts/{draft}/plan/{n}", dh.UpdatePlanRow)
	mux.HandleFunc("POST /drafts/{draft}/plan/{n}/delete", dh.DeletePlanRow)
	mux.HandleFunc("POST /drafts/{draft}/save", dh.Save)
	mux.HandleFunc("POST /drafts/{draft}/cancel", dh.Cancel)
	mux.HandleFunc("POST /drafts/{draft}/discard", dh.Discard)
}
