// Package handlers serves the admin pages. Every handler answers HTML by
// default and JSON when the client asks for application/json only.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/diewo77/eventdesk/httpx"
	"github.com/diewo77/eventdesk/internal/api"
	"github.com/diewo77/eventdesk/internal/draft"
	"github.com/diewo77/eventdesk/internal/metrics"
	"github.com/diewo77/eventdesk/internal/middleware"
	"github.com/diewo77/eventdesk/internal/models"
	"github.com/diewo77/eventdesk/internal/pages"
	"github.com/diewo77/eventdesk/internal/services"
	"github.com/diewo77/eventdesk/internal/storage"
	"github.com/diewo77/eventdesk/view"
)

// Deps are the collaborators shared by the handlers.
type Deps struct {
	API      *api.Client
	Drafts   *draft.Registry
	Uploads  *storage.Uploader
	Audit    *services.AuditService
	Metrics  *metrics.Metrics
	TenantID string
	Location *time.Location
	Logger   *slog.Logger
}

func (d *Deps) log() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

func (d *Deps) loc() *time.Location {
	if d.Location == nil {
		return time.UTC
	}
	return d.Location
}

// render adds the layout data and executes a page template.
func (d *Deps) render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) {
	d.renderStatus(w, r, http.StatusOK, name, data)
}

func (d *Deps) renderStatus(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	data["Modules"] = pages.All()
	if _, ok := data["Flash"]; !ok {
		data["Flash"] = middleware.TakeFlash(w, r)
	}
	if err := view.RenderStatus(w, r, status, name, data); err != nil {
		d.log().Error("render failed", "template", name, "err", err)
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}

// fail reports err. JSON clients get status and code with the backend
// message as details; browsers get a flash and a redirect.
func (d *Deps) fail(w http.ResponseWriter, r *http.Request, status int, code string, err error, redirect string) {
	if err != nil {
		d.log().Warn("request failed", "method", r.Method, "path", r.URL.Path, "code", code, "err", err)
	}
	if httpx.WantsJSON(r) {
		var details any
		if msg := api.ServerMessage(err); msg != "" {
			details = msg
		}
		httpx.JSONError(w, status, code, details)
		return
	}
	middleware.Flash(w, r, code)
	http.Redirect(w, r, redirect, http.StatusSeeOther)
}

// done finishes a successful mutation: JSON clients get payload, browsers
// a flash and a redirect.
func done(w http.ResponseWriter, r *http.Request, status int, payload any, flash, redirect string) {
	if httpx.WantsJSON(r) {
		httpx.JSON(w, status, payload)
		return
	}
	if flash != "" {
		middleware.Flash(w, r, flash)
	}
	http.Redirect(w, r, redirect, http.StatusSeeOther)
}

// backendStatus maps a backend error to the status returned to clients.
func backendStatus(err error) int {
	var ae *api.Error
	if errors.As(err, &ae) {
		switch {
		case ae.Status == http.StatusNotFound:
			return http.StatusNotFound
		case ae.Status == http.StatusUnprocessableEntity, ae.Status == http.StatusBadRequest:
			return http.StatusUnprocessableEntity
		case ae.Status == http.StatusConflict:
			return http.StatusConflict
		}
	}
	return http.StatusBadGateway
}

// audit records the outcome of a change pushed to the backend. Failures to
// write the trail are logged only.
func (d *Deps) audit(ctx context.Context, entry models.AuditLog, err error) {
	entry.TenantID = d.TenantID
	entry.Outcome = models.OutcomeOK
	if err != nil {
		entry.Outcome = models.OutcomeError
		entry.Detail = err.Error()
		if msg := api.ServerMessage(err); msg != "" {
			entry.Detail = msg
		}
	}
	if aerr := d.Audit.Record(ctx, entry); aerr != nil {
		d.log().Error("audit write failed", "err", aerr)
	}
}
