package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/diewo77/eventdesk/httpx"
	"github.com/diewo77/eventdesk/i18n"
	"github.com/diewo77/eventdesk/internal/grid"
	"github.com/diewo77/eventdesk/internal/middleware"
	"github.com/diewo77/eventdesk/internal/models"
	"github.com/diewo77/eventdesk/internal/pages"
	"github.com/diewo77/eventdesk/internal/storage"
	"github.com/diewo77/eventdesk/validation"
)

// maxUpload bounds multipart uploads.
const maxUpload = 32 << 20

// ModuleHandler serves the grid page and plain CRUD of every module.
type ModuleHandler struct {
	*Deps
}

func NewModuleHandler(d *Deps) *ModuleHandler {
	return &ModuleHandler{Deps: d}
}

func (h *ModuleHandler) module(w http.ResponseWriter, r *http.Request) (pages.Module, bool) {
	m, ok := pages.Lookup(r.PathValue("module"))
	if !ok {
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusNotFound, "unknown_module", nil)
		} else {
			http.NotFound(w, r)
		}
	}
	return m, ok
}

// Index: GET /
func (h *ModuleHandler) Index(w http.ResponseWriter, r *http.Request) {
	if httpx.WantsJSON(r) {
		lang := middleware.LangFrom(r)
		out := make([]map[string]string, 0)
		for _, m := range pages.All() {
			out = append(out, map[string]string{"name": m.Name, "title": i18n.T(lang, m.Title), "href": "/" + m.Name})
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"modules": out})
		return
	}
	h.render(w, r, "index.html", nil)
}

type listResponse struct {
	Items     []grid.Row `json:"items"`
	Total     int        `json:"total"`
	Count     int        `json:"count"`
	PageIndex int        `json:"pageIndex"`
	PageSize  int        `json:"pageSize"`
	PageCount int        `json:"pageCount"`
	Paginated bool       `json:"paginated"`
	Empty     string     `json:"emptyMessage,omitempty"`
}

func pageResponse(page grid.Page) listResponse {
	resp := listResponse{
		Items: page.Rows, Total: page.Total, Count: page.Count,
		PageIndex: page.PageIndex, PageSize: page.PageSize, PageCount: page.PageCount,
		Paginated: page.ShowPagination,
	}
	if page.Empty {
		resp.Empty = page.EmptyMessage
	}
	return resp
}

// List: GET /{module} – the module's grid, state carried in the query.
func (h *ModuleHandler) List(w http.ResponseWriter, r *http.Request) {
	m, ok := h.module(w, r)
	if !ok {
		return
	}
	h.renderList(w, r, m, nil)
}

func (h *ModuleHandler) renderList(w http.ResponseWriter, r *http.Request, m pages.Module, extra map[string]any) {
	lv := pages.NewListView(m, h.API, h.log())
	defer lv.Close()
	fetchErr := lv.Refresh(r.Context())

	lang := middleware.LangFrom(r)
	state := grid.StateFromQuery(r.URL.Query())
	page := lv.Grid(state, h.loc(), i18n.T(lang, m.EmptyMessage)).View()

	if httpx.WantsJSON(r) {
		if fetchErr != nil {
			h.fail(w, r, backendStatus(fetchErr), "backend_unavailable", fetchErr, "/")
			return
		}
		httpx.JSON(w, http.StatusOK, pageResponse(page))
		return
	}
	data := map[string]any{
		"Title":  m.Title,
		"Module": m,
		"Page":   page,
		"Form":   map[string]string{},
	}
	if fetchErr != nil {
		h.log().Error("list fetch failed", "module", m.Name, "err", fetchErr)
		data["Error"] = i18n.T(lang, "flash.error")
	}
	for k, v := range extra {
		data[k] = v
	}
	status := http.StatusOK
	if _, invalid := extra["Errors"]; invalid {
		status = http.StatusUnprocessableEntity
	}
	h.renderStatus(w, r, status, "list.html", data)
}

// readFields collects the module's accepted fields from a JSON body or a
// form, keeping raw strings for forms.
func readFields(r *http.Request, m pages.Module) (map[string]any, map[string]string, error) {
	body := map[string]any{}
	form := map[string]string{}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		var in map[string]any
		if err := httpx.DecodeJSON(r, &in); err != nil {
			return nil, nil, err
		}
		for k, v := range in {
			if m.Accepts(k) {
				body[k] = v
				form[k] = grid.Text(v)
			}
		}
		return body, form, nil
	}
	if err := r.ParseForm(); err != nil {
		return nil, nil, err
	}
	for _, f := range m.Fields {
		if vals, ok := r.PostForm[f]; ok && len(vals) > 0 {
			v := strings.TrimSpace(vals[0])
			body[f] = v
			form[f] = v
		}
	}
	return body, form, nil
}

func validateFields(m pages.Module, form map[string]string, creating bool) validation.Violations {
	v := validation.Violations{}
	if creating {
		for _, f := range m.Required {
			validation.Required(f, form[f], v)
		}
	}
	if _, ok := form["email"]; ok {
		validation.Email("email", form["email"], v)
	}
	return v
}

// Create: POST /{module}
func (h *ModuleHandler) Create(w http.ResponseWriter, r *http.Request) {
	m, ok := h.module(w, r)
	if !ok {
		return
	}
	if m.Documents {
		h.fail(w, r, http.StatusBadRequest, "use_drafts", nil, "/"+m.Name)
		return
	}
	body, form, err := readFields(r, m)
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, "invalid_body", err, "/"+m.Name)
		return
	}
	if v := validateFields(m, form, true); !v.Empty() {
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", v)
			return
		}
		h.renderList(w, r, m, map[string]any{"Errors": v, "Form": form})
		return
	}
	rec, err := h.API.Create(r.Context(), m.Resource, body)
	h.audit(r.Context(), models.AuditLog{EntityType: m.Resource, EntityID: grid.Row(rec).ID(), Action: models.ActionCreate}, err)
	if err != nil {
		h.fail(w, r, backendStatus(err), "flash.save_failed", err, "/"+m.Name)
		return
	}
	done(w, r, http.StatusCreated, rec, "flash.created", "/"+m.Name)
}

// Update: POST /{module}/{id}
func (h *ModuleHandler) Update(w http.ResponseWriter, r *http.Request) {
	m, ok := h.module(w, r)
	if !ok {
		return
	}
	if m.Documents {
		h.fail(w, r, http.StatusBadRequest, "use_drafts", nil, "/"+m.Name)
		return
	}
	id := r.PathValue("id")
	body, form, err := readFields(r, m)
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, "invalid_body", err, "/"+m.Name)
		return
	}
	if v := validateFields(m, form, false); !v.Empty() {
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", v)
			return
		}
		h.renderList(w, r, m, map[string]any{"Errors": v, "Form": form})
		return
	}
	rec, err := h.API.Update(r.Context(), m.Resource, id, body)
	h.audit(r.Context(), models.AuditLog{EntityType: m.Resource, EntityID: id, Action: models.ActionUpdate}, err)
	if err != nil {
		h.fail(w, r, backendStatus(err), "flash.save_failed", err, "/"+m.Name)
		return
	}
	done(w, r, http.StatusOK, rec, "flash.saved", "/"+m.Name)
}

// Delete: POST /{module}/{id}/delete – backend first. A request holds no
// rows to remove optimistically; the redirect target lists afresh.
func (h *ModuleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	m, ok := h.module(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	err := h.API.Delete(r.Context(), m.Resource, id)
	h.audit(r.Context(), models.AuditLog{EntityType: m.Resource, EntityID: id, Action: models.ActionDelete}, err)
	if err != nil {
		h.fail(w, r, backendStatus(err), "flash.delete_failed", err, "/"+m.Name)
		return
	}
	done(w, r, http.StatusOK, map[string]any{"deleted": id}, "flash.deleted", "/"+m.Name)
}

// Upload: POST /{module}/{id}/files – stores the file and hands its URL to
// the backend.
func (h *ModuleHandler) Upload(w http.ResponseWriter, r *http.Request) {
	m, ok := h.module(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	back := "/" + m.Name
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	file, header, err := r.FormFile("file")
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, "file_required", err, back)
		return
	}
	defer file.Close()

	target := storage.Target{Module: m.Name, RecordID: id, TenantID: h.TenantID}
	up, err := h.Uploads.Upload(r.Context(), target, header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		h.audit(r.Context(), models.AuditLog{EntityType: m.Resource, EntityID: id, Action: models.ActionUpload}, err)
		h.fail(w, r, http.StatusInternalServerError, "upload_failed", err, back)
		return
	}
	_, err = h.API.AttachFile(r.Context(), m.Resource, id, up.Name, up.URL)
	h.audit(r.Context(), models.AuditLog{EntityType: m.Resource, EntityID: id, Action: models.ActionUpload, Detail: up.URL}, err)
	if err != nil {
		h.fail(w, r, backendStatus(err), "upload_failed", err, back)
		return
	}
	done(w, r, http.StatusCreated, up, "flash.uploaded", back)
}

// Files: GET /attachments/{module}/{id}
func (h *ModuleHandler) Files(w http.ResponseWriter, r *http.Request) {
	m, ok := h.module(w, r)
	if !ok {
		return
	}
	target := storage.Target{Module: m.Name, RecordID: r.PathValue("id"), TenantID: h.TenantID}
	ups, err := h.Uploads.List(r.Context(), target)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "list_failed", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": ups})
}

// ServeFile: GET /files/{key...} – serves stored objects for drivers
// without presigned URLs.
func (h *ModuleHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if !strings.HasPrefix(key, h.TenantID+"/") {
		http.NotFound(w, r)
		return
	}
	info, body, err := h.Uploads.Store.Get(r.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.log().Error("file read failed", "key", key, "err", err)
		http.Error(w, "file error", http.StatusInternalServerError)
		return
	}
	defer body.Close()
	if info.ContentType != "" {
		w.Header().Set("Content-Type", info.ContentType)
	}
	if _, err := io.Copy(w, body); err != nil {
		h.log().Warn("file copy interrupted", "key", key, "err", err)
	}
}
