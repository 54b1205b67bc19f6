package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/diewo77/eventdesk/internal/api"
	"github.com/diewo77/eventdesk/internal/draft"
	"github.com/diewo77/eventdesk/internal/metrics"
	"github.com/diewo77/eventdesk/internal/middleware"
	"github.com/diewo77/eventdesk/internal/models"
	"github.com/diewo77/eventdesk/internal/services"
	"github.com/diewo77/eventdesk/internal/storage"
	"github.com/diewo77/eventdesk/view"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// backend is an in-memory stand-in for the REST server.
type backend struct {
	mu          sync.Mutex
	data        map[string][]map[string]any
	seq         int
	fail        map[string]int
	attachments []map[string]string
	numbers     int
}

func newBackend() *backend {
	return &backend{data: map[string][]map[string]any{}, fail: map[string]int{}}
}

func (b *backend) seed(resource string, recs ...map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[resource] = append(b.data[resource], recs...)
}

func (b *backend) failOn(method, path string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fail[method+" "+path] = status
}

func (b *backend) find(resource, id string) (int, map[string]any) {
	for i, r := range b.data[resource] {
		if fmt.Sprint(r["id"]) == id {
			return i, r
		}
	}
	return -1, nil
}

func (b *backend) get(resource, id string) map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, r := b.find(resource, id)
	return r
}

func reply(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if status, ok := b.fail[r.Method+" "+r.URL.Path]; ok {
		reply(w, status, map[string]string{"message": "rechazado por el servidor"})
		return
	}
	var body map[string]any
	if r.Body != nil {
		raw, _ := io.ReadAll(r.Body)
		if len(bytes.TrimSpace(raw)) > 0 {
			_ = json.Unmarshal(raw, &body)
		}
	}
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/"), "/")
	res := parts[0]
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/api/payments/generate-number":
		b.numbers++
		reply(w, http.StatusOK, map[string]string{"number": fmt.Sprintf("PAY-%04d", b.numbers)})
	case r.Method == http.MethodGet && res == "payments" && r.URL.Query().Get("invoiceId") != "":
		_, inv := b.find("invoices", r.URL.Query().Get("invoiceId"))
		if inv == nil || inv["payments"] == nil {
			reply(w, http.StatusOK, []any{})
			return
		}
		reply(w, http.StatusOK, inv["payments"])
	case len(parts) == 1 && r.Method == http.MethodGet:
		reply(w, http.StatusOK, map[string]any{"data": b.data[res]})
	case len(parts) == 1 && r.Method == http.MethodPost:
		b.seq++
		body["id"] = fmt.Sprintf("n%d", b.seq)
		b.data[res] = append(b.data[res], body)
		reply(w, http.StatusCreated, body)
	case len(parts) == 2:
		i, rec := b.find(res, parts[1])
		if rec == nil {
			reply(w, http.StatusNotFound, map[string]string{"message": "no encontrado"})
			return
		}
		switch r.Method {
		case http.MethodGet:
			reply(w, http.StatusOK, rec)
		case http.MethodPut:
			body["id"] = parts[1]
			b.data[res][i] = body
			reply(w, http.StatusOK, body)
		case http.MethodDelete:
			b.data[res] = append(b.data[res][:i:i], b.data[res][i+1:]...)
			w.WriteHeader(http.StatusNoContent)
		}
	case len(parts) == 3 && r.Method == http.MethodPost:
		_, rec := b.find(res, parts[1])
		if rec == nil {
			reply(w, http.StatusNotFound, map[string]string{"message": "no encontrado"})
			return
		}
		switch parts[2] {
		case "recalculate":
			reply(w, http.StatusOK, rec)
		case "stamp":
			rec["stamped"] = true
			reply(w, http.StatusOK, rec)
		case "convert":
			inv := map[string]any{}
			for k, v := range rec {
				inv[k] = v
			}
			inv["id"] = "inv-" + parts[1]
			inv["kind"] = "invoice"
			b.data["invoices"] = append(b.data["invoices"], inv)
			reply(w, http.StatusOK, inv)
		case "attachments":
			b.attachments = append(b.attachments, map[string]string{
				"resource": res, "id": parts[1], "name": fmt.Sprint(body["name"]), "url": fmt.Sprint(body["url"]),
			})
			reply(w, http.StatusCreated, map[string]any{"ok": true})
		case "document":
			reply(w, http.StatusOK, map[string]string{"url": "https://docs.test/" + res + "/" + parts[1] + ".pdf"})
		default:
			http.NotFound(w, r)
		}
	default:
		http.NotFound(w, r)
	}
}

type harness struct {
	t       *testing.T
	deps    *Deps
	backend *backend
	mux     http.Handler
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	view.ResetForTests()
	view.SetLangResolver(middleware.LangFrom)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.AuditLog{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	b := newBackend()
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)

	m := metrics.New()
	deps := &Deps{
		API:      api.New(api.Options{BaseURL: srv.URL, TenantID: "acme", Metrics: m}),
		Drafts:   draft.NewRegistry(),
		Uploads:  &storage.Uploader{Store: storage.NewMemory(), PublicBaseURL: "/files", Metrics: m},
		Audit:    services.NewAuditService(db),
		Metrics:  m,
		TenantID: "acme",
		Location: time.UTC,
	}
	mux := http.NewServeMux()
	Register(mux, deps)
	return &harness{t: t, deps: deps, backend: b, mux: middleware.Prefs(mux)}
}

// do sends a request through the router. A non-nil body is sent as JSON
// and the response is requested as JSON.
func (h *harness) do(method, target string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(h.t, err)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, rdr)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.mux.ServeHTTP(w, req)
	return w
}

// form posts an HTML form the way a browser does.
func (h *harness) form(target string, values map[string]string) *httptest.ResponseRecorder {
	h.t.Helper()
	form := url.Values{}
	for k, v := range values {
		form.Set(k, v)
	}
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/html")
	w := httptest.NewRecorder()
	h.mux.ServeHTTP(w, req)
	return w
}

func (h *harness) auditLog() []models.AuditLog {
	h.t.Helper()
	entries, err := h.deps.Audit.Recent(h.t.Context(), "acme", 0)
	require.NoError(h.t, err)
	return entries
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, decimal.RequireFromString(want).Equal(got), "want %s got %s", want, got)
}
