// Package view renders the HTML pages. Templates are embedded; in DEV
// mode they can be read from disk instead.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/diewo77/eventdesk/i18n"
	"github.com/diewo77/eventdesk/internal/grid"
	"github.com/shopspring/decimal"
)

//go:embed templates/*.html
var embedded embed.FS

var (
	mu       sync.RWMutex
	source   fs.FS = mustSub(embedded, "templates")
	tplCache       = map[string]*template.Template{}
	devMode        = os.Getenv("DEV") == "1"

	langResolver = func(_ *http.Request) string { return i18n.DefaultLang }
)

func mustSub(f fs.FS, dir string) fs.FS {
	s, err := fs.Sub(f, dir)
	if err != nil {
		panic(err)
	}
	return s
}

// SetLangResolver lets the host app provide the request language.
func SetLangResolver(f func(*http.Request) string) {
	if f != nil {
		langResolver = f
	}
}

// SetBaseDir reads templates from a directory on disk instead of the
// embedded copies.
func SetBaseDir(path string) {
	if path == "" {
		return
	}
	mu.Lock()
	source = os.DirFS(filepath.Clean(path))
	tplCache = map[string]*template.Template{}
	mu.Unlock()
}

// ResetForTests clears the cache and restores the embedded templates.
func ResetForTests() {
	mu.Lock()
	source = mustSub(embedded, "templates")
	tplCache = map[string]*template.Template{}
	mu.Unlock()
}

// Funcs returns the func map bound to the request language.
func Funcs(r *http.Request) template.FuncMap { return funcsFor(langResolver(r)) }

func funcsFor(lang string) template.FuncMap {
	return template.FuncMap{
		"t":    func(code string) string { return i18n.T(lang, code) },
		"lang": func() string { return lang },
		"year": func() int { return time.Now().Year() },
		"add":  func(a, b int) int { return a + b },
		"sub":  func(a, b int) int { return a - b },
		"money": func(d decimal.Decimal) string {
			return d.StringFixed(2)
		},
		"sizes": func() []int { return grid.PageSizes },
		// href joins a path and an encoded query without re-escaping it.
		"href": func(path, query string) template.URL {
			if query == "" {
				return template.URL(path)
			}
			return template.URL(path + "?" + query)
		},
		"date": func(t *time.Time) string {
			if t == nil || t.IsZero() {
				return ""
			}
			return t.Format(grid.DateLayout)
		},
		// dict creates a map from key-value pairs for passing to sub-templates.
		// Usage: {{ template "partial" (dict "Key1" val1 "Key2" val2) }}
		"dict": func(values ...any) map[string]any {
			if len(values)%2 != 0 {
				return nil
			}
			m := make(map[string]any, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					continue
				}
				m[key] = values[i+1]
			}
			return m
		},
	}
}

// parse builds layout + partials + page. Funcs are rebound per request on
// a clone, so the cached tree is language independent.
func parse(name string) (*template.Template, error) {
	mu.RLock()
	t, ok := tplCache[name]
	src := source
	mu.RUnlock()
	if ok && !devMode {
		return t, nil
	}
	t, err := template.New("layout.html").Funcs(funcsFor(i18n.DefaultLang)).
		ParseFS(src, "layout.html", "partials.html", name)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	mu.Lock()
	tplCache[name] = t
	mu.Unlock()
	return t, nil
}

// Render executes the page template name wrapped in the layout.
func Render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) error {
	return RenderStatus(w, r, http.StatusOK, name, data)
}

// RenderStatus is Render with an explicit status code. The page is
// rendered to a buffer first so a template error never leaves a partial
// response.
func RenderStatus(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) error {
	if data == nil {
		data = map[string]any{}
	}
	if _, exists := data["Year"]; !exists {
		data["Year"] = time.Now().Year()
	}
	base, err := parse(name)
	if err != nil {
		return err
	}
	t, err := base.Clone()
	if err != nil {
		return err
	}
	t.Funcs(Funcs(r))
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err = buf.WriteTo(w)
	return err
}
