package middleware

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/diewo77/eventdesk/i18n"
)

type ctxKey string

const ctxLang ctxKey = "pref_lang"

// Prefs extracts the language preference (query > cookie > header) and
// stores it in context. A query-provided language is kept in a cookie for
// ~30 days.
func Prefs(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := ""
		if c, err := r.Cookie("lang"); err == nil {
			lang = c.Value
		}
		if ql := r.URL.Query().Get("lang"); ql != "" && i18n.Supported(ql) {
			lang = ql
			http.SetCookie(w, &http.Cookie{Name: "lang", Value: lang, Path: "/", MaxAge: 86400 * 30})
		}
		if !i18n.Supported(lang) {
			lang = i18n.DetectLanguage(r.Header.Get("Accept-Language"))
		}
		ctx := context.WithValue(r.Context(), ctxLang, lang)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// LangFrom returns the language preference from context or the default.
func LangFrom(r *http.Request) string {
	if v, ok := r.Context().Value(ctxLang).(string); ok && v != "" {
		return v
	}
	return i18n.DefaultLang
}

// Flash sets a translated flash message cookie using a translation code
// (or the literal text if the code is unknown).
func Flash(w http.ResponseWriter, r *http.Request, code string) {
	msg := i18n.T(LangFrom(r), code)
	http.SetCookie(w, &http.Cookie{Name: "flash", Value: url.QueryEscape(msg), Path: "/", MaxAge: 15})
}

// TakeFlash reads and clears the flash cookie.
func TakeFlash(w http.ResponseWriter, r *http.Request) string {
	c, err := r.Cookie("flash")
	if err != nil {
		return ""
	}
	http.SetCookie(w, &http.Cookie{Name: "flash", Value: "", Path: "/", Expires: time.Unix(0, 0), MaxAge: -1})
	if dec, err := url.QueryUnescape(c.Value); err == nil {
		return dec
	}
	return c.Value
}
