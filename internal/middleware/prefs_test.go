package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func langOf(r *http.Request) string {
	var got string
	Prefs(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = LangFrom(r)
	})).ServeHTTP(httptest.NewRecorder(), r)
	return got
}

func TestPrefsResolution(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "es", langOf(r))

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Accept-Language", "en-US")
	assert.Equal(t, "en", langOf(r))

	r = httptest.NewRequest(http.MethodGet, "/?lang=en", nil)
	r.AddCookie(&http.Cookie{Name: "lang", Value: "es"})
	assert.Equal(t, "en", langOf(r))

	r = httptest.NewRequest(http.MethodGet, "/?lang=xx", nil)
	r.AddCookie(&http.Cookie{Name: "lang", Value: "en"})
	assert.Equal(t, "en", langOf(r))
}

func TestPrefsPersistsQueryLang(t *testing.T) {
	rr := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/?lang=en", nil)
	Prefs(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).ServeHTTP(rr, r)
	cookies := rr.Result().Cookies()
	if assert.Len(t, cookies, 1) {
		assert.Equal(t, "lang", cookies[0].Name)
		assert.Equal(t, "en", cookies[0].Value)
	}
}

func TestFlashRoundTrip(t *testing.T) {
	rr := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	Flash(rr, r, "flash.saved")
	c := rr.Result().Cookies()[0]

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(c)
	rr = httptest.NewRecorder()
	assert.Equal(t, "Cambios guardados", TakeFlash(rr, r))
	assert.Equal(t, -1, rr.Result().Cookies()[0].MaxAge)

	assert.Equal(t, "", TakeFlash(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil)))
}
