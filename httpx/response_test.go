package httpx

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONError(t *testing.T) {
	rr := httptest.NewRecorder()
	JSONError(rr, http.StatusUnprocessableEntity, "validation_failed", map[string]string{"customerId": "required"})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"validation_failed","details":{"customerId":"required"}}`, rr.Body.String())
}

func TestJSONNil(t *testing.T) {
	rr := httptest.NewRecorder()
	JSON(rr, http.StatusOK, nil)
	assert.Equal(t, "null", rr.Body.String())
}

func TestWantsJSON(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Accept", "application/json")
	assert.True(t, WantsJSON(r))
	r.Header.Set("Accept", "text/html,application/json")
	assert.False(t, WantsJSON(r))
	r.Header.Del("Accept")
	assert.False(t, WantsJSON(r))
}

func TestDecodeJSON(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x"}`))
	var dst struct {
		Name string `json:"name"`
	}
	require.NoError(t, DecodeJSON(r, &dst))
	assert.Equal(t, "x", dst.Name)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	assert.Error(t, DecodeJSON(r, &dst))
}
