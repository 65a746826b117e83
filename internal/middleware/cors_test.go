package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOriginPolicy(t *testing.T) {
	p := NewOriginPolicy([]string{"http://127.0.0.1:5173", " HTTPS://App.Example.com ", "not a url", ""})

	assert.True(t, p.Allowed("http://127.0.0.1:5173"))
	assert.True(t, p.Allowed("https://app.example.com"))
	assert.True(t, p.Allowed("https://APP.example.com/some/path"))
	assert.False(t, p.Allowed("https://evil.example.com"))
	assert.False(t, p.Allowed("garbage"))

	all := NewOriginPolicy([]string{"*"})
	assert.True(t, all.Allowed("https://anything.test"))

	var none *OriginPolicy
	assert.False(t, none.Allowed("http://127.0.0.1:5173"))
}

func TestCheckRequestAllowsMissingOrigin(t *testing.T) {
	p := NewOriginPolicy([]string{"http://127.0.0.1:5173"})

	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	assert.True(t, p.CheckRequest(r))

	r.Header.Set("Origin", "http://evil.test")
	assert.False(t, p.CheckRequest(r))
}

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := CORS(NewOriginPolicy([]string{"http://127.0.0.1:5173"}))(next)

	t.Run("preflight", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodOptions, "/api/v1/presets", nil)
		r.Header.Set("Origin", "http://127.0.0.1:5173")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "http://127.0.0.1:5173", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("disallowed origin gets no headers", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/presets", nil)
		r.Header.Set("Origin", "http://evil.test")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		assert.Equal(t, http.StatusTeapot, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}
