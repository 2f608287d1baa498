package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/val/markdown-notes/internal/api/middleware"
)

func TestRateLimit(t *testing.T) {
	policy := middleware.Policy{
		Requests: 3,
		Window:   time.Minute,
		Message:  "Too many login attempts. Please try again later.",
	}

	handler := middleware.RateLimit(policy)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "203.0.113.7:1234"
		handler.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < policy.Requests; i++ {
		rec := send()
		require.Equal(t, http.StatusOK, rec.Code, "request %d should pass", i+1)
	}

	rec := send()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	var env struct {
		Error   bool   `json:"error"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.True(t, env.Error)
	assert.Equal(t, policy.Message, env.Message)
}

func TestDefaultPolicies(t *testing.T) {
	p := middleware.DefaultPolicies()

	assert.Equal(t, 200, p.App.Requests)
	assert.Equal(t, 10, p.Login.Requests)
	assert.Equal(t, 5, p.CreateAccount.Requests)
	assert.Equal(t, 3, p.Resend.Requests)

	for _, policy := range []middleware.Policy{p.App, p.Login, p.CreateAccount, p.Resend} {
		assert.Equal(t, 15*time.Minute, policy.Window)
		assert.NotEmpty(t, policy.Message)
	}
}
