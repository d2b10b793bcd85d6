package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oomavera/agency/internal/http/handlers"
	"github.com/oomavera/agency/internal/leads"
)

func testRouter(t *testing.T, secret string) http.Handler {
	t.Helper()
	repo := leads.NewInMemoryRepository()
	return New(&Config{
		Intake:     handlers.NewIntakeHandler(repo, nil, nil, nil, nil, nil),
		Qualify:    handlers.NewQualifyHandler(repo, nil, nil),
		CancelSMS:  handlers.NewCancelSMSHandler(nil, nil),
		AdminLeads: handlers.NewAdminLeadsHandler(repo, nil),
		HealthHandler: func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		},
		AdminAuthSecret: secret,
	})
}

func TestRouterHealth(t *testing.T) {
	r := testRouter(t, "")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterLeadIntake(t *testing.T) {
	r := testRouter(t, "")
	body := strings.NewReader(`{"name":"Jane Doe","phone":"4075550100","page":"home"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/leads", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":true`)
}

func TestRouterQualifyValidation(t *testing.T) {
	r := testRouter(t, "")
	req := httptest.NewRequest(http.MethodPost, "/api/qualify", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouterAdminAuth(t *testing.T) {
	const secret = "admin-secret"
	r := testRouter(t, secret)

	t.Run("rejects missing token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/leads", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects bad token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/leads", nil)
		req.Header.Set("Authorization", "Bearer nope")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("accepts signed token", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject:   "ops",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})
		signed, err := token.SignedString([]byte(secret))
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/admin/leads", nil)
		req.Header.Set("Authorization", "Bearer "+signed)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRouterAdminDisabledWithoutSecret(t *testing.T) {
	r := testRouter(t, "")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/leads", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouterCancelSMSMethods(t *testing.T) {
	repo := leads.NewInMemoryRepository()
	r := New(&Config{
		CancelSMS: handlers.NewCancelSMSHandler(nil, nil),
		AdminLeads: handlers.NewAdminLeadsHandler(repo, nil),
	})

	// GET without a lead id renders the error page rather than 404ing.
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cancel-sms", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
}
