package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"storefront/internal/models"
	"storefront/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCatalog struct {
	rows []models.CategorySummary
	err  error
}

func (s *stubCatalog) BuildSummary(context.Context) ([]models.CategorySummary, error) {
	return s.rows, s.err
}

func (s *stubCatalog) StoredSummary(context.Context) ([]models.CategorySummary, error) {
	return s.rows, s.err
}

type stubAuth struct {
	registerErr error
	loginErr    error
}

func (s *stubAuth) Register(_ context.Context, username, _ string) (*models.User, error) {
	if s.registerErr != nil {
		return nil, s.registerErr
	}
	return &models.User{UserID: 1, Username: username}, nil
}

func (s *stubAuth) Authenticate(context.Context, string, string) (*service.Token, error) {
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return &service.Token{Value: "signed-token", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (s *stubAuth) ParseToken(token string) (*service.Claims, error) {
	if token != "signed-token" {
		return nil, service.ErrInvalidToken
	}
	return &service.Claims{Username: "alice"}, nil
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func newRouter(catalog CatalogService, auth AuthService, deps map[string]Pinger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHandler(catalog, auth, deps).SetupRoutes(router)
	return router
}

func do(router *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func sampleRows() []models.CategorySummary {
	return []models.CategorySummary{{
		Category:               "Kitchen",
		TotalRevenue:           decimal.NewFromInt(90),
		TopProduct:             "Mug",
		TopProductQuantitySold: 9,
		CategoryRevenue:        decimal.NewFromInt(390),
	}}
}

func TestIndexRendersTable(t *testing.T) {
	router := newRouter(&stubCatalog{rows: sampleRows()}, &stubAuth{}, nil)

	w := do(router, http.MethodGet, "/", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), `<table class="table">`)
	assert.Contains(t, w.Body.String(), "<td>Mug</td>")
}

func TestIndexFailure(t *testing.T) {
	router := newRouter(&stubCatalog{err: errors.New("tx aborted")}, &stubAuth{}, nil)

	w := do(router, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestSignupStatuses(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
	}{
		{"created", `{"username":"alice","password":"correct horse"}`, nil, http.StatusCreated},
		{"malformed body", `{"username":`, nil, http.StatusBadRequest},
		{"missing password", `{"username":"alice"}`, nil, http.StatusBadRequest},
		{"invalid input", `{"username":"al","password":"x"}`, service.ErrInvalidInput, http.StatusBadRequest},
		{"duplicate", `{"username":"alice","password":"correct horse"}`, service.ErrUserExists, http.StatusConflict},
		{"store failure", `{"username":"alice","password":"correct horse"}`, errors.New("db down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newRouter(&stubCatalog{}, &stubAuth{registerErr: tt.err}, nil)
			w := do(router, http.MethodPost, "/signup", tt.body, nil)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestLoginReturnsToken(t *testing.T) {
	router := newRouter(&stubCatalog{}, &stubAuth{}, nil)

	w := do(router, http.MethodPost, "/login", `{"username":"alice","password":"correct horse"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "signed-token", body["token"])
	assert.Contains(t, body, "expires_at")
}

func TestLoginUnauthorized(t *testing.T) {
	router := newRouter(&stubCatalog{}, &stubAuth{loginErr: service.ErrInvalidCredentials}, nil)

	w := do(router, http.MethodPost, "/login", `{"username":"alice","password":"nope"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Authentication failed")
}

func TestSummaryRequiresToken(t *testing.T) {
	router := newRouter(&stubCatalog{rows: sampleRows()}, &stubAuth{}, nil)

	w := do(router, http.MethodGet, "/api/v1/summary", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(router, http.MethodGet, "/api/v1/summary", "", map[string]string{"Authorization": "Bearer forged"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(router, http.MethodGet, "/api/v1/summary", "", map[string]string{"Authorization": "Bearer signed-token"})
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Summary []models.CategorySummary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Summary, 1)
	assert.Equal(t, "Mug", body.Summary[0].TopProduct)
	assert.True(t, decimal.NewFromInt(390).Equal(body.Summary[0].CategoryRevenue))
}

func TestReadiness(t *testing.T) {
	router := newRouter(&stubCatalog{}, &stubAuth{}, map[string]Pinger{
		"database": stubPinger{},
		"redis":    stubPinger{err: errors.New("connection refused")},
	})

	w := do(router, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "redis")

	router = newRouter(&stubCatalog{}, &stubAuth{}, map[string]Pinger{"database": stubPinger{}})
	w = do(router, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
