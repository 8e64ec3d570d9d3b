package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var testConfig = Config{Secret: "test-secret", Issuer: "fitpulse"}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testConfig.Secret))
	require.NoError(t, err)
	return signed
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":       "user-1",
		"tenant_id": "tenant-1",
		"iss":       testConfig.Issuer,
		"exp":       time.Now().Add(time.Hour).Unix(),
		"scopes":    []string{ScopeInsightsRead},
	}
}

func TestParseValidToken(t *testing.T) {
	claims, err := Parse(signToken(t, validClaims()), testConfig)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, "tenant-1", claims.TenantID)
	require.True(t, claims.HasScope(ScopeInsightsRead))
	require.False(t, claims.HasScope(ScopeIngestWrite))
}

func TestParseScopeString(t *testing.T) {
	mc := validClaims()
	mc["scopes"] = ScopeInsightsRead + " " + ScopeIngestWrite
	claims, err := Parse(signToken(t, mc), testConfig)
	require.NoError(t, err)
	require.True(t, claims.HasScope(ScopeInsightsRead))
	require.True(t, claims.HasScope(ScopeIngestWrite))
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	mc := validClaims()
	mc["iss"] = "someone-else"
	_, err := Parse(signToken(t, mc), testConfig)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsMissingTenant(t *testing.T) {
	mc := validClaims()
	delete(mc, "tenant_id")
	_, err := Parse(signToken(t, mc), testConfig)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestMiddlewareRejectsWithoutHeader(t *testing.T) {
	handler := NewMiddleware(testConfig, nil).Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not be reached")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/insights/suggestions", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddlewarePassesClaimsThrough(t *testing.T) {
	var got *Claims
	handler := NewMiddleware(testConfig, nil).Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/insights/suggestions", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, validClaims()))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	require.Equal(t, "tenant-1", got.TenantID)
}

func TestMiddlewareSkipper(t *testing.T) {
	skipper := func(r *http.Request) bool { return r.URL.Path == "/healthz" }
	called := false
	handler := NewMiddleware(testConfig, skipper).Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.True(t, called)
}
