package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/marvingabia/da-agrimanage-gabia/config"
	"github.com/marvingabia/da-agrimanage-gabia/pkg/jwt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeRevocations struct {
	revoked map[string]bool
	err     error
}

func (f *fakeRevocations) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.revoked[jti], nil
}

type fakeLimiter struct {
	allowed bool
	err     error
	keys    []string
}

func (f *fakeLimiter) CheckRateLimit(_ context.Context, key string, _ int, _ time.Duration) (bool, error) {
	f.keys = append(f.keys, key)
	return f.allowed, f.err
}

func newManager() *jwt.Manager {
	return jwt.NewManager(&config.AuthConfig{
		JWTSecret:      "test-secret-for-middleware-tests-only",
		AccessTokenTTL: time.Hour,
	})
}

func issue(t *testing.T, m *jwt.Manager, role string) (string, *jwt.Claims) {
	t.Helper()
	token, err := m.GenerateAccessToken(jwt.Identity{UserID: "u-1", Role: role, Name: "Jane Cruz", Email: "jane@da.gov.ph"})
	require.NoError(t, err)
	claims, err := m.ParseToken(token)
	require.NoError(t, err)
	return token, claims
}

// whoami echoes the resolved role so tests can see what Authenticate set.
func whoami(c *gin.Context) {
	c.String(http.StatusOK, c.GetString(CtxRole))
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ── Authenticate ──

func TestAuthenticate_BearerHeader(t *testing.T) {
	m := newManager()
	token, claims := issue(t, m, "admin")

	r := gin.New()
	r.Use(Authenticate(m, nil, zap.NewNop()))
	r.GET("/x", func(c *gin.Context) {
		assert.Equal(t, "u-1", c.GetString(CtxUserID))
		assert.Equal(t, "Jane Cruz", c.GetString(CtxUserName))
		assert.Equal(t, "jane@da.gov.ph", c.GetString(CtxUserEmail))
		assert.Equal(t, claims.ID, c.GetString(CtxTokenJTI))
		_, ok := c.Get(CtxTokenExp)
		assert.True(t, ok)
		whoami(c)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := serve(r, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin", w.Body.String())
}

func TestAuthenticate_Cookie(t *testing.T) {
	m := newManager()
	token, _ := issue(t, m, "staff")

	r := gin.New()
	r.Use(Authenticate(m, nil, zap.NewNop()))
	r.GET("/x", whoami)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: token})
	w := serve(r, req)

	assert.Equal(t, "staff", w.Body.String())
}

func TestAuthenticate_BadTokensStayAnonymous(t *testing.T) {
	m := newManager()
	other := jwt.NewManager(&config.AuthConfig{JWTSecret: "a-different-secret-entirely", AccessTokenTTL: time.Hour})
	foreign, _ := issue(t, other, "admin")

	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"wrong scheme", "Basic abc"},
		{"garbage", "Bearer not-a-jwt"},
		{"foreign signature", "Bearer " + foreign},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(Authenticate(m, nil, zap.NewNop()))
			r.GET("/x", whoami)

			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := serve(r, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Empty(t, w.Body.String())
		})
	}
}

func TestAuthenticate_RevokedToken(t *testing.T) {
	m := newManager()
	token, claims := issue(t, m, "admin")
	revocations := &fakeRevocations{revoked: map[string]bool{claims.ID: true}}

	r := gin.New()
	r.Use(Authenticate(m, revocations, zap.NewNop()))
	r.GET("/x", whoami)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := serve(r, req)

	assert.Empty(t, w.Body.String())
}

func TestAuthenticate_RevocationErrorDegradesOpen(t *testing.T) {
	m := newManager()
	token, _ := issue(t, m, "admin")

	r := gin.New()
	r.Use(Authenticate(m, &fakeRevocations{err: errors.New("redis down")}, zap.NewNop()))
	r.GET("/x", whoami)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := serve(r, req)

	assert.Equal(t, "admin", w.Body.String())
}

// ── RequireRole ──

func gated(role string, mw gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if role != "" {
			c.Set(CtxRole, role)
		}
		c.Next()
	})
	r.GET("/api/duty/pending", mw, whoami)
	r.GET("/admin", mw, whoami)
	return r
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name     string
		role     string
		path     string
		status   int
		location string
		bodyHas  string
	}{
		{"api anonymous", "", "/api/duty/pending", http.StatusUnauthorized, "", `"success":false`},
		{"api wrong role", "farmer", "/api/duty/pending", http.StatusForbidden, "", `"code":10003`},
		{"api allowed", "admin", "/api/duty/pending", http.StatusOK, "", "admin"},
		{"page anonymous", "", "/admin", http.StatusFound, "/login?next=%2Fadmin", ""},
		{"page wrong role", "staff", "/admin", http.StatusForbidden, "", "Access Denied"},
		{"page allowed", "admin", "/admin", http.StatusOK, "", "admin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gated(tt.role, RequireRole("/api/", "/login", "admin"))
			w := serve(r, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.status, w.Code)
			if tt.location != "" {
				assert.Equal(t, tt.location, w.Header().Get("Location"))
			}
			if tt.bodyHas != "" {
				assert.Contains(t, w.Body.String(), tt.bodyHas)
			}
		})
	}
}

func TestRequireRole_MultipleRoles(t *testing.T) {
	mw := RequireRole("/api/", "/login", "staff", "admin")

	for _, role := range []string{"staff", "admin"} {
		w := serve(gated(role, mw), httptest.NewRequest(http.MethodGet, "/api/duty/pending", nil))
		assert.Equal(t, http.StatusOK, w.Code, role)
	}
	w := serve(gated("farmer", mw), httptest.NewRequest(http.MethodGet, "/api/duty/pending", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireExactRole_AlwaysJSON(t *testing.T) {
	mw := RequireExactRole("staff")

	w := serve(gated("", mw), httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

	w = serve(gated("admin", mw), httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "staff only")

	w = serve(gated("staff", mw), httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

// ── RateLimit ──

func TestRateLimit(t *testing.T) {
	t.Run("nil limiter passes", func(t *testing.T) {
		r := gin.New()
		r.GET("/x", RateLimit(nil, 1, time.Minute), whoami)
		assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)
	})

	t.Run("limiter error passes", func(t *testing.T) {
		r := gin.New()
		r.GET("/x", RateLimit(&fakeLimiter{err: errors.New("boom")}, 1, time.Minute), whoami)
		assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)
	})

	t.Run("over limit", func(t *testing.T) {
		limiter := &fakeLimiter{allowed: false}
		r := gin.New()
		r.POST("/api/auth/login", RateLimit(limiter, 10, time.Minute), whoami)

		w := serve(r, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Contains(t, w.Body.String(), `"code":10004`)
		require.Len(t, limiter.keys, 1)
		assert.True(t, strings.HasSuffix(limiter.keys[0], ":/api/auth/login"))
	})
}

// ── BodyLimit ──

func TestBodyLimit_DeclaredLengthTooLarge(t *testing.T) {
	r := gin.New()
	r.POST("/x", BodyLimit(8), whoami)

	w := serve(r, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("0123456789abcdef")))

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), `"code":10005`)
}

func TestBodyLimit_WithinLimit(t *testing.T) {
	r := gin.New()
	r.POST("/x", BodyLimit(64), whoami)

	w := serve(r, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"a":1}`)))
	assert.Equal(t, http.StatusOK, w.Code)
}

// ── RequestID / CORS / SecurityHeaders ──

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(requestIDKey)) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := serve(r, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
	assert.Equal(t, "abc-123", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-ID", strings.Repeat("x", 65))
	w = serve(r, req)
	assert.Len(t, w.Header().Get("X-Request-ID"), 36)
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:3000/"}))
	r.GET("/x", whoami)

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := serve(r, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = serve(r, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/x", whoami)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}
