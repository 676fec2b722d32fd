package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIKeyAuthenticator(t *testing.T) {
	a := NewAPIKeyAuthenticator("", []string{"secret-1", ""})
	ctx := context.Background()

	p, err := a.Validate(ctx, "secret-1")
	require.NoError(t, err)
	assert.Equal(t, AuthMethodAPIKey, p.Method)
	assert.NotContains(t, p.Subject, "secret")

	_, err = a.Validate(ctx, "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = a.Validate(ctx, "")
	assert.ErrorIs(t, err, ErrMissingCredentials)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-API-Key", "secret-1")
	assert.Equal(t, "secret-1", a.Credential(req))
}

func TestJWTAuthenticator(t *testing.T) {
	a := NewJWTAuthenticator(JWTConfig{Secret: "s3cret", Issuer: "vectorhub", Audience: "vectorhub-api"})
	ctx := context.Background()

	token, exp, err := a.GenerateToken("alice")
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))

	p, err := a.Validate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "alice", p.Subject)
	assert.Equal(t, AuthMethodJWT, p.Method)

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTAuthenticator(JWTConfig{Secret: "other", Issuer: "vectorhub", Audience: "vectorhub-api"})
		_, err := other.Validate(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong audience", func(t *testing.T) {
		other := NewJWTAuthenticator(JWTConfig{Secret: "s3cret", Issuer: "vectorhub", Audience: "elsewhere"})
		_, err := other.Validate(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		claims := jwt.RegisteredClaims{
			Subject:   "alice",
			Issuer:    "vectorhub",
			Audience:  jwt.ClaimStrings{"vectorhub-api"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		}
		expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("s3cret"))
		require.NoError(t, err)
		_, err = a.Validate(ctx, expired)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("none algorithm rejected", func(t *testing.T) {
		claims := jwt.RegisteredClaims{
			Subject:   "alice",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = a.Validate(ctx, unsigned)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestManager_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	jwtAuth := NewJWTAuthenticator(JWTConfig{Secret: "s3cret"})
	m := NewManager(NewAPIKeyAuthenticator("X-API-Key", []string{"k1"}), jwtAuth)

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/x", func(c *gin.Context) {
		p := PrincipalFrom(c)
		c.String(http.StatusOK, string(p.Method))
	})

	do := func(setup func(*http.Request)) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		setup(req)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := do(func(*http.Request) {})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"missing credentials"}`, w.Body.String())

	w = do(func(r *http.Request) { r.Header.Set("X-API-Key", "k1") })
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "apikey", w.Body.String())

	w = do(func(r *http.Request) { r.Header.Set("X-API-Key", "bad") })
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, _, err := jwtAuth.GenerateToken("svc")
	require.NoError(t, err)
	w = do(func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) })
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "jwt", w.Body.String())
}

func TestManager_Disabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewManager()
	assert.False(t, m.Enabled())

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
