package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

const (
	testSecret = "test-secret-at-least-32-bytes-long"
	testIssuer = "https://abc.supabase.co/auth/v1"
)

func signToken(t *testing.T, method jwt.SigningMethod, secret string, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(method, claims)
	signed, err := token.SignedString([]byte(secret))
	assert.NoError(t, err)
	return signed
}

func validClaims(userID uuid.UUID) Claims {
	return Claims{
		Email: "user@example.com",
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    testIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func newAuthRouter(t *testing.T) (*gin.Engine, *Verifier) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	verifier, err := NewVerifier(testSecret, testIssuer)
	assert.NoError(t, err)

	r := gin.New()
	r.GET("/protected", AuthMiddleware(verifier), func(c *gin.Context) {
		user, ok := CurrentUser(c)
		assert.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"user_id": user.ID.String(), "email": user.Email})
	})
	return r, verifier
}

func doRequest(r *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestNewVerifierRequiresSecret(t *testing.T) {
	verifier, err := NewVerifier("", testIssuer)
	assert.Nil(t, verifier)
	assert.Error(t, err)
}

func TestAuthMiddleware(t *testing.T) {
	userID := uuid.New()
	r, _ := newAuthRouter(t)

	t.Run("valid token", func(t *testing.T) {
		token := signToken(t, jwt.SigningMethodHS256, testSecret, validClaims(userID))
		w := doRequest(r, "Bearer "+token)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), userID.String())
		assert.Contains(t, w.Body.String(), "user@example.com")
	})

	t.Run("missing header", func(t *testing.T) {
		w := doRequest(r, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "AUTH_MISSING")
	})

	t.Run("malformed header", func(t *testing.T) {
		w := doRequest(r, "just-a-token")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "AUTH_INVALID")
	})

	t.Run("wrong secret", func(t *testing.T) {
		token := signToken(t, jwt.SigningMethodHS256, "another-secret-entirely-wrong!!", validClaims(userID))
		w := doRequest(r, "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "AUTH_INVALID")
	})

	t.Run("wrong issuer", func(t *testing.T) {
		claims := validClaims(userID)
		claims.Issuer = "https://evil.example.com"
		token := signToken(t, jwt.SigningMethodHS256, testSecret, claims)
		w := doRequest(r, "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "AUTH_INVALID")
	})

	t.Run("wrong algorithm", func(t *testing.T) {
		token := signToken(t, jwt.SigningMethodHS512, testSecret, validClaims(userID))
		w := doRequest(r, "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "AUTH_INVALID")
	})

	t.Run("expired token", func(t *testing.T) {
		claims := validClaims(userID)
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
		token := signToken(t, jwt.SigningMethodHS256, testSecret, claims)
		w := doRequest(r, "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "AUTH_EXPIRED")
	})

	t.Run("missing expiry", func(t *testing.T) {
		claims := validClaims(userID)
		claims.ExpiresAt = nil
		token := signToken(t, jwt.SigningMethodHS256, testSecret, claims)
		w := doRequest(r, "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "AUTH_INVALID")
	})

	t.Run("non uuid subject", func(t *testing.T) {
		claims := validClaims(userID)
		claims.Subject = "not-a-uuid"
		token := signToken(t, jwt.SigningMethodHS256, testSecret, claims)
		w := doRequest(r, "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "AUTH_INVALID")
	})
}
