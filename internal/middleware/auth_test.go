package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tasktrack/backend/internal/models"
	"tasktrack/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthRouter(tokens *services.TokenService) *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/protected", Auth(tokens), func(c *gin.Context) {
		identity, err := IdentityFromContext(c)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"username": identity.Username})
	})
	router.GET("/admin", Auth(tokens), RequireAdmin(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

func issueToken(t *testing.T, tokens *services.TokenService, role string) string {
	t.Helper()

	signed, err := tokens.Issue(&models.User{
		ID:       uuid.Must(uuid.NewV4()),
		Username: "alice",
		Email:    "alice@example.com",
		Role:     role,
	})
	require.NoError(t, err)
	return signed
}

func TestAuthMissingHeader(t *testing.T) {
	router := newAuthRouter(services.NewTokenService("test-secret", time.Hour))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMalformedHeader(t *testing.T) {
	tokens := services.NewTokenService("test-secret", time.Hour)
	router := newAuthRouter(tokens)

	for _, header := range []string{"Basic abc", "Bearer", issueToken(t, tokens, models.RoleUser)} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", header)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code, "header %q", header)
	}
}

func TestAuthInvalidToken(t *testing.T) {
	router := newAuthRouter(services.NewTokenService("test-secret", time.Hour))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid or expired token")
}

func TestAuthExpiredToken(t *testing.T) {
	issuer := services.NewTokenService("test-secret", -time.Minute)
	router := newAuthRouter(services.NewTokenService("test-secret", time.Hour))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, issuer, models.RoleUser))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthValidToken(t *testing.T) {
	tokens := services.NewTokenService("test-secret", time.Hour)
	router := newAuthRouter(tokens)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, tokens, models.RoleUser))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alice")
}

func TestRequireAdminRejectsUser(t *testing.T) {
	tokens := services.NewTokenService("test-secret", time.Hour)
	router := newAuthRouter(tokens)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, tokens, models.RoleUser))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireAdminAllowsAdmin(t *testing.T) {
	tokens := services.NewTokenService("test-secret", time.Hour)
	router := newAuthRouter(tokens)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, tokens, models.RoleAdmin))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
