package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthMiddlewareHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
	}{
		{"Empty header", "", http.StatusUnauthorized},
		{"Invalid format", "Token abc", http.StatusUnauthorized},
		{"Empty token", "Bearer ", http.StatusUnauthorized},
		{"Garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			req := httptest.NewRequest("GET", "/", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			c.Request = req

			AuthMiddleware("secret")(c)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	token, err := GenerateAccessToken(5, "m@example.com", "member", "secret")
	require.NoError(t, err)

	router := gin.New()
	router.Use(AuthMiddleware("secret"))
	router.GET("/", func(c *gin.Context) {
		userID, ok := GetUserID(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"user_id": userID})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":5`)
}

func TestAuthMiddleware_RefreshTokenRejected(t *testing.T) {
	gin.SetMode(gin.TestMode)

	token, err := GenerateRefreshToken(5, "m@example.com", "member", "secret")
	require.NoError(t, err)

	router := gin.New()
	router.Use(AuthMiddleware("secret"))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		userRole       any
		requiredRole   string
		expectedStatus int
	}{
		{"Matching role", "admin", "admin", http.StatusOK},
		{"Wrong role", "member", "admin", http.StatusForbidden},
		{"Missing role", nil, "admin", http.StatusUnauthorized},
		{"Non-string role", 42, "admin", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("GET", "/", nil)

			if tt.userRole != nil {
				c.Set("user_role", tt.userRole)
			}

			RequireRole(tt.requiredRole)(c)

			if tt.expectedStatus == http.StatusOK {
				assert.False(t, c.IsAborted())
			} else {
				assert.Equal(t, tt.expectedStatus, w.Code)
			}
		})
	}
}
