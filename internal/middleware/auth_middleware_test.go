package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/azvaska/flight-gorilla-sub000/pkg/jwt"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "test-access-secret-key-123456789"
	testIssuer = "flight-gorilla-test"
)

func setupTestJWTService() *jwt.Service {
	return jwt.NewService(testSecret, testIssuer, time.Hour)
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func whoAmI(c *gin.Context) {
	userCtx, exists := GetUserContext(c)
	if !exists {
		c.JSON(http.StatusOK, gin.H{"user_id": "anonymous"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userCtx.UserID, "email": userCtx.Email})
}

func doRequest(router *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware_Success(t *testing.T) {
	jwtService := setupTestJWTService()
	router := setupTestRouter()
	router.GET("/protected", AuthMiddleware(jwtService, testLogger()), whoAmI)

	userID := uuid.New()
	token, err := jwtService.GenerateAccessToken(userID, "ada@example.com", []string{"customer"})
	require.NoError(t, err)

	w := doRequest(router, "Bearer "+token)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), userID.String())
	assert.Contains(t, w.Body.String(), "ada@example.com")
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	jwtService := setupTestJWTService()
	router := setupTestRouter()
	router.GET("/protected", AuthMiddleware(jwtService, testLogger()), whoAmI)

	otherIssuer := jwt.NewService(testSecret, "someone-else", time.Hour)
	foreign, err := otherIssuer.GenerateAccessToken(uuid.New(), "x@example.com", nil)
	require.NoError(t, err)

	wrongSecret := jwt.NewService("wrong-secret-key", testIssuer, time.Hour)
	forged, err := wrongSecret.GenerateAccessToken(uuid.New(), "x@example.com", nil)
	require.NoError(t, err)

	expiredService := jwt.NewService(testSecret, testIssuer, -time.Minute)
	expired, err := expiredService.GenerateAccessToken(uuid.New(), "x@example.com", nil)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{"Missing Header", "", "MISSING_AUTH_HEADER"},
		{"Missing Bearer", "some-token", "INVALID_AUTH_FORMAT"},
		{"Wrong Prefix", "Basic some-token", "INVALID_AUTH_FORMAT"},
		{"Empty Bearer", "Bearer   ", "INVALID_AUTH_FORMAT"},
		{"Malformed Token", "Bearer invalid.token.here", "TOKEN_EXPIRED"},
		{"Wrong Secret", "Bearer " + forged, "INVALID_TOKEN"},
		{"Wrong Issuer", "Bearer " + foreign, "INVALID_TOKEN"},
		{"Expired", "Bearer " + expired, "TOKEN_EXPIRED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, tt.header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), tt.code)
			assert.NotContains(t, w.Body.String(), "user_id")
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	jwtService := setupTestJWTService()
	router := setupTestRouter()
	router.GET("/protected", OptionalAuth(jwtService, testLogger()), whoAmI)

	t.Run("Anonymous", func(t *testing.T) {
		w := doRequest(router, "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "anonymous")
	})

	t.Run("Authenticated", func(t *testing.T) {
		userID := uuid.New()
		token, err := jwtService.GenerateAccessToken(userID, "ada@example.com", nil)
		require.NoError(t, err)

		w := doRequest(router, "Bearer "+token)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), userID.String())
	})

	t.Run("Bad Token Still Rejected", func(t *testing.T) {
		w := doRequest(router, "Bearer nonsense")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestGetUserContext(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("Missing", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		_, ok := GetUserContext(c)
		assert.False(t, ok)
		assert.Nil(t, GetUserID(c))
		assert.Panics(t, func() { MustGetUserContext(c) })
	})

	t.Run("Wrong Type", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Set(UserContextKey, "not-a-user")
		_, ok := GetUserContext(c)
		assert.False(t, ok)
	})

	t.Run("Present", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		userID := uuid.New()
		c.Set(UserContextKey, UserContext{UserID: userID})

		require.NotNil(t, GetUserID(c))
		assert.Equal(t, userID, *GetUserID(c))
		assert.Equal(t, userID, MustGetUserContext(c).UserID)
	})
}

func TestRequireRole(t *testing.T) {
	router := setupTestRouter()
	withRoles := func(roles ...string) gin.HandlerFunc {
		return func(c *gin.Context) {
			c.Set(UserContextKey, UserContext{UserID: uuid.New(), Roles: roles})
		}
	}
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }

	router.GET("/admin", withRoles("customer", "admin"), RequireRole("admin"), ok)
	router.GET("/denied", withRoles("customer"), RequireRole("admin", "airline"), ok)
	router.GET("/anonymous", RequireRole("admin"), ok)

	for path, want := range map[string]int{
		"/admin":     http.StatusOK,
		"/denied":    http.StatusForbidden,
		"/anonymous": http.StatusUnauthorized,
	} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
		assert.Equal(t, want, w.Code, path)
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})

	router := setupTestRouter()
	router.Use(RequestLogger(logger))
	router.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	req := httptest.NewRequest("GET", "/missing", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64; rv:120.0) Gecko/20100101 Firefox/120.0")
	req.Header.Set("X-Forwarded-For", "203.0.113.50")
	router.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	assert.Contains(t, out, `"status":404`)
	assert.Contains(t, out, `"path":"/missing"`)
	assert.Contains(t, out, `"ip":"203.0.113.50"`)
	assert.Contains(t, out, "Firefox")
	assert.Contains(t, out, `"level":"warning"`)
}
