package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"opsboard/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func identityRouter(config middleware.IdentityConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(middleware.Identity(config))
	router.GET("/whoami", func(c *gin.Context) {
		id, ok := middleware.UserID(c)
		c.JSON(http.StatusOK, gin.H{"user_id": id, "known": ok})
	})
	return router
}

func doRequest(router http.Handler, token string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("GET", "/whoami", nil)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestIdentity_DisabledPassesThrough(t *testing.T) {
	router := identityRouter(middleware.IdentityConfig{Enabled: false})

	w := doRequest(router, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":0,"known":false}`, w.Body.String())
}

func TestIdentity_ValidToken(t *testing.T) {
	router := identityRouter(middleware.IdentityConfig{Enabled: true, Secret: testSecret, Issuer: "opsboard"})

	token, err := middleware.IssueToken(testSecret, "opsboard", 42, time.Hour)
	require.NoError(t, err)

	w := doRequest(router, "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":42,"known":true}`, w.Body.String())
}

func TestIdentity_Rejections(t *testing.T) {
	router := identityRouter(middleware.IdentityConfig{Enabled: true, Secret: testSecret, Issuer: "opsboard"})

	expired, err := middleware.IssueToken(testSecret, "opsboard", 1, -time.Minute)
	require.NoError(t, err)
	wrongSecret, err := middleware.IssueToken("other-secret", "opsboard", 1, time.Hour)
	require.NoError(t, err)
	wrongIssuer, err := middleware.IssueToken(testSecret, "someone-else", 1, time.Hour)
	require.NoError(t, err)
	noUser, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss": "opsboard",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{"missing header", "", "missing_token"},
		{"not bearer", "Basic abc", "invalid_token_format"},
		{"garbage", "Bearer not-a-token", "invalid_token"},
		{"expired", "Bearer " + expired, "expired_token"},
		{"wrong secret", "Bearer " + wrongSecret, "invalid_token"},
		{"wrong issuer", "Bearer " + wrongIssuer, "invalid_token"},
		{"no user", "Bearer " + noUser, "invalid_token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, tt.header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), `"error":"`+tt.code+`"`)
		})
	}
}

func TestParseToken_NumericClaim(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 7,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	id, err := middleware.ParseToken(token, testSecret, "")
	require.NoError(t, err)
	assert.Equal(t, uint(7), id)
}

func TestParseToken_RejectsNoneAlgorithm(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"user_id": "1",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = middleware.ParseToken(token, testSecret, "")
	assert.Error(t, err)
}
