package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"store-rating-server/auth"
	"store-rating-server/entities"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"]
}

func guardedRouter(issuer *auth.TokenIssuer, roles ...entities.Role) *gin.Engine {
	r := gin.New()
	handlers := []gin.HandlerFunc{RequireAuth(issuer)}
	if len(roles) > 0 {
		handlers = append(handlers, RequireRole(roles...))
	}
	handlers = append(handlers, func(c *gin.Context) {
		p, _ := PrincipalFrom(c)
		c.JSON(http.StatusOK, gin.H{"user": p.UserID, "role": p.Role})
	})
	r.GET("/guarded", handlers...)
	return r
}

func get(r http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuth(t *testing.T) {
	issuer := auth.NewTokenIssuer("secret", time.Hour)
	r := guardedRouter(issuer)

	w := get(r, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "No token provided", errorBody(t, w))

	w = get(r, "Basic abc")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "No token provided", errorBody(t, w))

	w = get(r, "Bearer not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid token", errorBody(t, w))

	foreign, err := auth.NewTokenIssuer("other", time.Hour).Issue("u1", entities.RoleNormalUser)
	require.NoError(t, err)
	w = get(r, "Bearer "+foreign)
	assert.Equal(t, "Invalid token", errorBody(t, w))

	token, err := issuer.Issue("u1", entities.RoleNormalUser)
	require.NoError(t, err)
	w = get(r, "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user":"u1"`)
}

func TestRequireRole(t *testing.T) {
	issuer := auth.NewTokenIssuer("secret", time.Hour)
	r := guardedRouter(issuer, entities.RoleSystemAdmin)

	userToken, err := issuer.Issue("u1", entities.RoleNormalUser)
	require.NoError(t, err)
	w := get(r, "Bearer "+userToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Insufficient permissions", errorBody(t, w))

	adminToken, err := issuer.Issue("a1", entities.RoleSystemAdmin)
	require.NoError(t, err)
	w = get(r, "Bearer "+adminToken)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRoleWithoutPrincipal(t *testing.T) {
	r := gin.New()
	r.GET("/guarded", RequireRole(entities.RoleSystemAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })
	w := get(r, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestBearerToken(t *testing.T) {
	tok, ok := bearerToken("bearer abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", tok)

	_, ok = bearerToken("Bearer ")
	assert.False(t, ok)
}

func postSignup(r http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestValidateSignup(t *testing.T) {
	r := gin.New()
	r.POST("/signup", ValidateSignup(), func(c *gin.Context) {
		var req SignupRequest
		if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"email": req.Email})
	})

	w := postSignup(r, `{"name":"short","email":"bad","password":"x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Name must be 20-60 characters", errorBody(t, w))

	w = postSignup(r, `{"name":"Alexandra Montgomery Jr","email":"bad","password":"x"}`)
	assert.Equal(t, "Invalid email format", errorBody(t, w))

	w = postSignup(r, `{"name":"Alexandra Montgomery Jr","email":"alex@example.com","password":"weakpass"}`)
	assert.Equal(t, "Password must be 8-16 characters with 1 uppercase letter and 1 special character", errorBody(t, w))

	w = postSignup(r, `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid request body", errorBody(t, w))

	w = postSignup(r, `{"name":"Alexandra Montgomery Jr","email":"alex@example.com","password":"Secret#123"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "alex@example.com")
}

func TestRateLimiter(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, 2, log)
	rl.now = func() time.Time { return now }

	r := gin.New()
	r.POST("/login", rl.Handler(), func(c *gin.Context) { c.Status(http.StatusOK) })
	login := func() int {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(nil)))
		return w.Code
	}

	assert.Equal(t, http.StatusOK, login())
	assert.Equal(t, http.StatusOK, login())
	assert.Equal(t, http.StatusTooManyRequests, login())

	now = now.Add(time.Second)
	assert.Equal(t, http.StatusOK, login())

	assert.Equal(t, 1, rl.clients())
	now = now.Add(time.Hour)
	rl.Cleanup(time.Minute)
	assert.Equal(t, 0, rl.clients())
}
