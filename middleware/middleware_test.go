package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"disasterguardian/models"
	"disasterguardian/repositories"
	"disasterguardian/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Data    json.RawMessage  `json:"data"`
	Error   *models.APIError `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var body envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

type brokenRevocations struct{}

func (brokenRevocations) Revoke(context.Context, string, time.Duration) error {
	return errors.New("down")
}
func (brokenRevocations) IsRevoked(context.Context, string) (bool, error) {
	return false, errors.New("redis: connection refused")
}

type authFixture struct {
	jwt     *utils.JWTService
	revoked *repositories.MemoryRevocationStore
	router  *gin.Engine
}

func newAuthFixture(uniform bool) *authFixture {
	f := &authFixture{
		jwt:     utils.NewJWTService("middleware-secret", time.Hour, 24*time.Hour),
		revoked: repositories.NewMemoryRevocationStore(),
	}
	am := NewAuthMiddleware(f.jwt, f.revoked, uniform)

	f.router = gin.New()
	api := f.router.Group("/api", am.RequireAuth())
	api.GET("/me", func(c *gin.Context) {
		actor := MustCurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"id": actor.UserID.Hex(), "role": actor.Role})
	})
	api.GET("/officers", RequireCapability(models.CapManageOfficers), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	api.GET("/volunteer-only", RequireRole(models.RoleVolunteer), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return f
}

func (f *authFixture) token(t *testing.T, role models.Role) (string, string) {
	t.Helper()
	userID := primitive.NewObjectID().Hex()
	pair, err := f.jwt.GenerateTokenPair(userID, "user@example.com", role)
	require.NoError(t, err)
	return pair.AccessToken, userID
}

func (f *authFixture) get(path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestRequireAuth_Messages(t *testing.T) {
	f := newAuthFixture(false)
	token, _ := f.token(t, models.RoleCitizen)

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"missing header", "", MsgNoToken},
		{"single part", "Bearer", MsgTokenError},
		{"three parts", "Bearer a b", MsgTokenError},
		{"wrong scheme", "Basic " + token, MsgTokenMalformed},
		{"garbage token", "Bearer not.a.jwt", MsgTokenInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.get("/api/me", tt.header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, tt.want, decode(t, w).Message)
		})
	}
}

func TestRequireAuth_AcceptsValidToken(t *testing.T) {
	f := newAuthFixture(false)
	token, userID := f.token(t, models.RoleVolunteer)

	w := f.get("/api/me", "bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, userID, body["id"])
	assert.Equal(t, "volunteer", body["role"])
}

func TestRequireAuth_ExpiredToken(t *testing.T) {
	f := newAuthFixture(false)
	expired := utils.NewJWTService("middleware-secret", -time.Minute, time.Hour)
	pair, err := expired.GenerateTokenPair(primitive.NewObjectID().Hex(), "old@example.com", models.RoleCitizen)
	require.NoError(t, err)

	w := f.get("/api/me", "Bearer "+pair.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, MsgTokenInvalid, decode(t, w).Message)
}

func TestRequireAuth_RejectsRefreshToken(t *testing.T) {
	f := newAuthFixture(false)
	pair, err := f.jwt.GenerateTokenPair(primitive.NewObjectID().Hex(), "user@example.com", models.RoleCitizen)
	require.NoError(t, err)

	w := f.get("/api/me", "Bearer "+pair.RefreshToken)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, MsgTokenInvalid, decode(t, w).Message)
}

func TestRequireAuth_RevokedToken(t *testing.T) {
	f := newAuthFixture(false)
	token, _ := f.token(t, models.RoleCitizen)

	claims, err := f.jwt.ValidateAccessToken(token)
	require.NoError(t, err)
	require.NoError(t, f.revoked.Revoke(context.Background(), claims.ID, time.Hour))

	w := f.get("/api/me", "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, MsgTokenInvalid, decode(t, w).Message)
}

func TestRequireAuth_RevocationStoreDown(t *testing.T) {
	jwtService := utils.NewJWTService("middleware-secret", time.Hour, time.Hour)
	am := NewAuthMiddleware(jwtService, brokenRevocations{}, false)
	pair, err := jwtService.GenerateTokenPair(primitive.NewObjectID().Hex(), "user@example.com", models.RoleAdmin)
	require.NoError(t, err)

	actor, err := am.Authenticate(context.Background(), pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, actor.Role)
	assert.False(t, actor.ExpiresAt.IsZero())
}

func TestRequireAuth_UniformMessages(t *testing.T) {
	f := newAuthFixture(true)

	for _, header := range []string{"", "Bearer", "Token abc", "Bearer abc"} {
		w := f.get("/api/me", header)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Unauthorized", decode(t, w).Message, "header %q", header)
	}
}

func TestRequireCapabilityAndRole(t *testing.T) {
	f := newAuthFixture(false)
	citizen, _ := f.token(t, models.RoleCitizen)
	admin, _ := f.token(t, models.RoleAdmin)

	w := f.get("/api/officers", "Bearer "+citizen)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, models.ErrCodeAuthorization, decode(t, w).Error.Code)

	assert.Equal(t, http.StatusOK, f.get("/api/officers", "Bearer "+admin).Code)
	assert.Equal(t, http.StatusForbidden, f.get("/api/volunteer-only", "Bearer "+admin).Code)
}

func TestBearerToken(t *testing.T) {
	token, err := bearerToken("Bearer abc.def")
	require.NoError(t, err)
	assert.Equal(t, "abc.def", token)

	_, err = bearerToken("Bearer ")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestCORS(t *testing.T) {
	router := gin.New()
	router.Use(CORS(NewCORSConfig([]string{"http://localhost:3000"})))
	router.GET("/api/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	preflight := func(origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/api/ping", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := preflight("http://localhost:3000")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPut)
	assert.Equal(t, "43200", w.Header().Get("Access-Control-Max-Age"))

	assert.Equal(t, http.StatusForbidden, preflight("http://evil.example").Code)

	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	req.Header.Set("Origin", "http://localhost:3000/")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), "X-Request-ID")
}

func TestRateLimit_Memory(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{
		Requests:  2,
		Window:    time.Minute,
		SkipPaths: []string{"/health"},
	}, StrategyIP)

	router := gin.New()
	router.Use(limiter.Middleware())
	router.GET("/api/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	hit := func(path, ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	first := hit("/api/ping", "10.0.0.1")
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, hit("/api/ping", "10.0.0.1").Code)

	blocked := hit("/api/ping", "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.NotEmpty(t, blocked.Header().Get("Retry-After"))
	assert.Equal(t, models.ErrCodeRateLimit, decode(t, blocked).Error.Code)

	assert.Equal(t, http.StatusOK, hit("/api/ping", "10.0.0.2").Code, "other clients keep their own budget")
	assert.Equal(t, http.StatusOK, hit("/health", "10.0.0.1").Code)

	limiter.Prune()
}

func TestRateLimit_UserKey(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{Requests: 1, Window: time.Minute}, StrategyUserOrIP)

	userA := models.Actor{UserID: primitive.NewObjectID(), Role: models.RoleCitizen}
	userB := models.Actor{UserID: primitive.NewObjectID(), Role: models.RoleCitizen}

	router := gin.New()
	router.GET("/api/:user", func(c *gin.Context) {
		if c.Param("user") == "a" {
			c.Set(actorKey, userA)
		} else {
			c.Set(actorKey, userB)
		}
	}, limiter.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	hit := func(user string) int {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/"+user, nil))
		return w.Code
	}

	assert.Equal(t, http.StatusOK, hit("a"))
	assert.Equal(t, http.StatusTooManyRequests, hit("a"))
	assert.Equal(t, http.StatusOK, hit("b"))
}

func TestErrorHandler(t *testing.T) {
	router := gin.New()
	router.Use(LoggerMiddleware(LoggerConfig{}), NewErrorHandler("test", nil).Handle())
	router.GET("/panic", func(c *gin.Context) { panic("boom") })
	router.GET("/not-found", func(c *gin.Context) { _ = c.Error(utils.NewNotFoundError("Incident")) })
	router.GET("/plain", func(c *gin.Context) { _ = c.Error(errors.New("something broke")) })
	router.NoRoute(NotFoundHandler())

	serve := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	w := serve("/panic")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.False(t, decode(t, w).Success)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = serve("/not-found")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Incident not found", decode(t, w).Message)

	assert.Equal(t, http.StatusInternalServerError, serve("/plain").Code)
	assert.Equal(t, http.StatusNotFound, serve("/nowhere").Code)
}

func TestMetricsMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(Metrics())
	router.GET("/api/incidents/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/incidents/abc", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
