package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"disasterguardian/events"
	"disasterguardian/interfaces"
	"disasterguardian/middleware"
	"disasterguardian/models"
	"disasterguardian/repositories"
	"disasterguardian/services"
	"disasterguardian/utils"
	"disasterguardian/websocket"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ============== FAKES ==============

type memoryUsers struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]models.User
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{users: map[primitive.ObjectID]models.User{}}
}

func (m *memoryUsers) Create(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return interfaces.ErrDuplicate
		}
	}
	user.ID = primitive.NewObjectID()
	m.users[user.ID] = *user
	return nil
}

func (m *memoryUsers) GetByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return &u, nil
}

func (m *memoryUsers) find(match func(models.User) bool) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (m *memoryUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return m.find(func(u models.User) bool { return u.Email == email })
}

func (m *memoryUsers) GetByPhone(_ context.Context, phone string) (*models.User, error) {
	return m.find(func(u models.User) bool { return u.Phone == phone })
}

func (m *memoryUsers) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	var out []models.User
	for _, id := range ids {
		if u, err := m.GetByID(ctx, id); err == nil {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *memoryUsers) Update(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return interfaces.ErrNotFound
	}
	m.users[user.ID] = *user
	return nil
}

type memoryDonations struct {
	donations []models.Donation
}

func (m *memoryDonations) Create(_ context.Context, d *models.Donation) error {
	d.ID = primitive.NewObjectID()
	m.donations = append(m.donations, *d)
	return nil
}

func (m *memoryDonations) List(context.Context, int64) ([]models.Donation, error) {
	return m.donations, nil
}

func (m *memoryDonations) Stats(context.Context, time.Time) (*models.DonationStats, error) {
	stats := &models.DonationStats{TotalDonations: int64(len(m.donations))}
	for _, d := range m.donations {
		if d.Status == models.DonationCompleted {
			stats.CompletedDonations++
			stats.TotalAmount += d.Amount
		}
	}
	return stats, nil
}

// ============== FIXTURE ==============

type apiFixture struct {
	router  *gin.Engine
	jwt     *utils.JWTService
	auth    *middleware.AuthMiddleware
	users   *memoryUsers
	revoked *repositories.MemoryRevocationStore
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	f := &apiFixture{
		jwt:     utils.NewJWTService("controller-secret", time.Hour, 24*time.Hour),
		users:   newMemoryUsers(),
		revoked: repositories.NewMemoryRevocationStore(),
	}
	f.auth = middleware.NewAuthMiddleware(f.jwt, f.revoked, false)

	validator := utils.NewValidationService()
	passwords := utils.NewPasswordService(4)

	authController := NewAuthController(services.NewAuthService(f.users, f.jwt, passwords, validator, f.revoked))
	userController := NewUserController(services.NewUserService(f.users, validator))
	donationController := NewDonationController(services.NewDonationService(&memoryDonations{}, validator))

	f.router = gin.New()
	api := f.router.Group("/api")
	api.POST("/auth/signup", authController.Signup)
	api.POST("/auth/login", authController.Login)
	api.POST("/auth/refresh", authController.RefreshToken)
	api.POST("/auth/logout", f.auth.RequireAuth(), authController.Logout)
	api.GET("/users/me", f.auth.RequireAuth(), userController.GetProfile)
	api.PUT("/users/me", f.auth.RequireAuth(), userController.UpdateProfile)
	api.POST("/donations", donationController.CreateDonation)
	api.GET("/donations/stats", f.auth.RequireAuth(), middleware.RequireCapability(models.CapViewDonations), donationController.Stats)
	return f
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *apiFixture) adminToken(t *testing.T) string {
	t.Helper()
	pair, err := f.jwt.GenerateTokenPair(primitive.NewObjectID().Hex(), "admin@example.com", models.RoleAdmin)
	require.NoError(t, err)
	return pair.AccessToken
}

type apiBody struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Data    json.RawMessage  `json:"data"`
	Error   *models.APIError `json:"error"`
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
}

// ============== TESTS ==============

func TestAuthController_SignupLoginLogout(t *testing.T) {
	f := newAPIFixture(t)

	signup := map[string]string{
		"name":     "Asha",
		"email":    "Asha@Example.com",
		"phone":    "9876500000",
		"password": "secret1",
		"role":     "volunteer",
	}
	w := f.do(t, http.MethodPost, "/api/auth/signup", "", signup)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created models.AuthResponse
	decodeBody(t, w, &created)
	assert.True(t, created.Success)
	assert.NotEmpty(t, created.Token)
	assert.NotEmpty(t, created.RefreshToken)
	assert.Equal(t, models.RoleVolunteer, created.Role)
	assert.Equal(t, "asha@example.com", created.User.Email)

	assert.Equal(t, http.StatusConflict, f.do(t, http.MethodPost, "/api/auth/signup", "", signup).Code)

	signup["email"] = "root@example.com"
	signup["role"] = "admin"
	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodPost, "/api/auth/signup", "", signup).Code)

	w = f.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "asha@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	var failed apiBody
	decodeBody(t, w, &failed)
	assert.Equal(t, "Invalid email or password", failed.Message)

	w = f.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "asha@example.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code)
	var login models.AuthResponse
	decodeBody(t, w, &login)
	assert.Equal(t, created.ID, login.ID)

	w = f.do(t, http.MethodGet, "/api/users/me", login.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me apiBody
	decodeBody(t, w, &me)
	var profile models.UserProfile
	require.NoError(t, json.Unmarshal(me.Data, &profile))
	assert.Equal(t, "Asha", profile.Name)

	assert.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/auth/logout", login.Token, nil).Code)

	w = f.do(t, http.MethodGet, "/api/users/me", login.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	decodeBody(t, w, &failed)
	assert.Equal(t, middleware.MsgTokenInvalid, failed.Message)
}

func TestAuthController_BadBody(t *testing.T) {
	f := newAPIFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{"email": "x@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body apiBody
	decodeBody(t, w, &body)
	assert.Equal(t, models.ErrCodeValidation, body.Error.Code)
}

func TestUserController_UpdateProfile(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"name": "Ravi", "email": "ravi@example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created models.AuthResponse
	decodeBody(t, w, &created)
	assert.Equal(t, models.RoleCitizen, created.Role)

	w = f.do(t, http.MethodPut, "/api/users/me", created.Token, map[string]string{"address": "12 Lake Road"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body apiBody
	decodeBody(t, w, &body)
	var profile models.UserProfile
	require.NoError(t, json.Unmarshal(body.Data, &profile))
	assert.Equal(t, "12 Lake Road", profile.Address)
}

func TestDonationController(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/api/donations", "", map[string]interface{}{
		"donor":  "Meera",
		"email":  "meera@example.com",
		"amount": 50,
		"type":   "credit-card",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var body apiBody
	decodeBody(t, w, &body)
	var donation models.Donation
	require.NoError(t, json.Unmarshal(body.Data, &donation))
	assert.Equal(t, models.DonationCompleted, donation.Status)
	assert.Equal(t, "USD", donation.Currency)

	w = f.do(t, http.MethodPost, "/api/donations", "", map[string]interface{}{
		"donor": "Meera", "email": "meera@example.com", "amount": 0, "type": "credit-card",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	citizen, err := f.jwt.GenerateTokenPair(primitive.NewObjectID().Hex(), "c@example.com", models.RoleCitizen)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodGet, "/api/donations/stats", citizen.AccessToken, nil).Code)

	w = f.do(t, http.MethodGet, "/api/donations/stats", f.adminToken(t), nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &body)
	var stats models.DonationStats
	require.NoError(t, json.Unmarshal(body.Data, &stats))
	assert.Equal(t, int64(1), stats.CompletedDonations)
	assert.Equal(t, 50.0, stats.TotalAmount)
}

func TestHealthController(t *testing.T) {
	hc := NewHealthController("test")
	hc.AddCheck("mongodb", func(context.Context) error { return nil })
	hc.AddCheck("redis", nil)
	hc.AddStats("sms", func(context.Context) interface{} { return gin.H{"queued": 0} })

	router := gin.New()
	router.GET("/health", hc.HealthCheck)
	router.GET("/health/detailed", hc.DetailedHealthCheck)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var health models.HealthResponse
	decodeBody(t, w, &health)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "disabled", health.Services["redis"])
	assert.Equal(t, "test", health.Version)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/detailed", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var detailed map[string]interface{}
	decodeBody(t, w, &detailed)
	assert.Contains(t, detailed["details"], "sms")

	hc.AddCheck("mongodb", func(context.Context) error { return errors.New("no reachable servers") })
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	decodeBody(t, w, &health)
	assert.Equal(t, "unhealthy", health.Services["mongodb"])
}

func TestQueryLimit(t *testing.T) {
	tests := map[string]int64{
		"":           defaultListLimit,
		"?limit=20":  20,
		"?limit=-1":  defaultListLimit,
		"?limit=abc": defaultListLimit,
		"?limit=999": maxListLimit,
	}
	for query, want := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/api/sms-logs"+query, nil)
		assert.Equal(t, want, queryLimit(c), query)
	}
}

func TestWebSocketController(t *testing.T) {
	bus := events.NewBus()
	hub := websocket.NewHub(bus, 0)
	hub.Run()

	jwtService := utils.NewJWTService("controller-secret", time.Hour, time.Hour)
	auth := middleware.NewAuthMiddleware(jwtService, nil, false)
	wsc := NewWebSocketController(hub, auth, nil)

	router := gin.New()
	router.GET("/ws", wsc.HandleWebSocket)
	server := httptest.NewServer(router)
	t.Cleanup(func() {
		hub.Shutdown()
		server.Close()
		bus.Close()
	})
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"

	_, resp, err := gorilla.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	userID := primitive.NewObjectID().Hex()
	pair, err := jwtService.GenerateTokenPair(userID, "v@example.com", models.RoleVolunteer)
	require.NoError(t, err)

	conn, _, err := gorilla.DefaultDialer.Dial(wsURL+"?token="+pair.AccessToken, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame struct {
		Event string             `json:"event"`
		Data  models.WSConnected `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, models.EventConnected, frame.Event)
	assert.Equal(t, userID, frame.Data.UserID)
	assert.Equal(t, 30, frame.Data.PollIntervalSeconds)
}
