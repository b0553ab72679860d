package services

import (
	"context"
	"net/http"
	"testing"

	"disasterguardian/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_SignupAndLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.auth.Signup(ctx, models.SignupRequest{
		Name:     "Asha",
		Email:    "  Asha@Example.com ",
		Phone:    "+91 98765 43210",
		Password: "secret1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleCitizen, resp.Role)
	assert.Equal(t, "asha@example.com", resp.User.Email)
	assert.Equal(t, "+919876543210", resp.User.Phone)
	assert.NotEmpty(t, resp.Token)
	assert.NotEmpty(t, resp.RefreshToken)

	claims, err := env.jwt.ValidateAccessToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.ID, claims.UserID)
	assert.Equal(t, models.RoleCitizen, claims.Role)

	login, err := env.auth.Login(ctx, models.LoginRequest{Email: " ASHA@example.com ", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, resp.ID, login.ID)

	_, err = env.auth.Login(ctx, models.LoginRequest{Email: "asha@example.com", Password: "wrong"})
	requireServiceStatus(t, err, http.StatusUnauthorized)

	_, err = env.auth.Login(ctx, models.LoginRequest{Email: "nobody@example.com", Password: "secret1"})
	requireServiceStatus(t, err, http.StatusUnauthorized)
}

func TestAuthService_SignupRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req := models.SignupRequest{Name: "Ravi", Email: "ravi@example.com", Password: "secret1", Role: "volunteer"}
	resp, err := env.auth.Signup(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, models.RoleVolunteer, resp.Role)

	_, err = env.auth.Signup(ctx, req)
	requireServiceStatus(t, err, http.StatusConflict)

	_, err = env.auth.Signup(ctx, models.SignupRequest{Name: "Root", Email: "root@example.com", Password: "secret1", Role: "admin"})
	requireServiceStatus(t, err, http.StatusForbidden)

	_, err = env.auth.Signup(ctx, models.SignupRequest{Name: "X", Email: "x@example.com", Password: "123", Role: "superuser"})
	requireServiceStatus(t, err, http.StatusBadRequest)
}

func TestAuthService_RefreshIsSingleUse(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.auth.Signup(ctx, models.SignupRequest{Name: "Meera", Email: "meera@example.com", Password: "secret1"})
	require.NoError(t, err)

	refreshed, err := env.auth.Refresh(ctx, models.RefreshTokenRequest{RefreshToken: resp.RefreshToken})
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.Token)

	_, err = env.auth.Refresh(ctx, models.RefreshTokenRequest{RefreshToken: resp.RefreshToken})
	requireServiceStatus(t, err, http.StatusUnauthorized)

	// access tokens are not refresh tokens
	_, err = env.auth.Refresh(ctx, models.RefreshTokenRequest{RefreshToken: refreshed.Token})
	requireServiceStatus(t, err, http.StatusUnauthorized)
}

func TestAuthService_LogoutRevokesTokens(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.auth.Signup(ctx, models.SignupRequest{Name: "Kiran", Email: "kiran@example.com", Password: "secret1"})
	require.NoError(t, err)

	claims, err := env.jwt.ValidateAccessToken(resp.Token)
	require.NoError(t, err)
	actor := models.Actor{UserID: env.mustUserID(t, claims.UserID), Role: claims.Role, TokenID: claims.ID, ExpiresAt: claims.ExpiresAt.Time}

	require.NoError(t, env.auth.Logout(ctx, actor, resp.RefreshToken))

	revoked, err := env.revoked.IsRevoked(ctx, claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)

	_, err = env.auth.Refresh(ctx, models.RefreshTokenRequest{RefreshToken: resp.RefreshToken})
	requireServiceStatus(t, err, http.StatusUnauthorized)
}
