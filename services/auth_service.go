package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"disasterguardian/interfaces"
	"disasterguardian/models"
	"disasterguardian/utils"

	"github.com/sirupsen/logrus"
)

type AuthService struct {
	userRepo        interfaces.UserRepository
	jwtService      *utils.JWTService
	passwordService *utils.PasswordService
	validator       *utils.ValidationService
	revocations     interfaces.RevocationStore
}

func NewAuthService(
	userRepo interfaces.UserRepository,
	jwtService *utils.JWTService,
	passwordService *utils.PasswordService,
	validator *utils.ValidationService,
	revocations interfaces.RevocationStore,
) *AuthService {
	return &AuthService{
		userRepo:        userRepo,
		jwtService:      jwtService,
		passwordService: passwordService,
		validator:       validator,
		revocations:     revocations,
	}
}

func (as *AuthService) Signup(ctx context.Context, req models.SignupRequest) (*models.AuthResponse, error) {
	req.Email = utils.NormalizeEmail(req.Email)
	if err := as.validator.Validate(req); err != nil {
		return nil, err
	}

	role := models.RoleCitizen
	if req.Role != "" {
		role, _ = models.ParseRole(req.Role)
	}
	if role == models.RoleAdmin {
		return nil, utils.NewForbiddenError("Admin accounts cannot be self-registered")
	}

	email := req.Email
	if _, err := as.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, utils.NewConflictError("User with this email already exists")
	} else if !errors.Is(err, interfaces.ErrNotFound) {
		return nil, utils.NewDatabaseError("find user", err)
	}

	hash, err := as.passwordService.Hash(req.Password)
	if err != nil {
		return nil, utils.NewInternalError("Failed to create user", err)
	}

	language := req.Language
	if language == "" {
		language = "en"
	}

	now := time.Now()
	user := &models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		Phone:        utils.NormalizePhoneNumber(req.Phone),
		Address:      strings.TrimSpace(req.Address),
		Language:     language,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := as.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, interfaces.ErrDuplicate) {
			return nil, utils.NewConflictError("User with this email already exists")
		}
		return nil, utils.NewDatabaseError("create user", err)
	}

	logrus.WithFields(logrus.Fields{"user_id": user.ID.Hex(), "role": role}).Info("User registered")
	return as.issue(user, "User registered successfully")
}

func (as *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	req.Email = utils.NormalizeEmail(req.Email)
	if err := as.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := as.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, utils.NewUnauthorizedError("Invalid email or password")
		}
		return nil, utils.NewDatabaseError("find user", err)
	}

	if !as.passwordService.Compare(user.PasswordHash, req.Password) {
		return nil, utils.NewUnauthorizedError("Invalid email or password")
	}

	return as.issue(user, "Login successful")
}

// Refresh exchanges a refresh token for a new pair. The user is re-read so
// role changes take effect.
func (as *AuthService) Refresh(ctx context.Context, req models.RefreshTokenRequest) (*models.AuthResponse, error) {
	if err := as.validator.Validate(req); err != nil {
		return nil, err
	}

	claims, err := as.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		return nil, utils.NewUnauthorizedError("Invalid refresh token")
	}

	revoked, err := as.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, utils.NewInternalError("Failed to check token", err)
	}
	if revoked {
		return nil, utils.NewUnauthorizedError("Invalid refresh token")
	}

	userID, err := utils.ParseObjectID(claims.UserID, "user")
	if err != nil {
		return nil, utils.NewUnauthorizedError("Invalid refresh token")
	}

	user, err := as.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, utils.NewUnauthorizedError("Invalid refresh token")
		}
		return nil, utils.NewDatabaseError("find user", err)
	}

	// single use
	if err := as.revocations.Revoke(ctx, claims.ID, claims.Remaining()); err != nil {
		logrus.WithError(err).Warn("Failed to revoke used refresh token")
	}

	return as.issue(user, "Token refreshed")
}

// Logout revokes the presented access token and, when given, the refresh
// token until they expire.
func (as *AuthService) Logout(ctx context.Context, actor models.Actor, refreshToken string) error {
	if actor.TokenID != "" {
		if err := as.revocations.Revoke(ctx, actor.TokenID, time.Until(actor.ExpiresAt)); err != nil {
			return utils.NewInternalError("Failed to revoke token", err)
		}
	}

	if refreshToken != "" {
		claims, err := as.jwtService.ValidateRefreshToken(refreshToken)
		if err == nil && claims.UserID == actor.UserID.Hex() {
			if err := as.revocations.Revoke(ctx, claims.ID, claims.Remaining()); err != nil {
				return utils.NewInternalError("Failed to revoke token", err)
			}
		}
	}

	logrus.WithField("user_id", actor.UserID.Hex()).Info("User logged out")
	return nil
}

func (as *AuthService) issue(user *models.User, message string) (*models.AuthResponse, error) {
	pair, err := as.jwtService.GenerateTokenPair(user.ID.Hex(), user.Email, user.Role)
	if err != nil {
		return nil, utils.NewInternalError("Failed to generate authentication tokens", err)
	}

	return &models.AuthResponse{
		Success:      true,
		Message:      message,
		Token:        pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
		ID:           user.ID.Hex(),
		Role:         user.Role,
		User:         user.ToProfile(),
	}, nil
}
