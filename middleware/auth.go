package middleware

import (
	"context"
	"errors"
	"strings"
	"time"

	"disasterguardian/interfaces"
	"disasterguardian/models"
	"disasterguardian/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const actorKey = "actor"

// Failure messages for the bearer token check.
const (
	MsgNoToken        = "No token provided"
	MsgTokenError     = "Token error"
	MsgTokenMalformed = "Token malformatted"
	MsgTokenInvalid   = "Token invalid"
	msgUniform        = "Unauthorized"
)

var (
	ErrNoToken        = errors.New(MsgNoToken)
	ErrTokenError     = errors.New(MsgTokenError)
	ErrTokenMalformed = errors.New(MsgTokenMalformed)
	ErrTokenInvalid   = errors.New(MsgTokenInvalid)
)

// AuthMiddleware verifies access tokens. Claims are trusted as issued: no
// database lookup happens per request.
type AuthMiddleware struct {
	jwtService  *utils.JWTService
	revocations interfaces.RevocationStore
	uniform     bool
}

func NewAuthMiddleware(jwtService *utils.JWTService, revocations interfaces.RevocationStore, uniformErrors bool) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService:  jwtService,
		revocations: revocations,
		uniform:     uniformErrors,
	}
}

// RequireAuth validates the bearer token and attaches the caller.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err == nil {
			var actor models.Actor
			actor, err = am.Authenticate(c.Request.Context(), token)
			if err == nil {
				c.Set(actorKey, actor)
				c.Set("userID", actor.UserID.Hex())
				c.Set("userRole", actor.Role)
				c.Next()
				return
			}
		}

		am.reject(c, err)
	}
}

// Authenticate turns a raw access token into the caller. Used for the
// WebSocket handshake where the token arrives as a query parameter.
func (am *AuthMiddleware) Authenticate(ctx context.Context, token string) (models.Actor, error) {
	if token == "" {
		return models.Actor{}, ErrNoToken
	}

	claims, err := am.jwtService.ValidateAccessToken(token)
	if err != nil {
		logrus.Debugf("Rejected token: %v", err)
		return models.Actor{}, ErrTokenInvalid
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return models.Actor{}, ErrTokenInvalid
	}

	if am.revocations != nil && claims.ID != "" {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()

		revoked, err := am.revocations.IsRevoked(ctx, claims.ID)
		if err != nil {
			// an unreachable revocation store must not lock everyone out
			logrus.WithError(err).Warn("Revocation check failed")
		} else if revoked {
			return models.Actor{}, ErrTokenInvalid
		}
	}

	actor := models.Actor{
		UserID:  userID,
		Email:   claims.Email,
		Role:    claims.Role,
		TokenID: claims.ID,
	}
	if claims.ExpiresAt != nil {
		actor.ExpiresAt = claims.ExpiresAt.Time
	}
	return actor, nil
}

func (am *AuthMiddleware) reject(c *gin.Context, err error) {
	message := MsgTokenInvalid
	switch {
	case errors.Is(err, ErrNoToken):
		message = MsgNoToken
	case errors.Is(err, ErrTokenError):
		message = MsgTokenError
	case errors.Is(err, ErrTokenMalformed):
		message = MsgTokenMalformed
	}
	if am.uniform {
		message = msgUniform
	}

	utils.UnauthorizedResponse(c, message)
	c.Abort()
}

// bearerToken splits "Bearer <token>".
func bearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrNoToken
	}

	parts := strings.Split(header, " ")
	if len(parts) != 2 {
		return "", ErrTokenError
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return "", ErrTokenMalformed
	}
	if parts[1] == "" {
		return "", ErrTokenInvalid
	}
	return parts[1], nil
}

// RequireRole validates user has specific role
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := CurrentUser(c)
		if !ok {
			utils.UnauthorizedResponse(c, msgUniform)
			c.Abort()
			return
		}

		for _, role := range roles {
			if actor.Role == role {
				c.Next()
				return
			}
		}

		utils.ForbiddenResponse(c, "Insufficient permissions")
		c.Abort()
	}
}

func RequireCapability(capability models.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := CurrentUser(c)
		if !ok {
			utils.UnauthorizedResponse(c, msgUniform)
			c.Abort()
			return
		}
		if !actor.Can(capability) {
			utils.ForbiddenResponse(c, "Insufficient permissions")
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the caller attached by RequireAuth.
func CurrentUser(c *gin.Context) (models.Actor, bool) {
	v, exists := c.Get(actorKey)
	if !exists {
		return models.Actor{}, false
	}
	actor, ok := v.(models.Actor)
	return actor, ok
}

// MustCurrentUser is for handlers mounted behind RequireAuth.
func MustCurrentUser(c *gin.Context) models.Actor {
	actor, ok := CurrentUser(c)
	if !ok {
		panic("actor not found in context")
	}
	return actor
}
