package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yigit/studygraph/internal/app/models"
	"github.com/yigit/studygraph/internal/app/models/dto"
	"github.com/yigit/studygraph/internal/app/repositories"
	"github.com/yigit/studygraph/internal/pkg/apperrors"
	"github.com/yigit/studygraph/internal/pkg/auth"
)

// Context keys set by the auth middleware
const (
	ContextUserID  = "userID"
	ContextUserKey = "userKey"
	ContextClaims  = "claims"
	ContextUser    = "user"
)

// AuthMiddleware for authentication
type AuthMiddleware struct {
	jwtService *auth.JWTService
	userRepo   repositories.UserRepository
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(jwtService *auth.JWTService, userRepo repositories.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		userRepo:   userRepo,
	}
}

func abortUnauthorized(c *gin.Context, code dto.ErrorCode, details string) {
	errorDetail := dto.NewErrorDetail(code, "Authentication required").WithDetails(details)
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
}

// JWTAuth middleware for JWT token validation. Browsers cannot set headers on
// websocket upgrades, so a "token" query parameter is accepted as well.
func (m *AuthMiddleware) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")

		var tokenString string
		switch {
		case authHeader != "":
			var err error
			tokenString, err = auth.ExtractBearerToken(strings.Trim(authHeader, "\"'"))
			if err != nil {
				abortUnauthorized(c, dto.ErrorCodeUnauthorized, "Invalid token format")
				return
			}
		case c.Query("token") != "":
			tokenString = c.Query("token")
		default:
			abortUnauthorized(c, dto.ErrorCodeUnauthorized, "Authorization header missing")
			return
		}

		claims, err := m.jwtService.ValidateAndExtractClaims(tokenString)
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				abortUnauthorized(c, dto.ErrorCodeExpiredToken, "Token has expired")
				return
			}
			abortUnauthorized(c, dto.ErrorCodeInvalidToken, "Invalid token")
			return
		}

		// Add user information to context if token is valid
		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUserKey, claims.Key())
		c.Set(ContextClaims, claims)

		c.Next()
	}
}

// LoadUser loads the stored profile of the authenticated user. It must run after JWTAuth.
func (m *AuthMiddleware) LoadUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(ContextUserID)
		if userID == "" {
			abortUnauthorized(c, dto.ErrorCodeUnauthorized, "User information not found")
			return
		}

		user, err := m.userRepo.GetByID(c.Request.Context(), userID)
		if errors.Is(err, apperrors.ErrUserNotFound) {
			abortUnauthorized(c, dto.ErrorCodeInvalidToken, "Account no longer exists")
			return
		}
		if err != nil {
			HandleAPIError(c, err)
			c.Abort()
			return
		}

		// Key the session by the stored profile, not the possibly older token
		c.Set(ContextUserKey, user.Key())
		c.Set(ContextUser, user)
		c.Next()
	}
}

// CurrentUser returns the profile stored by LoadUser
func CurrentUser(c *gin.Context) (*models.User, bool) {
	value, ok := c.Get(ContextUser)
	if !ok {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok && user != nil
}
