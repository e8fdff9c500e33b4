package middleware

import (
	"net/http"
	"strings"

	"github.com/azvaska/flight-gorilla-sub000/pkg/jwt"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// UserContextKey is the key used to store user information in Gin context
const UserContextKey = "user"

// UserContext represents the authenticated user's information
type UserContext struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	Roles  []string  `json:"roles"`
}

type authFailure struct {
	status  int
	err     string
	code    string
	message string
}

var (
	errMissingHeader = authFailure{http.StatusUnauthorized, "unauthorized", "MISSING_AUTH_HEADER", "Authorization header is required"}
	errBadFormat     = authFailure{http.StatusUnauthorized, "unauthorized", "INVALID_AUTH_FORMAT", "Invalid authorization header format. Expected: Bearer <token>"}
	errExpired       = authFailure{http.StatusUnauthorized, "token_expired", "TOKEN_EXPIRED", "Access token has expired"}
	errInvalidToken  = authFailure{http.StatusUnauthorized, "invalid_token", "INVALID_TOKEN", "Invalid access token"}
)

// authenticate resolves the bearer token of the request. It returns
// (nil, nil) when the request carries no Authorization header at all.
func authenticate(c *gin.Context, jwtService *jwt.Service, logger *logrus.Logger) (*UserContext, *authFailure) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, nil
	}

	fields := logrus.Fields{"path": c.Request.URL.Path, "ip": c.ClientIP()}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
		logger.WithFields(fields).Warn("AUTH FAILED: invalid authorization header format")
		return nil, &errBadFormat
	}
	tokenString := strings.TrimSpace(parts[1])

	claims, err := jwtService.ValidateAccessToken(tokenString)
	if err != nil {
		if jwtService.IsTokenExpired(tokenString) {
			logger.WithFields(fields).WithError(err).Warn("AUTH FAILED: token expired")
			return nil, &errExpired
		}
		logger.WithFields(fields).WithError(err).Warn("AUTH FAILED: invalid token")
		return nil, &errInvalidToken
	}

	return &UserContext{
		UserID: claims.UserID,
		Email:  claims.Email,
		Roles:  claims.Roles,
	}, nil
}

func abortAuth(c *gin.Context, f *authFailure) {
	c.AbortWithStatusJSON(f.status, gin.H{
		"error":   f.err,
		"message": f.message,
		"code":    f.code,
	})
}

// AuthMiddleware rejects requests without a valid access token
func AuthMiddleware(jwtService *jwt.Service, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, failure := authenticate(c, jwtService, logger)
		if failure != nil {
			abortAuth(c, failure)
			return
		}
		if user == nil {
			logger.WithFields(logrus.Fields{
				"path": c.Request.URL.Path,
				"ip":   c.ClientIP(),
			}).Warn("AUTH FAILED: missing authorization header")
			abortAuth(c, &errMissingHeader)
			return
		}

		c.Set(UserContextKey, *user)
		c.Next()
	}
}

// OptionalAuth attaches the caller's identity when a token is present.
// Anonymous requests pass through; a present but invalid token is still
// rejected so clients notice expired credentials.
func OptionalAuth(jwtService *jwt.Service, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, failure := authenticate(c, jwtService, logger)
		if failure != nil {
			abortAuth(c, failure)
			return
		}
		if user != nil {
			c.Set(UserContextKey, *user)
		}
		c.Next()
	}
}

// RequireRole creates a middleware that checks if user has required role
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userCtx, exists := GetUserContext(c)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "User context not found. Auth middleware may not be applied.",
				"code":    "MISSING_USER_CONTEXT",
			})
			return
		}

		for _, required := range roles {
			for _, role := range userCtx.Roles {
				if role == required {
					c.Next()
					return
				}
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error":   "forbidden",
			"message": "You don't have permission to access this resource",
			"code":    "INSUFFICIENT_PERMISSIONS",
		})
	}
}

// GetUserContext retrieves the user context from Gin context
func GetUserContext(c *gin.Context) (UserContext, bool) {
	value, exists := c.Get(UserContextKey)
	if !exists {
		return UserContext{}, false
	}

	userCtx, ok := value.(UserContext)
	if !ok {
		return UserContext{}, false
	}

	return userCtx, true
}

// GetUserID returns the caller's id, or nil for anonymous requests
func GetUserID(c *gin.Context) *uuid.UUID {
	userCtx, ok := GetUserContext(c)
	if !ok {
		return nil
	}
	id := userCtx.UserID
	return &id
}

// MustGetUserContext retrieves the user context or panics (use only after AuthMiddleware)
func MustGetUserContext(c *gin.Context) UserContext {
	userCtx, exists := GetUserContext(c)
	if !exists {
		panic("user context not found - ensure AuthMiddleware is applied")
	}
	return userCtx
}
