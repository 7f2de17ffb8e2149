package middleware

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"
)

// contextKey is the type of the values this package stores in a context.
// Using a custom type prevents collisions.
type contextKey string

const (
	loggerCtxKey  = contextKey("logger")
	userIDKey     = contextKey("userID")
	roleKey       = contextKey("role")
	authMethodKey = contextKey("authMethod")
)

// Auth methods recorded on the request.
const (
	AuthMethodJWT         = "jwt"
	AuthMethodAdminAPIKey = "admin_api_key"
)

// GetLoggerFromCtx retrieves the request-scoped logger from a standard context,
// falling back to the default logger.
func GetLoggerFromCtx(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(loggerCtxKey).(*slog.Logger); ok && logger != nil {
			return logger
		}
	}
	return slog.Default()
}

// WithLogger returns a copy of ctx that carries logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerCtxKey, logger)
}

// GetUserIDFromContext retrieves the authenticated caller ID from the Gin context.
// It returns the user ID and a boolean indicating if it was found.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userID, ok := c.Request.Context().Value(userIDKey).(string)
	if !ok || userID == "" {
		return "", false
	}
	return userID, true
}

// IsAdmin reports whether the caller authenticated with the admin role.
func IsAdmin(c *gin.Context) bool {
	role, _ := c.Request.Context().Value(roleKey).(string)
	return role == roleAdmin
}

func authMethod(c *gin.Context) string {
	method, _ := c.Request.Context().Value(authMethodKey).(string)
	return method
}

// setIdentity stores the caller on the request context and enriches its logger.
func setIdentity(c *gin.Context, userID, role, method string) {
	ctx := c.Request.Context()
	logger := GetLoggerFromCtx(ctx).With(slog.String("user_id", userID))
	ctx = context.WithValue(ctx, userIDKey, userID)
	ctx = context.WithValue(ctx, roleKey, role)
	ctx = context.WithValue(ctx, authMethodKey, method)
	ctx = WithLogger(ctx, logger)
	c.Request = c.Request.WithContext(ctx)
}
