package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/qorinti/ledger_backend/internal/utils"
)

// AdminKeyHeader carries the back-office API key.
const AdminKeyHeader = "X-Admin-Key"

// AdminKeyCaller is the reviewer ID recorded for API-key callers.
const AdminKeyCaller = "admin-api-key"

// AdminAPIKeyMiddleware authenticates back-office tools presenting X-Admin-Key against
// a bcrypt hash. A missing header falls through to the next auth middleware; a wrong
// key is rejected outright.
func AdminAPIKeyMiddleware(keyHash string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(AdminKeyHeader)
		if key == "" || keyHash == "" {
			c.Next()
			return
		}
		if !utils.CheckAPIKeyHash(key, keyHash) {
			GetLoggerFromCtx(c.Request.Context()).Warn("Invalid admin API key")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid admin key"})
			return
		}
		setIdentity(c, AdminKeyCaller, roleAdmin, AuthMethodAdminAPIKey)
		c.Next()
	}
}
