package authz

import (
	"net/http"

	"backoffice-platform/internal/auth"
	"backoffice-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// RequirePermission allows the request through only when the authenticated
// actor holds perm (or admin-all). A permission-store failure aborts with 500:
// checks fail closed, never open.
func RequirePermission(svc *Service, perm string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID, err := auth.UserID(c.Request.Context())
		if err != nil || actorID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		ok, err := svc.Allowed(c.Request.Context(), actorID, perm)
		if err != nil {
			logger.FromGin(c).Error("permission check failed", "actor_id", actorID, "permission", perm, "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "permission denied"})
			return
		}
		c.Next()
	}
}
