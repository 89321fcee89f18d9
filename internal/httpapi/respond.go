package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"backoffice-platform/internal/apperr"
	"backoffice-platform/pkg/logger"
)

// writeErr maps a service error onto the wire. Client-caused failures keep
// their message; anything unclassified is logged and masked as a generic 500.
func writeErr(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		logger.FromGin(c).Error("request failed", "path", c.FullPath(), "err", err)
		c.AbortWithStatusJSON(status, gin.H{"error": "internal error", "code": apperr.Code(err)})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error(), "code": apperr.Code(err)})
}

func badJSON(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json", "code": "VALIDATION_FAILURE"})
}
