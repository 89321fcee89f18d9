package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"backoffice-platform/internal/audit"
)

const (
	defaultAuditPageSize = 50
	maxAuditPageSize     = 200
)

func auditFilterFromQuery(c *gin.Context) audit.Filter {
	f := audit.Filter{
		Resource:   audit.ResourceKind(c.Query("resource")),
		ResourceID: c.Query("resource_id"),
		Action:     audit.Action(c.Query("action")),
		ActorName:  c.Query("actor"),
		Limit:      defaultAuditPageSize,
	}
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		f.Limit = min(v, maxAuditPageSize)
	}
	if v, err := strconv.Atoi(c.Query("offset")); err == nil && v > 0 {
		f.Offset = v
	}
	if v, err := strconv.ParseInt(c.Query("from"), 10, 64); err == nil {
		f.From = time.Unix(v, 0).UTC()
	}
	if v, err := strconv.ParseInt(c.Query("to"), 10, 64); err == nil {
		f.To = time.Unix(v, 0).UTC()
	}
	return f
}

// ListAudit serves the system-wide audit view, newest first.
func (h Handlers) ListAudit(c *gin.Context) {
	views, total, err := h.AuditRepo.Query(c.Request.Context(), auditFilterFromQuery(c))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": views, "total": total})
}

// ResourceAudit serves the history of one record, including records that
// no longer exist.
func (h Handlers) ResourceAudit(c *gin.Context) {
	f := auditFilterFromQuery(c)
	f.Resource = audit.ResourceKind(c.Param("kind"))
	f.ResourceID = c.Param("id")
	views, total, err := h.AuditRepo.Query(c.Request.Context(), f)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": views, "total": total})
}

func (h Handlers) AuditStats(c *gin.Context) {
	stats, err := h.AuditRepo.Stats(c.Request.Context())
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h Handlers) AuditCleanup(c *gin.Context) {
	removed, err := h.Janitor.Cleanup(c.Request.Context())
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

func (h Handlers) AuditCleanupPreview(c *gin.Context) {
	would, err := h.Janitor.Preview(c.Request.Context())
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"would_remove": would})
}
