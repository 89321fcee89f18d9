package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"backoffice-platform/internal/sequence"
)

func (h Handlers) GetSequencePattern(c *gin.Context) {
	kind := c.Param("kind")
	raw, err := h.Sequences.PatternFor(c.Request.Context(), kind)
	if err != nil {
		writeErr(c, err)
		return
	}
	sample, err := sequence.Preview(raw, time.Now())
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"kind": kind, "pattern": raw, "sample": sample})
}

type setPatternRequest struct {
	Pattern string `json:"pattern"`
}

// SetSequencePattern replaces the format for future allocations. The
// pattern is validated before it is stored; counters are untouched, so
// numbering continues from the same value under the new shape.
func (h Handlers) SetSequencePattern(c *gin.Context) {
	var req setPatternRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	kind := c.Param("kind")
	if err := h.Sequences.SetPattern(c.Request.Context(), kind, req.Pattern); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"kind": kind, "pattern": req.Pattern})
}

type previewRequest struct {
	Pattern string `json:"pattern"`
}

// PreviewSequencePattern renders a pattern against the current clock
// without consuming a counter value.
func (h Handlers) PreviewSequencePattern(c *gin.Context) {
	var req previewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	sample, err := sequence.Preview(req.Pattern, time.Now())
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pattern": req.Pattern, "sample": sample})
}
