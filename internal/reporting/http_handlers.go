package reporting

import (
	"errors"
	"net/http"
	"time"

	"dialtrack/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers exposes the operator reporting endpoints.
type Handlers struct {
	Service *Service
}

func parseRange(c *gin.Context) (TimeRange, bool) {
	from, err1 := time.Parse(time.RFC3339, c.Query("from"))
	to, err2 := time.Parse(time.RFC3339, c.Query("to"))
	if err1 != nil || err2 != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "from and to must be RFC3339 timestamps"})
		return TimeRange{}, false
	}
	return TimeRange{From: from, To: to}, true
}

func (h Handlers) Outcomes(c *gin.Context) {
	log := logger.FromGin(c)

	rng, ok := parseRange(c)
	if !ok {
		return
	}

	out, err := h.Service.OutcomesSummary(c.Request.Context(), OutcomesSummaryRequest{
		Range:  rng,
		UserID: c.Query("user_id"),
	})
	if err != nil {
		if errors.Is(err, ErrInvalidRequest) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid range"})
			return
		}
		log.Error("outcomes summary failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) Reachability(c *gin.Context) {
	log := logger.FromGin(c)

	rng, ok := parseRange(c)
	if !ok {
		return
	}

	out, err := h.Service.Reachability(c.Request.Context(), ReachabilityRequest{
		Range:  rng,
		UserID: c.Query("user_id"),
	})
	if err != nil {
		if errors.Is(err, ErrInvalidRequest) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid range"})
			return
		}
		log.Error("reachability summary failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})
		return
	}
	c.JSON(http.StatusOK, out)
}
