package contacts

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"dialtrack/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers exposes the operator-facing contact endpoints.
// Mutation of status/duration happens only in the reconciliation layer;
// the single write here is the manual status override pin.
type Handlers struct {
	DB  *sql.DB
	Now func() time.Time
}

func (h Handlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h Handlers) List(c *gin.Context) {
	log := logger.FromGin(c)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	status := CallStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unknown status filter"})
		return
	}

	out, err := ListContacts(c.Request.Context(), h.DB, status, limit, offset)
	if err != nil {
		log.Error("contact list failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"contacts": out})
}

func (h Handlers) Get(c *gin.Context) {
	log := logger.FromGin(c)
	id := c.Param("id")

	contact, err := GetContact(c.Request.Context(), h.DB, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidArgument) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "contact not found"})
			return
		}
		log.Error("contact get failed", "contact_id", id, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})
		return
	}

	attempts, err := ListAttempts(c.Request.Context(), h.DB, id)
	if err != nil {
		log.Error("attempt list failed", "contact_id", id, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"contact": contact, "attempts": attempts})
}

type overrideRequest struct {
	// Override empty means clear the pin.
	Override string `json:"override"`
}

func (h Handlers) SetOverride(c *gin.Context) {
	log := logger.FromGin(c)
	id := c.Param("id")

	var req overrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	var override *string
	if req.Override != "" {
		if !CallStatus(req.Override).Valid() {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "override must be a canonical status"})
			return
		}
		override = &req.Override
	}

	contact, err := SetStatusOverride(c.Request.Context(), h.DB, id, override, h.now().UTC())
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidArgument) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "contact not found"})
			return
		}
		log.Error("override update failed", "contact_id", id, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"contact": contact})
}
