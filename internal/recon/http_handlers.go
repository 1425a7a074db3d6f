package recon

import (
	"errors"
	"net/http"

	"dialtrack/internal/contacts"
	"dialtrack/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers exposes the provider-facing webhook and the placement-facing
// stale-check arm endpoint.
type Handlers struct {
	Service *Service
}

// Webhook ingests one provider status callback. The provider retries
// non-2xx responses, so only conditions a redelivery could fix return
// errors; everything reconciled returns the post-write snapshot.
func (h Handlers) Webhook(c *gin.Context) {
	log := logger.FromGin(c)

	var payload CallbackPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	snap, err := h.Service.Reconcile(c.Request.Context(), payload)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, snap)
	case errors.Is(err, ErrValidation):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "callback missing call id or status"})
	case errors.Is(err, contacts.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "no contact for call id"})
	default:
		log.Error("webhook reconcile failed", "provider_call_id", payload.CallID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})
	}
}

type armRequest struct {
	ContactID      string `json:"contactId" binding:"required"`
	ProviderCallID string `json:"providerCallId" binding:"required"`
}

// ArmStaleCheck registers the deferred stale-call check for a call the
// placement component just dialed.
func (h Handlers) ArmStaleCheck(c *gin.Context) {
	var req armRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "contactId and providerCallId are required"})
		return
	}

	h.Service.ArmStaleCheck(req.ContactID, req.ProviderCallID)
	c.JSON(http.StatusAccepted, gin.H{"armed": true})
}
