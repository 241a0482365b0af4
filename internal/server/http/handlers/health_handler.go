package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/storefront/internal/server/http/dto"
)

// HealthHandler reports storage tiers and notification channels.
type HealthHandler struct {
	facade HealthFacade
}

func NewHealthHandler(facade HealthFacade) *HealthHandler {
	return &HealthHandler{facade: facade}
}

// Status handles GET /health.
func (h *HealthHandler) Status(c *gin.Context) {
	tiers := h.facade.StorageStatus()
	resp := dto.HealthResponse{
		Success:  true,
		Tiers:    make([]dto.TierResponse, 0, len(tiers)),
		Channels: h.facade.NotificationChannels(),
	}
	if resp.Channels == nil {
		resp.Channels = []string{}
	}
	for _, tier := range tiers {
		entry := dto.TierResponse{Name: tier.Name, Degraded: tier.Degraded, Reason: tier.Reason}
		if !tier.DegradedSince.IsZero() {
			since := tier.DegradedSince
			entry.DegradedSince = &since
		}
		if !tier.RetryAt.IsZero() {
			retry := tier.RetryAt
			entry.RetryAt = &retry
		}
		resp.Tiers = append(resp.Tiers, entry)
	}
	c.JSON(http.StatusOK, resp)
}
