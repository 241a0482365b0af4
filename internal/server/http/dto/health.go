package dto

import "time"

// TierResponse reports a storage tier.
type TierResponse struct {
	Name          string     `json:"name"`
	Degraded      bool       `json:"degraded"`
	DegradedSince *time.Time `json:"degraded_since,omitempty"`
	RetryAt       *time.Time `json:"retry_at,omitempty"`
	Reason        string     `json:"reason,omitempty"`
}

// HealthResponse reports storage tiers and notification channels.
type HealthResponse struct {
	Success  bool           `json:"success"`
	Tiers    []TierResponse `json:"tiers"`
	Channels []string       `json:"channels"`
}
