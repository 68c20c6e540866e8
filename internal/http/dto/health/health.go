// Package health contiene DTOs para endpoints de health check.
package health

import "time"

// HealthStatus es el estado de un componente.
type HealthStatus struct {
	Status  string `json:"status"` // "ok" | "pending" | "stale" | "error" | "disabled"
	Message string `json:"message,omitempty"`
}

// HealthResponse es la respuesta de /readyz.
type HealthResponse struct {
	Status     string                  `json:"status"` // "ready" | "degraded"
	Components map[string]HealthStatus `json:"components"`
	Version    string                  `json:"version,omitempty"`
	KeyIDs     []string                `json:"key_ids,omitempty"`
	Messages   int                     `json:"messages"`
	Timestamp  time.Time               `json:"timestamp"`
}
