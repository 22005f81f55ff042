package api

import (
	"time"

	"absence-assistant/internal/models"
	"absence-assistant/internal/tools"
)

// =============================================================================
// REQUESTS
// =============================================================================

type FillAbsenceRequest struct {
	Date   string `json:"date"`
	Reason string `json:"reason"`
}

// =============================================================================
// RESPONSES
// =============================================================================

type HealthResponse struct {
	Status    string    `json:"status"`
	Service   string    `json:"service"`
	Uptime    string    `json:"uptime"`
	Timestamp time.Time `json:"timestamp"`
}

// AgentStatusResponse lists tool names in Tools; Descriptions carries the
// argument lists for clients that render them.
type AgentStatusResponse struct {
	Status       string       `json:"status"`
	Tools        []string     `json:"tools"`
	Descriptions []tools.Info `json:"descriptions"`
}

type AbsenceListResponse struct {
	UserID    string           `json:"user_id"`
	StartDate string           `json:"start_date"`
	EndDate   string           `json:"end_date"`
	Absences  []models.Absence `json:"absences"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Field   string `json:"field,omitempty"`
	Details any    `json:"details,omitempty"`
}
