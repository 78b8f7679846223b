package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   errorMsg,
		TraceID: traceIDStr,
	}
}

// StartAuthRequest defines the payload to request a Telegram login code.
type StartAuthRequest struct {
	Phone string `json:"phone" binding:"required"`
}

// StartAuthResponse describes the outcome of a login code request.
type StartAuthResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	CodeSent bool   `json:"code_sent"`
}

// VerifyAuthRequest defines the payload to confirm a Telegram login code.
// Password carries the 2FA cloud password when the account requires it.
type VerifyAuthRequest struct {
	Phone    string `json:"phone" binding:"required"`
	Code     string `json:"code" binding:"required"`
	Password string `json:"password"`
}

// VerifyAuthResponse describes the outcome of a login code verification.
type VerifyAuthResponse struct {
	Success          bool   `json:"success"`
	Message          string `json:"message"`
	PasswordRequired bool   `json:"requires_2fa,omitempty"`
}

// SessionStatusResponse reports whether the gateway holds an authorized session.
type SessionStatusResponse struct {
	Authenticated bool   `json:"authenticated"`
	Phone         string `json:"phone,omitempty"`
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// LookupRequest defines the payload for a RERA number lookup.
type LookupRequest struct {
	ReraNumber string `json:"rera_number" binding:"required"`
}

// LookupResponse carries the bot reply for a completed lookup.
type LookupResponse struct {
	Success    bool   `json:"success"`
	ReraNumber string `json:"rera_number"`
	Response   string `json:"response"`
}

// LookupHistoryEntry is one persisted lookup in the history listing.
type LookupHistoryEntry struct {
	ID          string    `json:"id"`
	ReraNumber  string    `json:"rera_number"`
	Response    *string   `json:"response,omitempty"`
	Outcome     string    `json:"outcome"`
	RequestedAt time.Time `json:"requested_at"`
	CompletedAt time.Time `json:"completed_at"`
}

// LookupHistoryResponse wraps the history listing.
type LookupHistoryResponse struct {
	Lookups []LookupHistoryEntry `json:"lookups"`
}

// HealthResponse describes the service health payload.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// ReadinessResponse describes the readiness payload with per-dependency detail.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}
