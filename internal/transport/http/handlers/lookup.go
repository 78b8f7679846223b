package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/arklim/rera-lookup-gateway/internal/core/domain"
	"github.com/arklim/rera-lookup-gateway/internal/usecase"
)

// LookupRunner is the slice of the lookup service the HTTP layer needs.
type LookupRunner interface {
	Lookup(ctx context.Context, reraNumber string) (usecase.LookupResult, error)
	History(ctx context.Context, limit int) ([]domain.LookupRecord, error)
}

// LookupHandler exposes the RERA lookup endpoints.
type LookupHandler struct {
	lookups LookupRunner
}

// NewLookupHandler constructs LookupHandler.
func NewLookupHandler(lookups LookupRunner) *LookupHandler {
	return &LookupHandler{lookups: lookups}
}

// RegisterRoutes binds the lookup routes.
func (h *LookupHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/rera/lookup", h.lookup)
	r.GET("/rera/history", h.history)
}

// Lookup godoc
// @Summary Look up a RERA registration number
// @Description Forwards the number to the lookup bot and waits for its reply.
// @Tags Lookup
// @Accept json
// @Produce json
// @Param request body LookupRequest true "Lookup payload"
// @Success 200 {object} LookupResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 504 {object} ErrorResponse
// @Router /api/v1/rera/lookup [post]
func (h *LookupHandler) lookup(c *gin.Context) {
	var req LookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid lookup payload"))
		return
	}

	result, err := h.lookups.Lookup(c.Request.Context(), req.ReraNumber)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidInput, Status: http.StatusBadRequest, Message: "invalid rera number"},
			{Err: usecase.ErrNotAuthenticated, Status: http.StatusUnauthorized, Message: "not authenticated with telegram"},
			{Err: usecase.ErrLookupInProgress, Status: http.StatusConflict, Message: "a lookup is already in progress for this bot"},
			{Err: usecase.ErrLookupTimeout, Status: http.StatusGatewayTimeout, Message: "lookup bot did not reply in time"},
			{Err: usecase.ErrPeerNotFound, Status: http.StatusNotFound, Message: "lookup bot not found"},
			{Err: usecase.ErrRateLimited, Status: http.StatusTooManyRequests, Message: "rate limited by telegram, retry later"},
			{Err: usecase.ErrTelegramUnavailable, Status: http.StatusBadGateway, Message: "telegram unavailable"},
		}, http.StatusInternalServerError, "lookup failed")
		return
	}

	c.JSON(http.StatusOK, LookupResponse{
		Success:    true,
		ReraNumber: result.ReraNumber,
		Response:   result.Response,
	})
}

// History godoc
// @Summary List past lookups
// @Description Returns persisted lookups, newest first. Requires the history store to be enabled.
// @Tags Lookup
// @Produce json
// @Param limit query int false "Maximum number of entries" default(50)
// @Success 200 {object} LookupHistoryResponse
// @Failure 503 {object} ErrorResponse
// @Router /api/v1/rera/history [get]
func (h *LookupHandler) history(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid limit parameter"))
			return
		}
		limit = parsed
	}

	records, err := h.lookups.History(c.Request.Context(), limit)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrHistoryDisabled, Status: http.StatusServiceUnavailable, Message: "lookup history is not enabled"},
		}, http.StatusInternalServerError, "failed to list lookup history")
		return
	}

	entries := make([]LookupHistoryEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, LookupHistoryEntry{
			ID:          rec.ID,
			ReraNumber:  rec.ReraNumber,
			Response:    rec.Response,
			Outcome:     string(rec.Outcome),
			RequestedAt: rec.RequestedAt,
			CompletedAt: rec.CompletedAt,
		})
	}

	c.JSON(http.StatusOK, LookupHistoryResponse{Lookups: entries})
}
