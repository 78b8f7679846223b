package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arklim/rera-lookup-gateway/internal/core/domain"
	"github.com/arklim/rera-lookup-gateway/internal/usecase"
)

// AuthFlow is the slice of the auth service the HTTP layer needs.
type AuthFlow interface {
	StartLogin(ctx context.Context, phone string) (usecase.StartLoginResult, error)
	VerifyLogin(ctx context.Context, phone, code, password string) (usecase.VerifyLoginResult, error)
	Status(ctx context.Context) (domain.AccountStatus, error)
	Logout(ctx context.Context) error
}

// AuthHandler exposes the Telegram login endpoints.
type AuthHandler struct {
	auth AuthFlow
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth AuthFlow) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// RegisterRoutes binds the auth and session routes.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/auth/start", h.start)
	r.POST("/auth/verify", h.verify)
	r.POST("/auth/logout", h.logout)
	r.GET("/session/status", h.status)
}

// Start godoc
// @Summary Request a Telegram login code
// @Description Sends a login code to the supplied phone number via Telegram.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body StartAuthRequest true "Phone number payload"
// @Success 200 {object} StartAuthResponse
// @Failure 400 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /api/v1/auth/start [post]
func (h *AuthHandler) start(c *gin.Context) {
	var req StartAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid auth start payload"))
		return
	}

	result, err := h.auth.StartLogin(c.Request.Context(), req.Phone)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidInput, Status: http.StatusBadRequest, Message: "invalid phone number"},
			{Err: usecase.ErrRateLimited, Status: http.StatusTooManyRequests, Message: "rate limited by telegram, retry later"},
			{Err: usecase.ErrTelegramUnavailable, Status: http.StatusBadGateway, Message: "telegram unavailable"},
		}, http.StatusInternalServerError, "failed to request login code")
		return
	}

	if result.AlreadyAuthenticated {
		c.JSON(http.StatusOK, StartAuthResponse{
			Success: true,
			Message: "already authenticated",
		})
		return
	}

	c.JSON(http.StatusOK, StartAuthResponse{
		Success:  true,
		Message:  "login code sent",
		CodeSent: result.CodeSent,
	})
}

// Verify godoc
// @Summary Confirm a Telegram login code
// @Description Verifies the login code, and the 2FA password when the account requires one.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body VerifyAuthRequest true "Code verification payload"
// @Success 200 {object} VerifyAuthResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /api/v1/auth/verify [post]
func (h *AuthHandler) verify(c *gin.Context) {
	var req VerifyAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid auth verify payload"))
		return
	}

	result, err := h.auth.VerifyLogin(c.Request.Context(), req.Phone, req.Code, req.Password)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidInput, Status: http.StatusBadRequest, Message: "invalid verification payload"},
			{Err: usecase.ErrInvalidCredentials, Status: http.StatusBadRequest, Message: "invalid login code or password"},
			{Err: usecase.ErrCodeExpired, Status: http.StatusBadRequest, Message: "login code expired, request a new one"},
			{Err: usecase.ErrNoPendingLogin, Status: http.StatusConflict, Message: "no pending login, request a code first"},
			{Err: usecase.ErrPhoneMismatch, Status: http.StatusConflict, Message: "phone does not match pending login"},
			{Err: usecase.ErrRateLimited, Status: http.StatusTooManyRequests, Message: "rate limited by telegram, retry later"},
			{Err: usecase.ErrTelegramUnavailable, Status: http.StatusBadGateway, Message: "telegram unavailable"},
		}, http.StatusInternalServerError, "failed to verify login code")
		return
	}

	if result.PasswordRequired {
		c.JSON(http.StatusOK, VerifyAuthResponse{
			Message:          "2fa password required, repeat verify with password set",
			PasswordRequired: true,
		})
		return
	}

	c.JSON(http.StatusOK, VerifyAuthResponse{
		Success: true,
		Message: "authenticated",
	})
}

// Status godoc
// @Summary Report Telegram session status
// @Description Returns whether the gateway currently holds an authorized Telegram session.
// @Tags Session
// @Produce json
// @Success 200 {object} SessionStatusResponse
// @Failure 502 {object} ErrorResponse
// @Router /api/v1/session/status [get]
func (h *AuthHandler) status(c *gin.Context) {
	status, err := h.auth.Status(c.Request.Context())
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrTelegramUnavailable, Status: http.StatusBadGateway, Message: "telegram unavailable"},
		}, http.StatusInternalServerError, "failed to resolve session status")
		return
	}

	c.JSON(http.StatusOK, SessionStatusResponse{
		Authenticated: status.Authenticated,
		Phone:         status.Phone,
	})
}

// Logout godoc
// @Summary Terminate the Telegram session
// @Description Signs the account out and clears the stored session. Safe to repeat.
// @Tags Session
// @Produce json
// @Success 200 {object} MessageResponse
// @Failure 502 {object} ErrorResponse
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context()); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrTelegramUnavailable, Status: http.StatusBadGateway, Message: "telegram unavailable"},
		}, http.StatusInternalServerError, "failed to log out")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "logged out"})
}
