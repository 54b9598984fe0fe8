package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"storefront-accounts/internal/application"
	"storefront-accounts/internal/domain/entity"
	"storefront-accounts/internal/interface/middleware"
	"storefront-accounts/pkg/response"
	"storefront-accounts/pkg/validation"
)

type AccountHandler struct {
	Svc    *application.Service
	Logger *logrus.Logger
}

func NewAccountHandler(svc *application.Service, logger *logrus.Logger) *AccountHandler {
	return &AccountHandler{Svc: svc, Logger: logger}
}

type registerRequest struct {
	FirstName string `json:"first_name" binding:"required,min=2,max=100"`
	LastName  string `json:"last_name" binding:"required,min=2,max=100"`
	Email     string `json:"email" binding:"required,email"`
	Phone     string `json:"phone" binding:"required,min=5,max=20"`
	City      string `json:"city" binding:"omitempty,max=100"`
	Role      string `json:"role" binding:"omitempty,oneof=user admin"`
	// Accepted for API compatibility; the account stays passwordless until
	// the activation token is consumed.
	Password string `json:"password" binding:"required,min=6,max=100"`
}

type activateRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,pwd"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type emailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type resetRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,pwd"`
}

// Register POST /api/auth/register (admin only)
func (h *AccountHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	msg, err := h.Svc.Register(c.Request.Context(), application.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		City:      req.City,
		Role:      entity.Role(req.Role),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success[any](c, http.StatusCreated, nil, msg, nil)
}

// Activate POST /api/auth/activate
func (h *AccountHandler) Activate(c *gin.Context) {
	var req activateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if _, err := h.Svc.Activate(c.Request.Context(), req.Token, req.Password); err != nil {
		h.fail(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "account activated", nil)
}

// Login POST /api/auth/login
func (h *AccountHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	pair, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	}, "login successful", gin.H{
		"access_expires_at":  pair.AccessTokenExpiry,
		"refresh_expires_at": pair.RefreshTokenExpiry,
	})
}

// Refresh POST /api/auth/refresh-token
func (h *AccountHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	pair, err := h.Svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	}, "token refreshed", gin.H{
		"access_expires_at": pair.AccessTokenExpiry,
	})
}

// ResendActivation POST /api/auth/resend-activation
func (h *AccountHandler) ResendActivation(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	msg, err := h.Svc.ResendActivation(c.Request.Context(), req.Email)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, msg, nil)
}

// ForgotPassword POST /api/auth/forgot-password
func (h *AccountHandler) ForgotPassword(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	msg, err := h.Svc.ForgotPassword(c.Request.Context(), req.Email)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, msg, nil)
}

// ResetPassword POST /api/auth/reset-password
func (h *AccountHandler) ResetPassword(c *gin.Context) {
	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	msg, err := h.Svc.ResetPassword(c.Request.Context(), req.Token, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, msg, nil)
}

// Me GET /api/auth/me (auth required)
func (h *AccountHandler) Me(c *gin.Context) {
	accountID := c.GetString(middleware.CtxAccountIDKey)
	a, err := h.Svc.GetProfile(c.Request.Context(), accountID)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"id":         a.ID,
		"first_name": a.FirstName,
		"last_name":  a.LastName,
		"email":      a.Email,
		"role":       a.Role,
	}, "profile", nil)
}

// fail maps service errors to the HTTP taxonomy. Messages stay generic for
// credential and token failures.
func (h *AccountHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, application.ErrEmailTaken),
		errors.Is(err, application.ErrAlreadyActive):
		response.Error[any](c, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, application.ErrActivationNotFound),
		errors.Is(err, application.ErrAccountNotFound):
		response.Error[any](c, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, application.ErrInvalidCredentials),
		errors.Is(err, application.ErrInvalidRefreshToken),
		errors.Is(err, application.ErrInvalidResetToken):
		response.Error[any](c, http.StatusUnauthorized, err.Error(), nil)
	default:
		if h.Logger != nil {
			h.Logger.WithError(err).Error("account operation failed")
		}
		response.Error[any](c, http.StatusInternalServerError, "internal error", nil)
	}
}
