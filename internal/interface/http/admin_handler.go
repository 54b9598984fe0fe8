package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"storefront-accounts/internal/application"
	"storefront-accounts/internal/domain/entity"
	"storefront-accounts/internal/domain/repository"
	"storefront-accounts/pkg/response"
)

// AdminHandler serves the admin-only account administration endpoints.
type AdminHandler struct {
	Svc    *application.Service
	Logger *logrus.Logger
}

func NewAdminHandler(svc *application.Service, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{Svc: svc, Logger: logger}
}

// List GET /api/accounts?page=&size=&search=&city=&role=
func (h *AdminHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))

	accounts, total, err := h.Svc.List(c.Request.Context(), repository.ListFilter{
		Page:   page,
		Size:   size,
		Search: c.Query("search"),
		City:   c.Query("city"),
		Role:   entity.Role(c.Query("role")),
	})
	if err != nil {
		if h.Logger != nil {
			h.Logger.WithError(err).Error("account listing failed")
		}
		response.Error[any](c, http.StatusInternalServerError, "internal error", nil)
		return
	}

	out := make([]gin.H, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, safeProjection(a))
	}
	response.Success(c, http.StatusOK, out, "accounts", gin.H{
		"page": page, "size": size, "total": total,
	})
}

// Search GET /api/accounts/search?q=&size=
func (h *AdminHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		response.Error[any](c, http.StatusBadRequest, "missing query", nil)
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))

	hits, err := h.Svc.Search(c.Request.Context(), q, size)
	if err != nil {
		if h.Logger != nil {
			h.Logger.WithError(err).Error("account search failed")
		}
		response.Error[any](c, http.StatusInternalServerError, "search unavailable", nil)
		return
	}
	response.Success(c, http.StatusOK, hits, "search results", gin.H{"size": size})
}

// Delete DELETE /api/accounts/:id
func (h *AdminHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.Svc.Remove(c.Request.Context(), id); err != nil {
		if errors.Is(err, application.ErrAccountNotFound) {
			response.Error[any](c, http.StatusNotFound, err.Error(), nil)
			return
		}
		if h.Logger != nil {
			h.Logger.WithError(err).WithField("account_id", id).Error("account delete failed")
		}
		response.Error[any](c, http.StatusInternalServerError, "internal error", nil)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "account deleted", nil)
}

func safeProjection(a *entity.Account) gin.H {
	return gin.H{
		"id":         a.ID,
		"first_name": a.FirstName,
		"last_name":  a.LastName,
		"email":      a.Email,
		"phone":      a.Phone,
		"city":       a.City,
		"role":       a.Role,
		"is_active":  a.IsActive,
		"created_at": a.CreatedAt,
	}
}
