package sysadmin

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	admin := api.Group("/admin", auth.RequireRole(auth.RoleSystemAdmin))
	admin.GET("/dashboard", h.dashboard)
	admin.GET("/users", h.listUsers)
	admin.PATCH("/users/:id/activate", h.activateUser)
	admin.PATCH("/users/:id/deactivate", h.deactivateUser)
}

func (h *Handler) dashboard(c echo.Context) error {
	d, err := h.svc.Dashboard(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) listUsers(c echo.Context) error {
	p := pagination.FromContext(c)
	users, total, err := h.svc.ListUsers(c.Request().Context(), c.QueryParam("role"), p.Limit, p.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(users, total, p.Limit, p.Offset))
}

func (h *Handler) activateUser(c echo.Context) error {
	return h.setActive(c, true)
}

func (h *Handler) deactivateUser(c echo.Context) error {
	return h.setActive(c, false)
}

func (h *Handler) setActive(c echo.Context, active bool) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Invalid("invalid user id")
	}
	if err := h.svc.SetUserActive(c.Request().Context(), id, active); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
