package appointment

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
	g := api.Group("/appointments", auth.RequireRole(
		auth.RoleSystemAdmin, auth.RoleHospitalAdmin, auth.RoleDoctor, auth.RolePatient))
	g.POST("", h.Book)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.PATCH("/:id/status", h.UpdateStatus)
}

func identity(c echo.Context) (*auth.Identity, error) {
	ident := auth.IdentityFromContext(c.Request().Context())
	if ident == nil {
		return nil, apperr.Unauthenticated("not authenticated")
	}
	return ident, nil
}

func (h *Handler) Book(c echo.Context) error {
	ident, err := identity(c)
	if err != nil {
		return err
	}
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Invalid("invalid request body")
	}
	a, err := h.svc.Book(c.Request().Context(), ident, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) List(c echo.Context) error {
	ident, err := identity(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), ident,
		Status(c.QueryParam("status")), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Get(c echo.Context) error {
	ident, err := identity(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Invalid("invalid appointment id")
	}
	a, err := h.svc.Get(c.Request().Context(), ident, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Update(c echo.Context) error {
	ident, err := identity(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Invalid("invalid appointment id")
	}
	var req UpdateRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Invalid("invalid request body")
	}
	a, err := h.svc.Update(c.Request().Context(), ident, id, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	ident, err := identity(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Invalid("invalid appointment id")
	}
	var req UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Invalid("invalid request body")
	}
	a, err := h.svc.UpdateStatus(c.Request().Context(), ident, id, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}
