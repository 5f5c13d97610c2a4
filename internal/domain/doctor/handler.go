package doctor

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
	g := api.Group("/doctors")
	// Any authenticated user may browse doctors when booking.
	g.GET("", h.List)
	g.GET("/me", h.GetOwn, auth.RequireRole(auth.RoleDoctor))
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update, auth.RequireRole(
		auth.RoleSystemAdmin, auth.RoleHospitalAdmin, auth.RoleDoctor))
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	var hospitalID *uuid.UUID
	if raw := c.QueryParam("hospital_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return apperr.Invalid("invalid hospital_id")
		}
		hospitalID = &id
	}
	items, total, err := h.svc.List(c.Request().Context(),
		c.QueryParam("specialization"), hospitalID, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Invalid("invalid doctor id")
	}
	d, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) GetOwn(c echo.Context) error {
	ident := auth.IdentityFromContext(c.Request().Context())
	if ident == nil {
		return apperr.Unauthenticated("not authenticated")
	}
	d, err := h.svc.GetOwn(c.Request().Context(), ident)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) Update(c echo.Context) error {
	ident := auth.IdentityFromContext(c.Request().Context())
	if ident == nil {
		return apperr.Unauthenticated("not authenticated")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Invalid("invalid doctor id")
	}
	var req UpdateRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Invalid("invalid request body")
	}
	d, err := h.svc.Update(c.Request().Context(), ident, id, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}
