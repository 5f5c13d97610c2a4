package patient

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
	g := api.Group("/patients")
	// Listing is staff-only; a patient reaches their own record via /me or
	// by id through the ownership gate.
	g.GET("", h.List, auth.RequireRole(
		auth.RoleSystemAdmin, auth.RoleHospitalAdmin, auth.RoleDoctor,
		auth.RoleLabTechnician, auth.RolePharmacist))
	g.GET("/me", h.GetOwn, auth.RequireRole(auth.RolePatient))
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.POST("/:id/medical-history", h.AppendMedicalHistory, auth.RequireRole(
		auth.RoleSystemAdmin, auth.RoleHospitalAdmin, auth.RoleDoctor))
}

func identity(c echo.Context) (*auth.Identity, error) {
	ident := auth.IdentityFromContext(c.Request().Context())
	if ident == nil {
		return nil, apperr.Unauthenticated("not authenticated")
	}
	return ident, nil
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), pg.Limit, pg.Offset)
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
		return apperr.Invalid("invalid patient id")
	}
	p, err := h.svc.Get(c.Request().Context(), ident, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) GetOwn(c echo.Context) error {
	ident, err := identity(c)
	if err != nil {
		return err
	}
	p, err := h.svc.GetOwn(c.Request().Context(), ident)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) Update(c echo.Context) error {
	ident, err := identity(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Invalid("invalid patient id")
	}
	var req UpdateRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Invalid("invalid request body")
	}
	p, err := h.svc.Update(c.Request().Context(), ident, id, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) AppendMedicalHistory(c echo.Context) error {
	ident, err := identity(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Invalid("invalid patient id")
	}
	var req struct {
		Note string `json:"note"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.Invalid("invalid request body")
	}
	p, err := h.svc.AppendMedicalHistory(c.Request().Context(), ident, id, req.Note)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}
