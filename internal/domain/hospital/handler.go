package hospital

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
	g := api.Group("/hospitals")
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("", h.Register, auth.RequireRole(auth.RoleSystemAdmin, auth.RoleHospitalAdmin))
	g.POST("/:id/approve", h.Approve, auth.RequireRole(auth.RoleSystemAdmin))
	g.POST("/:id/reject", h.Reject, auth.RequireRole(auth.RoleSystemAdmin))

	g.GET("/:id/staff", h.ListStaff, auth.RequireRole(
		auth.RoleSystemAdmin, auth.RoleHospitalAdmin))
	g.GET("/:id/departments", h.ListDepartments)
	g.POST("/:id/departments", h.CreateDepartment, auth.RequireRole(
		auth.RoleSystemAdmin, auth.RoleHospitalAdmin))
	api.DELETE("/departments/:id", h.DeleteDepartment, auth.RequireRole(
		auth.RoleSystemAdmin, auth.RoleHospitalAdmin))
}

func identity(c echo.Context) (*auth.Identity, error) {
	ident := auth.IdentityFromContext(c.Request().Context())
	if ident == nil {
		return nil, apperr.Unauthenticated("not authenticated")
	}
	return ident, nil
}

func pathID(c echo.Context, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperr.Invalid("invalid %s id", what)
	}
	return id, nil
}

func (h *Handler) Register(c echo.Context) error {
	ident, err := identity(c)
	if err != nil {
		return err
	}
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Invalid("invalid request body")
	}
	hosp, err := h.svc.Register(c.Request().Context(), ident, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, hosp)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := pathID(c, "hospital")
	if err != nil {
		return err
	}
	hosp, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, hosp)
}

func (h *Handler) List(c echo.Context) error {
	ident, err := identity(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), ident,
		ApprovalStatus(c.QueryParam("status")), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Approve(c echo.Context) error {
	ident, err := identity(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "hospital")
	if err != nil {
		return err
	}
	hosp, err := h.svc.Approve(c.Request().Context(), ident, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, hosp)
}

func (h *Handler) Reject(c echo.Context) error {
	ident, err := identity(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "hospital")
	if err != nil {
		return err
	}
	var req RejectRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Invalid("invalid request body")
	}
	hosp, err := h.svc.Reject(c.Request().Context(), ident, id, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, hosp)
}

func (h *Handler) ListStaff(c echo.Context) error {
	ident, err := identity(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Invalid("invalid hospital id")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListStaff(c.Request().Context(), ident, id, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) CreateDepartment(c echo.Context) error {
	ident, err := identity(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "hospital")
	if err != nil {
		return err
	}
	var req CreateDepartmentRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Invalid("invalid request body")
	}
	d, err := h.svc.CreateDepartment(c.Request().Context(), ident, id, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) ListDepartments(c echo.Context) error {
	id, err := pathID(c, "hospital")
	if err != nil {
		return err
	}
	items, err := h.svc.ListDepartments(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) DeleteDepartment(c echo.Context) error {
	ident, err := identity(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "department")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteDepartment(c.Request().Context(), ident, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
