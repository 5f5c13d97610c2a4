package lab

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
	tests := api.Group("/lab-tests")
	tests.GET("", h.ListTests)
	tests.GET("/:id", h.GetTest)
	catalog := tests.Group("", auth.RequireRole(
		auth.RoleSystemAdmin, auth.RoleHospitalAdmin, auth.RoleLabTechnician))
	catalog.POST("", h.CreateTest)
	catalog.PUT("/:id", h.UpdateTest)

	orders := api.Group("/lab-orders", auth.RequireRole(
		auth.RoleSystemAdmin, auth.RoleHospitalAdmin, auth.RoleDoctor,
		auth.RolePatient, auth.RoleLabTechnician))
	orders.POST("", h.CreateOrder)
	orders.GET("", h.ListOrders)
	orders.GET("/:id", h.GetOrder)
	orders.PATCH("/:id/status", h.UpdateOrderStatus)
	orders.PATCH("/:id/reschedule", h.Reschedule)
	orders.POST("/:id/result", h.RecordResult, auth.RequireRole(auth.RoleLabTechnician))
	orders.GET("/:id/report", h.Report)
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

// -- Catalog --

func (h *Handler) CreateTest(c echo.Context) error {
	var req CreateTestRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Invalid("invalid request body")
	}
	t, err := h.svc.CreateTest(c.Request().Context(), &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *Handler) GetTest(c echo.Context) error {
	id, err := pathID(c, "lab test")
	if err != nil {
		return err
	}
	t, err := h.svc.GetTest(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) UpdateTest(c echo.Context) error {
	id, err := pathID(c, "lab test")
	if err != nil {
		return err
	}
	var req UpdateTestRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Invalid("invalid request body")
	}
	t, err := h.svc.UpdateTest(c.Request().Context(), id, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) ListTests(c echo.Context) error {
	ident, err := identity(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListTests(c.Request().Context(), ident, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

// -- Orders --

func (h *Handler) CreateOrder(c echo.Context) error {
	ident, err := identity(c)
	if err != nil {
		return err
	}
	var req CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Invalid("invalid request body")
	}
	o, err := h.svc.CreateOrder(c.Request().Context(), ident, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, o)
}

func (h *Handler) GetOrder(c echo.Context) error {
	ident, err := identity(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "lab order")
	if err != nil {
		return err
	}
	o, err := h.svc.GetOrder(c.Request().Context(), ident, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, o)
}

func (h *Handler) ListOrders(c echo.Context) error {
	ident, err := identity(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListOrders(c.Request().Context(), ident,
		OrderStatus(c.QueryParam("status")), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateOrderStatus(c echo.Context) error {
	ident, err := identity(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "lab order")
	if err != nil {
		return err
	}
	var req UpdateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Invalid("invalid request body")
	}
	o, err := h.svc.UpdateOrderStatus(c.Request().Context(), ident, id, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, o)
}

func (h *Handler) Reschedule(c echo.Context) error {
	ident, err := identity(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "lab order")
	if err != nil {
		return err
	}
	var req RescheduleRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Invalid("invalid request body")
	}
	o, err := h.svc.Reschedule(c.Request().Context(), ident, id, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, o)
}

func (h *Handler) RecordResult(c echo.Context) error {
	ident, err := identity(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "lab order")
	if err != nil {
		return err
	}
	var req RecordResultRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Invalid("invalid request body")
	}
	res, err := h.svc.RecordResult(c.Request().Context(), ident, id, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *Handler) Report(c echo.Context) error {
	ident, err := identity(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "lab order")
	if err != nil {
		return err
	}
	rep, err := h.svc.Report(c.Request().Context(), ident, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rep)
}
