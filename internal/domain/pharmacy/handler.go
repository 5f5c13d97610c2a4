package pharmacy

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
	meds := api.Group("/medicines")
	meds.GET("", h.ListMedicines)
	meds.GET("/:id", h.GetMedicine)
	manage := meds.Group("", auth.RequireRole(
		auth.RoleSystemAdmin, auth.RoleHospitalAdmin, auth.RolePharmacist))
	manage.POST("", h.CreateMedicine)
	manage.PUT("/:id", h.UpdateMedicine)
	manage.POST("/:id/stock", h.AddStock)
	manage.GET("/:id/stock", h.ListStock)

	orders := api.Group("/pharmacy-orders", auth.RequireRole(
		auth.RoleSystemAdmin, auth.RoleHospitalAdmin, auth.RolePatient, auth.RolePharmacist))
	orders.POST("", h.CreateOrder)
	orders.GET("", h.ListOrders)
	orders.GET("/:id", h.GetOrder)
	orders.PATCH("/:id/status", h.UpdateOrderStatus)
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

func (h *Handler) CreateMedicine(c echo.Context) error {
	var req CreateMedicineRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Invalid("invalid request body")
	}
	m, err := h.svc.CreateMedicine(c.Request().Context(), &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) GetMedicine(c echo.Context) error {
	id, err := pathID(c, "medicine")
	if err != nil {
		return err
	}
	m, err := h.svc.GetMedicine(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) UpdateMedicine(c echo.Context) error {
	id, err := pathID(c, "medicine")
	if err != nil {
		return err
	}
	var req UpdateMedicineRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Invalid("invalid request body")
	}
	m, err := h.svc.UpdateMedicine(c.Request().Context(), id, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) ListMedicines(c echo.Context) error {
	ident, err := identity(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListMedicines(c.Request().Context(), ident, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) AddStock(c echo.Context) error {
	id, err := pathID(c, "medicine")
	if err != nil {
		return err
	}
	var req AddStockRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Invalid("invalid request body")
	}
	req.MedicineID = id
	item, err := h.svc.AddStock(c.Request().Context(), &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, item)
}

func (h *Handler) ListStock(c echo.Context) error {
	id, err := pathID(c, "medicine")
	if err != nil {
		return err
	}
	items, err := h.svc.ListStock(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

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
	id, err := pathID(c, "pharmacy order")
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
	items, total, err := h.svc.ListOrders(c.Request().Context(), ident, pg.Limit, pg.Offset)
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
	id, err := pathID(c, "pharmacy order")
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
