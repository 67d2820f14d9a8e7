package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/cetler74/dbcars-sub000/internal/application"
	"github.com/cetler74/dbcars-sub000/internal/platform/middleware"
	"github.com/cetler74/dbcars-sub000/internal/platform/response"
)

// AdminHandler handles fleet, pricing, coupon and booking administration.
type AdminHandler struct {
	fleet    *application.FleetService
	coupons  *application.CouponService
	bookings *application.BookingService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(fleet *application.FleetService, coupons *application.CouponService, bookings *application.BookingService) *AdminHandler {
	return &AdminHandler{
		fleet:    fleet,
		coupons:  coupons,
		bookings: bookings,
	}
}

// RegisterRoutes registers admin routes behind the static admin key.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup, adminKey string) {
	admin := r.Group("/admin")
	admin.Use(middleware.RequireAdminKey(adminKey))
	{
		admin.POST("/vehicles", h.CreateVehicle)
		admin.GET("/vehicles/:id", h.GetVehicle)
		admin.POST("/vehicles/:id/activate", h.ActivateVehicle)
		admin.POST("/vehicles/:id/deactivate", h.DeactivateVehicle)
		admin.POST("/vehicles/:id/subunits", h.AddSubunit)
		admin.POST("/vehicles/:id/blocks", h.AddBlock)
		admin.PATCH("/subunits/:id/status", h.SetSubunitStatus)
		admin.DELETE("/blocks/:id", h.RemoveBlock)
		admin.POST("/pricing-rules", h.CreatePricingRule)
		admin.POST("/coupons", h.CreateCoupon)
		admin.GET("/coupons", h.ListCoupons)
		admin.POST("/coupons/:id/deactivate", h.DeactivateCoupon)
		admin.POST("/extras", h.CreateExtra)
		admin.GET("/extras", h.ListExtras)
		admin.GET("/bookings", h.ListBookings)
	}
}

// CreateVehicle handles POST /api/v1/admin/vehicles.
func (h *AdminHandler) CreateVehicle(c *gin.Context) {
	var req application.CreateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.fleet.CreateVehicle(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// GetVehicle handles GET /api/v1/admin/vehicles/:id.
func (h *AdminHandler) GetVehicle(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	result, err := h.fleet.GetVehicle(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ActivateVehicle handles POST /api/v1/admin/vehicles/:id/activate.
func (h *AdminHandler) ActivateVehicle(c *gin.Context) {
	h.setVehicleActive(c, true)
}

// DeactivateVehicle handles POST /api/v1/admin/vehicles/:id/deactivate.
func (h *AdminHandler) DeactivateVehicle(c *gin.Context) {
	h.setVehicleActive(c, false)
}

func (h *AdminHandler) setVehicleActive(c *gin.Context, active bool) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.fleet.SetVehicleActive(c.Request.Context(), id, active); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// AddSubunit handles POST /api/v1/admin/vehicles/:id/subunits.
func (h *AdminHandler) AddSubunit(c *gin.Context) {
	vehicleID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req application.CreateSubunitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.fleet.AddSubunit(c.Request.Context(), vehicleID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// SetSubunitStatus handles PATCH /api/v1/admin/subunits/:id/status.
func (h *AdminHandler) SetSubunitStatus(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req application.UpdateSubunitStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.fleet.SetSubunitStatus(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// AddBlock handles POST /api/v1/admin/vehicles/:id/blocks.
func (h *AdminHandler) AddBlock(c *gin.Context) {
	vehicleID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req application.CreateBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.fleet.AddBlock(c.Request.Context(), vehicleID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// RemoveBlock handles DELETE /api/v1/admin/blocks/:id.
func (h *AdminHandler) RemoveBlock(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.fleet.RemoveBlock(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// CreatePricingRule handles POST /api/v1/admin/pricing-rules.
func (h *AdminHandler) CreatePricingRule(c *gin.Context) {
	var req application.CreatePricingRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.fleet.CreatePricingRule(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// CreateCoupon handles POST /api/v1/admin/coupons.
func (h *AdminHandler) CreateCoupon(c *gin.Context) {
	var req application.CreateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.coupons.CreateCoupon(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListCoupons handles GET /api/v1/admin/coupons?active=true.
func (h *AdminHandler) ListCoupons(c *gin.Context) {
	result, err := h.coupons.ListCoupons(c.Request.Context(), c.Query("active") == "true")
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// DeactivateCoupon handles POST /api/v1/admin/coupons/:id/deactivate.
func (h *AdminHandler) DeactivateCoupon(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	result, err := h.coupons.DeactivateCoupon(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CreateExtra handles POST /api/v1/admin/extras.
func (h *AdminHandler) CreateExtra(c *gin.Context) {
	var req application.CreateExtraRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.fleet.CreateExtra(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListExtras handles GET /api/v1/admin/extras.
func (h *AdminHandler) ListExtras(c *gin.Context) {
	result, err := h.fleet.ListExtras(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ListBookings handles GET /api/v1/admin/bookings.
func (h *AdminHandler) ListBookings(c *gin.Context) {
	page, limit := pagination(c)
	vehicleID, ok := optionalUUIDQuery(c, "vehicle_id")
	if !ok {
		return
	}
	customerID, ok := optionalUUIDQuery(c, "customer_id")
	if !ok {
		return
	}

	bookings, total, err := h.bookings.ListBookings(c.Request.Context(), application.ListBookingsRequest{
		Status:     c.Query("status"),
		VehicleID:  vehicleID,
		CustomerID: customerID,
		Page:       page,
		Limit:      limit,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, bookings, total, page, limit)
}
