package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/cetler74/dbcars-sub000/internal/application"
	"github.com/cetler74/dbcars-sub000/internal/platform/response"
)

// BookingHandler handles the public booking API: availability, quotes,
// bookings and coupon checks.
type BookingHandler struct {
	availability *application.AvailabilityService
	pricing      *application.PricingService
	bookings     *application.BookingService
	coupons      *application.CouponService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(
	availability *application.AvailabilityService,
	pricing *application.PricingService,
	bookings *application.BookingService,
	coupons *application.CouponService,
) *BookingHandler {
	return &BookingHandler{
		availability: availability,
		pricing:      pricing,
		bookings:     bookings,
		coupons:      coupons,
	}
}

// RegisterRoutes registers all public booking routes.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/vehicles/:id/availability", h.CheckAvailability)
	r.POST("/quotes", h.Quote)
	r.POST("/coupons/validate", h.ValidateCoupon)

	bookings := r.Group("/bookings")
	{
		bookings.POST("", h.CreateBooking)
		bookings.GET("/:id", h.GetBooking)
		bookings.PATCH("/:id/status", h.UpdateStatus)
	}
}

// CheckAvailability handles GET /api/v1/vehicles/:id/availability.
func (h *BookingHandler) CheckAvailability(c *gin.Context) {
	vehicleID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	iv, ok := intervalQuery(c)
	if !ok {
		return
	}

	result, err := h.availability.CheckAvailability(c.Request.Context(), vehicleID, iv)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Quote handles POST /api/v1/quotes.
func (h *BookingHandler) Quote(c *gin.Context) {
	var req application.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.pricing.Quote(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CreateBooking handles POST /api/v1/bookings. The Idempotency-Key header
// is used when the body carries no key.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req application.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader("Idempotency-Key")
	}

	result, created, err := h.bookings.CreateBooking(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	if !created {
		response.Success(c, result)
		return
	}
	response.Created(c, result)
}

// GetBooking handles GET /api/v1/bookings/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	result, err := h.bookings.GetBooking(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// UpdateStatus handles PATCH /api/v1/bookings/:id/status.
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req application.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.bookings.TransitionStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ValidateCoupon handles POST /api/v1/coupons/validate.
func (h *BookingHandler) ValidateCoupon(c *gin.Context) {
	var req application.ValidateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.coupons.ValidateCoupon(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
