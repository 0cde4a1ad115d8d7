package booking

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"quantumsport/internal/api"
	"quantumsport/internal/auth"
	"quantumsport/internal/cart"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// CreateSession godoc
// @Summary      Start booking session
// @Description  Creates an empty Selection Set owned by the caller.
// @Tags         sessions
// @Security     BearerAuth
// @Produce      json
// @Success      201  {object}  SessionResponse
// @Failure      401  {object}  api.ErrorResponse
// @Router       /sessions [post]
func (h *Handler) CreateSession(c *gin.Context) {
	customerID, ok := auth.GetCustomerID(c)
	if !ok {
		api.Unauthorized(c)
		return
	}

	resp, err := h.service.CreateSession(c.Request.Context(), customerID)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// EndSession godoc
// @Summary      End booking session
// @Tags         sessions
// @Security     BearerAuth
// @Produce      json
// @Param        sessionID  path      string  true  "Session ID"
// @Success      200        {object}  api.MessageResponse
// @Failure      403        {object}  api.ErrorResponse
// @Failure      404        {object}  api.ErrorResponse
// @Router       /sessions/{sessionID} [delete]
func (h *Handler) EndSession(c *gin.Context) {
	customerID, ok := auth.GetCustomerID(c)
	if !ok {
		api.Unauthorized(c)
		return
	}

	if err := h.service.EndSession(c.Request.Context(), c.Param("sessionID"), customerID); err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "Booking session ended"})
}

// GetCart godoc
// @Summary      Get cart
// @Description  Bookings grouped by date, add-ons and totals for one session.
// @Tags         cart
// @Security     BearerAuth
// @Produce      json
// @Param        sessionID  path      string  true  "Session ID"
// @Success      200        {object}  CartResponse
// @Failure      404        {object}  api.ErrorResponse
// @Router       /sessions/{sessionID}/cart [get]
func (h *Handler) GetCart(c *gin.Context) {
	customerID, ok := auth.GetCustomerID(c)
	if !ok {
		api.Unauthorized(c)
		return
	}

	resp, err := h.service.Cart(c.Request.Context(), c.Param("sessionID"), customerID)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ToggleBooking godoc
// @Summary      Toggle court slot
// @Description  Adds the slot when absent, removes it when present.
// @Tags         cart
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        sessionID  path      string                true  "Session ID"
// @Param        request    body      ToggleBookingRequest  true  "Slot"
// @Success      200        {object}  CartResponse
// @Failure      400        {object}  api.ValidationErrorResponse
// @Router       /sessions/{sessionID}/cart/bookings/toggle [post]
func (h *Handler) ToggleBooking(c *gin.Context) {
	customerID, ok := auth.GetCustomerID(c)
	if !ok {
		api.Unauthorized(c)
		return
	}

	var req ToggleBookingRequest
	if !api.BindJSON(c, &req) {
		return
	}

	resp, err := h.service.ToggleBooking(c.Request.Context(), c.Param("sessionID"), customerID, req)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// RemoveBooking godoc
// @Summary      Remove court slot
// @Description  Removes one slot by key. Removing a slot that is not selected is a no-op.
// @Tags         cart
// @Security     BearerAuth
// @Produce      json
// @Param        sessionID    path      string  true  "Session ID"
// @Param        resource_id  query     string  true  "Court ID"
// @Param        time         query     string  true  "Start time (HH:MM)"
// @Param        date         query     string  true  "Date (YYYY-MM-DD)"
// @Success      200          {object}  CartResponse
// @Router       /sessions/{sessionID}/cart/bookings [delete]
func (h *Handler) RemoveBooking(c *gin.Context) {
	customerID, ok := auth.GetCustomerID(c)
	if !ok {
		api.Unauthorized(c)
		return
	}

	key := cart.BookingKey{
		ResourceID: c.Query("resource_id"),
		Time:       c.Query("time"),
		Date:       c.Query("date"),
	}
	if key.ResourceID == "" || key.Time == "" || key.Date == "" {
		api.BadRequest(c, "resource_id, time and date are required")
		return
	}

	resp, err := h.service.RemoveBooking(c.Request.Context(), c.Param("sessionID"), customerID, key)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ToggleCoach godoc
// @Summary      Toggle coach
// @Description  Requires at least one court booking in the session.
// @Tags         cart
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        sessionID  path      string              true  "Session ID"
// @Param        request    body      ToggleCoachRequest  true  "Coach"
// @Success      200        {object}  CartResponse
// @Failure      422        {object}  api.ErrorResponse
// @Router       /sessions/{sessionID}/cart/coaches/toggle [post]
func (h *Handler) ToggleCoach(c *gin.Context) {
	customerID, ok := auth.GetCustomerID(c)
	if !ok {
		api.Unauthorized(c)
		return
	}

	var req ToggleCoachRequest
	if !api.BindJSON(c, &req) {
		return
	}

	resp, err := h.service.ToggleCoach(c.Request.Context(), c.Param("sessionID"), customerID, req)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SetInventory godoc
// @Summary      Set rental quantity
// @Description  Quantity is clamped into [0, available]; zero removes the item.
// @Tags         cart
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        sessionID  path      string               true  "Session ID"
// @Param        request    body      SetInventoryRequest  true  "Rental"
// @Success      200        {object}  CartResponse
// @Failure      422        {object}  api.ErrorResponse
// @Router       /sessions/{sessionID}/cart/inventory [put]
func (h *Handler) SetInventory(c *gin.Context) {
	customerID, ok := auth.GetCustomerID(c)
	if !ok {
		api.Unauthorized(c)
		return
	}

	var req SetInventoryRequest
	if !api.BindJSON(c, &req) {
		return
	}

	resp, err := h.service.SetInventory(c.Request.Context(), c.Param("sessionID"), customerID, req)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ClearCart godoc
// @Summary      Clear cart
// @Tags         cart
// @Security     BearerAuth
// @Produce      json
// @Param        sessionID  path      string  true  "Session ID"
// @Success      200        {object}  CartResponse
// @Router       /sessions/{sessionID}/cart [delete]
func (h *Handler) ClearCart(c *gin.Context) {
	customerID, ok := auth.GetCustomerID(c)
	if !ok {
		api.Unauthorized(c)
		return
	}

	resp, err := h.service.Clear(c.Request.Context(), c.Param("sessionID"), customerID)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
