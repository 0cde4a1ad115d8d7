package checkout

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"quantumsport/internal/api"
	"quantumsport/internal/auth"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Checkout godoc
// @Summary      Check out session
// @Description  Submits the session's Selection Set. On success the submitted lines leave the session and the invoice is watched.
// @Tags         checkout
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        sessionID  path      string           true  "Session ID"
// @Param        request    body      CheckoutRequest  true  "Venue"
// @Success      201        {object}  Result
// @Failure      409        {object}  api.ErrorResponse
// @Failure      422        {object}  api.ErrorResponse
// @Failure      503        {object}  api.ErrorResponse
// @Router       /sessions/{sessionID}/checkout [post]
func (h *Handler) Checkout(c *gin.Context) {
	customerID, ok := auth.GetCustomerID(c)
	if !ok {
		api.Unauthorized(c)
		return
	}

	var req CheckoutRequest
	if !api.BindJSON(c, &req) {
		return
	}

	emailAddr, _ := auth.GetEmail(c)
	result, err := h.service.Checkout(c.Request.Context(), c.Param("sessionID"), req.VenueID, Customer{
		ID:    customerID,
		Email: emailAddr,
		Name:  auth.GetName(c),
	})
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// ListMyCheckouts godoc
// @Summary      List my checkouts
// @Tags         checkout
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   Checkout
// @Failure      500  {object}  api.ErrorResponse
// @Router       /checkouts [get]
func (h *Handler) ListMyCheckouts(c *gin.Context) {
	customerID, ok := auth.GetCustomerID(c)
	if !ok {
		api.Unauthorized(c)
		return
	}

	checkouts, err := h.service.ListForCustomer(c.Request.Context(), customerID)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, checkouts)
}

// ListAllCheckouts godoc
// @Summary      List all checkouts
// @Description  Admin only.
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        limit   query     int  false  "Page size"
// @Param        offset  query     int  false  "Offset"
// @Success      200     {array}   Checkout
// @Failure      400     {object}  api.ErrorResponse
// @Router       /admin/checkouts [get]
func (h *Handler) ListAllCheckouts(c *gin.Context) {
	limit, err := queryInt(c, "limit", defaultPageSize)
	if err != nil || limit <= 0 || limit > maxPageSize {
		api.BadRequest(c, "Invalid limit")
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil || offset < 0 {
		api.BadRequest(c, "Invalid offset")
		return
	}

	checkouts, err := h.service.ListAll(c.Request.Context(), limit, offset)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, checkouts)
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
