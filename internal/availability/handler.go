package availability

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"quantumsport/internal/api"
	"quantumsport/internal/auth"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// GetGrid godoc
// @Summary      Venue availability grid
// @Description  Courts × times for one date. With a session id, cells already in that session's selection are marked.
// @Tags         availability
// @Security     BearerAuth
// @Produce      json
// @Param        venueID  path      string  true   "Venue ID"
// @Param        date     query     string  true   "Date (YYYY-MM-DD)"
// @Param        session  query     string  false  "Booking session ID"
// @Success      200      {object}  GridView
// @Failure      400      {object}  api.ErrorResponse
// @Failure      503      {object}  api.ErrorResponse
// @Router       /venues/{venueID}/grid [get]
func (h *Handler) GetGrid(c *gin.Context) {
	customerID, ok := auth.GetCustomerID(c)
	if !ok {
		api.Unauthorized(c)
		return
	}

	venueID := c.Param("venueID")
	if venueID == "" {
		api.BadRequest(c, "Invalid venue ID")
		return
	}

	view, err := h.service.Grid(c.Request.Context(), venueID, c.Query("date"), c.Query("session"), customerID)
	if err != nil {
		if errors.Is(err, ErrInvalidDate) {
			api.BadRequest(c, err.Error())
			return
		}
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}
