package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"quantumsport/internal/apperr"
	"quantumsport/internal/cart"
	"quantumsport/internal/session"
)

const (
	CodeValidation          = "VALIDATION_FAILED"
	CodeMalformedSelection  = "MALFORMED_SELECTION"
	CodeSessionNotFound     = "SESSION_NOT_FOUND"
	CodeForbidden           = "FORBIDDEN"
	CodeSlotUnavailable     = "SLOT_UNAVAILABLE"
	CodeUpstreamValidation  = "UPSTREAM_VALIDATION"
	CodeNotFound            = "NOT_FOUND"
	CodeUpstreamTimeout     = "UPSTREAM_TIMEOUT"
	CodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
	CodeBadUpstreamResponse = "BAD_UPSTREAM_RESPONSE"
	CodeBadRequest          = "BAD_REQUEST"
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeInternal            = "INTERNAL"
	CodeRateLimited         = "RATE_LIMITED"
	CodeCheckoutInProgress  = "CHECKOUT_IN_PROGRESS"
	CodeSessionBusy         = "SESSION_BUSY"
	CodeRequestCancelled    = "REQUEST_CANCELLED"
)

type ErrorResponse struct {
	Error     string   `json:"error" example:"something went wrong"`
	Code      string   `json:"code" example:"INTERNAL"`
	Retriable bool     `json:"retriable"`
	SlotIDs   []string `json:"slot_ids,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message" example:"ok"`
}

type HealthResponse struct {
	Status string            `json:"status" example:"ok"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Classify turns any failure into its HTTP status and displayable shape.
func Classify(err error) (int, ErrorResponse) {
	var conflict *apperr.ConflictError
	var upstreamValidation *apperr.ValidationError

	switch {
	case cart.IsValidation(err):
		return http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Code: CodeValidation}
	case errors.Is(err, cart.ErrMalformedKey):
		return http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: CodeMalformedSelection}
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{Error: "booking session not found or expired", Code: CodeSessionNotFound}
	case errors.Is(err, session.ErrForbidden):
		return http.StatusForbidden, ErrorResponse{Error: "access denied", Code: CodeForbidden}
	case errors.Is(err, session.ErrCheckoutInProgress):
		return http.StatusConflict, ErrorResponse{Error: "this session is already being checked out", Code: CodeCheckoutInProgress, Retriable: true}
	case errors.Is(err, session.ErrBusy):
		return http.StatusConflict, ErrorResponse{Error: "booking session is busy, please retry", Code: CodeSessionBusy, Retriable: true}
	case errors.As(err, &conflict):
		return http.StatusConflict, ErrorResponse{
			Error:   "some selected slots are no longer available, please re-select",
			Code:    CodeSlotUnavailable,
			SlotIDs: conflict.SlotIDs,
		}
	case errors.Is(err, apperr.ErrSlotUnavailable):
		return http.StatusConflict, ErrorResponse{Error: "some selected slots are no longer available, please re-select", Code: CodeSlotUnavailable}
	case errors.As(err, &upstreamValidation):
		return http.StatusUnprocessableEntity, ErrorResponse{Error: upstreamValidation.Error(), Code: CodeUpstreamValidation}
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{Error: "not found", Code: CodeNotFound}
	case errors.Is(err, apperr.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrorResponse{Error: "booking service timed out, please retry", Code: CodeUpstreamTimeout, Retriable: true}
	case errors.Is(err, apperr.ErrNetwork):
		return http.StatusServiceUnavailable, ErrorResponse{Error: "booking service unavailable, please retry", Code: CodeUpstreamUnavailable, Retriable: true}
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, ErrorResponse{Error: "request cancelled, please retry", Code: CodeRequestCancelled, Retriable: true}
	case errors.Is(err, apperr.ErrInvalidResponse):
		return http.StatusBadGateway, ErrorResponse{Error: "booking service sent an unreadable response", Code: CodeBadUpstreamResponse}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: "internal error", Code: CodeInternal}
	}
}

// RespondError writes the classified error as JSON.
func RespondError(c *gin.Context, err error) {
	status, body := Classify(err)
	c.JSON(status, body)
}

func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg, Code: CodeBadRequest})
}

func Unauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "user not authenticated", Code: CodeUnauthorized})
}
