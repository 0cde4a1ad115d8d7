package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"quantumsport/internal/apperr"
	"quantumsport/internal/cart"
	"quantumsport/internal/session"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		status    int
		code      string
		retriable bool
	}{
		{"add-on without court", cart.ErrAddOnRequiresCourt, http.StatusUnprocessableEntity, CodeValidation, false},
		{"empty cart", cart.ErrEmptyCart, http.StatusUnprocessableEntity, CodeValidation, false},
		{"malformed key", fmt.Errorf("%w: empty resource id", cart.ErrMalformedKey), http.StatusBadRequest, CodeMalformedSelection, false},
		{"session missing", session.ErrNotFound, http.StatusNotFound, CodeSessionNotFound, false},
		{"session forbidden", session.ErrForbidden, http.StatusForbidden, CodeForbidden, false},
		{"conflict", &apperr.ConflictError{Message: "taken"}, http.StatusConflict, CodeSlotUnavailable, false},
		{"upstream validation", &apperr.ValidationError{Message: "bad"}, http.StatusUnprocessableEntity, CodeUpstreamValidation, false},
		{"not found", apperr.ErrNotFound, http.StatusNotFound, CodeNotFound, false},
		{"timeout", apperr.NewTimeoutError("slow"), http.StatusGatewayTimeout, CodeUpstreamTimeout, true},
		{"network", apperr.NewNetworkError("down"), http.StatusServiceUnavailable, CodeUpstreamUnavailable, true},
		{"bad upstream payload", fmt.Errorf("%w: eof", apperr.ErrInvalidResponse), http.StatusBadGateway, CodeBadUpstreamResponse, false},
		{"checkout in progress", session.ErrCheckoutInProgress, http.StatusConflict, CodeCheckoutInProgress, true},
		{"session busy", fmt.Errorf("session s1: %w", session.ErrBusy), http.StatusConflict, CodeSessionBusy, true},
		{"deadline", fmt.Errorf("list resources: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, CodeUpstreamTimeout, true},
		{"cancelled", fmt.Errorf("list resources: %w", context.Canceled), http.StatusServiceUnavailable, CodeRequestCancelled, true},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, CodeInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := Classify(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, body.Code)
			assert.Equal(t, tt.retriable, body.Retriable)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestClassify_ConflictCarriesSlotIDs(t *testing.T) {
	_, body := Classify(fmt.Errorf("checkout: %w", &apperr.ConflictError{Message: "taken", SlotIDs: []string{"slot-9"}}))

	assert.Equal(t, []string{"slot-9"}, body.SlotIDs)
}
