package invoice

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"quantumsport/internal/api"
	"quantumsport/internal/auth"
	"quantumsport/internal/logger"
)

// OwnerResolver returns the customer that checked out an invoice, or ErrNotFound.
type OwnerResolver interface {
	InvoiceOwner(ctx context.Context, invoiceID string) (string, error)
}

type Handler struct {
	fetcher Fetcher
	owners  OwnerResolver
	poller  *Poller
	now     func() time.Time
}

func NewHandler(fetcher Fetcher, owners OwnerResolver, poller *Poller) *Handler {
	return &Handler{
		fetcher: fetcher,
		owners:  owners,
		poller:  poller,
		now:     time.Now,
	}
}

type InvoiceResponse struct {
	Invoice          Invoice `json:"invoice"`
	Summary          Summary `json:"summary"`
	RemainingSeconds int64   `json:"remaining_seconds"`
	Terminal         bool    `json:"terminal"`
}

// StatusEvent is the payload of one server-sent event.
type StatusEvent struct {
	InvoiceID        string `json:"invoice_id"`
	Attempt          int    `json:"attempt"`
	Status           Status `json:"status,omitempty"`
	RemainingSeconds int64  `json:"remaining_seconds"`
	Terminal         bool   `json:"terminal"`
	Error            string `json:"error,omitempty"`
	Code             string `json:"code,omitempty"`
	Retriable        bool   `json:"retriable,omitempty"`
}

func newStatusEvent(u Update) StatusEvent {
	ev := StatusEvent{InvoiceID: u.InvoiceID, Attempt: u.Attempt}
	if u.Err != nil {
		_, body := api.Classify(u.Err)
		ev.Error = body.Error
		ev.Code = body.Code
		ev.Retriable = body.Retriable
		return ev
	}
	ev.Status = u.Invoice.Status
	ev.RemainingSeconds = int64(u.Remaining / time.Second)
	ev.Terminal = u.Invoice.Status.IsTerminal()
	return ev
}

// GetInvoice godoc
// @Summary      Get invoice
// @Description  Returns the invoice with per-category totals and the time left to pay.
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        invoiceID  path      string  true  "Invoice ID"
// @Success      200        {object}  InvoiceResponse
// @Failure      403        {object}  api.ErrorResponse
// @Failure      404        {object}  api.ErrorResponse
// @Failure      503        {object}  api.ErrorResponse
// @Router       /invoices/{invoiceID} [get]
func (h *Handler) GetInvoice(c *gin.Context) {
	invoiceID := c.Param("invoiceID")
	if !h.authorize(c, invoiceID) {
		return
	}

	inv, err := h.fetcher.GetInvoice(c.Request.Context(), invoiceID)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, InvoiceResponse{
		Invoice:          *inv,
		Summary:          inv.Summary(),
		RemainingSeconds: int64(inv.Remaining(h.now()) / time.Second),
		Terminal:         inv.Status.IsTerminal(),
	})
}

// StreamStatus godoc
// @Summary      Stream invoice status
// @Description  Server-sent events with the invoice status until it is final or the client leaves.
// @Tags         invoices
// @Security     BearerAuth
// @Produce      text/event-stream
// @Param        invoiceID  path  string  true  "Invoice ID"
// @Router       /invoices/{invoiceID}/events [get]
func (h *Handler) StreamStatus(c *gin.Context) {
	invoiceID := c.Param("invoiceID")
	if !h.authorize(c, invoiceID) {
		return
	}

	ctx := c.Request.Context()
	updates := make(chan Update)
	handle := h.poller.Start(ctx, invoiceID, func(u Update) {
		select {
		case updates <- u:
		case <-ctx.Done():
		}
	})
	defer handle.Stop()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	for {
		select {
		case <-ctx.Done():
			logger.Debug("invoice stream closed by client", "invoice_id", invoiceID)
			return
		case u := <-updates:
			event := "status"
			if u.Err != nil {
				event = "error"
			}
			c.SSEvent(event, newStatusEvent(u))
			c.Writer.Flush()
		case <-handle.Done():
			end := gin.H{"invoice_id": invoiceID}
			if err := handle.Err(); err != nil && !errors.Is(err, context.Canceled) {
				_, body := api.Classify(err)
				end["error"] = body.Error
				end["code"] = body.Code
			}
			c.SSEvent("end", end)
			c.Writer.Flush()
			return
		}
	}
}

// authorize lets admins through and otherwise requires the caller to own the invoice.
func (h *Handler) authorize(c *gin.Context, invoiceID string) bool {
	customerID, ok := auth.GetCustomerID(c)
	if !ok {
		api.Unauthorized(c)
		return false
	}
	if invoiceID == "" {
		api.BadRequest(c, "Invalid invoice ID")
		return false
	}
	if auth.IsAdmin(c) {
		return true
	}

	owner, err := h.owners.InvoiceOwner(c.Request.Context(), invoiceID)
	if err != nil {
		api.RespondError(c, err)
		return false
	}
	if owner != customerID {
		c.JSON(http.StatusForbidden, api.ErrorResponse{Error: "You can only view your own invoices", Code: api.CodeForbidden})
		return false
	}
	return true
}
