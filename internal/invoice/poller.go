package invoice

import (
	"context"
	"errors"
	"sync"
	"time"

	"quantumsport/internal/logger"
	"quantumsport/internal/metrics"
)

const (
	DefaultPollInterval = 5 * time.Second
	DefaultMaxErrors    = 5
)

type Fetcher interface {
	GetInvoice(ctx context.Context, invoiceID string) (*Invoice, error)
}

// Update is what one poll attempt produced. Exactly one of Invoice and Err is set.
type Update struct {
	InvoiceID string
	Attempt   int
	Invoice   *Invoice
	Remaining time.Duration
	Err       error
}

func (u Update) Terminal() bool {
	return u.Invoice != nil && u.Invoice.Status.IsTerminal()
}

type Poller struct {
	fetcher   Fetcher
	interval  time.Duration
	maxErrors int
	now       func() time.Time
}

func NewPoller(fetcher Fetcher, interval time.Duration, maxErrors int) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if maxErrors <= 0 {
		maxErrors = DefaultMaxErrors
	}
	return &Poller{
		fetcher:   fetcher,
		interval:  interval,
		maxErrors: maxErrors,
		now:       time.Now,
	}
}

// Start fetches the invoice right away and then once per interval until the status is
// terminal, the invoice is gone, too many fetches in a row fail, or ctx ends. Whether to
// go on is decided from the snapshot just fetched. onUpdate runs on the polling goroutine.
func (p *Poller) Start(ctx context.Context, invoiceID string, onUpdate func(Update)) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{
		cancel: cancel,
		done:   make(chan struct{}),
	}
	if onUpdate == nil {
		onUpdate = func(Update) {}
	}

	go p.run(ctx, invoiceID, onUpdate, h)
	return h
}

func (p *Poller) run(ctx context.Context, invoiceID string, onUpdate func(Update), h *Handle) {
	defer close(h.done)
	defer h.cancel()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	consecutive := 0
	for attempt := 1; ; attempt++ {
		inv, err := p.fetcher.GetInvoice(ctx, invoiceID)
		if ctx.Err() != nil {
			h.finish(ctx.Err())
			return
		}

		if err != nil {
			consecutive++
			metrics.RecordInvoicePoll("error")
			onUpdate(Update{InvoiceID: invoiceID, Attempt: attempt, Err: err})

			if errors.Is(err, ErrNotFound) {
				h.finish(err)
				return
			}
			if consecutive >= p.maxErrors {
				logger.Warn("invoice polling gave up", "invoice_id", invoiceID, "errors", consecutive, "error", err)
				h.finish(err)
				return
			}
		} else {
			consecutive = 0
			metrics.RecordInvoicePoll("success")
			h.record(inv)
			onUpdate(Update{
				InvoiceID: invoiceID,
				Attempt:   attempt,
				Invoice:   inv,
				Remaining: inv.Remaining(p.now()),
			})

			if inv.Status.IsTerminal() {
				h.finish(nil)
				return
			}
		}

		select {
		case <-ctx.Done():
			h.finish(ctx.Err())
			return
		case <-ticker.C:
		}
	}
}

// Handle controls one running poll loop.
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}

	mu   sync.Mutex
	last *Invoice
	err  error
}

// Stop cancels polling and waits for the loop to exit. Safe to call more than once.
func (h *Handle) Stop() {
	h.cancel()
	<-h.done
}

func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Err is nil when polling ended on a terminal status, the context error when it was
// cancelled, and the last fetch error otherwise. Only meaningful after Done.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Last returns the most recent successfully fetched invoice, or nil.
func (h *Handle) Last() *Invoice {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.last
}

func (h *Handle) record(inv *Invoice) {
	h.mu.Lock()
	h.last = inv
	h.mu.Unlock()
}

func (h *Handle) finish(err error) {
	h.mu.Lock()
	h.err = err
	h.mu.Unlock()
}
