package invoice

import (
	"context"
	"sync"
	"time"

	"quantumsport/internal/logger"
	"quantumsport/internal/metrics"
)

const sideEffectTimeout = 10 * time.Second

// StatusRecorder persists invoice status changes, e.g. the checkout ledger.
type StatusRecorder interface {
	UpdateStatus(ctx context.Context, invoiceID, status string) error
}

// Notifier tells the customer about a final invoice status.
type Notifier interface {
	SendInvoiceStatus(ctx context.Context, to, name, invoiceID, status string) error
}

type Recipient struct {
	Email string
	Name  string
}

// Watcher polls invoices in the background after checkout. Status changes go to the
// recorder; a terminal status is also sent to the notifier.
type Watcher struct {
	poller   *Poller
	recorder StatusRecorder
	notifier Notifier

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	handles map[string]*Handle
	stopped bool
}

func NewWatcher(poller *Poller, recorder StatusRecorder, notifier Notifier) *Watcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		poller:   poller,
		recorder: recorder,
		notifier: notifier,
		ctx:      ctx,
		cancel:   cancel,
		handles:  make(map[string]*Handle),
	}
}

// Watch starts watching invoiceID. It returns false when the invoice is already watched or
// the watcher has been stopped.
func (w *Watcher) Watch(invoiceID string, to Recipient) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return false
	}
	if _, ok := w.handles[invoiceID]; ok {
		return false
	}

	var lastStatus Status
	h := w.poller.Start(w.ctx, invoiceID, func(u Update) {
		if u.Invoice == nil {
			logger.Debug("invoice poll failed", "invoice_id", invoiceID, "attempt", u.Attempt, "error", u.Err)
			return
		}
		status := u.Invoice.Status
		if status == lastStatus {
			return
		}
		lastStatus = status
		w.onStatus(invoiceID, status, to)
	})
	w.handles[invoiceID] = h
	metrics.ActiveInvoiceWatchers.Set(float64(len(w.handles)))

	go w.reap(invoiceID, h)
	return true
}

func (w *Watcher) onStatus(invoiceID string, status Status, to Recipient) {
	ctx, cancel := context.WithTimeout(w.ctx, sideEffectTimeout)
	defer cancel()

	if w.recorder != nil {
		if err := w.recorder.UpdateStatus(ctx, invoiceID, status.String()); err != nil {
			logger.Error("failed to record invoice status", "invoice_id", invoiceID, "status", status, "error", err)
		}
	}

	if !status.IsTerminal() {
		return
	}

	metrics.RecordInvoiceTerminal(status.String())
	logger.Info("invoice reached final status", "invoice_id", invoiceID, "status", status)

	if w.notifier != nil && to.Email != "" {
		if err := w.notifier.SendInvoiceStatus(ctx, to.Email, to.Name, invoiceID, status.String()); err != nil {
			logger.Error("failed to queue invoice status email", "invoice_id", invoiceID, "error", err)
		}
	}
}

func (w *Watcher) reap(invoiceID string, h *Handle) {
	<-h.Done()

	w.mu.Lock()
	if w.handles[invoiceID] == h {
		delete(w.handles, invoiceID)
	}
	metrics.ActiveInvoiceWatchers.Set(float64(len(w.handles)))
	w.mu.Unlock()
}

func (w *Watcher) Active() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.handles)
}

// StopAll cancels every watch and waits for the poll loops to exit. Later Watch calls are
// refused.
func (w *Watcher) StopAll() {
	w.mu.Lock()
	w.stopped = true
	handles := make([]*Handle, 0, len(w.handles))
	for _, h := range w.handles {
		handles = append(handles, h)
	}
	w.mu.Unlock()

	w.cancel()
	for _, h := range handles {
		<-h.Done()
	}
}
