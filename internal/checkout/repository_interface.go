package checkout

import "context"

type Repository interface {
	Create(ctx context.Context, c *Checkout) (*Checkout, error)
	GetByInvoiceID(ctx context.Context, invoiceID string) (*Checkout, error)
	UpdateStatus(ctx context.Context, invoiceID, status string) error
	ListByCustomer(ctx context.Context, customerID string) ([]Checkout, error)
	ListAll(ctx context.Context, limit, offset int) ([]Checkout, error)
	InvoiceOwner(ctx context.Context, invoiceID string) (string, error)
}
