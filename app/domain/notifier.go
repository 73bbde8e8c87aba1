package domain

import "context"

// Notifier delivers the back-in-stock email for product to address.
type Notifier interface {
	SendStockAlert(ctx context.Context, address string, product Product) error
}
