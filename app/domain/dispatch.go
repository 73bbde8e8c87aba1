package domain

import (
	"context"
	"fmt"
)

type DispatchReport struct {
	ProductID int64 `json:"product_id"`
	Selected  int   `json:"selected"`
	Sent      int   `json:"sent"`
	Skipped   int   `json:"skipped"`
	Failed    int   `json:"failed"`
}

// DispatchError ties a recoverable failure to the notification it affected.
type DispatchError struct {
	NotificationID int64
	Err            error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("notification %d: %v", e.NotificationID, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

type Dispatcher interface {
	// OnStockChange emails every active notification of productID when the
	// level crosses from 0 to a positive value. Per-notification failures are
	// joined into the returned error and never stop the remaining sends.
	OnStockChange(ctx context.Context, productID, previousLevel, newLevel int64) (DispatchReport, error)
}
