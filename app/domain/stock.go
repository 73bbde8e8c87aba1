package domain

import (
	"context"
	"database/sql"
	"time"
)

type Stock struct {
	ID          int64     `json:"id"`
	ProductID   int64     `json:"product_id"`
	WarehouseID int64     `json:"warehouse_id"`
	Quantity    int64     `json:"quantity"`
	Version     int64     `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// StockLevelEvent is the net change of a stock level between two committed writes.
type StockLevelEvent struct {
	ProductID     int64 `json:"product_id"`
	PreviousLevel int64 `json:"previous_level"`
	NewLevel      int64 `json:"new_level"`
}

func (e StockLevelEvent) Changed() bool {
	return e.PreviousLevel != e.NewLevel
}

// IsRestock reports whether the product went from out of stock to in stock.
func (e StockLevelEvent) IsRestock() bool {
	return e.PreviousLevel == 0 && e.NewLevel > 0
}

type UpdateQuantityRequest struct {
	Quantity *int64 `json:"quantity" validate:"required,gte=0"`
}

type StockEventRequest struct {
	ProductID     int64  `json:"product_id" validate:"required,gt=0"`
	PreviousLevel *int64 `json:"previous_level" validate:"required,gte=0"`
	NewLevel      *int64 `json:"new_level" validate:"required,gte=0"`
}

type StockUpdateResponse struct {
	Stock    Stock           `json:"stock"`
	Event    StockLevelEvent `json:"event"`
	Dispatch *DispatchReport `json:"dispatch,omitempty"`
}

type StockRepository interface {
	GetByID(ctx context.Context, id int64) (Stock, error)
	GetByProductID(ctx context.Context, productID int64) ([]Stock, error)
	LockForUpdate(ctx context.Context, id int64, tx *sql.Tx) (Stock, error)
	UpdateQuantity(ctx context.Context, id, quantity, version int64, tx *sql.Tx) error
	GetAvailableStockByProductID(ctx context.Context, productID int64) (int64, error)

	WithTransaction(ctx context.Context, fn func(context.Context, *sql.Tx) error) error
}

type StockService interface {
	GetByProductID(ctx context.Context, productID int64) ([]Stock, error)
	UpdateQuantity(ctx context.Context, id int64, req UpdateQuantityRequest) (StockUpdateResponse, error)
}
