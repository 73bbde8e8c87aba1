package domain

import "context"

type StockMessage struct {
	ProductID int64 `json:"product_id"`
	Available int64 `json:"available"`
}

// StockLevelMessage is published by services that own stock elsewhere.
type StockLevelMessage struct {
	ProductID     int64  `json:"product_id" validate:"required,gt=0"`
	PreviousLevel *int64 `json:"previous_level" validate:"required,gte=0"`
	NewLevel      *int64 `json:"new_level" validate:"required,gte=0"`
}

type BrokerPublisher interface {
	PublishStockAvailable(ctx context.Context, data StockMessage) error
}
