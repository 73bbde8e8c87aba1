package usecase

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"stock-notification-service/app/domain"
	"stock-notification-service/config"
)

type stockUsecase struct {
	stockRepo          domain.StockRepository
	dispatcher         domain.Dispatcher
	stockPublishBroker domain.BrokerPublisher
	cfg                *config.Config
}

func NewStockUsecase(stockRepo domain.StockRepository, dispatcher domain.Dispatcher, stockPublishBroker domain.BrokerPublisher, cfg *config.Config) domain.StockService {
	return &stockUsecase{stockRepo, dispatcher, stockPublishBroker, cfg}
}

func (u *stockUsecase) GetByProductID(ctx context.Context, productID int64) ([]domain.Stock, error) {
	stocks, err := u.stockRepo.GetByProductID(ctx, productID)
	if err != nil {
		slog.ErrorContext(ctx, "[stockUsecase] GetByProductID", "getStocks", err)
		return nil, err
	}

	if len(stocks) == 0 {
		return nil, domain.ErrNotFound
	}

	return stocks, nil
}

// UpdateQuantity writes the new level and, once the write is committed,
// hands the net level change to the dispatcher.
func (u *stockUsecase) UpdateQuantity(ctx context.Context, id int64, req domain.UpdateQuantityRequest) (domain.StockUpdateResponse, error) {
	var resp domain.StockUpdateResponse
	if req.Quantity == nil || *req.Quantity < 0 {
		return resp, domain.ErrValidation
	}
	quantity := *req.Quantity

	if err := u.stockRepo.WithTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		stock, err := u.stockRepo.LockForUpdate(ctx, id, tx)
		if err != nil {
			slog.ErrorContext(ctx, "[stockUsecase] UpdateQuantity", "lockForUpdate", err)
			return err
		}

		resp.Event = domain.StockLevelEvent{
			ProductID:     stock.ProductID,
			PreviousLevel: stock.Quantity,
			NewLevel:      quantity,
		}
		resp.Stock = stock
		if !resp.Event.Changed() {
			return nil
		}

		if err := u.stockRepo.UpdateQuantity(ctx, id, quantity, stock.Version, tx); err != nil {
			slog.ErrorContext(ctx, "[stockUsecase] UpdateQuantity", "updateStock", err)
			return err
		}
		resp.Stock.Quantity = quantity
		resp.Stock.Version++
		return nil
	}); err != nil {
		slog.ErrorContext(ctx, "[stockUsecase] UpdateQuantity", "transactionError", err)
		return domain.StockUpdateResponse{}, err
	}

	if !resp.Event.Changed() {
		slog.InfoContext(ctx, "[stockUsecase] UpdateQuantity", "noChange", quantity)
		return resp, nil
	}

	u.publishAvailable(ctx, resp.Event.ProductID)

	report, err := u.dispatcher.OnStockChange(ctx, resp.Event.ProductID, resp.Event.PreviousLevel, resp.Event.NewLevel)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidStatus) {
			slog.ErrorContext(ctx, "[stockUsecase] UpdateQuantity", "dispatch", err)
			return resp, err
		}
		// The stock write is already committed; dispatch errors are reported, not returned.
		slog.WarnContext(ctx, "[stockUsecase] UpdateQuantity", "dispatch", err)
	}
	if resp.Event.IsRestock() {
		resp.Dispatch = &report
	}

	slog.InfoContext(ctx, "[stockUsecase] UpdateQuantity", "quantityUpdated", quantity, "event", resp.Event)
	return resp, nil
}

func (u *stockUsecase) publishAvailable(ctx context.Context, productID int64) {
	available, err := u.stockRepo.GetAvailableStockByProductID(ctx, productID)
	if err != nil {
		slog.WarnContext(ctx, "[stockUsecase] publishAvailable", "getAvailableStock", err)
		return
	}

	err = u.stockPublishBroker.PublishStockAvailable(ctx, domain.StockMessage{
		ProductID: productID,
		Available: available,
	})
	if err != nil {
		slog.WarnContext(ctx, "[stockUsecase] publishAvailable", "publishStockAvailable", err)
	}
}
