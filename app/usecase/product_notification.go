package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"stock-notification-service/app/domain"
)

type productNotificationUsecase struct {
	notificationRepo domain.ProductNotificationRepository
	productRepo      domain.ProductRepository
}

func NewProductNotificationUsecase(notificationRepo domain.ProductNotificationRepository, productRepo domain.ProductRepository) domain.ProductNotificationService {
	return &productNotificationUsecase{notificationRepo, productRepo}
}

// Create registers a notification on behalf of the signup flow. Anonymous
// signups start UNCONFIRMED unless the caller already confirmed them.
func (u *productNotificationUsecase) Create(ctx context.Context, req domain.ProductNotificationCreateRequest) (*domain.ProductNotification, error) {
	if _, err := u.productRepo.GetByID(ctx, req.ProductID); err != nil {
		slog.ErrorContext(ctx, "[productNotificationUsecase] Create", "getProduct", err)
		return nil, err
	}

	var to domain.Recipient
	switch {
	case req.UserID != nil && req.Email != "":
		return nil, fmt.Errorf("%w: only one of user_id and email may be set", domain.ErrValidation)
	case req.UserID != nil:
		to = domain.RegisteredUser{UserID: *req.UserID}
	default:
		to = domain.LiteralAddress{Email: req.Email}
	}

	n, err := domain.NewProductNotification(req.ProductID, to)
	if err != nil {
		slog.ErrorContext(ctx, "[productNotificationUsecase] Create", "newProductNotification", err)
		return nil, err
	}

	if req.Status == domain.NotificationStatusActive {
		if err := n.Confirm(); err != nil {
			return nil, err
		}
	}

	if err := u.notificationRepo.Create(ctx, n); err != nil {
		slog.ErrorContext(ctx, "[productNotificationUsecase] Create", "create", err)
		return nil, err
	}

	return n, nil
}

func (u *productNotificationUsecase) GetByProductID(ctx context.Context, productID int64, status domain.NotificationStatus) ([]domain.ProductNotification, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, status)
	}

	notifications, err := u.notificationRepo.GetByProductIDAndStatus(ctx, productID, status)
	if err != nil {
		slog.ErrorContext(ctx, "[productNotificationUsecase] GetByProductID", "getByProductIDAndStatus", err)
		return nil, err
	}

	return notifications, nil
}

func (u *productNotificationUsecase) GetByUserID(ctx context.Context, userID int64) ([]domain.ProductNotification, error) {
	notifications, err := u.notificationRepo.GetByUserID(ctx, userID)
	if err != nil {
		slog.ErrorContext(ctx, "[productNotificationUsecase] GetByUserID", "getByUserID", err)
		return nil, err
	}

	return notifications, nil
}
