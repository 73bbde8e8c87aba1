package usecase

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"stock-notification-service/app/domain"
	"stock-notification-service/config"
	"time"
)

type dispatchOutcome int

const (
	outcomeSent dispatchOutcome = iota
	outcomeSkipped
	outcomeFailed
)

type dispatchUsecase struct {
	notificationRepo domain.ProductNotificationRepository
	productRepo      domain.ProductRepository
	users            domain.UserDirectory
	notifier         domain.Notifier
	cfg              *config.Config
	now              func() time.Time
}

func NewDispatchUsecase(
	notificationRepo domain.ProductNotificationRepository,
	productRepo domain.ProductRepository,
	users domain.UserDirectory,
	notifier domain.Notifier,
	cfg *config.Config) domain.Dispatcher {
	return &dispatchUsecase{notificationRepo, productRepo, users, notifier, cfg, time.Now}
}

func (u *dispatchUsecase) OnStockChange(ctx context.Context, productID, previousLevel, newLevel int64) (domain.DispatchReport, error) {
	report := domain.DispatchReport{ProductID: productID}

	event := domain.StockLevelEvent{ProductID: productID, PreviousLevel: previousLevel, NewLevel: newLevel}
	if !event.IsRestock() {
		slog.DebugContext(ctx, "[dispatchUsecase] OnStockChange", "notRestock", event)
		return report, nil
	}

	product, err := u.productRepo.GetByID(ctx, productID)
	if err != nil {
		slog.ErrorContext(ctx, "[dispatchUsecase] OnStockChange", "getProduct", err)
		return report, fmt.Errorf("%w: get product %d: %w", domain.ErrStoreFailure, productID, err)
	}

	candidates, err := u.notificationRepo.GetByProductIDAndStatus(ctx, productID, domain.NotificationStatusActive)
	if err != nil {
		slog.ErrorContext(ctx, "[dispatchUsecase] OnStockChange", "getActiveNotifications", err)
		return report, fmt.Errorf("%w: list active notifications: %w", domain.ErrStoreFailure, err)
	}
	slices.SortFunc(candidates, func(a, b domain.ProductNotification) int {
		return cmp.Compare(a.ID, b.ID)
	})
	report.Selected = len(candidates)

	var errs []error
	for _, candidate := range candidates {
		outcome, err := u.dispatchOne(ctx, candidate.ID, product)
		if errors.Is(err, domain.ErrInvalidStatus) {
			slog.ErrorContext(ctx, "[dispatchUsecase] OnStockChange", "invalidStatus", err)
			return report, err
		}

		switch outcome {
		case outcomeSent:
			report.Sent++
		case outcomeSkipped:
			report.Skipped++
		case outcomeFailed:
			report.Failed++
		}
		if err != nil {
			slog.WarnContext(ctx, "[dispatchUsecase] OnStockChange", "notificationID", candidate.ID, "error", err)
			errs = append(errs, &domain.DispatchError{NotificationID: candidate.ID, Err: err})
		}
	}

	slog.InfoContext(ctx, "[dispatchUsecase] OnStockChange", "report", report)
	return report, errors.Join(errs...)
}

// dispatchOne sends and commits a single notification under a row lock so
// concurrent restocks of the same product cannot email it twice.
func (u *dispatchUsecase) dispatchOne(ctx context.Context, id int64, product domain.Product) (dispatchOutcome, error) {
	var (
		sent       bool
		skipped    bool
		notifiedAt time.Time
	)

	err := u.notificationRepo.WithTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		n, err := u.notificationRepo.LockForUpdate(ctx, id, tx)
		if err != nil {
			return fmt.Errorf("%w: lock: %w", domain.ErrStoreFailure, err)
		}

		if !n.Status.Valid() {
			return fmt.Errorf("%w: notification %d has status %q", domain.ErrInvalidStatus, n.ID, n.Status)
		}
		if !n.IsActive() {
			// Another dispatch already handled it.
			skipped = true
			return nil
		}

		address, err := n.NotificationEmail(ctx, u.users)
		if err != nil {
			return err
		}

		if err := u.notifier.SendStockAlert(ctx, address, product); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrSendFailure, err)
		}
		sent = true
		notifiedAt = u.now()

		if err := n.MarkNotified(notifiedAt); err != nil {
			return err
		}
		if err := u.notificationRepo.UpdateStatus(ctx, n, tx); err != nil {
			return fmt.Errorf("%w: update status: %w", domain.ErrStoreFailure, err)
		}
		return nil
	})

	switch {
	case err == nil && skipped:
		return outcomeSkipped, nil
	case err == nil:
		return outcomeSent, nil
	case sent:
		slog.WarnContext(ctx, "[dispatchUsecase] dispatchOne", "commitAfterSend", err, "notificationID", id)
		if retryErr := u.retryMarkNotified(ctx, id, notifiedAt); retryErr != nil {
			return outcomeFailed, errors.Join(err, retryErr)
		}
		return outcomeSent, nil
	case errors.Is(err, domain.ErrUnresolvableAddress):
		return outcomeSkipped, err
	default:
		return outcomeFailed, err
	}
}

// retryMarkNotified commits the INACTIVE transition for an email that has
// already been sent. Once retries are exhausted the notification stays
// ACTIVE and may be emailed again on the next restock.
func (u *dispatchUsecase) retryMarkNotified(ctx context.Context, id int64, at time.Time) error {
	backoff := time.Duration(u.cfg.Dispatch.RetryBackoffMs) * time.Millisecond

	var lastErr error
	for attempt := 1; attempt <= u.cfg.Dispatch.CommitRetries; attempt++ {
		updated, err := u.notificationRepo.MarkNotified(ctx, id, at)
		if err == nil {
			if !updated {
				slog.WarnContext(ctx, "[dispatchUsecase] retryMarkNotified", "alreadyTransitioned", id)
			}
			return nil
		}
		lastErr = err
		slog.WarnContext(ctx, "[dispatchUsecase] retryMarkNotified", "attempt", attempt, "error", err)

		if attempt == u.cfg.Dispatch.CommitRetries || backoff <= 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: commit retry: %w", domain.ErrStoreFailure, ctx.Err())
		case <-time.After(backoff * time.Duration(attempt)):
		}
	}

	if lastErr == nil {
		lastErr = errors.New("commit retries disabled")
	}
	return fmt.Errorf("%w: commit after send: %w", domain.ErrStoreFailure, lastErr)
}
