package db

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"stock-notification-service/app/domain"
	"stock-notification-service/pkg"
	"time"
)

const productNotificationColumns = `id, user_id, email, product_id, status, date_notified, created_at, updated_at`

type productNotificationRepository struct {
	conn *sql.DB
}

func NewProductNotificationRepository(db *sql.DB) domain.ProductNotificationRepository {
	return &productNotificationRepository{db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProductNotification(row rowScanner) (domain.ProductNotification, error) {
	var (
		n            domain.ProductNotification
		userID       sql.NullInt64
		dateNotified sql.NullTime
	)
	if err := row.Scan(&n.ID, &userID, &n.Email, &n.ProductID, &n.Status,
		&dateNotified, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return n, err
	}
	if userID.Valid {
		n.UserID = &userID.Int64
	}
	if dateNotified.Valid {
		n.DateNotified = &dateNotified.Time
	}
	return n, nil
}

func (r *productNotificationRepository) Create(ctx context.Context, n *domain.ProductNotification) error {
	query := `INSERT INTO product_notifications (user_id, email, product_id, status)
	VALUES ($1, $2, $3, $4)
	RETURNING id, created_at, updated_at`

	var userID sql.NullInt64
	if n.UserID != nil {
		userID = sql.NullInt64{Int64: *n.UserID, Valid: true}
	}

	err := r.conn.QueryRowContext(ctx, query, userID, n.Email, n.ProductID, n.Status).
		Scan(&n.ID, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		slog.ErrorContext(ctx, "[productNotificationRepository] Create", "queryRowContext", err)
		return err
	}

	slog.InfoContext(ctx, "[productNotificationRepository] Create", "id", n.ID)
	return nil
}

func (r *productNotificationRepository) GetByID(ctx context.Context, id int64) (domain.ProductNotification, error) {
	query := `SELECT ` + productNotificationColumns + ` FROM product_notifications WHERE id = $1`

	n, err := scanProductNotification(r.conn.QueryRowContext(ctx, query, id))
	if err != nil {
		slog.ErrorContext(ctx, "[productNotificationRepository] GetByID", "queryRowContext", err)
		if errors.Is(err, sql.ErrNoRows) {
			return n, domain.ErrNotFound
		}
		return n, err
	}

	return n, nil
}

func (r *productNotificationRepository) GetByProductIDAndStatus(ctx context.Context, productID int64, status domain.NotificationStatus) ([]domain.ProductNotification, error) {
	query := `SELECT ` + productNotificationColumns + ` FROM product_notifications WHERE product_id = $1`
	args := []any{productID}

	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY id ASC`

	return r.list(ctx, "GetByProductIDAndStatus", query, args...)
}

func (r *productNotificationRepository) GetByUserID(ctx context.Context, userID int64) ([]domain.ProductNotification, error) {
	query := `SELECT ` + productNotificationColumns + ` FROM product_notifications WHERE user_id = $1 ORDER BY id ASC`

	return r.list(ctx, "GetByUserID", query, userID)
}

func (r *productNotificationRepository) list(ctx context.Context, method, query string, args ...any) ([]domain.ProductNotification, error) {
	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		slog.ErrorContext(ctx, "[productNotificationRepository] "+method, "queryContext", err)
		return nil, err
	}
	defer rows.Close()

	var notifications []domain.ProductNotification
	for rows.Next() {
		n, err := scanProductNotification(rows)
		if err != nil {
			slog.ErrorContext(ctx, "[productNotificationRepository] "+method, "scan", err)
			return nil, err
		}
		notifications = append(notifications, n)
	}

	if err := rows.Err(); err != nil {
		slog.ErrorContext(ctx, "[productNotificationRepository] "+method, "rowError", err)
		return nil, err
	}

	return notifications, nil
}

func (r *productNotificationRepository) LockForUpdate(ctx context.Context, id int64, tx *sql.Tx) (domain.ProductNotification, error) {
	query := `SELECT ` + productNotificationColumns + ` FROM product_notifications WHERE id = $1 FOR UPDATE`

	n, err := scanProductNotification(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		slog.ErrorContext(ctx, "[productNotificationRepository] LockForUpdate", "queryRowContext", err)
		if errors.Is(err, sql.ErrNoRows) {
			return n, domain.ErrNotFound
		}
		return n, err
	}

	return n, nil
}

func (r *productNotificationRepository) UpdateStatus(ctx context.Context, n domain.ProductNotification, tx *sql.Tx) error {
	query := `UPDATE product_notifications SET status = $1, date_notified = $2, updated_at = NOW() WHERE id = $3`

	var dateNotified sql.NullTime
	if n.DateNotified != nil {
		dateNotified = sql.NullTime{Time: *n.DateNotified, Valid: true}
	}

	res, err := tx.ExecContext(ctx, query, n.Status, dateNotified, n.ID)
	if err != nil {
		slog.ErrorContext(ctx, "[productNotificationRepository] UpdateStatus", "execContext", err)
		return err
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		slog.ErrorContext(ctx, "[productNotificationRepository] UpdateStatus", "rowsAffected", err)
		return err
	}
	if rowsAffected == 0 {
		return domain.ErrNotFound
	}

	return nil
}

func (r *productNotificationRepository) MarkNotified(ctx context.Context, id int64, at time.Time) (bool, error) {
	query := `UPDATE product_notifications SET status = $1, date_notified = $2, updated_at = NOW()
	WHERE id = $3 AND status = $4`

	res, err := r.conn.ExecContext(ctx, query, domain.NotificationStatusInactive, at, id, domain.NotificationStatusActive)
	if err != nil {
		slog.ErrorContext(ctx, "[productNotificationRepository] MarkNotified", "execContext", err)
		return false, err
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		slog.ErrorContext(ctx, "[productNotificationRepository] MarkNotified", "rowsAffected", err)
		return false, err
	}

	return rowsAffected == 1, nil
}

func (r *productNotificationRepository) WithTransaction(ctx context.Context, fn func(context.Context, *sql.Tx) error) error {
	return pkg.WithTransaction(ctx, r.conn, fn)
}
