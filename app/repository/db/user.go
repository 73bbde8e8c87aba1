package db

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"stock-notification-service/app/domain"
)

type userRepository struct {
	conn *sql.DB
}

func NewUserRepository(db *sql.DB) domain.UserDirectory {
	return &userRepository{db}
}

func (r *userRepository) GetEmailByID(ctx context.Context, userID int64) (string, error) {
	query := `SELECT COALESCE(email, '') FROM users WHERE id = $1`

	var email string
	err := r.conn.QueryRowContext(ctx, query, userID).Scan(&email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		slog.ErrorContext(ctx, "[userRepository] GetEmailByID", "queryRowContext", err)
		return "", err
	}

	return email, nil
}
