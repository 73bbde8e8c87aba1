package db

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"stock-notification-service/app/domain"
	"stock-notification-service/pkg"
)

type stockRepository struct {
	conn *sql.DB
}

func NewStockRepository(db *sql.DB) domain.StockRepository {
	return &stockRepository{db}
}

func (r *stockRepository) GetByID(ctx context.Context, id int64) (domain.Stock, error) {
	query := `SELECT id, product_id, warehouse_id, quantity, version, created_at, updated_at 
	FROM stocks WHERE id = $1`

	var stock domain.Stock
	err := r.conn.QueryRowContext(ctx, query, id).Scan(&stock.ID, &stock.ProductID,
		&stock.WarehouseID, &stock.Quantity, &stock.Version, &stock.CreatedAt, &stock.UpdatedAt)
	if err != nil {
		slog.ErrorContext(ctx, "[stockRepository] GetByID", "queryRowContext", err)
		if errors.Is(err, sql.ErrNoRows) {
			return stock, domain.ErrNotFound
		}
		return stock, err
	}

	return stock, nil
}

func (r *stockRepository) GetByProductID(ctx context.Context, productID int64) ([]domain.Stock, error) {
	query := `SELECT s.id, s.product_id, s.warehouse_id, s.quantity, s.version, s.created_at, s.updated_at 
	FROM stocks s
	WHERE s.product_id = $1
	ORDER BY s.id`

	rows, err := r.conn.QueryContext(ctx, query, productID)
	if err != nil {
		slog.ErrorContext(ctx, "[stockRepository] GetByProductID", "queryContext", err)
		return nil, err
	}
	defer rows.Close()

	var stocks []domain.Stock
	for rows.Next() {
		var stock domain.Stock
		if err := rows.Scan(&stock.ID, &stock.ProductID, &stock.WarehouseID, &stock.Quantity,
			&stock.Version, &stock.CreatedAt, &stock.UpdatedAt); err != nil {
			slog.ErrorContext(ctx, "[stockRepository] GetByProductID", "scan", err)
			return nil, err
		}
		stocks = append(stocks, stock)
	}

	if err := rows.Err(); err != nil {
		slog.ErrorContext(ctx, "[stockRepository] GetByProductID", "rowError", err)
		return nil, err
	}

	return stocks, nil
}

func (r *stockRepository) LockForUpdate(ctx context.Context, id int64, tx *sql.Tx) (domain.Stock, error) {
	query := `SELECT id, product_id, warehouse_id, quantity, version, created_at, updated_at 
	FROM stocks WHERE id = $1 FOR UPDATE`

	var stock domain.Stock
	err := tx.QueryRowContext(ctx, query, id).Scan(&stock.ID, &stock.ProductID,
		&stock.WarehouseID, &stock.Quantity, &stock.Version, &stock.CreatedAt, &stock.UpdatedAt)
	if err != nil {
		slog.ErrorContext(ctx, "[stockRepository] LockForUpdate", "queryRowContext", err)
		if errors.Is(err, sql.ErrNoRows) {
			return stock, domain.ErrNotFound
		}
		return stock, err
	}

	return stock, nil
}

func (r *stockRepository) UpdateQuantity(ctx context.Context, id, quantity, version int64, tx *sql.Tx) error {
	query := `UPDATE stocks SET quantity = $1, version = version + 1, updated_at = NOW() 
	WHERE id = $2 AND version = $3`

	res, err := tx.ExecContext(ctx, query, quantity, id, version)
	if err != nil {
		slog.ErrorContext(ctx, "[stockRepository] UpdateQuantity", "execContext", err)
		return err
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		slog.ErrorContext(ctx, "[stockRepository] UpdateQuantity", "rowsAffected", err)
		return err
	}

	if rowsAffected == 0 {
		slog.ErrorContext(ctx, "[stockRepository] UpdateQuantity", "versionMismatch", version)
		return domain.ErrVersionMismatch
	}

	return nil
}

func (r *stockRepository) GetAvailableStockByProductID(ctx context.Context, productID int64) (int64, error) {
	query := `SELECT COALESCE(SUM(s.quantity), 0) AS available_stock
	FROM stocks s
	WHERE s.product_id = $1`

	var availableStock int64
	err := r.conn.QueryRowContext(ctx, query, productID).Scan(&availableStock)
	if err != nil {
		slog.ErrorContext(ctx, "[stockRepository] GetAvailableStockByProductID", "queryRowContext", err)
		return 0, err
	}

	return availableStock, nil
}

func (r *stockRepository) WithTransaction(ctx context.Context, fn func(context.Context, *sql.Tx) error) error {
	return pkg.WithTransaction(ctx, r.conn, fn)
}
