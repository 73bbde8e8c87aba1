package domain

import "context"

type Product struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	UPC   string `json:"upc"`
}

type ProductRepository interface {
	GetByID(ctx context.Context, id int64) (Product, error)
}
