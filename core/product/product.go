package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("product not found")

type Product struct {
	ID          string    `json:"id" db:"product_id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Price       int       `json:"price" db:"price"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"-" db:"updated_at"`
}

func Fetch(ctx context.Context, db *sqlx.DB, id string) (Product, error) {
	const q = `
	SELECT product_id, name, description, price, created_at, updated_at
	FROM products
	WHERE product_id = $1`

	var prd Product
	if err := db.GetContext(ctx, &prd, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, fmt.Errorf("selecting product[%s]: %w", id, err)
	}
	return prd, nil
}

func FetchAll(ctx context.Context, db *sqlx.DB) ([]Product, error) {
	const q = `
	SELECT product_id, name, description, price, created_at, updated_at
	FROM products
	ORDER BY name`

	products := []Product{}
	if err := db.SelectContext(ctx, &products, q); err != nil {
		return nil, fmt.Errorf("selecting products: %w", err)
	}
	return products, nil
}
