package store

import (
	"context"
	"fmt"

	"storefront/internal/models"
)

const upsertProductQuery = `
	INSERT INTO products (product_id, product_name, category, price, quantity_sold, rating, review_count)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (product_id) DO UPDATE SET
		product_name = EXCLUDED.product_name,
		category = EXCLUDED.category,
		price = EXCLUDED.price,
		quantity_sold = EXCLUDED.quantity_sold,
		rating = EXCLUDED.rating,
		review_count = EXCLUDED.review_count`

// UpsertProducts writes a batch of products in a single transaction.
// Either every row is written or none is.
func (s *Store) UpsertProducts(ctx context.Context, products []models.Product) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, upsertProductQuery)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, p := range products {
		_, err := stmt.ExecContext(ctx,
			p.ProductID, p.ProductName, p.Category, p.Price,
			p.QuantitySold, p.Rating, p.ReviewCount)
		if err != nil {
			return fmt.Errorf("failed to upsert product %d: %w", p.ProductID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit products: %w", err)
	}
	return nil
}

// GetProducts retrieves all products
func (s *Store) GetProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := s.db.SelectContext(ctx, &products, `
		SELECT product_id, product_name, category, price, quantity_sold, rating, review_count
		FROM products ORDER BY product_id`)
	return products, err
}

// GetProductsByCategory retrieves products in one category
func (s *Store) GetProductsByCategory(ctx context.Context, category string) ([]models.Product, error) {
	var products []models.Product
	err := s.db.SelectContext(ctx, &products, `
		SELECT product_id, product_name, category, price, quantity_sold, rating, review_count
		FROM products WHERE category = $1 ORDER BY product_id`, category)
	return products, err
}
