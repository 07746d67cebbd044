package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// ProductRecord is a product row as read from the source file.
// Numeric columns the source may leave empty are nullable.
type ProductRecord struct {
	ProductID    int64
	ProductName  string
	Category     string
	Price        decimal.NullDecimal
	QuantitySold sql.NullInt64
	Rating       sql.NullFloat64
	ReviewCount  int64
}

// Product represents a sanitized product in the catalog
type Product struct {
	ProductID    int64           `db:"product_id" json:"product_id"`
	ProductName  string          `db:"product_name" json:"product_name"`
	Category     string          `db:"category" json:"category"`
	Price        decimal.Decimal `db:"price" json:"price"`
	QuantitySold int64           `db:"quantity_sold" json:"quantity_sold"`
	Rating       float64         `db:"rating" json:"rating"`
	ReviewCount  int64           `db:"review_count" json:"review_count"`
}

// Revenue returns price × quantity_sold
func (p Product) Revenue() decimal.Decimal {
	return p.Price.Mul(decimal.NewFromInt(p.QuantitySold))
}

// CategorySummary is one row of the per-category sales summary.
// TotalRevenue is the revenue of the row's top product; CategoryRevenue
// sums every product in the category.
type CategorySummary struct {
	Category               string          `json:"category"`
	TotalRevenue           decimal.Decimal `json:"total_revenue"`
	TopProduct             string          `json:"top_product"`
	TopProductQuantitySold int64           `json:"top_product_quantity_sold"`
	CategoryRevenue        decimal.Decimal `json:"category_revenue"`
}

// User represents a registered account
type User struct {
	UserID       int64     `db:"user_id" json:"user_id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
