package service

import (
	"sort"

	"storefront/internal/models"

	"github.com/shopspring/decimal"
)

type categoryGroup struct {
	products []models.Product
	maxSold  int64
	revenue  decimal.Decimal
}

// Aggregate computes the per-category sales summary. Each category yields
// one row per product whose quantity sold equals the category maximum, so a
// tie between k products produces k rows. Rows are ordered by category name
// and then by product ID.
func Aggregate(products []models.Product) []models.CategorySummary {
	groups := make(map[string]*categoryGroup)
	for _, p := range products {
		g, ok := groups[p.Category]
		if !ok {
			g = &categoryGroup{maxSold: p.QuantitySold, revenue: decimal.Zero}
			groups[p.Category] = g
		}
		g.products = append(g.products, p)
		g.revenue = g.revenue.Add(p.Revenue())
		if p.QuantitySold > g.maxSold {
			g.maxSold = p.QuantitySold
		}
	}

	categories := make([]string, 0, len(groups))
	for c := range groups {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	summaries := make([]models.CategorySummary, 0, len(categories))
	for _, c := range categories {
		g := groups[c]

		var top []models.Product
		for _, p := range g.products {
			if p.QuantitySold == g.maxSold {
				top = append(top, p)
			}
		}
		sort.Slice(top, func(i, j int) bool { return top[i].ProductID < top[j].ProductID })

		for _, p := range top {
			summaries = append(summaries, models.CategorySummary{
				Category:               c,
				TotalRevenue:           p.Revenue(),
				TopProduct:             p.ProductName,
				TopProductQuantitySold: p.QuantitySold,
				CategoryRevenue:        g.revenue,
			})
		}
	}

	return summaries
}
