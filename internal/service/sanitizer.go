package service

import (
	"fmt"
	"math"
	"sort"

	"storefront/internal/models"

	"github.com/shopspring/decimal"
)

// Imputation describes the values a Sanitize pass substituted for nulls.
// A statistic is only meaningful when its Has* flag is set.
type Imputation struct {
	PriceMedian       decimal.Decimal
	HasPriceMedian    bool
	QuantityMedian    int64
	HasQuantityMedian bool
	RatingMean        float64
	HasRatingMean     bool
	PricesFilled      int
	QuantitiesFilled  int
	RatingsFilled     int
}

// Sanitize replaces missing numeric fields using statistics over the whole
// batch: median price, median quantity sold and mean rating of the non-null
// values. The input slice is not modified. A column with no values at all
// is left null.
func Sanitize(records []models.ProductRecord) ([]models.ProductRecord, Imputation) {
	var (
		prices     []decimal.Decimal
		quantities []int64
		ratings    []float64
	)
	for _, r := range records {
		if r.Price.Valid {
			prices = append(prices, r.Price.Decimal)
		}
		if r.QuantitySold.Valid {
			quantities = append(quantities, r.QuantitySold.Int64)
		}
		if r.Rating.Valid {
			ratings = append(ratings, r.Rating.Float64)
		}
	}

	var imp Imputation
	imp.PriceMedian, imp.HasPriceMedian = medianDecimal(prices)
	imp.QuantityMedian, imp.HasQuantityMedian = medianInt(quantities)
	imp.RatingMean, imp.HasRatingMean = mean(ratings)

	out := make([]models.ProductRecord, len(records))
	for i, r := range records {
		if !r.Price.Valid && imp.HasPriceMedian {
			r.Price = decimal.NullDecimal{Decimal: imp.PriceMedian, Valid: true}
			imp.PricesFilled++
		}
		if !r.QuantitySold.Valid && imp.HasQuantityMedian {
			r.QuantitySold.Int64, r.QuantitySold.Valid = imp.QuantityMedian, true
			imp.QuantitiesFilled++
		}
		if !r.Rating.Valid && imp.HasRatingMean {
			r.Rating.Float64, r.Rating.Valid = imp.RatingMean, true
			imp.RatingsFilled++
		}
		out[i] = r
	}

	return out, imp
}

// ToProducts converts sanitized records into catalog products. It fails on
// the first record that still has a null numeric field.
func ToProducts(records []models.ProductRecord) ([]models.Product, error) {
	products := make([]models.Product, 0, len(records))
	for _, r := range records {
		switch {
		case !r.Price.Valid:
			return nil, fmt.Errorf("product %d: %w: price", r.ProductID, ErrUnimputable)
		case !r.QuantitySold.Valid:
			return nil, fmt.Errorf("product %d: %w: quantity_sold", r.ProductID, ErrUnimputable)
		case !r.Rating.Valid:
			return nil, fmt.Errorf("product %d: %w: rating", r.ProductID, ErrUnimputable)
		}

		products = append(products, models.Product{
			ProductID:    r.ProductID,
			ProductName:  r.ProductName,
			Category:     r.Category,
			Price:        r.Price.Decimal,
			QuantitySold: r.QuantitySold.Int64,
			Rating:       r.Rating.Float64,
			ReviewCount:  r.ReviewCount,
		})
	}
	return products, nil
}

func medianDecimal(values []decimal.Decimal) (decimal.Decimal, bool) {
	if len(values) == 0 {
		return decimal.Zero, false
	}
	sorted := append([]decimal.Decimal(nil), values...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid], true
	}
	return sorted[mid-1].Add(sorted[mid]).Div(decimal.NewFromInt(2)), true
}

// medianInt rounds an even-sized median half away from zero.
func medianInt(values []int64) (int64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	sorted := append([]int64(nil), values...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid], true
	}
	return int64(math.Round((float64(sorted[mid-1]) + float64(sorted[mid])) / 2)), true
}

func mean(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), true
}
