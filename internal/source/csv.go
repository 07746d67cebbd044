package source

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"storefront/internal/models"
	"storefront/internal/util"

	"github.com/shopspring/decimal"
)

// Column names expected in the product file header
const (
	ColProductID    = "product_id"
	ColProductName  = "product_name"
	ColCategory     = "category"
	ColPrice        = "price"
	ColQuantitySold = "quantity_sold"
	ColRating       = "rating"
	ColReviewCount  = "review_count"
)

var requiredColumns = []string{
	ColProductID, ColProductName, ColCategory, ColPrice,
	ColQuantitySold, ColRating, ColReviewCount,
}

var (
	// ErrMissingColumn is returned when the header lacks a required column
	ErrMissingColumn = errors.New("missing required column")
	// ErrDuplicateProduct is returned when a product_id appears on more than one row
	ErrDuplicateProduct = errors.New("duplicate product_id")
)

// Batch is the parsed content of one product file
type Batch struct {
	Records  []models.ProductRecord
	Checksum string
}

// ReadProductsFile reads and parses a product CSV file from disk
func ReadProductsFile(path string) (*Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read product file: %w", err)
	}
	return ReadProducts(bytes.NewReader(data))
}

// ReadProducts parses product rows from CSV. Columns are located by header
// name; empty, non-numeric or negative price, quantity_sold and rating cells
// become null. A repeated product_id rejects the file.
func ReadProducts(r io.Reader) (*Batch, error) {
	hash := sha256.New()
	reader := csv.NewReader(io.TeeReader(r, hash))
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty file", ErrMissingColumn)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	index, err := columnIndex(header)
	if err != nil {
		return nil, err
	}
	reader.FieldsPerRecord = len(header)

	var records []models.ProductRecord
	seen := make(map[int64]int)
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read record at line %d: %w", line, err)
		}

		rec, err := parseRecord(row, index)
		if err != nil {
			return nil, fmt.Errorf("invalid record at line %d: %w", line, err)
		}
		if first, ok := seen[rec.ProductID]; ok {
			return nil, fmt.Errorf("invalid record at line %d: %w %d (first at line %d)",
				line, ErrDuplicateProduct, rec.ProductID, first)
		}
		seen[rec.ProductID] = line
		records = append(records, rec)
	}

	return &Batch{
		Records:  records,
		Checksum: hex.EncodeToString(hash.Sum(nil)),
	}, nil
}

func columnIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimPrefix(name, "\ufeff")
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}

	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}
	return index, nil
}

func parseRecord(row []string, index map[string]int) (models.ProductRecord, error) {
	cell := func(col string) string {
		return strings.TrimSpace(row[index[col]])
	}

	id, err := parseInt(cell(ColProductID))
	if err != nil {
		return models.ProductRecord{}, fmt.Errorf("product_id %q: %w", cell(ColProductID), err)
	}

	rec := models.ProductRecord{
		ProductID:   id,
		ProductName: cell(ColProductName),
		Category:    cell(ColCategory),
	}

	if s := cell(ColPrice); !isMissing(s) {
		if d, err := decimal.NewFromString(s); err == nil && !d.IsNegative() {
			rec.Price = decimal.NullDecimal{Decimal: d, Valid: true}
		} else {
			util.SourceInvalidCells.WithLabelValues(ColPrice).Inc()
		}
	}

	if s := cell(ColQuantitySold); !isMissing(s) {
		if n, err := parseInt(s); err == nil && n >= 0 {
			rec.QuantitySold.Int64, rec.QuantitySold.Valid = n, true
		} else {
			util.SourceInvalidCells.WithLabelValues(ColQuantitySold).Inc()
		}
	}

	if s := cell(ColRating); !isMissing(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) && f >= 0 {
			rec.Rating.Float64, rec.Rating.Valid = f, true
		} else {
			util.SourceInvalidCells.WithLabelValues(ColRating).Inc()
		}
	}

	// review_count is not imputed; invalid counts read as zero
	if s := cell(ColReviewCount); !isMissing(s) {
		if n, err := parseInt(s); err == nil && n >= 0 {
			rec.ReviewCount = n
		} else {
			util.SourceInvalidCells.WithLabelValues(ColReviewCount).Inc()
		}
	}

	return rec, nil
}

// isMissing reports whether a cell holds no value. Exports from dataframe
// tools write missing numbers as NaN.
func isMissing(s string) bool {
	switch strings.ToLower(s) {
	case "", "nan", "null", "na", "n/a":
		return true
	}
	return false
}

// parseInt accepts integral values written as floats ("5.0"), which is how
// spreadsheet exports write integer columns that contain blanks.
func parseInt(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsInf(f, 0) || math.IsNaN(f) || math.Abs(f) > math.MaxInt64 || f != math.Trunc(f) {
		return 0, fmt.Errorf("not an integer: %s", s)
	}
	return int64(f), nil
}
