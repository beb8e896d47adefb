// Package pricelist indexes supplier price lists and edits their rows.
package pricelist

import (
	"math"
	"strings"

	"github.com/andresuchdata/purchasing-admin/backend-go/internal/domain"
)

// Key is the productId_size lookup key. Sizes are trimmed.
func Key(productID, size string) string {
	return domain.SizeKey(strings.TrimSpace(productID), strings.TrimSpace(size))
}

// BuildPriceMap indexes items by productId_size. Rebuilding from the same
// items always gives the same map; on duplicate keys the later item wins.
func BuildPriceMap(items []domain.PriceItem) domain.PriceMap {
	m := make(domain.PriceMap, len(items))
	for _, item := range items {
		m[Key(item.ProductID, item.Size)] = domain.PriceEntry{
			Price:    item.Price,
			Currency: item.Currency,
		}
	}
	return m
}

// Lookup returns the price entry for a product and size.
func Lookup(m domain.PriceMap, productID, size string) (domain.PriceEntry, bool) {
	if m == nil {
		return domain.PriceEntry{}, false
	}
	entry, ok := m[Key(productID, size)]
	return entry, ok
}

// CoverageLine reports whether one order item has a price.
type CoverageLine struct {
	RowID     string             `json:"row_id"`
	ProductID string             `json:"product_id"`
	Size      string             `json:"size"`
	Matched   bool               `json:"matched"`
	Price     *domain.PriceEntry `json:"price,omitempty"`
}

// CoverageReport summarizes how much of an order a price list covers.
type CoverageReport struct {
	Matched int            `json:"matched"`
	Total   int            `json:"total"`
	Percent int            `json:"percent"`
	Lines   []CoverageLine `json:"lines"`
}

// Coverage looks every order item up in the price map. Items without a
// resolvable productId_size key count as misses.
func Coverage(items []domain.OrderItem, m domain.PriceMap) CoverageReport {
	report := CoverageReport{Total: len(items), Lines: make([]CoverageLine, 0, len(items))}

	for _, item := range items {
		line := CoverageLine{RowID: item.RowID}
		if productID, size, ok := item.Key(); ok {
			line.ProductID = productID
			line.Size = size
			if entry, found := Lookup(m, productID, size); found {
				e := entry
				line.Matched = true
				line.Price = &e
				report.Matched++
			}
		}
		report.Lines = append(report.Lines, line)
	}

	if report.Total > 0 {
		report.Percent = int(math.Round(float64(report.Matched) / float64(report.Total) * 100))
	}
	return report
}
