// Package sales folds order lines into per-product or per-size sales totals.
package sales

import (
	"strings"

	"github.com/andresuchdata/purchasing-admin/backend-go/internal/domain"
)

// KeyMode selects how totals are keyed.
type KeyMode int

const (
	// ByProduct keys totals by the uppercased product number.
	ByProduct KeyMode = iota
	// ByProductSize keys totals by UPPER(productNumber)_size.
	ByProductSize
)

// Totals is the running sales figure for one key.
type Totals struct {
	TotalSales  int    `json:"total_sales"`
	ProductName string `json:"product_name"`
	ProductID   string `json:"product_id"`
}

// Aggregated maps a sales key to its totals.
type Aggregated map[string]*Totals

// Get returns the total for key, or 0 when the key never sold.
func (a Aggregated) Get(key string) int {
	if t, ok := a[key]; ok {
		return t.TotalSales
	}
	return 0
}

// Key builds the aggregation key for a product number and size.
func Key(productNumber, size string, mode KeyMode) string {
	key := strings.ToUpper(strings.TrimSpace(productNumber))
	if mode == ByProductSize {
		return key + "_" + NormalizeSize(size)
	}
	return key
}

// NormalizeSize trims a size label, defaulting to "One Size".
func NormalizeSize(size string) string {
	size = strings.TrimSpace(size)
	if size == "" {
		return domain.OneSize
	}
	return size
}

// Aggregate builds totals from scratch in a single pass. Every line and
// child with a product number gets an entry, but only product and bundle
// lines add to a parent total and only bundle items add to a child total.
func Aggregate(lines []domain.OrderLine, mode KeyMode) Aggregated {
	out := make(Aggregated)

	for _, line := range lines {
		if strings.TrimSpace(line.ProductNumber) != "" {
			qty := 0
			if line.Type.CountsAsParent() {
				qty = line.Quantity
			}
			out.add(Key(line.ProductNumber, line.Size, mode), qty, line.ProductName, line.ProductID)
		}

		for _, child := range line.Children {
			if strings.TrimSpace(child.ProductNumber) == "" {
				continue
			}
			qty := 0
			if child.Type.CountsAsChild() {
				qty = child.Quantity
			}
			out.add(Key(child.ProductNumber, child.Size, mode), qty, child.ProductName, child.ProductID)
		}
	}

	return out
}

// Merge adds the totals of other into a. Merging partial aggregations gives
// the same totals as aggregating the concatenated lines.
func (a Aggregated) Merge(other Aggregated) {
	for key, t := range other {
		a.add(key, t.TotalSales, t.ProductName, t.ProductID)
	}
}

func (a Aggregated) add(key string, qty int, name, id string) {
	t, ok := a[key]
	if !ok {
		t = &Totals{}
		a[key] = t
	}
	t.TotalSales += qty
	t.ProductName = pick(t.ProductName, name)
	t.ProductID = pick(t.ProductID, id)
}

// pick keeps the smaller non-empty value so the result does not depend on
// line order.
func pick(current, candidate string) string {
	if current == "" || (candidate != "" && candidate < current) {
		return candidate
	}
	return current
}
