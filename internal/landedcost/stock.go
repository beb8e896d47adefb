package landedcost

import (
	"strings"

	"github.com/andresuchdata/purchasing-admin/backend-go/internal/domain"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/pricelist"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/reorder"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/sizeinfo"
)

// StockLevel is the stock on hand and current unit cost of a product or size.
type StockLevel struct {
	Stock    float64 `json:"stock"`
	UnitCost float64 `json:"unit_cost"`
}

// StockLevels indexes the catalog by product id and by productId_size. Sizes
// without a positive parsed stock get an even share of the product total.
func StockLevels(products []domain.ProductInfo) map[string]StockLevel {
	levels := make(map[string]StockLevel, len(products))
	for _, p := range products {
		if p.ProductID == "" {
			continue
		}
		levels[p.ProductID] = StockLevel{Stock: p.TotalPhysicalQuantity, UnitCost: p.UnitCost}

		sizes := sizeinfo.Parse(p.ProductSizeInfo)
		for _, ss := range sizes {
			levels[domain.SizeKey(p.ProductID, ss.Size)] = StockLevel{
				Stock:    reorder.SizeStock(ss, p.TotalPhysicalQuantity, len(sizes)),
				UnitCost: p.UnitCost,
			}
		}
	}
	return levels
}

// Level returns the per-size level of an item, falling back to the product.
func Level(levels map[string]StockLevel, item domain.OrderItem) StockLevel {
	if productID, size, ok := item.Key(); ok {
		if l, found := levels[domain.SizeKey(productID, size)]; found {
			return l
		}
		if l, found := levels[productID]; found {
			return l
		}
	}
	return levels[item.ProductID]
}

// DefaultReceived returns the ordered quantity of every item keyed by row id.
func DefaultReceived(items []domain.OrderItem) map[string]int {
	received := make(map[string]int, len(items))
	for _, item := range items {
		received[item.RowID] = item.Quantity
	}
	return received
}

// Lines joins order items with received quantities, stock levels and an
// optional price map. Received quantities are keyed by row id; a bare
// product id is accepted for single-size items.
func Lines(items []domain.OrderItem, received map[string]int, levels map[string]StockLevel, prices domain.PriceMap) []Line {
	lines := make([]Line, 0, len(items))
	for _, item := range items {
		qty, ok := received[item.RowID]
		if !ok && item.ProductID != "" {
			qty = received[item.ProductID]
		}

		level := Level(levels, item)
		line := Line{
			RowID:           item.RowID,
			ReceivedQty:     qty,
			CurrentStock:    level.Stock,
			CurrentUnitCost: level.UnitCost,
		}
		if productID, size, ok := item.Key(); ok && prices != nil {
			if entry, found := pricelist.Lookup(prices, productID, strings.TrimSpace(size)); found {
				e := entry
				line.Price = &e
			}
		}
		lines = append(lines, line)
	}
	return lines
}
