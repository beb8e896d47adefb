package csvcodec

import (
	"strconv"
	"strings"

	"github.com/andresuchdata/purchasing-admin/backend-go/internal/domain"
	"github.com/andresuchdata/purchasing-admin/backend-go/pkg/numconv"
)

const (
	ColProductID       = "ProductID"
	ColProductNumber   = "Product Number"
	ColProductName     = "Product Name"
	ColSupplier        = "Supplier"
	ColCollection      = "Collection"
	ColStock           = "Stock"
	ColSize            = "Size"
	ColUnitCost        = "Unit Cost"
	ColQuantityToOrder = "Quantity to Order"
)

// OrderRequiredColumns must be present in an uploaded purchase order.
var OrderRequiredColumns = []string{
	ColProductID, ColProductNumber, ColProductName, ColSize, ColUnitCost, ColQuantityToOrder,
}

// OrderColumns is the column layout of exported orders and suggestions.
var OrderColumns = []string{
	ColProductID, ColProductNumber, ColProductName, ColSupplier, ColCollection,
	ColStock, ColSize, ColUnitCost, ColQuantityToOrder,
}

// ParsePurchaseOrder reads an uploaded purchase order. Numbers are permissive:
// anything unparseable becomes 0.
func ParsePurchaseOrder(data string) ([]domain.OrderItem, error) {
	table, err := Parse(data, OrderRequiredColumns...)
	if err != nil {
		return nil, err
	}

	items := make([]domain.OrderItem, 0, len(table.Records))
	for _, r := range table.Records {
		productID := r.Get(ColProductID)
		size := r.Get(ColSize)
		items = append(items, domain.OrderItem{
			RowID:         domain.SizeKey(productID, size),
			ProductID:     productID,
			ProductNumber: r.Get(ColProductNumber),
			ProductName:   r.Get(ColProductName),
			Supplier:      orDash(r.Get(ColSupplier)),
			Collection:    orDash(r.Get(ColCollection)),
			Stock:         numconv.Float(r.Get(ColStock)),
			Size:          size,
			UnitCost:      numconv.Float(r.Get(ColUnitCost)),
			Quantity:      numconv.LeadingInt(r.Get(ColQuantityToOrder)),
		})
	}
	return items, nil
}

// SuggestionsCSV exports suggestion rows with their plain product ids. An
// entry in overrides, keyed by row id, replaces the suggested quantity.
func SuggestionsCSV(rows []domain.ReorderSuggestion, overrides map[string]int) string {
	out := make([][]string, 0, len(rows))
	for _, s := range rows {
		qty := s.ReorderQty
		if v, ok := overrides[s.RowID]; ok {
			qty = v
		}
		out = append(out, []string{
			s.ProductID,
			s.ProductNumber,
			s.ProductName,
			s.Supplier,
			s.Collection,
			numconv.FormatFloat(s.CurrentStock),
			s.Size,
			numconv.FormatFloat(s.UnitCost),
			strconv.Itoa(qty),
		})
	}
	return Serialize(OrderColumns, out)
}

// PurchaseOrderCSV exports the items of a stored order.
func PurchaseOrderCSV(items []domain.OrderItem) string {
	out := make([][]string, 0, len(items))
	for _, item := range items {
		productID := item.ProductID
		if productID == "" {
			productID, _, _ = item.Key()
		}
		out = append(out, []string{
			productID,
			item.ProductNumber,
			item.ProductName,
			item.Supplier,
			item.Collection,
			numconv.FormatFloat(item.Stock),
			item.Size,
			numconv.FormatFloat(item.UnitCost),
			strconv.Itoa(item.Quantity),
		})
	}
	return Serialize(OrderColumns, out)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
