// backend-go/internal/domain/models.go
package domain

import "strings"

// LineType tags an order line. Only the known values are counted as sales.
type LineType string

const (
	ProductOrderLine    LineType = "ProductOrderLine"
	BundleOrderLine     LineType = "BundleOrderLine"
	BundleItemOrderLine LineType = "BundleItemOrderLine"
)

// CountsAsParent reports whether a top-level line of this type adds to sales.
func (t LineType) CountsAsParent() bool {
	return t == ProductOrderLine || t == BundleOrderLine
}

// CountsAsChild reports whether a bundle child of this type adds to sales.
func (t LineType) CountsAsChild() bool {
	return t == BundleItemOrderLine
}

// OrderLine is one sold line from the sales system, already normalized at
// ingestion.
type OrderLine struct {
	ProductNumber string           `json:"product_number"`
	ProductName   string           `json:"product_name"`
	ProductID     string           `json:"product_id"`
	Quantity      int              `json:"quantity"`
	Type          LineType         `json:"type"`
	Size          string           `json:"size,omitempty"`
	Children      []ChildOrderLine `json:"children,omitempty"`
}

// ChildOrderLine is a component line of a bundle.
type ChildOrderLine struct {
	ProductNumber string   `json:"product_number"`
	ProductName   string   `json:"product_name"`
	ProductID     string   `json:"product_id"`
	Quantity      int      `json:"quantity"`
	Type          LineType `json:"type"`
	Size          string   `json:"size,omitempty"`
}

// ProductStatusActive is the only status eligible for reorder suggestions.
const ProductStatusActive = "ACTIVE"

// ProductInfo is the catalog and stock snapshot for one product.
type ProductInfo struct {
	ProductID             string  `json:"product_id"`
	ProductNumber         string  `json:"product_number"`
	ProductName           string  `json:"product_name"`
	ProductType           string  `json:"product_type"`
	Collection            string  `json:"collection"`
	Supplier              string  `json:"supplier"`
	Status                string  `json:"status"`
	IsBundle              bool    `json:"is_bundle"`
	TotalPhysicalQuantity float64 `json:"total_physical_quantity"`
	ProductSizeInfo       string  `json:"product_size_info"`
	UnitCost              float64 `json:"unit_cost"`
}

// Eligible reports whether the product may receive reorder suggestions.
func (p ProductInfo) Eligible() bool {
	return p.Status == ProductStatusActive && !p.IsBundle
}

// DisplayName falls back to the product number when no name is known.
func (p ProductInfo) DisplayName() string {
	if strings.TrimSpace(p.ProductName) != "" {
		return p.ProductName
	}
	return p.ProductNumber
}

// OneSize is the size label used when a product has no size breakdown.
const OneSize = "One Size"

// SizeStock is one size of a product and its stock count.
type SizeStock struct {
	Size  string `json:"size"`
	Stock int    `json:"stock"`
}

// SizeKey joins a product id and a size into the composite key used for
// incoming quantities, price lookups and stock levels.
func SizeKey(productID, size string) string {
	return productID + "_" + size
}
