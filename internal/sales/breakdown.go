package sales

import (
	"sort"
	"strings"

	"github.com/andresuchdata/purchasing-admin/backend-go/internal/domain"
)

// BreakdownFilter narrows a breakdown by catalog attributes. Empty fields and
// "all" match everything.
type BreakdownFilter struct {
	ProductType string
	Collection  string
	Supplier    string
	SortBy      string // total, standalone or stock
}

// Breakdown counts standalone units (parent lines) separately from units
// that were sold as part of a bundle.
func Breakdown(lines []domain.OrderLine) map[string]*domain.ProductSalesBreakdown {
	out := make(map[string]*domain.ProductSalesBreakdown)

	entry := func(productNumber, name string) *domain.ProductSalesBreakdown {
		key := Key(productNumber, "", ByProduct)
		b, ok := out[key]
		if !ok {
			b = &domain.ProductSalesBreakdown{ProductNumber: key, ProductName: name}
			out[key] = b
		}
		if b.ProductName == "" {
			b.ProductName = name
		}
		return b
	}

	for _, line := range lines {
		if strings.TrimSpace(line.ProductNumber) != "" && line.Type.CountsAsParent() {
			b := entry(line.ProductNumber, line.ProductName)
			b.Standalone += line.Quantity
			b.Total += line.Quantity
		}
		for _, child := range line.Children {
			if strings.TrimSpace(child.ProductNumber) == "" || !child.Type.CountsAsChild() {
				continue
			}
			b := entry(child.ProductNumber, child.ProductName)
			b.FromBundles += child.Quantity
			b.Total += child.Quantity
		}
	}

	return out
}

// FilterAndSort applies catalog filters and orders the breakdown, largest
// first.
func FilterAndSort(breakdown map[string]*domain.ProductSalesBreakdown, products []domain.ProductInfo, filter BreakdownFilter) []domain.ProductSalesBreakdown {
	catalog := indexProducts(products)

	rows := make([]domain.ProductSalesBreakdown, 0, len(breakdown))
	for key, b := range breakdown {
		info := catalog[key]
		if !matches(filter.ProductType, info.ProductType) ||
			!matches(filter.Collection, info.Collection) ||
			!matches(filter.Supplier, info.Supplier) {
			continue
		}
		rows = append(rows, *b)
	}

	value := func(b domain.ProductSalesBreakdown) float64 { return float64(b.Total) }
	switch filter.SortBy {
	case "standalone":
		value = func(b domain.ProductSalesBreakdown) float64 { return float64(b.Standalone) }
	case "stock":
		value = func(b domain.ProductSalesBreakdown) float64 {
			return catalog[b.ProductNumber].TotalPhysicalQuantity
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		vi, vj := value(rows[i]), value(rows[j])
		if vi != vj {
			return vi > vj
		}
		return rows[i].ProductNumber < rows[j].ProductNumber
	})

	return rows
}

// ByProductType groups the breakdown by the catalog's product type. Products
// missing from the catalog are grouped under "-".
func ByProductType(breakdown map[string]*domain.ProductSalesBreakdown, products []domain.ProductInfo) []domain.ProductTypeSales {
	catalog := indexProducts(products)
	groups := make(map[string]*domain.ProductTypeSales)

	for key, b := range breakdown {
		productType := strings.TrimSpace(catalog[key].ProductType)
		if productType == "" {
			productType = "-"
		}
		g, ok := groups[productType]
		if !ok {
			g = &domain.ProductTypeSales{ProductType: productType}
			groups[productType] = g
		}
		g.Standalone += b.Standalone
		g.Total += b.Total
		g.Products++
	}

	out := make([]domain.ProductTypeSales, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Standalone != out[j].Standalone {
			return out[i].Standalone > out[j].Standalone
		}
		return out[i].ProductType < out[j].ProductType
	})
	return out
}

func indexProducts(products []domain.ProductInfo) map[string]domain.ProductInfo {
	catalog := make(map[string]domain.ProductInfo, len(products))
	for _, p := range products {
		catalog[Key(p.ProductNumber, "", ByProduct)] = p
	}
	return catalog
}

func matches(want, got string) bool {
	want = strings.TrimSpace(want)
	return want == "" || strings.EqualFold(want, "all") || want == got
}
