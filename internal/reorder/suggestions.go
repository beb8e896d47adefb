package reorder

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/andresuchdata/purchasing-admin/backend-go/internal/domain"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/sales"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/sizeinfo"
	"github.com/andresuchdata/purchasing-admin/backend-go/pkg/numconv"
)

const placeholder = "-"

// Options configure a suggestion pass.
type Options struct {
	Params     Params
	Policy     Policy
	PeriodDays int

	// Supplier and Collection narrow the catalog; empty or "all" keeps everything.
	Supplier   string
	Collection string

	// Urgency keeps only rows of that class when set.
	Urgency domain.Urgency

	// Incoming maps productId_size to quantities already on order.
	Incoming map[string]int
}

func (o Options) policy() Policy {
	if o.Policy == nil {
		return DepletionAwarePolicy{}
	}
	return o.Policy
}

// BuildProductSuggestions returns one row per eligible product, using the
// product's total stock. Sales must be aggregated with sales.ByProduct.
func BuildProductSuggestions(products []domain.ProductInfo, agg sales.Aggregated, opts Options) []domain.ReorderSuggestion {
	policy := opts.policy()
	out := make([]domain.ReorderSuggestion, 0, len(products))

	for _, product := range products {
		if !include(product, opts) {
			continue
		}

		key := sales.Key(product.ProductNumber, "", sales.ByProduct)
		totals := agg[key]

		name := product.ProductNumber
		productID := product.ProductID
		totalSales := 0
		if totals != nil {
			totalSales = totals.TotalSales
			if totals.ProductName != "" {
				name = totals.ProductName
			}
			if totals.ProductID != "" {
				productID = totals.ProductID
			}
		}

		stock := product.TotalPhysicalQuantity
		res := policy.Calculate(Input{
			TotalSales:   totalSales,
			PeriodDays:   opts.PeriodDays,
			CurrentStock: stock,
		}, opts.Params)
		class := Classify(stock, res.AvgDailySales, opts.Params)

		row := domain.ReorderSuggestion{
			RowID:         productID,
			ProductID:     productID,
			ProductNumber: key,
			ProductName:   name,
			ProductType:   product.ProductType,
			Supplier:      orPlaceholder(product.Supplier),
			Collection:    orPlaceholder(product.Collection),
			Size:          domain.OneSize,
			CurrentStock:  stock,
			UnitCost:      product.UnitCost,
			TotalSales:    totalSales,
			AvgDailySales: res.AvgDailySales,
			ReorderQty:    res.ReorderQty,
		}
		applyClass(&row, class)

		if opts.Urgency != "" && row.Urgency != opts.Urgency {
			continue
		}
		out = append(out, row)
	}

	return uniqueRowIDs(out)
}

// BuildSizeSuggestions returns one row per parsed size of each eligible
// product. Sales must be aggregated with sales.ByProductSize. Per-size stock
// is the parsed stock, or an even split of total stock when that is not
// positive.
func BuildSizeSuggestions(products []domain.ProductInfo, agg sales.Aggregated, opts Options) []domain.ReorderSuggestion {
	policy := opts.policy()
	var out []domain.ReorderSuggestion

	for _, product := range products {
		if !include(product, opts) {
			continue
		}

		sizes := sizeinfo.Parse(product.ProductSizeInfo)
		for _, ss := range sizes {
			size := strings.TrimSpace(ss.Size)
			totals := agg[sales.Key(product.ProductNumber, size, sales.ByProductSize)]

			name := product.ProductNumber
			totalSales := 0
			if totals != nil {
				totalSales = totals.TotalSales
				if totals.ProductName != "" {
					name = totals.ProductName
				}
			}

			stock := SizeStock(ss, product.TotalPhysicalQuantity, len(sizes))
			incomingKey := domain.SizeKey(product.ProductID, size)
			incoming := opts.Incoming[incomingKey]

			res := policy.Calculate(Input{
				TotalSales:   totalSales,
				PeriodDays:   opts.PeriodDays,
				CurrentStock: stock,
				IncomingQty:  float64(incoming),
			}, opts.Params)
			class := Classify(stock, res.AvgDailySales, opts.Params)

			row := domain.ReorderSuggestion{
				RowID:         incomingKey,
				ProductID:     product.ProductID,
				ProductNumber: product.ProductNumber,
				ProductName:   name,
				ProductType:   product.ProductType,
				Supplier:      orPlaceholder(product.Supplier),
				Collection:    orPlaceholder(product.Collection),
				Size:          size,
				CurrentStock:  stock,
				UnitCost:      product.UnitCost,
				TotalSales:    totalSales,
				AvgDailySales: res.AvgDailySales,
				IncomingQty:   incoming,
				ReorderQty:    res.ReorderQty,
			}
			applyClass(&row, class)

			if opts.Urgency != "" && row.Urgency != opts.Urgency {
				continue
			}
			out = append(out, row)
		}
	}

	return uniqueRowIDs(out)
}

// SizeStock is the stock used for one size: the parsed figure when positive,
// otherwise total stock split evenly over the sizes and rounded.
func SizeStock(ss domain.SizeStock, totalStock float64, sizeCount int) float64 {
	if ss.Stock > 0 {
		return float64(ss.Stock)
	}
	if sizeCount < 1 {
		sizeCount = 1
	}
	return float64(numconv.RoundHalfUp(totalStock / float64(sizeCount)))
}

// Suppliers returns the distinct non-empty suppliers of the catalog, sorted.
func Suppliers(products []domain.ProductInfo) []string {
	return distinct(products, func(p domain.ProductInfo) string { return p.Supplier })
}

// Collections returns the distinct non-empty collections of the catalog, sorted.
func Collections(products []domain.ProductInfo) []string {
	return distinct(products, func(p domain.ProductInfo) string { return p.Collection })
}

// SortDirection is asc or desc.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Sort orders rows in place by a column name. Urgency sorts by rank and rows
// without a days-left value sort as negative infinity. Unknown columns sort by
// urgency rank.
func Sort(rows []domain.ReorderSuggestion, field string, dir SortDirection) {
	numeric, text := sortKey(field)

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if numeric != nil {
			va, vb := numeric(a), numeric(b)
			if dir == SortAsc {
				return va < vb
			}
			return va > vb
		}
		va, vb := strings.ToLower(text(a)), strings.ToLower(text(b))
		if dir == SortAsc {
			return va < vb
		}
		return va > vb
	})
}

func sortKey(field string) (func(domain.ReorderSuggestion) float64, func(domain.ReorderSuggestion) string) {
	switch field {
	case "daysLeft", "days_left":
		return func(r domain.ReorderSuggestion) float64 {
			if r.DaysLeft == nil {
				return math.Inf(-1)
			}
			return *r.DaysLeft
		}, nil
	case "currentStock", "current_stock":
		return func(r domain.ReorderSuggestion) float64 { return r.CurrentStock }, nil
	case "totalSales", "total_sales":
		return func(r domain.ReorderSuggestion) float64 { return float64(r.TotalSales) }, nil
	case "avgDailySales", "avg_daily_sales":
		return func(r domain.ReorderSuggestion) float64 { return r.AvgDailySales }, nil
	case "reorderQty", "reorder_qty":
		return func(r domain.ReorderSuggestion) float64 { return float64(r.ReorderQty) }, nil
	case "incomingQty", "incoming_qty":
		return func(r domain.ReorderSuggestion) float64 { return float64(r.IncomingQty) }, nil
	case "unitCost", "unit_cost":
		return func(r domain.ReorderSuggestion) float64 { return r.UnitCost }, nil
	case "productNumber", "product_number":
		return nil, func(r domain.ReorderSuggestion) string { return r.ProductNumber }
	case "productName", "product_name":
		return nil, func(r domain.ReorderSuggestion) string { return r.ProductName }
	case "supplier":
		return nil, func(r domain.ReorderSuggestion) string { return r.Supplier }
	case "collection":
		return nil, func(r domain.ReorderSuggestion) string { return r.Collection }
	case "size":
		return nil, func(r domain.ReorderSuggestion) string { return r.Size }
	default:
		return func(r domain.ReorderSuggestion) float64 { return float64(r.UrgencyRank) }, nil
	}
}

func include(product domain.ProductInfo, opts Options) bool {
	if strings.TrimSpace(product.ProductNumber) == "" || !product.Eligible() {
		return false
	}
	return matchFilter(opts.Supplier, product.Supplier) && matchFilter(opts.Collection, product.Collection)
}

func matchFilter(want, got string) bool {
	want = strings.TrimSpace(want)
	return want == "" || strings.EqualFold(want, "all") || want == got
}

func applyClass(row *domain.ReorderSuggestion, class Classification) {
	row.Urgency = class.Urgency
	row.UrgencyLabel = class.Urgency.Label()
	row.UrgencyRank = class.Rank
	row.DaysLeft = class.DaysLeft
}

// uniqueRowIDs keeps row ids distinct when two rows would share one, e.g. a
// size listed twice. Later rows get a #2, #3 suffix.
func uniqueRowIDs(rows []domain.ReorderSuggestion) []domain.ReorderSuggestion {
	seen := make(map[string]int, len(rows))
	for i := range rows {
		id := rows[i].RowID
		seen[id]++
		if n := seen[id]; n > 1 {
			rows[i].RowID = fmt.Sprintf("%s#%d", id, n)
		}
	}
	return rows
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return placeholder
	}
	return s
}

func distinct(products []domain.ProductInfo, field func(domain.ProductInfo) string) []string {
	set := make(map[string]struct{})
	for _, p := range products {
		if v := field(p); v != "" {
			set[v] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
