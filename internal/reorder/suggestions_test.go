package reorder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/purchasing-admin/backend-go/internal/domain"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/sales"
)

func catalog() []domain.ProductInfo {
	return []domain.ProductInfo{
		{ProductID: "p1", ProductNumber: "tee-1", ProductName: "Tee", Supplier: "Acme", Collection: "SS24",
			Status: "ACTIVE", TotalPhysicalQuantity: 40, ProductSizeInfo: "S:10,M:0", UnitCost: 50},
		{ProductID: "p2", ProductNumber: "SOCK-1", Status: "ACTIVE", TotalPhysicalQuantity: 500, UnitCost: 10},
		{ProductID: "p3", ProductNumber: "BUNDLE-1", Status: "ACTIVE", IsBundle: true},
		{ProductID: "p4", ProductNumber: "OLD-1", Status: "ARCHIVED"},
		{ProductID: "p5", ProductNumber: "", Status: "ACTIVE"},
	}
}

func orderLines() []domain.OrderLine {
	return []domain.OrderLine{
		{ProductNumber: "TEE-1", ProductName: "Tee (web)", ProductID: "p1", Quantity: 30, Type: domain.ProductOrderLine, Size: "S"},
		{ProductNumber: "TEE-1", ProductName: "Tee (web)", ProductID: "p1", Quantity: 60, Type: domain.ProductOrderLine, Size: "M"},
	}
}

func TestBuildProductSuggestions(t *testing.T) {
	agg := sales.Aggregate(orderLines(), sales.ByProduct)
	rows := BuildProductSuggestions(catalog(), agg, Options{
		Params: defaultParams, Policy: SimplePolicy{}, PeriodDays: 30,
	})

	require.Len(t, rows, 2)

	tee := rows[0]
	assert.Equal(t, "TEE-1", tee.ProductNumber)
	assert.Equal(t, "Tee (web)", tee.ProductName)
	assert.Equal(t, 90, tee.TotalSales)
	assert.InDelta(t, 3.0, tee.AvgDailySales, 1e-9)
	// 3/day * 33 days = 99, minus 40 in stock
	assert.Equal(t, 59, tee.ReorderQty)
	assert.Equal(t, domain.UrgencyMedium, tee.Urgency)
	assert.Equal(t, "Acme", tee.Supplier)

	sock := rows[1]
	assert.Equal(t, "SOCK-1", sock.ProductName)
	assert.Equal(t, domain.UrgencyNoSales, sock.Urgency)
	assert.Nil(t, sock.DaysLeft)
	assert.Equal(t, "-", sock.Supplier)
	assert.Equal(t, "-", sock.Collection)
}

func TestBuildProductSuggestions_Filters(t *testing.T) {
	agg := sales.Aggregate(orderLines(), sales.ByProduct)

	rows := BuildProductSuggestions(catalog(), agg, Options{Params: defaultParams, PeriodDays: 30, Supplier: "Acme"})
	require.Len(t, rows, 1)
	assert.Equal(t, "p1", rows[0].ProductID)

	rows = BuildProductSuggestions(catalog(), agg, Options{Params: defaultParams, PeriodDays: 30, Urgency: domain.UrgencyNoSales})
	require.Len(t, rows, 1)
	assert.Equal(t, "p2", rows[0].ProductID)
}

func TestBuildSizeSuggestions(t *testing.T) {
	agg := sales.Aggregate(orderLines(), sales.ByProductSize)
	rows := BuildSizeSuggestions(catalog(), agg, Options{
		Params:     defaultParams,
		Policy:     DepletionAwarePolicy{},
		PeriodDays: 30,
		Incoming:   map[string]int{"p1_M": 20},
	})

	require.Len(t, rows, 3)

	small := rows[0]
	assert.Equal(t, "p1_S", small.RowID)
	assert.Equal(t, "S", small.Size)
	assert.Equal(t, 10.0, small.CurrentStock)
	assert.Equal(t, 30, small.TotalSales)
	// 1/day: remaining 7, required 33 => 26
	assert.Equal(t, 26, small.ReorderQty)

	medium := rows[1]
	assert.Equal(t, "p1_M", medium.RowID)
	// parsed stock 0 falls back to 40 / 2
	assert.Equal(t, 20.0, medium.CurrentStock)
	assert.Equal(t, 20, medium.IncomingQty)
	// 2/day: remaining 14, required 66, incoming 20 => 32
	assert.Equal(t, 32, medium.ReorderQty)

	sock := rows[2]
	assert.Equal(t, "p2_One Size", sock.RowID)
	assert.Equal(t, 500.0, sock.CurrentStock)
	assert.Equal(t, 0, sock.ReorderQty)
}

func TestBuildSizeSuggestions_DuplicateSizesStayDistinct(t *testing.T) {
	products := []domain.ProductInfo{
		{ProductID: "p9", ProductNumber: "DUP", Status: "ACTIVE", ProductSizeInfo: "M:1,M:2"},
	}
	rows := BuildSizeSuggestions(products, sales.Aggregated{}, Options{Params: defaultParams, PeriodDays: 30})

	require.Len(t, rows, 2)
	assert.Equal(t, "p9_M", rows[0].RowID)
	assert.Equal(t, "p9_M#2", rows[1].RowID)
}

func TestSizeStock(t *testing.T) {
	assert.Equal(t, 7.0, SizeStock(domain.SizeStock{Size: "S", Stock: 7}, 100, 3))
	assert.Equal(t, 34.0, SizeStock(domain.SizeStock{Size: "S"}, 101, 3))
	assert.Equal(t, 3.0, SizeStock(domain.SizeStock{Size: "S"}, 5, 2))
}

func TestSort(t *testing.T) {
	two, five := 2.0, 5.0
	rows := []domain.ReorderSuggestion{
		{RowID: "a", ProductName: "beta", UrgencyRank: 1, DaysLeft: &five, ReorderQty: 3},
		{RowID: "b", ProductName: "Alpha", UrgencyRank: 3, DaysLeft: &two, ReorderQty: 9},
		{RowID: "c", ProductName: "gamma", UrgencyRank: 0, ReorderQty: 0},
	}

	Sort(rows, "urgency", SortDesc)
	assert.Equal(t, []string{"b", "a", "c"}, ids(rows))

	Sort(rows, "daysLeft", SortAsc)
	assert.Equal(t, []string{"c", "b", "a"}, ids(rows))

	Sort(rows, "productName", SortAsc)
	assert.Equal(t, []string{"b", "a", "c"}, ids(rows))

	Sort(rows, "reorderQty", SortDesc)
	assert.Equal(t, []string{"b", "a", "c"}, ids(rows))
}

func TestSuppliersAndCollections(t *testing.T) {
	assert.Equal(t, []string{"Acme"}, Suppliers(catalog()))
	assert.Equal(t, []string{"SS24"}, Collections(catalog()))
}

func ids(rows []domain.ReorderSuggestion) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.RowID
	}
	return out
}
