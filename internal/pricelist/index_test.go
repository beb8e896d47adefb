package pricelist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/purchasing-admin/backend-go/internal/domain"
)

func TestBuildPriceMap(t *testing.T) {
	items := []domain.PriceItem{
		{ProductID: "p1", Size: "M", Price: 10, Currency: domain.CurrencyEUR},
		{ProductID: "p1", Size: " L ", Price: 11, Currency: domain.CurrencyEUR},
		{ProductID: "p2", Size: "One Size", Price: 5, Currency: domain.CurrencySEK},
	}

	m := BuildPriceMap(items)
	require.Len(t, m, 3)
	assert.Equal(t, domain.PriceEntry{Price: 11, Currency: domain.CurrencyEUR}, m["p1_L"])

	t.Run("idempotent rebuild", func(t *testing.T) {
		assert.Equal(t, m, BuildPriceMap(items))
	})

	t.Run("order independent for distinct keys", func(t *testing.T) {
		reversed := []domain.PriceItem{items[2], items[1], items[0]}
		assert.Equal(t, m, BuildPriceMap(reversed))
	})

	t.Run("last write wins", func(t *testing.T) {
		dup := append(append([]domain.PriceItem(nil), items...), domain.PriceItem{ProductID: "p1", Size: "M", Price: 99, Currency: domain.CurrencyUSD})
		entry, ok := Lookup(BuildPriceMap(dup), "p1", "M")
		require.True(t, ok)
		assert.Equal(t, 99.0, entry.Price)
	})
}

func TestLookup(t *testing.T) {
	m := BuildPriceMap([]domain.PriceItem{{ProductID: "p1", Size: "M", Price: 10, Currency: domain.CurrencyEUR}})

	entry, ok := Lookup(m, "p1", " M")
	assert.True(t, ok)
	assert.Equal(t, domain.CurrencyEUR, entry.Currency)

	_, ok = Lookup(m, "p1", "L")
	assert.False(t, ok)

	_, ok = Lookup(nil, "p1", "M")
	assert.False(t, ok)
}

func TestCoverage(t *testing.T) {
	m := BuildPriceMap([]domain.PriceItem{
		{ProductID: "p1", Size: "M", Price: 10, Currency: domain.CurrencyEUR},
		{ProductID: "p2", Size: "S", Price: 4, Currency: domain.CurrencySEK},
	})
	items := []domain.OrderItem{
		{RowID: "p1_M", ProductID: "p1", Size: "M"},
		{RowID: "p2_S", Size: "S"},
		{RowID: "p3_L", ProductID: "p3", Size: "L"},
		{RowID: "legacy"},
	}

	report := Coverage(items, m)
	assert.Equal(t, 2, report.Matched)
	assert.Equal(t, 4, report.Total)
	assert.Equal(t, 50, report.Percent)
	require.Len(t, report.Lines, 4)
	assert.True(t, report.Lines[1].Matched)
	assert.Equal(t, "p2", report.Lines[1].ProductID)
	assert.False(t, report.Lines[3].Matched)
	assert.Nil(t, report.Lines[3].Price)

	assert.Equal(t, 0, Coverage(nil, m).Percent)
}
