package reorder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/purchasing-admin/backend-go/internal/domain"
)

var defaultParams = Params{DeliveryTimeDays: 3, CoverageDays: 30, GrowthPercent: 0}

func TestSimplePolicy(t *testing.T) {
	res := SimplePolicy{}.Calculate(Input{TotalSales: 300, PeriodDays: 30, CurrentStock: 100, IncomingQty: 500}, defaultParams)

	assert.InDelta(t, 10.0, res.AvgDailySales, 1e-9)
	assert.InDelta(t, 330.0, res.RequiredStock, 1e-9)
	// incoming is ignored by the simple policy
	assert.Equal(t, 230, res.ReorderQty)
}

func TestSimplePolicy_Growth(t *testing.T) {
	p := defaultParams
	p.GrowthPercent = 50
	res := SimplePolicy{}.Calculate(Input{TotalSales: 300, PeriodDays: 30, CurrentStock: 0}, p)

	assert.InDelta(t, 15.0, res.AdjustedDailySales, 1e-9)
	assert.Equal(t, 495, res.ReorderQty)
}

func TestDepletionAwarePolicy(t *testing.T) {
	tests := []struct {
		name string
		in   Input
		want int
	}{
		// remaining = 100 - 30 = 70, required 330 => 260
		{"stock left at arrival", Input{TotalSales: 300, PeriodDays: 30, CurrentStock: 100}, 260},
		// incoming subtracts
		{"incoming", Input{TotalSales: 300, PeriodDays: 30, CurrentStock: 100, IncomingQty: 60}, 200},
		// stock runs out before arrival, remaining floors at 0
		{"depleted before arrival", Input{TotalSales: 300, PeriodDays: 30, CurrentStock: 10}, 330},
		{"never negative", Input{TotalSales: 300, PeriodDays: 30, CurrentStock: 1000}, 0},
		{"no sales", Input{TotalSales: 0, PeriodDays: 30, CurrentStock: 0}, 0},
		{"zero period", Input{TotalSales: 3, PeriodDays: 0, CurrentStock: 0}, 99},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DepletionAwarePolicy{}.Calculate(tt.in, defaultParams).ReorderQty)
		})
	}
}

func TestPoliciesAreMonotonicInStock(t *testing.T) {
	policies := []Policy{SimplePolicy{}, DepletionAwarePolicy{}}
	for _, policy := range policies {
		t.Run(policy.Name(), func(t *testing.T) {
			prev := -1
			for stock := 400.0; stock >= 0; stock -= 7 {
				qty := policy.Calculate(Input{TotalSales: 123, PeriodDays: 17, CurrentStock: stock, IncomingQty: 5}, defaultParams).ReorderQty
				if prev >= 0 {
					assert.GreaterOrEqual(t, qty, prev, "stock %v", stock)
				}
				prev = qty
			}
		})
	}
}

func TestPolicyByName(t *testing.T) {
	p, err := PolicyByName("simple")
	require.NoError(t, err)
	assert.Equal(t, PolicySimple, p.Name())

	p, err = PolicyByName("")
	require.NoError(t, err)
	assert.Equal(t, PolicyDepletionAware, p.Name())

	_, err = PolicyByName("magic")
	assert.Error(t, err)
}

func TestParamsValidate(t *testing.T) {
	assert.NoError(t, defaultParams.Validate())
	assert.Error(t, Params{DeliveryTimeDays: -1}.Validate())
	assert.Error(t, Params{CoverageDays: -5}.Validate())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		stock float64
		want  domain.Urgency
		rank  int
	}{
		{"under delivery time", 29, domain.UrgencyHigh, 3},
		{"under half coverage", 31, domain.UrgencyMedium, 2},
		{"plenty", 200, domain.UrgencyLow, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Classify(tt.stock, 10, defaultParams)
			assert.Equal(t, tt.want, c.Urgency)
			assert.Equal(t, tt.rank, c.Rank)
			require.NotNil(t, c.DaysLeft)
			assert.InDelta(t, tt.stock/10, *c.DaysLeft, 1e-9)
		})
	}

	t.Run("no sales", func(t *testing.T) {
		c := Classify(50, 0, defaultParams)
		assert.Equal(t, domain.UrgencyNoSales, c.Urgency)
		assert.Equal(t, 0, c.Rank)
		assert.Nil(t, c.DaysLeft)
	})

	t.Run("growth shortens days left", func(t *testing.T) {
		p := defaultParams
		p.GrowthPercent = 100
		c := Classify(40, 10, p)
		require.NotNil(t, c.DaysLeft)
		assert.InDelta(t, 2.0, *c.DaysLeft, 1e-9)
		assert.Equal(t, domain.UrgencyHigh, c.Urgency)
	})
}

func TestPeriodDays(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 30, PeriodDays(start, start.AddDate(0, 0, 30)))
	assert.Equal(t, 30, PeriodDays(start.AddDate(0, 0, 30), start))
	assert.Equal(t, 1, PeriodDays(start, start))
	assert.Equal(t, 2, PeriodDays(start, start.Add(25*time.Hour)))
}
