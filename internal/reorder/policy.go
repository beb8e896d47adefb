// Package reorder turns sales velocity, lead time and coverage targets into
// recommended order quantities and urgency classes.
package reorder

import (
	"fmt"
	"math"
	"strings"
)

// Params are the purchasing parameters shared by every policy.
type Params struct {
	DeliveryTimeDays float64 `json:"delivery_time_days"`
	CoverageDays     float64 `json:"coverage_days"`
	GrowthPercent    float64 `json:"growth_percent"`
}

// GrowthFactor turns the growth percentage into a multiplier, 10 => 1.10.
func (p Params) GrowthFactor() float64 {
	return 1 + p.GrowthPercent/100
}

// Validate rejects parameters that make the formulas meaningless.
func (p Params) Validate() error {
	if p.DeliveryTimeDays < 0 || math.IsNaN(p.DeliveryTimeDays) {
		return fmt.Errorf("delivery time must be zero or positive")
	}
	if p.CoverageDays < 0 || math.IsNaN(p.CoverageDays) {
		return fmt.Errorf("coverage days must be zero or positive")
	}
	if math.IsNaN(p.GrowthPercent) || math.IsInf(p.GrowthPercent, 0) {
		return fmt.Errorf("growth percent must be a number")
	}
	return nil
}

// Input is one product or size worth of figures.
type Input struct {
	TotalSales   int
	PeriodDays   int
	CurrentStock float64
	IncomingQty  float64
}

// Result is what a policy recommends.
type Result struct {
	AvgDailySales      float64
	AdjustedDailySales float64
	RequiredStock      float64
	ReorderQty         int
}

// Policy computes a reorder quantity.
type Policy interface {
	Name() string
	Calculate(in Input, p Params) Result
}

const (
	PolicySimple         = "simple"
	PolicyDepletionAware = "depletion_aware"
)

// PolicyByName resolves a policy from its name. An empty name selects the
// depletion-aware policy.
func PolicyByName(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case PolicySimple:
		return SimplePolicy{}, nil
	case PolicyDepletionAware, "":
		return DepletionAwarePolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown reorder policy %q", name)
	}
}

// SimplePolicy orders enough to cover delivery plus coverage days on top of
// current stock. Incoming quantities are ignored.
type SimplePolicy struct{}

func (SimplePolicy) Name() string { return PolicySimple }

func (SimplePolicy) Calculate(in Input, p Params) Result {
	avg, adjusted := velocity(in, p)

	// 1. Stock needed to cover lead time and coverage window
	required := adjusted * (p.DeliveryTimeDays + p.CoverageDays)

	// 2. Order the shortfall against current stock
	qty := int(math.Max(0, math.Ceil(required-in.CurrentStock)))

	return Result{
		AvgDailySales:      avg,
		AdjustedDailySales: adjusted,
		RequiredStock:      required,
		ReorderQty:         qty,
	}
}

// DepletionAwarePolicy credits only the stock expected to remain when the
// delivery arrives, and subtracts quantities already on order.
type DepletionAwarePolicy struct{}

func (DepletionAwarePolicy) Name() string { return PolicyDepletionAware }

func (DepletionAwarePolicy) Calculate(in Input, p Params) Result {
	avg, adjusted := velocity(in, p)

	// 1. Stock left once the delivery lead time has passed
	remaining := in.CurrentStock - adjusted*p.DeliveryTimeDays

	// 2. Stock needed at arrival
	required := adjusted * (p.DeliveryTimeDays + p.CoverageDays)

	// 3. Shortfall after what is left and what is already incoming
	qty := int(math.Max(0, math.Ceil(required-math.Max(remaining, 0)-in.IncomingQty)))

	return Result{
		AvgDailySales:      avg,
		AdjustedDailySales: adjusted,
		RequiredStock:      required,
		ReorderQty:         qty,
	}
}

func velocity(in Input, p Params) (avg, adjusted float64) {
	period := in.PeriodDays
	if period < 1 {
		period = 1
	}
	avg = float64(in.TotalSales) / float64(period)
	return avg, avg * p.GrowthFactor()
}
