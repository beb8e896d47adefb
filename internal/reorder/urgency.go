package reorder

import (
	"math"
	"time"

	"github.com/andresuchdata/purchasing-admin/backend-go/internal/domain"
)

// Classification is the urgency of one row.
type Classification struct {
	Urgency  domain.Urgency
	Rank     int
	DaysLeft *float64
}

// Classify compares days of stock left against the delivery time. Rows with
// no sales (or no positive effective velocity) get no days-left value.
func Classify(currentStock, avgDailySales float64, p Params) Classification {
	effective := avgDailySales * p.GrowthFactor()
	if avgDailySales <= 0 || effective <= 0 {
		return Classification{Urgency: domain.UrgencyNoSales, Rank: domain.UrgencyNoSales.Rank()}
	}

	daysLeft := currentStock / effective

	urgency := domain.UrgencyLow
	switch {
	case daysLeft < p.DeliveryTimeDays:
		urgency = domain.UrgencyHigh
	case daysLeft < p.DeliveryTimeDays+p.CoverageDays/2:
		urgency = domain.UrgencyMedium
	}

	return Classification{Urgency: urgency, Rank: urgency.Rank(), DaysLeft: &daysLeft}
}

// PeriodDays is the whole number of days between start and end, at least 1.
func PeriodDays(start, end time.Time) int {
	diff := end.Sub(start)
	if diff < 0 {
		diff = -diff
	}
	days := int(math.Ceil(diff.Hours() / 24))
	if days < 1 {
		return 1
	}
	return days
}
