package domain

import "strings"

// Urgency classifies how soon a product runs out relative to its lead time.
type Urgency string

const (
	UrgencyHigh    Urgency = "high"
	UrgencyMedium  Urgency = "medium"
	UrgencyLow     Urgency = "low"
	UrgencyNoSales Urgency = "no_sales"
)

var urgencyLabels = map[Urgency]string{
	UrgencyHigh:    "High",
	UrgencyMedium:  "Medium",
	UrgencyLow:     "Low",
	UrgencyNoSales: "No sales",
}

var urgencyRanks = map[Urgency]int{
	UrgencyNoSales: 0,
	UrgencyLow:     1,
	UrgencyMedium:  2,
	UrgencyHigh:    3,
}

var urgencyCodes = map[string]Urgency{
	"high":     UrgencyHigh,
	"medium":   UrgencyMedium,
	"low":      UrgencyLow,
	"no_sales": UrgencyNoSales,
	"no sales": UrgencyNoSales,
}

// Label returns a human-readable label for the urgency.
func (u Urgency) Label() string {
	if label, ok := urgencyLabels[u]; ok {
		return label
	}

	return "Unknown"
}

// Rank orders urgencies for sorting. It is not a filter.
func (u Urgency) Rank() int {
	return urgencyRanks[u]
}

// ParseUrgency returns the urgency for a given code or label (case-insensitive).
func ParseUrgency(label string) (Urgency, bool) {
	u, ok := urgencyCodes[strings.ToLower(strings.TrimSpace(label))]

	return u, ok
}

// ReorderSuggestion is one row of the purchasing suggestion table.
type ReorderSuggestion struct {
	RowID         string   `json:"row_id"`
	ProductID     string   `json:"product_id"`
	ProductNumber string   `json:"product_number"`
	ProductName   string   `json:"product_name"`
	ProductType   string   `json:"product_type,omitempty"`
	Supplier      string   `json:"supplier"`
	Collection    string   `json:"collection"`
	Size          string   `json:"size"`
	CurrentStock  float64  `json:"current_stock"`
	UnitCost      float64  `json:"unit_cost"`
	TotalSales    int      `json:"total_sales"`
	AvgDailySales float64  `json:"avg_daily_sales"`
	IncomingQty   int      `json:"incoming_qty"`
	ReorderQty    int      `json:"reorder_qty"`
	Urgency       Urgency  `json:"urgency"`
	UrgencyLabel  string   `json:"urgency_label"`
	UrgencyRank   int      `json:"urgency_rank"`
	DaysLeft      *float64 `json:"days_left"`
}
