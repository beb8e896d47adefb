package domain

// ProductSalesBreakdown splits units sold into standalone and bundle
// contributions for one product number.
type ProductSalesBreakdown struct {
	ProductNumber string `json:"product_number"`
	ProductName   string `json:"product_name"`
	Standalone    int    `json:"standalone"`
	FromBundles   int    `json:"from_bundles"`
	Total         int    `json:"total"`
}

// ProductTypeSales groups standalone units by product type.
type ProductTypeSales struct {
	ProductType string `json:"product_type"`
	Standalone  int    `json:"standalone"`
	Total       int    `json:"total"`
	Products    int    `json:"products"`
}

// SalesOverview is the analytics response for a date range.
type SalesOverview struct {
	StartDate       string                  `json:"start_date"`
	EndDate         string                  `json:"end_date"`
	PeriodDays      int                     `json:"period_days"`
	TotalStandalone int                     `json:"total_standalone"`
	TotalUnits      int                     `json:"total_units"`
	Products        []ProductSalesBreakdown `json:"products"`
	ProductTypes    []ProductTypeSales      `json:"product_types"`
}
