package domain

import (
	"strings"
	"time"
)

// Currency is an ISO code accepted on price lists.
type Currency string

const (
	CurrencySEK Currency = "SEK"
	CurrencyEUR Currency = "EUR"
	CurrencyUSD Currency = "USD"
	CurrencyGBP Currency = "GBP"
)

// BaseCurrency is the currency unit costs are kept in.
const BaseCurrency = CurrencySEK

var allowedCurrencies = map[Currency]bool{
	CurrencySEK: true,
	CurrencyEUR: true,
	CurrencyUSD: true,
	CurrencyGBP: true,
}

// ParseCurrency normalizes a currency code and reports whether it is allowed.
func ParseCurrency(code string) (Currency, bool) {
	c := Currency(strings.ToUpper(strings.TrimSpace(code)))
	return c, allowedCurrencies[c]
}

// LookupCurrency reports whether code is exactly one of the allowed codes.
// Unlike ParseCurrency it is case sensitive.
func LookupCurrency(code string) (Currency, bool) {
	c := Currency(code)
	return c, allowedCurrencies[c]
}

// SupportedCurrencies lists the allowed codes in display order.
func SupportedCurrencies() []Currency {
	return []Currency{CurrencySEK, CurrencyEUR, CurrencyUSD, CurrencyGBP}
}

// ManualUploadSource marks orders created from an uploaded CSV.
const ManualUploadSource = "Manually uploaded"

// PurchaseOrder is a stored order. It is never modified after creation.
type PurchaseOrder struct {
	ID            string      `json:"id" db:"id"`
	Name          string      `json:"name" db:"name"`
	Note          string      `json:"note" db:"note"`
	Supplier      string      `json:"supplier" db:"supplier"`
	Collection    string      `json:"collection" db:"collection"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	Items         []OrderItem `json:"items" db:"-"`
	TotalItems    int         `json:"total_items" db:"total_items"`
	TotalQuantity int         `json:"total_quantity" db:"total_quantity"`
	TotalCost     float64     `json:"total_cost" db:"total_cost"`
	CSVData       string      `json:"csv_data,omitempty" db:"csv_data"`
	UploadedFile  string      `json:"uploaded_file,omitempty" db:"uploaded_file"`
}

// OrderItem is one line of a purchase order. RowID is the composite
// productId_size key, older documents only carry RowID.
type OrderItem struct {
	RowID         string  `json:"product_id"`
	ProductID     string  `json:"productId,omitempty"`
	ProductName   string  `json:"productName"`
	ProductNumber string  `json:"productNumber"`
	Supplier      string  `json:"supplier"`
	Collection    string  `json:"collection"`
	Stock         float64 `json:"stock"`
	Size          string  `json:"size"`
	UnitCost      float64 `json:"unitCost"`
	Quantity      int     `json:"quantity"`
}

// Key returns the productId_size key of the item. Legacy items without a
// separate product id are split on the first underscore of RowID.
func (i OrderItem) Key() (productID, size string, ok bool) {
	if i.ProductID != "" && strings.TrimSpace(i.Size) != "" {
		return i.ProductID, strings.TrimSpace(i.Size), true
	}
	id, rest, found := strings.Cut(i.RowID, "_")
	if !found {
		return "", "", false
	}
	return id, rest, true
}

// ComputeTotals fills the order totals from its items.
func (o *PurchaseOrder) ComputeTotals() {
	o.TotalItems = len(o.Items)
	o.TotalQuantity = 0
	o.TotalCost = 0
	for _, item := range o.Items {
		o.TotalQuantity += item.Quantity
		o.TotalCost += item.UnitCost * float64(item.Quantity)
	}
}

// PriceItem is one row of a supplier price list.
type PriceItem struct {
	ProductID string   `json:"productId"`
	Size      string   `json:"size"`
	Price     float64  `json:"price"`
	Currency  Currency `json:"currency"`
}

// PriceEntry is the value stored in a PriceMap.
type PriceEntry struct {
	Price    float64  `json:"price"`
	Currency Currency `json:"currency"`
}

// PriceMap indexes price items by productId_size.
type PriceMap map[string]PriceEntry

// PriceList is a stored supplier price list. PriceMap is derived from Items.
type PriceList struct {
	ID           string      `json:"id" db:"id"`
	Name         string      `json:"name" db:"name"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt    *time.Time  `json:"updated_at,omitempty" db:"updated_at"`
	ItemCount    int         `json:"item_count" db:"item_count"`
	Items        []PriceItem `json:"items" db:"-"`
	PriceMap     PriceMap    `json:"price_map" db:"-"`
	RawData      string      `json:"raw_data,omitempty" db:"raw_data"`
	LastEditedBy string      `json:"last_edited_by,omitempty" db:"last_edited_by"`
}

// PriceListSummary is the list view of a price list, without rows.
type PriceListSummary struct {
	ID        string     `json:"id" db:"id"`
	Name      string     `json:"name" db:"name"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty" db:"updated_at"`
	ItemCount int        `json:"item_count" db:"item_count"`
}
