package csvcodec

import (
	"fmt"
	"strings"

	"github.com/andresuchdata/purchasing-admin/backend-go/internal/domain"
	"github.com/andresuchdata/purchasing-admin/backend-go/pkg/numconv"
)

const (
	ColPrice    = "Price"
	ColCurrency = "Currency"
)

// PriceListRequiredColumns must be present in a price list.
var PriceListRequiredColumns = []string{ColProductID, ColSize, ColPrice, ColCurrency}

// ParsePriceList reads a price list strictly: the first invalid row fails the
// whole import.
func ParsePriceList(data string) (*Table, []domain.PriceItem, error) {
	table, err := Parse(data, PriceListRequiredColumns...)
	if err != nil {
		return nil, nil, err
	}
	items, err := PriceItems(table)
	if err != nil {
		return nil, nil, err
	}
	return table, items, nil
}

// PriceItems converts a parsed table into price items.
func PriceItems(table *Table) ([]domain.PriceItem, error) {
	if err := table.Require(PriceListRequiredColumns...); err != nil {
		return nil, err
	}

	items := make([]domain.PriceItem, 0, len(table.Records))
	for _, r := range table.Records {
		item, err := PriceItem(r)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// PriceItem validates one record.
func PriceItem(r Record) (domain.PriceItem, error) {
	productID := strings.TrimSpace(r.Get(ColProductID))
	if productID == "" {
		return domain.PriceItem{}, &ParseError{Row: r.Line, Column: ColProductID, Message: "product id is missing"}
	}

	size := strings.TrimSpace(r.Get(ColSize))
	if size == "" {
		return domain.PriceItem{}, &ParseError{Row: r.Line, Column: ColSize, Message: "size is missing"}
	}

	raw := r.Get(ColPrice)
	if strings.TrimSpace(raw) == "" {
		return domain.PriceItem{}, &ParseError{Row: r.Line, Column: ColPrice, Message: "price is missing"}
	}
	price, ok := numconv.LeadingFloat(raw)
	if !ok {
		return domain.PriceItem{}, &ParseError{Row: r.Line, Column: ColPrice, Message: "invalid price", Value: raw}
	}

	code := r.Get(ColCurrency)
	currency, ok := domain.LookupCurrency(code)
	if !ok {
		return domain.PriceItem{}, &ParseError{
			Row:     r.Line,
			Column:  ColCurrency,
			Message: fmt.Sprintf("invalid currency, expected one of %v", domain.SupportedCurrencies()),
			Value:   code,
		}
	}

	return domain.PriceItem{
		ProductID: productID,
		Size:      size,
		Price:     price,
		Currency:  currency,
	}, nil
}

// PriceListCSV renders price items with the required columns.
func PriceListCSV(items []domain.PriceItem) string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			item.ProductID,
			item.Size,
			numconv.FormatFloat(item.Price),
			string(item.Currency),
		})
	}
	return Serialize(PriceListRequiredColumns, rows)
}
