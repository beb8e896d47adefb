// Package landedcost computes new unit costs when a purchase order is received.
//
// A received line is converted to the base currency, marked up by customs
// duty and given its share of the freight cost in proportion to its value.
// The landed cost is then merged with the stock on hand by weighted average.
// Freight shares depend on every line of the batch, so a batch is always
// calculated in full.
package landedcost

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/andresuchdata/purchasing-admin/backend-go/internal/domain"
)

// Price sources reported per line.
const (
	SourceExisting = "Existing cost"
)

var hundred = decimal.NewFromInt(100)

// PriceListSource labels a cost taken from a price list in currency c.
func PriceListSource(c domain.Currency) string {
	return fmt.Sprintf("Price list (%s)", c)
}

// Params are the inputs shared by every line of a receiving batch.
type Params struct {
	ReceivingCurrency  domain.Currency `json:"receiving_currency"`
	ExchangeRate       float64         `json:"exchange_rate"`
	CustomsDutyPercent float64         `json:"customs_duty_percent"`
	ShippingCost       float64         `json:"shipping_cost"`
}

// Rate is the multiplier from a foreign price to the base currency. When
// goods are received in the base currency the entered rate is ignored.
func (p Params) Rate() decimal.Decimal {
	if p.ReceivingCurrency == "" || p.ReceivingCurrency == domain.BaseCurrency {
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromFloat(p.ExchangeRate)
}

// Line is one order item being received.
type Line struct {
	RowID           string
	ReceivedQty     int
	CurrentStock    float64
	CurrentUnitCost float64
	Price           *domain.PriceEntry
}

// LineResult is the outcome for one line. Lines that were not received or
// have no price keep CurrentUnitCost as their new cost.
type LineResult struct {
	RowID          string  `json:"row_id"`
	Matched        bool    `json:"matched"`
	Applied        bool    `json:"applied"`
	PriceSource    string  `json:"price_source"`
	LandedUnitCost float64 `json:"landed_unit_cost,omitempty"`
	NewUnitCost    float64 `json:"new_unit_cost"`
	OldUnitCost    float64 `json:"old_unit_cost"`
}

// Calculate runs both passes over the batch and returns one result per line,
// in input order.
func Calculate(p Params, lines []Line) []LineResult {
	rate := p.Rate()
	dutyFactor := decimal.NewFromInt(1).Add(decimal.NewFromFloat(p.CustomsDutyPercent).Div(hundred))

	// 1. duty-adjusted base-currency unit price per eligible line, and the
	// batch value that freight is spread over
	dutied := make([]decimal.Decimal, len(lines))
	eligible := make([]bool, len(lines))
	total := decimal.Zero
	for i, l := range lines {
		if l.ReceivedQty <= 0 || l.Price == nil {
			continue
		}
		unit := decimal.NewFromFloat(l.Price.Price)
		if l.Price.Currency != domain.BaseCurrency {
			unit = unit.Mul(rate)
		}
		dutied[i] = unit.Mul(dutyFactor)
		eligible[i] = true
		total = total.Add(dutied[i].Mul(decimal.NewFromInt(int64(l.ReceivedQty))))
	}

	// 2. add the freight share and merge with stock on hand
	shipping := decimal.NewFromFloat(p.ShippingCost)
	results := make([]LineResult, len(lines))
	for i, l := range lines {
		res := LineResult{
			RowID:       l.RowID,
			Matched:     l.Price != nil,
			PriceSource: SourceExisting,
			NewUnitCost: l.CurrentUnitCost,
			OldUnitCost: l.CurrentUnitCost,
		}
		if l.Price != nil {
			res.PriceSource = PriceListSource(l.Price.Currency)
		}
		if !eligible[i] {
			results[i] = res
			continue
		}

		qty := decimal.NewFromInt(int64(l.ReceivedQty))
		landed := dutied[i]
		if total.IsPositive() {
			share := qty.Mul(dutied[i]).Div(total)
			landed = landed.Add(shipping.Mul(share).Div(qty))
		}

		res.Applied = true
		res.LandedUnitCost = landed.Round(2).InexactFloat64()
		res.NewUnitCost = WeightedAverage(l.CurrentStock, l.CurrentUnitCost, l.ReceivedQty, landed).Round(2).InexactFloat64()
		results[i] = res
	}

	return results
}

// WeightedAverage merges received units at landed cost with the stock on
// hand. Without positive stock the landed cost is used as is.
func WeightedAverage(currentStock, currentUnitCost float64, receivedQty int, landed decimal.Decimal) decimal.Decimal {
	if currentStock <= 0 {
		return landed
	}
	stock := decimal.NewFromFloat(currentStock)
	qty := decimal.NewFromInt(int64(receivedQty))
	value := stock.Mul(decimal.NewFromFloat(currentUnitCost)).Add(qty.Mul(landed))
	return value.Div(stock.Add(qty))
}
