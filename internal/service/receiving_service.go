package service

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/purchasing-admin/backend-go/internal/csvcodec"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/domain"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/landedcost"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/pricelist"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/repository"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/salesapi"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/storage"
	"github.com/rs/zerolog/log"
)

const landedCostArchivePrefix = "landed-costs"

// ReceiveRequest describes a delivery of a stored order. Received maps row
// ids to received quantities; nil receives every item in full.
type ReceiveRequest struct {
	OrderID     string            `json:"order_id"`
	PriceListID string            `json:"price_list_id"`
	Params      landedcost.Params `json:"params"`
	Received    map[string]int    `json:"received"`
}

// ReceiveLine is one order item with its computed new cost.
type ReceiveLine struct {
	domain.OrderItem
	ReceivedQty  int                   `json:"received_qty"`
	CurrentStock float64               `json:"current_stock"`
	Result       landedcost.LineResult `json:"result"`
}

// ReceiveResult is the outcome of a receiving calculation.
type ReceiveResult struct {
	OrderID       string                    `json:"order_id"`
	OrderName     string                    `json:"order_name"`
	PriceListName string                    `json:"price_list_name,omitempty"`
	Params        landedcost.Params         `json:"params"`
	Coverage      *pricelist.CoverageReport `json:"coverage,omitempty"`
	Lines         []ReceiveLine             `json:"lines"`
	CSV           string                    `json:"csv"`
	Filename      string                    `json:"filename"`
	ArchiveKey    string                    `json:"archive_key,omitempty"`
}

type ReceivingService struct {
	orders       repository.PurchaseOrderRepository
	priceLists   repository.PriceListRepository
	source       salesapi.Source
	archive      storage.ObjectStorage
	defaultRate  float64
	baseCurrency domain.Currency
	now          func() time.Time
}

// NewReceivingService creates the service. archive may be nil, in which case
// exports are not archived.
func NewReceivingService(orders repository.PurchaseOrderRepository, priceLists repository.PriceListRepository, source salesapi.Source, archive storage.ObjectStorage, defaultRate float64) *ReceivingService {
	return &ReceivingService{
		orders:       orders,
		priceLists:   priceLists,
		source:       source,
		archive:      archive,
		defaultRate:  defaultRate,
		baseCurrency: domain.BaseCurrency,
		now:          time.Now,
	}
}

// Defaults returns the received quantities a receiving dialog starts with:
// the ordered quantity of every item.
func (s *ReceivingService) Defaults(ctx context.Context, orderID string) (map[string]int, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return landedcost.DefaultReceived(order.Items), nil
}

// Coverage reports how many items of an order have a price in a price list.
func (s *ReceivingService) Coverage(ctx context.Context, orderID, priceListID string) (*pricelist.CoverageReport, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	list, err := s.priceLists.Get(ctx, priceListID)
	if err != nil {
		return nil, err
	}
	report := pricelist.Coverage(order.Items, list.PriceMap)
	return &report, nil
}

// Calculate computes the new unit cost of every item and renders the cost
// CSV.
func (s *ReceivingService) Calculate(ctx context.Context, req ReceiveRequest) (*ReceiveResult, error) {
	params, err := s.normalizeParams(req.Params)
	if err != nil {
		return nil, err
	}

	// 1. Load the order and the optional price list
	order, err := s.orders.Get(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}

	result := &ReceiveResult{OrderID: order.ID, OrderName: order.Name, Params: params}
	var prices domain.PriceMap
	if req.PriceListID != "" {
		list, err := s.priceLists.Get(ctx, req.PriceListID)
		if err != nil {
			return nil, err
		}
		prices = list.PriceMap
		result.PriceListName = list.Name
		coverage := pricelist.Coverage(order.Items, prices)
		result.Coverage = &coverage
	}

	// 2. Current stock and unit cost from the catalog
	products, err := s.source.Products(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	levels := landedcost.StockLevels(products)

	// 3. Landed cost and weighted average per line
	received := req.Received
	if received == nil {
		received = landedcost.DefaultReceived(order.Items)
	}
	lines := landedcost.Lines(order.Items, received, levels, prices)
	results := landedcost.Calculate(params, lines)

	// 4. Cost export
	rows := make([]csvcodec.CostRow, 0, len(results))
	result.Lines = make([]ReceiveLine, 0, len(results))
	for i, r := range results {
		item := order.Items[i]
		productID := item.ProductID
		if productID == "" {
			productID, _, _ = item.Key()
		}
		result.Lines = append(result.Lines, ReceiveLine{
			OrderItem:    item,
			ReceivedQty:  lines[i].ReceivedQty,
			CurrentStock: lines[i].CurrentStock,
			Result:       r,
		})
		rows = append(rows, csvcodec.CostRow{
			ProductID:    productID,
			SKU:          item.ProductNumber,
			Size:         item.Size,
			NewUnitCost:  r.NewUnitCost,
			OldUnitCost:  r.OldUnitCost,
			PriceSource:  r.PriceSource,
			ReceivedQty:  lines[i].ReceivedQty,
			CurrentStock: lines[i].CurrentStock,
		})
	}

	now := s.now()
	result.CSV = csvcodec.NewUnitCostCSV(csvcodec.CostExportMeta{
		GeneratedAt:        now,
		OrderName:          order.Name,
		Currency:           params.ReceivingCurrency,
		ExchangeRate:       params.ExchangeRate,
		CustomsDutyPercent: params.CustomsDutyPercent,
		ShippingCost:       params.ShippingCost,
		PriceListName:      result.PriceListName,
	}, rows)
	result.Filename = fileName("new_unit_costs", order.Name, now)
	return result, nil
}

// Export calculates and archives the cost CSV to object storage.
func (s *ReceivingService) Export(ctx context.Context, req ReceiveRequest) (*ReceiveResult, error) {
	result, err := s.Calculate(ctx, req)
	if err != nil {
		return nil, err
	}
	if s.archive == nil {
		return result, nil
	}

	key := storage.JoinKey(landedCostArchivePrefix, result.OrderID, result.Filename)
	if err := s.archive.UploadObject(ctx, key, []byte(result.CSV), "text/csv"); err != nil {
		return nil, fmt.Errorf("failed to archive cost export: %w", err)
	}
	result.ArchiveKey = key
	log.Info().Str("order_id", result.OrderID).Str("key", key).Msg("receiving: cost export archived")
	return result, nil
}

// Archived lists the cost exports stored for an order.
func (s *ReceivingService) Archived(ctx context.Context, orderID string) ([]storage.ObjectInfo, error) {
	if s.archive == nil {
		return []storage.ObjectInfo{}, nil
	}
	return s.archive.ListObjects(ctx, storage.JoinKey(landedCostArchivePrefix, orderID)+"/")
}

func (s *ReceivingService) normalizeParams(p landedcost.Params) (landedcost.Params, error) {
	if p.ReceivingCurrency == "" {
		p.ReceivingCurrency = s.baseCurrency
	}
	currency, ok := domain.ParseCurrency(string(p.ReceivingCurrency))
	if !ok {
		return p, fmt.Errorf("%w: unsupported currency %q", ErrInvalidRequest, p.ReceivingCurrency)
	}
	p.ReceivingCurrency = currency

	if currency == s.baseCurrency {
		p.ExchangeRate = 1
	} else if p.ExchangeRate == 0 {
		p.ExchangeRate = s.defaultRate
	}
	if p.ExchangeRate <= 0 {
		return p, fmt.Errorf("%w: exchange rate must be positive", ErrInvalidRequest)
	}
	if p.CustomsDutyPercent < 0 {
		return p, fmt.Errorf("%w: customs duty cannot be negative", ErrInvalidRequest)
	}
	if p.ShippingCost < 0 {
		return p, fmt.Errorf("%w: shipping cost cannot be negative", ErrInvalidRequest)
	}
	return p, nil
}
