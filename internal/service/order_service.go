package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/andresuchdata/purchasing-admin/backend-go/internal/csvcodec"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/domain"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/incoming"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/realtime"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/repository"
	"github.com/rs/zerolog/log"
)

// CreateOrderRequest turns selected suggestion rows into a purchase order.
// Overrides are keyed by row id and replace the suggested quantity.
type CreateOrderRequest struct {
	Name       string                     `json:"name"`
	Note       string                     `json:"note"`
	Supplier   string                     `json:"supplier"`
	Collection string                     `json:"collection"`
	Rows       []domain.ReorderSuggestion `json:"rows"`
	Overrides  map[string]int             `json:"overrides"`
}

type OrderService struct {
	repo   repository.PurchaseOrderRepository
	stream *incoming.Stream
	hub    Broadcaster
	now    func() time.Time

	// PublishOnWrite republishes incoming quantities after every create and
	// delete. Leave it off when a database watcher feeds the stream.
	PublishOnWrite bool
}

func NewOrderService(repo repository.PurchaseOrderRepository, stream *incoming.Stream, hub Broadcaster) *OrderService {
	return &OrderService{
		repo:   repo,
		stream: stream,
		hub:    orNoop(hub),
		now:    time.Now,
	}
}

// CreateFromSuggestions stores an order with one item per row whose final
// quantity is positive.
func (s *OrderService) CreateFromSuggestions(ctx context.Context, req CreateOrderRequest) (*domain.PurchaseOrder, error) {
	items := make([]domain.OrderItem, 0, len(req.Rows))
	for _, row := range req.Rows {
		qty := row.ReorderQty
		if v, ok := req.Overrides[row.RowID]; ok {
			qty = v
		}
		if qty <= 0 {
			continue
		}
		items = append(items, domain.OrderItem{
			RowID:         domain.SizeKey(row.ProductID, row.Size),
			ProductID:     row.ProductID,
			ProductName:   row.ProductName,
			ProductNumber: row.ProductNumber,
			Supplier:      row.Supplier,
			Collection:    row.Collection,
			Stock:         row.CurrentStock,
			Size:          row.Size,
			UnitCost:      row.UnitCost,
			Quantity:      qty,
		})
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no rows with a quantity to order", ErrInvalidRequest)
	}

	order := &domain.PurchaseOrder{
		Name:       s.orderName(req.Name),
		Note:       req.Note,
		Supplier:   orPlaceholder(req.Supplier),
		Collection: orPlaceholder(req.Collection),
		Items:      items,
		CSVData:    csvcodec.SuggestionsCSV(req.Rows, req.Overrides),
	}
	if err := s.create(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// Upload stores an order parsed from a purchase order CSV. The import fails
// as a whole on the first invalid row.
func (s *OrderService) Upload(ctx context.Context, name, filename, data string) (*domain.PurchaseOrder, error) {
	items, err := csvcodec.ParsePurchaseOrder(data)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = strings.TrimSuffix(filename, ".csv")
	}

	order := &domain.PurchaseOrder{
		Name:         s.orderName(name),
		Supplier:     domain.ManualUploadSource,
		Collection:   domain.ManualUploadSource,
		Items:        items,
		CSVData:      data,
		UploadedFile: filename,
	}
	if err := s.create(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) create(ctx context.Context, order *domain.PurchaseOrder) error {
	if err := s.repo.Create(ctx, order); err != nil {
		return err
	}
	log.Info().
		Str("order_id", order.ID).
		Int("items", order.TotalItems).
		Int("quantity", order.TotalQuantity).
		Msg("orders: purchase order created")

	s.hub.Broadcast(realtime.Event{Type: realtime.EventOrderChanged, Action: "create", ID: order.ID})
	s.afterWrite(ctx)
	return nil
}

func (s *OrderService) List(ctx context.Context, limit int) ([]domain.PurchaseOrder, error) {
	return s.repo.List(ctx, limit)
}

func (s *OrderService) Get(ctx context.Context, id string) (*domain.PurchaseOrder, error) {
	return s.repo.Get(ctx, id)
}

func (s *OrderService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	log.Info().Str("order_id", id).Msg("orders: purchase order deleted")

	s.hub.Broadcast(realtime.Event{Type: realtime.EventOrderChanged, Action: "delete", ID: id})
	s.afterWrite(ctx)
	return nil
}

// ExportCSV renders a stored order and a download file name.
func (s *OrderService) ExportCSV(ctx context.Context, id string) (data, filename string, err error) {
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", "", err
	}
	return csvcodec.PurchaseOrderCSV(order.Items), fileName("purchase_order", order.Name, order.CreatedAt), nil
}

// Refresh publishes a full snapshot of the stored orders to the incoming
// stream.
func (s *OrderService) Refresh(ctx context.Context) (incoming.Snapshot, error) {
	orders, err := s.repo.List(ctx, 0)
	if err != nil {
		return incoming.Snapshot{}, err
	}
	return s.stream.Publish(orders), nil
}

func (s *OrderService) afterWrite(ctx context.Context) {
	if !s.PublishOnWrite {
		return
	}
	if _, err := s.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("orders: failed to refresh incoming quantities")
	}
}

func (s *OrderService) orderName(name string) string {
	if strings.TrimSpace(name) != "" {
		return strings.TrimSpace(name)
	}
	return "Purchase order " + s.now().Format("2006-01-02 15:04")
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return strings.TrimSpace(s)
}

// fileName builds a download name like purchase_order_may_2024-05-01.csv.
func fileName(prefix, name string, at time.Time) string {
	slug := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '_'
		}
	}, strings.TrimSpace(name))
	slug = strings.Trim(slug, "_")

	parts := []string{prefix}
	if slug != "" {
		parts = append(parts, slug)
	}
	parts = append(parts, at.Format("2006-01-02"))
	return strings.Join(parts, "_") + ".csv"
}
