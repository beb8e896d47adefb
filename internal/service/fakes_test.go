package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/andresuchdata/purchasing-admin/backend-go/internal/domain"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/pricelist"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/realtime"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/repository"
	"github.com/google/uuid"
)

type memOrderRepo struct {
	mu     sync.Mutex
	orders map[string]domain.PurchaseOrder
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{orders: map[string]domain.PurchaseOrder{}}
}

func (r *memOrderRepo) List(_ context.Context, limit int) ([]domain.PurchaseOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.PurchaseOrder, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memOrderRepo) Get(_ context.Context, id string) (*domain.PurchaseOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &o, nil
}

func (r *memOrderRepo) Create(_ context.Context, o *domain.PurchaseOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().Add(time.Duration(len(r.orders)) * time.Second)
	}
	o.ComputeTotals()
	r.orders[o.ID] = *o
	return nil
}

func (r *memOrderRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.orders, id)
	return nil
}

type memPriceListRepo struct {
	mu    sync.Mutex
	lists map[string]domain.PriceList
}

func newMemPriceListRepo() *memPriceListRepo {
	return &memPriceListRepo{lists: map[string]domain.PriceList{}}
}

func (r *memPriceListRepo) List(_ context.Context, limit int) ([]domain.PriceListSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.PriceListSummary, 0, len(r.lists))
	for _, l := range r.lists {
		out = append(out, domain.PriceListSummary{ID: l.ID, Name: l.Name, CreatedAt: l.CreatedAt, UpdatedAt: l.UpdatedAt, ItemCount: l.ItemCount})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memPriceListRepo) Get(_ context.Context, id string) (*domain.PriceList, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.lists[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	pricelist.Apply(&l, append([]domain.PriceItem(nil), l.Items...))
	return &l, nil
}

func (r *memPriceListRepo) Create(_ context.Context, l *domain.PriceList) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	pricelist.Apply(l, l.Items)
	r.lists[l.ID] = *l
	return nil
}

func (r *memPriceListRepo) Update(_ context.Context, l *domain.PriceList) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.lists[l.ID]; !ok {
		return repository.ErrNotFound
	}
	pricelist.Apply(l, l.Items)
	r.lists[l.ID] = *l
	return nil
}

func (r *memPriceListRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.lists[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.lists, id)
	return nil
}

type staticSource struct {
	lines    []domain.OrderLine
	products []domain.ProductInfo
	sized    []bool
}

func (s *staticSource) OrderLines(_ context.Context, _, _ time.Time, withSizes bool) ([]domain.OrderLine, error) {
	s.sized = append(s.sized, withSizes)
	return s.lines, nil
}

func (s *staticSource) Products(_ context.Context) ([]domain.ProductInfo, error) {
	return s.products, nil
}

type recordingHub struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (h *recordingHub) Broadcast(evt realtime.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, evt)
}

func (h *recordingHub) ofType(t string) []realtime.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []realtime.Event
	for _, e := range h.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func catalog() []domain.ProductInfo {
	return []domain.ProductInfo{
		{ProductID: "p1", ProductNumber: "TEE-1", ProductName: "Tee", ProductType: "Shirts", Supplier: "Acme", Collection: "SS24",
			Status: "ACTIVE", TotalPhysicalQuantity: 40, ProductSizeInfo: "S:10,M:30", UnitCost: 50},
		{ProductID: "p2", ProductNumber: "SOCK-1", ProductName: "Sock", ProductType: "Socks", Supplier: "Beta",
			Status: "ACTIVE", TotalPhysicalQuantity: 500, UnitCost: 10},
	}
}

func salesLines() []domain.OrderLine {
	return []domain.OrderLine{
		{ProductNumber: "TEE-1", ProductName: "Tee", ProductID: "p1", Quantity: 30, Type: domain.ProductOrderLine, Size: "S"},
		{ProductNumber: "TEE-1", ProductName: "Tee", ProductID: "p1", Quantity: 60, Type: domain.ProductOrderLine, Size: "M"},
		{ProductNumber: "BUNDLE-1", ProductName: "Bundle", Quantity: 1, Type: domain.BundleOrderLine, Children: []domain.ChildOrderLine{
			{ProductNumber: "SOCK-1", ProductName: "Sock", Quantity: 2, Type: domain.BundleItemOrderLine},
		}},
	}
}
