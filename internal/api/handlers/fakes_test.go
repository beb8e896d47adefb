package handlers

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/andresuchdata/purchasing-admin/backend-go/internal/domain"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/pricelist"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/repository"
	"github.com/google/uuid"
)

type memOrders struct {
	mu     sync.Mutex
	orders map[string]domain.PurchaseOrder
}

func (r *memOrders) List(_ context.Context, limit int) ([]domain.PurchaseOrder, error) {
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

func (r *memOrders) Get(_ context.Context, id string) (*domain.PurchaseOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &o, nil
}

func (r *memOrders) Create(_ context.Context, o *domain.PurchaseOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o.ID = uuid.NewString()
	o.CreatedAt = time.Now()
	o.ComputeTotals()
	r.orders[o.ID] = *o
	return nil
}

func (r *memOrders) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.orders, id)
	return nil
}

type memPriceLists struct {
	mu    sync.Mutex
	lists map[string]domain.PriceList
}

func (r *memPriceLists) List(_ context.Context, _ int) ([]domain.PriceListSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.PriceListSummary, 0, len(r.lists))
	for _, l := range r.lists {
		out = append(out, domain.PriceListSummary{ID: l.ID, Name: l.Name, CreatedAt: l.CreatedAt, ItemCount: l.ItemCount})
	}
	return out, nil
}

func (r *memPriceLists) Get(_ context.Context, id string) (*domain.PriceList, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.lists[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	pricelist.Apply(&l, append([]domain.PriceItem(nil), l.Items...))
	return &l, nil
}

func (r *memPriceLists) Create(_ context.Context, l *domain.PriceList) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l.ID = uuid.NewString()
	l.CreatedAt = time.Now()
	pricelist.Apply(l, l.Items)
	r.lists[l.ID] = *l
	return nil
}

func (r *memPriceLists) Update(_ context.Context, l *domain.PriceList) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.lists[l.ID]; !ok {
		return repository.ErrNotFound
	}
	r.lists[l.ID] = *l
	return nil
}

func (r *memPriceLists) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.lists[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.lists, id)
	return nil
}

type staticSource struct{}

func (staticSource) OrderLines(_ context.Context, _, _ time.Time, _ bool) ([]domain.OrderLine, error) {
	return []domain.OrderLine{
		{ProductNumber: "TEE-1", ProductName: "Tee", ProductID: "p1", Quantity: 30, Type: domain.ProductOrderLine, Size: "S"},
	}, nil
}

func (staticSource) Products(_ context.Context) ([]domain.ProductInfo, error) {
	return []domain.ProductInfo{
		{ProductID: "p1", ProductNumber: "TEE-1", ProductName: "Tee", Supplier: "Acme",
			Status: "ACTIVE", TotalPhysicalQuantity: 10, ProductSizeInfo: "S:10", UnitCost: 50},
	}, nil
}
