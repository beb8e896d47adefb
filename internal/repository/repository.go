// backend-go/internal/repository/repository.go
package repository

import (
	"context"
	"errors"

	"github.com/andresuchdata/purchasing-admin/backend-go/internal/domain"
)

var ErrNotFound = errors.New("not found")

// PurchaseOrderRepository stores purchase orders. Orders are never updated,
// only created and deleted.
type PurchaseOrderRepository interface {
	// List returns orders newest first with their items. A limit of 0
	// returns every order.
	List(ctx context.Context, limit int) ([]domain.PurchaseOrder, error)
	Get(ctx context.Context, id string) (*domain.PurchaseOrder, error)
	Create(ctx context.Context, order *domain.PurchaseOrder) error
	Delete(ctx context.Context, id string) error
}

// PriceListRepository stores supplier price lists.
type PriceListRepository interface {
	List(ctx context.Context, limit int) ([]domain.PriceListSummary, error)
	Get(ctx context.Context, id string) (*domain.PriceList, error)
	Create(ctx context.Context, list *domain.PriceList) error
	Update(ctx context.Context, list *domain.PriceList) error
	Delete(ctx context.Context, id string) error
}
