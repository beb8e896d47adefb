// backend-go/internal/repository/postgres/purchase_order_repository.go
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/purchasing-admin/backend-go/internal/domain"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/repository"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const purchaseOrderColumns = `id, name, note, supplier, collection, created_at, items,
	total_items, total_quantity, total_cost, csv_data, uploaded_file`

type purchaseOrderRow struct {
	domain.PurchaseOrder
	ItemsJSON []byte `db:"items"`
}

func (row purchaseOrderRow) toDomain() (domain.PurchaseOrder, error) {
	order := row.PurchaseOrder
	if len(row.ItemsJSON) > 0 {
		if err := json.Unmarshal(row.ItemsJSON, &order.Items); err != nil {
			return order, fmt.Errorf("failed to decode items of order %s: %w", order.ID, err)
		}
	}
	return order, nil
}

type purchaseOrderRepository struct {
	db *DB
}

func NewPurchaseOrderRepository(db *DB) repository.PurchaseOrderRepository {
	return &purchaseOrderRepository{db: db}
}

func (r *purchaseOrderRepository) List(ctx context.Context, limit int) ([]domain.PurchaseOrder, error) {
	query := `SELECT ` + purchaseOrderColumns + ` FROM purchase_orders ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	var rows []purchaseOrderRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list purchase orders: %w", err)
	}

	orders := make([]domain.PurchaseOrder, 0, len(rows))
	for _, row := range rows {
		order, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}

func (r *purchaseOrderRepository) Get(ctx context.Context, id string) (*domain.PurchaseOrder, error) {
	query := `SELECT ` + purchaseOrderColumns + ` FROM purchase_orders WHERE id = $1`

	var row purchaseOrderRow
	if err := sqlx.GetContext(ctx, r.db, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get purchase order: %w", err)
	}

	order, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Create assigns an id and creation time when missing and recomputes the
// totals before inserting.
func (r *purchaseOrderRepository) Create(ctx context.Context, order *domain.PurchaseOrder) error {
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}
	order.ComputeTotals()

	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to encode order items: %w", err)
	}

	query := `
		INSERT INTO purchase_orders (` + purchaseOrderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = r.db.ExecContext(ctx, query,
		order.ID,
		order.Name,
		order.Note,
		order.Supplier,
		order.Collection,
		order.CreatedAt,
		items,
		order.TotalItems,
		order.TotalQuantity,
		order.TotalCost,
		order.CSVData,
		order.UploadedFile,
	)
	if err != nil {
		return fmt.Errorf("failed to insert purchase order: %w", err)
	}
	return nil
}

func (r *purchaseOrderRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "purchase_orders", id)
}

func deleteByID(ctx context.Context, db *DB, table, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	return expectAffected(res)
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
