// backend-go/internal/repository/postgres/price_list_repository.go
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/purchasing-admin/backend-go/internal/domain"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/pricelist"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/repository"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type priceListRow struct {
	domain.PriceList
	ItemsJSON []byte `db:"items"`
}

type priceListRepository struct {
	db *DB
}

func NewPriceListRepository(db *DB) repository.PriceListRepository {
	return &priceListRepository{db: db}
}

func (r *priceListRepository) List(ctx context.Context, limit int) ([]domain.PriceListSummary, error) {
	query := `SELECT id, name, created_at, updated_at, item_count FROM price_lists ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	var lists []domain.PriceListSummary
	if err := sqlx.SelectContext(ctx, r.db, &lists, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list price lists: %w", err)
	}
	return lists, nil
}

// Get loads a price list and rebuilds its price map from the stored items.
func (r *priceListRepository) Get(ctx context.Context, id string) (*domain.PriceList, error) {
	query := `
		SELECT id, name, created_at, updated_at, item_count, items, raw_data, last_edited_by
		FROM price_lists WHERE id = $1
	`

	var row priceListRow
	if err := sqlx.GetContext(ctx, r.db, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get price list: %w", err)
	}

	var items []domain.PriceItem
	if len(row.ItemsJSON) > 0 {
		if err := json.Unmarshal(row.ItemsJSON, &items); err != nil {
			return nil, fmt.Errorf("failed to decode items of price list %s: %w", id, err)
		}
	}

	list := row.PriceList
	pricelist.Apply(&list, items)
	return &list, nil
}

func (r *priceListRepository) Create(ctx context.Context, list *domain.PriceList) error {
	if list.ID == "" {
		list.ID = uuid.NewString()
	}
	if list.CreatedAt.IsZero() {
		list.CreatedAt = time.Now().UTC()
	}
	pricelist.Apply(list, list.Items)

	items, err := json.Marshal(list.Items)
	if err != nil {
		return fmt.Errorf("failed to encode price items: %w", err)
	}

	query := `
		INSERT INTO price_lists (id, name, created_at, updated_at, item_count, items, raw_data, last_edited_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = r.db.ExecContext(ctx, query,
		list.ID,
		list.Name,
		list.CreatedAt,
		list.UpdatedAt,
		list.ItemCount,
		items,
		list.RawData,
		list.LastEditedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert price list: %w", err)
	}
	return nil
}

func (r *priceListRepository) Update(ctx context.Context, list *domain.PriceList) error {
	pricelist.Apply(list, list.Items)

	items, err := json.Marshal(list.Items)
	if err != nil {
		return fmt.Errorf("failed to encode price items: %w", err)
	}

	query := `
		UPDATE price_lists
		SET name = $2, updated_at = $3, item_count = $4, items = $5, raw_data = $6, last_edited_by = $7
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query,
		list.ID,
		list.Name,
		list.UpdatedAt,
		list.ItemCount,
		items,
		list.RawData,
		list.LastEditedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update price list: %w", err)
	}
	return expectAffected(res)
}

func (r *priceListRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "price_lists", id)
}
