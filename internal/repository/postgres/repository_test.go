package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/purchasing-admin/backend-go/internal/domain"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/repository"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return Wrap(sqlx.NewDb(mockDB, "postgres")), mock
}

var orderColumns = []string{
	"id", "name", "note", "supplier", "collection", "created_at", "items",
	"total_items", "total_quantity", "total_cost", "csv_data", "uploaded_file",
}

func TestPurchaseOrderRepository_List(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPurchaseOrderRepository(db)
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(orderColumns).
		AddRow("o2", "May", "", "Acme", "SS24", created, []byte(`[{"product_id":"p1_M","productId":"p1","size":"M","quantity":5,"unitCost":10}]`), 1, 5, 50.0, "", "").
		AddRow("o1", "Legacy", "", "-", "-", created.Add(-time.Hour), []byte(`[{"product_id":"p2_L","quantity":2}]`), 1, 2, 0.0, "", "")

	mock.ExpectQuery(`SELECT .* FROM purchase_orders ORDER BY created_at DESC LIMIT \$1`).
		WithArgs(10).
		WillReturnRows(rows)

	orders, err := repo.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "o2", orders[0].ID)
	require.Len(t, orders[0].Items, 1)
	assert.Equal(t, "p1", orders[0].Items[0].ProductID)
	assert.Equal(t, "p2_L", orders[1].Items[0].RowID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPurchaseOrderRepository_ListAll(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPurchaseOrderRepository(db)

	mock.ExpectQuery(`SELECT .* FROM purchase_orders ORDER BY created_at DESC$`).
		WillReturnRows(sqlmock.NewRows(orderColumns))

	orders, err := repo.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPurchaseOrderRepository_Get(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPurchaseOrderRepository(db)

		mock.ExpectQuery(`SELECT .* FROM purchase_orders WHERE id = \$1`).
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.Get(context.Background(), "missing")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("query error", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPurchaseOrderRepository(db)

		mock.ExpectQuery(`SELECT .* FROM purchase_orders WHERE id = \$1`).
			WithArgs("o1").
			WillReturnError(errors.New("connection reset"))

		_, err := repo.Get(context.Background(), "o1")
		require.Error(t, err)
		assert.NotErrorIs(t, err, repository.ErrNotFound)
		assert.Contains(t, err.Error(), "failed to get purchase order")
	})
}

func TestPurchaseOrderRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPurchaseOrderRepository(db)

	order := &domain.PurchaseOrder{
		Name: "May",
		Items: []domain.OrderItem{
			{RowID: "p1_M", ProductID: "p1", Size: "M", UnitCost: 10, Quantity: 5},
			{RowID: "p1_L", ProductID: "p1", Size: "L", UnitCost: 12.5, Quantity: 2},
		},
	}

	mock.ExpectExec(`INSERT INTO purchase_orders`).
		WithArgs(sqlmock.AnyArg(), "May", "", "", "", sqlmock.AnyArg(), sqlmock.AnyArg(), 2, 7, 75.0, "", "").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Create(context.Background(), order))
	assert.NotEmpty(t, order.ID)
	assert.False(t, order.CreatedAt.IsZero())
	assert.Equal(t, 75.0, order.TotalCost)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPurchaseOrderRepository_Delete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPurchaseOrderRepository(db)

	mock.ExpectExec(`DELETE FROM purchase_orders WHERE id = \$1`).
		WithArgs("o1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM purchase_orders WHERE id = \$1`).
		WithArgs("o1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.Delete(context.Background(), "o1"))
	assert.ErrorIs(t, repo.Delete(context.Background(), "o1"), repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPriceListRepository_Get(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPriceListRepository(db)
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "name", "created_at", "updated_at", "item_count", "items", "raw_data", "last_edited_by"}).
		AddRow("pl1", "Acme", created, nil, 2,
			[]byte(`[{"productId":"p1","size":"M","price":10,"currency":"EUR"},{"productId":"p1","size":"L","price":11,"currency":"EUR"}]`),
			"ProductID,Size,Price,Currency", "")

	mock.ExpectQuery(`SELECT .* FROM price_lists WHERE id = \$1`).
		WithArgs("pl1").
		WillReturnRows(rows)

	list, err := repo.Get(context.Background(), "pl1")
	require.NoError(t, err)
	assert.Equal(t, 2, list.ItemCount)
	assert.Nil(t, list.UpdatedAt)
	assert.Equal(t, domain.PriceEntry{Price: 11, Currency: domain.CurrencyEUR}, list.PriceMap["p1_L"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPriceListRepository_List(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPriceListRepository(db)

	mock.ExpectQuery(`SELECT id, name, created_at, updated_at, item_count FROM price_lists ORDER BY created_at DESC LIMIT \$1`).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "created_at", "updated_at", "item_count"}).
			AddRow("pl2", "New", time.Now(), nil, 3).
			AddRow("pl1", "Old", time.Now().Add(-time.Hour), time.Now(), 1))

	lists, err := repo.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, lists, 2)
	assert.Equal(t, "pl2", lists[0].ID)
	assert.NotNil(t, lists[1].UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPriceListRepository_Update(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPriceListRepository(db)
	now := time.Now()

	list := &domain.PriceList{
		ID:        "pl1",
		Name:      "Acme",
		UpdatedAt: &now,
		Items:     []domain.PriceItem{{ProductID: "p1", Size: "M", Price: 9, Currency: domain.CurrencySEK}},
	}

	mock.ExpectExec(`UPDATE price_lists`).
		WithArgs("pl1", "Acme", sqlmock.AnyArg(), 1, sqlmock.AnyArg(), "", "").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), list)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Equal(t, 1, list.ItemCount)
	assert.Contains(t, list.PriceMap, "p1_M")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	for range schema {
		mock.ExpectExec(`.+`).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectCommit()

	require.NoError(t, Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_RollsBack(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS purchase_orders`).WillReturnError(errors.New("permission denied"))
	mock.ExpectRollback()

	err := Migrate(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "statement 1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRetryDelay(t *testing.T) {
	var delay time.Duration
	var got []time.Duration
	for i := 0; i < 7; i++ {
		delay = retryDelay(delay, false)
		got = append(got, delay)
	}
	assert.Equal(t, []time.Duration{
		time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second,
		16 * time.Second, 30 * time.Second, 30 * time.Second,
	}, got)

	assert.Equal(t, watcherMinBackoff, retryDelay(watcherMaxBackoff, true))
}
