package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/purchasing-admin/backend-go/internal/csvcodec"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/domain"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/incoming"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/landedcost"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/pricelist"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/realtime"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/reorder"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/repository"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/sales"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/session"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/storage"
)

var (
	params = reorder.Params{DeliveryTimeDays: 3, CoverageDays: 30}
	may1   = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	may31  = time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC)
)

func TestPurchasingService_Analyze(t *testing.T) {
	src := &staticSource{lines: salesLines(), products: catalog()}
	svc := NewPurchasingService(src, incoming.NewStream(), nil)

	t.Run("simple policy works per product", func(t *testing.T) {
		a, err := svc.Analyze(context.Background(), AnalysisRequest{
			StartDate: may1, EndDate: may31, Policy: reorder.PolicySimple, Params: params,
		})
		require.NoError(t, err)
		assert.Equal(t, 30, a.PeriodDays)
		assert.Equal(t, 2, a.Total)
		require.Len(t, a.Suggestions, 2)
		assert.Equal(t, "TEE-1", a.Suggestions[0].ProductNumber)
		assert.Equal(t, 59, a.Suggestions[0].ReorderQty)
		// sold only as a bundle item
		assert.Equal(t, "SOCK-1", a.Suggestions[1].ProductNumber)
		assert.Equal(t, 2, a.Suggestions[1].TotalSales)
		assert.Equal(t, domain.UrgencyLow, a.Suggestions[1].Urgency)
		assert.Equal(t, []string{"Acme", "Beta"}, a.Suppliers)
		assert.Equal(t, []bool{false}, src.sized[len(src.sized)-1:])
	})

	t.Run("limit keeps the total", func(t *testing.T) {
		a, err := svc.Analyze(context.Background(), AnalysisRequest{
			StartDate: may1, EndDate: may31, Policy: reorder.PolicySimple, Params: params, Limit: 1,
		})
		require.NoError(t, err)
		assert.Len(t, a.Suggestions, 1)
		assert.Equal(t, 2, a.Total)
	})

	t.Run("depletion aware works per size", func(t *testing.T) {
		a, err := svc.Analyze(context.Background(), AnalysisRequest{
			StartDate: may1, EndDate: may31, Params: params, Supplier: "Acme",
		})
		require.NoError(t, err)
		assert.Equal(t, reorder.PolicyDepletionAware, a.Policy)
		require.Len(t, a.Suggestions, 2)
		for _, row := range a.Suggestions {
			assert.Equal(t, "p1", row.ProductID)
		}
		assert.True(t, src.sized[len(src.sized)-1])
	})

	t.Run("invalid input", func(t *testing.T) {
		_, err := svc.Analyze(context.Background(), AnalysisRequest{StartDate: may31, EndDate: may1, Params: params})
		assert.ErrorIs(t, err, ErrInvalidRequest)

		_, err = svc.Analyze(context.Background(), AnalysisRequest{StartDate: may1, EndDate: may31, Params: params, Policy: "magic"})
		assert.ErrorIs(t, err, ErrInvalidRequest)

		_, err = svc.Analyze(context.Background(), AnalysisRequest{StartDate: may1, EndDate: may31, Params: params, Urgency: "urgent"})
		assert.ErrorIs(t, err, ErrInvalidRequest)
	})
}

func TestPurchasingService_Watch(t *testing.T) {
	stream := incoming.NewStream()
	hub := &recordingHub{}
	svc := NewPurchasingService(&staticSource{lines: salesLines(), products: catalog()}, stream, hub)

	_, err := svc.Analyze(context.Background(), AnalysisRequest{StartDate: may1, EndDate: may31, Params: params})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Watch(ctx)
		close(done)
	}()
	require.Eventually(t, func() bool { return stream.Subscribers() == 1 }, time.Second, 5*time.Millisecond)

	stream.Publish([]domain.PurchaseOrder{{
		ID:    "o1",
		Items: []domain.OrderItem{{RowID: "p1_S", ProductID: "p1", Size: "S", Quantity: 5}},
	}})

	require.Eventually(t, func() bool { return len(hub.ofType(realtime.EventSuggestionsUpdated)) == 1 }, time.Second, 5*time.Millisecond)

	updated := hub.ofType(realtime.EventSuggestionsUpdated)[0]
	analysis, ok := updated.Data.(*Analysis)
	require.True(t, ok)
	assert.Equal(t, uint64(1), analysis.IncomingVersion)
	for _, row := range analysis.Suggestions {
		if row.RowID == "p1_S" {
			assert.Equal(t, 5, row.IncomingQty)
		}
	}
	assert.Len(t, hub.ofType(realtime.EventIncomingUpdated), 1)
	assert.Equal(t, uint64(1), svc.Incoming().Version)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestPurchasingService_SalesOverview(t *testing.T) {
	svc := NewPurchasingService(&staticSource{lines: salesLines(), products: catalog()}, incoming.NewStream(), nil)

	overview, err := svc.SalesOverview(context.Background(), may1, may31, sales.BreakdownFilter{})
	require.NoError(t, err)
	assert.Equal(t, 91, overview.TotalStandalone)
	assert.Equal(t, 93, overview.TotalUnits)
	require.Len(t, overview.Products, 3)
	assert.Equal(t, "TEE-1", overview.Products[0].ProductNumber)

	sock := overview.Products[1]
	assert.Equal(t, "SOCK-1", sock.ProductNumber)
	assert.Equal(t, 0, sock.Standalone)
	assert.Equal(t, 2, sock.FromBundles)

	_, err = svc.SalesOverview(context.Background(), time.Time{}, may31, sales.BreakdownFilter{})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func suggestionRows() []domain.ReorderSuggestion {
	return []domain.ReorderSuggestion{
		{RowID: "p1_S", ProductID: "p1", ProductNumber: "TEE-1", Size: "S", UnitCost: 50, ReorderQty: 5, Supplier: "Acme"},
		{RowID: "p1_M", ProductID: "p1", ProductNumber: "TEE-1", Size: "M", UnitCost: 50, ReorderQty: 0, Supplier: "Acme"},
		{RowID: "p2_One Size", ProductID: "p2", ProductNumber: "SOCK-1", Size: "One Size", UnitCost: 10, ReorderQty: 4},
	}
}

func TestOrderService_CreateFromSuggestions(t *testing.T) {
	repo := newMemOrderRepo()
	stream := incoming.NewStream()
	hub := &recordingHub{}
	svc := NewOrderService(repo, stream, hub)
	svc.PublishOnWrite = true

	order, err := svc.CreateFromSuggestions(context.Background(), CreateOrderRequest{
		Name:      "May",
		Supplier:  "Acme",
		Rows:      suggestionRows(),
		Overrides: map[string]int{"p1_M": 3, "p2_One Size": 0},
	})
	require.NoError(t, err)
	require.Len(t, order.Items, 2)
	assert.Equal(t, 8, order.TotalQuantity)
	assert.Equal(t, 400.0, order.TotalCost)
	assert.Equal(t, "-", order.Collection)
	assert.Contains(t, order.CSVData, "p1,TEE-1,,Acme,,0,M,50,3")

	snap, ok := stream.Latest()
	require.True(t, ok)
	assert.Equal(t, incoming.Quantities{"p1_S": 5, "p1_M": 3}, snap.Quantities)
	assert.Len(t, hub.ofType(realtime.EventOrderChanged), 1)

	_, err = svc.CreateFromSuggestions(context.Background(), CreateOrderRequest{
		Rows: suggestionRows(), Overrides: map[string]int{"p1_S": 0, "p2_One Size": 0},
	})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestOrderService_Upload(t *testing.T) {
	svc := NewOrderService(newMemOrderRepo(), incoming.NewStream(), nil)

	data := "ProductID,Product Number,Product Name,Size,Unit Cost,Quantity to Order\np1,TEE-1,Tee,S,50,2\np2,SOCK-1,Sock,One Size,10,abc"
	order, err := svc.Upload(context.Background(), "", "supplier-may.csv", data)
	require.NoError(t, err)
	assert.Equal(t, "supplier-may", order.Name)
	assert.Equal(t, domain.ManualUploadSource, order.Supplier)
	assert.Equal(t, domain.ManualUploadSource, order.Collection)
	assert.Equal(t, 2, order.TotalQuantity)
	assert.Equal(t, "supplier-may.csv", order.UploadedFile)

	csv, filename, err := svc.ExportCSV(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Contains(t, csv, "p1,TEE-1,Tee,-,-,0,S,50,2")
	assert.Regexp(t, `^purchase_order_supplier_may_\d{4}-\d{2}-\d{2}\.csv$`, filename)

	_, err = svc.Upload(context.Background(), "x", "x.csv", "ProductID,Size\np1,S")
	assert.ErrorIs(t, err, csvcodec.ErrMissingColumns)

	assert.ErrorIs(t, svc.Delete(context.Background(), "missing"), repository.ErrNotFound)
	require.NoError(t, svc.Delete(context.Background(), order.ID))
	orders, err := svc.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

const priceListCSV = "ProductID,Size,Price,Currency\np1,S,10,EUR\np1,M,12,EUR"

func TestPriceListService(t *testing.T) {
	ctx := context.Background()
	archive := storage.NewMemoryStorage()
	svc := NewPriceListService(newMemPriceListRepo(), archive, nil, 1, 0)

	list, err := svc.Upload(ctx, "Acme", priceListCSV)
	require.NoError(t, err)
	assert.Equal(t, 2, list.ItemCount)
	assert.Equal(t, domain.PriceEntry{Price: 12, Currency: domain.CurrencyEUR}, list.PriceMap["p1_M"])

	archived, err := archive.GetObject(ctx, "price-lists/"+list.ID+".csv")
	require.NoError(t, err)
	assert.Equal(t, priceListCSV, string(archived))

	t.Run("rejects missing currency column", func(t *testing.T) {
		_, err := svc.Upload(ctx, "Bad", "ProductID,Size,Price\np1,S,10")
		assert.ErrorIs(t, err, csvcodec.ErrMissingColumns)
		assert.ErrorContains(t, err, "Currency")
	})

	t.Run("bulk edit rebuilds the price map", func(t *testing.T) {
		edited, err := svc.BulkEdit(ctx, list.ID, []int{0}, pricelist.BulkEdit{
			Field: csvcodec.ColPrice, Mode: pricelist.BulkPercentage, Value: "10",
		}, "anna")
		require.NoError(t, err)
		assert.Equal(t, 11.0, edited.PriceMap["p1_S"].Price)
		assert.Equal(t, 12.0, edited.PriceMap["p1_M"].Price)
		assert.Equal(t, "anna", edited.LastEditedBy)
		assert.NotNil(t, edited.UpdatedAt)
	})

	t.Run("save rejects invalid rows", func(t *testing.T) {
		table, err := svc.Table(ctx, list.ID)
		require.NoError(t, err)
		table.Records[1].Values[csvcodec.ColPrice] = "cheap"

		_, err = svc.SaveTable(ctx, list.ID, table, "anna")
		assert.ErrorIs(t, err, pricelist.ErrInvalidRows)

		stored, err := svc.Get(ctx, list.ID)
		require.NoError(t, err)
		assert.Equal(t, 12.0, stored.PriceMap["p1_M"].Price)
	})

	t.Run("download", func(t *testing.T) {
		data, filename, err := svc.DownloadCSV(ctx, list.ID)
		require.NoError(t, err)
		assert.Contains(t, data, "p1,S,11")
		assert.Contains(t, filename, "price_list_acme_")
	})

	summaries, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, summaries, 1)

	require.NoError(t, svc.Delete(ctx, list.ID))
	_, err = svc.Get(ctx, list.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func receivingFixture(t *testing.T) (*ReceivingService, *domain.PurchaseOrder, *domain.PriceList, *storage.MemoryStorage) {
	t.Helper()
	ctx := context.Background()
	orders := newMemOrderRepo()
	priceLists := newMemPriceListRepo()

	order := &domain.PurchaseOrder{Name: "May", Items: []domain.OrderItem{
		{RowID: "p1_S", ProductID: "p1", ProductNumber: "TEE-1", Size: "S", UnitCost: 20, Quantity: 10},
		{RowID: "p2_One Size", ProductID: "p2", ProductNumber: "SOCK-1", Size: "One Size", UnitCost: 10, Quantity: 5},
	}}
	require.NoError(t, orders.Create(ctx, order))

	list := &domain.PriceList{Name: "Acme", Items: []domain.PriceItem{{ProductID: "p1", Size: "S", Price: 10, Currency: domain.CurrencyEUR}}}
	require.NoError(t, priceLists.Create(ctx, list))

	archive := storage.NewMemoryStorage()
	svc := NewReceivingService(orders, priceLists, &staticSource{products: catalog()}, archive, 11.5)
	return svc, order, list, archive
}

func TestReceivingService_Calculate(t *testing.T) {
	svc, order, list, _ := receivingFixture(t)
	ctx := context.Background()

	result, err := svc.Calculate(ctx, ReceiveRequest{
		OrderID:     order.ID,
		PriceListID: list.ID,
		Params:      landedcost.Params{ReceivingCurrency: "eur"},
	})
	require.NoError(t, err)
	assert.Equal(t, 11.5, result.Params.ExchangeRate)
	require.NotNil(t, result.Coverage)
	assert.Equal(t, 50, result.Coverage.Percent)

	require.Len(t, result.Lines, 2)
	tee := result.Lines[0]
	assert.True(t, tee.Result.Matched)
	assert.Equal(t, 10, tee.ReceivedQty)
	// (10 × 50 + 10 × 115) / 20
	assert.Equal(t, 82.5, tee.Result.NewUnitCost)

	sock := result.Lines[1]
	assert.False(t, sock.Result.Matched)
	assert.Equal(t, landedcost.SourceExisting, sock.Result.PriceSource)
	assert.Equal(t, 10.0, sock.Result.NewUnitCost)

	assert.Contains(t, result.CSV, "# Order: May")
	assert.Contains(t, result.CSV, "p1,TEE-1,82.50,S,50.00,Price list (EUR),10,10")
	assert.Regexp(t, `^new_unit_costs_may_`, result.Filename)
}

func TestReceivingService_PartialDelivery(t *testing.T) {
	svc, order, _, _ := receivingFixture(t)

	defaults, err := svc.Defaults(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"p1_S": 10, "p2_One Size": 5}, defaults)

	result, err := svc.Calculate(context.Background(), ReceiveRequest{
		OrderID:  order.ID,
		Received: map[string]int{"p1_S": 0, "p2_One Size": 5},
	})
	require.NoError(t, err)
	assert.Equal(t, 1.0, result.Params.ExchangeRate)
	assert.Nil(t, result.Coverage)
	assert.NotContains(t, result.CSV, "p1,TEE-1")
	assert.Contains(t, result.CSV, "p2,SOCK-1,10.00,One Size")
}

func TestReceivingService_ExportArchives(t *testing.T) {
	svc, order, list, archive := receivingFixture(t)
	ctx := context.Background()

	result, err := svc.Export(ctx, ReceiveRequest{OrderID: order.ID, PriceListID: list.ID, Params: landedcost.Params{ReceivingCurrency: "EUR", ExchangeRate: 11}})
	require.NoError(t, err)
	require.NotEmpty(t, result.ArchiveKey)

	data, err := archive.GetObject(ctx, result.ArchiveKey)
	require.NoError(t, err)
	assert.Equal(t, result.CSV, string(data))

	objects, err := svc.Archived(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, objects, 1)
}

func TestReceivingService_InvalidParams(t *testing.T) {
	svc, order, _, _ := receivingFixture(t)
	cases := map[string]landedcost.Params{
		"unknown currency": {ReceivingCurrency: "JPY"},
		"negative rate":    {ReceivingCurrency: "EUR", ExchangeRate: -1},
		"negative duty":    {CustomsDutyPercent: -5},
		"negative freight": {ShippingCost: -1},
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Calculate(context.Background(), ReceiveRequest{OrderID: order.ID, Params: p})
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}

	_, err := svc.Calculate(context.Background(), ReceiveRequest{OrderID: "missing"})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSessionService(t *testing.T) {
	ctx := context.Background()
	svc := NewSessionService(session.NewMemoryStore(), params)
	svc.now = func() time.Time { return time.Date(2024, 5, 15, 9, 0, 0, 0, time.UTC) }

	state, err := svc.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01", state.StartDate)
	assert.Equal(t, "2024-05-14", state.EndDate)
	assert.Equal(t, params, state.Params)

	state.EditedQuantities = map[string]int{"p1_S": 7}
	saved, err := svc.Save(ctx, state)
	require.NoError(t, err)
	assert.False(t, saved.UpdatedAt.IsZero())

	loaded, err := svc.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 7, loaded.Quantity("p1_S", 0))

	_, err = svc.Save(ctx, session.State{})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	require.NoError(t, svc.Delete(ctx, "s1"))
}
