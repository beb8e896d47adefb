// backend-go/cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andresuchdata/purchasing-admin/backend-go/internal/api"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/cache"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/config"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/domain"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/incoming"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/realtime"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/reorder"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/repository/postgres"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/salesapi"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/service"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/storage"
	"github.com/andresuchdata/purchasing-admin/backend-go/pkg/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()

	logger.Setup(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to migrate database")
	}

	salesCache, err := cache.NewSalesDataCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Sales cache unavailable, continuing without cache")
		salesCache = cache.NewNoopSalesDataCache()
	}
	sessions, err := cache.NewSessionStore(cfg.Cache)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize session store")
	}

	archive, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize object storage")
	}

	defaults := reorder.Params{
		DeliveryTimeDays: cfg.Purchasing.DeliveryTimeDays,
		CoverageDays:     cfg.Purchasing.CoverageDays,
		GrowthPercent:    cfg.Purchasing.GrowthPercent,
	}
	source := salesapi.NewCachedSource(salesapi.NewClient(cfg.SalesAPI), salesCache)
	stream := incoming.NewStream()
	defer stream.Close()

	hub := realtime.NewHub(cfg.Server.AllowedOrigins)
	defer hub.Close()
	hub.Welcome = func() []realtime.Event {
		snap, ok := stream.Latest()
		if !ok {
			return nil
		}
		return []realtime.Event{{Type: realtime.EventIncomingUpdated, Version: snap.Version, Data: snap.Quantities}}
	}

	orderRepo := postgres.NewPurchaseOrderRepository(db)
	priceListRepo := postgres.NewPriceListRepository(db)

	purchasing := service.NewPurchasingService(source, stream, hub)
	orders := service.NewOrderService(orderRepo, stream, hub)
	priceLists := service.NewPriceListService(priceListRepo, archive, hub, cfg.Purchasing.BulkEditChunkSize, cfg.Purchasing.PriceListLimit)
	receiving := service.NewReceivingService(orderRepo, priceListRepo, source, archive, cfg.Purchasing.DefaultExchangeRate)

	go purchasing.Watch(ctx)

	if cfg.Database.WatchOrders {
		watcher := postgres.NewOrderWatcher(postgres.DSN(&cfg.Database), orderRepo, func(_ context.Context, all []domain.PurchaseOrder) {
			snap := stream.Publish(all)
			logger.Log.Debug().Uint64("version", snap.Version).Int("orders", snap.Orders).Msg("Incoming quantities updated")
		})
		go func() {
			if err := watcher.Run(ctx); err != nil {
				logger.Log.Error().Err(err).Msg("Order watcher stopped")
			}
		}()
	} else {
		orders.PublishOnWrite = true
		if _, err := orders.Refresh(ctx); err != nil {
			logger.Log.Warn().Err(err).Msg("Failed to load incoming quantities")
		}
	}

	router := api.NewRouter(&api.Services{
		Purchasing: purchasing,
		Orders:     orders,
		PriceLists: priceLists,
		Receiving:  receiving,
		Sessions:   service.NewSessionService(sessions, defaults),
		Hub:        hub,
		Defaults:   defaults,
	}, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
