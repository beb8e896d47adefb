package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andresuchdata/purchasing-admin/backend-go/internal/config"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/drive"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/repository/postgres"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/service"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/storage"
	"github.com/andresuchdata/purchasing-admin/backend-go/pkg/logger"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file if it exists
	_ = godotenv.Load()

	cfg := config.Load()
	logger.Setup(cfg.Server.Mode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	driveService, err := drive.NewService(ctx, cfg.Drive.CredentialsJSON)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize Google Drive service")
	}

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	archive, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize object storage")
	}

	// Imports go through the price list service so they are validated and
	// archived the same way as browser uploads.
	priceLists := service.NewPriceListService(postgres.NewPriceListRepository(db), archive, nil,
		cfg.Purchasing.BulkEditChunkSize, cfg.Purchasing.PriceListLimit)
	importer := drive.NewImportService(driveService, priceLists)

	var folderSync *drive.FolderSync
	if folderID := cfg.Drive.PriceListFolderID; folderID != "" {
		folderSync = drive.NewFolderSync(driveService, importer, folderID)
		if interval := cfg.Drive.SyncInterval(); interval > 0 {
			go folderSync.Watch(ctx, interval)
		}
	}

	r := mux.NewRouter()
	drive.NewHandler(driveService, importer, folderSync, cfg.Drive.PriceListFolderID).RegisterRoutes(r)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods("GET")

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Drive.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: 2 * time.Minute,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Drive.Port).Msg("Drive service starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal().Err(err).Msg("Drive service failed")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error().Err(err).Msg("Drive service forced to shutdown")
	}
}
