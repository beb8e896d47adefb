package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/purchasing-admin/backend-go/internal/domain"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

const (
	watcherMinBackoff = time.Second
	watcherMaxBackoff = 30 * time.Second
)

// OrderWatcher pushes a full snapshot of the purchase orders to onChange
// once on start and again after every change notification.
type OrderWatcher struct {
	dsn      string
	orders   repository.PurchaseOrderRepository
	onChange func(ctx context.Context, orders []domain.PurchaseOrder)
}

func NewOrderWatcher(dsn string, orders repository.PurchaseOrderRepository, onChange func(ctx context.Context, orders []domain.PurchaseOrder)) *OrderWatcher {
	return &OrderWatcher{dsn: dsn, orders: orders, onChange: onChange}
}

// Run listens until ctx is done, reconnecting with backoff when the
// connection drops.
func (w *OrderWatcher) Run(ctx context.Context) error {
	var delay time.Duration
	for {
		listened, err := w.listen(ctx)
		if ctx.Err() != nil {
			return nil
		}

		delay = retryDelay(delay, listened)
		log.Warn().Err(err).Dur("retry_in", delay).Msg("order watcher: connection lost")
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
	}
}

// retryDelay doubles the previous delay up to the maximum. A connection that
// got as far as LISTEN starts over from the minimum.
func retryDelay(prev time.Duration, listened bool) time.Duration {
	if listened || prev <= 0 {
		return watcherMinBackoff
	}
	return min(prev*2, watcherMaxBackoff)
}

func (w *OrderWatcher) listen(ctx context.Context) (bool, error) {
	conn, err := pgx.Connect(ctx, w.dsn)
	if err != nil {
		return false, fmt.Errorf("failed to connect: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+OrdersChannel); err != nil {
		return false, fmt.Errorf("failed to listen on %s: %w", OrdersChannel, err)
	}
	log.Info().Str("channel", OrdersChannel).Msg("order watcher: listening")

	// changes made while disconnected are covered by a fresh snapshot
	if err := w.refresh(ctx); err != nil {
		return true, err
	}

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return true, err
		}
		log.Debug().Str("op", n.Payload).Msg("order watcher: purchase orders changed")
		if err := w.refresh(ctx); err != nil {
			return true, err
		}
	}
}

func (w *OrderWatcher) refresh(ctx context.Context) error {
	orders, err := w.orders.List(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to load purchase orders: %w", err)
	}
	w.onChange(ctx, orders)
	return nil
}
