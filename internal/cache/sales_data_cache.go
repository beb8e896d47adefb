package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/andresuchdata/purchasing-admin/backend-go/internal/config"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	salesDataKeyPrefix = "sales"
	orderLinesKey      = salesDataKeyPrefix + ":order_lines"
	productsKey        = salesDataKeyPrefix + ":products"
)

// OrderLinesQuery identifies one cached order-line fetch.
type OrderLinesQuery struct {
	StartDate string
	EndDate   string
	WithSizes bool
}

// SalesDataCache keeps responses of the remote sales API for a short while.
type SalesDataCache interface {
	GetOrderLines(ctx context.Context, q OrderLinesQuery) ([]domain.OrderLine, bool, error)
	SetOrderLines(ctx context.Context, q OrderLinesQuery, lines []domain.OrderLine) error
	GetProducts(ctx context.Context) ([]domain.ProductInfo, bool, error)
	SetProducts(ctx context.Context, products []domain.ProductInfo) error
	InvalidateAll(ctx context.Context) error
}

type redisSalesDataCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopSalesDataCache struct{}

func NewSalesDataCache(cfg config.CacheConfig) (SalesDataCache, error) {
	if !cfg.Enabled {
		return &noopSalesDataCache{}, nil
	}

	client, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return newRedisSalesDataCache(client, time.Duration(cfg.SalesTTLSeconds)*time.Second), nil
}

func newRedisSalesDataCache(client *redis.Client, ttl time.Duration) *redisSalesDataCache {
	return &redisSalesDataCache{client: client, ttl: ttlOrDefault(ttl, defaultSalesTTL)}
}

func NewNoopSalesDataCache() SalesDataCache {
	return &noopSalesDataCache{}
}

func (c *redisSalesDataCache) GetOrderLines(ctx context.Context, q OrderLinesQuery) ([]domain.OrderLine, bool, error) {
	var lines []domain.OrderLine
	found, err := c.get(ctx, buildOrderLinesKey(q), &lines)
	return lines, found, err
}

func (c *redisSalesDataCache) SetOrderLines(ctx context.Context, q OrderLinesQuery, lines []domain.OrderLine) error {
	return c.set(ctx, buildOrderLinesKey(q), lines)
}

func (c *redisSalesDataCache) GetProducts(ctx context.Context) ([]domain.ProductInfo, bool, error) {
	var products []domain.ProductInfo
	found, err := c.get(ctx, productsKey, &products)
	return products, found, err
}

func (c *redisSalesDataCache) SetProducts(ctx context.Context, products []domain.ProductInfo) error {
	return c.set(ctx, productsKey, products)
}

func (c *redisSalesDataCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, salesDataKeyPrefix+":", scanBatchSize)
}

func (c *redisSalesDataCache) get(ctx context.Context, key string, out any) (bool, error) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get failed: %w", err)
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return false, fmt.Errorf("decode sales data cache: %w", err)
	}
	return true, nil
}

func (c *redisSalesDataCache) set(ctx context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode sales data cache: %w", err)
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (n *noopSalesDataCache) GetOrderLines(ctx context.Context, q OrderLinesQuery) ([]domain.OrderLine, bool, error) {
	return nil, false, nil
}

func (n *noopSalesDataCache) SetOrderLines(ctx context.Context, q OrderLinesQuery, lines []domain.OrderLine) error {
	return nil
}

func (n *noopSalesDataCache) GetProducts(ctx context.Context) ([]domain.ProductInfo, bool, error) {
	return nil, false, nil
}

func (n *noopSalesDataCache) SetProducts(ctx context.Context, products []domain.ProductInfo) error {
	return nil
}

func (n *noopSalesDataCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildOrderLinesKey(q OrderLinesQuery) string {
	return fmt.Sprintf("%s:%s", orderLinesKey, orderLinesQueryHash(q))
}

func orderLinesQueryHash(q OrderLinesQuery) string {
	parts := []string{
		"start=" + strings.TrimSpace(q.StartDate),
		"end=" + strings.TrimSpace(q.EndDate),
		fmt.Sprintf("sizes=%t", q.WithSizes),
	}
	raw := strings.Join(parts, "|")
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}
