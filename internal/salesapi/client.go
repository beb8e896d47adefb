// Package salesapi reads order lines and the product catalog from the remote
// sales system.
package salesapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/andresuchdata/purchasing-admin/backend-go/internal/cache"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/config"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/domain"
)

const dateLayout = "2006-01-02"

var ErrUnexpectedStatus = errors.New("unexpected status from sales api")

// Source provides the sales inputs of the reorder calculation.
type Source interface {
	OrderLines(ctx context.Context, start, end time.Time, withSizes bool) ([]domain.OrderLine, error)
	Products(ctx context.Context) ([]domain.ProductInfo, error)
}

// Dataset is one consistent fetch of order lines and products.
type Dataset struct {
	Lines    []domain.OrderLine
	Products []domain.ProductInfo
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg config.SalesAPIConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout(),
		},
	}
}

type envelope[T any] struct {
	Data []T `json:"data"`
}

// OrderLines fetches the order lines of a date range. withSizes selects the
// endpoint that carries a size on every line.
func (c *Client) OrderLines(ctx context.Context, start, end time.Time, withSizes bool) ([]domain.OrderLine, error) {
	path := "/orderdata/custom-date-range"
	if withSizes {
		path += "-with-sizes"
	}
	q := url.Values{}
	q.Set("start_date", start.Format(dateLayout))
	q.Set("end_date", end.Format(dateLayout))

	var body envelope[rawOrderLine]
	if err := c.get(ctx, path+"?"+q.Encode(), &body); err != nil {
		return nil, fmt.Errorf("failed to fetch order lines: %w", err)
	}

	lines := make([]domain.OrderLine, 0, len(body.Data))
	for _, r := range body.Data {
		lines = append(lines, normalizeOrderLine(r))
	}
	return lines, nil
}

// Products fetches the current catalog with stock figures.
func (c *Client) Products(ctx context.Context) ([]domain.ProductInfo, error) {
	var body envelope[rawProduct]
	if err := c.get(ctx, "/product-info", &body); err != nil {
		return nil, fmt.Errorf("failed to fetch product info: %w", err)
	}

	products := make([]domain.ProductInfo, 0, len(body.Data))
	for _, r := range body.Data {
		products = append(products, normalizeProduct(r))
	}
	return products, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %d %s", ErrUnexpectedStatus, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Fetch loads order lines and products concurrently. Either failure fails
// the whole fetch.
func Fetch(ctx context.Context, src Source, start, end time.Time, withSizes bool) (*Dataset, error) {
	var ds Dataset
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		lines, err := src.OrderLines(gctx, start, end, withSizes)
		if err != nil {
			return err
		}
		ds.Lines = lines
		return nil
	})
	g.Go(func() error {
		products, err := src.Products(gctx)
		if err != nil {
			return err
		}
		ds.Products = products
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &ds, nil
}

// CachedSource serves repeated fetches from a SalesDataCache. Cache errors
// are logged and fall through to the wrapped source.
type CachedSource struct {
	src   Source
	cache cache.SalesDataCache
}

func NewCachedSource(src Source, c cache.SalesDataCache) *CachedSource {
	if c == nil {
		c = cache.NewNoopSalesDataCache()
	}
	return &CachedSource{src: src, cache: c}
}

func (s *CachedSource) OrderLines(ctx context.Context, start, end time.Time, withSizes bool) ([]domain.OrderLine, error) {
	q := cache.OrderLinesQuery{
		StartDate: start.Format(dateLayout),
		EndDate:   end.Format(dateLayout),
		WithSizes: withSizes,
	}
	if lines, found, err := s.cache.GetOrderLines(ctx, q); err != nil {
		log.Warn().Err(err).Msg("salesapi: order line cache read failed")
	} else if found {
		return lines, nil
	}

	lines, err := s.src.OrderLines(ctx, start, end, withSizes)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetOrderLines(ctx, q, lines); err != nil {
		log.Warn().Err(err).Msg("salesapi: order line cache write failed")
	}
	return lines, nil
}

func (s *CachedSource) Products(ctx context.Context) ([]domain.ProductInfo, error) {
	if products, found, err := s.cache.GetProducts(ctx); err != nil {
		log.Warn().Err(err).Msg("salesapi: product cache read failed")
	} else if found {
		return products, nil
	}

	products, err := s.src.Products(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetProducts(ctx, products); err != nil {
		log.Warn().Err(err).Msg("salesapi: product cache write failed")
	}
	return products, nil
}
