package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/purchasing-admin/backend-go/internal/config"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/csvcodec"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/domain"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/incoming"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/landedcost"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/reorder"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/repository/postgres"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/salesapi"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/service"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/session"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/storage"
	"github.com/andresuchdata/purchasing-admin/backend-go/pkg/logger"
	"github.com/urfave/cli/v2"
)

const dateLayout = "2006-01-02"

func outputFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Write the CSV to this file instead of stdout",
	}
}

func writeOutput(c *cli.Context, data string) error {
	path := c.String("output")
	if path == "" || path == "-" {
		_, err := io.WriteString(c.App.Writer, data)
		return err
	}
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	logger.Log.Info().Str("file", path).Msg("CSV written")
	return nil
}

func suggestCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "suggest",
		Usage: "Compute reorder suggestions and write them as an order CSV",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "db-url", Usage: "Database used for incoming quantities (optional)", EnvVars: []string{"DATABASE_URL"}},
			&cli.StringFlag{Name: "start", Usage: "First day of the sales period (YYYY-MM-DD), defaults to the first of this month"},
			&cli.StringFlag{Name: "end", Usage: "Last day of the sales period (YYYY-MM-DD), defaults to yesterday"},
			&cli.StringFlag{Name: "policy", Value: reorder.PolicyDepletionAware, Usage: "simple or depletion_aware"},
			&cli.Float64Flag{Name: "delivery-days", Value: cfg.Purchasing.DeliveryTimeDays},
			&cli.Float64Flag{Name: "coverage-days", Value: cfg.Purchasing.CoverageDays},
			&cli.Float64Flag{Name: "growth", Value: cfg.Purchasing.GrowthPercent, Usage: "Expected sales growth in percent"},
			&cli.StringFlag{Name: "supplier"},
			&cli.StringFlag{Name: "collection"},
			&cli.StringFlag{Name: "urgency"},
			&cli.StringFlag{Name: "sales-api-url", Value: cfg.SalesAPI.BaseURL, EnvVars: []string{"SALES_API_BASE_URL"}},
			outputFlag(),
		},
		Before: func(c *cli.Context) error {
			if c.String("db-url") == "" {
				return nil
			}
			return initDB(c)
		},
		After: closeDB,
		Action: func(c *cli.Context) error {
			params := reorder.Params{
				DeliveryTimeDays: c.Float64("delivery-days"),
				CoverageDays:     c.Float64("coverage-days"),
				GrowthPercent:    c.Float64("growth"),
			}
			start, end, err := period(c, params)
			if err != nil {
				return err
			}

			stream := incoming.NewStream()
			if db := dbFrom(c); db != nil {
				orders, err := postgres.NewPurchaseOrderRepository(db).List(c.Context, 0)
				if err != nil {
					return err
				}
				snap := stream.Publish(orders)
				logger.Log.Info().Int("orders", snap.Orders).Msg("Loaded incoming quantities")
			}

			apiCfg := cfg.SalesAPI
			apiCfg.BaseURL = c.String("sales-api-url")
			svc := service.NewPurchasingService(salesapi.NewClient(apiCfg), stream, nil)

			analysis, err := svc.Analyze(c.Context, service.AnalysisRequest{
				StartDate:  start,
				EndDate:    end,
				Policy:     c.String("policy"),
				Params:     params,
				Supplier:   c.String("supplier"),
				Collection: c.String("collection"),
				Urgency:    c.String("urgency"),
			})
			if err != nil {
				return err
			}

			ordered := 0
			for _, row := range analysis.Suggestions {
				if row.ReorderQty > 0 {
					ordered++
				}
			}
			logger.Log.Info().
				Str("policy", analysis.Policy).
				Int("days", analysis.PeriodDays).
				Int("rows", analysis.Total).
				Int("to_order", ordered).
				Msg("Suggestions computed")

			return writeOutput(c, csvcodec.SuggestionsCSV(analysis.Suggestions, nil))
		},
	}
}

// period reads --start and --end, falling back to the default session
// period.
func period(c *cli.Context, params reorder.Params) (time.Time, time.Time, error) {
	start, end, err := session.New("cli", params, time.Now()).Period()
	if err != nil {
		return start, end, err
	}
	if v := c.String("start"); v != "" {
		if start, err = time.Parse(dateLayout, v); err != nil {
			return start, end, fmt.Errorf("invalid --start: %w", err)
		}
	}
	if v := c.String("end"); v != "" {
		if end, err = time.Parse(dateLayout, v); err != nil {
			return start, end, fmt.Errorf("invalid --end: %w", err)
		}
	}
	return start, end, nil
}

func importOrdersCommand() *cli.Command {
	return &cli.Command{
		Name:      "import-orders",
		Usage:     "Store purchase order CSV files (files or directories)",
		ArgsUsage: "<path>...",
		Flags: []cli.Flag{
			newDBURLFlag(),
			&cli.IntFlag{Name: "workers", Value: runtime.NumCPU(), Usage: "Number of files imported concurrently"},
		},
		Before: initDB,
		After:  closeDB,
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return cli.Exit("at least one file or directory is required", 2)
			}
			files, err := collectFiles(c.Args().Slice())
			if err != nil {
				return err
			}

			svc := service.NewOrderService(postgres.NewPurchaseOrderRepository(dbFrom(c)), incoming.NewStream(), nil)
			_, err = processFilesParallel(c.Context, files, c.Int("workers"), func(ctx context.Context, path string, data []byte) (string, error) {
				order, err := svc.Upload(ctx, "", filepath.Base(path), string(data))
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("%s (%d items, %d units)", order.Name, order.TotalItems, order.TotalQuantity), nil
			})
			return err
		},
	}
}

func importPriceListCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "import-pricelist",
		Usage:     "Store a supplier price list CSV",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			newDBURLFlag(),
			&cli.StringFlag{Name: "name", Usage: "Price list name, defaults to the file name"},
		},
		Before: initDB,
		After:  closeDB,
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("exactly one file is required", 2)
			}
			path := c.Args().First()
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}
			name := c.String("name")
			if name == "" {
				name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			}

			archive, err := storage.New(c.Context, cfg.Storage)
			if err != nil {
				return err
			}
			svc := service.NewPriceListService(postgres.NewPriceListRepository(dbFrom(c)), archive, nil,
				cfg.Purchasing.BulkEditChunkSize, cfg.Purchasing.PriceListLimit)

			list, err := svc.Upload(c.Context, name, string(data))
			if err != nil {
				return err
			}
			logger.Log.Info().Str("id", list.ID).Str("name", list.Name).Int("items", list.ItemCount).Msg("Price list stored")
			return nil
		},
	}
}

func receiveCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "receive",
		Usage: "Calculate new unit costs for a received purchase order",
		Flags: []cli.Flag{
			newDBURLFlag(),
			&cli.StringFlag{Name: "order", Required: true, Usage: "Purchase order id"},
			&cli.StringFlag{Name: "price-list", Usage: "Price list id"},
			&cli.StringFlag{Name: "currency", Value: string(domain.BaseCurrency)},
			&cli.Float64Flag{Name: "rate", Usage: "Exchange rate to " + string(domain.BaseCurrency) + ", 0 uses the default"},
			&cli.Float64Flag{Name: "duty", Usage: "Customs duty in percent"},
			&cli.Float64Flag{Name: "shipping", Usage: "Shipping cost in " + string(domain.BaseCurrency)},
			&cli.StringSliceFlag{Name: "received", Usage: "Received quantity as productId_size=qty, repeatable; unlisted items are received in full"},
			&cli.BoolFlag{Name: "archive", Usage: "Archive the cost CSV in object storage"},
			&cli.StringFlag{Name: "sales-api-url", Value: cfg.SalesAPI.BaseURL, EnvVars: []string{"SALES_API_BASE_URL"}},
			outputFlag(),
		},
		Before: initDB,
		After:  closeDB,
		Action: func(c *cli.Context) error {
			received, err := parseReceived(c.StringSlice("received"))
			if err != nil {
				return err
			}

			archive, err := storage.New(c.Context, cfg.Storage)
			if err != nil {
				return err
			}
			apiCfg := cfg.SalesAPI
			apiCfg.BaseURL = c.String("sales-api-url")

			db := dbFrom(c)
			svc := service.NewReceivingService(postgres.NewPurchaseOrderRepository(db), postgres.NewPriceListRepository(db),
				salesapi.NewClient(apiCfg), archive, cfg.Purchasing.DefaultExchangeRate)

			if received != nil {
				defaults, err := svc.Defaults(c.Context, c.String("order"))
				if err != nil {
					return err
				}
				for rowID, qty := range received {
					defaults[rowID] = qty
				}
				received = defaults
			}

			req := service.ReceiveRequest{
				OrderID:     c.String("order"),
				PriceListID: c.String("price-list"),
				Params: landedcost.Params{
					ReceivingCurrency:  domain.Currency(strings.ToUpper(c.String("currency"))),
					ExchangeRate:       c.Float64("rate"),
					CustomsDutyPercent: c.Float64("duty"),
					ShippingCost:       c.Float64("shipping"),
				},
				Received: received,
			}

			var result *service.ReceiveResult
			if c.Bool("archive") {
				result, err = svc.Export(c.Context, req)
			} else {
				result, err = svc.Calculate(c.Context, req)
			}
			if err != nil {
				return err
			}

			event := logger.Log.Info().Str("order", result.OrderName).Int("lines", len(result.Lines))
			if result.Coverage != nil {
				event = event.Int("price_coverage_percent", result.Coverage.Percent)
			}
			if result.ArchiveKey != "" {
				event = event.Str("archive_key", result.ArchiveKey)
			}
			event.Msg("Landed costs calculated")

			return writeOutput(c, result.CSV)
		},
	}
}

// parseReceived reads productId_size=qty pairs. No pairs returns nil.
func parseReceived(pairs []string) (map[string]int, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]int, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid --received %q, expected productId_size=qty", pair)
		}
		qty, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || qty < 0 {
			return nil, fmt.Errorf("invalid quantity in --received %q", pair)
		}
		out[strings.TrimSpace(key)] = qty
	}
	return out, nil
}
