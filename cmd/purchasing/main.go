package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/andresuchdata/purchasing-admin/backend-go/internal/config"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/repository/postgres"
	"github.com/andresuchdata/purchasing-admin/backend-go/pkg/logger"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

type ctxKey struct{}

var dbKey ctxKey

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func initDB(c *cli.Context) error {
	db, err := sql.Open("pgx", c.String("db-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.PingContext(c.Context); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	c.Context = context.WithValue(c.Context, dbKey, postgres.Wrap(sqlx.NewDb(db, "pgx")))
	return nil
}

func closeDB(c *cli.Context) error {
	if db, ok := c.Context.Value(dbKey).(*postgres.DB); ok && db != nil {
		return db.Close()
	}
	return nil
}

func dbFrom(c *cli.Context) *postgres.DB {
	db, _ := c.Context.Value(dbKey).(*postgres.DB)
	return db
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		logger.Log.Debug().Err(err).Msg("no .env file loaded")
	}
	cfg := config.Load()

	app := &cli.App{
		Name:  "purchasing",
		Usage: "Reorder suggestions, purchase orders, price lists and landed costs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-mode",
				Usage:   "debug or release",
				Value:   "debug",
				EnvVars: []string{"SERVER_MODE"},
			},
		},
		Before: func(c *cli.Context) error {
			logger.Setup(c.String("log-mode"))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "Create or update the database schema",
				Flags:  []cli.Flag{newDBURLFlag()},
				Before: initDB,
				After:  closeDB,
				Action: func(c *cli.Context) error {
					if err := postgres.Migrate(c.Context, dbFrom(c)); err != nil {
						return err
					}
					logger.Log.Info().Msg("Schema is up to date")
					return nil
				},
			},
			suggestCommand(cfg),
			importOrdersCommand(),
			importPriceListCommand(cfg),
			receiveCommand(cfg),
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("purchasing failed")
	}
}
