// Command shelfstatsd serves the library lending analytics API over HTTP,
// backed by a PostgreSQL record store.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"

	"github.com/shelfstats/shelfstats-go/analytics/postgresengine"
	"github.com/shelfstats/shelfstats-go/bootstrap"
	"github.com/shelfstats/shelfstats-go/httpapi"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	ctx := context.Background()

	pool, err := bootstrap.NewPGXPool(ctx, bootstrap.PostgresDSN())
	if err != nil {
		logger.Error("opening connection pool failed", "error", err.Error())
		os.Exit(1)
	}
	defer pool.Close()

	if err = bootstrap.CreateSchema(ctx, pool); err != nil {
		logger.Error("creating schema failed", "error", err.Error())
		os.Exit(1)
	}

	if bootstrap.SeedFixtures() {
		if err = bootstrap.Seed(ctx, pool); err != nil {
			logger.Error("seeding fixtures failed", "error", err.Error())
			os.Exit(1)
		}
	}

	engine, err := postgresengine.NewEngineFromPGXPool(pool, postgresengine.WithLogger(logger))
	if err != nil {
		logger.Error("creating engine failed", "error", err.Error())
		os.Exit(1)
	}

	addr := bootstrap.HTTPAddr()
	handler := httpapi.New(engine, logger).Handler()

	logger.Info("listening", "addr", addr)
	if err = http.ListenAndServe(addr, handler); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err.Error())
		os.Exit(1)
	}
}
