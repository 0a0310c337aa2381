package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/meikuraledutech/flow"
	"github.com/meikuraledutech/flow/api"
	"github.com/meikuraledutech/flow/config"
	"github.com/meikuraledutech/flow/memory"
	"github.com/meikuraledutech/flow/postgres"
	"github.com/meikuraledutech/flow/simulate"
	"github.com/meikuraledutech/flow/sqlite"
)

func main() {
	path := flag.String("config", os.Getenv("CONFIG"), "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*path)
	if err != nil {
		log.Fatal(err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal("open store", zap.String("store", cfg.Store), zap.Error(err))
	}
	defer closeStore()

	if err := store.CreateSchema(ctx); err != nil {
		logger.Fatal("create schema", zap.Error(err))
	}

	seed := cfg.Simulation.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	board := simulate.NewBoard()
	sim := simulate.New(simulate.Config{
		Users:     simulate.NewRandomUsers(seed, nil),
		Publisher: board,
		Delays: simulate.Delays{
			Validation: cfg.Simulation.ValidationDelay,
			Branch:     cfg.Simulation.BranchDelay,
			Email:      cfg.Simulation.EmailDelay,
		},
		Logger: logger.Named("simulate"),
	})

	canvas := flow.NewCanvas(flow.Graph{}, logger.Named("canvas"))
	app := api.New(api.NewHandler(canvas, store, sim, board, logger.Named("api")))

	logger.Info("listening", zap.String("addr", cfg.Addr), zap.String("store", cfg.Store))
	if err := app.Listen(cfg.Addr); err != nil {
		logger.Fatal("listen", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = lvl
	return zc.Build()
}

// openStore connects the backend selected by cfg.Store.
func openStore(ctx context.Context, cfg *config.Config) (flow.Store, func(), error) {
	switch cfg.Store {
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return postgres.New(pool), pool.Close, nil
	case "sqlite":
		db, err := sql.Open("sqlite", "file:"+cfg.SQLitePath+"?_pragma=foreign_keys(1)")
		if err != nil {
			return nil, nil, err
		}
		return sqlite.New(db), func() { _ = db.Close() }, nil
	default:
		return memory.New(), func() {}, nil
	}
}
