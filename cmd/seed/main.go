package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/Clark-Hu/video-game-reviews/internal/config"
	"github.com/Clark-Hu/video-game-reviews/internal/fixtures"
	"github.com/Clark-Hu/video-game-reviews/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	var (
		seed    = flag.Int64("seed", cfg.SeedRandom, "seed for generated review ratings")
		timeout = flag.Duration("timeout", time.Minute, "overall timeout for loading fixtures")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[video-games-seed] ", log.LstdFlags)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	st, err := store.New(ctx, cfg.DBURL, store.Options{
		MaxConns:               2,
		ConnTimeout:            time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
		StatementCacheCapacity: cfg.DBStatementCache,
		Logger:                 logger,
	})
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer st.Close()

	loader := fixtures.NewLoader(st, fixtures.Options{Seed: *seed, Logger: logger})
	if _, err := loader.Load(ctx); err != nil {
		log.Fatalf("load fixtures: %v", err)
	}
}
