package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/gogotex/todo-service/internal/config"
	"github.com/gogotex/todo-service/internal/database"
	"github.com/gogotex/todo-service/internal/repository"
	"github.com/gogotex/todo-service/internal/seed"
	"github.com/gogotex/todo-service/internal/todo"
	"github.com/gogotex/todo-service/pkg/logger"
)

func main() {
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	file := flag.String("file", cfg.SeedFile, "seed file (YAML or JSON)")
	workers := flag.Int("workers", 4, "concurrent inserts")
	flag.Parse()
	if *file == "" {
		logger.Fatalf("no seed file: pass -file or set SEED_FILE")
	}
	if cfg.MongoDB.URI == "" {
		logger.Fatalf("MONGODB_URI is required for seeding")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	items, err := seed.Load(*file)
	if err != nil {
		logger.Fatalf("%v", err)
	}

	client, err := database.ConnectMongoWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, cfg.MongoDB.ConnectAttempts)
	if err != nil {
		logger.Fatalf("could not connect to MongoDB: %v", err)
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	store := repository.NewMongoStore(client.Database(cfg.MongoDB.Database).Collection(cfg.MongoDB.Collection))
	if err := store.EnsureIndexes(ctx, todo.Schema); err != nil {
		logger.Warnf("failed to create indexes: %v", err)
	}

	res, err := seed.Run(ctx, todo.NewRepository(store), items, *workers)
	if err != nil {
		logger.Errorf("seeding failed after %d records: %v", len(res.Created), err)
		os.Exit(1)
	}
	for _, t := range res.Created {
		logger.Infof("created %s %q", t.ID.Hex(), t.Name)
	}
}
