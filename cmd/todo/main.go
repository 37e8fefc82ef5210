package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gogotex/todo-service/internal/config"
	"github.com/gogotex/todo-service/internal/database"
	"github.com/gogotex/todo-service/internal/repository"
	"github.com/gogotex/todo-service/internal/server"
	"github.com/gogotex/todo-service/internal/todo"
	"github.com/gogotex/todo-service/internal/version"
	"github.com/gogotex/todo-service/pkg/logger"
	"github.com/gogotex/todo-service/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

func main() {
	// initialize logging (can be controlled with LOG_LEVEL env: debug|info|warn|error|fatal)
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Init(cfg.Log.Level)
	logger.InitPretty(cfg.Log.Pretty)
	defer logger.Sync()
	logger.Infof("%s %s starting: env=%s mongo=%v redis=%v", version.Name, version.Version,
		cfg.Server.Environment, cfg.MongoDB.URI != "", cfg.Redis.Host != "")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore := openStore(ctx, cfg)
	defer closeStore()

	var rdb *redis.Client
	if addr := cfg.Redis.Addr(); addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s): %v", addr, err)
		} else {
			logger.Infof("connected to Redis at %s", addr)
		}
		defer func() { _ = rdb.Close() }()
	}

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	router := server.NewRouter(server.Deps{
		Config: cfg,
		Todos:  todo.NewRepository(store),
		Redis:  rdb,
	})

	if err := server.New(cfg.Server, router).Run(ctx); err != nil {
		logger.Errorf("server stopped: %v", err)
		return
	}
	logger.Infof("server stopped")
}

// openStore connects to MongoDB when MONGODB_URI is set and falls back to
// the in-memory store otherwise.
func openStore(ctx context.Context, cfg *config.Config) (repository.Store, func()) {
	if cfg.MongoDB.URI == "" {
		logger.Warnf("MONGODB_URI not set; using in-memory store")
		return repository.NewMemoryStore(todo.Schema), func() {}
	}

	client, err := database.ConnectMongoWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, cfg.MongoDB.ConnectAttempts)
	if err != nil {
		logger.Fatalf("could not connect to MongoDB: %v", err)
	}
	logger.Infof("connected to MongoDB database %q", cfg.MongoDB.Database)

	store := repository.NewMongoStore(client.Database(cfg.MongoDB.Database).Collection(cfg.MongoDB.Collection))
	idxCtx, cancel := context.WithTimeout(ctx, cfg.MongoDB.Timeout)
	defer cancel()
	if err := store.EnsureIndexes(idxCtx, todo.Schema); err != nil {
		logger.Warnf("failed to create indexes: %v", err)
	}
	return store, func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Warnf("mongo disconnect: %v", err)
		}
	}
}
