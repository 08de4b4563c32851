package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "booksearch/docs"
	"booksearch/internal/catalog"
	"booksearch/internal/config"
	"booksearch/internal/events"
	"booksearch/internal/handlers"
	"booksearch/internal/logger"
	"booksearch/internal/middleware"
	"booksearch/internal/repository"
	"booksearch/internal/repository/db"
	"booksearch/internal/server"
	"booksearch/internal/service"

	"github.com/redis/go-redis/v9"
)

const shutdownTimeout = 10 * time.Second

// @title                       booksearch API
// @version                     1.0
// @description                 Book search with per-user saved books.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	// bootstrap logger until config is read
	log := logger.Get(logger.InfoLevel)

	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalw("error reading config", "err", err)
	}
	log = logger.New(cfg.Log.Level, cfg.Log.Encoding)
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repos, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatalw("failed to open store", "driver", cfg.Store.Driver, "err", err)
	}
	defer closeStore()

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = catalog.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		defer func() { _ = rdb.Close() }()
	}

	provider, err := newCatalog(cfg, rdb)
	if err != nil {
		log.Fatalw("failed to init catalog", "provider", cfg.Catalog.Provider, "err", err)
	}

	pub, closePub := newPublisher(cfg, log)
	defer closePub()

	services := service.NewService(service.Deps{
		Repos:     repos,
		Tokens:    service.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		Catalog:   provider,
		Publisher: pub,
		Log:       log,
	})

	opts := handlers.Options{
		BooksScope:            cfg.Books.Scope,
		ListUsersRequiresAuth: cfg.Users.ListRequiresAuth,
		CORSOrigins:           cfg.CORS.Origins,
		AuthPerMinute:         cfg.RateLimit.AuthPerMinute,
		FeedInterval:          cfg.WS.DefaultInterval,
	}
	if rdb != nil {
		opts.AuthLimiter = middleware.NewRedisCounter(rdb)
	}
	apiHandler := handlers.NewHandler(services, log, opts)

	srv := server.New(server.Options{
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	})
	runHTTPServer(srv, cfg.Port, apiHandler, log)
	log.Infow("server started", "port", cfg.Port, "store", cfg.Store.Driver, "catalog", cfg.Catalog.Provider, "books_scope", cfg.Books.Scope)

	waitForShutdown(cancel, srv, log)
}

// openStore builds the repositories for the configured driver. The returned
// func releases the underlying connections.
func openStore(ctx context.Context, cfg config.Config, log *logger.Logger) (*repository.Repository, func(), error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		pool, err := db.NewPool(ctx, cfg.Store.PostgresDSN, cfg.Store.PostgresMaxConn, cfg.Store.PostgresMinConn, cfg.Store.PostgresConnTTL)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewPostgresRepository(pool), pool.Close, nil
	case config.DriverMemory:
		log.Infow("using in-memory store; data is lost on exit")
		return repository.NewMemoryRepository(), func() {}, nil
	default:
		sqlDB, err := db.InitDB(cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewRepository(sqlDB), func() {
			if cerr := sqlDB.Close(); cerr != nil {
				log.Errorw("failed to close sqlite", "err", cerr)
			}
		}, nil
	}
}

// newCatalog selects the search backend and puts the Redis cache in front
// of it when Redis is configured.
func newCatalog(cfg config.Config, rdb *redis.Client) (catalog.Provider, error) {
	var provider catalog.Provider
	switch cfg.Catalog.Provider {
	case config.ProviderElasticsearch:
		es, err := catalog.NewESClient(cfg.Catalog.ESAddrs, cfg.Catalog.ESUser, cfg.Catalog.ESPassword)
		if err != nil {
			return nil, fmt.Errorf("elasticsearch client: %w", err)
		}
		provider = catalog.NewElastic(es, cfg.Catalog.ESIndex, cfg.Catalog.MaxResults, cfg.Catalog.Timeout)
	default:
		provider = catalog.NewGoogleBooks(cfg.Catalog.GoogleURL, cfg.Catalog.APIKey, cfg.Catalog.MaxResults, cfg.Catalog.Timeout)
	}
	if rdb != nil && cfg.Redis.CacheTTL > 0 {
		provider = catalog.NewCached(provider, catalog.NewRedisCache(rdb), cfg.Redis.CacheTTL)
	}
	return provider, nil
}

// newPublisher connects to RabbitMQ when configured. A failed connection
// degrades to the no-op publisher.
func newPublisher(cfg config.Config, log *logger.Logger) (events.Publisher, func()) {
	if cfg.AMQP.URL == "" {
		return events.Nop{}, func() {}
	}
	pub, err := events.NewRabbitPublisher(cfg.AMQP.URL, cfg.AMQP.Queue)
	if err != nil {
		log.Errorw("amqp unavailable; book events disabled", "err", err)
		return events.Nop{}, func() {}
	}
	return pub, pub.Close
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")
	cancel()

	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
