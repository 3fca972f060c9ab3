package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/storefront/internal/cache"
	"github.com/Skotchmaster/storefront/internal/config"
	"github.com/Skotchmaster/storefront/internal/es"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/httpserver"
	authmw "github.com/Skotchmaster/storefront/internal/middleware/auth"
	"github.com/Skotchmaster/storefront/internal/middleware/ratelimit"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/mykafka"
	"github.com/Skotchmaster/storefront/internal/queue"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/service/auth"
	"github.com/Skotchmaster/storefront/internal/service/cart"
	"github.com/Skotchmaster/storefront/internal/service/catalog"
	"github.com/Skotchmaster/storefront/internal/service/order"
	"github.com/Skotchmaster/storefront/internal/service/search"
	"github.com/Skotchmaster/storefront/pkg/db"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

func main() {
	cfg := config.Load()
	cfg.MustValidate()

	log := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(log)

	ctx := context.Background()

	gdb, err := db.Open(ctx, cfg.DB)
	if err != nil {
		log.Error("db_open_failed", "error", err)
		os.Exit(1)
	}
	if err := db.Migrate(gdb, models.All()...); err != nil {
		log.Error("db_migrate_failed", "error", err)
		os.Exit(1)
	}
	store := repo.New(gdb)

	// Optional backends: each one missing or unreachable only disables its feature.
	var publisher events.Publisher = events.Nop{}
	var producer *mykafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer, err = mykafka.NewProducer(cfg.KafkaBrokers, events.Topics())
		if err != nil {
			log.Warn("kafka_disabled", "error", err)
		} else {
			tctx, cancel := context.WithTimeout(ctx, 10*time.Second)
			if err := producer.EnsureTopics(tctx); err != nil {
				log.Warn("kafka_topics_not_created", "error", err)
			}
			cancel()
			publisher = producer
		}
	}

	var notifier order.Notifier
	var rabbit *queue.Publisher
	if cfg.RabbitURL != "" {
		rabbit, err = queue.NewPublisher(cfg.RabbitURL, cfg.OrderQueue)
		if err != nil {
			log.Warn("rabbitmq_disabled", "error", err)
		} else {
			notifier = rabbit
		}
	}

	var productCache catalog.Cache
	var limiterStore redis.Scripter
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb, err = cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Warn("redis_disabled", "error", err)
		} else {
			productCache = cache.NewProductCache(rdb, cfg.ProductTTL)
			limiterStore = rdb
		}
	}

	var indexer catalog.Indexer
	var searchSvc *search.SearchService
	if cfg.ESURL != "" {
		client, err := es.NewClient(ctx, cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		if err != nil {
			log.Warn("elasticsearch_disabled", "error", err)
		} else {
			idx := &es.ProductIndex{Client: client, Name: cfg.ESIndex}
			if err := idx.Ensure(ctx); err != nil {
				log.Warn("elasticsearch_index_not_created", "index", cfg.ESIndex, "error", err)
			}
			indexer = idx
			searchSvc = &search.SearchService{ES: client, Index: cfg.ESIndex}
		}
	}

	authSvc := &auth.AuthService{Repo: store, Cfg: cfg.Auth, Events: publisher}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = httpserver.ErrorHandler()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(httpserver.Common(log)...)

	httpserver.Register(e, &httpserver.Deps{
		DB:       store,
		Users:    &httpserver.UsersHTTP{Svc: authSvc},
		Products: &httpserver.ProductsHTTP{Svc: &catalog.CatalogService{Repo: store, Cache: productCache, Index: indexer, Events: publisher}},
		Search:   &httpserver.SearchHTTP{Svc: searchSvc},
		Cart:     &httpserver.CartHTTP{Svc: &cart.CartService{Repo: store, Cfg: cfg.Cart, Events: publisher}},
		Orders:   &httpserver.OrdersHTTP{Svc: &order.OrderService{Repo: store, Events: publisher, Notifier: notifier}},

		RequireAuth:  authmw.New(authSvc, cfg.ServiceName).RequireAuth,
		LoginLimiter: ratelimit.TokenBucket(cfg.RateLimit, limiterStore),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Info("http_server_started", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http_server_error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server_shutdown_error", "error", err)
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Warn("kafka_close_error", "error", err)
		}
	}
	if rabbit != nil {
		if err := rabbit.Close(); err != nil {
			log.Warn("rabbitmq_close_error", "error", err)
		}
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			log.Warn("redis_close_error", "error", err)
		}
	}
	if err := db.Close(gdb); err != nil {
		log.Warn("db_close_error", "error", err)
	}
	log.Info("shutdown_complete")
}
