package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/supplyhub/cart-service/internal/cart"
	"github.com/supplyhub/cart-service/internal/catalog"
	"github.com/supplyhub/cart-service/internal/config"
	carthttp "github.com/supplyhub/cart-service/internal/http"
	"github.com/supplyhub/cart-service/internal/persist"
	"github.com/supplyhub/cart-service/internal/poller"
	"github.com/supplyhub/cart-service/internal/recon"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "cart").Logger()

	cfg, err := config.Load(".")
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	ctx := context.Background()

	var (
		store       persist.Store
		redisClient *redis.Client
		disconnect  func()
	)
	switch cfg.PersistBackend {
	case "mongo":
		db, errMongo := persist.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDBName)
		if errMongo != nil {
			logger.Fatal().Err(errMongo).Msg("failed to connect to MongoDB")
		}
		mongoStore := persist.NewMongoStore(db)
		if errIdx := mongoStore.CreateIndexes(ctx); errIdx != nil {
			logger.Fatal().Err(errIdx).Msg("failed to create indexes")
		}
		store = mongoStore
		disconnect = func() {
			if errDisc := db.Client().Disconnect(ctx); errDisc != nil {
				logger.Error().Err(errDisc).Msg("mongo disconnect failed")
			}
		}
		logger.Info().Str("uri", cfg.MongoURI).Msg("connected to MongoDB")
	default:
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		if errPing := redisClient.Ping(ctx).Err(); errPing != nil {
			logger.Fatal().Err(errPing).Msg("Redis connection failed")
		}
		store = persist.NewRedisStore(redisClient, cfg.SnapshotTTL)
		disconnect = func() {
			if errClose := redisClient.Close(); errClose != nil {
				logger.Error().Err(errClose).Msg("redis close failed")
			}
		}
		logger.Info().Str("addr", cfg.RedisAddr).Msg("connected to Redis")
	}

	catalogClient := catalog.NewClient(cfg.CatalogBaseURL, cfg.SiteID, cfg.BusinessType, cfg.CatalogTimeout)
	reconService := recon.NewService(catalogClient, logger)
	manager := cart.NewManager(store, reconService, logger)

	handler := carthttp.NewCartHandler(manager)
	router := carthttp.NewRouter(handler, logger, cfg.RequestTimeout)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	pollerCtx, cancelPoller := context.WithCancel(ctx)
	var catalogPoller *poller.Poller
	if cfg.KafkaEnabled {
		catalogPoller = poller.NewPoller(manager, logger, cfg.KafkaTopic, cfg.KafkaGroupID, cfg.Brokers()...)
		go catalogPoller.Run(pollerCtx)
		logger.Info().Str("topic", cfg.KafkaTopic).Msg("catalog update poller started")
	}

	go func() {
		logger.Info().Str("port", cfg.HTTPPort).Msg("cart service listening")
		if errServe := srv.ListenAndServe(); errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			logger.Fatal().Err(errServe).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down cart service...")
	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer cancel()

	if errShutdown := srv.Shutdown(shutdownCtx); errShutdown != nil {
		logger.Error().Err(errShutdown).Msg("server forced to shutdown")
	}
	cancelPoller()
	if catalogPoller != nil {
		catalogPoller.Close()
	}
	disconnect()
	logger.Info().Msg("cart service stopped")
}
