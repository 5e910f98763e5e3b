package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cosmoconnect/storefront/internal/adapter/asset"
	"github.com/cosmoconnect/storefront/internal/adapter/handler"
	"github.com/cosmoconnect/storefront/internal/adapter/payment"
	"github.com/cosmoconnect/storefront/internal/adapter/storage"
	"github.com/cosmoconnect/storefront/internal/core/service"
	"github.com/cosmoconnect/storefront/internal/port"
	"github.com/cosmoconnect/storefront/pkg/config"
	"github.com/cosmoconnect/storefront/pkg/logger"
)

func main() {
	cfg := config.Load()
	log := logger.New(logger.Options{
		Service: "storefront",
		Env:     cfg.AppEnv,
		Level:   cfg.LogLevel,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Mongo
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Error("failed to connect mongo", "err", err)
		os.Exit(1)
	}
	pingCtx, pingCancel := context.WithTimeout(ctx, 10*time.Second)
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		pingCancel()
		log.Error("failed to ping mongo", "err", err)
		os.Exit(1)
	}
	pingCancel()
	db := mongoClient.Database(cfg.MongoDB)
	log.Info("connected to mongo", "db", cfg.MongoDB)

	// Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		PoolSize: cfg.RedisPool,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Error("failed to connect redis", "err", err)
		os.Exit(1)
	}
	log.Info("connected to redis", "addr", cfg.RedisAddr)

	// Adapters
	cache := storage.NewRedisAdapter(rdb)
	catalogRepo := storage.NewMongoCatalog(db)
	orderRepo := storage.NewMongoOrders(db)
	couponRepo := storage.NewMongoCoupons(db)

	gateway := payment.NewStripeClient(payment.StripeConfig{
		SecretKey:  cfg.StripeSecretKey,
		SuccessURL: cfg.StripeSuccessURL,
		CancelURL:  cfg.StripeCancelURL,
		Currency:   cfg.Currency,
		Timeout:    cfg.GatewayTimeout,
	})
	assets := asset.NewCloudinaryClient(asset.CloudinaryConfig{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
	})

	// Services
	catalogSvc := service.NewCatalogService(catalogRepo, cache, assets, log, cfg.FeaturedCacheTTL, cfg.CacheTimeout, cfg.QueueSize)
	pricingSvc := service.NewPricingService(catalogRepo, couponRepo, 10)
	checkoutSvc := service.NewCheckoutService(pricingSvc, orderRepo, cache, gateway, log, cfg.GatewayTimeout, cfg.IdempotencyTTL)

	// Asset-destroy worker pool
	var wg sync.WaitGroup
	for i := 0; i < cfg.WorkerPool; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			destroyWorker(id, catalogSvc.AssetDestroyQueue(), assets, log)
		}(i)
	}
	log.Info("started asset workers", "count", cfg.WorkerPool)

	// HTTP server
	httpHandler := handler.NewHTTPHandler(catalogSvc, pricingSvc, checkoutSvc, log)
	mux := http.NewServeMux()
	httpHandler.Register(mux)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: mux,
	}

	go func() {
		log.Info("HTTP server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Error("HTTP server error", "err", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	log.Info("HTTP server stopped")

	// Close destroy queue and wait for workers
	catalogSvc.Close()
	wg.Wait()
	log.Info("asset workers stopped")

	// Close connections
	rdb.Close()
	mongoClient.Disconnect(shutdownCtx)
	log.Info("connections closed")
}

// destroyWorker drains pending image releases. Failures are logged and
// dropped; the catalog record is already gone and a leaked asset is not
// worth failing anything over.
func destroyWorker(id int, queue <-chan string, assets port.AssetStore, log *slog.Logger) {
	for ref := range queue {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)

		if err := assets.Destroy(ctx, ref); err != nil {
			log.Warn("asset destroy failed", "worker", id, "asset", ref, "err", err)
		} else {
			log.Info("asset destroyed", "worker", id, "asset", ref)
		}

		cancel()
	}
}
