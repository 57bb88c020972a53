package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"storebidgo/internal/config"
	"storebidgo/internal/database/db_client"
	"storebidgo/internal/http/http_server"
	"storebidgo/internal/redis/redis_client"
	"storebidgo/internal/services/auction"
	"storebidgo/internal/services/cart"
	"storebidgo/internal/services/catalog"
	"storebidgo/internal/services/content"
	"storebidgo/internal/services/coupon"
	"storebidgo/internal/services/order"
	"storebidgo/internal/sweeper"
	"storebidgo/internal/ws"
)

var (
	Log, _ = zap.NewDevelopment()
)

func main() {
	defer Log.Sync()
	zap.ReplaceGlobals(Log)

	// 1. Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		Log.Fatal("Failed to load configuration", zap.Error(err))
	}
	Log.Debug("Configuration loaded successfully", zap.Any("config", cfg))

	// 2. Context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGINT, syscall.SIGTERM,
	)
	defer stop()

	// 3. Redis
	redisClient, err := redis_client.NewRedisClient(cfg.RedisHost, int(cfg.RedisPort))
	if err != nil {
		Log.Fatal("Failed to create Redis client", zap.Error(err))
	}
	defer redisClient.Close()

	// 4. Postgres db client (runs embedded migrations)
	pgDb, err := db_client.Open(cfg.PostgresHost, cfg.PostgresPort,
		cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDb)
	if err != nil {
		Log.Fatal("pg-open", zap.Error(err))
	}
	defer pgDb.Close()

	// 5. Services
	auctionSvc := auction.NewAuctionService(pgDb, redisClient, cfg.DefaultBidIncrement)
	catalogSvc := catalog.NewCatalogService(pgDb)
	cartSvc := cart.NewCartService(redisClient, catalogSvc, cfg.CartTTL)
	couponSvc := coupon.NewCouponService(pgDb)
	orderSvc := order.NewOrderService(pgDb, cartSvc, couponSvc)
	contentSvc := content.NewContentService(pgDb)

	// 6. Background: optional clock-driven auction transitions
	if cfg.AuctionSweepEnabled {
		sweeper.Run(ctx, pgDb, auctionSvc, cfg.AuctionSweepInterval)
		Log.Info("auction sweeper enabled", zap.Duration("interval", cfg.AuctionSweepInterval))
	}

	// 7. WebSockets hub + Redis fan-out
	hub := ws.NewHub()
	wsSrv := ws.NewWsServer(hub, redisClient, auctionSvc)

	// 8. HTTP + WS server
	httpServer := http_server.NewHttpServer(ctx, cfg.HttpServerPort, wsSrv, http_server.Services{
		Auction: auctionSvc,
		Catalog: catalogSvc,
		Cart:    cartSvc,
		Coupon:  couponSvc,
		Order:   orderSvc,
		Content: contentSvc,
	})
	if err := httpServer.Start(); err != nil {
		Log.Fatal("Failed to start HTTP server", zap.Error(err))
	}
}
