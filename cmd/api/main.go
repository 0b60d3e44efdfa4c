package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/zing-commerce/cart-engine/internal/adapters/cache"
	adapterEvents "github.com/zing-commerce/cart-engine/internal/adapters/events"
	adapterHTTP "github.com/zing-commerce/cart-engine/internal/adapters/handler/http"
	"github.com/zing-commerce/cart-engine/internal/adapters/repository"
	"github.com/zing-commerce/cart-engine/internal/adapters/storage"
	"github.com/zing-commerce/cart-engine/internal/adapters/upstream"
	"github.com/zing-commerce/cart-engine/internal/config"
	"github.com/zing-commerce/cart-engine/internal/core/domain"
	coreEvents "github.com/zing-commerce/cart-engine/internal/core/events"
	"github.com/zing-commerce/cart-engine/internal/core/services"
)

func main() {
	startTime := time.Now()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Critical: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	upstreamClient := upstream.NewClient(cfg.UpstreamBaseURL, cfg.UpstreamTimeout)

	broadcaster := coreEvents.NewBroadcaster()
	defer broadcaster.Close()

	var publisher coreEvents.Publisher = broadcaster

	var guestStore domain.GuestCartStore
	rdb, err := cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		// Guest carts survive only in memory without Redis; fine for dev,
		// loud in the logs so it never ships that way silently.
		log.Printf("Warning: redis unavailable, guest carts are in-memory only: %v", err)
		rdb = nil
		guestStore = storage.NewInMemoryGuestCartStore()
	} else {
		defer rdb.Close()
		guestStore = storage.NewRedisGuestCartStore(rdb, cfg.GuestCartTTL)

		bridge := adapterEvents.NewRedisBridge(rdb, broadcaster, cfg.EventsChannel)
		bridge.Start(ctx)
		publisher = bridge
	}

	var db *sqlx.DB
	var reports domain.MergeReportRepository
	if cfg.DatabaseURL != "" {
		db, err = sqlx.Connect("pgx", cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Critical: Failed to connect to database: %v", err)
		}
		defer db.Close()

		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)

		reports = repository.NewPostgresMergeReportRepository(db)
		log.Println("Merge report persistence enabled.")
	} else {
		log.Println("DATABASE_URL not set, merge reports will not be persisted.")
	}

	tokenService := services.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, 24*time.Hour)
	cartService := services.NewCartService(guestStore, upstreamClient, upstreamClient, publisher)
	hydrationService := services.NewHydrationService(upstreamClient, cfg.AttributeCacheTTL)
	mergeService := services.NewMergeService(guestStore, upstreamClient, reports, publisher)

	router := adapterHTTP.NewRouter(adapterHTTP.RouterDependencies{
		CartHandler:    adapterHTTP.NewCartHandler(cartService, hydrationService, broadcaster),
		SessionHandler: adapterHTTP.NewSessionHandler(mergeService, reports),
		TokenService:   tokenService,
		DB:             db,
		Redis:          rdb,
		StartTime:      startTime,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Zing Cart Engine running on http://localhost:%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Critical server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Stop signal received. Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Forced shutdown error:", err)
	}

	log.Println("Server stopped gracefully.")
}
