package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"barkpark-backend/config"
	"barkpark-backend/internal/api"
	"barkpark-backend/internal/db"
	"barkpark-backend/internal/event"
	"barkpark-backend/internal/identity"
	"barkpark-backend/internal/ledger"
	"barkpark-backend/internal/mirror"
	"barkpark-backend/internal/notification"
	"barkpark-backend/internal/presence"
	"barkpark-backend/internal/recap"
	"barkpark-backend/internal/social"
	"barkpark-backend/internal/store"
	"barkpark-backend/internal/sweeper"
)

func main() {
	logger := log.New(os.Stdout, "barkpark-backend ", log.LstdFlags)

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	if cfg.Push.PublicKey == "" || cfg.Push.PrivateKey == "" {
		logger.Fatalf("VAPID keys must be configured. Please generate them and add them to your config file.")
	}
	if cfg.Auth.JWTSecret == "" {
		logger.Fatalf("auth.jwt_secret must be configured.")
	}

	webpushOptions := webpush.Options{
		VAPIDPublicKey:  cfg.Push.PublicKey,
		VAPIDPrivateKey: cfg.Push.PrivateKey,
		Subscriber:      cfg.Push.Subject,
		TTL:             cfg.Push.TTL,
	}

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)
	logger.Println("data store initialized")

	pool := notification.NewWorkerPool(cfg.WorkerPool.Size, appStore, &webpushOptions)
	pool.Start(ctx)

	// Wire the reactive core: presence mutations fan out to the visit
	// ledger reconciler, the social notifier, and the profile mirror.
	bus := event.NewBus(cfg.WorkerPool.Size)
	bus.Subscribe(ledger.NewReconciler(appStore))
	bus.Subscribe(social.NewNotifier(appStore, pool))
	bus.Subscribe(mirror.NewMirror(appStore))
	bus.Start(ctx)

	presenceSvc := presence.NewService(appStore, bus)
	identitySvc := identity.NewService(appStore, cfg.Auth.JWTSecret,
		time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute)

	sweepSvc := sweeper.NewService(&cfg.Sweeper, appStore, presenceSvc)
	go sweepSvc.Run(ctx)

	recapSvc := recap.NewService(&cfg.Recap, appStore, pool)
	go recapSvc.Run(ctx)

	handler := api.NewHandler(appStore, presenceSvc, identitySvc, bus, &webpushOptions)
	router := api.NewRouter(handler, identitySvc, &cfg.Server)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
