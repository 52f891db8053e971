package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/secrets/internal/auth"
	"github.com/mrlokans/secrets/internal/config"
	"github.com/mrlokans/secrets/internal/database"
	"github.com/mrlokans/secrets/internal/database/flash"
	secretsrepo "github.com/mrlokans/secrets/internal/database/secrets"
	"github.com/mrlokans/secrets/internal/database/users"
	http_controllers "github.com/mrlokans/secrets/internal/http"
	"github.com/mrlokans/secrets/internal/oauth2"
	"github.com/mrlokans/secrets/internal/oauth2/providers"
	"github.com/mrlokans/secrets/internal/scheduler"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background work before refusing connections
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Secrets v%s", version)

	// Initialize database
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	userRepo := users.NewRepository(db.DB)
	flashRepo := flash.NewRepository(db.DB)
	secretRepo := secretsrepo.NewRepository(db.DB)

	hasher := auth.NewHasher(cfg.Auth.BcryptCost, cfg.Auth.HashWorkers)

	// Underlying SQL DB backs the session store
	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatalf("Failed to get SQL DB for sessions: %v", err)
	}

	sessionManager, err := auth.NewSessionManager(sqlDB, userRepo, cfg.Auth)
	if err != nil {
		log.Fatalf("Failed to initialize session manager: %v", err)
	}

	strategies := auth.NewRegistry()
	strategies.Register(auth.StrategyLocal, auth.NewLocalStrategy(userRepo, hasher))
	strategies.Register(auth.StrategyOAuth, auth.NewOAuthStrategy(userRepo))

	providerRegistry := oauth2.NewRegistry()
	providers.RegisterGoogle(providerRegistry, cfg.OAuth.GoogleClientID, cfg.OAuth.GoogleClientSecret, cfg.OAuth.RequestTimeout)
	if len(providerRegistry.List()) == 0 {
		log.Printf("WARNING: no OAuth providers configured. Set 'GOOGLE_CLIENT_ID' and 'GOOGLE_CLIENT_SECRET' to enable Google sign-in.")
	}

	authService := auth.NewService(strategies, sessionManager, userRepo, flashRepo, hasher)
	authController := auth.NewController(authService, providerRegistry, cfg.UI.TemplatesPath, cfg.Auth, cfg.OAuth)

	// Periodic cleanup of undelivered flash messages
	cleanup := scheduler.NewFlashCleanupScheduler(flashRepo, cfg.Cleanup)
	if err := cleanup.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start flash cleanup scheduler: %v", err)
	}

	if count, err := userRepo.Count(); err == nil && count == 0 {
		log.Printf("No users found. Visit /register to create the first account.")
	}

	routerCfg := http_controllers.RouterConfig{
		AuthController: authController,
		Secrets:        secretRepo,
		DB:             db,
		TemplatesPath:  cfg.UI.TemplatesPath,
		StaticPath:     cfg.UI.StaticPath,
		Version:        version,
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		cleanup.Stop()
	}

	Serve(router, cfg, onShutdown)
}
