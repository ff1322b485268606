package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"turfbuddy/backend/internal/auth"
	"turfbuddy/backend/internal/config"
	"turfbuddy/backend/internal/database"
	"turfbuddy/backend/internal/games"
	"turfbuddy/backend/internal/handler"
	"turfbuddy/backend/internal/hub"
	"turfbuddy/backend/internal/logging"
	"turfbuddy/backend/internal/scheduler"
	"turfbuddy/backend/internal/store"
	"turfbuddy/backend/internal/store/memstore"
	"turfbuddy/backend/internal/users"
	"turfbuddy/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// repository is what both store drivers provide.
type repository interface {
	games.Repository
	users.Repository
}

// @title           TurfBuddy API
// @version         1.0
// @description     API for hosting and joining pickup sports games.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.apiKey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(".")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var repo repository
	switch cfg.StoreDriver {
	case config.DriverMemory:
		logger.Warn("using in-memory store, data is lost on restart")
		repo = memstore.New()
	default:
		db, err := database.Connect(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := database.Close(db); err != nil {
				logger.Error("close database", zap.Error(err))
			}
		}()
		repo = store.NewGorm(db)
	}

	var revoked auth.Denylist = auth.NewMemoryDenylist()
	if cfg.RedisURL != "" {
		client, err := database.ConnectRedis(ctx, cfg.RedisURL, logger)
		if err != nil {
			return err
		}
		defer client.Close()
		revoked = auth.NewRedisDenylist(client)
	}

	tokens := jwt.NewManager(cfg.JWTSecret, cfg.JWTTTL)
	events := hub.NewHub(logger.Named("hub"))
	manager := games.NewManager(repo, games.WithNotifier(events), games.WithLogger(logger.Named("games")))
	userSvc := users.NewService(repo, users.WithLogger(logger.Named("users")))

	if cfg.PlayedSweepInterval > 0 {
		sched, err := scheduler.Start(cfg.PlayedSweepInterval, manager, logger.Named("scheduler"))
		if err != nil {
			return err
		}
		defer sched.Shutdown()
	}

	gin.SetMode(cfg.GinMode)
	router := handler.NewRouter(handler.RouterConfig{
		Games:          handler.NewGameHandler(manager, events),
		Users:          handler.NewUserHandler(userSvc, tokens, revoked, cfg.CookieSecure, logger.Named("users")),
		Auth:           auth.NewAuthenticator(tokens, revoked, repo),
		Logger:         logger.Named("http"),
		AllowedOrigins: cfg.Origins(),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server is running", zap.String("addr", srv.Addr),
			zap.String("swagger", "http://localhost:"+cfg.Port+"/swagger/index.html"))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
