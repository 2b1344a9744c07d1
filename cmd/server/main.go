package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"notes-api/internal/config"
	"notes-api/internal/handler"
	"notes-api/internal/middleware"
	"notes-api/internal/repository"
	"notes-api/internal/service"
	"notes-api/internal/websocket"
	"notes-api/pkg/jwt"
	"notes-api/pkg/logger"

	_ "github.com/go-kivik/kivik/v4/couchdb"

	"github.com/go-kivik/kivik/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	logCloser, err := logger.Init(logger.Options{
		Level:  cfg.Logging.Level,
		Pretty: !cfg.Server.IsProduction(),
		File:   cfg.Logging.File,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	accessKeys, err := jwt.LoadKeyPair(cfg.JWT.AccessTokenPrivateKey, cfg.JWT.AccessTokenPublicKey)
	if err != nil {
		return fmt.Errorf("failed to load access token keys: %w", err)
	}
	refreshKeys, err := jwt.LoadKeyPair(cfg.JWT.RefreshTokenPrivateKey, cfg.JWT.RefreshTokenPublicKey)
	if err != nil {
		return fmt.Errorf("failed to load refresh token keys: %w", err)
	}

	client, err := kivik.New("couch", cfg.Database.URL())
	if err != nil {
		return fmt.Errorf("failed to connect to CouchDB: %w", err)
	}
	defer client.Close()

	if err := ensureDatabase(ctx, client, cfg.Database.Name); err != nil {
		return err
	}

	rdb, err := repository.NewRedisClient(ctx, cfg.Redis.URL)
	if err != nil {
		return err
	}
	defer rdb.Close()

	userRepo := repository.NewUserRepository(client, cfg.Database.Name)
	noteRepo := repository.NewNoteRepository(client, cfg.Database.Name)
	blacklist := repository.NewRedisTokenBlacklist(rdb)

	if err := userRepo.EnsureIndexes(ctx); err != nil {
		return err
	}
	if err := noteRepo.EnsureIndexes(ctx); err != nil {
		return err
	}

	wsManager := websocket.NewManager(websocket.Options{
		MaxConnPerUser: cfg.WebSocket.MaxConnPerUser,
		MaxMessageSize: cfg.WebSocket.MaxMessageSize,
		WriteWait:      cfg.WebSocket.WriteWait,
		PongWait:       cfg.WebSocket.PongWait,
		PingPeriod:     cfg.WebSocket.PingPeriod,
	})
	wsManager.SetMessageHandler(handler.NewWebSocketMessageHandler())
	go wsManager.Run(ctx)

	userService := service.NewUserService(userRepo)
	authService := service.NewAuthService(userService, blacklist, service.TokenConfig{
		AccessKeys:   accessKeys,
		RefreshKeys:  refreshKeys,
		AccessTTL:    cfg.JWT.AccessTokenTTL,
		RefreshTTL:   cfg.JWT.RefreshTokenTTL,
		CookieDomain: cfg.Cookies.Domain,
		CookiePath:   cfg.Cookies.Path,
		Production:   cfg.Server.IsProduction(),
	})
	noteService := service.NewNoteService(noteRepo, userService, wsManager)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	handlers := handler.Handlers{
		Auth:   handler.NewAuthHandler(authService),
		User:   handler.NewUserHandler(userService),
		Note:   handler.NewNoteHandler(noteService),
		Search: handler.NewSearchHandler(noteService),
		Home: handler.NewHomeHandler(map[string]handler.HealthChecker{
			"couchdb": handler.HealthCheckFunc(func(ctx context.Context) error {
				_, err := client.DBExists(ctx, cfg.Database.Name)
				return err
			}),
			"redis": handler.HealthCheckFunc(func(ctx context.Context) error {
				return rdb.Ping(ctx).Err()
			}),
		}),
		WebSocket: handler.NewWebSocketHandler(
			wsManager,
			authService,
			cfg.WebSocket.ReadBufferSize,
			cfg.WebSocket.WriteBufferSize,
			originChecker(cfg.CORS.AllowedOrigins),
		),
	}

	router := handler.NewRouter(handlers, handler.RouterOptions{
		APIPrefix:      cfg.Server.APIPrefix,
		Verifier:       authService,
		Metrics:        middleware.NewMetrics(registry),
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: cfg.CORS.AllowedMethods,
		AllowedHeaders: cfg.CORS.AllowedHeaders,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Log.Info().
			Str("addr", srv.Addr).
			Str("env", cfg.Server.Env).
			Str("couchdb", fmt.Sprintf("%s:%s", cfg.Database.Host, cfg.Database.Port)).
			Msg("starting notes api")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Log.Info().Msg("server stopped gracefully")
	return nil
}

func ensureDatabase(ctx context.Context, client *kivik.Client, name string) error {
	exists, err := client.DBExists(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to check database existence: %w", err)
	}

	if !exists {
		if err := client.CreateDB(ctx, name); err != nil {
			return fmt.Errorf("failed to create database: %w", err)
		}
		logger.Log.Info().Str("database", name).Msg("created database")
	}

	return nil
}

// originChecker applies the CORS origin list to websocket handshakes.
func originChecker(allowedOrigins string) func(r *http.Request) bool {
	origins := strings.Split(allowedOrigins, ",")
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range origins {
			o = strings.TrimSpace(o)
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}
