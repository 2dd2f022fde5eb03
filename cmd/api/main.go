package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"krishi/internal/api"
	"krishi/internal/config"
	"krishi/internal/database"
	"krishi/internal/domain"
	"krishi/internal/events"
	"krishi/internal/logging"
	"krishi/internal/metrics"
	"krishi/internal/models"
	"krishi/internal/repository"
	"krishi/internal/service"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eventBus := events.NewEventBus()
	userService := service.NewUserService(db, &logger)
	bookingService := service.NewBookingService(db, userService, eventBus, &logger)
	sessionService := service.NewSessionService(initSessionStore(cfg, &logger))

	if err := seedAdmins(ctx, cfg, userService, &logger); err != nil {
		return err
	}

	if cfg.Backup.Enabled {
		backup := database.NewBackupService(cfg.Database.Path, cfg.Backup, &logger)
		go backup.Start(ctx)
	}

	startMetrics(ctx, cfg, &logger)

	httpServer := api.NewHTTPServer(cfg, userService, bookingService, sessionService, &logger)
	return serve(ctx, httpServer, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := logging.Component(baseLogger, "api-main")

	return cfg, logger, closer, nil
}

// initSessionStore picks the session backend: Redis with in-memory failover
// when Redis is configured, plain in-memory otherwise.
func initSessionStore(cfg *config.Config, logger *zerolog.Logger) domain.SessionRepository {
	ttl := time.Duration(cfg.Sessions.TTLSeconds) * time.Second
	memory := repository.NewMemorySessionRepository(ttl)

	if !cfg.Redis.Enabled {
		return memory
	}

	client := repository.NewRedisClient(cfg.Redis)
	if _, err := client.Ping(context.Background()).Result(); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, sessions stay in memory")
		return memory
	}
	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")

	primary := repository.NewRedisSessionRepository(client, ttl)
	return repository.NewFailoverSessionRepository(primary, memory, logger)
}

// seedAdmins creates the admin accounts listed in the seed file. Accounts
// that already exist are left untouched.
func seedAdmins(ctx context.Context, cfg *config.Config, users domain.UserService, logger *zerolog.Logger) error {
	if cfg.Seed.Path == "" {
		return nil
	}

	data, err := os.ReadFile(cfg.Seed.Path)
	if err != nil {
		logger.Error().Err(err).Str("seed_path", cfg.Seed.Path).Msg("read seed file")
		return err
	}

	var seed struct {
		Admins []struct {
			Username string `yaml:"username"`
			Password string `yaml:"password"`
			Name     string `yaml:"name"`
			Contact  string `yaml:"contact"`
		} `yaml:"admins"`
	}
	if err := yaml.Unmarshal(data, &seed); err != nil {
		logger.Error().Err(err).Str("seed_path", cfg.Seed.Path).Msg("parse seed file")
		return err
	}

	for _, admin := range seed.Admins {
		_, err := users.GetUserByUsername(ctx, admin.Username)
		if err == nil {
			continue
		}
		if !errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("seed admin %q: %w", admin.Username, err)
		}

		user := &models.User{
			Username: admin.Username,
			Role:     models.RoleAdmin,
			Name:     admin.Name,
			Contact:  admin.Contact,
		}
		if err := users.Register(ctx, user, admin.Password); err != nil {
			return fmt.Errorf("seed admin %q: %w", admin.Username, err)
		}
		logger.Info().Str("username", admin.Username).Msg("admin account seeded")
	}
	return nil
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func serve(ctx context.Context, httpServer *api.HTTPServer, logger *zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http server shutdown")
	}

	logger.Info().Msg("server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
