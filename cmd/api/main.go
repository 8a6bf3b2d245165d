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

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	httpadp "makono-backend/internal/adapter/http"
	"makono-backend/internal/adapter/middleware"
	"makono-backend/internal/adapter/repository/kvstore"
	"makono-backend/internal/config"
	"makono-backend/internal/domain/kv"
	"makono-backend/internal/infrastructure/cache"
	"makono-backend/internal/infrastructure/db"
	"makono-backend/internal/infrastructure/metrics"
	"makono-backend/internal/infrastructure/objectstore"
	loanUC "makono-backend/internal/usecase/loan"
	notificationUC "makono-backend/internal/usecase/notification"
	"makono-backend/internal/usecase/sweep"
	"makono-backend/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// .env is optional; real env vars win
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}
	zl, err := logger.New(logger.Config{Level: cfg.LogLevel, Dev: cfg.LogDev})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if err := run(cfg, zl); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
}

type storeHandle struct {
	kv kv.Store
	// redis is nil unless the redis backend is selected; it also backs idempotency.
	redis *redis.Client
	close func() error
}

func openStore(ctx context.Context, cfg *config.Config) (*storeHandle, error) {
	switch cfg.StoreBackend {
	case config.BackendRedis:
		rdb, err := cache.OpenRedis(ctx, cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		return &storeHandle{kv: kvstore.NewRedisStore(rdb), redis: rdb, close: rdb.Close}, nil

	case config.BackendMySQL:
		gdb, err := db.OpenGorm(cfg.MySQLDSN())
		if err != nil {
			return nil, fmt.Errorf("open mysql: %w", err)
		}
		return gormHandle(ctx, gdb)

	case config.BackendSQLite:
		gdb, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return gormHandle(ctx, gdb)

	case config.BackendMemory:
		return &storeHandle{kv: kvstore.NewMemoryStore(), close: func() error { return nil }}, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}

func gormHandle(ctx context.Context, gdb *gorm.DB) (*storeHandle, error) {
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	store := kvstore.NewGormStore(gdb)
	if err := store.Migrate(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate kv table: %w", err)
	}
	return &storeHandle{kv: store, close: sqlDB.Close}, nil
}

func newSigner(cfg *config.Config) (httpadp.DocumentSigner, error) {
	if cfg.MinioEndpoint == "" {
		return nil, nil
	}
	return objectstore.NewMinioSigner(objectstore.MinioConfig{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		UseSSL:    cfg.MinioUseSSL,
		Region:    cfg.MinioRegion,
		Expiry:    cfg.PresignExpiry(),
	})
}

func run(cfg *config.Config, zl *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalog, err := cfg.LoanCatalog()
	if err != nil {
		return err
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.close(); err != nil {
			zl.Warn("close store", zap.Error(err))
		}
	}()
	zl.Info("store ready", zap.String("backend", cfg.StoreBackend), zap.String("namespace", cfg.KVNamespace))

	clock := clockwork.NewRealClock()
	m := metrics.New()

	notes := notificationUC.NewUsecase(store.kv, cfg.KVNamespace, clock, zl.Named("notifications"), m)
	if err := notes.Load(ctx); err != nil {
		return err
	}
	loans := loanUC.NewUsecase(loanUC.Deps{
		Store:     store.kv,
		Namespace: cfg.KVNamespace,
		Notifier:  notes,
		Clock:     clock,
		Logger:    zl.Named("loans"),
		Metrics:   m,
		Catalog:   catalog,
	})
	if err := loans.Load(ctx); err != nil {
		return err
	}

	sweepLog := zl.Named("sweep")
	runner := sweep.NewRunner(cfg.SweepInterval(), clock, zl,
		sweep.NewOverdueMonitor(loans, sweepLog, m),
		sweep.NewReminderScheduler(loans, sweepLog, m),
	)
	runner.Start(ctx)
	defer runner.Stop()

	signer, err := newSigner(cfg)
	if err != nil {
		return err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = httpadp.NewValidator()
	e.Use(echomw.Recover(), middleware.RequestID(), middleware.RequestLogger(zl.Named("http"), m))

	routes := httpadp.Routes{
		Health:        httpadp.NewHandler(clock),
		Loans:         httpadp.NewLoanHandler(loans, signer),
		Admin:         httpadp.NewAdminHandler(loans),
		Notifications: httpadp.NewNotificationHandler(notes),
		Metrics:       m,
	}
	if store.redis != nil {
		routes.Idempotency = middleware.Idempotency(middleware.IdempotencyConfig{
			Redis:     store.redis,
			TTL:       cfg.IdempotencyTTL(),
			Namespace: cfg.KVNamespace,
			Logger:    zl.Named("idempotency"),
		})
	} else {
		zl.Info("idempotency disabled: needs the redis backend")
	}
	httpadp.Register(e, routes)

	addr := ":" + cfg.AppPort
	errCh := make(chan error, 1)
	go func() {
		zl.Info("listening", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zl.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
