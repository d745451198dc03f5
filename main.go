// Package main provides the entry point of the order notification relay
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amirphl/order-relay/app/handlers"
	"github.com/amirphl/order-relay/app/middleware"
	"github.com/amirphl/order-relay/app/router"
	"github.com/amirphl/order-relay/app/services"
	businessflow "github.com/amirphl/order-relay/business_flow"
	"github.com/amirphl/order-relay/config"
	"github.com/amirphl/order-relay/repository"
	"github.com/amirphl/order-relay/utils"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Application represents the main application structure
type Application struct {
	router    router.Router
	config    *config.ProductionConfig
	db        *gorm.DB
	cache     *redis.Client
	stopFuncs []func()
}

func main() {
	issueToken := flag.String("issue-admin-token", "", "print an admin API token for the given subject and exit")
	flag.Parse()

	cfg, err := config.LoadProductionConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logCloser := initializeLogger(cfg.Logging)
	defer logCloser.Close()

	if *issueToken != "" {
		if err := printAdminToken(os.Stdout, cfg.JWT, *issueToken); err != nil {
			slog.Error("Failed to issue admin token", slog.Any("err", err))
			os.Exit(1)
		}
		return
	}

	slog.Info("Starting order relay",
		slog.String("version", cfg.Deployment.Version),
		slog.String("environment", cfg.Deployment.Environment),
		slog.String("commit", cfg.Deployment.CommitHash),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := initializeApplication(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize application", slog.Any("err", err))
		os.Exit(1)
	}

	app.router.SetupRoutes()

	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := app.router.Start(address); err != nil {
			slog.Error("Server stopped unexpectedly", slog.Any("err", err))
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down gracefully")
	app.shutdown()
	slog.Info("Server stopped")
}

func (a *Application) shutdown() {
	for _, fn := range a.stopFuncs {
		fn()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
	defer cancel()
	if err := a.router.GetApp().ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("Error during shutdown", slog.Any("err", err))
	}

	if a.cache != nil {
		_ = a.cache.Close()
	}
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func initializeLogger(cfg config.LoggingConfig) io.Closer {
	logger, writer, closer := utils.NewLogger(utils.LoggerOptions{
		Level:      cfg.Level,
		Format:     cfg.Format,
		Output:     cfg.Output,
		FilePath:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
		AddSource:  cfg.EnableCaller,
	})
	utils.InstallLogger(logger, writer)
	return closer
}

// initializeDatabase opens the configured driver with connection pooling
func initializeDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		dsn := cfg.DSN
		if dsn == "" {
			dsn = fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
				cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)
		}
		dialector = postgres.Open(dsn)
	}

	slowThreshold := time.Duration(0)
	if cfg.SlowQueryLog {
		slowThreshold = cfg.SlowQueryTime
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger: gormlogger.New(log.Default(), gormlogger.Config{
			SlowThreshold:             slowThreshold,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if cfg.Driver == "sqlite" {
		// single writer
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if cfg.AutoMigrate {
		if err := repository.AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("failed to migrate schema: %w", err)
		}
	}

	slog.Info("Database connection established",
		slog.String("driver", cfg.Driver),
		slog.Int("max_open_conns", cfg.MaxOpenConns),
		slog.Bool("auto_migrate", cfg.AutoMigrate),
	)
	return db, nil
}

// initializeCache connects to redis when in-flight order claims are enabled
func initializeCache(cfg config.CacheConfig) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opt.DB = cfg.RedisDB

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	slog.Info("Redis connection established", slog.Int("db", cfg.RedisDB))
	return rc, nil
}

// startCacheHealthMonitor pings redis periodically; the returned function stops it
func startCacheHealthMonitor(parent context.Context, client *redis.Client, interval time.Duration) func() {
	monitorCtx, cancel := context.WithCancel(parent)
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-ticker.C:
				ctx, c := context.WithTimeout(monitorCtx, 3*time.Second)
				if err := client.Ping(ctx).Err(); err != nil {
					slog.Warn("Redis healthcheck failed, order claims degrade to history checks", slog.Any("err", err))
				}
				c()
			}
		}
	}()
	return cancel
}

func initializeTokenService(cfg config.JWTConfig) (services.TokenService, error) {
	if cfg.SecretKey == "" {
		return nil, nil
	}
	return services.NewTokenService(cfg.AccessTokenTTL, cfg.Issuer, cfg.Audience, cfg.SecretKey)
}

func printAdminToken(w io.Writer, cfg config.JWTConfig, subject string) error {
	tokenService, err := initializeTokenService(cfg)
	if err != nil {
		return err
	}
	if tokenService == nil {
		return fmt.Errorf("ADMIN_JWT_SECRET is not set")
	}
	token, err := tokenService.GenerateAdminToken(subject)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, token)
	return err
}

// initializeApplication wires stores, services, flows and handlers
func initializeApplication(ctx context.Context, cfg *config.ProductionConfig) (*Application, error) {
	db, err := initializeDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	rc, err := initializeCache(cfg.Cache)
	if err != nil {
		return nil, err
	}

	app := &Application{config: cfg, db: db, cache: rc}

	tenantRepo := repository.NewTenantConfigRepository(db)
	recordRepo := repository.NewNotificationRecordRepository(db)

	messaging, err := services.NewMessagingService(&cfg.Messaging)
	if err != nil {
		return nil, err
	}

	cipher := services.NewCredentialCipher(cfg.Security.CredentialsKey)
	if !cipher.Enabled() {
		slog.Warn("CREDENTIALS_KEY is not set, tenant tokens are stored as given")
	}

	claimer := businessflow.NewNoopOrderClaimer()
	if rc != nil {
		claimer = businessflow.NewRedisOrderClaimer(rc, cfg.Cache)
		app.stopFuncs = append(app.stopFuncs, startCacheHealthMonitor(ctx, rc, 30*time.Second))
	}

	tokenService, err := initializeTokenService(cfg.JWT)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}
	if tokenService == nil {
		slog.Warn("ADMIN_JWT_SECRET is not set, administration endpoints are unauthenticated")
	}
	if cfg.Security.WebhookSecret == "" {
		slog.Warn("SHOPIFY_WEBHOOK_SECRET is not set, webhook signatures are not verified")
	}

	orderFlow := businessflow.NewOrderNotificationFlow(tenantRepo, recordRepo, messaging, cipher, claimer, cfg.Messaging.DefaultCountryPrefix)
	tenantFlow := businessflow.NewTenantConfigFlow(tenantRepo, cipher)
	historyFlow := businessflow.NewMessageHistoryFlow(tenantRepo, recordRepo)

	if cfg.Seed.TenantsFile != "" {
		applied, err := tenantFlow.SeedFromFile(ctx, cfg.Seed.TenantsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to seed tenants: %w", err)
		}
		slog.Info("Tenant seed applied", slog.String("file", cfg.Seed.TenantsFile), slog.Int("tenants", applied))
	}

	healthChecks := map[string]func() error{
		"database": func() error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return sqlDB.PingContext(pingCtx)
		},
	}
	if rc != nil {
		healthChecks["redis"] = func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return rc.Ping(pingCtx).Err()
		}
	}

	app.router = router.NewFiberRouter(cfg, router.Handlers{
		Webhook:        handlers.NewWebhookHandler(orderFlow),
		TenantConfig:   handlers.NewTenantConfigHandler(tenantFlow),
		MessageHistory: handlers.NewMessageHistoryHandler(historyFlow),
	}, middleware.NewAuthMiddleware(tokenService), healthChecks)

	slog.Info("Application initialized",
		slog.String("messaging_provider", messaging.Provider()),
		slog.Bool("order_claims", rc != nil),
		slog.Bool("credentials_sealed", cipher.Enabled()),
	)
	return app, nil
}
