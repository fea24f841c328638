package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront/api/routes"
	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/internal/checkout"
	"github.com/angelmondragon/storefront/internal/cron"
	"github.com/angelmondragon/storefront/internal/offline"
	"github.com/angelmondragon/storefront/internal/payment"
	"github.com/angelmondragon/storefront/internal/payment/sandbox"
	"github.com/angelmondragon/storefront/internal/persistence"
	"github.com/angelmondragon/storefront/internal/receipts"
	"github.com/angelmondragon/storefront/internal/storefront"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/db"
	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/angelmondragon/storefront/pkg/migrate"
	"github.com/angelmondragon/storefront/pkg/redis"
	"github.com/angelmondragon/storefront/pkg/square"
)

const cronLockName = "cron"

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
		Static:      map[string]any{"env": cfg.App.Env},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithField(ctx, "provider", cfg.Payment.ProviderName())

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	storefrontMetrics := metrics.NewStorefrontMetrics(reg)

	defaults, err := catalog.DefaultShipping(cfg.Shipping)
	if err != nil {
		logg.Error(ctx, "invalid shipping defaults", err)
		os.Exit(1)
	}
	httpClient := &http.Client{Timeout: cfg.Catalog.LoadTimeout}
	cat, err := catalog.NewLoader(cfg.Catalog, defaults, httpClient, logg).Load(ctx)
	if err != nil {
		logg.Error(ctx, "failed to load catalog", err)
		os.Exit(1)
	}

	var (
		redisClient *redis.Client
		backend     persistence.Backend
		memory      *persistence.MemoryBackend
	)
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		backend = persistence.NewRedisBackend(redisClient, cfg.Redis.StateTTL)
	} else {
		logg.Warn(ctx, "redis not configured, keeping session state in memory")
		memory = persistence.NewMemoryBackend()
		backend = memory
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()
	if err := migrate.MaybeRun(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run migrations", err)
		os.Exit(1)
	}
	journal := receipts.NewJournal(dbClient, receipts.NewRepository(dbClient.DB()))

	currency, err := enums.ParseCurrency(cfg.Payment.Currency)
	if err != nil {
		logg.Error(ctx, "invalid payment currency", err)
		os.Exit(1)
	}

	sessions, err := storefront.NewRegistry(storefront.Deps{
		Catalog:  cat,
		Backend:  backend,
		Loader:   providerLoader(cfg, logg),
		Receipts: journal,
		Metrics:  storefrontMetrics,
		Logger:   logg,
		Checkout: checkout.Options{ClearOnComplete: cfg.Checkout.ClearOnComplete},
		Order: payment.OrderOptions{
			Currency:           currency,
			CountryCode:        cfg.Payment.CountryCode,
			BrandName:          cfg.App.BrandName,
			Locale:             cfg.Payment.Locale,
			ShippingPreference: cfg.Payment.ShippingPreference,
			Description:        cfg.Payment.Description,
		},
		PaymentTimeout: cfg.Payment.Timeout,
	})
	if err != nil {
		logg.Error(ctx, "failed to create session registry", err)
		os.Exit(1)
	}

	scheduler, err := newScheduler(cfg, logg, reg, sessions, journal, memory, redisClient)
	if err != nil {
		logg.Error(ctx, "failed to create cron service", err)
		os.Exit(1)
	}

	deps := routes.Dependencies{
		Sessions: sessions,
		Catalog:  cat,
		Receipts: journal,
		Offline:  offline.NewPolicy(cfg.Offline, cfg.Catalog.PublicPath),
		Redis:    redisClient,
		DB:       dbClient,
		Gatherer: reg,
	}

	server := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           routes.NewRouter(cfg, logg, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		logg.Info(logg.WithField(ctx, "addr", server.Addr), "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	if scheduler != nil {
		go func() {
			if err := scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- err
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		logg.Error(ctx, "api stopped unexpectedly", runErr)
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownWait)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		runErr = multierr.Append(runErr, err)
	}
	if runErr != nil {
		logg.Error(ctx, "api shutdown with errors", runErr)
		os.Exit(1)
	}
	logg.Info(ctx, "api shut down gracefully")
}

// providerLoader resolves the configured payment provider. Square is built on first use so
// a missing credential surfaces as a provider-unavailable notice instead of a boot failure.
func providerLoader(cfg *config.Config, logg *logger.Logger) payment.Loader {
	if cfg.Payment.ProviderName() == config.PaymentProviderSquare {
		return payment.Shared(func(ctx context.Context) (payment.Provider, error) {
			client, err := square.NewClient(ctx, cfg.Square, logg)
			if err != nil {
				return nil, err
			}
			return payment.NewSquareProvider(client), nil
		})
	}
	return payment.Static(sandbox.New())
}

func newScheduler(
	cfg *config.Config,
	logg *logger.Logger,
	reg prometheus.Registerer,
	sessions *storefront.Registry,
	journal *receipts.Journal,
	memory *persistence.MemoryBackend,
	redisClient *redis.Client,
) (*cron.Service, error) {
	if !cfg.Cron.Enabled {
		return nil, nil
	}

	evict, err := cron.NewSessionEvictionJob(cron.SessionEvictionJobParams{
		Logger:   logg,
		Sessions: sessions,
		IdleTTL:  cfg.Session.IdleEvict,
	})
	if err != nil {
		return nil, err
	}
	retention, err := cron.NewReceiptRetentionJob(cron.ReceiptRetentionJobParams{
		Logger:    logg,
		Journal:   journal,
		Retention: cfg.Cron.ReceiptRetention,
	})
	if err != nil {
		return nil, err
	}
	registry := cron.NewRegistry(evict)
	registry.RegisterEvery(retention, cfg.Cron.RetentionEvery)

	if memory != nil {
		sweep, err := cron.NewStateSweepJob(cron.StateSweepJobParams{
			Logger:  logg,
			Backend: memory,
			TTL:     cfg.Redis.StateTTL,
		})
		if err != nil {
			return nil, err
		}
		registry.Register(sweep)
	}

	var lock cron.Lock = cron.NewLocalLock()
	if redisClient != nil {
		redisLock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(cronLockName), cfg.Cron.LockTTL)
		if err != nil {
			return nil, err
		}
		lock = redisLock
	}

	return cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(reg),
		Interval: cfg.Cron.Interval,
	})
}
