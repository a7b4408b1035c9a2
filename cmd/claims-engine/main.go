package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hmsultra/claimsengine/internal/adapters/cache"
	"github.com/hmsultra/claimsengine/internal/adapters/database"
	"github.com/hmsultra/claimsengine/internal/adapters/events"
	"github.com/hmsultra/claimsengine/internal/adapters/memory"
	"github.com/hmsultra/claimsengine/internal/application/services"
	"github.com/hmsultra/claimsengine/internal/domain/providers"
	"github.com/hmsultra/claimsengine/internal/domain/repositories"
	"github.com/hmsultra/claimsengine/internal/infrastructure/clients/postgres"
	"github.com/hmsultra/claimsengine/internal/infrastructure/clients/redis"
	"github.com/hmsultra/claimsengine/internal/infrastructure/observability"
	"github.com/hmsultra/claimsengine/pkg/config"
)

// storage groups the ports backed by the selected driver
type storage struct {
	tx       repositories.Transactor
	claims   repositories.ClaimRepository
	payments repositories.PaymentRepository
	sessions repositories.BillingSessionRepository
	ledger   repositories.BenefitLedgerRepository
	audit    providers.AuditLogger
	close    func() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		observability.InitLogger("claims-engine", "production")
		observability.GetLogger().Fatal().Err(err).Msg("failed to load configuration")
	}

	observability.InitLogger(cfg.Server.Name, cfg.Environment)
	logger := observability.GetLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			logger.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitClaimMetrics()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	store, err := openStorage(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("failed to open storage")
	}
	defer func() {
		if err := store.close(); err != nil {
			logger.Error().Err(err).Msg("error closing storage")
		}
	}()

	var notifier providers.Notifier
	ledger := store.ledger
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Warn().Err(err).Msg("Redis unavailable; running without ledger cache and event bus")
		} else {
			defer redisClient.Close()

			ledger = database.NewCachedBenefitLedgerAdapter(
				store.ledger,
				cache.NewRedisAdapter(redisClient, "claims:"),
				cfg.Cache.LedgerTTLSeconds,
				metrics,
			)

			bus := events.NewRedisEventBus(redisClient)
			defer bus.Close()
			notifier = bus
			logger.Info().Str("addr", cfg.Redis.RedisAddr()).Msg("ledger cache and event bus enabled")
		}
	}

	effects := services.NewSideEffectDispatcher(notifier, store.audit, cfg.Claims.SideEffectTimeout)
	sessions := services.NewBillingSessionService(store.tx, store.sessions, store.claims, effects, providers.SystemClock{}, metrics)
	lifecycle := services.NewClaimLifecycleService(services.ClaimLifecycleDeps{
		Tx:                 store.tx,
		Claims:             store.claims,
		Payments:           store.payments,
		Ledger:             ledger,
		Gate:               sessions,
		Rules:              services.NewRuleChain(services.DefaultClaimRules(ledger, store.claims, cfg.Claims.PriceVarianceThreshold)...),
		Calculator:         services.NewFinancialCalculator(ledger, store.claims),
		Effects:            effects,
		Clock:              providers.SystemClock{},
		Metrics:            metrics,
		DefaultBenefitCode: cfg.Claims.DefaultBenefitCode,
	})

	logger.Info().
		Str("storage", cfg.Storage.Driver).
		Str("price_variance_threshold", cfg.Claims.PriceVarianceThreshold.String()).
		Str("default_benefit_code", cfg.Claims.DefaultBenefitCode).
		Msg("claims engine ready")

	<-ctx.Done()
	logger.Info().Msg("shutting down claims engine")

	drained := make(chan struct{})
	go func() {
		lifecycle.WaitForSideEffects()
		close(drained)
	}()
	select {
	case <-drained:
	case <-time.After(cfg.Server.ShutdownTimeout):
		logger.Warn().Dur("timeout", cfg.Server.ShutdownTimeout).Msg("side effects still pending at shutdown")
	}
}

func openStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	logger := observability.LoggerFromContext(ctx)

	if cfg.Storage.Driver == config.StorageDriverMemory {
		store := memory.NewStore()
		logger.Warn().Msg("using in-memory storage; data is lost on exit")
		return &storage{
			tx:       store,
			claims:   store,
			payments: store.Payments(),
			sessions: store.Sessions(),
			ledger:   store,
			audit:    store,
			close:    func() error { return nil },
		}, nil
	}

	client, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	if cfg.Storage.AutoMigrate {
		version, err := postgres.Migrate(cfg.Database.MigrationURL(), cfg.Storage.MigrationsPath)
		if err != nil {
			client.Close()
			return nil, err
		}
		logger.Info().Uint("version", version).Msg("database schema up to date")
	}

	return &storage{
		tx:       database.NewTransactor(client),
		claims:   database.NewClaimAdapter(client),
		payments: database.NewPaymentAdapter(client),
		sessions: database.NewBillingSessionAdapter(client),
		ledger:   database.NewBenefitLedgerAdapter(client),
		audit:    database.NewAuditAdapter(client),
		close:    client.Close,
	}, nil
}
