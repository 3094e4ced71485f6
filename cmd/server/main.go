package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/twmb/franz-go/pkg/kgo"

	"sdi-resolver/internal/ledger"
	"sdi-resolver/internal/platform/config"
	"sdi-resolver/internal/platform/httpserver"
	"sdi-resolver/internal/platform/kafka"
	"sdi-resolver/internal/platform/logger"
	platformmetrics "sdi-resolver/internal/platform/metrics"
	"sdi-resolver/internal/platform/postgres"
	platformredis "sdi-resolver/internal/platform/redis"
	"sdi-resolver/internal/resolver"
	"sdi-resolver/internal/resolver/handler"
	resolvermetrics "sdi-resolver/internal/resolver/metrics"
	"sdi-resolver/internal/resolver/store"
	"sdi-resolver/pkg/platform/audit"
	"sdi-resolver/pkg/platform/middleware/metadata"
	"sdi-resolver/pkg/platform/middleware/requestid"
	"sdi-resolver/pkg/platform/middleware/requesttime"
)

const (
	auditBreakerThreshold = 5
	auditBreakerCooldown  = 30 * time.Second
	shutdownTimeout       = 10 * time.Second
)

// main wires the ledger registry, the resolution cache and the audit stream
// behind the HTTP router. Resolution logic lives in internal/resolver.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err := run(cfg, log); err != nil {
		log.Error("resolver stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bootCtx, cancel := context.WithTimeout(ctx, cfg.Ledger.BootstrapTimeout)
	chains, err := ledger.Bootstrap(bootCtx, cfg.Ledger.Providers, ledger.DialEthereum, cfg.Ledger.CallTimeout, log)
	cancel()
	if err != nil {
		return fmt.Errorf("bootstrap ledgers: %w", err)
	}
	defer chains.Close()
	log.Info("ledgers ready", "chain_ids", chains.ActiveChainIDs())

	cache, closeCache, err := openCache(ctx, cfg.Cache, log)
	if err != nil {
		return err
	}
	defer closeCache()

	publisher, closeAudit, err := openAudit(ctx, cfg.Kafka, log)
	if err != nil {
		return err
	}
	defer closeAudit()

	m := resolvermetrics.New()
	svc := resolver.New(chains, cache,
		resolver.WithLogger(log),
		resolver.WithMetrics(m),
		resolver.WithDiagnostics(resolver.NewDiagnostics(m)),
		resolver.WithAuditPublisher(publisher),
		resolver.WithIPFSGateway(cfg.IPFSGateway),
		resolver.WithDefaultChain(cfg.Ledger.DefaultChainID),
		resolver.WithNetworkAliases(cfg.Ledger.NetworkAliases),
	)

	httpMetrics := platformmetrics.New()
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(httpMetrics.Middleware)
	handler.New(svc, log).Register(r)
	r.Handle("/metrics", platformmetrics.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := httpserver.New(cfg.Addr, r)
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting sdi-resolver", "addr", cfg.Addr, "cache", cfg.Cache.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	log.Info("server stopped")
	return nil
}

func openCache(ctx context.Context, cfg config.CacheConfig, log *slog.Logger) (store.Store, func(), error) {
	switch cfg.Backend {
	case config.CacheBackendPostgres:
		pool, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		s := store.NewPostgresStore(pool, cfg.TTL)
		if err := s.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("cache schema: %w", err)
		}
		return s, pool.Close, nil
	case config.CacheBackendRedis:
		client, err := platformredis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		if client == nil {
			return nil, nil, errors.New("CACHE_BACKEND=redis requires REDIS_URL")
		}
		return store.NewRedisStore(client.Client, cfg.TTL), func() {
			if err := client.Close(); err != nil {
				log.Warn("closing redis", "error", err)
			}
		}, nil
	default:
		return store.NewInMemoryStore(cfg.TTL), func() {}, nil
	}
}

func openAudit(ctx context.Context, cfg config.KafkaConfig, log *slog.Logger) (audit.Publisher, func(), error) {
	if len(cfg.Brokers) == 0 {
		log.Info("audit stream disabled")
		return audit.NopPublisher{}, func() {}, nil
	}
	producer, err := kafka.NewProducer(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := kafka.EnsureTopic(ctx, producer, cfg.AuditTopic, 1); err != nil {
		producer.Close()
		return nil, nil, err
	}
	pub := audit.NewKafkaPublisher(producer, cfg.AuditTopic, log,
		audit.WithBreaker(audit.NewCircuitBreaker(auditBreakerThreshold, auditBreakerCooldown)),
		audit.WithMetrics(audit.NewMetrics()),
	)
	return pub, flushAndClose(producer, log), nil
}

func flushAndClose(producer *kgo.Client, log *slog.Logger) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := producer.Flush(ctx); err != nil {
			log.Warn("flushing audit stream", "error", err)
		}
		producer.Close()
	}
}
