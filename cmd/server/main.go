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

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"library/internal/catalog"
	catalogmetrics "library/internal/catalog/metrics"
	catalogservice "library/internal/catalog/service"
	"library/internal/catalog/store/book"
	"library/internal/lending"
	lendingmetrics "library/internal/lending/metrics"
	lendingservice "library/internal/lending/service"
	"library/internal/lending/store/loan"
	"library/internal/lending/sweep"
	"library/internal/notify"
	"library/internal/platform/config"
	"library/internal/platform/httpserver"
	"library/internal/platform/logger"
	"library/internal/platform/metrics"
	pg "library/internal/platform/postgres"
	"library/internal/platform/redis"
	httptransport "library/internal/transport/http"
	id "library/pkg/domain"
	"library/pkg/platform/audit"
	"library/pkg/platform/audit/publisher"
	auditmemory "library/pkg/platform/audit/store/memory"
	auditpostgres "library/pkg/platform/audit/store/postgres"
	"library/pkg/platform/audit/worker"
	"library/pkg/platform/circuit"
	"library/pkg/platform/lock"
)

const shutdownTimeout = 10 * time.Second

// main wires the stores, services and background jobs, then serves HTTP
// until SIGINT or SIGTERM. Business logic lives in the internal packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("library stopped", "error", err)
		os.Exit(1)
	}
	log.Info("library stopped")
}

type stores struct {
	books  book.Store
	loans  loan.Store
	audit  audit.Store
	checks map[string]httptransport.HealthCheck
	close  func()
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	g, gctx := errgroup.WithContext(ctx)

	auditQueue := make(chan audit.Event, 256)
	auditPublisher := publisher.NewPublisher(st.audit, publisher.WithQueue(auditQueue), publisher.WithLogger(log))
	auditWorker := worker.NewWorker(st.audit, auditQueue, log)
	g.Go(func() error { return ignoreCanceled(auditWorker.Run(gctx)) })

	locks := lock.NewKeyed[id.BookID]()
	lendingMetrics := lendingmetrics.New()

	catalogSvc, err := catalog.NewService(st.books, st.loans,
		catalogservice.WithLogger(log),
		catalogservice.WithMetrics(catalogmetrics.New()),
		catalogservice.WithAuditPublisher(auditPublisher),
		catalogservice.WithBookLocks(locks),
		catalogservice.WithStoreTimeout(cfg.StoreTimeout),
	)
	if err != nil {
		return fmt.Errorf("catalog service: %w", err)
	}
	lendingSvc, err := lending.NewService(st.loans,
		lendingservice.WithLogger(log),
		lendingservice.WithMetrics(lendingMetrics),
		lendingservice.WithAuditPublisher(auditPublisher),
		lendingservice.WithBookLocks(locks),
		lendingservice.WithOverdueAfterDays(cfg.Lending.OverdueAfterDays),
		lendingservice.WithStoreTimeout(cfg.StoreTimeout),
	)
	if err != nil {
		return fmt.Errorf("lending service: %w", err)
	}

	if cfg.Sweep.Enabled {
		transport, closeTransport, err := newTransport(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer closeTransport()

		breaker := circuit.New("notify."+transport.Name(),
			circuit.WithFailureThreshold(cfg.Sweep.FailureThreshold),
			circuit.WithCooldown(cfg.Sweep.Cooldown),
		)
		notifier, err := notify.New(transport,
			notify.WithLogger(log),
			notify.WithMetrics(notify.NewMetrics()),
			notify.WithBreaker(breaker),
		)
		if err != nil {
			return fmt.Errorf("notifier: %w", err)
		}
		overdueSweep, err := sweep.New(lendingSvc, notifier,
			sweep.WithLogger(log),
			sweep.WithMetrics(lendingMetrics),
			sweep.WithAuditPublisher(auditPublisher),
			sweep.WithMessage(cfg.Sweep.Message),
			sweep.WithInterval(cfg.Sweep.Interval),
		)
		if err != nil {
			return fmt.Errorf("overdue sweep: %w", err)
		}
		g.Go(func() error { return ignoreCanceled(overdueSweep.Run(gctx)) })
	}

	router := httptransport.NewRouter(httptransport.Config{
		Logger:   log,
		Metrics:  metrics.New(),
		Gatherer: prometheus.DefaultGatherer,
		Handlers: []httptransport.Registrar{
			catalog.NewHandler(catalogSvc, log),
			lending.NewHandler(lendingSvc, catalogSvc, log),
		},
		HealthChecks: st.checks,
	})
	srv := httpserver.New(cfg.Addr, router)

	g.Go(func() error {
		log.Info("starting library", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// openStores picks Postgres when DATABASE_URL is set and in-memory stores
// otherwise. Redis, when configured, fronts single-book lookups.
func openStores(ctx context.Context, cfg config.Server, log *slog.Logger) (*stores, error) {
	st := &stores{
		checks: map[string]httptransport.HealthCheck{},
		close:  func() {},
	}
	var closers []func()
	st.close = func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		st.books = book.NewInMemory()
		st.loans = loan.NewInMemory()
		st.audit = auditmemory.NewInMemoryStore()
	} else {
		db, err := pg.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		closers = append(closers, func() { _ = db.Close() })
		if err := pg.Migrate(ctx, db); err != nil {
			st.close()
			return nil, err
		}
		st.books = book.NewPostgres(db)
		st.loans = loan.NewPostgres(db)
		st.audit = auditpostgres.New(db)
		st.checks["postgres"] = pingDB(db)
	}

	rc, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		st.close()
		return nil, err
	}
	if rc != nil {
		closers = append(closers, func() { _ = rc.Close() })
		st.books = book.NewCached(st.books, rc.Client,
			book.WithCacheTTL(cfg.Redis.BookCacheTTL),
			book.WithCacheLogger(log),
		)
		st.checks["redis"] = rc.Health
		log.Info("book cache enabled", "ttl", cfg.Redis.BookCacheTTL)
	}
	return st, nil
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func pingDB(db *sqlx.DB) httptransport.HealthCheck {
	return func(ctx context.Context) error {
		return db.PingContext(ctx)
	}
}

// newTransport prefers Kafka, then SMTP, and falls back to logging notices.
func newTransport(ctx context.Context, cfg config.Server, log *slog.Logger) (notify.Transport, func(), error) {
	switch {
	case len(cfg.Kafka.Brokers) > 0:
		client, err := notify.NewKafkaClient(cfg.Kafka.Brokers, cfg.Kafka.NotifyTopic)
		if err != nil {
			return nil, nil, err
		}
		if err := notify.EnsureTopic(ctx, client, cfg.Kafka.NotifyTopic, 1); err != nil {
			client.Close()
			return nil, nil, err
		}
		log.Info("overdue notices go to kafka", "topic", cfg.Kafka.NotifyTopic)
		return notify.NewKafkaTransport(client, cfg.Kafka.NotifyTopic), client.Close, nil
	case cfg.SMTP.Addr != "":
		log.Info("overdue notices go to smtp", "addr", cfg.SMTP.Addr)
		return notify.NewSMTPTransport(cfg.SMTP.Addr, cfg.SMTP.From, cfg.SMTP.Username, cfg.SMTP.Password), func() {}, nil
	default:
		log.Warn("no notification transport configured, overdue notices are only logged")
		return notify.NewLogTransport(log), func() {}, nil
	}
}
