package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // postgres driver
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/soheilhy/cmux"
	"golang.org/x/sync/errgroup"

	"github.com/nyashahama/realyou-backend/internal/api"
	"github.com/nyashahama/realyou-backend/internal/config"
	"github.com/nyashahama/realyou-backend/internal/content"
	"github.com/nyashahama/realyou-backend/internal/db"
	"github.com/nyashahama/realyou-backend/internal/email"
	"github.com/nyashahama/realyou-backend/internal/metrics"
	"github.com/nyashahama/realyou-backend/internal/narrative"
	"github.com/nyashahama/realyou-backend/internal/rpc"
	"github.com/nyashahama/realyou-backend/internal/store"
	stripeinternal "github.com/nyashahama/realyou-backend/internal/stripe"
	"github.com/nyashahama/realyou-backend/internal/telemetry"
	"github.com/nyashahama/realyou-backend/internal/tier"
	"github.com/nyashahama/realyou-backend/internal/worker"
)

const serviceName = "realyou-api"

func main() {
	// ── Logger ────────────────────────────────────────────────────────────────
	// JSON in production, pretty text in development.
	var logger *slog.Logger
	if os.Getenv("ENV") == "production" {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	// ── Config ────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger.Info("config loaded", "env", cfg.Server.Env, "port", cfg.Server.Port)

	// Root context cancelled by OS signal. Every component below respects it.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Tracing ───────────────────────────────────────────────────────────────
	shutdownTracing, err := telemetry.Setup(ctx, serviceName, cfg.Telemetry.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("telemetry: shutdown", "error", err)
		}
	}()

	// ── Content ───────────────────────────────────────────────────────────────
	bundle, err := content.Load()
	if err != nil {
		return fmt.Errorf("content: %w", err)
	}
	if dups := bundle.Duplicates(); len(dups) > 0 {
		logger.Warn("content: duplicate question ids, later entries win", "ids", dups)
	}
	engine := bundle.Engine()

	// ── Database ──────────────────────────────────────────────────────────────
	pool, queries, err := openDB(ctx, cfg.Database.URL, cfg.Database.AutoMigrate)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer pool.Close()
	defer queries.Close()
	logger.Info("database connected", "auto_migrate", cfg.Database.AutoMigrate)

	// ── Store (atomic multi-step writes) ──────────────────────────────────────
	st := store.New(pool, queries)

	// ── Metrics ───────────────────────────────────────────────────────────────
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New("realyou", reg)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// ── Stripe ────────────────────────────────────────────────────────────────
	stripeClient := stripeinternal.NewClient(cfg.Stripe.SecretKey)

	// ── Narrative ─────────────────────────────────────────────────────────────
	// Anthropic first, then DeepSeek, then the built-in template. Providers
	// without a key are left out of the chain.
	var providers []narrative.Narrator
	if cfg.Anthropic.APIKey != "" {
		providers = append(providers, narrative.NewAnthropicClient(cfg.Anthropic.APIKey, cfg.Anthropic.Model))
	}
	if cfg.DeepSeek.APIKey != "" {
		providers = append(providers, narrative.NewDeepSeekClient(cfg.DeepSeek.APIKey, cfg.DeepSeek.Model))
	}
	narrator := narrative.Chain(logger, providers...)
	logger.Info("narrative: providers configured", "count", len(providers))

	// ── Email (Resend) ────────────────────────────────────────────────────────
	var mailer email.Sender
	if cfg.Email.ResendAPIKey != "" {
		mailer = email.NewResendClient(
			cfg.Email.ResendAPIKey,
			cfg.Email.FromAddr,
			cfg.Email.FromName,
			cfg.Server.BaseURL,
		)
	} else {
		logger.Warn("email: RESEND_API_KEY not set, emails are logged only")
		mailer = email.NewLogSender(logger)
	}

	// ── Worker ────────────────────────────────────────────────────────────────
	job := worker.NewJob(queries, st, engine, narrator, mailer, logger)
	runner := worker.NewRunner(job, st, queries, worker.RunnerConfig{
		Workers:      cfg.Worker.Count,
		PollInterval: cfg.Worker.PollInterval,
		JobTimeout:   cfg.Worker.JobTimeout,
		MaxRetries:   cfg.Worker.MaxRetries,
	}, m, logger)

	// ── HTTP server ───────────────────────────────────────────────────────────
	handler, err := api.NewServer(api.Deps{
		Querier:  queries,
		Store:    st,
		Stripe:   stripeClient,
		Worker:   runner, // *Runner satisfies worker.Enqueuer
		Mailer:   mailer,
		Content:  bundle,
		Metrics:  m,
		Gatherer: reg,
		Logger:   logger,
	}, api.Config{
		BaseURL:             cfg.Server.BaseURL,
		FrontendURL:         cfg.Server.FrontendURL,
		StripeWebhookSecret: cfg.Stripe.WebhookSecret,
		StripePrices: map[tier.Tier]string{
			tier.Standard: cfg.Stripe.PriceStandard,
			tier.Premium:  cfg.Stripe.PricePremium,
		},
		AdminNotificationEmail: cfg.Email.AdminNotification,
		CORSOrigins:            cfg.Server.CORSOrigins,
		PDFCacheSize:           cfg.Server.PDFCacheSize,
		Env:                    cfg.Server.Env,
	})
	if err != nil {
		return fmt.Errorf("api: %w", err)
	}

	srv := &http.Server{
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // PDF rendering on a cache miss can be slow
		IdleTimeout:  120 * time.Second,
	}

	// ── gRPC server ───────────────────────────────────────────────────────────
	grpcSrv := rpc.NewServer(engine, logger)

	// ── Listener ──────────────────────────────────────────────────────────────
	// One port for both protocols. gRPC is matched on its content type; every
	// other connection is HTTP/1.1.
	lis, err := net.Listen("tcp", ":"+cfg.Server.Port)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	mux := cmux.New(lis)
	grpcL := mux.MatchWithWriters(cmux.HTTP2MatchHeaderFieldSendSettings("content-type", "application/grpc"))
	httpL := mux.Match(cmux.Any())

	g, gctx := errgroup.WithContext(ctx)

	// Worker pool and poller. Start blocks until gctx is done.
	g.Go(func() error {
		runner.Start(gctx)
		return nil
	})

	g.Go(func() error {
		if err := grpcSrv.Serve(grpcL); err != nil && gctx.Err() == nil {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := srv.Serve(httpL); err != nil && !errors.Is(err, http.ErrServerClosed) && gctx.Err() == nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("server listening", "addr", lis.Addr().String())
		if err := mux.Serve(); err != nil && gctx.Err() == nil {
			return fmt.Errorf("listener: %w", err)
		}
		return nil
	})

	// Block until either a signal arrives or a server dies unexpectedly, then
	// drain in-flight requests.
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()

		var errs []error
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
		grpcSrv.Stop()
		_ = lis.Close()
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}

// openDB opens the connection pool, applies the schema when asked, and
// prepares all statements. Using db.Prepare (rather than db.New) means every
// query is validated against the database schema at startup, so the server
// refuses to start if the schema is out of sync.
func openDB(ctx context.Context, dsn string, migrate bool) (*sql.DB, *db.Queries, error) {
	pool, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open: %w", err)
	}

	// Tune the connection pool.
	pool.SetMaxOpenConns(25)
	pool.SetMaxIdleConns(10)
	pool.SetConnMaxLifetime(5 * time.Minute)
	pool.SetConnMaxIdleTime(2 * time.Minute)

	// Verify the connection is reachable before proceeding.
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := pool.PingContext(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}

	if migrate {
		if err := db.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
	}

	queries, err := db.Prepare(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("prepare statements: %w", err)
	}

	return pool, queries, nil
}
