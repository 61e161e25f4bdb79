// Package worker contains the background pipeline that delivers a purchase:
// it writes the premium deep dive, renders the PDF, records delivery and
// sends the e-mail. It is decoupled from the HTTP layer: the api package
// holds a worker.Enqueuer interface and calls Enqueue, never importing the
// concrete Runner or Job types.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nyashahama/realyou-backend/internal/db"
	"github.com/nyashahama/realyou-backend/internal/metrics"
)

// ─── ENQUEUER INTERFACE ───────────────────────────────────────────────────────

// Enqueuer is the narrow interface the api package uses to hand off work after
// a payment is confirmed. Keeping it here (not in api/) means api/ does not
// need to import the concrete Runner.
//
// In tests, any struct with an Enqueue method satisfies the interface.
type Enqueuer interface {
	Enqueue(ctx context.Context, purchaseID uuid.UUID) error
}

// ErrQueueFull is returned by Enqueue when the channel buffer is exhausted.
// The purchase stays in paid status and the poller picks it up.
var ErrQueueFull = errors.New("worker: queue is full, purchase will be picked up by poller")

// Runnable is a single delivery. *Job is the production implementation.
type Runnable interface {
	Run(ctx context.Context, purchaseID uuid.UUID) error
}

// ─── RUNNER ───────────────────────────────────────────────────────────────────

// RunnerConfig holds tuning parameters for the Runner. Zero fields take the
// values from DefaultRunnerConfig.
type RunnerConfig struct {
	// Workers is the number of concurrent job goroutines. Default: 3.
	Workers int

	// PollInterval is how often the fallback poller checks
	// ListPendingPurchases for purchases the channel missed (e.g. after a
	// restart). Default: 30s.
	PollInterval time.Duration

	// JobTimeout is the per-attempt deadline. Set this longer than the
	// narrator's p99 latency. Default: 2 minutes.
	JobTimeout time.Duration

	// MaxRetries is the number of attempts before the purchase is marked
	// failed. Default: 3.
	MaxRetries int

	// BaseBackoff is doubled after each failed attempt. Default: 1s, giving
	// 2s, 4s, 8s …
	BaseBackoff time.Duration
}

// DefaultRunnerConfig returns safe production defaults.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		Workers:      3,
		PollInterval: 30 * time.Second,
		JobTimeout:   2 * time.Minute,
		MaxRetries:   3,
		BaseBackoff:  time.Second,
	}
}

// Runner manages a pool of worker goroutines. It accepts purchase ids via an
// in-process channel (fast path, used by the webhook) and also polls the
// database for paid purchases that were never delivered (recovery path).
// A purchase is only ever run by one goroutine at a time.
type Runner struct {
	job     Runnable
	store   Store
	q       db.Querier
	cfg     RunnerConfig
	metrics *metrics.Metrics
	logger  *slog.Logger

	queue chan uuid.UUID
	wg    sync.WaitGroup

	mu       sync.Mutex
	inflight map[uuid.UUID]struct{}
}

// NewRunner constructs a Runner. Call Start() to begin processing.
func NewRunner(
	job Runnable,
	st Store,
	q db.Querier,
	cfg RunnerConfig,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Runner {
	def := DefaultRunnerConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = def.JobTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = def.BaseBackoff
	}

	return &Runner{
		job:     job,
		store:   st,
		q:       q,
		cfg:     cfg,
		metrics: m,
		logger:  logger,
		// Buffer = Workers*2 so Enqueue never blocks under normal load.
		queue:    make(chan uuid.UUID, cfg.Workers*2),
		inflight: make(map[uuid.UUID]struct{}),
	}
}

// claim marks id as queued or running. It returns false when it already is.
func (r *Runner) claim(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.inflight[id]; ok {
		return false
	}
	r.inflight[id] = struct{}{}
	return true
}

func (r *Runner) release(id uuid.UUID) {
	r.mu.Lock()
	delete(r.inflight, id)
	r.mu.Unlock()
}

// offer pushes id without blocking.
func (r *Runner) offer(id uuid.UUID) error {
	if !r.claim(id) {
		return nil
	}
	select {
	case r.queue <- id:
		return nil
	default:
		r.release(id)
		return ErrQueueFull
	}
}

// Enqueue pushes a purchaseID onto the in-process channel. It satisfies the
// Enqueuer interface. Enqueueing a purchase that is already queued or running
// is a no-op. If the channel is full it returns ErrQueueFull rather than
// blocking the HTTP response.
func (r *Runner) Enqueue(_ context.Context, purchaseID uuid.UUID) error {
	if err := r.offer(purchaseID); err != nil {
		return err
	}
	r.logger.Info("worker: enqueued purchase", "purchase_id", purchaseID)
	return nil
}

// Start launches the worker pool and the fallback poller. It blocks until ctx
// is cancelled and every goroutine has returned.
func (r *Runner) Start(ctx context.Context) {
	r.logger.Info("worker: starting", "workers", r.cfg.Workers, "poll_interval", r.cfg.PollInterval)

	for i := range r.cfg.Workers {
		r.wg.Add(1)
		go r.work(ctx, i)
	}

	r.wg.Add(1)
	go r.poll(ctx)

	r.wg.Wait()
	r.logger.Info("worker: stopped")
}

// work is the inner loop for each worker goroutine.
func (r *Runner) work(ctx context.Context, id int) {
	defer r.wg.Done()
	log := r.logger.With("worker_id", id)
	log.Debug("worker: goroutine started")

	for {
		select {
		case <-ctx.Done():
			log.Debug("worker: goroutine stopping")
			return
		case purchaseID := <-r.queue:
			r.runWithRetry(ctx, purchaseID, log)
			r.release(purchaseID)
		}
	}
}

// poll queries the database on PollInterval for paid purchases that were not
// delivered via the channel.
func (r *Runner) poll(ctx context.Context) {
	defer r.wg.Done()
	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	// Run once immediately on startup to pick up anything from before restart.
	r.pollOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.pollOnce(ctx)
		}
	}
}

func (r *Runner) pollOnce(ctx context.Context) {
	purchases, err := r.q.ListPendingPurchases(ctx, int32(cap(r.queue)))
	if err != nil {
		if ctx.Err() == nil {
			r.logger.Error("worker: poll failed", "error", err)
		}
		return
	}
	for _, p := range purchases {
		if err := r.offer(p.ID); err != nil {
			// Queue full: the rest will be picked up next cycle.
			return
		}
	}
}

// runWithRetry executes the job up to MaxRetries times. After exhausting
// retries it calls MarkDeliveryFailed so the purchase is not picked up again.
func (r *Runner) runWithRetry(ctx context.Context, purchaseID uuid.UUID, log *slog.Logger) {
	var lastErr error

	for attempt := 1; attempt <= r.cfg.MaxRetries; attempt++ {
		jobCtx, cancel := context.WithTimeout(ctx, r.cfg.JobTimeout)
		lastErr = r.job.Run(jobCtx, purchaseID)
		cancel()

		if lastErr == nil {
			r.metrics.ObserveDelivery(metrics.DeliveryDelivered)
			log.Info("worker: job completed", "purchase_id", purchaseID, "attempt", attempt)
			return
		}
		if ctx.Err() != nil {
			// Shutting down: leave the purchase paid for the next process.
			return
		}

		log.Warn("worker: job attempt failed",
			"purchase_id", purchaseID,
			"attempt", attempt,
			"max", r.cfg.MaxRetries,
			"error", lastErr,
		)

		if attempt < r.cfg.MaxRetries {
			r.metrics.ObserveDelivery(metrics.DeliveryRetried)
			backoff := r.cfg.BaseBackoff << attempt
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
		}
	}

	// All retries exhausted: mark the purchase permanently failed.
	r.metrics.ObserveDelivery(metrics.DeliveryFailed)
	log.Error("worker: job permanently failed", "purchase_id", purchaseID, "error", lastErr)
	failCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if _, err := r.store.MarkDeliveryFailed(failCtx, purchaseID, lastErr.Error()); err != nil {
		log.Error("worker: failed to mark purchase as failed", "purchase_id", purchaseID, "error", err)
	}
}
