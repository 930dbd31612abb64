// Package sweeper reconciles transactions the client stopped polling for.
// It asks the verification proxy through the same Reconcile path the status endpoint uses,
// so a FAILED answer is never written to the store.
package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/qatarjobs-payments/internal/config"
	"github.com/qatarjobs-payments/internal/domain/payment"
	"golang.org/x/time/rate"
)

// StaleLister finds pending transactions that nobody has looked at recently.
type StaleLister interface {
	ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]*payment.Transaction, error)
}

// Reconciler settles one stored transaction against the proxy.
type Reconciler interface {
	Reconcile(ctx context.Context, t *payment.Transaction) (payment.CanonicalStatus, error)
}

// Sweeper periodically reconciles stale pending transactions on a bounded worker pool.
type Sweeper struct {
	lister     StaleLister
	reconciler Reconciler
	pool       *ants.Pool
	limiter    *rate.Limiter
	logger     *slog.Logger
	interval   time.Duration
	staleAfter time.Duration
	batchSize  int
	now        func() time.Time
}

// Result summarises a single sweep.
type Result struct {
	Scanned   int
	Confirmed int
	Pending   int
	Failed    int
	Errors    int
}

func NewSweeper(
	cfg config.SweeperConfig,
	poolCfg config.WorkerPoolConfig,
	lister StaleLister,
	reconciler Reconciler,
	logger *slog.Logger,
) (*Sweeper, error) {
	pool, err := ants.NewPool(poolCfg.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to create sweeper pool: %w", err)
	}

	burst := int(cfg.RatePerSecond)
	if burst < 1 {
		burst = 1
	}

	return &Sweeper{
		lister:     lister,
		reconciler: reconciler,
		pool:       pool,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst),
		logger:     logger,
		interval:   cfg.Interval,
		staleAfter: cfg.StaleAfter,
		batchSize:  cfg.BatchSize,
		now:        time.Now,
	}, nil
}

// Start sweeps on every tick until ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	s.logger.Info("Starting stale transaction sweeper",
		"interval", s.interval.String(),
		"stale_after", s.staleAfter.String(),
		"batch_size", s.batchSize,
		"workers", s.pool.Cap(),
	)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Sweeper stopping due to context cancellation.")
			return
		case <-ticker.C:
			result, err := s.Sweep(ctx)
			if err != nil {
				s.logger.Error("Sweep failed", "error", err)
				continue
			}
			if result.Scanned > 0 {
				s.logger.Info("Sweep finished",
					"scanned", result.Scanned,
					"confirmed", result.Confirmed,
					"pending", result.Pending,
					"failed", result.Failed,
					"errors", result.Errors,
				)
			}
		}
	}
}

// Sweep reconciles one batch and waits for every submitted task.
func (s *Sweeper) Sweep(ctx context.Context) (Result, error) {
	var result Result

	stale, err := s.lister.ListStalePending(ctx, s.now().Add(-s.staleAfter), s.batchSize)
	if err != nil {
		return result, fmt.Errorf("failed to list stale transactions: %w", err)
	}
	result.Scanned = len(stale)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	tally := func(status payment.CanonicalStatus, err error) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case err != nil:
			result.Errors++
		case status == payment.CanonicalSuccess:
			result.Confirmed++
		case status == payment.CanonicalFailed:
			result.Failed++
		default:
			result.Pending++
		}
	}

	for _, t := range stale {
		if err := s.limiter.Wait(ctx); err != nil {
			wg.Wait()
			return result, err
		}

		txn := t
		wg.Add(1)
		err := s.pool.Submit(func() {
			defer wg.Done()
			status, err := s.reconciler.Reconcile(ctx, txn)
			if err != nil {
				s.logger.Warn("Failed to reconcile transaction", "transaction_request_id", txn.TransactionRequestID, "error", err)
			}
			tally(status, err)
		})
		if err != nil {
			wg.Done()
			s.logger.Error("Failed to submit transaction to worker pool", "transaction_request_id", txn.TransactionRequestID, "error", err)
			tally("", err)
		}
	}

	wg.Wait()
	return result, nil
}

// Shutdown releases the worker pool.
func (s *Sweeper) Shutdown() {
	s.logger.Info("Shutting down sweeper pool", "running_workers", s.pool.Running())
	s.pool.Release()
}
