package checkout

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/qatarjobs-payments/internal/domain/payment"
)

// StatusQuerier answers a single status poll.
type StatusQuerier interface {
	PaymentStatus(ctx context.Context, reference string) (payment.CanonicalStatus, error)
}

// Update is one status observed by a PollTask. TimedOut marks the forced downgrade at the deadline.
type Update struct {
	Status   payment.CanonicalStatus
	TimedOut bool
}

// StatusPoller polls the status endpoint on a fixed interval for at most maxDuration.
type StatusPoller struct {
	api         StatusQuerier
	interval    time.Duration
	maxDuration time.Duration
	logger      *slog.Logger
}

func NewStatusPoller(logger *slog.Logger, api StatusQuerier, interval, maxDuration time.Duration) *StatusPoller {
	return &StatusPoller{
		api:         api,
		interval:    interval,
		maxDuration: maxDuration,
		logger:      logger,
	}
}

// PollTask is a running poll loop. Updates is closed when the loop ends.
type PollTask struct {
	reference string
	updates   chan Update
	done      chan struct{}
	cancel    context.CancelFunc

	mu   sync.Mutex
	last payment.CanonicalStatus
}

// Start polls reference until a terminal status, the deadline, or Cancel.
// The task starts from PENDING; reaching the deadline while still PENDING yields FAILED.
func (p *StatusPoller) Start(ctx context.Context, reference string) *PollTask {
	ctx, cancel := context.WithCancel(ctx)
	t := &PollTask{
		reference: reference,
		updates:   make(chan Update, 1),
		done:      make(chan struct{}),
		cancel:    cancel,
		last:      payment.CanonicalPending,
	}
	go p.run(ctx, t)
	return t
}

func (p *StatusPoller) run(ctx context.Context, t *PollTask) {
	defer close(t.done)
	defer close(t.updates)
	defer t.cancel()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	deadline := time.NewTimer(p.maxDuration)
	defer deadline.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Debug("Status polling cancelled", "reference", t.reference)
			return
		case <-deadline.C:
			if t.Last() == payment.CanonicalPending {
				p.logger.Info("Status polling timed out while pending", "reference", t.reference, "after", p.maxDuration.String())
				t.emit(ctx, Update{Status: payment.CanonicalFailed, TimedOut: true})
			}
			return
		case <-ticker.C:
			status, err := p.api.PaymentStatus(ctx, t.reference)
			if err != nil {
				p.logger.Debug("Ignoring failed status poll", "reference", t.reference, "error", err)
				continue
			}
			t.emit(ctx, Update{Status: status})
			if status.IsTerminal() {
				return
			}
		}
	}
}

func (t *PollTask) emit(ctx context.Context, u Update) {
	t.mu.Lock()
	t.last = u.Status
	t.mu.Unlock()

	select {
	case t.updates <- u:
	case <-ctx.Done():
	}
}

// Updates yields every status the task observes.
func (t *PollTask) Updates() <-chan Update {
	return t.updates
}

// Done is closed once the loop has stopped.
func (t *PollTask) Done() <-chan struct{} {
	return t.done
}

// Cancel stops polling without changing the last status.
func (t *PollTask) Cancel() {
	t.cancel()
}

// Last is the most recent status, PENDING before the first answer.
func (t *PollTask) Last() payment.CanonicalStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}
