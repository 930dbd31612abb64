package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/qatarjobs-payments/internal/config"
	"github.com/qatarjobs-payments/internal/domain/audit"
	"github.com/qatarjobs-payments/internal/domain/outbox"
	"github.com/qatarjobs-payments/internal/domain/payment"
	"github.com/qatarjobs-payments/internal/domain/shared"
	"github.com/qatarjobs-payments/internal/platform/metrics"
)

const MsgReferenceRequired = "Payment reference is required"

// StatusServiceImpl implements the StatusService interface
type StatusServiceImpl struct {
	proxyCfg config.ProxyConfig
	repo     payment.Repository // nil when the store is not configured
	proxy    VerificationProxy
	recorder audit.Recorder
	logger   *slog.Logger
}

// NewStatusService creates a new status service
func NewStatusService(
	logger *slog.Logger,
	proxyCfg config.ProxyConfig,
	repo payment.Repository,
	proxy VerificationProxy,
	recorder audit.Recorder,
) StatusService {
	if recorder == nil {
		recorder = audit.NopRecorder{}
	}
	return &StatusServiceImpl{
		proxyCfg: proxyCfg,
		repo:     repo,
		proxy:    proxy,
		recorder: recorder,
		logger:   logger,
	}
}

func (s *StatusServiceImpl) Resolve(ctx context.Context, reference string) (*payment.StatusView, error) {
	if missing := s.missingConfig(); len(missing) > 0 {
		s.logger.Error("Payment status is not configured", "missing", missing)
		return nil, shared.ErrConfiguration{Component: "payment-status", Missing: missing}
	}

	if strings.TrimSpace(reference) == "" {
		return nil, shared.ErrValidation{Field: "reference", Message: MsgReferenceRequired}
	}

	txn, err := s.repo.FindByReference(ctx, reference)
	if err != nil {
		var notFound payment.ErrTransactionNotFound
		if !errors.As(err, &notFound) {
			s.logger.Error("Failed to look up payment", "reference", reference, "error", err)
			return nil, shared.ErrLookup{Err: err}
		}
		return s.resolveUnknown(ctx, reference), nil
	}

	status, err := s.Reconcile(ctx, txn)
	if err != nil {
		return nil, err
	}
	return payment.ViewOf(txn, status), nil
}

// resolveUnknown asks the proxy about a reference the store has never seen.
func (s *StatusServiceImpl) resolveUnknown(ctx context.Context, reference string) *payment.StatusView {
	status, ok := s.query(ctx, reference)
	if !ok {
		metrics.RecordStatusResolved("default", string(payment.CanonicalPending))
		return payment.DefaultPendingView()
	}
	metrics.RecordStatusResolved("proxy", string(status))
	return payment.UnknownView(status)
}

// Reconcile never consults the proxy for a terminal row. A pending row moves to success
// when the proxy says so; a proxy FAILED is answered but not stored.
func (s *StatusServiceImpl) Reconcile(ctx context.Context, t *payment.Transaction) (payment.CanonicalStatus, error) {
	if t.Status.IsTerminal() {
		status := t.Status.Canonical()
		metrics.RecordStatusResolved("store", string(status))
		return status, nil
	}

	if t.TransactionRequestID == "" {
		metrics.RecordStatusResolved("store", string(payment.CanonicalPending))
		return payment.CanonicalPending, nil
	}

	status, ok := s.query(ctx, t.TransactionRequestID)
	switch {
	case ok && status == payment.CanonicalSuccess:
		s.confirm(ctx, t)
		metrics.RecordStatusResolved("proxy", string(payment.CanonicalSuccess))
		return payment.CanonicalSuccess, nil
	case ok && status == payment.CanonicalFailed:
		s.logger.Info("Proxy reports failure, leaving transaction pending",
			"reference", t.Reference,
			"transaction_request_id", t.TransactionRequestID,
		)
		metrics.RecordStatusResolved("proxy", string(payment.CanonicalFailed))
		return payment.CanonicalFailed, nil
	default:
		metrics.RecordStatusResolved("store", string(payment.CanonicalPending))
		return payment.CanonicalPending, nil
	}
}

// confirm writes the success back with its payment.succeeded event. A failed write is
// logged only; the proxy answer stands for this response and the next lookup retries it.
func (s *StatusServiceImpl) confirm(ctx context.Context, t *payment.Transaction) {
	logger := s.logger.With("reference", t.Reference, "transaction_request_id", t.TransactionRequestID)

	event, err := outbox.NewMessage(shared.EventTypePaymentSucceeded, t.ID, payment.NewSucceededEvent(t))
	if err != nil {
		logger.Error("Failed to build payment succeeded event", "error", err)
		return
	}

	at := time.Now().UTC()
	updated, err := s.repo.MarkSucceeded(ctx, t.ID, at, event)
	if err != nil {
		logger.Error("Failed to mark transaction succeeded", "error", err)
		return
	}
	if !updated {
		logger.Debug("Transaction was no longer pending")
		return
	}
	t.Status = payment.StatusSuccess
	t.UpdatedAt = at

	logger.Info("Payment confirmed", "event_id", event.EventID.String())
	if err := s.recorder.Record(ctx, audit.NewEntry(audit.KindPaymentConfirmed, t.Reference, t.TransactionRequestID, map[string]any{
		"event_id": event.EventID.String(),
	})); err != nil {
		logger.Warn("Failed to record audit entry", "kind", string(audit.KindPaymentConfirmed), "error", err)
	}
}

// query swallows proxy failures: an unreachable or ambiguous proxy is absence of a status.
func (s *StatusServiceImpl) query(ctx context.Context, checkoutID string) (payment.CanonicalStatus, bool) {
	status, ok, err := s.proxy.Query(ctx, checkoutID)
	if err != nil {
		metrics.RecordProxyQuery("error")
		s.logger.Warn("Verification proxy query failed", "checkout_id", checkoutID, "error", err)
		return "", false
	}
	if !ok {
		metrics.RecordProxyQuery("unrecognized")
		return "", false
	}
	metrics.RecordProxyQuery("recognized")
	return status, true
}

func (s *StatusServiceImpl) missingConfig() []string {
	var missing []string
	if s.repo == nil {
		missing = append(missing, "POSTGRES_URL")
	}
	return append(missing, s.proxyCfg.Missing()...)
}
