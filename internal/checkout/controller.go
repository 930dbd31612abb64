// Package checkout drives an applicant through booking and paying for a verification slot.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/qatarjobs-payments/internal/domain/payment"
	"github.com/shopspring/decimal"
)

// Stage is a step of the booking funnel.
type Stage string

const (
	StageCollectingDetails Stage = "collecting-details"
	StageScheduling        Stage = "scheduling"
	StageAwaitingPayment   Stage = "awaiting-payment"
	StageConfirmed         Stage = "confirmed"
)

// minPhoneLength is the shortest input worth sending to the gateway.
const minPhoneLength = 9

var (
	ErrWrongStage        = errors.New("action not allowed at this stage")
	ErrPaymentInProgress = errors.New("a payment is already in progress")
	ErrInvalidSlot       = errors.New("interview slot requires a date and a time")
)

// Details is what the applicant fills in before choosing a slot.
type Details struct {
	UserID   string
	FullName string
	Phone    string
	JobTitle string
}

// Slot is the chosen interview date and time.
type Slot struct {
	Date time.Time
	Time string
}

// Snapshot is the state observers see. PaymentStatus is empty until a payment is attempted.
type Snapshot struct {
	Stage         Stage
	PaymentStatus payment.CanonicalStatus
	Processing    bool
	CheckoutID    string
	ApplicationID string
	Slot          Slot
	HoldRemaining time.Duration
	HoldLabel     string
	HoldExpired   bool
}

type ControllerConfig struct {
	Amount       decimal.Decimal
	Description  string
	PollInterval time.Duration
	PollTimeout  time.Duration
	HoldDuration time.Duration
}

// Controller is the client-side state machine. Pay blocks until polling ends.
type Controller struct {
	api         PaymentAPI
	poller      *StatusPoller
	hold        *HoldTimer
	logger      *slog.Logger
	amount      decimal.Decimal
	description string

	mu        sync.Mutex
	state     Snapshot
	details   Details
	task      *PollTask
	observers []func(Snapshot)
}

func NewController(logger *slog.Logger, api PaymentAPI, cfg ControllerConfig) *Controller {
	return &Controller{
		api:         api,
		poller:      NewStatusPoller(logger, api, cfg.PollInterval, cfg.PollTimeout),
		hold:        NewHoldTimer(cfg.HoldDuration),
		logger:      logger,
		amount:      cfg.Amount,
		description: cfg.Description,
		state:       Snapshot{Stage: StageCollectingDetails},
	}
}

// Subscribe registers fn to receive every state change.
func (c *Controller) Subscribe(fn func(Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	s := c.state
	s.HoldRemaining = c.hold.Remaining()
	s.HoldLabel = FormatHold(s.HoldRemaining)
	s.HoldExpired = c.hold.Expired()
	return s
}

// update applies fn under the lock and notifies observers outside it.
func (c *Controller) update(fn func(s *Snapshot)) Snapshot {
	snap, _ := c.transition(func(s *Snapshot) error {
		if fn != nil {
			fn(s)
		}
		return nil
	})
	return snap
}

// transition applies fn under the lock and notifies observers only when fn accepts the change.
func (c *Controller) transition(fn func(s *Snapshot) error) (Snapshot, error) {
	c.mu.Lock()
	if err := fn(&c.state); err != nil {
		c.mu.Unlock()
		return Snapshot{}, err
	}
	snap := c.snapshotLocked()
	observers := append([]func(Snapshot){}, c.observers...)
	c.mu.Unlock()

	for _, o := range observers {
		o(snap)
	}
	return snap, nil
}

// SubmitDetails records the applicant and moves to scheduling.
// The application is captured best effort; a failed submission does not stop the funnel.
func (c *Controller) SubmitDetails(ctx context.Context, d Details) error {
	c.mu.Lock()
	if c.state.Stage != StageCollectingDetails {
		c.mu.Unlock()
		return ErrWrongStage
	}
	c.details = d
	c.mu.Unlock()

	applicationID := ""
	resp, err := c.api.SubmitApplication(ctx, ApplicationRequest{
		Phone:    d.Phone,
		UserID:   d.UserID,
		JobTitle: d.JobTitle,
	})
	if err != nil {
		c.logger.Warn("Application capture failed, continuing", "error", err)
	} else {
		applicationID = resp.ApplicationID
	}

	c.update(func(s *Snapshot) {
		s.Stage = StageScheduling
		s.ApplicationID = applicationID
	})
	return nil
}

// Schedule holds slot and starts the payment countdown.
func (c *Controller) Schedule(ctx context.Context, slot Slot) error {
	if slot.Date.IsZero() || strings.TrimSpace(slot.Time) == "" {
		return ErrInvalidSlot
	}

	c.mu.Lock()
	if c.state.Stage != StageScheduling {
		c.mu.Unlock()
		return ErrWrongStage
	}
	c.mu.Unlock()

	c.update(func(s *Snapshot) {
		s.Stage = StageAwaitingPayment
		s.Slot = slot
	})
	c.hold.Start(ctx, func(time.Duration) { c.update(nil) })
	return nil
}

// Pay charges phoneInput and polls until the payment settles. It returns the final status.
// A FAILED result leaves the controller awaiting payment so the applicant can retry.
func (c *Controller) Pay(ctx context.Context, phoneInput string) (payment.CanonicalStatus, error) {
	phoneInput = strings.TrimSpace(phoneInput)
	tooShort := len(phoneInput) < minPhoneLength

	snap, err := c.transition(func(s *Snapshot) error {
		if s.Stage != StageAwaitingPayment {
			return ErrWrongStage
		}
		if s.Processing {
			return ErrPaymentInProgress
		}
		if tooShort {
			s.PaymentStatus = payment.CanonicalFailed
			return nil
		}
		s.Processing = true
		s.PaymentStatus = payment.CanonicalPending
		s.CheckoutID = ""
		return nil
	})
	if err != nil {
		return "", err
	}
	if !snap.Processing {
		return payment.CanonicalFailed, nil
	}

	resp, err := c.api.InitiatePayment(ctx, InitiateRequest{
		PhoneNumber: dialingForm(phoneInput),
		Amount:      c.amount,
		Description: c.description,
	})
	if err != nil {
		c.logger.Warn("Payment initiation failed", "error", err)
		return c.fail(), nil
	}

	id := resp.PollingID()
	if id == "" {
		c.logger.Warn("Payment initiation returned no usable identifier")
		return c.fail(), nil
	}

	task := c.poller.Start(ctx, id)
	c.update(func(s *Snapshot) { s.CheckoutID = id })
	c.mu.Lock()
	c.task = task
	c.mu.Unlock()

	for u := range task.Updates() {
		status := u.Status
		c.update(func(s *Snapshot) {
			s.PaymentStatus = status
			if status.IsTerminal() {
				s.Processing = false
			}
			if status == payment.CanonicalSuccess {
				s.Stage = StageConfirmed
			}
		})
		if status == payment.CanonicalSuccess {
			c.hold.Stop()
		}
	}

	final := c.update(func(s *Snapshot) { s.Processing = false })
	c.mu.Lock()
	c.task = nil
	c.mu.Unlock()

	if final.PaymentStatus == "" {
		return "", fmt.Errorf("payment polling for %s stopped without a status", id)
	}
	return final.PaymentStatus, nil
}

func (c *Controller) fail() payment.CanonicalStatus {
	c.update(func(s *Snapshot) {
		s.Processing = false
		s.PaymentStatus = payment.CanonicalFailed
	})
	return payment.CanonicalFailed
}

// Close stops any polling in progress and the hold countdown.
func (c *Controller) Close() {
	c.mu.Lock()
	task := c.task
	c.mu.Unlock()
	if task != nil {
		task.Cancel()
	}
	c.hold.Stop()
}

// dialingForm prefixes 254 unless the input already carries it, dropping one trunk zero.
func dialingForm(input string) string {
	if strings.HasPrefix(input, "254") {
		return input
	}
	return "254" + strings.TrimPrefix(input, "0")
}
