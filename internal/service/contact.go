package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dukerupert/bakehouse/internal/domain"
	"github.com/dukerupert/bakehouse/internal/email"
	"github.com/dukerupert/bakehouse/internal/telemetry"
	"github.com/dukerupert/bakehouse/internal/validation"
)

// Notifier sends the operator alert for a contact submission.
type Notifier interface {
	SendContactNotification(ctx context.Context, data email.ContactNotification) (string, error)
}

// ContactConfig controls the notification step.
type ContactConfig struct {
	// NotifyAddress receives the alerts. Empty skips notification.
	NotifyAddress string
	// Async sends the alert after Submit returns.
	Async bool
	// Timeout bounds one notification attempt.
	Timeout time.Duration
}

// ContactReceipt reports what happened to an accepted submission.
type ContactReceipt struct {
	Submission domain.ContactSubmission
	Persisted  bool
	Notified   bool
	// NotifyPending is set when the alert was handed to a background send.
	NotifyPending bool
}

// ContactService accepts storefront inquiries. Once input is valid the
// submission is accepted: storing it and alerting the operator are separate
// best-effort steps, and a failure in one never stops the other.
type ContactService struct {
	contacts domain.ContactRepository
	notifier Notifier
	cfg      ContactConfig
	logger   *slog.Logger
	metrics  *telemetry.BusinessMetrics

	wg  sync.WaitGroup
	now func() time.Time
}

// NewContactService builds the service. A nil notifier disables alerts.
func NewContactService(contacts domain.ContactRepository, notifier Notifier, cfg ContactConfig, logger *slog.Logger, metrics *telemetry.BusinessMetrics) *ContactService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ContactService{
		contacts: contacts,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
		metrics:  metrics,
		now:      time.Now,
	}
}

// Submit validates, persists and notifies. Only a validation failure is
// returned as an error.
func (s *ContactService) Submit(ctx context.Context, form validation.ContactForm) (ContactReceipt, error) {
	sub, err := validation.ParseContact(form)
	if err != nil {
		s.metrics.ContactSubmission(telemetry.ResultRejected)
		return ContactReceipt{}, err
	}
	s.metrics.ContactSubmission(telemetry.ResultOK)

	receipt := ContactReceipt{Submission: sub}

	stored, err := s.persist(ctx, sub)
	if err == nil {
		receipt.Submission = *stored
		receipt.Persisted = true
	} else {
		receipt.Submission.CreatedAt = s.now().UTC()
	}

	if !s.notifyEnabled() {
		s.metrics.Notification(telemetry.ResultSkipped, 0)
		s.logger.InfoContext(ctx, "contact notification skipped: no provider or recipient configured")
		return receipt, nil
	}

	data := email.NewContactNotification(s.cfg.NotifyAddress, receipt.Submission)

	if s.cfg.Async {
		receipt.NotifyPending = true
		detached := context.WithoutCancel(ctx)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer telemetry.RecoverGoroutine(s.logger, "contact.notify")
			s.notify(detached, data)
		}()
		return receipt, nil
	}

	receipt.Notified = s.notify(ctx, data)
	return receipt, nil
}

// Wait blocks until background notifications finish or ctx is done.
func (s *ContactService) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *ContactService) notifyEnabled() bool {
	return s.notifier != nil && s.cfg.NotifyAddress != ""
}

func (s *ContactService) persist(ctx context.Context, sub domain.ContactSubmission) (*domain.ContactSubmission, error) {
	stored, err := s.contacts.Create(ctx, sub)
	if err != nil {
		s.metrics.ContactPersist(telemetry.ResultFailed)
		s.logger.ErrorContext(ctx, "contact submission not stored", "error", err, "email", sub.Email)
		telemetry.CaptureErrorFromContext(ctx, err, map[string]interface{}{"op": "contact.persist"})
		return nil, err
	}

	s.metrics.ContactPersist(telemetry.ResultOK)
	return stored, nil
}

func (s *ContactService) notify(ctx context.Context, data email.ContactNotification) bool {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	start := time.Now()
	id, err := s.send(ctx, data)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		s.metrics.Notification(telemetry.ResultFailed, elapsed)
		s.logger.ErrorContext(ctx, "contact notification failed", "error", err, "reply_to", data.Email)
		telemetry.CaptureErrorFromContext(ctx, err, map[string]interface{}{"op": "contact.notify"})
		return false
	}

	s.metrics.Notification(telemetry.ResultOK, elapsed)
	s.logger.InfoContext(ctx, "contact notification sent", "message_id", id)
	return true
}

// send turns a panicking notifier into an ordinary failure so the
// submission is still accepted.
func (s *ContactService) send(ctx context.Context, data email.ContactNotification) (id string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("notifier panicked: %v", p)
		}
	}()
	return s.notifier.SendContactNotification(ctx, data)
}
