// Package service finalizes and verifies birth registrations. It owns the
// only side effects in the system: identifier allocation, persistence and the
// outbound notification.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"ebirth/internal/platform/metrics"
	"ebirth/internal/registration/models"
	"ebirth/internal/registration/store"
	"ebirth/internal/registration/ubrn"
	dErrors "ebirth/pkg/domain-errors"
)

// Generator produces a registration identifier for a region and district.
type Generator interface {
	Generate(ctx context.Context, region int, district string) (string, error)
}

// Notifier delivers the confirmation SMS. Failures are logged, not retried.
type Notifier interface {
	Send(ctx context.Context, msisdn, text string) error
}

// Service orchestrates registration finalization and UBRN verification.
type Service struct {
	store    store.Store
	ubrn     Generator
	notifier Notifier
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	now      func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New constructs a Service.
func New(st store.Store, gen Generator, notifier Notifier, opts ...Option) *Service {
	s := &Service{
		store:    st,
		ubrn:     gen,
		notifier: notifier,
		logger:   slog.Default(),
		tracer:   otel.Tracer("ebirth/registration"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register finalizes a validated submission: allocates the UBRN, persists the
// canonical record and queues the confirmation SMS. Idempotent per gateway
// session key, so a retried confirmation returns the already-issued UBRN
// instead of registering twice.
func (s *Service) Register(ctx context.Context, sub models.Submission) (string, error) {
	ctx, span := s.tracer.Start(ctx, "registration.Register",
		trace.WithAttributes(attribute.String("district", sub.DistrictCode)))
	defer span.End()

	if sub.SessionKey != "" {
		existing, err := s.store.FindBySessionKey(ctx, sub.SessionKey)
		switch {
		case err == nil:
			s.logger.InfoContext(ctx, "duplicate finalization, returning issued ubrn",
				"session_key", sub.SessionKey, "ubrn", existing.UBRN)
			return existing.UBRN, nil
		case !errors.Is(err, store.ErrNotFound):
			return "", dErrors.Wrap(err, dErrors.CodeUnavailable, "registration store unavailable")
		}
	}

	id, err := s.ubrn.Generate(ctx, sub.RegionCode, sub.DistrictCode)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeUnavailable, "could not allocate a registration number")
	}

	record := sub.Record(id, s.now().UTC())
	if err := s.store.Put(ctx, record); err != nil {
		// The identifier was already shown as decided; the caller must
		// surface a retry message, never silent success.
		return "", dErrors.Wrap(err, dErrors.CodeUnavailable, "could not save the registration")
	}

	s.logger.InfoContext(ctx, "registration finalized",
		"ubrn", id,
		"district", record.DistrictCode,
		"registered_by", record.RegisteredBy,
	)
	if s.metrics != nil {
		s.metrics.RegistrationsCompleted.Inc()
	}

	s.notify(ctx, record)
	return id, nil
}

// Verify resolves a subscriber-entered UBRN to its record. Malformed
// identifiers (bad syntax or check digit) are rejected before any lookup.
func (s *Service) Verify(ctx context.Context, raw string) (*models.Registration, error) {
	ctx, span := s.tracer.Start(ctx, "registration.Verify")
	defer span.End()

	if err := ubrn.Validate(raw); err != nil {
		s.metrics.IncVerification("invalid")
		return nil, err
	}

	record, err := s.store.Get(ctx, ubrn.Normalize(raw))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.metrics.IncVerification("not_found")
			return nil, dErrors.New(dErrors.CodeNotFound, "Registration Not Found. Please check the UBRN and try again.")
		}
		s.metrics.IncVerification("error")
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "registration store unavailable")
	}

	s.metrics.IncVerification("found")
	return record, nil
}

func (s *Service) notify(ctx context.Context, record *models.Registration) {
	if record.NotifyPhone == "" {
		return
	}

	var text string
	if record.RegisteredBy != "" {
		text = fmt.Sprintf("The birth of %s has been registered by a health worker. Your UBRN is %s. Keep this safe.",
			record.ChildName(), record.UBRN)
	} else {
		text = fmt.Sprintf("Congratulations! The birth of %s is registered. Your UBRN is %s. Keep this safe.",
			record.ChildName(), record.UBRN)
	}

	if err := s.notifier.Send(ctx, record.NotifyPhone, text); err != nil {
		// Fire-and-forget: the registration is already durable.
		s.logger.ErrorContext(ctx, "sms notification failed",
			"ubrn", record.UBRN, "to", record.NotifyPhone, "error", err)
		s.metrics.IncNotification("failed")
		return
	}
	s.metrics.IncNotification("sent")
}
