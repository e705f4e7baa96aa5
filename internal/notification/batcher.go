// Package notification sends one digest email per applicant covering every
// match not yet notified, and marks those matches notified only after the
// transport accepted the message.
package notification

import (
	"context"
	"fmt"
	"time"

	apperrors "loan-eligibility-workers/internal/common/errors"
	"loan-eligibility-workers/internal/common/logger"
	"loan-eligibility-workers/internal/common/metrics"
	"loan-eligibility-workers/internal/common/validation"
	"loan-eligibility-workers/internal/models"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// EventMatchesNotified is published after a digest is sent and logged.
const EventMatchesNotified = "matches.notified"

const reasonNoMatches = "No matches found"

var tracer = otel.Tracer("loan-eligibility-workers/notification")

// Status is a per-applicant outcome.
type Status string

const (
	StatusSent    Status = "sent"
	StatusSkipped Status = "skipped"
	StatusError   Status = "error"
)

// Repository is the store surface the batcher reads and writes.
type Repository interface {
	GetApplicant(ctx context.Context, applicantID string) (models.ApplicantProfile, error)
	ListBatchApplicants(ctx context.Context, batchID string) ([]models.ApplicantProfile, error)
	ListPendingMatches(ctx context.Context, applicantID string) ([]models.MatchDigestItem, error)
	MarkNotified(ctx context.Context, entry models.NotificationLogEntry, matchIDs []int64) (int64, error)
}

// Transport delivers an HTML email and returns the provider message id.
type Transport interface {
	Send(ctx context.Context, to, subject, htmlBody string) (string, error)
}

// EventPublisher announces sent digests to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload interface{}) error
}

// Selector picks the applicants to notify. ApplicantID wins when both are set.
// A batch covers every applicant in it; those with nothing pending come back
// as skipped.
type Selector struct {
	ApplicantID string
	BatchID     string
}

// Outcome is the result for one applicant.
type Outcome struct {
	ApplicantID  string `json:"applicantId"`
	Email        string `json:"email"`
	Status       Status `json:"status"`
	MatchesCount int    `json:"matchesCount,omitempty"`
	MessageID    string `json:"messageId,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

// MatchesNotifiedEvent is the payload of EventMatchesNotified.
type MatchesNotifiedEvent struct {
	NotificationID string    `json:"notificationId"`
	ApplicantID    string    `json:"applicantId"`
	MessageID      string    `json:"messageId"`
	MatchIDs       []int64   `json:"matchIds"`
	SentAt         time.Time `json:"sentAt"`
}

// Batcher runs notification passes.
type Batcher struct {
	repo      Repository
	transport Transport
	events    EventPublisher
	logger    logger.Logger
	now       func() time.Time
}

type Option func(*Batcher)

// WithEvents publishes a MatchesNotifiedEvent per sent digest.
func WithEvents(p EventPublisher) Option {
	return func(b *Batcher) { b.events = p }
}

func NewBatcher(repo Repository, transport Transport, log logger.Logger, opts ...Option) *Batcher {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	b := &Batcher{repo: repo, transport: transport, logger: log, now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SendDueNotifications resolves the selector and notifies each applicant in
// turn. Errors resolving the targets are returned; anything that goes wrong
// for one applicant is reported in that applicant's outcome only.
func (b *Batcher) SendDueNotifications(ctx context.Context, sel Selector) ([]Outcome, error) {
	ctx, span := tracer.Start(ctx, "notification.send_due", trace.WithAttributes(
		attribute.String("applicant.id", sel.ApplicantID),
		attribute.String("batch.id", sel.BatchID),
	))
	defer span.End()

	applicants, err := b.targets(ctx, sel)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	outcomes := make([]Outcome, 0, len(applicants))
	for _, applicant := range applicants {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		outcome := b.notify(ctx, applicant)
		metrics.NotificationOutcomes.WithLabelValues(string(outcome.Status)).Inc()
		outcomes = append(outcomes, outcome)
	}

	span.SetAttributes(attribute.Int("applicants", len(outcomes)))
	return outcomes, nil
}

func (b *Batcher) targets(ctx context.Context, sel Selector) ([]models.ApplicantProfile, error) {
	if sel.ApplicantID != "" {
		applicant, err := b.repo.GetApplicant(ctx, sel.ApplicantID)
		if err != nil {
			return nil, err
		}
		return []models.ApplicantProfile{applicant}, nil
	}
	if sel.BatchID != "" {
		return b.repo.ListBatchApplicants(ctx, sel.BatchID)
	}
	return nil, fmt.Errorf("selector needs an applicant id or a batch id")
}

func (b *Batcher) notify(ctx context.Context, applicant models.ApplicantProfile) Outcome {
	outcome := Outcome{ApplicantID: applicant.ID, Email: applicant.Email}
	log := b.logger.WithFields(map[string]interface{}{"applicantId": applicant.ID})

	items, err := b.repo.ListPendingMatches(ctx, applicant.ID)
	if err != nil {
		log.WithError(err).Error("Failed to load pending matches", nil)
		return failed(outcome, err.Error())
	}
	if len(items) == 0 {
		outcome.Status = StatusSkipped
		outcome.Reason = reasonNoMatches
		return outcome
	}
	outcome.MatchesCount = len(items)

	if !validation.ValidateEmail(applicant.Email) {
		log.Warn("Applicant email is not deliverable", map[string]interface{}{"email": applicant.Email})
		return failed(outcome, fmt.Sprintf("invalid email address %q", applicant.Email))
	}

	subject := Subject(len(items))
	body, err := RenderDigest(applicant.Email, items)
	if err != nil {
		return failed(outcome, err.Error())
	}

	messageID, err := b.transport.Send(ctx, applicant.Email, subject, body)
	if err != nil {
		sendErr := apperrors.NewTransportError(applicant.Email, err)
		log.WithError(err).Error("Digest send failed", map[string]interface{}{
			"errorCode": string(sendErr.Code),
			"matches":   len(items),
		})
		return failed(outcome, sendErr.Reason())
	}
	outcome.MessageID = messageID

	matchIDs := make([]int64, len(items))
	for i, item := range items {
		matchIDs[i] = item.MatchID
	}

	entry := models.NotificationLogEntry{
		NotificationID: uuid.NewString(),
		ApplicantID:    applicant.ID,
		Subject:        subject,
		Body:           body,
		Status:         models.NotificationStatusSent,
		MessageID:      messageID,
		CreatedAt:      b.now().UTC(),
	}
	if _, err := b.repo.MarkNotified(ctx, entry, matchIDs); err != nil {
		// The email went out; the next run will resend it.
		log.WithError(err).Error("Digest sent but matches not marked notified", map[string]interface{}{
			"messageId": messageID,
		})
		return failed(outcome, err.Error())
	}

	outcome.Status = StatusSent
	log.Info("Digest sent", map[string]interface{}{
		"messageId":      messageID,
		"matches":        len(items),
		"notificationId": entry.NotificationID,
	})

	b.publish(ctx, log, MatchesNotifiedEvent{
		NotificationID: entry.NotificationID,
		ApplicantID:    applicant.ID,
		MessageID:      messageID,
		MatchIDs:       matchIDs,
		SentAt:         entry.CreatedAt,
	})
	return outcome
}

func (b *Batcher) publish(ctx context.Context, log logger.Logger, event MatchesNotifiedEvent) {
	if b.events == nil {
		return
	}
	if err := b.events.Publish(ctx, EventMatchesNotified, event); err != nil {
		log.WithError(err).Warn("Failed to publish notification event", nil)
	}
}

func failed(o Outcome, reason string) Outcome {
	o.Status = StatusError
	o.Reason = reason
	return o
}
