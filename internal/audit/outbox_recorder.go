package audit

import (
	"context"
	"time"

	"go-payroll/internal/events"
	"go-payroll/internal/messaging/kafka"
)

// OutboxRecorder publishes audit entries through the transactional outbox so
// the audit store can consume them from Kafka.
type OutboxRecorder struct {
	outbox kafka.OutboxRepository
	now    func() time.Time
}

func NewOutboxRecorder(outbox kafka.OutboxRepository) *OutboxRecorder {
	return &OutboxRecorder{outbox: outbox, now: time.Now}
}

func (r *OutboxRecorder) Record(ctx context.Context, entry Entry) error {
	at := entry.OccurredAt
	if at.IsZero() {
		at = r.now().UTC()
	}

	payload := events.AuditRecordedEvent{
		EventType:  "audit_recorded",
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		CompanyID:  entry.CompanyID,
		Action:     entry.Action,
		ActorID:    entry.ActorID,
		Details:    entry.Details,
		OccurredAt: at,
	}

	event, err := kafka.NewOutboxEvent(ctx, entry.EntityType, entry.EntityID, payload.EventType, events.AuditRecordedTopic, payload)
	if err != nil {
		return err
	}
	return r.outbox.Create(ctx, event)
}
