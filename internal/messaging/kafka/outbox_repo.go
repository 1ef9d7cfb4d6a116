package kafka

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go-payroll/internal/shared/contextutil"

	"github.com/google/uuid"
)

const (
	OutboxStatusPending = "pending"
	OutboxStatusSent    = "sent"
	OutboxStatusFailed  = "failed"
	// OutboxStatusDead rows are never picked up again; they stay for inspection.
	OutboxStatusDead = "dead"
)

// OutboxMaxAttempts is the number of failed publishes after which a row is
// parked as dead.
const OutboxMaxAttempts = 10

const (
	insertOutboxSQL = `
INSERT INTO outbox_events (
	id, request_id, company_id, aggregate_type, aggregate_id, event_type, topic, payload, status
) VALUES ($1, $2, NULLIF($3, '')::uuid, $4, $5, $6, $7, $8, $9)`

	// Failed rows come back once their backoff has elapsed; dead rows never do.
	selectDueOutboxSQL = `
SELECT id::text, COALESCE(request_id, ''), COALESCE(company_id::text, ''),
	aggregate_type, aggregate_id, event_type, topic, payload,
	status, retry_count, COALESCE(next_retry_at, created_at)
FROM outbox_events
WHERE status IN ($1, $2) AND (next_retry_at IS NULL OR next_retry_at <= NOW())
ORDER BY created_at
LIMIT $3`

	markSentSQL = `
UPDATE outbox_events
SET status = $2, processed_at = NOW(), error_message = NULL, updated_at = NOW()
WHERE id = $1`

	// Backoff doubles from 10s and is capped at 15 minutes.
	markFailedSQL = `
UPDATE outbox_events
SET retry_count = retry_count + 1,
	status = CASE WHEN retry_count + 1 >= $4 THEN $5 ELSE $2 END,
	error_message = LEFT($3, 500),
	next_retry_at = NOW() + LEAST(POWER(2, retry_count) * 10, 900) * INTERVAL '1 second',
	updated_at = NOW()
WHERE id = $1`

	purgeSentSQL = `DELETE FROM outbox_events WHERE status = $1 AND processed_at < $2`
)

// OutboxEvent is one row of outbox_events. CompanyID and RequestID are empty
// for events raised outside a request (e.g. server shutdown).
type OutboxEvent struct {
	ID            string
	RequestID     string
	CompanyID     string
	AggregateType string
	AggregateID   string
	EventType     string
	Topic         string
	Payload       []byte
	Status        string
	RetryCount    int
	NextRetryAt   time.Time
}

// NewOutboxEvent encodes payload as JSON and stamps a fresh pending event
// carrying the request id and tenant found in ctx.
func NewOutboxEvent(
	ctx context.Context,
	aggregateType, aggregateID, eventType, topic string,
	payload any,
) (OutboxEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return OutboxEvent{}, fmt.Errorf("encode %s payload: %w", eventType, err)
	}

	event := OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     contextutil.GetRequestID(ctx),
		CompanyID:     contextutil.GetCompanyID(ctx),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Topic:         topic,
		Payload:       raw,
		Status:        OutboxStatusPending,
	}
	return event, ValidateOutboxEvent(event)
}

//go:generate mockgen -source=outbox_repo.go -destination=mock/outbox_repo_mock.go -package=mock
type OutboxRepository interface {
	Create(ctx context.Context, event OutboxEvent) error
	ListPending(ctx context.Context, limit int) ([]OutboxEvent, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, reason string) error
	PurgeSent(ctx context.Context, before time.Time) (int64, error)
}

// Events are written after the business transaction commits, so a crash in
// between loses the event. Delivery from the table onward is at least once.
type outboxRepository struct {
	q *sql.DB
}

func NewOutboxRepository(db *sql.DB) OutboxRepository {
	return &outboxRepository{q: db}
}

func (r *outboxRepository) Create(ctx context.Context, event OutboxEvent) error {
	if err := ValidateOutboxEvent(event); err != nil {
		return err
	}
	_, err := r.q.ExecContext(ctx, insertOutboxSQL,
		event.ID, event.RequestID, event.CompanyID, event.AggregateType,
		event.AggregateID, event.EventType, event.Topic, event.Payload, event.Status,
	)
	return err
}

func (r *outboxRepository) ListPending(ctx context.Context, limit int) ([]OutboxEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.q.QueryContext(ctx, selectDueOutboxSQL, OutboxStatusPending, OutboxStatusFailed, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []OutboxEvent
	for rows.Next() {
		e, err := scanOutboxEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func scanOutboxEvent(rows *sql.Rows) (OutboxEvent, error) {
	var e OutboxEvent
	err := rows.Scan(
		&e.ID, &e.RequestID, &e.CompanyID,
		&e.AggregateType, &e.AggregateID, &e.EventType, &e.Topic, &e.Payload,
		&e.Status, &e.RetryCount, &e.NextRetryAt,
	)
	return e, err
}

func (r *outboxRepository) MarkSent(ctx context.Context, id string) error {
	_, err := r.q.ExecContext(ctx, markSentSQL, id, OutboxStatusSent)
	return err
}

func (r *outboxRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	_, err := r.q.ExecContext(ctx, markFailedSQL, id, OutboxStatusFailed, reason, OutboxMaxAttempts, OutboxStatusDead)
	return err
}

// PurgeSent deletes relayed rows processed before the cutoff.
func (r *outboxRepository) PurgeSent(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.q.ExecContext(ctx, purgeSentSQL, OutboxStatusSent, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

var (
	errOutboxID      = errors.New("outbox id is required")
	errOutboxTopic   = errors.New("outbox topic is required")
	errOutboxPayload = errors.New("outbox payload is required")
)

func ValidateOutboxEvent(event OutboxEvent) error {
	switch {
	case event.ID == "":
		return errOutboxID
	case event.Topic == "":
		return errOutboxTopic
	case len(event.Payload) == 0:
		return errOutboxPayload
	}
	switch event.Status {
	case OutboxStatusPending, OutboxStatusSent, OutboxStatusFailed, OutboxStatusDead:
		return nil
	}
	return fmt.Errorf("invalid outbox status: %s", event.Status)
}
