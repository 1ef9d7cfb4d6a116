// Package notification tells employees and managers about workflow outcomes.
// Dispatch is best-effort and never part of the triggering transaction.
package notification

import (
	"context"
	"fmt"
	"time"

	"go-payroll/internal/events"
	"go-payroll/internal/messaging/kafka"
)

type Kind string

const (
	KindCompensationApproved Kind = "compensation_approved"
	KindPayslipReleased      Kind = "payslip_released"
)

type Message struct {
	Kind       Kind
	EntityID   string
	CompanyID  string
	EmployeeID string
	ActorID    string
	// Compensation only.
	EffectiveFrom string
	// Payslip only.
	Year       int
	Month      int
	OccurredAt time.Time
}

//go:generate mockgen -source=dispatcher.go -destination=mock/dispatcher_mock.go -package=mock
type Dispatcher interface {
	Dispatch(ctx context.Context, msg Message) error
}

type outboxDispatcher struct {
	outbox kafka.OutboxRepository
}

// NewOutboxDispatcher turns messages into outbox rows; the worker relays them
// to Kafka and the notification consumer delivers them.
func NewOutboxDispatcher(outbox kafka.OutboxRepository) Dispatcher {
	return &outboxDispatcher{outbox: outbox}
}

func (d *outboxDispatcher) Dispatch(ctx context.Context, msg Message) error {
	at := msg.OccurredAt
	if at.IsZero() {
		at = time.Now().UTC()
	}

	var (
		event kafka.OutboxEvent
		err   error
	)
	switch msg.Kind {
	case KindCompensationApproved:
		event, err = kafka.NewOutboxEvent(ctx, "compensation", msg.EntityID, string(msg.Kind), events.CompensationApprovedTopic,
			events.CompensationApprovedEvent{
				EventType:     string(msg.Kind),
				StructureID:   msg.EntityID,
				EmployeeID:    msg.EmployeeID,
				CompanyID:     msg.CompanyID,
				ApprovedBy:    msg.ActorID,
				EffectiveFrom: msg.EffectiveFrom,
				OccurredAt:    at,
			})
	case KindPayslipReleased:
		event, err = kafka.NewOutboxEvent(ctx, "payslip", msg.EntityID, string(msg.Kind), events.PayslipReleasedTopic,
			events.PayslipReleasedEvent{
				EventType:  string(msg.Kind),
				PayslipID:  msg.EntityID,
				EmployeeID: msg.EmployeeID,
				CompanyID:  msg.CompanyID,
				Year:       msg.Year,
				Month:      msg.Month,
				ReleasedBy: msg.ActorID,
				OccurredAt: at,
			})
	default:
		return fmt.Errorf("unknown notification kind %q", msg.Kind)
	}
	if err != nil {
		return err
	}

	return d.outbox.Create(ctx, event)
}

type noopDispatcher struct{}

func NewNoopDispatcher() Dispatcher { return noopDispatcher{} }

func (noopDispatcher) Dispatch(context.Context, Message) error { return nil }
