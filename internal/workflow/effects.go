package workflow

import (
	"context"
	"time"

	"go-payroll/internal/audit"
	"go-payroll/internal/domain"
	"go-payroll/internal/notification"
	"go-payroll/internal/shared/contextutil"

	"go.uber.org/zap"
)

// Transition describes a committed state change.
type Transition struct {
	Entity     string
	EntityID   string
	CompanyID  string
	EmployeeID string
	Actor      domain.Actor
	Action     string
	From       Status
	To         Status
	At         time.Time
	Details    map[string]any
	// Notification payload extras.
	EffectiveFrom string
	Year          int
	Month         int
}

// Effects runs the audit and notification collaborators after a commit.
// Failures are logged and swallowed so they can never undo the transition.
type Effects struct {
	recorder   audit.Recorder
	dispatcher notification.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

func NewEffects(recorder audit.Recorder, dispatcher notification.Dispatcher, logger ...*zap.Logger) *Effects {
	l := zap.L().Named("workflow.effects")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("workflow.effects")
	}
	if dispatcher == nil {
		dispatcher = notification.NewNoopDispatcher()
	}
	return &Effects{recorder: recorder, dispatcher: dispatcher, logger: l, now: time.Now}
}

func (e *Effects) Apply(ctx context.Context, t Transition) {
	if e == nil {
		return
	}
	if t.At.IsZero() {
		t.At = e.now().UTC()
	}
	log := contextutil.GetLogger(ctx, e.logger)

	if e.recorder != nil {
		details := map[string]any{}
		for k, v := range t.Details {
			details[k] = v
		}
		if t.From != "" {
			details["from"] = string(t.From)
		}
		if t.To != "" {
			details["to"] = string(t.To)
		}
		details["actor_role"] = t.Actor.Role.String()

		entry := audit.Entry{
			EntityType: t.Entity,
			EntityID:   t.EntityID,
			CompanyID:  t.CompanyID,
			Action:     t.Action,
			ActorID:    t.Actor.ID(),
			Details:    details,
			OccurredAt: t.At,
		}
		if err := e.recorder.Record(ctx, entry); err != nil {
			log.Warn("audit record failed",
				zap.String("entity", t.Entity),
				zap.String("entity_id", t.EntityID),
				zap.String("action", t.Action),
				zap.Error(err),
			)
		}
	}

	kind, ok := notificationKind(t)
	if !ok {
		return
	}
	msg := notification.Message{
		Kind:          kind,
		EntityID:      t.EntityID,
		CompanyID:     t.CompanyID,
		EmployeeID:    t.EmployeeID,
		ActorID:       t.Actor.ID(),
		EffectiveFrom: t.EffectiveFrom,
		Year:          t.Year,
		Month:         t.Month,
		OccurredAt:    t.At,
	}
	if err := e.dispatcher.Dispatch(ctx, msg); err != nil {
		log.Warn("notification dispatch failed",
			zap.String("kind", string(kind)),
			zap.String("entity_id", t.EntityID),
			zap.Error(err),
		)
	}
}

func notificationKind(t Transition) (notification.Kind, bool) {
	switch {
	case t.Entity == EntityCompensation && t.To == StatusApproved:
		return notification.KindCompensationApproved, true
	case t.Entity == EntityPayslip && t.To == StatusReleased:
		return notification.KindPayslipReleased, true
	default:
		return "", false
	}
}
