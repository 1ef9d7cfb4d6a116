package audit

import (
	"context"
	"time"

	"go-payroll/internal/shared/contextutil"

	"go.uber.org/zap"
)

type StdoutRecorder struct {
	logger *zap.Logger
}

func NewStdoutRecorder(logger ...*zap.Logger) *StdoutRecorder {
	l := zap.L().Named("audit")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("audit")
	}
	return &StdoutRecorder{logger: l}
}

func (r *StdoutRecorder) Record(ctx context.Context, entry Entry) error {
	at := entry.OccurredAt
	if at.IsZero() {
		at = time.Now().UTC()
	}

	r.logger.Info("audit event",
		zap.String("request_id", contextutil.GetRequestID(ctx)),
		zap.String("session_user_id", contextutil.GetUserID(ctx)),
		zap.String("timestamp", at.Format(time.RFC3339)),
		zap.String("entity_type", entry.EntityType),
		zap.String("entity_id", entry.EntityID),
		zap.String("company_id", entry.CompanyID),
		zap.String("action", entry.Action),
		zap.String("actor_id", entry.ActorID),
		zap.Any("details", entry.Details),
	)
	return nil
}
