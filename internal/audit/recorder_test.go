package audit_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go-payroll/internal/audit"
	auditMock "go-payroll/internal/audit/mock"
	"go-payroll/internal/events"
	"go-payroll/internal/messaging/kafka"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

type fakeOutboxRepository struct {
	created []kafka.OutboxEvent
	err     error
}

func (f *fakeOutboxRepository) Create(ctx context.Context, event kafka.OutboxEvent) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, event)
	return nil
}

func (f *fakeOutboxRepository) ListPending(ctx context.Context, limit int) ([]kafka.OutboxEvent, error) {
	return nil, nil
}

func (f *fakeOutboxRepository) MarkSent(ctx context.Context, id string) error { return nil }

func (f *fakeOutboxRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	return nil
}

func (f *fakeOutboxRepository) PurgeSent(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

func TestOutboxRecorder_Record(t *testing.T) {
	outbox := &fakeOutboxRepository{}
	rec := audit.NewOutboxRecorder(outbox)

	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	err := rec.Record(context.Background(), audit.Entry{
		EntityType: "payslip",
		EntityID:   "p-1",
		CompanyID:  "c-1",
		Action:     audit.ActionRelease,
		ActorID:    "u-1",
		Details:    map[string]any{"from": "APPROVED", "to": "RELEASED"},
		OccurredAt: at,
	})

	assert.NoError(t, err)
	assert.Len(t, outbox.created, 1)
	assert.Equal(t, events.AuditRecordedTopic, outbox.created[0].Topic)
	assert.Equal(t, "p-1", outbox.created[0].AggregateID)

	var payload events.AuditRecordedEvent
	assert.NoError(t, json.Unmarshal(outbox.created[0].Payload, &payload))
	assert.Equal(t, audit.ActionRelease, payload.Action)
	assert.Equal(t, "u-1", payload.ActorID)
	assert.True(t, at.Equal(payload.OccurredAt))
}

func TestOutboxRecorder_RecordError(t *testing.T) {
	rec := audit.NewOutboxRecorder(&fakeOutboxRepository{err: errors.New("db down")})

	err := rec.Record(context.Background(), audit.Entry{EntityType: "payslip", EntityID: "p-1"})
	assert.Error(t, err)
}

func TestStdoutRecorder_NeverFails(t *testing.T) {
	rec := audit.NewStdoutRecorder(zap.NewNop())
	assert.NoError(t, rec.Record(context.Background(), audit.Entry{EntityType: "server", Action: audit.ActionShutdown}))
}

func TestMultiRecorder_JoinsErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	first := auditMock.NewMockRecorder(ctrl)
	second := auditMock.NewMockRecorder(ctrl)

	entry := audit.Entry{EntityType: "compensation", EntityID: "cs-1", Action: audit.ActionApprove}
	first.EXPECT().Record(gomock.Any(), entry).Return(errors.New("first down"))
	second.EXPECT().Record(gomock.Any(), entry).Return(nil)

	err := audit.NewMultiRecorder(first, second).Record(context.Background(), entry)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "first down")
}
