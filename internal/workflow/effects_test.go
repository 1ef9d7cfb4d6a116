package workflow_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-payroll/internal/audit"
	auditMock "go-payroll/internal/audit/mock"
	"go-payroll/internal/notification"
	notificationMock "go-payroll/internal/notification/mock"
	"go-payroll/internal/workflow"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func TestEffects_PayslipReleaseNotifies(t *testing.T) {
	ctrl := gomock.NewController(t)
	recorder := auditMock.NewMockRecorder(ctrl)
	dispatcher := notificationMock.NewMockDispatcher(ctrl)
	at := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)

	recorder.EXPECT().
		Record(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, e audit.Entry) error {
			assert.Equal(t, workflow.EntityPayslip, e.EntityType)
			assert.Equal(t, "p-1", e.EntityID)
			assert.Equal(t, audit.ActionRelease, e.Action)
			assert.Equal(t, "u-mgr", e.ActorID)
			assert.Equal(t, "APPROVED", e.Details["from"])
			assert.Equal(t, "RELEASED", e.Details["to"])
			assert.Equal(t, at, e.OccurredAt)
			return nil
		})
	dispatcher.EXPECT().
		Dispatch(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, msg notification.Message) error {
			assert.Equal(t, notification.KindPayslipReleased, msg.Kind)
			assert.Equal(t, "e-1", msg.EmployeeID)
			assert.Equal(t, 3, msg.Month)
			return nil
		})

	effects := workflow.NewEffects(recorder, dispatcher, zap.NewNop())
	effects.Apply(context.Background(), workflow.Transition{
		Entity:     workflow.EntityPayslip,
		EntityID:   "p-1",
		EmployeeID: "e-1",
		Actor:      manager,
		Action:     audit.ActionRelease,
		From:       workflow.StatusApproved,
		To:         workflow.StatusReleased,
		At:         at,
		Year:       2024,
		Month:      3,
	})
}

func TestEffects_FailuresAreSwallowed(t *testing.T) {
	ctrl := gomock.NewController(t)
	recorder := auditMock.NewMockRecorder(ctrl)
	dispatcher := notificationMock.NewMockDispatcher(ctrl)

	recorder.EXPECT().Record(gomock.Any(), gomock.Any()).Return(errors.New("audit store down"))
	dispatcher.EXPECT().Dispatch(gomock.Any(), gomock.Any()).Return(errors.New("outbox down"))

	effects := workflow.NewEffects(recorder, dispatcher, zap.NewNop())

	assert.NotPanics(t, func() {
		effects.Apply(context.Background(), workflow.Transition{
			Entity: workflow.EntityCompensation,
			Actor:  manager,
			Action: audit.ActionApprove,
			From:   workflow.StatusPending,
			To:     workflow.StatusApproved,
		})
	})
}

func TestEffects_CreateOnlyAudits(t *testing.T) {
	ctrl := gomock.NewController(t)
	recorder := auditMock.NewMockRecorder(ctrl)
	dispatcher := notificationMock.NewMockDispatcher(ctrl)

	recorder.EXPECT().Record(gomock.Any(), gomock.Any()).Return(nil)
	dispatcher.EXPECT().Dispatch(gomock.Any(), gomock.Any()).Times(0)

	workflow.NewEffects(recorder, dispatcher, zap.NewNop()).Apply(context.Background(), workflow.Transition{
		Entity: workflow.EntityPayslip,
		Actor:  hr,
		Action: audit.ActionCreate,
		To:     workflow.StatusPending,
	})
}

func TestEffects_NilSafe(t *testing.T) {
	var effects *workflow.Effects
	assert.NotPanics(t, func() {
		effects.Apply(context.Background(), workflow.Transition{})
	})
}
