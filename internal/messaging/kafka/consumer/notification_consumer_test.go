package consumer_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"go-payroll/internal/events"
	"go-payroll/internal/messaging/kafka/consumer"
	"go-payroll/internal/notification"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// fakeReader serves queued messages, then cancels the consumer context.
type fakeReader struct {
	msgs      []kafkago.Message
	committed []kafkago.Message
	cancel    context.CancelFunc
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafkago.Message, error) {
	if len(r.msgs) == 0 {
		r.cancel()
		return kafkago.Message{}, ctx.Err()
	}
	msg := r.msgs[0]
	r.msgs = r.msgs[1:]
	return msg, nil
}

func (r *fakeReader) CommitMessages(ctx context.Context, msgs ...kafkago.Message) error {
	r.committed = append(r.committed, msgs...)
	return nil
}

type fakeMailer struct {
	sent   []notification.Email
	failOn string
}

func (m *fakeMailer) Send(ctx context.Context, email notification.Email) error {
	if email.EmployeeID == m.failOn {
		return errors.New("smtp down")
	}
	m.sent = append(m.sent, email)
	return nil
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	raw, err := json.Marshal(v)
	assert.NoError(t, err)
	return raw
}

func TestConsumeNotifications(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader := &fakeReader{
		cancel: cancel,
		msgs: []kafkago.Message{
			{Topic: events.PayslipReleasedTopic, Value: mustJSON(t, events.PayslipReleasedEvent{EmployeeID: "e-1", Year: 2024, Month: 3})},
			{Topic: events.CompensationApprovedTopic, Value: []byte("{not json")},
			{Topic: events.PayslipReleasedTopic, Value: mustJSON(t, events.PayslipReleasedEvent{EmployeeID: "e-fail"})},
			{Topic: events.CompensationApprovedTopic, Value: mustJSON(t, events.CompensationApprovedEvent{EmployeeID: "e-2"})},
		},
	}
	mailer := &fakeMailer{failOn: "e-fail"}

	consumer.ConsumeNotifications(ctx, reader, mailer, zap.NewNop())

	assert.Len(t, mailer.sent, 2)
	assert.Equal(t, "e-1", mailer.sent[0].EmployeeID)
	assert.Equal(t, "e-2", mailer.sent[1].EmployeeID)
	// the undecodable message is committed, the failed delivery is not
	assert.Len(t, reader.committed, 3)
}
