package producer

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-payroll/internal/messaging/kafka"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeOutboxRepository struct {
	pending  []kafka.OutboxEvent
	listErr  error
	sent     []string
	failed   map[string]string
	purgedAt time.Time
	purged   int64
}

func (f *fakeOutboxRepository) Create(ctx context.Context, event kafka.OutboxEvent) error {
	return nil
}

func (f *fakeOutboxRepository) ListPending(ctx context.Context, limit int) ([]kafka.OutboxEvent, error) {
	if len(f.pending) > limit {
		return f.pending[:limit], f.listErr
	}
	return f.pending, f.listErr
}

func (f *fakeOutboxRepository) MarkSent(ctx context.Context, id string) error {
	f.sent = append(f.sent, id)
	return nil
}

func (f *fakeOutboxRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	if f.failed == nil {
		f.failed = map[string]string{}
	}
	f.failed[id] = reason
	return nil
}

func (f *fakeOutboxRepository) PurgeSent(ctx context.Context, before time.Time) (int64, error) {
	f.purgedAt = before
	return f.purged, nil
}

type fakeWriter struct {
	written []kafkago.Message
	failOn  string
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafkago.Message) error {
	for _, m := range msgs {
		if string(m.Key) == w.failOn {
			return errors.New("broker unavailable")
		}
		w.written = append(w.written, m)
	}
	return nil
}

func header(m kafkago.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestRelay_Flush(t *testing.T) {
	repo := &fakeOutboxRepository{pending: []kafka.OutboxEvent{
		{ID: "evt-1", AggregateID: "p-1", CompanyID: "c-1", RequestID: "req-1", Topic: "t", EventType: "payslip_released", Payload: []byte("{}")},
		{ID: "evt-2", AggregateID: "p-2", Topic: "t", EventType: "payslip_released", Payload: []byte("{}")},
	}}
	writer := &fakeWriter{failOn: "p-2"}

	sent, err := NewRelay(repo, writer, zap.NewNop(), WorkerConfig{}).Flush(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, []string{"evt-1"}, repo.sent)
	assert.Equal(t, "broker unavailable", repo.failed["evt-2"])
	assert.Len(t, writer.written, 1)

	msg := writer.written[0]
	assert.Equal(t, "t", msg.Topic)
	assert.Equal(t, "p-1", string(msg.Key))
	assert.Equal(t, "payslip_released", header(msg, "event_type"))
	assert.Equal(t, "req-1", header(msg, "request_id"))
	assert.Equal(t, "c-1", header(msg, "company_id"))
}

func TestRelay_FlushRespectsBatchSize(t *testing.T) {
	repo := &fakeOutboxRepository{pending: []kafka.OutboxEvent{
		{ID: "a", AggregateID: "1", Topic: "t", Payload: []byte("{}")},
		{ID: "b", AggregateID: "2", Topic: "t", Payload: []byte("{}")},
		{ID: "c", AggregateID: "3", Topic: "t", Payload: []byte("{}")},
	}}

	sent, err := NewRelay(repo, &fakeWriter{}, zap.NewNop(), WorkerConfig{BatchSize: 2}).Flush(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Equal(t, []string{"a", "b"}, repo.sent)
}

func TestRelay_FlushListError(t *testing.T) {
	repo := &fakeOutboxRepository{listErr: errors.New("db down")}

	sent, err := NewRelay(repo, &fakeWriter{}, zap.NewNop(), WorkerConfig{}).Flush(context.Background())

	assert.Error(t, err)
	assert.Zero(t, sent)
}

func TestRelay_Purge(t *testing.T) {
	now := time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)

	t.Run("disabled without retention", func(t *testing.T) {
		repo := &fakeOutboxRepository{purged: 3}
		n, err := NewRelay(repo, &fakeWriter{}, zap.NewNop(), WorkerConfig{}).Purge(context.Background())

		assert.NoError(t, err)
		assert.Zero(t, n)
		assert.True(t, repo.purgedAt.IsZero())
	})

	t.Run("cutoff is now minus retention", func(t *testing.T) {
		repo := &fakeOutboxRepository{purged: 3}
		relay := NewRelay(repo, &fakeWriter{}, zap.NewNop(), WorkerConfig{Retention: 24 * time.Hour})
		relay.now = func() time.Time { return now }

		n, err := relay.Purge(context.Background())

		assert.NoError(t, err)
		assert.Equal(t, int64(3), n)
		assert.Equal(t, now.Add(-24*time.Hour), repo.purgedAt)
	})
}

func TestRelay_RunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		NewRelay(&fakeOutboxRepository{}, &fakeWriter{}, zap.NewNop(), WorkerConfig{}).Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("relay did not stop")
	}
}
