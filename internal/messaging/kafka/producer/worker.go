package producer

import (
	"context"
	"time"

	"go-payroll/internal/messaging/kafka"

	"go.uber.org/zap"
)

type WorkerConfig struct {
	PollInterval time.Duration
	BatchSize    int
	// Retention is how long sent rows are kept. Zero disables purging.
	Retention     time.Duration
	PurgeInterval time.Duration
}

func (c WorkerConfig) withDefaults() WorkerConfig {
	if c.PollInterval <= 0 {
		c.PollInterval = 3 * time.Second
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 50
	}
	if c.PurgeInterval <= 0 {
		c.PurgeInterval = time.Hour
	}
	return c
}

// Relay moves outbox rows to Kafka. A row is marked sent only after the
// broker acknowledged it, so delivery is at least once.
type Relay struct {
	repo   kafka.OutboxRepository
	writer MessageWriter
	log    *zap.Logger
	cfg    WorkerConfig
	now    func() time.Time
}

func NewRelay(repo kafka.OutboxRepository, writer MessageWriter, logger *zap.Logger, cfg WorkerConfig) *Relay {
	if logger == nil {
		logger = zap.L()
	}
	return &Relay{
		repo:   repo,
		writer: writer,
		log:    logger.Named("kafka.producer.relay"),
		cfg:    cfg.withDefaults(),
		now:    time.Now,
	}
}

// Run polls until ctx is done.
func (r *Relay) Run(ctx context.Context) {
	poll := time.NewTicker(r.cfg.PollInterval)
	defer poll.Stop()
	purge := time.NewTicker(r.cfg.PurgeInterval)
	defer purge.Stop()

	r.log.Info("outbox relay started",
		zap.Duration("poll_interval", r.cfg.PollInterval),
		zap.Int("batch_size", r.cfg.BatchSize),
		zap.Duration("retention", r.cfg.Retention),
	)

	for {
		select {
		case <-ctx.Done():
			r.log.Info("outbox relay stopped")
			return
		case <-poll.C:
			if _, err := r.Flush(ctx); err != nil {
				r.log.Error("flush outbox failed", zap.Error(err))
			}
		case <-purge.C:
			if _, err := r.Purge(ctx); err != nil {
				r.log.Error("purge outbox failed", zap.Error(err))
			}
		}
	}
}

// Flush publishes one batch and returns how many rows were marked sent.
// Publish failures are recorded on the row and do not stop the batch.
func (r *Relay) Flush(ctx context.Context) (int, error) {
	events, err := r.repo.ListPending(ctx, r.cfg.BatchSize)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, event := range events {
		log := r.log.With(
			zap.String("outbox_id", event.ID),
			zap.String("event_type", event.EventType),
			zap.String("topic", event.Topic),
			zap.Int("retry_count", event.RetryCount),
		)

		if err := publishEvent(ctx, r.writer, event); err != nil {
			log.Warn("publish outbox event failed", zap.Error(err))
			if markErr := r.repo.MarkFailed(ctx, event.ID, err.Error()); markErr != nil {
				log.Error("mark outbox event failed", zap.Error(markErr))
			}
			if event.RetryCount+1 >= kafka.OutboxMaxAttempts {
				log.Error("outbox event parked as dead")
			}
			continue
		}

		if err := r.repo.MarkSent(ctx, event.ID); err != nil {
			log.Error("mark outbox event sent", zap.Error(err))
			continue
		}

		sent++
		log.Debug("outbox event sent")
	}

	return sent, nil
}

// Purge drops sent rows older than the configured retention.
func (r *Relay) Purge(ctx context.Context) (int64, error) {
	if r.cfg.Retention <= 0 {
		return 0, nil
	}
	n, err := r.repo.PurgeSent(ctx, r.now().Add(-r.cfg.Retention))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		r.log.Info("purged sent outbox events", zap.Int64("count", n))
	}
	return n, nil
}
