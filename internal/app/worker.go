package app

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"go-payroll/internal/config"
	"go-payroll/internal/messaging/kafka"
	"go-payroll/internal/messaging/kafka/producer"
	"go-payroll/internal/shared/connection"

	"go.uber.org/zap"
)

var errNoBroker = errors.New("KAFKA_BROKER is required")

// untilSignal returns a context cancelled by SIGINT or SIGTERM.
func untilSignal() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// RunWorker relays outbox rows (audit entries and notifications) to Kafka
// and purges old sent rows.
func RunWorker(cfg config.Config) error {
	logger := zap.L().Named("app.worker")
	if cfg.Kafka.Broker == "" {
		return errNoBroker
	}

	gormDB, err := connection.ConnectGORMWithRetry(cfg.Database)
	if err != nil {
		return err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	writer, err := connection.ConnectKafkaWithRetry(cfg.Kafka.Broker, cfg.Database.MaxRetries)
	if err != nil {
		return err
	}
	defer writer.Close()

	relay := producer.NewRelay(kafka.NewOutboxRepository(sqlDB), writer, logger, producer.WorkerConfig{
		PollInterval: cfg.Kafka.OutboxPollInterval,
		BatchSize:    cfg.Kafka.OutboxBatchSize,
		Retention:    cfg.Kafka.OutboxRetention,
	})

	ctx, stop := untilSignal()
	defer stop()

	relay.Run(ctx)
	logger.Info("worker shut down")
	return nil
}
