package app

import (
	"go-payroll/internal/config"
	"go-payroll/internal/messaging/kafka/consumer"
	"go-payroll/internal/notification"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// RunConsumer delivers approval and release notifications until the process
// is signalled.
func RunConsumer(cfg config.Config) error {
	logger := zap.L().Named("app.consumer")
	if cfg.Kafka.Broker == "" {
		return errNoBroker
	}

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{cfg.Kafka.Broker},
		GroupID:     cfg.Kafka.GroupID,
		GroupTopics: consumer.NotificationTopics,
		StartOffset: kafkago.FirstOffset,
	})
	defer reader.Close()

	ctx, stop := untilSignal()
	defer stop()

	consumer.ConsumeNotifications(ctx, reader, notification.NewLogMailer(), logger)
	logger.Info("consumer shut down")
	return nil
}
