package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"go-payroll/internal/events"
	"go-payroll/internal/notification"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageReader is the slice of *kafkago.Reader the consumer loop needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
}

var NotificationTopics = []string{
	events.CompensationApprovedTopic,
	events.PayslipReleasedTopic,
}

// ConsumeNotifications turns workflow events into emails. Undecodable
// messages are committed and skipped; delivery failures are left uncommitted
// so the group redelivers them.
func ConsumeNotifications(
	ctx context.Context,
	reader MessageReader,
	mailer notification.Mailer,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.notification")
	log.Info("notification consumer started", zap.Strings("topics", NotificationTopics))

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("notification consumer stopped")
				return
			}
			log.Error("fetch notification message failed", zap.Error(err))
			continue
		}

		email, err := decodeEmail(msg)
		if err != nil {
			log.Error("decode notification event failed",
				zap.String("topic", msg.Topic),
				zap.Error(err),
			)
			if commitErr := reader.CommitMessages(ctx, msg); commitErr != nil {
				log.Error("commit invalid notification event failed", zap.Error(commitErr))
			}
			continue
		}

		if err := mailer.Send(ctx, email); err != nil {
			log.Error("send notification email failed",
				zap.String("topic", msg.Topic),
				zap.String("employee_id", email.EmployeeID),
				zap.Error(err),
			)
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit notification message failed", zap.Error(err))
			continue
		}

		log.Info("notification delivered",
			zap.String("topic", msg.Topic),
			zap.String("employee_id", email.EmployeeID),
			zap.String("company_id", email.CompanyID),
		)
	}
}

func decodeEmail(msg kafkago.Message) (notification.Email, error) {
	switch msg.Topic {
	case events.CompensationApprovedTopic:
		var event events.CompensationApprovedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			return notification.Email{}, err
		}
		return notification.CompensationApprovedEmail(event), nil
	case events.PayslipReleasedTopic:
		var event events.PayslipReleasedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			return notification.Email{}, err
		}
		return notification.PayslipReleasedEmail(event), nil
	default:
		return notification.Email{}, fmt.Errorf("unexpected topic %q", msg.Topic)
	}
}
