package notification

import (
	"context"
	"fmt"

	"go-payroll/internal/events"

	"go.uber.org/zap"
)

type Email struct {
	EmployeeID string
	CompanyID  string
	Subject    string
	Body       string
}

// Mailer is the email transport. SMTP delivery lives outside this service.
type Mailer interface {
	Send(ctx context.Context, email Email) error
}

type LogMailer struct {
	logger *zap.Logger
}

func NewLogMailer(logger ...*zap.Logger) *LogMailer {
	l := zap.L().Named("notification.mailer")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("notification.mailer")
	}
	return &LogMailer{logger: l}
}

func (m *LogMailer) Send(ctx context.Context, email Email) error {
	m.logger.Info("email queued",
		zap.String("employee_id", email.EmployeeID),
		zap.String("company_id", email.CompanyID),
		zap.String("subject", email.Subject),
	)
	return nil
}

func CompensationApprovedEmail(e events.CompensationApprovedEvent) Email {
	return Email{
		EmployeeID: e.EmployeeID,
		CompanyID:  e.CompanyID,
		Subject:    "Your compensation structure has been approved",
		Body:       fmt.Sprintf("A new compensation structure effective %s has been approved.", e.EffectiveFrom),
	}
}

func PayslipReleasedEmail(e events.PayslipReleasedEvent) Email {
	return Email{
		EmployeeID: e.EmployeeID,
		CompanyID:  e.CompanyID,
		Subject:    fmt.Sprintf("Payslip for %04d-%02d is available", e.Year, e.Month),
		Body:       "Your payslip has been released and can be viewed in the employee portal.",
	}
}
