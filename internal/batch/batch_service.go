package batch

import (
	"context"

	batcherrors "go-payroll/internal/batch/errors"
	"go-payroll/internal/compensation"
	"go-payroll/internal/domain"
	"go-payroll/internal/payslip"
	"go-payroll/internal/shared/apperror"
	"go-payroll/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const MaxEmployees = 500

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type CompensationCreator interface {
	Create(ctx context.Context, companyID string, actor domain.Actor, req compensation.CreateCompensationRequest) (compensation.CompensationResponse, error)
}

type PayslipGenerator interface {
	Generate(ctx context.Context, companyID string, actor domain.Actor, req payslip.GeneratePayslipRequest) (payslip.PayslipResponse, error)
}

//go:generate mockgen -source=batch_service.go -destination=mock/batch_service_mock.go -package=mock
type Service interface {
	AssignTemplate(ctx context.Context, companyID string, actor domain.Actor, req AssignTemplateRequest) (Result, error)
	GeneratePayslips(ctx context.Context, companyID string, actor domain.Actor, req GeneratePayslipsRequest) (Result, error)
}

type service struct {
	store         Pinger
	compensations CompensationCreator
	payslips      PayslipGenerator
	logger        *zap.Logger
}

func NewService(store Pinger, compensations CompensationCreator, payslips PayslipGenerator, logger ...*zap.Logger) Service {
	l := zap.L().Named("batch.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("batch.service")
	}
	return &service{
		store:         store,
		compensations: compensations,
		payslips:      payslips,
		logger:        l,
	}
}

// AssignTemplate creates one Pending structure per employee. Every employee
// commits or fails on its own; outcomes keep the input order.
func (s *service) AssignTemplate(
	ctx context.Context,
	companyID string,
	actor domain.Actor,
	req AssignTemplateRequest,
) (Result, error) {
	log := contextutil.GetLogger(ctx, s.logger)
	log.Debug("batch assign template requested",
		zap.String("company_id", companyID),
		zap.Int("employees", len(req.EmployeeIDs)),
	)

	if err := s.precheck(ctx, companyID, req.EmployeeIDs); err != nil {
		return Result{}, err
	}
	if _, err := compensation.ParseTemplate(req.TemplateRequest); err != nil {
		log.Warn("batch assign template rejected", zap.Error(err))
		return Result{}, err
	}

	outcomes := make([]Outcome, 0, len(req.EmployeeIDs))
	for _, employeeID := range req.EmployeeIDs {
		resp, err := s.compensations.Create(ctx, companyID, actor, compensation.CreateCompensationRequest{
			EmployeeID:      employeeID,
			TemplateRequest: req.TemplateRequest,
		})
		outcomes = append(outcomes, classify(employeeID, resp.ID, err))
		if err != nil {
			log.Warn("batch assign template item failed", zap.String("employee_id", employeeID), zap.Error(err))
		}
	}

	result := summarize(outcomes)
	log.Info("batch assign template done",
		zap.String("company_id", companyID),
		zap.Int("created", result.Summary.Created),
		zap.Int("conflict", result.Summary.Conflict),
		zap.Int("error", result.Summary.Error),
	)
	return result, nil
}

// GeneratePayslips compiles and stores one payslip per employee for the
// same period.
func (s *service) GeneratePayslips(
	ctx context.Context,
	companyID string,
	actor domain.Actor,
	req GeneratePayslipsRequest,
) (Result, error) {
	log := contextutil.GetLogger(ctx, s.logger)
	log.Debug("batch generate payslips requested",
		zap.String("company_id", companyID),
		zap.Int("year", req.Year),
		zap.Int("month", req.Month),
		zap.Int("employees", len(req.EmployeeIDs)),
	)

	if err := s.precheck(ctx, companyID, req.EmployeeIDs); err != nil {
		return Result{}, err
	}

	outcomes := make([]Outcome, 0, len(req.EmployeeIDs))
	for _, employeeID := range req.EmployeeIDs {
		resp, err := s.payslips.Generate(ctx, companyID, actor, payslip.GeneratePayslipRequest{
			EmployeeID:         employeeID,
			Year:               req.Year,
			Month:              req.Month,
			LOPDays:            req.LOPDays[employeeID],
			OverrideAllowances: req.OverrideAllowances,
			OverrideDeductions: req.OverrideDeductions,
		})
		outcomes = append(outcomes, classify(employeeID, resp.ID, err))
		if err != nil {
			log.Warn("batch generate payslip item failed", zap.String("employee_id", employeeID), zap.Error(err))
		}
	}

	result := summarize(outcomes)
	log.Info("batch generate payslips done",
		zap.String("company_id", companyID),
		zap.Int("created", result.Summary.Created),
		zap.Int("conflict", result.Summary.Conflict),
		zap.Int("error", result.Summary.Error),
	)
	return result, nil
}

func (s *service) precheck(ctx context.Context, companyID string, employeeIDs []string) error {
	if _, err := uuid.Parse(companyID); err != nil {
		return batcherrors.ErrInvalidCompanyID
	}
	if len(employeeIDs) == 0 {
		return batcherrors.ErrEmptyBatch
	}
	if len(employeeIDs) > MaxEmployees {
		return batcherrors.ErrBatchTooLarge
	}
	if err := s.store.PingContext(ctx); err != nil {
		contextutil.GetLogger(ctx, s.logger).Error("batch store unreachable", zap.Error(err))
		return apperror.Persistence(err)
	}
	return nil
}

func classify(employeeID, id string, err error) Outcome {
	switch {
	case err == nil:
		return Outcome{EmployeeID: employeeID, Status: OutcomeCreated, ID: id}
	case apperror.IsConflict(err):
		return Outcome{EmployeeID: employeeID, Status: OutcomeConflict, Message: apperror.ToHTTP(err).Message}
	default:
		return Outcome{EmployeeID: employeeID, Status: OutcomeError, Message: apperror.ToHTTP(err).Message}
	}
}
