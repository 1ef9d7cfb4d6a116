package payslip

import (
	"context"
	"database/sql"
	"time"

	"go-payroll/internal/audit"
	"go-payroll/internal/compensation"
	"go-payroll/internal/domain"
	paysliperrors "go-payroll/internal/payslip/errors"
	"go-payroll/internal/shared/apperror"
	"go-payroll/internal/shared/contextutil"
	"go-payroll/internal/shared/money"
	"go-payroll/internal/workflow"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StructureSource resolves the approved compensation structure for a date.
// compensation.Service satisfies it.
type StructureSource interface {
	GetActive(ctx context.Context, companyID, employeeID string, asOf time.Time) (compensation.CompensationStructure, error)
}

//go:generate mockgen -source=payslip_service.go -destination=mock/payslip_service_mock.go -package=mock
type Service interface {
	Generate(ctx context.Context, companyID string, actor domain.Actor, req GeneratePayslipRequest) (PayslipResponse, error)
	Preview(ctx context.Context, companyID string, req GeneratePayslipRequest) (PayslipResponse, error)
	Regenerate(ctx context.Context, companyID string, actor domain.Actor, id string, req RegeneratePayslipRequest) (PayslipResponse, error)
	Approve(ctx context.Context, companyID string, actor domain.Actor, id string) (PayslipResponse, error)
	Release(ctx context.Context, companyID string, actor domain.Actor, id string) (PayslipResponse, error)
	GetByID(ctx context.Context, companyID string, actor domain.Actor, id string) (PayslipResponse, error)
	GetAllByEmployee(ctx context.Context, companyID string, actor domain.Actor, employeeID string) ([]PayslipResponse, error)
	Delete(ctx context.Context, companyID string, actor domain.Actor, id string) error
}

type service struct {
	db         *sql.DB
	repo       Repository
	structures StructureSource
	effects    *workflow.Effects
	logger     *zap.Logger
	now        func() time.Time
}

func NewService(db *sql.DB, repo Repository, structures StructureSource, effects *workflow.Effects, logger ...*zap.Logger) Service {
	l := zap.L().Named("payslip.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("payslip.service")
	}
	return &service{
		db:         db,
		repo:       repo,
		structures: structures,
		effects:    effects,
		logger:     l,
		now:        time.Now,
	}
}

func (s *service) compile(ctx context.Context, companyID string, in CompileInput) (Payslip, error) {
	if in.Year < 1 || in.Month < 1 || in.Month > 12 {
		return Payslip{}, paysliperrors.ErrInvalidPeriod
	}
	structure, err := s.structures.GetActive(ctx, companyID, in.EmployeeID, PeriodStart(in.Year, in.Month))
	if err != nil {
		return Payslip{}, err
	}
	return Compile(structure, in)
}

func (s *service) Generate(
	ctx context.Context,
	companyID string,
	actor domain.Actor,
	req GeneratePayslipRequest,
) (PayslipResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)
	log.Debug("generate payslip requested",
		zap.String("company_id", companyID),
		zap.String("employee_id", req.EmployeeID),
		zap.Int("year", req.Year),
		zap.Int("month", req.Month),
	)

	if _, err := uuid.Parse(companyID); err != nil {
		return PayslipResponse{}, paysliperrors.ErrInvalidCompanyID
	}
	if _, err := uuid.Parse(req.EmployeeID); err != nil {
		return PayslipResponse{}, paysliperrors.ErrInvalidEmployeeID
	}

	p, err := s.compile(ctx, companyID, compileInput(req))
	if err != nil {
		log.Warn("generate payslip compile failed", zap.String("employee_id", req.EmployeeID), zap.Error(err))
		return PayslipResponse{}, err
	}
	p.CreatedBy = actor.ID()
	assignIDs(&p, uuid.New())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("generate payslip begin tx failed", zap.Error(err))
		return PayslipResponse{}, apperror.Persistence(err)
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	exists, err := qtx.ExistsForPeriod(ctx, companyID, req.EmployeeID, req.Year, req.Month)
	if err != nil {
		return PayslipResponse{}, mapRepositoryError(err)
	}
	if exists {
		log.Warn("generate payslip duplicate period",
			zap.String("employee_id", req.EmployeeID),
			zap.Int("year", req.Year),
			zap.Int("month", req.Month),
		)
		return PayslipResponse{}, paysliperrors.ErrPayslipExists
	}

	if err := qtx.Create(ctx, &p); err != nil {
		log.Error("generate payslip persist failed", zap.String("employee_id", req.EmployeeID), zap.Error(err))
		return PayslipResponse{}, mapRepositoryError(err)
	}

	if err := tx.Commit(); err != nil {
		log.Error("generate payslip commit failed", zap.Error(err))
		return PayslipResponse{}, apperror.Persistence(err)
	}

	s.effects.Apply(ctx, workflow.Transition{
		Entity:     workflow.EntityPayslip,
		EntityID:   p.ID.String(),
		CompanyID:  companyID,
		EmployeeID: req.EmployeeID,
		Actor:      actor,
		Action:     audit.ActionCreate,
		To:         workflow.StatusPending,
		Year:       p.Year,
		Month:      p.Month,
	})

	log.Info("generate payslip success",
		zap.String("payslip_id", p.ID.String()),
		zap.String("employee_id", req.EmployeeID),
		zap.String("net", money.Format(p.Net)),
	)
	return mapToResponse(p), nil
}

func (s *service) Preview(ctx context.Context, companyID string, req GeneratePayslipRequest) (PayslipResponse, error) {
	p, err := s.compile(ctx, companyID, compileInput(req))
	if err != nil {
		return PayslipResponse{}, err
	}
	return mapToResponse(p), nil
}

func (s *service) Regenerate(
	ctx context.Context,
	companyID string,
	actor domain.Actor,
	id string,
	req RegeneratePayslipRequest,
) (PayslipResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)
	log.Debug("regenerate payslip requested", zap.String("company_id", companyID), zap.String("payslip_id", id))

	current, err := s.repo.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		return PayslipResponse{}, mapRepositoryError(err)
	}
	if err := ensureMutable(*current); err != nil {
		return PayslipResponse{}, err
	}
	if current.Status != StatusPending {
		return PayslipResponse{}, paysliperrors.ErrRegenerateOnlyPending
	}

	next, err := s.compile(ctx, companyID, CompileInput{
		EmployeeID:         current.EmployeeID.String(),
		Year:               current.Year,
		Month:              current.Month,
		LOPDays:            req.LOPDays,
		OverrideAllowances: req.OverrideAllowances,
		OverrideDeductions: req.OverrideDeductions,
	})
	if err != nil {
		log.Warn("regenerate payslip compile failed", zap.String("payslip_id", id), zap.Error(err))
		return PayslipResponse{}, err
	}
	next.CreatedBy = current.CreatedBy
	next.CreatedAt = current.CreatedAt
	assignIDs(&next, current.ID)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("regenerate payslip begin tx failed", zap.Error(err))
		return PayslipResponse{}, apperror.Persistence(err)
	}
	defer tx.Rollback()

	if err := s.repo.WithTx(tx).Recompute(ctx, &next, current.Version); err != nil {
		log.Warn("regenerate payslip persist failed", zap.String("payslip_id", id), zap.Error(err))
		return PayslipResponse{}, mapRepositoryError(err)
	}

	if err := tx.Commit(); err != nil {
		log.Error("regenerate payslip commit failed", zap.Error(err))
		return PayslipResponse{}, apperror.Persistence(err)
	}

	s.effects.Apply(ctx, workflow.Transition{
		Entity:     workflow.EntityPayslip,
		EntityID:   id,
		CompanyID:  companyID,
		EmployeeID: next.EmployeeID.String(),
		Actor:      actor,
		Action:     audit.ActionRegenerate,
		Details: map[string]any{
			"lop_days":     next.LOPDays,
			"previous_net": money.Format(current.Net),
			"net":          money.Format(next.Net),
		},
	})

	log.Info("regenerate payslip success", zap.String("payslip_id", id), zap.String("net", money.Format(next.Net)))
	return mapToResponse(next), nil
}

func (s *service) Approve(ctx context.Context, companyID string, actor domain.Actor, id string) (PayslipResponse, error) {
	return s.transition(ctx, companyID, actor, id, workflow.StatusApproved)
}

func (s *service) Release(ctx context.Context, companyID string, actor domain.Actor, id string) (PayslipResponse, error) {
	return s.transition(ctx, companyID, actor, id, workflow.StatusReleased)
}

func (s *service) transition(
	ctx context.Context,
	companyID string,
	actor domain.Actor,
	id string,
	to workflow.Status,
) (PayslipResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)
	log.Debug("payslip transition requested",
		zap.String("company_id", companyID),
		zap.String("payslip_id", id),
		zap.String("to", string(to)),
		zap.String("actor_role", actor.Role.String()),
	)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("payslip transition begin tx failed", zap.Error(err))
		return PayslipResponse{}, apperror.Persistence(err)
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	p, err := qtx.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		return PayslipResponse{}, mapRepositoryError(err)
	}
	if err := ensureMutable(*p); err != nil {
		log.Warn("payslip transition on released payslip", zap.String("payslip_id", id))
		return PayslipResponse{}, err
	}

	from := p.State()
	if err := workflow.Payslip.Authorize(actor, from, to); err != nil {
		log.Warn("payslip transition rejected",
			zap.String("payslip_id", id),
			zap.String("from", string(from)),
			zap.String("to", string(to)),
			zap.Error(err),
		)
		return PayslipResponse{}, err
	}

	now := s.now().UTC()
	actorID := actor.ID()
	action := audit.ActionApprove
	switch to {
	case workflow.StatusApproved:
		p.Status = StatusApproved
		p.ApprovedBy = &actorID
		p.ApprovedAt = &now
	case workflow.StatusReleased:
		p.Released = true
		p.ReleasedBy = &actorID
		p.ReleasedAt = &now
		action = audit.ActionRelease
	}

	if err := qtx.UpdateState(ctx, p, p.Version); err != nil {
		log.Warn("payslip transition persist failed", zap.String("payslip_id", id), zap.Error(err))
		return PayslipResponse{}, mapRepositoryError(err)
	}

	if err := tx.Commit(); err != nil {
		log.Error("payslip transition commit failed", zap.Error(err))
		return PayslipResponse{}, apperror.Persistence(err)
	}

	s.effects.Apply(ctx, workflow.Transition{
		Entity:     workflow.EntityPayslip,
		EntityID:   id,
		CompanyID:  companyID,
		EmployeeID: p.EmployeeID.String(),
		Actor:      actor,
		Action:     action,
		From:       from,
		To:         to,
		At:         now,
		Year:       p.Year,
		Month:      p.Month,
	})

	log.Info("payslip transition success",
		zap.String("payslip_id", id),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
	return mapToResponse(*p), nil
}

// GetByID hides unreleased and foreign payslips from employees.
func (s *service) GetByID(ctx context.Context, companyID string, actor domain.Actor, id string) (PayslipResponse, error) {
	p, err := s.repo.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		return PayslipResponse{}, mapRepositoryError(err)
	}
	if actor.Role == domain.RoleEmployee && (!actor.Owns(p.EmployeeID.String()) || !p.Released) {
		return PayslipResponse{}, paysliperrors.ErrPayslipNotFound
	}
	return mapToResponse(*p), nil
}

func (s *service) GetAllByEmployee(ctx context.Context, companyID string, actor domain.Actor, employeeID string) ([]PayslipResponse, error) {
	releasedOnly := false
	if actor.Role == domain.RoleEmployee {
		if !actor.Owns(employeeID) {
			return nil, paysliperrors.ErrForeignPayslips
		}
		releasedOnly = true
	}

	payslips, err := s.repo.FindAllByEmployee(ctx, companyID, employeeID, releasedOnly)
	if err != nil {
		return nil, mapRepositoryError(err)
	}

	out := make([]PayslipResponse, 0, len(payslips))
	for _, p := range payslips {
		out = append(out, mapToResponse(p))
	}
	return out, nil
}

func (s *service) Delete(ctx context.Context, companyID string, actor domain.Actor, id string) error {
	log := contextutil.GetLogger(ctx, s.logger)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("delete payslip begin tx failed", zap.Error(err))
		return apperror.Persistence(err)
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	p, err := qtx.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		return mapRepositoryError(err)
	}
	if err := ensureMutable(*p); err != nil {
		return err
	}
	if p.Status != StatusPending {
		return paysliperrors.ErrDeleteOnlyPending
	}

	if err := qtx.Delete(ctx, companyID, id); err != nil {
		log.Error("delete payslip persist failed", zap.String("payslip_id", id), zap.Error(err))
		return mapRepositoryError(err)
	}

	if err := tx.Commit(); err != nil {
		log.Error("delete payslip commit failed", zap.Error(err))
		return apperror.Persistence(err)
	}

	s.effects.Apply(ctx, workflow.Transition{
		Entity:     workflow.EntityPayslip,
		EntityID:   id,
		CompanyID:  companyID,
		EmployeeID: p.EmployeeID.String(),
		Actor:      actor,
		Action:     audit.ActionDelete,
		From:       workflow.StatusPending,
		Year:       p.Year,
		Month:      p.Month,
	})

	log.Info("delete payslip success", zap.String("payslip_id", id))
	return nil
}

func ensureMutable(p Payslip) error {
	if p.Released {
		return paysliperrors.ErrPayslipReleased
	}
	return nil
}

func compileInput(req GeneratePayslipRequest) CompileInput {
	return CompileInput{
		EmployeeID:         req.EmployeeID,
		Year:               req.Year,
		Month:              req.Month,
		LOPDays:            req.LOPDays,
		OverrideAllowances: req.OverrideAllowances,
		OverrideDeductions: req.OverrideDeductions,
	}
}

func assignIDs(p *Payslip, id uuid.UUID) {
	p.ID = id
	for i := range p.LineItems {
		p.LineItems[i].ID = uuid.New()
		p.LineItems[i].PayslipID = id
	}
}

func mapToResponse(p Payslip) PayslipResponse {
	resp := PayslipResponse{
		CompanyID:    p.CompanyID.String(),
		EmployeeID:   p.EmployeeID.String(),
		StructureID:  p.StructureID.String(),
		Year:         p.Year,
		Month:        p.Month,
		MonthlyBasic: money.Format(p.MonthlyBasic),
		MonthlyHRA:   money.Format(p.MonthlyHRA),
		Allowances:   mapLines(p.Allowances()),
		Deductions:   mapLines(p.Deductions()),
		Tax:          money.Format(p.Tax),
		LOPDays:      p.LOPDays,
		Net:          money.Format(p.Net),
		Status:       string(p.State()),
		Released:     p.Released,
		Version:      p.Version,
		CreatedBy:    p.CreatedBy,
		ApprovedBy:   p.ApprovedBy,
		ReleasedBy:   p.ReleasedBy,
		ApprovedAt:   formatTime(p.ApprovedAt),
		ReleasedAt:   formatTime(p.ReleasedAt),
		Breakdown:    mapBreakdown(p.Breakdown()),
	}
	if p.ID != uuid.Nil {
		resp.ID = p.ID.String()
	}
	return resp
}

// ToResponse exposes the response mapping to callers holding an entity.
func ToResponse(p Payslip) PayslipResponse {
	return mapToResponse(p)
}

func mapBreakdown(b Breakdown) BreakdownResponse {
	resp := BreakdownResponse{
		DaysInMonth:        b.DaysInMonth,
		LOPDays:            b.LOPDays,
		MonthlyBasic:       money.Format(b.MonthlyBasic),
		MonthlyHRA:         money.Format(b.MonthlyHRA),
		TotalAllowances:    money.Format(b.TotalAllowances),
		TotalDeductions:    money.Format(b.TotalDeductions),
		MonthlyAllowances:  money.Format(b.MonthlyAllowances),
		MonthlyDeductions:  money.Format(b.MonthlyDeductions),
		TotalPayable:       money.Format(b.TotalPayable),
		DailyRate:          money.Format(b.DailyRate),
		LOPAmount:          money.Format(b.LOPAmount),
		PreTax:             money.Format(b.PreTax),
		TaxPercent:         money.Format(b.TaxPercent),
		Tax:                money.Format(b.Tax),
		Net:                money.Format(b.Net),
		SnapshotAllowances: money.Format(b.SnapshotAllowances),
		SnapshotDeductions: money.Format(b.SnapshotDeductions),
		SnapshotMismatch:   b.SnapshotMismatch(),
	}
	if b.AllowancesOverridden {
		v := resp.TotalAllowances
		resp.OverrideAllowances = &v
	}
	if b.DeductionsOverridden {
		v := resp.TotalDeductions
		resp.OverrideDeductions = &v
	}
	return resp
}

func mapLines(items []LineItem) []LineItemResponse {
	out := make([]LineItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, LineItemResponse{
			Label:     item.Label,
			Amount:    money.Format(item.Amount),
			Synthetic: item.Synthetic,
		})
	}
	return out
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	v := t.Format(time.RFC3339)
	return &v
}
