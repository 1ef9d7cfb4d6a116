package compensation

import (
	"context"
	"database/sql"
	"time"

	"go-payroll/internal/audit"
	compensationerrors "go-payroll/internal/compensation/errors"
	"go-payroll/internal/domain"
	"go-payroll/internal/shared/apperror"
	"go-payroll/internal/shared/contextutil"
	"go-payroll/internal/shared/money"
	"go-payroll/internal/workflow"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const dateLayout = "2006-01-02"

//go:generate mockgen -source=compensation_service.go -destination=mock/compensation_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, companyID string, actor domain.Actor, req CreateCompensationRequest) (CompensationResponse, error)
	GetByID(ctx context.Context, companyID, id string) (CompensationResponse, error)
	GetAllByEmployee(ctx context.Context, companyID, employeeID string) ([]CompensationResponse, error)
	GetActive(ctx context.Context, companyID, employeeID string, asOf time.Time) (CompensationStructure, error)
	Approve(ctx context.Context, companyID string, actor domain.Actor, id string) (CompensationResponse, error)
	Supersede(ctx context.Context, companyID string, actor domain.Actor, id string, req SupersedeCompensationRequest) (CompensationResponse, error)
	Delete(ctx context.Context, companyID string, actor domain.Actor, id string) error
}

// Terms is a validated TemplateRequest.
type Terms struct {
	Basic         decimal.Decimal
	HRA           decimal.Decimal
	TaxPercent    decimal.Decimal
	Allowances    []LineItemRequest
	Deductions    []LineItemRequest
	EffectiveFrom time.Time
	EffectiveTo   *time.Time
}

type service struct {
	db      *sql.DB
	repo    Repository
	effects *workflow.Effects
	sf      *singleflight.Group
	logger  *zap.Logger
	now     func() time.Time
}

func NewService(db *sql.DB, repo Repository, effects *workflow.Effects, logger ...*zap.Logger) Service {
	l := zap.L().Named("compensation.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("compensation.service")
	}
	return &service{
		db:      db,
		repo:    repo,
		effects: effects,
		sf:      &singleflight.Group{},
		logger:  l,
		now:     time.Now,
	}
}

// ParseTemplate validates amounts, tax percent and the effective window.
func ParseTemplate(req TemplateRequest) (Terms, error) {
	if req.Basic.IsNegative() || req.HRA.IsNegative() {
		return Terms{}, compensationerrors.ErrNegativeAmount
	}
	if req.TaxPercent.IsNegative() || req.TaxPercent.GreaterThan(money.Hundred) {
		return Terms{}, compensationerrors.ErrInvalidTaxPercent
	}
	for _, items := range [][]LineItemRequest{req.Allowances, req.Deductions} {
		for _, item := range items {
			if item.Label == "" {
				return Terms{}, compensationerrors.ErrInvalidLineItem
			}
			if item.Amount.IsNegative() {
				return Terms{}, compensationerrors.ErrNegativeAmount
			}
		}
	}

	from, err := time.Parse(dateLayout, req.EffectiveFrom)
	if err != nil {
		return Terms{}, compensationerrors.ErrInvalidDateFormat
	}

	var to *time.Time
	if req.EffectiveTo != "" {
		parsed, err := time.Parse(dateLayout, req.EffectiveTo)
		if err != nil {
			return Terms{}, compensationerrors.ErrInvalidDateFormat
		}
		if !from.Before(parsed) {
			return Terms{}, compensationerrors.ErrInvalidDateRange
		}
		to = &parsed
	}

	return Terms{
		Basic:         money.Round(req.Basic),
		HRA:           money.Round(req.HRA),
		TaxPercent:    req.TaxPercent.Round(2),
		Allowances:    req.Allowances,
		Deductions:    req.Deductions,
		EffectiveFrom: from,
		EffectiveTo:   to,
	}, nil
}

func (s *service) Create(
	ctx context.Context,
	companyID string,
	actor domain.Actor,
	req CreateCompensationRequest,
) (CompensationResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)
	log.Debug("create compensation requested",
		zap.String("company_id", companyID),
		zap.String("employee_id", req.EmployeeID),
	)

	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		return CompensationResponse{}, compensationerrors.ErrInvalidCompanyID
	}
	employeeUUID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		return CompensationResponse{}, compensationerrors.ErrInvalidEmployeeID
	}
	terms, err := ParseTemplate(req.TemplateRequest)
	if err != nil {
		log.Warn("create compensation invalid template", zap.String("employee_id", req.EmployeeID), zap.Error(err))
		return CompensationResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("create compensation begin tx failed", zap.Error(err))
		return CompensationResponse{}, apperror.Persistence(err)
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	if err := lockEmployee(ctx, qtx, companyID, req.EmployeeID); err != nil {
		return CompensationResponse{}, err
	}

	if err := s.checkOverlap(ctx, qtx, companyID, req.EmployeeID, terms, ""); err != nil {
		log.Warn("create compensation overlap",
			zap.String("employee_id", req.EmployeeID),
			zap.Time("effective_from", terms.EffectiveFrom),
			zap.Error(err),
		)
		return CompensationResponse{}, err
	}

	structure := newStructure(companyUUID, employeeUUID, actor.ID(), terms)
	if err := qtx.Create(ctx, structure); err != nil {
		log.Error("create compensation persist failed", zap.String("employee_id", req.EmployeeID), zap.Error(err))
		return CompensationResponse{}, mapRepositoryError(err)
	}

	if err := tx.Commit(); err != nil {
		log.Error("create compensation commit failed", zap.Error(err))
		return CompensationResponse{}, apperror.Persistence(err)
	}

	s.effects.Apply(ctx, workflow.Transition{
		Entity:     workflow.EntityCompensation,
		EntityID:   structure.ID.String(),
		CompanyID:  companyID,
		EmployeeID: req.EmployeeID,
		Actor:      actor,
		Action:     audit.ActionCreate,
		To:         workflow.StatusPending,
	})

	log.Info("create compensation success",
		zap.String("compensation_id", structure.ID.String()),
		zap.String("employee_id", req.EmployeeID),
	)
	return mapToResponse(*structure), nil
}

func (s *service) GetByID(ctx context.Context, companyID, id string) (CompensationResponse, error) {
	structure, err := s.repo.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		return CompensationResponse{}, mapRepositoryError(err)
	}
	return mapToResponse(*structure), nil
}

func (s *service) GetAllByEmployee(ctx context.Context, companyID, employeeID string) ([]CompensationResponse, error) {
	structures, err := s.repo.FindAllByEmployee(ctx, companyID, employeeID)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	return mapToListResponse(structures), nil
}

// GetActive returns the single approved structure covering asOf. Concurrent
// lookups for the same key share one query.
func (s *service) GetActive(ctx context.Context, companyID, employeeID string, asOf time.Time) (CompensationStructure, error) {
	asOf = truncateDate(asOf)
	key := companyID + ":" + employeeID + ":" + asOf.Format(dateLayout)

	// The shared lookup must outlive any single caller; each caller still
	// stops waiting when its own ctx ends.
	ch := s.sf.DoChan(key, func() (interface{}, error) {
		return s.repo.FindApprovedCovering(context.WithoutCancel(ctx), companyID, employeeID, asOf)
	})
	var res singleflight.Result
	select {
	case <-ctx.Done():
		return CompensationStructure{}, apperror.Persistence(ctx.Err())
	case res = <-ch:
	}
	if res.Err != nil {
		s.logger.Error("get active compensation failed",
			zap.String("company_id", companyID),
			zap.String("employee_id", employeeID),
			zap.Error(res.Err),
		)
		return CompensationStructure{}, mapRepositoryError(res.Err)
	}

	var structures []CompensationStructure
	for _, st := range res.Val.([]CompensationStructure) {
		if st.Covers(asOf) {
			structures = append(structures, st)
		}
	}
	s.logger.Debug("get active compensation",
		zap.String("employee_id", employeeID),
		zap.Int("matches", len(structures)),
		zap.Bool("shared", res.Shared),
	)

	switch len(structures) {
	case 0:
		return CompensationStructure{}, compensationerrors.ErrNoActiveCompensation
	case 1:
		return structures[0], nil
	default:
		s.logger.Error("more than one approved compensation covers date",
			zap.String("employee_id", employeeID),
			zap.String("as_of", asOf.Format(dateLayout)),
		)
		return CompensationStructure{}, compensationerrors.ErrAmbiguousActive
	}
}

func (s *service) Approve(
	ctx context.Context,
	companyID string,
	actor domain.Actor,
	id string,
) (CompensationResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)
	log.Debug("approve compensation requested",
		zap.String("company_id", companyID),
		zap.String("compensation_id", id),
		zap.String("actor_role", actor.Role.String()),
	)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("approve compensation begin tx failed", zap.Error(err))
		return CompensationResponse{}, apperror.Persistence(err)
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	structure, err := qtx.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		return CompensationResponse{}, mapRepositoryError(err)
	}

	from := workflow.Status(structure.Status)
	if err := workflow.Compensation.Authorize(actor, from, workflow.StatusApproved); err != nil {
		log.Warn("approve compensation rejected",
			zap.String("compensation_id", id),
			zap.String("status", structure.Status),
			zap.Error(err),
		)
		return CompensationResponse{}, err
	}

	if err := lockEmployee(ctx, qtx, companyID, structure.EmployeeID.String()); err != nil {
		return CompensationResponse{}, err
	}

	var superseded *CompensationStructure
	if structure.SupersedesID != nil {
		superseded, err = s.closeSuperseded(ctx, qtx, companyID, structure)
		if err != nil {
			log.Warn("approve compensation close superseded failed",
				zap.String("compensation_id", id),
				zap.Error(err),
			)
			return CompensationResponse{}, err
		}
	}

	excluded := ""
	if superseded != nil {
		excluded = superseded.ID.String()
	}
	overlap, err := qtx.HasOverlapping(ctx, companyID, structure.EmployeeID.String(), StatusApproved,
		structure.EffectiveFrom, structure.EffectiveTo, structure.ID.String(), excluded)
	if err != nil {
		return CompensationResponse{}, mapRepositoryError(err)
	}
	if overlap {
		log.Warn("approve compensation overlaps approved structure", zap.String("compensation_id", id))
		return CompensationResponse{}, compensationerrors.ErrApprovedOverlap
	}

	now := s.now().UTC()
	approver := actor.ID()
	structure.Status = StatusApproved
	structure.ApprovedBy = &approver
	structure.ApprovedAt = &now

	if err := qtx.Approve(ctx, structure, structure.Version); err != nil {
		log.Warn("approve compensation persist failed", zap.String("compensation_id", id), zap.Error(err))
		return CompensationResponse{}, mapRepositoryError(err)
	}

	if err := tx.Commit(); err != nil {
		log.Error("approve compensation commit failed", zap.Error(err))
		return CompensationResponse{}, apperror.Persistence(err)
	}

	if superseded != nil {
		s.effects.Apply(ctx, workflow.Transition{
			Entity:     workflow.EntityCompensation,
			EntityID:   superseded.ID.String(),
			CompanyID:  companyID,
			EmployeeID: superseded.EmployeeID.String(),
			Actor:      actor,
			Action:     audit.ActionSupersede,
			At:         now,
			Details: map[string]any{
				"superseded_by": structure.ID.String(),
				"effective_to":  superseded.EffectiveTo.Format(dateLayout),
			},
		})
	}
	s.effects.Apply(ctx, workflow.Transition{
		Entity:        workflow.EntityCompensation,
		EntityID:      structure.ID.String(),
		CompanyID:     companyID,
		EmployeeID:    structure.EmployeeID.String(),
		Actor:         actor,
		Action:        audit.ActionApprove,
		From:          from,
		To:            workflow.StatusApproved,
		At:            now,
		EffectiveFrom: structure.EffectiveFrom.Format(dateLayout),
	})

	log.Info("approve compensation success",
		zap.String("compensation_id", id),
		zap.String("employee_id", structure.EmployeeID.String()),
	)
	return mapToResponse(*structure), nil
}

// closeSuperseded ends the superseded structure's window the day before the
// new one starts. Terms of the old structure are untouched.
func (s *service) closeSuperseded(
	ctx context.Context,
	qtx Repository,
	companyID string,
	structure *CompensationStructure,
) (*CompensationStructure, error) {
	old, err := qtx.FindByIDAndCompany(ctx, companyID, structure.SupersedesID.String())
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	if !old.IsApproved() {
		return nil, compensationerrors.ErrSupersededChanged
	}

	closeAt := structure.EffectiveFrom.AddDate(0, 0, -1)
	if closeAt.Before(old.EffectiveFrom) {
		return nil, compensationerrors.ErrSupersedeWindow
	}
	if old.EffectiveTo == nil || old.EffectiveTo.After(closeAt) {
		old.EffectiveTo = &closeAt
		if err := qtx.CloseWindow(ctx, old, old.Version); err != nil {
			return nil, mapRepositoryError(err)
		}
	}
	return old, nil
}

func (s *service) Supersede(
	ctx context.Context,
	companyID string,
	actor domain.Actor,
	id string,
	req SupersedeCompensationRequest,
) (CompensationResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)
	log.Debug("supersede compensation requested",
		zap.String("company_id", companyID),
		zap.String("compensation_id", id),
	)

	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		return CompensationResponse{}, compensationerrors.ErrInvalidCompanyID
	}
	terms, err := ParseTemplate(req.TemplateRequest)
	if err != nil {
		log.Warn("supersede compensation invalid template", zap.Error(err))
		return CompensationResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("supersede compensation begin tx failed", zap.Error(err))
		return CompensationResponse{}, apperror.Persistence(err)
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	old, err := qtx.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		return CompensationResponse{}, mapRepositoryError(err)
	}
	if !old.IsApproved() {
		return CompensationResponse{}, compensationerrors.ErrSupersedeOnlyApproved
	}
	if !terms.EffectiveFrom.After(old.EffectiveFrom) {
		return CompensationResponse{}, compensationerrors.ErrSupersedeWindow
	}

	employeeID := old.EmployeeID.String()
	if err := lockEmployee(ctx, qtx, companyID, employeeID); err != nil {
		return CompensationResponse{}, err
	}
	if err := s.checkOverlap(ctx, qtx, companyID, employeeID, terms, old.ID.String()); err != nil {
		log.Warn("supersede compensation overlap", zap.String("compensation_id", id), zap.Error(err))
		return CompensationResponse{}, err
	}

	structure := newStructure(companyUUID, old.EmployeeID, actor.ID(), terms)
	supersedes := old.ID
	structure.SupersedesID = &supersedes

	if err := qtx.Create(ctx, structure); err != nil {
		log.Error("supersede compensation persist failed", zap.Error(err))
		return CompensationResponse{}, mapRepositoryError(err)
	}

	if err := tx.Commit(); err != nil {
		log.Error("supersede compensation commit failed", zap.Error(err))
		return CompensationResponse{}, apperror.Persistence(err)
	}

	s.effects.Apply(ctx, workflow.Transition{
		Entity:     workflow.EntityCompensation,
		EntityID:   structure.ID.String(),
		CompanyID:  companyID,
		EmployeeID: employeeID,
		Actor:      actor,
		Action:     audit.ActionCreate,
		To:         workflow.StatusPending,
		Details:    map[string]any{"supersedes_id": old.ID.String()},
	})

	log.Info("supersede compensation success",
		zap.String("compensation_id", structure.ID.String()),
		zap.String("supersedes_id", old.ID.String()),
	)
	return mapToResponse(*structure), nil
}

func (s *service) Delete(ctx context.Context, companyID string, actor domain.Actor, id string) error {
	log := contextutil.GetLogger(ctx, s.logger)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("delete compensation begin tx failed", zap.Error(err))
		return apperror.Persistence(err)
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	structure, err := qtx.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		return mapRepositoryError(err)
	}
	if structure.Status != StatusPending {
		log.Warn("delete compensation rejected", zap.String("compensation_id", id), zap.String("status", structure.Status))
		return compensationerrors.ErrDeleteOnlyPending
	}

	if err := qtx.Delete(ctx, companyID, id); err != nil {
		log.Error("delete compensation persist failed", zap.String("compensation_id", id), zap.Error(err))
		return mapRepositoryError(err)
	}

	if err := tx.Commit(); err != nil {
		log.Error("delete compensation commit failed", zap.Error(err))
		return apperror.Persistence(err)
	}

	s.effects.Apply(ctx, workflow.Transition{
		Entity:     workflow.EntityCompensation,
		EntityID:   id,
		CompanyID:  companyID,
		EmployeeID: structure.EmployeeID.String(),
		Actor:      actor,
		Action:     audit.ActionDelete,
		From:       workflow.StatusPending,
	})

	log.Info("delete compensation success", zap.String("compensation_id", id))
	return nil
}

// checkOverlap rejects windows that intersect an approved or pending
// structure of the same employee. excludeID skips the superseded structure.
// lockEmployee serializes window checks for one employee until the
// transaction ends.
func lockEmployee(ctx context.Context, qtx Repository, companyID, employeeID string) error {
	found, err := qtx.LockEmployee(ctx, companyID, employeeID)
	if err != nil {
		return mapRepositoryError(err)
	}
	if !found {
		return compensationerrors.ErrEmployeeNotInCompany
	}
	return nil
}

func (s *service) checkOverlap(
	ctx context.Context,
	qtx Repository,
	companyID, employeeID string,
	terms Terms,
	excludeID string,
) error {
	approved, err := qtx.HasOverlapping(ctx, companyID, employeeID, StatusApproved, terms.EffectiveFrom, terms.EffectiveTo, excludeID)
	if err != nil {
		return mapRepositoryError(err)
	}
	if approved {
		return compensationerrors.ErrApprovedOverlap
	}

	pending, err := qtx.HasOverlapping(ctx, companyID, employeeID, StatusPending, terms.EffectiveFrom, terms.EffectiveTo)
	if err != nil {
		return mapRepositoryError(err)
	}
	if pending {
		return compensationerrors.ErrPendingOverlap
	}
	return nil
}

func newStructure(companyID, employeeID uuid.UUID, createdBy string, terms Terms) *CompensationStructure {
	structure := &CompensationStructure{
		ID:            uuid.New(),
		CompanyID:     companyID,
		EmployeeID:    employeeID,
		Basic:         terms.Basic,
		HRA:           terms.HRA,
		TaxPercent:    terms.TaxPercent,
		EffectiveFrom: terms.EffectiveFrom,
		EffectiveTo:   terms.EffectiveTo,
		Status:        StatusPending,
		Version:       1,
		CreatedBy:     createdBy,
	}
	structure.LineItems = append(structure.LineItems, buildLines(structure.ID, LineKindAllowance, terms.Allowances)...)
	structure.LineItems = append(structure.LineItems, buildLines(structure.ID, LineKindDeduction, terms.Deductions)...)
	return structure
}

// Draft builds an unsaved Pending structure from parsed terms.
func Draft(companyID, employeeID uuid.UUID, createdBy string, terms Terms) CompensationStructure {
	return *newStructure(companyID, employeeID, createdBy, terms)
}

func buildLines(structureID uuid.UUID, kind string, items []LineItemRequest) []LineItem {
	lines := make([]LineItem, 0, len(items))
	for i, item := range items {
		lines = append(lines, LineItem{
			ID:          uuid.New(),
			StructureID: structureID,
			Kind:        kind,
			Position:    i,
			Label:       item.Label,
			Amount:      money.Round(item.Amount),
		})
	}
	return lines
}

func mapToResponse(s CompensationStructure) CompensationResponse {
	resp := CompensationResponse{
		ID:              s.ID.String(),
		CompanyID:       s.CompanyID.String(),
		EmployeeID:      s.EmployeeID.String(),
		Basic:           money.Format(s.Basic),
		HRA:             money.Format(s.HRA),
		Allowances:      mapLines(s.Allowances()),
		Deductions:      mapLines(s.Deductions()),
		TaxPercent:      money.Format(s.TaxPercent),
		TotalAllowances: money.Format(s.TotalAllowances()),
		TotalDeductions: money.Format(s.TotalDeductions()),
		GrossCTC:        money.Format(s.GrossCTC()),
		EffectiveFrom:   s.EffectiveFrom.Format(dateLayout),
		Status:          s.Status,
		Version:         s.Version,
		CreatedBy:       s.CreatedBy,
		ApprovedBy:      s.ApprovedBy,
	}
	if s.EffectiveTo != nil {
		v := s.EffectiveTo.Format(dateLayout)
		resp.EffectiveTo = &v
	}
	if s.SupersedesID != nil {
		v := s.SupersedesID.String()
		resp.SupersedesID = &v
	}
	if s.ApprovedAt != nil {
		v := s.ApprovedAt.Format(time.RFC3339)
		resp.ApprovedAt = &v
	}
	return resp
}

// ToResponse exposes the response mapping to callers holding an entity.
func ToResponse(s CompensationStructure) CompensationResponse {
	return mapToResponse(s)
}

func mapLines(items []LineItem) []LineItemResponse {
	out := make([]LineItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, LineItemResponse{Label: item.Label, Amount: money.Format(item.Amount)})
	}
	return out
}

func mapToListResponse(structures []CompensationStructure) []CompensationResponse {
	out := make([]CompensationResponse, 0, len(structures))
	for _, s := range structures {
		out = append(out, mapToResponse(s))
	}
	return out
}
