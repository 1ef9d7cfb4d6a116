package rbac

import (
	"sync"

	"go-payroll/internal/domain"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"go.uber.org/zap"
)

//go:generate mockgen -source=rbac_service.go -destination=mock/rbac_service_mock.go -package=mock
type Service interface {
	Enforce(role domain.Role, resource, action string) (bool, error)
}

type service struct {
	enforcer *casbin.Enforcer
	mu       sync.RWMutex
	logger   *zap.Logger
}

// NewService builds an in-memory enforcer from policies. With no policies
// DefaultPolicies is used.
func NewService(policies []Policy, logger ...*zap.Logger) (Service, error) {
	l := zap.L().Named("rbac.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("rbac.service")
	}
	if len(policies) == 0 {
		policies = DefaultPolicies()
	}

	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, err
	}

	for _, p := range policies {
		for _, perm := range p.Permissions {
			if _, err := enforcer.AddPolicy(p.Role.String(), perm.Resource, perm.Action); err != nil {
				return nil, err
			}
		}
		for _, parent := range p.Inherits {
			if _, err := enforcer.AddGroupingPolicy(p.Role.String(), parent.String()); err != nil {
				return nil, err
			}
		}
	}

	l.Info("rbac policy loaded", zap.Int("roles", len(policies)))
	return &service{enforcer: enforcer, logger: l}, nil
}

func (s *service) Enforce(role domain.Role, resource, action string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	allowed, err := s.enforcer.Enforce(role.String(), resource, action)
	if err != nil {
		s.logger.Error("rbac enforce failed",
			zap.String("role", role.String()),
			zap.String("resource", resource),
			zap.String("action", action),
			zap.Error(err),
		)
		return false, err
	}

	s.logger.Debug("rbac enforce result",
		zap.String("role", role.String()),
		zap.String("resource", resource),
		zap.String("action", action),
		zap.Bool("allowed", allowed),
	)
	return allowed, nil
}
