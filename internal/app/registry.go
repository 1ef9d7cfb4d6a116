package app

import (
	"go-payroll/internal/audit"
	"go-payroll/internal/batch"
	"go-payroll/internal/compensation"
	"go-payroll/internal/config"
	"go-payroll/internal/messaging/kafka"
	"go-payroll/internal/middleware"
	"go-payroll/internal/notification"
	"go-payroll/internal/payslip"
	"go-payroll/internal/rbac"
	"go-payroll/internal/workflow"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

func registerModules(router *gin.Engine, cfg config.Config, a *App) error {
	// --- Collaborators ---
	outboxRepo := kafka.NewOutboxRepository(a.DB)
	a.Recorder = audit.NewMultiRecorder(audit.NewStdoutRecorder(), audit.NewOutboxRecorder(outboxRepo))
	dispatcher := notification.NewOutboxDispatcher(outboxRepo)
	effects := workflow.NewEffects(a.Recorder, dispatcher)

	rbacService, err := rbac.NewService(rbac.DefaultPolicies())
	if err != nil {
		return err
	}

	// --- Repositories ---
	compensationRepo := compensation.NewRepository(a.GormDB)
	payslipRepo := payslip.NewRepository(a.GormDB)

	// --- Services ---
	compensationService := compensation.NewService(a.DB, compensationRepo, effects)
	payslipService := payslip.NewService(a.DB, payslipRepo, compensationService, effects)
	batchService := batch.NewService(a.DB, compensationService, payslipService)

	// --- Handlers ---
	compensationHandler := compensation.NewHandler(compensationService)
	payslipHandler := payslip.NewHandlerWithRedis(payslipService, a.Redis)
	batchHandler := batch.NewHandler(batchService, a.Redis)

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	api.Use(
		middleware.AuthMiddleware(cfg.JWTSecret),
		middleware.RateLimitByUser(rate.Limit(20), 40),
	)
	{
		batch.RegisterRoutes(api, batchHandler, rbacService)
		compensation.RegisterRoutes(api, compensationHandler, rbacService)
		if a.Redis != nil {
			payslip.RegisterRoutes(api, payslipHandler, rbacService, a.Redis)
		} else {
			payslip.RegisterRoutes(api, payslipHandler, rbacService)
		}
	}

	return nil
}
