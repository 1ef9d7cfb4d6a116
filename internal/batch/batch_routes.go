package batch

import (
	"go-payroll/internal/middleware"
	"go-payroll/internal/rbac"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes expects r to already run AuthMiddleware. Idempotency is only
// wired when the handler carries a redis client.
func RegisterRoutes(r *gin.RouterGroup, handler *Handler, authz middleware.Authorizer) {
	assign := []gin.HandlerFunc{middleware.RBACAuthorize(authz, rbac.ResourceCompensation, rbac.ActionCreate)}
	generate := []gin.HandlerFunc{middleware.RBACAuthorize(authz, rbac.ResourcePayslip, rbac.ActionCreate)}
	if handler.rdb != nil {
		assign = append(assign, middleware.Idempotency(handler.rdb))
		generate = append(generate, middleware.Idempotency(handler.rdb))
	}

	r.POST("/compensations/batch", append(assign, handler.AssignTemplate)...)
	r.POST("/payslips/batch", append(generate, handler.GeneratePayslips)...)
}
