package compensation

import (
	"go-payroll/internal/middleware"
	"go-payroll/internal/rbac"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes expects r to already run AuthMiddleware.
func RegisterRoutes(r *gin.RouterGroup, handler *Handler, authz middleware.Authorizer) {
	compensations := r.Group("/compensations")
	{
		compensations.POST("", middleware.RBACAuthorize(authz, rbac.ResourceCompensation, rbac.ActionCreate), handler.Create)
		compensations.GET("/:id", middleware.RBACAuthorize(authz, rbac.ResourceCompensation, rbac.ActionRead), handler.GetByID)
		compensations.POST("/:id/approve", middleware.RBACAuthorize(authz, rbac.ResourceCompensation, rbac.ActionApprove), handler.Approve)
		compensations.POST("/:id/supersede", middleware.RBACAuthorize(authz, rbac.ResourceCompensation, rbac.ActionCreate), handler.Supersede)
		compensations.DELETE("/:id", middleware.RBACAuthorize(authz, rbac.ResourceCompensation, rbac.ActionCreate), handler.Delete)
	}

	employees := r.Group("/employees/:employee_id/compensations")
	{
		employees.GET("", middleware.RBACAuthorize(authz, rbac.ResourceCompensation, rbac.ActionRead), handler.GetAllByEmployee)
		employees.GET("/active", middleware.RBACAuthorize(authz, rbac.ResourceCompensation, rbac.ActionRead), handler.GetActive)
	}
}
