package payslip

import (
	"go-payroll/internal/middleware"
	"go-payroll/internal/rbac"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RegisterRoutes expects r to already run AuthMiddleware.
func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	authz middleware.Authorizer,
	rdb ...*redis.Client,
) {
	var redisClient *redis.Client
	if len(rdb) > 0 {
		redisClient = rdb[0]
	}

	create := middleware.RBACAuthorize(authz, rbac.ResourcePayslip, rbac.ActionCreate)
	read := middleware.RBACAuthorize(authz, rbac.ResourcePayslip, rbac.ActionRead)

	payslips := r.Group("/payslips")
	{
		if redisClient != nil {
			payslips.POST("", create, middleware.Idempotency(redisClient), handler.Generate)
		} else {
			payslips.POST("", create, handler.Generate)
		}
		payslips.POST("/preview", create, handler.Preview)
		payslips.GET("/:id", read, handler.GetByID)
		payslips.GET("/:id/pdf", read, handler.DownloadPDF)
		payslips.POST("/:id/regenerate", create, handler.Regenerate)
		payslips.POST("/:id/approve", middleware.RBACAuthorize(authz, rbac.ResourcePayslip, rbac.ActionApprove), handler.Approve)
		payslips.POST("/:id/release", middleware.RBACAuthorize(authz, rbac.ResourcePayslip, rbac.ActionRelease), handler.Release)
		payslips.DELETE("/:id", create, handler.Delete)
	}

	r.GET("/employees/:employee_id/payslips", read, handler.GetAllByEmployee)
}
