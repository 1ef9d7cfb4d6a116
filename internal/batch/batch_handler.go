package batch

import (
	"net/http"

	"go-payroll/internal/middleware"
	"go-payroll/internal/shared/apperror"
	"go-payroll/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type Handler struct {
	service Service
	rdb     *redis.Client
}

func NewHandler(service Service, rdb *redis.Client) *Handler {
	return &Handler{service: service, rdb: rdb}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) AssignTemplate(c *gin.Context) {
	defer middleware.ReleaseIdempotencyLock(c, h.rdb)

	var req AssignTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	result, err := h.service.AssignTemplate(c.Request.Context(), c.GetString(middleware.ContextCompanyID), middleware.ActorFrom(c), req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	middleware.CompleteIdempotent(c, h.rdb, result)
	response.Success(c, http.StatusOK, result, nil)
}

func (h *Handler) GeneratePayslips(c *gin.Context) {
	defer middleware.ReleaseIdempotencyLock(c, h.rdb)

	var req GeneratePayslipsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	result, err := h.service.GeneratePayslips(c.Request.Context(), c.GetString(middleware.ContextCompanyID), middleware.ActorFrom(c), req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	middleware.CompleteIdempotent(c, h.rdb, result)
	response.Success(c, http.StatusOK, result, nil)
}
