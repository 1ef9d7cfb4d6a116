package middleware

import (
	"go-payroll/internal/domain"
	"go-payroll/internal/shared/apperror"
	"go-payroll/internal/shared/response"

	"github.com/gin-gonic/gin"
)

// Authorizer is satisfied by rbac.Service.
type Authorizer interface {
	Enforce(role domain.Role, resource, action string) (bool, error)
}

func RBACAuthorize(authz Authorizer, resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := ActorFrom(c)
		if actor.Role == "" {
			abortWith(c, apperror.ErrUnauthorized)
			return
		}

		allowed, err := authz.Enforce(actor.Role, resource, action)
		if err != nil {
			abortWith(c, apperror.ErrInternal)
			return
		}

		if !allowed {
			forbidden := apperror.ErrForbidden
			response.Error(c, forbidden.HTTPStatus, forbidden.Code, forbidden.Message, gin.H{
				"required": resource + ":" + action,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
