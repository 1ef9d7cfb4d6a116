package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"go-payroll/internal/domain"
	"go-payroll/internal/shared/apperror"
	"go-payroll/internal/shared/contextutil"
	"go-payroll/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	ContextUserID     = "user_id"
	ContextEmployeeID = "employee_id"
	ContextCompanyID  = "company_id"
	ContextRole       = "role"
	contextActor      = "actor"
)

var (
	ErrTokenMissing = apperror.New(
		apperror.CodeUnauthorized,
		"Token not found",
		http.StatusUnauthorized,
	)
	ErrInvalidToken = apperror.New(
		"INVALID_TOKEN",
		"Invalid or malformed token",
		http.StatusUnauthorized,
	)
	ErrTokenExpired = apperror.New(
		"TOKEN_EXPIRED",
		"Token has expired",
		http.StatusUnauthorized,
	)
	ErrUnknownRole = apperror.New(
		"INVALID_TOKEN",
		"Role in token is not recognised",
		http.StatusUnauthorized,
	)
)

// AuthMiddleware validates an HMAC-signed bearer token issued by the identity
// provider and exposes its claims as a domain.Actor.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !found {
			tokenString = ""
		}
		if tokenString == "" {
			if cookie, err := c.Cookie("access_token"); err == nil {
				tokenString = cookie
			}
		}
		if tokenString == "" {
			abortWith(c, ErrTokenMissing)
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			errObj := ErrInvalidToken
			if err != nil && strings.Contains(err.Error(), "expired") {
				errObj = ErrTokenExpired
			}
			abortWith(c, errObj)
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			abortWith(c, ErrInvalidToken)
			return
		}

		userID, _ := claims["user_id"].(string)
		companyID, _ := claims["company_id"].(string)
		if userID == "" || companyID == "" {
			abortWith(c, ErrInvalidToken)
			return
		}
		employeeID, _ := claims["employee_id"].(string)

		rawRole, _ := claims["role"].(string)
		role, err := domain.ParseRole(rawRole)
		if err != nil {
			abortWith(c, ErrUnknownRole)
			return
		}

		actor := domain.Actor{UserID: userID, EmployeeID: employeeID, Role: role}
		c.Set(ContextUserID, userID)
		c.Set(ContextEmployeeID, employeeID)
		c.Set(ContextCompanyID, companyID)
		c.Set(ContextRole, role.String())
		c.Set(contextActor, actor)

		ctx := contextutil.WithPrincipal(c.Request.Context(), userID, companyID)
		reqLogger := contextutil.GetLogger(ctx, nil).With(
			zap.String("user_id", userID),
			zap.String("company_id", companyID),
		)
		ctx = contextutil.WithLogger(ctx, reqLogger)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// ActorFrom returns the caller set by AuthMiddleware, or the zero Actor.
func ActorFrom(c *gin.Context) domain.Actor {
	if v, ok := c.Get(contextActor); ok {
		if actor, ok := v.(domain.Actor); ok {
			return actor
		}
	}
	return domain.Actor{}
}

// SetActor is used by tests and internal callers that bypass token parsing.
func SetActor(c *gin.Context, companyID string, actor domain.Actor) {
	c.Set(ContextUserID, actor.UserID)
	c.Set(ContextEmployeeID, actor.EmployeeID)
	c.Set(ContextCompanyID, companyID)
	c.Set(ContextRole, actor.Role.String())
	c.Set(contextActor, actor)
}

func abortWith(c *gin.Context, err *apperror.AppError) {
	response.Error(c, err.HTTPStatus, err.Code, err.Message, nil)
	c.Abort()
}
