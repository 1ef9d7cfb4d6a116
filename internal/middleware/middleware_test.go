package middleware_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-payroll/internal/domain"
	"go-payroll/internal/middleware"
	"go-payroll/internal/shared/contextutil"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/time/rate"
)

const testSecret = "test-secret"

type apiEnvelope struct {
	Ok    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) apiEnvelope {
	t.Helper()
	var env apiEnvelope
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	assert.NoError(t, err)
	return signed
}

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", middleware.AuthMiddleware(testSecret), func(c *gin.Context) {
		actor := middleware.ActorFrom(c)
		c.JSON(http.StatusOK, gin.H{
			"user_id":     actor.UserID,
			"employee_id": actor.EmployeeID,
			"role":        actor.Role,
			"company_id":  c.GetString(middleware.ContextCompanyID),
		})
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	t.Run("valid token exposes actor", func(t *testing.T) {
		r := newAuthRouter()
		token := signToken(t, jwt.MapClaims{
			"user_id":     "user-1",
			"company_id":  "company-1",
			"employee_id": "emp-1",
			"role":        "hr_manager",
			"exp":         time.Now().Add(time.Hour).Unix(),
		})

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var body map[string]string
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "user-1", body["user_id"])
		assert.Equal(t, "emp-1", body["employee_id"])
		assert.Equal(t, string(domain.RoleHRManager), body["role"])
		assert.Equal(t, "company-1", body["company_id"])
	})

	t.Run("missing token", func(t *testing.T) {
		r := newAuthRouter()
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "UNAUTHORIZED", decodeEnvelope(t, rec).Error.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		r := newAuthRouter()
		token := signToken(t, jwt.MapClaims{
			"user_id":    "user-1",
			"company_id": "company-1",
			"role":       "HR",
			"exp":        time.Now().Add(-time.Hour).Unix(),
		})
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "TOKEN_EXPIRED", decodeEnvelope(t, rec).Error.Code)
	})

	t.Run("unknown role", func(t *testing.T) {
		r := newAuthRouter()
		token := signToken(t, jwt.MapClaims{
			"user_id":    "user-1",
			"company_id": "company-1",
			"role":       "Intern",
		})
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong secret", func(t *testing.T) {
		r := newAuthRouter()
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": "u", "company_id": "c", "role": "HR"})
		signed, _ := token.SignedString([]byte("other"))
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+signed)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "INVALID_TOKEN", decodeEnvelope(t, rec).Error.Code)
	})
}

type fakeAuthorizer struct {
	allowed bool
	err     error
	gotRole domain.Role
}

func (f *fakeAuthorizer) Enforce(role domain.Role, resource, action string) (bool, error) {
	f.gotRole = role
	return f.allowed, f.err
}

func newRBACRouter(authz middleware.Authorizer, actor *domain.Actor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if actor != nil {
			middleware.SetActor(c, "company-1", *actor)
		}
		c.Next()
	})
	r.POST("/payslips/:id/release", middleware.RBACAuthorize(authz, "payslip", "release"), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestRBACAuthorize(t *testing.T) {
	manager := domain.Actor{UserID: "u-1", Role: domain.RoleHRManager}

	t.Run("allowed", func(t *testing.T) {
		authz := &fakeAuthorizer{allowed: true}
		rec := httptest.NewRecorder()
		newRBACRouter(authz, &manager).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/payslips/1/release", nil))

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, domain.RoleHRManager, authz.gotRole)
	})

	t.Run("forbidden", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newRBACRouter(&fakeAuthorizer{}, &manager).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/payslips/1/release", nil))

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "FORBIDDEN", decodeEnvelope(t, rec).Error.Code)
	})

	t.Run("enforcer error", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newRBACRouter(&fakeAuthorizer{err: errors.New("boom")}, &manager).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/payslips/1/release", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("no actor", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newRBACRouter(&fakeAuthorizer{allowed: true}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/payslips/1/release", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestIdempotency(t *testing.T) {
	gin.SetMode(gin.TestMode)
	const cacheKey = "idemp:/payslips:user-1:key-1"

	newRouter := func(handlerCalls *int) (*gin.Engine, redismock.ClientMock) {
		rdb, mock := redismock.NewClientMock()
		r := gin.New()
		r.Use(func(c *gin.Context) {
			c.Set(middleware.ContextUserID, "user-1")
			c.Next()
		})
		r.POST("/payslips", middleware.Idempotency(rdb), func(c *gin.Context) {
			*handlerCalls++
			c.JSON(http.StatusCreated, gin.H{"ok": true})
		})
		return r, mock
	}

	t.Run("first request takes the lock", func(t *testing.T) {
		calls := 0
		r, mock := newRouter(&calls)
		mock.ExpectGet(cacheKey).RedisNil()
		mock.ExpectSetNX(cacheKey+":lock", "locked", 30*time.Second).SetVal(true)

		req := httptest.NewRequest(http.MethodPost, "/payslips", nil)
		req.Header.Set(middleware.HeaderIdempotencyKey, "key-1")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, 1, calls)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("replays cached response", func(t *testing.T) {
		calls := 0
		r, mock := newRouter(&calls)
		mock.ExpectGet(cacheKey).SetVal(`{"id":"payslip-1"}`)

		req := httptest.NewRequest(http.MethodPost, "/payslips", nil)
		req.Header.Set(middleware.HeaderIdempotencyKey, "key-1")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 0, calls)
		assert.Equal(t, "true", rec.Header().Get("Idempotent-Replayed"))
		env := decodeEnvelope(t, rec)
		assert.True(t, env.Ok)
		assert.JSONEq(t, `{"id":"payslip-1"}`, string(env.Data))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("in flight duplicate conflicts", func(t *testing.T) {
		calls := 0
		r, mock := newRouter(&calls)
		mock.ExpectGet(cacheKey).RedisNil()
		mock.ExpectSetNX(cacheKey+":lock", "locked", 30*time.Second).SetVal(false)

		req := httptest.NewRequest(http.MethodPost, "/payslips", nil)
		req.Header.Set(middleware.HeaderIdempotencyKey, "key-1")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, 0, calls)
		assert.Equal(t, "PROCESSING", decodeEnvelope(t, rec).Error.Code)
	})

	t.Run("no key passes through", func(t *testing.T) {
		calls := 0
		r, mock := newRouter(&calls)

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/payslips", nil))

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, 1, calls)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRateLimitByIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ping", middleware.RateLimitByIP(rate.Limit(0.001), 1), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/ping", nil))
	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestID())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("request_id"))
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(middleware.HeaderRequestID, "rid-1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, "rid-1", rec.Body.String())
	assert.Equal(t, "rid-1", rec.Header().Get(middleware.HeaderRequestID))
}

func TestRequestID_ReplacesUnsafeHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestID())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, contextutil.GetRequestID(c.Request.Context()))
	})

	for _, rid := range []string{"", "has space", "line\nbreak", string(make([]byte, 65))} {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set(middleware.HeaderRequestID, rid)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		got := rec.Header().Get(middleware.HeaderRequestID)
		assert.NotEqual(t, rid, got)
		assert.Len(t, got, 36)
		assert.Equal(t, got, rec.Body.String())
	}
}

func TestContextLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.ContextLogger(zap.New(core)))
	r.GET("/payslips/:id", func(c *gin.Context) {
		contextutil.GetLogger(c.Request.Context(), nil).Info("inside handler")
		c.Status(http.StatusNotFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/payslips/p-1", nil)
	req.Header.Set(middleware.HeaderRequestID, "rid-42")
	r.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.All()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, "inside handler", entries[0].Message)
		assert.Equal(t, "rid-42", entries[0].ContextMap()["request_id"])

		access := entries[1]
		assert.Equal(t, "request handled", access.Message)
		assert.Equal(t, zapcore.WarnLevel, access.Level)
		assert.Equal(t, "/payslips/:id", access.ContextMap()["route"])
		assert.Equal(t, int64(http.StatusNotFound), access.ContextMap()["status"])
	}
}
