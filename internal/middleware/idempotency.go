package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go-payroll/internal/shared/contextutil"
	"go-payroll/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"

	contextIdempotencyCacheKey = "idempotency_cache_key"
	contextIdempotencyLockKey  = "idempotency_lock_key"

	idempotencyLockTTL  = 30 * time.Second
	idempotencyCacheTTL = 24 * time.Hour
)

// Idempotency replays the stored response for a repeated Idempotency-Key and
// rejects a duplicate that arrives while the first is still in flight.
func Idempotency(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		idempKey := c.GetHeader(HeaderIdempotencyKey)
		if idempKey == "" || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		log := contextutil.GetLogger(ctx, zap.L().Named("middleware.idempotency"))

		cacheKey := fmt.Sprintf("idemp:%s:%s:%s", c.FullPath(), c.GetString(ContextUserID), idempKey)
		lockKey := cacheKey + ":lock"

		val, err := rdb.Get(ctx, cacheKey).Result()
		if err == nil {
			var cached json.RawMessage = []byte(val)
			log.Debug("idempotent replay", zap.String("key", cacheKey))
			c.Header("Idempotent-Replayed", "true")
			response.Success(c, http.StatusOK, cached, nil)
			c.Abort()
			return
		}
		if err != redis.Nil {
			log.Warn("idempotency cache lookup failed", zap.Error(err))
		}

		isNew, err := rdb.SetNX(ctx, lockKey, "locked", idempotencyLockTTL).Result()
		if err != nil {
			log.Warn("idempotency lock failed, continuing without", zap.Error(err))
			c.Next()
			return
		}
		if !isNew {
			response.Error(c, http.StatusConflict, "PROCESSING", "A request with this idempotency key is still being processed", nil)
			c.Abort()
			return
		}

		c.Set(contextIdempotencyCacheKey, cacheKey)
		c.Set(contextIdempotencyLockKey, lockKey)

		c.Next()
	}
}

// CompleteIdempotent stores resp under the request's idempotency key, if any.
func CompleteIdempotent(c *gin.Context, rdb *redis.Client, resp any) {
	if rdb == nil {
		return
	}
	cacheKey := c.GetString(contextIdempotencyCacheKey)
	if cacheKey == "" {
		return
	}
	payload, err := json.Marshal(resp)
	if err != nil {
		return
	}
	_ = rdb.Set(c.Request.Context(), cacheKey, payload, idempotencyCacheTTL).Err()
}

// ReleaseIdempotencyLock drops the in-flight lock. Handlers defer it.
func ReleaseIdempotencyLock(c *gin.Context, rdb *redis.Client) {
	if rdb == nil {
		return
	}
	if lockKey := c.GetString(contextIdempotencyLockKey); lockKey != "" {
		_ = rdb.Del(c.Request.Context(), lockKey).Err()
	}
}
