package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	apperrors "github.com/opsdesk/admin-console-go/internal/errors"
	"github.com/opsdesk/admin-console-go/internal/httputil"
)

const (
	startLimitKeyPrefix = "imp_start:"
	startLimitWindow    = 60 * time.Second
)

var startLimitScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)

local count = redis.call('ZCARD', key)
if count >= limit then
    return 0
end

redis.call('ZADD', key, now, now .. '-' .. math.random())
redis.call('EXPIRE', key, window + 10)
return 1
`)

// StartRateLimiter caps impersonation starts per admin per minute. A
// compromised admin credential should not be able to sweep the user base
// faster than audit review can notice.
type StartRateLimiter struct {
	client *redis.Client
	limit  int
}

func NewStartRateLimiter(client *redis.Client, limit int) *StartRateLimiter {
	return &StartRateLimiter{client: client, limit: limit}
}

func (rl *StartRateLimiter) allowed(ctx context.Context, adminID string) bool {
	now := time.Now().Unix()
	key := startLimitKeyPrefix + adminID

	result, err := startLimitScript.Run(ctx, rl.client, []string{key},
		now, int64(startLimitWindow.Seconds()), rl.limit).Int64()
	if err != nil {
		// Redis being down must not lock admins out of support tooling
		log.Warn().Err(err).Str("adminId", adminID).Msg("impersonation rate limit check failed, allowing request")
		return true
	}

	return result == 1
}

// Handler must run after the admin gate: the limit key is the verified
// admin identity, not anything client-controlled.
func (rl *StartRateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		admin := GetAdmin(r.Context())
		if admin != nil && !rl.allowed(r.Context(), admin.UserID) {
			log.Warn().Str("adminId", admin.UserID).Msg("impersonation start rate limit exceeded")
			httputil.WriteError(w, apperrors.RateLimitExceeded())
			return
		}
		next.ServeHTTP(w, r)
	})
}
