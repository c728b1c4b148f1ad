package rest

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/proofofplace/internal/logging"
	"github.com/dmitrijs2005/proofofplace/internal/server/metrics"
	"github.com/redis/go-redis/v9"
)

// RateLimiter is a fixed-window limiter keyed by client IP and scope. It
// fails open when Redis is unavailable and is a no-op when rdb is nil.
func RateLimiter(rdb *redis.Client, limit int, window time.Duration, scope string, logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if rdb == nil || limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}
			key := "pop:rl:" + scope + ":" + ip

			var incr *redis.IntCmd
			var ttlCmd *redis.DurationCmd
			_, err = rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				incr = pipe.Incr(ctx, key)
				ttlCmd = pipe.TTL(ctx, key)
				return nil
			})
			if err != nil {
				logger.Warn(ctx, "rate limiter unavailable", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			count, ttl := incr.Val(), ttlCmd.Val()

			// a key without expiry opens the window, including one whose
			// earlier EXPIRE was lost
			if ttl < 0 {
				if err := rdb.Expire(ctx, key, window).Err(); err != nil {
					logger.Warn(ctx, "rate limiter failed to set window", "key", key, "error", err)
					next.ServeHTTP(w, r)
					return
				}
				ttl = window
			}

			remaining := limit - int(count)
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.Itoa(int(ttl.Seconds())))

			if count > int64(limit) {
				metrics.RateLimited.WithLabelValues(scope).Inc()
				w.Header().Set("Retry-After", strconv.Itoa(int(ttl.Seconds())))
				respondMessage(w, r, http.StatusTooManyRequests, "Too Many Requests. Try again in "+ttl.String())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
