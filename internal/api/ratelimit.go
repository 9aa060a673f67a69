package api

import (
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	rateLimitWindow = 60 * time.Second
	rateLimitMax    = 20
)

// RateLimiter is a per-IP fixed-window limiter backed by redis. It fails
// open: a redis error lets the request through.
type RateLimiter struct {
	rdb *redis.Client
	log *zap.Logger
}

func NewRateLimiter(rdb *redis.Client, log *zap.Logger) *RateLimiter {
	return &RateLimiter{rdb: rdb, log: log}
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		key := "rate_limit:" + ip

		count, err := rl.rdb.Incr(r.Context(), key).Result()
		if err != nil {
			rl.log.Error("rate limit INCR failed", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}
		if count == 1 {
			if err := rl.rdb.Expire(r.Context(), key, rateLimitWindow).Err(); err != nil {
				rl.log.Error("rate limit EXPIRE failed", zap.Error(err))
			}
		}

		if count > rateLimitMax {
			rl.log.Warn("rate limit exceeded", zap.String("ip", ip))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"success":false,"error":"Rate limit exceeded"}`))
			return
		}

		next.ServeHTTP(w, r)
	})
}
