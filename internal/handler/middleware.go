package handler

import (
	"net/http"
	"sync"
	"time"

	"github.com/GANESH4511/Dataverse/internal/auth"
	"github.com/GANESH4511/Dataverse/internal/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	userIDKey   = "userId"
	workerIDKey = "workerId"
)

type authMessages struct {
	expired string
	invalid string
}

// RequireUser admits requests carrying a valid user token and stores the
// user id under "userId".
func RequireUser(issuer *auth.TokenIssuer) gin.HandlerFunc {
	return requireSubject(issuer, userIDKey, authMessages{
		expired: "Session expired, please sign in again",
		invalid: "Unauthorized: Invalid token",
	})
}

// RequireWorker admits requests carrying a valid worker token and stores
// the worker id under "workerId".
func RequireWorker(issuer *auth.TokenIssuer) gin.HandlerFunc {
	return requireSubject(issuer, workerIDKey, authMessages{
		expired: "Worker session expired, please sign in again",
		invalid: "Unauthorized: Invalid worker token",
	})
}

func requireSubject(issuer *auth.TokenIssuer, key string, msgs authMessages) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.BearerToken(c.GetHeader("Authorization"))
		if err != nil {
			ErrorResponse(c, http.StatusUnauthorized, "Missing or invalid Authorization header")
			c.Abort()
			return
		}

		subject, err := issuer.Verify(token)
		if err != nil {
			reason := auth.ReasonOf(err)
			logger.Debug("Rejected %s credential: %s", issuer.Namespace(), reason)
			msg := msgs.invalid
			if reason == auth.ReasonExpired {
				msg = msgs.expired
			}
			ErrorResponse(c, http.StatusUnauthorized, msg)
			c.Abort()
			return
		}

		c.Set(key, subject)
		c.Next()
	}
}

// RequestLogger writes one line per request. Headers and bodies are not logged.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		logger.With(
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		).Info("request")
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter limits requests per client IP.
type RateLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	limit     rate.Limit
	burst     int
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewRateLimiter allows perMinute requests per IP with a burst of the same
// size. perMinute <= 0 disables limiting.
func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute <= 0 {
		return nil
	}
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
		idle:     10 * time.Minute,
		now:      time.Now,
	}
}

func (l *RateLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > l.idle {
		for k, v := range l.visitors {
			if now.Sub(v.lastSeen) > l.idle {
				delete(l.visitors, k)
			}
		}
		l.lastSweep = now
	}

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// Middleware returns the gin handler. A nil limiter admits everything.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l != nil && !l.allow(c.ClientIP()) {
			ErrorResponse(c, http.StatusTooManyRequests, "Too many requests, please try again later")
			c.Abort()
			return
		}
		c.Next()
	}
}
