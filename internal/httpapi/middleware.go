package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/vladislavdragonenkov/greenlogist/internal/api"
	"github.com/vladislavdragonenkov/greenlogist/internal/metrics"
	"github.com/vladislavdragonenkov/greenlogist/internal/service/auth"
)

const (
	// RequestIDHeader — заголовок с идентификатором запроса.
	RequestIDHeader = "X-Request-ID"
	// IdempotencyKeyHeader — заголовок с ключом идемпотентности для POST /orders и /transports.
	IdempotencyKeyHeader = "Idempotency-Key"

	requestIDKey = "request_id"
	identityKey  = "identity"
)

// TokenParser проверяет bearer-токен.
type TokenParser interface {
	ParseToken(raw string) (auth.Identity, error)
}

// requestID проставляет X-Request-ID, если клиент его не передал.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(RequestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// requestLogger пишет одну строку logrus на запрос. Уровень зависит от статуса ответа.
func requestLogger(logger *log.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		entry := logger.WithFields(log.Fields{
			"request_id": c.GetString(requestIDKey),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"latency_ms": time.Since(start).Milliseconds(),
			"client_ip":  c.ClientIP(),
		})
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}
		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("http request")
		case status >= http.StatusBadRequest:
			entry.Warn("http request")
		default:
			entry.Info("http request")
		}
	}
}

// recovery превращает панику обработчика в 500 с телом ErrorResponse.
func recovery(logger *log.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if recovered := recover(); recovered != nil {
				logger.WithFields(log.Fields{
					"request_id": c.GetString(requestIDKey),
					"path":       c.Request.URL.Path,
					"panic":      fmt.Sprint(recovered),
				}).Error("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, api.ErrorResponse{
					Code:    "Internal",
					Message: "internal error",
				})
			}
		}()
		c.Next()
	}
}

type httpMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newHTTPMetrics(registerer prometheus.Registerer) *httpMetrics {
	return &httpMetrics{
		requests: metrics.CounterVec(registerer, prometheus.CounterOpts{
			Name: "greenlogist_http_requests_total",
			Help: "HTTP requests by route and status code.",
		}, []string{"method", "route", "status"}),
		duration: metrics.HistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "greenlogist_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// instrument считает запросы по шаблону маршрута, а не по фактическому пути.
func (m *httpMetrics) instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.duration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// corsMiddleware разрешает браузерные запросы с указанных origin.
func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Authorization", "Content-Type", RequestIDHeader, IdempotencyKeyHeader},
		ExposeHeaders: []string{RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}

// ipRateLimiter держит по token bucket на IP клиента.
type ipRateLimiter struct {
	limiters sync.Map
	rate     rate.Limit
	burst    int
}

func newIPRateLimiter(rps float64, burst int) *ipRateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &ipRateLimiter{rate: rate.Limit(rps), burst: burst}
}

func (rl *ipRateLimiter) limiter(ip string) *rate.Limiter {
	if limiter, ok := rl.limiters.Load(ip); ok {
		return limiter.(*rate.Limiter)
	}
	limiter, _ := rl.limiters.LoadOrStore(ip, rate.NewLimiter(rl.rate, rl.burst))
	return limiter.(*rate.Limiter)
}

func (rl *ipRateLimiter) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.limiter(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, api.ErrorResponse{
				Code:    "RateLimited",
				Message: "too many requests",
			})
			return
		}
		c.Next()
	}
}

// authenticate требует заголовок Authorization: Bearer <token>.
func authenticate(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		scheme, raw, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(raw) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{
				Code:    "Unauthenticated",
				Message: "bearer token is required",
			})
			return
		}
		identity, err := tokens.ParseToken(strings.TrimSpace(raw))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{
				Code:    "Unauthenticated",
				Message: "invalid or expired token",
			})
			return
		}
		c.Set(identityKey, identity)
		c.Next()
	}
}

func callerID(c *gin.Context) string {
	identity, _ := c.MustGet(identityKey).(auth.Identity)
	return identity.UserID
}
