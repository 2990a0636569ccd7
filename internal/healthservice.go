package internal

import (
	"context"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/haldre/rota/internal/cache"
)

const (
	// HealthOK marks a fully working service
	HealthOK = "ok"
	// HealthError marks a service that failed its check
	HealthError = "error"
	// HealthDisabled marks an optional service that is not configured
	HealthDisabled = "disabled"
)

// ServiceHealth describes the state of one dependency
type ServiceHealth struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// HealthStatus is the overall health report returned by the health endpoint
type HealthStatus struct {
	Status    string                   `json:"status"`
	Uptime    string                   `json:"uptime"`
	Timestamp time.Time                `json:"timestamp"`
	Services  map[string]ServiceHealth `json:"services"`
}

// StatusCode makes an unhealthy report answer with 503
func (h *HealthStatus) StatusCode() int {
	if h.Status != HealthOK {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

// HealthService reports the health of the application and its dependencies
type HealthService interface {
	// Check pings all dependencies and builds a health report
	Check(ctx context.Context) *HealthStatus
	// Alive is a cheap liveness probe that does not touch any dependency
	Alive(ctx context.Context) bool
}

// -- HealthService implementation -------------------------------------------------------------------------------------

type healthService struct {
	db        *sqlx.DB
	cache     *cache.Cache
	logger    *logrus.Entry
	startedAt time.Time
}

// NewHealthService creates a new health service instance
func NewHealthService(db *sqlx.DB, c *cache.Cache, logger *logrus.Entry) HealthService {
	return &healthService{
		db:        db,
		cache:     c,
		logger:    logger,
		startedAt: time.Now(),
	}
}

// Check pings all dependencies and builds a health report. The database is a hard
// dependency; the cache is optional and only reported.
func (s *healthService) Check(ctx context.Context) *HealthStatus {
	ret := &HealthStatus{
		Status:    HealthOK,
		Uptime:    time.Since(s.startedAt).Truncate(time.Second).String(),
		Timestamp: time.Now().UTC(),
		Services:  map[string]ServiceHealth{},
	}
	if err := s.db.PingContext(ctx); err != nil {
		s.logger.WithError(err).Error("Database health check failed")
		ret.Services["database"] = ServiceHealth{Status: HealthError, Error: err.Error()}
		ret.Status = HealthError
	} else {
		ret.Services["database"] = ServiceHealth{Status: HealthOK}
	}
	if !s.cache.Enabled() {
		ret.Services["cache"] = ServiceHealth{Status: HealthDisabled}
	} else if err := s.cache.Ping(ctx); err != nil {
		s.logger.WithError(err).Warn("Cache health check failed")
		ret.Services["cache"] = ServiceHealth{Status: HealthError, Error: err.Error()}
	} else {
		ret.Services["cache"] = ServiceHealth{Status: HealthOK}
	}
	return ret
}

// Alive is a cheap liveness probe that does not touch any dependency
func (s *healthService) Alive(ctx context.Context) bool {
	return true
}
