package health

import (
	"context"
	"time"

	"codegen-backend/internal/cache"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthChecker struct {
	db           Pinger
	redisEnabled bool
}

type HealthStatus struct {
	Status   string          `json:"status"`
	Database ComponentHealth `json:"database"`
	Redis    ComponentHealth `json:"redis"`
}

type ComponentHealth struct {
	Status       string `json:"status"`
	ResponseTime int64  `json:"response_time_ms"`
}

// NewHealthChecker takes a nil db when running on the in-memory store.
func NewHealthChecker(db Pinger, redisEnabled bool) *HealthChecker {
	return &HealthChecker{db: db, redisEnabled: redisEnabled}
}

// CheckBasic reports unhealthy only when the database is down; Redis is
// optional and only degrades.
func (h *HealthChecker) CheckBasic() HealthStatus {
	dbHealth := h.checkDatabase()
	redisHealth := h.checkRedis()

	status := "healthy"
	if dbHealth.Status == "unhealthy" {
		status = "unhealthy"
	} else if redisHealth.Status == "unhealthy" {
		status = "degraded"
	}

	return HealthStatus{
		Status:   status,
		Database: dbHealth,
		Redis:    redisHealth,
	}
}

func (h *HealthChecker) checkDatabase() ComponentHealth {
	if h.db == nil {
		return ComponentHealth{Status: "disabled"}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := time.Now()
	err := h.db.Ping(ctx)
	responseTime := time.Since(start).Milliseconds()

	if err != nil {
		return ComponentHealth{Status: "unhealthy", ResponseTime: responseTime}
	}
	return ComponentHealth{Status: "healthy", ResponseTime: responseTime}
}

func (h *HealthChecker) checkRedis() ComponentHealth {
	if !h.redisEnabled {
		return ComponentHealth{Status: "disabled"}
	}

	start := time.Now()
	ok := cache.IsHealthy()
	responseTime := time.Since(start).Milliseconds()

	if !ok {
		return ComponentHealth{Status: "unhealthy", ResponseTime: responseTime}
	}
	return ComponentHealth{Status: "healthy", ResponseTime: responseTime}
}
