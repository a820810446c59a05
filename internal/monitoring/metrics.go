package monitoring

import (
	"context"
	"net/http"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type Metrics struct {
	mu             sync.RWMutex
	RequestCount   int64            `json:"request_count"`
	ActiveRequests int64            `json:"active_requests"`
	ErrorCount     int64            `json:"error_count"`
	StatusCodes    map[string]int64 `json:"status_codes"`
	Endpoints      map[string]int64 `json:"endpoint_calls"`
	StartTime      time.Time        `json:"start_time"`
	LastRequest    time.Time        `json:"last_request"`
	totalDuration  time.Duration
}

var globalMetrics = &Metrics{
	StatusCodes: make(map[string]int64),
	Endpoints:   make(map[string]int64),
	StartTime:   time.Now(),
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		globalMetrics.mu.Lock()
		globalMetrics.ActiveRequests++
		globalMetrics.mu.Unlock()

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()
		endpoint := c.Request.Method + " " + c.FullPath()

		globalMetrics.mu.Lock()
		globalMetrics.ActiveRequests--
		globalMetrics.RequestCount++
		globalMetrics.totalDuration += duration
		globalMetrics.LastRequest = time.Now()
		globalMetrics.StatusCodes[strconv.Itoa(statusCode)]++
		globalMetrics.Endpoints[endpoint]++
		if statusCode >= http.StatusInternalServerError {
			globalMetrics.ErrorCount++
		}
		globalMetrics.mu.Unlock()
	}
}

type StatsProvider func() map[string]interface{}

var (
	providersMu    sync.RWMutex
	statsProviders = make(map[string]StatsProvider)
)

// RegisterStatsProvider attaches an extra stats section (cache counters,
// pool stats) to the metrics snapshot.
func RegisterStatsProvider(name string, provider StatsProvider) {
	providersMu.Lock()
	defer providersMu.Unlock()
	statsProviders[name] = provider
}

func Snapshot() map[string]interface{} {
	globalMetrics.mu.RLock()

	var avgDuration int64
	if globalMetrics.RequestCount > 0 {
		avgDuration = globalMetrics.totalDuration.Milliseconds() / globalMetrics.RequestCount
	}

	statusCodes := make(map[string]int64, len(globalMetrics.StatusCodes))
	for code, count := range globalMetrics.StatusCodes {
		statusCodes[code] = count
	}
	endpoints := make(map[string]int64, len(globalMetrics.Endpoints))
	for endpoint, count := range globalMetrics.Endpoints {
		endpoints[endpoint] = count
	}

	snapshot := map[string]interface{}{
		"request_count":           globalMetrics.RequestCount,
		"active_requests":         globalMetrics.ActiveRequests,
		"error_count":             globalMetrics.ErrorCount,
		"avg_request_duration_ms": avgDuration,
		"status_codes":            statusCodes,
		"endpoint_calls":          endpoints,
		"start_time":              globalMetrics.StartTime,
		"last_request":            globalMetrics.LastRequest,
		"uptime_seconds":          int64(time.Since(globalMetrics.StartTime).Seconds()),
		"goroutines":              runtime.NumGoroutine(),
	}

	globalMetrics.mu.RUnlock()

	providersMu.RLock()
	for name, provider := range statsProviders {
		snapshot[name] = provider()
	}
	providersMu.RUnlock()

	return snapshot
}

type HealthCheckFunc func(ctx context.Context) error

type HealthCheck struct {
	Name    string    `json:"name"`
	Status  string    `json:"status"`
	Message string    `json:"message,omitempty"`
	LastRun time.Time `json:"last_run"`
}

type HealthChecker struct {
	mu     sync.RWMutex
	checks map[string]HealthCheckFunc
}

var globalHealthChecker = &HealthChecker{
	checks: make(map[string]HealthCheckFunc),
}

func RegisterHealthCheck(name string, check HealthCheckFunc) {
	globalHealthChecker.mu.Lock()
	defer globalHealthChecker.mu.Unlock()
	globalHealthChecker.checks[name] = check
}

func RunHealthChecks(ctx context.Context) (bool, []HealthCheck) {
	globalHealthChecker.mu.RLock()
	checks := make(map[string]HealthCheckFunc, len(globalHealthChecker.checks))
	for name, check := range globalHealthChecker.checks {
		checks[name] = check
	}
	globalHealthChecker.mu.RUnlock()

	healthy := true
	results := make([]HealthCheck, 0, len(checks))

	for name, check := range checks {
		result := HealthCheck{Name: name, Status: "ok", LastRun: time.Now()}

		checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := check(checkCtx); err != nil {
			result.Status = "failing"
			result.Message = err.Error()
			healthy = false
		}
		cancel()

		results = append(results, result)
	}

	return healthy, results
}
