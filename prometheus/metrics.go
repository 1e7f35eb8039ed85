package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	// Login counters
	LoginCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_login_total",
			Help: "Total number of login attempts",
		},
	)

	// Registration counters
	RegisterCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_register_total",
			Help: "Total number of user registrations",
		},
	)

	// Tenant login counter, including auto-provisioned first logins
	TenantLoginCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_tenant_login_total",
			Help: "Total number of tenant-level logins",
		},
		[]string{"outcome"}, // outcome can be "existing" or "provisioned"
	)

	// Token refresh counter
	RefreshCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_token_refresh_total",
			Help: "Total number of refresh token exchanges",
		},
		[]string{"outcome"}, // outcome can be "rotated", "revoked", "expired", "invalid"
	)

	// TOTP operation counter
	TOTPCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_totp_operations_total",
			Help: "Total number of TOTP operations",
		},
		[]string{"operation"}, // operation can be "setup", "verify", "login"
	)

	// Tenant cascade counter
	CascadeCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_tenant_cascade_total",
			Help: "Total number of tenant cascade updates",
		},
		[]string{"kind"}, // kind can be "rename" or "status"
	)

	// Tenant operation counter
	TenantOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_tenant_operations_total",
			Help: "Total number of tenant operations",
		},
		[]string{"operation"}, // operation can be "access", "update", "impact", "list_users"
	)

	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)

	// Error counters
	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"}, // type can be "login_failure", "invalid_token", "tenant_mismatch" etc.
	)

	// Auth operation counter
	AuthOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_operations_total",
			Help: "Total number of authentication operations",
		},
		[]string{"operation"}, // operation can be "profile_access", "profile_update", "password_change", etc.
	)
)

// Histogram metrics
var (
	// Request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "auth_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	// Database operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "auth_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // operation can be "query", "insert", "update", "delete"
	)
)

// Gauge metrics
var (
	// Active tokens
	ActiveTokensGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "auth_active_tokens",
			Help: "Number of currently active refresh tokens",
		},
	)

	// System info
	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "auth_info",
			Help: "Information about the authentication service",
		},
		[]string{"version"},
	)

	// Users per tenant
	UsersPerTenantGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "auth_users_per_tenant",
			Help: "Number of users per tenant",
		},
		[]string{"tenant_id", "tenant_name"},
	)
)

func init() {
	// Register counters
	prometheus.MustRegister(LoginCounter)
	prometheus.MustRegister(RegisterCounter)
	prometheus.MustRegister(TenantLoginCounter)
	prometheus.MustRegister(RefreshCounter)
	prometheus.MustRegister(TOTPCounter)
	prometheus.MustRegister(CascadeCounter)
	prometheus.MustRegister(TenantOperationCounter)
	prometheus.MustRegister(HTTPRequestCounter)
	prometheus.MustRegister(AuthErrorCounter)
	prometheus.MustRegister(AuthOperationCounter)

	// Register histograms
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(DBOperationDuration)

	// Register gauges
	prometheus.MustRegister(ActiveTokensGauge)
	prometheus.MustRegister(InfoGauge)
	prometheus.MustRegister(UsersPerTenantGauge)

	// Set initial service info
	InfoGauge.With(prometheus.Labels{"version": "1.0.0"}).Set(1)
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// TrackDBOperation measures database operation durations
func TrackDBOperation(operation string) func(time.Time) {
	startTime := time.Now()
	return func(endTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DBOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(duration)
	}
}

// MetricsMiddleware creates a middleware function that captures metrics for each request
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			// Execute the request handler
			err := next(c)

			// Record request duration
			duration := time.Since(start).Seconds()
			status := strconv.Itoa(c.Response().Status)
			endpoint := c.Path()
			method := c.Request().Method

			RequestDuration.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Observe(duration)

			HTTPRequestCounter.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Inc()

			return err
		}
	}
}

// IncreaseActiveTokens increments the active tokens gauge
func IncreaseActiveTokens() {
	ActiveTokensGauge.Inc()
}

// DecreaseActiveTokens decrements the active tokens gauge
func DecreaseActiveTokens() {
	ActiveTokensGauge.Dec()
}

// DecreaseActiveTokensBy subtracts a bulk revocation from the active
// tokens gauge
func DecreaseActiveTokensBy(n int64) {
	ActiveTokensGauge.Sub(float64(n))
}

// RecordAuthError records an authentication error by type
func RecordAuthError(errorType string) {
	AuthErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}

// RecordTenantLogin records a tenant-level login by outcome
func RecordTenantLogin(outcome string) {
	TenantLoginCounter.With(prometheus.Labels{"outcome": outcome}).Inc()
}

// RecordRefresh records a refresh token exchange by outcome
func RecordRefresh(outcome string) {
	RefreshCounter.With(prometheus.Labels{"outcome": outcome}).Inc()
}

// RecordTOTP records a TOTP operation
func RecordTOTP(operation string) {
	TOTPCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

// RecordCascade records a tenant cascade update
func RecordCascade(kind string) {
	CascadeCounter.With(prometheus.Labels{"kind": kind}).Inc()
}

// RecordTenantOperation records a tenant operation
func RecordTenantOperation(operation string) {
	TenantOperationCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

// RecordAuthOperation records an authentication operation by type
func RecordAuthOperation(operation string) {
	AuthOperationCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

// UpdateUsersPerTenant updates the users per tenant gauge
func UpdateUsersPerTenant(tenantID uint, tenantName string, count int) {
	UsersPerTenantGauge.With(prometheus.Labels{
		"tenant_id":   strconv.FormatUint(uint64(tenantID), 10),
		"tenant_name": tenantName,
	}).Set(float64(count))
}
