package constants

import "time"

// ConfigDirPerm is the permission for created directories.
const ConfigDirPerm = 0750

// DefaultHTTPTimeout is the default timeout for buffered HTTP requests.
// Streaming routes are not bound by it.
const DefaultHTTPTimeout = 30 * time.Second

// Retry limits. Retries are off unless a caller opts in.
const (
	// DefaultRetryMax is the number of retries performed by default.
	DefaultRetryMax = 0

	// DefaultRetryWaitMin is the minimum wait time between retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait time between retries.
	DefaultRetryWaitMax = 10 * time.Second
)

// Concurrency and batching limits.
const (
	// DefaultConcurrencyLimit limits concurrent batch operations.
	DefaultConcurrencyLimit = 5

	// DefaultBatchTimeout bounds a single batch operation.
	DefaultBatchTimeout = DefaultHTTPTimeout
)

// HTTP status codes commonly used.
const (
	// HTTPStatusBadRequest is the first status code treated as a failure.
	HTTPStatusBadRequest = 400

	// HTTPStatusInternalServerError represents server errors.
	HTTPStatusInternalServerError = 500
)

// Circuit breaker defaults.
const (
	// CircuitBreakerThreshold is the number of failures before opening.
	CircuitBreakerThreshold = 5

	// CircuitBreakerTimeout is the time before a half-open probe.
	CircuitBreakerTimeout = 60 * time.Second

	// CircuitBreakerSuccessThreshold is the number of probes needed to close.
	CircuitBreakerSuccessThreshold = 2
)

// State and status constants.
const (
	// StatusClosed indicates a closed circuit.
	StatusClosed = "closed"

	// StatusOpen indicates an open circuit.
	StatusOpen = "open"

	// StatusHalfOpen indicates a half-open circuit.
	StatusHalfOpen = "half-open"
)

// Format constants.
const (
	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"

	// FormatTable for table output format.
	FormatTable = "table"
)

// Audit defaults.
const (
	// DefaultAuditSubject is the NATS subject audit events are published on.
	DefaultAuditSubject = "apitailor.responses"
)

// Metadata keys shared by interceptors.
const (
	// MetadataStartTime is set by the metrics interceptor on the request.
	MetadataStartTime = "start_time"

	// MetadataRoute holds "resource.action" for the invoked route.
	MetadataRoute = "route"
)

// Logging defaults.
const (
	// LogMaxSizeMB is the size at which a log file is rotated.
	LogMaxSizeMB = 10

	// LogMaxBackups is the number of rotated files kept.
	LogMaxBackups = 5

	// LogMaxAgeDays is the number of days rotated files are kept.
	LogMaxAgeDays = 30
)

// UserAgent is the default User-Agent header.
const UserAgent = "apitailor/1.0"

// RequestIDHeader is the header set by the request id interceptor.
const RequestIDHeader = "X-Request-ID"
