package handlers

const (
	RequestIDHeader = "X-Request-ID"

	maxBodyBytes = 1 << 20

	ErrInvalidJSON         = "Invalid JSON body"
	ErrInvalidID           = "Invalid id"
	ErrValidationFailed    = "Validation failed"
	ErrUnauthorized        = "Unauthorized"
	ErrAdminOnly           = "Admin access required"
	ErrTooManyRequests     = "Too many requests"
	ErrConcurrentUpdate    = "The child was updated concurrently, please retry"
	ErrInternalServerError = "Internal server error"
)

// Error codes returned next to the message. Policy denials use the codes
// defined by the progression package.
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeNotFound         = "NOT_FOUND"
	CodeConflict         = "CONFLICT"
	CodeRateLimited      = "RATE_LIMITED"
	CodeInternal         = "INTERNAL"
)
