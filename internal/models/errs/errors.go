package errs

import "errors"

// Common sentinel errors. Every failure that crosses the store or
// service boundary wraps exactly one of these so transport code can
// map it to a status code with errors.Is.
var (
	// Referenced order or file does not exist.
	ErrNotFound = errors.New("not found")
	// Bad input shape or value: empty field list, unknown status,
	// export name outside the allow-list.
	ErrValidation = errors.New("validation failed")
	// Order root exists but a required canonical document is missing
	// or corrupt. Signals a prior partial write, not a bad request.
	ErrInconsistent = errors.New("order storage inconsistent")
	// The underlying filesystem operation itself errored.
	ErrStorage = errors.New("storage failure")
	// Too many requests for an expensive operation.
	ErrRateLimit = errors.New("rate limit exceeded")

	// Request-shape sentinels used by the operation wrappers.
	ErrInvalidPayload     = errors.New("invalid payload")
	ErrRequiredBodyParam  = errors.New("required body parameter missing")
	ErrInvalidContentType = errors.New("invalid content type")
)

// Type just for marshalling purpose.
// Should only be used immediately before marshalling.
type JSON struct {
	Error string `json:"error"`
}
