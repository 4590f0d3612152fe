package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeAuth represents a failure to obtain a provider session
	ErrorTypeAuth ErrorType = "auth"
	// ErrorTypeTransport represents network-level failures (timeout, DNS, non-2xx)
	ErrorTypeTransport ErrorType = "transport"
	// ErrorTypeParse represents unrecognized or malformed payloads
	ErrorTypeParse ErrorType = "parse"
	// ErrorTypeValidation represents a negative image validation probe
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypePersistence represents store write errors
	ErrorTypePersistence ErrorType = "persistence"
	// ErrorTypeRateLimit represents rate limiting by a provider
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// PriceError represents a pipeline-specific error
type PriceError struct {
	Type       ErrorType
	Provider   string
	Message    string
	StatusCode int
	Err        error
	Time       time.Time
}

// Error implements the error interface
func (e *PriceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Provider, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Provider, e.Message)
}

// Unwrap returns the underlying error
func (e *PriceError) Unwrap() error {
	return e.Err
}

// IsFatal returns true if the error should abort the whole run.
// Only configuration errors are fatal; everything else is scoped to a
// single provider, URL or store write.
func (e *PriceError) IsFatal() bool {
	return e.Type == ErrorTypeConfiguration
}

// New creates a new PriceError
func New(errType ErrorType, provider, message string, err error) *PriceError {
	return &PriceError{
		Type:     errType,
		Provider: provider,
		Message:  message,
		Err:      err,
		Time:     time.Now(),
	}
}

// NewAuth creates a new auth error
func NewAuth(provider, message string, err error) *PriceError {
	return New(ErrorTypeAuth, provider, message, err)
}

// NewTransport creates a new transport error
func NewTransport(provider, message string, err error) *PriceError {
	return New(ErrorTypeTransport, provider, message, err)
}

// NewTransportStatus creates a transport error carrying the response status code
func NewTransportStatus(provider, url string, statusCode int) *PriceError {
	e := New(ErrorTypeTransport, provider, fmt.Sprintf("unexpected status code %d for %s", statusCode, url), nil)
	e.StatusCode = statusCode
	return e
}

// NewParse creates a new parse error
func NewParse(provider, message string, err error) *PriceError {
	return New(ErrorTypeParse, provider, message, err)
}

// NewValidation creates a new validation error
func NewValidation(provider, message string) *PriceError {
	return New(ErrorTypeValidation, provider, message, nil)
}

// NewPersistence creates a new persistence error
func NewPersistence(provider, message string, err error) *PriceError {
	return New(ErrorTypePersistence, provider, message, err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(provider string, duration time.Duration) *PriceError {
	message := fmt.Sprintf("rate limited for %v", duration)
	return New(ErrorTypeRateLimit, provider, message, nil)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *PriceError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// TypeOf returns the ErrorType of err, or an empty string for foreign errors
func TypeOf(err error) ErrorType {
	var pe *PriceError
	if stderrors.As(err, &pe) {
		return pe.Type
	}
	return ""
}
