package resilience

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
)

// TransientError wraps an error that is safe to retry (429, 5xx, timeouts).
type TransientError struct {
	Err        error
	StatusCode int
}

func (e *TransientError) Error() string { return e.Err.Error() }

func (e *TransientError) Unwrap() error { return e.Err }

// NewTransientError wraps err as transient with an optional HTTP status code.
func NewTransientError(err error, statusCode int) *TransientError {
	return &TransientError{Err: err, StatusCode: statusCode}
}

// CriticalError wraps an error that must stop the current batch: the remote
// service refused us outright, or the caller gave up. It is never retried.
type CriticalError struct {
	Err        error
	StatusCode int
}

func (e *CriticalError) Error() string { return e.Err.Error() }

func (e *CriticalError) Unwrap() error { return e.Err }

// NewCriticalError wraps err as critical with an optional HTTP status code.
func NewCriticalError(err error, statusCode int) *CriticalError {
	return &CriticalError{Err: err, StatusCode: statusCode}
}

// IsCritical reports whether err (or any error in its chain) is a
// CriticalError or a context cancellation.
func IsCritical(err error) bool {
	if err == nil {
		return false
	}
	var ce *CriticalError
	if errors.As(err, &ce) {
		return true
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

var transientPatterns = []string{
	"connection reset by peer",
	"broken pipe",
	"temporary failure in name resolution",
	"tls handshake timeout",
	"i/o timeout",
	"server closed idle connection",
	"unexpected eof",
}

// IsTransient reports whether err is a TransientError or looks like a
// network-level failure worth retrying.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// IsTransientHTTPStatus reports whether an HTTP status is safe to retry.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// IsCriticalHTTPStatus reports whether an HTTP status means the service has
// refused access (bad credentials, usage-policy block).
func IsCriticalHTTPStatus(statusCode int) bool {
	return statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden
}

// StatusError builds the error for a non-200 response from service,
// classified by status code.
func StatusError(service string, statusCode int) error {
	err := eris.Errorf("%s: returned status %d", service, statusCode)
	switch {
	case IsCriticalHTTPStatus(statusCode):
		return NewCriticalError(err, statusCode)
	case IsTransientHTTPStatus(statusCode):
		return NewTransientError(err, statusCode)
	default:
		return err
	}
}
