// Package remote classifies failures of outbound calls (wiki API,
// completion API) so callers can choose between retrying, failing fast,
// and degrading to a fallback result.
package remote

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"
)

// TransientError represents a failure that may succeed on retry, such as a
// network hiccup, a timeout, or a 5xx/429 response.
type TransientError struct {
	Err        error
	StatusCode int // HTTP status code if applicable
	RetryAfter int // seconds, from a Retry-After header when present
}

func (e *TransientError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("transient remote error (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("transient remote error: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// AuthError represents a rejected credential (401) or missing permission
// (403). Retrying without reconfiguration cannot succeed.
type AuthError struct {
	Err        error
	StatusCode int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authorization failed (status %d): %v", e.StatusCode, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// ErrNotFound reports that the remote resource does not exist or is not
// visible to the configured account.
var ErrNotFound = errors.New("resource not found")

// ClassifyHTTPStatus maps a non-2xx response to a typed error. The body is
// folded into the message for operator diagnosis; callers decide whether to
// surface it.
func ClassifyHTTPStatus(statusCode int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	if len(msg) > 300 {
		msg = msg[:300] + "..."
	}

	switch {
	case statusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, msg)
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return &AuthError{
			Err:        fmt.Errorf("server said: %s", msg),
			StatusCode: statusCode,
		}
	case statusCode == http.StatusTooManyRequests || statusCode >= http.StatusInternalServerError:
		return &TransientError{
			Err:        fmt.Errorf("server said: %s", msg),
			StatusCode: statusCode,
		}
	default:
		return fmt.Errorf("unexpected status %d: %s", statusCode, msg)
	}
}

// IsNotFound reports whether err (anywhere in its chain) is ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var transientErr *TransientError
	if errors.As(err, &transientErr) {
		return true
	}
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return false
	}
	if errors.Is(err, ErrNotFound) {
		return false
	}

	return isNetworkError(err)
}

// IsAuth reports whether err is a credential or permission failure.
func IsAuth(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// WrapNetworkError turns a transport-level failure into a TransientError
// when the failure mode suggests a retry could help.
func WrapNetworkError(err error) error {
	if err == nil {
		return nil
	}
	if isNetworkError(err) {
		return &TransientError{Err: err}
	}
	return err
}

func isNetworkError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}
	// DNS failures surface as *net.DNSError, covered by OpError above in
	// most paths but not all.
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}
