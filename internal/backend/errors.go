package backend

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrNotFound is returned when a course, content item or quiz does not exist.
var ErrNotFound = errors.New("not found")

// HTTPError is a non-2xx response from a remote collaborator.
type HTTPError struct {
	StatusCode int
	Message    string
	Body       string
}

func (e *HTTPError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("http error: status=%d message=%s", e.StatusCode, msg)
}

// Unwrap maps 404 responses onto ErrNotFound.
func (e *HTTPError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	return nil
}

// IsTransient reports whether err is a network-level or server-side failure
// the learner can retry, as opposed to a missing resource.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, ErrNotFound) {
		return false
	}
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode >= 500 || he.StatusCode == http.StatusTooManyRequests || he.StatusCode == http.StatusRequestTimeout
	}
	return true
}
