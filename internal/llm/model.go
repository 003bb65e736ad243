package llm

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"
)

// transport sends one prompt to a vendor API and maps the vendor's reply
// and errors onto this package's types. It does no validation.
type transport interface {
	send(ctx context.Context, p Prompt) (*Completion, error)
}

// vendorModel adapts a transport to Provider.
type vendorModel struct {
	vendor string
	model  string
	t      transport
}

func (m *vendorModel) Complete(ctx context.Context, p Prompt) (*Completion, error) {
	if n := len(p.Turns); n == 0 || p.Turns[n-1].Speaker != Learner {
		return nil, &ErrInvalidRequest{Err: errors.New("prompt must end with a learner turn")}
	}

	c, err := m.t.send(ctx, p)
	if err != nil {
		return nil, err
	}
	if c.Model == "" {
		c.Model = m.model
	}
	if p.Schema == nil {
		return c, nil
	}
	// A truncated object never validates; report the real cause.
	if c.Stop == StopMaxTokens {
		return nil, &ErrMaxTokensExceeded{Content: c.Body}
	}
	if err := validateResponse(p.Schema, c.Body); err != nil {
		return nil, err
	}
	return c, nil
}

func (m *vendorModel) Model() string { return m.model }

// Vendor returns the name of the API behind the model.
func (m *vendorModel) Vendor() string { return m.vendor }

// statusError classifies a failed vendor call by its HTTP status.
func statusError(status int, retryAfter time.Duration, err error) error {
	switch {
	case status == http.StatusTooManyRequests:
		return &ErrRateLimit{RetryAfter: retryAfter, Err: err}
	case status >= 500:
		return &ErrProviderUnavailable{Err: err}
	case status == http.StatusBadRequest, status == http.StatusUnauthorized,
		status == http.StatusForbidden, status == http.StatusNotFound:
		return &ErrInvalidRequest{StatusCode: status, Err: err}
	}
	return &ErrProviderUnavailable{Err: err}
}

// retryAfter reads a Retry-After header given in seconds.
func retryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	secs, err := strconv.Atoi(resp.Header.Get("Retry-After"))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func learnerOrTutor(s Speaker, learner, tutor string) string {
	if s == Tutor {
		return tutor
	}
	return learner
}
