package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{MaxAttempts: attempts, InitialWait: time.Millisecond, MaxWait: 5 * time.Millisecond, Multiplier: 2}
}

func TestRetryRecoversFromOutage(t *testing.T) {
	mock := NewScripted(
		Fail(&ErrProviderUnavailable{Err: errors.New("502")}),
		Fail(&ErrRateLimit{Err: errors.New("429")}),
		Reply(`{"message":"ok"}`),
	)
	p := WithRetry(mock, fastRetry(3), nil)

	c, err := p.Complete(context.Background(), Question(PurposeChat, "", "hi"))
	require.NoError(t, err)
	assert.Equal(t, `{"message":"ok"}`, string(c.Body))
	assert.Equal(t, 3, mock.Calls())
}

func TestRetryGivesUpAfterMaxAttempts(t *testing.T) {
	mock := NewScripted(
		Fail(&ErrProviderUnavailable{}),
		Fail(&ErrProviderUnavailable{}),
		Reply("never reached"),
	)
	_, err := WithRetry(mock, fastRetry(2), nil).Complete(context.Background(), Question(PurposeChat, "", "hi"))

	var down *ErrProviderUnavailable
	assert.ErrorAs(t, err, &down)
	assert.Equal(t, 2, mock.Calls())
}

func TestRetryNeverRepeatsRejectedRequests(t *testing.T) {
	for _, failure := range []error{
		&ErrInvalidRequest{StatusCode: 401, Err: errors.New("bad key")},
		&ErrMaxTokensExceeded{Content: []byte(`{"mess`)},
		context.DeadlineExceeded,
	} {
		mock := NewScripted(Fail(failure), Reply("never reached"))
		_, err := WithRetry(mock, fastRetry(5), nil).Complete(context.Background(), Question(PurposeChat, "", "hi"))
		assert.ErrorIs(t, err, failure)
		assert.Equal(t, 1, mock.Calls(), "%v", failure)
	}
}

func TestRetryReasksInvalidReplyOnce(t *testing.T) {
	bad := func() Step { return Fail(&ErrInvalidResponse{Err: errors.New("missing message")}) }

	mock := NewScripted(bad(), Reply(`{"message":"ok"}`))
	_, err := WithRetry(mock, fastRetry(5), nil).Complete(context.Background(), Question(PurposeChat, "", "hi"))
	require.NoError(t, err)

	mock = NewScripted(bad(), bad(), Reply("never reached"))
	_, err = WithRetry(mock, fastRetry(5), nil).Complete(context.Background(), Question(PurposeChat, "", "hi"))
	var inv *ErrInvalidResponse
	assert.ErrorAs(t, err, &inv)
	assert.Equal(t, 2, mock.Calls())
}

func TestRetryStopsWhenContextEnds(t *testing.T) {
	mock := NewScripted(Fail(&ErrProviderUnavailable{}), Reply("never reached"))
	slow := RetryConfig{MaxAttempts: 3, InitialWait: time.Hour, Multiplier: 1}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := WithRetry(mock, slow, nil).Complete(ctx, Question(PurposeChat, "", "hi"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, mock.Calls())
}

func TestRetryDelay(t *testing.T) {
	cfg := RetryConfig{InitialWait: 100 * time.Millisecond, MaxWait: time.Second, Multiplier: 2}

	assert.InDelta(t, float64(100*time.Millisecond), float64(cfg.delay(1, errors.New("x"))), float64(20*time.Millisecond))
	assert.InDelta(t, float64(400*time.Millisecond), float64(cfg.delay(3, errors.New("x"))), float64(80*time.Millisecond))
	assert.LessOrEqual(t, cfg.delay(10, errors.New("x")), 1200*time.Millisecond)

	wrapped := &ErrRateLimit{RetryAfter: 7 * time.Second}
	assert.Equal(t, 7*time.Second, cfg.delay(1, wrapped))
}

func TestWithRetryClampsAttempts(t *testing.T) {
	mock := NewScripted(Fail(&ErrProviderUnavailable{}), Reply("never reached"))
	_, err := WithRetry(mock, RetryConfig{}, nil).Complete(context.Background(), Question(PurposeChat, "", "hi"))
	assert.Error(t, err)
	assert.Equal(t, 1, mock.Calls())
}
