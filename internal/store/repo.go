package store

import (
	"context"
	"time"
)

// QueryOpts configures queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	From   time.Time // created_at >= From
	Filter string    // repo-specific equality filter (course id, purpose)
}

// ProgressSummary is the latest known state of one content item.
type ProgressSummary struct {
	ContentID string
	Percent   float64
	Completed bool
	UpdatedAt time.Time
}

// ProgressRepo records watch progress and completions.
type ProgressRepo interface {
	// RecordProgress appends a progress report.
	RecordProgress(ctx context.Context, contentID string, percent float64) error

	// MarkComplete records a completion. It reports false when the item was
	// already complete.
	MarkComplete(ctx context.Context, contentID string) (bool, error)

	// Completed returns the set of completed content ids.
	Completed(ctx context.Context) (map[string]bool, error)

	// Summaries returns the latest progress per content item, most recent first.
	Summaries(ctx context.Context) ([]ProgressSummary, error)
}

// QuizAttempt is one graded submission.
type QuizAttempt struct {
	ID             int
	Sequence       int64
	CourseID       string
	QuizID         string
	Answers        []int
	Score          float64
	CorrectAnswers int
	TotalQuestions int
	TimeTaken      float64
	CreatedAt      time.Time
}

// QuizRepo stores graded quiz attempts.
type QuizRepo interface {
	RecordAttempt(ctx context.Context, a *QuizAttempt) error
	// Attempts lists attempts, newest first. Filter matches the course id.
	Attempts(ctx context.Context, opts QueryOpts) ([]QuizAttempt, error)
}

// ChatTurn is one user message and the assistant's reply.
type ChatTurn struct {
	ID        int
	Sequence  int64
	UserID    string
	CourseID  string
	ContentID string
	Message   string
	Reply     string
	Sources   []string
	Success   bool
	CreatedAt time.Time
}

// ChatRepo stores assistant transcripts.
type ChatRepo interface {
	AppendTurn(ctx context.Context, t *ChatTurn) error
	// Turns lists turns, newest first. Filter matches the course id.
	Turns(ctx context.Context, opts QueryOpts) ([]ChatTurn, error)
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMEvent is a stored LLM request event.
type LLMEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// LLMUsage aggregates LLM events by purpose or model.
type LLMUsage struct {
	Purpose      string
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// EventRepo provides append and query access to LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents lists events, newest first. Filter matches the purpose.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEvent, error)

	// GetLLMEvent returns one event, or nil if it does not exist.
	GetLLMEvent(ctx context.Context, id int) (*LLMEvent, error)

	LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error)
	LLMUsageByModel(ctx context.Context) ([]LLMUsage, error)
}
