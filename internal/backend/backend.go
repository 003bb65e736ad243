// Package backend declares the collaborator contracts the learning session
// consumes: durable progress, quiz fetch/grading, the assistant and the
// course tree. Implementations live in the remote and local subpackages.
package backend

import "context"

// ProgressSync records watch progress and completion. Both calls are
// best-effort; callers never feed the result back into controller state.
type ProgressSync interface {
	ReportProgress(ctx context.Context, contentID string, percent float64) error
	ReportComplete(ctx context.Context, contentID string) error
}

// QuizSync fetches quiz definitions and grades submissions.
type QuizSync interface {
	FetchQuiz(ctx context.Context, courseID, quizID string) (*QuizDefinition, error)
	// SubmitQuiz grades answers; answers[i] is an option index or -1.
	SubmitQuiz(ctx context.Context, courseID, quizID string, answers []int) (*QuizResult, error)
}

// ChatSync answers one assistant turn.
type ChatSync interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatReply, error)
}

// CourseSource supplies the read-only course tree and content bodies.
type CourseSource interface {
	Sections(ctx context.Context, courseID string) ([]Section, error)
	Content(ctx context.Context, courseID, contentID string) (*Content, error)
}

// Backend bundles every collaborator used by a course view.
type Backend interface {
	ProgressSync
	QuizSync
	ChatSync
	CourseSource
	Close() error
}
