// Package local serves a course offline: the course tree comes from a YAML
// file, progress and attempts live in the SQLite store, quizzes are graded
// in-process and the assistant is answered by an LLM provider.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/phnplatform/studyterm/internal/backend"
	"github.com/phnplatform/studyterm/internal/llm"
	"github.com/phnplatform/studyterm/internal/quiz"
	"github.com/phnplatform/studyterm/internal/store"
)

// ErrNoAssistant is returned by Chat when no LLM provider is configured.
var ErrNoAssistant = errors.New("assistant unavailable: no LLM provider configured")

// Deps are the collaborators of a local Backend. Provider and Closer are
// optional.
type Deps struct {
	Course   *Course
	Progress store.ProgressRepo
	Quizzes  store.QuizRepo
	Chats    store.ChatRepo
	Provider llm.Provider
	Closer   io.Closer
	UserID   string
	// ProgressLimiter thins progress rows. Nil records every report.
	ProgressLimiter *rate.Limiter
	Log             *zap.Logger
}

// Backend implements backend.Backend without a network.
type Backend struct {
	course    *Course
	progress  store.ProgressRepo
	quizzes   store.QuizRepo
	chats     store.ChatRepo
	assistant *assistant
	closer    io.Closer
	userID    string
	limiter   *rate.Limiter
	log       *zap.Logger
	now       func() time.Time

	mu      sync.Mutex
	started map[string]time.Time
}

var _ backend.Backend = (*Backend)(nil)

func New(d Deps) *Backend {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	b := &Backend{
		course:   d.Course,
		progress: d.Progress,
		quizzes:  d.Quizzes,
		chats:    d.Chats,
		closer:   d.Closer,
		userID:   d.UserID,
		limiter:  d.ProgressLimiter,
		log:      log,
		now:      time.Now,
		started:  make(map[string]time.Time),
	}
	if d.Provider != nil {
		b.assistant = newAssistant(d.Provider, DefaultAssistantConfig())
	}
	return b
}

func (b *Backend) ReportProgress(ctx context.Context, contentID string, percent float64) error {
	if b.limiter != nil && percent < 100 && !b.limiter.Allow() {
		return nil
	}
	return b.progress.RecordProgress(ctx, contentID, percent)
}

func (b *Backend) ReportComplete(ctx context.Context, contentID string) error {
	first, err := b.progress.MarkComplete(ctx, contentID)
	if err != nil {
		return err
	}
	if first {
		b.log.Info("content completed", zap.String("content_id", contentID))
	}
	return nil
}

func (b *Backend) FetchQuiz(ctx context.Context, courseID, quizID string) (*backend.QuizDefinition, error) {
	it, err := b.course.item(courseID, quizID)
	if err != nil {
		return nil, err
	}
	if it.Quiz == nil {
		return nil, fmt.Errorf("quiz %q: %w", quizID, backend.ErrNotFound)
	}
	b.mu.Lock()
	b.started[courseID+"/"+quizID] = b.now()
	b.mu.Unlock()
	return b.course.quiz(it), nil
}

// SubmitQuiz grades against the course file. Time taken runs from the most
// recent FetchQuiz of the same quiz.
func (b *Backend) SubmitQuiz(ctx context.Context, courseID, quizID string, answers []int) (*backend.QuizResult, error) {
	it, err := b.course.item(courseID, quizID)
	if err != nil {
		return nil, err
	}
	if it.Quiz == nil {
		return nil, fmt.Errorf("quiz %q: %w", quizID, backend.ErrNotFound)
	}
	def := b.course.quiz(it)

	key := courseID + "/" + quizID
	b.mu.Lock()
	start, ok := b.started[key]
	delete(b.started, key)
	b.mu.Unlock()
	var elapsed time.Duration
	if ok {
		elapsed = b.now().Sub(start)
	}

	res := quiz.Grade(def, answers, elapsed)
	attempt := &store.QuizAttempt{
		CourseID:       courseID,
		QuizID:         quizID,
		Answers:        answers,
		Score:          res.Score,
		CorrectAnswers: res.CorrectAnswers,
		TotalQuestions: res.TotalQuestions,
		TimeTaken:      res.TimeTaken,
	}
	if err := b.quizzes.RecordAttempt(ctx, attempt); err != nil {
		return nil, fmt.Errorf("record attempt: %w", err)
	}

	if quiz.Passed(res, quiz.PassingScore(def)) {
		if _, err := b.progress.MarkComplete(ctx, quizID); err != nil {
			b.log.Warn("mark quiz complete", zap.String("quiz_id", quizID), zap.Error(err))
		}
	}
	return res, nil
}

func (b *Backend) Chat(ctx context.Context, req backend.ChatRequest) (*backend.ChatReply, error) {
	if b.assistant == nil {
		return nil, ErrNoAssistant
	}
	if req.UserID == "" {
		req.UserID = b.userID
	}

	var lesson *backend.Content
	if req.ContentID != "" {
		if it, err := b.course.item(req.CourseID, req.ContentID); err == nil {
			lesson = b.course.content(it)
		}
	}

	reply, err := b.assistant.answer(ctx, b.course.Title, lesson, req)

	turn := &store.ChatTurn{
		UserID:    req.UserID,
		CourseID:  req.CourseID,
		ContentID: req.ContentID,
		Message:   req.Message,
		Success:   err == nil,
	}
	if reply != nil {
		turn.Reply = reply.Message
		turn.Sources = reply.Sources
	}
	if logErr := b.chats.AppendTurn(ctx, turn); logErr != nil {
		b.log.Warn("failed to record chat turn", zap.Error(logErr))
	}

	if err != nil {
		return nil, err
	}
	return reply, nil
}

func (b *Backend) Sections(ctx context.Context, courseID string) ([]backend.Section, error) {
	if courseID != b.course.ID {
		return nil, fmt.Errorf("course %q: %w", courseID, backend.ErrNotFound)
	}
	done, err := b.progress.Completed(ctx)
	if err != nil {
		return nil, fmt.Errorf("load completions: %w", err)
	}
	return b.course.sections(done), nil
}

func (b *Backend) Content(ctx context.Context, courseID, contentID string) (*backend.Content, error) {
	it, err := b.course.item(courseID, contentID)
	if err != nil {
		return nil, err
	}
	return b.course.content(it), nil
}

func (b *Backend) Close() error {
	if b.closer == nil {
		return nil
	}
	return b.closer.Close()
}
