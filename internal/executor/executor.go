// Package executor runs effect descriptors against the backend collaborators
// and feeds their outcomes back into the event loop as messages.
package executor

import (
	"context"
	"fmt"
	"time"

	tea "charm.land/bubbletea/v2"
	"go.uber.org/zap"

	"github.com/phnplatform/studyterm/internal/backend"
	"github.com/phnplatform/studyterm/internal/effect"
	"github.com/phnplatform/studyterm/internal/media"
	"github.com/phnplatform/studyterm/internal/timer"
)

// QuizLoadedMsg carries the outcome of a FetchQuiz effect.
type QuizLoadedMsg struct {
	CourseID string
	QuizID   string
	Def      *backend.QuizDefinition
	Err      error
}

// QuizSubmittedMsg carries the outcome of a SubmitQuiz effect.
type QuizSubmittedMsg struct {
	QuizID string
	Result *backend.QuizResult
	Forced bool
	Err    error
}

// ChatReplyMsg carries the outcome of a SendChat effect.
type ChatReplyMsg struct {
	Seq   uint64
	Reply *backend.ChatReply
	Err   error
}

// CompletionReportedMsg is delivered after a ReportComplete effect succeeds,
// so views can refresh the course tree.
type CompletionReportedMsg struct {
	ContentID string
}

// SectionsLoadedMsg carries the course tree.
type SectionsLoadedMsg struct {
	CourseID string
	Sections []backend.Section
	Err      error
}

// ContentLoadedMsg carries a content body. For videos Duration is resolved
// from the declared value or by probing; DurationErr is set when neither
// worked.
type ContentLoadedMsg struct {
	ContentID   string
	Content     *backend.Content
	Duration    float64
	DurationErr error
	Err         error
}

// Executor turns effects into tea.Cmds.
type Executor struct {
	backend backend.Backend
	prober  media.Prober
	timeout time.Duration
	log     *zap.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithProber sets the media duration prober. Without one, videos must declare
// their duration.
func WithProber(p media.Prober) Option {
	return func(e *Executor) { e.prober = p }
}

// WithTimeout bounds every backend call. Default: 30s.
func WithTimeout(d time.Duration) Option {
	return func(e *Executor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

func New(b backend.Backend, log *zap.Logger, opts ...Option) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Executor{backend: b, timeout: 30 * time.Second, log: log}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Run converts effects into a single batched command, preserving order of
// issue. Media effects are handled by the caller's media clock and ignored.
func (e *Executor) Run(effs ...effect.Effect) tea.Cmd {
	var cmds []tea.Cmd
	for _, eff := range effs {
		if cmd := e.cmd(eff); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	switch len(cmds) {
	case 0:
		return nil
	case 1:
		return cmds[0]
	}
	return tea.Batch(cmds...)
}

func (e *Executor) cmd(eff effect.Effect) tea.Cmd {
	switch eff := eff.(type) {
	case effect.StartTimer:
		return tea.Tick(eff.After, func(time.Time) tea.Msg {
			return timer.FiredMsg{Timer: eff.Timer, Gen: eff.Gen}
		})
	case effect.ReportProgress:
		return e.reportProgress(eff)
	case effect.ReportComplete:
		return e.reportComplete(eff)
	case effect.FetchQuiz:
		return e.fetchQuiz(eff)
	case effect.SubmitQuiz:
		return e.submitQuiz(eff)
	case effect.SendChat:
		return e.sendChat(eff)
	case effect.Media:
		return nil
	}
	e.log.Warn("unhandled effect", zap.String("type", fmt.Sprintf("%T", eff)))
	return nil
}

func (e *Executor) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), e.timeout)
}

// Progress reports are fire-and-forget: failures are logged, never returned
// to a controller.
func (e *Executor) reportProgress(eff effect.ReportProgress) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := e.context()
		defer cancel()
		if err := e.backend.ReportProgress(ctx, eff.ContentID, eff.Percent); err != nil {
			e.log.Debug("progress report failed",
				zap.String("content_id", eff.ContentID),
				zap.Float64("percent", eff.Percent),
				zap.Error(err))
		}
		return nil
	}
}

func (e *Executor) reportComplete(eff effect.ReportComplete) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := e.context()
		defer cancel()
		if err := e.backend.ReportComplete(ctx, eff.ContentID); err != nil {
			e.log.Warn("completion report failed", zap.String("content_id", eff.ContentID), zap.Error(err))
			return nil
		}
		return CompletionReportedMsg{ContentID: eff.ContentID}
	}
}

func (e *Executor) fetchQuiz(eff effect.FetchQuiz) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := e.context()
		defer cancel()
		def, err := e.backend.FetchQuiz(ctx, eff.CourseID, eff.QuizID)
		return QuizLoadedMsg{CourseID: eff.CourseID, QuizID: eff.QuizID, Def: def, Err: err}
	}
}

func (e *Executor) submitQuiz(eff effect.SubmitQuiz) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := e.context()
		defer cancel()
		res, err := e.backend.SubmitQuiz(ctx, eff.CourseID, eff.QuizID, eff.Answers)
		return QuizSubmittedMsg{QuizID: eff.QuizID, Result: res, Forced: eff.Forced, Err: err}
	}
}

// sendChat always yields a ChatReplyMsg so the pending latch is released,
// even if the backend panics.
func (e *Executor) sendChat(eff effect.SendChat) tea.Cmd {
	return func() (msg tea.Msg) {
		defer func() {
			if r := recover(); r != nil {
				e.log.Error("chat backend panic", zap.Any("panic", r))
				msg = ChatReplyMsg{Seq: eff.Seq, Err: fmt.Errorf("chat backend panic: %v", r)}
			}
		}()
		ctx, cancel := e.context()
		defer cancel()
		reply, err := e.backend.Chat(ctx, backend.ChatRequest{
			Message:   eff.Message,
			CourseID:  eff.CourseID,
			ContentID: eff.ContentID,
			Context:   eff.Context,
		})
		return ChatReplyMsg{Seq: eff.Seq, Reply: reply, Err: err}
	}
}

// LoadSections fetches the course tree.
func (e *Executor) LoadSections(courseID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := e.context()
		defer cancel()
		sections, err := e.backend.Sections(ctx, courseID)
		return SectionsLoadedMsg{CourseID: courseID, Sections: sections, Err: err}
	}
}

// LoadContent fetches a content body and, for videos, resolves its duration.
func (e *Executor) LoadContent(courseID, contentID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := e.context()
		defer cancel()
		content, err := e.backend.Content(ctx, courseID, contentID)
		if err != nil {
			return ContentLoadedMsg{ContentID: contentID, Err: err}
		}
		msg := ContentLoadedMsg{ContentID: contentID, Content: content}
		if content.Kind == backend.KindVideo {
			msg.Duration, msg.DurationErr = media.Resolve(ctx, e.prober, content.VideoURL, content.Duration)
			if msg.DurationErr != nil {
				e.log.Warn("media duration unavailable",
					zap.String("content_id", content.ID),
					zap.String("source", content.VideoURL),
					zap.Error(msg.DurationErr))
			}
		}
		return msg
	}
}
