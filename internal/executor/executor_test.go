package executor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phnplatform/studyterm/internal/backend"
	"github.com/phnplatform/studyterm/internal/effect"
	"github.com/phnplatform/studyterm/internal/timer"
)

type fakeBackend struct {
	progress  []float64
	completed []string
	answers   []int
	chatReq   backend.ChatRequest

	err      error
	panicMsg string
	content  *backend.Content
}

func (f *fakeBackend) ReportProgress(_ context.Context, _ string, pct float64) error {
	f.progress = append(f.progress, pct)
	return f.err
}

func (f *fakeBackend) ReportComplete(_ context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	f.completed = append(f.completed, id)
	return nil
}

func (f *fakeBackend) FetchQuiz(_ context.Context, _, quizID string) (*backend.QuizDefinition, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &backend.QuizDefinition{ID: quizID}, nil
}

func (f *fakeBackend) SubmitQuiz(_ context.Context, _, _ string, answers []int) (*backend.QuizResult, error) {
	f.answers = answers
	if f.err != nil {
		return nil, f.err
	}
	return &backend.QuizResult{TotalQuestions: len(answers)}, nil
}

func (f *fakeBackend) Chat(_ context.Context, req backend.ChatRequest) (*backend.ChatReply, error) {
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	f.chatReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &backend.ChatReply{Message: "echo: " + req.Message}, nil
}

func (f *fakeBackend) Sections(context.Context, string) ([]backend.Section, error) {
	return []backend.Section{{ID: "s1"}}, f.err
}

func (f *fakeBackend) Content(context.Context, string, string) (*backend.Content, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.content, nil
}

func (f *fakeBackend) Close() error { return nil }

type stubProber struct {
	d   float64
	err error
}

func (s stubProber) Probe(context.Context, string) (float64, error) { return s.d, s.err }

func TestRunEmpty(t *testing.T) {
	e := New(&fakeBackend{}, nil)
	assert.Nil(t, e.Run())
	assert.Nil(t, e.Run(effect.Media{Op: effect.MediaPlay}))
}

func TestStartTimerDeliversFiredMsg(t *testing.T) {
	e := New(&fakeBackend{}, nil)
	cmd := e.Run(effect.StartTimer{Timer: "hide", Gen: 3, After: time.Millisecond})
	require.NotNil(t, cmd)
	assert.Equal(t, timer.FiredMsg{Timer: "hide", Gen: 3}, cmd())
}

func TestReportProgressIsFireAndForget(t *testing.T) {
	fb := &fakeBackend{err: errors.New("offline")}
	e := New(fb, nil)
	msg := e.Run(effect.ReportProgress{ContentID: "v1", Percent: 12})()
	assert.Nil(t, msg)
	assert.Equal(t, []float64{12}, fb.progress)
}

func TestReportCompleteSignalsOnSuccessOnly(t *testing.T) {
	fb := &fakeBackend{}
	e := New(fb, nil)
	assert.Equal(t, CompletionReportedMsg{ContentID: "v1"}, e.Run(effect.ReportComplete{ContentID: "v1"})())

	fb.err = errors.New("offline")
	assert.Nil(t, e.Run(effect.ReportComplete{ContentID: "v2"})())
}

func TestFetchAndSubmitQuiz(t *testing.T) {
	fb := &fakeBackend{}
	e := New(fb, nil)

	loaded, ok := e.Run(effect.FetchQuiz{CourseID: "c1", QuizID: "q1"})().(QuizLoadedMsg)
	require.True(t, ok)
	require.NoError(t, loaded.Err)
	assert.Equal(t, "q1", loaded.Def.ID)

	submitted, ok := e.Run(effect.SubmitQuiz{CourseID: "c1", QuizID: "q1", Answers: []int{0, -1}, Forced: true})().(QuizSubmittedMsg)
	require.True(t, ok)
	assert.True(t, submitted.Forced)
	assert.Equal(t, []int{0, -1}, fb.answers)
	assert.Equal(t, 2, submitted.Result.TotalQuestions)
}

func TestSendChat(t *testing.T) {
	fb := &fakeBackend{}
	e := New(fb, nil)

	msg, ok := e.Run(effect.SendChat{Seq: 4, Message: "hi", CourseID: "c1", Context: []string{"a"}})().(ChatReplyMsg)
	require.True(t, ok)
	assert.Equal(t, uint64(4), msg.Seq)
	assert.Equal(t, "echo: hi", msg.Reply.Message)
	assert.Equal(t, []string{"a"}, fb.chatReq.Context)
}

func TestSendChatRecoversPanic(t *testing.T) {
	e := New(&fakeBackend{panicMsg: "boom"}, nil)

	msg, ok := e.Run(effect.SendChat{Seq: 9, Message: "hi"})().(ChatReplyMsg)
	require.True(t, ok)
	assert.Equal(t, uint64(9), msg.Seq)
	assert.Error(t, msg.Err)
}

func TestLoadContentResolvesDuration(t *testing.T) {
	fb := &fakeBackend{content: &backend.Content{ID: "v1", Kind: backend.KindVideo, VideoURL: "a.mp4", Duration: "1:30"}}
	e := New(fb, nil)

	msg := e.LoadContent("c1", "v1")().(ContentLoadedMsg)
	require.NoError(t, msg.Err)
	require.NoError(t, msg.DurationErr)
	assert.Equal(t, 90.0, msg.Duration)
}

func TestLoadContentProbesWhenUndeclared(t *testing.T) {
	fb := &fakeBackend{content: &backend.Content{ID: "v1", Kind: backend.KindVideo, VideoURL: "a.mp4"}}

	e := New(fb, nil, WithProber(stubProber{d: 42}))
	msg := e.LoadContent("c1", "v1")().(ContentLoadedMsg)
	assert.Equal(t, 42.0, msg.Duration)

	e = New(fb, nil, WithProber(stubProber{err: errors.New("ffprobe missing")}))
	msg = e.LoadContent("c1", "v1")().(ContentLoadedMsg)
	assert.Error(t, msg.DurationErr)
}

func TestLoadContentDocumentSkipsProbe(t *testing.T) {
	fb := &fakeBackend{content: &backend.Content{ID: "d1", Kind: backend.KindDocument, Body: "text"}}
	e := New(fb, nil)
	msg := e.LoadContent("c1", "d1")().(ContentLoadedMsg)
	require.NoError(t, msg.Err)
	assert.NoError(t, msg.DurationErr)
	assert.Equal(t, "text", msg.Content.Body)
}

func TestLoadSections(t *testing.T) {
	e := New(&fakeBackend{}, nil)
	msg := e.LoadSections("c1")().(SectionsLoadedMsg)
	require.NoError(t, msg.Err)
	assert.Len(t, msg.Sections, 1)
}
