// Package course is the main learning screen: the course outline on the
// left, the open item in the middle and the assistant on the right.
package course

import (
	"errors"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"go.uber.org/zap"

	"github.com/phnplatform/studyterm/internal/backend"
	"github.com/phnplatform/studyterm/internal/chat"
	"github.com/phnplatform/studyterm/internal/effect"
	"github.com/phnplatform/studyterm/internal/executor"
	"github.com/phnplatform/studyterm/internal/media"
	"github.com/phnplatform/studyterm/internal/navigation"
	"github.com/phnplatform/studyterm/internal/playback"
	"github.com/phnplatform/studyterm/internal/router"
	"github.com/phnplatform/studyterm/internal/screen"
	quizscreen "github.com/phnplatform/studyterm/internal/screens/quiz"
	"github.com/phnplatform/studyterm/internal/timer"
	"github.com/phnplatform/studyterm/internal/ui/components"
	"github.com/phnplatform/studyterm/internal/ui/layout"
)

const (
	seekStep   = 10.0
	volumeStep = 0.1
)

// Loader runs effects and fetches course data.
type Loader interface {
	quizscreen.Runner
	LoadSections(courseID string) tea.Cmd
	LoadContent(courseID, contentID string) tea.Cmd
}

// Options configures a CourseScreen.
type Options struct {
	Loader Loader
	Log    *zap.Logger
	// Title names the course in the header. Defaults to the course id.
	Title string
	// ContentID is opened once the outline arrives.
	ContentID string
}

type focus int

const (
	focusOutline focus = iota
	focusContent
	focusChat
)

// CourseScreen implements screen.Screen for one course.
type CourseScreen struct {
	courseID string
	opts     Options
	log      *zap.Logger

	nav     *navigation.Controller
	loadErr string

	content    *backend.Content
	contentErr string
	loading    bool
	scroll     int

	player *playback.Controller
	clock  *media.Clock

	chat  *chat.Controller
	input components.TextInput
	spin  spinner.Model

	focus focus
}

var _ screen.Screen = (*CourseScreen)(nil)
var _ screen.KeyHintProvider = (*CourseScreen)(nil)
var _ screen.StatusProvider = (*CourseScreen)(nil)
var _ screen.BackgroundHandler = (*CourseScreen)(nil)
var _ screen.Closer = (*CourseScreen)(nil)

var errEmptyReply = errors.New("assistant returned no reply")

func New(courseID string, opts Options) *CourseScreen {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("course_id", courseID))
	return &CourseScreen{
		courseID: courseID,
		opts:     opts,
		log:      log,
		chat:     chat.New(log),
		input:    components.NewTextInput("Ask the assistant...", 500),
		spin:     spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
}

func (s *CourseScreen) Init() tea.Cmd {
	return s.opts.Loader.LoadSections(s.courseID)
}

func (s *CourseScreen) Title() string {
	if s.opts.Title != "" {
		return s.opts.Title
	}
	return s.courseID
}

// Status shows course completion.
func (s *CourseScreen) Status() string {
	if s.nav == nil {
		return ""
	}
	done, total := s.nav.Progress()
	if total == 0 {
		return ""
	}
	return formatCount(done, total) + " complete"
}

// Close stops the media clock and every controller timer.
func (s *CourseScreen) Close() {
	s.closePlayer()
}

// Navigation exposes the outline state. Nil until the sections load.
func (s *CourseScreen) Navigation() *navigation.Controller { return s.nav }

// Player exposes the active playback controller, nil unless a video is open.
func (s *CourseScreen) Player() *playback.Controller { return s.player }

// Chat exposes the assistant conversation.
func (s *CourseScreen) Chat() *chat.Controller { return s.chat }

// HandleBackground keeps replies, reloads and completions flowing while a
// quiz covers the course.
func (s *CourseScreen) HandleBackground(msg tea.Msg) tea.Cmd {
	_, cmd := s.Update(msg)
	return cmd
}

func (s *CourseScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case executor.SectionsLoadedMsg:
		return s, s.onSections(msg)

	case executor.ContentLoadedMsg:
		return s, s.onContent(msg)

	case executor.CompletionReportedMsg:
		return s, s.opts.Loader.LoadSections(s.courseID)

	case executor.QuizSubmittedMsg:
		if msg.Err != nil {
			return s, nil
		}
		return s, s.opts.Loader.LoadSections(s.courseID)

	case executor.ChatReplyMsg:
		switch {
		case msg.Err != nil:
			s.chat.OnFailure(msg.Seq, msg.Err)
		case msg.Reply == nil:
			s.chat.OnFailure(msg.Seq, errEmptyReply)
		default:
			s.chat.OnReply(msg.Seq, msg.Reply.Message, msg.Reply.Sources)
		}
		return s, nil

	case timer.FiredMsg:
		return s, s.onTimer(msg)

	case spinner.TickMsg:
		if !s.chat.Pending() {
			return s, nil
		}
		var cmd tea.Cmd
		s.spin, cmd = s.spin.Update(msg)
		return s, cmd

	case tea.KeyPressMsg:
		return s, s.handleKey(msg)
	}

	if s.focus == focusChat {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *CourseScreen) onSections(msg executor.SectionsLoadedMsg) tea.Cmd {
	if msg.CourseID != s.courseID {
		return nil
	}
	if msg.Err != nil {
		if s.nav == nil {
			s.loadErr = describeError(msg.Err, "Could not load the course.")
		}
		s.log.Warn("load sections", zap.Error(msg.Err))
		return nil
	}
	s.loadErr = ""
	if s.nav != nil {
		s.nav.Replace(msg.Sections)
		return nil
	}
	s.nav = navigation.New(msg.Sections, s.log)
	if s.opts.ContentID == "" {
		return nil
	}
	s.nav.SetSelected(s.opts.ContentID)
	s.focus = focusContent
	return s.openSelected()
}

// openSelected tears down the previous item and opens the selection. Quizzes
// open on their own screen above the course.
func (s *CourseScreen) openSelected() tea.Cmd {
	closeCmd := s.closePlayer()
	s.content = nil
	s.contentErr = ""
	s.loading = false
	s.scroll = 0

	item, ok := s.nav.Current()
	if !ok {
		return closeCmd
	}
	if item.Kind == backend.KindQuiz {
		return tea.Batch(closeCmd, s.startQuiz(item))
	}
	s.loading = true
	return tea.Batch(closeCmd, s.opts.Loader.LoadContent(s.courseID, item.ID))
}

func (s *CourseScreen) startQuiz(item backend.ContentItem) tea.Cmd {
	var pause tea.Cmd
	if s.player != nil {
		pause = s.apply(s.player.Pause())
	}
	q := quizscreen.New(s.courseID, item.ID, quizscreen.Options{
		Runner: s.opts.Loader,
		Log:    s.log,
		Title:  item.Title,
	})
	return tea.Batch(pause, func() tea.Msg { return router.PushScreenMsg{Screen: q} })
}

func (s *CourseScreen) onContent(msg executor.ContentLoadedMsg) tea.Cmd {
	if s.nav == nil || msg.ContentID != s.nav.Selected() {
		s.log.Debug("dropping stale content", zap.String("content_id", msg.ContentID))
		return nil
	}
	s.loading = false
	if msg.Err != nil {
		s.contentErr = describeError(msg.Err, "Could not load this item.")
		return nil
	}
	s.content = msg.Content
	if msg.Content.Kind != backend.KindVideo {
		return nil
	}

	s.player = playback.New(msg.Content.ID, msg.Content.VideoURL, s.log)
	if s.player.State().Errored {
		return nil
	}
	if msg.DurationErr != nil {
		return s.apply(s.player.Fail("media failed to load"))
	}
	s.clock = media.NewClock(msg.Duration)
	return s.apply(s.player.OnMetadataReady(msg.Duration))
}

func (s *CourseScreen) onTimer(msg timer.FiredMsg) tea.Cmd {
	if s.player == nil {
		return nil
	}
	var cmds []tea.Cmd
	if s.clock != nil {
		if pos, ok, rearm := s.clock.OnTimer(msg); ok {
			cmds = append(cmds, s.opts.Loader.Run(rearm...))
			cmds = append(cmds, s.apply(s.player.OnTimeUpdate(pos)))
		}
	}
	cmds = append(cmds, s.apply(s.player.OnTimer(msg)))
	return tea.Batch(cmds...)
}

// apply drives the media clock with media effects and hands the rest to
// the loader.
func (s *CourseScreen) apply(effs []effect.Effect) tea.Cmd {
	ops, rest := effect.SplitMedia(effs)
	for _, op := range ops {
		if s.clock != nil {
			rest = append(rest, s.clock.Apply(op)...)
		}
	}
	if len(rest) == 0 {
		return nil
	}
	return s.opts.Loader.Run(rest...)
}

func (s *CourseScreen) closePlayer() tea.Cmd {
	if s.player == nil {
		return nil
	}
	cmd := s.apply(s.player.Close())
	if s.clock != nil {
		s.clock.Stop()
	}
	s.player = nil
	s.clock = nil
	return cmd
}

func (s *CourseScreen) handleKey(msg tea.KeyPressMsg) tea.Cmd {
	key := msg.String()
	switch key {
	case "tab":
		return s.setFocus((s.focus + 1) % 3)
	case "shift+tab":
		return s.setFocus((s.focus + 2) % 3)
	}
	if s.nav == nil {
		if key == "r" && s.loadErr != "" {
			s.loadErr = ""
			return s.opts.Loader.LoadSections(s.courseID)
		}
		return nil
	}

	switch s.focus {
	case focusChat:
		return s.chatKey(msg)
	case focusContent:
		return s.contentKey(key)
	}
	return s.outlineKey(key)
}

func (s *CourseScreen) setFocus(f focus) tea.Cmd {
	s.focus = f
	if f == focusChat {
		return s.input.Focus()
	}
	s.input.Blur()
	return nil
}

func (s *CourseScreen) outlineKey(key string) tea.Cmd {
	switch key {
	case "up", "k":
		s.nav.CursorUp()
	case "down", "j":
		s.nav.CursorDown()
	case "enter", "space":
		if s.nav.Activate() {
			return s.openSelected()
		}
		// Re-activating the open quiz starts another attempt.
		if it, ok := s.cursorItem(); ok && it.ID == s.nav.Selected() && it.Kind == backend.KindQuiz {
			return s.startQuiz(it)
		}
	}
	return nil
}

func (s *CourseScreen) cursorItem() (backend.ContentItem, bool) {
	rows := s.nav.Rows()
	c := s.nav.Cursor()
	if c < 0 || c >= len(rows) || rows[c].IsSection() {
		return backend.ContentItem{}, false
	}
	return *rows[c].Item, true
}

func (s *CourseScreen) contentKey(key string) tea.Cmd {
	switch key {
	case "n", "]":
		return s.follow(s.nextID())
	case "p", "[":
		return s.follow(s.previousID())
	case "esc":
		return s.setFocus(focusOutline)
	}

	if s.player != nil {
		return s.playerKey(key)
	}
	if s.content == nil {
		if key == "r" && s.contentErr != "" {
			return s.openSelected()
		}
		return nil
	}
	switch key {
	case "up", "k":
		if s.scroll > 0 {
			s.scroll--
		}
	case "down", "j":
		s.scroll++
	case "d":
		if s.content.Kind == backend.KindDocument {
			return s.opts.Loader.Run(effect.ReportComplete{ContentID: s.content.ID})
		}
	}
	return nil
}

func (s *CourseScreen) playerKey(key string) tea.Cmd {
	st := s.player.State()
	var effs []effect.Effect
	switch key {
	case "space", "enter":
		effs = s.player.TogglePlay()
	case "left", "h":
		effs = s.player.SeekBy(-seekStep)
	case "right", "l":
		effs = s.player.SeekBy(seekStep)
	case "up", "+", "=":
		effs = s.player.SetVolume(st.Volume + volumeStep)
	case "down", "-":
		effs = s.player.SetVolume(st.Volume - volumeStep)
	case "m":
		effs = s.player.ToggleMute()
	case "r":
		effs = s.player.CycleRate()
	case "0", "home":
		effs = s.player.Seek(0)
	default:
		effs = s.player.ShowControls()
	}
	return s.apply(effs)
}

// follow opens a neighbour named by the content body. Locked neighbours are
// refused the same way the outline refuses them.
func (s *CourseScreen) follow(id string) tea.Cmd {
	if id == "" || !s.nav.SelectContent(id) {
		return nil
	}
	return s.openSelected()
}

func (s *CourseScreen) nextID() string {
	if s.content != nil {
		return s.content.NextID
	}
	return ""
}

func (s *CourseScreen) previousID() string {
	if s.content != nil {
		return s.content.PreviousID
	}
	return ""
}

func (s *CourseScreen) chatKey(msg tea.KeyPressMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		return s.setFocus(focusOutline)
	case "enter":
		effs := s.chat.Send(s.input.Value(), s.courseID, s.nav.Selected())
		if len(effs) == 0 {
			return nil
		}
		s.input.Take()
		return tea.Batch(s.opts.Loader.Run(effs...), s.spin.Tick)
	}
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return cmd
}

func (s *CourseScreen) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{{Key: "Tab", Description: "Focus"}}
	switch s.focus {
	case focusChat:
		hints = append(hints,
			layout.KeyHint{Key: "Enter", Description: "Send"},
			layout.KeyHint{Key: "Esc", Description: "Outline"})
	case focusContent:
		if s.player != nil {
			hints = append(hints,
				layout.KeyHint{Key: "Space", Description: "Play/Pause"},
				layout.KeyHint{Key: "←→", Description: "Seek"},
				layout.KeyHint{Key: "↑↓", Description: "Volume"},
				layout.KeyHint{Key: "m", Description: "Mute"},
				layout.KeyHint{Key: "r", Description: "Speed"})
		} else if s.content != nil && s.content.Kind == backend.KindDocument {
			hints = append(hints,
				layout.KeyHint{Key: "↑↓", Description: "Scroll"},
				layout.KeyHint{Key: "d", Description: "Mark done"})
		}
		hints = append(hints, layout.KeyHint{Key: "n/p", Description: "Next/Prev"})
	default:
		hints = append(hints,
			layout.KeyHint{Key: "↑↓", Description: "Move"},
			layout.KeyHint{Key: "Enter", Description: "Open"})
	}
	return append(hints, layout.KeyHint{Key: "Ctrl+C", Description: "Quit"})
}

func describeError(err error, fallback string) string {
	if errors.Is(err, backend.ErrNotFound) {
		return "This item is no longer available."
	}
	if backend.IsTransient(err) {
		return fallback + " Check your connection and press r to retry."
	}
	return fallback + " Press r to retry."
}
