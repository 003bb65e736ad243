package router

import (
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/phnplatform/studyterm/internal/screen"
)

// stubScreen is a minimal screen for testing.
type stubScreen struct {
	title   string
	initRan bool
}

func (s *stubScreen) Init() tea.Cmd {
	s.initRan = true
	return nil
}
func (s *stubScreen) Update(tea.Msg) (screen.Screen, tea.Cmd) { return s, nil }
func (s *stubScreen) View(int, int) string                    { return s.title }
func (s *stubScreen) Title() string                           { return s.title }

func TestPush(t *testing.T) {
	s1 := &stubScreen{title: "first"}
	r := New(s1)

	s2 := &stubScreen{title: "second"}
	r.Push(s2)

	if r.Depth() != 2 {
		t.Errorf("expected depth 2, got %d", r.Depth())
	}
	if r.Active().Title() != "second" {
		t.Errorf("expected active 'second', got %q", r.Active().Title())
	}
	if !s2.initRan {
		t.Error("expected Init() to run on pushed screen")
	}
}

func TestPop(t *testing.T) {
	s1 := &stubScreen{title: "first"}
	r := New(s1)

	s2 := &stubScreen{title: "second"}
	r.Push(s2)
	r.Pop()

	if r.Depth() != 1 {
		t.Errorf("expected depth 1, got %d", r.Depth())
	}
	if r.Active().Title() != "first" {
		t.Errorf("expected active 'first', got %q", r.Active().Title())
	}
}

func TestPopNoopAtBottom(t *testing.T) {
	s1 := &stubScreen{title: "first"}
	r := New(s1)

	r.Pop()

	if r.Depth() != 1 {
		t.Errorf("expected depth 1 after pop at bottom, got %d", r.Depth())
	}
}

func TestReplace(t *testing.T) {
	s1 := &stubScreen{title: "first"}
	r := New(s1)

	s2 := &stubScreen{title: "second"}
	r.Replace(s2)

	if r.Depth() != 1 {
		t.Errorf("expected depth 1 after replace, got %d", r.Depth())
	}
	if r.Active().Title() != "second" {
		t.Errorf("expected active 'second', got %q", r.Active().Title())
	}
	if !s2.initRan {
		t.Error("expected Init() to run on replaced screen")
	}
}

func TestReplaceScreenMsg(t *testing.T) {
	s1 := &stubScreen{title: "first"}
	r := New(s1)

	s2 := &stubScreen{title: "second"}
	r.Update(ReplaceScreenMsg{Screen: s2})

	if r.Active().Title() != "second" {
		t.Errorf("expected active 'second', got %q", r.Active().Title())
	}
	if !s2.initRan {
		t.Error("expected Init() to run via ReplaceScreenMsg")
	}
}

func TestReplacePreservesStackDepth(t *testing.T) {
	s1 := &stubScreen{title: "first"}
	r := New(s1)

	s2 := &stubScreen{title: "second"}
	r.Push(s2)

	s3 := &stubScreen{title: "third"}
	r.Replace(s3)

	if r.Depth() != 2 {
		t.Errorf("expected depth 2, got %d", r.Depth())
	}
	if r.Active().Title() != "third" {
		t.Errorf("expected active 'third', got %q", r.Active().Title())
	}
}

// bgScreen records background messages and close calls.
type bgScreen struct {
	stubScreen
	background []tea.Msg
	closed     bool
}

func (s *bgScreen) HandleBackground(msg tea.Msg) tea.Cmd {
	s.background = append(s.background, msg)
	return nil
}

func (s *bgScreen) Close() { s.closed = true }

type resultMsg struct{}

func TestPopClosesScreen(t *testing.T) {
	r := New(&stubScreen{title: "first"})
	top := &bgScreen{stubScreen: stubScreen{title: "top"}}
	r.Push(top)
	r.Pop()

	if !top.closed {
		t.Error("expected popped screen to be closed")
	}
}

func TestReplaceClosesScreen(t *testing.T) {
	old := &bgScreen{stubScreen: stubScreen{title: "old"}}
	r := New(old)
	r.Replace(&stubScreen{title: "new"})

	if !old.closed {
		t.Error("expected replaced screen to be closed")
	}
}

func TestBackgroundDelivery(t *testing.T) {
	base := &bgScreen{stubScreen: stubScreen{title: "base"}}
	r := New(base)
	r.Push(&stubScreen{title: "top"})

	r.Update(resultMsg{})
	r.Update(tea.KeyPressMsg{Code: 'x', Text: "x"})

	if len(base.background) != 1 {
		t.Fatalf("expected 1 background message, got %d", len(base.background))
	}
	if _, ok := base.background[0].(resultMsg); !ok {
		t.Errorf("unexpected background message %T", base.background[0])
	}
}
