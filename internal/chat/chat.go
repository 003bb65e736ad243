// Package chat implements the assistant conversation controller.
package chat

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/phnplatform/studyterm/internal/effect"
)

// ContextSize is how many prior messages accompany each request.
const ContextSize = 5

// FallbackReply ends a turn whose request failed.
const FallbackReply = "Sorry, I encountered an error. Please try again."

// Sender identifies who wrote a message.
type Sender string

const (
	User      Sender = "user"
	Assistant Sender = "assistant"
)

// Message is one entry in the conversation history.
type Message struct {
	ID      string
	Text    string
	Sender  Sender
	SentAt  time.Time
	Sources []string
	// Fallback marks an assistant turn standing in for a failed request.
	Fallback bool
}

// Controller owns the history and the single pending-request latch.
type Controller struct {
	history []Message
	pending bool
	seq     uint64

	now func() time.Time
	log *zap.Logger
}

// New returns an empty conversation.
func New(log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{now: time.Now, log: log}
}

// Send appends the user's message and issues one request. It is a no-op for
// blank text or while a request is pending.
func (c *Controller) Send(text, courseID, contentID string) []effect.Effect {
	text = strings.TrimSpace(text)
	if text == "" || c.pending {
		return nil
	}

	lo, hi := c.ContextWindow()
	context := make([]string, 0, hi-lo)
	for _, m := range c.history[lo:hi] {
		context = append(context, m.Text)
	}

	c.append(Message{Text: text, Sender: User})
	c.pending = true
	c.seq++
	return []effect.Effect{effect.SendChat{
		Seq:       c.seq,
		Message:   text,
		CourseID:  courseID,
		ContentID: contentID,
		Context:   context,
	}}
}

// OnReply completes the pending turn with the assistant's answer. Replies
// for a turn other than the pending one are dropped.
func (c *Controller) OnReply(seq uint64, text string, sources []string) {
	if !c.release(seq) {
		return
	}
	c.append(Message{Text: text, Sender: Assistant, Sources: sources})
}

// OnFailure completes the pending turn with FallbackReply.
func (c *Controller) OnFailure(seq uint64, err error) {
	if !c.release(seq) {
		return
	}
	c.log.Warn("chat request failed", zap.Uint64("seq", seq), zap.Error(err))
	c.append(Message{Text: FallbackReply, Sender: Assistant, Fallback: true})
}

func (c *Controller) release(seq uint64) bool {
	if !c.pending || seq != c.seq {
		c.log.Debug("dropping stale chat reply", zap.Uint64("seq", seq), zap.Uint64("current", c.seq))
		return false
	}
	c.pending = false
	return true
}

func (c *Controller) append(m Message) {
	m.ID = uuid.NewString()
	m.SentAt = c.now()
	c.history = append(c.history, m)
}

// ContextWindow returns the [lo, hi) range of history sent as context with
// the next request: the last ContextSize messages.
func (c *Controller) ContextWindow() (lo, hi int) {
	hi = len(c.history)
	lo = hi - ContextSize
	if lo < 0 {
		lo = 0
	}
	return lo, hi
}

// History returns the full conversation for display.
func (c *Controller) History() []Message { return c.history }

// Pending reports whether a request is in flight.
func (c *Controller) Pending() bool { return c.pending }
