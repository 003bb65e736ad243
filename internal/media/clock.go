// Package media simulates the media element a terminal cannot render: a
// clock that advances while playing, honours seek, rate and volume, and
// reports time updates on a fixed cadence.
package media

import (
	"time"

	"github.com/phnplatform/studyterm/internal/effect"
	"github.com/phnplatform/studyterm/internal/timer"
)

// TickInterval is how often the clock reports a time update while playing.
const TickInterval = 250 * time.Millisecond

const tickTimerName = "media-clock"

// Clock is a simulated media element for one content item.
type Clock struct {
	position float64
	duration float64
	rate     float64
	volume   float64
	playing  bool

	last time.Time
	tick timer.Handle
	now  func() time.Time
}

// NewClock returns a paused clock at position 0.
func NewClock(duration float64) *Clock {
	return &Clock{
		duration: duration,
		rate:     1,
		volume:   1,
		tick:     timer.New(tickTimerName),
		now:      time.Now,
	}
}

// Apply executes a media effect and returns any timer to schedule.
func (c *Clock) Apply(m effect.Media) []effect.Effect {
	switch m.Op {
	case effect.MediaPlay:
		if c.playing {
			return nil
		}
		c.playing = true
		c.last = c.now()
		return []effect.Effect{c.tick.Arm(TickInterval)}
	case effect.MediaPause:
		c.sync()
		c.playing = false
		c.tick.Cancel()
	case effect.MediaSeek:
		c.position = m.Value
		c.last = c.now()
	case effect.MediaVolume:
		c.volume = m.Value
	case effect.MediaRate:
		c.sync()
		c.rate = m.Value
	}
	return nil
}

// OnTimer advances the clock on its own tick. It reports the new position
// when msg was the live tick, stopping at the end of the media.
func (c *Clock) OnTimer(msg timer.FiredMsg) (position float64, ok bool, effs []effect.Effect) {
	if !c.tick.Fire(msg) || !c.playing {
		return 0, false, nil
	}
	c.sync()
	if c.duration > 0 && c.position >= c.duration {
		c.position = c.duration
		c.playing = false
		return c.position, true, nil
	}
	return c.position, true, []effect.Effect{c.tick.Arm(TickInterval)}
}

// Stop cancels the tick.
func (c *Clock) Stop() {
	c.playing = false
	c.tick.Cancel()
}

func (c *Clock) sync() {
	if !c.playing {
		return
	}
	now := c.now()
	c.position += now.Sub(c.last).Seconds() * c.rate
	c.last = now
}

func (c *Clock) Position() float64 { return c.position }
func (c *Clock) Duration() float64 { return c.duration }
func (c *Clock) Playing() bool     { return c.playing }
func (c *Clock) Volume() float64   { return c.volume }
func (c *Clock) Rate() float64     { return c.rate }
