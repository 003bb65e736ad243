// Package playback implements the video playback controller: it tracks the
// media element's position, rate and volume, derives progress and
// completion, and owns the auto-hide timer for the on-screen controls.
package playback

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/phnplatform/studyterm/internal/effect"
	"github.com/phnplatform/studyterm/internal/timer"
)

// ControlsHideDelay is how long controls stay visible after an interaction.
const ControlsHideDelay = 3 * time.Second

// Rates is the fixed playback-rate menu.
var Rates = []float64{0.5, 1, 1.25, 1.5, 2}

const hideTimerName = "playback-controls"

// State is the controller's observable state.
type State struct {
	Position      float64 // seconds
	Duration      float64 // seconds, valid when DurationKnown
	DurationKnown bool
	Rate          float64
	Volume        float64 // slider value in [0,1]
	Muted         bool
	Playing       bool
	Completed     bool

	// LastReported is the last progress percentage sent, valid when Reported.
	LastReported float64
	Reported     bool

	ControlsVisible bool

	Errored     bool
	ErrorReason string
}

// EffectiveVolume is the volume actually audible: 0 while muted.
func (s State) EffectiveVolume() float64 {
	if s.Muted {
		return 0
	}
	return s.Volume
}

// Progress is the watched percentage, 0 while the duration is unknown.
func (s State) Progress() float64 {
	if !s.DurationKnown || s.Duration <= 0 {
		return 0
	}
	p := s.Position / s.Duration * 100
	if p > 100 {
		p = 100
	}
	return p
}

// Controller drives playback for one content item. A new controller is
// created whenever the active item changes.
type Controller struct {
	contentID string
	state     State

	// lastAudible is the most recent non-zero volume, restored on un-mute.
	lastAudible float64

	hide timer.Handle
	log  *zap.Logger
}

// New creates a controller for a video item. An empty source leaves the
// controller in the Errored state.
func New(contentID, source string, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Controller{
		contentID: contentID,
		state: State{
			Rate:            1,
			Volume:          1,
			ControlsVisible: true,
		},
		lastAudible: 1,
		hide:        timer.New(hideTimerName),
		log:         log.With(zap.String("content_id", contentID)),
	}
	if source == "" {
		c.Fail("no media source")
	}
	return c
}

// ContentID returns the item this controller plays.
func (c *Controller) ContentID() string { return c.contentID }

// State returns a copy of the current state.
func (c *Controller) State() State { return c.state }

// Fail moves the controller into the terminal Errored state.
func (c *Controller) Fail(reason string) []effect.Effect {
	if c.state.Errored {
		return nil
	}
	c.log.Warn("media unavailable", zap.String("reason", reason))
	c.state.Errored = true
	c.state.ErrorReason = reason
	c.state.Playing = false
	c.hide.Cancel()
	return nil
}

// OnMetadataReady records the media duration. A second, conflicting value
// is logged and wins.
func (c *Controller) OnMetadataReady(duration float64) []effect.Effect {
	if c.state.Errored {
		return nil
	}
	if math.IsNaN(duration) || math.IsInf(duration, 0) || duration < 0 {
		c.log.Warn("ignoring invalid media duration", zap.Float64("duration", duration))
		return nil
	}
	if c.state.DurationKnown && c.state.Duration != duration {
		c.log.Warn("media duration changed",
			zap.Float64("previous", c.state.Duration),
			zap.Float64("duration", duration))
	}
	c.state.Duration = duration
	c.state.DurationKnown = true
	if c.state.Position > duration {
		c.state.Position = duration
	}
	return nil
}

// OnTimeUpdate handles a position report from the media element.
func (c *Controller) OnTimeUpdate(position float64) []effect.Effect {
	if c.state.Errored {
		return nil
	}
	c.state.Position = c.clamp(position)

	var effs []effect.Effect
	progress := c.state.Progress()
	if !c.state.Reported || progress != c.state.LastReported {
		c.state.LastReported = progress
		c.state.Reported = true
		effs = append(effs, effect.ReportProgress{ContentID: c.contentID, Percent: progress})
	}

	if !c.atEnd() {
		return effs
	}
	// The media element stops at the end of every run, replays included.
	c.state.Playing = false
	if !c.state.Completed {
		c.state.Completed = true
		c.log.Info("content completed")
		effs = append(effs, effect.ReportComplete{ContentID: c.contentID})
	}
	return effs
}

// Play starts playback. No-op if already playing.
func (c *Controller) Play() []effect.Effect {
	if c.state.Errored || c.state.Playing {
		return nil
	}
	var effs []effect.Effect
	if c.atEnd() {
		c.state.Position = 0
		effs = append(effs, effect.Media{Op: effect.MediaSeek, Value: 0})
	}
	c.state.Playing = true
	effs = append(effs, effect.Media{Op: effect.MediaPlay})
	return append(effs, c.touchControls()...)
}

// Pause stops playback. No-op if already paused.
func (c *Controller) Pause() []effect.Effect {
	if c.state.Errored || !c.state.Playing {
		return nil
	}
	c.state.Playing = false
	return append([]effect.Effect{effect.Media{Op: effect.MediaPause}}, c.touchControls()...)
}

// TogglePlay flips between playing and paused.
func (c *Controller) TogglePlay() []effect.Effect {
	if c.state.Playing {
		return c.Pause()
	}
	return c.Play()
}

// Seek jumps to t seconds, clamped to [0, duration].
func (c *Controller) Seek(t float64) []effect.Effect {
	if c.state.Errored {
		return nil
	}
	c.state.Position = c.clamp(t)
	return append([]effect.Effect{effect.Media{Op: effect.MediaSeek, Value: c.state.Position}}, c.touchControls()...)
}

// SeekBy moves the position by delta seconds.
func (c *Controller) SeekBy(delta float64) []effect.Effect {
	return c.Seek(c.state.Position + delta)
}

// SetVolume sets the slider volume, clamped to [0,1]. Zero mutes, any
// positive value un-mutes.
func (c *Controller) SetVolume(v float64) []effect.Effect {
	if c.state.Errored {
		return nil
	}
	v = math.Max(0, math.Min(1, v))
	if v == 0 {
		if c.state.Volume > 0 {
			c.lastAudible = c.state.Volume
		}
		c.state.Muted = true
	} else {
		c.lastAudible = v
		c.state.Muted = false
	}
	c.state.Volume = v
	return append([]effect.Effect{effect.Media{Op: effect.MediaVolume, Value: c.state.EffectiveVolume()}}, c.touchControls()...)
}

// ToggleMute swaps between silence and the last audible volume.
func (c *Controller) ToggleMute() []effect.Effect {
	if c.state.Errored {
		return nil
	}
	if c.state.Muted {
		c.state.Muted = false
		if c.state.Volume == 0 {
			c.state.Volume = c.lastAudible
		}
	} else {
		if c.state.Volume > 0 {
			c.lastAudible = c.state.Volume
		}
		c.state.Muted = true
	}
	return append([]effect.Effect{effect.Media{Op: effect.MediaVolume, Value: c.state.EffectiveVolume()}}, c.touchControls()...)
}

// SetRate selects a rate from Rates. Rates outside the menu are rejected.
func (c *Controller) SetRate(r float64) []effect.Effect {
	if c.state.Errored || rateIndex(r) < 0 {
		return nil
	}
	c.state.Rate = r
	return append([]effect.Effect{effect.Media{Op: effect.MediaRate, Value: r}}, c.touchControls()...)
}

// CycleRate advances to the next rate, wrapping after the last.
func (c *Controller) CycleRate() []effect.Effect {
	i := rateIndex(c.state.Rate)
	return c.SetRate(Rates[(i+1)%len(Rates)])
}

// ShowControls reveals the controls and restarts the hide delay.
func (c *Controller) ShowControls() []effect.Effect {
	if c.state.Errored {
		return nil
	}
	return c.touchControls()
}

// OnTimer hides the controls when the hide timer elapses.
func (c *Controller) OnTimer(msg timer.FiredMsg) []effect.Effect {
	if c.hide.Fire(msg) {
		c.state.ControlsVisible = false
	}
	return nil
}

// Close tears the controller down, cancelling outstanding timers.
func (c *Controller) Close() []effect.Effect {
	c.hide.Cancel()
	if c.state.Playing {
		c.state.Playing = false
		return []effect.Effect{effect.Media{Op: effect.MediaPause}}
	}
	return nil
}

func (c *Controller) touchControls() []effect.Effect {
	c.state.ControlsVisible = true
	return []effect.Effect{c.hide.Arm(ControlsHideDelay)}
}

func (c *Controller) clamp(t float64) float64 {
	if math.IsNaN(t) || t < 0 {
		return 0
	}
	if c.state.DurationKnown && t > c.state.Duration {
		return c.state.Duration
	}
	return t
}

func (c *Controller) atEnd() bool {
	return c.state.DurationKnown && c.state.Duration > 0 && c.state.Position >= c.state.Duration
}

func rateIndex(r float64) int {
	for i, v := range Rates {
		if v == r {
			return i
		}
	}
	return -1
}
