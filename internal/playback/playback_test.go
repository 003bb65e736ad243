package playback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phnplatform/studyterm/internal/effect"
	"github.com/phnplatform/studyterm/internal/timer"
)

func newVideo(t *testing.T, duration float64) *Controller {
	t.Helper()
	c := New("vid-1", "https://cdn.example/v.mp4", nil)
	c.OnMetadataReady(duration)
	return c
}

func countComplete(effs []effect.Effect) int {
	n := 0
	for _, e := range effs {
		if _, ok := e.(effect.ReportComplete); ok {
			n++
		}
	}
	return n
}

func findTimer(effs []effect.Effect) (effect.StartTimer, bool) {
	for _, e := range effs {
		if st, ok := e.(effect.StartTimer); ok {
			return st, true
		}
	}
	return effect.StartTimer{}, false
}

func TestCompletionFiresExactlyOnce(t *testing.T) {
	c := newVideo(t, 100)

	total := 0
	firstAt := -1.0
	for _, pos := range []float64{0, 10, 50, 99.5, 100, 100, 100.4} {
		n := countComplete(c.OnTimeUpdate(pos))
		if n > 0 && firstAt < 0 {
			firstAt = pos
		}
		total += n
	}

	assert.Equal(t, 1, total)
	assert.Equal(t, 100.0, firstAt)
	assert.True(t, c.State().Completed)
	assert.False(t, c.State().Playing)
}

func TestCompletionRequiresKnownDuration(t *testing.T) {
	c := New("vid-1", "src", nil)
	effs := c.OnTimeUpdate(500)
	assert.Zero(t, countComplete(effs))
	require.Len(t, effs, 1)
	assert.Equal(t, effect.ReportProgress{ContentID: "vid-1", Percent: 0}, effs[0])
}

func TestProgressReportedOnlyOnChange(t *testing.T) {
	c := newVideo(t, 200)

	effs := c.OnTimeUpdate(50)
	require.Len(t, effs, 1)
	assert.Equal(t, effect.ReportProgress{ContentID: "vid-1", Percent: 25}, effs[0])

	assert.Empty(t, c.OnTimeUpdate(50))

	effs = c.OnTimeUpdate(100)
	require.Len(t, effs, 1)
	assert.Equal(t, 50.0, effs[0].(effect.ReportProgress).Percent)
	assert.Equal(t, 50.0, c.State().LastReported)
}

func TestPositionClampedToDuration(t *testing.T) {
	c := newVideo(t, 60)
	c.OnTimeUpdate(75)
	assert.Equal(t, 60.0, c.State().Position)

	c.Seek(-5)
	assert.Equal(t, 0.0, c.State().Position)
	c.Seek(90)
	assert.Equal(t, 60.0, c.State().Position)
}

func TestMetadataConflictLastValueWins(t *testing.T) {
	c := newVideo(t, 60)
	c.OnMetadataReady(120)
	assert.Equal(t, 120.0, c.State().Duration)
}

func TestPlayPauseNoOpWhenAlreadyInState(t *testing.T) {
	c := newVideo(t, 60)

	assert.Empty(t, c.Pause())
	assert.NotEmpty(t, c.Play())
	assert.True(t, c.State().Playing)
	assert.Empty(t, c.Play())
	assert.NotEmpty(t, c.Pause())
	assert.False(t, c.State().Playing)
}

func TestPlayAtEndRestartsWithoutRecompleting(t *testing.T) {
	c := newVideo(t, 10)
	c.Play()
	require.Equal(t, 1, countComplete(c.OnTimeUpdate(10)))

	effs := c.Play()
	media, _ := effect.SplitMedia(effs)
	require.NotEmpty(t, media)
	assert.Equal(t, effect.Media{Op: effect.MediaSeek, Value: 0}, media[0])
	assert.Equal(t, 0.0, c.State().Position)

	assert.Zero(t, countComplete(c.OnTimeUpdate(10)))
}

func TestReplayStopsAtEnd(t *testing.T) {
	c := newVideo(t, 100)
	c.Play()
	c.OnTimeUpdate(100)
	require.False(t, c.State().Playing)

	c.Play()
	c.OnTimeUpdate(50)
	require.True(t, c.State().Playing)
	assert.Zero(t, countComplete(c.OnTimeUpdate(100)))

	s := c.State()
	assert.False(t, s.Playing, "replay ends stopped like the media clock")
	assert.True(t, s.Completed)

	media, _ := effect.SplitMedia(c.TogglePlay())
	require.NotEmpty(t, media)
	assert.Equal(t, effect.Media{Op: effect.MediaSeek, Value: 0}, media[0], "one press restarts")
	assert.True(t, c.State().Playing)
}

func TestVolumeZeroMutesAndToggleRestores(t *testing.T) {
	c := newVideo(t, 60)
	c.SetVolume(0.7)
	c.SetVolume(0)

	s := c.State()
	assert.True(t, s.Muted)
	assert.Zero(t, s.EffectiveVolume())

	c.ToggleMute()
	s = c.State()
	assert.False(t, s.Muted)
	assert.Equal(t, 0.7, s.Volume)
}

func TestToggleMuteRetainsVolume(t *testing.T) {
	c := newVideo(t, 60)
	c.SetVolume(0.4)

	effs := c.ToggleMute()
	media, _ := effect.SplitMedia(effs)
	require.Len(t, media, 1)
	assert.Equal(t, effect.Media{Op: effect.MediaVolume, Value: 0}, media[0])
	assert.Equal(t, 0.4, c.State().Volume)

	c.ToggleMute()
	assert.Equal(t, 0.4, c.State().EffectiveVolume())
}

func TestSetVolumeClamps(t *testing.T) {
	c := newVideo(t, 60)
	c.SetVolume(3)
	assert.Equal(t, 1.0, c.State().Volume)
	c.SetVolume(-1)
	assert.Equal(t, 0.0, c.State().Volume)
	assert.True(t, c.State().Muted)
}

func TestRateMenu(t *testing.T) {
	c := newVideo(t, 60)

	assert.Empty(t, c.SetRate(3))
	assert.Equal(t, 1.0, c.State().Rate)

	var seen []float64
	for range Rates {
		c.CycleRate()
		seen = append(seen, c.State().Rate)
	}
	assert.Equal(t, []float64{1.25, 1.5, 2, 0.5, 1}, seen)
}

func TestControlsHideAfterDelay(t *testing.T) {
	c := newVideo(t, 60)

	st, ok := findTimer(c.Seek(10))
	require.True(t, ok)
	assert.Equal(t, ControlsHideDelay, st.After)
	assert.True(t, c.State().ControlsVisible)

	c.OnTimer(timer.FiredMsg{Timer: st.Timer, Gen: st.Gen})
	assert.False(t, c.State().ControlsVisible)
}

func TestInteractionResetsHideTimer(t *testing.T) {
	c := newVideo(t, 60)

	first, _ := findTimer(c.Seek(5))
	second, _ := findTimer(c.SetVolume(0.5))

	c.OnTimer(timer.FiredMsg{Timer: first.Timer, Gen: first.Gen})
	assert.True(t, c.State().ControlsVisible, "stale firing must not hide controls")

	c.OnTimer(timer.FiredMsg{Timer: second.Timer, Gen: second.Gen})
	assert.False(t, c.State().ControlsVisible)
}

func TestCloseCancelsHideTimer(t *testing.T) {
	c := newVideo(t, 60)
	st, _ := findTimer(c.Play())

	effs := c.Close()
	assert.Equal(t, []effect.Effect{effect.Media{Op: effect.MediaPause}}, effs)

	c.OnTimer(timer.FiredMsg{Timer: st.Timer, Gen: st.Gen})
	assert.True(t, c.State().ControlsVisible)
}

func TestClosedPlayerTimerIgnoredByNextItem(t *testing.T) {
	prev := newVideo(t, 60)
	stale, ok := findTimer(prev.Play())
	require.True(t, ok)
	prev.Close()

	next := New("vid-2", "https://cdn.example/w.mp4", nil)
	next.OnMetadataReady(60)
	live, ok := findTimer(next.Play())
	require.True(t, ok)

	next.OnTimer(timer.FiredMsg{Timer: stale.Timer, Gen: stale.Gen})
	assert.True(t, next.State().ControlsVisible, "a closed player's timer must not hide the next one's controls")

	next.OnTimer(timer.FiredMsg{Timer: live.Timer, Gen: live.Gen})
	assert.False(t, next.State().ControlsVisible)
}

func TestMissingSourceIsErrored(t *testing.T) {
	c := New("vid-2", "", nil)
	s := c.State()
	assert.True(t, s.Errored)
	assert.NotEmpty(t, s.ErrorReason)

	assert.Empty(t, c.Play())
	assert.Empty(t, c.OnTimeUpdate(10))
	assert.False(t, c.State().Playing)
}

func TestFailIsTerminal(t *testing.T) {
	c := newVideo(t, 60)
	c.Play()
	c.Fail("decode error")

	assert.True(t, c.State().Errored)
	assert.False(t, c.State().Playing)
	assert.Empty(t, c.Seek(10))
}

func TestFormatTime(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0:00"},
		{5.9, "0:05"},
		{65, "1:05"},
		{3600, "60:00"},
		{-3, "0:00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatTime(tt.in), "FormatTime(%v)", tt.in)
	}
}
