package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHandle_FireConsumesLiveFiring(t *testing.T) {
	h := New("hide")
	st := h.Arm(3 * time.Second)

	assert.Equal(t, "hide", st.Timer)
	assert.Equal(t, 3*time.Second, st.After)
	assert.True(t, h.Armed())

	assert.True(t, h.Fire(FiredMsg{Timer: "hide", Gen: st.Gen}))
	assert.False(t, h.Armed())
	assert.False(t, h.Fire(FiredMsg{Timer: "hide", Gen: st.Gen}), "second delivery must be ignored")
}

func TestHandle_RearmInvalidatesOlderFiring(t *testing.T) {
	h := New("hide")
	first := h.Arm(time.Second)
	second := h.Arm(time.Second)

	assert.False(t, h.Fire(FiredMsg{Timer: "hide", Gen: first.Gen}))
	assert.True(t, h.Armed())
	assert.True(t, h.Fire(FiredMsg{Timer: "hide", Gen: second.Gen}))
}

func TestHandle_CancelDropsOutstandingFiring(t *testing.T) {
	h := New("countdown")
	st := h.Arm(time.Second)
	h.Cancel()

	assert.False(t, h.Armed())
	assert.False(t, h.Fire(FiredMsg{Timer: "countdown", Gen: st.Gen}))
}

func TestHandle_IgnoresOtherTimers(t *testing.T) {
	h := New("countdown")
	st := h.Arm(time.Second)

	assert.False(t, h.Fire(FiredMsg{Timer: "hide", Gen: st.Gen}))
	assert.True(t, h.Armed())
}

func TestHandle_ClosedHandleCannotFireIntoSuccessor(t *testing.T) {
	old := New("hide")
	stale := old.Arm(3 * time.Second)
	old.Cancel()

	fresh := New("hide")
	live := fresh.Arm(3 * time.Second)

	assert.NotEqual(t, stale.Gen, live.Gen)
	assert.False(t, fresh.Fire(FiredMsg{Timer: stale.Timer, Gen: stale.Gen}))
	assert.True(t, fresh.Armed())
	assert.True(t, fresh.Fire(FiredMsg{Timer: live.Timer, Gen: live.Gen}))
}
