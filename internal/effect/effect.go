// Package effect defines the side-effect descriptors returned by the session
// controllers. Controllers never perform I/O themselves; they return effects
// and an executor turns them into commands on the event loop.
package effect

import "time"

// Effect is a side effect requested by a controller transition.
type Effect interface {
	isEffect()
}

// ReportProgress asks the progress collaborator to record a watch percentage.
// Fire-and-forget: the response never feeds back into controller state.
type ReportProgress struct {
	ContentID string
	Percent   float64
}

// ReportComplete asks the progress collaborator to mark content complete.
type ReportComplete struct {
	ContentID string
}

// FetchQuiz loads a quiz definition.
type FetchQuiz struct {
	CourseID string
	QuizID   string
}

// SubmitQuiz sends the learner's answers for grading. Unanswered entries
// are -1. Forced is set when the countdown expired.
type SubmitQuiz struct {
	CourseID string
	QuizID   string
	Answers  []int
	Forced   bool
}

// SendChat issues one assistant request. Seq identifies the turn so a late
// reply for a discarded conversation can be recognised.
type SendChat struct {
	Seq       uint64
	Message   string
	CourseID  string
	ContentID string
	Context   []string
}

// StartTimer schedules a timer firing after After. Gen is the handle's
// generation at arm time; firings with an older generation are stale.
type StartTimer struct {
	Timer string
	Gen   uint64
	After time.Duration
}

// MediaOp is an operation applied to the media element.
type MediaOp int

const (
	MediaPlay MediaOp = iota
	MediaPause
	MediaSeek
	MediaVolume
	MediaRate
)

func (op MediaOp) String() string {
	switch op {
	case MediaPlay:
		return "play"
	case MediaPause:
		return "pause"
	case MediaSeek:
		return "seek"
	case MediaVolume:
		return "volume"
	case MediaRate:
		return "rate"
	}
	return "unknown"
}

// Media drives the media element (position in seconds, volume in [0,1],
// or playback rate, depending on Op).
type Media struct {
	Op    MediaOp
	Value float64
}

func (ReportProgress) isEffect() {}
func (ReportComplete) isEffect() {}
func (FetchQuiz) isEffect()      {}
func (SubmitQuiz) isEffect()     {}
func (SendChat) isEffect()       {}
func (StartTimer) isEffect()     {}
func (Media) isEffect()          {}

// SplitMedia separates media-element effects, which the owning view applies
// synchronously, from the effects dispatched to the executor.
func SplitMedia(effects []Effect) ([]Media, []Effect) {
	var media []Media
	var rest []Effect
	for _, e := range effects {
		if m, ok := e.(Media); ok {
			media = append(media, m)
			continue
		}
		rest = append(rest, e)
	}
	return media, rest
}
