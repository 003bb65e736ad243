package playback

import "fmt"

// FormatTime renders seconds as m:ss.
func FormatTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// FormatRate renders a playback rate the way the rate button shows it.
func FormatRate(r float64) string {
	return fmt.Sprintf("%gx", r)
}
