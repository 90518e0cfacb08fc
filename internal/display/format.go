// Package display renders the now-playing metadata block and progress line
// and owns the terminal program that serializes every update to them.
package display

import "fmt"

// FormatSeconds renders seconds as mm:ss. Minutes do not roll into hours.
func FormatSeconds(sec int64) string {
	sec = max(sec, 0)
	return fmt.Sprintf("%02d:%02d", sec/60, sec%60)
}

// ProgressInfo renders "elapsed / duration", or only elapsed when the
// duration is unknown (0).
func ProgressInfo(elapsed, duration int64) string {
	if duration <= 0 {
		return FormatSeconds(elapsed)
	}
	return FormatSeconds(elapsed) + " / " + FormatSeconds(duration)
}
