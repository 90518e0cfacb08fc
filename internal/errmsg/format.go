// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

const (
	// Startup
	OpConfigLoad Op = "load configuration"
	OpLogOpen    Op = "open log file"
	OpAudioInit  Op = "initialize audio device"
	OpTerminal   Op = "run terminal display"

	// Now-playing feed
	OpFeedConnect   Op = "connect to now-playing feed"
	OpFeedRead      Op = "read now-playing feed"
	OpStationSelect Op = "resolve station"

	// Playback
	OpStreamPlay Op = "play stream"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}
