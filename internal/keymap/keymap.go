package keymap

import (
	"fmt"
	"strings"
)

// Binding describes a single key binding.
type Binding struct {
	Action      Action
	Keys        []string
	Description string
}

// All contains every key binding. Nothing else on the keyboard is recognized.
var All = []Binding{
	{ActionSetVolume, []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9"}, "adjust volume"},
	{ActionQuit, []string{"ctrl+c"}, "exit"},
}

// Hint returns the one-line usage help, e.g.
// "Press 0-9 to adjust volume. Press Ctrl+C to exit."
func Hint(bindings []Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		parts = append(parts, fmt.Sprintf("Press %s to %s.", displayKeys(b.Keys), b.Description))
	}
	return strings.Join(parts, " ")
}

// displayKeys renders a run of digits as a range and other keys by name.
func displayKeys(keys []string) string {
	if len(keys) > 1 && isDigitRun(keys) {
		return keys[0] + "-" + keys[len(keys)-1]
	}
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = displayKey(k)
	}
	return strings.Join(names, "/")
}

func isDigitRun(keys []string) bool {
	for i, k := range keys {
		if len(k) != 1 || k[0] < '0' || k[0] > '9' {
			return false
		}
		if i > 0 && k[0] != keys[i-1][0]+1 {
			return false
		}
	}
	return true
}

// displayKey turns "ctrl+c" into "Ctrl+C".
func displayKey(key string) string {
	parts := strings.Split(key, "+")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, "+")
}
