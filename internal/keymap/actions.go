// Package keymap defines key bindings and action dispatch for the application.
package keymap

// Action represents a user-triggerable action.
type Action string

const (
	ActionQuit      Action = "quit"
	ActionSetVolume Action = "set_volume" // digit is the level
)
