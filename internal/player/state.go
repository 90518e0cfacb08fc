package player

// State is the playback engine's session state.
//
//	┌──────┐  play   ┌────────────┐  stream opened  ┌─────────┐
//	│ Idle │ ──────▶ │ Connecting │ ──────────────▶ │ Playing │
//	└──────┘         └────────────┘                 └─────────┘
//	                       │ fetch/decode failure        │ drop, end of stream
//	                       ▼                             ▼
//	                  ┌────────┐ ◀───────────────────────┘
//	                  │ Silent │
//	                  └────────┘
//	                       │ play
//	                       ▼
//	                  Connecting
//
// A play command moves any state to Connecting. Silent is left only by a
// new play command; the engine never retries a failed stream on its own.
type State int32

const (
	Idle State = iota
	Connecting
	Playing
	Silent
)

// String returns the state name for debugging.
func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Connecting:
		return "Connecting"
	case Playing:
		return "Playing"
	case Silent:
		return "Silent"
	default:
		return "Unknown"
	}
}
