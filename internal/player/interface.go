package player

// Interface defines the playback engine contract for dependency injection and testing.
type Interface interface {
	Play(url string)
	SetVolume(level int)
	Volume() int
	State() State
}

// Verify Engine implements Interface at compile time.
var _ Interface = (*Engine)(nil)
