package display

import (
	"strconv"

	"github.com/llehouerou/coderadio/internal/nowplaying"
)

// State is what the progress line shows. It is created at the first
// message and lives for the whole process.
type State struct {
	SongID    string
	Elapsed   int64
	Duration  int64 // 0 when unknown
	Listeners int64
	Volume    int // negative until a level is known
}

// NewState returns a state with the given volume label.
func NewState(volume int) State {
	return State{Volume: volume}
}

// Known reports whether the song length is bounded.
func (s State) Known() bool { return s.Duration > 0 }

// Reset starts a new song.
func (s *State) Reset(songID string, p nowplaying.Progress) {
	s.SongID = songID
	s.Duration = max(p.Duration, 0)
	s.Update(p)
}

// Update moves the position and listener count within the current song.
func (s *State) Update(p nowplaying.Progress) {
	s.Elapsed = max(p.Elapsed, 0)
	if s.Known() {
		s.Elapsed = min(s.Elapsed, s.Duration)
	}
	s.Listeners = p.Listeners
}

// Tick advances the position by one second between messages.
func (s *State) Tick() {
	if s.Known() && s.Elapsed >= s.Duration {
		return
	}
	s.Elapsed++
}

// VolumeLabel returns the level, or "*" if none is known.
func (s State) VolumeLabel() string {
	if s.Volume < 0 {
		return "*"
	}
	return strconv.Itoa(s.Volume)
}

// Ratio is the played fraction of a song with known duration.
func (s State) Ratio() float64 {
	if !s.Known() {
		return 0
	}
	return float64(s.Elapsed) / float64(s.Duration)
}
