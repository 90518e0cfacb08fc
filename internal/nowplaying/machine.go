// Package nowplaying turns the now-playing feed into song transitions and
// the one-time station resolution that starts playback.
package nowplaying

import (
	"github.com/rs/zerolog"

	"github.com/llehouerou/coderadio/internal/coderadio"
)

// State is the song-transition state.
//
//	┌──────┐  first message   ┌───────────────┐
//	│ Idle │ ───────────────▶ │ Playing(song) │ ◀─┐ different song id
//	└──────┘                  └───────────────┘ ──┘
type State int

const (
	Idle State = iota
	Playing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Playing:
		return "Playing"
	default:
		return "Unknown"
	}
}

// Progress is the position part of a message.
// Duration 0 means the song length is unknown.
type Progress struct {
	Elapsed   int64
	Duration  int64
	Listeners int64
}

// Effects is what a message asks the display and the engine to do.
type Effects struct {
	// Play is the stream to start. Set on the first message only.
	Play string
	// Station is the roster entry streaming Play, if any.
	Station *coderadio.Relay
	// NewSong is set when Song differs from the displayed one; the
	// metadata block must be printed and the progress bounds reset.
	NewSong  bool
	Song     coderadio.Song
	Progress Progress
}

// Machine tracks the displayed song. It is not safe for concurrent use.
type Machine struct {
	stationID int64
	log       zerolog.Logger

	state    State
	songID   string
	resolved bool
}

// New creates a machine. stationID selects a roster entry; zero or less
// selects the station's primary listen URL.
func New(stationID int64, log zerolog.Logger) *Machine {
	return &Machine{
		stationID: stationID,
		log:       log.With().Str("component", "nowplaying").Logger(),
	}
}

// Handle applies one message. The only error is a requested station
// missing from the first message's roster, which is fatal.
func (m *Machine) Handle(msg *coderadio.Message) (Effects, error) {
	var fx Effects

	if !m.resolved {
		url, station, err := m.resolve(msg)
		if err != nil {
			return Effects{}, err
		}
		m.resolved = true
		fx.Play = url
		fx.Station = station
	}

	np := msg.NowPlaying
	fx.Song = np.Song
	fx.Progress = Progress{
		Elapsed:   np.Elapsed,
		Duration:  max(np.Duration, 0),
		Listeners: msg.Listeners.Current,
	}
	if fx.Progress.Duration > 0 {
		fx.Progress.Elapsed = min(fx.Progress.Elapsed, fx.Progress.Duration)
	}
	fx.Progress.Elapsed = max(fx.Progress.Elapsed, 0)

	if m.state == Idle || np.Song.ID != m.songID {
		fx.NewSong = true
		m.state = Playing
		m.songID = np.Song.ID
		m.log.Info().
			Str("id", np.Song.ID).
			Str("title", np.Song.Title).
			Str("artist", np.Song.Artist).
			Msg("song changed")
	}
	return fx, nil
}

func (m *Machine) resolve(msg *coderadio.Message) (string, *coderadio.Relay, error) {
	roster := coderadio.Roster(msg)

	url := msg.Station.ListenURL
	if m.stationID > 0 {
		r, err := coderadio.FindStation(roster, m.stationID)
		if err != nil {
			return "", nil, err
		}
		url = r.URL
	}

	m.log.Info().Str("url", url).Int("roster", len(roster)).Msg("station resolved")
	if r, ok := coderadio.FindByURL(roster, url); ok {
		return url, &r, nil
	}
	return url, nil, nil
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// SongID returns the displayed song id, empty while Idle.
func (m *Machine) SongID() string { return m.songID }
