package notify

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/llehouerou/coderadio/internal/coderadio"
)

const (
	songIcon    = "audio-x-generic"
	songTimeout = 5000 // ms
)

// SongNotifier announces song changes on the desktop.
type SongNotifier struct {
	notifier Notifier
	log      zerolog.Logger
}

// NewSongNotifier wraps n. Failures are logged, never returned.
func NewSongNotifier(n Notifier, log zerolog.Logger) *SongNotifier {
	return &SongNotifier{notifier: n, log: log.With().Str("component", "notify").Logger()}
}

// Announce replaces the notification on screen with song.
func (s *SongNotifier) Announce(song coderadio.Song) {
	if err := s.notifier.Show(songNotification(song)); err != nil {
		s.log.Debug().Err(err).Str("song", song.ID).Msg("notification failed")
	}
}

// Close dismisses the last notification.
func (s *SongNotifier) Close() error {
	return s.notifier.Dismiss()
}

func songNotification(song coderadio.Song) Notification {
	title := song.Title
	if title == "" {
		title = appName
	}

	var parts []string
	for _, p := range []string{song.Artist, song.Album} {
		if p != "" {
			parts = append(parts, p)
		}
	}

	return Notification{
		Title:   title,
		Body:    strings.Join(parts, " - "),
		Icon:    songIcon,
		Timeout: songTimeout,
	}
}
