// Command feedwatch follows the now-playing feed and logs every message,
// without opening an audio device.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"

	"github.com/llehouerou/coderadio/internal/coderadio"
	"github.com/llehouerou/coderadio/internal/logging"
)

func main() {
	nowPlaying := flag.String("now-playing-url", coderadio.DefaultNowPlayingURL, "REST now-playing endpoint")
	events := flag.String("events-url", coderadio.DefaultEventsURL, "Server-Sent Events endpoint")
	attempts := flag.Int("retry-attempts", coderadio.DefaultRetryAttempts, "Reconnect attempts per outage")
	delay := flag.Duration("retry-delay", coderadio.DefaultRetryDelay, "Delay between reconnect attempts")
	stations := flag.Bool("stations", false, "Print the station roster and exit")
	verbose := flag.Bool("v", false, "Debug logging")
	flag.Parse()

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	log := logging.Console(os.Stderr, level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := coderadio.New(
		coderadio.WithNowPlayingURL(*nowPlaying),
		coderadio.WithEventsURL(*events),
	)

	if *stations {
		roster, err := client.Stations(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("fetch stations")
		}
		for _, r := range roster {
			log.Info().
				Int64("id", r.ID).
				Str("name", r.Name).
				Int64("bitrate", r.Bitrate).
				Str("url", r.URL).
				Msg("station")
		}
		return
	}

	feed := coderadio.NewFeed(client, coderadio.FeedConfig{RetryAttempts: *attempts, RetryDelay: *delay}, log)
	defer feed.Close()
	if err := feed.Connect(ctx); err != nil {
		log.Fatal().Err(err).Msg("connect")
	}

	var last string
	for {
		msg, err := feed.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Fatal().Err(err).Msg("feed")
		}

		np := msg.NowPlaying
		ev := log.Info()
		if np.Song.ID == last {
			ev = log.Debug()
		}
		last = np.Song.ID
		ev.Str("song", np.Song.ID).
			Str("title", np.Song.Title).
			Str("artist", np.Song.Artist).
			Str("progress", (time.Duration(np.Elapsed) * time.Second).String()).
			Int64("listeners", msg.Listeners.Current).
			Msg("now playing")
	}
}
