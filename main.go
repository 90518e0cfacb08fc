package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/llehouerou/coderadio/internal/coderadio"
	"github.com/llehouerou/coderadio/internal/config"
	"github.com/llehouerou/coderadio/internal/display"
	"github.com/llehouerou/coderadio/internal/errmsg"
	"github.com/llehouerou/coderadio/internal/logging"
	"github.com/llehouerou/coderadio/internal/notify"
	"github.com/llehouerou/coderadio/internal/nowplaying"
	"github.com/llehouerou/coderadio/internal/player"
	"github.com/llehouerou/coderadio/internal/stderr"
)

type flags struct {
	config   string
	station  int64
	volume   int
	logLevel string
	stations bool
	set      map[string]bool
}

func parseFlags(args []string) (flags, error) {
	var f flags
	fs := flag.NewFlagSet("coderadio", flag.ContinueOnError)
	fs.StringVar(&f.config, "config", "", "Configuration file to load")
	fs.Int64Var(&f.station, "station", 0, "Station id from the roster (0 = primary listen URL)")
	fs.IntVar(&f.volume, "volume", 9, "Initial volume, 0-9")
	fs.StringVar(&f.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	fs.BoolVar(&f.stations, "stations", false, "List the station roster and exit")
	if err := fs.Parse(args); err != nil {
		return f, err
	}

	f.set = make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })
	return f, nil
}

// apply overrides cfg with the flags given on the command line.
func (f flags) apply(cfg *config.Config) {
	if f.set["station"] {
		cfg.StationID = f.station
	}
	if f.set["volume"] {
		cfg.Volume = f.volume
	}
	if f.set["log-level"] {
		cfg.LogLevel = f.logLevel
	}
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func fatal(op errmsg.Op, err error) int {
	stderr.WriteOriginal(errmsg.Format(op, err) + "\n")
	return 1
}

// fatalWith names the file or URL the failed operation was working on.
func fatalWith(op errmsg.Op, target string, err error) int {
	stderr.WriteOriginal(errmsg.FormatWith(op, target, err) + "\n")
	return 1
}

func run(args []string) int {
	f, err := parseFlags(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := config.Load(f.config)
	if err != nil {
		return fatalWith(errmsg.OpConfigLoad, f.config, err)
	}
	f.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return fatal(errmsg.OpConfigLoad, err)
	}

	log, logFile, err := logging.New(cfg.LogPath(), cfg.LogLevel)
	if err != nil {
		return fatalWith(errmsg.OpLogOpen, cfg.LogPath(), err)
	}
	defer logFile.Close()

	// Audio backends write to fd 2 directly.
	if err := stderr.Start(log); err != nil {
		log.Warn().Err(err).Msg("stderr capture unavailable")
	}
	defer stderr.Stop()

	if f.stations {
		return listStations(cfg)
	}

	playback := cfg.GetPlaybackConfig()
	engine := player.New(
		player.WithLogger(log),
		player.WithSampleRate(playback.SampleRate),
		player.WithBuffer(playback.Buffer()),
		player.WithVolume(cfg.Volume),
	)
	if err := engine.Initialize(); err != nil {
		return fatal(errmsg.OpAudioInit, err)
	}
	defer engine.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := coderadio.New(
		coderadio.WithNowPlayingURL(cfg.API.NowPlayingURL),
		coderadio.WithEventsURL(cfg.API.EventsURL),
	)
	fc := cfg.GetFeedConfig()
	feed := coderadio.NewFeed(client, coderadio.FeedConfig{
		RetryAttempts: fc.RetryAttempts,
		RetryDelay:    fc.RetryDelay(),
	}, log)
	defer feed.Close()

	if err := feed.Connect(ctx); err != nil {
		return fatal(errmsg.OpFeedConnect, err)
	}

	opts := []display.Option{display.WithLogger(log)}
	if cfg.Notifications {
		if n, err := notify.New(); err != nil {
			log.Info().Err(err).Msg("desktop notifications unavailable")
		} else {
			songs := notify.NewSongNotifier(n, log)
			defer songs.Close()
			opts = append(opts, display.WithNotifier(songs))
		}
	}

	machine := nowplaying.New(cfg.StationID, log)
	p := tea.NewProgram(display.New(engine, machine, opts...))

	go forwardFeed(ctx, feed, p)
	go forwardStreamErrors(ctx, engine, p)

	final, err := p.Run()
	if err != nil {
		return fatal(errmsg.OpTerminal, err)
	}
	cancel()

	if m, ok := final.(display.Model); ok && m.Err() != nil {
		return fatal(exitOp(m.Err()), m.Err())
	}
	log.Info().Msg("exit")
	return 0
}

// listStations prints the roster so an id can be picked for -station.
func listStations(cfg *config.Config) int {
	client := coderadio.New(coderadio.WithNowPlayingURL(cfg.API.NowPlayingURL))
	roster, err := client.Stations(context.Background())
	if err != nil {
		return fatalWith(errmsg.OpFeedConnect, cfg.API.NowPlayingURL, err)
	}
	writeRoster(os.Stdout, roster)
	return 0
}

func writeRoster(w io.Writer, roster []coderadio.Relay) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATION\tBITRATE\tLISTENERS")
	for _, r := range roster {
		fmt.Fprintf(tw, "%d\t%s\t%d kbps\t%s\n", r.ID, r.Name, r.Bitrate, humanize.Comma(r.Listeners))
	}
	_ = tw.Flush()
}

// exitOp names the operation behind an error that ended the program.
func exitOp(err error) errmsg.Op {
	if errors.Is(err, coderadio.ErrStationNotFound) {
		return errmsg.OpStationSelect
	}
	return errmsg.OpFeedRead
}

type sender interface {
	Send(msg tea.Msg)
}

// forwardFeed pumps feed messages into the program until the feed fails
// for good or ctx ends.
func forwardFeed(ctx context.Context, feed *coderadio.Feed, p sender) {
	for {
		msg, err := feed.Next(ctx)
		if err != nil {
			if ctx.Err() == nil {
				p.Send(display.FeedErrMsg{Err: err})
			}
			return
		}
		p.Send(display.FeedMsg{Message: msg})
	}
}

// errorSource is implemented by player.Engine.
type errorSource interface {
	Errors() <-chan player.ErrorEvent
}

func forwardStreamErrors(ctx context.Context, engine errorSource, p sender) {
	for {
		select {
		case ev := <-engine.Errors():
			p.Send(display.StreamErrMsg{Event: ev})
		case <-ctx.Done():
			return
		}
	}
}
