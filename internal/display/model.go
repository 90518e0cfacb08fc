package display

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/llehouerou/coderadio/internal/coderadio"
	"github.com/llehouerou/coderadio/internal/keymap"
	"github.com/llehouerou/coderadio/internal/nowplaying"
	"github.com/llehouerou/coderadio/internal/player"
)

// FeedMsg carries a now-playing message into the program.
type FeedMsg struct {
	Message *coderadio.Message
}

// FeedErrMsg ends the program with a terminal feed error.
type FeedErrMsg struct {
	Err error
}

// StreamErrMsg reports that the engine fell silent.
type StreamErrMsg struct {
	Event player.ErrorEvent
}

type tickMsg time.Time

// Notifier is told about every song change.
type Notifier interface {
	Announce(song coderadio.Song)
}

// Printer writes a line above the live progress line.
type Printer func(line string) tea.Cmd

// Option configures a Model.
type Option func(*Model)

// WithNotifier announces song changes.
func WithNotifier(n Notifier) Option {
	return func(m *Model) { m.notifier = n }
}

// WithPrinter replaces tea.Println.
func WithPrinter(p Printer) Option {
	return func(m *Model) { m.print = p }
}

// WithLogger sets the model logger.
func WithLogger(log zerolog.Logger) Option {
	return func(m *Model) { m.log = log.With().Str("component", "display").Logger() }
}

// WithTickInterval changes the progress tick period.
func WithTickInterval(d time.Duration) Option {
	return func(m *Model) {
		if d > 0 {
			m.tick = d
		}
	}
}

// Model is the terminal program. Feed messages, ticks and key presses all
// arrive through Update, which is the only writer of display state.
type Model struct {
	engine   player.Interface
	machine  *nowplaying.Machine
	resolver *keymap.Resolver
	notifier Notifier
	print    Printer
	log      zerolog.Logger
	tick     time.Duration

	state   State
	bar     progress.Model
	width   int
	started bool
	status  string
	err     error
}

// New creates the program model.
func New(engine player.Interface, machine *nowplaying.Machine, opts ...Option) Model {
	m := Model{
		engine:   engine,
		machine:  machine,
		resolver: keymap.NewResolver(keymap.All),
		print:    func(line string) tea.Cmd { return tea.Println(line) },
		log:      zerolog.Nop(),
		tick:     time.Second,
		state:    NewState(engine.Volume()),
		bar:      newBar(),
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.print(RenderHint(keymap.Hint(keymap.All))), m.nextTick())
}

func (m Model) nextTick() tea.Cmd {
	return tea.Tick(m.tick, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case FeedMsg:
		return m.handleFeed(msg.Message)

	case FeedErrMsg:
		m.err = msg.Err
		return m, tea.Quit

	case StreamErrMsg:
		m.status = fmt.Sprintf("Stream stopped: %v", msg.Event.Err)
		return m, nil

	case tickMsg:
		if m.started {
			m.state.Tick()
		}
		return m, m.nextTick()

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	}
	return m, nil
}

func (m Model) handleFeed(msg *coderadio.Message) (tea.Model, tea.Cmd) {
	fx, err := m.machine.Handle(msg)
	if err != nil {
		m.err = err
		return m, tea.Quit
	}

	var cmds []tea.Cmd
	if fx.Play != "" {
		if fx.Station != nil {
			cmds = append(cmds, m.print(RenderStation(*fx.Station, m.width)))
		}
		m.engine.Play(fx.Play)
		m.status = ""
	}

	if fx.NewSong {
		m.state.Reset(fx.Song.ID, fx.Progress)
		m.started = true
		cmds = append(cmds, m.print("\n"+RenderMetadata(fx.Song, m.width)))
		if m.notifier != nil {
			n, song := m.notifier, fx.Song
			cmds = append(cmds, func() tea.Msg {
				n.Announce(song)
				return nil
			})
		}
	} else {
		m.state.Update(fx.Progress)
	}

	if len(cmds) == 0 {
		return m, nil
	}
	// Keep the station line ahead of the song block.
	return m, tea.Sequence(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch m.resolver.Resolve(key) {
	case keymap.ActionQuit:
		return m, tea.Quit
	case keymap.ActionSetVolume:
		level, ok := keymap.VolumeLevel(key)
		if !ok || level == m.engine.Volume() {
			return m, nil
		}
		m.engine.SetVolume(level)
		m.state.Volume = m.engine.Volume()
		m.log.Debug().Int("level", level).Msg("volume key")
	}
	return m, nil
}

func (m Model) View() string {
	if !m.started {
		return "Connecting...\n"
	}
	view := RenderProgress(m.state, m.bar, m.width) + "\n"
	if m.status != "" {
		view += RenderStatus(m.status) + "\n"
	}
	return view
}

// State returns the current display state.
func (m Model) State() State { return m.state }

// Err returns the error that ended the program, if any.
func (m Model) Err() error { return m.err }
