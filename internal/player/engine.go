// Package player plays continuous MP3 radio streams.
//
// An Engine owns one worker goroutine. Play and SetVolume never block: they
// queue commands that the worker applies strictly in send order, checking
// for new ones between audio chunks.
package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/rs/zerolog"

	"github.com/llehouerou/coderadio/internal/mp3stream"
)

var (
	// ErrDevice is returned by Initialize when no audio output is available.
	ErrDevice = errors.New("audio output device unavailable")
	// ErrStreamFetch reports a failed audio stream request.
	ErrStreamFetch = errors.New("stream fetch failed")

	errAlreadyInitialized = errors.New("player: already initialized")
)

const (
	defaultSampleRate = beep.SampleRate(44100)
	defaultBuffer     = 100 * time.Millisecond

	// chunkFrames is how many stereo frames the worker decodes between
	// mailbox checks, about 23ms at 44.1kHz.
	chunkFrames = 1024
	// sinkDepth is how many decoded chunks may wait for the device.
	sinkDepth = 16

	userAgent = "coderadio"

	dialTimeout          = 10 * time.Second
	defaultHeaderTimeout = 15 * time.Second
)

// ErrorEvent reports a stream that stopped producing audio.
type ErrorEvent struct {
	Op  string // "fetch", "decode" or "stream"
	URL string
	Err error
}

func (e ErrorEvent) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e ErrorEvent) Unwrap() error { return e.Err }

// Option configures an Engine.
type Option func(*Engine)

// WithOutput replaces the system speaker.
func WithOutput(out Output) Option {
	return func(e *Engine) { e.out = out }
}

// WithHTTPClient sets the client used to fetch streams. It must not carry
// an overall timeout since radio streams never end.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Engine) { e.client = c }
}

// WithHeaderTimeout bounds the wait for a stream's response headers. It has
// no effect together with WithHTTPClient.
func WithHeaderTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.headerTimeout = d
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) { e.log = log.With().Str("component", "player").Logger() }
}

// WithSampleRate sets the output device sample rate.
func WithSampleRate(rate int) Option {
	return func(e *Engine) {
		if rate > 0 {
			e.rate = beep.SampleRate(rate)
		}
	}
}

// WithBuffer sets the output device buffer duration.
func WithBuffer(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.buffer = d
		}
	}
}

// WithVolume sets the initial volume level.
func WithVolume(level int) Option {
	return func(e *Engine) { e.level.Store(int32(ClampVolume(level))) } //nolint:gosec // clamped
}

// Engine is the playback engine.
type Engine struct {
	out    Output
	client *http.Client
	log    zerolog.Logger
	rate   beep.SampleRate
	buffer time.Duration

	headerTimeout time.Duration

	box   *mailbox
	level atomic.Int32
	state atomic.Int32
	errs  chan ErrorEvent

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu          sync.Mutex
	initialized bool
	abort       context.CancelFunc // cancels the session being fetched or played

	closeOnce sync.Once
}

// New creates an engine. Call Initialize before relying on audio output.
func New(opts ...Option) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		out:           SpeakerOutput(),
		log:           zerolog.Nop(),
		rate:          defaultSampleRate,
		buffer:        defaultBuffer,
		headerTimeout: defaultHeaderTimeout,
		box:           newMailbox(),
		errs:          make(chan ErrorEvent, 8),
		ctx:           ctx,
		cancel:        cancel,
		done:          make(chan struct{}),
	}
	e.level.Store(MaxVolume)
	for _, opt := range opts {
		opt(e)
	}
	if e.client == nil {
		e.client = &http.Client{Transport: streamTransport(e.headerTimeout)}
	}
	return e
}

// Initialize binds the output device and starts the worker.
// Commands queued earlier are applied once the worker runs.
func (e *Engine) Initialize() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.initialized {
		return errAlreadyInitialized
	}

	if err := e.out.Init(e.rate, e.rate.N(e.buffer)); err != nil {
		return fmt.Errorf("%w: %w", ErrDevice, err)
	}
	e.initialized = true
	e.log.Debug().Int("rate", int(e.rate)).Dur("buffer", e.buffer).Msg("output initialized")

	go e.run()
	return nil
}

// Play points the worker at url. The current stream, if any, stops at the
// next chunk boundary.
func (e *Engine) Play(url string) {
	// Unblock a network read of the session being replaced. This happens
	// before the push so it can never hit the session url starts.
	e.mu.Lock()
	if e.abort != nil {
		e.abort()
	}
	e.mu.Unlock()

	e.box.push(command{kind: cmdPlay, url: url})
}

// SetVolume applies level, clamped to [0, 9], to the current or next stream.
func (e *Engine) SetVolume(level int) {
	level = ClampVolume(level)
	e.level.Store(int32(level)) //nolint:gosec // clamped
	e.box.push(command{kind: cmdVolume, level: level})
}

// Volume returns the last requested level.
func (e *Engine) Volume() int {
	return int(e.level.Load())
}

// State returns the current session state.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Errors delivers stream failures. Events are dropped when nobody reads.
func (e *Engine) Errors() <-chan ErrorEvent {
	return e.errs
}

// Close stops the worker and clears the output.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		e.cancel()
		e.mu.Lock()
		started := e.initialized
		e.mu.Unlock()
		if started {
			<-e.done
			e.out.Clear()
		}
	})
}

// session is the single active playback session.
type session struct {
	url     string
	ctx     context.Context
	cancel  context.CancelFunc
	body    io.ReadCloser
	dec     *mp3stream.Decoder
	sink    *sink
	volume  *effects.Volume
	pending [][2]float64
	// ended is set once the decoder is exhausted. Audio already queued on
	// the sink keeps playing until the session is replaced.
	ended bool
}

func (e *Engine) run() {
	defer close(e.done)

	level := e.Volume()
	var s *session
	for {
		if s == nil || s.ended {
			cmds, ok := e.box.wait(e.ctx)
			if !ok {
				e.stop(s)
				return
			}
			s = e.apply(cmds, s, &level)
			continue
		}

		if cmds := e.box.poll(); len(cmds) > 0 {
			s = e.apply(cmds, s, &level)
			continue
		}

		if !e.pump(s) {
			e.release(s)
		}

		if e.ctx.Err() != nil {
			e.stop(s)
			return
		}
	}
}

// apply executes cmds in order and returns the resulting session.
// A play followed by another play in the same batch is skipped since its
// session would be replaced before producing any audio.
func (e *Engine) apply(cmds []command, s *session, level *int) *session {
	lastPlay := -1
	for i, c := range cmds {
		if c.kind == cmdPlay {
			lastPlay = i
		}
	}

	for i, c := range cmds {
		switch c.kind {
		case cmdVolume:
			*level = c.level
			if s != nil {
				e.out.Lock()
				applyLevel(s.volume, c.level)
				e.out.Unlock()
			}
			e.log.Debug().Int("level", c.level).Msg("volume")
		case cmdPlay:
			if i != lastPlay {
				continue
			}
			e.stop(s)
			s = e.start(c.url, *level)
		}
	}
	return s
}

// start fetches url and hands a new sink to the output.
// It returns nil when the stream could not be opened.
func (e *Engine) start(url string, level int) *session {
	e.state.Store(int32(Connecting))
	log := e.log.With().Str("url", url).Logger()
	log.Info().Msg("connecting to stream")

	ctx, cancel := context.WithCancel(e.ctx)
	e.mu.Lock()
	e.abort = cancel
	e.mu.Unlock()

	// fail runs before cancel: a ctx that is already done means a newer
	// play or Close replaced this session, and the failure is not reported.
	body, err := e.fetch(ctx, url)
	if err != nil {
		e.fail(ctx, log, "fetch", url, err)
		cancel()
		return nil
	}

	dec, err := mp3stream.Open(body)
	if err != nil {
		e.fail(ctx, log, "decode", url, err)
		cancel()
		body.Close()
		return nil
	}

	s := &session{
		url:    url,
		ctx:    ctx,
		cancel: cancel,
		body:   body,
		dec:    dec,
		sink:   newSink(sinkDepth),
		volume: newVolume(level),
	}

	var src beep.Streamer = s.sink
	if from := beep.SampleRate(dec.SampleRate()); from != e.rate {
		src = beep.Resample(4, from, e.rate, src)
	}
	s.volume.Streamer = src
	e.out.Play(s.volume)

	e.state.Store(int32(Playing))
	log.Info().
		Int("rate", dec.SampleRate()).
		Int("channels", dec.Channels()).
		Int("bitrate", dec.Header().Bitrate).
		Msg("stream playing")
	return s
}

func (e *Engine) fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStreamFetch, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStreamFetch, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: status %d", ErrStreamFetch, resp.StatusCode)
	}
	return resp.Body, nil
}

// pump decodes one chunk and queues it on the sink. It returns false once
// the session has ended.
func (e *Engine) pump(s *session) bool {
	if s.pending == nil {
		chunk := make([][2]float64, chunkFrames)
		n, ok := s.dec.Stream(chunk)
		if !ok {
			e.end(s)
			return false
		}
		s.pending = chunk[:n]
	}

	select {
	case s.sink.chunks <- s.pending:
		s.pending = nil
	case <-e.box.signal():
		// Keep the chunk; commands are handled first.
	case <-e.ctx.Done():
	}
	return true
}

// end handles a stream that stopped yielding frames.
func (e *Engine) end(s *session) {
	if s.ctx.Err() != nil {
		// Replaced by a newer play or shutting down.
		return
	}
	log := e.log.With().Str("url", s.url).Logger()
	if cause := s.dec.Cause(); cause != nil {
		e.fail(s.ctx, log, "stream", s.url, cause)
		return
	}
	log.Warn().Msg("stream ended")
	e.state.Store(int32(Silent))
}

// fail records a session failure and falls silent until the next play.
func (e *Engine) fail(ctx context.Context, log zerolog.Logger, op, url string, err error) {
	if ctx.Err() != nil {
		return
	}
	log.Error().Err(err).Str("op", op).Msg("stream failed")
	e.state.Store(int32(Silent))

	select {
	case e.errs <- ErrorEvent{Op: op, URL: url, Err: err}:
	default:
	}
}

// release frees the network side of an ended session and closes its sink
// so the output plays what is queued and then drops the streamer.
func (e *Engine) release(s *session) {
	s.ended = true
	s.cancel()
	s.body.Close()
	s.sink.close()
}

// stop discards s and its audio.
func (e *Engine) stop(s *session) {
	if s == nil {
		return
	}
	if !s.ended {
		e.release(s)
	}
	e.out.Clear()
	e.log.Debug().Str("url", s.url).Msg("session stopped")
}

// streamTransport bounds connection setup and the wait for response headers.
// Body reads stay unbounded.
func streamTransport(headerTimeout time.Duration) *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone() //nolint:errcheck // always *http.Transport
	t.DialContext = (&net.Dialer{Timeout: dialTimeout, KeepAlive: 30 * time.Second}).DialContext
	t.TLSHandshakeTimeout = dialTimeout
	t.ResponseHeaderTimeout = headerTimeout
	return t
}
