package player

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/coderadio/internal/mp3stream"
)

// fakeOutput records what the engine does with the device.
type fakeOutput struct {
	dev sync.Mutex // held by Lock/Unlock like the speaker's callback lock

	mu      sync.Mutex
	initErr error
	inits   int
	played  []beep.Streamer
	clears  int
}

func (f *fakeOutput) Init(beep.SampleRate, int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inits++
	return f.initErr
}

func (f *fakeOutput) Play(s beep.Streamer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.played = append(f.played, s)
}

func (f *fakeOutput) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears++
}

func (f *fakeOutput) Lock()   { f.dev.Lock() }
func (f *fakeOutput) Unlock() { f.dev.Unlock() }

func (f *fakeOutput) playCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.played)
}

func (f *fakeOutput) clearCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clears
}

func (f *fakeOutput) last() *effects.Volume {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.played) == 0 {
		return nil
	}
	v, _ := f.played[len(f.played)-1].(*effects.Volume)
	return v
}

// volumeOf reads the active effect under the device lock.
func (f *fakeOutput) volumeOf(v *effects.Volume) (float64, bool) {
	f.Lock()
	defer f.Unlock()
	return v.Volume, v.Silent
}

// frames builds n silent MPEG-1 Layer III frames at 128 kbps.
// rateBits selects 44.1kHz (0x00) or 48kHz (0x04).
func frames(n int, rateBits byte) []byte {
	header := []byte{0xFF, 0xFB, 0x90 | rateBits, 0x00}
	h, err := mp3stream.ParseHeader(header)
	if err != nil {
		panic(err)
	}
	frame := make([]byte, h.FrameSize())
	copy(frame, header)
	return bytes.Repeat(frame, n)
}

// radioServer streams silent frames until the client goes away.
func radioServer(t *testing.T, rateBits byte) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	chunk := frames(20, rateBits)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "audio/mpeg")
		flusher, _ := w.(http.Flusher)
		for {
			if _, err := w.Write(chunk); err != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
			select {
			case <-r.Context().Done():
				return
			case <-time.After(5 * time.Millisecond):
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func newTestEngine(t *testing.T, out *fakeOutput, opts ...Option) *Engine {
	t.Helper()
	e := New(append([]Option{WithOutput(out)}, opts...)...)
	require.NoError(t, e.Initialize())
	t.Cleanup(e.Close)
	return e
}

func TestEngine_InitializeDeviceError(t *testing.T) {
	out := &fakeOutput{initErr: errors.New("no default device")}
	e := New(WithOutput(out))

	err := e.Initialize()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDevice))
	e.Close()
}

func TestEngine_InitializeTwice(t *testing.T) {
	out := &fakeOutput{}
	e := newTestEngine(t, out)

	assert.Error(t, e.Initialize())
	assert.Equal(t, 1, out.inits)
}

func TestEngine_SetVolumeThenVolume(t *testing.T) {
	e := New(WithOutput(&fakeOutput{}))
	for v := MinVolume; v <= MaxVolume; v++ {
		e.SetVolume(v)
		assert.Equal(t, v, e.Volume())
	}

	e.SetVolume(10)
	assert.Equal(t, 9, e.Volume(), "levels above 9 clamp")
	e.SetVolume(-4)
	assert.Equal(t, 0, e.Volume(), "negative levels clamp")
}

func TestEngine_PlayStartsSession(t *testing.T) {
	srv, hits := radioServer(t, 0x00)
	out := &fakeOutput{}
	e := newTestEngine(t, out, WithVolume(3))

	assert.Equal(t, Idle, e.State())
	e.Play(srv.URL)

	require.Eventually(t, func() bool { return e.State() == Playing }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, out.playCount())
	assert.Equal(t, int32(1), hits.Load())

	v := out.last()
	require.NotNil(t, v)
	vol, silent := out.volumeOf(v)
	assert.False(t, silent)
	assert.InDelta(t, -1.5849625, vol, 1e-6, "log2(3/9)")
	_, isSink := v.Streamer.(*sink)
	assert.True(t, isSink, "no resampling at the device rate")
}

func TestEngine_PlayReplacesSession(t *testing.T) {
	srvA, _ := radioServer(t, 0x00)
	srvB, hitsB := radioServer(t, 0x00)
	out := &fakeOutput{}
	e := newTestEngine(t, out)

	e.Play(srvA.URL)
	require.Eventually(t, func() bool { return out.playCount() == 1 }, 2*time.Second, 5*time.Millisecond)

	e.Play(srvB.URL)
	require.Eventually(t, func() bool {
		return out.playCount() == 2 && e.State() == Playing
	}, 2*time.Second, 5*time.Millisecond)

	assert.GreaterOrEqual(t, out.clearCount(), 1, "previous sink must be cleared")
	assert.Equal(t, int32(1), hitsB.Load())
}

func TestEngine_SetVolumeWhilePlaying(t *testing.T) {
	srv, _ := radioServer(t, 0x00)
	out := &fakeOutput{}
	e := newTestEngine(t, out)

	e.Play(srv.URL)
	require.Eventually(t, func() bool { return e.State() == Playing }, 2*time.Second, 5*time.Millisecond)
	v := out.last()
	require.NotNil(t, v)

	e.SetVolume(0)
	require.Eventually(t, func() bool {
		_, silent := out.volumeOf(v)
		return silent
	}, 2*time.Second, 5*time.Millisecond)

	e.SetVolume(9)
	require.Eventually(t, func() bool {
		vol, silent := out.volumeOf(v)
		return !silent && vol == 0
	}, 2*time.Second, 5*time.Millisecond)
}

func TestEngine_Resamples(t *testing.T) {
	srv, _ := radioServer(t, 0x04) // 48kHz
	out := &fakeOutput{}
	e := newTestEngine(t, out, WithSampleRate(44100))

	e.Play(srv.URL)
	require.Eventually(t, func() bool { return e.State() == Playing }, 2*time.Second, 5*time.Millisecond)

	v := out.last()
	require.NotNil(t, v)
	_, resampled := v.Streamer.(*beep.Resampler)
	assert.True(t, resampled)
}

func TestEngine_FetchFailureFallsSilent(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	out := &fakeOutput{}
	e := newTestEngine(t, out)
	e.Play(srv.URL)

	select {
	case ev := <-e.Errors():
		assert.Equal(t, "fetch", ev.Op)
		assert.Equal(t, srv.URL, ev.URL)
		assert.True(t, errors.Is(ev, ErrStreamFetch))
	case <-time.After(2 * time.Second):
		t.Fatal("no error event")
	}

	require.Eventually(t, func() bool { return e.State() == Silent }, time.Second, time.Millisecond,
		"a failed fetch must not stay Connecting")
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), hits.Load(), "failed stream must not be retried")
	assert.Zero(t, out.playCount())
}

func TestEngine_StalledServerTimesOut(t *testing.T) {
	// Accepts the connection but never answers.
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	e := newTestEngine(t, &fakeOutput{}, WithHeaderTimeout(50*time.Millisecond))
	e.Play(srv.URL)

	select {
	case ev := <-e.Errors():
		assert.Equal(t, "fetch", ev.Op)
		assert.True(t, errors.Is(ev, ErrStreamFetch))
	case <-time.After(2 * time.Second):
		t.Fatal("fetch did not time out")
	}
	require.Eventually(t, func() bool { return e.State() == Silent }, time.Second, time.Millisecond)
}

func TestStreamTransport(t *testing.T) {
	tr := streamTransport(time.Second)
	assert.Equal(t, time.Second, tr.ResponseHeaderTimeout)
	assert.Equal(t, dialTimeout, tr.TLSHandshakeTimeout)
	assert.NotNil(t, tr.DialContext)
}

func TestEngine_DecodeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>not audio</html>"))
	}))
	defer srv.Close()

	e := newTestEngine(t, &fakeOutput{})
	e.Play(srv.URL)

	select {
	case ev := <-e.Errors():
		assert.Equal(t, "decode", ev.Op)
		assert.True(t, errors.Is(ev, mp3stream.ErrDecode))
	case <-time.After(2 * time.Second):
		t.Fatal("no error event")
	}
	require.Eventually(t, func() bool { return e.State() == Silent }, time.Second, time.Millisecond)
}

func TestEngine_StreamEndFallsSilent(t *testing.T) {
	var hits atomic.Int32
	body := frames(10, 0x00)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write(body)
	}))
	defer srv.Close()
	// Created before the engine so its cleanup runs after e.Close.
	live, _ := radioServer(t, 0x00)

	out := &fakeOutput{}
	e := newTestEngine(t, out)
	e.Play(srv.URL)

	require.Eventually(t, func() bool { return e.State() == Silent }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), hits.Load())
	assert.Zero(t, out.clearCount(), "queued audio of an ended stream must not be cleared")

	// A new play recovers and drops what is left of the old stream.
	e.Play(live.URL)
	require.Eventually(t, func() bool { return e.State() == Playing }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, out.clearCount())
}

func TestEngine_StreamEndDrainsQueuedAudio(t *testing.T) {
	body := frames(10, 0x00)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	out := &fakeOutput{}
	e := newTestEngine(t, out)
	e.Play(srv.URL)
	require.Eventually(t, func() bool { return e.State() == Silent }, 2*time.Second, 5*time.Millisecond)

	v := out.last()
	require.NotNil(t, v)

	// Pull like the device would: every queued frame, then the end.
	buf := make([][2]float64, 512)
	total := 0
	for range 1000 {
		out.Lock()
		n, ok := v.Stream(buf)
		out.Unlock()
		total += n
		if !ok {
			break
		}
	}
	assert.Positive(t, total)
	_, ok := v.Stream(buf)
	assert.False(t, ok, "drained sink reports the end")
}

func TestEngine_PlayBeforeInitialize(t *testing.T) {
	srv, _ := radioServer(t, 0x00)
	out := &fakeOutput{}
	e := New(WithOutput(out))
	t.Cleanup(e.Close)

	e.Play(srv.URL)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, Idle, e.State(), "no worker before Initialize")

	require.NoError(t, e.Initialize())
	require.Eventually(t, func() bool { return e.State() == Playing }, 2*time.Second, 5*time.Millisecond)
}

func TestErrorEvent_Error(t *testing.T) {
	ev := ErrorEvent{Op: "fetch", URL: "http://x", Err: ErrStreamFetch}
	assert.Equal(t, "fetch http://x: stream fetch failed", ev.Error())
}
