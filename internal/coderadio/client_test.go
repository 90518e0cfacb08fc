package coderadio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const nowPlayingJSON = `{
  "station": {
    "id": 1,
    "name": "freeCodeCamp.org Code Radio",
    "shortcode": "coderadio",
    "listen_url": "https://coderadio-admin-v2.freecodecamp.org/radio/8010/radio.mp3",
    "mounts": [
      {"id": 1, "name": "HQ", "url": "https://example.test/hq.mp3", "bitrate": 128, "format": "mp3", "is_default": true, "listeners": {"current": 40}},
      {"id": 12, "name": "LQ", "url": "https://example.test/lq.mp3", "bitrate": 64, "format": "mp3"}
    ],
    "remotes": [
      {"id": 5, "name": "Relay", "url": "https://relay.test/radio.mp3", "bitrate": 128, "format": "mp3"}
    ]
  },
  "listeners": {"total": 120, "unique": 100, "current": 120},
  "live": {"is_live": false, "streamer_name": "", "broadcast_start": null},
  "now_playing": {
    "elapsed": 74, "remaining": 111, "duration": 185,
    "song": {"id": "abc", "title": "Lofi Track", "artist": "Someone", "album": "Beats"}
  },
  "is_online": true
}`

func TestClient_NowPlaying(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != userAgent {
			t.Errorf("User-Agent = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, nowPlayingJSON)
	}))
	defer srv.Close()

	c := New(WithNowPlayingURL(srv.URL))
	msg, err := c.NowPlaying(context.Background())
	if err != nil {
		t.Fatalf("NowPlaying() error: %v", err)
	}

	if msg.Station.Name != "freeCodeCamp.org Code Radio" {
		t.Errorf("station name = %q", msg.Station.Name)
	}
	np := msg.NowPlaying
	if np.Song.ID != "abc" || np.Song.Title != "Lofi Track" || np.Song.Artist != "Someone" || np.Song.Album != "Beats" {
		t.Errorf("song = %+v", np.Song)
	}
	if np.Elapsed != 74 || np.Duration != 185 {
		t.Errorf("elapsed/duration = %d/%d, want 74/185", np.Elapsed, np.Duration)
	}
	if msg.Listeners.Current != 120 {
		t.Errorf("listeners = %d, want 120", msg.Listeners.Current)
	}
}

func TestClient_NowPlaying_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := New(WithNowPlayingURL(srv.URL)).NowPlaying(context.Background()); err == nil {
		t.Error("NowPlaying() should fail on 503")
	}
}

func TestClient_Stations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, nowPlayingJSON)
	}))
	defer srv.Close()

	roster, err := New(WithNowPlayingURL(srv.URL)).Stations(context.Background())
	if err != nil {
		t.Fatalf("Stations() error: %v", err)
	}
	ids := make([]int64, len(roster))
	for i, r := range roster {
		ids[i] = r.ID
	}
	if fmt.Sprint(ids) != "[1 5 12]" {
		t.Errorf("roster ids = %v, want [1 5 12]", ids)
	}
	if roster[0].Listeners != 40 {
		t.Errorf("roster[0].Listeners = %d, want 40", roster[0].Listeners)
	}
}

func TestClient_Subscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept"); got != "text/event-stream" {
			t.Errorf("Accept = %q", got)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, "data: {\"connect\":{}}\n\n")
		_, _ = fmt.Fprintf(w, "data: {\"channel\":\"station:coderadio\",\"pub\":{\"data\":{\"np\":%s},\"offset\":3}}\n\n", compact(nowPlayingJSON))
	}))
	defer srv.Close()

	sub, err := New(WithEventsURL(srv.URL)).Subscribe(context.Background())
	if err != nil {
		t.Fatalf("Subscribe() error: %v", err)
	}
	defer sub.Close()

	msg, err := sub.Next()
	if err != nil {
		t.Fatalf("Next() error: %v", err)
	}
	if msg.NowPlaying.Song.ID != "abc" {
		t.Errorf("song id = %q, want abc", msg.NowPlaying.Song.ID)
	}

	if _, err := sub.Next(); err == nil {
		t.Error("Next() after the server hung up should fail")
	}
}

func TestClient_Subscribe_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(WithEventsURL(srv.URL)).Subscribe(context.Background())
	if err == nil {
		t.Fatal("Subscribe() should fail on 502")
	}
	if errors.Is(err, io.EOF) {
		t.Errorf("unexpected EOF error: %v", err)
	}
}

func TestClient_Subscribe_HeaderTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := New(WithEventsURL(srv.URL), WithStreamHeaderTimeout(50*time.Millisecond))
	start := time.Now()
	_, err := c.Subscribe(context.Background())
	if err == nil {
		t.Fatal("Subscribe() should fail when the server never answers")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Subscribe() took %v, want it bounded by the header timeout", elapsed)
	}
}

func TestClient_Subscribe_BodyIsUnbounded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		// Quiet for longer than the header timeout before the first event.
		select {
		case <-time.After(150 * time.Millisecond):
		case <-r.Context().Done():
			return
		}
		_, _ = fmt.Fprintf(w, "data: {\"pub\":{\"data\":{\"np\":%s}}}\n\n", compact(nowPlayingJSON))
	}))
	defer srv.Close()

	c := New(WithEventsURL(srv.URL), WithStreamHeaderTimeout(50*time.Millisecond))
	sub, err := c.Subscribe(context.Background())
	if err != nil {
		t.Fatalf("Subscribe() error: %v", err)
	}
	defer sub.Close()

	msg, err := sub.Next()
	if err != nil {
		t.Fatalf("Next() error: %v", err)
	}
	if msg.NowPlaying.Song.ID != "abc" {
		t.Errorf("song id = %q, want abc", msg.NowPlaying.Song.ID)
	}
}

// compact strips the newlines of a JSON fixture so it fits on one data line.
func compact(s string) string {
	out := make([]byte, 0, len(s))
	for i := range len(s) {
		if s[i] != '\n' {
			out = append(out, s[i])
		}
	}
	return string(out)
}
