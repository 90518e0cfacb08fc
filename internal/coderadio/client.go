// Package coderadio talks to the Code Radio now-playing API.
package coderadio

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"
)

const (
	// DefaultNowPlayingURL serves the current now-playing message.
	DefaultNowPlayingURL = "https://coderadio-admin-v2.freecodecamp.org/api/nowplaying_static/coderadio.json"
	// DefaultEventsURL streams now-playing updates as Server-Sent Events.
	DefaultEventsURL = "https://coderadio-admin-v2.freecodecamp.org/api/live/nowplaying/sse?cf_connect=%7B%22subs%22%3A%7B%22station%3Acoderadio%22%3A%7B%7D%7D%7D"

	userAgent = "coderadio/1.0 (https://github.com/llehouerou/coderadio)"

	dialTimeout          = 10 * time.Second
	defaultHeaderTimeout = 15 * time.Second
)

// Client is a Code Radio API client.
type Client struct {
	httpClient    *http.Client
	streamClient  *http.Client
	headerTimeout time.Duration
	nowPlayingURL string
	eventsURL     string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithNowPlayingURL overrides the REST endpoint.
func WithNowPlayingURL(u string) ClientOption {
	return func(c *Client) {
		if u != "" {
			c.nowPlayingURL = u
		}
	}
}

// WithEventsURL overrides the event stream endpoint.
func WithEventsURL(u string) ClientOption {
	return func(c *Client) {
		if u != "" {
			c.eventsURL = u
		}
	}
}

// WithHTTPClient sets the client for REST requests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithStreamHeaderTimeout bounds the wait for the event stream's response
// headers.
func WithStreamHeaderTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.headerTimeout = d
		}
	}
}

// New creates a new Code Radio client.
func New(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		headerTimeout: defaultHeaderTimeout,
		nowPlayingURL: DefaultNowPlayingURL,
		eventsURL:     DefaultEventsURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	// The event stream stays open indefinitely, so only connection setup is
	// bounded.
	c.streamClient = &http.Client{Transport: streamTransport(c.headerTimeout)}
	return c
}

func streamTransport(headerTimeout time.Duration) *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone() //nolint:errcheck // always *http.Transport
	t.DialContext = (&net.Dialer{Timeout: dialTimeout, KeepAlive: 30 * time.Second}).DialContext
	t.TLSHandshakeTimeout = dialTimeout
	t.ResponseHeaderTimeout = headerTimeout
	return t
}

// NowPlaying fetches the current now-playing message.
func (c *Client) NowPlaying(ctx context.Context) (*Message, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.nowPlayingURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	var msg Message
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &msg, nil
}

// Stations fetches the station roster.
func (c *Client) Stations(ctx context.Context) ([]Relay, error) {
	msg, err := c.NowPlaying(ctx)
	if err != nil {
		return nil, err
	}
	return Roster(msg), nil
}

// Subscribe opens the event stream. The subscription lives until ctx is
// done or it is closed.
func (c *Client) Subscribe(ctx context.Context) (Subscription, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.eventsURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}
	return newEventStream(resp.Body), nil
}
