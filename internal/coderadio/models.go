package coderadio

import "encoding/json"

// Message is one now-playing update, as served by both the REST endpoint
// and the event stream.
type Message struct {
	Station     Station       `json:"station"`
	Listeners   Listeners     `json:"listeners"`
	Live        Live          `json:"live"`
	NowPlaying  NowPlaying    `json:"now_playing"`
	PlayingNext PlayingNext   `json:"playing_next"`
	SongHistory []SongHistory `json:"song_history"`
	IsOnline    bool          `json:"is_online"`
	Cache       string        `json:"cache"`
}

type Station struct {
	ID              int64    `json:"id"`
	Name            string   `json:"name"`
	Shortcode       string   `json:"shortcode"`
	Description     string   `json:"description"`
	Frontend        string   `json:"frontend"`
	Backend         string   `json:"backend"`
	ListenURL       string   `json:"listen_url"`
	URL             string   `json:"url"`
	PublicPlayerURL string   `json:"public_player_url"`
	PlaylistPLSURL  string   `json:"playlist_pls_url"`
	PlaylistM3UURL  string   `json:"playlist_m3u_url"`
	IsPublic        bool     `json:"is_public"`
	Mounts          []Mount  `json:"mounts"`
	Remotes         []Remote `json:"remotes"`
}

// Mount is a stream served by the station itself.
type Mount struct {
	Path      string    `json:"path"`
	IsDefault bool      `json:"is_default"`
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	Bitrate   int64     `json:"bitrate"`
	Format    string    `json:"format"`
	Listeners Listeners `json:"listeners"`
}

// Remote is a stream relayed by another server.
type Remote struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	Bitrate   int64     `json:"bitrate"`
	Format    string    `json:"format"`
	Listeners Listeners `json:"listeners"`
}

type Listeners struct {
	Total   int64 `json:"total"`
	Unique  int64 `json:"unique"`
	Current int64 `json:"current"`
}

type Live struct {
	IsLive         bool            `json:"is_live"`
	StreamerName   string          `json:"streamer_name"`
	BroadcastStart json.RawMessage `json:"broadcast_start"`
}

// NowPlaying describes the current song. Duration 0 means unknown.
type NowPlaying struct {
	Elapsed   int64  `json:"elapsed"`
	Remaining int64  `json:"remaining"`
	ShID      int64  `json:"sh_id"`
	PlayedAt  int64  `json:"played_at"`
	Duration  int64  `json:"duration"`
	Playlist  string `json:"playlist"`
	Streamer  string `json:"streamer"`
	IsRequest bool   `json:"is_request"`
	Song      Song   `json:"song"`
}

// Song identity is ID, not content.
type Song struct {
	ID           string            `json:"id"`
	Text         string            `json:"text"`
	Artist       string            `json:"artist"`
	Title        string            `json:"title"`
	Album        string            `json:"album"`
	Genre        string            `json:"genre"`
	Lyrics       string            `json:"lyrics"`
	Art          string            `json:"art"`
	CustomFields []json.RawMessage `json:"custom_fields"`
}

type PlayingNext struct {
	CuedAt    int64  `json:"cued_at"`
	Duration  int64  `json:"duration"`
	Playlist  string `json:"playlist"`
	IsRequest bool   `json:"is_request"`
	Song      Song   `json:"song"`
}

type SongHistory struct {
	ShID      int64  `json:"sh_id"`
	PlayedAt  int64  `json:"played_at"`
	Duration  int64  `json:"duration"`
	Playlist  string `json:"playlist"`
	Streamer  string `json:"streamer"`
	IsRequest bool   `json:"is_request"`
	Song      Song   `json:"song"`
}

// envelope is a publication on the event stream:
// {"channel": "station:coderadio", "pub": {"data": {"np": {...}}, "offset": 1}}.
// Connect acks and pings carry no pub and decode with NP nil.
type envelope struct {
	Channel string `json:"channel"`
	Pub     struct {
		Data struct {
			NP *Message `json:"np"`
		} `json:"data"`
		Offset int64 `json:"offset"`
	} `json:"pub"`
}
