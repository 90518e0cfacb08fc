package coderadio

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
)

// ErrStationNotFound is returned when a requested station id is not in the roster.
var ErrStationNotFound = errors.New("station not found")

// Relay is one selectable stream of a station.
type Relay struct {
	ID        int64
	Name      string
	URL       string
	Bitrate   int64
	Format    string
	Listeners int64
}

// Roster returns every relay and mount of the message's station, sorted by id.
func Roster(msg *Message) []Relay {
	st := msg.Station
	roster := make([]Relay, 0, len(st.Remotes)+len(st.Mounts))
	for _, r := range st.Remotes {
		roster = append(roster, Relay{
			ID:        r.ID,
			Name:      r.Name,
			URL:       r.URL,
			Bitrate:   r.Bitrate,
			Format:    r.Format,
			Listeners: r.Listeners.Current,
		})
	}
	for _, m := range st.Mounts {
		roster = append(roster, Relay{
			ID:        m.ID,
			Name:      m.Name,
			URL:       m.URL,
			Bitrate:   m.Bitrate,
			Format:    m.Format,
			Listeners: m.Listeners.Current,
		})
	}
	slices.SortStableFunc(roster, func(a, b Relay) int { return cmp.Compare(a.ID, b.ID) })
	return roster
}

// FindStation returns the roster entry with the given id.
func FindStation(roster []Relay, id int64) (Relay, error) {
	for _, r := range roster {
		if r.ID == id {
			return r, nil
		}
	}
	return Relay{}, fmt.Errorf("%w: id %d", ErrStationNotFound, id)
}

// FindByURL returns the roster entry streaming url, if any.
func FindByURL(roster []Relay, url string) (Relay, bool) {
	for _, r := range roster {
		if r.URL == url {
			return r, true
		}
	}
	return Relay{}, false
}
