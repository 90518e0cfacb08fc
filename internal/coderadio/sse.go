package coderadio

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"sync"
)

// Subscription is a live sequence of now-playing messages.
type Subscription interface {
	// Next blocks until a message arrives. Any error means the
	// subscription is gone.
	Next() (*Message, error)
	Close() error
}

// maxEventSize bounds one event line; now-playing payloads with song
// history run to a few tens of kilobytes.
const maxEventSize = 1 << 20

// eventStream reads Server-Sent Events carrying now-playing envelopes.
type eventStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	data    bytes.Buffer

	closeOnce sync.Once
}

func newEventStream(body io.ReadCloser) *eventStream {
	sc := bufio.NewScanner(body)
	sc.Buffer(make([]byte, 0, 64*1024), maxEventSize)
	return &eventStream{body: body, scanner: sc}
}

// Next returns the next event that carries a now-playing message. Events
// that do not decode as an envelope are skipped.
func (s *eventStream) Next() (*Message, error) {
	for {
		data, err := s.event()
		if err != nil {
			return nil, err
		}
		var env envelope
		if json.Unmarshal(data, &env) != nil || env.Pub.Data.NP == nil {
			continue
		}
		return env.Pub.Data.NP, nil
	}
}

// event reads lines up to the blank line that dispatches an event and
// returns its joined data fields.
func (s *eventStream) event() ([]byte, error) {
	s.data.Reset()
	for s.scanner.Scan() {
		line := s.scanner.Bytes()
		if len(line) == 0 {
			if s.data.Len() == 0 {
				continue
			}
			return s.data.Bytes(), nil
		}
		if line[0] == ':' {
			// Comment, used as keepalive.
			continue
		}

		field, value, _ := bytes.Cut(line, []byte(":"))
		value = bytes.TrimPrefix(value, []byte(" "))
		if string(field) != "data" {
			// event, id and retry are not used by this feed.
			continue
		}
		if s.data.Len() > 0 {
			s.data.WriteByte('\n')
		}
		s.data.Write(value)
	}
	if err := s.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

func (s *eventStream) Close() error {
	var err error
	s.closeOnce.Do(func() { err = s.body.Close() })
	return err
}
