// Package mp3stream decodes MPEG audio Layer III from a forward-only byte
// source such as an HTTP response body. Nothing here ever seeks.
package mp3stream

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/llehouerou/go-mp3"
)

// ErrDecode is returned by Open when the source does not begin with a
// decodable frame.
var ErrDecode = errors.New("mp3stream: no decodable frame")

// peekSize bounds how much of the source is buffered ahead of the decoder.
// The largest Layer III frame is 1441 bytes.
const peekSize = 4096

// pairBytes is one go-mp3 output sample: 16-bit left and right.
const pairBytes = 4

// Decoder produces PCM samples from a compressed frame sequence.
//
// The sequence is forward-only and cannot be restarted. When the source runs
// dry or yields a malformed frame, the sequence simply ends.
type Decoder struct {
	dec    *mp3.Decoder
	header FrameHeader

	raw []byte
	pcm []int16
	off int

	done  bool
	cause error
}

// Open reads the first frame header from r and prepares a decoder.
// The header must sit at the current position of r, optionally behind an
// ID3v2 tag; Open does not hunt for a sync word.
func Open(r io.Reader) (*Decoder, error) {
	br := bufio.NewReaderSize(r, peekSize)

	if err := skipID3v2(br); err != nil {
		return nil, fmt.Errorf("%w: skip id3v2 tag: %w", ErrDecode, err)
	}

	b, err := br.Peek(HeaderSize)
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %w", ErrDecode, err)
	}
	header, err := ParseHeader(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if _, err := br.Peek(header.FrameSize()); err != nil {
		return nil, fmt.Errorf("%w: first frame of %d bytes: %w", ErrDecode, header.FrameSize(), err)
	}

	dec, err := mp3.NewDecoder(br)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	// One decoded frame per fill.
	chunk := header.SamplesPerFrame() * pairBytes
	return &Decoder{
		dec:    dec,
		header: header,
		raw:    make([]byte, chunk),
		pcm:    make([]int16, 0, chunk/2),
	}, nil
}

// skipID3v2 discards a leading ID3v2 tag without seeking.
func skipID3v2(br *bufio.Reader) error {
	b, _ := br.Peek(10)
	n := id3v2Size(b)
	if n == 0 {
		return nil
	}
	_, err := br.Discard(n)
	return err
}

// Header returns the first frame's header.
func (d *Decoder) Header() FrameHeader { return d.header }

// Channels returns the channel count declared by the first frame.
func (d *Decoder) Channels() int { return d.header.Channels }

// SampleRate returns the sample rate declared by the first frame.
func (d *Decoder) SampleRate() int { return d.header.SampleRate }

// Next returns the next PCM value. Stereo values are interleaved left, right.
// ok is false once the stream has ended.
func (d *Decoder) Next() (v int16, ok bool) {
	if d.off == len(d.pcm) && !d.fill() {
		return 0, false
	}
	v = d.pcm[d.off]
	d.off++
	return v, true
}

// fill decodes the next chunk of frames into d.pcm.
func (d *Decoder) fill() bool {
	if d.done {
		return false
	}

	n, err := io.ReadFull(d.dec, d.raw)
	n -= n % pairBytes
	if err != nil {
		d.finish(err)
	}
	if n == 0 {
		return false
	}

	// go-mp3 always emits 16-bit little endian stereo; mono streams carry the
	// same value on both sides, so only the left one is kept.
	d.pcm = d.pcm[:0]
	for i := 0; i < n; i += pairBytes {
		d.pcm = append(d.pcm, int16(binary.LittleEndian.Uint16(d.raw[i:]))) //nolint:gosec // audio samples
		if d.header.Channels == 2 {
			d.pcm = append(d.pcm, int16(binary.LittleEndian.Uint16(d.raw[i+2:]))) //nolint:gosec // audio samples
		}
	}
	d.off = 0
	return true
}

func (d *Decoder) finish(err error) {
	d.done = true
	if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		d.cause = err
	}
}

// Stream fills samples with decoded stereo frames, normalized to [-1, 1].
// It satisfies beep.Streamer.
func (d *Decoder) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		left, ok := d.Next()
		if !ok {
			return i, i > 0
		}
		right := left
		if d.header.Channels == 2 {
			if r, ok := d.Next(); ok {
				right = r
			}
		}
		samples[i][0] = float64(left) / 32768.0
		samples[i][1] = float64(right) / 32768.0
	}
	return len(samples), true
}

// Err always returns nil: a stream that stops decoding has ended, it has not
// failed. Use Cause to find out why it ended.
func (d *Decoder) Err() error { return nil }

// Cause returns the decoder error that ended the sequence, or nil when the
// source reached end of stream (or has not ended yet).
func (d *Decoder) Cause() error { return d.cause }
