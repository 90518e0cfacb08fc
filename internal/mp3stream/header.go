package mp3stream

import (
	"errors"
	"fmt"
)

// HeaderSize is the size of an MPEG audio frame header in bytes.
const HeaderSize = 4

// Version is the MPEG audio version declared by a frame header.
type Version int

const (
	MPEG25 Version = iota
	versionReserved
	MPEG2
	MPEG1
)

func (v Version) String() string {
	switch v {
	case MPEG1:
		return "MPEG-1"
	case MPEG2:
		return "MPEG-2"
	case MPEG25:
		return "MPEG-2.5"
	default:
		return "reserved"
	}
}

const channelModeMono = 3

var (
	errNoSync        = errors.New("missing frame sync")
	errReserved      = errors.New("reserved version")
	errNotLayer3     = errors.New("only layer III is supported")
	errBadBitrate    = errors.New("invalid bitrate index")
	errBadSampleRate = errors.New("invalid sample rate index")
	errBadEmphasis   = errors.New("reserved emphasis")
)

// Layer III bitrates in kbps, indexed by the header's bitrate index.
var (
	bitratesV1 = [16]int{0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 0}
	bitratesV2 = [16]int{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0}
)

var sampleRates = map[Version][3]int{
	MPEG1:  {44100, 48000, 32000},
	MPEG2:  {22050, 24000, 16000},
	MPEG25: {11025, 12000, 8000},
}

// FrameHeader is a decoded MPEG audio Layer III frame header.
type FrameHeader struct {
	Version     Version
	Bitrate     int // kbps
	SampleRate  int // Hz
	Channels    int
	Padding     bool
	Protected   bool
	ChannelMode int
}

// ParseHeader decodes the four header bytes at the start of b.
// It only accepts a header located exactly at b[0]; no sync scanning is done.
func ParseHeader(b []byte) (FrameHeader, error) {
	if len(b) < HeaderSize {
		return FrameHeader{}, fmt.Errorf("header: need %d bytes, got %d", HeaderSize, len(b))
	}

	// Frame sync: 11 set bits.
	if b[0] != 0xFF || b[1]&0xE0 != 0xE0 {
		return FrameHeader{}, errNoSync
	}

	version := Version((b[1] >> 3) & 0x03)
	if version == versionReserved {
		return FrameHeader{}, errReserved
	}
	if layer := (b[1] >> 1) & 0x03; layer != 0x01 {
		return FrameHeader{}, errNotLayer3
	}

	bitrateIndex := int(b[2] >> 4)
	bitrates := bitratesV2
	if version == MPEG1 {
		bitrates = bitratesV1
	}
	bitrate := bitrates[bitrateIndex]
	if bitrate == 0 {
		// Free-format (index 0) streams are not decodable either.
		return FrameHeader{}, errBadBitrate
	}

	rateIndex := int((b[2] >> 2) & 0x03)
	if rateIndex == 3 {
		return FrameHeader{}, errBadSampleRate
	}
	if b[3]&0x03 == 0x02 {
		return FrameHeader{}, errBadEmphasis
	}

	mode := int(b[3] >> 6)
	channels := 2
	if mode == channelModeMono {
		channels = 1
	}

	return FrameHeader{
		Version:     version,
		Bitrate:     bitrate,
		SampleRate:  sampleRates[version][rateIndex],
		Channels:    channels,
		Padding:     b[2]&0x02 != 0,
		Protected:   b[1]&0x01 == 0,
		ChannelMode: mode,
	}, nil
}

// SamplesPerFrame returns the number of PCM samples per channel in one frame.
func (h FrameHeader) SamplesPerFrame() int {
	if h.Version == MPEG1 {
		return 1152
	}
	return 576
}

// FrameSize returns the total frame length in bytes, header included.
func (h FrameHeader) FrameSize() int {
	coef := 144
	if h.Version != MPEG1 {
		coef = 72
	}
	size := coef * h.Bitrate * 1000 / h.SampleRate
	if h.Padding {
		size++
	}
	return size
}

// id3v2Size returns the total length of an ID3v2 tag starting at b[0],
// or 0 if b does not start with one.
func id3v2Size(b []byte) int {
	if len(b) < 10 || string(b[0:3]) != "ID3" {
		return 0
	}
	// Size is a syncsafe integer: 7 bits per byte.
	size := int(b[6])<<21 | int(b[7])<<14 | int(b[8])<<7 | int(b[9])
	total := 10 + size
	// Footer present flag.
	if b[5]&0x10 != 0 {
		total += 10
	}
	return total
}
