// Package media bridges LiveKit Opus audio and the raw PCM the Gemini
// Live API speaks: 48kHz mono Opus in the room, 16kHz PCM into the
// model, 24kHz PCM out of it.
package media

import (
	"encoding/binary"
	"fmt"

	opus "gopkg.in/hraban/opus.v2"
)

const (
	// RoomSampleRate is the Opus capture/playback rate in the room
	RoomSampleRate = 48000

	// ModelInputSampleRate is what the Gemini Live API expects
	ModelInputSampleRate = 16000

	// ModelOutputSampleRate is what the Gemini Live API produces
	ModelOutputSampleRate = 24000

	// FrameDuration is the Opus frame size used both ways
	FrameDuration = 20 // milliseconds

	channels        = 1
	samplesPerFrame = RoomSampleRate * FrameDuration / 1000 // 960
	maxOpusFrame    = 1400                                  // fits any 20ms mono frame
)

// Decoder turns incoming room Opus frames into 16kHz model PCM.
type Decoder struct {
	dec *opus.Decoder
	pcm []int16
}

func NewDecoder() (*Decoder, error) {
	dec, err := opus.NewDecoder(RoomSampleRate, channels)
	if err != nil {
		return nil, fmt.Errorf("create opus decoder: %w", err)
	}
	return &Decoder{
		dec: dec,
		pcm: make([]int16, samplesPerFrame*2),
	}, nil
}

// Decode converts one Opus payload into 16kHz 16-bit LE mono PCM.
func (d *Decoder) Decode(payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return nil, nil
	}
	n, err := d.dec.Decode(payload, d.pcm)
	if err != nil {
		return nil, fmt.Errorf("opus decode: %w", err)
	}
	down := Resample(d.pcm[:n], RoomSampleRate, ModelInputSampleRate)
	return int16ToBytes(down), nil
}

// Encoder turns 24kHz model PCM into 20ms room Opus frames. Partial
// frames are buffered across calls so chunk boundaries from the model
// never drop samples.
type Encoder struct {
	enc     *opus.Encoder
	pending []int16 // 48kHz samples not yet filling a frame
	buf     []byte
}

func NewEncoder() (*Encoder, error) {
	enc, err := opus.NewEncoder(RoomSampleRate, channels, opus.AppVoIP)
	if err != nil {
		return nil, fmt.Errorf("create opus encoder: %w", err)
	}
	return &Encoder{
		enc: enc,
		buf: make([]byte, maxOpusFrame),
	}, nil
}

// Encode converts a chunk of 24kHz 16-bit LE mono PCM into zero or
// more complete Opus frames.
func (e *Encoder) Encode(pcm []byte) ([][]byte, error) {
	if len(pcm) == 0 {
		return nil, nil
	}
	up := Resample(bytesToInt16(pcm), ModelOutputSampleRate, RoomSampleRate)
	e.pending = append(e.pending, up...)

	var frames [][]byte
	for len(e.pending) >= samplesPerFrame {
		n, err := e.enc.Encode(e.pending[:samplesPerFrame], e.buf)
		if err != nil {
			return frames, fmt.Errorf("opus encode: %w", err)
		}
		frames = append(frames, append([]byte(nil), e.buf[:n]...))
		e.pending = e.pending[samplesPerFrame:]
	}
	return frames, nil
}

// Reset drops buffered samples. Used on barge-in so a stale reply
// never plays after the user interrupts.
func (e *Encoder) Reset() {
	e.pending = e.pending[:0]
}

// Resample converts mono PCM between sample rates by linear
// interpolation. Good enough for speech; the model's own front end is
// tolerant of the aliasing a proper filter would remove.
func Resample(in []int16, from, to int) []int16 {
	if from == to || len(in) == 0 {
		return in
	}
	outLen := len(in) * to / from
	if outLen == 0 {
		return nil
	}
	out := make([]int16, outLen)
	ratio := float64(from) / float64(to)
	for i := range out {
		pos := float64(i) * ratio
		j := int(pos)
		if j >= len(in)-1 {
			out[i] = in[len(in)-1]
			continue
		}
		frac := pos - float64(j)
		out[i] = int16(float64(in[j])*(1-frac) + float64(in[j+1])*frac)
	}
	return out
}

func int16ToBytes(in []int16) []byte {
	out := make([]byte, len(in)*2)
	for i, s := range in {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

func bytesToInt16(in []byte) []int16 {
	out := make([]int16, len(in)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(in[i*2:]))
	}
	return out
}
