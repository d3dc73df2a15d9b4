// ABOUTME: Raw PCM output implementation
// ABOUTME: Writes 16-bit little-endian PCM to any io.Writer instead of a sound card
package output

import (
	"fmt"
	"io"
	"log"

	"github.com/Resonate-Protocol/resonate-decode/pkg/audio"
)

// Raw writes interleaved 16-bit little-endian PCM to w
type Raw struct {
	gain

	w      io.Writer
	format audio.Format
	buf    []byte
	opened bool
}

// NewRaw creates a raw output writing to w. Closing the output does not close w.
func NewRaw(w io.Writer, volume int) *Raw {
	return &Raw{
		gain: gain{volume: clampVolume(volume)},
		w:    w,
	}
}

// Open records the stream format
func (r *Raw) Open(format audio.Format) error {
	if format.Channels <= 0 || format.SampleRate <= 0 {
		return fmt.Errorf("invalid output format: %s", format)
	}
	r.format = format
	r.opened = true
	log.Printf("Raw output: s16le %.0fHz, %d channels", format.SampleRate, format.Channels)
	return nil
}

// Write converts samples to 16-bit PCM and writes them. samples is scaled in place.
func (r *Raw) Write(samples []int32) error {
	if !r.opened {
		return fmt.Errorf("output not initialized")
	}

	r.apply(samples)
	r.buf = encodeInt16(r.buf[:0], samples)
	if _, err := r.w.Write(r.buf); err != nil {
		return fmt.Errorf("raw write failed: %w", err)
	}
	return nil
}

// Close marks the output closed
func (r *Raw) Close() error {
	r.opened = false
	return nil
}
