// ABOUTME: Oto-based audio output implementation
// ABOUTME: Streams 16-bit PCM to the sound card through a pipe-fed oto player
package output

import (
	"encoding/binary"
	"fmt"
	"io"
	"log"

	"github.com/ebitengine/oto/v3"

	"github.com/Resonate-Protocol/resonate-decode/pkg/audio"
)

// Oto output implementation using oto library
type Oto struct {
	gain

	otoCtx     *oto.Context
	player     *oto.Player
	pipeReader *io.PipeReader
	pipeWriter *io.PipeWriter
	sampleRate int
	channels   int
	buf        []byte
	ready      bool
}

// NewOto creates a new Oto output at the given volume (0-100)
func NewOto(volume int) *Oto {
	return &Oto{gain: gain{volume: clampVolume(volume)}}
}

// Open initializes the output device. oto allows one context per process,
// so a second Open with a different format keeps the first one.
func (o *Oto) Open(format audio.Format) error {
	sampleRate := int(format.SampleRate)
	channels := format.Channels

	if o.otoCtx != nil {
		if o.sampleRate != sampleRate || o.channels != channels {
			log.Printf("Warning: format change detected (%dHz %dch -> %dHz %dch) but oto doesn't support reinitialization. Continuing with existing context.",
				o.sampleRate, o.channels, sampleRate, channels)
		}
		return nil
	}

	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("failed to create oto context: %w", err)
	}

	<-readyChan

	o.otoCtx = ctx
	o.sampleRate = sampleRate
	o.channels = channels

	// Persistent player reading from a pipe for continuous streaming
	o.pipeReader, o.pipeWriter = io.Pipe()
	o.player = o.otoCtx.NewPlayer(o.pipeReader)
	o.player.Play()

	o.ready = true

	log.Printf("Audio output initialized: %dHz, %d channels", sampleRate, channels)

	return nil
}

// Write outputs audio samples (blocks until written). samples is scaled in place.
func (o *Oto) Write(samples []int32) error {
	if !o.ready {
		return fmt.Errorf("output not initialized")
	}

	o.apply(samples)
	o.buf = encodeInt16(o.buf[:0], samples)

	if _, err := o.pipeWriter.Write(o.buf); err != nil {
		return fmt.Errorf("pipe write failed: %w", err)
	}

	return nil
}

// Close releases output resources
func (o *Oto) Close() error {
	if o.pipeWriter != nil {
		o.pipeWriter.Close()
		o.pipeWriter = nil
	}
	if o.player != nil {
		o.player.Close()
		o.player = nil
	}
	if o.pipeReader != nil {
		o.pipeReader.Close()
		o.pipeReader = nil
	}
	if o.otoCtx != nil {
		if err := o.otoCtx.Suspend(); err != nil {
			log.Printf("Failed to suspend audio context: %v", err)
		}
		o.ready = false
	}
	return nil
}

// encodeInt16 appends 24-bit range samples as 16-bit little-endian PCM
func encodeInt16(dst []byte, samples []int32) []byte {
	for _, s := range samples {
		dst = binary.LittleEndian.AppendUint16(dst, uint16(audio.SampleToInt16(s)))
	}
	return dst
}
