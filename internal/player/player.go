// ABOUTME: Playback pump from stream decoder to audio output
// ABOUTME: Reads decoded blocks, converts and resamples them, and writes them to the sink
package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync/atomic"

	"github.com/Resonate-Protocol/resonate-decode/pkg/audio"
	"github.com/Resonate-Protocol/resonate-decode/pkg/audio/output"
	"github.com/Resonate-Protocol/resonate-decode/pkg/audio/resample"
	"github.com/Resonate-Protocol/resonate-decode/pkg/stream"
)

// DefaultBufferSize is the minimum Read length in bytes
const DefaultBufferSize = 64 * 1024

// Decoder is the part of stream.Decoder the player needs
type Decoder interface {
	Read(p []byte, off, n int) (int, error)
	AudioFormat() audio.Format
	MaxPacketSize() int
	Stats() stream.Stats
}

// Config holds player configuration
type Config struct {
	// OutputRate resamples to this rate when non-zero and different from the source
	OutputRate int

	// BufferSize is the Read length in bytes (default DefaultBufferSize, raised to the container's max packet)
	BufferSize int
}

// Stats tracks playback progress
type Stats struct {
	Decoder stream.Stats
	Frames  int64 // Frames written to the output
	Rate    int   // Output sample rate
}

// Player pumps decoded audio into an output on a single goroutine
type Player struct {
	config  Config
	decoder Decoder
	out     output.Output

	frames atomic.Int64
	rate   atomic.Int64
}

// New creates a player for an opened decoder
func New(decoder Decoder, out output.Output, config Config) *Player {
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultBufferSize
	}

	return &Player{
		config:  config,
		decoder: decoder,
		out:     out,
	}
}

// Run plays until the decoder reaches the end of the stream, an error occurs
// or ctx is cancelled. Reaching the end returns nil. The output is opened
// but not closed.
func (p *Player) Run(ctx context.Context) error {
	format := p.decoder.AudioFormat()
	if format.Channels <= 0 || format.SampleRate <= 0 {
		return fmt.Errorf("decoder has no audio format")
	}

	outFormat := format
	var rs *resample.Resampler
	inRate := int(format.SampleRate)
	if p.config.OutputRate > 0 && p.config.OutputRate != inRate {
		outFormat.SampleRate = float64(p.config.OutputRate)
		rs = resample.New(inRate, p.config.OutputRate, format.Channels)
		log.Printf("Resampling %dHz -> %dHz", inRate, p.config.OutputRate)
	}

	if err := p.out.Open(outFormat); err != nil {
		return fmt.Errorf("failed to open output: %w", err)
	}
	p.rate.Store(int64(outFormat.SampleRate))

	buf := make([]byte, max(p.config.BufferSize, p.decoder.MaxPacketSize()))
	var resampled []int32

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := p.decoder.Read(buf, 0, len(buf))
		if errors.Is(err, io.EOF) {
			log.Printf("End of stream after %d frames", p.frames.Load())
			return nil
		}
		if err != nil {
			return fmt.Errorf("decode failed: %w", err)
		}

		samples, err := audio.SamplesFromBytes(format, buf[:n])
		if err != nil {
			return err
		}

		if rs != nil {
			// Room for the carried frame plus rounding
			need := rs.OutputSamplesNeeded(len(samples)) + (int(1/rs.Ratio())+2)*format.Channels
			if cap(resampled) < need {
				resampled = make([]int32, need)
			}
			resampled = resampled[:need]
			samples = resampled[:rs.Resample(samples, resampled)]
		}

		if len(samples) == 0 {
			continue
		}
		if err := p.out.Write(samples); err != nil {
			return fmt.Errorf("output write failed: %w", err)
		}
		p.frames.Add(int64(len(samples) / format.Channels))
	}
}

// Stats returns a snapshot of playback progress. Safe to call while Run is active.
func (p *Player) Stats() Stats {
	return Stats{
		Decoder: p.decoder.Stats(),
		Frames:  p.frames.Load(),
		Rate:    int(p.rate.Load()),
	}
}
