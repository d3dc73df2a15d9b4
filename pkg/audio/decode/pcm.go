// ABOUTME: PCM passthrough coder
// ABOUTME: Hands already-decoded signed little-endian PCM packets out in whole frames
package decode

import (
	"fmt"

	"github.com/Resonate-Protocol/resonate-decode/pkg/audio"
	"github.com/Resonate-Protocol/resonate-decode/pkg/container"
)

// PCMDecoder passes PCM packets through. Containers whose libraries decode
// while demuxing (WAV, FLAC, MP3) emit PCM packets and use this coder.
type PCMDecoder struct {
	sampleRate   int
	channels     int
	sampleFormat audio.SampleFormat
	queue        pending
	opened       bool
}

// NewPCM creates a new PCM decoder
func NewPCM(format audio.Format) (*PCMDecoder, error) {
	if format.Codec != "pcm" {
		return nil, fmt.Errorf("invalid codec for PCM decoder: %s", format.Codec)
	}

	var sampleFormat audio.SampleFormat
	switch format.BitDepth {
	case 16:
		sampleFormat = audio.SampleFormatS16
	case 24:
		sampleFormat = audio.SampleFormatS24
	case 32:
		sampleFormat = audio.SampleFormatS32
	default:
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16, 24, 32)", format.BitDepth)
	}

	if format.Channels <= 0 {
		return nil, fmt.Errorf("invalid channel count: %d", format.Channels)
	}

	return &PCMDecoder{
		sampleRate:   int(format.SampleRate),
		channels:     format.Channels,
		sampleFormat: sampleFormat,
		queue:        pending{frameSize: format.Channels * format.BitDepth / 8},
	}, nil
}

// Open prepares the decoder
func (d *PCMDecoder) Open() error {
	d.opened = true
	return nil
}

func (d *PCMDecoder) SampleRate() int                  { return d.sampleRate }
func (d *PCMDecoder) Channels() int                    { return d.channels }
func (d *PCMDecoder) SampleFormat() audio.SampleFormat { return d.sampleFormat }

// Decode queues the rest of the packet and fills block with whole frames
func (d *PCMDecoder) Decode(block *container.SampleBlock, pkt *container.Packet, offset int) (int, error) {
	if !d.opened {
		return 0, fmt.Errorf("pcm decoder not open")
	}

	data := pkt.Data[offset:]
	d.queue.push(data)
	if err := d.queue.fill(block); err != nil {
		return 0, err
	}
	return len(data), nil
}

// Flush hands out PCM still queued after the last packet
func (d *PCMDecoder) Flush(block *container.SampleBlock) error {
	return d.queue.fill(block)
}

// Buffered returns the number of decoded bytes not yet handed out
func (d *PCMDecoder) Buffered() int {
	return d.queue.len()
}

// Close releases resources
func (d *PCMDecoder) Close() error {
	d.queue.reset()
	d.opened = false
	return nil
}
