// ABOUTME: Audio stream selection and format derivation
// ABOUTME: First-match scan for an audio stream, PCM format read back from the opened coder
package stream

import (
	"fmt"

	"github.com/Resonate-Protocol/resonate-decode/pkg/audio"
	"github.com/Resonate-Protocol/resonate-decode/pkg/container"
)

// selectAudioStream returns the first audio stream and its unopened coder.
// Later audio streams are ignored.
func selectAudioStream(c container.Container) (int, container.Coder, error) {
	n := c.NumStreams()
	for i := 0; i < n; i++ {
		info := c.Stream(i)
		if info.Kind != container.KindAudio {
			continue
		}

		coder, err := c.Coder(i)
		if err != nil {
			return -1, nil, fmt.Errorf("%w: stream %d (%s): %w", ErrDecoderOpen, i, info.Codec, err)
		}
		if coder == nil {
			return -1, nil, fmt.Errorf("%w: stream %d (%s) has no coder", ErrDecoderOpen, i, info.Codec)
		}
		return i, coder, nil
	}

	return -1, nil, fmt.Errorf("%w: scanned %d streams", ErrStreamNotFound, n)
}

// deriveFormat builds the PCM format from an opened coder. Decoded samples
// are always signed little-endian.
func deriveFormat(info container.StreamInfo, coder container.Coder) (audio.Format, error) {
	rate := coder.SampleRate()
	channels := coder.Channels()
	sampleFormat := coder.SampleFormat()

	if rate <= 0 {
		return audio.Format{}, fmt.Errorf("invalid sample rate: %d", rate)
	}
	if channels <= 0 {
		return audio.Format{}, fmt.Errorf("invalid channel count: %d", channels)
	}
	bitDepth := sampleFormat.BitDepth()
	if bitDepth == 0 {
		return audio.Format{}, fmt.Errorf("unknown sample format: %s", sampleFormat)
	}

	return audio.Format{
		Codec:      info.Codec,
		SampleRate: float64(rate),
		BitDepth:   bitDepth,
		Channels:   channels,
		Signed:     true,
		BigEndian:  false,
	}, nil
}
