// ABOUTME: Opus audio decoder
// ABOUTME: Decodes Opus packets to 16-bit PCM, honoring the OpusHead pre-skip
package decode

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/Resonate-Protocol/resonate-decode/pkg/audio"
	"github.com/Resonate-Protocol/resonate-decode/pkg/container"
	"gopkg.in/hraban/opus.v2"
)

// Opus always decodes at 48kHz inside Ogg
const OpusSampleRate = 48000

// maxOpusFrame is the largest frame in samples per channel (120ms at 48kHz)
const maxOpusFrame = 5760

var (
	opusHeadMagic = []byte("OpusHead")
	opusTagsMagic = []byte("OpusTags")
)

// OpusHead is the Opus identification header
type OpusHead struct {
	Version         uint8
	Channels        int
	PreSkip         int
	InputSampleRate uint32
	OutputGain      int16
	MappingFamily   uint8
}

// ParseOpusHead parses an OpusHead identification header
func ParseOpusHead(b []byte) (OpusHead, error) {
	if len(b) < 19 || !bytes.HasPrefix(b, opusHeadMagic) {
		return OpusHead{}, fmt.Errorf("not an OpusHead header")
	}

	head := OpusHead{
		Version:         b[8],
		Channels:        int(b[9]),
		PreSkip:         int(binary.LittleEndian.Uint16(b[10:12])),
		InputSampleRate: binary.LittleEndian.Uint32(b[12:16]),
		OutputGain:      int16(binary.LittleEndian.Uint16(b[16:18])),
		MappingFamily:   b[18],
	}
	if head.Version>>4 != 0 {
		return OpusHead{}, fmt.Errorf("unsupported OpusHead version: %d", head.Version)
	}
	if head.Channels == 0 {
		return OpusHead{}, fmt.Errorf("OpusHead declares zero channels")
	}
	return head, nil
}

// OpusDecoder decodes Opus audio
type OpusDecoder struct {
	decoder *opus.Decoder
	format  audio.Format
	preSkip int
	pcm16   []int16
	queue   pending
}

// NewOpus creates a new Opus decoder. preSkip is the number of samples per
// channel dropped from the start of the stream.
func NewOpus(format audio.Format, preSkip int) (*OpusDecoder, error) {
	if format.Codec != "opus" {
		return nil, fmt.Errorf("invalid codec for Opus decoder: %s", format.Codec)
	}

	switch int(format.SampleRate) {
	case 8000, 12000, 16000, 24000, 48000:
	default:
		return nil, fmt.Errorf("unsupported sample rate for Opus decoder: %.0f", format.SampleRate)
	}

	// Multichannel mapping families need the multistream API
	if format.Channels != 1 && format.Channels != 2 {
		return nil, fmt.Errorf("unsupported channel count for Opus decoder: %d", format.Channels)
	}

	return &OpusDecoder{
		format:  format,
		preSkip: preSkip,
		queue:   pending{frameSize: format.Channels * 2},
	}, nil
}

// Open creates the underlying libopus decoder
func (d *OpusDecoder) Open() error {
	dec, err := opus.NewDecoder(int(d.format.SampleRate), d.format.Channels)
	if err != nil {
		return fmt.Errorf("failed to create opus decoder: %w", err)
	}

	d.decoder = dec
	d.pcm16 = make([]int16, maxOpusFrame*d.format.Channels)
	return nil
}

func (d *OpusDecoder) SampleRate() int                  { return int(d.format.SampleRate) }
func (d *OpusDecoder) Channels() int                    { return d.format.Channels }
func (d *OpusDecoder) SampleFormat() audio.SampleFormat { return audio.SampleFormatS16 }

// Decode decodes one Opus packet and fills block with the result
func (d *OpusDecoder) Decode(block *container.SampleBlock, pkt *container.Packet, offset int) (int, error) {
	if d.decoder == nil {
		return 0, fmt.Errorf("opus decoder not open")
	}

	data := pkt.Data[offset:]
	if len(data) == 0 {
		return 0, d.queue.fill(block)
	}
	if bytes.HasPrefix(data, opusHeadMagic) || bytes.HasPrefix(data, opusTagsMagic) {
		return len(data), nil
	}

	n, err := d.decoder.Decode(data, d.pcm16)
	if err != nil {
		return 0, fmt.Errorf("opus decode failed: %w", err)
	}

	skip := min(d.preSkip, n)
	d.preSkip -= skip

	channels := d.format.Channels
	d.queue.pushInt16(d.pcm16[skip*channels : n*channels])
	if err := d.queue.fill(block); err != nil {
		return 0, err
	}
	return len(data), nil
}

// Flush hands out PCM still queued after the last packet
func (d *OpusDecoder) Flush(block *container.SampleBlock) error {
	return d.queue.fill(block)
}

// Buffered returns the number of decoded bytes not yet handed out
func (d *OpusDecoder) Buffered() int {
	return d.queue.len()
}

// Close releases decoder resources
func (d *OpusDecoder) Close() error {
	d.decoder = nil
	d.queue.reset()
	return nil
}
