// ABOUTME: FLAC container backend
// ABOUTME: Parses native FLAC frames with mewkiz/flac and emits interleaved PCM packets
package flac

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/mewkiz/flac"

	"github.com/Resonate-Protocol/resonate-decode/pkg/audio"
	"github.com/Resonate-Protocol/resonate-decode/pkg/audio/decode"
	"github.com/Resonate-Protocol/resonate-decode/pkg/container"
)

func init() {
	container.Register(container.Format{
		Name:  "flac",
		Magic: []string{"fLaC"},
		Open: func(r io.Reader) (container.Container, error) {
			return Open(r)
		},
	})
}

// Container is an opened native FLAC stream. Each FLAC frame becomes one packet.
type Container struct {
	stream   *flac.Stream
	format   audio.Format
	srcDepth int
	out      []byte
	samples  int64
	eof      bool
	closed   bool
}

// Open parses the FLAC metadata blocks of r
func Open(r io.Reader) (*Container, error) {
	stream, err := flac.New(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}

	info := stream.Info
	srcDepth := int(info.BitsPerSample)
	var outDepth int
	switch {
	case srcDepth <= 0:
		return nil, fmt.Errorf("invalid FLAC bit depth: %d", srcDepth)
	case srcDepth <= 16:
		outDepth = 16
	case srcDepth <= 24:
		outDepth = 24
	default:
		outDepth = 32
	}

	if info.NChannels == 0 || info.SampleRate == 0 {
		return nil, fmt.Errorf("invalid FLAC stream info: %d channels at %d Hz", info.NChannels, info.SampleRate)
	}

	log.Printf("Loaded FLAC (sample rate: %d Hz, channels: %d, bit depth: %d)",
		info.SampleRate, info.NChannels, srcDepth)

	return &Container{
		stream:   stream,
		srcDepth: srcDepth,
		format: audio.Format{
			Codec:      "pcm",
			SampleRate: float64(info.SampleRate),
			BitDepth:   outDepth,
			Channels:   int(info.NChannels),
			Signed:     true,
		},
	}, nil
}

// Format returns the PCM layout of the packets
func (c *Container) Format() audio.Format {
	return c.format
}

func (c *Container) NumStreams() int { return 1 }

func (c *Container) Stream(i int) container.StreamInfo {
	return container.StreamInfo{Index: 0, Kind: container.KindAudio, Codec: "flac"}
}

func (c *Container) Coder(i int) (container.Coder, error) {
	if i != 0 {
		return nil, fmt.Errorf("stream index %d out of range", i)
	}
	return decode.NewPCM(c.format)
}

// ReadPacket decodes the next FLAC frame into an interleaved PCM packet
func (c *Container) ReadPacket(pkt *container.Packet) error {
	if c.closed {
		return fmt.Errorf("flac container closed")
	}
	if c.eof {
		return io.EOF
	}

	frame, err := c.stream.ParseNext()
	if err != nil {
		if errors.Is(err, io.EOF) {
			c.eof = true
			return io.EOF
		}
		return fmt.Errorf("failed to parse FLAC frame: %w", err)
	}

	// Samples are left-justified into the output width
	shift := c.format.BitDepth - c.srcDepth
	c.out = c.out[:0]
	for i := 0; i < int(frame.BlockSize); i++ {
		for ch := 0; ch < c.format.Channels; ch++ {
			s := frame.Subframes[ch].Samples[i] << shift
			switch c.format.BitDepth {
			case 16:
				c.out = binary.LittleEndian.AppendUint16(c.out, uint16(int16(s)))
			case 24:
				v := uint32(s)
				c.out = append(c.out, byte(v), byte(v>>8), byte(v>>16))
			default:
				c.out = binary.LittleEndian.AppendUint32(c.out, uint32(s))
			}
		}
	}

	pkt.StreamIndex = 0
	pkt.SetData(c.out)
	c.samples += int64(frame.BlockSize)
	pkt.Granule = c.samples
	return nil
}

// MaxPacketSize is the PCM size of the largest block the stream info declares
func (c *Container) MaxPacketSize() int {
	return int(c.stream.Info.BlockSizeMax) * c.format.FrameSize()
}

// Close releases the parser. The byte source is left open.
func (c *Container) Close() error {
	c.closed = true
	c.out = nil
	return nil
}
