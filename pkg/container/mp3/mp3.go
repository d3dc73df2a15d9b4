// ABOUTME: MP3 container backend
// ABOUTME: Decodes MPEG audio with go-mp3 and emits 16-bit stereo PCM packets
package mp3

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/hajimehoshi/go-mp3"

	"github.com/Resonate-Protocol/resonate-decode/pkg/audio"
	"github.com/Resonate-Protocol/resonate-decode/pkg/audio/decode"
	"github.com/Resonate-Protocol/resonate-decode/pkg/container"
)

// PacketSize is the number of PCM bytes per packet (one MPEG-1 Layer III
// frame of 16-bit stereo is 4608 bytes)
const PacketSize = 4608

func init() {
	container.Register(container.Format{
		Name:  "mp3",
		Magic: []string{"ID3", "\xff\xfb", "\xff\xfa", "\xff\xf3", "\xff\xf2", "\xff\xe3", "\xff\xe2"},
		Open: func(r io.Reader) (container.Container, error) {
			return Open(r)
		},
	})
}

// Container wraps a go-mp3 decoder. go-mp3 always outputs stereo.
type Container struct {
	pcm    io.Reader
	format audio.Format
	buf    []byte
	eof    bool
	closed bool
}

// Open reads the first MPEG frame header of r
func Open(r io.Reader) (*Container, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode MP3: %w", err)
	}

	log.Printf("Loaded MP3 (sample rate: %d Hz)", decoder.SampleRate())

	return &Container{
		pcm: decoder,
		format: audio.Format{
			Codec:      "pcm",
			SampleRate: float64(decoder.SampleRate()),
			BitDepth:   16,
			Channels:   2,
			Signed:     true,
		},
		buf: make([]byte, PacketSize),
	}, nil
}

// Format returns the PCM layout of the packets
func (c *Container) Format() audio.Format {
	return c.format
}

func (c *Container) NumStreams() int { return 1 }

func (c *Container) Stream(i int) container.StreamInfo {
	return container.StreamInfo{Index: 0, Kind: container.KindAudio, Codec: "mp3"}
}

func (c *Container) Coder(i int) (container.Coder, error) {
	if i != 0 {
		return nil, fmt.Errorf("stream index %d out of range", i)
	}
	return decode.NewPCM(c.format)
}

// ReadPacket reads up to PacketSize bytes of decoded PCM
func (c *Container) ReadPacket(pkt *container.Packet) error {
	if c.closed {
		return fmt.Errorf("mp3 container closed")
	}
	if c.eof {
		return io.EOF
	}

	n, err := io.ReadFull(c.pcm, c.buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		if errors.Is(err, io.EOF) {
			c.eof = true
			return io.EOF
		}
		return fmt.Errorf("mp3 decode error: %w", err)
	}
	if err != nil {
		c.eof = true
	}

	pkt.StreamIndex = 0
	pkt.SetData(c.buf[:n-n%4])
	pkt.Granule = -1
	return nil
}

func (c *Container) MaxPacketSize() int { return PacketSize }

// Close releases the decoder. The byte source is left open.
func (c *Container) Close() error {
	c.closed = true
	c.pcm = nil
	c.buf = nil
	return nil
}
