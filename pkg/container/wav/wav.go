// ABOUTME: WAV container backend
// ABOUTME: Reads RIFF/WAVE integer PCM through go-audio and emits little-endian PCM packets
package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/Resonate-Protocol/resonate-decode/pkg/audio"
	"github.com/Resonate-Protocol/resonate-decode/pkg/audio/decode"
	"github.com/Resonate-Protocol/resonate-decode/pkg/container"
)

// FramesPerPacket is the number of sample frames carried by one packet
const FramesPerPacket = 4096

const (
	formatPCM        = 1
	formatExtensible = 0xFFFE
)

func init() {
	container.Register(container.Format{
		Name:  "wav",
		Magic: []string{"RIFF????WAVE"},
		Open: func(r io.Reader) (container.Container, error) {
			return Open(r)
		},
	})
}

// Container is an opened WAV file with a single PCM stream
type Container struct {
	dec     *wav.Decoder
	format  audio.Format
	inDepth int
	buf     *goaudio.IntBuffer
	out     []byte
	eof     bool
	closed  bool
}

// Open parses the WAV header of r and positions at the sample data.
// Sources that cannot seek are read fully into memory first.
func Open(r io.Reader) (*Container, error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading wav data: %w", err)
		}
		rs = bytes.NewReader(data)
	}

	dec := wav.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("not a valid wav file")
	}
	if dec.WavAudioFormat != formatPCM && dec.WavAudioFormat != formatExtensible {
		return nil, fmt.Errorf("unsupported audio format: %d (only integer PCM supported)", dec.WavAudioFormat)
	}

	inDepth := int(dec.BitDepth)
	outDepth := inDepth
	switch inDepth {
	case 8:
		// Unsigned 8-bit is widened to signed 16-bit
		outDepth = 16
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 8, 16, 24, 32)", inDepth)
	}

	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("forwarding to PCM data: %w", err)
	}

	f := dec.Format()
	if f == nil || f.NumChannels <= 0 || f.SampleRate <= 0 {
		return nil, fmt.Errorf("unsupported wav layout")
	}

	return &Container{
		dec:     dec,
		inDepth: inDepth,
		format: audio.Format{
			Codec:      "pcm",
			SampleRate: float64(f.SampleRate),
			BitDepth:   outDepth,
			Channels:   f.NumChannels,
			Signed:     true,
		},
		buf: &goaudio.IntBuffer{
			Data:   make([]int, FramesPerPacket*f.NumChannels),
			Format: f,
		},
	}, nil
}

// Format returns the PCM layout of the packets
func (c *Container) Format() audio.Format {
	return c.format
}

func (c *Container) NumStreams() int { return 1 }

func (c *Container) Stream(i int) container.StreamInfo {
	return container.StreamInfo{Index: 0, Kind: container.KindAudio, Codec: "pcm"}
}

func (c *Container) Coder(i int) (container.Coder, error) {
	if i != 0 {
		return nil, fmt.Errorf("stream index %d out of range", i)
	}
	return decode.NewPCM(c.format)
}

// ReadPacket reads up to FramesPerPacket frames of PCM
func (c *Container) ReadPacket(pkt *container.Packet) error {
	if c.closed {
		return fmt.Errorf("wav container closed")
	}
	if c.eof {
		return io.EOF
	}

	c.buf.Data = c.buf.Data[:cap(c.buf.Data)]
	n, err := c.dec.PCMBuffer(c.buf)
	if err != nil && n == 0 && !errors.Is(err, io.EOF) {
		return fmt.Errorf("reading wav samples: %w", err)
	}
	n -= n % c.format.Channels
	if n == 0 {
		c.eof = true
		return io.EOF
	}

	c.out = c.out[:0]
	for _, s := range c.buf.Data[:n] {
		c.out = c.appendSample(c.out, s)
	}

	pkt.StreamIndex = 0
	pkt.SetData(c.out)
	pkt.Granule = -1
	return nil
}

func (c *Container) appendSample(b []byte, s int) []byte {
	switch c.inDepth {
	case 8:
		return binary.LittleEndian.AppendUint16(b, uint16(int16((s-128)<<8)))
	case 16:
		return binary.LittleEndian.AppendUint16(b, uint16(int16(s)))
	case 24:
		v := uint32(int32(s))
		return append(b, byte(v), byte(v>>8), byte(v>>16))
	default:
		return binary.LittleEndian.AppendUint32(b, uint32(int32(s)))
	}
}

func (c *Container) MaxPacketSize() int {
	return FramesPerPacket * c.format.FrameSize()
}

// Close releases the container. The byte source is left open.
func (c *Container) Close() error {
	c.closed = true
	c.buf = nil
	c.out = nil
	return nil
}
