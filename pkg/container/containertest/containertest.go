// ABOUTME: Scripted fake container and coder for tests
// ABOUTME: Lets callers describe streams, packets and decode behavior explicitly
package containertest

import (
	"errors"
	"fmt"
	"io"

	"github.com/Resonate-Protocol/resonate-decode/pkg/audio"
	"github.com/Resonate-Protocol/resonate-decode/pkg/container"
)

// Stream describes one fake stream
type Stream struct {
	Kind  container.MediaKind
	Codec string
	Coder *Coder // Returned by Container.Coder; nil yields an error
}

// Packet is one scripted packet
type Packet struct {
	Stream int
	Data   []byte
}

// Container replays scripted packets and records how it was used
type Container struct {
	Streams   []Stream
	Packets   []Packet
	MaxPacket int

	// ReadErr is returned instead of io.EOF once the packets run out
	ReadErr  error
	CoderErr error
	CloseErr error

	Reads  int
	Closes int

	pos int
}

// New creates a fake container with the given streams and packets
func New(streams []Stream, packets ...Packet) *Container {
	return &Container{
		Streams: streams,
		Packets: packets,
	}
}

// Opener returns an opener that always yields c
func (c *Container) Opener() container.Opener {
	return func(io.Reader) (container.Container, error) {
		return c, nil
	}
}

// FailingOpener returns an opener that always fails with err
func FailingOpener(err error) container.Opener {
	return func(io.Reader) (container.Container, error) {
		return nil, err
	}
}

func (c *Container) NumStreams() int { return len(c.Streams) }

func (c *Container) Stream(i int) container.StreamInfo {
	s := c.Streams[i]
	return container.StreamInfo{Index: i, Kind: s.Kind, Codec: s.Codec}
}

func (c *Container) Coder(i int) (container.Coder, error) {
	if c.CoderErr != nil {
		return nil, c.CoderErr
	}
	if c.Streams[i].Coder == nil {
		return nil, fmt.Errorf("no coder for stream %d", i)
	}
	return c.Streams[i].Coder, nil
}

func (c *Container) ReadPacket(pkt *container.Packet) error {
	c.Reads++
	if c.pos >= len(c.Packets) {
		if c.ReadErr != nil {
			return c.ReadErr
		}
		return io.EOF
	}
	p := c.Packets[c.pos]
	c.pos++

	pkt.StreamIndex = p.Stream
	pkt.SetData(p.Data)
	pkt.Granule = -1
	return nil
}

func (c *Container) MaxPacketSize() int { return c.MaxPacket }

func (c *Container) Close() error {
	c.Closes++
	return c.CloseErr
}

// Coder is a fake coder that completes a block after a fixed number of decode steps
type Coder struct {
	Rate   int
	Chans  int
	Format audio.SampleFormat

	// StepsPerBlock is how many Decode calls it takes to complete a block (default 1)
	StepsPerBlock int

	// BlockSize is the number of PCM bytes in a completed block (default: packet size)
	BlockSize int

	OpenErr   error
	DecodeErr error
	CloseErr  error

	// Status, when negative, is returned as the consumed count of every step
	Status int

	// Pending, when set, is emitted by Flush once the container runs dry
	Pending []byte

	// Expand, when positive, makes every completed step decode to Expand
	// bytes. What does not fit the block is held in Backlog.
	Expand  int
	Backlog []byte

	Opens  int
	Closes int
	Steps  int

	step int
}

func (c *Coder) Open() error {
	c.Opens++
	return c.OpenErr
}

func (c *Coder) SampleRate() int                  { return c.Rate }
func (c *Coder) Channels() int                    { return c.Chans }
func (c *Coder) SampleFormat() audio.SampleFormat { return c.Format }

func (c *Coder) Decode(block *container.SampleBlock, pkt *container.Packet, offset int) (int, error) {
	c.Steps++
	if c.DecodeErr != nil {
		return 0, c.DecodeErr
	}
	if c.Status < 0 {
		return c.Status, nil
	}

	steps := max(c.StepsPerBlock, 1)
	remaining := pkt.Size() - offset
	stepsLeft := steps - c.step
	consumed := remaining / stepsLeft
	c.step++

	if c.step < steps {
		return consumed, nil
	}
	c.step = 0

	if c.Expand > 0 {
		c.Backlog = append(c.Backlog, payload(pkt.Data, c.Expand)...)
		n := block.Write(c.Backlog)
		c.Backlog = c.Backlog[n:]
		block.SetComplete()
		return remaining, nil
	}

	size := c.BlockSize
	if size == 0 {
		size = pkt.Size()
	}
	if size > block.Free() {
		return 0, errors.New("block too small for payload")
	}
	block.Write(payload(pkt.Data, size))
	block.SetComplete()
	return remaining, nil
}

// Flush implements container.Flusher
func (c *Coder) Flush(block *container.SampleBlock) error {
	if len(c.Backlog) > 0 {
		n := block.Write(c.Backlog)
		c.Backlog = c.Backlog[n:]
		block.SetComplete()
		return nil
	}
	if len(c.Pending) == 0 {
		return nil
	}
	n := block.Write(c.Pending)
	c.Pending = c.Pending[n:]
	block.SetComplete()
	return nil
}

// Buffered implements container.Buffered
func (c *Coder) Buffered() int {
	return len(c.Backlog)
}

func (c *Coder) Close() error {
	c.Closes++
	return c.CloseErr
}

// payload repeats seed to size bytes so tests can check copied content
func payload(seed []byte, size int) []byte {
	out := make([]byte, size)
	if len(seed) == 0 {
		for i := range out {
			out[i] = 0xAB
		}
		return out
	}
	for i := range out {
		out[i] = seed[i%len(seed)]
	}
	return out
}

// Payload exposes the bytes a completed block holds for a given packet
func Payload(seed []byte, size int) []byte {
	return payload(seed, size)
}
