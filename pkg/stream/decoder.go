// ABOUTME: Stream decoder adapter lifecycle
// ABOUTME: Opens a container, selects the audio stream, owns coder and byte source
package stream

import (
	"fmt"
	"io"
	"log"
	"sync/atomic"

	"github.com/Resonate-Protocol/resonate-decode/pkg/audio"
	"github.com/Resonate-Protocol/resonate-decode/pkg/container"
	"github.com/google/uuid"
)

// Config holds decoder configuration
type Config struct {
	// Opener opens the container session (default: container.Open, which probes registered formats)
	Opener container.Opener

	// ID identifies the decoder in log output (default: random UUID)
	ID string

	// Debug enables per-packet logging
	Debug bool
}

// Stats contains decode counters
type Stats struct {
	Packets     int64 // Packets pulled from the container
	Discarded   int64 // Packets dropped because they belong to another stream
	DecodeSteps int64
	Blocks      int64 // Complete sample blocks returned
	Bytes       int64 // PCM bytes returned
}

type counters struct {
	packets   atomic.Int64
	discarded atomic.Int64
	steps     atomic.Int64
	blocks    atomic.Int64
	bytes     atomic.Int64
}

// Decoder pulls PCM out of an encoded container. It owns the byte source,
// the container session and the audio coder from Open until Close.
//
// Open, Read and Close must not be called concurrently. Stats is safe to
// call from any goroutine.
type Decoder struct {
	config Config
	src    io.ReadCloser

	container   container.Container
	coder       container.Coder
	streams     []container.StreamInfo
	audioStream int
	format      audio.Format

	// Read cursor state, valid between Open and Close
	packet *container.Packet
	block  *container.SampleBlock

	isOpen bool
	closed bool

	stats counters
}

// New creates a decoder over src. Nothing is read until Open.
func New(src io.ReadCloser, config Config) *Decoder {
	if config.Opener == nil {
		config.Opener = container.Open
	}
	if config.ID == "" {
		config.ID = uuid.New().String()
	}

	return &Decoder{
		config:      config,
		src:         src,
		audioStream: -1,
		packet:      container.NewPacket(0),
		block:       &container.SampleBlock{},
	}
}

// ID returns the decoder's log identifier
func (d *Decoder) ID() string {
	return d.config.ID
}

// Open parses the container, selects the first audio stream and opens its coder.
// On failure nothing acquired by Open stays held; Close is still required to
// release the byte source.
func (d *Decoder) Open() error {
	if d.closed {
		return ErrClosed
	}
	if d.isOpen {
		return ErrAlreadyOpen
	}

	d.audioStream = -1

	c, err := d.config.Opener(d.src)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrContainerOpen, err)
	}
	if c == nil {
		return fmt.Errorf("%w: opener returned no container", ErrContainerOpen)
	}

	index, coder, err := selectAudioStream(c)
	if err != nil {
		d.releaseContainer(c)
		return err
	}

	info := c.Stream(index)
	if err := coder.Open(); err != nil {
		d.releaseContainer(c)
		return fmt.Errorf("%w: stream %d (%s): %w", ErrDecoderOpen, index, info.Codec, err)
	}

	format, err := deriveFormat(info, coder)
	if err != nil {
		d.releaseCoder(coder)
		d.releaseContainer(c)
		return fmt.Errorf("%w: stream %d (%s): %w", ErrDecoderOpen, index, info.Codec, err)
	}

	streams := make([]container.StreamInfo, c.NumStreams())
	for i := range streams {
		streams[i] = c.Stream(i)
	}

	d.container = c
	d.coder = coder
	d.streams = streams
	d.audioStream = index
	d.format = format
	d.packet = container.NewPacket(c.MaxPacketSize())
	d.isOpen = true

	log.Printf("Decoder %s: opened stream %d of %d: %s", d.config.ID, index, len(streams), format)

	return nil
}

// AudioFormat returns the PCM format of the selected stream. It is the zero
// Format until Open succeeds.
func (d *Decoder) AudioFormat() audio.Format {
	return d.format
}

// AudioStream returns the index of the selected audio stream, or -1
func (d *Decoder) AudioStream() int {
	return d.audioStream
}

// Streams returns the descriptors found by the container scan
func (d *Decoder) Streams() []container.StreamInfo {
	out := make([]container.StreamInfo, len(d.streams))
	copy(out, d.streams)
	return out
}

// MaxPacketSize returns the largest packet the open container claims to
// produce, or 0 if it is unknown or the decoder is not open. Read lengths
// below it may fail with ErrBufferTooSmall.
func (d *Decoder) MaxPacketSize() int {
	if d.container == nil {
		return 0
	}
	return d.container.MaxPacketSize()
}

// Stats returns a snapshot of the decode counters
func (d *Decoder) Stats() Stats {
	return Stats{
		Packets:     d.stats.packets.Load(),
		Discarded:   d.stats.discarded.Load(),
		DecodeSteps: d.stats.steps.Load(),
		Blocks:      d.stats.blocks.Load(),
		Bytes:       d.stats.bytes.Load(),
	}
}

// Close releases the coder, the container and then the byte source. Coder
// and container failures are logged; only a byte source failure is returned.
// Calling Close more than once is a no-op.
func (d *Decoder) Close() error {
	d.isOpen = false
	d.closed = true

	if d.coder != nil {
		d.releaseCoder(d.coder)
		d.coder = nil
	}
	if d.container != nil {
		d.releaseContainer(d.container)
		d.container = nil
	}

	if d.src == nil {
		return nil
	}
	src := d.src
	d.src = nil
	if err := src.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrResourceClose, err)
	}
	return nil
}

func (d *Decoder) releaseCoder(c container.Coder) {
	if err := c.Close(); err != nil {
		log.Printf("Decoder %s: error closing coder: %v", d.config.ID, err)
	}
}

func (d *Decoder) releaseContainer(c container.Container) {
	if err := c.Close(); err != nil {
		log.Printf("Decoder %s: error closing container: %v", d.config.ID, err)
	}
}
