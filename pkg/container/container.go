// ABOUTME: Container session and coder interfaces
// ABOUTME: Common abstraction every demuxer/codec backend implements
package container

import (
	"io"

	"github.com/Resonate-Protocol/resonate-decode/pkg/audio"
)

// MediaKind classifies an elementary stream inside a container
type MediaKind int

const (
	KindOther MediaKind = iota
	KindAudio
	KindVideo
	KindSubtitle
)

func (k MediaKind) String() string {
	switch k {
	case KindAudio:
		return "audio"
	case KindVideo:
		return "video"
	case KindSubtitle:
		return "subtitle"
	default:
		return "other"
	}
}

// StreamInfo describes one stream found while scanning a container
type StreamInfo struct {
	Index  int
	Kind   MediaKind
	Codec  string
	Header []byte // Codec identification header, if the container carries one
}

// Opener opens a container session over a byte source
type Opener func(r io.Reader) (Container, error)

// Container is an opened demuxer bound to one byte source
type Container interface {
	// NumStreams returns how many streams the scan found
	NumStreams() int

	// Stream returns the descriptor for stream i
	Stream(i int) StreamInfo

	// Coder returns the unopened coder for stream i
	Coder(i int) (Coder, error)

	// ReadPacket fills pkt with the next demuxed packet of any stream.
	// Returns io.EOF once the container is exhausted.
	ReadPacket(pkt *Packet) error

	// MaxPacketSize returns the largest packet the container claims to produce, or 0 if unknown
	MaxPacketSize() int

	// Close releases demuxer resources. It does not close the byte source.
	Close() error
}

// Coder decodes the packets of one stream into PCM sample blocks
type Coder interface {
	// Open prepares the coder; no Decode call is valid before it succeeds
	Open() error

	SampleRate() int
	Channels() int
	SampleFormat() audio.SampleFormat

	// Decode runs one decode step over pkt.Data[offset:], writing PCM into
	// block. It returns the number of packet bytes consumed. A step may
	// consume data without completing the block.
	Decode(block *SampleBlock, pkt *Packet, offset int) (int, error)

	// Close releases coder resources
	Close() error
}

// Flusher is implemented by coders that can hold decoded PCM between
// packets. Flush moves pending PCM into block once the container is exhausted.
type Flusher interface {
	Flush(block *SampleBlock) error
}

// Buffered is implemented by flushing coders whose decoded output can
// outgrow one block. Buffered returns the number of PCM bytes held back;
// once it reaches a frame the holder is flushed before the next packet is read.
type Buffered interface {
	Buffered() int
}
