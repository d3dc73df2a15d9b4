// ABOUTME: Vorbis audio decoder
// ABOUTME: Consumes the three Vorbis headers then decodes audio packets to 16-bit PCM
package decode

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/Resonate-Protocol/resonate-decode/pkg/audio"
	"github.com/Resonate-Protocol/resonate-decode/pkg/container"
	"github.com/jfreymuth/vorbis"
)

var vorbisMagic = []byte("vorbis")

// VorbisID is the Vorbis identification header
type VorbisID struct {
	Channels       int
	SampleRate     int
	BitrateNominal int32
}

// ParseVorbisID parses a Vorbis identification header packet
func ParseVorbisID(b []byte) (VorbisID, error) {
	if len(b) < 30 || b[0] != 1 || !bytes.Equal(b[1:7], vorbisMagic) {
		return VorbisID{}, fmt.Errorf("not a Vorbis identification header")
	}
	if version := binary.LittleEndian.Uint32(b[7:11]); version != 0 {
		return VorbisID{}, fmt.Errorf("unsupported Vorbis version: %d", version)
	}

	id := VorbisID{
		Channels:       int(b[11]),
		SampleRate:     int(binary.LittleEndian.Uint32(b[12:16])),
		BitrateNominal: int32(binary.LittleEndian.Uint32(b[20:24])),
	}
	if id.Channels == 0 || id.SampleRate == 0 {
		return VorbisID{}, fmt.Errorf("invalid Vorbis header: %d channels at %d Hz", id.Channels, id.SampleRate)
	}
	return id, nil
}

// VorbisDecoder decodes Vorbis audio
type VorbisDecoder struct {
	decoder *vorbis.Decoder
	id      VorbisID
	header  []byte
	queue   pending
}

// NewVorbis creates a Vorbis decoder from the identification header.
// The comment and setup headers arrive later as ordinary packets.
func NewVorbis(header []byte) (*VorbisDecoder, error) {
	id, err := ParseVorbisID(header)
	if err != nil {
		return nil, err
	}

	return &VorbisDecoder{
		id:     id,
		header: header,
		queue:  pending{frameSize: id.Channels * 2},
	}, nil
}

// Open feeds the identification header to the decoder
func (d *VorbisDecoder) Open() error {
	dec := &vorbis.Decoder{}
	if err := dec.ReadHeader(d.header); err != nil {
		return fmt.Errorf("failed to read vorbis identification header: %w", err)
	}
	d.decoder = dec
	return nil
}

func (d *VorbisDecoder) SampleRate() int                  { return d.id.SampleRate }
func (d *VorbisDecoder) Channels() int                    { return d.id.Channels }
func (d *VorbisDecoder) SampleFormat() audio.SampleFormat { return audio.SampleFormatS16 }

// Decode consumes one Vorbis packet. Header packets are absorbed into the
// decoder setup; audio packets are decoded and fill block.
func (d *VorbisDecoder) Decode(block *container.SampleBlock, pkt *container.Packet, offset int) (int, error) {
	if d.decoder == nil {
		return 0, fmt.Errorf("vorbis decoder not open")
	}

	data := pkt.Data[offset:]
	if len(data) == 0 {
		return 0, d.queue.fill(block)
	}

	// Header packets have the low bit of the type byte set
	if data[0]&1 == 1 {
		if d.decoder.HeadersRead() {
			return len(data), nil
		}
		if data[0] == 1 {
			// Identification header repeated in the stream; already consumed in Open
			return len(data), nil
		}
		if err := d.decoder.ReadHeader(data); err != nil {
			return 0, fmt.Errorf("failed to read vorbis header: %w", err)
		}
		return len(data), nil
	}

	if !d.decoder.HeadersRead() {
		return 0, fmt.Errorf("vorbis audio packet before setup header")
	}

	samples, err := d.decoder.Decode(data)
	if err != nil {
		return 0, fmt.Errorf("vorbis decode failed: %w", err)
	}
	d.queue.pushFloat32(samples)
	if err := d.queue.fill(block); err != nil {
		return 0, err
	}
	return len(data), nil
}

// Flush hands out PCM still queued after the last packet
func (d *VorbisDecoder) Flush(block *container.SampleBlock) error {
	return d.queue.fill(block)
}

// Buffered returns the number of decoded bytes not yet handed out
func (d *VorbisDecoder) Buffered() int {
	return d.queue.len()
}

// Close releases decoder resources
func (d *VorbisDecoder) Close() error {
	d.decoder = nil
	d.queue.reset()
	return nil
}
