// ABOUTME: Incremental decode loop behind Decoder.Read
// ABOUTME: Pulls packets, drops foreign streams, steps the coder until one block completes
package stream

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/Resonate-Protocol/resonate-decode/pkg/container"
)

// maxStalledSteps bounds consecutive decode steps that neither consume
// packet data nor complete a block.
const maxStalledSteps = 64

// Read decodes the next complete sample block of the audio stream into
// p[off:off+n] and returns the number of bytes written. It returns io.EOF
// once the container has no more audio. A single call never returns more
// than one block.
//
// ErrBufferTooSmall and ErrDecode are fatal for the call; after ErrDecode
// the decoder state is undefined and it should be closed.
func (d *Decoder) Read(p []byte, off, n int) (int, error) {
	if !d.isOpen {
		return 0, ErrNotOpen
	}
	if off < 0 || n <= 0 || off > len(p) || n > len(p)-off {
		return 0, fmt.Errorf("%w: offset %d length %d for a %d-byte buffer", ErrBufferTooSmall, off, n, len(p))
	}
	// The reusable packet still holds the last packet read; it must not be
	// decoded into a target smaller than itself.
	if size := d.packet.Size(); size > n {
		return 0, fmt.Errorf("%w: packet of %d bytes exceeds length %d", ErrBufferTooSmall, size, n)
	}

	if written, ok, err := d.emitBuffered(p, off, n); err != nil || ok {
		return written, err
	}

	for {
		if err := d.container.ReadPacket(d.packet); err != nil {
			if errors.Is(err, io.EOF) {
				return d.drain(p, off, n)
			}
			return 0, fmt.Errorf("%w: %w", ErrPacketRead, err)
		}
		d.stats.packets.Add(1)

		if d.packet.StreamIndex != d.audioStream {
			d.stats.discarded.Add(1)
			if d.config.Debug {
				log.Printf("Decoder %s: dropped %d-byte packet from stream %d",
					d.config.ID, d.packet.Size(), d.packet.StreamIndex)
			}
			continue
		}

		d.block.Reset(n, d.format.Channels)
		written, complete, err := d.decodePacket(p, off)
		if err != nil {
			return 0, err
		}
		if complete {
			return written, nil
		}
	}
}

// decodePacket steps the coder over the current packet. It reports whether
// a block was completed and copied out.
func (d *Decoder) decodePacket(p []byte, off int) (int, bool, error) {
	offset := 0
	stalled := 0
	for {
		consumed, err := d.coder.Decode(d.block, d.packet, offset)
		d.stats.steps.Add(1)
		if err != nil {
			return 0, false, fmt.Errorf("%w: %w", ErrDecode, err)
		}
		if consumed < 0 {
			return 0, false, fmt.Errorf("%w: decoder returned status %d", ErrDecode, consumed)
		}
		offset += consumed

		if d.block.Complete() {
			return d.copyOut(p, off), true, nil
		}
		if offset >= d.packet.Size() {
			return 0, false, nil
		}

		if consumed > 0 {
			stalled = 0
			continue
		}
		stalled++
		if stalled >= maxStalledSteps {
			return 0, false, fmt.Errorf("%w: decoder stalled at byte %d of %d", ErrDecode, offset, d.packet.Size())
		}
	}
}

// emitBuffered hands out PCM the coder still holds from earlier packets
// before another packet is pulled. It reports whether a block was copied out.
func (d *Decoder) emitBuffered(p []byte, off, n int) (int, bool, error) {
	b, ok := d.coder.(container.Buffered)
	if !ok || b.Buffered() < d.format.FrameSize() {
		return 0, false, nil
	}
	f, ok := d.coder.(container.Flusher)
	if !ok {
		return 0, false, nil
	}

	d.block.Reset(n, d.format.Channels)
	if err := f.Flush(d.block); err != nil {
		return 0, false, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if !d.block.Complete() {
		return 0, false, nil
	}
	return d.copyOut(p, off), true, nil
}

// drain gives a flushing coder one chance to emit held PCM once the
// container is exhausted.
func (d *Decoder) drain(p []byte, off, n int) (int, error) {
	f, ok := d.coder.(container.Flusher)
	if !ok {
		return 0, io.EOF
	}

	d.block.Reset(n, d.format.Channels)
	if err := f.Flush(d.block); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if !d.block.Complete() {
		return 0, io.EOF
	}
	return d.copyOut(p, off), nil
}

func (d *Decoder) copyOut(p []byte, off int) int {
	written := copy(p[off:], d.block.Bytes())
	d.stats.blocks.Add(1)
	d.stats.bytes.Add(int64(written))
	return written
}

// Reader returns an io.Reader view of the decoder for sinks that pull
// through the standard interface. Each Read call fills at most one block,
// so p must be at least as large as the container's packets.
func (d *Decoder) Reader() io.Reader {
	return reader{d: d}
}

type reader struct {
	d *Decoder
}

func (r reader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	return r.d.Read(p, 0, len(p))
}
