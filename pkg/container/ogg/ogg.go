// ABOUTME: Ogg container demuxer
// ABOUTME: Discovers logical streams from BOS pages and reassembles laced packets
package ogg

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/Resonate-Protocol/resonate-decode/pkg/audio"
	"github.com/Resonate-Protocol/resonate-decode/pkg/audio/decode"
	"github.com/Resonate-Protocol/resonate-decode/pkg/container"
)

// MaxPacketSize is the packet capacity the demuxer advertises. Packets
// spanning several pages may grow beyond it.
const MaxPacketSize = maxSegments * 255

func init() {
	container.Register(container.Format{
		Name:  "ogg",
		Magic: []string{"OggS"},
		Open: func(r io.Reader) (container.Container, error) {
			return Open(r)
		},
	})
}

// codecs maps the leading bytes of a BOS packet to a stream kind and codec
var codecs = []struct {
	magic []byte
	kind  container.MediaKind
	codec string
}{
	{[]byte("\x01vorbis"), container.KindAudio, "vorbis"},
	{[]byte("OpusHead"), container.KindAudio, "opus"},
	{[]byte("\x7fFLAC"), container.KindAudio, "flac"},
	{[]byte("Speex   "), container.KindAudio, "speex"},
	{[]byte("\x80theora"), container.KindVideo, "theora"},
	{[]byte("\x80daala"), container.KindVideo, "daala"},
	{[]byte("\x80kate"), container.KindSubtitle, "kate"},
}

func classify(header []byte) (container.MediaKind, string) {
	for _, c := range codecs {
		if bytes.HasPrefix(header, c.magic) {
			return c.kind, c.codec
		}
	}
	return container.KindOther, "unknown"
}

type logicalStream struct {
	info    container.StreamInfo
	serial  uint32
	partial []byte
	ended   bool
}

type queuedPacket struct {
	stream  int
	data    []byte
	granule int64
}

// Demuxer splits an Ogg physical stream into packets of its logical streams
type Demuxer struct {
	pages     *pageReader
	page      page
	verifyCRC bool

	streams  []*logicalStream
	bySerial map[uint32]int
	queue    []queuedPacket

	scanned bool
	eof     bool
	closed  bool
}

// Option configures a Demuxer
type Option func(*Demuxer)

// WithoutCRC skips page checksum verification
func WithoutCRC() Option {
	return func(d *Demuxer) {
		d.verifyCRC = false
	}
}

// Open reads the beginning-of-stream pages of r and returns a demuxer
// that knows every logical stream multiplexed at the start.
func Open(r io.Reader, opts ...Option) (*Demuxer, error) {
	d := &Demuxer{
		verifyCRC: true,
		bySerial:  make(map[uint32]int),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.pages = newPageReader(r, d.verifyCRC)

	if err := d.scan(); err != nil {
		return nil, err
	}
	if len(d.streams) == 0 {
		return nil, fmt.Errorf("no logical streams in ogg data")
	}
	return d, nil
}

// scan reads pages until the first one that does not begin a stream. That
// page's packets stay queued for ReadPacket.
func (d *Demuxer) scan() error {
	for {
		if err := d.pages.readPage(&d.page); err != nil {
			if errors.Is(err, io.EOF) && len(d.streams) > 0 {
				d.scanned = true
				d.eof = true
				return nil
			}
			return fmt.Errorf("failed to read ogg page: %w", err)
		}

		bos := d.page.bos()
		if err := d.processPage(); err != nil {
			return err
		}
		if !bos {
			d.scanned = true
			return nil
		}
	}
}

func (d *Demuxer) addStream(serial uint32, header []byte) int {
	kind, codec := classify(header)
	idx := len(d.streams)
	d.streams = append(d.streams, &logicalStream{
		info: container.StreamInfo{
			Index:  idx,
			Kind:   kind,
			Codec:  codec,
			Header: append([]byte(nil), header...),
		},
		serial: serial,
	})
	d.bySerial[serial] = idx
	return idx
}

// processPage splits the current page into packets and queues the
// complete ones
func (d *Demuxer) processPage() error {
	p := &d.page

	idx, known := d.bySerial[p.Serial]
	if p.bos() {
		if known && !d.streams[idx].ended {
			return fmt.Errorf("duplicate beginning of stream for serial %08x", p.Serial)
		}
		if len(p.Segments) == 0 || p.Segments[0] == 0 {
			return fmt.Errorf("empty beginning of stream page for serial %08x", p.Serial)
		}
		idx = d.addStream(p.Serial, firstPacket(p))
		if d.scanned {
			log.Printf("Ogg: chained %s stream %d (serial %08x)", d.streams[idx].info.Codec, idx, p.Serial)
		}
	} else if !known {
		// Pages of a stream whose BOS was never seen carry nothing usable
		return nil
	}

	s := d.streams[idx]
	// A continuation whose start was lost is skipped up to the first boundary
	lost := p.continued() && len(s.partial) == 0
	if !p.continued() {
		s.partial = s.partial[:0]
	}
	d.split(s, idx, lost)
	if p.eos() {
		s.ended = true
	}
	return nil
}

// split walks the segment table. When skipFirst is set the bytes up to the
// first packet boundary are discarded.
func (d *Demuxer) split(s *logicalStream, idx int, skipFirst bool) {
	p := &d.page
	body := p.Body
	lastDone := -1
	var done []queuedPacket

	for i, seg := range p.Segments {
		n := int(seg)
		if !skipFirst {
			s.partial = append(s.partial, body[:n]...)
		}
		body = body[n:]
		if seg == 255 {
			continue
		}
		if skipFirst {
			skipFirst = false
			continue
		}
		done = append(done, queuedPacket{
			stream:  idx,
			data:    append([]byte(nil), s.partial...),
			granule: -1,
		})
		s.partial = s.partial[:0]
		lastDone = i
	}

	if lastDone >= 0 {
		done[len(done)-1].granule = p.Granule
	}
	d.queue = append(d.queue, done...)
}

func firstPacket(p *page) []byte {
	n := 0
	for _, seg := range p.Segments {
		n += int(seg)
		if seg < 255 {
			break
		}
	}
	return p.Body[:n]
}

func (d *Demuxer) NumStreams() int { return len(d.streams) }

func (d *Demuxer) Stream(i int) container.StreamInfo {
	return d.streams[i].info
}

// Coder returns a coder for stream i. Only Vorbis and Opus can be decoded.
func (d *Demuxer) Coder(i int) (container.Coder, error) {
	if i < 0 || i >= len(d.streams) {
		return nil, fmt.Errorf("stream index %d out of range", i)
	}

	info := d.streams[i].info
	switch info.Codec {
	case "vorbis":
		return decode.NewVorbis(info.Header)
	case "opus":
		head, err := decode.ParseOpusHead(info.Header)
		if err != nil {
			return nil, err
		}
		return decode.NewOpus(audio.Format{
			Codec:      "opus",
			SampleRate: decode.OpusSampleRate,
			Channels:   head.Channels,
			BitDepth:   16,
		}, head.PreSkip)
	default:
		return nil, fmt.Errorf("no decoder for %s stream", info.Codec)
	}
}

// ReadPacket fills pkt with the next complete packet of any stream.
// Packets that end a page carry the page granule position.
func (d *Demuxer) ReadPacket(pkt *container.Packet) error {
	if d.closed {
		return fmt.Errorf("ogg demuxer closed")
	}

	for len(d.queue) == 0 {
		if d.eof {
			return io.EOF
		}
		if err := d.pages.readPage(&d.page); err != nil {
			if errors.Is(err, io.EOF) {
				d.eof = true
				continue
			}
			return fmt.Errorf("failed to read ogg page: %w", err)
		}
		if err := d.processPage(); err != nil {
			return err
		}
	}

	next := d.queue[0]
	d.queue[0] = queuedPacket{}
	d.queue = d.queue[1:]

	pkt.StreamIndex = next.stream
	pkt.SetData(next.data)
	pkt.Granule = next.granule
	return nil
}

func (d *Demuxer) MaxPacketSize() int { return MaxPacketSize }

// Close releases the demuxer state. The underlying reader is not closed.
func (d *Demuxer) Close() error {
	d.closed = true
	d.queue = nil
	d.streams = nil
	d.bySerial = nil
	return nil
}
