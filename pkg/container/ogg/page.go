// ABOUTME: Ogg page reader with CRC verification
// ABOUTME: Parses page headers, segment tables and page bodies from a byte stream
package ogg

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	headerSize  = 27
	maxSegments = 255
	maxPageSize = headerSize + maxSegments + maxSegments*255

	flagContinued = 0x01
	flagBOS       = 0x02
	flagEOS       = 0x04
)

var capturePattern = []byte("OggS")

// ErrBadCRC is returned for pages whose checksum does not match
var ErrBadCRC = errors.New("ogg page CRC mismatch")

// page is one parsed Ogg page. Body and Segments alias the reader's buffer
// and are only valid until the next readPage.
type page struct {
	Flags    byte
	Granule  int64
	Serial   uint32
	Sequence uint32
	Segments []byte
	Body     []byte
}

func (p *page) continued() bool { return p.Flags&flagContinued != 0 }
func (p *page) bos() bool       { return p.Flags&flagBOS != 0 }
func (p *page) eos() bool       { return p.Flags&flagEOS != 0 }

// crcTable is the table for the Ogg CRC32 (polynomial 0x04C11DB7, no
// reflection, zero initial value)
var crcTable = func() [256]uint32 {
	var t [256]uint32
	for i := range t {
		r := uint32(i) << 24
		for j := 0; j < 8; j++ {
			if r&0x80000000 != 0 {
				r = r<<1 ^ 0x04C11DB7
			} else {
				r <<= 1
			}
		}
		t[i] = r
	}
	return t
}()

func crcUpdate(crc uint32, b []byte) uint32 {
	for _, v := range b {
		crc = crc<<8 ^ crcTable[byte(crc>>24)^v]
	}
	return crc
}

// pageReader reads consecutive pages from r
type pageReader struct {
	r         io.Reader
	buf       []byte
	verifyCRC bool
}

func newPageReader(r io.Reader, verifyCRC bool) *pageReader {
	return &pageReader{
		r:         r,
		buf:       make([]byte, maxPageSize),
		verifyCRC: verifyCRC,
	}
}

// readPage reads the next page. It returns io.EOF at a clean end of input
// and io.ErrUnexpectedEOF for a truncated page.
func (pr *pageReader) readPage(p *page) error {
	hdr := pr.buf[:headerSize]
	if _, err := io.ReadFull(pr.r, hdr); err != nil {
		return err
	}
	if string(hdr[:4]) != string(capturePattern) {
		return fmt.Errorf("invalid ogg capture pattern %q", hdr[:4])
	}
	if hdr[4] != 0 {
		return fmt.Errorf("unsupported ogg version: %d", hdr[4])
	}

	nsegs := int(hdr[26])
	segs := pr.buf[headerSize : headerSize+nsegs]
	if _, err := io.ReadFull(pr.r, segs); err != nil {
		return unexpected(err)
	}

	bodyLen := 0
	for _, s := range segs {
		bodyLen += int(s)
	}
	start := headerSize + nsegs
	body := pr.buf[start : start+bodyLen]
	if _, err := io.ReadFull(pr.r, body); err != nil {
		return unexpected(err)
	}

	if pr.verifyCRC {
		want := binary.LittleEndian.Uint32(hdr[22:26])
		var zero [4]byte
		crc := crcUpdate(0, hdr[:22])
		crc = crcUpdate(crc, zero[:])
		crc = crcUpdate(crc, pr.buf[26:start+bodyLen])
		if crc != want {
			return fmt.Errorf("%w: page %d of serial %08x", ErrBadCRC,
				binary.LittleEndian.Uint32(hdr[18:22]), binary.LittleEndian.Uint32(hdr[14:18]))
		}
	}

	p.Flags = hdr[5]
	p.Granule = int64(binary.LittleEndian.Uint64(hdr[6:14]))
	p.Serial = binary.LittleEndian.Uint32(hdr[14:18])
	p.Sequence = binary.LittleEndian.Uint32(hdr[18:22])
	p.Segments = segs
	p.Body = body
	return nil
}

func unexpected(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}
