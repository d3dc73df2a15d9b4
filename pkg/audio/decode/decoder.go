// ABOUTME: Shared PCM staging for coders
// ABOUTME: Holds decoded PCM until it fits into a caller-sized sample block
package decode

import (
	"encoding/binary"
	"fmt"

	"github.com/Resonate-Protocol/resonate-decode/pkg/container"
)

// pending holds decoded PCM that has not been handed out in a block yet
type pending struct {
	buf       []byte
	frameSize int
}

// push appends PCM bytes
func (q *pending) push(pcm []byte) {
	q.buf = append(q.buf, pcm...)
}

// pushInt16 appends int16 samples as little-endian bytes
func (q *pending) pushInt16(samples []int16) {
	for _, s := range samples {
		q.buf = binary.LittleEndian.AppendUint16(q.buf, uint16(s))
	}
}

// pushFloat32 appends float samples converted to 16-bit little-endian
func (q *pending) pushFloat32(samples []float32) {
	for _, s := range samples {
		q.buf = binary.LittleEndian.AppendUint16(q.buf, uint16(floatToInt16(s)))
	}
}

func (q *pending) len() int {
	return len(q.buf)
}

// fill moves as many whole frames as fit into block and marks it complete
// if anything was moved
func (q *pending) fill(block *container.SampleBlock) error {
	if len(q.buf) == 0 {
		return nil
	}
	if q.frameSize > block.Cap() {
		return fmt.Errorf("block of %d bytes cannot hold one %d-byte frame", block.Cap(), q.frameSize)
	}

	n := min(len(q.buf), block.Free())
	n -= n % q.frameSize
	if n == 0 {
		return nil
	}

	block.Write(q.buf[:n])
	rest := copy(q.buf, q.buf[n:])
	q.buf = q.buf[:rest]
	block.SetComplete()
	return nil
}

func (q *pending) reset() {
	q.buf = q.buf[:0]
}

// floatToInt16 converts a float sample in [-1, 1] to int16 with clamping
func floatToInt16(s float32) int16 {
	v := s * 32767
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}
