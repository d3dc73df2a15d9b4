// ABOUTME: Error taxonomy for the stream decoder
// ABOUTME: Sentinel errors matched with errors.Is at open/read/close boundaries
package stream

import "errors"

var (
	// ErrContainerOpen means the byte source could not be parsed as a supported container
	ErrContainerOpen = errors.New("couldn't open container")

	// ErrStreamNotFound means the container has no audio stream
	ErrStreamNotFound = errors.New("couldn't find the audio stream")

	// ErrDecoderOpen means the coder for the selected stream could not be initialized
	ErrDecoderOpen = errors.New("couldn't open the audio decoder")

	// ErrBufferTooSmall means the caller's buffer cannot hold the pending packet
	ErrBufferTooSmall = errors.New("buffer too small")

	// ErrDecode means a decode step failed; the decoder should be closed
	ErrDecode = errors.New("couldn't decode correctly")

	// ErrPacketRead means the container failed to produce the next packet for a reason other than end of stream
	ErrPacketRead = errors.New("couldn't read packet")

	// ErrResourceClose means the byte source could not be released
	ErrResourceClose = errors.New("couldn't close byte source")

	ErrNotOpen     = errors.New("decoder not open")
	ErrAlreadyOpen = errors.New("decoder already open")
	ErrClosed      = errors.New("decoder closed")
)
