// ABOUTME: Coders that turn demuxed packets into PCM sample blocks
// ABOUTME: Provides PCM passthrough, Opus and Vorbis coders
// Package decode provides the coders used by the containers in
// pkg/container.
//
// Supports: PCM (16, 24 and 32-bit signed little-endian), Opus, Vorbis
//
// Every coder implements container.Coder and container.Flusher. Decoded
// audio is queued as little-endian PCM and handed out in whole frames, so a
// coder may keep samples across Decode calls until the caller's block has
// room for them.
//
// Example:
//
//	coder, err := decode.NewOpus(format, head.PreSkip)
//	err = coder.Open()
//	consumed, err := coder.Decode(block, packet, 0)
package decode
