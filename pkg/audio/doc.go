// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format, SampleFormat and sample conversion functions
// Package audio provides fundamental audio types shared by the container
// backends, the stream decoder and the playback output.
//
// This package defines:
//   - Format: Describes decoded PCM (sample rate, bit depth, channels, signedness, endianness)
//   - SampleFormat: A coder's native sample layout and its bit depth
//
// It also provides utilities for converting between different sample formats:
//   - 16-bit ↔ 24-bit conversions
//   - packed little-endian bytes → int32 samples in 24-bit range
//
// Example:
//
//	format := audio.Format{
//	    Codec:      "vorbis",
//	    SampleRate: 44100,
//	    BitDepth:   16,
//	    Channels:   2,
//	    Signed:     true,
//	}
//
//	samples, err := audio.SamplesFromBytes(format, pcm)
package audio
