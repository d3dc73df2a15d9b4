// ABOUTME: Audio output package for playing decoded audio
// ABOUTME: Provides Output interface with oto and raw PCM implementations
// Package output provides audio sinks for decoded samples.
//
// Oto plays through the system sound card; Raw writes 16-bit PCM to any
// io.Writer. Both apply software volume and mute.
//
// Example:
//
//	out := output.NewOto(80)
//	err := out.Open(decoder.AudioFormat())
//	err = out.Write(samples)
package output
