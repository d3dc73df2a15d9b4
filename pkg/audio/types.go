// ABOUTME: Audio type definitions
// ABOUTME: Defines the PCM format descriptor, sample formats and sample conversions
package audio

import (
	"encoding/binary"
	"fmt"
)

const (
	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23
)

// SampleFormat identifies how a coder lays out one decoded sample
type SampleFormat int

const (
	SampleFormatNone SampleFormat = iota
	SampleFormatU8
	SampleFormatS16
	SampleFormatS24
	SampleFormatS32
	SampleFormatF32
	SampleFormatF64
)

// BitDepth returns the number of bits one sample occupies, or 0 for an unknown format
func (f SampleFormat) BitDepth() int {
	switch f {
	case SampleFormatU8:
		return 8
	case SampleFormatS16:
		return 16
	case SampleFormatS24:
		return 24
	case SampleFormatS32, SampleFormatF32:
		return 32
	case SampleFormatF64:
		return 64
	default:
		return 0
	}
}

func (f SampleFormat) String() string {
	switch f {
	case SampleFormatU8:
		return "u8"
	case SampleFormatS16:
		return "s16"
	case SampleFormatS24:
		return "s24"
	case SampleFormatS32:
		return "s32"
	case SampleFormatF32:
		return "f32"
	case SampleFormatF64:
		return "f64"
	default:
		return "none"
	}
}

// Format describes decoded PCM audio. It is fixed once a stream is opened.
type Format struct {
	Codec      string
	SampleRate float64
	BitDepth   int
	Channels   int
	Signed     bool
	BigEndian  bool
}

// FrameSize returns the number of bytes in one interleaved frame (one sample per channel)
func (f Format) FrameSize() int {
	return f.Channels * ((f.BitDepth + 7) / 8)
}

// BytesPerSecond returns the PCM byte rate
func (f Format) BytesPerSecond() int {
	return int(f.SampleRate) * f.FrameSize()
}

func (f Format) String() string {
	sign := "signed"
	if !f.Signed {
		sign = "unsigned"
	}
	endian := "little-endian"
	if f.BigEndian {
		endian = "big-endian"
	}
	return fmt.Sprintf("%s %.0fHz %d-bit %dch %s %s",
		f.Codec, f.SampleRate, f.BitDepth, f.Channels, sign, endian)
}

// SampleToInt16 converts int32 sample to int16 (for 16-bit playback)
func SampleToInt16(sample int32) int16 {
	// Right-shift to convert 24-bit (or 16-bit) to 16-bit range
	return int16(sample >> 8)
}

// SampleFromInt16 converts int16 sample to int32 (left-justified in 24-bit)
func SampleFromInt16(sample int16) int32 {
	// Left-shift to position 16-bit value in upper bits
	return int32(sample) << 8
}

// SampleTo24Bit converts int32 to 24-bit packed bytes (little-endian)
func SampleTo24Bit(sample int32) [3]byte {
	// Take lower 24 bits, pack little-endian
	return [3]byte{
		byte(sample),
		byte(sample >> 8),
		byte(sample >> 16),
	}
}

// SampleFrom24Bit converts 24-bit packed bytes to int32 (little-endian)
func SampleFrom24Bit(b [3]byte) int32 {
	// Reconstruct 24-bit value and sign-extend to 32-bit
	val := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
	// Sign extend from 24-bit to 32-bit
	if val&0x800000 != 0 {
		val |= ^0xFFFFFF // Set upper 8 bits to 1 for negative values
	}
	return val
}

// SamplesFromBytes converts signed little-endian PCM bytes described by
// format into int32 samples in 24-bit range. Trailing bytes that do not
// form a whole sample are ignored.
func SamplesFromBytes(format Format, data []byte) ([]int32, error) {
	if !format.Signed || format.BigEndian {
		return nil, fmt.Errorf("unsupported sample layout: %s", format)
	}

	switch format.BitDepth {
	case 16:
		samples := make([]int32, len(data)/2)
		for i := range samples {
			samples[i] = SampleFromInt16(int16(binary.LittleEndian.Uint16(data[i*2:])))
		}
		return samples, nil
	case 24:
		samples := make([]int32, len(data)/3)
		for i := range samples {
			samples[i] = SampleFrom24Bit([3]byte{data[i*3], data[i*3+1], data[i*3+2]})
		}
		return samples, nil
	case 32:
		samples := make([]int32, len(data)/4)
		for i := range samples {
			samples[i] = int32(binary.LittleEndian.Uint32(data[i*4:])) >> 8
		}
		return samples, nil
	default:
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16, 24, 32)", format.BitDepth)
	}
}
