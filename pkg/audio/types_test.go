// ABOUTME: Tests for audio types
// ABOUTME: Tests sample conversion functions
package audio

import "testing"

func TestSampleFromInt16(t *testing.T) {
	tests := []struct {
		name     string
		input    int16
		expected int32
	}{
		{"zero", 0, 0},
		{"positive", 100, 100 << 8},
		{"negative", -100, -100 << 8},
		{"max", 32767, 32767 << 8},
		{"min", -32768, -32768 << 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SampleFromInt16(tt.input)
			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestSampleToInt16(t *testing.T) {
	tests := []struct {
		name     string
		input    int32
		expected int16
	}{
		{"zero", 0, 0},
		{"positive", 100 << 8, 100},
		{"negative", -100 << 8, -100},
		{"24bit positive", 1000000, 3906}, // 1000000 >> 8 = 3906
		{"24bit negative", -1000000, -3907},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SampleToInt16(tt.input)
			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestSampleTo24Bit(t *testing.T) {
	tests := []struct {
		name     string
		input    int32
		expected [3]byte
	}{
		{"zero", 0, [3]byte{0, 0, 0}},
		{"positive", 0x123456, [3]byte{0x56, 0x34, 0x12}},
		{"negative", -256, [3]byte{0x00, 0xFF, 0xFF}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SampleTo24Bit(tt.input)
			if result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestSampleFrom24Bit(t *testing.T) {
	tests := []struct {
		name     string
		input    [3]byte
		expected int32
	}{
		{"zero", [3]byte{0, 0, 0}, 0},
		{"positive", [3]byte{0x56, 0x34, 0x12}, 0x123456},
		{"negative", [3]byte{0x00, 0xFF, 0xFF}, -256},
		{"max positive", [3]byte{0xFF, 0xFF, 0x7F}, Max24Bit},
		{"max negative", [3]byte{0x00, 0x00, 0x80}, Min24Bit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SampleFrom24Bit(tt.input)
			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestRoundTrip16Bit(t *testing.T) {
	// Test that 16-bit samples survive round-trip conversion
	samples := []int16{0, 100, -100, 1000, -1000, 32767, -32768}

	for _, original := range samples {
		sample32 := SampleFromInt16(original)
		result := SampleToInt16(sample32)
		if result != original {
			t.Errorf("round-trip failed: %d -> %d -> %d", original, sample32, result)
		}
	}
}

func TestRoundTrip24Bit(t *testing.T) {
	// Test that 24-bit samples survive round-trip conversion
	samples := []int32{0, 100000, -100000, Max24Bit, Min24Bit}

	for _, original := range samples {
		bytes := SampleTo24Bit(original)
		result := SampleFrom24Bit(bytes)
		// Mask to 24-bit for comparison
		expected := original & 0xFFFFFF
		if expected&0x800000 != 0 {
			expected |= ^0xFFFFFF
		}
		if result != expected {
			t.Errorf("round-trip failed: %d -> %v -> %d (expected %d)", original, bytes, result, expected)
		}
	}
}

func TestSampleFormatBitDepth(t *testing.T) {
	tests := []struct {
		format   SampleFormat
		expected int
	}{
		{SampleFormatNone, 0},
		{SampleFormatU8, 8},
		{SampleFormatS16, 16},
		{SampleFormatS24, 24},
		{SampleFormatS32, 32},
		{SampleFormatF32, 32},
		{SampleFormatF64, 64},
	}

	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			if got := tt.format.BitDepth(); got != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestFormatFrameSize(t *testing.T) {
	format := Format{Codec: "vorbis", SampleRate: 44100, BitDepth: 16, Channels: 2, Signed: true}
	if format.FrameSize() != 4 {
		t.Errorf("expected frame size 4, got %d", format.FrameSize())
	}
	if format.BytesPerSecond() != 176400 {
		t.Errorf("expected 176400 bytes/s, got %d", format.BytesPerSecond())
	}

	format.BitDepth = 24
	format.Channels = 6
	if format.FrameSize() != 18 {
		t.Errorf("expected frame size 18, got %d", format.FrameSize())
	}
}

func TestSamplesFromBytes16Bit(t *testing.T) {
	format := Format{SampleRate: 48000, BitDepth: 16, Channels: 2, Signed: true}

	// 0x0100 = 256, 0xFFFF = -1, trailing odd byte is dropped
	samples, err := SamplesFromBytes(format, []byte{0x00, 0x01, 0xFF, 0xFF, 0x7F})
	if err != nil {
		t.Fatalf("conversion failed: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(samples))
	}
	if samples[0] != 256<<8 {
		t.Errorf("expected %d, got %d", 256<<8, samples[0])
	}
	if samples[1] != -1<<8 {
		t.Errorf("expected %d, got %d", -1<<8, samples[1])
	}
}

func TestSamplesFromBytes24And32Bit(t *testing.T) {
	format := Format{SampleRate: 96000, BitDepth: 24, Channels: 1, Signed: true}
	samples, err := SamplesFromBytes(format, []byte{0x56, 0x34, 0x12})
	if err != nil {
		t.Fatalf("conversion failed: %v", err)
	}
	if samples[0] != 0x123456 {
		t.Errorf("expected %d, got %d", 0x123456, samples[0])
	}

	format.BitDepth = 32
	samples, err = SamplesFromBytes(format, []byte{0x00, 0x56, 0x34, 0x12})
	if err != nil {
		t.Fatalf("conversion failed: %v", err)
	}
	if samples[0] != 0x123456 {
		t.Errorf("expected %d, got %d", 0x123456, samples[0])
	}
}

func TestSamplesFromBytesRejectsUnsupported(t *testing.T) {
	if _, err := SamplesFromBytes(Format{BitDepth: 16, Signed: true, BigEndian: true}, []byte{0, 0}); err == nil {
		t.Error("expected error for big-endian input")
	}

	_, err := SamplesFromBytes(Format{BitDepth: 8, Signed: true}, []byte{0})
	if err == nil {
		t.Fatal("expected error for 8-bit input")
	}
	expectedError := "unsupported bit depth: 8 (supported: 16, 24, 32)"
	if err.Error() != expectedError {
		t.Errorf("expected error %q, got %q", expectedError, err.Error())
	}
}
