// ABOUTME: Tests for PCM decoder
// ABOUTME: Tests validation, frame-aligned block filling and flushing
package decode

import (
	"bytes"
	"testing"

	"github.com/Resonate-Protocol/resonate-decode/pkg/audio"
	"github.com/Resonate-Protocol/resonate-decode/pkg/container"
)

func newOpenPCM(t *testing.T, bitDepth, channels int) *PCMDecoder {
	t.Helper()
	decoder, err := NewPCM(audio.Format{
		Codec:      "pcm",
		SampleRate: 48000,
		Channels:   channels,
		BitDepth:   bitDepth,
	})
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}
	if err := decoder.Open(); err != nil {
		t.Fatalf("failed to open decoder: %v", err)
	}
	return decoder
}

func TestNewPCM(t *testing.T) {
	tests := []struct {
		bitDepth int
		want     audio.SampleFormat
	}{
		{16, audio.SampleFormatS16},
		{24, audio.SampleFormatS24},
		{32, audio.SampleFormatS32},
	}

	for _, tt := range tests {
		decoder := newOpenPCM(t, tt.bitDepth, 2)
		if decoder.SampleFormat() != tt.want {
			t.Errorf("bit depth %d: expected %v, got %v", tt.bitDepth, tt.want, decoder.SampleFormat())
		}
		if decoder.SampleRate() != 48000 {
			t.Errorf("expected sample rate 48000, got %d", decoder.SampleRate())
		}
		if decoder.Channels() != 2 {
			t.Errorf("expected 2 channels, got %d", decoder.Channels())
		}
	}
}

func TestPCMDecode16Bit(t *testing.T) {
	decoder := newOpenPCM(t, 16, 2)

	pkt := container.NewPacket(16)
	pkt.SetData([]byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07})
	block := container.NewSampleBlock(64, 2)

	consumed, err := decoder.Decode(block, pkt, 0)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if consumed != 8 {
		t.Errorf("expected 8 bytes consumed, got %d", consumed)
	}
	if !block.Complete() {
		t.Fatal("expected block to be complete")
	}
	if !bytes.Equal(block.Bytes(), pkt.Data) {
		t.Errorf("expected passthrough %v, got %v", pkt.Data, block.Bytes())
	}
}

func TestPCMDecode_Offset(t *testing.T) {
	decoder := newOpenPCM(t, 16, 1)

	pkt := container.NewPacket(8)
	pkt.SetData([]byte{0xAA, 0xBB, 0x01, 0x02, 0x03, 0x04})
	block := container.NewSampleBlock(64, 1)

	consumed, err := decoder.Decode(block, pkt, 2)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if consumed != 4 {
		t.Errorf("expected 4 bytes consumed, got %d", consumed)
	}
	if !bytes.Equal(block.Bytes(), []byte{0x01, 0x02, 0x03, 0x04}) {
		t.Errorf("unexpected block contents: %v", block.Bytes())
	}
}

func TestPCMDecode24BitPartialFrame(t *testing.T) {
	decoder := newOpenPCM(t, 24, 2)

	// 6-byte frames; 8 bytes leaves 2 queued
	pkt := container.NewPacket(16)
	pkt.SetData([]byte{1, 2, 3, 4, 5, 6, 7, 8})
	block := container.NewSampleBlock(64, 2)

	if _, err := decoder.Decode(block, pkt, 0); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if block.Len() != 6 {
		t.Fatalf("expected one 6-byte frame, got %d bytes", block.Len())
	}
	if decoder.queue.len() != 2 {
		t.Fatalf("expected 2 queued bytes, got %d", decoder.queue.len())
	}

	// The next packet completes the queued frame
	pkt.SetData([]byte{9, 10, 11, 12})
	block.Reset(64, 2)
	if _, err := decoder.Decode(block, pkt, 0); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !bytes.Equal(block.Bytes(), []byte{7, 8, 9, 10, 11, 12}) {
		t.Errorf("unexpected block contents: %v", block.Bytes())
	}
}

func TestPCMFlush(t *testing.T) {
	decoder := newOpenPCM(t, 16, 2)

	pkt := container.NewPacket(16)
	pkt.SetData(make([]byte, 12))
	block := container.NewSampleBlock(8, 2)

	if _, err := decoder.Decode(block, pkt, 0); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if block.Len() != 8 {
		t.Fatalf("expected 8 bytes in block, got %d", block.Len())
	}
	if decoder.Buffered() != 4 {
		t.Errorf("expected 4 bytes held back, got %d", decoder.Buffered())
	}

	block.Reset(8, 2)
	if err := decoder.Flush(block); err != nil {
		t.Fatalf("flush failed: %v", err)
	}
	if decoder.Buffered() != 0 {
		t.Errorf("expected nothing held after flush, got %d", decoder.Buffered())
	}
	if !block.Complete() || block.Len() != 4 {
		t.Errorf("expected flush to complete 4 bytes, got %d (complete=%v)", block.Len(), block.Complete())
	}

	block.Reset(8, 2)
	if err := decoder.Flush(block); err != nil {
		t.Fatalf("second flush failed: %v", err)
	}
	if block.Complete() {
		t.Error("expected empty flush to leave block incomplete")
	}
}

func TestPCMDecode_BlockSmallerThanFrame(t *testing.T) {
	decoder := newOpenPCM(t, 32, 2)

	pkt := container.NewPacket(8)
	pkt.SetData(make([]byte, 8))
	block := container.NewSampleBlock(4, 2)

	if _, err := decoder.Decode(block, pkt, 0); err == nil {
		t.Fatal("expected error for block smaller than one frame")
	}
}

func TestPCMDecode_NotOpen(t *testing.T) {
	decoder, err := NewPCM(audio.Format{Codec: "pcm", SampleRate: 48000, Channels: 2, BitDepth: 16})
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	pkt := container.NewPacket(4)
	pkt.SetData([]byte{0, 0, 0, 0})
	if _, err := decoder.Decode(container.NewSampleBlock(16, 2), pkt, 0); err == nil {
		t.Fatal("expected error decoding before Open")
	}
}

func TestNewPCM_InvalidCodec(t *testing.T) {
	format := audio.Format{
		Codec:      "opus",
		SampleRate: 48000,
		Channels:   2,
		BitDepth:   16,
	}

	decoder, err := NewPCM(format)
	if err == nil {
		t.Fatal("expected error for invalid codec, got nil")
	}

	if decoder != nil {
		t.Fatal("expected decoder to be nil for invalid codec")
	}

	expectedError := "invalid codec for PCM decoder: opus"
	if err.Error() != expectedError {
		t.Errorf("expected error %q, got %q", expectedError, err.Error())
	}
}

func TestNewPCM_UnsupportedBitDepth(t *testing.T) {
	format := audio.Format{
		Codec:      "pcm",
		SampleRate: 48000,
		Channels:   2,
		BitDepth:   12,
	}

	decoder, err := NewPCM(format)
	if err == nil {
		t.Fatal("expected error for unsupported bit depth, got nil")
	}

	if decoder != nil {
		t.Fatal("expected decoder to be nil for unsupported bit depth")
	}

	expectedError := "unsupported bit depth: 12 (supported: 16, 24, 32)"
	if err.Error() != expectedError {
		t.Errorf("expected error %q, got %q", expectedError, err.Error())
	}
}

func TestNewPCM_InvalidChannels(t *testing.T) {
	_, err := NewPCM(audio.Format{Codec: "pcm", SampleRate: 48000, Channels: 0, BitDepth: 16})
	if err == nil {
		t.Fatal("expected error for zero channels")
	}
}

func TestPCMDecode_EmptyInput(t *testing.T) {
	decoder := newOpenPCM(t, 16, 2)

	pkt := container.NewPacket(0)
	block := container.NewSampleBlock(16, 2)

	consumed, err := decoder.Decode(block, pkt, 0)
	if err != nil {
		t.Fatalf("decode failed with empty input: %v", err)
	}
	if consumed != 0 {
		t.Errorf("expected 0 bytes consumed, got %d", consumed)
	}
	if block.Complete() {
		t.Error("expected block to stay incomplete for empty input")
	}
}

func TestPCMClose(t *testing.T) {
	decoder := newOpenPCM(t, 16, 2)

	pkt := container.NewPacket(4)
	pkt.SetData([]byte{1, 2})
	if _, err := decoder.Decode(container.NewSampleBlock(16, 2), pkt, 0); err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if err := decoder.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if decoder.queue.len() != 0 {
		t.Errorf("expected queue to be empty after close, got %d bytes", decoder.queue.len())
	}
}

func TestFloatToInt16(t *testing.T) {
	tests := []struct {
		in   float32
		want int16
	}{
		{0, 0},
		{1, 32767},
		{-1, -32767},
		{2, 32767},
		{-2, -32768},
		{0.5, 16383},
	}

	for _, tt := range tests {
		if got := floatToInt16(tt.in); got != tt.want {
			t.Errorf("floatToInt16(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
