// ABOUTME: Tests for the playback pump
// ABOUTME: Drives the player with a scripted container and a recording output
package player

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/Resonate-Protocol/resonate-decode/pkg/audio"
	"github.com/Resonate-Protocol/resonate-decode/pkg/container"
	"github.com/Resonate-Protocol/resonate-decode/pkg/container/containertest"
	"github.com/Resonate-Protocol/resonate-decode/pkg/stream"
)

type recordingOutput struct {
	format  audio.Format
	samples []int32
	writes  int
	openErr error
}

func (o *recordingOutput) Open(format audio.Format) error {
	o.format = format
	return o.openErr
}

func (o *recordingOutput) Write(samples []int32) error {
	o.writes++
	o.samples = append(o.samples, samples...)
	return nil
}

func (o *recordingOutput) Close() error { return nil }

// pcmPacket builds a 16-bit packet of the given sample values
func pcmPacket(values ...int16) []byte {
	b := make([]byte, 0, len(values)*2)
	for _, v := range values {
		b = binary.LittleEndian.AppendUint16(b, uint16(v))
	}
	return b
}

func openDecoder(t *testing.T, rate int, packets ...containertest.Packet) *stream.Decoder {
	t.Helper()
	coder := &containertest.Coder{Rate: rate, Chans: 2, Format: audio.SampleFormatS16}
	c := containertest.New([]containertest.Stream{
		{Kind: container.KindVideo, Codec: "theora"},
		{Kind: container.KindAudio, Codec: "vorbis", Coder: coder},
	}, packets...)

	d := stream.New(io.NopCloser(nil), stream.Config{Opener: c.Opener(), ID: t.Name()})
	if err := d.Open(); err != nil {
		t.Fatalf("failed to open decoder: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func TestRunPlaysAllBlocks(t *testing.T) {
	d := openDecoder(t, 48000,
		containertest.Packet{Stream: 1, Data: pcmPacket(1, 2, 3, 4)},
		containertest.Packet{Stream: 0, Data: []byte("video")},
		containertest.Packet{Stream: 1, Data: pcmPacket(5, 6)},
	)

	out := &recordingOutput{}
	p := New(d, out, Config{BufferSize: 64})
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if out.format.SampleRate != 48000 || out.format.Channels != 2 {
		t.Errorf("unexpected output format: %s", out.format)
	}
	want := []int32{1 << 8, 2 << 8, 3 << 8, 4 << 8, 5 << 8, 6 << 8}
	if len(out.samples) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(out.samples))
	}
	for i := range want {
		if out.samples[i] != want[i] {
			t.Errorf("sample %d: expected %d, got %d", i, want[i], out.samples[i])
		}
	}

	stats := p.Stats()
	if stats.Frames != 3 {
		t.Errorf("expected 3 frames, got %d", stats.Frames)
	}
	if stats.Decoder.Discarded != 1 {
		t.Errorf("expected 1 discarded packet, got %d", stats.Decoder.Discarded)
	}
	if stats.Rate != 48000 {
		t.Errorf("expected rate 48000, got %d", stats.Rate)
	}
}

func TestRunResamples(t *testing.T) {
	d := openDecoder(t, 24000,
		containertest.Packet{Stream: 1, Data: pcmPacket(0, 0, 100, 100, 200, 200)},
	)

	out := &recordingOutput{}
	p := New(d, out, Config{OutputRate: 48000})
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if out.format.SampleRate != 48000 {
		t.Errorf("expected output at 48000, got %.0f", out.format.SampleRate)
	}
	// Three input frames at double rate; the last one waits for more input
	if len(out.samples) != 8 {
		t.Fatalf("expected 4 output frames, got %d samples", len(out.samples))
	}
	if out.samples[2] != 50<<8 {
		t.Errorf("expected interpolated sample %d, got %d", 50<<8, out.samples[2])
	}
}

func TestRunCancelled(t *testing.T) {
	d := openDecoder(t, 48000, containertest.Packet{Stream: 1, Data: pcmPacket(1, 2)})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := &recordingOutput{}
	err := New(d, out, Config{}).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if out.writes != 0 {
		t.Errorf("expected no writes, got %d", out.writes)
	}
}

func TestRunOutputOpenError(t *testing.T) {
	d := openDecoder(t, 48000)

	out := &recordingOutput{openErr: errors.New("no device")}
	if err := New(d, out, Config{}).Run(context.Background()); err == nil {
		t.Fatal("expected error when output cannot open")
	}
}

func TestRunUnopenedDecoder(t *testing.T) {
	d := stream.New(io.NopCloser(nil), stream.Config{})
	if err := New(d, &recordingOutput{}, Config{}).Run(context.Background()); err == nil {
		t.Fatal("expected error for decoder without a format")
	}
}
