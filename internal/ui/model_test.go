// ABOUTME: Tests for TUI model and state management
// ABOUTME: Tests status updates, key handling, and rendering helpers
package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestNewModel(t *testing.T) {
	model := NewModel(nil, 80) // VolumeControl is optional for testing

	if model.volume != 80 {
		t.Errorf("expected volume 80, got %d", model.volume)
	}

	if model.state != "opening" {
		t.Errorf("expected state 'opening', got '%s'", model.state)
	}

	if model.audioStream != -1 {
		t.Errorf("expected no selected stream, got %d", model.audioStream)
	}

	if model.muted {
		t.Error("expected muted to be false initially")
	}
}

func TestStatusMsgFormat(t *testing.T) {
	model := NewModel(nil, 100)

	model.applyStatus(StatusMsg{
		File:        "song.ogg",
		State:       "playing",
		Codec:       "vorbis",
		SampleRate:  44100,
		Channels:    2,
		BitDepth:    16,
		OutputRate:  48000,
		Streams:     []string{"video theora", "audio vorbis"},
		AudioStream: 1,
	})

	if model.file != "song.ogg" {
		t.Errorf("expected file 'song.ogg', got '%s'", model.file)
	}
	if model.codec != "vorbis" || model.sampleRate != 44100 || model.channels != 2 {
		t.Errorf("unexpected format: %s %d %d", model.codec, model.sampleRate, model.channels)
	}
	if model.audioStream != 1 || len(model.streams) != 2 {
		t.Errorf("unexpected streams: %v selected %d", model.streams, model.audioStream)
	}
	if model.playbackRate() != 48000 {
		t.Errorf("expected playback rate 48000, got %d", model.playbackRate())
	}
}

func TestStatusMsgPartialUpdate(t *testing.T) {
	model := NewModel(nil, 100)
	model.applyStatus(StatusMsg{File: "a.wav", Codec: "pcm", SampleRate: 48000, Channels: 1, BitDepth: 24})

	// Stats-only update leaves the format alone
	model.applyStatus(StatusMsg{Packets: 10, Discarded: 2, Blocks: 8, Bytes: 4096, Frames: 1365})

	if model.codec != "pcm" || model.file != "a.wav" {
		t.Error("expected format to survive a stats update")
	}
	if model.packets != 10 || model.discarded != 2 || model.blocks != 8 {
		t.Errorf("unexpected stats: %d %d %d", model.packets, model.discarded, model.blocks)
	}
	if model.frames != 1365 {
		t.Errorf("expected 1365 frames, got %d", model.frames)
	}
}

func TestStatusMsgError(t *testing.T) {
	model := NewModel(nil, 100)
	model.width = 80

	model.applyStatus(StatusMsg{State: "error", Err: "no audio stream"})

	view := model.View()
	if !strings.Contains(view, "error: no audio stream") {
		t.Errorf("expected error in view, got:\n%s", view)
	}
}

func TestVolumeKeys(t *testing.T) {
	volCtrl := NewVolumeControl()
	model := NewModel(volCtrl, 50)

	updated, _ := model.Update(tea.KeyMsg{Type: tea.KeyUp})
	model = updated.(Model)
	if model.volume != 55 {
		t.Errorf("expected volume 55, got %d", model.volume)
	}

	select {
	case change := <-volCtrl.Changes:
		if change.Volume != 55 || change.Muted {
			t.Errorf("unexpected volume change: %+v", change)
		}
	default:
		t.Fatal("expected a volume change")
	}

	updated, _ = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("m")})
	model = updated.(Model)
	change := <-volCtrl.Changes
	if !change.Muted {
		t.Error("expected mute to be sent")
	}
}

func TestVolumeClamped(t *testing.T) {
	model := NewModel(nil, 98)

	updated, _ := model.Update(tea.KeyMsg{Type: tea.KeyUp})
	if v := updated.(Model).volume; v != 100 {
		t.Errorf("expected volume clamped to 100, got %d", v)
	}

	model = NewModel(nil, 0)
	updated, _ = model.Update(tea.KeyMsg{Type: tea.KeyDown})
	if v := updated.(Model).volume; v != 0 {
		t.Errorf("expected volume to stay 0, got %d", v)
	}
}

func TestQuitKey(t *testing.T) {
	volCtrl := NewVolumeControl()
	model := NewModel(volCtrl, 100)

	_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected quit command")
	}

	select {
	case <-volCtrl.Quit:
	default:
		t.Error("expected quit to be signalled")
	}

	// A second quit must not block on the full channel
	model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
}

func TestViewBeforeResize(t *testing.T) {
	model := NewModel(nil, 100)
	if model.View() != "Loading..." {
		t.Errorf("expected loading view, got %q", model.View())
	}
}

func TestRenderBar(t *testing.T) {
	if got := renderBar(50, 100, 10); got != "█████░░░░░" {
		t.Errorf("unexpected bar: %s", got)
	}
	if got := renderBar(100, 100, 4); got != "████" {
		t.Errorf("unexpected bar: %s", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("expected unchanged string, got %s", got)
	}
	if got := truncate("a-very-long-file-name.flac", 10); got != "a-very-..." {
		t.Errorf("unexpected truncation: %s", got)
	}
}

func TestFormatPosition(t *testing.T) {
	tests := []struct {
		frames int64
		rate   int
		want   string
	}{
		{0, 48000, "0:00"},
		{48000 * 75, 48000, "1:15"},
		{1000, 0, "0:00"},
	}

	for _, tt := range tests {
		if got := formatPosition(tt.frames, tt.rate); got != tt.want {
			t.Errorf("formatPosition(%d, %d) = %s, want %s", tt.frames, tt.rate, got, tt.want)
		}
	}
}
