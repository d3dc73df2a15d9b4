// ABOUTME: Bubbletea model for player TUI
// ABOUTME: Defines application state and update logic
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Resonate-Protocol/resonate-decode/internal/version"
)

// Model represents the TUI state
type Model struct {
	// Source
	file string

	// Stream
	codec       string
	sampleRate  int
	channels    int
	bitDepth    int
	outputRate  int
	streams     []string
	audioStream int

	// Playback
	state  string
	volume int
	muted  bool
	err    string

	// Stats
	packets   int64
	discarded int64
	blocks    int64
	bytes     int64
	frames    int64

	showDebug  bool
	volumeCtrl *VolumeControl

	// Dimensions
	width  int
	height int
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	s := ""
	s += m.renderHeader()
	s += m.renderStreamInfo()
	s += m.renderControls()
	s += m.renderStats()

	if m.showDebug {
		s += m.renderDebug()
	}

	s += m.renderHelp()

	return s
}

// renderHeader renders the file and playback state
func (m Model) renderHeader() string {
	status := m.state
	if m.err != "" {
		status = "error: " + m.err
	}

	return fmt.Sprintf(`┌─ %-50s ┐
│ File:   %-44s │
│ Status: %-44s │
├──────────────────────────────────────────────────────┤
`, version.String()+" ", truncate(m.file, 44), truncate(status, 44))
}

// renderStreamInfo renders the stream table and selected format
func (m Model) renderStreamInfo() string {
	if m.codec == "" {
		return "│ No stream                                            │\n"
	}

	s := "│ Streams:                                             │\n"
	for i, desc := range m.streams {
		marker := " "
		if i == m.audioStream {
			marker = "▶"
		}
		s += fmt.Sprintf("│ %s #%-2d %-46s │\n", marker, i, truncate(desc, 46))
	}

	s += "│                                                      │\n"
	s += fmt.Sprintf("│ Format: %-44s │\n", fmt.Sprintf("%s %dHz %s %d-bit",
		m.codec, m.sampleRate, channelName(m.channels), m.bitDepth))
	if m.outputRate != 0 && m.outputRate != m.sampleRate {
		s += fmt.Sprintf("│ Output: %-44s │\n", fmt.Sprintf("resampled to %dHz", m.outputRate))
	}

	return s
}

// renderControls renders volume and position
func (m Model) renderControls() string {
	muteIcon := ""
	if m.muted {
		muteIcon = " 🔇"
	}

	volumeBar := renderBar(m.volume, 100, 10)

	return fmt.Sprintf("│                                                      │\n"+
		"│ Volume: [%s] %d%%%s%-17s │\n"+
		"│ Played: %-44s │\n",
		volumeBar, m.volume, muteIcon, "",
		formatPosition(m.frames, m.playbackRate()))
}

// renderStats renders decode statistics
func (m Model) renderStats() string {
	return fmt.Sprintf(`├──────────────────────────────────────────────────────┤
│ Stats:  %-44s │
│                                                      │
`, fmt.Sprintf("Packets: %d  Dropped: %d  Blocks: %d", m.packets, m.discarded, m.blocks))
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return `│ ↑/↓:Volume  m:Mute  d:Debug  q:Quit                  │
└──────────────────────────────────────────────────────┘
`
}

// renderDebug renders debug information
func (m Model) renderDebug() string {
	return fmt.Sprintf(`│ DEBUG:                                               │
│   PCM bytes: %-39d │
│   Frames:    %-39d │
`, m.bytes, m.frames)
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if m.volumeCtrl != nil {
			select {
			case m.volumeCtrl.Quit <- QuitMsg{}:
			default:
			}
		}
		return m, tea.Quit
	case "up":
		if m.volume < 100 {
			m.volume = min(m.volume+5, 100)
			m.sendVolume()
		}
	case "down":
		if m.volume > 0 {
			m.volume = max(m.volume-5, 0)
			m.sendVolume()
		}
	case "m":
		m.muted = !m.muted
		m.sendVolume()
	case "d":
		m.showDebug = !m.showDebug
	}

	return m, nil
}

// sendVolume reports the volume state without blocking the UI
func (m Model) sendVolume() {
	if m.volumeCtrl == nil {
		return
	}
	select {
	case m.volumeCtrl.Changes <- VolumeChangeMsg{Volume: m.volume, Muted: m.muted}:
	default:
	}
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.File != "" {
		m.file = msg.File
	}
	if msg.State != "" {
		m.state = msg.State
	}
	if msg.Err != "" {
		m.err = msg.Err
	}
	if msg.Codec != "" {
		m.codec = msg.Codec
		m.sampleRate = msg.SampleRate
		m.channels = msg.Channels
		m.bitDepth = msg.BitDepth
		m.outputRate = msg.OutputRate
	}
	if msg.Streams != nil {
		m.streams = msg.Streams
		m.audioStream = msg.AudioStream
	}
	if msg.Volume != 0 {
		m.volume = msg.Volume
	}
	if msg.Packets != 0 {
		m.packets = msg.Packets
		m.discarded = msg.Discarded
		m.blocks = msg.Blocks
		m.bytes = msg.Bytes
		m.frames = msg.Frames
	}
}

func (m Model) playbackRate() int {
	if m.outputRate != 0 {
		return m.outputRate
	}
	return m.sampleRate
}

// StatusMsg updates TUI state
type StatusMsg struct {
	File        string
	State       string
	Err         string
	Codec       string
	SampleRate  int
	Channels    int
	BitDepth    int
	OutputRate  int
	Streams     []string
	AudioStream int
	Volume      int
	Packets     int64
	Discarded   int64
	Blocks      int64
	Bytes       int64
	Frames      int64
}

// VolumeChangeMsg reports a volume or mute change made in the TUI
type VolumeChangeMsg struct {
	Volume int
	Muted  bool
}

// QuitMsg signals that the user quit the TUI
type QuitMsg struct{}

// Utility functions
func renderBar(value, max, width int) string {
	filled := (value * width) / max
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

func channelName(channels int) string {
	switch channels {
	case 1:
		return "Mono"
	case 2:
		return "Stereo"
	default:
		return fmt.Sprintf("%dch", channels)
	}
}

// formatPosition renders a frame count as elapsed time
func formatPosition(frames int64, rate int) string {
	if rate <= 0 {
		return "0:00"
	}
	d := time.Duration(frames) * time.Second / time.Duration(rate)
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
