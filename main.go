// ABOUTME: Entry point for the Resonate decode player
// ABOUTME: Parses CLI flags, opens a media file or URL, and plays its audio stream
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Resonate-Protocol/resonate-decode/internal/player"
	"github.com/Resonate-Protocol/resonate-decode/internal/source"
	"github.com/Resonate-Protocol/resonate-decode/internal/ui"
	"github.com/Resonate-Protocol/resonate-decode/internal/version"
	"github.com/Resonate-Protocol/resonate-decode/pkg/audio/output"
	"github.com/Resonate-Protocol/resonate-decode/pkg/stream"

	_ "github.com/Resonate-Protocol/resonate-decode/pkg/container/flac"
	_ "github.com/Resonate-Protocol/resonate-decode/pkg/container/mp3"
	_ "github.com/Resonate-Protocol/resonate-decode/pkg/container/ogg"
	_ "github.com/Resonate-Protocol/resonate-decode/pkg/container/wav"
)

var (
	outputRate = flag.Int("rate", 0, "Resample to this output rate in Hz (0 keeps the source rate)")
	volume     = flag.Int("volume", 100, "Initial volume (0-100)")
	logFile    = flag.String("log-file", "resonate-decode.log", "Log file path")
	noTUI      = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
	rawOut     = flag.String("raw", "", "Write s16le PCM to this file instead of the sound card (- for stdout)")
	cacheDir   = flag.String("cache", "", "Download remote sources into this directory before decoding")
	debug      = flag.Bool("debug", false, "Log every packet")
)

// sink is an output whose gain the TUI can drive
type sink interface {
	output.Output
	output.VolumeControl
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <file or URL>\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	location := flag.Arg(0)

	// Raw PCM on stdout cannot share the terminal with the TUI
	useTUI := !*noTUI && *rawOut != "-"

	// Set up logging
	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	switch {
	case useTUI:
		// TUI mode: log only to file
		log.SetOutput(f)
	case *rawOut == "-":
		log.SetOutput(io.MultiWriter(os.Stderr, f))
	default:
		// Streaming logs mode: log to both stdout and file
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	log.Printf("Starting %s: %s", version.String(), location)

	// TUI setup
	var tuiProg *tea.Program
	var volumeCtrl *ui.VolumeControl

	if useTUI {
		volumeCtrl = ui.NewVolumeControl()
		tuiProg, err = ui.Run(volumeCtrl, *volume)
		if err != nil {
			log.Fatalf("Failed to start TUI: %v", err)
		}
		go tuiProg.Run()
	}

	// Helper to update TUI
	updateTUI := func(msg ui.StatusMsg) {
		if tuiProg != nil {
			tuiProg.Send(msg)
		}
	}
	updateTUI(ui.StatusMsg{File: location})

	// fail reports err and, with a TUI, waits for the user to quit
	fail := func(format string, args ...any) {
		msg := fmt.Sprintf(format, args...)
		log.Print(msg)
		if tuiProg == nil {
			os.Exit(1)
		}
		updateTUI(ui.StatusMsg{State: "error", Err: msg})
		<-volumeCtrl.Quit
		tuiProg.Wait()
		os.Exit(1)
	}

	opener, err := source.New(*cacheDir)
	if err != nil {
		fail("Failed to prepare source: %v", err)
	}

	src, err := opener.Open(location)
	if err != nil {
		fail("Failed to open %s: %v", location, err)
	}

	dec := stream.New(src, stream.Config{Debug: *debug})
	defer func() {
		if err := dec.Close(); err != nil {
			log.Printf("Error closing decoder: %v", err)
		}
	}()

	if err := dec.Open(); err != nil {
		fail("Failed to open stream: %v", err)
	}

	format := dec.AudioFormat()
	streams := make([]string, 0, len(dec.Streams()))
	for _, info := range dec.Streams() {
		streams = append(streams, fmt.Sprintf("%s %s", info.Kind, info.Codec))
	}
	updateTUI(ui.StatusMsg{
		State:       "playing",
		Codec:       format.Codec,
		SampleRate:  int(format.SampleRate),
		Channels:    format.Channels,
		BitDepth:    format.BitDepth,
		OutputRate:  *outputRate,
		Streams:     streams,
		AudioStream: dec.AudioStream(),
	})

	out, err := newSink(*rawOut, *volume)
	if err != nil {
		fail("Failed to create output: %v", err)
	}
	defer func() {
		if err := out.Close(); err != nil {
			log.Printf("Error closing output: %v", err)
		}
	}()

	p := player.New(dec, out, player.Config{OutputRate: *outputRate})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- p.Run(ctx)
	}()

	// Start volume control handler if TUI is enabled
	if volumeCtrl != nil {
		go handleVolumeControl(ctx, out, volumeCtrl)
	}

	// Start stats update loop for TUI
	if tuiProg != nil {
		go statsUpdateLoop(ctx, p, updateTUI)
	}

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var quit <-chan ui.QuitMsg
	if volumeCtrl != nil {
		quit = volumeCtrl.Quit
	}

	select {
	case err := <-done:
		done = nil
		if err != nil {
			log.Printf("Playback failed: %v", err)
			updateTUI(ui.StatusMsg{State: "error", Err: err.Error()})
		} else {
			updateTUI(ui.StatusMsg{State: "finished"})
		}
		updateTUI(statsMsg(p))
		reportStats(p)

		// With a TUI the final screen stays up until the user quits
		if quit != nil {
			select {
			case <-quit:
			case <-sigChan:
			}
		}
	case <-quit:
		log.Printf("Received quit signal from TUI")
	case <-sigChan:
		log.Printf("Shutdown signal received")
	}

	cancel()
	if done != nil {
		<-done
		reportStats(p)
	}
	if tuiProg != nil {
		tuiProg.Quit()
		tuiProg.Wait()
	}

	log.Printf("Player stopped")
}

// newSink picks the raw writer or the sound card
func newSink(raw string, volume int) (sink, error) {
	switch raw {
	case "":
		return output.NewOto(volume), nil
	case "-":
		return output.NewRaw(os.Stdout, volume), nil
	default:
		f, err := os.Create(raw)
		if err != nil {
			return nil, err
		}
		return &fileSink{Raw: output.NewRaw(f, volume), f: f}, nil
	}
}

// fileSink closes the file behind a raw output
type fileSink struct {
	*output.Raw
	f *os.File
}

func (s *fileSink) Close() error {
	if err := s.Raw.Close(); err != nil {
		s.f.Close()
		return err
	}
	return s.f.Close()
}

// handleVolumeControl processes volume changes from TUI
func handleVolumeControl(ctx context.Context, out output.VolumeControl, volumeCtrl *ui.VolumeControl) {
	for {
		select {
		case vol := <-volumeCtrl.Changes:
			log.Printf("Volume change: %d%%, muted=%v", vol.Volume, vol.Muted)
			out.SetVolume(vol.Volume)
			out.SetMuted(vol.Muted)
		case <-ctx.Done():
			return
		}
	}
}

// statsUpdateLoop periodically updates TUI with playback statistics
func statsUpdateLoop(ctx context.Context, p *player.Player, updateTUI func(ui.StatusMsg)) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			updateTUI(statsMsg(p))
		case <-ctx.Done():
			return
		}
	}
}

func statsMsg(p *player.Player) ui.StatusMsg {
	stats := p.Stats()
	return ui.StatusMsg{
		Packets:   stats.Decoder.Packets,
		Discarded: stats.Decoder.Discarded,
		Blocks:    stats.Decoder.Blocks,
		Bytes:     stats.Decoder.Bytes,
		Frames:    stats.Frames,
	}
}

func reportStats(p *player.Player) {
	stats := p.Stats()
	log.Printf("Played %d frames at %dHz: %d packets (%d discarded), %d blocks, %d bytes",
		stats.Frames, stats.Rate, stats.Decoder.Packets, stats.Decoder.Discarded,
		stats.Decoder.Blocks, stats.Decoder.Bytes)
}
