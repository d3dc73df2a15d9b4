// ABOUTME: Container probe and decode check tool
// ABOUTME: Lists the streams in a media file, decodes the audio stream to the end, and reports totals
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/Resonate-Protocol/resonate-decode/internal/source"
	"github.com/Resonate-Protocol/resonate-decode/internal/version"
	"github.com/Resonate-Protocol/resonate-decode/pkg/audio"
	"github.com/Resonate-Protocol/resonate-decode/pkg/container"
	"github.com/Resonate-Protocol/resonate-decode/pkg/stream"

	_ "github.com/Resonate-Protocol/resonate-decode/pkg/container/flac"
	_ "github.com/Resonate-Protocol/resonate-decode/pkg/container/mp3"
	_ "github.com/Resonate-Protocol/resonate-decode/pkg/container/ogg"
	_ "github.com/Resonate-Protocol/resonate-decode/pkg/container/wav"
)

var (
	bufferSize = flag.Int("buffer", 16*1024, "Read length in bytes")
	wavOut     = flag.String("wav", "", "Write the decoded audio to this WAV file")
	cacheDir   = flag.String("cache", "", "Download remote sources into this directory first")
	listOnly   = flag.Bool("list", false, "List registered container formats and exit")
	debug      = flag.Bool("debug", false, "Log every packet")
	verbose    = flag.Bool("v", false, "Log to stderr")
)

func main() {
	flag.Parse()

	if !*verbose {
		log.SetOutput(io.Discard)
	}

	if *listOnly {
		for _, name := range container.Formats() {
			fmt.Println(name)
		}
		return
	}

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: resonate-probe [flags] <file or URL>\n")
		flag.PrintDefaults()
		os.Exit(2)
	}

	if err := probe(flag.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func probe(location string) error {
	opener, err := source.New(*cacheDir)
	if err != nil {
		return err
	}
	src, err := opener.Open(location)
	if err != nil {
		return err
	}

	dec := stream.New(src, stream.Config{Debug: *debug})
	defer dec.Close()

	fmt.Printf("%s\n%s\n\n", version.String(), location)

	if err := dec.Open(); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tKIND\tCODEC\tHEADER\t")
	for _, info := range dec.Streams() {
		marker := ""
		if info.Index == dec.AudioStream() {
			marker = " *"
		}
		fmt.Fprintf(tw, "%d%s\t%s\t%s\t%d bytes\t\n", info.Index, marker, info.Kind, info.Codec, len(info.Header))
	}
	tw.Flush()

	format := dec.AudioFormat()
	fmt.Printf("\nAudio stream %d: %s\n", dec.AudioStream(), format)
	if n := dec.MaxPacketSize(); n > 0 {
		fmt.Printf("Max packet: %d bytes\n", n)
	}

	var sinkFn func([]byte) error
	if *wavOut != "" {
		w, err := newWAVWriter(*wavOut, format)
		if err != nil {
			return err
		}
		defer func() {
			if err := w.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "error finishing %s: %v\n", *wavOut, err)
			}
		}()
		sinkFn = w.Write
	}

	start := time.Now()
	size := max(*bufferSize, dec.MaxPacketSize())
	buf := make([]byte, size)
	var total int64
	for {
		n, err := dec.Read(buf, 0, size)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		total += int64(n)
		if sinkFn != nil {
			if err := sinkFn(buf[:n]); err != nil {
				return err
			}
		}
	}

	stats := dec.Stats()
	frames := total / int64(format.FrameSize())
	duration := time.Duration(float64(frames) / format.SampleRate * float64(time.Second))
	fmt.Printf("\nDecoded %d bytes (%d frames, %s) in %s\n",
		total, frames, duration.Round(time.Millisecond), time.Since(start).Round(time.Millisecond))
	fmt.Printf("Packets: %d  Discarded: %d  Decode steps: %d  Blocks: %d\n",
		stats.Packets, stats.Discarded, stats.DecodeSteps, stats.Blocks)

	return nil
}

// wavWriter re-encodes decoded blocks into a WAV file
type wavWriter struct {
	f      *os.File
	enc    *wav.Encoder
	format audio.Format
	depth  int
	buf    *goaudio.IntBuffer
}

// newWAVWriter writes 16-bit sources as 16-bit and everything wider as 24-bit
func newWAVWriter(path string, format audio.Format) (*wavWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	depth := 24
	if format.BitDepth == 16 {
		depth = 16
	}

	return &wavWriter{
		f:      f,
		enc:    wav.NewEncoder(f, int(format.SampleRate), depth, format.Channels, 1),
		format: format,
		depth:  depth,
		buf: &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: format.Channels, SampleRate: int(format.SampleRate)},
			SourceBitDepth: depth,
		},
	}, nil
}

func (w *wavWriter) Write(block []byte) error {
	samples, err := audio.SamplesFromBytes(w.format, block)
	if err != nil {
		return err
	}

	data := w.buf.Data[:0]
	for _, s := range samples {
		if w.depth == 16 {
			s = int32(audio.SampleToInt16(s))
		}
		data = append(data, int(s))
	}
	w.buf.Data = data

	return w.enc.Write(w.buf)
}

func (w *wavWriter) Close() error {
	if err := w.enc.Close(); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}
