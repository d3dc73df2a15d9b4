// ABOUTME: Stream decoder package: container in, PCM out
// ABOUTME: Pull-based Read(buffer, offset, length) over any registered container format
// Package stream turns an encoded audio container into raw PCM.
//
// A Decoder owns a byte source, the container session opened over it and
// the coder of the first audio stream found. Callers drive it with a strict
// Open → Read* → Close sequence:
//
//	d := stream.New(file, stream.Config{})
//	defer d.Close()
//	if err := d.Open(); err != nil {
//	    return err
//	}
//
//	format := d.AudioFormat()
//	buf := make([]byte, 64*1024)
//	for {
//	    n, err := d.Read(buf, 0, len(buf))
//	    if errors.Is(err, io.EOF) {
//	        break
//	    }
//	    if err != nil {
//	        return err
//	    }
//	    play(format, buf[:n])
//	}
//
// Each Read returns exactly one decoded sample block. Packets of other
// streams (video, subtitles, further audio streams) are dropped.
package stream
