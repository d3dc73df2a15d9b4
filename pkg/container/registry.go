// ABOUTME: Container format registry and magic-number probing
// ABOUTME: Backends register themselves; Open picks one by sniffing the byte source
package container

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sync"
)

// ErrUnknownFormat is returned by Open when no registered format matches the byte source
var ErrUnknownFormat = errors.New("unknown container format")

// probeSize is the number of leading bytes inspected when probing
const probeSize = 64

// Format registers a container backend
type Format struct {
	Name string

	// Magic lists byte prefixes that identify the format. A '?' matches any byte.
	Magic []string

	Open Opener
}

var (
	formatsMu sync.RWMutex
	formats   []Format
)

// Register adds a container format. It is usually called from a backend's init.
func Register(f Format) {
	formatsMu.Lock()
	defer formatsMu.Unlock()
	formats = append(formats, f)
}

// Formats returns the names of all registered formats
func Formats() []string {
	formatsMu.RLock()
	defer formatsMu.RUnlock()

	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = f.Name
	}
	return names
}

// Open sniffs r and opens it with the first registered format whose magic
// matches. Seekable sources are rewound and handed over as is so backends
// can seek; anything else is wrapped in a bufio.Reader.
func Open(r io.Reader) (Container, error) {
	head, src, err := probe(r)
	if err != nil {
		return nil, fmt.Errorf("failed to probe container: %w", err)
	}

	f, ok := match(head)
	if !ok {
		return nil, ErrUnknownFormat
	}

	c, err := f.Open(src)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s container: %w", f.Name, err)
	}
	return c, nil
}

func probe(r io.Reader) ([]byte, io.Reader, error) {
	if rs, ok := r.(io.ReadSeeker); ok {
		start, err := rs.Seek(0, io.SeekCurrent)
		if err == nil {
			head := make([]byte, probeSize)
			n, err := io.ReadFull(rs, head)
			if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, nil, err
			}
			if _, err := rs.Seek(start, io.SeekStart); err != nil {
				return nil, nil, err
			}
			return head[:n], rs, nil
		}
	}

	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	head, err := br.Peek(probeSize)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, nil, err
	}
	return head, br, nil
}

func match(head []byte) (Format, bool) {
	formatsMu.RLock()
	defer formatsMu.RUnlock()

	for _, f := range formats {
		for _, magic := range f.Magic {
			if matchMagic(magic, head) {
				return f, true
			}
		}
	}
	return Format{}, false
}

func matchMagic(magic string, head []byte) bool {
	if len(head) < len(magic) {
		return false
	}
	for i := 0; i < len(magic); i++ {
		if magic[i] != '?' && magic[i] != head[i] {
			return false
		}
	}
	return true
}
