// ABOUTME: Byte source resolution for local files and HTTP URLs
// ABOUTME: Streams remote bodies or downloads them into a local cache first
package source

import (
	"crypto/sha256"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Opener resolves a location to a byte source
type Opener struct {
	client   *http.Client
	cacheDir string
}

// New creates an opener. With a non-empty cacheDir remote sources are
// downloaded there first so the container sees a seekable file.
func New(cacheDir string) (*Opener, error) {
	if cacheDir != "" {
		if err := os.MkdirAll(cacheDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	return &Opener{
		client:   &http.Client{},
		cacheDir: cacheDir,
	}, nil
}

// IsRemote reports whether location is an http or https URL
func IsRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// Open returns the bytes at location. The caller owns the returned source.
func (o *Opener) Open(location string) (io.ReadCloser, error) {
	if location == "" {
		return nil, fmt.Errorf("no source given")
	}

	if !IsRemote(location) {
		f, err := os.Open(location)
		if err != nil {
			return nil, fmt.Errorf("failed to open source: %w", err)
		}
		return f, nil
	}

	if o.cacheDir != "" {
		path, err := o.Download(location)
		if err != nil {
			return nil, err
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open cached source: %w", err)
		}
		return f, nil
	}

	body, err := o.get(location)
	if err != nil {
		return nil, err
	}
	log.Printf("Streaming %s", location)
	return body, nil
}

// Download fetches url into the cache directory and returns the local path
func (o *Opener) Download(url string) (string, error) {
	if o.cacheDir == "" {
		return "", fmt.Errorf("no cache directory configured")
	}

	hash := sha256.Sum256([]byte(url))
	cachePath := filepath.Join(o.cacheDir, fmt.Sprintf("%x%s", hash[:8], getExtension(url)))

	if _, err := os.Stat(cachePath); err == nil {
		log.Printf("Source cache hit: %s", cachePath)
		return cachePath, nil
	}

	log.Printf("Downloading source: %s", url)
	body, err := o.get(url)
	if err != nil {
		return "", err
	}
	defer body.Close()

	// Write to a temp name so an interrupted download never looks cached
	tmp := cachePath + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("failed to create cache file: %w", err)
	}

	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("failed to save source: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to save source: %w", err)
	}
	if err := os.Rename(tmp, cachePath); err != nil {
		return "", fmt.Errorf("failed to save source: %w", err)
	}

	log.Printf("Source saved: %s", cachePath)
	return cachePath, nil
}

// Cleanup removes the cache directory
func (o *Opener) Cleanup() error {
	if o.cacheDir == "" {
		return nil
	}
	return os.RemoveAll(o.cacheDir)
}

func (o *Opener) get(url string) (io.ReadCloser, error) {
	resp, err := o.client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch source: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("source fetch failed: HTTP %d", resp.StatusCode)
	}

	return resp.Body, nil
}

// getExtension extracts the file extension from a URL, ignoring the query
func getExtension(url string) string {
	url = strings.Split(url, "?")[0]
	return filepath.Ext(url)
}
