// ABOUTME: Audio output interface definition
// ABOUTME: Common interface for audio sinks plus shared software volume
package output

import (
	"log"
	"sync"

	"github.com/Resonate-Protocol/resonate-decode/pkg/audio"
)

// Output represents an audio sink. Samples are interleaved in 24-bit range.
type Output interface {
	// Open initializes the sink for the given sample rate and channel count
	Open(format audio.Format) error

	// Write outputs audio samples (blocks until written)
	Write(samples []int32) error

	// Close releases output resources
	Close() error
}

// VolumeControl is implemented by outputs with software volume
type VolumeControl interface {
	SetVolume(volume int)
	SetMuted(muted bool)
	Volume() int
	Muted() bool
}

// gain holds software volume state shared by the outputs
type gain struct {
	mu     sync.RWMutex
	volume int
	muted  bool
}

// SetVolume sets the volume (0-100)
func (g *gain) SetVolume(volume int) {
	volume = clampVolume(volume)
	g.mu.Lock()
	g.volume = volume
	g.mu.Unlock()
	log.Printf("Volume set to %d", volume)
}

// SetMuted sets mute state
func (g *gain) SetMuted(muted bool) {
	g.mu.Lock()
	g.muted = muted
	g.mu.Unlock()
	log.Printf("Muted: %v", muted)
}

// Volume returns current volume
func (g *gain) Volume() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.volume
}

// Muted returns mute state
func (g *gain) Muted() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.muted
}

// apply scales samples in place
func (g *gain) apply(samples []int32) {
	g.mu.RLock()
	multiplier := getVolumeMultiplier(g.volume, g.muted)
	g.mu.RUnlock()
	applyVolume(samples, multiplier)
}

func clampVolume(volume int) int {
	if volume < 0 {
		return 0
	}
	if volume > 100 {
		return 100
	}
	return volume
}

// applyVolume applies the multiplier with clipping protection
func applyVolume(samples []int32, multiplier float64) {
	if multiplier == 1.0 {
		return
	}
	for i, sample := range samples {
		scaled := int64(float64(sample) * multiplier)

		// Clamp to 24-bit range to prevent overflow
		if scaled > audio.Max24Bit {
			scaled = audio.Max24Bit
		} else if scaled < audio.Min24Bit {
			scaled = audio.Min24Bit
		}

		samples[i] = int32(scaled)
	}
}

// getVolumeMultiplier calculates volume multiplier
func getVolumeMultiplier(volume int, muted bool) float64 {
	if muted {
		return 0.0
	}
	return float64(volume) / 100.0
}
