// ABOUTME: Streaming linear resampler for converting audio sample rates
// ABOUTME: Interpolates across chunk boundaries so decoded blocks can be fed one at a time
package resample

// Resampler performs linear interpolation to convert between sample rates.
// The last frame of every chunk is kept so the next chunk continues the
// same curve.
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	ratio      float64
	position   float64
	lastSample []int32 // one sample per channel
	hasLast    bool
}

// New creates a new resampler
func New(inputRate, outputRate, channels int) *Resampler {
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		channels:   channels,
		ratio:      float64(inputRate) / float64(outputRate),
		lastSample: make([]int32, channels),
	}
}

// frame returns sample ch of frame i of the chunk with the carried frame in front
func (r *Resampler) frame(input []int32, i, ch int) int32 {
	if r.hasLast {
		if i == 0 {
			return r.lastSample[ch]
		}
		i--
	}
	return input[i*r.channels+ch]
}

// Resample converts interleaved input at inputRate into output at
// outputRate and returns the number of samples written. output should hold
// at least OutputSamplesNeeded(len(input)) plus one frame.
func (r *Resampler) Resample(input []int32, output []int32) int {
	inputFrames := len(input) / r.channels
	if inputFrames == 0 {
		return 0
	}

	total := inputFrames
	if r.hasLast {
		total++
	}
	outputFrames := len(output) / r.channels

	outIdx := 0
	for outIdx < outputFrames {
		inputIdx := int(r.position)
		if inputIdx+1 >= total {
			break
		}

		frac := r.position - float64(inputIdx)
		for ch := 0; ch < r.channels; ch++ {
			s1 := r.frame(input, inputIdx, ch)
			s2 := r.frame(input, inputIdx+1, ch)
			output[outIdx*r.channels+ch] = int32(float64(s1)*(1.0-frac) + float64(s2)*frac)
		}

		outIdx++
		r.position += r.ratio
	}

	// The last input frame becomes frame 0 of the next chunk
	r.position -= float64(total - 1)
	if r.position < 0 {
		r.position = 0
	}
	copy(r.lastSample, input[(inputFrames-1)*r.channels:inputFrames*r.channels])
	r.hasLast = true

	return outIdx * r.channels
}

// Reset resets the resampler state
func (r *Resampler) Reset() {
	r.position = 0.0
	r.hasLast = false
	for i := range r.lastSample {
		r.lastSample[i] = 0
	}
}

// OutputSamplesNeeded calculates how many output samples will be produced from input samples
func (r *Resampler) OutputSamplesNeeded(inputSamples int) int {
	inputFrames := inputSamples / r.channels
	outputFrames := int(float64(inputFrames) / r.ratio)
	return outputFrames * r.channels
}

// InputSamplesNeeded calculates how many input samples are needed to produce output samples
func (r *Resampler) InputSamplesNeeded(outputSamples int) int {
	outputFrames := outputSamples / r.channels
	inputFrames := int(float64(outputFrames) * r.ratio)
	return inputFrames * r.channels
}

// Ratio returns the input/output rate ratio
func (r *Resampler) Ratio() float64 {
	return r.ratio
}
