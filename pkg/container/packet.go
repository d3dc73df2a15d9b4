// ABOUTME: Reusable packet and sample block types
// ABOUTME: Packets carry demuxed data, sample blocks carry decoded PCM
package container

// Packet is one demuxed chunk of still-encoded data. A single Packet is
// reused across reads, so Data is only valid until the next ReadPacket.
type Packet struct {
	StreamIndex int
	Data        []byte
	Granule     int64 // Container timestamp of the last sample, -1 if unknown
}

// NewPacket creates an empty packet whose storage can hold capacity bytes without growing
func NewPacket(capacity int) *Packet {
	return &Packet{
		StreamIndex: -1,
		Data:        make([]byte, 0, capacity),
		Granule:     -1,
	}
}

// Size returns the number of bytes in the packet
func (p *Packet) Size() int {
	return len(p.Data)
}

// SetData copies data into the packet's reusable storage
func (p *Packet) SetData(data []byte) {
	p.Data = append(p.Data[:0], data...)
}

// Reset clears the packet for reuse
func (p *Packet) Reset() {
	p.StreamIndex = -1
	p.Data = p.Data[:0]
	p.Granule = -1
}

// SampleBlock collects decoded PCM bytes up to a fixed capacity. It becomes
// complete when the coder says so and it holds at least one byte.
type SampleBlock struct {
	data     []byte
	limit    int
	channels int
	complete bool
}

// NewSampleBlock creates a block holding up to size bytes of PCM for the given channel count
func NewSampleBlock(size, channels int) *SampleBlock {
	b := &SampleBlock{}
	b.Reset(size, channels)
	return b
}

// Reset empties the block and sets a new capacity, keeping its storage
func (b *SampleBlock) Reset(size, channels int) {
	if size < 0 {
		size = 0
	}
	b.data = b.data[:0]
	b.limit = size
	b.channels = channels
	b.complete = false
}

// Write appends as much of p as fits and returns the number of bytes taken
func (b *SampleBlock) Write(p []byte) int {
	n := min(len(p), b.Free())
	b.data = append(b.data, p[:n]...)
	return n
}

// Free returns the remaining capacity in bytes
func (b *SampleBlock) Free() int {
	return b.limit - len(b.data)
}

// Len returns the number of PCM bytes held
func (b *SampleBlock) Len() int {
	return len(b.data)
}

// Cap returns the block capacity in bytes
func (b *SampleBlock) Cap() int {
	return b.limit
}

// Channels returns the channel count the block was sized for
func (b *SampleBlock) Channels() int {
	return b.channels
}

// Bytes returns the PCM payload
func (b *SampleBlock) Bytes() []byte {
	return b.data
}

// SetComplete marks the block complete. An empty block cannot be completed.
func (b *SampleBlock) SetComplete() bool {
	if len(b.data) == 0 {
		return false
	}
	b.complete = true
	return true
}

// Complete reports whether the block holds a full set of samples
func (b *SampleBlock) Complete() bool {
	return b.complete
}
