// ABOUTME: Tests for packets and sample blocks
// ABOUTME: Tests storage reuse, capacity limits and completion rules
package container

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPacketReuse(t *testing.T) {
	p := NewPacket(8)
	require.Equal(t, -1, p.StreamIndex)
	require.Equal(t, int64(-1), p.Granule)
	require.Zero(t, p.Size())

	src := []byte{1, 2, 3}
	p.SetData(src)
	src[0] = 9
	require.Equal(t, []byte{1, 2, 3}, p.Data, "SetData copies")

	p.StreamIndex = 2
	p.Granule = 480
	p.Reset()
	require.Equal(t, -1, p.StreamIndex)
	require.Equal(t, int64(-1), p.Granule)
	require.Zero(t, p.Size())
	require.Equal(t, 8, cap(p.Data))
}

func TestSampleBlockWriteLimit(t *testing.T) {
	b := NewSampleBlock(4, 2)
	require.Equal(t, 4, b.Cap())
	require.Equal(t, 2, b.Channels())

	require.Equal(t, 3, b.Write([]byte{1, 2, 3}))
	require.Equal(t, 1, b.Free())
	require.Equal(t, 1, b.Write([]byte{4, 5, 6}))
	require.Zero(t, b.Free())
	require.Equal(t, []byte{1, 2, 3, 4}, b.Bytes())
}

func TestSampleBlockCompletion(t *testing.T) {
	b := NewSampleBlock(4, 1)
	require.False(t, b.SetComplete(), "empty block cannot complete")
	require.False(t, b.Complete())

	b.Write([]byte{1})
	require.True(t, b.SetComplete())
	require.True(t, b.Complete())

	b.Reset(8, 2)
	require.False(t, b.Complete())
	require.Zero(t, b.Len())
	require.Equal(t, 8, b.Cap())

	b.Reset(-1, 2)
	require.Zero(t, b.Cap())
}

func TestMediaKindString(t *testing.T) {
	require.Equal(t, "audio", KindAudio.String())
	require.Equal(t, "video", KindVideo.String())
	require.Equal(t, "subtitle", KindSubtitle.String())
	require.Equal(t, "other", KindOther.String())
}
