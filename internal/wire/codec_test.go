package wire

import (
	"testing"

	"github.com/gopacket/gopacket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameSerializeDecodeRoundTrip(t *testing.T) {
	orig := &Frame{
		Segments: []Segment{
			{Command: CommandLRD, Index: 1, Address: 0x1000, Payload: []byte{1, 2, 3, 4}},
			{Command: CommandLWR, Index: 2, Address: 0x1004, Payload: []byte{5, 6}},
		},
	}

	buf := gopacket.NewSerializeBuffer()
	require.NoError(t, orig.SerializeTo(buf, gopacket.SerializeOptions{}))

	decoded := &Frame{}
	require.NoError(t, decoded.DecodeFromBytes(buf.Bytes(), gopacket.NilDecodeFeedback))

	require.Len(t, decoded.Segments, 2)
	assert.Equal(t, uint32(0x1000), decoded.Segments[0].Address)
	assert.Equal(t, []byte{1, 2, 3, 4}, decoded.Segments[0].Payload)
	assert.Equal(t, uint32(0x1004), decoded.Segments[1].Address)
	assert.Equal(t, []byte{5, 6}, decoded.Segments[1].Payload)
}

func TestFrameDecodeTruncated(t *testing.T) {
	f := &Frame{}
	err := f.DecodeFromBytes([]byte{1, 2, 3}, gopacket.NilDecodeFeedback)
	assert.Error(t, err)
}
