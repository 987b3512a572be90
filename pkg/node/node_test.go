package node

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ceth-dev/btreeidx/pkg/block"
)

func TestIsLeafAndFull(t *testing.T) {
	var n Node
	require.True(t, n.IsLeaf())
	require.False(t, n.Full())

	n.Children[0] = 7
	require.False(t, n.IsLeaf())

	n.NumKeys = MaxKeys
	require.True(t, n.Full())
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	n := Node{
		BlockID:       5,
		ParentBlockID: 2,
		NumKeys:       3,
	}
	n.Keys[0], n.Keys[1], n.Keys[2] = 10, 20, 30
	n.Values[0], n.Values[1], n.Values[2] = 100, 200, 300
	n.Children[0] = 11
	n.Children[1] = 12
	n.Children[2] = 13
	n.Children[3] = 14

	decoded, err := Decode(n.Encode())
	require.NoError(t, err)
	require.Equal(t, n, decoded)
}

func TestEncodeProducesBlockSizedBuffer(t *testing.T) {
	var n Node
	require.Len(t, n.Encode(), block.Size)
}

func TestDecodeRejectsOversizedNumKeys(t *testing.T) {
	var n Node
	n.NumKeys = MaxKeys + 1
	_, err := Decode(n.Encode())
	require.Error(t, err)
}

func TestDecodeRejectsWrongLength(t *testing.T) {
	_, err := Decode(make([]byte, 10))
	require.Error(t, err)
}
