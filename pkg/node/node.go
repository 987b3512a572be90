// Package node encodes and decodes B-tree nodes, one per fixed-size block.
//
// Layout sizing. The node layout is three uint64 header fields plus
// MAX_KEYS keys, MAX_KEYS values, and MAX_KEYS+1 children, all uint64. With
// MAX_KEYS=19 that is 24 + 8*19 + 8*19 + 8*20 = 488 bytes, which would also
// fit a 512-byte block; this package nevertheless uses MAX_KEYS=9 (MaxKeys
// below):
//
//	bytesUsed(M) = 24 + 8*M (keys) + 8*M (values) + 8*(M+1) (children)
//	bytesUsed(9) = 24 + 72 + 72 + 80 = 248, comfortably under BLOCK_SIZE=512.
//
// Block layout (all integers big-endian):
//
//	[0:8)     block id
//	[8:16)    parent block id
//	[16:24)   num keys
//	[24:96)   keys[9]
//	[96:168)  values[9]
//	[168:248) children[10]
//	[248:512) zero padding
package node

import (
	"github.com/pkg/errors"

	"github.com/ceth-dev/btreeidx/pkg/block"
	"github.com/ceth-dev/btreeidx/pkg/btreeerr"
	"github.com/ceth-dev/btreeidx/pkg/endian"
)

const (
	// MaxKeys is the maximum number of keys a node may hold.
	MaxKeys = 9
	// MaxChildren is MaxKeys+1, the maximum number of children an internal
	// node may hold.
	MaxChildren = MaxKeys + 1
	// MinKeysNonRoot is ceil(MaxKeys/2). It is not enforced anywhere: a
	// split leaves MaxKeys/2 (4) keys in each half, one fewer than this.
	MinKeysNonRoot = (MaxKeys + 1) / 2

	keysOffset     = 24
	valuesOffset   = keysOffset + 8*MaxKeys
	childrenOffset = valuesOffset + 8*MaxKeys
	usedBytes      = childrenOffset + 8*MaxChildren
)

func init() {
	if usedBytes > block.Size {
		panic("node: layout does not fit in block.Size")
	}
}

// Node is the in-memory representation of one B-tree node.
type Node struct {
	BlockID       uint64
	ParentBlockID uint64
	NumKeys       uint64
	Keys          [MaxKeys]uint64
	Values        [MaxKeys]uint64
	Children      [MaxChildren]uint64
}

// IsLeaf reports whether the node has no children, i.e. Children[0] == 0.
func (n *Node) IsLeaf() bool {
	return n.Children[0] == 0
}

// Full reports whether the node already holds MaxKeys keys.
func (n *Node) Full() bool {
	return n.NumKeys == MaxKeys
}

// ID returns the node's own block id, satisfying cache.NodeLike.
func (n *Node) ID() uint64 {
	return n.BlockID
}

// Encode serializes n into a Size-byte block.
func (n *Node) Encode() []byte {
	buf := make([]byte, block.Size)
	endian.PutUint64(buf[0:8], n.BlockID)
	endian.PutUint64(buf[8:16], n.ParentBlockID)
	endian.PutUint64(buf[16:24], n.NumKeys)
	endian.PutUint64Slice(buf[keysOffset:valuesOffset], n.Keys[:])
	endian.PutUint64Slice(buf[valuesOffset:childrenOffset], n.Values[:])
	endian.PutUint64Slice(buf[childrenOffset:usedBytes], n.Children[:])
	return buf
}

// Decode parses a Node out of a Size-byte block.
func Decode(buf []byte) (Node, error) {
	if len(buf) != block.Size {
		return Node{}, errors.Wrapf(btreeerr.ErrIO, "node block has %d bytes, want %d", len(buf), block.Size)
	}

	var n Node
	n.BlockID = endian.Uint64(buf[0:8])
	n.ParentBlockID = endian.Uint64(buf[8:16])
	n.NumKeys = endian.Uint64(buf[16:24])
	endian.Uint64Slice(buf[keysOffset:valuesOffset], n.Keys[:])
	endian.Uint64Slice(buf[valuesOffset:childrenOffset], n.Values[:])
	endian.Uint64Slice(buf[childrenOffset:usedBytes], n.Children[:])

	if n.NumKeys > MaxKeys {
		return Node{}, errors.Wrapf(btreeerr.ErrIO, "node %d has num_keys=%d > MaxKeys=%d", n.BlockID, n.NumKeys, MaxKeys)
	}
	return n, nil
}
