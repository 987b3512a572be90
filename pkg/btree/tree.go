// Package btree implements the on-disk B-tree engine: search, duplicate
// checking, proactive-split insertion, structural validation, and pre-order
// traversal. It is deliberately storage-agnostic about everything above the
// block layer — it reads and writes nodes through a block.Store and a
// cache.Cache, and mutates a shared *header.Header in place, persisting it
// to block 0 on every allocation (conservative but simple, matching the
// reference design).
package btree

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/ceth-dev/btreeidx/pkg/block"
	"github.com/ceth-dev/btreeidx/pkg/btreeerr"
	"github.com/ceth-dev/btreeidx/pkg/cache"
	"github.com/ceth-dev/btreeidx/pkg/header"
	"github.com/ceth-dev/btreeidx/pkg/node"
)

// BTree is the tree engine for one open index. It holds no file-level state
// of its own beyond the header it shares with its owning index handle.
type BTree struct {
	store  *block.Store
	cache  *cache.Cache
	header *header.Header
	log    zerolog.Logger
}

// New builds a BTree over store, sharing hdr (mutated in place as the tree
// grows) with the caller, using cache.DefaultCapacity.
func New(store *block.Store, hdr *header.Header, log zerolog.Logger) *BTree {
	return NewWithCacheCapacity(store, hdr, log, 0)
}

// NewWithCacheCapacity is like New but overrides the node cache's capacity
// when capacity is positive.
func NewWithCacheCapacity(store *block.Store, hdr *header.Header, log zerolog.Logger, capacity int) *BTree {
	t := &BTree{store: store, header: hdr, log: log}
	t.cache = cache.New(capacity, t.loadNode, t.flushNode)
	return t
}

func (t *BTree) loadNode(blockID uint64) (cache.NodeLike, error) {
	buf, err := t.store.ReadBlock(blockID)
	if err != nil {
		return nil, err
	}
	n, err := node.Decode(buf)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (t *BTree) flushNode(n cache.NodeLike) error {
	nd := n.(*node.Node)
	return t.store.WriteBlock(nd.BlockID, nd.Encode())
}

func (t *BTree) readNode(blockID uint64) (*node.Node, error) {
	n, err := t.cache.Read(blockID)
	if err != nil {
		return nil, err
	}
	return n.(*node.Node), nil
}

func (t *BTree) writeNode(n *node.Node) error {
	return t.cache.Write(n)
}

func (t *BTree) persistHeader() error {
	return t.store.WriteBlock(0, t.header.Encode())
}

// allocate reserves the next block id for a brand new node and persists the
// header immediately, matching the reference design's "write header on
// every allocation" policy (spec.md §9 calls this conservative but
// acceptable).
func (t *BTree) allocate() (*node.Node, error) {
	id := t.header.Next
	t.header.Next++
	if err := t.persistHeader(); err != nil {
		return nil, errors.Wrap(btreeerr.ErrAlloc, err.Error())
	}
	t.log.Debug().Uint64("block_id", id).Msg("allocated node")
	return &node.Node{BlockID: id}, nil
}

// Flush writes back every dirty cached node. It does not persist the
// header; callers (pkg/index) persist the header separately on Close.
func (t *BTree) Flush() error {
	return t.cache.Flush()
}

// Search returns the value stored for key, or btreeerr.ErrNotFound.
func (t *BTree) Search(key uint64) (uint64, error) {
	if t.header.Root == 0 {
		return 0, btreeerr.ErrNotFound
	}
	return t.search(t.header.Root, key)
}

func (t *BTree) search(blockID, key uint64) (uint64, error) {
	n, err := t.readNode(blockID)
	if err != nil {
		return 0, err
	}

	i := 0
	for i < int(n.NumKeys) {
		if key == n.Keys[i] {
			return n.Values[i], nil
		}
		if key < n.Keys[i] {
			break
		}
		i++
	}

	if n.IsLeaf() {
		return 0, btreeerr.ErrNotFound
	}

	child := n.Children[i]
	if child == 0 {
		return 0, btreeerr.ErrNotFound
	}
	return t.search(child, key)
}

// Insert adds (key, value) to the tree, failing with
// btreeerr.ErrDuplicateKey if key is already present.
func (t *BTree) Insert(key, value uint64) error {
	if _, err := t.Search(key); err == nil {
		return btreeerr.ErrDuplicateKey
	} else if !errors.Is(err, btreeerr.ErrNotFound) {
		return err
	}

	if t.header.Root == 0 {
		root, err := t.allocate()
		if err != nil {
			return err
		}
		root.Keys[0] = key
		root.Values[0] = value
		root.NumKeys = 1
		if err := t.writeNode(root); err != nil {
			return err
		}
		t.header.Root = root.BlockID
		return t.persistHeader()
	}

	root, err := t.readNode(t.header.Root)
	if err != nil {
		return err
	}

	if !root.Full() {
		return t.insertNonFull(root, key, value)
	}

	newRoot, err := t.allocate()
	if err != nil {
		return err
	}
	newRoot.Children[0] = root.BlockID
	t.header.Root = newRoot.BlockID
	if err := t.persistHeader(); err != nil {
		return err
	}

	// The reference C source never updates the old root's parent pointer on
	// a root split; spec.md calls that out as a bug. Fix it here.
	root.ParentBlockID = newRoot.BlockID
	if err := t.writeNode(root); err != nil {
		return err
	}

	if err := t.splitChild(newRoot, 0); err != nil {
		return err
	}
	return t.insertNonFull(newRoot, key, value)
}

func (t *BTree) insertNonFull(n *node.Node, key, value uint64) error {
	if n.IsLeaf() {
		i := int(n.NumKeys) - 1
		for i >= 0 && key < n.Keys[i] {
			n.Keys[i+1] = n.Keys[i]
			n.Values[i+1] = n.Values[i]
			i--
		}
		n.Keys[i+1] = key
		n.Values[i+1] = value
		n.NumKeys++
		return t.writeNode(n)
	}

	i := 0
	for i < int(n.NumKeys) && key > n.Keys[i] {
		i++
	}

	child, err := t.readNode(n.Children[i])
	if err != nil {
		return err
	}

	if child.Full() {
		if err := t.splitChild(n, i); err != nil {
			return err
		}
		if key > n.Keys[i] {
			i++
		}
		child, err = t.readNode(n.Children[i])
		if err != nil {
			return err
		}
	}

	return t.insertNonFull(child, key, value)
}

// splitChild splits parent.Children[idx] (which must be full) into two
// halves, promoting the median key/value into parent at idx.
func (t *BTree) splitChild(parent *node.Node, idx int) error {
	child, err := t.readNode(parent.Children[idx])
	if err != nil {
		return err
	}

	m := node.MaxKeys / 2 // integer division; 4 when MaxKeys=9

	sibling, err := t.allocate()
	if err != nil {
		return err
	}
	sibling.ParentBlockID = parent.BlockID

	for i := 0; i < m; i++ {
		sibling.Keys[i] = child.Keys[m+1+i]
		sibling.Values[i] = child.Values[m+1+i]
		child.Keys[m+1+i] = 0
		child.Values[m+1+i] = 0
	}
	sibling.NumKeys = uint64(m)

	if !child.IsLeaf() {
		for i := 0; i <= m; i++ {
			sibling.Children[i] = child.Children[m+1+i]
			child.Children[m+1+i] = 0
		}
	}

	medianKey, medianValue := child.Keys[m], child.Values[m]
	child.Keys[m] = 0
	child.Values[m] = 0
	child.NumKeys = uint64(m)

	for i := int(parent.NumKeys); i > idx; i-- {
		parent.Keys[i] = parent.Keys[i-1]
		parent.Values[i] = parent.Values[i-1]
	}
	for i := int(parent.NumKeys) + 1; i > idx+1; i-- {
		parent.Children[i] = parent.Children[i-1]
	}
	parent.Keys[idx] = medianKey
	parent.Values[idx] = medianValue
	parent.Children[idx+1] = sibling.BlockID
	parent.NumKeys++

	t.log.Debug().Uint64("child", child.BlockID).Uint64("sibling", sibling.BlockID).
		Uint64("parent", parent.BlockID).Msg("split child")

	if err := t.writeNode(parent); err != nil {
		return err
	}
	if err := t.writeNode(child); err != nil {
		return err
	}
	return t.writeNode(sibling)
}

// Visitor is called once per (key, value) pair during a traversal.
type Visitor func(key, value uint64)

// Traverse walks the tree in pre-order (node, then children left-to-right),
// the order extract writes pairs in. It is not sorted order.
func (t *BTree) Traverse(visit Visitor) error {
	if t.header.Root == 0 {
		return nil
	}
	return t.traverse(t.header.Root, visit)
}

func (t *BTree) traverse(blockID uint64, visit Visitor) error {
	n, err := t.readNode(blockID)
	if err != nil {
		return err
	}

	for i := 0; i < int(n.NumKeys); i++ {
		visit(n.Keys[i], n.Values[i])
	}

	if !n.IsLeaf() {
		for i := 0; i <= int(n.NumKeys); i++ {
			if n.Children[i] == 0 {
				continue
			}
			if err := t.traverse(n.Children[i], visit); err != nil {
				return err
			}
		}
	}
	return nil
}

// PrintVisitor is called once per (depth, key, value) triple by Print.
type PrintVisitor func(depth int, key, value uint64)

// Print walks the tree in the same pre-order as Traverse but additionally
// reports each node's depth, for indentation.
func (t *BTree) Print(visit PrintVisitor) error {
	if t.header.Root == 0 {
		return nil
	}
	return t.print(t.header.Root, 0, visit)
}

func (t *BTree) print(blockID uint64, depth int, visit PrintVisitor) error {
	n, err := t.readNode(blockID)
	if err != nil {
		return err
	}

	for i := 0; i < int(n.NumKeys); i++ {
		visit(depth, n.Keys[i], n.Values[i])
	}

	if !n.IsLeaf() {
		for i := 0; i <= int(n.NumKeys); i++ {
			if n.Children[i] == 0 {
				continue
			}
			if err := t.print(n.Children[i], depth+1, visit); err != nil {
				return err
			}
		}
	}
	return nil
}

// Validate performs the recursive structural check of spec.md §4.6.6: every
// node's key count is in range, keys within a node are strictly ascending,
// every internal node's children straddle its keys correctly, and all
// leaves are at the same depth. An empty tree is valid.
func (t *BTree) Validate() error {
	if t.header.Root == 0 {
		return nil
	}
	_, _, _, err := t.validate(t.header.Root)
	return err
}

func (t *BTree) validate(blockID uint64) (min, max uint64, depth int, err error) {
	n, err := t.readNode(blockID)
	if err != nil {
		return 0, 0, 0, err
	}

	if n.NumKeys > node.MaxKeys {
		return 0, 0, 0, fmt.Errorf("node %d: num_keys=%d exceeds MaxKeys=%d", n.BlockID, n.NumKeys, node.MaxKeys)
	}
	for i := 1; i < int(n.NumKeys); i++ {
		if !(n.Keys[i-1] < n.Keys[i]) {
			return 0, 0, 0, fmt.Errorf("node %d: keys not strictly ascending at index %d", n.BlockID, i)
		}
	}

	if n.IsLeaf() {
		if n.NumKeys == 0 {
			return 0, 0, 0, nil
		}
		return n.Keys[0], n.Keys[n.NumKeys-1], 0, nil
	}

	var (
		globalMin, globalMax uint64
		childDepth           = -1
	)
	for i := 0; i <= int(n.NumKeys); i++ {
		childMin, childMax, d, err := t.validate(n.Children[i])
		if err != nil {
			return 0, 0, 0, err
		}
		if childDepth == -1 {
			childDepth = d
		} else if childDepth != d {
			return 0, 0, 0, fmt.Errorf("node %d: child %d depth %d differs from sibling depth %d", n.BlockID, i, d, childDepth)
		}
		if i == 0 {
			globalMin = childMin
		}
		if i == int(n.NumKeys) {
			globalMax = childMax
		}
		if i < int(n.NumKeys) && !(childMax < n.Keys[i]) {
			return 0, 0, 0, fmt.Errorf("node %d: child %d max key %d not less than key[%d]=%d", n.BlockID, i, childMax, i, n.Keys[i])
		}
		if i > 0 && !(childMin > n.Keys[i-1]) {
			return 0, 0, 0, fmt.Errorf("node %d: child %d min key %d not greater than key[%d]=%d", n.BlockID, i, childMin, i-1, n.Keys[i-1])
		}
	}
	return globalMin, globalMax, childDepth + 1, nil
}
