package btree

import (
	"bytes"

	"github.com/sedirdb/sedir/internal/storage"
)

// Tree limits.
const (
	// MinOrder is the smallest usable tree order.
	MinOrder = 3

	// MaxOrder caps the fan-out so entry counts always fit the codec's
	// uint16 count field.
	MaxOrder = 1 << 15
)

// Node is the decoded form of one tree block: either a leaf holding
// key/value pairs, or an internal node holding separator keys and child
// block ids.
type Node struct {
	// ID is the block this node is stored in.
	ID storage.BlockID

	// Leaf distinguishes the two variants.
	Leaf bool

	// Keys are strictly ascending within the node.
	// For internal nodes Keys[i] separates Children[i] from Children[i+1]:
	// Children[i] covers keys < Keys[i], Children[i+1] keys >= Keys[i].
	Keys [][]byte

	// Values pair 1:1 with Keys. Leaf nodes only.
	Values [][]byte

	// Children holds child block ids, len(Keys)+1 of them. Internal only.
	Children []storage.BlockID

	// Next and Prev link the leaf chain in ascending key order. Leaf only;
	// InvalidBlockID marks the end of the chain.
	Next storage.BlockID
	Prev storage.BlockID
}

// newLeaf returns an empty leaf node bound to the given block.
func newLeaf(id storage.BlockID) *Node {
	return &Node{ID: id, Leaf: true}
}

// newInternal returns an empty internal node bound to the given block.
func newInternal(id storage.BlockID) *Node {
	return &Node{ID: id, Leaf: false}
}

// findKey binary-searches the node's keys. It returns the index of the key
// if present, otherwise the index where the key would be inserted.
func (n *Node) findKey(key []byte) (int, bool) {
	low, high := 0, len(n.Keys)

	for low < high {
		mid := (low + high) / 2
		switch cmp := bytes.Compare(n.Keys[mid], key); {
		case cmp < 0:
			low = mid + 1
		case cmp > 0:
			high = mid
		default:
			return mid, true
		}
	}

	return low, false
}

// childIndex returns the index of the child to descend into for key.
// Internal nodes only. An exact separator match descends right, since a
// separator equals the smallest key of the subtree to its right.
func (n *Node) childIndex(key []byte) int {
	idx, found := n.findKey(key)
	if found {
		idx++
	}
	return idx
}

// insertEntry inserts a key/value pair at index i. Leaf nodes only.
func (n *Node) insertEntry(i int, key, value []byte) {
	n.Keys = append(n.Keys, nil)
	copy(n.Keys[i+1:], n.Keys[i:])
	n.Keys[i] = key

	n.Values = append(n.Values, nil)
	copy(n.Values[i+1:], n.Values[i:])
	n.Values[i] = value
}

// removeEntry removes the key/value pair at index i. Leaf nodes only.
func (n *Node) removeEntry(i int) {
	n.Keys = append(n.Keys[:i], n.Keys[i+1:]...)
	n.Values = append(n.Values[:i], n.Values[i+1:]...)
}

// insertChild inserts a separator key at index i and the corresponding
// right-hand child at index i+1. Internal nodes only.
func (n *Node) insertChild(i int, key []byte, child storage.BlockID) {
	n.Keys = append(n.Keys, nil)
	copy(n.Keys[i+1:], n.Keys[i:])
	n.Keys[i] = key

	n.Children = append(n.Children, storage.InvalidBlockID)
	copy(n.Children[i+2:], n.Children[i+1:])
	n.Children[i+1] = child
}

// removeChild removes the separator key at index i and the child to its
// right. Internal nodes only.
func (n *Node) removeChild(i int) {
	n.Keys = append(n.Keys[:i], n.Keys[i+1:]...)
	n.Children = append(n.Children[:i+1], n.Children[i+2:]...)
}

// firstKey returns the first key in the node, or nil if empty.
func (n *Node) firstKey() []byte {
	if len(n.Keys) == 0 {
		return nil
	}
	return n.Keys[0]
}

// minLeafEntries is the occupancy floor ⌈m/2⌉ for non-root leaves.
func minLeafEntries(order int) int {
	return (order + 1) / 2
}

// minChildren is the occupancy floor ⌈m/2⌉ for non-root internal nodes.
func minChildren(order int) int {
	return (order + 1) / 2
}

// underflows reports whether the node is below its occupancy floor for the
// given order. The root is exempt; callers check that separately.
func (n *Node) underflows(order int) bool {
	if n.Leaf {
		return len(n.Keys) < minLeafEntries(order)
	}
	return len(n.Children) < minChildren(order)
}

// canLend reports whether the node can give one entry to a sibling without
// dropping below its occupancy floor.
func (n *Node) canLend(order int) bool {
	if n.Leaf {
		return len(n.Keys) > minLeafEntries(order)
	}
	return len(n.Children) > minChildren(order)
}

// overflows reports whether the node exceeds its maximum capacity and must
// be split before it can be written back.
func (n *Node) overflows(order int) bool {
	if n.Leaf {
		return len(n.Keys) > order
	}
	return len(n.Children) > order
}
