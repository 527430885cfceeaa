package btree

import (
	"go.uber.org/zap"

	"github.com/sedirdb/sedir/internal/storage"
)

// Insert adds a key/value pair to the tree. A duplicate key is rejected
// with ErrDuplicateKey unless the tree was configured with Overwrite, in
// which case the stored value is replaced in place.
//
// An overflowing leaf is split with the left half keeping ⌈(m+1)/2⌉
// entries; the smallest key of the new right leaf is pushed into the
// parent. Internal splits promote their middle key, which appears in
// neither half. Only a root split increases the height of the tree.
func (t *Tree) Insert(key, value []byte) error {
	if err := t.checkEntry(key, value); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	path, err := t.descend(key)
	if err != nil {
		return err
	}

	leaf := path[len(path)-1].node

	idx, found := leaf.findKey(key)
	if found {
		if !t.cfg.Overwrite {
			return ErrDuplicateKey
		}
		leaf.Values[idx] = cloneBytes(value)
		return t.writeNode(leaf)
	}

	leaf.insertEntry(idx, cloneBytes(key), cloneBytes(value))

	if !leaf.overflows(t.cfg.Order) {
		return t.writeNode(leaf)
	}

	return t.splitLeaf(path)
}

// splitLeaf divides the overflowing leaf at the end of path and propagates
// the separator upward.
func (t *Tree) splitLeaf(path []pathEntry) error {
	leaf := path[len(path)-1].node

	right, err := t.allocNode(true)
	if err != nil {
		return err
	}

	// Left half keeps the ceiling of the entry count.
	splitAt := (len(leaf.Keys) + 1) / 2

	right.Keys = append(right.Keys, leaf.Keys[splitAt:]...)
	right.Values = append(right.Values, leaf.Values[splitAt:]...)
	leaf.Keys = leaf.Keys[:splitAt]
	leaf.Values = leaf.Values[:splitAt]

	// Splice the new leaf into the chain.
	right.Next = leaf.Next
	right.Prev = leaf.ID
	leaf.Next = right.ID

	if right.Next != storage.InvalidBlockID {
		after, err := t.readNode(right.Next)
		if err != nil {
			return err
		}
		after.Prev = right.ID
		if err := t.writeNode(after); err != nil {
			return err
		}
	}

	if err := t.writeNode(leaf); err != nil {
		return err
	}
	if err := t.writeNode(right); err != nil {
		return err
	}

	// The separator is the smallest key of the new right leaf.
	return t.insertIntoParent(path[:len(path)-1], leaf.ID, cloneBytes(right.Keys[0]), right.ID)
}

// insertIntoParent inserts a separator key and the new right child into the
// parent at the end of path, splitting it in turn if it overflows. An empty
// path means the split reached the root.
func (t *Tree) insertIntoParent(path []pathEntry, left storage.BlockID, key []byte, right storage.BlockID) error {
	if len(path) == 0 {
		return t.growRoot(left, key, right)
	}

	parent := path[len(path)-1]
	parent.node.insertChild(parent.idx, key, right)

	if !parent.node.overflows(t.cfg.Order) {
		return t.writeNode(parent.node)
	}

	return t.splitInternal(path)
}

// splitInternal divides the overflowing internal node at the end of path,
// promoting its middle key to the parent.
func (t *Tree) splitInternal(path []pathEntry) error {
	node := path[len(path)-1].node

	right, err := t.allocNode(false)
	if err != nil {
		return err
	}

	mid := len(node.Keys) / 2
	promoted := node.Keys[mid]

	right.Keys = append(right.Keys, node.Keys[mid+1:]...)
	right.Children = append(right.Children, node.Children[mid+1:]...)
	node.Keys = node.Keys[:mid]
	node.Children = node.Children[:mid+1]

	if err := t.writeNode(node); err != nil {
		return err
	}
	if err := t.writeNode(right); err != nil {
		return err
	}

	return t.insertIntoParent(path[:len(path)-1], node.ID, promoted, right.ID)
}

// growRoot replaces the root with a new internal node over the two halves
// of the old one. This is the only operation that increases tree height.
func (t *Tree) growRoot(left storage.BlockID, key []byte, right storage.BlockID) error {
	root, err := t.allocNode(false)
	if err != nil {
		return err
	}

	root.Keys = [][]byte{key}
	root.Children = []storage.BlockID{left, right}

	if err := t.writeNode(root); err != nil {
		return err
	}

	t.log.Debug("root split",
		zap.Uint64("old_root", uint64(left)),
		zap.Uint64("new_root", uint64(root.ID)))

	return t.setRoot(root.ID)
}

// cloneBytes copies b so nodes never alias caller-owned memory.
func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
