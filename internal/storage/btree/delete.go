package btree

import (
	"go.uber.org/zap"

	"github.com/sedirdb/sedir/internal/storage"
)

// Delete removes key from the tree. It reports whether a key was removed;
// absence is a normal outcome, not an error.
//
// A leaf left below half occupancy borrows one entry from an adjacent
// sibling when possible (left first, then right) and merges with a sibling
// otherwise. Removing the separator of a merged pair can underflow the
// parent, so the same borrow-before-merge logic repeats up the recorded
// path. A root left with a single child and no keys is replaced by that
// child, the only operation that decreases tree height.
func (t *Tree) Delete(key []byte) (bool, error) {
	if len(key) == 0 {
		return false, ErrEmptyKey
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	path, err := t.descend(key)
	if err != nil {
		return false, err
	}

	leaf := path[len(path)-1].node

	idx, found := leaf.findKey(key)
	if !found {
		return false, nil
	}

	leaf.removeEntry(idx)

	// A root leaf has no occupancy floor.
	if len(path) == 1 || !leaf.underflows(t.cfg.Order) {
		return true, t.writeNode(leaf)
	}

	return true, t.rebalanceLeaf(path)
}

// rebalanceLeaf restores the occupancy floor of the leaf at the end of
// path, preferring a borrow from the left sibling, then the right, before
// falling back to a merge.
func (t *Tree) rebalanceLeaf(path []pathEntry) error {
	leaf := path[len(path)-1].node
	parent := path[len(path)-2].node
	pos := path[len(path)-2].idx

	var left, right *Node

	if pos > 0 {
		var err error
		left, err = t.readNode(parent.Children[pos-1])
		if err != nil {
			return err
		}

		if left.canLend(t.cfg.Order) {
			// Shift the left sibling's last entry over and refresh the
			// separator to the leaf's new smallest key.
			last := len(left.Keys) - 1
			key, value := left.Keys[last], left.Values[last]
			left.removeEntry(last)
			leaf.insertEntry(0, key, value)
			parent.Keys[pos-1] = cloneBytes(leaf.Keys[0])

			return t.writeNodes(left, leaf, parent)
		}
	}

	if pos < len(parent.Children)-1 {
		var err error
		right, err = t.readNode(parent.Children[pos+1])
		if err != nil {
			return err
		}

		if right.canLend(t.cfg.Order) {
			key, value := right.Keys[0], right.Values[0]
			right.removeEntry(0)
			leaf.insertEntry(len(leaf.Keys), key, value)
			parent.Keys[pos] = cloneBytes(right.Keys[0])

			return t.writeNodes(right, leaf, parent)
		}
	}

	// Neither sibling can lend: merge, preferring the left sibling.
	if left != nil {
		return t.mergeLeaves(path, left, leaf, pos-1)
	}
	return t.mergeLeaves(path, leaf, right, pos)
}

// mergeLeaves concatenates right into left, splices right out of the leaf
// chain, frees its block, and removes the separator at keyIdx from the
// parent.
func (t *Tree) mergeLeaves(path []pathEntry, left, right *Node, keyIdx int) error {
	left.Keys = append(left.Keys, right.Keys...)
	left.Values = append(left.Values, right.Values...)
	left.Next = right.Next

	if right.Next != storage.InvalidBlockID {
		after, err := t.readNode(right.Next)
		if err != nil {
			return err
		}
		after.Prev = left.ID
		if err := t.writeNode(after); err != nil {
			return err
		}
	}

	if err := t.writeNode(left); err != nil {
		return err
	}
	if err := t.store.Free(right.ID); err != nil {
		return err
	}

	return t.shrinkParent(path[:len(path)-1], keyIdx)
}

// shrinkParent removes the separator at keyIdx (and the child to its right)
// from the node at the end of path, collapsing the root or rebalancing the
// node if the removal leaves it underfull.
func (t *Tree) shrinkParent(path []pathEntry, keyIdx int) error {
	parent := path[len(path)-1].node
	parent.removeChild(keyIdx)

	if len(path) == 1 {
		// A keyless root with a single child hands the root over to that
		// child; the tree loses one level.
		if len(parent.Keys) == 0 && len(parent.Children) == 1 {
			child := parent.Children[0]
			if err := t.setRoot(child); err != nil {
				return err
			}

			t.log.Debug("root collapsed",
				zap.Uint64("old_root", uint64(parent.ID)),
				zap.Uint64("new_root", uint64(child)))

			return t.store.Free(parent.ID)
		}

		return t.writeNode(parent)
	}

	if !parent.underflows(t.cfg.Order) {
		return t.writeNode(parent)
	}

	return t.rebalanceInternal(path)
}

// rebalanceInternal restores the occupancy floor of the internal node at
// the end of path. Borrowing rotates a key through the parent; merging
// pulls the separator down between the two halves.
func (t *Tree) rebalanceInternal(path []pathEntry) error {
	node := path[len(path)-1].node
	parent := path[len(path)-2].node
	pos := path[len(path)-2].idx

	var left, right *Node

	if pos > 0 {
		var err error
		left, err = t.readNode(parent.Children[pos-1])
		if err != nil {
			return err
		}

		if left.canLend(t.cfg.Order) {
			lastKey := len(left.Keys) - 1
			lastChild := len(left.Children) - 1

			node.Keys = append([][]byte{parent.Keys[pos-1]}, node.Keys...)
			node.Children = append([]storage.BlockID{left.Children[lastChild]}, node.Children...)
			parent.Keys[pos-1] = left.Keys[lastKey]
			left.Keys = left.Keys[:lastKey]
			left.Children = left.Children[:lastChild]

			return t.writeNodes(left, node, parent)
		}
	}

	if pos < len(parent.Children)-1 {
		var err error
		right, err = t.readNode(parent.Children[pos+1])
		if err != nil {
			return err
		}

		if right.canLend(t.cfg.Order) {
			node.Keys = append(node.Keys, parent.Keys[pos])
			node.Children = append(node.Children, right.Children[0])
			parent.Keys[pos] = right.Keys[0]
			right.Keys = right.Keys[1:]
			right.Children = right.Children[1:]

			return t.writeNodes(right, node, parent)
		}
	}

	// Merging internal nodes pulls the separator down between the halves.
	if left != nil {
		left.Keys = append(left.Keys, parent.Keys[pos-1])
		left.Keys = append(left.Keys, node.Keys...)
		left.Children = append(left.Children, node.Children...)

		if err := t.writeNode(left); err != nil {
			return err
		}
		if err := t.store.Free(node.ID); err != nil {
			return err
		}

		return t.shrinkParent(path[:len(path)-1], pos-1)
	}

	node.Keys = append(node.Keys, parent.Keys[pos])
	node.Keys = append(node.Keys, right.Keys...)
	node.Children = append(node.Children, right.Children...)

	if err := t.writeNode(node); err != nil {
		return err
	}
	if err := t.store.Free(right.ID); err != nil {
		return err
	}

	return t.shrinkParent(path[:len(path)-1], pos)
}

// writeNodes writes the given nodes back in order, stopping at the first
// failure.
func (t *Tree) writeNodes(nodes ...*Node) error {
	for _, n := range nodes {
		if err := t.writeNode(n); err != nil {
			return err
		}
	}
	return nil
}
