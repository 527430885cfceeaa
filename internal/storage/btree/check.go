package btree

import (
	"bytes"
	goerrors "errors"

	"github.com/pkg/errors"

	"github.com/sedirdb/sedir/internal/storage"
)

// ErrInvariant is returned by Check when the on-disk tree violates a
// structural invariant.
var ErrInvariant = goerrors.New("tree invariant violated")

// Stats summarizes the shape of the tree.
type Stats struct {
	Height        int // Levels from root to leaves; 1 for a lone root leaf
	LeafNodes     int
	InternalNodes int
	Keys          int // Entries stored in leaves
}

// Stats walks the whole tree and returns shape counters. It reads every
// node, so it is proportional to the size of the tree.
func (t *Tree) Stats() (Stats, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var s Stats
	if err := t.collectStats(t.root, 1, &s); err != nil {
		return Stats{}, err
	}
	return s, nil
}

func (t *Tree) collectStats(id storage.BlockID, depth int, s *Stats) error {
	node, err := t.readNode(id)
	if err != nil {
		return err
	}

	if depth > s.Height {
		s.Height = depth
	}

	if node.Leaf {
		s.LeafNodes++
		s.Keys += len(node.Keys)
		return nil
	}

	s.InternalNodes++
	for _, child := range node.Children {
		if err := t.collectStats(child, depth+1, s); err != nil {
			return err
		}
	}
	return nil
}

// Check validates the structural invariants of the on-disk tree: every leaf
// at the same depth, keys strictly ascending within nodes and across the
// leaf chain, separator keys bounding their subtrees, occupancy floors on
// non-root nodes, and a consistent doubly linked leaf chain. It returns
// ErrInvariant describing the first violation found.
func (t *Tree) Check() error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	c := &checker{tree: t}
	if err := c.checkNode(t.root, true, nil, nil, 1); err != nil {
		return err
	}
	return c.checkChain()
}

// checker accumulates the leaves in key order while checkNode recurses so
// the chain can be verified against the tree structure afterward.
type checker struct {
	tree      *Tree
	leaves    []*Node
	leafDepth int
}

// checkNode validates the subtree rooted at id. lower and upper bound the
// keys the subtree may contain: lower inclusive, upper exclusive, nil for
// unbounded.
func (c *checker) checkNode(id storage.BlockID, isRoot bool, lower, upper []byte, depth int) error {
	node, err := c.tree.readNode(id)
	if err != nil {
		return err
	}

	order := c.tree.cfg.Order

	for i := 1; i < len(node.Keys); i++ {
		if bytes.Compare(node.Keys[i-1], node.Keys[i]) >= 0 {
			return errors.Wrapf(ErrInvariant, "block %d: keys not strictly ascending", id)
		}
	}
	for _, key := range node.Keys {
		if lower != nil && bytes.Compare(key, lower) < 0 {
			return errors.Wrapf(ErrInvariant, "block %d: key below subtree lower bound", id)
		}
		if upper != nil && bytes.Compare(key, upper) >= 0 {
			return errors.Wrapf(ErrInvariant, "block %d: key at or above subtree upper bound", id)
		}
	}

	if node.Leaf {
		if len(node.Keys) > order {
			return errors.Wrapf(ErrInvariant, "leaf %d: %d entries exceed order %d", id, len(node.Keys), order)
		}
		if !isRoot && len(node.Keys) < minLeafEntries(order) {
			return errors.Wrapf(ErrInvariant, "leaf %d: %d entries below floor %d", id, len(node.Keys), minLeafEntries(order))
		}
		if c.leafDepth == 0 {
			c.leafDepth = depth
		} else if depth != c.leafDepth {
			return errors.Wrapf(ErrInvariant, "leaf %d: depth %d, expected %d", id, depth, c.leafDepth)
		}

		c.leaves = append(c.leaves, node)
		return nil
	}

	if len(node.Children) != len(node.Keys)+1 {
		return errors.Wrapf(ErrInvariant, "internal %d: %d keys, %d children", id, len(node.Keys), len(node.Children))
	}
	if len(node.Children) > order {
		return errors.Wrapf(ErrInvariant, "internal %d: %d children exceed order %d", id, len(node.Children), order)
	}
	if isRoot {
		if len(node.Children) < 2 {
			return errors.Wrapf(ErrInvariant, "root %d: internal root with %d children", id, len(node.Children))
		}
	} else if len(node.Children) < minChildren(order) {
		return errors.Wrapf(ErrInvariant, "internal %d: %d children below floor %d", id, len(node.Children), minChildren(order))
	}

	// Children[i] covers [lower, Keys[i]); Children[i+1] covers [Keys[i], upper).
	for i, child := range node.Children {
		childLower := lower
		if i > 0 {
			childLower = node.Keys[i-1]
		}
		childUpper := upper
		if i < len(node.Keys) {
			childUpper = node.Keys[i]
		}

		if err := c.checkNode(child, false, childLower, childUpper, depth+1); err != nil {
			return err
		}
	}

	return nil
}

// checkChain verifies that the leaf chain links exactly the leaves found by
// the structural walk, in the same order, forward and backward.
func (c *checker) checkChain() error {
	for i, leaf := range c.leaves {
		wantPrev := storage.InvalidBlockID
		if i > 0 {
			wantPrev = c.leaves[i-1].ID
		}
		wantNext := storage.InvalidBlockID
		if i < len(c.leaves)-1 {
			wantNext = c.leaves[i+1].ID
		}

		if leaf.Prev != wantPrev {
			return errors.Wrapf(ErrInvariant, "leaf %d: prev link %d, expected %d", leaf.ID, leaf.Prev, wantPrev)
		}
		if leaf.Next != wantNext {
			return errors.Wrapf(ErrInvariant, "leaf %d: next link %d, expected %d", leaf.ID, leaf.Next, wantNext)
		}

		if i > 0 {
			prev := c.leaves[i-1]
			if len(prev.Keys) > 0 && len(leaf.Keys) > 0 &&
				bytes.Compare(prev.Keys[len(prev.Keys)-1], leaf.Keys[0]) >= 0 {
				return errors.Wrapf(ErrInvariant, "leaf %d: chain keys not ascending across link", leaf.ID)
			}
		}
	}

	return nil
}
