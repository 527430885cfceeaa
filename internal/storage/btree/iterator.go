package btree

import (
	"bytes"

	"github.com/sedirdb/sedir/internal/storage"
)

// Iterator walks leaf entries in ascending key order, loading one leaf
// block at a time. It is not isolated from writes; do not mutate the tree
// while an iterator is open.
type Iterator struct {
	tree *Tree
	leaf *Node
	idx  int
	end  []byte // inclusive upper bound, nil means unbounded
	err  error
	done bool
}

// RangeScan returns an iterator over all entries with start <= key <= end.
// A nil start begins at the smallest key; a nil end runs to the largest.
func (t *Tree) RangeScan(start, end []byte) (*Iterator, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	it := &Iterator{tree: t, end: cloneBytes(end)}

	if start != nil && end != nil && bytes.Compare(start, end) > 0 {
		it.done = true
		return it, nil
	}

	var (
		leaf *Node
		err  error
	)
	if start == nil {
		leaf, err = t.edgeLeaf(true)
	} else {
		leaf, err = t.findLeaf(start)
	}
	if err != nil {
		return nil, err
	}

	it.leaf = leaf
	if start != nil {
		// Position on the first key >= start; findKey returns the
		// insertion index when the key is absent.
		it.idx, _ = leaf.findKey(start)
	}

	return it, nil
}

// Next advances the iterator and returns the current entry. It returns
// false when the scan is exhausted or an error occurred; check Err after
// the loop.
func (it *Iterator) Next() (key, value []byte, ok bool) {
	for !it.done && it.err == nil {
		if it.idx < len(it.leaf.Keys) {
			key = it.leaf.Keys[it.idx]
			if it.end != nil && bytes.Compare(key, it.end) > 0 {
				it.done = true
				return nil, nil, false
			}

			value = it.leaf.Values[it.idx]
			it.idx++
			return key, value, true
		}

		if it.leaf.Next == storage.InvalidBlockID {
			it.done = true
			return nil, nil, false
		}

		it.tree.mu.RLock()
		next, err := it.tree.readNode(it.leaf.Next)
		it.tree.mu.RUnlock()
		if err != nil {
			it.err = err
			return nil, nil, false
		}

		it.leaf = next
		it.idx = 0
	}

	return nil, nil, false
}

// Err returns the first error the iterator hit, if any.
func (it *Iterator) Err() error {
	return it.err
}

// Close releases the iterator. Further calls to Next return false.
func (it *Iterator) Close() error {
	it.done = true
	it.leaf = nil
	return nil
}

// ReverseIterator walks leaf entries in descending key order over the
// backward leaf chain.
type ReverseIterator struct {
	tree  *Tree
	leaf  *Node
	idx   int
	start []byte // inclusive lower bound, nil means unbounded
	err   error
	done  bool
}

// ReverseScan returns an iterator over all entries with start <= key <= end,
// yielded in descending order. A nil end begins at the largest key; a nil
// start runs to the smallest.
func (t *Tree) ReverseScan(start, end []byte) (*ReverseIterator, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	it := &ReverseIterator{tree: t, start: cloneBytes(start)}

	if start != nil && end != nil && bytes.Compare(start, end) > 0 {
		it.done = true
		return it, nil
	}

	var (
		leaf *Node
		err  error
	)
	if end == nil {
		leaf, err = t.edgeLeaf(false)
		if err != nil {
			return nil, err
		}
		it.leaf = leaf
		it.idx = len(leaf.Keys) - 1
		return it, nil
	}

	leaf, err = t.findLeaf(end)
	if err != nil {
		return nil, err
	}

	// Position on the last key <= end.
	idx, found := leaf.findKey(end)
	if !found {
		idx--
	}

	it.leaf = leaf
	it.idx = idx

	return it, nil
}

// Next advances the iterator and returns the current entry, moving toward
// smaller keys.
func (it *ReverseIterator) Next() (key, value []byte, ok bool) {
	for !it.done && it.err == nil {
		if it.idx >= 0 && it.idx < len(it.leaf.Keys) {
			key = it.leaf.Keys[it.idx]
			if it.start != nil && bytes.Compare(key, it.start) < 0 {
				it.done = true
				return nil, nil, false
			}

			value = it.leaf.Values[it.idx]
			it.idx--
			return key, value, true
		}

		if it.leaf.Prev == storage.InvalidBlockID {
			it.done = true
			return nil, nil, false
		}

		it.tree.mu.RLock()
		prev, err := it.tree.readNode(it.leaf.Prev)
		it.tree.mu.RUnlock()
		if err != nil {
			it.err = err
			return nil, nil, false
		}

		it.leaf = prev
		it.idx = len(prev.Keys) - 1
	}

	return nil, nil, false
}

// Err returns the first error the iterator hit, if any.
func (it *ReverseIterator) Err() error {
	return it.err
}

// Close releases the iterator. Further calls to Next return false.
func (it *ReverseIterator) Close() error {
	it.done = true
	it.leaf = nil
	return nil
}
