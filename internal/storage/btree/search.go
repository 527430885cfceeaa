package btree

// Search returns the value stored under key. Absence is a normal outcome
// reported through found, not an error.
func (t *Tree) Search(key []byte) (value []byte, found bool, err error) {
	if len(key) == 0 {
		return nil, false, ErrEmptyKey
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	leaf, err := t.findLeaf(key)
	if err != nil {
		return nil, false, err
	}

	idx, ok := leaf.findKey(key)
	if !ok {
		return nil, false, nil
	}

	return leaf.Values[idx], true, nil
}

// Has reports whether key is present.
func (t *Tree) Has(key []byte) (bool, error) {
	_, found, err := t.Search(key)
	return found, err
}

// findLeaf descends from the root to the leaf responsible for key without
// recording the path.
func (t *Tree) findLeaf(key []byte) (*Node, error) {
	node, err := t.readNode(t.root)
	if err != nil {
		return nil, err
	}

	for !node.Leaf {
		node, err = t.readNode(node.Children[node.childIndex(key)])
		if err != nil {
			return nil, err
		}
	}

	return node, nil
}

// edgeLeaf returns the leftmost (first=true) or rightmost leaf of the tree.
func (t *Tree) edgeLeaf(first bool) (*Node, error) {
	node, err := t.readNode(t.root)
	if err != nil {
		return nil, err
	}

	for !node.Leaf {
		child := node.Children[len(node.Children)-1]
		if first {
			child = node.Children[0]
		}

		node, err = t.readNode(child)
		if err != nil {
			return nil, err
		}
	}

	return node, nil
}

// FirstKey returns the smallest key in the tree, or nil if it is empty.
func (t *Tree) FirstKey() ([]byte, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	leaf, err := t.edgeLeaf(true)
	if err != nil {
		return nil, err
	}

	return leaf.firstKey(), nil
}

// LastKey returns the largest key in the tree, or nil if it is empty.
func (t *Tree) LastKey() ([]byte, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	leaf, err := t.edgeLeaf(false)
	if err != nil {
		return nil, err
	}

	// An empty non-root leaf cannot exist; only an empty root leaf can.
	if len(leaf.Keys) == 0 {
		return nil, nil
	}

	return leaf.Keys[len(leaf.Keys)-1], nil
}
