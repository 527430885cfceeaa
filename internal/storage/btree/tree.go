package btree

import (
	goerrors "errors"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/sedirdb/sedir/internal/storage"
)

// Tree errors.
var (
	ErrDuplicateKey  = goerrors.New("key already exists")
	ErrEmptyKey      = goerrors.New("key cannot be empty")
	ErrKeyTooLarge   = goerrors.New("key exceeds maximum size")
	ErrValueTooLarge = goerrors.New("value exceeds maximum size")
	ErrInvalidOrder  = goerrors.New("invalid tree order")
)

// Config carries the fixed parameters of a tree.
type Config struct {
	Order        int  // Max children per internal node / entries per leaf
	MaxKeySize   int  // Largest accepted key, bytes
	MaxValueSize int  // Largest accepted value, bytes
	Overwrite    bool // Replace the value on duplicate insert instead of rejecting
}

// Tree is a B+ tree whose nodes live in blocks of a BlockStore. All public
// operations serialize behind one coarse lock; callers get single-writer
// semantics without further coordination.
type Tree struct {
	store *storage.BlockStore
	cfg   Config
	root  storage.BlockID
	log   *zap.Logger
	mu    sync.RWMutex
}

// Create initializes a new tree in a freshly created store: it allocates an
// empty leaf as the root and records it in the store header.
func Create(store *storage.BlockStore, cfg Config, log *zap.Logger) (*Tree, error) {
	if cfg.Order < MinOrder || cfg.Order > MaxOrder {
		return nil, errors.Wrapf(ErrInvalidOrder, "order %d", cfg.Order)
	}
	if !FitsBlock(cfg.Order, cfg.MaxKeySize, cfg.MaxValueSize, store.BlockSize()) {
		return nil, errors.Wrapf(ErrNodeTooLarge,
			"order %d with max key %d and max value %d does not fit block size %d",
			cfg.Order, cfg.MaxKeySize, cfg.MaxValueSize, store.BlockSize())
	}
	if log == nil {
		log = zap.NewNop()
	}

	t := &Tree{store: store, cfg: cfg, log: log}

	id, err := store.Allocate()
	if err != nil {
		return nil, err
	}

	if err := t.writeNode(newLeaf(id)); err != nil {
		return nil, err
	}
	if err := store.SetRoot(id); err != nil {
		return nil, err
	}
	t.root = id

	log.Info("tree created",
		zap.Int("order", cfg.Order),
		zap.Int("block_size", store.BlockSize()))

	return t, nil
}

// Load binds a tree to the root block recorded in an existing store header.
// The config must satisfy the same fit guarantee Create enforces, so that an
// oversized node stays impossible across reopens.
func Load(store *storage.BlockStore, cfg Config, log *zap.Logger) (*Tree, error) {
	if cfg.Order < MinOrder || cfg.Order > MaxOrder {
		return nil, errors.Wrapf(ErrInvalidOrder, "order %d", cfg.Order)
	}
	if !FitsBlock(cfg.Order, cfg.MaxKeySize, cfg.MaxValueSize, store.BlockSize()) {
		return nil, errors.Wrapf(ErrNodeTooLarge,
			"order %d with max key %d and max value %d does not fit block size %d",
			cfg.Order, cfg.MaxKeySize, cfg.MaxValueSize, store.BlockSize())
	}
	if log == nil {
		log = zap.NewNop()
	}

	t := &Tree{store: store, cfg: cfg, root: store.Root(), log: log}

	// Fail fast on a damaged root rather than on first use.
	if _, err := t.readNode(t.root); err != nil {
		return nil, err
	}

	return t, nil
}

// Root returns the current root block id.
func (t *Tree) Root() storage.BlockID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.root
}

// Order returns the order of the tree.
func (t *Tree) Order() int {
	return t.cfg.Order
}

// IsEmpty reports whether the tree holds no keys.
func (t *Tree) IsEmpty() (bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	node, err := t.readNode(t.root)
	if err != nil {
		return false, err
	}

	return node.Leaf && len(node.Keys) == 0, nil
}

// readNode loads and decodes the node stored in the given block.
func (t *Tree) readNode(id storage.BlockID) (*Node, error) {
	buf, err := t.store.Read(id)
	if err != nil {
		return nil, err
	}

	return decodeNode(buf, id)
}

// writeNode encodes the node and stores it back into its block.
func (t *Tree) writeNode(n *Node) error {
	buf, err := encodeNode(n, t.store.BlockSize())
	if err != nil {
		return err
	}

	return t.store.Write(n.ID, buf)
}

// allocNode allocates a fresh block and binds an empty node to it.
func (t *Tree) allocNode(leaf bool) (*Node, error) {
	id, err := t.store.Allocate()
	if err != nil {
		return nil, err
	}

	if leaf {
		return newLeaf(id), nil
	}
	return newInternal(id), nil
}

// setRoot updates the in-memory root and persists it to the store header.
func (t *Tree) setRoot(id storage.BlockID) error {
	if err := t.store.SetRoot(id); err != nil {
		return err
	}
	t.root = id
	return nil
}

// pathEntry records one step of a root-to-leaf descent: the node visited
// and, for internal nodes, the child index taken out of it.
type pathEntry struct {
	node *Node
	idx  int
}

// descend walks from the root to the leaf responsible for key, recording
// every visited node and the child index taken. The last entry is the leaf;
// its idx field is unused.
func (t *Tree) descend(key []byte) ([]pathEntry, error) {
	node, err := t.readNode(t.root)
	if err != nil {
		return nil, err
	}

	path := []pathEntry{{node: node}}

	for !node.Leaf {
		idx := node.childIndex(key)
		path[len(path)-1].idx = idx

		node, err = t.readNode(node.Children[idx])
		if err != nil {
			return nil, err
		}
		path = append(path, pathEntry{node: node})
	}

	return path, nil
}

// checkEntry validates key and value against the tree's fixed limits, which
// back the creation-time guarantee that every node fits its block.
func (t *Tree) checkEntry(key, value []byte) error {
	if len(key) == 0 {
		return ErrEmptyKey
	}
	if len(key) > t.cfg.MaxKeySize {
		return errors.Wrapf(ErrKeyTooLarge, "%d bytes, limit %d", len(key), t.cfg.MaxKeySize)
	}
	if len(value) > t.cfg.MaxValueSize {
		return errors.Wrapf(ErrValueTooLarge, "%d bytes, limit %d", len(value), t.cfg.MaxValueSize)
	}
	return nil
}
