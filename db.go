package sedir

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/sedirdb/sedir/internal/storage"
	"github.com/sedirdb/sedir/internal/storage/btree"
)

// Errors surfaced by the public API.
var (
	ErrDuplicateKey  = btree.ErrDuplicateKey
	ErrEmptyKey      = btree.ErrEmptyKey
	ErrKeyTooLarge   = btree.ErrKeyTooLarge
	ErrValueTooLarge = btree.ErrValueTooLarge
	ErrCorruptBlock  = btree.ErrCorruptBlock
	ErrNodeTooLarge  = btree.ErrNodeTooLarge
	ErrInvalidBlock  = storage.ErrInvalidBlock
	ErrReadOnly      = storage.ErrReadOnly
	ErrClosed        = storage.ErrStoreClosed
)

// DB is a single-file key/value store ordered by key. One DB value is safe
// for concurrent use; opening the same file from two processes is not
// supported.
type DB struct {
	store *storage.BlockStore
	tree  *btree.Tree
	log   *zap.Logger
}

// Cursor iterates over key/value pairs. The returned slices are owned by
// the cursor's current position; copy them to retain past Next.
type Cursor interface {
	// Next returns the next entry, or ok=false when the scan is done.
	Next() (key, value []byte, ok bool)

	// Err returns the first error the cursor hit, if any.
	Err() error

	// Close releases the cursor.
	Close() error
}

// Stats summarizes the shape and size of the database.
type Stats struct {
	Height        int
	LeafNodes     int
	InternalNodes int
	Keys          int
	TotalBlocks   uint64
	FreeBlocks    int
	BlockSize     int
	Order         int
}

// Open opens the database file at path, creating it if it does not exist.
// Creation fixes the block size, order, and size limits for the life of
// the file; reopening reads them back from the file header.
func Open(path string, opts Options) (*DB, error) {
	opts = opts.withDefaults()

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	order := opts.Order
	if order == 0 {
		order = btree.MaxFittingOrder(opts.MaxKeySize, opts.MaxValueSize, opts.BlockSize)
		if order == 0 {
			return nil, errors.Wrapf(ErrNodeTooLarge,
				"no order fits block size %d with max key %d and max value %d",
				opts.BlockSize, opts.MaxKeySize, opts.MaxValueSize)
		}
	}

	store, err := storage.Open(path, storage.Options{
		BlockSize:    opts.BlockSize,
		Order:        order,
		MaxKeySize:   opts.MaxKeySize,
		MaxValueSize: opts.MaxValueSize,
		CreateIfNew:  !opts.ReadOnly,
		ReadOnly:     opts.ReadOnly,
		SyncOnWrite:  opts.SyncOnWrite,
		Logger:       log,
	})
	if err != nil {
		return nil, err
	}

	cfg := btree.Config{
		Order:        order,
		MaxKeySize:   opts.MaxKeySize,
		MaxValueSize: opts.MaxValueSize,
		Overwrite:    opts.Overwrite,
	}

	var tree *btree.Tree
	if store.Created() {
		tree, err = btree.Create(store, cfg, log)
	} else {
		// The header's creation parameters win over the caller's on reopen.
		cfg.Order = store.Order()
		cfg.MaxKeySize = store.MaxKeySize()
		cfg.MaxValueSize = store.MaxValueSize()
		tree, err = btree.Load(store, cfg, log)
	}
	if err != nil {
		store.Close()
		return nil, err
	}

	return &DB{store: store, tree: tree, log: log}, nil
}

// Insert stores value under key. A duplicate key returns ErrDuplicateKey
// unless the database was opened with Overwrite.
func (db *DB) Insert(key, value []byte) error {
	return db.tree.Insert(key, value)
}

// Search returns the value stored under key. Absence is reported through
// found, not an error.
func (db *DB) Search(key []byte) (value []byte, found bool, err error) {
	return db.tree.Search(key)
}

// Has reports whether key is present.
func (db *DB) Has(key []byte) (bool, error) {
	return db.tree.Has(key)
}

// Delete removes key and reports whether it was present.
func (db *DB) Delete(key []byte) (bool, error) {
	return db.tree.Delete(key)
}

// RangeScan returns a cursor over all entries with start <= key <= end in
// ascending order. Nil bounds are unbounded.
func (db *DB) RangeScan(start, end []byte) (Cursor, error) {
	return db.tree.RangeScan(start, end)
}

// ReverseScan returns a cursor over all entries with start <= key <= end
// in descending order. Nil bounds are unbounded.
func (db *DB) ReverseScan(start, end []byte) (Cursor, error) {
	return db.tree.ReverseScan(start, end)
}

// FirstKey returns the smallest key, or nil if the database is empty.
func (db *DB) FirstKey() ([]byte, error) {
	return db.tree.FirstKey()
}

// LastKey returns the largest key, or nil if the database is empty.
func (db *DB) LastKey() ([]byte, error) {
	return db.tree.LastKey()
}

// IsEmpty reports whether the database holds no keys.
func (db *DB) IsEmpty() (bool, error) {
	return db.tree.IsEmpty()
}

// Stats walks the tree and returns shape and file counters.
func (db *DB) Stats() (Stats, error) {
	ts, err := db.tree.Stats()
	if err != nil {
		return Stats{}, err
	}

	free, err := db.store.FreeBlocks()
	if err != nil {
		return Stats{}, err
	}

	return Stats{
		Height:        ts.Height,
		LeafNodes:     ts.LeafNodes,
		InternalNodes: ts.InternalNodes,
		Keys:          ts.Keys,
		TotalBlocks:   db.store.TotalBlocks(),
		FreeBlocks:    free,
		BlockSize:     db.store.BlockSize(),
		Order:         db.tree.Order(),
	}, nil
}

// Check validates the structural invariants of the on-disk tree.
func (db *DB) Check() error {
	return db.tree.Check()
}

// Sync flushes buffered writes to stable storage.
func (db *DB) Sync() error {
	return db.store.Sync()
}

// Close syncs and closes the underlying file. The DB must not be used
// afterward.
func (db *DB) Close() error {
	return db.store.Close()
}
