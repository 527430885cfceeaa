package storage

import (
	"encoding/binary"
	goerrors "errors"
	"os"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// BlockID identifies a block in the store. Block 0 is the file header and is
// never handed out by Allocate.
type BlockID uint64

// InvalidBlockID is the null block reference.
const InvalidBlockID BlockID = 0

// Errors for BlockStore operations.
var (
	ErrStoreClosed  = goerrors.New("block store is closed")
	ErrReadOnly     = goerrors.New("block store is read-only")
	ErrInvalidBlock = goerrors.New("invalid block id")
	ErrBlockSize    = goerrors.New("buffer length does not match block size")
	ErrShortRead    = goerrors.New("short block read")
)

// BlockStore owns the backing file and hands out fixed-size blocks by id.
// Allocation prefers reuse from the free list over growing the file; freed
// blocks are pushed onto an intrusive singly linked list whose next pointers
// live in the freed blocks themselves.
type BlockStore struct {
	file      *os.File
	header    *FileHeader
	blockSize int
	created   bool
	readOnly  bool
	syncWrite bool
	closed    bool
	path      string
	log       *zap.Logger
	mu        sync.RWMutex
}

// Open opens or creates a block store at the given path.
func Open(path string, opts Options) (*BlockStore, error) {
	if opts.BlockSize == 0 {
		opts.BlockSize = DefaultBlockSize
	}
	if opts.BlockSize < MinBlockSize {
		return nil, errors.Errorf("block size %d below minimum %d", opts.BlockSize, MinBlockSize)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	bs := &BlockStore{
		blockSize: opts.BlockSize,
		readOnly:  opts.ReadOnly,
		syncWrite: opts.SyncOnWrite,
		path:      path,
		log:       opts.Logger,
	}

	_, err := os.Stat(path)
	fileExists := err == nil

	if !fileExists && !opts.CreateIfNew {
		return nil, os.ErrNotExist
	}

	flags := os.O_RDWR
	if opts.ReadOnly {
		flags = os.O_RDONLY
	} else if !fileExists {
		flags |= os.O_CREATE
	}

	bs.file, err = os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, "open store file")
	}

	if fileExists {
		if err := bs.loadExisting(); err != nil {
			bs.file.Close()
			return nil, err
		}
	} else {
		if err := bs.initializeNew(opts); err != nil {
			bs.file.Close()
			os.Remove(path)
			return nil, err
		}
		bs.created = true
	}

	bs.log.Debug("block store opened",
		zap.String("path", path),
		zap.Int("block_size", bs.blockSize),
		zap.Uint64("total_blocks", bs.header.TotalBlocks),
		zap.Bool("created", bs.created))

	return bs, nil
}

// loadExisting reads and validates the header of an existing store file.
// Only the fixed header prefix is read here; the file's block size is not
// known yet, and the file may be shorter than the caller's assumed size.
func (bs *BlockStore) loadExisting() error {
	buf := make([]byte, headerPayloadSize)
	if _, err := bs.file.ReadAt(buf, 0); err != nil {
		return errors.Wrap(err, "read file header")
	}

	bs.header = &FileHeader{}
	if err := bs.header.DeserializeAndValidate(buf); err != nil {
		return err
	}

	// The on-disk block size wins over whatever the caller passed.
	if bs.header.BlockSize < MinBlockSize {
		return errors.Errorf("header block size %d below minimum %d", bs.header.BlockSize, MinBlockSize)
	}
	bs.blockSize = int(bs.header.BlockSize)

	return nil
}

// initializeNew writes a fresh header for a new store file.
func (bs *BlockStore) initializeNew(opts Options) error {
	bs.header = NewFileHeader(uint32(bs.blockSize), uint32(opts.Order),
		uint32(opts.MaxKeySize), uint32(opts.MaxValueSize))

	if err := bs.writeHeaderLocked(); err != nil {
		return err
	}

	if err := bs.file.Sync(); err != nil {
		return errors.Wrap(err, "sync new store")
	}

	return nil
}

// writeHeaderLocked persists the header block. Must be called with the lock
// held (or during initialization before the store is shared).
func (bs *BlockStore) writeHeaderLocked() error {
	buf := make([]byte, bs.blockSize)
	if err := bs.header.SerializeTo(buf); err != nil {
		return err
	}

	if _, err := bs.file.WriteAt(buf, 0); err != nil {
		return errors.Wrap(err, "write file header")
	}

	return nil
}

// Created reports whether Open created a brand new store file.
func (bs *BlockStore) Created() bool {
	return bs.created
}

// BlockSize returns the fixed block size of the store.
func (bs *BlockStore) BlockSize() int {
	return bs.blockSize
}

// Order returns the tree order recorded in the header.
func (bs *BlockStore) Order() int {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return int(bs.header.Order)
}

// MaxKeySize returns the key size limit recorded in the header.
func (bs *BlockStore) MaxKeySize() int {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return int(bs.header.MaxKeySize)
}

// MaxValueSize returns the value size limit recorded in the header.
func (bs *BlockStore) MaxValueSize() int {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return int(bs.header.MaxValueSize)
}

// Root returns the root block id recorded in the header.
func (bs *BlockStore) Root() BlockID {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return bs.header.RootBlock
}

// SetRoot records a new root block id and rewrites the header.
func (bs *BlockStore) SetRoot(id BlockID) error {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if bs.closed {
		return ErrStoreClosed
	}
	if bs.readOnly {
		return ErrReadOnly
	}

	bs.header.RootBlock = id
	bs.log.Debug("root block changed", zap.Uint64("root", uint64(id)))

	return bs.writeHeaderLocked()
}

// Allocate returns a usable block id, reusing a free block when one is
// available and growing the file otherwise.
func (bs *BlockStore) Allocate() (BlockID, error) {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if bs.closed {
		return InvalidBlockID, ErrStoreClosed
	}
	if bs.readOnly {
		return InvalidBlockID, ErrReadOnly
	}

	// Pop the free list head first.
	if bs.header.FreeHead != InvalidBlockID {
		id := bs.header.FreeHead

		buf, err := bs.readBlockLocked(id)
		if err != nil {
			return InvalidBlockID, err
		}

		bs.header.FreeHead = BlockID(binary.LittleEndian.Uint64(buf[0:8]))
		if err := bs.writeHeaderLocked(); err != nil {
			return InvalidBlockID, err
		}

		return id, nil
	}

	// No free blocks: grow the file by one block.
	id := BlockID(bs.header.TotalBlocks)
	newSize := int64(bs.header.TotalBlocks+1) * int64(bs.blockSize)
	if err := bs.file.Truncate(newSize); err != nil {
		return InvalidBlockID, errors.Wrapf(err, "grow store to %d blocks", bs.header.TotalBlocks+1)
	}

	bs.header.TotalBlocks++
	if err := bs.writeHeaderLocked(); err != nil {
		return InvalidBlockID, err
	}

	bs.log.Debug("store grown", zap.Uint64("total_blocks", bs.header.TotalBlocks))

	return id, nil
}

// Free pushes a block onto the free list. The block's contents become
// undefined until it is reallocated. Freeing a block twice corrupts the free
// chain; avoiding that is the caller's responsibility.
func (bs *BlockStore) Free(id BlockID) error {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if bs.closed {
		return ErrStoreClosed
	}
	if bs.readOnly {
		return ErrReadOnly
	}
	if id == InvalidBlockID || uint64(id) >= bs.header.TotalBlocks {
		return ErrInvalidBlock
	}

	buf := make([]byte, bs.blockSize)
	binary.LittleEndian.PutUint64(buf[0:8], uint64(bs.header.FreeHead))
	if err := bs.writeBlockLocked(id, buf); err != nil {
		return err
	}

	bs.header.FreeHead = id

	return bs.writeHeaderLocked()
}

// Read returns the raw bytes of a block.
func (bs *BlockStore) Read(id BlockID) ([]byte, error) {
	bs.mu.RLock()
	defer bs.mu.RUnlock()

	if bs.closed {
		return nil, ErrStoreClosed
	}

	return bs.readBlockLocked(id)
}

func (bs *BlockStore) readBlockLocked(id BlockID) ([]byte, error) {
	if id == InvalidBlockID || uint64(id) >= bs.header.TotalBlocks {
		return nil, ErrInvalidBlock
	}

	buf := make([]byte, bs.blockSize)
	n, err := bs.file.ReadAt(buf, int64(id)*int64(bs.blockSize))
	if err != nil && n < bs.blockSize {
		if n > 0 {
			return nil, errors.Wrapf(ErrShortRead, "block %d: got %d of %d bytes", id, n, bs.blockSize)
		}
		return nil, errors.Wrapf(err, "read block %d", id)
	}

	return buf, nil
}

// Write stores the raw bytes of a block. The buffer must be exactly one
// block long.
func (bs *BlockStore) Write(id BlockID, buf []byte) error {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if bs.closed {
		return ErrStoreClosed
	}
	if bs.readOnly {
		return ErrReadOnly
	}

	return bs.writeBlockLocked(id, buf)
}

func (bs *BlockStore) writeBlockLocked(id BlockID, buf []byte) error {
	if id == InvalidBlockID || uint64(id) >= bs.header.TotalBlocks {
		return ErrInvalidBlock
	}
	if len(buf) != bs.blockSize {
		return ErrBlockSize
	}

	if _, err := bs.file.WriteAt(buf, int64(id)*int64(bs.blockSize)); err != nil {
		return errors.Wrapf(err, "write block %d", id)
	}

	if bs.syncWrite {
		if err := bs.file.Sync(); err != nil {
			return errors.Wrap(err, "sync after write")
		}
	}

	return nil
}

// TotalBlocks returns the number of blocks in the file, header included.
func (bs *BlockStore) TotalBlocks() uint64 {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return bs.header.TotalBlocks
}

// FreeBlocks walks the free chain and returns the number of free blocks.
func (bs *BlockStore) FreeBlocks() (int, error) {
	bs.mu.RLock()
	defer bs.mu.RUnlock()

	if bs.closed {
		return 0, ErrStoreClosed
	}

	count := 0
	for id := bs.header.FreeHead; id != InvalidBlockID; {
		buf, err := bs.readBlockLocked(id)
		if err != nil {
			return 0, err
		}
		count++
		if count > int(bs.header.TotalBlocks) {
			return 0, errors.Wrap(ErrInvalidBlock, "free list cycle")
		}
		id = BlockID(binary.LittleEndian.Uint64(buf[0:8]))
	}

	return count, nil
}

// Sync flushes pending writes to disk.
func (bs *BlockStore) Sync() error {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if bs.closed {
		return ErrStoreClosed
	}

	return errors.Wrap(bs.file.Sync(), "sync store")
}

// Close flushes and closes the backing file.
func (bs *BlockStore) Close() error {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if bs.closed {
		return ErrStoreClosed
	}
	bs.closed = true

	if !bs.readOnly {
		if err := bs.file.Sync(); err != nil {
			bs.file.Close()
			return errors.Wrap(err, "sync on close")
		}
	}

	bs.log.Debug("block store closed", zap.String("path", bs.path))

	return bs.file.Close()
}
