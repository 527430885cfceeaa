package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *BlockStore {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.sedir")
	bs, err := Open(path, DefaultOptions())
	require.NoError(t, err)

	t.Cleanup(func() { bs.Close() })

	return bs
}

func TestOpenCreatesNewStore(t *testing.T) {
	bs := newTestStore(t)

	assert.True(t, bs.Created())
	assert.Equal(t, DefaultBlockSize, bs.BlockSize())
	assert.Equal(t, uint64(1), bs.TotalBlocks())
	assert.Equal(t, InvalidBlockID, bs.Root())
}

func TestOpenMissingFileWithoutCreate(t *testing.T) {
	opts := DefaultOptions()
	opts.CreateIfNew = false

	_, err := Open(filepath.Join(t.TempDir(), "missing.sedir"), opts)
	assert.Error(t, err)
}

func TestAllocateGrowsFile(t *testing.T) {
	bs := newTestStore(t)

	id1, err := bs.Allocate()
	require.NoError(t, err)
	id2, err := bs.Allocate()
	require.NoError(t, err)

	assert.Equal(t, BlockID(1), id1)
	assert.Equal(t, BlockID(2), id2)
	assert.Equal(t, uint64(3), bs.TotalBlocks())
}

func TestWriteReadRoundTrip(t *testing.T) {
	bs := newTestStore(t)

	id, err := bs.Allocate()
	require.NoError(t, err)

	buf := make([]byte, bs.BlockSize())
	copy(buf, []byte("hello blocks"))
	require.NoError(t, bs.Write(id, buf))

	got, err := bs.Read(id)
	require.NoError(t, err)
	assert.Equal(t, buf, got)
}

func TestWriteWrongBufferLength(t *testing.T) {
	bs := newTestStore(t)

	id, err := bs.Allocate()
	require.NoError(t, err)

	err = bs.Write(id, make([]byte, 100))
	assert.ErrorIs(t, err, ErrBlockSize)
}

func TestReadInvalidBlock(t *testing.T) {
	bs := newTestStore(t)

	_, err := bs.Read(InvalidBlockID)
	assert.ErrorIs(t, err, ErrInvalidBlock)

	_, err = bs.Read(BlockID(999))
	assert.ErrorIs(t, err, ErrInvalidBlock)
}

func TestFreeAndReuse(t *testing.T) {
	bs := newTestStore(t)

	id1, err := bs.Allocate()
	require.NoError(t, err)
	id2, err := bs.Allocate()
	require.NoError(t, err)

	require.NoError(t, bs.Free(id1))
	require.NoError(t, bs.Free(id2))

	n, err := bs.FreeBlocks()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// LIFO reuse: the most recently freed block comes back first.
	got, err := bs.Allocate()
	require.NoError(t, err)
	assert.Equal(t, id2, got)

	got, err = bs.Allocate()
	require.NoError(t, err)
	assert.Equal(t, id1, got)

	// Free list drained; the next allocation grows the file.
	got, err = bs.Allocate()
	require.NoError(t, err)
	assert.Equal(t, BlockID(3), got)
}

func TestFreeHeaderBlockRejected(t *testing.T) {
	bs := newTestStore(t)

	err := bs.Free(InvalidBlockID)
	assert.ErrorIs(t, err, ErrInvalidBlock)

	err = bs.Free(BlockID(42))
	assert.ErrorIs(t, err, ErrInvalidBlock)
}

func TestSetRootPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "root.sedir")

	bs, err := Open(path, DefaultOptions())
	require.NoError(t, err)

	id, err := bs.Allocate()
	require.NoError(t, err)
	require.NoError(t, bs.SetRoot(id))
	require.NoError(t, bs.Close())

	bs, err = Open(path, DefaultOptions())
	require.NoError(t, err)
	defer bs.Close()

	assert.False(t, bs.Created())
	assert.Equal(t, id, bs.Root())
}

func TestFreeListPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "freelist.sedir")

	bs, err := Open(path, DefaultOptions())
	require.NoError(t, err)

	var ids []BlockID
	for i := 0; i < 4; i++ {
		id, err := bs.Allocate()
		require.NoError(t, err)
		ids = append(ids, id)
	}
	require.NoError(t, bs.Free(ids[1]))
	require.NoError(t, bs.Free(ids[3]))
	require.NoError(t, bs.Close())

	bs, err = Open(path, DefaultOptions())
	require.NoError(t, err)
	defer bs.Close()

	n, err := bs.FreeBlocks()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := bs.Allocate()
	require.NoError(t, err)
	assert.Equal(t, ids[3], got)
}

func TestReopenUsesHeaderBlockSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "small.sedir")

	opts := DefaultOptions()
	opts.BlockSize = MinBlockSize
	opts.Order = 4
	opts.MaxKeySize = 32
	opts.MaxValueSize = 64

	bs, err := Open(path, opts)
	require.NoError(t, err)

	id, err := bs.Allocate()
	require.NoError(t, err)
	buf := make([]byte, bs.BlockSize())
	copy(buf, []byte("small blocks"))
	require.NoError(t, bs.Write(id, buf))
	require.NoError(t, bs.Close())

	// The file is shorter than the default block size; the reopen must
	// take every creation parameter from the header, not the caller.
	bs, err = Open(path, DefaultOptions())
	require.NoError(t, err)
	defer bs.Close()

	assert.Equal(t, MinBlockSize, bs.BlockSize())
	assert.Equal(t, 4, bs.Order())
	assert.Equal(t, 32, bs.MaxKeySize())
	assert.Equal(t, 64, bs.MaxValueSize())

	got, err := bs.Read(id)
	require.NoError(t, err)
	assert.Equal(t, buf, got)
}

func TestReadOnlyRejectsWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ro.sedir")

	bs, err := Open(path, DefaultOptions())
	require.NoError(t, err)
	id, err := bs.Allocate()
	require.NoError(t, err)
	require.NoError(t, bs.Close())

	opts := DefaultOptions()
	opts.ReadOnly = true
	opts.CreateIfNew = false

	bs, err = Open(path, opts)
	require.NoError(t, err)
	defer bs.Close()

	_, err = bs.Allocate()
	assert.ErrorIs(t, err, ErrReadOnly)

	err = bs.Write(id, make([]byte, bs.BlockSize()))
	assert.ErrorIs(t, err, ErrReadOnly)

	err = bs.Free(id)
	assert.ErrorIs(t, err, ErrReadOnly)
}

func TestClosedStoreRejectsOperations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "closed.sedir")

	bs, err := Open(path, DefaultOptions())
	require.NoError(t, err)
	require.NoError(t, bs.Close())

	_, err = bs.Allocate()
	assert.ErrorIs(t, err, ErrStoreClosed)

	_, err = bs.Read(BlockID(1))
	assert.ErrorIs(t, err, ErrStoreClosed)

	assert.ErrorIs(t, bs.Close(), ErrStoreClosed)
}

func TestCorruptHeaderRejectedOnOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.sedir")

	bs, err := Open(path, DefaultOptions())
	require.NoError(t, err)
	require.NoError(t, bs.Close())

	// Stomp the magic bytes.
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	require.NoError(t, err)
	_, err = f.WriteAt([]byte("XXXX"), 0)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	opts := DefaultOptions()
	opts.CreateIfNew = false
	_, err = Open(path, opts)
	assert.ErrorIs(t, err, ErrInvalidMagic)
}
