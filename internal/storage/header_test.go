package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileHeaderRoundTrip(t *testing.T) {
	h := NewFileHeader(4096, 64, 128, 1024)
	h.TotalBlocks = 17
	h.RootBlock = 3
	h.FreeHead = 9

	buf := make([]byte, DefaultBlockSize)
	require.NoError(t, h.SerializeTo(buf))

	var got FileHeader
	require.NoError(t, got.DeserializeAndValidate(buf))

	assert.Equal(t, Magic, got.Magic)
	assert.Equal(t, CurrentVersion, got.Version)
	assert.Equal(t, uint32(4096), got.BlockSize)
	assert.Equal(t, uint32(64), got.Order)
	assert.Equal(t, uint32(128), got.MaxKeySize)
	assert.Equal(t, uint32(1024), got.MaxValueSize)
	assert.Equal(t, uint64(17), got.TotalBlocks)
	assert.Equal(t, BlockID(3), got.RootBlock)
	assert.Equal(t, BlockID(9), got.FreeHead)
}

func TestFileHeaderInvalidMagic(t *testing.T) {
	h := NewFileHeader(4096, 8, 64, 256)
	buf := make([]byte, DefaultBlockSize)
	require.NoError(t, h.SerializeTo(buf))

	buf[0] = 'X'

	var got FileHeader
	err := got.DeserializeAndValidate(buf)
	assert.ErrorIs(t, err, ErrInvalidMagic)
}

func TestFileHeaderUnsupportedVersion(t *testing.T) {
	h := NewFileHeader(4096, 8, 64, 256)
	h.Version = CurrentVersion + 1

	buf := make([]byte, DefaultBlockSize)
	require.NoError(t, h.SerializeTo(buf))

	var got FileHeader
	err := got.DeserializeAndValidate(buf)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestFileHeaderChecksumMismatch(t *testing.T) {
	h := NewFileHeader(4096, 8, 64, 256)
	buf := make([]byte, DefaultBlockSize)
	require.NoError(t, h.SerializeTo(buf))

	// Flip a bit inside the checksummed region but leave the magic intact.
	buf[20] ^= 0xFF

	var got FileHeader
	err := got.DeserializeAndValidate(buf)
	assert.ErrorIs(t, err, ErrHeaderChecksum)
}

func TestFileHeaderShortBuffer(t *testing.T) {
	h := NewFileHeader(4096, 8, 64, 256)
	err := h.SerializeTo(make([]byte, 10))
	assert.ErrorIs(t, err, ErrInvalidHeaderSize)

	var got FileHeader
	err = got.Deserialize(make([]byte, 10))
	assert.ErrorIs(t, err, ErrInvalidHeaderSize)
}
