package storage

import (
	"encoding/binary"
	"errors"
	"hash/crc32"
)

// File header constants.
const (
	// MagicByte0..3 are the magic bytes identifying a sedir file ("SDR\x00").
	MagicByte0 = 'S'
	MagicByte1 = 'D'
	MagicByte2 = 'R'
	MagicByte3 = 0x00

	// CurrentVersion is the current file format version.
	CurrentVersion uint32 = 1

	// headerPayloadSize is the number of meaningful header bytes; the rest
	// of block 0 is zero padding. Open reads exactly this many bytes before
	// the on-disk block size is known.
	headerPayloadSize = 52

	// checksumOffset is where the header CRC32 starts. The checksum covers
	// all header bytes before it.
	checksumOffset = 48
)

// Magic is the magic number for sedir files.
var Magic = [4]byte{MagicByte0, MagicByte1, MagicByte2, MagicByte3}

// Errors for file header operations.
var (
	ErrInvalidMagic       = errors.New("invalid magic number: not a sedir file")
	ErrUnsupportedVersion = errors.New("unsupported file format version")
	ErrHeaderChecksum     = errors.New("file header checksum mismatch")
	ErrInvalidHeaderSize  = errors.New("invalid header size")
)

// FileHeader is the metadata singleton stored in block 0. It records every
// parameter fixed at creation time, so reopening a file needs nothing from
// the caller.
// Layout:
//   - Bytes 0-3:   Magic number ("SDR\x00")
//   - Bytes 4-7:   Version (uint32)
//   - Bytes 8-11:  BlockSize (uint32)
//   - Bytes 12-15: Order (uint32, tree fan-out)
//   - Bytes 16-19: MaxKeySize (uint32)
//   - Bytes 20-23: MaxValueSize (uint32)
//   - Bytes 24-31: TotalBlocks (uint64)
//   - Bytes 32-39: RootBlock (BlockID/uint64)
//   - Bytes 40-47: FreeHead (BlockID/uint64)
//   - Bytes 48-51: Checksum (CRC32 of bytes 0-47)
//   - Bytes 52-..: Zero padding up to BlockSize
type FileHeader struct {
	Magic        [4]byte
	Version      uint32
	BlockSize    uint32
	Order        uint32
	MaxKeySize   uint32
	MaxValueSize uint32
	TotalBlocks  uint64
	RootBlock    BlockID
	FreeHead     BlockID
	Checksum     uint32
}

// NewFileHeader creates a header for a freshly created store.
func NewFileHeader(blockSize, order, maxKeySize, maxValueSize uint32) *FileHeader {
	return &FileHeader{
		Magic:        Magic,
		Version:      CurrentVersion,
		BlockSize:    blockSize,
		Order:        order,
		MaxKeySize:   maxKeySize,
		MaxValueSize: maxValueSize,
		TotalBlocks:  1, // block 0 is the header itself
		RootBlock:    InvalidBlockID,
		FreeHead:     InvalidBlockID,
	}
}

// SerializeTo writes the header into buf. The slice must be at least one
// block long; bytes past the payload are zeroed.
func (h *FileHeader) SerializeTo(buf []byte) error {
	if len(buf) < headerPayloadSize {
		return ErrInvalidHeaderSize
	}

	for i := range buf {
		buf[i] = 0
	}

	copy(buf[0:4], h.Magic[:])
	binary.LittleEndian.PutUint32(buf[4:8], h.Version)
	binary.LittleEndian.PutUint32(buf[8:12], h.BlockSize)
	binary.LittleEndian.PutUint32(buf[12:16], h.Order)
	binary.LittleEndian.PutUint32(buf[16:20], h.MaxKeySize)
	binary.LittleEndian.PutUint32(buf[20:24], h.MaxValueSize)
	binary.LittleEndian.PutUint64(buf[24:32], h.TotalBlocks)
	binary.LittleEndian.PutUint64(buf[32:40], uint64(h.RootBlock))
	binary.LittleEndian.PutUint64(buf[40:48], uint64(h.FreeHead))

	h.Checksum = crc32.ChecksumIEEE(buf[:checksumOffset])
	binary.LittleEndian.PutUint32(buf[checksumOffset:headerPayloadSize], h.Checksum)

	return nil
}

// Deserialize reads the header from buf without validating it.
func (h *FileHeader) Deserialize(buf []byte) error {
	if len(buf) < headerPayloadSize {
		return ErrInvalidHeaderSize
	}

	copy(h.Magic[:], buf[0:4])
	h.Version = binary.LittleEndian.Uint32(buf[4:8])
	h.BlockSize = binary.LittleEndian.Uint32(buf[8:12])
	h.Order = binary.LittleEndian.Uint32(buf[12:16])
	h.MaxKeySize = binary.LittleEndian.Uint32(buf[16:20])
	h.MaxValueSize = binary.LittleEndian.Uint32(buf[20:24])
	h.TotalBlocks = binary.LittleEndian.Uint64(buf[24:32])
	h.RootBlock = BlockID(binary.LittleEndian.Uint64(buf[32:40]))
	h.FreeHead = BlockID(binary.LittleEndian.Uint64(buf[40:48]))
	h.Checksum = binary.LittleEndian.Uint32(buf[checksumOffset:headerPayloadSize])

	return nil
}

// Validate checks magic, version and checksum against the raw header bytes.
func (h *FileHeader) Validate(buf []byte) error {
	if h.Magic != Magic {
		return ErrInvalidMagic
	}

	if h.Version == 0 || h.Version > CurrentVersion {
		return ErrUnsupportedVersion
	}

	if len(buf) < headerPayloadSize {
		return ErrInvalidHeaderSize
	}

	if crc32.ChecksumIEEE(buf[:checksumOffset]) != h.Checksum {
		return ErrHeaderChecksum
	}

	return nil
}

// DeserializeAndValidate reads the header and performs all validation checks.
func (h *FileHeader) DeserializeAndValidate(buf []byte) error {
	if err := h.Deserialize(buf); err != nil {
		return err
	}

	return h.Validate(buf)
}
