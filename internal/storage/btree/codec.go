package btree

import (
	"encoding/binary"
	goerrors "errors"

	"github.com/pkg/errors"

	"github.com/sedirdb/sedir/internal/storage"
)

// Node block layout. All integers are little-endian.
//
// Leaf:
//   - Byte 0:      tag (tagLeaf)
//   - Bytes 1-2:   entry count (uint16)
//   - Bytes 3-10:  next leaf block id (uint64)
//   - Bytes 11-18: prev leaf block id (uint64)
//   - Entries:     key length (uint16), key, value length (uint32), value
//
// Internal:
//   - Byte 0:      tag (tagInternal)
//   - Bytes 1-2:   key count (uint16)
//   - Keys:        count entries of key length (uint16) then key
//   - Children:    count+1 block ids (uint64)
const (
	tagLeaf     = 1
	tagInternal = 2

	leafHeaderSize     = 19
	internalHeaderSize = 3

	keyLenSize   = 2
	valueLenSize = 4
	blockIDSize  = 8
)

// Codec errors.
var (
	ErrCorruptBlock = goerrors.New("corrupt node block")
	ErrNodeTooLarge = goerrors.New("encoded node exceeds block size")
)

// encodedSize returns the number of bytes the node occupies when encoded.
func encodedSize(n *Node) int {
	if n.Leaf {
		size := leafHeaderSize
		for i, key := range n.Keys {
			size += keyLenSize + len(key) + valueLenSize + len(n.Values[i])
		}
		return size
	}

	size := internalHeaderSize
	for _, key := range n.Keys {
		size += keyLenSize + len(key)
	}
	return size + len(n.Children)*blockIDSize
}

// maxEncodedSize returns the worst-case encoded size of a full node for the
// given order and key/value limits.
func maxEncodedSize(order, maxKeySize, maxValueSize int) int {
	leaf := leafHeaderSize + order*(keyLenSize+maxKeySize+valueLenSize+maxValueSize)
	internal := internalHeaderSize + (order-1)*(keyLenSize+maxKeySize) + order*blockIDSize
	if leaf > internal {
		return leaf
	}
	return internal
}

// FitsBlock reports whether every node a tree of the given order can produce
// is guaranteed to encode within blockSize. This is the creation-time check
// that makes oversized nodes a configuration error rather than a runtime
// condition.
func FitsBlock(order, maxKeySize, maxValueSize, blockSize int) bool {
	return maxEncodedSize(order, maxKeySize, maxValueSize) <= blockSize
}

// MaxFittingOrder returns the largest order whose worst-case node encodes
// within blockSize under the given key/value limits, or 0 if not even
// MinOrder fits.
func MaxFittingOrder(maxKeySize, maxValueSize, blockSize int) int {
	leaf := (blockSize - leafHeaderSize) / (keyLenSize + maxKeySize + valueLenSize + maxValueSize)
	internal := (blockSize - internalHeaderSize + keyLenSize + maxKeySize) / (keyLenSize + maxKeySize + blockIDSize)

	order := leaf
	if internal < order {
		order = internal
	}
	if order > MaxOrder {
		order = MaxOrder
	}
	if order < MinOrder {
		return 0
	}
	return order
}

// encodeNode serializes a node into a fresh buffer of exactly blockSize
// bytes.
func encodeNode(n *Node, blockSize int) ([]byte, error) {
	if encodedSize(n) > blockSize {
		return nil, errors.Wrapf(ErrNodeTooLarge, "block %d: %d keys", n.ID, len(n.Keys))
	}

	if n.Leaf {
		if len(n.Values) != len(n.Keys) {
			return nil, errors.Wrapf(ErrCorruptBlock, "leaf %d: %d keys, %d values", n.ID, len(n.Keys), len(n.Values))
		}
	} else if len(n.Children) != len(n.Keys)+1 {
		return nil, errors.Wrapf(ErrCorruptBlock, "internal %d: %d keys, %d children", n.ID, len(n.Keys), len(n.Children))
	}

	buf := make([]byte, blockSize)
	binary.LittleEndian.PutUint16(buf[1:3], uint16(len(n.Keys)))

	if n.Leaf {
		buf[0] = tagLeaf
		binary.LittleEndian.PutUint64(buf[3:11], uint64(n.Next))
		binary.LittleEndian.PutUint64(buf[11:19], uint64(n.Prev))

		off := leafHeaderSize
		for i, key := range n.Keys {
			binary.LittleEndian.PutUint16(buf[off:], uint16(len(key)))
			off += keyLenSize
			off += copy(buf[off:], key)

			binary.LittleEndian.PutUint32(buf[off:], uint32(len(n.Values[i])))
			off += valueLenSize
			off += copy(buf[off:], n.Values[i])
		}
		return buf, nil
	}

	buf[0] = tagInternal
	off := internalHeaderSize
	for _, key := range n.Keys {
		binary.LittleEndian.PutUint16(buf[off:], uint16(len(key)))
		off += keyLenSize
		off += copy(buf[off:], key)
	}
	for _, child := range n.Children {
		binary.LittleEndian.PutUint64(buf[off:], uint64(child))
		off += blockIDSize
	}

	return buf, nil
}

// decodeNode deserializes the block read from the given id back into a Node.
// decode(encode(n)) == n for every node that encodes successfully.
func decodeNode(buf []byte, id storage.BlockID) (*Node, error) {
	if len(buf) < internalHeaderSize {
		return nil, errors.Wrapf(ErrCorruptBlock, "block %d: truncated", id)
	}

	tag := buf[0]
	count := int(binary.LittleEndian.Uint16(buf[1:3]))

	switch tag {
	case tagLeaf:
		return decodeLeaf(buf, id, count)
	case tagInternal:
		return decodeInternal(buf, id, count)
	default:
		return nil, errors.Wrapf(ErrCorruptBlock, "block %d: unknown tag %d", id, tag)
	}
}

func decodeLeaf(buf []byte, id storage.BlockID, count int) (*Node, error) {
	if len(buf) < leafHeaderSize {
		return nil, errors.Wrapf(ErrCorruptBlock, "leaf %d: truncated header", id)
	}

	n := newLeaf(id)
	n.Next = storage.BlockID(binary.LittleEndian.Uint64(buf[3:11]))
	n.Prev = storage.BlockID(binary.LittleEndian.Uint64(buf[11:19]))
	n.Keys = make([][]byte, count)
	n.Values = make([][]byte, count)

	off := leafHeaderSize
	for i := 0; i < count; i++ {
		key, next, err := readChunk(buf, off, keyLenSize, id)
		if err != nil {
			return nil, err
		}
		n.Keys[i], off = key, next

		value, next, err := readChunk(buf, off, valueLenSize, id)
		if err != nil {
			return nil, err
		}
		n.Values[i], off = value, next
	}

	return n, nil
}

func decodeInternal(buf []byte, id storage.BlockID, count int) (*Node, error) {
	n := newInternal(id)
	n.Keys = make([][]byte, count)
	n.Children = make([]storage.BlockID, count+1)

	off := internalHeaderSize
	for i := 0; i < count; i++ {
		key, next, err := readChunk(buf, off, keyLenSize, id)
		if err != nil {
			return nil, err
		}
		n.Keys[i], off = key, next
	}

	if off+len(n.Children)*blockIDSize > len(buf) {
		return nil, errors.Wrapf(ErrCorruptBlock, "internal %d: child ids past block end", id)
	}
	for i := range n.Children {
		n.Children[i] = storage.BlockID(binary.LittleEndian.Uint64(buf[off:]))
		off += blockIDSize
	}

	return n, nil
}

// readChunk reads one length-prefixed byte string at off. The prefix is
// lenSize bytes (2 for keys, 4 for values).
func readChunk(buf []byte, off, lenSize int, id storage.BlockID) ([]byte, int, error) {
	if off+lenSize > len(buf) {
		return nil, 0, errors.Wrapf(ErrCorruptBlock, "block %d: length prefix past block end", id)
	}

	var length int
	if lenSize == keyLenSize {
		length = int(binary.LittleEndian.Uint16(buf[off:]))
	} else {
		length = int(binary.LittleEndian.Uint32(buf[off:]))
	}
	off += lenSize

	if off+length > len(buf) {
		return nil, 0, errors.Wrapf(ErrCorruptBlock, "block %d: declared length %d past block end", id, length)
	}

	out := make([]byte, length)
	copy(out, buf[off:off+length])

	return out, off + length, nil
}
