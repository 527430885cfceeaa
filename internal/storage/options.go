package storage

import "go.uber.org/zap"

// Default options for BlockStore.
const (
	// DefaultBlockSize is the default block size in bytes.
	DefaultBlockSize = 4096

	// MinBlockSize is the smallest supported block size.
	MinBlockSize = 512
)

// Options configures the BlockStore.
type Options struct {
	BlockSize    int         // Block size in bytes (default: 4096), fixed at creation
	Order        int         // Tree order recorded in the header at creation
	MaxKeySize   int         // Key size limit recorded in the header at creation
	MaxValueSize int         // Value size limit recorded in the header at creation
	CreateIfNew  bool        // Create the file if it doesn't exist
	ReadOnly     bool        // Open in read-only mode
	SyncOnWrite  bool        // Sync to disk after each block write
	Logger       *zap.Logger // Structural event logging (default: zap.NewNop())
}

// DefaultOptions returns the default BlockStore options.
func DefaultOptions() Options {
	return Options{
		BlockSize:   DefaultBlockSize,
		CreateIfNew: true,
	}
}
