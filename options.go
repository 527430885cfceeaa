package sedir

import (
	"go.uber.org/zap"

	"github.com/sedirdb/sedir/internal/storage"
)

// Default limits. An order-0 Options derives the largest tree order whose
// worst-case node still fits the block size under these limits.
const (
	DefaultBlockSize    = storage.DefaultBlockSize
	DefaultMaxKeySize   = 64
	DefaultMaxValueSize = 256
)

// Options configures a database opened with Open. The zero value is not
// usable; start from DefaultOptions.
type Options struct {
	// BlockSize is the size of every block in the file. Fixed at creation;
	// ignored when opening an existing database.
	BlockSize int

	// Order is the tree fan-out: the maximum number of entries per leaf and
	// children per internal node. Zero derives the largest order that fits
	// BlockSize under the key and value limits. Fixed at creation.
	Order int

	// MaxKeySize and MaxValueSize bound entry sizes. Together with Order
	// they guarantee at creation time that every node fits its block.
	// Fixed at creation; ignored when opening an existing database.
	MaxKeySize   int
	MaxValueSize int

	// Overwrite replaces the stored value on duplicate insert instead of
	// returning ErrDuplicateKey.
	Overwrite bool

	// ReadOnly opens the database for reading only.
	ReadOnly bool

	// SyncOnWrite fsyncs the file after every block write. Durable but
	// slow; without it the OS decides when dirty blocks reach disk.
	SyncOnWrite bool

	// Logger receives structured operational logs. Nil disables logging.
	Logger *zap.Logger
}

// DefaultOptions returns the options Open falls back to for unset fields.
func DefaultOptions() Options {
	return Options{
		BlockSize:    DefaultBlockSize,
		MaxKeySize:   DefaultMaxKeySize,
		MaxValueSize: DefaultMaxValueSize,
	}
}

// withDefaults fills unset fields from DefaultOptions.
func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.BlockSize == 0 {
		o.BlockSize = def.BlockSize
	}
	if o.MaxKeySize == 0 {
		o.MaxKeySize = def.MaxKeySize
	}
	if o.MaxValueSize == 0 {
		o.MaxValueSize = def.MaxValueSize
	}
	return o
}
